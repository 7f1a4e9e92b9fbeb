// directives.go defines the preprocessor directive kinds and the single-line
// parser that recognises them. Directives occupy a whole line and start with '#'
// after optional indentation; every other line is passed through as WGSL.
package shader

import (
	"fmt"
	"regexp"
	"strings"
)

// directiveType identifies the kind of preprocessor line.
type directiveType string

const (
	// directiveInclude splices another library file in place, once per Load.
	//
	// Syntax: #include "camera_uniform.wgsl"
	directiveInclude directiveType = "include"

	// directiveDefine introduces a macro. A value, when present, replaces every
	// whole-word occurrence of the name in the lines that follow.
	//
	// Syntax: #define NAME [value]
	directiveDefine directiveType = "define"

	// directiveIfdef keeps the following block only when NAME is defined.
	directiveIfdef directiveType = "ifdef"

	// directiveIfndef keeps the following block only when NAME is not defined.
	directiveIfndef directiveType = "ifndef"

	// directiveElse flips the innermost conditional block.
	directiveElse directiveType = "else"

	// directiveEndif closes the innermost conditional block.
	directiveEndif directiveType = "endif"
)

// directive is one parsed preprocessor line.
type directive struct {
	kind  directiveType
	arg   string // include path or macro name
	value string // macro value for #define, may be empty
	line  int
}

// identRegex matches a macro name.
var identRegex = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// parseDirective attempts to parse a single source line as a directive.
// Returns nil with no error for ordinary WGSL lines.
//
// Parameters:
//   - line: the raw source line
//   - lineNum: the 1-based line number for error reporting
//
// Returns:
//   - *directive: the parsed directive, or nil if the line is not one
//   - error: a descriptive error if the directive is malformed
func parseDirective(line string, lineNum int) (*directive, error) {
	trimmed := strings.TrimSpace(line)
	body, ok := strings.CutPrefix(trimmed, "#")
	if !ok {
		return nil, nil
	}

	fields := strings.Fields(body)
	if len(fields) == 0 {
		return nil, fmt.Errorf("empty directive")
	}

	d := &directive{kind: directiveType(fields[0]), line: lineNum}
	switch d.kind {
	case directiveInclude:
		rest := strings.TrimSpace(strings.TrimPrefix(body, fields[0]))
		if len(rest) < 2 || rest[0] != '"' || rest[len(rest)-1] != '"' {
			return nil, fmt.Errorf("#include expects a quoted file name, got %q", rest)
		}
		d.arg = rest[1 : len(rest)-1]
		if d.arg == "" {
			return nil, fmt.Errorf("#include with empty file name")
		}
	case directiveDefine:
		if len(fields) < 2 {
			return nil, fmt.Errorf("#define requires a name")
		}
		if !identRegex.MatchString(fields[1]) {
			return nil, fmt.Errorf("invalid macro name %q", fields[1])
		}
		d.arg = fields[1]
		if len(fields) > 2 {
			_, after, _ := strings.Cut(body, fields[1])
			d.value = strings.TrimSpace(after)
		}
	case directiveIfdef, directiveIfndef:
		if len(fields) != 2 || !identRegex.MatchString(fields[1]) {
			return nil, fmt.Errorf("#%s requires exactly one macro name", d.kind)
		}
		d.arg = fields[1]
	case directiveElse, directiveEndif:
		if len(fields) != 1 {
			return nil, fmt.Errorf("#%s takes no arguments", d.kind)
		}
	default:
		return nil, fmt.Errorf("unknown directive #%s", fields[0])
	}
	return d, nil
}

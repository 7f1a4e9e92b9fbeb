// pre_processor.go implements the WGSL preprocessor. It expands #include lines
// from a Library, tracks #define macros and evaluates #ifdef/#ifndef/#else/#endif
// blocks. Each file is included at most once per Process call, and re-entering a
// file that is still being expanded is an ErrIncludeCycle.
package shader

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
)

// Define is a macro supplied by the caller before any source is read.
type Define struct {
	Name  string
	Value string
}

// sourceResolver supplies raw file contents to the preprocessor.
type sourceResolver interface {
	raw(name string) (string, error)
}

// preProcessor carries the state of a single Process call.
type preProcessor struct {
	resolver sourceResolver

	macros   map[string]string
	included map[string]bool
	stack    []string
}

// condFrame is one level of #ifdef nesting.
type condFrame struct {
	parentActive bool
	taken        bool
	active       bool
	sawElse      bool
	line         int
}

// newPreProcessor creates a preprocessor seeded with the given defines.
func newPreProcessor(resolver sourceResolver, defines []Define) *preProcessor {
	p := &preProcessor{
		resolver: resolver,
		macros:   make(map[string]string, len(defines)),
		included: make(map[string]bool),
	}
	for _, d := range defines {
		p.macros[d.Name] = d.Value
	}
	return p
}

// Process expands the named root file.
//
// Parameters:
//   - name: library file name of the root shader
//
// Returns:
//   - string: WGSL with every directive resolved
//   - error: file:line located failure, ErrIncludeCycle or ErrNotFound wrapped
func (p *preProcessor) Process(name string) (string, error) {
	var sb strings.Builder
	if err := p.expand(name, &sb); err != nil {
		return "", err
	}
	return sb.String(), nil
}

func (p *preProcessor) expand(name string, sb *strings.Builder) error {
	if slices.Contains(p.stack, name) {
		chain := append(slices.Clone(p.stack), name)
		return fmt.Errorf("%w: %s", ErrIncludeCycle, strings.Join(chain, " -> "))
	}
	if p.included[name] {
		return nil
	}

	src, err := p.resolver.raw(name)
	if err != nil {
		return err
	}
	p.included[name] = true
	p.stack = append(p.stack, name)
	defer func() { p.stack = p.stack[:len(p.stack)-1] }()

	var conds []condFrame
	active := func() bool {
		return len(conds) == 0 || conds[len(conds)-1].active
	}

	lines := strings.Split(src, "\n")
	for i, line := range lines {
		lineNum := i + 1
		d, err := parseDirective(line, lineNum)
		if err != nil {
			return fmt.Errorf("%s:%d: %w", name, lineNum, err)
		}

		if d == nil {
			if active() {
				sb.WriteString(p.substitute(line))
				sb.WriteByte('\n')
			}
			continue
		}

		switch d.kind {
		case directiveIfdef, directiveIfndef:
			_, defined := p.macros[d.arg]
			cond := defined == (d.kind == directiveIfdef)
			parent := active()
			conds = append(conds, condFrame{
				parentActive: parent,
				taken:        cond,
				active:       parent && cond,
				line:         lineNum,
			})
		case directiveElse:
			if len(conds) == 0 {
				return fmt.Errorf("%s:%d: #else without #ifdef", name, lineNum)
			}
			top := &conds[len(conds)-1]
			if top.sawElse {
				return fmt.Errorf("%s:%d: duplicate #else", name, lineNum)
			}
			top.sawElse = true
			top.active = top.parentActive && !top.taken
		case directiveEndif:
			if len(conds) == 0 {
				return fmt.Errorf("%s:%d: #endif without #ifdef", name, lineNum)
			}
			conds = conds[:len(conds)-1]
		case directiveDefine:
			if active() {
				p.macros[d.arg] = d.value
			}
		case directiveInclude:
			if !active() {
				continue
			}
			if err := p.expand(d.arg, sb); err != nil {
				return fmt.Errorf("%s:%d: %w", name, lineNum, err)
			}
		}
	}

	if len(conds) > 0 {
		return fmt.Errorf("%s:%d: unterminated #%s", name, conds[len(conds)-1].line, directiveIfdef)
	}
	return nil
}

// substitute replaces whole-word macro names that carry a value.
func (p *preProcessor) substitute(line string) string {
	for name, value := range p.macros {
		if value == "" || !strings.Contains(line, name) {
			continue
		}
		re := regexp.MustCompile(`\b` + regexp.QuoteMeta(name) + `\b`)
		line = re.ReplaceAllLiteralString(line, value)
	}
	return line
}

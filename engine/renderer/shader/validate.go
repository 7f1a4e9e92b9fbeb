package shader

import (
	"regexp"
	"strconv"

	"github.com/gogpu/naga/wgsl"
)

// errLineRegex picks a line number out of a naga diagnostic.
var errLineRegex = regexp.MustCompile(`(?i)line\s*(\d+)|(\d+):\d+`)

// Validate runs the WGSL lexer and parser over src so syntax errors surface with a
// location before the source reaches the device.
//
// Parameters:
//   - name: file name used in the error
//   - src: preprocessed WGSL
//
// Returns:
//   - error: *CompileError wrapping ErrShaderCompile, or nil
func Validate(name, src string) error {
	tokens, err := wgsl.NewLexer(src).Tokenize()
	if err != nil {
		return newCompileError(name, err)
	}
	if _, err := wgsl.NewParser(tokens).Parse(); err != nil {
		return newCompileError(name, err)
	}
	return nil
}

func newCompileError(name string, err error) *CompileError {
	ce := &CompileError{Name: name, Msg: err.Error()}
	if m := errLineRegex.FindStringSubmatch(ce.Msg); m != nil {
		digits := m[1]
		if digits == "" {
			digits = m[2]
		}
		ce.Line, _ = strconv.Atoi(digits)
	}
	return ce
}

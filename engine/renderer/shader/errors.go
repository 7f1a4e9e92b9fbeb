package shader

import (
	"errors"
	"fmt"
)

var (
	// ErrShaderCompile is wrapped by every CompileError.
	ErrShaderCompile = errors.New("shader compile failed")

	// ErrIncludeCycle is returned when an #include chain revisits a file still being expanded.
	ErrIncludeCycle = errors.New("include cycle")

	// ErrLayoutMismatch is returned by CheckLayout when a declared binding disagrees
	// with the explicit layout a pass builds.
	ErrLayoutMismatch = errors.New("bind group layout mismatch")

	// ErrNotFound is returned when a shader name resolves to neither a registered
	// virtual file nor a file in the backing filesystem.
	ErrNotFound = errors.New("shader not found")
)

// CompileError locates a shader failure. Line is 1-based, 0 when unknown.
// Err, when set, is the underlying cause such as ErrIncludeCycle.
type CompileError struct {
	Name string
	Line int
	Msg  string
	Err  error
}

func (e *CompileError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d: %s", e.Name, e.Line, e.Msg)
	}
	return fmt.Sprintf("%s: %s", e.Name, e.Msg)
}

// Unwrap lets callers test a CompileError with errors.Is against ErrShaderCompile
// and against its cause.
func (e *CompileError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrShaderCompile, e.Err}
	}
	return []error{ErrShaderCompile}
}

package shader

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"sync"

	"github.com/Carmen-Shannon/oxy-deferred/engine/logger"
	"go.uber.org/zap"
)

// Assets holds the built-in pass shaders.
//
//go:embed assets/*.wgsl
var Assets embed.FS

// Library resolves shader names to preprocessed WGSL. Names are looked up in
// the registered virtual files first, then in the backing filesystem.
type Library interface {
	// Register adds or replaces a virtual file, e.g. a generated binding block.
	//
	// Parameters:
	//   - name: the include name other sources refer to
	//   - source: raw WGSL, may itself contain directives
	Register(name, source string)

	// Load preprocesses the named file.
	//
	// Parameters:
	//   - name: root file name
	//   - defines: macros visible from the first line
	//
	// Returns:
	//   - string: expanded WGSL
	//   - error: located preprocessing failure
	Load(name string, defines ...Define) (string, error)

	// Build loads, optionally validates and reflects a shader.
	//
	// Parameters:
	//   - name: root file name
	//   - shaderType: which entry points the module provides
	//   - defines: macros visible from the first line
	//
	// Returns:
	//   - Shader: reflected shader ready for module creation
	//   - error: wraps ErrShaderCompile when validation or reflection fails
	Build(name string, shaderType ShaderType, defines ...Define) (Shader, error)

	// Validating reports whether Build runs syntax validation.
	Validating() bool
}

type library struct {
	mu *sync.RWMutex

	fsys     fs.FS
	virtual  map[string]string
	validate bool
}

var _ Library = &library{}

// LibraryOption is a functional option for configuring a Library.
type LibraryOption func(*library)

// WithValidation toggles WGSL syntax validation in Build.
//
// Parameters:
//   - enabled: true to validate before reflection
//
// Returns:
//   - LibraryOption: functional option to set validation
func WithValidation(enabled bool) LibraryOption {
	return func(l *library) {
		l.validate = enabled
	}
}

// WithSource registers a virtual file at construction.
//
// Parameters:
//   - name: include name
//   - source: raw WGSL
//
// Returns:
//   - LibraryOption: functional option to register the file
func WithSource(name, source string) LibraryOption {
	return func(l *library) {
		l.virtual[name] = source
	}
}

// NewLibrary creates a Library backed by fsys. A nil fsys means the embedded
// assets directory. Validation is on unless disabled with WithValidation.
//
// Parameters:
//   - fsys: filesystem rooted at the shader directory, or nil
//   - options: functional options
//
// Returns:
//   - Library: the library
func NewLibrary(fsys fs.FS, options ...LibraryOption) Library {
	if fsys == nil {
		sub, err := fs.Sub(Assets, "assets")
		if err != nil {
			panic(fmt.Sprintf("shader: embedded assets: %v", err))
		}
		fsys = sub
	}
	l := &library{
		mu:       &sync.RWMutex{},
		fsys:     fsys,
		virtual:  make(map[string]string),
		validate: true,
	}
	for _, opt := range options {
		opt(l)
	}
	return l
}

func (l *library) Register(name, source string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.virtual[name] = source
}

func (l *library) raw(name string) (string, error) {
	l.mu.RLock()
	src, ok := l.virtual[name]
	l.mu.RUnlock()
	if ok {
		return src, nil
	}

	data, err := fs.ReadFile(l.fsys, name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return "", fmt.Errorf("reading %s: %w", name, err)
	}
	return string(data), nil
}

func (l *library) Load(name string, defines ...Define) (string, error) {
	return newPreProcessor(l, defines).Process(name)
}

func (l *library) Build(name string, shaderType ShaderType, defines ...Define) (Shader, error) {
	src, err := l.Load(name, defines...)
	if err != nil {
		return nil, &CompileError{Name: name, Msg: err.Error(), Err: err}
	}
	if l.validate {
		if err := Validate(name, src); err != nil {
			return nil, err
		}
	}
	s, err := NewShader(name, shaderType, src)
	if err != nil {
		return nil, err
	}
	logger.Debug("shader built",
		zap.String("name", name),
		zap.Int("defines", len(defines)),
		zap.Int("groups", len(s.BindGroupLayoutDescriptors())),
	)
	return s, nil
}

func (l *library) Validating() bool {
	return l.validate
}

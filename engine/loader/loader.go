// Package loader imports static triangle geometry from OBJ and glTF files.
package loader

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"

	"github.com/Carmen-Shannon/oxy-deferred/engine/logger"
	"github.com/Carmen-Shannon/oxy-deferred/engine/mesh"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/material"

	"go.uber.org/zap"
)

var (
	// ErrUnsupportedFormat is returned for file extensions no backend handles.
	ErrUnsupportedFormat = errors.New("unsupported model format")
	// ErrNoGeometry is returned when a file parses but holds no triangles.
	ErrNoGeometry = errors.New("model contains no triangles")
)

// Format identifies a model file format.
type Format int

const (
	FormatOBJ Format = iota
	FormatGLTF
	FormatGLB
)

func (f Format) String() string {
	switch f {
	case FormatOBJ:
		return "obj"
	case FormatGLTF:
		return "gltf"
	case FormatGLB:
		return "glb"
	default:
		return fmt.Sprintf("Format(%d)", int(f))
	}
}

// FormatFromPath picks the format from a file extension, case-insensitively.
//
// Parameters:
//   - path: the model file path
//
// Returns:
//   - Format: the detected format
//   - error: ErrUnsupportedFormat for unknown extensions
func FormatFromPath(path string) (Format, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".obj":
		return FormatOBJ, nil
	case ".gltf":
		return FormatGLTF, nil
	case ".glb":
		return FormatGLB, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}

// ImportedMesh is one triangle mesh and the material it is drawn with.
type ImportedMesh struct {
	Mesh     *mesh.TriangleMesh
	Material material.Material
}

// ImportedModel is the CPU-side result of importing one file.
type ImportedModel struct {
	Name   string
	Meshes []ImportedMesh
}

// TriangleCount sums the triangles of every mesh in the model.
func (m *ImportedModel) TriangleCount() int {
	n := 0
	for _, im := range m.Meshes {
		n += len(im.Mesh.Indices)
	}
	return n
}

// loader is the implementation of the Loader interface.
type loader struct {
	mu         sync.RWMutex
	modelCache map[string]*ImportedModel
	backends   map[Format]loaderBackend
}

// Loader imports model files and caches the results by path or name.
// Cached models are shared; callers that modify meshes (for example by
// computing normals) modify the cached copy.
type Loader interface {
	// Load imports a model file, selecting the backend from its extension.
	// A cached model is returned without touching the file system.
	//
	// Parameters:
	//   - path: the file path to the model file
	//
	// Returns:
	//   - *ImportedModel: the imported model
	//   - error: error if the format is unknown or parsing fails
	Load(path string) (*ImportedModel, error)

	// LoadReader imports a model from a stream and caches it under name.
	//
	// Parameters:
	//   - name: the cache key and model name
	//   - r: the reader providing model data
	//   - format: the format of the stream
	//
	// Returns:
	//   - *ImportedModel: the imported model
	//   - error: error if parsing fails
	LoadReader(name string, r io.Reader, format Format) (*ImportedModel, error)

	// Get retrieves a cached model by name. Returns nil if not found.
	Get(name string) *ImportedModel

	// Models returns a copy of the cache.
	Models() map[string]*ImportedModel
}

var _ Loader = &loader{}

// NewLoader creates a Loader with the OBJ and glTF backends registered.
//
// Parameters:
//   - options: a variadic list of LoaderBuilderOption functions to configure the Loader
//
// Returns:
//   - Loader: the configured loader
func NewLoader(options ...LoaderBuilderOption) Loader {
	gltf := newGLTFLoaderBackend()
	l := &loader{
		modelCache: make(map[string]*ImportedModel),
		backends: map[Format]loaderBackend{
			FormatOBJ:  newOBJLoaderBackend(),
			FormatGLTF: gltf,
			FormatGLB:  gltf,
		},
	}

	for _, option := range options {
		option(l)
	}
	return l
}

func (l *loader) Load(path string) (*ImportedModel, error) {
	if cached := l.Get(path); cached != nil {
		return cached, nil
	}

	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}

	imported, err := l.backends[format].Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}

	l.store(path, imported, format)
	return imported, nil
}

func (l *loader) LoadReader(name string, r io.Reader, format Format) (*ImportedModel, error) {
	if cached := l.Get(name); cached != nil {
		return cached, nil
	}

	backend, ok := l.backends[format]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}

	imported, err := backend.LoadReader(name, r, format)
	if err != nil {
		return nil, fmt.Errorf("failed to load from reader %q: %w", name, err)
	}

	l.store(name, imported, format)
	return imported, nil
}

func (l *loader) store(key string, imported *ImportedModel, format Format) {
	l.mu.Lock()
	l.modelCache[key] = imported
	l.mu.Unlock()

	logger.Debug("model imported",
		zap.String("key", key),
		zap.Stringer("format", format),
		zap.Int("meshes", len(imported.Meshes)),
		zap.Int("triangles", imported.TriangleCount()),
	)
}

func (l *loader) Get(name string) *ImportedModel {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.modelCache[name]
}

func (l *loader) Models() map[string]*ImportedModel {
	l.mu.RLock()
	defer l.mu.RUnlock()

	result := make(map[string]*ImportedModel, len(l.modelCache))
	for k, v := range l.modelCache {
		result[k] = v
	}
	return result
}

package loader

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

// gltfLoaderBackendImpl imports .gltf and .glb files.
type gltfLoaderBackendImpl struct{}

var _ loaderBackend = &gltfLoaderBackendImpl{}

func newGLTFLoaderBackend() loaderBackend {
	return &gltfLoaderBackendImpl{}
}

func (b *gltfLoaderBackendImpl) Load(path string) (*ImportedModel, error) {
	parser := newGLTFParser()
	if err := parser.Parse(path); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return b.extract(parser, strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)))
}

func (b *gltfLoaderBackendImpl) LoadReader(name string, r io.Reader, format Format) (*ImportedModel, error) {
	parser := newGLTFParser()
	if err := parser.ParseReader(r, format == FormatGLB); err != nil {
		return nil, fmt.Errorf("failed to parse from reader: %w", err)
	}
	return b.extract(parser, name)
}

func (b *gltfLoaderBackendImpl) extract(parser gltfParser, name string) (*ImportedModel, error) {
	meshes, err := newGLTFMeshExtractor(parser).ExtractScene()
	if err != nil {
		return nil, err
	}
	if len(meshes) == 0 {
		return nil, fmt.Errorf("%s: %w", name, ErrNoGeometry)
	}
	return &ImportedModel{Name: name, Meshes: meshes}, nil
}

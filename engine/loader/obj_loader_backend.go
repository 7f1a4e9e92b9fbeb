package loader

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/material"
)

// objLoaderBackendImpl imports Wavefront .obj files with a default material.
type objLoaderBackendImpl struct{}

var _ loaderBackend = &objLoaderBackendImpl{}

func newOBJLoaderBackend() loaderBackend {
	return &objLoaderBackendImpl{}
}

func (b *objLoaderBackendImpl) Load(path string) (*ImportedModel, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	return b.LoadReader(strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)), f, FormatOBJ)
}

func (b *objLoaderBackendImpl) LoadReader(name string, r io.Reader, _ Format) (*ImportedModel, error) {
	parser := newOBJParser()
	if err := parser.Parse(r); err != nil {
		return nil, err
	}

	tm := parser.Mesh(name)
	if len(tm.Indices) == 0 {
		return nil, fmt.Errorf("%s: %w", name, ErrNoGeometry)
	}

	return &ImportedModel{
		Name:   name,
		Meshes: []ImportedMesh{{Mesh: tm, Material: material.NewMaterial(material.WithName(name))}},
	}, nil
}

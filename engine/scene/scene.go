// Package scene turns model sources into GPU meshes and holds the light that illuminates them.
package scene

import (
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-deferred/engine/light"
	"github.com/Carmen-Shannon/oxy-deferred/engine/loader"
	"github.com/Carmen-Shannon/oxy-deferred/engine/logger"
	"github.com/Carmen-Shannon/oxy-deferred/engine/mesh"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/pass"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"
)

// ErrEmptySource is returned for a Source with neither a Path nor a Mesh.
var ErrEmptySource = errors.New("source has neither a path nor a mesh")

// Source is one entry of a scene description: a model file or a prebuilt mesh,
// placed at Offset.
type Source struct {
	Path string
	Mesh *mesh.TriangleMesh

	// Material overrides the imported materials. Nil keeps them.
	Material material.Material
	Offset   mgl32.Vec3
}

// scene is the implementation of the Scene interface.
type scene struct {
	mu sync.RWMutex

	label   string
	meshes  []*GPUMesh
	draw    []pass.Mesh
	light   light.PointLight
	workers int
	loader  loader.Loader

	boundsLo, boundsHi mgl32.Vec3
}

// Scene is the set of GPU meshes drawn each frame plus the single point light.
type Scene interface {
	// Label retrieves the scene name used in logs.
	Label() string

	// Meshes retrieves the uploaded meshes in source order.
	Meshes() []*GPUMesh

	// DrawList retrieves the meshes as the interface the render passes consume.
	// The slice is shared and must not be modified.
	DrawList() []pass.Mesh

	// Light retrieves the scene light.
	Light() light.PointLight

	// Bounds returns the world-space bounding box of every mesh.
	//
	// Returns:
	//   - lo: the minimum corner
	//   - hi: the maximum corner
	Bounds() (lo, hi mgl32.Vec3)

	// TriangleCount sums the triangles of every mesh.
	TriangleCount() int

	// Release frees every GPU mesh. The scene is empty afterwards.
	Release()
}

var _ Scene = &scene{}

func newScene(options ...SceneBuilderOption) *scene {
	s := &scene{
		label:   "Scene",
		workers: max(runtime.NumCPU()-1, 1),
	}
	for _, option := range options {
		option(s)
	}
	if s.light == nil {
		s.light = light.NewPointLight()
	}
	if s.loader == nil {
		s.loader = loader.NewLoader()
	}
	return s
}

// Prepare resolves sources into validated triangle meshes with normals. File
// imports, validation and normal generation run in parallel on a worker pool.
// Every mesh is a private copy, so cached imports are never modified.
//
// Parameters:
//   - sources: the scene description
//   - options: SceneBuilderOption functions (WithLoader and WithWorkers apply)
//
// Returns:
//   - []loader.ImportedMesh: one entry per mesh, in source order
//   - error: every failure joined; any failure is fatal
func Prepare(sources []Source, options ...SceneBuilderOption) ([]loader.ImportedMesh, error) {
	return newScene(options...).prepare(sources)
}

func (s *scene) prepare(sources []Source) ([]loader.ImportedMesh, error) {
	pool := worker.NewDynamicWorkerPool(s.workers, 256, time.Second)

	// Stage 1: import every source.
	perSource := make([][]loader.ImportedMesh, len(sources))
	errs := make([]error, len(sources))
	s.run(pool, len(sources), func(i int) {
		perSource[i], errs[i] = s.resolve(sources[i])
	})
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	var out []loader.ImportedMesh
	for _, ims := range perSource {
		out = append(out, ims...)
	}

	// Stage 2: validate and generate missing normals.
	errs = make([]error, len(out))
	generated := make([]bool, len(out))
	s.run(pool, len(out), func(i int) {
		m := out[i].Mesh
		if err := m.Validate(); err != nil {
			errs[i] = err
			return
		}
		if !m.HasNormals() {
			m.ComputeNormals()
			generated[i] = true
		}
	})
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	for i, im := range out {
		logger.Debug("mesh prepared",
			zap.String("scene", s.label),
			zap.String("mesh", im.Mesh.Name),
			zap.Int("vertices", len(im.Mesh.Positions)),
			zap.Int("triangles", len(im.Mesh.Indices)),
			zap.Bool("generated_normals", generated[i]),
		)
	}
	return out, nil
}

// run submits n tasks to the pool and waits for all of them.
func (s *scene) run(pool worker.DynamicWorkerPool, n int, fn func(i int)) {
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		idx := i
		pool.SubmitTask(worker.Task{
			ID: idx,
			Do: func() (any, error) {
				defer wg.Done()
				fn(idx)
				return nil, nil
			},
		})
	}
	wg.Wait()
}

func (s *scene) resolve(src Source) ([]loader.ImportedMesh, error) {
	var ims []loader.ImportedMesh
	switch {
	case src.Mesh != nil:
		mat := src.Material
		if mat == nil {
			mat = material.NewMaterial(material.WithName(src.Mesh.Name))
		}
		ims = []loader.ImportedMesh{{Mesh: src.Mesh, Material: mat}}
	case src.Path != "":
		imported, err := s.loader.Load(src.Path)
		if err != nil {
			return nil, err
		}
		ims = imported.Meshes
	default:
		return nil, ErrEmptySource
	}

	out := make([]loader.ImportedMesh, len(ims))
	for i, im := range ims {
		m := im.Mesh.Clone()
		if src.Offset != (mgl32.Vec3{}) {
			m.Translate(src.Offset[0], src.Offset[1], src.Offset[2])
		}
		mat := im.Material
		if src.Material != nil {
			mat = src.Material
		}
		out[i] = loader.ImportedMesh{Mesh: m, Material: mat}
	}
	return out, nil
}

// Load prepares every source and uploads the results as GPU meshes whose
// material bind groups use materialLayout.
//
// Parameters:
//   - dev: the device
//   - materialLayout: the per-mesh material layout owned by the render pipeline
//   - sources: the scene description
//   - options: variadic SceneBuilderOption functions
//
// Returns:
//   - Scene: the uploaded scene
//   - error: a preparation or upload failure; nothing stays allocated on failure
func Load(dev *wgpu.Device, materialLayout *wgpu.BindGroupLayout, sources []Source, options ...SceneBuilderOption) (Scene, error) {
	s := newScene(options...)

	prepared, err := s.prepare(sources)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.label, err)
	}

	for i, im := range prepared {
		gm, err := NewGPUMesh(dev, materialLayout, im.Mesh, im.Material, uint32(i+1))
		if err != nil {
			s.Release()
			return nil, fmt.Errorf("%s: %w", s.label, err)
		}
		s.add(gm)
	}

	logger.Info("scene loaded",
		zap.String("scene", s.label),
		zap.Int("meshes", len(s.meshes)),
		zap.Int("triangles", s.TriangleCount()),
	)
	return s, nil
}

func (s *scene) add(gm *GPUMesh) {
	s.mu.Lock()
	defer s.mu.Unlock()

	lo, hi := gm.Bounds()
	if len(s.meshes) == 0 {
		s.boundsLo, s.boundsHi = lo, hi
	} else {
		for a := range 3 {
			s.boundsLo[a] = min(s.boundsLo[a], lo[a])
			s.boundsHi[a] = max(s.boundsHi[a], hi[a])
		}
	}
	s.meshes = append(s.meshes, gm)
	s.draw = append(s.draw, gm)
}

func (s *scene) Label() string {
	return s.label
}

func (s *scene) Meshes() []*GPUMesh {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]*GPUMesh(nil), s.meshes...)
}

func (s *scene) DrawList() []pass.Mesh {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.draw
}

func (s *scene) Light() light.PointLight {
	return s.light
}

func (s *scene) Bounds() (lo, hi mgl32.Vec3) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.boundsLo, s.boundsHi
}

func (s *scene) TriangleCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, gm := range s.meshes {
		n += int(gm.IndexCount()) / 3
	}
	return n
}

func (s *scene) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, gm := range s.meshes {
		gm.Release()
	}
	s.meshes = nil
	s.draw = nil
}

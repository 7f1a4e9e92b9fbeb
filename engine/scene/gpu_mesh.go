package scene

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-deferred/engine/mesh"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/pass"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/resource"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
)

// materialBinding is the binding of the GPUMaterial uniform inside the material group.
const materialBinding = 0

// GPUMesh is an uploaded TriangleMesh: interleaved vertices, a uint32 index
// buffer and the material bind group it is drawn with.
type GPUMesh struct {
	id     uuid.UUID
	label  string
	meshID uint32

	vertices *resource.Buffer[mesh.GPUVertex]
	indices  *resource.Buffer[uint32]
	uniform  *resource.Buffer[material.GPUMaterial]
	provider bind_group_provider.BindGroupProvider

	material material.Material
	lo, hi   mgl32.Vec3
}

var _ pass.Mesh = &GPUMesh{}

// NewGPUMesh uploads m. The mesh must be valid and carry normals.
//
// Parameters:
//   - dev: the device
//   - layout: the material bind group layout
//   - m: the mesh to upload
//   - mat: the surface parameters
//   - meshID: the id written to the AOV target, unique within a scene
//
// Returns:
//   - *GPUMesh: the uploaded mesh
//   - error: a missing normal set or a GPU allocation failure
func NewGPUMesh(dev *wgpu.Device, layout *wgpu.BindGroupLayout, m *mesh.TriangleMesh, mat material.Material, meshID uint32) (*GPUMesh, error) {
	if !m.HasNormals() {
		return nil, fmt.Errorf("%w: %q has no normals", mesh.ErrInvalidMesh, m.Name)
	}

	id := uuid.New()
	label := fmt.Sprintf("%s#%s", m.Name, id.String()[:8])
	gm := &GPUMesh{id: id, label: label, meshID: meshID, material: mat}
	gm.lo, gm.hi = m.Bounds()

	var err error
	if gm.vertices, err = resource.NewVertexBuffer(dev, label+" Vertices", m.Vertices()); err != nil {
		return nil, err
	}
	if gm.indices, err = resource.NewIndexBuffer(dev, label+" Indices", m.FlatIndices()); err != nil {
		gm.Release()
		return nil, err
	}
	if gm.uniform, err = resource.NewUniformBuffer(dev, label+" Material", []material.GPUMaterial{mat.Uniform(meshID)}); err != nil {
		gm.Release()
		return nil, err
	}

	gm.provider = bind_group_provider.NewBindGroupProvider(label+" Material",
		bind_group_provider.WithBindGroupLayout(layout),
		bind_group_provider.WithBuffer(materialBinding, gm.uniform.Buffer()),
	)
	if err := gm.provider.Build(dev); err != nil {
		gm.Release()
		return nil, err
	}
	return gm, nil
}

// ID retrieves the unique identifier assigned at upload.
func (g *GPUMesh) ID() uuid.UUID { return g.id }

// Label retrieves the debug label, the mesh name plus a short id.
func (g *GPUMesh) Label() string { return g.label }

// MeshID retrieves the integer written to the AOV target.
func (g *GPUMesh) MeshID() uint32 { return g.meshID }

// Material retrieves the current surface parameters.
func (g *GPUMesh) Material() material.Material { return g.material }

// Bounds returns the world-space bounding box.
func (g *GPUMesh) Bounds() (lo, hi mgl32.Vec3) { return g.lo, g.hi }

func (g *GPUMesh) VertexBuffer() *wgpu.Buffer { return g.vertices.Buffer() }

func (g *GPUMesh) IndexBuffer() *wgpu.Buffer { return g.indices.Buffer() }

func (g *GPUMesh) IndexCount() uint32 { return uint32(g.indices.Len()) }

func (g *GPUMesh) MaterialBindGroup() *wgpu.BindGroup { return g.provider.BindGroup() }

// SetMaterial queues a write of new surface parameters. The bind group is unchanged.
//
// Parameters:
//   - queue: the device queue
//   - mat: the new material
//
// Returns:
//   - error: the mesh has been released
func (g *GPUMesh) SetMaterial(queue *wgpu.Queue, mat material.Material) error {
	if g.provider == nil {
		return fmt.Errorf("%s: mesh released", g.label)
	}
	err := bind_group_provider.WriteBuffers(queue, []bind_group_provider.BufferWrite{{
		Provider: g.provider,
		Binding:  materialBinding,
		Data:     resource.Encode([]material.GPUMaterial{mat.Uniform(g.meshID)}),
	}})
	if err != nil {
		return err
	}
	g.material = mat
	return nil
}

// Release frees the GPU buffers and bind group. Safe to call more than once.
func (g *GPUMesh) Release() {
	if g.provider != nil {
		g.provider.Release()
		g.provider = nil
	}
	g.uniform.Release()
	g.indices.Release()
	g.vertices.Release()
	g.uniform, g.indices, g.vertices = nil, nil, nil
}

package scene_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Carmen-Shannon/oxy-deferred/engine/light"
	"github.com/Carmen-Shannon/oxy-deferred/engine/loader"
	"github.com/Carmen-Shannon/oxy-deferred/engine/mesh"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/gputest"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-deferred/engine/scene"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrepareGeneratesMissingNormals(t *testing.T) {
	cube := mesh.Cube()
	plane := mesh.Plane(4)

	prepared, err := scene.Prepare([]scene.Source{
		{Mesh: cube},
		{Mesh: plane, Offset: mgl32.Vec3{0, -1, 0}},
	}, scene.WithWorkers(2))
	require.NoError(t, err)
	require.Len(t, prepared, 2)

	assert.True(t, prepared[0].Mesh.HasNormals())
	assert.False(t, cube.HasNormals(), "source mesh must not be modified")

	assert.Equal(t, plane.Normals, prepared[1].Mesh.Normals)
	assert.Equal(t, float32(-1), prepared[1].Mesh.Positions[0][1])
	assert.Equal(t, float32(0), plane.Positions[0][1])

	assert.Equal(t, "cube", prepared[0].Material.Name())
}

func TestPrepareManyMeshesInParallel(t *testing.T) {
	var sources []scene.Source
	for i := 0; i < 40; i++ {
		sources = append(sources, scene.Source{Mesh: mesh.Cube(), Offset: mgl32.Vec3{float32(i), 0, 0}})
	}

	prepared, err := scene.Prepare(sources, scene.WithWorkers(4))
	require.NoError(t, err)
	require.Len(t, prepared, 40)
	for i, im := range prepared {
		assert.True(t, im.Mesh.HasNormals())
		lo, _ := im.Mesh.Bounds()
		assert.InDelta(t, float32(i)-0.5, lo[0], 1e-6)
	}
}

func TestPrepareValidationIsFatal(t *testing.T) {
	bad := &mesh.TriangleMesh{
		Name:      "bad",
		Positions: [][3]float32{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}},
		Indices:   [][3]uint32{{0, 1, 3}},
	}
	_, err := scene.Prepare([]scene.Source{{Mesh: mesh.Cube()}, {Mesh: bad}})
	assert.ErrorIs(t, err, mesh.ErrInvalidMesh)
}

func TestPrepareEmptySource(t *testing.T) {
	_, err := scene.Prepare([]scene.Source{{}})
	assert.ErrorIs(t, err, scene.ErrEmptySource)
}

func TestPrepareMaterialOverride(t *testing.T) {
	red := material.NewMaterial(material.WithName("red"), material.WithBaseColor([3]float32{1, 0, 0}))
	prepared, err := scene.Prepare([]scene.Source{{Mesh: mesh.Cube(), Material: red}})
	require.NoError(t, err)
	assert.Same(t, red, prepared[0].Material)
}

func TestPrepareFromFileKeepsCacheIntact(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tri.obj")
	require.NoError(t, os.WriteFile(path, []byte("v 0 0 0\nv 1 0 0\nv 0 1 0\nf 1 2 3\n"), 0o644))

	l := loader.NewLoader()
	prepared, err := scene.Prepare([]scene.Source{
		{Path: path},
		{Path: path, Offset: mgl32.Vec3{0, 0, 5}},
	}, scene.WithLoader(l))
	require.NoError(t, err)
	require.Len(t, prepared, 2)

	assert.Equal(t, [3]float32{0, 0, 1}, prepared[0].Mesh.Normals[0])
	assert.Equal(t, float32(5), prepared[1].Mesh.Positions[0][2])

	cached := l.Get(path)
	require.NotNil(t, cached)
	assert.False(t, cached.Meshes[0].Mesh.HasNormals())
	assert.Equal(t, float32(0), cached.Meshes[0].Mesh.Positions[0][2])
}

func TestPrepareMissingFile(t *testing.T) {
	_, err := scene.Prepare([]scene.Source{{Path: filepath.Join(t.TempDir(), "missing.obj")}})
	assert.Error(t, err)
}

func TestLoadUploadsMeshes(t *testing.T) {
	dev := gputest.Device(t)

	desc := material.LayoutDescriptor()
	layout, err := dev.Device().CreateBindGroupLayout(&desc)
	require.NoError(t, err)
	t.Cleanup(layout.Release)

	l := light.NewPointLight(light.WithPosition(0, 3, 0))
	s, err := scene.Load(dev.Device(), layout, []scene.Source{
		{Mesh: mesh.Cube()},
		{Mesh: mesh.Plane(4), Offset: mgl32.Vec3{0, -0.5, 0}},
	}, scene.WithLight(l), scene.WithLabel("test"))
	require.NoError(t, err)
	t.Cleanup(s.Release)

	assert.Same(t, l, s.Light())
	assert.Equal(t, 14, s.TriangleCount())
	require.Len(t, s.DrawList(), 2)

	meshes := s.Meshes()
	assert.Equal(t, uint32(36), meshes[0].IndexCount())
	assert.Equal(t, uint32(1), meshes[0].MeshID())
	assert.Equal(t, uint32(2), meshes[1].MeshID())
	assert.NotEqual(t, meshes[0].ID(), meshes[1].ID())
	assert.NotNil(t, meshes[0].MaterialBindGroup())

	lo, hi := s.Bounds()
	assert.Equal(t, mgl32.Vec3{-2, -0.5, -2}, lo)
	assert.Equal(t, mgl32.Vec3{2, 0.5, 2}, hi)

	blue := material.NewMaterial(material.WithBaseColor([3]float32{0, 0, 1}))
	require.NoError(t, meshes[0].SetMaterial(dev.Queue(), blue))
	assert.Same(t, blue, meshes[0].Material())

	s.Release()
	assert.Empty(t, s.DrawList())
	assert.Error(t, meshes[0].SetMaterial(dev.Queue(), blue))
}

package pass

import (
	"math/rand/v2"
	"testing"

	"github.com/Carmen-Shannon/oxy-deferred/engine/light"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/gbuffer"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/zquad"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLibrary(levels int) shader.Library {
	lib := shader.NewLibrary(nil, shader.WithValidation(false))
	RegisterIncludes(lib)
	lib.Register(zquad.TraceInclude, zquad.TraceDeclarations(ssgiTraceGroup, levels))
	return lib
}

// checkGroups builds a shader and checks every declared group against layouts.
func checkGroups(t *testing.T, lib shader.Library, name string, st shader.ShaderType, defines []shader.Define, layouts map[int]wgpu.BindGroupLayoutDescriptor) {
	t.Helper()
	s, err := lib.Build(name, st, defines...)
	require.NoError(t, err)
	for _, g := range shader.Groups(s) {
		desc, ok := layouts[g]
		require.True(t, ok, "%s declares @group(%d) with no layout", name, g)
		assert.NoError(t, s.CheckLayout(g, desc), "%s @group(%d)", name, g)
	}
	assert.Len(t, layouts, len(shader.Groups(s)), "%s has layouts its shader does not declare", name)
}

func TestPassLayoutsMatchShaders(t *testing.T) {
	lib := testLibrary(9)
	gbStd := gbuffer.LayoutDescriptor(gbuffer.Options{})

	t.Run("shadow", func(t *testing.T) {
		checkGroups(t, lib, "shadow.wgsl", shader.ShaderTypeRender, nil, map[int]wgpu.BindGroupLayoutDescriptor{
			0: ShadowFaceLayoutDescriptor(),
		})
	})

	t.Run("gbuffer", func(t *testing.T) {
		for _, opts := range []gbuffer.Options{{Variant: gbuffer.Standard}, {Variant: gbuffer.WithAOV}} {
			checkGroups(t, lib, "gbuffer.wgsl", shader.ShaderTypeRender, opts.Defines(), map[int]wgpu.BindGroupLayoutDescriptor{
				0:                      CameraLayoutDescriptor(wgpu.ShaderStageVertex | wgpu.ShaderStageFragment),
				material.MaterialGroup: material.LayoutDescriptor(),
			})
		}
	})

	t.Run("ssgi", func(t *testing.T) {
		checkGroups(t, lib, "ssgi.wgsl", shader.ShaderTypeCompute, []shader.Define{gbufferGroup(ssgiGBufferGroup)}, map[int]wgpu.BindGroupLayoutDescriptor{
			outputGroup:      OutputLayoutDescriptor(true),
			shadowGroup:      ShadowLayoutDescriptor(),
			lightGroup:       LightLayoutDescriptor(),
			ssgiSeedGroup:    SeedGroupLayoutDescriptor(),
			ssgiGBufferGroup: gbStd,
			ssgiTraceGroup:   zquad.TraceLayoutDescriptor(9),
			ssgiViewGroup:    ViewGroupLayoutDescriptor(),
		})
	})

	t.Run("shadow map", func(t *testing.T) {
		checkGroups(t, lib, "shadow_map.wgsl", shader.ShaderTypeCompute, []shader.Define{gbufferGroup(shadowMapGBufferGroup)}, map[int]wgpu.BindGroupLayoutDescriptor{
			outputGroup:           OutputLayoutDescriptor(false),
			shadowGroup:           ShadowLayoutDescriptor(),
			lightGroup:            LightLayoutDescriptor(),
			shadowMapGBufferGroup: gbStd,
		})
	})

	t.Run("post process", func(t *testing.T) {
		checkGroups(t, lib, "post_process.wgsl", shader.ShaderTypeRender, []shader.Define{gbufferGroup(postGBufferGroup)}, map[int]wgpu.BindGroupLayoutDescriptor{
			0:                ColorInputLayoutDescriptor(),
			postGBufferGroup: gbStd,
			2:                PostParamsLayoutDescriptor(),
		})
	})
}

func TestPostVertexLayoutMatchesShader(t *testing.T) {
	s, err := testLibrary(1).Build("post_process.wgsl", shader.ShaderTypeRender, gbufferGroup(postGBufferGroup))
	require.NoError(t, err)
	layouts := s.VertexLayouts()
	require.Len(t, layouts, 1)
	assert.Equal(t, uint64(16), layouts[0].ArrayStride)
	assert.Len(t, BigTriangle(), 3)
}

func TestGenerateSeedsDeterministic(t *testing.T) {
	a := GenerateSeeds(rand.NewPCG(7, 11), 64)
	b := GenerateSeeds(rand.NewPCG(7, 11), 64)
	c := GenerateSeeds(rand.NewPCG(8, 11), 64)
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)

	var opts ssgiOptions
	WithSeed(42)(&opts)
	d := GenerateSeeds(opts.source, 8)
	WithSeed(42)(&opts)
	assert.Equal(t, d, GenerateSeeds(opts.source, 8))
}

func TestBigTriangleCoversViewport(t *testing.T) {
	tri := BigTriangle()
	inside := func(p [2]float32) bool {
		sign := func(a, b, c [2]float32) float32 {
			return (a[0]-c[0])*(b[1]-c[1]) - (b[0]-c[0])*(a[1]-c[1])
		}
		d1 := sign(p, tri[0].Position, tri[1].Position)
		d2 := sign(p, tri[1].Position, tri[2].Position)
		d3 := sign(p, tri[2].Position, tri[0].Position)
		neg := d1 < 0 || d2 < 0 || d3 < 0
		pos := d1 > 0 || d2 > 0 || d3 > 0
		return !(neg && pos)
	}
	for _, corner := range [][2]float32{{-1, -1}, {1, -1}, {-1, 1}, {1, 1}} {
		assert.True(t, inside(corner), "corner %v", corner)
	}

	// the bottom-left corner of the viewport samples uv (0, 1)
	assert.Equal(t, [2]float32{0, 1}, tri[0].UV)
	assert.Equal(t, [2]float32{2, 1}, tri[1].UV)
	assert.Equal(t, [2]float32{0, -1}, tri[2].UV)
}

func TestGPUTypeSizes(t *testing.T) {
	assert.Equal(t, 64, GPUSSRTUniform{}.Size())
	assert.Equal(t, 16, GPUPostParams{}.Size())

	data := GPUSSRTUniform{MaxLevel: 9, Eye: [3]float32{0, 0, 3}}.Marshal()
	require.Len(t, data, 64)
	assert.Equal(t, byte(9), data[16])
}

func TestDebugViews(t *testing.T) {
	for i, name := range []string{"final", "normal", "albedo", "position", "depth"} {
		v, err := ParseDebugView(name)
		require.NoError(t, err)
		assert.Equal(t, DebugView(i), v)
		assert.Equal(t, name, v.String())
	}
	v, err := ParseDebugView("Depth")
	require.NoError(t, err)
	assert.Equal(t, ViewDepth, v)

	_, err = ParseDebugView("wireframe")
	assert.Error(t, err)
}

func TestGammaFor(t *testing.T) {
	assert.Equal(t, float32(2.2), GammaFor(wgpu.TextureFormatBGRA8Unorm))
	assert.Equal(t, float32(1.0), GammaFor(wgpu.TextureFormatBGRA8UnormSrgb))
}

func TestShadowFaces(t *testing.T) {
	pos := mgl32.Vec3{0, 2, 0}
	faces := ShadowFaces(pos)
	vps := light.CubeFaceViewProjections(pos)
	for i, f := range faces {
		assert.Equal(t, [3]float32{0, 2, 0}, f.LightPos)
		assert.Equal(t, light.ShadowFar, f.Far)
		assert.Equal(t, [16]float32(vps[i]), f.ViewProj)
	}
}

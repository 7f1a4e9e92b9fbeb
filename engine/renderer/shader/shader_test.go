package shader

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-deferred/engine/camera"
	"github.com/Carmen-Shannon/oxy-deferred/engine/light"
	"github.com/Carmen-Shannon/oxy-deferred/engine/mesh"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/material"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testZQuadBindings = `
@group(5) @binding(0) var zquad_level_0: texture_2d<f32>;
fn zquad_load(level: u32, cell: vec2<i32>) -> f32 {
    return textureLoad(zquad_level_0, cell, 0).r;
}
fn zquad_dims(level: u32) -> vec2<u32> {
    return textureDimensions(zquad_level_0);
}
`

// assetLibrary returns the embedded library with the includes the passes register.
func assetLibrary() Library {
	return NewLibrary(nil,
		WithValidation(false),
		WithSource("camera_uniform.wgsl", camera.GPUCameraUniformSource),
		WithSource("light_uniform.wgsl", light.GPULightUniformSource),
		WithSource("shadow_face.wgsl", light.GPUShadowFaceSource),
		WithSource("vertex.wgsl", mesh.GPUVertexSource),
		WithSource("material_uniform.wgsl", material.GPUMaterialSource),
		WithSource("zquad_bindings.wgsl", testZQuadBindings),
	)
}

func TestGBufferShaderReflection(t *testing.T) {
	lib := assetLibrary()

	s, err := lib.Build("gbuffer.wgsl", ShaderTypeRender)
	require.NoError(t, err)

	assert.Equal(t, "vs_main", s.EntryPoint(ShaderTypeVertex))
	assert.Equal(t, "fs_main", s.EntryPoint(ShaderTypeFragment))
	assert.Empty(t, s.EntryPoint(ShaderTypeCompute))

	layouts := s.VertexLayouts()
	require.Len(t, layouts, 1)
	assert.Equal(t, uint64(mesh.GPUVertex{}.Size()), layouts[0].ArrayStride)
	require.Len(t, layouts[0].Attributes, 2)
	assert.Equal(t, wgpu.VertexFormatFloat32x3, layouts[0].Attributes[1].Format)
	assert.Equal(t, uint64(12), layouts[0].Attributes[1].Offset)
	assert.Equal(t, uint32(1), layouts[0].Attributes[1].ShaderLocation)

	assert.Equal(t, uint64(camera.GPUCameraUniform{}.Size()), s.BufferSize(0, 0))
	assert.Equal(t, uint64(material.GPUMaterial{}.Size()), s.BufferSize(1, 0))
	assert.Equal(t, "camera", s.BindGroupVarName(0, 0))
	assert.Equal(t, []int{0, 1}, Groups(s))
	assert.NotContains(t, s.Source(), "aov")
}

func TestGBufferAOVVariant(t *testing.T) {
	s, err := assetLibrary().Build("gbuffer.wgsl", ShaderTypeRender, Define{Name: "GBUFFER_AOV"})
	require.NoError(t, err)
	assert.Contains(t, s.Source(), "@location(3) aov")
}

func TestShadowShaderReflection(t *testing.T) {
	s, err := assetLibrary().Build("shadow.wgsl", ShaderTypeRender)
	require.NoError(t, err)
	assert.Equal(t, uint64(light.GPUShadowFace{}.Size()), s.BufferSize(0, 0))
}

func TestSSGIShaderReflection(t *testing.T) {
	s, err := assetLibrary().Build("ssgi.wgsl", ShaderTypeCompute, Define{Name: "GBUFFER_GROUP", Value: "4"})
	require.NoError(t, err)

	assert.Equal(t, "main", s.EntryPoint(ShaderTypeCompute))
	assert.Equal(t, [3]uint32{16, 16, 1}, s.WorkgroupSize())
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6}, Groups(s))
	assert.Equal(t, uint64(light.GPULightUniform{}.Size()), s.BufferSize(2, 0))
	assert.Equal(t, uint64(4), s.BufferSize(3, 0))
	assert.Equal(t, uint64(64), s.BufferSize(6, 1))

	g4 := s.BindGroupLayoutDescriptor(4).Entries
	require.Len(t, g4, 4)
	assert.Equal(t, wgpu.TextureSampleTypeDepth, g4[0].Texture.SampleType)
	assert.Equal(t, wgpu.TextureFormatRGBA32Float, g4[1].StorageTexture.Format)
	assert.Equal(t, wgpu.StorageTextureAccessReadOnly, g4[1].StorageTexture.Access)
	assert.Equal(t, wgpu.ShaderStageCompute, g4[1].Visibility)

	cube := s.BindGroupLayoutDescriptor(1).Entries[0]
	assert.Equal(t, wgpu.TextureViewDimensionCube, cube.Texture.ViewDimension)
	assert.Equal(t, wgpu.BufferBindingTypeReadOnlyStorage, s.BindGroupLayoutDescriptor(3).Entries[0].Buffer.Type)
}

func TestPostProcessVertexLayout(t *testing.T) {
	s, err := assetLibrary().Build("post_process.wgsl", ShaderTypeRender, Define{Name: "GBUFFER_GROUP", Value: "1"})
	require.NoError(t, err)

	layouts := s.VertexLayouts()
	require.Len(t, layouts, 1)
	assert.Equal(t, uint64(16), layouts[0].ArrayStride)
	assert.Equal(t, wgpu.VertexFormatFloat32x2, layouts[0].Attributes[0].Format)
	assert.Equal(t, uint64(16), s.BufferSize(2, 0))
}

func TestZQuadShaderReflection(t *testing.T) {
	lib := assetLibrary()
	for _, name := range []string{"zquad_level0.wgsl", "zquad_levelN.wgsl"} {
		s, err := lib.Build(name, ShaderTypeCompute)
		require.NoError(t, err, name)
		assert.Equal(t, uint64(24), s.BufferSize(0, 2), name)
		out := s.BindGroupLayoutDescriptor(0).Entries[1]
		assert.Equal(t, wgpu.TextureFormatR32Float, out.StorageTexture.Format, name)
		assert.Equal(t, wgpu.StorageTextureAccessWriteOnly, out.StorageTexture.Access, name)
	}
}

func TestNewShaderRequiresEntryPoints(t *testing.T) {
	src := "@vertex\nfn vs_main() -> @builtin(position) vec4<f32> { return vec4<f32>(0.0); }"

	_, err := NewShader("vs_only", ShaderTypeRender, src)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrShaderCompile)
	assert.Contains(t, err.Error(), "@fragment")

	s, err := NewShader("vs_only", ShaderTypeVertex, src)
	require.NoError(t, err)
	assert.Equal(t, "vs_main", s.EntryPoint(ShaderTypeVertex))
	assert.Empty(t, s.VertexLayouts())
}

const layoutTestSource = `
struct Params { a: vec3<f32>, b: f32, };
@group(0) @binding(0) var<uniform> params: Params;
@group(0) @binding(1) var tex: texture_2d<f32>;
@group(0) @binding(2) var samp: sampler;
@group(0) @binding(3) var out_img: texture_storage_2d<rgba32float, write>;
@compute @workgroup_size(8)
fn main() {}
`

func layoutTestDescriptor() wgpu.BindGroupLayoutDescriptor {
	return wgpu.BindGroupLayoutDescriptor{
		Label: "test",
		Entries: []wgpu.BindGroupLayoutEntry{
			{Binding: 0, Visibility: wgpu.ShaderStageCompute, Buffer: wgpu.BufferBindingLayout{Type: wgpu.BufferBindingTypeUniform, MinBindingSize: 16}},
			{Binding: 1, Visibility: wgpu.ShaderStageCompute, Texture: wgpu.TextureBindingLayout{SampleType: wgpu.TextureSampleTypeUnfilterableFloat, ViewDimension: wgpu.TextureViewDimension2D}},
			{Binding: 2, Visibility: wgpu.ShaderStageCompute, Sampler: wgpu.SamplerBindingLayout{Type: wgpu.SamplerBindingTypeNonFiltering}},
			{Binding: 3, Visibility: wgpu.ShaderStageCompute, StorageTexture: wgpu.StorageTextureBindingLayout{Access: wgpu.StorageTextureAccessWriteOnly, Format: wgpu.TextureFormatRGBA32Float, ViewDimension: wgpu.TextureViewDimension2D}},
			{Binding: 9, Visibility: wgpu.ShaderStageCompute, Buffer: wgpu.BufferBindingLayout{Type: wgpu.BufferBindingTypeUniform}},
		},
	}
}

func TestCheckLayout(t *testing.T) {
	s, err := NewShader("layout", ShaderTypeCompute, layoutTestSource)
	require.NoError(t, err)
	assert.Equal(t, [3]uint32{8, 1, 1}, s.WorkgroupSize())
	assert.Equal(t, uint64(16), s.BufferSize(0, 0))

	t.Run("compatible", func(t *testing.T) {
		assert.NoError(t, s.CheckLayout(0, layoutTestDescriptor()))
	})

	t.Run("missing binding", func(t *testing.T) {
		desc := layoutTestDescriptor()
		desc.Entries = desc.Entries[1:]
		err := s.CheckLayout(0, desc)
		assert.ErrorIs(t, err, ErrLayoutMismatch)
		assert.Contains(t, err.Error(), "params")
	})

	t.Run("wrong buffer kind", func(t *testing.T) {
		desc := layoutTestDescriptor()
		desc.Entries[0].Buffer.Type = wgpu.BufferBindingTypeReadOnlyStorage
		assert.ErrorIs(t, s.CheckLayout(0, desc), ErrLayoutMismatch)
	})

	t.Run("wrong size", func(t *testing.T) {
		desc := layoutTestDescriptor()
		desc.Entries[0].Buffer.MinBindingSize = 32
		assert.ErrorIs(t, s.CheckLayout(0, desc), ErrLayoutMismatch)
	})

	t.Run("depth for float texture", func(t *testing.T) {
		desc := layoutTestDescriptor()
		desc.Entries[1].Texture.SampleType = wgpu.TextureSampleTypeDepth
		assert.ErrorIs(t, s.CheckLayout(0, desc), ErrLayoutMismatch)
	})

	t.Run("comparison sampler", func(t *testing.T) {
		desc := layoutTestDescriptor()
		desc.Entries[2].Sampler.Type = wgpu.SamplerBindingTypeComparison
		assert.ErrorIs(t, s.CheckLayout(0, desc), ErrLayoutMismatch)
	})

	t.Run("storage format", func(t *testing.T) {
		desc := layoutTestDescriptor()
		desc.Entries[3].StorageTexture.Format = wgpu.TextureFormatR32Float
		assert.ErrorIs(t, s.CheckLayout(0, desc), ErrLayoutMismatch)
	})

	t.Run("stage visibility", func(t *testing.T) {
		desc := layoutTestDescriptor()
		desc.Entries[3].Visibility = wgpu.ShaderStageFragment
		assert.ErrorIs(t, s.CheckLayout(0, desc), ErrLayoutMismatch)
	})

	t.Run("undeclared group", func(t *testing.T) {
		assert.NoError(t, s.CheckLayout(3, wgpu.BindGroupLayoutDescriptor{}))
	})
}

func TestTypeLayouts(t *testing.T) {
	src := `
// Outer is declared before Inner on purpose
struct Outer { inner: Inner, tail: f32, };
struct Inner { v: vec3f, };
struct Mats { m: mat3x3<f32>, n: mat4x4f, };
struct Runtime { count: u32, items: array<vec4<f32>>, };
struct Fixed { items: array<vec3<f32>, 4>, };
/* struct Hidden { x: f32, }; */
`
	r := newReflection(src)

	assert.Equal(t, typeLayout{16, 16}, r.layouts["Inner"])
	assert.Equal(t, typeLayout{32, 16}, r.layouts["Outer"])
	assert.Equal(t, typeLayout{112, 16}, r.layouts["Mats"])
	assert.Equal(t, typeLayout{32, 16}, r.layouts["Runtime"])
	assert.Equal(t, typeLayout{64, 16}, r.layouts["Fixed"])
	assert.NotContains(t, r.layouts, "Hidden")
}

func TestNormalizeType(t *testing.T) {
	assert.Equal(t, "vec3<f32>", normalizeType(" vec3f "))
	assert.Equal(t, "mat4x4<f32>", normalizeType("mat4x4f"))
	assert.Equal(t, "vec2<u32>", normalizeType("vec2 < u32 >"))
	assert.Equal(t, "array<vec4<f32>,8>", normalizeType("array<vec4<f32>, 8>"))
}

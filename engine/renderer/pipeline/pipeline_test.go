package pipeline

import (
	"errors"
	"testing"

	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/resource"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const computeSource = `
struct Params {
    size: vec2<u32>,
    level: u32,
}

@group(0) @binding(0) var src: texture_depth_2d;
@group(0) @binding(1) var dst: texture_storage_2d<r32float, write>;
@group(1) @binding(0) var<uniform> params: Params;

@compute @workgroup_size(16, 16)
fn main(@builtin(global_invocation_id) gid: vec3<u32>) {
    let d = textureLoad(src, vec2<i32>(gid.xy), 0);
    textureStore(dst, vec2<i32>(gid.xy), vec4<f32>(d, 0.0, 0.0, 0.0));
}
`

func computeShader(t *testing.T) shader.Shader {
	t.Helper()
	s, err := shader.NewShader("reduce", shader.ShaderTypeCompute, computeSource)
	require.NoError(t, err)
	return s
}

func imageLayout() wgpu.BindGroupLayoutDescriptor {
	return resource.NewLayoutBuilder("image").
		DepthTexture(0, wgpu.ShaderStageCompute).
		StorageTexture(1, wgpu.ShaderStageCompute, wgpu.StorageTextureAccessWriteOnly, wgpu.TextureFormatR32Float, wgpu.TextureViewDimension2D).
		Descriptor()
}

func paramsLayout() wgpu.BindGroupLayoutDescriptor {
	return resource.NewLayoutBuilder("params").
		Uniform(0, wgpu.ShaderStageCompute).
		Descriptor()
}

func TestCheckLayoutsAccepts(t *testing.T) {
	p := NewPipeline("reduce", PipelineTypeCompute,
		WithShader(computeShader(t)),
		WithBindGroupLayout(0, nil, imageLayout()),
		WithBindGroupLayout(1, nil, paramsLayout()),
	)
	assert.NoError(t, p.CheckLayouts())
}

func TestCheckLayoutsMissingGroup(t *testing.T) {
	p := NewPipeline("reduce", PipelineTypeCompute,
		WithShader(computeShader(t)),
		WithBindGroupLayout(0, nil, imageLayout()),
	)
	err := p.CheckLayouts()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingLayout))
	assert.Contains(t, err.Error(), "@group(1)")
}

func TestCheckLayoutsMismatch(t *testing.T) {
	wrong := resource.NewLayoutBuilder("params").
		Storage(0, wgpu.ShaderStageCompute, true).
		Descriptor()

	p := NewPipeline("reduce", PipelineTypeCompute,
		WithShader(computeShader(t)),
		WithBindGroupLayout(0, nil, imageLayout()),
		WithBindGroupLayout(1, nil, wrong),
	)
	err := p.CheckLayouts()
	require.Error(t, err)
	assert.ErrorIs(t, err, shader.ErrLayoutMismatch)
	assert.Contains(t, err.Error(), "params")
}

func TestCheckLayoutsGap(t *testing.T) {
	p := NewPipeline("reduce", PipelineTypeCompute,
		WithShader(computeShader(t)),
		WithBindGroupLayout(0, nil, imageLayout()),
		WithBindGroupLayout(1, nil, paramsLayout()),
		WithBindGroupLayout(3, nil, paramsLayout()),
	)
	err := p.CheckLayouts()
	assert.ErrorIs(t, err, ErrMissingLayout)
	assert.Contains(t, err.Error(), "contiguous")
}

func TestCheckLayoutsNoShader(t *testing.T) {
	p := NewPipeline("empty", PipelineTypeRender)
	assert.Error(t, p.CheckLayouts())
}

func TestRenderStates(t *testing.T) {
	p := NewPipeline("gbuffer", PipelineTypeRender,
		WithColorTargets(wgpu.TextureFormatRGBA32Float, wgpu.TextureFormatRGBA32Float),
		WithDepth(wgpu.TextureFormatDepth32Float, true, wgpu.CompareFunctionLess),
		WithCullMode(wgpu.CullModeBack),
	).(*pipeline)

	targets := p.colorTargetStates()
	require.Len(t, targets, 2)
	assert.Nil(t, targets[0].Blend)
	assert.Equal(t, wgpu.ColorWriteMaskAll, targets[1].WriteMask)

	ds := p.depthStencilState()
	require.NotNil(t, ds)
	assert.True(t, ds.DepthWriteEnabled)
	assert.Equal(t, wgpu.CompareFunctionLess, ds.DepthCompare)
	assert.Equal(t, wgpu.CullModeBack, p.CullMode())

	post := NewPipeline("post", PipelineTypeRender, WithColorTargets(wgpu.TextureFormatBGRA8Unorm)).(*pipeline)
	assert.Nil(t, post.depthStencilState())
}

package pipeline

import (
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

// PipelineBuilderOption is a functional option for configuring a Pipeline.
type PipelineBuilderOption func(*pipeline)

// WithShader sets the module the pipeline runs.
//
// Parameters:
//   - s: a render shader for render pipelines or a compute shader for compute pipelines
//
// Returns:
//   - PipelineBuilderOption: a function that applies the shader to a pipeline
func WithShader(s shader.Shader) PipelineBuilderOption {
	return func(p *pipeline) {
		p.shader = s
	}
}

// WithBindGroupLayout sets the explicit layout for a group. The descriptor must be the
// one the layout was created from; it is what the shader's declarations are checked against.
//
// Parameters:
//   - group: the @group index
//   - layout: the created layout
//   - desc: the descriptor it was created from
//
// Returns:
//   - PipelineBuilderOption: a function that records the layout
func WithBindGroupLayout(group int, layout *wgpu.BindGroupLayout, desc wgpu.BindGroupLayoutDescriptor) PipelineBuilderOption {
	return func(p *pipeline) {
		p.layouts[group] = groupLayout{layout: layout, desc: desc}
	}
}

// WithColorTargets sets the color attachment formats in @location order.
//
// Parameters:
//   - formats: one format per fragment output
//
// Returns:
//   - PipelineBuilderOption: a function that sets the color targets
func WithColorTargets(formats ...wgpu.TextureFormat) PipelineBuilderOption {
	return func(p *pipeline) {
		p.colorTargets = append([]wgpu.TextureFormat(nil), formats...)
	}
}

// WithDepth enables a depth attachment.
//
// Parameters:
//   - format: the depth texture format
//   - write: whether passing fragments write depth
//   - compare: the depth test function
//
// Returns:
//   - PipelineBuilderOption: a function that configures the depth state
func WithDepth(format wgpu.TextureFormat, write bool, compare wgpu.CompareFunction) PipelineBuilderOption {
	return func(p *pipeline) {
		p.depthFormat = format
		p.depthWriteEnabled = write
		p.depthCompare = compare
	}
}

// WithCullMode sets the face culling mode for the pipeline.
//
// Parameters:
//   - mode: the cull mode (e.g. CullModeNone, CullModeBack)
//
// Returns:
//   - PipelineBuilderOption: a function that applies the cull mode to a pipeline
func WithCullMode(mode wgpu.CullMode) PipelineBuilderOption {
	return func(p *pipeline) {
		p.cullMode = mode
	}
}

// WithTopology sets the primitive topology for the pipeline.
//
// Parameters:
//   - topology: the primitive topology (e.g. TriangleList, LineList)
//
// Returns:
//   - PipelineBuilderOption: a function that applies the topology to a pipeline
func WithTopology(topology wgpu.PrimitiveTopology) PipelineBuilderOption {
	return func(p *pipeline) {
		p.topology = topology
	}
}

// WithFrontFace sets the front face winding order for the pipeline.
//
// Parameters:
//   - frontFace: the front face winding (e.g. FrontFaceCCW, FrontFaceCW)
//
// Returns:
//   - PipelineBuilderOption: a function that applies the front face to a pipeline
func WithFrontFace(frontFace wgpu.FrontFace) PipelineBuilderOption {
	return func(p *pipeline) {
		p.frontFace = frontFace
	}
}

// WithWriteMask sets the color write mask for every color target.
func WithWriteMask(writeMask wgpu.ColorWriteMask) PipelineBuilderOption {
	return func(p *pipeline) {
		p.writeMask = writeMask
	}
}

// WithBlendState sets the blend state for every color target. Nil disables blending.
func WithBlendState(blendState *wgpu.BlendState) PipelineBuilderOption {
	return func(p *pipeline) {
		p.blendState = blendState
	}
}

package pipeline

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-deferred/engine/logger"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
	"go.uber.org/zap"
)

// PipelineType identifies the type of GPU pipeline.
type PipelineType int

const (
	// PipelineTypeCompute indicates a compute pipeline that runs one @compute entry point.
	PipelineTypeCompute PipelineType = iota

	// PipelineTypeRender indicates a render pipeline built from one module with @vertex and @fragment entry points.
	PipelineTypeRender
)

// ErrMissingLayout is returned when a group the shader declares has no explicit layout.
var ErrMissingLayout = errors.New("missing bind group layout")

// ModuleProvider compiles or looks up a shader module. *shader.Cache[*wgpu.ShaderModule] implements it.
type ModuleProvider interface {
	Get(name, source string, shaderType shader.ShaderType) (*wgpu.ShaderModule, error)
}

// groupLayout pairs a created layout with the descriptor it was created from.
type groupLayout struct {
	layout *wgpu.BindGroupLayout
	desc   wgpu.BindGroupLayoutDescriptor
}

// pipeline is the implementation of the Pipeline interface.
type pipeline struct {
	// pipelineType is the type of this pipeline (compute or render)
	pipelineType PipelineType
	// pipelineKey is a unique identifier used as the label of every GPU object created here
	pipelineKey string

	// shader is the reflected module this pipeline runs
	shader shader.Shader
	// layouts holds the explicit bind group layouts keyed by group index; they are owned by the caller
	layouts map[int]groupLayout

	// The following are the GPU objects created by Build.

	pipelineLayout  *wgpu.PipelineLayout
	renderPipeline  *wgpu.RenderPipeline
	computePipeline *wgpu.ComputePipeline

	// The following fields only apply to render pipelines.

	colorTargets      []wgpu.TextureFormat
	depthFormat       wgpu.TextureFormat
	depthWriteEnabled bool
	depthCompare      wgpu.CompareFunction
	cullMode          wgpu.CullMode
	topology          wgpu.PrimitiveTopology
	frontFace         wgpu.FrontFace
	writeMask         wgpu.ColorWriteMask
	blendState        *wgpu.BlendState
}

// Pipeline wraps one GPU pipeline together with the state it was built from. Layouts
// are explicit and are checked against the shader's reflected bindings before any GPU
// object is created, so a shader/layout disagreement fails at construction.
type Pipeline interface {
	// Type returns the type of this pipeline.
	//
	// Returns:
	//   - PipelineType: the type of this pipeline
	Type() PipelineType

	// PipelineKey returns the unique identifier for this pipeline.
	//
	// Returns:
	//   - string: the pipeline key
	PipelineKey() string

	// Shader returns the module this pipeline runs.
	//
	// Returns:
	//   - shader.Shader: the shader
	Shader() shader.Shader

	// ColorTargets returns the color attachment formats in location order.
	ColorTargets() []wgpu.TextureFormat

	// DepthFormat returns the depth attachment format, or TextureFormatUndefined for none.
	DepthFormat() wgpu.TextureFormat

	// CullMode returns the face culling mode.
	CullMode() wgpu.CullMode

	// CheckLayouts verifies that every group the shader declares has a layout and that
	// each layout is compatible with the declarations.
	//
	// Returns:
	//   - error: ErrMissingLayout, shader.ErrLayoutMismatch or a gap in the group indices
	CheckLayouts() error

	// Build checks the layouts and creates the pipeline layout and pipeline.
	//
	// Parameters:
	//   - dev: the device
	//   - modules: compiles the shader module
	//
	// Returns:
	//   - error: a layout or compile failure
	Build(dev *wgpu.Device, modules ModuleProvider) error

	// RenderPipeline returns the created render pipeline, or nil.
	RenderPipeline() *wgpu.RenderPipeline

	// ComputePipeline returns the created compute pipeline, or nil.
	ComputePipeline() *wgpu.ComputePipeline

	// Release releases the pipeline and its pipeline layout. Bind group layouts and
	// shader modules belong to their creators.
	Release()
}

var _ Pipeline = &pipeline{}

// NewPipeline creates a new Pipeline with the given key and type, applying any provided options.
// Render defaults: triangle list, CCW front face, no culling, write all channels, no blending,
// no depth attachment.
//
// Parameters:
//   - pipelineKey: the unique identifier for this pipeline
//   - pipelineType: the type of pipeline (compute or render)
//   - opts: variadic list of PipelineBuilderOption functions to configure the pipeline
//
// Returns:
//   - Pipeline: the newly created pipeline instance
func NewPipeline(pipelineKey string, pipelineType PipelineType, opts ...PipelineBuilderOption) Pipeline {
	p := &pipeline{
		pipelineKey:  pipelineKey,
		pipelineType: pipelineType,
		layouts:      make(map[int]groupLayout),
		depthFormat:  wgpu.TextureFormatUndefined,
		depthCompare: wgpu.CompareFunctionLess,
		cullMode:     wgpu.CullModeNone,
		topology:     wgpu.PrimitiveTopologyTriangleList,
		frontFace:    wgpu.FrontFaceCCW,
		writeMask:    wgpu.ColorWriteMaskAll,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *pipeline) Type() PipelineType {
	return p.pipelineType
}

func (p *pipeline) PipelineKey() string {
	return p.pipelineKey
}

func (p *pipeline) Shader() shader.Shader {
	return p.shader
}

func (p *pipeline) ColorTargets() []wgpu.TextureFormat {
	return p.colorTargets
}

func (p *pipeline) DepthFormat() wgpu.TextureFormat {
	return p.depthFormat
}

func (p *pipeline) CullMode() wgpu.CullMode {
	return p.cullMode
}

func (p *pipeline) RenderPipeline() *wgpu.RenderPipeline {
	return p.renderPipeline
}

func (p *pipeline) ComputePipeline() *wgpu.ComputePipeline {
	return p.computePipeline
}

// groupCount returns one past the highest group index with a layout.
func (p *pipeline) groupCount() int {
	n := 0
	for g := range p.layouts {
		n = max(n, g+1)
	}
	return n
}

func (p *pipeline) CheckLayouts() error {
	if p.shader == nil {
		return fmt.Errorf("pipeline %s: no shader", p.pipelineKey)
	}
	for _, g := range shader.Groups(p.shader) {
		gl, ok := p.layouts[g]
		if !ok {
			return fmt.Errorf("pipeline %s: %w for @group(%d)", p.pipelineKey, ErrMissingLayout, g)
		}
		if err := p.shader.CheckLayout(g, gl.desc); err != nil {
			return fmt.Errorf("pipeline %s: %w", p.pipelineKey, err)
		}
	}
	for g := range p.groupCount() {
		if _, ok := p.layouts[g]; !ok {
			return fmt.Errorf("pipeline %s: %w: group indices must be contiguous, @group(%d) has none", p.pipelineKey, ErrMissingLayout, g)
		}
	}
	return nil
}

func (p *pipeline) Build(dev *wgpu.Device, modules ModuleProvider) error {
	if err := p.CheckLayouts(); err != nil {
		return err
	}
	module, err := modules.Get(p.pipelineKey, p.shader.Source(), p.shader.ShaderType())
	if err != nil {
		return fmt.Errorf("pipeline %s: %w", p.pipelineKey, err)
	}

	bgls := make([]*wgpu.BindGroupLayout, p.groupCount())
	for g, gl := range p.layouts {
		bgls[g] = gl.layout
	}
	layout, err := dev.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            p.pipelineKey + " Layout",
		BindGroupLayouts: bgls,
	})
	if err != nil {
		return fmt.Errorf("creating pipeline layout %s: %w", p.pipelineKey, err)
	}

	switch p.pipelineType {
	case PipelineTypeCompute:
		cp, err := dev.CreateComputePipeline(&wgpu.ComputePipelineDescriptor{
			Label:  p.pipelineKey,
			Layout: layout,
			Compute: wgpu.ProgrammableStageDescriptor{
				Module:     module,
				EntryPoint: p.shader.EntryPoint(shader.ShaderTypeCompute),
			},
		})
		if err != nil {
			layout.Release()
			return fmt.Errorf("creating compute pipeline %s: %w", p.pipelineKey, err)
		}
		p.computePipeline = cp
	case PipelineTypeRender:
		rp, err := dev.CreateRenderPipeline(p.renderDescriptor(layout, module))
		if err != nil {
			layout.Release()
			return fmt.Errorf("creating render pipeline %s: %w", p.pipelineKey, err)
		}
		p.renderPipeline = rp
	default:
		layout.Release()
		return fmt.Errorf("pipeline %s: unknown type %d", p.pipelineKey, p.pipelineType)
	}
	p.pipelineLayout = layout

	logger.Debug("pipeline built",
		zap.String("key", p.pipelineKey),
		zap.Int("groups", len(bgls)),
		zap.Int("targets", len(p.colorTargets)),
	)
	return nil
}

// colorTargetStates returns one target state per color attachment.
func (p *pipeline) colorTargetStates() []wgpu.ColorTargetState {
	targets := make([]wgpu.ColorTargetState, len(p.colorTargets))
	for i, f := range p.colorTargets {
		targets[i] = wgpu.ColorTargetState{
			Format:    f,
			Blend:     p.blendState,
			WriteMask: p.writeMask,
		}
	}
	return targets
}

// depthStencilState returns the depth state, or nil when the pipeline has no depth attachment.
func (p *pipeline) depthStencilState() *wgpu.DepthStencilState {
	if p.depthFormat == wgpu.TextureFormatUndefined {
		return nil
	}
	return &wgpu.DepthStencilState{
		Format:            p.depthFormat,
		DepthWriteEnabled: p.depthWriteEnabled,
		DepthCompare:      p.depthCompare,
		StencilFront: wgpu.StencilFaceState{
			Compare: wgpu.CompareFunctionAlways,
		},
		StencilBack: wgpu.StencilFaceState{
			Compare: wgpu.CompareFunctionAlways,
		},
	}
}

func (p *pipeline) renderDescriptor(layout *wgpu.PipelineLayout, module *wgpu.ShaderModule) *wgpu.RenderPipelineDescriptor {
	return &wgpu.RenderPipelineDescriptor{
		Label:  p.pipelineKey,
		Layout: layout,
		Vertex: wgpu.VertexState{
			Module:     module,
			EntryPoint: p.shader.EntryPoint(shader.ShaderTypeVertex),
			Buffers:    p.shader.VertexLayouts(),
		},
		Fragment: &wgpu.FragmentState{
			Module:     module,
			EntryPoint: p.shader.EntryPoint(shader.ShaderTypeFragment),
			Targets:    p.colorTargetStates(),
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  p.topology,
			FrontFace: p.frontFace,
			CullMode:  p.cullMode,
		},
		DepthStencil: p.depthStencilState(),
		Multisample: wgpu.MultisampleState{
			Count:                  1,
			Mask:                   0xFFFFFFFF,
			AlphaToCoverageEnabled: false,
		},
	}
}

func (p *pipeline) Release() {
	if p.renderPipeline != nil {
		p.renderPipeline.Release()
		p.renderPipeline = nil
	}
	if p.computePipeline != nil {
		p.computePipeline.Release()
		p.computePipeline = nil
	}
	if p.pipelineLayout != nil {
		p.pipelineLayout.Release()
		p.pipelineLayout = nil
	}
}

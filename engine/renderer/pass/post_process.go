package pass

import (
	"fmt"
	"strings"

	"github.com/Carmen-Shannon/oxy-deferred/engine/camera"
	"github.com/Carmen-Shannon/oxy-deferred/engine/logger"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/gbuffer"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/resource"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
	"go.uber.org/zap"
)

// DebugView selects what the post-process pass shows.
type DebugView int

const (
	// ViewFinal shows the tone-mapped lit image.
	ViewFinal DebugView = iota
	// ViewNormal shows the G-buffer normals mapped to [0,1].
	ViewNormal
	// ViewAlbedo shows the G-buffer albedo.
	ViewAlbedo
	// ViewPosition shows the compressed absolute world position.
	ViewPosition
	// ViewDepth shows linearized depth.
	ViewDepth
)

var debugViewNames = []string{"final", "normal", "albedo", "position", "depth"}

func (v DebugView) String() string {
	if v < 0 || int(v) >= len(debugViewNames) {
		return fmt.Sprintf("DebugView(%d)", int(v))
	}
	return debugViewNames[v]
}

// ParseDebugView maps a view name to its DebugView.
func ParseDebugView(name string) (DebugView, error) {
	for i, n := range debugViewNames {
		if strings.EqualFold(name, n) {
			return DebugView(i), nil
		}
	}
	return ViewFinal, fmt.Errorf("unknown debug view %q, want one of %s", name, strings.Join(debugViewNames, ", "))
}

const postGBufferGroup = 1

// PostVertex is one corner of the full-screen triangle.
type PostVertex struct {
	Position [2]float32
	UV       [2]float32
}

// BigTriangle returns a triangle covering the whole viewport, with UVs mapping
// the viewport to [0,1] and v growing downwards.
func BigTriangle() []PostVertex {
	corners := [][2]float32{{-1, -1}, {3, -1}, {-1, 3}}
	out := make([]PostVertex, len(corners))
	for i, c := range corners {
		out[i] = PostVertex{
			Position: c,
			UV:       [2]float32{c[0]*0.5 + 0.5, 0.5 - c[1]*0.5},
		}
	}
	return out
}

// GammaFor returns the encoding gamma for a surface format. sRGB formats encode in
// hardware, so the shader applies none.
func GammaFor(format wgpu.TextureFormat) float32 {
	switch format {
	case wgpu.TextureFormatBGRA8UnormSrgb, wgpu.TextureFormatRGBA8UnormSrgb:
		return 1.0
	default:
		return 2.2
	}
}

// ColorInputLayoutDescriptor returns the layout reading the HDR color buffer.
func ColorInputLayoutDescriptor() wgpu.BindGroupLayoutDescriptor {
	return resource.NewLayoutBuilder("Post Color Layout").
		Texture(0, wgpu.ShaderStageFragment, wgpu.TextureSampleTypeUnfilterableFloat, wgpu.TextureViewDimension2D).
		Sampler(1, wgpu.ShaderStageFragment, wgpu.SamplerBindingTypeNonFiltering).
		Descriptor()
}

// PostParamsLayoutDescriptor returns the layout of the post-process parameters.
func PostParamsLayoutDescriptor() wgpu.BindGroupLayoutDescriptor {
	return resource.NewLayoutBuilder("Post Params Layout").
		Uniform(0, wgpu.ShaderStageFragment).
		MinSize(uint64(GPUPostParams{}.Size())).
		Descriptor()
}

// PostProcessPass tone maps the HDR color buffer onto the swap-chain target, or
// shows one G-buffer channel. Its pipeline depends on the surface format.
type PostProcessPass struct {
	dev     *wgpu.Device
	queue   *wgpu.Queue
	shaders pipeline.Shaders
	format  wgpu.TextureFormat

	colorLayout  *wgpu.BindGroupLayout
	paramsLayout *wgpu.BindGroupLayout
	sampler      *wgpu.Sampler
	params       *resource.Buffer[GPUPostParams]
	vertices     *resource.Buffer[PostVertex]

	colorGroup  bind_group_provider.BindGroupProvider
	paramsGroup bind_group_provider.BindGroupProvider
	boundColor  *resource.Texture

	pipeline pipeline.Pipeline
}

// NewPostProcessPass builds the composite pipeline for a surface format.
//
// Parameters:
//   - dev: the device
//   - shaders: the shader library and module cache
//   - gb: the G-buffer, for its layout
//   - format: the swap-chain format
//
// Returns:
//   - *PostProcessPass: the pass
//   - error: a shader or allocation failure
func NewPostProcessPass(dev *wgpu.Device, shaders pipeline.Shaders, gb *gbuffer.GBuffer, format wgpu.TextureFormat) (*PostProcessPass, error) {
	p := &PostProcessPass{dev: dev, queue: dev.GetQueue(), shaders: shaders}
	if err := p.init(gb, format); err != nil {
		p.Release()
		return nil, fmt.Errorf("post process pass: %w", err)
	}
	logger.Debug("post process pass created", zap.Uint32("format", uint32(format)))
	return p, nil
}

func (p *PostProcessPass) init(gb *gbuffer.GBuffer, format wgpu.TextureFormat) error {
	colorDesc := ColorInputLayoutDescriptor()
	paramsDesc := PostParamsLayoutDescriptor()
	var err error
	if p.colorLayout, err = p.dev.CreateBindGroupLayout(&colorDesc); err != nil {
		return fmt.Errorf("creating color layout: %w", err)
	}
	if p.paramsLayout, err = p.dev.CreateBindGroupLayout(&paramsDesc); err != nil {
		return fmt.Errorf("creating params layout: %w", err)
	}
	if p.sampler, err = resource.NewSampler(p.dev, resource.NearestClampSampler()); err != nil {
		return err
	}
	if p.params, err = resource.NewUniformBuffer(p.dev, "Post Params", []GPUPostParams{{Gamma: GammaFor(format)}}); err != nil {
		return err
	}
	if p.vertices, err = resource.NewVertexBuffer(p.dev, "Post Triangle", BigTriangle()); err != nil {
		return err
	}

	p.colorGroup = bind_group_provider.NewBindGroupProvider("Post Color Bind Group",
		bind_group_provider.WithBindGroupLayout(p.colorLayout),
		bind_group_provider.WithSampler(1, p.sampler),
	)
	p.paramsGroup = bind_group_provider.NewBindGroupProvider("Post Params Bind Group",
		bind_group_provider.WithBindGroupLayout(p.paramsLayout),
		bind_group_provider.WithBuffer(0, p.params.Buffer()),
	)
	if err := p.paramsGroup.Build(p.dev); err != nil {
		return err
	}
	return p.SetSurfaceFormat(gb, format)
}

// SetSurfaceFormat rebuilds the pipeline when the swap-chain format changes.
//
// Parameters:
//   - gb: the G-buffer, for its layout
//   - format: the new swap-chain format
//
// Returns:
//   - error: a pipeline failure, after which the old pipeline is kept
func (p *PostProcessPass) SetSurfaceFormat(gb *gbuffer.GBuffer, format wgpu.TextureFormat) error {
	if p.pipeline != nil && format == p.format {
		return nil
	}
	pl, err := p.shaders.Create(p.dev, "post_process.wgsl", pipeline.PipelineTypeRender,
		[]shader.Define{gbufferGroup(postGBufferGroup)},
		pipeline.WithBindGroupLayout(0, p.colorLayout, ColorInputLayoutDescriptor()),
		pipeline.WithBindGroupLayout(postGBufferGroup, gb.Layout(), gb.LayoutDescriptor()),
		pipeline.WithBindGroupLayout(2, p.paramsLayout, PostParamsLayoutDescriptor()),
		pipeline.WithColorTargets(format),
		pipeline.WithCullMode(wgpu.CullModeNone),
	)
	if err != nil {
		return err
	}
	if p.pipeline != nil {
		p.pipeline.Release()
	}
	p.pipeline = pl
	p.format = format
	return nil
}

// Format returns the surface format the pipeline renders to.
func (p *PostProcessPass) Format() wgpu.TextureFormat {
	return p.format
}

// Record draws the full-screen triangle into target.
//
// Parameters:
//   - encoder: the frame encoder
//   - target: the swap-chain view, cleared to black
//   - color: the lit HDR color buffer
//   - gb: the G-buffer for debug views
//   - cam: the camera, whose planes linearize the depth view
//   - view: what to show
//
// Returns:
//   - error: an upload or bind group failure
func (p *PostProcessPass) Record(encoder *wgpu.CommandEncoder, target *wgpu.TextureView, color *resource.Texture, gb *gbuffer.GBuffer, cam camera.Camera, view DebugView) error {
	if color != p.boundColor || p.colorGroup.BindGroup() == nil {
		p.colorGroup.SetTextureView(0, color.View())
		if err := p.colorGroup.Build(p.dev); err != nil {
			return err
		}
		p.boundColor = color
	}
	persp := cam.Perspective()
	params := GPUPostParams{View: uint32(view), Near: persp.Near, Far: persp.Far, Gamma: GammaFor(p.format)}
	if err := p.params.Upload(p.queue, []GPUPostParams{params}); err != nil {
		return err
	}

	rp := encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{{
			View:       target,
			LoadOp:     wgpu.LoadOpClear,
			StoreOp:    wgpu.StoreOpStore,
			ClearValue: wgpu.Color{R: 0, G: 0, B: 0, A: 1},
		}},
	})
	rp.SetPipeline(p.pipeline.RenderPipeline())
	rp.SetBindGroup(0, p.colorGroup.BindGroup(), nil)
	rp.SetBindGroup(postGBufferGroup, gb.BindGroup(), nil)
	rp.SetBindGroup(2, p.paramsGroup.BindGroup(), nil)
	rp.SetVertexBuffer(0, p.vertices.Buffer(), 0, wgpu.WholeSize)
	rp.Draw(uint32(p.vertices.Len()), 1, 0, 0)
	rp.End()
	return nil
}

func (p *PostProcessPass) Release() {
	if p.pipeline != nil {
		p.pipeline.Release()
		p.pipeline = nil
	}
	for _, g := range []bind_group_provider.BindGroupProvider{p.colorGroup, p.paramsGroup} {
		if g != nil {
			g.Release()
		}
	}
	if p.vertices != nil {
		p.vertices.Release()
		p.vertices = nil
	}
	if p.params != nil {
		p.params.Release()
		p.params = nil
	}
	if p.sampler != nil {
		p.sampler.Release()
		p.sampler = nil
	}
	for _, l := range []*wgpu.BindGroupLayout{p.colorLayout, p.paramsLayout} {
		if l != nil {
			l.Release()
		}
	}
	p.colorLayout, p.paramsLayout = nil, nil
}

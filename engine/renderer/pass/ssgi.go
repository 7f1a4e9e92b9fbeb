package pass

import (
	"fmt"
	"math/rand/v2"

	"github.com/Carmen-Shannon/oxy-deferred/common"
	"github.com/Carmen-Shannon/oxy-deferred/engine/camera"
	"github.com/Carmen-Shannon/oxy-deferred/engine/light"
	"github.com/Carmen-Shannon/oxy-deferred/engine/logger"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/gbuffer"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/resource"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/zquad"
	"github.com/cogentcore/webgpu/wgpu"
	"go.uber.org/zap"
)

// SeedSlots is the number of per-pixel RNG seeds, one per pixel of a 1920x1080 image.
// Larger images wrap around the seed buffer.
const SeedSlots = 1920 * 1080

// DefaultSeed seeds the RNG that fills the seed buffer when no source is given.
const DefaultSeed uint64 = 0x5eed

// SSGI group indices after the shared output, shadow and light groups.
const (
	ssgiSeedGroup    = 3
	ssgiGBufferGroup = 4
	ssgiTraceGroup   = 5
	ssgiViewGroup    = 6
)

// GenerateSeeds draws n seeds from src.
func GenerateSeeds(src rand.Source, n int) []uint32 {
	r := rand.New(src)
	seeds := make([]uint32, n)
	for i := range seeds {
		seeds[i] = r.Uint32()
	}
	return seeds
}

// SSGIOption configures an SSGIPass.
type SSGIOption func(*ssgiOptions)

type ssgiOptions struct {
	source rand.Source
	slots  int
}

// WithSeedSource sets the RNG the seed buffer is filled from.
//
// Parameters:
//   - src: the random source, drawn SeedSlots times at construction
//
// Returns:
//   - SSGIOption: the option
func WithSeedSource(src rand.Source) SSGIOption {
	return func(o *ssgiOptions) {
		o.source = src
	}
}

// WithSeed fills the seed buffer from a PCG source seeded with seed.
func WithSeed(seed uint64) SSGIOption {
	return WithSeedSource(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// SeedGroupLayoutDescriptor returns the layout of the seed buffer group.
func SeedGroupLayoutDescriptor() wgpu.BindGroupLayoutDescriptor {
	return resource.NewLayoutBuilder("SSGI Seed Layout").
		Storage(0, wgpu.ShaderStageCompute, true).
		Descriptor()
}

// ViewGroupLayoutDescriptor returns the layout of the camera and SSRT uniforms.
func ViewGroupLayoutDescriptor() wgpu.BindGroupLayoutDescriptor {
	return resource.NewLayoutBuilder("SSGI View Layout").
		Uniform(0, wgpu.ShaderStageCompute).MinSize(uint64(camera.GPUCameraUniform{}.Size())).
		Uniform(1, wgpu.ShaderStageCompute).MinSize(uint64(GPUSSRTUniform{}.Size())).
		Descriptor()
}

// NewSSRTUniform fills the trace parameters for a frame.
func NewSSRTUniform(cam camera.Camera, image common.Size, zq *zquad.QuadTree) GPUSSRTUniform {
	lod := zq.LevelSize(0)
	return GPUSSRTUniform{
		ImageSize: [2]uint32{image.Width, image.Height},
		LodSize:   [2]uint32{lod.Width, lod.Height},
		MaxLevel:  uint32(zq.Levels() - 1),
		Near:      cam.Perspective().Near,
		ViewDir:   cam.Direction(),
		Eye:       cam.Eye(),
	}
}

// SSGIPass computes direct light plus one diffuse bounce traced in screen space
// against the depth quad-tree, writing the HDR color buffer.
type SSGIPass struct {
	dev     *wgpu.Device
	queue   *wgpu.Queue
	shaders pipeline.Shaders

	lighting *lightingBindings

	seedLayout *wgpu.BindGroupLayout
	seeds      *resource.Buffer[uint32]
	seedGroup  bind_group_provider.BindGroupProvider

	viewLayout   *wgpu.BindGroupLayout
	cameraBuffer *resource.Buffer[camera.GPUCameraUniform]
	ssrtBuffer   *resource.Buffer[GPUSSRTUniform]
	viewGroup    bind_group_provider.BindGroupProvider

	// levels is the quad-tree level count the pipeline was generated for.
	levels   int
	pipeline pipeline.Pipeline
}

// NewSSGIPass builds the SSGI pipeline and its bindings.
//
// Parameters:
//   - dev: the device
//   - shaders: the shader library and module cache
//   - shadow: the shadow pass whose cube map is sampled
//   - gb: the G-buffer, for its layout
//   - zq: the quad-tree, for its trace layout
//   - options: seed options
//
// Returns:
//   - *SSGIPass: the pass
//   - error: a shader or allocation failure
func NewSSGIPass(dev *wgpu.Device, shaders pipeline.Shaders, shadow *ShadowPass, gb *gbuffer.GBuffer, zq *zquad.QuadTree, options ...SSGIOption) (*SSGIPass, error) {
	opts := ssgiOptions{slots: SeedSlots}
	for _, opt := range options {
		opt(&opts)
	}
	if opts.source == nil {
		WithSeed(DefaultSeed)(&opts)
	}

	p := &SSGIPass{dev: dev, queue: dev.GetQueue(), shaders: shaders}
	if err := p.init(shadow, gb, zq, GenerateSeeds(opts.source, opts.slots)); err != nil {
		p.Release()
		return nil, fmt.Errorf("ssgi pass: %w", err)
	}
	logger.Debug("ssgi pass created", zap.Int("seeds", opts.slots), zap.Int("levels", p.levels))
	return p, nil
}

func (p *SSGIPass) init(shadow *ShadowPass, gb *gbuffer.GBuffer, zq *zquad.QuadTree, seeds []uint32) error {
	var err error
	if p.lighting, err = newLightingBindings(p.dev, "SSGI", shadow.CubeMap(), true); err != nil {
		return err
	}

	seedDesc := SeedGroupLayoutDescriptor()
	if p.seedLayout, err = p.dev.CreateBindGroupLayout(&seedDesc); err != nil {
		return fmt.Errorf("creating seed layout: %w", err)
	}
	if p.seeds, err = resource.NewStorageBuffer(p.dev, "SSGI Seeds", seeds, true); err != nil {
		return err
	}
	p.seedGroup = bind_group_provider.NewBindGroupProvider("SSGI Seed Bind Group",
		bind_group_provider.WithBindGroupLayout(p.seedLayout),
		bind_group_provider.WithBuffer(0, p.seeds.Buffer()),
	)
	if err := p.seedGroup.Build(p.dev); err != nil {
		return err
	}

	viewDesc := ViewGroupLayoutDescriptor()
	if p.viewLayout, err = p.dev.CreateBindGroupLayout(&viewDesc); err != nil {
		return fmt.Errorf("creating view layout: %w", err)
	}
	if p.cameraBuffer, err = resource.NewUniformBuffer(p.dev, "SSGI Camera", []camera.GPUCameraUniform{{}}); err != nil {
		return err
	}
	if p.ssrtBuffer, err = resource.NewUniformBuffer(p.dev, "SSGI SSRT", []GPUSSRTUniform{{}}); err != nil {
		return err
	}
	p.viewGroup = bind_group_provider.NewBindGroupProvider("SSGI View Bind Group",
		bind_group_provider.WithBindGroupLayout(p.viewLayout),
		bind_group_provider.WithBuffer(0, p.cameraBuffer.Buffer()),
		bind_group_provider.WithBuffer(1, p.ssrtBuffer.Buffer()),
	)
	if err := p.viewGroup.Build(p.dev); err != nil {
		return err
	}

	return p.buildPipeline(gb, zq)
}

// buildPipeline regenerates the trace include for the quad-tree's level count and
// compiles the pipeline against it.
func (p *SSGIPass) buildPipeline(gb *gbuffer.GBuffer, zq *zquad.QuadTree) error {
	p.shaders.Library.Register(zquad.TraceInclude, zquad.TraceDeclarations(ssgiTraceGroup, zq.Levels()))
	pl, err := p.shaders.Create(p.dev, "ssgi.wgsl", pipeline.PipelineTypeCompute,
		[]shader.Define{gbufferGroup(ssgiGBufferGroup)},
		pipeline.WithBindGroupLayout(outputGroup, p.lighting.outputLayout, p.lighting.outputDesc),
		pipeline.WithBindGroupLayout(shadowGroup, p.lighting.shadowLayout, p.lighting.shadowDesc),
		pipeline.WithBindGroupLayout(lightGroup, p.lighting.lightLayout, p.lighting.lightDesc),
		pipeline.WithBindGroupLayout(ssgiSeedGroup, p.seedLayout, SeedGroupLayoutDescriptor()),
		pipeline.WithBindGroupLayout(ssgiGBufferGroup, gb.Layout(), gb.LayoutDescriptor()),
		pipeline.WithBindGroupLayout(ssgiTraceGroup, zq.TraceLayout(), zq.TraceLayoutDescriptor()),
		pipeline.WithBindGroupLayout(ssgiViewGroup, p.viewLayout, ViewGroupLayoutDescriptor()),
	)
	if err != nil {
		return err
	}
	if p.pipeline != nil {
		p.pipeline.Release()
	}
	p.pipeline = pl
	p.levels = zq.Levels()
	return nil
}

// Record uploads the light, camera and trace uniforms and dispatches one thread per pixel.
//
// Parameters:
//   - encoder: the frame encoder
//   - cam: the view the G-buffer was rendered from
//   - l: the light
//   - color: the HDR color buffer to write
//   - gb: the G-buffer to shade
//   - zq: the quad-tree built from gb this frame
//
// Returns:
//   - error: an upload, bind group or pipeline failure
func (p *SSGIPass) Record(encoder *wgpu.CommandEncoder, cam camera.Camera, l light.PointLight, color *resource.Texture, gb *gbuffer.GBuffer, zq *zquad.QuadTree) error {
	if zq.Levels() != p.levels {
		if err := p.buildPipeline(gb, zq); err != nil {
			return err
		}
	}
	if err := p.lighting.bindColor(color); err != nil {
		return err
	}
	if err := p.lighting.uploadLight(l); err != nil {
		return err
	}
	if err := p.cameraBuffer.Upload(p.queue, []camera.GPUCameraUniform{cam.Uniform()}); err != nil {
		return err
	}
	size := color.Size()
	if err := p.ssrtBuffer.Upload(p.queue, []GPUSSRTUniform{NewSSRTUniform(cam, size, zq)}); err != nil {
		return err
	}

	cp := encoder.BeginComputePass(nil)
	cp.SetPipeline(p.pipeline.ComputePipeline())
	p.lighting.set(cp)
	cp.SetBindGroup(ssgiSeedGroup, p.seedGroup.BindGroup(), nil)
	cp.SetBindGroup(ssgiGBufferGroup, gb.BindGroup(), nil)
	cp.SetBindGroup(ssgiTraceGroup, zq.TraceBindGroup(), nil)
	cp.SetBindGroup(ssgiViewGroup, p.viewGroup.BindGroup(), nil)
	cp.DispatchWorkgroups(common.CeilDiv(size.Width, LightingWorkgroupSize), common.CeilDiv(size.Height, LightingWorkgroupSize), 1)
	cp.End()
	return nil
}

func (p *SSGIPass) Release() {
	if p.pipeline != nil {
		p.pipeline.Release()
		p.pipeline = nil
	}
	for _, g := range []bind_group_provider.BindGroupProvider{p.seedGroup, p.viewGroup} {
		if g != nil {
			g.Release()
		}
	}
	if p.seeds != nil {
		p.seeds.Release()
		p.seeds = nil
	}
	if p.cameraBuffer != nil {
		p.cameraBuffer.Release()
		p.cameraBuffer = nil
	}
	if p.ssrtBuffer != nil {
		p.ssrtBuffer.Release()
		p.ssrtBuffer = nil
	}
	for _, l := range []*wgpu.BindGroupLayout{p.seedLayout, p.viewLayout} {
		if l != nil {
			l.Release()
		}
	}
	p.seedLayout, p.viewLayout = nil, nil
	if p.lighting != nil {
		p.lighting.release()
		p.lighting = nil
	}
}

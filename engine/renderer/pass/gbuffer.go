package pass

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-deferred/engine/camera"
	"github.com/Carmen-Shannon/oxy-deferred/engine/logger"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/gbuffer"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/resource"
	"github.com/cogentcore/webgpu/wgpu"
	"go.uber.org/zap"
)

// CameraLayoutDescriptor returns the layout of a group holding only the camera uniform.
func CameraLayoutDescriptor(stages wgpu.ShaderStage) wgpu.BindGroupLayoutDescriptor {
	return resource.NewLayoutBuilder("Camera Layout").
		Uniform(0, stages).
		MinSize(uint64(camera.GPUCameraUniform{}.Size())).
		Descriptor()
}

// GBufferPass rasterizes every mesh into the G-buffer targets.
type GBufferPass struct {
	queue *wgpu.Queue

	cameraLayout *wgpu.BindGroupLayout
	cameraBuffer *resource.Buffer[camera.GPUCameraUniform]
	cameraGroup  bind_group_provider.BindGroupProvider

	pipeline pipeline.Pipeline
}

// NewGBufferPass compiles the geometry pipeline for the G-buffer's variant.
//
// Parameters:
//   - dev: the device
//   - shaders: the shader library and module cache
//   - gb: the G-buffer whose formats the pipeline targets
//   - materialLayout: the per-mesh material layout, created from material.LayoutDescriptor
//
// Returns:
//   - *GBufferPass: the pass
//   - error: a shader or allocation failure
func NewGBufferPass(dev *wgpu.Device, shaders pipeline.Shaders, gb *gbuffer.GBuffer, materialLayout *wgpu.BindGroupLayout) (*GBufferPass, error) {
	p := &GBufferPass{queue: dev.GetQueue()}
	if err := p.init(dev, shaders, gb, materialLayout); err != nil {
		p.Release()
		return nil, fmt.Errorf("gbuffer pass: %w", err)
	}
	logger.Debug("gbuffer pass created", zap.Stringer("variant", gb.Options().Variant))
	return p, nil
}

func (p *GBufferPass) init(dev *wgpu.Device, shaders pipeline.Shaders, gb *gbuffer.GBuffer, materialLayout *wgpu.BindGroupLayout) error {
	camDesc := CameraLayoutDescriptor(wgpu.ShaderStageVertex | wgpu.ShaderStageFragment)
	var err error
	if p.cameraLayout, err = dev.CreateBindGroupLayout(&camDesc); err != nil {
		return fmt.Errorf("creating camera layout: %w", err)
	}
	if p.cameraBuffer, err = resource.NewUniformBuffer(dev, "GBuffer Camera", []camera.GPUCameraUniform{{}}); err != nil {
		return err
	}
	p.cameraGroup = bind_group_provider.NewBindGroupProvider("GBuffer Camera Bind Group",
		bind_group_provider.WithBindGroupLayout(p.cameraLayout),
		bind_group_provider.WithBuffer(0, p.cameraBuffer.Buffer()),
	)
	if err := p.cameraGroup.Build(dev); err != nil {
		return err
	}

	p.pipeline, err = shaders.Create(dev, "gbuffer.wgsl", pipeline.PipelineTypeRender, gb.Options().Defines(),
		pipeline.WithBindGroupLayout(0, p.cameraLayout, camDesc),
		pipeline.WithBindGroupLayout(material.MaterialGroup, materialLayout, material.LayoutDescriptor()),
		pipeline.WithColorTargets(gb.Formats()...),
		pipeline.WithDepth(gbuffer.DepthFormat, true, wgpu.CompareFunctionLess),
		pipeline.WithCullMode(wgpu.CullModeBack),
		pipeline.WithFrontFace(wgpu.FrontFaceCCW),
	)
	return err
}

// Record uploads the camera and draws every mesh into the G-buffer.
//
// Parameters:
//   - encoder: the frame encoder
//   - gb: the target G-buffer
//   - cam: the view to render from
//   - meshes: the meshes to draw
//
// Returns:
//   - error: an upload failure or a G-buffer without textures
func (p *GBufferPass) Record(encoder *wgpu.CommandEncoder, gb *gbuffer.GBuffer, cam camera.Camera, meshes []Mesh) error {
	if gb.Depth() == nil {
		return fmt.Errorf("gbuffer has no textures")
	}
	if err := p.cameraBuffer.Upload(p.queue, []camera.GPUCameraUniform{cam.Uniform()}); err != nil {
		return err
	}

	rp := encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		ColorAttachments:       gb.ColorAttachments(),
		DepthStencilAttachment: gb.DepthAttachment(),
	})
	rp.SetPipeline(p.pipeline.RenderPipeline())
	rp.SetBindGroup(0, p.cameraGroup.BindGroup(), nil)
	drawMeshes(rp, meshes, material.MaterialGroup)
	rp.End()
	return nil
}

func (p *GBufferPass) Release() {
	if p.pipeline != nil {
		p.pipeline.Release()
		p.pipeline = nil
	}
	if p.cameraGroup != nil {
		p.cameraGroup.Release()
	}
	if p.cameraBuffer != nil {
		p.cameraBuffer.Release()
		p.cameraBuffer = nil
	}
	if p.cameraLayout != nil {
		p.cameraLayout.Release()
		p.cameraLayout = nil
	}
}

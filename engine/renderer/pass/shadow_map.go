package pass

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-deferred/common"
	"github.com/Carmen-Shannon/oxy-deferred/engine/light"
	"github.com/Carmen-Shannon/oxy-deferred/engine/logger"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/gbuffer"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/resource"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

const shadowMapGBufferGroup = 3

// ShadowMapPass computes direct Lambert lighting with the cube shadow test and no
// indirect bounce. It is the cheap alternative to SSGIPass.
type ShadowMapPass struct {
	lighting *lightingBindings
	pipeline pipeline.Pipeline
}

// NewShadowMapPass builds the direct lighting pipeline.
//
// Parameters:
//   - dev: the device
//   - shaders: the shader library and module cache
//   - shadow: the shadow pass whose cube map is sampled
//   - gb: the G-buffer, for its layout
//
// Returns:
//   - *ShadowMapPass: the pass
//   - error: a shader or allocation failure
func NewShadowMapPass(dev *wgpu.Device, shaders pipeline.Shaders, shadow *ShadowPass, gb *gbuffer.GBuffer) (*ShadowMapPass, error) {
	p := &ShadowMapPass{}
	var err error
	if p.lighting, err = newLightingBindings(dev, "Shadow Map", shadow.CubeMap(), false); err != nil {
		return nil, fmt.Errorf("shadow map pass: %w", err)
	}
	p.pipeline, err = shaders.Create(dev, "shadow_map.wgsl", pipeline.PipelineTypeCompute,
		[]shader.Define{gbufferGroup(shadowMapGBufferGroup)},
		pipeline.WithBindGroupLayout(outputGroup, p.lighting.outputLayout, p.lighting.outputDesc),
		pipeline.WithBindGroupLayout(shadowGroup, p.lighting.shadowLayout, p.lighting.shadowDesc),
		pipeline.WithBindGroupLayout(lightGroup, p.lighting.lightLayout, p.lighting.lightDesc),
		pipeline.WithBindGroupLayout(shadowMapGBufferGroup, gb.Layout(), gb.LayoutDescriptor()),
	)
	if err != nil {
		p.Release()
		return nil, fmt.Errorf("shadow map pass: %w", err)
	}
	logger.Debug("shadow map pass created")
	return p, nil
}

// Record uploads the light and shades every pixel of the G-buffer into color.
//
// Parameters:
//   - encoder: the frame encoder
//   - l: the light
//   - color: the HDR color buffer to write
//   - gb: the G-buffer to shade
//
// Returns:
//   - error: an upload or bind group failure
func (p *ShadowMapPass) Record(encoder *wgpu.CommandEncoder, l light.PointLight, color *resource.Texture, gb *gbuffer.GBuffer) error {
	if err := p.lighting.bindColor(color); err != nil {
		return err
	}
	if err := p.lighting.uploadLight(l); err != nil {
		return err
	}

	size := color.Size()
	cp := encoder.BeginComputePass(nil)
	cp.SetPipeline(p.pipeline.ComputePipeline())
	p.lighting.set(cp)
	cp.SetBindGroup(shadowMapGBufferGroup, gb.BindGroup(), nil)
	cp.DispatchWorkgroups(common.CeilDiv(size.Width, LightingWorkgroupSize), common.CeilDiv(size.Height, LightingWorkgroupSize), 1)
	cp.End()
	return nil
}

func (p *ShadowMapPass) Release() {
	if p.pipeline != nil {
		p.pipeline.Release()
		p.pipeline = nil
	}
	if p.lighting != nil {
		p.lighting.release()
		p.lighting = nil
	}
}

package deferred

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-deferred/common"
	"github.com/Carmen-Shannon/oxy-deferred/engine/logger"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/gbuffer"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/pass"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/resource"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/zquad"
	"github.com/cogentcore/webgpu/wgpu"
	"go.uber.org/zap"
)

// Stage labels in recording order.
const (
	StageShadow   = "shadow"
	StageGBuffer  = "gbuffer"
	StageZQuad    = "zquad"
	StageLighting = "lighting"
	StagePost     = "post"
)

// gpuFactory builds the real passes. The shadow pass, the G-buffer pass and both
// lighting passes live as long as the pipeline; the color buffer and the
// surface-bound post-process pass are rebuilt on every resize, and the G-buffer
// and quad-tree reallocate their textures in place.
type gpuFactory struct {
	dev           *wgpu.Device
	opts          options
	surfaceFormat wgpu.TextureFormat

	cache          *shader.Cache[*wgpu.ShaderModule]
	shaders        pipeline.Shaders
	materialLayout *wgpu.BindGroupLayout

	shadow      *pass.ShadowPass
	gbufferPass *pass.GBufferPass
	ssgi        *pass.SSGIPass
	direct      *pass.ShadowMapPass

	gb    *gbuffer.GBuffer
	zq    *zquad.QuadTree
	color *resource.Texture
	post  *pass.PostProcessPass
}

var _ stageFactory = &gpuFactory{}

func newGPUFactory(dev *wgpu.Device, surfaceFormat wgpu.TextureFormat, opts options) (*gpuFactory, error) {
	f := &gpuFactory{
		dev:           dev,
		opts:          opts,
		surfaceFormat: surfaceFormat,
	}

	lib := shader.NewLibrary(nil, shader.WithValidation(opts.validate))
	pass.RegisterIncludes(lib)
	f.cache = shader.NewCache(
		func(name, source string, _ shader.ShaderType) (*wgpu.ShaderModule, error) {
			return dev.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
				Label:          name,
				WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: source},
			})
		},
		func(m *wgpu.ShaderModule) {
			m.Release()
		},
	)
	f.shaders = pipeline.Shaders{Library: lib, Modules: f.cache}

	matDesc := material.LayoutDescriptor()
	var err error
	if f.materialLayout, err = dev.CreateBindGroupLayout(&matDesc); err != nil {
		f.release()
		return nil, fmt.Errorf("creating material layout: %w", err)
	}
	if f.shadow, err = pass.NewShadowPass(dev, f.shaders, opts.shadowResolution); err != nil {
		f.release()
		return nil, fmt.Errorf("shadow pass: %w", err)
	}
	return f, nil
}

func (f *gpuFactory) build(size common.Size) ([]Stage, error) {
	var err error
	if f.gb == nil {
		if f.gb, err = gbuffer.New(f.dev, size, f.opts.gbuffer); err != nil {
			return nil, err
		}
	} else if err = f.gb.Resize(f.dev, size); err != nil {
		return nil, err
	}

	if f.zq == nil {
		if f.zq, err = zquad.New(f.dev, f.shaders, size, f.opts.zquadLevels); err != nil {
			return nil, err
		}
	} else if err = f.zq.Resize(f.dev, size); err != nil {
		return nil, err
	}

	if f.color, err = resource.NewColorAttachment(f.dev, "Color Buffer", size, pass.ColorFormat); err != nil {
		return nil, err
	}

	if f.gbufferPass == nil {
		if f.gbufferPass, err = pass.NewGBufferPass(f.dev, f.shaders, f.gb, f.materialLayout); err != nil {
			return nil, fmt.Errorf("gbuffer pass: %w", err)
		}
	}
	if f.ssgi == nil {
		if f.ssgi, err = pass.NewSSGIPass(f.dev, f.shaders, f.shadow, f.gb, f.zq, pass.WithSeed(f.opts.seed)); err != nil {
			return nil, fmt.Errorf("ssgi pass: %w", err)
		}
	}
	if f.direct == nil {
		if f.direct, err = pass.NewShadowMapPass(f.dev, f.shaders, f.shadow, f.gb); err != nil {
			return nil, fmt.Errorf("shadow map pass: %w", err)
		}
	}
	if f.post, err = pass.NewPostProcessPass(f.dev, f.shaders, f.gb, f.surfaceFormat); err != nil {
		return nil, fmt.Errorf("post-process pass: %w", err)
	}

	logger.Debug("frame resources built",
		zap.Uint32("width", size.Width),
		zap.Uint32("height", size.Height),
		zap.Int("shader_modules", f.cache.Len()),
		zap.Int("shader_cache_hits", f.cache.Hits()),
	)

	return []Stage{
		stageFunc{label: StageShadow, record: f.recordShadow},
		stageFunc{label: StageGBuffer, record: f.recordGBuffer},
		stageFunc{label: StageZQuad, record: f.recordZQuad},
		stageFunc{label: StageLighting, record: f.recordLighting},
		stageFunc{label: StagePost, record: f.recordPost},
	}, nil
}

func (f *gpuFactory) recordShadow(fr *Frame, encoder *wgpu.CommandEncoder) error {
	return f.shadow.Record(encoder, fr.Light.Position(), fr.Meshes)
}

func (f *gpuFactory) recordGBuffer(fr *Frame, encoder *wgpu.CommandEncoder) error {
	return f.gbufferPass.Record(encoder, f.gb, fr.Camera, fr.Meshes)
}

func (f *gpuFactory) recordZQuad(_ *Frame, encoder *wgpu.CommandEncoder) error {
	return f.zq.Record(f.gb, encoder)
}

func (f *gpuFactory) recordLighting(fr *Frame, encoder *wgpu.CommandEncoder) error {
	if fr.Lighting == LightingDirect {
		return f.direct.Record(encoder, fr.Light, f.color, f.gb)
	}
	return f.ssgi.Record(encoder, fr.Camera, fr.Light, f.color, f.gb, f.zq)
}

func (f *gpuFactory) recordPost(fr *Frame, encoder *wgpu.CommandEncoder) error {
	return f.post.Record(encoder, fr.Target, f.color, f.gb, fr.Camera, fr.View)
}

func (f *gpuFactory) setSurfaceFormat(format wgpu.TextureFormat) error {
	f.surfaceFormat = format
	if f.post == nil {
		return nil
	}
	return f.post.SetSurfaceFormat(f.gb, format)
}

func (f *gpuFactory) teardown() {
	if f.post != nil {
		f.post.Release()
		f.post = nil
	}
	if f.color != nil {
		f.color.Release()
		f.color = nil
	}
}

func (f *gpuFactory) release() {
	f.teardown()
	if f.direct != nil {
		f.direct.Release()
		f.direct = nil
	}
	if f.ssgi != nil {
		f.ssgi.Release()
		f.ssgi = nil
	}
	if f.gbufferPass != nil {
		f.gbufferPass.Release()
		f.gbufferPass = nil
	}
	if f.zq != nil {
		f.zq.Release()
		f.zq = nil
	}
	if f.gb != nil {
		f.gb.Release()
		f.gb = nil
	}
	if f.shadow != nil {
		f.shadow.Release()
		f.shadow = nil
	}
	if f.materialLayout != nil {
		f.materialLayout.Release()
		f.materialLayout = nil
	}
	if f.cache != nil {
		f.cache.Release()
	}
}

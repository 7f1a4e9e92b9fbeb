package pass

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-deferred/engine/light"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/resource"
	"github.com/cogentcore/webgpu/wgpu"
)

// Group indices shared by both lighting passes.
const (
	outputGroup = 0
	shadowGroup = 1
	lightGroup  = 2
)

// OutputLayoutDescriptor returns the layout of the color output group. withSampler
// adds the sampler binding the SSGI shader declares next to the image.
func OutputLayoutDescriptor(withSampler bool) wgpu.BindGroupLayoutDescriptor {
	b := resource.NewLayoutBuilder("Lighting Output Layout").
		StorageTexture(0, wgpu.ShaderStageCompute, wgpu.StorageTextureAccessWriteOnly, ColorFormat, wgpu.TextureViewDimension2D)
	if withSampler {
		b.Sampler(1, wgpu.ShaderStageCompute, wgpu.SamplerBindingTypeNonFiltering)
	}
	return b.Descriptor()
}

// ShadowLayoutDescriptor returns the layout of the shadow cube group. The cube is
// R32Float, which only a non-filtering sampler may read.
func ShadowLayoutDescriptor() wgpu.BindGroupLayoutDescriptor {
	return resource.NewLayoutBuilder("Shadow Cube Layout").
		Texture(0, wgpu.ShaderStageCompute, wgpu.TextureSampleTypeUnfilterableFloat, wgpu.TextureViewDimensionCube).
		Sampler(1, wgpu.ShaderStageCompute, wgpu.SamplerBindingTypeNonFiltering).
		Descriptor()
}

// LightLayoutDescriptor returns the layout of the light uniform group.
func LightLayoutDescriptor() wgpu.BindGroupLayoutDescriptor {
	return resource.NewLayoutBuilder("Light Layout").
		Uniform(0, wgpu.ShaderStageCompute).
		MinSize(uint64(light.GPULightUniform{}.Size())).
		Descriptor()
}

// lightingBindings owns the output, shadow and light groups both lighting passes use.
type lightingBindings struct {
	dev   *wgpu.Device
	queue *wgpu.Queue

	outputDesc, shadowDesc, lightDesc       wgpu.BindGroupLayoutDescriptor
	outputLayout, shadowLayout, lightLayout *wgpu.BindGroupLayout

	sampler     *wgpu.Sampler
	lightBuffer *resource.Buffer[light.GPULightUniform]

	output, shadow, light bind_group_provider.BindGroupProvider

	// boundColor is the color texture the output group currently writes.
	boundColor *resource.Texture
}

func newLightingBindings(dev *wgpu.Device, label string, cube *resource.CubeMap, withSampler bool) (*lightingBindings, error) {
	b := &lightingBindings{
		dev:        dev,
		queue:      dev.GetQueue(),
		outputDesc: OutputLayoutDescriptor(withSampler),
		shadowDesc: ShadowLayoutDescriptor(),
		lightDesc:  LightLayoutDescriptor(),
	}
	if err := b.init(label, cube, withSampler); err != nil {
		b.release()
		return nil, err
	}
	return b, nil
}

func (b *lightingBindings) init(label string, cube *resource.CubeMap, withSampler bool) error {
	var err error
	if b.outputLayout, err = b.dev.CreateBindGroupLayout(&b.outputDesc); err != nil {
		return fmt.Errorf("creating output layout: %w", err)
	}
	if b.shadowLayout, err = b.dev.CreateBindGroupLayout(&b.shadowDesc); err != nil {
		return fmt.Errorf("creating shadow layout: %w", err)
	}
	if b.lightLayout, err = b.dev.CreateBindGroupLayout(&b.lightDesc); err != nil {
		return fmt.Errorf("creating light layout: %w", err)
	}
	if b.sampler, err = resource.NewSampler(b.dev, resource.NearestClampSampler()); err != nil {
		return err
	}
	if b.lightBuffer, err = resource.NewUniformBuffer(b.dev, label+" Light", []light.GPULightUniform{{}}); err != nil {
		return err
	}

	b.output = bind_group_provider.NewBindGroupProvider(label+" Output Bind Group",
		bind_group_provider.WithBindGroupLayout(b.outputLayout))
	if withSampler {
		b.output.SetSampler(1, b.sampler)
	}
	b.shadow = bind_group_provider.NewBindGroupProvider(label+" Shadow Bind Group",
		bind_group_provider.WithBindGroupLayout(b.shadowLayout),
		bind_group_provider.WithTextureView(0, cube.CubeView()),
		bind_group_provider.WithSampler(1, b.sampler),
	)
	if err := b.shadow.Build(b.dev); err != nil {
		return err
	}
	b.light = bind_group_provider.NewBindGroupProvider(label+" Light Bind Group",
		bind_group_provider.WithBindGroupLayout(b.lightLayout),
		bind_group_provider.WithBuffer(0, b.lightBuffer.Buffer()),
	)
	return b.light.Build(b.dev)
}

// bindColor rebuilds the output group when the color texture changed.
func (b *lightingBindings) bindColor(color *resource.Texture) error {
	if color == b.boundColor && b.output.BindGroup() != nil {
		return nil
	}
	b.output.SetTextureView(0, color.View())
	if err := b.output.Build(b.dev); err != nil {
		return err
	}
	b.boundColor = color
	return nil
}

func (b *lightingBindings) uploadLight(l light.PointLight) error {
	return b.lightBuffer.Upload(b.queue, []light.GPULightUniform{l.Uniform()})
}

// set binds the output, shadow and light groups on a compute pass.
func (b *lightingBindings) set(cp *wgpu.ComputePassEncoder) {
	cp.SetBindGroup(outputGroup, b.output.BindGroup(), nil)
	cp.SetBindGroup(shadowGroup, b.shadow.BindGroup(), nil)
	cp.SetBindGroup(lightGroup, b.light.BindGroup(), nil)
}

func (b *lightingBindings) release() {
	for _, p := range []bind_group_provider.BindGroupProvider{b.output, b.shadow, b.light} {
		if p != nil {
			p.Release()
		}
	}
	if b.lightBuffer != nil {
		b.lightBuffer.Release()
		b.lightBuffer = nil
	}
	if b.sampler != nil {
		b.sampler.Release()
		b.sampler = nil
	}
	for _, l := range []*wgpu.BindGroupLayout{b.outputLayout, b.shadowLayout, b.lightLayout} {
		if l != nil {
			l.Release()
		}
	}
	b.outputLayout, b.shadowLayout, b.lightLayout = nil, nil, nil
}

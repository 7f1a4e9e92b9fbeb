package resource

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
)

// LayoutBuilder accumulates bind group layout entries. Every method returns the
// builder so a layout reads as one expression.
type LayoutBuilder struct {
	label   string
	entries []wgpu.BindGroupLayoutEntry
}

// NewLayoutBuilder starts an empty layout.
func NewLayoutBuilder(label string) *LayoutBuilder {
	return &LayoutBuilder{label: label}
}

func (b *LayoutBuilder) add(e wgpu.BindGroupLayoutEntry) *LayoutBuilder {
	b.entries = append(b.entries, e)
	return b
}

// Uniform adds a uniform buffer binding.
func (b *LayoutBuilder) Uniform(binding uint32, stages wgpu.ShaderStage) *LayoutBuilder {
	return b.add(wgpu.BindGroupLayoutEntry{
		Binding:    binding,
		Visibility: stages,
		Buffer:     wgpu.BufferBindingLayout{Type: wgpu.BufferBindingTypeUniform},
	})
}

// Storage adds a storage buffer binding.
func (b *LayoutBuilder) Storage(binding uint32, stages wgpu.ShaderStage, readOnly bool) *LayoutBuilder {
	bt := wgpu.BufferBindingTypeStorage
	if readOnly {
		bt = wgpu.BufferBindingTypeReadOnlyStorage
	}
	return b.add(wgpu.BindGroupLayoutEntry{
		Binding:    binding,
		Visibility: stages,
		Buffer:     wgpu.BufferBindingLayout{Type: bt},
	})
}

// MinSize sets the minimum binding size of the most recently added buffer entry.
func (b *LayoutBuilder) MinSize(size uint64) *LayoutBuilder {
	if n := len(b.entries); n > 0 {
		b.entries[n-1].Buffer.MinBindingSize = size
	}
	return b
}

// Texture adds a sampled texture binding.
func (b *LayoutBuilder) Texture(binding uint32, stages wgpu.ShaderStage, sampleType wgpu.TextureSampleType, dim wgpu.TextureViewDimension) *LayoutBuilder {
	return b.add(wgpu.BindGroupLayoutEntry{
		Binding:    binding,
		Visibility: stages,
		Texture:    wgpu.TextureBindingLayout{SampleType: sampleType, ViewDimension: dim},
	})
}

// DepthTexture adds a 2D depth texture binding.
func (b *LayoutBuilder) DepthTexture(binding uint32, stages wgpu.ShaderStage) *LayoutBuilder {
	return b.Texture(binding, stages, wgpu.TextureSampleTypeDepth, wgpu.TextureViewDimension2D)
}

// StorageTexture adds a storage image binding.
func (b *LayoutBuilder) StorageTexture(binding uint32, stages wgpu.ShaderStage, access wgpu.StorageTextureAccess, format wgpu.TextureFormat, dim wgpu.TextureViewDimension) *LayoutBuilder {
	return b.add(wgpu.BindGroupLayoutEntry{
		Binding:        binding,
		Visibility:     stages,
		StorageTexture: wgpu.StorageTextureBindingLayout{Access: access, Format: format, ViewDimension: dim},
	})
}

// Sampler adds a sampler binding.
func (b *LayoutBuilder) Sampler(binding uint32, stages wgpu.ShaderStage, samplerType wgpu.SamplerBindingType) *LayoutBuilder {
	return b.add(wgpu.BindGroupLayoutEntry{
		Binding:    binding,
		Visibility: stages,
		Sampler:    wgpu.SamplerBindingLayout{Type: samplerType},
	})
}

// Descriptor returns the layout descriptor built so far.
func (b *LayoutBuilder) Descriptor() wgpu.BindGroupLayoutDescriptor {
	return wgpu.BindGroupLayoutDescriptor{
		Label:   b.label,
		Entries: append([]wgpu.BindGroupLayoutEntry(nil), b.entries...),
	}
}

// Build creates the layout on the device.
//
// Parameters:
//   - dev: the device
//
// Returns:
//   - *wgpu.BindGroupLayout: the created layout
//   - error: duplicate bindings or creation failure
func (b *LayoutBuilder) Build(dev *wgpu.Device) (*wgpu.BindGroupLayout, error) {
	seen := make(map[uint32]bool, len(b.entries))
	for _, e := range b.entries {
		if seen[e.Binding] {
			return nil, fmt.Errorf("layout %s: binding %d declared twice", b.label, e.Binding)
		}
		seen[e.Binding] = true
	}
	desc := b.Descriptor()
	layout, err := dev.CreateBindGroupLayout(&desc)
	if err != nil {
		return nil, fmt.Errorf("creating layout %s: %w", b.label, err)
	}
	return layout, nil
}

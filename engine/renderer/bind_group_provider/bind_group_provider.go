package bind_group_provider

import (
	"errors"
	"fmt"
	"slices"

	"github.com/cogentcore/webgpu/wgpu"
)

// ErrIncomplete is returned by Build when the provider has no layout or no resources.
var ErrIncomplete = errors.New("bind group provider incomplete")

// bindGroupProvider is the unexported implementation of BindGroupProvider.
type bindGroupProvider struct {
	// label is a debug label added for convenience.
	label string

	// bindGroup is the GPU bind group created by Build, or nil before the first Build.
	bindGroup *wgpu.BindGroup
	// bindGroupLayout is the layout the bind group is created against. It is owned by whoever built it.
	bindGroupLayout *wgpu.BindGroupLayout

	// The following resources are referenced, not owned. Their creators release them.

	// buffers holds the GPU buffers bound by this provider, keyed by binding index.
	buffers map[int]*wgpu.Buffer
	// textureViews holds the GPU texture views bound by this provider, keyed by binding index.
	textureViews map[int]*wgpu.TextureView
	// samplers holds the GPU samplers bound by this provider, keyed by binding index.
	samplers map[int]*wgpu.Sampler
}

// BindGroupProvider gathers the resources of one bind group and creates the GPU bind
// group from them. Passes hold one provider per group index.
//
// Usage pattern:
//  1. Pass creates a provider with its layout and the resources for every binding
//  2. Pass calls Build(dev) to create the bind group
//  3. On resize the pass swaps texture views with SetTextureView and calls Build again
//  4. Pass passes BindGroup() to SetBindGroup while recording
type BindGroupProvider interface {
	// Release releases the bind group. Referenced resources are left alone.
	Release()

	// Label returns the debug label for this provider.
	//
	// Returns:
	//   - string: the debug label
	Label() string

	// BindGroup returns the created bind group for shader binding.
	// Returns nil if Build has not been called.
	//
	// Returns:
	//   - *wgpu.BindGroup: the bind group or nil
	BindGroup() *wgpu.BindGroup

	// BindGroupLayout returns the layout this provider builds against.
	//
	// Returns:
	//   - *wgpu.BindGroupLayout: the bind group layout or nil
	BindGroupLayout() *wgpu.BindGroupLayout

	// Buffer returns the buffer bound at binding, or nil if not set.
	//
	// Parameters:
	//   - binding: the binding index
	//
	// Returns:
	//   - *wgpu.Buffer: the buffer or nil
	Buffer(binding int) *wgpu.Buffer

	// TextureView returns the GPU texture view for a specific binding, or nil if not set.
	//
	// Parameters:
	//   - binding: the binding index
	//
	// Returns:
	//   - *wgpu.TextureView: the texture view or nil
	TextureView(binding int) *wgpu.TextureView

	// Sampler returns the GPU sampler for a specific binding, or nil if not set.
	//
	// Parameters:
	//   - binding: the binding index
	//
	// Returns:
	//   - *wgpu.Sampler: the sampler or nil
	Sampler(binding int) *wgpu.Sampler

	// SetBindGroupLayout replaces the layout. The next Build uses it.
	//
	// Parameters:
	//   - bgl: the layout
	SetBindGroupLayout(bgl *wgpu.BindGroupLayout)

	// SetBuffer binds a buffer at binding, replacing any other resource there.
	//
	// Parameters:
	//   - binding: the binding index
	//   - buf: the buffer
	SetBuffer(binding int, buf *wgpu.Buffer)

	// SetTextureView binds a texture view at binding, replacing any other resource there.
	//
	// Parameters:
	//   - binding: the binding index
	//   - tv: the texture view to store
	SetTextureView(binding int, tv *wgpu.TextureView)

	// SetSampler binds a sampler at binding, replacing any other resource there.
	//
	// Parameters:
	//   - binding: the binding index
	//   - s: the sampler to store
	SetSampler(binding int, s *wgpu.Sampler)

	// Entries returns the bind group entries sorted by binding index.
	//
	// Returns:
	//   - []wgpu.BindGroupEntry: one entry per bound resource
	Entries() []wgpu.BindGroupEntry

	// Build creates the bind group from the current resources, releasing the previous one.
	//
	// Parameters:
	//   - dev: the device
	//
	// Returns:
	//   - error: ErrIncomplete or a creation failure
	Build(dev *wgpu.Device) error
}

// Compile-time check that bindGroupProvider implements BindGroupProvider
var _ BindGroupProvider = &bindGroupProvider{}

// NewBindGroupProvider creates a new BindGroupProvider with the provided options.
//
// Parameters:
//   - label: debug label used for the bind group
//   - options: a variadic list of options to configure the provider
//
// Returns:
//   - BindGroupProvider: a new instance of BindGroupProvider configured with the provided options
func NewBindGroupProvider(label string, options ...BindGroupProviderOption) BindGroupProvider {
	p := &bindGroupProvider{
		label:        label,
		buffers:      make(map[int]*wgpu.Buffer),
		textureViews: make(map[int]*wgpu.TextureView),
		samplers:     make(map[int]*wgpu.Sampler),
	}
	for _, opt := range options {
		opt(p)
	}
	return p
}

func (p *bindGroupProvider) Label() string {
	return p.label
}

func (p *bindGroupProvider) BindGroup() *wgpu.BindGroup {
	return p.bindGroup
}

func (p *bindGroupProvider) BindGroupLayout() *wgpu.BindGroupLayout {
	return p.bindGroupLayout
}

func (p *bindGroupProvider) Buffer(binding int) *wgpu.Buffer {
	return p.buffers[binding]
}

func (p *bindGroupProvider) TextureView(binding int) *wgpu.TextureView {
	return p.textureViews[binding]
}

func (p *bindGroupProvider) Sampler(binding int) *wgpu.Sampler {
	return p.samplers[binding]
}

func (p *bindGroupProvider) SetBindGroupLayout(bgl *wgpu.BindGroupLayout) {
	p.bindGroupLayout = bgl
}

func (p *bindGroupProvider) clear(binding int) {
	delete(p.buffers, binding)
	delete(p.textureViews, binding)
	delete(p.samplers, binding)
}

func (p *bindGroupProvider) SetBuffer(binding int, buf *wgpu.Buffer) {
	p.clear(binding)
	p.buffers[binding] = buf
}

func (p *bindGroupProvider) SetTextureView(binding int, tv *wgpu.TextureView) {
	p.clear(binding)
	p.textureViews[binding] = tv
}

func (p *bindGroupProvider) SetSampler(binding int, s *wgpu.Sampler) {
	p.clear(binding)
	p.samplers[binding] = s
}

func (p *bindGroupProvider) Entries() []wgpu.BindGroupEntry {
	entries := make([]wgpu.BindGroupEntry, 0, len(p.buffers)+len(p.textureViews)+len(p.samplers))
	for b, buf := range p.buffers {
		entries = append(entries, wgpu.BindGroupEntry{
			Binding: uint32(b),
			Buffer:  buf,
			Offset:  0,
			Size:    wgpu.WholeSize,
		})
	}
	for b, tv := range p.textureViews {
		entries = append(entries, wgpu.BindGroupEntry{
			Binding:     uint32(b),
			TextureView: tv,
		})
	}
	for b, s := range p.samplers {
		entries = append(entries, wgpu.BindGroupEntry{
			Binding: uint32(b),
			Sampler: s,
		})
	}
	slices.SortFunc(entries, func(a, b wgpu.BindGroupEntry) int {
		return int(a.Binding) - int(b.Binding)
	})
	return entries
}

func (p *bindGroupProvider) Build(dev *wgpu.Device) error {
	if p.bindGroupLayout == nil {
		return fmt.Errorf("%s: %w: no layout", p.label, ErrIncomplete)
	}
	entries := p.Entries()
	if len(entries) == 0 {
		return fmt.Errorf("%s: %w: no resources", p.label, ErrIncomplete)
	}

	bg, err := dev.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:   p.label,
		Layout:  p.bindGroupLayout,
		Entries: entries,
	})
	if err != nil {
		return fmt.Errorf("creating bind group %s: %w", p.label, err)
	}
	if p.bindGroup != nil {
		p.bindGroup.Release()
	}
	p.bindGroup = bg
	return nil
}

func (p *bindGroupProvider) Release() {
	if p.bindGroup != nil {
		p.bindGroup.Release()
		p.bindGroup = nil
	}
}

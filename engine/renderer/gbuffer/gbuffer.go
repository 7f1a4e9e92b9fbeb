package gbuffer

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-deferred/common"
	"github.com/Carmen-Shannon/oxy-deferred/engine/logger"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/resource"
	"github.com/cogentcore/webgpu/wgpu"
	"go.uber.org/zap"
)

// readStages are the stages that read the G-buffer after the geometry pass.
const readStages = wgpu.ShaderStageFragment | wgpu.ShaderStageCompute

// GBuffer owns the geometry pass render targets, the depth texture and the bind
// group that exposes them to later passes. The layout survives resizes; the
// textures and bind group do not.
type GBuffer struct {
	opts Options
	size common.Size

	targets []*resource.Texture
	depth   *resource.Texture

	layout     *wgpu.BindGroupLayout
	layoutDesc wgpu.BindGroupLayoutDescriptor
	provider   bind_group_provider.BindGroupProvider
}

// LayoutDescriptor returns the read layout of a G-buffer: the depth texture at
// binding 0 followed by one read-only storage image per target.
//
// Parameters:
//   - opts: the G-buffer options
//
// Returns:
//   - wgpu.BindGroupLayoutDescriptor: the layout descriptor
func LayoutDescriptor(opts Options) wgpu.BindGroupLayoutDescriptor {
	b := resource.NewLayoutBuilder("GBuffer Layout").DepthTexture(0, readStages)
	for i := range opts.TargetCount() {
		b.StorageTexture(uint32(i+1), readStages, wgpu.StorageTextureAccessReadOnly, TargetFormat, wgpu.TextureViewDimension2D)
	}
	return b.Descriptor()
}

// New creates the G-buffer textures, layout and bind group.
//
// Parameters:
//   - dev: the device
//   - size: the render resolution
//   - opts: which targets to create
//
// Returns:
//   - *GBuffer: the G-buffer
//   - error: any allocation failure
func New(dev *wgpu.Device, size common.Size, opts Options) (*GBuffer, error) {
	g := &GBuffer{
		opts:       opts,
		layoutDesc: LayoutDescriptor(opts),
	}
	var err error
	g.layout, err = dev.CreateBindGroupLayout(&g.layoutDesc)
	if err != nil {
		return nil, fmt.Errorf("creating gbuffer layout: %w", err)
	}
	g.provider = bind_group_provider.NewBindGroupProvider("GBuffer Bind Group",
		bind_group_provider.WithBindGroupLayout(g.layout),
	)
	if err := g.createTextures(dev, size); err != nil {
		g.Release()
		return nil, err
	}
	if err := g.CreateBindGroup(dev); err != nil {
		g.Release()
		return nil, err
	}
	logger.Debug("gbuffer created",
		zap.Uint32("width", size.Width),
		zap.Uint32("height", size.Height),
		zap.Stringer("variant", opts.Variant),
	)
	return g, nil
}

func (g *GBuffer) createTextures(dev *wgpu.Device, size common.Size) error {
	targets := make([]*resource.Texture, 0, g.opts.TargetCount())
	for i := range g.opts.TargetCount() {
		t, err := resource.NewColorAttachment(dev, "GBuffer "+targetNames[i], size, TargetFormat)
		if err != nil {
			for _, made := range targets {
				made.Release()
			}
			return fmt.Errorf("creating gbuffer target %d: %w", i, err)
		}
		targets = append(targets, t)
	}
	depth, err := resource.NewDepthTexture(dev, "GBuffer Depth", size)
	if err != nil {
		for _, made := range targets {
			made.Release()
		}
		return fmt.Errorf("creating gbuffer depth: %w", err)
	}

	g.targets = targets
	g.depth = depth
	g.size = size
	return nil
}

func (g *GBuffer) releaseTextures() {
	for _, t := range g.targets {
		t.Release()
	}
	g.targets = nil
	if g.depth != nil {
		g.depth.Release()
		g.depth = nil
	}
}

// CreateBindGroup binds the current textures, replacing the previous bind group.
func (g *GBuffer) CreateBindGroup(dev *wgpu.Device) error {
	g.provider.SetTextureView(0, g.depth.View())
	for i, t := range g.targets {
		g.provider.SetTextureView(i+1, t.View())
	}
	return g.provider.Build(dev)
}

// Resize recreates the textures and bind group at the new size. The layout is kept.
// Resizing to the current size does nothing.
//
// Parameters:
//   - dev: the device
//   - size: the new render resolution
//
// Returns:
//   - error: any allocation failure, after which the G-buffer holds no textures
func (g *GBuffer) Resize(dev *wgpu.Device, size common.Size) error {
	if size == g.size && g.targets != nil {
		return nil
	}
	g.releaseTextures()
	if err := g.createTextures(dev, size); err != nil {
		return err
	}
	if err := g.CreateBindGroup(dev); err != nil {
		return err
	}
	logger.Debug("gbuffer resized", zap.Uint32("width", size.Width), zap.Uint32("height", size.Height))
	return nil
}

// ColorAttachments returns the geometry pass color attachments, each cleared to zero.
func (g *GBuffer) ColorAttachments() []wgpu.RenderPassColorAttachment {
	atts := make([]wgpu.RenderPassColorAttachment, len(g.targets))
	for i, t := range g.targets {
		atts[i] = wgpu.RenderPassColorAttachment{
			View:       t.View(),
			LoadOp:     wgpu.LoadOpClear,
			StoreOp:    wgpu.StoreOpStore,
			ClearValue: wgpu.Color{R: 0, G: 0, B: 0, A: 0},
		}
	}
	return atts
}

// DepthAttachment returns the geometry pass depth attachment, cleared to 1.
func (g *GBuffer) DepthAttachment() *wgpu.RenderPassDepthStencilAttachment {
	return &wgpu.RenderPassDepthStencilAttachment{
		View:            g.depth.View(),
		DepthLoadOp:     wgpu.LoadOpClear,
		DepthStoreOp:    wgpu.StoreOpStore,
		DepthClearValue: 1.0,
	}
}

func (g *GBuffer) Options() Options {
	return g.opts
}

func (g *GBuffer) Size() common.Size {
	return g.size
}

func (g *GBuffer) Formats() []wgpu.TextureFormat {
	return g.opts.Formats()
}

// Targets returns the color targets in location order.
func (g *GBuffer) Targets() []*resource.Texture {
	return g.targets
}

func (g *GBuffer) Depth() *resource.Texture {
	return g.depth
}

func (g *GBuffer) Layout() *wgpu.BindGroupLayout {
	return g.layout
}

func (g *GBuffer) LayoutDescriptor() wgpu.BindGroupLayoutDescriptor {
	return g.layoutDesc
}

func (g *GBuffer) BindGroup() *wgpu.BindGroup {
	return g.provider.BindGroup()
}

func (g *GBuffer) Release() {
	if g.provider != nil {
		g.provider.Release()
	}
	g.releaseTextures()
	if g.layout != nil {
		g.layout.Release()
		g.layout = nil
	}
}

package resource

import (
	"fmt"
	"sync/atomic"

	"github.com/Carmen-Shannon/oxy-deferred/common"
	"github.com/cogentcore/webgpu/wgpu"
)

// Texture is a reference-counted 2D texture with a default view. The creator
// holds the first reference; every additional holder calls Retain and each
// holder calls Release once. The GPU objects are freed by the last Release.
type Texture struct {
	label  string
	tex    *wgpu.Texture
	view   *wgpu.TextureView
	size   common.Size
	format wgpu.TextureFormat
	usage  wgpu.TextureUsage
	refs   *atomic.Int32
}

// NewColorAttachment creates a render target that can also be sampled, bound as
// a storage image and copied.
//
// Parameters:
//   - dev: the device
//   - label: debug label
//   - size: pixel extent
//   - format: texel format
//
// Returns:
//   - *Texture: the texture holding one reference
//   - error: creation failure
func NewColorAttachment(dev *wgpu.Device, label string, size common.Size, format wgpu.TextureFormat) (*Texture, error) {
	usage := wgpu.TextureUsageRenderAttachment | wgpu.TextureUsageTextureBinding |
		wgpu.TextureUsageStorageBinding | wgpu.TextureUsageCopySrc | wgpu.TextureUsageCopyDst
	return newTexture(dev, label, size, format, usage)
}

// NewDepthTexture creates a Depth32Float attachment that later passes can sample.
func NewDepthTexture(dev *wgpu.Device, label string, size common.Size) (*Texture, error) {
	return newTexture(dev, label, size, wgpu.TextureFormatDepth32Float,
		wgpu.TextureUsageRenderAttachment|wgpu.TextureUsageTextureBinding)
}

// NewStorageTexture creates a texture written by compute passes and read by later ones.
func NewStorageTexture(dev *wgpu.Device, label string, size common.Size, format wgpu.TextureFormat) (*Texture, error) {
	return newTexture(dev, label, size, format,
		wgpu.TextureUsageStorageBinding|wgpu.TextureUsageTextureBinding|wgpu.TextureUsageCopySrc)
}

func newTexture(dev *wgpu.Device, label string, size common.Size, format wgpu.TextureFormat, usage wgpu.TextureUsage) (*Texture, error) {
	if size.Empty() {
		return nil, fmt.Errorf("creating texture %s: empty size %dx%d", label, size.Width, size.Height)
	}
	tex, err := dev.CreateTexture(&wgpu.TextureDescriptor{
		Label:         label,
		Size:          size.Extent3D(),
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        format,
		Usage:         usage,
	})
	if err != nil {
		return nil, fmt.Errorf("creating texture %s: %w", label, err)
	}
	view, err := tex.CreateView(nil)
	if err != nil {
		tex.Release()
		return nil, fmt.Errorf("creating view for %s: %w", label, err)
	}
	return wrapTexture(label, tex, view, size, format, usage), nil
}

func wrapTexture(label string, tex *wgpu.Texture, view *wgpu.TextureView, size common.Size, format wgpu.TextureFormat, usage wgpu.TextureUsage) *Texture {
	t := &Texture{
		label:  label,
		tex:    tex,
		view:   view,
		size:   size,
		format: format,
		usage:  usage,
		refs:   &atomic.Int32{},
	}
	t.refs.Store(1)
	return t
}

// Retain adds a reference and returns the texture for chaining.
func (t *Texture) Retain() *Texture {
	t.refs.Add(1)
	return t
}

// Release drops one reference, freeing the view and texture when none remain.
func (t *Texture) Release() {
	n := t.refs.Add(-1)
	if n > 0 {
		return
	}
	if n < 0 {
		panic(fmt.Sprintf("resource: texture %s released more times than retained", t.label))
	}
	if t.view != nil {
		t.view.Release()
		t.view = nil
	}
	if t.tex != nil {
		t.tex.Release()
		t.tex = nil
	}
}

// Refs returns the current reference count.
func (t *Texture) Refs() int {
	return int(t.refs.Load())
}

func (t *Texture) Label() string {
	return t.label
}

func (t *Texture) Texture() *wgpu.Texture {
	return t.tex
}

func (t *Texture) View() *wgpu.TextureView {
	return t.view
}

func (t *Texture) Size() common.Size {
	return t.size
}

func (t *Texture) Format() wgpu.TextureFormat {
	return t.format
}

func (t *Texture) Usage() wgpu.TextureUsage {
	return t.usage
}

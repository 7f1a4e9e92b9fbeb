package renderer

import (
	"fmt"
	"slices"
	"strings"

	"github.com/Carmen-Shannon/oxy-deferred/common"
	"github.com/Carmen-Shannon/oxy-deferred/engine/logger"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/resource"
	"github.com/cogentcore/webgpu/wgpu"
	"go.uber.org/zap"
)

// PresentMode controls how rendered frames are presented to the display surface.
type PresentMode int

const (
	// PresentModeVSync waits for the next vertical blank before presenting, capping frame rate
	// to the monitor's refresh rate. Eliminates tearing.
	PresentModeVSync PresentMode = iota

	// PresentModeUncapped presents frames immediately without waiting for vertical blank.
	// May cause screen tearing but provides the lowest latency.
	PresentModeUncapped

	// PresentModeMailbox replaces the queued frame with the newest one. No tearing,
	// low latency, but not available everywhere.
	PresentModeMailbox
)

// ParsePresentMode maps the config names fifo, immediate and mailbox.
func ParsePresentMode(name string) (PresentMode, error) {
	switch strings.ToLower(name) {
	case "fifo", "vsync", "":
		return PresentModeVSync, nil
	case "immediate", "uncapped":
		return PresentModeUncapped, nil
	case "mailbox":
		return PresentModeMailbox, nil
	}
	return PresentModeVSync, fmt.Errorf("unknown present mode %q", name)
}

func (m PresentMode) wgpu() wgpu.PresentMode {
	switch m {
	case PresentModeUncapped:
		return wgpu.PresentModeImmediate
	case PresentModeMailbox:
		return wgpu.PresentModeMailbox
	default:
		return wgpu.PresentModeFifo
	}
}

// choosePresentMode falls back to fifo, which every surface supports.
func choosePresentMode(want PresentMode, supported []wgpu.PresentMode) wgpu.PresentMode {
	if slices.Contains(supported, want.wgpu()) {
		return want.wgpu()
	}
	return wgpu.PresentModeFifo
}

// chooseSurfaceFormat prefers a linear 8-bit format so the post-process pass
// controls gamma encoding; sRGB formats are used when nothing else is offered.
func chooseSurfaceFormat(formats []wgpu.TextureFormat) (wgpu.TextureFormat, error) {
	if len(formats) == 0 {
		return wgpu.TextureFormatUndefined, fmt.Errorf("surface reports no formats")
	}
	for _, f := range formats {
		if f == wgpu.TextureFormatBGRA8Unorm || f == wgpu.TextureFormatRGBA8Unorm {
			return f, nil
		}
	}
	return formats[0], nil
}

// surfaceHealth counts consecutive acquisition failures.
type surfaceHealth struct {
	limit    int
	failures int
}

func newSurfaceHealth(limit int) *surfaceHealth {
	return &surfaceHealth{limit: limit}
}

// observe classifies one acquisition result.
func (h *surfaceHealth) observe(err error) error {
	if err == nil {
		h.failures = 0
		return nil
	}
	h.failures++
	if h.failures >= h.limit {
		return fmt.Errorf("%w after %d consecutive failures: %v", ErrSurfaceFatal, h.failures, err)
	}
	return fmt.Errorf("%w (%d/%d): %v", ErrSurfaceTransient, h.failures, h.limit, err)
}

func (d *deviceImpl) ConfigureSurface(width, height int) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if width <= 0 || height <= 0 {
		return fmt.Errorf("configuring surface: invalid size %dx%d", width, height)
	}
	size := common.Size{Width: uint32(width), Height: uint32(height)}

	if d.surface == nil {
		if d.offscreen != nil && d.offscreen.Size() == size {
			return nil
		}
		tex, err := resource.NewColorAttachment(d.device, "Offscreen Target", size, HeadlessFormat)
		if err != nil {
			return err
		}
		if d.offscreen != nil {
			d.offscreen.Release()
		}
		d.offscreen = tex
		d.surfaceSize = size
		return nil
	}

	capabilities := d.surface.GetCapabilities(d.adapter)
	format, err := chooseSurfaceFormat(capabilities.Formats)
	if err != nil {
		return err
	}
	if len(capabilities.AlphaModes) == 0 {
		return fmt.Errorf("surface reports no alpha modes")
	}
	presentMode := choosePresentMode(d.presentMode, capabilities.PresentModes)

	d.surface.Configure(d.adapter, d.device, &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      format,
		Width:       size.Width,
		Height:      size.Height,
		PresentMode: presentMode,
		AlphaMode:   capabilities.AlphaModes[0],
	})
	d.surfaceFormat = format
	d.surfaceSize = size

	logger.Debug("surface configured",
		zap.Int("width", width),
		zap.Int("height", height),
		zap.Uint32("format", uint32(format)),
		zap.Uint32("present_mode", uint32(presentMode)),
	)
	return nil
}

func (d *deviceImpl) AcquireFrame() (*Frame, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.surface == nil {
		if d.offscreen == nil {
			return nil, fmt.Errorf("acquiring frame: offscreen target not configured")
		}
		return &Frame{View: d.offscreen.View(), Size: d.surfaceSize, Target: d.offscreen}, nil
	}

	tex, err := d.surface.GetCurrentTexture()
	if err = d.health.observe(err); err != nil {
		return nil, err
	}
	view, err := tex.CreateView(nil)
	if err != nil {
		tex.Release()
		return nil, fmt.Errorf("creating swap-chain view: %w", err)
	}
	return &Frame{View: view, Size: d.surfaceSize, texture: tex}, nil
}

func (d *deviceImpl) Present(frame *Frame) {
	if frame == nil || frame.texture == nil {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	d.surface.Present()
	frame.View.Release()
	frame.texture.Release()
	frame.View = nil
	frame.texture = nil
}

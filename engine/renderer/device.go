// Package renderer owns the WebGPU instance, adapter, device and surface, and the
// per-frame acquire, submit and present cycle around the deferred pipeline.
package renderer

import (
	"errors"
	"fmt"
	"runtime"
	"sync"

	"github.com/Carmen-Shannon/oxy-deferred/common"
	"github.com/Carmen-Shannon/oxy-deferred/engine/logger"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/resource"
	"github.com/cogentcore/webgpu/wgpu"
	"go.uber.org/zap"
)

var (
	// ErrSurfaceTransient means the swap chain could not hand out a texture this
	// frame. The host reconfigures the surface and tries again next frame.
	ErrSurfaceTransient = errors.New("renderer: surface texture unavailable")

	// ErrSurfaceFatal means acquisition kept failing and the surface is considered lost.
	ErrSurfaceFatal = errors.New("renderer: surface lost")

	// ErrNoAdapter means no adapter satisfied the request.
	ErrNoAdapter = errors.New("renderer: no suitable adapter")
)

const (
	// MaxTransientFailures is how many consecutive acquisition failures are
	// tolerated before AcquireFrame returns ErrSurfaceFatal.
	MaxTransientFailures = 8

	// RequiredBindGroups covers the SSGI pass, which binds groups 0 through 6.
	RequiredBindGroups = 8

	// RequiredStorageTextures covers the G-buffer targets and the color output in one compute stage.
	RequiredStorageTextures = 8

	// HeadlessFormat is the format of the offscreen target a headless device renders to.
	HeadlessFormat = wgpu.TextureFormatRGBA8Unorm
)

type deviceImpl struct {
	mu *sync.Mutex

	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue
	surface  *wgpu.Surface

	label                string
	forceFallbackAdapter bool
	presentMode          PresentMode

	surfaceFormat wgpu.TextureFormat
	surfaceSize   common.Size
	health        *surfaceHealth

	// offscreen is the render target of a headless device.
	offscreen *resource.Texture
}

// Device is the GPU boundary of the engine: device and queue access, surface
// configuration, frame acquisition, submission and blocking readback.
type Device interface {
	// Device returns the logical device.
	Device() *wgpu.Device

	// Queue returns the device queue.
	Queue() *wgpu.Queue

	// Adapter returns the adapter the device was created on.
	Adapter() *wgpu.Adapter

	// Surface returns the window surface, or nil when headless.
	Surface() *wgpu.Surface

	// Headless reports whether the device renders to an offscreen target.
	Headless() bool

	// SurfaceFormat returns the configured swap-chain format.
	SurfaceFormat() wgpu.TextureFormat

	// SurfaceSize returns the configured swap-chain size.
	SurfaceSize() common.Size

	// ConfigureSurface (re)configures the swap chain, or reallocates the offscreen
	// target of a headless device. It must be called on window resize and after
	// ErrSurfaceTransient.
	//
	// Parameters:
	//   - width: the new width in pixels
	//   - height: the new height in pixels
	//
	// Returns:
	//   - error: an empty size or an allocation failure
	ConfigureSurface(width, height int) error

	// AcquireFrame gets the next swap-chain texture.
	//
	// Returns:
	//   - *Frame: the frame target; release it through Present
	//   - error: ErrSurfaceTransient for a recoverable failure, ErrSurfaceFatal after
	//     MaxTransientFailures consecutive failures
	AcquireFrame() (*Frame, error)

	// CreateEncoder starts a command encoder for one frame.
	CreateEncoder(label string) (*wgpu.CommandEncoder, error)

	// Submit finishes the encoder and submits its command buffer. The encoder is released.
	//
	// Parameters:
	//   - encoder: the frame encoder
	//
	// Returns:
	//   - error: a finish failure
	Submit(encoder *wgpu.CommandEncoder) error

	// Present shows the frame and releases it.
	Present(frame *Frame)

	// ReadTexture copies a 2D texture back to the CPU and blocks until it is mapped.
	//
	// Parameters:
	//   - tex: a texture with CopySrc usage
	//
	// Returns:
	//   - []byte: tightly packed rows, top row first
	//   - error: an unsupported format, or a copy or map failure
	ReadTexture(tex *resource.Texture) ([]byte, error)

	// Release frees the device and everything it created.
	Release()
}

var _ Device = &deviceImpl{}

// Frame is one acquired render target.
type Frame struct {
	// View is what the post-process pass writes.
	View *wgpu.TextureView
	// Size is the target size.
	Size common.Size
	// Target is the offscreen texture of a headless device, nil otherwise.
	Target *resource.Texture

	texture *wgpu.Texture
}

// NewDevice creates a device that presents to a window surface.
//
// Parameters:
//   - surfaceDescriptor: the platform surface, usually from Window.SurfaceDescriptor
//   - options: functional options
//
// Returns:
//   - Device: the device, with the surface not yet configured
//   - error: ErrNoAdapter or a device request failure
func NewDevice(surfaceDescriptor *wgpu.SurfaceDescriptor, options ...DeviceBuilderOption) (Device, error) {
	runtime.LockOSThread()
	d := newDevice(options...)
	d.surface = d.instance.CreateSurface(surfaceDescriptor)
	if err := d.init(); err != nil {
		d.Release()
		return nil, err
	}
	return d, nil
}

// NewHeadlessDevice creates a device without a surface. Frames render to an
// offscreen HeadlessFormat texture that can be read back.
//
// Parameters:
//   - options: functional options
//
// Returns:
//   - Device: the device
//   - error: ErrNoAdapter or a device request failure
func NewHeadlessDevice(options ...DeviceBuilderOption) (Device, error) {
	d := newDevice(options...)
	d.surfaceFormat = HeadlessFormat
	if err := d.init(); err != nil {
		d.Release()
		return nil, err
	}
	return d, nil
}

func newDevice(options ...DeviceBuilderOption) *deviceImpl {
	d := &deviceImpl{
		mu:          &sync.Mutex{},
		label:       "Main Device",
		presentMode: PresentModeVSync,
		health:      newSurfaceHealth(MaxTransientFailures),
	}
	for _, opt := range options {
		opt(d)
	}
	d.instance = wgpu.CreateInstance(nil)
	return d
}

func (d *deviceImpl) init() error {
	a, err := d.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		ForceFallbackAdapter: d.forceFallbackAdapter,
		CompatibleSurface:    d.surface,
		PowerPreference:      wgpu.PowerPreferenceHighPerformance,
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNoAdapter, err)
	}
	if a == nil {
		return ErrNoAdapter
	}
	d.adapter = a

	// Start from the WebGPU default limits and raise what the lighting passes need,
	// capped by what the adapter supports.
	supported := a.GetLimits().Limits
	limits := wgpu.DefaultLimits()
	limits.MaxBindGroups = min(RequiredBindGroups, supported.MaxBindGroups)
	limits.MaxStorageTexturesPerShaderStage = min(RequiredStorageTextures, supported.MaxStorageTexturesPerShaderStage)

	dev, err := a.RequestDevice(&wgpu.DeviceDescriptor{
		Label: d.label,
		RequiredLimits: &wgpu.RequiredLimits{
			Limits: limits,
		},
	})
	if err != nil {
		return fmt.Errorf("requesting device: %w", err)
	}
	d.device = dev
	d.queue = dev.GetQueue()

	logger.Info("device created",
		zap.String("label", d.label),
		zap.Bool("headless", d.surface == nil),
		zap.Uint32("max_bind_groups", limits.MaxBindGroups),
		zap.Uint32("max_storage_textures", limits.MaxStorageTexturesPerShaderStage),
	)
	return nil
}

func (d *deviceImpl) Device() *wgpu.Device {
	return d.device
}

func (d *deviceImpl) Queue() *wgpu.Queue {
	return d.queue
}

func (d *deviceImpl) Adapter() *wgpu.Adapter {
	return d.adapter
}

func (d *deviceImpl) Surface() *wgpu.Surface {
	return d.surface
}

func (d *deviceImpl) Headless() bool {
	return d.surface == nil
}

func (d *deviceImpl) SurfaceFormat() wgpu.TextureFormat {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.surfaceFormat
}

func (d *deviceImpl) SurfaceSize() common.Size {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.surfaceSize
}

func (d *deviceImpl) CreateEncoder(label string) (*wgpu.CommandEncoder, error) {
	return d.device.CreateCommandEncoder(&wgpu.CommandEncoderDescriptor{Label: label})
}

func (d *deviceImpl) Submit(encoder *wgpu.CommandEncoder) error {
	defer encoder.Release()
	cmd, err := encoder.Finish(nil)
	if err != nil {
		return fmt.Errorf("finishing frame encoder: %w", err)
	}
	defer cmd.Release()
	d.queue.Submit(cmd)
	return nil
}

func (d *deviceImpl) Release() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.offscreen != nil {
		d.offscreen.Release()
		d.offscreen = nil
	}
	if d.surface != nil {
		d.surface.Release()
		d.surface = nil
	}
	if d.queue != nil {
		d.queue.Release()
		d.queue = nil
	}
	if d.device != nil {
		d.device.Release()
		d.device = nil
	}
	if d.adapter != nil {
		d.adapter.Release()
		d.adapter = nil
	}
	if d.instance != nil {
		d.instance.Release()
		d.instance = nil
	}
}

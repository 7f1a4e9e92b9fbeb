// Package deferred orchestrates the fixed multi-pass frame: shadow cube, G-buffer,
// depth quad-tree, lighting and post-process, recorded into one command encoder.
package deferred

import (
	"errors"
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-deferred/common"
	"github.com/Carmen-Shannon/oxy-deferred/engine/logger"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/gbuffer"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/resource"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/zquad"
	"github.com/cogentcore/webgpu/wgpu"
	"go.uber.org/zap"
)

// Pipeline records deferred-shading frames and owns every resource the stages share.
//
// Record and Resize must be called from the render thread. RequestResize may be
// called from any goroutine; the request is applied at the start of the next Record.
type Pipeline struct {
	mu      *sync.Mutex
	pending *common.Size

	state    State
	size     common.Size
	lighting LightingMode
	frames   uint64

	factory stageFactory
	stages  []Stage

	// gpu is nil when the pipeline runs on a test factory.
	gpu *gpuFactory
}

// New creates a GPU-backed pipeline and allocates every resource for size.
//
// Parameters:
//   - dev: the device
//   - size: the initial output resolution
//   - surfaceFormat: the swap-chain format the post-process pass writes
//   - options: functional options
//
// Returns:
//   - *Pipeline: the pipeline in StateReady
//   - error: a shader or resource creation failure
func New(dev *wgpu.Device, size common.Size, surfaceFormat wgpu.TextureFormat, options ...PipelineOption) (*Pipeline, error) {
	opts := defaultOptions()
	for _, opt := range options {
		opt(&opts)
	}

	f, err := newGPUFactory(dev, surfaceFormat, opts)
	if err != nil {
		return nil, err
	}
	p, err := newPipeline(f, size, opts.lighting)
	if err != nil {
		f.release()
		return nil, err
	}
	p.gpu = f
	return p, nil
}

func newPipeline(factory stageFactory, size common.Size, lighting LightingMode) (*Pipeline, error) {
	p := &Pipeline{
		mu:       &sync.Mutex{},
		state:    StateUninitialized,
		lighting: lighting,
		factory:  factory,
	}
	if err := p.Resize(size); err != nil {
		return nil, err
	}
	return p, nil
}

// RequestResize queues a resize for the next Record. Later requests replace earlier
// ones. Empty sizes, as reported for minimized windows, are ignored.
//
// Parameters:
//   - size: the new output resolution
func (p *Pipeline) RequestResize(size common.Size) {
	if size.Empty() {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pending = &size
}

// ApplyPendingResize applies a queued resize, if any.
//
// Returns:
//   - bool: whether a resize was pending
//   - error: the resize failure
func (p *Pipeline) ApplyPendingResize() (bool, error) {
	p.mu.Lock()
	pending := p.pending
	p.pending = nil
	p.mu.Unlock()

	if pending == nil {
		return false, nil
	}
	return true, p.Resize(*pending)
}

// Resize tears down and rebuilds every resolution-bound resource. Resizing to the
// current size while ready does nothing.
//
// Parameters:
//   - size: the new output resolution
//
// Returns:
//   - error: ErrInvalidSize, ErrNotReady while recording, or the rebuild failure,
//     after which the pipeline stays uninitialized until a later Resize succeeds
func (p *Pipeline) Resize(size common.Size) error {
	if size.Empty() {
		return fmt.Errorf("%w: got %dx%d", ErrInvalidSize, size.Width, size.Height)
	}
	if p.state == StateRecording {
		return fmt.Errorf("%w: resize while recording", ErrNotReady)
	}
	if p.state == StateReady && size == p.size {
		return nil
	}

	p.state = StateUninitialized
	p.stages = nil
	p.factory.teardown()

	stages, err := p.factory.build(size)
	if err != nil {
		p.factory.teardown()
		return fmt.Errorf("building %dx%d frame resources: %w", size.Width, size.Height, err)
	}
	p.stages = stages
	p.size = size
	p.state = StateReady
	logger.Debug("deferred pipeline ready",
		zap.Uint32("width", size.Width),
		zap.Uint32("height", size.Height),
		zap.Int("stages", len(stages)))
	return nil
}

// Record encodes one frame. Any queued resize is applied first.
//
// Parameters:
//   - params: camera, light, meshes and debug view for the frame
//   - target: the swap-chain view to composite into
//   - encoder: the frame encoder; the caller finishes and submits it
//
// Returns:
//   - error: ErrNotReady, a resize failure, or the first stage error wrapped with its label
func (p *Pipeline) Record(params FrameParams, target *wgpu.TextureView, encoder *wgpu.CommandEncoder) error {
	if _, err := p.ApplyPendingResize(); err != nil {
		return err
	}
	if p.state != StateReady {
		return fmt.Errorf("%w: state is %s", ErrNotReady, p.state)
	}
	if params.Camera == nil || params.Light == nil {
		return errors.New("deferred: frame needs a camera and a light")
	}

	p.state = StateRecording
	defer func() {
		p.state = StateReady
	}()

	f := &Frame{
		FrameParams: params,
		Target:      target,
		Size:        p.size,
		Lighting:    p.lighting,
		Index:       p.frames,
	}
	for _, s := range p.stages {
		if err := s.Record(f, encoder); err != nil {
			return fmt.Errorf("%s stage: %w", s.Label(), err)
		}
	}
	p.frames++
	return nil
}

// SetLightingMode switches the lighting stage from the next frame on.
func (p *Pipeline) SetLightingMode(mode LightingMode) {
	p.lighting = mode
}

// LightingMode returns the lighting mode in effect.
func (p *Pipeline) LightingMode() LightingMode {
	return p.lighting
}

// SetSurfaceFormat rebuilds the passes that write the swap chain when its format changed.
//
// Parameters:
//   - format: the newly configured surface format
//
// Returns:
//   - error: a pipeline rebuild failure
func (p *Pipeline) SetSurfaceFormat(format wgpu.TextureFormat) error {
	if p.gpu == nil {
		return nil
	}
	return p.gpu.setSurfaceFormat(format)
}

// State returns the lifecycle state.
func (p *Pipeline) State() State {
	return p.state
}

// Size returns the resolution the resources are allocated for.
func (p *Pipeline) Size() common.Size {
	return p.size
}

// Frames returns how many frames were recorded successfully.
func (p *Pipeline) Frames() uint64 {
	return p.frames
}

// Stages returns the stage labels in recording order.
func (p *Pipeline) Stages() []string {
	labels := make([]string, len(p.stages))
	for i, s := range p.stages {
		labels[i] = s.Label()
	}
	return labels
}

// ColorBuffer returns the HDR color buffer the lighting stage writes. Callers that
// keep it across a resize must Retain it.
func (p *Pipeline) ColorBuffer() *resource.Texture {
	if p.gpu == nil {
		return nil
	}
	return p.gpu.color
}

// GBuffer returns the G-buffer.
func (p *Pipeline) GBuffer() *gbuffer.GBuffer {
	if p.gpu == nil {
		return nil
	}
	return p.gpu.gb
}

// QuadTree returns the depth quad-tree.
func (p *Pipeline) QuadTree() *zquad.QuadTree {
	if p.gpu == nil {
		return nil
	}
	return p.gpu.zq
}

// MaterialLayout returns the bind-group layout meshes build their material groups with.
func (p *Pipeline) MaterialLayout() *wgpu.BindGroupLayout {
	if p.gpu == nil {
		return nil
	}
	return p.gpu.materialLayout
}

// ShaderCache returns the module cache the passes compiled against.
func (p *Pipeline) ShaderCache() *shader.Cache[*wgpu.ShaderModule] {
	if p.gpu == nil {
		return nil
	}
	return p.gpu.cache
}

// Release frees every resource, including the shader cache.
func (p *Pipeline) Release() {
	p.stages = nil
	p.factory.release()
	p.state = StateUninitialized
}

// Package engine drives the per-frame loop: window events, the resize barrier,
// frame acquisition, deferred recording, submission and presentation.
package engine

import (
	"errors"
	"fmt"
	"image"
	"sync"
	"time"

	"github.com/Carmen-Shannon/oxy-deferred/common"
	"github.com/Carmen-Shannon/oxy-deferred/engine/camera"
	"github.com/Carmen-Shannon/oxy-deferred/engine/logger"
	"github.com/Carmen-Shannon/oxy-deferred/engine/profiler"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/deferred"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/pass"
	"github.com/Carmen-Shannon/oxy-deferred/engine/scene"
	"github.com/Carmen-Shannon/oxy-deferred/engine/window"

	"github.com/cogentcore/webgpu/wgpu"
	"go.uber.org/zap"
)

// defaultLightStep is how far one arrow key press moves the light, in world units.
const defaultLightStep = 0.25

// engine implements the Engine interface.
// Everything except Resize and Quit runs on the thread that owns the window.
type engine struct {
	mu sync.Mutex

	// pendingSurface is the latest size queued by Resize, applied by the next frame.
	pendingSurface *common.Size
	minimized      bool

	quitChannel chan struct{}
	quitOnce    sync.Once

	window     window.Window
	device     renderer.Device
	pipeline   *deferred.Pipeline
	scene      scene.Scene
	controller *camera.OrbitController

	profiler         *profiler.Profiler
	profilingEnabled bool

	view          pass.DebugView
	lightStep     float32
	surfaceFormat wgpu.TextureFormat

	renderCallback   func(deltaTime float32)
	renderFrameLimit time.Duration // minimum frame duration; 0 = uncapped

	frames  uint64
	skipped uint64
	err     error
}

// Engine is the main entry point for the renderer.
// It owns the frame loop and routes window input to the camera, the light and the pipeline.
type Engine interface {
	// Window returns the underlying window, nil when headless.
	Window() window.Window

	// Device returns the GPU device the engine renders with.
	Device() renderer.Device

	// Pipeline returns the deferred pipeline that records each frame.
	Pipeline() *deferred.Pipeline

	// Scene returns the scene drawn each frame.
	Scene() scene.Scene

	// Controller returns the orbit controller driving the camera.
	Controller() *camera.OrbitController

	// EnableProfiler enables performance profiling output to the log.
	EnableProfiler()

	// DisableProfiler disables performance profiling output.
	DisableProfiler()

	// SetRenderCallback registers the function called before each frame is recorded.
	// Use this to animate the camera or the light.
	//
	// Parameters:
	//   - callback: function receiving the delta time in seconds
	SetRenderCallback(callback func(deltaTime float32))

	// SetRenderFrameLimit sets an optional render frame rate cap in frames per second.
	// Pass 0 to uncap the render loop (default).
	//
	// Parameters:
	//   - fps: maximum render frames per second (0 = uncapped)
	SetRenderFrameLimit(fps float64)

	// SetDebugView selects what the post-process pass shows.
	SetDebugView(view pass.DebugView)

	// DebugView returns the current post-process view.
	DebugView() pass.DebugView

	// HandleKey applies the key binding for keyCode. The window's key-down callback calls this.
	//
	// Parameters:
	//   - keyCode: the virtual key code
	HandleKey(keyCode uint32)

	// Resize queues a new surface size. It is safe to call from any goroutine; the
	// surface, camera and pipeline are updated at the start of the next frame.
	// A zero size marks the window as minimized and frames are skipped until the next resize.
	//
	// Parameters:
	//   - width, height: the new client area in pixels
	Resize(width, height int)

	// RenderFrame renders and presents one frame.
	//
	// Returns:
	//   - bool: false when the frame was skipped (minimized or a transient surface error)
	//   - error: a fatal surface, recording or submission failure
	RenderFrame() (bool, error)

	// Capture renders one frame on a headless device and reads it back.
	//
	// Returns:
	//   - *image.RGBA: the frame, top row first
	//   - error: a windowed device, a skipped frame, or a render or readback failure
	Capture() (*image.RGBA, error)

	// Frames returns how many frames were presented.
	Frames() uint64

	// SkippedFrames returns how many frames were skipped after transient surface errors.
	SkippedFrames() uint64

	// Run renders frames from the window message loop until the window closes,
	// Quit is called or a frame fails. Requires a window.
	//
	// Returns:
	//   - error: the failure that ended the loop, nil on a normal close
	Run() error

	// Quit stops Run after the current frame.
	// Safe to call multiple times; subsequent calls are no-ops.
	Quit()
}

var _ Engine = &engine{}

// NewEngine creates a new Engine. WithDevice, WithPipeline, WithScene and WithController
// are required; WithWindow is required only for Run.
//
// Parameters:
//   - options: functional options for engine configuration
//
// Returns:
//   - Engine: the newly created engine
//   - error: a missing required component
func NewEngine(options ...EngineBuilderOption) (Engine, error) {
	e := &engine{
		quitChannel: make(chan struct{}),
		profiler:    profiler.NewProfiler(),
		lightStep:   defaultLightStep,
		view:        pass.ViewFinal,
	}
	for _, opt := range options {
		opt(e)
	}

	switch {
	case e.device == nil:
		return nil, errors.New("engine: a device is required")
	case e.pipeline == nil:
		return nil, errors.New("engine: a pipeline is required")
	case e.scene == nil:
		return nil, errors.New("engine: a scene is required")
	case e.controller == nil:
		return nil, errors.New("engine: a camera controller is required")
	}
	e.surfaceFormat = e.device.SurfaceFormat()

	if e.window != nil {
		e.bindWindow()
	}
	return e, nil
}

// bindWindow routes window input to the engine. Callbacks fire from inside
// ProcessMessages on the render thread, so none of them touch the GPU.
func (e *engine) bindWindow() {
	e.window.SetResizeCallback(e.Resize)
	e.window.SetKeyDownCallback(e.HandleKey)
	e.window.SetScrollCallback(func(delta float32) {
		e.controller.Zoom(float64(delta))
	})
	e.window.SetDragStartCallback(func(x, y float64) {
		e.controller.SetDragging(true)
		e.controller.CursorMoved(x, y)
	})
	e.window.SetDragEndCallback(func(_, _ float64) {
		e.controller.SetDragging(false)
	})
	e.window.SetMouseMoveCallback(e.controller.CursorMoved)
}

func (e *engine) Window() window.Window {
	return e.window
}

func (e *engine) Device() renderer.Device {
	return e.device
}

func (e *engine) Pipeline() *deferred.Pipeline {
	return e.pipeline
}

func (e *engine) Scene() scene.Scene {
	return e.scene
}

func (e *engine) Controller() *camera.OrbitController {
	return e.controller
}

// EnableProfiler enables performance profiling output to the log.
func (e *engine) EnableProfiler() {
	e.profilingEnabled = true
}

// DisableProfiler disables performance profiling output.
func (e *engine) DisableProfiler() {
	e.profilingEnabled = false
}

func (e *engine) SetRenderCallback(callback func(deltaTime float32)) {
	e.renderCallback = callback
}

// SetRenderFrameLimit sets an optional render frame rate cap.
// Pass 0 to uncap the render loop.
func (e *engine) SetRenderFrameLimit(fps float64) {
	if fps <= 0 {
		e.renderFrameLimit = 0
		return
	}
	e.renderFrameLimit = time.Duration(float64(time.Second) / fps)
}

func (e *engine) SetDebugView(view pass.DebugView) {
	if view == e.view {
		return
	}
	e.view = view
	logger.Info("debug view changed", zap.Stringer("view", view))
}

func (e *engine) DebugView() pass.DebugView {
	return e.view
}

func (e *engine) HandleKey(keyCode uint32) {
	b := bindKey(keyCode)
	switch b.action {
	case actionDebugView:
		e.SetDebugView(b.view)
	case actionToggleLighting:
		mode := e.pipeline.LightingMode().Toggle()
		e.pipeline.SetLightingMode(mode)
		logger.Info("lighting mode changed", zap.Stringer("mode", mode))
	case actionMoveLight:
		s := e.lightStep
		l := e.scene.Light()
		l.Move(b.dir[0]*s, b.dir[1]*s, b.dir[2]*s)
		p := l.Position()
		logger.Debug("light moved", zap.Float32("x", p[0]), zap.Float32("y", p[1]), zap.Float32("z", p[2]))
	case actionQuit:
		e.Quit()
	}
}

func (e *engine) Resize(width, height int) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if width <= 0 || height <= 0 {
		e.minimized = true
		return
	}
	size := common.Size{Width: uint32(width), Height: uint32(height)}
	e.minimized = false
	e.pendingSurface = &size
	e.pipeline.RequestResize(size)
}

// applyResize is the resize barrier: the surface, camera aspect and pipeline
// resources all switch to the queued size before anything is recorded.
//
// Returns:
//   - bool: true when the window is minimized and the frame must be skipped
//   - error: a surface or pipeline reallocation failure
func (e *engine) applyResize() (bool, error) {
	e.mu.Lock()
	pending, minimized := e.pendingSurface, e.minimized
	e.pendingSurface = nil
	e.mu.Unlock()

	if minimized {
		return true, nil
	}
	if pending != nil {
		if err := e.device.ConfigureSurface(int(pending.Width), int(pending.Height)); err != nil {
			return false, fmt.Errorf("configuring surface: %w", err)
		}
		if err := e.controller.Camera().SetAspect(pending.Aspect()); err != nil {
			return false, err
		}
		if format := e.device.SurfaceFormat(); format != e.surfaceFormat {
			if err := e.pipeline.SetSurfaceFormat(format); err != nil {
				return false, err
			}
			e.surfaceFormat = format
		}
	}
	if _, err := e.pipeline.ApplyPendingResize(); err != nil {
		return false, err
	}
	return false, nil
}

func (e *engine) RenderFrame() (bool, error) {
	skip, err := e.applyResize()
	if err != nil || skip {
		return false, err
	}

	frame, err := e.device.AcquireFrame()
	if errors.Is(err, renderer.ErrSurfaceTransient) {
		e.skipped++
		logger.Warn("skipping frame", zap.Error(err))
		size := e.device.SurfaceSize()
		if cerr := e.device.ConfigureSurface(int(size.Width), int(size.Height)); cerr != nil {
			return false, fmt.Errorf("reconfiguring surface: %w", cerr)
		}
		return false, nil
	}
	if err != nil {
		return false, err
	}

	encoder, err := e.device.CreateEncoder("Frame Encoder")
	if err != nil {
		e.device.Present(frame)
		return false, err
	}

	params := deferred.FrameParams{
		Camera: e.controller.Camera(),
		Light:  e.scene.Light(),
		Meshes: e.scene.DrawList(),
		View:   e.view,
	}
	if err := e.pipeline.Record(params, frame.View, encoder); err != nil {
		encoder.Release()
		e.device.Present(frame)
		return false, err
	}
	if err := e.device.Submit(encoder); err != nil {
		e.device.Present(frame)
		return false, err
	}
	e.device.Present(frame)
	e.frames++

	if e.profilingEnabled && e.profiler != nil {
		e.profiler.Tick(zap.Stringer("lighting", e.pipeline.LightingMode()), zap.Uint64("skipped", e.skipped))
	}
	return true, nil
}

func (e *engine) Frames() uint64 {
	return e.frames
}

func (e *engine) SkippedFrames() uint64 {
	return e.skipped
}

func (e *engine) Run() error {
	if e.window == nil {
		return errors.New("engine: Run requires a window")
	}

	lastRender := time.Now()
	e.window.SetUpdateCallback(func() {
		select {
		case <-e.quitChannel:
			e.window.RequestClose()
			return
		default:
		}

		now := time.Now()
		dt := float32(now.Sub(lastRender).Seconds())
		lastRender = now

		if e.renderCallback != nil {
			e.renderCallback(dt)
		}
		if _, err := e.RenderFrame(); err != nil {
			logger.Error("frame failed", zap.Error(err))
			e.err = err
			e.window.RequestClose()
			return
		}

		// Frame rate limiting
		if e.renderFrameLimit > 0 {
			if remaining := e.renderFrameLimit - time.Since(now); remaining > 0 {
				time.Sleep(remaining)
			}
		}
	})

	logger.Info("engine running",
		zap.Int("width", e.window.Width()),
		zap.Int("height", e.window.Height()),
		zap.Stringer("lighting", e.pipeline.LightingMode()),
	)
	e.window.ProcessMessages()
	e.window.SetUpdateCallback(nil)

	logger.Info("engine stopped", zap.Uint64("frames", e.frames), zap.Uint64("skipped", e.skipped))
	return e.err
}

// Quit signals the loop to stop.
// Uses sync.Once to ensure the channel is only closed once.
func (e *engine) Quit() {
	e.quitOnce.Do(func() {
		close(e.quitChannel)
	})
}

package engine

import (
	"time"

	"github.com/Carmen-Shannon/oxy-deferred/engine/camera"
	"github.com/Carmen-Shannon/oxy-deferred/engine/profiler"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/deferred"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/pass"
	"github.com/Carmen-Shannon/oxy-deferred/engine/scene"
	"github.com/Carmen-Shannon/oxy-deferred/engine/window"
)

// EngineBuilderOption is a functional option for configuring an Engine.
// Use the With* functions to create options that are applied directly to the engine instance.
type EngineBuilderOption func(*engine)

// WithProfiling enables or disables performance profiling output.
//
// Parameters:
//   - enabled: if true, enables performance profiling
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithProfiling(enabled bool) EngineBuilderOption {
	return func(e *engine) {
		e.profilingEnabled = enabled
	}
}

// WithProfiler replaces the default profiler, for a custom reporting interval.
func WithProfiler(p *profiler.Profiler) EngineBuilderOption {
	return func(e *engine) {
		e.profiler = p
	}
}

// WithWindow sets the window the engine polls and presents to. Leave it unset
// for headless rendering.
//
// Parameters:
//   - w: a pre-configured Window instance
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithWindow(w window.Window) EngineBuilderOption {
	return func(e *engine) {
		e.window = w
	}
}

// WithDevice sets the GPU device. Required.
func WithDevice(d renderer.Device) EngineBuilderOption {
	return func(e *engine) {
		e.device = d
	}
}

// WithPipeline sets the deferred pipeline that records each frame. Required.
func WithPipeline(p *deferred.Pipeline) EngineBuilderOption {
	return func(e *engine) {
		e.pipeline = p
	}
}

// WithScene sets the scene drawn each frame. Required.
//
// Parameters:
//   - s: the uploaded scene
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithScene(s scene.Scene) EngineBuilderOption {
	return func(e *engine) {
		e.scene = s
	}
}

// WithController sets the orbit controller, and through it the camera. Required.
func WithController(c *camera.OrbitController) EngineBuilderOption {
	return func(e *engine) {
		e.controller = c
	}
}

// WithDebugView sets the initial post-process view.
func WithDebugView(view pass.DebugView) EngineBuilderOption {
	return func(e *engine) {
		e.view = view
	}
}

// WithLightStep sets how far one light key press moves the light. Values <= 0 are ignored.
func WithLightStep(step float32) EngineBuilderOption {
	return func(e *engine) {
		if step > 0 {
			e.lightStep = step
		}
	}
}

// WithRenderFrameLimit sets an optional render frame rate cap in frames per second.
// Pass 0 to uncap the render loop (default).
//
// Parameters:
//   - fps: maximum render frames per second (0 = uncapped)
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithRenderFrameLimit(fps float64) EngineBuilderOption {
	return func(e *engine) {
		if fps <= 0 {
			e.renderFrameLimit = 0
			return
		}
		e.renderFrameLimit = time.Duration(float64(time.Second) / fps)
	}
}

package deferred

import (
	"github.com/Carmen-Shannon/oxy-deferred/engine/light"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/gbuffer"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/pass"
)

// PipelineOption configures a GPU-backed Pipeline.
type PipelineOption func(*options)

type options struct {
	gbuffer          gbuffer.Options
	zquadLevels      int
	shadowResolution uint32
	seed             uint64
	validate         bool
	lighting         LightingMode
}

func defaultOptions() options {
	return options{
		zquadLevels:      5,
		shadowResolution: light.DefaultShadowResolution,
		seed:             pass.DefaultSeed,
		validate:         true,
		lighting:         LightingIndirect,
	}
}

// WithGBufferOptions selects the G-buffer variant.
//
// Parameters:
//   - opts: the G-buffer options
//
// Returns:
//   - PipelineOption: the option
func WithGBufferOptions(opts gbuffer.Options) PipelineOption {
	return func(o *options) {
		o.gbuffer = opts
	}
}

// WithZQuadLevels sets the quad-tree depth. Values <= 0 build every level down to 1x1.
func WithZQuadLevels(levels int) PipelineOption {
	return func(o *options) {
		o.zquadLevels = levels
	}
}

// WithShadowResolution sets the shadow cube face size.
func WithShadowResolution(resolution uint32) PipelineOption {
	return func(o *options) {
		if resolution > 0 {
			o.shadowResolution = resolution
		}
	}
}

// WithSeed sets the seed the SSGI seed buffer is generated from.
func WithSeed(seed uint64) PipelineOption {
	return func(o *options) {
		o.seed = seed
	}
}

// WithShaderValidation toggles WGSL syntax validation before device compilation.
func WithShaderValidation(enabled bool) PipelineOption {
	return func(o *options) {
		o.validate = enabled
	}
}

// WithLightingMode sets the initial lighting mode.
func WithLightingMode(mode LightingMode) PipelineOption {
	return func(o *options) {
		o.lighting = mode
	}
}

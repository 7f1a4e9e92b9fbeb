package gbuffer

import (
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

// Variant selects the set of G-buffer targets.
type Variant int

const (
	// Standard holds albedo+metallic, normal+roughness and position+view depth.
	Standard Variant = iota

	// WithAOV adds a fourth target carrying the per-face normal and the mesh id.
	WithAOV
)

func (v Variant) String() string {
	switch v {
	case WithAOV:
		return "aov"
	default:
		return "standard"
	}
}

// TargetFormat is the format of every color target.
const TargetFormat = wgpu.TextureFormatRGBA32Float

// DepthFormat is the format of the depth attachment.
const DepthFormat = wgpu.TextureFormatDepth32Float

// Target names in location order.
var targetNames = []string{"Albedo", "Normal", "Position", "AOV"}

// Options configures a G-buffer.
type Options struct {
	Variant Variant
}

// TargetCount returns the number of color targets.
func (o Options) TargetCount() int {
	if o.Variant == WithAOV {
		return 4
	}
	return 3
}

// Formats returns the color target formats in location order.
func (o Options) Formats() []wgpu.TextureFormat {
	formats := make([]wgpu.TextureFormat, o.TargetCount())
	for i := range formats {
		formats[i] = TargetFormat
	}
	return formats
}

// Defines returns the preprocessor defines that compile the geometry shader for this variant.
func (o Options) Defines() []shader.Define {
	if o.Variant == WithAOV {
		return []shader.Define{{Name: "GBUFFER_AOV"}}
	}
	return nil
}

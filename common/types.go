// package common contains common types that are used throughout this engine. They are not interface-wrapped structs, just plain structs that express
// commonly used data-types.
package common

import (
	"github.com/cogentcore/webgpu/wgpu"
)

// Size is a two-dimensional pixel extent.
type Size struct {
	Width  uint32
	Height uint32
}

// Extent3D converts the size into a single-layer wgpu.Extent3D.
//
// Returns:
//   - wgpu.Extent3D: the extent with DepthOrArrayLayers set to 1
func (s Size) Extent3D() wgpu.Extent3D {
	return wgpu.Extent3D{Width: s.Width, Height: s.Height, DepthOrArrayLayers: 1}
}

// Empty reports whether either dimension is zero, as happens for minimized windows.
func (s Size) Empty() bool {
	return s.Width == 0 || s.Height == 0
}

// Aspect returns width / height, or 1 for an empty size.
func (s Size) Aspect() float32 {
	if s.Empty() {
		return 1
	}
	return float32(s.Width) / float32(s.Height)
}

// SamplerStagingData holds the configuration for a sampler pending GPU creation.
// Zero-valued fields fall back to clamp-to-edge addressing and nearest filtering when the sampler is built.
type SamplerStagingData struct {
	// Label is the debug label assigned to the GPU sampler.
	Label string
	// AddressModeU, AddressModeV, AddressModeW specify the addressing mode for texture coordinates outside the [0, 1] range in each dimension (U, V, W).
	AddressModeU, AddressModeV, AddressModeW wgpu.AddressMode
	// MagFilter and MinFilter specify the filtering mode for magnification and minification.
	MagFilter, MinFilter wgpu.FilterMode
	// MipmapFilter specifies the filtering mode for mipmap level selection.
	MipmapFilter wgpu.MipmapFilterMode
	// LodMinClamp and LodMaxClamp specify the minimum and maximum level of detail (LOD) for mipmapping.
	LodMinClamp, LodMaxClamp float32
	// Compare specifies the comparison function for comparison samplers, used for depth comparisons.
	Compare wgpu.CompareFunction
	// MaxAnisotropy specifies the maximum anisotropy level for anisotropic filtering.
	MaxAnisotropy uint16
}

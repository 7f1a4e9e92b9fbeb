package resource

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-deferred/common"
	"github.com/cogentcore/webgpu/wgpu"
)

// NearestClampSampler describes a non-filtering sampler, the only kind that may
// sample 32-bit float textures.
func NearestClampSampler() common.SamplerStagingData {
	return common.SamplerStagingData{
		Label:        "Nearest Clamp Sampler",
		AddressModeU: wgpu.AddressModeClampToEdge,
		AddressModeV: wgpu.AddressModeClampToEdge,
		AddressModeW: wgpu.AddressModeClampToEdge,
		MagFilter:    wgpu.FilterModeNearest,
		MinFilter:    wgpu.FilterModeNearest,
		MipmapFilter: wgpu.MipmapFilterModeNearest,
	}
}

// LinearClampSampler describes a bilinear sampler with edge clamping.
func LinearClampSampler() common.SamplerStagingData {
	return common.SamplerStagingData{
		Label:        "Linear Clamp Sampler",
		AddressModeU: wgpu.AddressModeClampToEdge,
		AddressModeV: wgpu.AddressModeClampToEdge,
		AddressModeW: wgpu.AddressModeClampToEdge,
		MagFilter:    wgpu.FilterModeLinear,
		MinFilter:    wgpu.FilterModeLinear,
		MipmapFilter: wgpu.MipmapFilterModeLinear,
	}
}

// DepthComparisonSampler describes a less-equal comparison sampler for depth textures.
func DepthComparisonSampler() common.SamplerStagingData {
	s := LinearClampSampler()
	s.Label = "Depth Comparison Sampler"
	s.Compare = wgpu.CompareFunctionLessEqual
	return s
}

// IsFiltering reports whether a sampler built from s needs a filtering binding.
func IsFiltering(s common.SamplerStagingData) bool {
	return s.MagFilter == wgpu.FilterModeLinear || s.MinFilter == wgpu.FilterModeLinear ||
		s.MipmapFilter == wgpu.MipmapFilterModeLinear
}

// NewSampler creates a sampler. Zero fields fall back to clamp-to-edge and nearest filtering.
//
// Parameters:
//   - dev: the device
//   - s: the sampler description
//
// Returns:
//   - *wgpu.Sampler: the sampler
//   - error: creation failure
func NewSampler(dev *wgpu.Device, s common.SamplerStagingData) (*wgpu.Sampler, error) {
	samp, err := dev.CreateSampler(&wgpu.SamplerDescriptor{
		Label:         s.Label,
		AddressModeU:  common.Coalesce(s.AddressModeU, wgpu.AddressModeClampToEdge),
		AddressModeV:  common.Coalesce(s.AddressModeV, wgpu.AddressModeClampToEdge),
		AddressModeW:  common.Coalesce(s.AddressModeW, wgpu.AddressModeClampToEdge),
		MagFilter:     common.Coalesce(s.MagFilter, wgpu.FilterModeNearest),
		MinFilter:     common.Coalesce(s.MinFilter, wgpu.FilterModeNearest),
		MipmapFilter:  common.Coalesce(s.MipmapFilter, wgpu.MipmapFilterModeNearest),
		LodMinClamp:   s.LodMinClamp,
		LodMaxClamp:   common.Coalesce(s.LodMaxClamp, 32.0),
		MaxAnisotropy: common.Coalesce(s.MaxAnisotropy, 1),
		Compare:       s.Compare,
	})
	if err != nil {
		return nil, fmt.Errorf("creating sampler %s: %w", s.Label, err)
	}
	return samp, nil
}

package resource

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
)

// CubeFaces is the number of layers in a cube map.
const CubeFaces = 6

// CubeMap is a six-layer texture with one 2D view per face for rendering and a
// cube view for sampling.
type CubeMap struct {
	label      string
	tex        *wgpu.Texture
	faces      [CubeFaces]*wgpu.TextureView
	cube       *wgpu.TextureView
	resolution uint32
	format     wgpu.TextureFormat
}

// NewCubeMap creates a cube map whose faces are render targets.
//
// Parameters:
//   - dev: the device
//   - label: debug label
//   - resolution: width and height of every face
//   - format: texel format
//
// Returns:
//   - *CubeMap: the cube map
//   - error: creation failure
func NewCubeMap(dev *wgpu.Device, label string, resolution uint32, format wgpu.TextureFormat) (*CubeMap, error) {
	if resolution == 0 {
		return nil, fmt.Errorf("creating cube map %s: zero resolution", label)
	}
	tex, err := dev.CreateTexture(&wgpu.TextureDescriptor{
		Label:         label,
		Size:          wgpu.Extent3D{Width: resolution, Height: resolution, DepthOrArrayLayers: CubeFaces},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        format,
		Usage:         wgpu.TextureUsageRenderAttachment | wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopySrc,
	})
	if err != nil {
		return nil, fmt.Errorf("creating cube map %s: %w", label, err)
	}

	c := &CubeMap{label: label, tex: tex, resolution: resolution, format: format}
	for i := range c.faces {
		c.faces[i], err = tex.CreateView(&wgpu.TextureViewDescriptor{
			Label:           fmt.Sprintf("%s face %d", label, i),
			Format:          format,
			Dimension:       wgpu.TextureViewDimension2D,
			BaseMipLevel:    0,
			MipLevelCount:   1,
			BaseArrayLayer:  uint32(i),
			ArrayLayerCount: 1,
			Aspect:          wgpu.TextureAspectAll,
		})
		if err != nil {
			c.Release()
			return nil, fmt.Errorf("creating face view %d of %s: %w", i, label, err)
		}
	}
	c.cube, err = tex.CreateView(&wgpu.TextureViewDescriptor{
		Label:           label + " cube",
		Format:          format,
		Dimension:       wgpu.TextureViewDimensionCube,
		BaseMipLevel:    0,
		MipLevelCount:   1,
		BaseArrayLayer:  0,
		ArrayLayerCount: CubeFaces,
		Aspect:          wgpu.TextureAspectAll,
	})
	if err != nil {
		c.Release()
		return nil, fmt.Errorf("creating cube view of %s: %w", label, err)
	}
	return c, nil
}

// FaceView returns the 2D view of layer i in +X, -X, +Y, -Y, +Z, -Z order.
func (c *CubeMap) FaceView(i int) *wgpu.TextureView {
	return c.faces[i]
}

// CubeView returns the view used for direction sampling.
func (c *CubeMap) CubeView() *wgpu.TextureView {
	return c.cube
}

func (c *CubeMap) Texture() *wgpu.Texture {
	return c.tex
}

func (c *CubeMap) Resolution() uint32 {
	return c.resolution
}

func (c *CubeMap) Format() wgpu.TextureFormat {
	return c.format
}

func (c *CubeMap) Release() {
	for i, v := range c.faces {
		if v != nil {
			v.Release()
			c.faces[i] = nil
		}
	}
	if c.cube != nil {
		c.cube.Release()
		c.cube = nil
	}
	if c.tex != nil {
		c.tex.Release()
		c.tex = nil
	}
}

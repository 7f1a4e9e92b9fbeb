package renderer

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-deferred/common"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/resource"
	"github.com/cogentcore/webgpu/wgpu"
)

// CopyRowAlignment is the row pitch alignment CopyTextureToBuffer requires.
const CopyRowAlignment = 256

// BytesPerPixel returns the texel size of the formats the engine reads back.
func BytesPerPixel(format wgpu.TextureFormat) (uint32, error) {
	switch format {
	case wgpu.TextureFormatR32Float:
		return 4, nil
	case wgpu.TextureFormatRGBA8Unorm, wgpu.TextureFormatRGBA8UnormSrgb,
		wgpu.TextureFormatBGRA8Unorm, wgpu.TextureFormatBGRA8UnormSrgb:
		return 4, nil
	case wgpu.TextureFormatRGBA16Float:
		return 8, nil
	case wgpu.TextureFormatRGBA32Float:
		return 16, nil
	}
	return 0, fmt.Errorf("readback of format %d is not supported", uint32(format))
}

// AlignedRowPitch rounds a row of width texels up to CopyRowAlignment.
func AlignedRowPitch(width, bytesPerPixel uint32) uint32 {
	return common.CeilDiv(width*bytesPerPixel, CopyRowAlignment) * CopyRowAlignment
}

// unpadRows strips the row padding of a buffer copy.
func unpadRows(data []byte, rowBytes, pitch, rows uint32) []byte {
	out := make([]byte, 0, rowBytes*rows)
	for y := range rows {
		start := y * pitch
		out = append(out, data[start:start+rowBytes]...)
	}
	return out
}

func (d *deviceImpl) ReadTexture(tex *resource.Texture) ([]byte, error) {
	bpp, err := BytesPerPixel(tex.Format())
	if err != nil {
		return nil, err
	}
	size := tex.Size()
	pitch := AlignedRowPitch(size.Width, bpp)
	bufSize := uint64(pitch) * uint64(size.Height)

	buf, err := d.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: tex.Label() + " Readback",
		Size:  bufSize,
		Usage: wgpu.BufferUsageMapRead | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("creating readback buffer: %w", err)
	}
	defer buf.Release()

	encoder, err := d.CreateEncoder("Readback Encoder")
	if err != nil {
		return nil, err
	}
	encoder.CopyTextureToBuffer(
		&wgpu.ImageCopyTexture{
			Texture:  tex.Texture(),
			MipLevel: 0,
			Origin:   wgpu.Origin3D{X: 0, Y: 0, Z: 0},
			Aspect:   wgpu.TextureAspectAll,
		},
		&wgpu.ImageCopyBuffer{
			Buffer: buf,
			Layout: wgpu.TextureDataLayout{
				Offset:       0,
				BytesPerRow:  pitch,
				RowsPerImage: size.Height,
			},
		},
		&wgpu.Extent3D{Width: size.Width, Height: size.Height, DepthOrArrayLayers: 1},
	)
	if err := d.Submit(encoder); err != nil {
		return nil, err
	}

	status := wgpu.BufferMapAsyncStatusUnknown
	buf.MapAsync(wgpu.MapModeRead, 0, bufSize, func(s wgpu.BufferMapAsyncStatus) {
		status = s
	})
	d.device.Poll(true, nil)
	if status != wgpu.BufferMapAsyncStatusSuccess {
		return nil, fmt.Errorf("mapping readback buffer of %s: status %d", tex.Label(), int(status))
	}
	defer buf.Unmap()

	mapped := buf.GetMappedRange(0, uint(bufSize))
	return unpadRows(mapped, size.Width*bpp, pitch, size.Height), nil
}

// ReadTextureFloat32 reads back a float texture as float32 values.
//
// Parameters:
//   - dev: the device
//   - tex: an R32Float or RGBA32Float texture with CopySrc usage
//
// Returns:
//   - []float32: one value per channel, rows top first
//   - error: an unsupported format or a readback failure
func ReadTextureFloat32(dev Device, tex *resource.Texture) ([]float32, error) {
	switch tex.Format() {
	case wgpu.TextureFormatR32Float, wgpu.TextureFormatRGBA32Float:
	default:
		return nil, fmt.Errorf("texture %s is not a 32-bit float format", tex.Label())
	}
	data, err := dev.ReadTexture(tex)
	if err != nil {
		return nil, err
	}
	return common.BytesToFloat32s(data), nil
}

package renderer_test

import (
	"errors"
	"testing"

	"github.com/Carmen-Shannon/oxy-deferred/common"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/gputest"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/resource"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAlignedRowPitch(t *testing.T) {
	assert.Equal(t, uint32(256), renderer.AlignedRowPitch(1, 4))
	assert.Equal(t, uint32(256), renderer.AlignedRowPitch(64, 4))
	assert.Equal(t, uint32(512), renderer.AlignedRowPitch(65, 4))
	assert.Equal(t, uint32(10240), renderer.AlignedRowPitch(640, 16))
}

func TestBytesPerPixel(t *testing.T) {
	for format, want := range map[wgpu.TextureFormat]uint32{
		wgpu.TextureFormatR32Float:    4,
		wgpu.TextureFormatRGBA8Unorm:  4,
		wgpu.TextureFormatBGRA8Unorm:  4,
		wgpu.TextureFormatRGBA32Float: 16,
	} {
		got, err := renderer.BytesPerPixel(format)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := renderer.BytesPerPixel(wgpu.TextureFormatDepth32Float)
	assert.Error(t, err)
}

func TestParsePresentMode(t *testing.T) {
	for name, want := range map[string]renderer.PresentMode{
		"fifo":      renderer.PresentModeVSync,
		"":          renderer.PresentModeVSync,
		"immediate": renderer.PresentModeUncapped,
		"Mailbox":   renderer.PresentModeMailbox,
	} {
		got, err := renderer.ParsePresentMode(name)
		require.NoError(t, err, name)
		assert.Equal(t, want, got, name)
	}
	_, err := renderer.ParsePresentMode("adaptive")
	assert.Error(t, err)
}

func TestHeadlessReadback(t *testing.T) {
	dev := gputest.Device(t)
	require.True(t, dev.Headless())
	require.NoError(t, dev.ConfigureSurface(70, 3))

	frame, err := dev.AcquireFrame()
	require.NoError(t, err)
	require.NotNil(t, frame.Target)
	assert.Equal(t, common.Size{Width: 70, Height: 3}, frame.Size)

	// clear the offscreen target to a known color and read it back
	encoder, err := dev.CreateEncoder("Clear")
	require.NoError(t, err)
	rp := encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{{
			View:       frame.View,
			LoadOp:     wgpu.LoadOpClear,
			StoreOp:    wgpu.StoreOpStore,
			ClearValue: wgpu.Color{R: 1, G: 0, B: 0, A: 1},
		}},
	})
	rp.End()
	require.NoError(t, dev.Submit(encoder))

	data, err := dev.ReadTexture(frame.Target)
	require.NoError(t, err)
	require.Len(t, data, 70*3*4)
	assert.Equal(t, []byte{255, 0, 0, 255}, data[:4])
	assert.Equal(t, []byte{255, 0, 0, 255}, data[len(data)-4:])
	dev.Present(frame)
}

func TestReadTextureFloat32RejectsByteFormats(t *testing.T) {
	dev := gputest.Device(t)
	tex, err := resource.NewColorAttachment(dev.Device(), "Bytes", common.Size{Width: 4, Height: 4}, wgpu.TextureFormatRGBA8Unorm)
	require.NoError(t, err)
	defer tex.Release()

	_, err = renderer.ReadTextureFloat32(dev, tex)
	assert.Error(t, err)
	assert.False(t, errors.Is(err, renderer.ErrSurfaceFatal))
}

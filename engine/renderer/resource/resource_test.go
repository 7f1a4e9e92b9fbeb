package resource

import (
	"encoding/binary"
	"errors"
	"math"
	"testing"

	"github.com/Carmen-Shannon/oxy-deferred/common"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pair struct {
	a, b float32
}

func (p pair) Size() int {
	return 16
}

func (p pair) Marshal() []byte {
	out := make([]byte, 16)
	binary.LittleEndian.PutUint32(out[0:], math.Float32bits(p.a))
	binary.LittleEndian.PutUint32(out[4:], math.Float32bits(p.b))
	return out
}

func TestEncodeUsesMarshaler(t *testing.T) {
	data := Encode([]pair{{1, 2}, {3, 4}})
	require.Len(t, data, 32)
	assert.Equal(t, float32(3), math.Float32frombits(binary.LittleEndian.Uint32(data[16:])))
	assert.Equal(t, []byte{0, 0, 0, 0}, data[8:12])
}

func TestEncodeRawNumbers(t *testing.T) {
	src := []uint32{1, 2, 3}
	data := Encode(src)
	require.Len(t, data, 12)
	assert.Equal(t, uint32(2), binary.LittleEndian.Uint32(data[4:]))

	src[1] = 9
	assert.Equal(t, uint32(2), binary.LittleEndian.Uint32(data[4:]), "encoded bytes must not alias the input")

	assert.Nil(t, Encode[uint32](nil))
}

func TestUploadSizeMismatch(t *testing.T) {
	b := &Buffer[pair]{label: "test", byteSize: 16, length: 1}

	err := b.Upload(nil, []pair{{1, 2}, {3, 4}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSizeMismatch))
	assert.Contains(t, err.Error(), "got 32 bytes, buffer holds 16")

	err = b.Upload(nil, nil)
	assert.ErrorIs(t, err, ErrSizeMismatch)
}

func TestTextureRefCount(t *testing.T) {
	tex := wrapTexture("color", nil, nil, common.Size{Width: 4, Height: 2}, wgpu.TextureFormatRGBA32Float, 0)
	assert.Equal(t, 1, tex.Refs())

	same := tex.Retain()
	assert.Same(t, tex, same)
	assert.Equal(t, 2, tex.Refs())

	tex.Release()
	assert.Equal(t, 1, tex.Refs())
	tex.Release()
	assert.Equal(t, 0, tex.Refs())

	assert.Panics(t, func() { tex.Release() })
}

func TestLayoutBuilderDescriptor(t *testing.T) {
	desc := NewLayoutBuilder("test layout").
		Uniform(0, wgpu.ShaderStageVertex).MinSize(96).
		Storage(1, wgpu.ShaderStageCompute, true).
		DepthTexture(2, wgpu.ShaderStageCompute).
		StorageTexture(3, wgpu.ShaderStageCompute, wgpu.StorageTextureAccessWriteOnly, wgpu.TextureFormatR32Float, wgpu.TextureViewDimension2D).
		Sampler(4, wgpu.ShaderStageFragment, wgpu.SamplerBindingTypeNonFiltering).
		Descriptor()

	assert.Equal(t, "test layout", desc.Label)
	require.Len(t, desc.Entries, 5)
	assert.Equal(t, wgpu.BufferBindingTypeUniform, desc.Entries[0].Buffer.Type)
	assert.Equal(t, uint64(96), desc.Entries[0].Buffer.MinBindingSize)
	assert.Equal(t, wgpu.BufferBindingTypeReadOnlyStorage, desc.Entries[1].Buffer.Type)
	assert.Equal(t, wgpu.TextureSampleTypeDepth, desc.Entries[2].Texture.SampleType)
	assert.Equal(t, wgpu.TextureFormatR32Float, desc.Entries[3].StorageTexture.Format)
	assert.Equal(t, wgpu.SamplerBindingTypeNonFiltering, desc.Entries[4].Sampler.Type)
}

func TestSamplerPresets(t *testing.T) {
	assert.False(t, IsFiltering(NearestClampSampler()))
	assert.True(t, IsFiltering(LinearClampSampler()))

	cmp := DepthComparisonSampler()
	assert.Equal(t, wgpu.CompareFunctionLessEqual, cmp.Compare)
	assert.Equal(t, wgpu.AddressModeClampToEdge, cmp.AddressModeU)
}

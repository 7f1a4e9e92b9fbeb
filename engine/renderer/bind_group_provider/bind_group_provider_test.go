package bind_group_provider

import (
	"errors"
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEntriesSortedByBinding(t *testing.T) {
	buf := &wgpu.Buffer{}
	tv := &wgpu.TextureView{}
	s := &wgpu.Sampler{}

	p := NewBindGroupProvider("test",
		WithSampler(2, s),
		WithBuffer(0, buf),
		WithTextureView(1, tv),
	)

	entries := p.Entries()
	require.Len(t, entries, 3)
	assert.Equal(t, uint32(0), entries[0].Binding)
	assert.Same(t, buf, entries[0].Buffer)
	assert.Equal(t, uint64(wgpu.WholeSize), entries[0].Size)
	assert.Same(t, tv, entries[1].TextureView)
	assert.Same(t, s, entries[2].Sampler)
}

func TestSetReplacesOtherKinds(t *testing.T) {
	p := NewBindGroupProvider("test", WithBuffer(0, &wgpu.Buffer{}))
	p.SetTextureView(0, &wgpu.TextureView{})

	assert.Nil(t, p.Buffer(0))
	assert.NotNil(t, p.TextureView(0))
	assert.Len(t, p.Entries(), 1)
}

func TestBuildIncomplete(t *testing.T) {
	p := NewBindGroupProvider("no layout", WithBuffer(0, &wgpu.Buffer{}))
	err := p.Build(nil)
	assert.True(t, errors.Is(err, ErrIncomplete))
	assert.Contains(t, err.Error(), "no layout")

	p = NewBindGroupProvider("empty", WithBindGroupLayout(&wgpu.BindGroupLayout{}))
	err = p.Build(nil)
	assert.ErrorIs(t, err, ErrIncomplete)
	assert.Contains(t, err.Error(), "no resources")
}

func TestWriteBuffersMissingBinding(t *testing.T) {
	p := NewBindGroupProvider("uniforms", WithBuffer(0, &wgpu.Buffer{}))
	err := WriteBuffers(nil, []BufferWrite{
		{Provider: p, Binding: 0, Data: []byte{1, 2, 3, 4}},
		{Provider: p, Binding: 1, Data: []byte{1, 2, 3, 4}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no buffer at binding 1")
}

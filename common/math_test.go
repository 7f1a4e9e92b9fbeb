package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPrevPow2(t *testing.T) {
	cases := map[uint32]uint32{0: 0, 1: 1, 2: 2, 3: 2, 360: 256, 640: 512, 960: 512, 1024: 1024, 1025: 1024}
	for in, want := range cases {
		assert.Equal(t, want, PrevPow2(in), "PrevPow2(%d)", in)
	}
}

func TestCeilDiv(t *testing.T) {
	assert.Equal(t, uint32(80), CeilDiv(1280, 16))
	assert.Equal(t, uint32(46), CeilDiv(721, 16))
	assert.Equal(t, uint32(1), CeilDiv(1, 16))
	assert.Equal(t, uint32(0), CeilDiv(5, 0))
}

func TestFloat32BytesRoundTrip(t *testing.T) {
	in := []float32{0, 1.5, -2.25, 1e-6}
	assert.Equal(t, in, BytesToFloat32s(SliceToBytes(in)))
	assert.Len(t, BytesToFloat32s([]byte{1, 2, 3}), 0)
}

func TestClamp(t *testing.T) {
	assert.Equal(t, float32(0.5), Clamp(float32(0.1), 0.5, 50))
	assert.Equal(t, 50, Clamp(70, 0, 50))
	assert.Equal(t, uint32(3), Clamp(uint32(3), 1, 4))
}

func TestSizeAspect(t *testing.T) {
	assert.InDelta(t, 16.0/9.0, Size{Width: 1280, Height: 720}.Aspect(), 1e-6)
	assert.Equal(t, float32(1), Size{}.Aspect())
	assert.True(t, Size{Width: 10}.Empty())
}

func TestCoalesce(t *testing.T) {
	assert.Equal(t, 3, Coalesce(0, 3, 4))
	assert.Equal(t, "", Coalesce[string]())
}

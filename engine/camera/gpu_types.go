package camera

import (
	_ "embed"
	"encoding/binary"
	"math"
	"unsafe"
)

// GPUCameraUniformSource is the canonical WGSL definition of the CameraUniform struct.
// Matches GPUCameraUniform layout exactly (96 bytes).
//
//go:embed assets/camera_uniform.wgsl
var GPUCameraUniformSource string

// GPUCameraUniform is the GPU-aligned representation of the camera uniform buffer.
// Size: 96 bytes (WGSL uniform aligned).
type GPUCameraUniform struct {
	ViewProj  [16]float32 // offset  0: mat4x4<f32>
	Eye       [3]float32  // offset 64: world-space camera position
	_pad0     float32     // offset 76
	Direction [3]float32  // offset 80: unit view direction
	_pad1     float32     // offset 92
}

// NewGPUCameraUniform snapshots a camera into its GPU layout.
//
// Parameters:
//   - c: the camera to pack
//
// Returns:
//   - GPUCameraUniform: the packed uniform
func NewGPUCameraUniform(c Camera) GPUCameraUniform {
	return GPUCameraUniform{
		ViewProj:  c.ViewProjection(),
		Eye:       c.Eye(),
		Direction: c.Direction(),
	}
}

// Size returns the size of the GPUCameraUniform struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (96)
func (g GPUCameraUniform) Size() int {
	return int(unsafe.Sizeof(g))
}

// Marshal serializes the GPUCameraUniform struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: the serialized byte buffer
func (g GPUCameraUniform) Marshal() []byte {
	buf := make([]byte, g.Size())
	for i := range 16 {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(g.ViewProj[i]))
	}
	for i := range 3 {
		binary.LittleEndian.PutUint32(buf[64+i*4:], math.Float32bits(g.Eye[i]))
		binary.LittleEndian.PutUint32(buf[80+i*4:], math.Float32bits(g.Direction[i]))
	}
	return buf
}

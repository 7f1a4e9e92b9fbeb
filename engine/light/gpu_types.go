package light

import (
	_ "embed"
	"encoding/binary"
	"math"
	"unsafe"
)

// GPULightUniformSource is the canonical WGSL definition of the LightUniform struct.
// Matches GPULightUniform layout exactly (32 bytes).
//
//go:embed assets/light_uniform.wgsl
var GPULightUniformSource string

// GPULightUniform is the GPU-aligned representation of a point light.
// Size: 32 bytes.
type GPULightUniform struct {
	Position [3]float32 // offset  0: world-space position
	Far      float32    // offset 12: shadow far plane, used to normalise stored distances
	Color    [3]float32 // offset 16: linear emission color
	_pad     float32    // offset 28
}

// Size returns the size of the GPULightUniform struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (32)
func (g GPULightUniform) Size() int {
	return int(unsafe.Sizeof(g))
}

// Marshal serializes the GPULightUniform struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: the serialized byte buffer
func (g GPULightUniform) Marshal() []byte {
	buf := make([]byte, g.Size())
	for i := range 3 {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(g.Position[i]))
		binary.LittleEndian.PutUint32(buf[16+i*4:], math.Float32bits(g.Color[i]))
	}
	binary.LittleEndian.PutUint32(buf[12:], math.Float32bits(g.Far))
	return buf
}

// GPUShadowFaceSource is the canonical WGSL definition of the ShadowFace struct.
// Matches GPUShadowFace layout exactly (80 bytes).
//
//go:embed assets/shadow_face.wgsl
var GPUShadowFaceSource string

// GPUShadowFace is the per-face uniform of the shadow pass: one face's
// view-projection plus the light position used to compute linear distance.
// Size: 80 bytes.
type GPUShadowFace struct {
	ViewProj [16]float32 // offset  0: mat4x4<f32>
	LightPos [3]float32  // offset 64
	Far      float32     // offset 76
}

// Size returns the size of the GPUShadowFace struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (80)
func (s GPUShadowFace) Size() int {
	return int(unsafe.Sizeof(s))
}

// Marshal serializes the GPUShadowFace struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: the serialized byte buffer
func (s GPUShadowFace) Marshal() []byte {
	buf := make([]byte, s.Size())
	for i := range 16 {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(s.ViewProj[i]))
	}
	for i := range 3 {
		binary.LittleEndian.PutUint32(buf[64+i*4:], math.Float32bits(s.LightPos[i]))
	}
	binary.LittleEndian.PutUint32(buf[76:], math.Float32bits(s.Far))
	return buf
}

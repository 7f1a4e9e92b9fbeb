package material

import (
	_ "embed"
	"encoding/binary"
	"math"
	"unsafe"
)

// GPUMaterialSource is the canonical WGSL definition of the MaterialUniform struct.
// Matches GPUMaterial layout exactly (32 bytes).
//
//go:embed assets/material_uniform.wgsl
var GPUMaterialSource string

// GPUMaterial is the per-mesh uniform read by the G-buffer fragment shader.
// Size: 32 bytes.
type GPUMaterial struct {
	BaseColor [3]float32 // offset  0: linear albedo
	Metallic  float32    // offset 12
	Roughness float32    // offset 16
	MeshID    uint32     // offset 20: written to the AOV target
	_pad      [2]uint32  // offset 24
}

// Size returns the size of the GPUMaterial struct in bytes.
//
// Returns:
//   - int: the size of the struct in bytes (32)
func (g GPUMaterial) Size() int {
	return int(unsafe.Sizeof(g))
}

// Marshal serializes the GPUMaterial struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 32-byte buffer ready for GPU upload
func (g GPUMaterial) Marshal() []byte {
	buf := make([]byte, g.Size())
	binary.LittleEndian.PutUint32(buf[0:4], math.Float32bits(g.BaseColor[0]))
	binary.LittleEndian.PutUint32(buf[4:8], math.Float32bits(g.BaseColor[1]))
	binary.LittleEndian.PutUint32(buf[8:12], math.Float32bits(g.BaseColor[2]))
	binary.LittleEndian.PutUint32(buf[12:16], math.Float32bits(g.Metallic))
	binary.LittleEndian.PutUint32(buf[16:20], math.Float32bits(g.Roughness))
	binary.LittleEndian.PutUint32(buf[20:24], g.MeshID)
	return buf
}

package mesh

import (
	_ "embed"
	"encoding/binary"
	"math"
	"unsafe"

	"github.com/cogentcore/webgpu/wgpu"
)

// GPUVertexSource is the canonical WGSL definition of the VertexInput struct.
// Matches GPUVertex layout exactly (24 bytes).
//
//go:embed assets/vertex.wgsl
var GPUVertexSource string

// GPUVertex is the interleaved vertex every raster pass consumes.
// Size: 24 bytes, no padding.
type GPUVertex struct {
	Position [3]float32 // offset  0: object-space position, @location(0)
	Normal   [3]float32 // offset 12: unit normal, @location(1)
}

// Size returns the size of the GPUVertex struct in bytes.
//
// Returns:
//   - int: the size of the struct in bytes (24)
func (g GPUVertex) Size() int {
	return int(unsafe.Sizeof(g))
}

// Marshal serializes the GPUVertex struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 24-byte buffer ready for GPU upload
func (g GPUVertex) Marshal() []byte {
	buf := make([]byte, 24)
	for i := range 3 {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(g.Position[i]))
		binary.LittleEndian.PutUint32(buf[12+i*4:], math.Float32bits(g.Normal[i]))
	}
	return buf
}

// VertexLayout returns the vertex buffer layout matching GPUVertex.
//
// Returns:
//   - wgpu.VertexBufferLayout: stride 24 with float32x3 position and normal
func VertexLayout() wgpu.VertexBufferLayout {
	return wgpu.VertexBufferLayout{
		ArrayStride: 24,
		StepMode:    wgpu.VertexStepModeVertex,
		Attributes: []wgpu.VertexAttribute{
			{Format: wgpu.VertexFormatFloat32x3, Offset: 0, ShaderLocation: 0},
			{Format: wgpu.VertexFormatFloat32x3, Offset: 12, ShaderLocation: 1},
		},
	}
}

package pass

import (
	"encoding/binary"
	"math"
	"unsafe"
)

// GPUSSRTUniform mirrors SSRTUniform in ssgi.wgsl.
// Size: 64 bytes.
type GPUSSRTUniform struct {
	ImageSize [2]uint32  // offset  0
	LodSize   [2]uint32  // offset  8: size of quad-tree level 0
	MaxLevel  uint32     // offset 16: coarsest level index
	Near      float32    // offset 20
	_pad0     [2]uint32  // offset 24
	ViewDir   [3]float32 // offset 32
	_pad1     float32    // offset 44
	Eye       [3]float32 // offset 48
	_pad2     float32    // offset 60
}

// Size returns the size of the struct in bytes.
func (g GPUSSRTUniform) Size() int {
	return int(unsafe.Sizeof(g))
}

// Marshal serializes the struct into its WGSL layout.
func (g GPUSSRTUniform) Marshal() []byte {
	buf := make([]byte, g.Size())
	binary.LittleEndian.PutUint32(buf[0:], g.ImageSize[0])
	binary.LittleEndian.PutUint32(buf[4:], g.ImageSize[1])
	binary.LittleEndian.PutUint32(buf[8:], g.LodSize[0])
	binary.LittleEndian.PutUint32(buf[12:], g.LodSize[1])
	binary.LittleEndian.PutUint32(buf[16:], g.MaxLevel)
	binary.LittleEndian.PutUint32(buf[20:], math.Float32bits(g.Near))
	for i := range 3 {
		binary.LittleEndian.PutUint32(buf[32+i*4:], math.Float32bits(g.ViewDir[i]))
		binary.LittleEndian.PutUint32(buf[48+i*4:], math.Float32bits(g.Eye[i]))
	}
	return buf
}

// GPUPostParams mirrors PostParams in post_process.wgsl.
// Size: 16 bytes.
type GPUPostParams struct {
	View  uint32  // offset  0: DebugView
	Near  float32 // offset  4
	Far   float32 // offset  8
	Gamma float32 // offset 12
}

// Size returns the size of the struct in bytes.
func (g GPUPostParams) Size() int {
	return int(unsafe.Sizeof(g))
}

// Marshal serializes the struct into its WGSL layout.
func (g GPUPostParams) Marshal() []byte {
	buf := make([]byte, g.Size())
	binary.LittleEndian.PutUint32(buf[0:], g.View)
	binary.LittleEndian.PutUint32(buf[4:], math.Float32bits(g.Near))
	binary.LittleEndian.PutUint32(buf[8:], math.Float32bits(g.Far))
	binary.LittleEndian.PutUint32(buf[12:], math.Float32bits(g.Gamma))
	return buf
}

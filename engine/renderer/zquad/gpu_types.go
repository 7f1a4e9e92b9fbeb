package zquad

import (
	"encoding/binary"
	"unsafe"

	"github.com/Carmen-Shannon/oxy-deferred/common"
)

// GPUParams mirrors ZQuadParams in zquad_params.wgsl.
type GPUParams struct {
	ImageSize [2]uint32
	LodSize   [2]uint32
	Level     uint32
	_         uint32
}

// NewGPUParams builds the parameters of one reduction dispatch.
func NewGPUParams(image, lod common.Size, level int) GPUParams {
	return GPUParams{
		ImageSize: [2]uint32{image.Width, image.Height},
		LodSize:   [2]uint32{lod.Width, lod.Height},
		Level:     uint32(level),
	}
}

// Size returns the size of the struct in bytes.
func (p GPUParams) Size() int {
	return int(unsafe.Sizeof(p))
}

// Marshal serializes the struct into its WGSL layout.
func (p GPUParams) Marshal() []byte {
	buf := make([]byte, p.Size())
	binary.LittleEndian.PutUint32(buf[0:], p.ImageSize[0])
	binary.LittleEndian.PutUint32(buf[4:], p.ImageSize[1])
	binary.LittleEndian.PutUint32(buf[8:], p.LodSize[0])
	binary.LittleEndian.PutUint32(buf[12:], p.LodSize[1])
	binary.LittleEndian.PutUint32(buf[16:], p.Level)
	return buf
}

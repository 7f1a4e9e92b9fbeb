package common

import (
	"math"
	"unsafe"
)

// SliceToBytes converts any slice to a byte slice for GPU buffer uploads.
// Uses unsafe pointer operations to create a view into the original data.
// WARNING: The returned slice shares memory with the input - do not modify.
//
// Parameters:
//   - data: source slice of any type
//
// Returns:
//   - []byte: byte slice view of the input data, or nil if input is empty
func SliceToBytes[T any](data []T) []byte {
	if len(data) == 0 {
		return nil
	}
	var zero T
	size := unsafe.Sizeof(zero)
	totalBytes := int(size) * len(data)
	return unsafe.Slice((*byte)(unsafe.Pointer(&data[0])), totalBytes)
}

// CeilDiv returns ceil(n / d) for unsigned integers. A zero divisor yields zero.
//
// Parameters:
//   - n: the dividend
//   - d: the divisor
//
// Returns:
//   - uint32: the rounded-up quotient
func CeilDiv(n, d uint32) uint32 {
	if d == 0 {
		return 0
	}
	return (n + d - 1) / d
}

// PrevPow2 returns the largest power of two that does not exceed v.
// Returns 0 when v is 0.
//
// Parameters:
//   - v: the upper bound
//
// Returns:
//   - uint32: the largest power of two <= v
func PrevPow2(v uint32) uint32 {
	if v == 0 {
		return 0
	}
	p := uint32(1)
	for p<<1 != 0 && p<<1 <= v {
		p <<= 1
	}
	return p
}

// Clamp restricts v to the closed range [lo, hi].
func Clamp[T ~float32 | ~float64 | ~int | ~uint32](v, lo, hi T) T {
	return max(lo, min(v, hi))
}

// Luminance returns the Rec. 709 relative luminance of a linear RGB color.
//
// Parameters:
//   - r, g, b: linear color channels
//
// Returns:
//   - float32: the weighted luminance
func Luminance(r, g, b float32) float32 {
	return 0.2126*r + 0.7152*g + 0.0722*b
}

// BytesToFloat32s decodes little-endian bytes into float32 values. Trailing bytes that do
// not form a complete value are ignored.
//
// Parameters:
//   - data: the raw bytes
//
// Returns:
//   - []float32: the decoded values
func BytesToFloat32s(data []byte) []float32 {
	out := make([]float32, len(data)/4)
	for i := range out {
		bits := uint32(data[i*4]) | uint32(data[i*4+1])<<8 | uint32(data[i*4+2])<<16 | uint32(data[i*4+3])<<24
		out[i] = math.Float32frombits(bits)
	}
	return out
}

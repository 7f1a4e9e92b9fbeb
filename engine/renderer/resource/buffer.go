package resource

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-deferred/common"
	"github.com/cogentcore/webgpu/wgpu"
)

// Marshaler is implemented by the GPU-layout structs of the engine. Size is the
// std140-style byte size and Marshal returns exactly Size bytes.
type Marshaler interface {
	Size() int
	Marshal() []byte
}

// Buffer is a typed GPU buffer holding a fixed number of T values.
type Buffer[T any] struct {
	label       string
	buffer      *wgpu.Buffer
	length      int
	byteSize    uint64
	bindingType wgpu.BufferBindingType
}

// Encode serializes values for upload. Types implementing Marshaler use their own
// layout, anything else is copied as raw memory.
//
// Parameters:
//   - values: the values to serialize
//
// Returns:
//   - []byte: a fresh byte slice
func Encode[T any](values []T) []byte {
	if len(values) == 0 {
		return nil
	}
	if _, ok := any(values[0]).(Marshaler); ok {
		out := make([]byte, 0, len(values)*any(values[0]).(Marshaler).Size())
		for _, v := range values {
			out = append(out, any(v).(Marshaler).Marshal()...)
		}
		return out
	}
	return append([]byte(nil), common.SliceToBytes(values)...)
}

// NewUniformBuffer creates a Uniform|CopyDst buffer initialised with init.
//
// Parameters:
//   - dev: the device
//   - label: debug label
//   - init: initial contents, which also fix the buffer length
//
// Returns:
//   - *Buffer[T]: the buffer
//   - error: ErrEmptyBuffer or a creation failure
func NewUniformBuffer[T any](dev *wgpu.Device, label string, init []T) (*Buffer[T], error) {
	return newBuffer(dev, label, init, wgpu.BufferUsageUniform|wgpu.BufferUsageCopyDst, wgpu.BufferBindingTypeUniform)
}

// NewStorageBuffer creates a Storage|CopyDst buffer initialised with init.
//
// Parameters:
//   - dev: the device
//   - label: debug label
//   - init: initial contents, which also fix the buffer length
//   - readOnly: whether shaders bind it as read-only storage
//
// Returns:
//   - *Buffer[T]: the buffer
//   - error: ErrEmptyBuffer or a creation failure
func NewStorageBuffer[T any](dev *wgpu.Device, label string, init []T, readOnly bool) (*Buffer[T], error) {
	bt := wgpu.BufferBindingTypeStorage
	if readOnly {
		bt = wgpu.BufferBindingTypeReadOnlyStorage
	}
	return newBuffer(dev, label, init, wgpu.BufferUsageStorage|wgpu.BufferUsageCopyDst, bt)
}

func newBuffer[T any](dev *wgpu.Device, label string, init []T, usage wgpu.BufferUsage, bt wgpu.BufferBindingType) (*Buffer[T], error) {
	data := Encode(init)
	if len(data) == 0 {
		return nil, fmt.Errorf("%s: %w", label, ErrEmptyBuffer)
	}
	buf, err := dev.CreateBufferInit(&wgpu.BufferInitDescriptor{
		Label:    label,
		Contents: data,
		Usage:    usage,
	})
	if err != nil {
		return nil, fmt.Errorf("creating buffer %s: %w", label, err)
	}
	return &Buffer[T]{
		label:       label,
		buffer:      buf,
		length:      len(init),
		byteSize:    uint64(len(data)),
		bindingType: bt,
	}, nil
}

// Upload replaces the whole contents of the buffer.
//
// Parameters:
//   - queue: the device queue
//   - values: new contents, must encode to exactly ByteSize bytes
//
// Returns:
//   - error: ErrSizeMismatch when the encoded length differs
func (b *Buffer[T]) Upload(queue *wgpu.Queue, values []T) error {
	data := Encode(values)
	if uint64(len(data)) != b.byteSize {
		return fmt.Errorf("%s: %w: got %d bytes, buffer holds %d", b.label, ErrSizeMismatch, len(data), b.byteSize)
	}
	queue.WriteBuffer(b.buffer, 0, data)
	return nil
}

// Len returns the number of T values the buffer holds.
func (b *Buffer[T]) Len() int {
	return b.length
}

// ByteSize returns the allocation size in bytes.
func (b *Buffer[T]) ByteSize() uint64 {
	return b.byteSize
}

// BindingType returns how shaders bind the buffer.
func (b *Buffer[T]) BindingType() wgpu.BufferBindingType {
	return b.bindingType
}

// Buffer returns the underlying GPU buffer.
func (b *Buffer[T]) Buffer() *wgpu.Buffer {
	return b.buffer
}

// Release frees the GPU buffer. Safe on a nil receiver.
func (b *Buffer[T]) Release() {
	if b != nil && b.buffer != nil {
		b.buffer.Release()
		b.buffer = nil
	}
}

// NewVertexBuffer creates a Vertex|CopyDst buffer holding init.
func NewVertexBuffer[T any](dev *wgpu.Device, label string, init []T) (*Buffer[T], error) {
	return newBuffer(dev, label, init, wgpu.BufferUsageVertex|wgpu.BufferUsageCopyDst, wgpu.BufferBindingTypeUndefined)
}

// NewIndexBuffer creates an Index|CopyDst buffer of uint32 indices.
func NewIndexBuffer(dev *wgpu.Device, label string, indices []uint32) (*Buffer[uint32], error) {
	return newBuffer(dev, label, indices, wgpu.BufferUsageIndex|wgpu.BufferUsageCopyDst, wgpu.BufferBindingTypeUndefined)
}

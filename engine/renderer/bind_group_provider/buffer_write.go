package bind_group_provider

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
)

// BufferWrite describes a single GPU buffer write operation targeting a specific binding
// on a BindGroupProvider at a given byte offset.
type BufferWrite struct {
	Provider BindGroupProvider
	Binding  int
	Offset   uint64
	Data     []byte
}

// WriteBuffers queues every write. A write whose binding holds no buffer fails the
// whole batch before anything is queued.
//
// Parameters:
//   - queue: the device queue
//   - writes: the writes to perform
//
// Returns:
//   - error: a missing buffer
func WriteBuffers(queue *wgpu.Queue, writes []BufferWrite) error {
	for _, w := range writes {
		if w.Provider.Buffer(w.Binding) == nil {
			return fmt.Errorf("%s: no buffer at binding %d", w.Provider.Label(), w.Binding)
		}
	}
	for _, w := range writes {
		queue.WriteBuffer(w.Provider.Buffer(w.Binding), w.Offset, w.Data)
	}
	return nil
}

package deferred

import (
	"github.com/Carmen-Shannon/oxy-deferred/common"
	"github.com/Carmen-Shannon/oxy-deferred/engine/camera"
	"github.com/Carmen-Shannon/oxy-deferred/engine/light"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/pass"
	"github.com/cogentcore/webgpu/wgpu"
)

// FrameParams is the per-frame input from the host.
type FrameParams struct {
	Camera camera.Camera
	Light  light.PointLight
	Meshes []pass.Mesh
	View   pass.DebugView
}

// Frame is what every stage sees while a frame is recorded.
type Frame struct {
	FrameParams

	// Target is the swap-chain view the final stage writes.
	Target *wgpu.TextureView
	// Size is the output resolution all resolution-bound resources share.
	Size common.Size
	// Lighting is the lighting mode in effect for this frame.
	Lighting LightingMode
	// Index counts recorded frames, starting at 0.
	Index uint64
}

// Stage is one step of the fixed frame. Stages run in order on one encoder.
type Stage interface {
	// Label names the stage in errors and logs.
	Label() string

	// Record encodes the stage's GPU work.
	//
	// Parameters:
	//   - f: the frame being recorded
	//   - encoder: the frame encoder, shared by every stage
	//
	// Returns:
	//   - error: aborts the frame
	Record(f *Frame, encoder *wgpu.CommandEncoder) error
}

// stageFactory owns the resources stages record against.
type stageFactory interface {
	// build allocates everything bound to size and returns the stages in frame order.
	// It is called on construction and after every teardown.
	build(size common.Size) ([]Stage, error)

	// teardown releases the resolution-bound resources build allocated.
	teardown()

	// release frees everything, including resources that survive a resize.
	release()
}

type stageFunc struct {
	label  string
	record func(f *Frame, encoder *wgpu.CommandEncoder) error
}

var _ Stage = stageFunc{}

func (s stageFunc) Label() string {
	return s.label
}

func (s stageFunc) Record(f *Frame, encoder *wgpu.CommandEncoder) error {
	return s.record(f, encoder)
}

package deferred

import (
	"errors"
	"sync"
	"testing"

	"github.com/Carmen-Shannon/oxy-deferred/common"
	"github.com/Carmen-Shannon/oxy-deferred/engine/camera"
	"github.com/Carmen-Shannon/oxy-deferred/engine/light"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFactory struct {
	builds    []common.Size
	teardowns int
	released  bool
	failBuild error

	stages []Stage
}

func (f *fakeFactory) build(size common.Size) ([]Stage, error) {
	if f.failBuild != nil {
		return nil, f.failBuild
	}
	f.builds = append(f.builds, size)
	return f.stages, nil
}

func (f *fakeFactory) teardown() {
	f.teardowns++
}

func (f *fakeFactory) release() {
	f.released = true
}

type fakeStage struct {
	label    string
	calls    *[]string
	err      error
	onRecord func(f *Frame)
}

func (s *fakeStage) Label() string {
	return s.label
}

func (s *fakeStage) Record(f *Frame, _ *wgpu.CommandEncoder) error {
	*s.calls = append(*s.calls, s.label)
	if s.onRecord != nil {
		s.onRecord(f)
	}
	return s.err
}

var (
	hd      = common.Size{Width: 1280, Height: 720}
	quarter = common.Size{Width: 640, Height: 360}
)

func newFakes(calls *[]string) (*fakeFactory, map[string]*fakeStage) {
	f := &fakeFactory{}
	byLabel := make(map[string]*fakeStage)
	for _, label := range []string{StageShadow, StageGBuffer, StageZQuad, StageLighting, StagePost} {
		s := &fakeStage{label: label, calls: calls}
		byLabel[label] = s
		f.stages = append(f.stages, s)
	}
	return f, byLabel
}

func testParams(t *testing.T) FrameParams {
	t.Helper()
	persp, err := camera.NewPerspective(16.0/9.0, 1.0, 0.1, 100)
	require.NoError(t, err)
	cam, err := camera.NewOrbital(persp, camera.WithRadius(3))
	require.NoError(t, err)
	return FrameParams{
		Camera: cam,
		Light:  light.NewPointLight(light.WithPosition(0, 2, 0)),
	}
}

func TestRecordRunsStagesInOrder(t *testing.T) {
	var calls []string
	f, _ := newFakes(&calls)
	p, err := newPipeline(f, hd, LightingIndirect)
	require.NoError(t, err)
	assert.Equal(t, StateReady, p.State())
	assert.Equal(t, []string{StageShadow, StageGBuffer, StageZQuad, StageLighting, StagePost}, p.Stages())

	require.NoError(t, p.Record(testParams(t), nil, nil))
	assert.Equal(t, []string{StageShadow, StageGBuffer, StageZQuad, StageLighting, StagePost}, calls)
	assert.Equal(t, uint64(1), p.Frames())
}

func TestStateDuringRecording(t *testing.T) {
	var calls []string
	f, stages := newFakes(&calls)
	p, err := newPipeline(f, hd, LightingIndirect)
	require.NoError(t, err)

	var seen State
	var resizeErr error
	stages[StageZQuad].onRecord = func(*Frame) {
		seen = p.State()
		resizeErr = p.Resize(quarter)
	}
	require.NoError(t, p.Record(testParams(t), nil, nil))

	assert.Equal(t, StateRecording, seen)
	assert.ErrorIs(t, resizeErr, ErrNotReady)
	assert.Equal(t, StateReady, p.State())
	assert.Equal(t, hd, p.Size())
}

func TestStageErrorAbortsFrame(t *testing.T) {
	var calls []string
	f, stages := newFakes(&calls)
	boom := errors.New("boom")
	stages[StageZQuad].err = boom

	p, err := newPipeline(f, hd, LightingIndirect)
	require.NoError(t, err)

	err = p.Record(testParams(t), nil, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), StageZQuad)
	assert.Equal(t, []string{StageShadow, StageGBuffer, StageZQuad}, calls)
	assert.Equal(t, StateReady, p.State())
	assert.Equal(t, uint64(0), p.Frames())

	// the next frame records normally once the stage recovers
	stages[StageZQuad].err = nil
	calls = calls[:0]
	require.NoError(t, p.Record(testParams(t), nil, nil))
	assert.Len(t, calls, 5)
}

func TestRecordRequiresCameraAndLight(t *testing.T) {
	var calls []string
	f, _ := newFakes(&calls)
	p, err := newPipeline(f, hd, LightingIndirect)
	require.NoError(t, err)

	assert.Error(t, p.Record(FrameParams{}, nil, nil))
	assert.Empty(t, calls)
	assert.Equal(t, StateReady, p.State())
}

func TestResizeIsIdempotent(t *testing.T) {
	var calls []string
	f, _ := newFakes(&calls)
	p, err := newPipeline(f, hd, LightingIndirect)
	require.NoError(t, err)

	require.NoError(t, p.Resize(quarter))
	require.NoError(t, p.Resize(quarter))

	assert.Equal(t, []common.Size{hd, quarter}, f.builds)
	assert.Equal(t, 2, f.teardowns)
	assert.Equal(t, quarter, p.Size())
	assert.Equal(t, StateReady, p.State())
}

func TestResizeThenFrameUsesNewSize(t *testing.T) {
	var calls []string
	f, stages := newFakes(&calls)
	var frameSize common.Size
	stages[StagePost].onRecord = func(fr *Frame) {
		frameSize = fr.Size
	}

	p, err := newPipeline(f, hd, LightingIndirect)
	require.NoError(t, err)
	require.NoError(t, p.Resize(quarter))
	require.NoError(t, p.Record(testParams(t), nil, nil))
	assert.Equal(t, quarter, frameSize)
}

func TestResizeBarrier(t *testing.T) {
	var calls []string
	f, stages := newFakes(&calls)
	var frameSize common.Size
	stages[StageShadow].onRecord = func(fr *Frame) {
		frameSize = fr.Size
	}

	p, err := newPipeline(f, hd, LightingIndirect)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 1; i <= 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.RequestResize(common.Size{Width: uint32(100 * i), Height: 100})
		}()
	}
	wg.Wait()
	p.RequestResize(quarter)
	p.RequestResize(common.Size{})

	// nothing is applied until the render thread records
	assert.Equal(t, []common.Size{hd}, f.builds)
	assert.Equal(t, hd, p.Size())

	require.NoError(t, p.Record(testParams(t), nil, nil))
	assert.Equal(t, []common.Size{hd, quarter}, f.builds)
	assert.Equal(t, quarter, frameSize)

	applied, err := p.ApplyPendingResize()
	require.NoError(t, err)
	assert.False(t, applied)
}

func TestFailedBuildLeavesPipelineUninitialized(t *testing.T) {
	var calls []string
	f, _ := newFakes(&calls)
	p, err := newPipeline(f, hd, LightingIndirect)
	require.NoError(t, err)

	oom := errors.New("out of memory")
	f.failBuild = oom
	err = p.Resize(quarter)
	assert.ErrorIs(t, err, oom)
	assert.Equal(t, StateUninitialized, p.State())
	assert.ErrorIs(t, p.Record(testParams(t), nil, nil), ErrNotReady)
	assert.Empty(t, calls)

	f.failBuild = nil
	require.NoError(t, p.Resize(quarter))
	assert.Equal(t, StateReady, p.State())
	require.NoError(t, p.Record(testParams(t), nil, nil))
}

func TestResizeRejectsEmptySize(t *testing.T) {
	var calls []string
	f, _ := newFakes(&calls)
	_, err := newPipeline(f, common.Size{Width: 0, Height: 720}, LightingIndirect)
	assert.ErrorIs(t, err, ErrInvalidSize)
	assert.Empty(t, f.builds)
}

func TestReleaseStopsRecording(t *testing.T) {
	var calls []string
	f, _ := newFakes(&calls)
	p, err := newPipeline(f, hd, LightingIndirect)
	require.NoError(t, err)

	p.Release()
	assert.True(t, f.released)
	assert.Equal(t, StateUninitialized, p.State())
	assert.ErrorIs(t, p.Record(testParams(t), nil, nil), ErrNotReady)
	assert.Nil(t, p.ColorBuffer())
	assert.Nil(t, p.GBuffer())
	assert.Nil(t, p.QuadTree())
}

func TestLightingModeReachesFrame(t *testing.T) {
	var calls []string
	f, stages := newFakes(&calls)
	var modes []LightingMode
	var indices []uint64
	stages[StageLighting].onRecord = func(fr *Frame) {
		modes = append(modes, fr.Lighting)
		indices = append(indices, fr.Index)
	}

	p, err := newPipeline(f, hd, LightingIndirect)
	require.NoError(t, err)
	require.NoError(t, p.Record(testParams(t), nil, nil))
	p.SetLightingMode(p.LightingMode().Toggle())
	require.NoError(t, p.Record(testParams(t), nil, nil))

	assert.Equal(t, []LightingMode{LightingIndirect, LightingDirect}, modes)
	assert.Equal(t, []uint64{0, 1}, indices)
}

func TestParseLightingMode(t *testing.T) {
	for name, want := range map[string]LightingMode{
		"ssgi":     LightingIndirect,
		"SSGI":     LightingIndirect,
		"indirect": LightingIndirect,
		"direct":   LightingDirect,
	} {
		got, err := ParseLightingMode(name)
		require.NoError(t, err, name)
		assert.Equal(t, want, got, name)
	}
	_, err := ParseLightingMode("raytraced")
	assert.Error(t, err)
	assert.Equal(t, "direct", LightingDirect.String())
	assert.Equal(t, "recording", StateRecording.String())
}

package profiler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }

func TestTickReportsOncePerInterval(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	p := NewProfiler(WithClock(clock.now), WithInterval(time.Second))

	for i := 0; i < 59; i++ {
		clock.t = clock.t.Add(10 * time.Millisecond)
		assert.False(t, p.Tick())
	}

	clock.t = time.Unix(2, 0)
	assert.True(t, p.Tick())

	s := p.Last()
	assert.InDelta(t, 30, s.FPS, 1e-9)
	assert.InDelta(t, 2000.0/60, s.FrameTimeMS, 1e-9)
	assert.Greater(t, s.HeapMB, 0.0)

	clock.t = clock.t.Add(500 * time.Millisecond)
	assert.False(t, p.Tick(), "window restarts after a report")
}

func TestWithIntervalIgnoresNonPositive(t *testing.T) {
	p := NewProfiler(WithInterval(0))
	assert.Equal(t, time.Second, p.updateInterval)
}

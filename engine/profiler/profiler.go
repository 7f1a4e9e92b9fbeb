// Package profiler reports frame rate and Go heap statistics through the engine logger.
package profiler

import (
	"runtime"
	"time"

	"github.com/Carmen-Shannon/oxy-deferred/engine/logger"

	"go.uber.org/zap"
)

// Stats is one reporting window of the profiler.
type Stats struct {
	FPS         float64
	FrameTimeMS float64
	HeapMB      float64
	AllocRateMB float64
	SysMB       float64
	NumGC       uint32
	LastPauseUs uint64
	MaxPauseUs  uint64
}

// ProfilerOption is a functional option for NewProfiler.
type ProfilerOption func(*Profiler)

// WithInterval sets how often statistics are reported. Defaults to one second.
func WithInterval(d time.Duration) ProfilerOption {
	return func(p *Profiler) {
		if d > 0 {
			p.updateInterval = d
		}
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) ProfilerOption {
	return func(p *Profiler) {
		p.now = now
	}
}

// WithFields attaches constant fields, such as the lighting mode, to every report.
func WithFields(fields ...zap.Field) ProfilerOption {
	return func(p *Profiler) {
		p.fields = append(p.fields, fields...)
	}
}

// Profiler tracks frame rate and memory statistics for performance monitoring.
// Not safe for concurrent use; call Tick from the render loop only.
type Profiler struct {
	frameCount     int
	lastTime       time.Time
	updateInterval time.Duration
	memStats       runtime.MemStats
	lastGCCount    uint32
	lastTotalAlloc uint64

	now    func() time.Time
	fields []zap.Field
	last   Stats
}

// NewProfiler creates a new Profiler.
//
// Parameters:
//   - options: variadic ProfilerOption functions
//
// Returns:
//   - *Profiler: the newly created profiler instance
func NewProfiler(options ...ProfilerOption) *Profiler {
	p := &Profiler{
		updateInterval: time.Second,
		now:            time.Now,
	}
	for _, opt := range options {
		opt(p)
	}
	p.lastTime = p.now()
	return p
}

// Tick should be called once per presented frame. When the interval has
// elapsed it samples the runtime memory statistics and logs them at info level.
//
// Parameters:
//   - extra: fields appended to this report only
//
// Returns:
//   - bool: true if stats were logged this tick, false otherwise
func (p *Profiler) Tick(extra ...zap.Field) bool {
	p.frameCount++
	currentTime := p.now()
	elapsed := currentTime.Sub(p.lastTime)
	if elapsed < p.updateInterval {
		return false
	}

	runtime.ReadMemStats(&p.memStats)

	s := Stats{
		FPS:         float64(p.frameCount) / elapsed.Seconds(),
		FrameTimeMS: float64(elapsed.Milliseconds()) / float64(p.frameCount),
		HeapMB:      float64(p.memStats.Alloc) / 1024 / 1024,
		SysMB:       float64(p.memStats.Sys) / 1024 / 1024,
		AllocRateMB: float64(p.memStats.TotalAlloc-p.lastTotalAlloc) / 1024 / 1024 / elapsed.Seconds(),
		NumGC:       p.memStats.NumGC,
	}

	// PauseNs is a circular buffer of the last 256 pauses.
	if gc := p.memStats.NumGC; gc > 0 {
		s.LastPauseUs = p.memStats.PauseNs[(gc-1)%256] / 1000
		start := p.lastGCCount
		if gc-start > 256 {
			start = gc - 256
		}
		for i := start; i < gc; i++ {
			s.MaxPauseUs = max(s.MaxPauseUs, p.memStats.PauseNs[i%256]/1000)
		}
	}

	fields := append([]zap.Field{
		zap.Float64("fps", s.FPS),
		zap.Float64("frame_ms", s.FrameTimeMS),
		zap.Float64("heap_mb", s.HeapMB),
		zap.Float64("alloc_rate_mb_s", s.AllocRateMB),
		zap.Uint32("gc", s.NumGC),
		zap.Uint64("gc_last_us", s.LastPauseUs),
		zap.Uint64("gc_max_us", s.MaxPauseUs),
		zap.Float64("sys_mb", s.SysMB),
	}, p.fields...)
	logger.Info("frame stats", append(fields, extra...)...)

	p.last = s
	p.frameCount = 0
	p.lastTime = currentTime
	p.lastGCCount = s.NumGC
	p.lastTotalAlloc = p.memStats.TotalAlloc
	return true
}

// Last returns the most recently reported statistics.
func (p *Profiler) Last() Stats {
	return p.last
}

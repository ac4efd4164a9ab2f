package profiler

import (
	"runtime"
	"sync"
	"time"

	"github.com/Carmen-Shannon/oxy-cad/common"
)

// Stats is one profiling window.
type Stats struct {
	FPS         float64
	HeapMB      float64
	AllocRateMB float64
	SysMB       float64
	NumGC       uint32
	LastPauseUs uint64
	MaxPauseUs  uint64
}

// Profiler tracks frame rate and memory statistics of a render loop and logs them
// at a fixed interval. Tick is called by the loop goroutine, Last may be called from any goroutine.
type Profiler struct {
	name           string
	frameCount     int
	lastTime       time.Time
	updateInterval time.Duration
	memStats       runtime.MemStats
	lastGCCount    uint32
	lastTotalAlloc uint64

	mu   sync.Mutex
	last Stats
	ok   bool
}

// NewProfiler creates a Profiler for the named loop. A non-positive interval defaults to one second.
//
// Parameters:
//   - name: the loop name used in log output
//   - interval: how often stats are computed
//
// Returns:
//   - *Profiler: the newly created profiler instance
func NewProfiler(name string, interval time.Duration) *Profiler {
	if interval <= 0 {
		interval = time.Second
	}
	return &Profiler{
		name:           name,
		lastTime:       time.Now(),
		updateInterval: interval,
	}
}

// Tick should be called once per frame.
// When the update interval has elapsed it computes FPS, heap usage, allocation rate and
// GC pauses, logs them at debug level and stores them for Last.
//
// Returns:
//   - bool: true if stats were computed this tick
func (p *Profiler) Tick() bool {
	p.frameCount++
	now := time.Now()
	elapsed := now.Sub(p.lastTime)
	if elapsed < p.updateInterval {
		return false
	}

	runtime.ReadMemStats(&p.memStats)
	s := Stats{
		FPS:         float64(p.frameCount) / elapsed.Seconds(),
		HeapMB:      float64(p.memStats.Alloc) / 1024 / 1024,
		SysMB:       float64(p.memStats.Sys) / 1024 / 1024,
		AllocRateMB: float64(p.memStats.TotalAlloc-p.lastTotalAlloc) / 1024 / 1024 / elapsed.Seconds(),
		NumGC:       p.memStats.NumGC,
	}
	if s.NumGC > 0 {
		// PauseNs is a circular buffer of the last 256 pauses
		s.LastPauseUs = p.memStats.PauseNs[(s.NumGC-1)%256] / 1000
		start := p.lastGCCount
		if s.NumGC-start > 256 {
			start = s.NumGC - 256
		}
		for i := start; i < s.NumGC; i++ {
			s.MaxPauseUs = max(s.MaxPauseUs, p.memStats.PauseNs[i%256]/1000)
		}
	}

	common.Logger().Debug("profiler",
		"loop", p.name,
		"fps", s.FPS,
		"heap_mb", s.HeapMB,
		"alloc_rate_mb", s.AllocRateMB,
		"gc", s.NumGC,
		"gc_last_us", s.LastPauseUs,
		"gc_max_us", s.MaxPauseUs,
		"sys_mb", s.SysMB,
	)

	p.mu.Lock()
	p.last, p.ok = s, true
	p.mu.Unlock()

	p.frameCount = 0
	p.lastTime = now
	p.lastGCCount = s.NumGC
	p.lastTotalAlloc = p.memStats.TotalAlloc
	return true
}

// Last returns the most recent stats.
//
// Returns:
//   - Stats: the last computed window
//   - bool: false until the first window completes
func (p *Profiler) Last() (Stats, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.last, p.ok
}

// Package profiler reports frame timing and memory statistics for the
// visualization harness loop.
package profiler

import (
	"log"
	"runtime"
	"time"
)

// Profiler tracks frame rate, frame time spread and memory statistics.
// Outputs stats to the log at a configurable interval. Tick from exactly one
// goroutine, once per presented frame.
type Profiler struct {
	frameCount     int
	lastTime       time.Time
	lastFrameTime  time.Time
	minFrame       time.Duration
	maxFrame       time.Duration
	updateInterval time.Duration
	memStats       runtime.MemStats
	lastGCCount    uint32
	lastTotalAlloc uint64
}

// NewProfiler creates a new Profiler. The log interval defaults to 1 second.
//
// Returns:
//   - *Profiler: the newly created profiler instance
func NewProfiler() *Profiler {
	now := time.Now()
	return &Profiler{
		lastTime:       now,
		lastFrameTime:  now,
		updateInterval: time.Second,
	}
}

// SetInterval overrides how often accumulated stats are logged.
//
// Parameters:
//   - interval: the new log interval; must be > 0
func (p *Profiler) SetInterval(interval time.Duration) {
	if interval <= 0 {
		panic("profiler: interval must be positive")
	}
	p.updateInterval = interval
}

// Tick records one presented frame and logs accumulated statistics when the
// update interval has elapsed: FPS, frame time spread, heap usage, allocation
// rate and GC pauses.
//
// Returns:
//   - bool: true if stats were logged this tick, false otherwise
func (p *Profiler) Tick() bool {
	currentTime := time.Now()

	frameTime := currentTime.Sub(p.lastFrameTime)
	p.lastFrameTime = currentTime
	if p.frameCount == 0 || frameTime < p.minFrame {
		p.minFrame = frameTime
	}
	if frameTime > p.maxFrame {
		p.maxFrame = frameTime
	}
	p.frameCount++

	elapsed := currentTime.Sub(p.lastTime)
	if elapsed < p.updateInterval {
		return false
	}

	fps := float64(p.frameCount) / elapsed.Seconds()
	avgMs := elapsed.Seconds() * 1000 / float64(p.frameCount)

	runtime.ReadMemStats(&p.memStats)
	heapMB := float64(p.memStats.Alloc) / 1024 / 1024
	allocDelta := p.memStats.TotalAlloc - p.lastTotalAlloc
	allocRateMB := float64(allocDelta) / 1024 / 1024 / elapsed.Seconds()

	// PauseNs is a circular buffer of the last 256 GC pauses.
	gcCount := p.memStats.NumGC
	var maxPauseUs uint64
	if gcCount > 0 {
		startIdx := p.lastGCCount
		if gcCount-startIdx > 256 {
			startIdx = gcCount - 256
		}
		for i := startIdx; i < gcCount; i++ {
			pause := p.memStats.PauseNs[i%256] / 1000
			if pause > maxPauseUs {
				maxPauseUs = pause
			}
		}
	}

	log.Printf("[Profiler] FPS: %.2f | Frame: %.2f ms (min %.2f, max %.2f) | Heap: %.2f MB | Alloc Rate: %.2f MB/s | GC: %d (max pause: %d µs)",
		fps, avgMs,
		p.minFrame.Seconds()*1000, p.maxFrame.Seconds()*1000,
		heapMB, allocRateMB, gcCount, maxPauseUs)

	p.frameCount = 0
	p.minFrame = 0
	p.maxFrame = 0
	p.lastTime = currentTime
	p.lastGCCount = gcCount
	p.lastTotalAlloc = p.memStats.TotalAlloc
	return true
}

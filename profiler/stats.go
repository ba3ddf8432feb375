package profiler

import (
	"runtime"
	"time"
)

// Stats is a point-in-time copy of everything the profiler tracks.
type Stats struct {
	Uptime     time.Duration             `json:"uptime"`
	FPS        float64                   `json:"fps"`
	Goroutines int                       `json:"goroutines"`
	Memory     MemoryStats               `json:"memory"`
	Operations map[string]OperationStats `json:"operations"`
	Metrics    map[string]MetricStats    `json:"metrics"`
}

// MemoryStats is the subset of runtime.MemStats the profiler reports.
type MemoryStats struct {
	Alloc       uint64  `json:"alloc"`
	TotalAlloc  uint64  `json:"total_alloc"`
	Sys         uint64  `json:"sys"`
	HeapAlloc   uint64  `json:"heap_alloc"`
	HeapObjects uint64  `json:"heap_objects"`
	GCCycles    uint32  `json:"gc_cycles"`
	GCCPU       float64 `json:"gc_cpu_fraction"`
}

// OperationStats summarizes the retained samples of one operation.
type OperationStats struct {
	Avg   time.Duration `json:"avg"`
	Min   time.Duration `json:"min"`
	Max   time.Duration `json:"max"`
	Last  time.Duration `json:"last"`
	Count int64         `json:"count"`
}

// MetricStats summarizes the retained samples of one custom metric.
type MetricStats struct {
	Avg     float64 `json:"avg"`
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
	Last    float64 `json:"last"`
	Samples int     `json:"samples"`
}

// Snapshot returns the current profiling statistics. Memory figures are as of
// the last sample.
func (rp *RuntimeProfiler) Snapshot() Stats {
	if rp == nil {
		return Stats{Operations: map[string]OperationStats{}, Metrics: map[string]MetricStats{}}
	}
	rp.mu.RLock()
	defer rp.mu.RUnlock()

	stats := Stats{
		Uptime:     rp.clock.Since(rp.startTime),
		FPS:        rp.fps.Rate(),
		Goroutines: runtime.NumGoroutine(),
		Memory: MemoryStats{
			Alloc:       rp.memStats.Alloc,
			TotalAlloc:  rp.memStats.TotalAlloc,
			Sys:         rp.memStats.Sys,
			HeapAlloc:   rp.memStats.HeapAlloc,
			HeapObjects: rp.memStats.HeapObjects,
			GCCycles:    rp.memStats.NumGC,
			GCCPU:       rp.memStats.GCCPUFraction,
		},
		Operations: make(map[string]OperationStats, len(rp.operationTimes)),
		Metrics:    make(map[string]MetricStats, len(rp.customMetrics)),
	}

	for name, tracker := range rp.operationTimes {
		if n := len(tracker.durations); n > 0 {
			stats.Operations[name] = OperationStats{
				Avg:   tracker.totalTime / time.Duration(n),
				Min:   tracker.minTime,
				Max:   tracker.maxTime,
				Last:  tracker.durations[n-1],
				Count: tracker.count,
			}
		}
	}
	for name, tracker := range rp.customMetrics {
		if n := len(tracker.values); n > 0 {
			stats.Metrics[name] = MetricStats{
				Avg:     tracker.sum / float64(n),
				Min:     tracker.min,
				Max:     tracker.max,
				Last:    tracker.values[n-1],
				Samples: n,
			}
		}
	}
	return stats
}

package monitoring

import (
	"runtime"
	"time"
)

// RuntimeStats is a point-in-time view of process memory and scheduling
type RuntimeStats struct {
	HeapAllocBytes uint64  `json:"heap_alloc_bytes"`
	HeapInuseBytes uint64  `json:"heap_inuse_bytes"`
	SysBytes       uint64  `json:"sys_bytes"`
	HeapObjects    uint64  `json:"heap_objects"`
	NumGC          uint32  `json:"num_gc"`
	GCCPUFraction  float64 `json:"gc_cpu_fraction"`
	LastGCPauseMs  float64 `json:"last_gc_pause_ms"`
	NumGoroutine   int     `json:"num_goroutine"`
}

// ReadRuntimeStats samples the Go runtime. ReadMemStats stops the world
// briefly, so this is for the metrics endpoint, not the request path.
func ReadRuntimeStats() RuntimeStats {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	var lastPause time.Duration
	if m.NumGC > 0 {
		lastPause = time.Duration(m.PauseNs[(m.NumGC+255)%256])
	}

	return RuntimeStats{
		HeapAllocBytes: m.HeapAlloc,
		HeapInuseBytes: m.HeapInuse,
		SysBytes:       m.Sys,
		HeapObjects:    m.HeapObjects,
		NumGC:          m.NumGC,
		GCCPUFraction:  m.GCCPUFraction,
		LastGCPauseMs:  float64(lastPause) / 1e6,
		NumGoroutine:   runtime.NumGoroutine(),
	}
}

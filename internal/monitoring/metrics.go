package monitoring

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

const maxResponseSamples = 1000

// Metrics holds application metrics
type Metrics struct {
	RequestCount        int64
	ErrorCount          int64
	CacheHits           int64
	CacheMisses         int64
	ModelCalls          int64
	ModelErrors         int64
	RateLimitIPBlocks   int64
	RateLimitFallback   int64
	RateLimitRedisError int64
	TotalResponseTime   int64 // in nanoseconds
	ResponseCount       int64
	StartTime           time.Time

	ResponseTimes      []time.Duration
	ResponseTimesMutex sync.RWMutex

	RequestCountByStatus map[int]int64
	StatusMutex          sync.RWMutex

	AssessmentsByLevel map[string]int64
	LevelMutex         sync.RWMutex
}

// NewMetrics creates a new metrics instance
func NewMetrics() *Metrics {
	return &Metrics{
		StartTime:            time.Now(),
		ResponseTimes:        make([]time.Duration, 0, maxResponseSamples),
		RequestCountByStatus: make(map[int]int64),
		AssessmentsByLevel:   make(map[string]int64),
	}
}

func (m *Metrics) IncrementRequest() { atomic.AddInt64(&m.RequestCount, 1) }
func (m *Metrics) IncrementError() { atomic.AddInt64(&m.ErrorCount, 1) }
func (m *Metrics) IncrementCacheHit() { atomic.AddInt64(&m.CacheHits, 1) }
func (m *Metrics) IncrementCacheMiss() { atomic.AddInt64(&m.CacheMisses, 1) }
func (m *Metrics) IncrementRateLimitIPBlock() { atomic.AddInt64(&m.RateLimitIPBlocks, 1) }
func (m *Metrics) IncrementRateLimitFallback() { atomic.AddInt64(&m.RateLimitFallback, 1) }
func (m *Metrics) IncrementRateLimitRedisError() { atomic.AddInt64(&m.RateLimitRedisError, 1) }

// RecordModelCall counts one inference and whether it failed
func (m *Metrics) RecordModelCall(success bool) {
	atomic.AddInt64(&m.ModelCalls, 1)
	if !success {
		atomic.AddInt64(&m.ModelErrors, 1)
	}
}

// RecordAssessment counts a completed assessment by risk level
func (m *Metrics) RecordAssessment(level string) {
	m.LevelMutex.Lock()
	defer m.LevelMutex.Unlock()
	m.AssessmentsByLevel[level]++
}

// RecordResponseTime records response time for averaging and percentiles
func (m *Metrics) RecordResponseTime(duration time.Duration) {
	atomic.AddInt64(&m.TotalResponseTime, duration.Nanoseconds())
	atomic.AddInt64(&m.ResponseCount, 1)

	m.ResponseTimesMutex.Lock()
	m.ResponseTimes = append(m.ResponseTimes, duration)
	if len(m.ResponseTimes) > maxResponseSamples {
		m.ResponseTimes = m.ResponseTimes[1:]
	}
	m.ResponseTimesMutex.Unlock()
}

// AverageResponseTime is the mean of every recorded response time
func (m *Metrics) AverageResponseTime() time.Duration {
	count := atomic.LoadInt64(&m.ResponseCount)
	if count == 0 {
		return 0
	}
	return time.Duration(atomic.LoadInt64(&m.TotalResponseTime) / count)
}

// RecordRequestByStatus records request count by HTTP status code
func (m *Metrics) RecordRequestByStatus(statusCode int) {
	m.StatusMutex.Lock()
	defer m.StatusMutex.Unlock()
	m.RequestCountByStatus[statusCode]++
}

// GetPercentileResponseTime calculates percentile response time
func (m *Metrics) GetPercentileResponseTime(percentile float64) time.Duration {
	m.ResponseTimesMutex.RLock()
	times := make([]time.Duration, len(m.ResponseTimes))
	copy(times, m.ResponseTimes)
	m.ResponseTimesMutex.RUnlock()

	if len(times) == 0 {
		return 0
	}

	sort.Slice(times, func(i, j int) bool {
		return times[i] < times[j]
	})

	index := int(float64(len(times)-1) * percentile / 100.0)
	if index >= len(times) {
		index = len(times) - 1
	}

	return times[index]
}

// GetStatusCodeDistribution returns request count by status code
func (m *Metrics) GetStatusCodeDistribution() map[int]int64 {
	m.StatusMutex.RLock()
	defer m.StatusMutex.RUnlock()

	distribution := make(map[int]int64, len(m.RequestCountByStatus))
	for code, count := range m.RequestCountByStatus {
		distribution[code] = count
	}
	return distribution
}

// GetLevelDistribution returns assessment count by risk level
func (m *Metrics) GetLevelDistribution() map[string]int64 {
	m.LevelMutex.RLock()
	defer m.LevelMutex.RUnlock()

	distribution := make(map[string]int64, len(m.AssessmentsByLevel))
	for level, count := range m.AssessmentsByLevel {
		distribution[level] = count
	}
	return distribution
}

// GetStats returns current metrics statistics
func (m *Metrics) GetStats() map[string]interface{} {
	requests := atomic.LoadInt64(&m.RequestCount)
	errors := atomic.LoadInt64(&m.ErrorCount)
	cacheHits := atomic.LoadInt64(&m.CacheHits)
	cacheMisses := atomic.LoadInt64(&m.CacheMisses)
	modelCalls := atomic.LoadInt64(&m.ModelCalls)
	modelErrors := atomic.LoadInt64(&m.ModelErrors)

	errorRate := float64(0)
	if requests > 0 {
		errorRate = float64(errors) / float64(requests) * 100
	}

	cacheHitRate := float64(0)
	if total := cacheHits + cacheMisses; total > 0 {
		cacheHitRate = float64(cacheHits) / float64(total) * 100
	}

	return map[string]interface{}{
		"uptime_seconds":         time.Since(m.StartTime).Seconds(),
		"total_requests":         requests,
		"error_count":            errors,
		"error_rate_percent":     errorRate,
		"cache_hits":             cacheHits,
		"cache_misses":           cacheMisses,
		"cache_hit_rate_percent": cacheHitRate,
		"model_calls":            modelCalls,
		"model_errors":           modelErrors,
		"avg_response_time_ms":   float64(m.AverageResponseTime()) / 1e6,
		"start_time":             m.StartTime.Format(time.RFC3339),

		"p50_response_time_ms":     float64(m.GetPercentileResponseTime(50)) / 1e6,
		"p95_response_time_ms":     float64(m.GetPercentileResponseTime(95)) / 1e6,
		"p99_response_time_ms":     float64(m.GetPercentileResponseTime(99)) / 1e6,
		"status_code_distribution": m.GetStatusCodeDistribution(),
		"assessments_by_level":     m.GetLevelDistribution(),

		"rate_limit_ip_blocks":   atomic.LoadInt64(&m.RateLimitIPBlocks),
		"rate_limit_fallback":    atomic.LoadInt64(&m.RateLimitFallback),
		"rate_limit_redis_error": atomic.LoadInt64(&m.RateLimitRedisError),

		"runtime": ReadRuntimeStats(),
	}
}

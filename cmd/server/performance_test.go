package main

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func riskBody(i int) string {
	times := []string{"morning", "afternoon", "evening", "night"}
	return fmt.Sprintf(`{"temperature":%d,"rainfall":%d,"visibility":%d,"distance":%d,"time_of_day":%q,"experience":%d}`,
		5+i%30, i%10, 1+i%20, 10*(i%40), times[i%4], i%15)
}

func TestPredictRisk_LoadTest(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping load test in short mode")
	}

	r := setupRouter(t)

	const numRequests = 200
	const numConcurrent = 10

	type result struct {
		duration time.Duration
		status   int
	}
	results := make(chan result, numRequests)

	var wg sync.WaitGroup
	for worker := 0; worker < numConcurrent; worker++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			for j := 0; j < numRequests/numConcurrent; j++ {
				start := time.Now()
				w := httptest.NewRecorder()
				req := httptest.NewRequest(http.MethodPost, "/api/v1/risk/predict-risk", strings.NewReader(riskBody(worker*100+j)))
				req.Header.Set("Content-Type", "application/json")
				r.ServeHTTP(w, req)
				results <- result{time.Since(start), w.Code}
			}
		}(worker)
	}
	wg.Wait()
	close(results)

	durations := make([]time.Duration, 0, numRequests)
	successCount := 0
	for res := range results {
		durations = append(durations, res.duration)
		if res.status == http.StatusOK {
			successCount++
		}
	}

	sort.Slice(durations, func(i, j int) bool { return durations[i] < durations[j] })
	p := calculatePercentiles(durations, 0.50, 0.95, 0.99)

	t.Logf("Load test results:")
	t.Logf("  Total requests: %d", numRequests)
	t.Logf("  Successful responses: %d", successCount)
	t.Logf("  P50: %v", p[0])
	t.Logf("  P95: %v", p[1])
	t.Logf("  P99: %v", p[2])

	assert.Equal(t, numRequests, successCount, "All requests should succeed")
	assert.True(t, p[1] < 100*time.Millisecond, "95th percentile should be under 100ms")
}

func BenchmarkPredictRisk(b *testing.B) {
	r := setupRouter(b)
	body := riskBody(7)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/risk/predict-risk", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		r.ServeHTTP(w, req)
	}
}

func calculatePercentiles(durations []time.Duration, percentiles ...float64) []time.Duration {
	results := make([]time.Duration, len(percentiles))
	if len(durations) == 0 {
		return results
	}

	for i, p := range percentiles {
		index := int(float64(len(durations)-1) * p)
		if index >= len(durations) {
			index = len(durations) - 1
		}
		results[i] = durations[index]
	}

	return results
}

package ratelimit

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-redis/redis_rate/v10"
	"golang.org/x/time/rate"

	"github.com/ZanzyTHEbar/moto-risk/internal/monitoring"
)

// Config holds rate limiter configuration
type Config struct {
	IPLimitPerMin int // requests per IP per minute; 0 disables limiting
}

// DefaultConfig returns default rate limiting configuration
func DefaultConfig() Config {
	return Config{IPLimitPerMin: 60}
}

// Result represents the result of a rate limit check
type Result struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetAt    time.Time
	RetryAfter time.Duration
}

type fallbackEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter limits requests per key using Redis when available and
// in-process token buckets otherwise
type RateLimiter struct {
	redisLimiter *redis_rate.Limiter
	redisClient  *RedisClient
	config       Config
	metrics      *monitoring.Metrics

	fallbackMutex    sync.Mutex
	fallbackLimiters map[string]*fallbackEntry

	stop     chan struct{}
	stopOnce sync.Once
}

// NewRateLimiter creates a rate limiter. redisClient may be nil.
func NewRateLimiter(redisClient *RedisClient, config Config, metrics *monitoring.Metrics) *RateLimiter {
	rl := &RateLimiter{
		redisClient:      redisClient,
		config:           config,
		metrics:          metrics,
		fallbackLimiters: make(map[string]*fallbackEntry),
		stop:             make(chan struct{}),
	}

	if redisClient.Enabled() {
		rl.redisLimiter = redis_rate.NewLimiter(redisClient.client)
		slog.Info("Redis rate limiter initialized")
	} else {
		slog.Info("Using in-memory rate limiting")
	}

	go rl.cleanupFallbackLimiters(10 * time.Minute)

	return rl
}

// Enabled reports whether any limit is configured
func (rl *RateLimiter) Enabled() bool {
	return rl.config.IPLimitPerMin > 0
}

// AllowIP checks the per-minute limit for an IP address
func (rl *RateLimiter) AllowIP(ctx context.Context, ip string) (*Result, error) {
	key := fmt.Sprintf("ratelimit:ip:%s", ip)
	return rl.allow(ctx, key, rl.config.IPLimitPerMin, time.Minute)
}

func (rl *RateLimiter) allow(ctx context.Context, key string, limit int, period time.Duration) (*Result, error) {
	if rl.redisLimiter != nil {
		result, err := rl.allowRedis(ctx, key, limit, period)
		if err == nil {
			return result, nil
		}

		slog.Warn("Redis rate limit check failed, using fallback", "key", key, "error", err)
		if rl.metrics != nil {
			rl.metrics.IncrementRateLimitRedisError()
		}
	}

	if rl.metrics != nil {
		rl.metrics.IncrementRateLimitFallback()
	}
	return rl.allowFallback(key, limit, period), nil
}

func (rl *RateLimiter) allowRedis(ctx context.Context, key string, limit int, period time.Duration) (*Result, error) {
	res, err := rl.redisLimiter.Allow(ctx, key, redis_rate.Limit{
		Rate:   limit,
		Burst:  limit,
		Period: period,
	})
	if err != nil {
		return nil, fmt.Errorf("redis rate limit check failed: %w", err)
	}

	return &Result{
		Allowed:    res.Allowed > 0,
		Limit:      res.Limit.Rate,
		Remaining:  res.Remaining,
		ResetAt:    time.Now().Add(res.ResetAfter),
		RetryAfter: res.RetryAfter,
	}, nil
}

// allowFallback uses a token bucket holding at most limit tokens, refilled evenly over period
func (rl *RateLimiter) allowFallback(key string, limit int, period time.Duration) *Result {
	now := time.Now()

	rl.fallbackMutex.Lock()
	entry, exists := rl.fallbackLimiters[key]
	if !exists {
		entry = &fallbackEntry{
			limiter: rate.NewLimiter(rate.Limit(float64(limit)/period.Seconds()), limit),
		}
		rl.fallbackLimiters[key] = entry
	}
	entry.lastSeen = now
	rl.fallbackMutex.Unlock()

	result := &Result{
		Allowed: entry.limiter.AllowN(now, 1),
		Limit:   limit,
		ResetAt: now.Add(period),
	}

	remaining := int(entry.limiter.TokensAt(now))
	if remaining < 0 {
		remaining = 0
	}
	result.Remaining = remaining

	if !result.Allowed {
		r := entry.limiter.ReserveN(now, 1)
		result.RetryAfter = r.DelayFrom(now)
		r.CancelAt(now)
		result.ResetAt = now.Add(result.RetryAfter)
	}

	return result
}

func (rl *RateLimiter) cleanupFallbackLimiters(idle time.Duration) {
	ticker := time.NewTicker(idle)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			cutoff := time.Now().Add(-idle)
			rl.fallbackMutex.Lock()
			for key, entry := range rl.fallbackLimiters {
				if entry.lastSeen.Before(cutoff) {
					delete(rl.fallbackLimiters, key)
				}
			}
			rl.fallbackMutex.Unlock()
		case <-rl.stop:
			return
		}
	}
}

// GetStats returns rate limiter statistics
func (rl *RateLimiter) GetStats() map[string]interface{} {
	rl.fallbackMutex.Lock()
	fallbackCount := len(rl.fallbackLimiters)
	rl.fallbackMutex.Unlock()

	return map[string]interface{}{
		"ip_limit_per_min":  rl.config.IPLimitPerMin,
		"redis_enabled":     rl.redisClient.Enabled(),
		"redis_pool":        rl.redisClient.PoolStats(),
		"fallback_limiters": fallbackCount,
	}
}

// Health describes the limiter's backing store
type Health struct {
	Backend string `json:"backend"`
	Healthy bool   `json:"healthy"`
	Error   string `json:"error,omitempty"`
}

// Health pings Redis when it backs the limiter. An unhealthy Redis still
// limits through the in-process buckets.
func (rl *RateLimiter) Health(ctx context.Context) Health {
	if !rl.redisClient.Enabled() {
		return Health{Backend: "memory", Healthy: true}
	}

	if err := rl.redisClient.Ping(ctx); err != nil {
		return Health{Backend: "redis", Healthy: false, Error: err.Error()}
	}
	return Health{Backend: "redis", Healthy: true}
}

// Close stops background cleanup
func (rl *RateLimiter) Close() {
	rl.stopOnce.Do(func() { close(rl.stop) })
}

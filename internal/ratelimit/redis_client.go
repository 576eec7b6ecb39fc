package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrRedisDisabled is returned by health checks when no Redis is configured
var ErrRedisDisabled = errors.New("redis is not configured")

// RedisConfig selects the Redis instance shared by every replica's limiter.
// An empty Addr keeps limiting in-process.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// RedisClient is the shared counter store for rate limiting. A nil
// *RedisClient is valid and reports itself disabled.
type RedisClient struct {
	client *redis.Client
	addr   string
}

// NewRedisClient connects and pings Redis. It returns (nil, nil) when cfg.Addr
// is empty and (nil, err) when the server cannot be reached.
func NewRedisClient(ctx context.Context, cfg RedisConfig) (*RedisClient, error) {
	if cfg.Addr == "" {
		return nil, nil
	}

	client := newRedis(cfg, 5*time.Second)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", cfg.Addr, err)
	}

	slog.Info("Redis rate limit store connected", "addr", cfg.Addr, "db", cfg.DB)
	return &RedisClient{client: client, addr: cfg.Addr}, nil
}

func newRedis(cfg RedisConfig, dialTimeout time.Duration) *redis.Client {
	// Timeouts are short; a slow Redis falls through to the in-process buckets
	return redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		MaxRetries:   1,
		DialTimeout:  dialTimeout,
		ReadTimeout:  500 * time.Millisecond,
		WriteTimeout: 500 * time.Millisecond,
		PoolSize:     10,
		MinIdleConns: 2,
		PoolTimeout:  time.Second,
	})
}

// Enabled reports whether a Redis connection is configured
func (r *RedisClient) Enabled() bool {
	return r != nil && r.client != nil
}

// Ping checks the connection
func (r *RedisClient) Ping(ctx context.Context) error {
	if !r.Enabled() {
		return ErrRedisDisabled
	}
	return r.client.Ping(ctx).Err()
}

// Close closes the connection pool
func (r *RedisClient) Close() error {
	if !r.Enabled() {
		return nil
	}
	return r.client.Close()
}

// PoolStats summarises the connection pool for the metrics endpoint
func (r *RedisClient) PoolStats() map[string]interface{} {
	if !r.Enabled() {
		return map[string]interface{}{"enabled": false}
	}

	stats := r.client.PoolStats()
	return map[string]interface{}{
		"enabled":     true,
		"addr":        r.addr,
		"hits":        stats.Hits,
		"misses":      stats.Misses,
		"timeouts":    stats.Timeouts,
		"total_conns": stats.TotalConns,
		"idle_conns":  stats.IdleConns,
		"stale_conns": stats.StaleConns,
	}
}

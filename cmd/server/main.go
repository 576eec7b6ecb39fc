package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	_ "github.com/ZanzyTHEbar/moto-risk/docs"
	"github.com/ZanzyTHEbar/moto-risk/internal/api"
	"github.com/ZanzyTHEbar/moto-risk/internal/cache"
	"github.com/ZanzyTHEbar/moto-risk/internal/errors"
	"github.com/ZanzyTHEbar/moto-risk/internal/model"
	"github.com/ZanzyTHEbar/moto-risk/internal/monitoring"
	"github.com/ZanzyTHEbar/moto-risk/internal/ratelimit"
	"github.com/ZanzyTHEbar/moto-risk/internal/resilience"
)

// config is read once from the environment at startup
type config struct {
	Port            string
	ModelPath       string
	ModelEndpoint   string
	ModelTimeout    time.Duration
	ModelAttempts   int
	CacheTTL        time.Duration
	CacheMaxEntries int
	RateLimit       int
	Redis           ratelimit.RedisConfig
	CORSOrigins     []string
	TrustedProxies  []string
	AlertInterval   time.Duration
}

// @title        Motorcycle Risk API
// @version      1.0
// @description  Scores the risk of a planned motorcycle ride from weather, route and rider experience.
// @BasePath     /
func main() {
	// Structured logging setup
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: monitoring.LevelFromEnv(),
	}))
	slog.SetDefault(logger)

	cfg, err := loadConfig()
	if err != nil {
		slog.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	if mode := os.Getenv("GIN_MODE"); mode != "" {
		gin.SetMode(mode)
	}

	appMetrics := monitoring.NewMetrics()
	appLogger := monitoring.NewLogger()

	predictor, err := loadModel(cfg)
	if err != nil {
		appErr := errors.NewConfigurationError("Failed to load risk model", err)
		slog.Error(appErr.Error(), "error", err, "model_path", cfg.ModelPath, "model_endpoint", cfg.ModelEndpoint)
		os.Exit(1)
	}
	appLogger.ModelLogger(predictor.Kind(), predictor.Version(), 0, nil)

	// Redis is optional; the limiter falls back to in-memory buckets
	redisClient, err := ratelimit.NewRedisClient(context.Background(), cfg.Redis)
	if err != nil {
		slog.Warn("Redis unavailable, using in-memory rate limiting", "error", err)
	}

	limiter := ratelimit.NewRateLimiter(redisClient, ratelimit.Config{IPLimitPerMin: cfg.RateLimit}, appMetrics)
	appCache := cache.NewCache(cfg.CacheTTL, cfg.CacheMaxEntries, appMetrics)

	alerts := monitoring.NewAlertManager(appLogger)
	for _, rule := range monitoring.DefaultAlertRules() {
		alerts.AddRule(rule)
	}

	r := api.NewRouter(api.Deps{
		Model:          predictor,
		Metrics:        appMetrics,
		Logger:         appLogger,
		Cache:          appCache,
		RateLimiter:    limiter,
		Alerts:         alerts,
		CORSOrigins:    cfg.CORSOrigins,
		TrustedProxies: cfg.TrustedProxies,
	})

	alertCtx, stopAlerts := context.WithCancel(context.Background())
	go alerts.Start(alertCtx, cfg.AlertInterval)

	// Start server with graceful shutdown
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("Starting server", "port", cfg.Port, "model_kind", predictor.Kind(), "model_version", predictor.Version())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	stopAlerts()
	limiter.Close()
	appCache.Close()
	errors.SafeClose(redisClient, "redis")

	slog.Info("Server exited")
}

func loadConfig() (config, error) {
	cfg := config{
		Port:          getEnvOrDefault("PORT", "8080"),
		ModelPath:     getEnvOrDefault("MODEL_PATH", "models/risk_model.json"),
		ModelEndpoint: os.Getenv("MODEL_ENDPOINT"),
		Redis: ratelimit.RedisConfig{
			Addr:     os.Getenv("REDIS_ADDR"),
			Password: os.Getenv("REDIS_PASSWORD"),
		},
	}

	var err error
	if cfg.ModelTimeout, err = time.ParseDuration(getEnvOrDefault("MODEL_TIMEOUT", "2s")); err != nil {
		return cfg, fmt.Errorf("MODEL_TIMEOUT: %w", err)
	}
	if cfg.ModelAttempts, err = strconv.Atoi(getEnvOrDefault("MODEL_MAX_ATTEMPTS", "2")); err != nil {
		return cfg, fmt.Errorf("MODEL_MAX_ATTEMPTS: %w", err)
	}
	if cfg.CacheTTL, err = time.ParseDuration(getEnvOrDefault("CACHE_TTL", "15m")); err != nil {
		return cfg, fmt.Errorf("CACHE_TTL: %w", err)
	}
	if cfg.CacheMaxEntries, err = strconv.Atoi(getEnvOrDefault("CACHE_MAX_ENTRIES", strconv.Itoa(cache.DefaultMaxEntries))); err != nil {
		return cfg, fmt.Errorf("CACHE_MAX_ENTRIES: %w", err)
	}
	defaultLimit := strconv.Itoa(ratelimit.DefaultConfig().IPLimitPerMin)
	if cfg.RateLimit, err = strconv.Atoi(getEnvOrDefault("RATE_LIMIT_PER_MIN", defaultLimit)); err != nil {
		return cfg, fmt.Errorf("RATE_LIMIT_PER_MIN: %w", err)
	}
	if cfg.Redis.DB, err = strconv.Atoi(getEnvOrDefault("REDIS_DB", "0")); err != nil {
		return cfg, fmt.Errorf("REDIS_DB: %w", err)
	}
	if cfg.AlertInterval, err = time.ParseDuration(getEnvOrDefault("ALERT_INTERVAL", "30s")); err != nil {
		return cfg, fmt.Errorf("ALERT_INTERVAL: %w", err)
	}
	if cfg.AlertInterval <= 0 {
		return cfg, fmt.Errorf("ALERT_INTERVAL: must be positive, got %s", cfg.AlertInterval)
	}

	cfg.CORSOrigins = splitList(getEnvOrDefault("CORS_ORIGINS", "*"))

	// Without TRUSTED_PROXIES the client IP is the socket peer and
	// X-Forwarded-For is ignored
	for _, proxy := range splitList(os.Getenv("TRUSTED_PROXIES")) {
		if net.ParseIP(proxy) == nil {
			if _, _, err := net.ParseCIDR(proxy); err != nil {
				return cfg, fmt.Errorf("TRUSTED_PROXIES: %q is not an IP or CIDR", proxy)
			}
		}
		cfg.TrustedProxies = append(cfg.TrustedProxies, proxy)
	}

	return cfg, nil
}

func splitList(value string) []string {
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// loadModel prefers a remote inference endpoint when one is configured
func loadModel(cfg config) (model.Loaded, error) {
	if cfg.ModelEndpoint != "" {
		breaker := resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
			FailureThreshold: 5,
			RecoveryTimeout:  30 * time.Second,
		})
		retry := resilience.DefaultRetryConfig()
		retry.MaxAttempts = cfg.ModelAttempts
		return model.NewRemote(cfg.ModelEndpoint, cfg.ModelTimeout, breaker).WithRetry(retry), nil
	}

	return model.Load(cfg.ModelPath)
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

package main

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZanzyTHEbar/moto-risk/internal/api"
	"github.com/ZanzyTHEbar/moto-risk/internal/cache"
	"github.com/ZanzyTHEbar/moto-risk/internal/model"
	"github.com/ZanzyTHEbar/moto-risk/internal/monitoring"
	"github.com/ZanzyTHEbar/moto-risk/internal/ratelimit"
	"github.com/ZanzyTHEbar/moto-risk/internal/types"
)

const bundledModel = "../../models/risk_model.json"

func setupRouter(t testing.TB) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	predictor, err := model.Load(bundledModel)
	require.NoError(t, err)

	metrics := monitoring.NewMetrics()
	limiter := ratelimit.NewRateLimiter(nil, ratelimit.Config{}, metrics)
	appCache := cache.NewCache(time.Minute, 0, metrics)
	t.Cleanup(func() {
		limiter.Close()
		appCache.Close()
	})

	return api.NewRouter(api.Deps{
		Model:       predictor,
		Metrics:     metrics,
		Logger:      monitoring.NewLoggerWithWriter(io.Discard, nil),
		Cache:       appCache,
		RateLimiter: limiter,
	})
}

func TestLoadConfig_Defaults(t *testing.T) {
	for _, key := range []string{"PORT", "MODEL_PATH", "MODEL_ENDPOINT", "MODEL_TIMEOUT", "MODEL_MAX_ATTEMPTS", "CACHE_TTL", "CACHE_MAX_ENTRIES", "RATE_LIMIT_PER_MIN", "REDIS_ADDR", "REDIS_DB", "CORS_ORIGINS", "TRUSTED_PROXIES", "ALERT_INTERVAL"} {
		t.Setenv(key, "")
	}

	cfg, err := loadConfig()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "models/risk_model.json", cfg.ModelPath)
	assert.Empty(t, cfg.ModelEndpoint)
	assert.Equal(t, 2*time.Second, cfg.ModelTimeout)
	assert.Equal(t, 2, cfg.ModelAttempts)
	assert.Equal(t, 15*time.Minute, cfg.CacheTTL)
	assert.Equal(t, cache.DefaultMaxEntries, cfg.CacheMaxEntries)
	assert.Equal(t, 60, cfg.RateLimit)
	assert.Equal(t, ratelimit.RedisConfig{}, cfg.Redis)
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
	assert.Empty(t, cfg.TrustedProxies)
	assert.Equal(t, 30*time.Second, cfg.AlertInterval)
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("MODEL_TIMEOUT", "500ms")
	t.Setenv("RATE_LIMIT_PER_MIN", "5")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("TRUSTED_PROXIES", "10.0.0.0/8, 192.0.2.1")
	t.Setenv("CACHE_MAX_ENTRIES", "50")
	t.Setenv("REDIS_ADDR", "redis:6379")
	t.Setenv("REDIS_DB", "2")

	cfg, err := loadConfig()
	require.NoError(t, err)

	assert.Equal(t, []string{"10.0.0.0/8", "192.0.2.1"}, cfg.TrustedProxies)
	assert.Equal(t, 50, cfg.CacheMaxEntries)
	assert.Equal(t, ratelimit.RedisConfig{Addr: "redis:6379", DB: 2}, cfg.Redis)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, 500*time.Millisecond, cfg.ModelTimeout)
	assert.Equal(t, 5, cfg.RateLimit)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := map[string]string{
		"MODEL_TIMEOUT":      "soon",
		"MODEL_MAX_ATTEMPTS": "twice",
		"CACHE_TTL":          "forever",
		"RATE_LIMIT_PER_MIN": "lots",
		"REDIS_DB":           "first",
		"CACHE_MAX_ENTRIES":  "many",
		"TRUSTED_PROXIES":    "the-load-balancer",
		"ALERT_INTERVAL":     "0s",
	}

	for key, value := range tests {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)
			_, err := loadConfig()
			require.Error(t, err)
			assert.Contains(t, err.Error(), key)
		})
	}
}

func TestLoadModel(t *testing.T) {
	local, err := loadModel(config{ModelPath: bundledModel})
	require.NoError(t, err)
	assert.Equal(t, model.KindForest, local.Kind())

	remote, err := loadModel(config{ModelPath: "does-not-matter.json", ModelEndpoint: "http://localhost:9/predict", ModelTimeout: time.Second})
	require.NoError(t, err)
	assert.Equal(t, model.KindRemote, remote.Kind())

	_, err = loadModel(config{ModelPath: "missing.json"})
	assert.Error(t, err)
}

func TestHealthEndpoint(t *testing.T) {
	r := setupRouter(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json; charset=utf-8", w.Header().Get("Content-Type"))

	assert.Contains(t, w.Body.String(), `"Status":"ok"`)

	var resp types.HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, model.KindForest, resp.ModelKind)
	assert.NotEmpty(t, resp.ModelVersion)
}

func TestHealthEndpoint_MethodNotAllowed(t *testing.T) {
	r := setupRouter(t)

	for _, method := range []string{http.MethodPost, http.MethodPut, http.MethodDelete} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(method, "/health", nil))
		assert.Equal(t, http.StatusNotFound, w.Code, method)
	}
}

func TestPredictRisk_BundledModel(t *testing.T) {
	r := setupRouter(t)

	tests := []struct {
		name    string
		body    string
		factors []string
	}{
		{
			name:    "clear afternoon commute",
			body:    `{"temperature":21,"rainfall":0,"visibility":15,"distance":12,"time_of_day":"afternoon","experience":8}`,
			factors: []string{},
		},
		{
			name:    "wet night ride by a novice",
			body:    `{"temperature":12,"rainfall":8,"visibility":3,"distance":80,"time_of_day":"night","experience":1}`,
			factors: []string{"rain", "visibility", "distance", "low_experience", "darkness"},
		},
		{
			name:    "hot long tour",
			body:    `{"temperature":38,"rainfall":0,"visibility":20,"distance":300,"time_of_day":"morning","experience":10}`,
			factors: []string{"distance", "heat"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/api/v1/risk/predict-risk", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			r.ServeHTTP(w, req)

			require.Equal(t, http.StatusOK, w.Code, w.Body.String())

			var resp types.RiskResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.GreaterOrEqual(t, resp.RiskScore, 0.0)
			assert.LessOrEqual(t, resp.RiskScore, 1.0)
			assert.Contains(t, []string{"Low", "Medium", "High"}, resp.RiskLevel)
			assert.NotEmpty(t, resp.Advice)
			assert.Equal(t, tt.factors, resp.Factors)
		})
	}
}

func TestServer_CORSHeaders(t *testing.T) {
	r := setupRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodOptions, "/api/v1/risk/predict-risk", nil)
	req.Header.Set("Origin", "https://app.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestServer_SwaggerDoc(t *testing.T) {
	r := setupRouter(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/swagger/doc.json", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "/api/v1/risk/predict-risk")
}

package api

import (
	"math"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/ZanzyTHEbar/moto-risk/internal/cache"
	"github.com/ZanzyTHEbar/moto-risk/internal/errors"
	"github.com/ZanzyTHEbar/moto-risk/internal/model"
	"github.com/ZanzyTHEbar/moto-risk/internal/monitoring"
	"github.com/ZanzyTHEbar/moto-risk/internal/ratelimit"
	"github.com/ZanzyTHEbar/moto-risk/internal/resilience"
	"github.com/ZanzyTHEbar/moto-risk/internal/security"
)

// Deps are the collaborators the HTTP layer is built from. Cache,
// RateLimiter and Alerts are optional.
type Deps struct {
	Model       model.Loaded
	Metrics     *monitoring.Metrics
	Logger      *monitoring.Logger
	Cache       *cache.Cache
	RateLimiter *ratelimit.RateLimiter
	Alerts      *monitoring.AlertManager
	CORSOrigins []string

	// TrustedProxies may set X-Forwarded-For for the client IP; empty trusts none
	TrustedProxies []string
}

func init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		// Report validation failures by their JSON field names
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		_ = v.RegisterValidation("integer", func(fl validator.FieldLevel) bool {
			switch fl.Field().Kind() {
			case reflect.Float32, reflect.Float64:
				f := fl.Field().Float()
				return f == math.Trunc(f)
			default:
				return true
			}
		})
	}
}

// NewRouter wires middleware and routes onto a fresh gin engine
func NewRouter(d Deps) *gin.Engine {
	if d.Metrics == nil {
		d.Metrics = monitoring.NewMetrics()
	}
	if d.Logger == nil {
		d.Logger = monitoring.NewLogger()
	}

	r := gin.New()
	if err := r.SetTrustedProxies(d.TrustedProxies); err != nil {
		d.Logger.SystemLogger("trusted_proxies_rejected", err.Error())
		_ = r.SetTrustedProxies(nil)
	}

	r.Use(monitoring.RequestIDMiddleware(errors.RequestIDKey))
	r.Use(monitoring.MonitoringMiddleware(d.Metrics, d.Logger, errors.RequestIDKey))
	r.Use(errors.ErrorHandler())
	r.Use(errors.RecoveryHandler())
	r.Use(cors.New(corsConfig(d.CORSOrigins)))
	r.Use(security.HeadersMiddleware())

	if d.Alerts != nil {
		d.Alerts.WatchMetrics(d.Metrics)
		if b, ok := d.Model.(breakerReporter); ok {
			breaker := b.Breaker()
			d.Alerts.RegisterSource(monitoring.QueryCircuitOpen, func() float64 {
				if breaker.State() == resilience.StateOpen {
					return 1
				}
				return 0
			})
		}
	}

	h := NewHandler(d)

	r.GET("/", h.Root)
	r.GET("/health", h.Health)
	r.GET("/metrics", func(c *gin.Context) {
		stats := d.Metrics.GetStats()
		if d.RateLimiter != nil {
			stats["rate_limiter"] = d.RateLimiter.GetStats()
		}
		c.JSON(http.StatusOK, stats)
	})
	r.GET("/alerts", func(c *gin.Context) {
		alerts := []monitoring.Alert{}
		if d.Alerts != nil {
			alerts = d.Alerts.Alerts()
		}
		c.JSON(http.StatusOK, gin.H{
			"alerts":    alerts,
			"timestamp": time.Now().Format(time.RFC3339),
		})
	})
	r.GET("/cache/stats", func(c *gin.Context) {
		if d.Cache == nil {
			c.JSON(http.StatusOK, gin.H{"enabled": false})
			return
		}
		c.JSON(http.StatusOK, d.Cache.Stats())
	})
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	v1 := r.Group("/api/v1/risk")
	if d.RateLimiter != nil {
		v1.Use(d.RateLimiter.IPRateLimitMiddleware())
	}
	v1.Use(security.MaxBodySize(security.DefaultMaxBodyBytes), security.RequireJSON())
	v1.POST("/predict-risk", h.PredictRisk)

	return r
}

func corsConfig(origins []string) cors.Config {
	config := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", monitoring.RequestIDHeader},
		ExposeHeaders: []string{monitoring.RequestIDHeader, "X-Cache", "X-RateLimit-Limit", "X-RateLimit-Remaining", "Retry-After"},
		MaxAge:        12 * time.Hour,
	}

	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		config.AllowAllOrigins = true
	} else {
		config.AllowOrigins = origins
	}

	return config
}

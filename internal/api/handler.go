package api

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/ZanzyTHEbar/moto-risk/internal/cache"
	"github.com/ZanzyTHEbar/moto-risk/internal/errors"
	"github.com/ZanzyTHEbar/moto-risk/internal/model"
	"github.com/ZanzyTHEbar/moto-risk/internal/monitoring"
	"github.com/ZanzyTHEbar/moto-risk/internal/ratelimit"
	"github.com/ZanzyTHEbar/moto-risk/internal/resilience"
	"github.com/ZanzyTHEbar/moto-risk/internal/risk"
	"github.com/ZanzyTHEbar/moto-risk/internal/types"
)

// Version is reported by the health endpoint
const Version = "1.0.0"

const (
	requestTimeout     = 10 * time.Second
	healthCheckTimeout = time.Second
)

// Handler serves the risk endpoints
type Handler struct {
	service *risk.Service
	model   model.Loaded
	metrics *monitoring.Metrics
	logger  *monitoring.Logger
	cache   *cache.Cache
	limiter *ratelimit.RateLimiter
	alerts  *monitoring.AlertManager
	started time.Time

	assessments metric.Int64Counter
	latency     metric.Float64Histogram
}

// NewHandler creates a handler from d
func NewHandler(d Deps) *Handler {
	meter := otel.GetMeterProvider().Meter("moto-risk/api")
	// Instrument constructors return usable no-op instruments on error
	assessments, _ := meter.Int64Counter("risk.assessments",
		metric.WithDescription("Completed risk assessments by level"))
	latency, _ := meter.Float64Histogram("risk.assess.duration",
		metric.WithUnit("ms"),
		metric.WithDescription("Predict-risk handling time"))

	return &Handler{
		service:     risk.NewService(d.Model),
		model:       d.Model,
		metrics:     d.Metrics,
		logger:      d.Logger,
		cache:       d.Cache,
		limiter:     d.RateLimiter,
		alerts:      d.Alerts,
		started:     time.Now(),
		assessments: assessments,
		latency:     latency,
	}
}

// Root godoc
// @Summary      Liveness message
// @Tags         status
// @Produce      json
// @Success      200  {object}  types.StatusResponse
// @Router       / [get]
func (h *Handler) Root(c *gin.Context) {
	c.JSON(http.StatusOK, types.StatusResponse{Message: "Motorcycle Risk API is alive!"})
}

// breakerReporter is implemented by predictors guarded by a circuit breaker
type breakerReporter interface {
	Breaker() *resilience.CircuitBreaker
}

// Health godoc
// @Summary      Service health
// @Tags         status
// @Produce      json
// @Success      200  {object}  types.HealthResponse
// @Failure      503  {object}  types.HealthResponse
// @Router       /health [get]
func (h *Handler) Health(c *gin.Context) {
	resp := types.HealthResponse{
		Status:        "ok",
		Timestamp:     time.Now().Format(time.RFC3339),
		Version:       Version,
		ModelKind:     h.model.Kind(),
		ModelVersion:  h.model.Version(),
		UptimeSeconds: time.Since(h.started).Seconds(),
	}

	status := http.StatusOK
	if b, ok := h.model.(breakerReporter); ok {
		resp.Breaker = b.Breaker().Stats()
		if b.Breaker().State() == resilience.StateOpen {
			resp.Status = "degraded"
			status = http.StatusServiceUnavailable
		}
	}

	// A Redis outage degrades limiting to per-replica buckets but still serves
	if h.limiter != nil && h.limiter.Enabled() {
		ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
		lh := h.limiter.Health(ctx)
		cancel()

		resp.RateLimiter = &types.RateLimiterHealth{Backend: lh.Backend, Healthy: lh.Healthy, Error: lh.Error}
		if !lh.Healthy {
			resp.Status = "degraded"
		}
	}

	if h.alerts != nil {
		resp.ActiveAlerts = h.alerts.ActiveAlerts()
	}

	c.JSON(status, resp)
}

// PredictRisk godoc
// @Summary      Score a planned ride
// @Description  Encodes the rider context, runs the risk model, and returns a score, level and advice.
// @Tags         risk
// @Accept       json
// @Produce      json
// @Param        request  body      types.RiskRequest  true  "Rider context"
// @Success      200      {object}  types.RiskResponse
// @Failure      400      {object}  errors.AppError
// @Failure      429      {object}  errors.AppError
// @Failure      500      {object}  errors.AppError
// @Failure      502      {object}  errors.AppError
// @Router       /api/v1/risk/predict-risk [post]
func (h *Handler) PredictRisk(c *gin.Context) {
	start := time.Now()
	requestID := c.GetString(errors.RequestIDKey)

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	var req types.RiskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errors.Respond(c, bindError(err))
		return
	}

	rc, err := risk.NewRiderContext(*req.Temperature, *req.Rainfall, *req.Visibility, *req.Distance, req.TimeOfDay, int(*req.Experience))
	if err != nil {
		var verr *risk.ValidationError
		if stderrors.As(err, &verr) {
			errors.Respond(c, errors.NewValidationErrorWithMap(verr.Fields))
			return
		}
		errors.Respond(c, errors.NewValidationError("Invalid rider context", err))
		return
	}

	key, keyErr := cacheKey(rc)
	if h.cache != nil && keyErr == nil {
		if data, ok := h.cache.Get(key); ok {
			var cached types.RiskResponse
			if err := json.Unmarshal(data, &cached); err == nil {
				c.Header("X-Cache", "HIT")
				h.metrics.RecordAssessment(cached.RiskLevel)
				h.record(ctx, cached.RiskLevel, true, start)
				h.logger.AssessmentLogger(requestID, cached.RiskLevel, cached.RiskScore, cached.RiskScore, cached.Factors, time.Since(start), true)
				c.JSON(http.StatusOK, cached)
				return
			}
		}
	}

	modelStart := time.Now()
	assessment, err := h.service.Assess(ctx, rc)
	h.metrics.RecordModelCall(err == nil)
	if err != nil {
		h.logger.ModelLogger(h.model.Kind(), h.model.Version(), time.Since(modelStart), err)
		if ctxErr := ctx.Err(); ctxErr != nil && !stderrors.Is(err, model.ErrRemoteUnavailable) {
			errors.Respond(c, errors.NewTimeoutError("Risk assessment timed out", err))
			return
		}
		errors.Respond(c, errors.NewModelError(stderrors.Is(err, model.ErrRemoteUnavailable), err))
		return
	}

	resp := toResponse(assessment)

	if h.cache != nil && keyErr == nil {
		if data, err := json.Marshal(resp); err == nil {
			h.cache.Set(key, data)
		}
	}

	h.metrics.RecordAssessment(resp.RiskLevel)
	h.record(ctx, resp.RiskLevel, false, start)
	h.logger.AssessmentLogger(requestID, resp.RiskLevel, resp.RiskScore, assessment.RawScore, resp.Factors, time.Since(start), false)

	c.Header("X-Cache", "MISS")
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) record(ctx context.Context, level string, cacheHit bool, start time.Time) {
	attrs := metric.WithAttributes(
		attribute.String("risk_level", level),
		attribute.Bool("cache_hit", cacheHit),
	)
	h.assessments.Add(ctx, 1, attrs)
	h.latency.Record(ctx, float64(time.Since(start).Microseconds())/1000, attrs)
}

func toResponse(a risk.Assessment) types.RiskResponse {
	factors := make([]string, len(a.Factors))
	for i, f := range a.Factors {
		factors[i] = string(f)
	}

	return types.RiskResponse{
		RiskScore: a.RiskScore,
		RiskLevel: string(a.RiskLevel),
		Advice:    a.Advice,
		Factors:   factors,
	}
}

// cacheKey hashes the validated context, so equivalent requests share an entry
func cacheKey(rc risk.RiderContext) (string, error) {
	return cache.Key(struct {
		Temperature float64 `json:"t"`
		Rainfall    float64 `json:"r"`
		Visibility  float64 `json:"v"`
		Distance    float64 `json:"d"`
		TimeOfDay   string  `json:"tod"`
		Experience  int     `json:"e"`
	}{
		Temperature: rc.Temperature(),
		Rainfall:    rc.Rainfall(),
		Visibility:  rc.Visibility(),
		Distance:    rc.Distance(),
		TimeOfDay:   string(rc.TimeOfDay()),
		Experience:  rc.Experience(),
	})
}

func bindError(err error) *errors.AppError {
	var verrs validator.ValidationErrors
	if stderrors.As(err, &verrs) {
		fields := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			fields[fe.Field()] = fieldMessage(fe)
		}
		return errors.NewValidationErrorWithMap(fields)
	}

	var tooLarge *http.MaxBytesError
	if stderrors.As(err, &tooLarge) {
		return errors.NewRequestError(http.StatusRequestEntityTooLarge, "Request body too large")
	}

	if stderrors.Is(err, io.EOF) {
		return errors.NewValidationError("Request body is required", err)
	}

	return errors.NewValidationError("Invalid request body", err)
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "field required"
	case "integer":
		return "must be a whole number"
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	case "gte":
		return fmt.Sprintf("must be greater than or equal to %s", fe.Param())
	case "lt":
		return fmt.Sprintf("must be less than %s", fe.Param())
	case "lte":
		return fmt.Sprintf("must be less than or equal to %s", fe.Param())
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}

package model

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"time"

	"github.com/ZanzyTHEbar/moto-risk/internal/resilience"
	"github.com/ZanzyTHEbar/moto-risk/internal/risk"
)

// KindRemote identifies predictions served by an external inference endpoint
const KindRemote = "remote"

// ErrRemoteUnavailable wraps every transport, status or decode failure of the remote model
var ErrRemoteUnavailable = errors.New("remote model unavailable")

type remoteRequest struct {
	Features     []float64 `json:"features"`
	FeatureNames []string  `json:"feature_names"`
}

type remoteResponse struct {
	Prediction *float64 `json:"prediction"`
	Version    string   `json:"version,omitempty"`
}

// Remote calls an HTTP inference service for each prediction
type Remote struct {
	endpoint string
	client   *http.Client
	breaker  *resilience.CircuitBreaker
	retry    resilience.RetryConfig
}

// NewRemote creates a remote predictor with the given per-call timeout
func NewRemote(endpoint string, timeout time.Duration, breaker *resilience.CircuitBreaker) *Remote {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	if breaker == nil {
		breaker = resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{})
	}

	return &Remote{
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
		breaker:  breaker,
		retry:    resilience.RetryConfig{MaxAttempts: 1},
	}
}

// WithRetry retries transient failures inside one breaker call, so a
// request that exhausts its retries counts as a single breaker failure
func (r *Remote) WithRetry(config resilience.RetryConfig) *Remote {
	r.retry = config
	return r
}

func (r *Remote) Predict(ctx context.Context, v risk.FeatureVector) (float64, error) {
	ctx, span := tracer.Start(ctx, "model.predict")
	defer span.End()

	var prediction float64
	err := r.breaker.CallContext(ctx, func() error {
		return resilience.Retry(ctx, r.retry, func() error {
			var err error
			prediction, err = r.call(ctx, v)
			return err
		})
	})
	if err != nil {
		span.RecordError(err)
		return 0, fmt.Errorf("%w: %w", ErrRemoteUnavailable, err)
	}
	return prediction, nil
}

func (r *Remote) call(ctx context.Context, v risk.FeatureVector) (float64, error) {
	body, err := json.Marshal(remoteRequest{
		Features:     v.Slice(),
		FeatureNames: risk.FeatureNames[:],
	})
	if err != nil {
		return 0, resilience.Permanent(fmt.Errorf("failed to marshal inference request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, bytes.NewBuffer(body))
	if err != nil {
		return 0, resilience.Permanent(fmt.Errorf("failed to create inference request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("inference request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("inference service error: %w", resilience.NewHTTPError(resp.StatusCode, resp.Status))
	}

	var out remoteResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return 0, resilience.Permanent(fmt.Errorf("failed to decode inference response: %w", err))
	}
	if out.Prediction == nil || math.IsNaN(*out.Prediction) {
		return 0, resilience.Permanent(errors.New("inference response has no prediction"))
	}

	return *out.Prediction, nil
}

// Breaker exposes the circuit breaker for health reporting
func (r *Remote) Breaker() *resilience.CircuitBreaker { return r.breaker }

func (r *Remote) Kind() string    { return KindRemote }
func (r *Remote) Version() string { return r.endpoint }

package risk

import (
	"context"
	"errors"
	"fmt"
	"math"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// ErrInference is wrapped around every failure coming out of the predictor
var ErrInference = errors.New("model inference failed")

// Assessment is the result of one pipeline run
type Assessment struct {
	RiskScore float64  `json:"risk_score"`
	RiskLevel Level    `json:"risk_level"`
	Advice    string   `json:"advice"`
	Factors   []Factor `json:"factors"`

	// RawScore is the unclamped model output
	RawScore float64 `json:"-"`
}

// Service runs the encode, predict, bucket, advise pipeline against a shared predictor
type Service struct {
	predictor Predictor
	tracer    trace.Tracer
}

// NewService creates a risk service backed by predictor
func NewService(predictor Predictor) *Service {
	return &Service{
		predictor: predictor,
		tracer:    otel.Tracer("moto-risk/risk"),
	}
}

// Assess scores a rider context. The only error path is the predictor.
func (s *Service) Assess(ctx context.Context, rc RiderContext) (Assessment, error) {
	ctx, span := s.tracer.Start(ctx, "risk.assess",
		trace.WithAttributes(attribute.String("time_of_day", string(rc.timeOfDay))))
	defer span.End()

	features := Encode(rc)

	raw, err := s.predictor.Predict(ctx, features)
	if err == nil && math.IsNaN(raw) {
		err = errors.New("predictor returned NaN")
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "inference failed")
		return Assessment{}, fmt.Errorf("%w: %w", ErrInference, err)
	}

	score := Clamp(raw)
	level := Bucket(score)

	assessment := Assessment{
		RiskScore: Round3(score),
		RiskLevel: level,
		Advice:    Advise(rc, level),
		Factors:   Factors(rc),
		RawScore:  raw,
	}

	span.SetAttributes(
		attribute.Float64("risk.raw_score", raw),
		attribute.Float64("risk.score", assessment.RiskScore),
		attribute.String("risk.level", string(level)),
	)

	return assessment, nil
}

package model

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"

	"github.com/ZanzyTHEbar/moto-risk/internal/risk"
)

var tracer = otel.Tracer("moto-risk/model")

// Linear is an ordinary least-squares regression
type Linear struct {
	version      string
	intercept    float64
	coefficients [risk.FeatureCount]float64
}

// NewLinear builds a linear predictor; coefficients follow risk.FeatureNames order
func NewLinear(version string, intercept float64, coefficients []float64) (*Linear, error) {
	if len(coefficients) != risk.FeatureCount {
		return nil, fmt.Errorf("linear model has %d coefficients, expected %d", len(coefficients), risk.FeatureCount)
	}

	l := &Linear{version: version, intercept: intercept}
	copy(l.coefficients[:], coefficients)
	return l, nil
}

func (l *Linear) Predict(ctx context.Context, v risk.FeatureVector) (float64, error) {
	_, span := tracer.Start(ctx, "model.predict")
	defer span.End()

	y := l.intercept
	for i, c := range l.coefficients {
		y += c * v[i]
	}
	return y, nil
}

func (l *Linear) Kind() string    { return KindLinear }
func (l *Linear) Version() string { return l.version }

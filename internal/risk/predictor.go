package risk

import "context"

// Predictor is a trained regression model. Implementations must be safe for concurrent
// use; the service shares one instance across all requests.
type Predictor interface {
	Predict(ctx context.Context, v FeatureVector) (float64, error)
}

// PredictorFunc adapts a plain function to the Predictor interface
type PredictorFunc func(ctx context.Context, v FeatureVector) (float64, error)

// Predict calls f(ctx, v)
func (f PredictorFunc) Predict(ctx context.Context, v FeatureVector) (float64, error) {
	return f(ctx, v)
}

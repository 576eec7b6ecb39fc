package risk

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func recordingService(t *testing.T, p Predictor) (*Service, *tracetest.SpanRecorder) {
	t.Helper()

	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	svc := NewService(p)
	svc.tracer = tp.Tracer("test")
	return svc, recorder
}

func attrs(span sdktrace.ReadOnlySpan) map[attribute.Key]attribute.Value {
	out := make(map[attribute.Key]attribute.Value)
	for _, kv := range span.Attributes() {
		out[kv.Key] = kv.Value
	}
	return out
}

func TestService_AssessSpan(t *testing.T) {
	svc, recorder := recordingService(t, stubPredictor(0.71))

	_, err := svc.Assess(context.Background(), mustContext(t, 20, 0, 20, 10, "night", 10))
	require.NoError(t, err)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "risk.assess", spans[0].Name())

	got := attrs(spans[0])
	assert.Equal(t, "night", got["time_of_day"].AsString())
	assert.Equal(t, "High", got["risk.level"].AsString())
	assert.Equal(t, 0.71, got["risk.score"].AsFloat64())
}

func TestService_AssessSpanRecordsFailure(t *testing.T) {
	svc, recorder := recordingService(t, PredictorFunc(func(context.Context, FeatureVector) (float64, error) {
		return 0, errors.New("boom")
	}))

	_, err := svc.Assess(context.Background(), mustContext(t, 20, 0, 20, 10, "morning", 10))
	require.Error(t, err)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status().Code)
	assert.NotEmpty(t, spans[0].Events())
}

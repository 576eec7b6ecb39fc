package monitoring

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"
)

// Logger provides enhanced structured logging with context
type Logger struct {
	*slog.Logger
}

// NewLogger creates a JSON logger on stdout at the level named by LOG_LEVEL
func NewLogger() *Logger {
	return NewLoggerWithWriter(os.Stdout, LevelFromEnv())
}

// NewLoggerWithWriter creates a JSON logger writing to w
func NewLoggerWithWriter(w io.Writer, level slog.Leveler) *Logger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:     level,
		AddSource: true,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				return slog.Attr{
					Key:   "timestamp",
					Value: slog.StringValue(a.Value.Time().Format(time.RFC3339)),
				}
			}
			return a
		},
	})

	return &Logger{
		Logger: slog.New(handler).With("service", "moto-risk"),
	}
}

// LevelFromEnv reads LOG_LEVEL, defaulting to info
func LevelFromEnv() slog.Leveler {
	switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// RequestLogger logs HTTP request details
func (l *Logger) RequestLogger(method, path, ip, requestID string, statusCode int, duration time.Duration) {
	l.Info("HTTP Request",
		"method", method,
		"path", path,
		"ip", ip,
		"request_id", requestID,
		"status_code", statusCode,
		"duration_ms", duration.Milliseconds(),
	)
}

// AssessmentLogger logs the outcome of one risk assessment
func (l *Logger) AssessmentLogger(requestID, level string, score, rawScore float64, factors []string, duration time.Duration, cacheHit bool) {
	l.Info("Assessment Completed",
		"request_id", requestID,
		"risk_level", level,
		"risk_score", score,
		"raw_score", rawScore,
		"factors", factors,
		"duration_ms", duration.Milliseconds(),
		"cache_hit", cacheHit,
	)
}

// ModelLogger logs model inference failures and startup loads
func (l *Logger) ModelLogger(kind, version string, duration time.Duration, err error) {
	level := slog.LevelInfo
	attrs := []any{
		"model_kind", kind,
		"model_version", version,
		"duration_ms", duration.Milliseconds(),
	}
	if err != nil {
		level = slog.LevelWarn
		attrs = append(attrs, "error", err.Error())
	}

	l.Log(context.Background(), level, "Model Call", attrs...)
}

// SystemLogger logs system-level events
func (l *Logger) SystemLogger(event, details string) {
	l.Info("System Event",
		"event", event,
		"details", details,
		"uptime", time.Since(startTime).String(),
	)
}

// PerformanceLogger logs performance metrics
func (l *Logger) PerformanceLogger(metric string, value float64, unit string) {
	l.Info("Performance Metric",
		"metric", metric,
		"value", value,
		"unit", unit,
	)
}

var startTime = time.Now()

package monitoring

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// AlertSeverity represents the severity level of an alert
type AlertSeverity string

const (
	SeverityWarning  AlertSeverity = "warning"
	SeverityCritical AlertSeverity = "critical"
)

// AlertStatus represents the status of an alert
type AlertStatus string

const (
	StatusActive   AlertStatus = "active"
	StatusResolved AlertStatus = "resolved"
)

// Queries an AlertRule can watch
const (
	QueryErrorRate       = "error_rate_percent"
	QueryModelErrorRate  = "model_error_rate_percent"
	QueryP95ResponseTime = "p95_response_time_ms"
	QueryRateLimitBlocks = "rate_limit_ip_blocks"
	QueryCircuitOpen     = "circuit_breaker_open"
)

// Alert represents a monitoring alert
type Alert struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Severity    AlertSeverity `json:"severity"`
	Status      AlertStatus   `json:"status"`
	Value       float64       `json:"value"`
	Threshold   float64       `json:"threshold"`
	FiredAt     time.Time     `json:"fired_at"`
	ResolvedAt  *time.Time    `json:"resolved_at,omitempty"`
}

// AlertRule fires when Query compared to Threshold by Operator has held for For
type AlertRule struct {
	Name        string
	Query       string
	Threshold   float64
	Operator    string // "gt", "gte", "lt", "lte", "eq", "ne"
	Severity    AlertSeverity
	Description string
	For         time.Duration
}

// AlertSource reports the current value of a query
type AlertSource func() float64

// AlertManager evaluates rules against registered sources
type AlertManager struct {
	logger *Logger
	now    func() time.Time

	mu      sync.Mutex
	rules   []AlertRule
	sources map[string]AlertSource
	alerts  map[string]*Alert
	pending map[string]time.Time
}

// NewAlertManager creates an alert manager with no rules
func NewAlertManager(logger *Logger) *AlertManager {
	if logger == nil {
		logger = NewLogger()
	}
	return &AlertManager{
		logger:  logger,
		now:     time.Now,
		sources: make(map[string]AlertSource),
		alerts:  make(map[string]*Alert),
		pending: make(map[string]time.Time),
	}
}

// AddRule adds an alert rule
func (am *AlertManager) AddRule(rule AlertRule) {
	am.mu.Lock()
	defer am.mu.Unlock()
	am.rules = append(am.rules, rule)
}

// RegisterSource binds a query name to a value source, replacing any previous one
func (am *AlertManager) RegisterSource(query string, source AlertSource) {
	am.mu.Lock()
	defer am.mu.Unlock()
	am.sources[query] = source
}

// WatchMetrics registers the request, model and rate limit queries backed by m
func (am *AlertManager) WatchMetrics(m *Metrics) {
	am.RegisterSource(QueryErrorRate, func() float64 {
		return percent(atomic.LoadInt64(&m.ErrorCount), atomic.LoadInt64(&m.RequestCount))
	})
	am.RegisterSource(QueryModelErrorRate, func() float64 {
		return percent(atomic.LoadInt64(&m.ModelErrors), atomic.LoadInt64(&m.ModelCalls))
	})
	am.RegisterSource(QueryP95ResponseTime, func() float64 {
		return float64(m.GetPercentileResponseTime(95)) / 1e6
	})
	am.RegisterSource(QueryRateLimitBlocks, func() float64 {
		return float64(atomic.LoadInt64(&m.RateLimitIPBlocks))
	})
}

func percent(part, total int64) float64 {
	if total == 0 {
		return 0
	}
	return float64(part) / float64(total) * 100
}

// Start evaluates rules every interval until ctx is done
func (am *AlertManager) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			am.Evaluate()
		}
	}
}

// Evaluate checks every rule once
func (am *AlertManager) Evaluate() {
	am.mu.Lock()
	defer am.mu.Unlock()

	now := am.now()
	for _, rule := range am.rules {
		source, ok := am.sources[rule.Query]
		if !ok {
			continue
		}
		am.evaluateRule(rule, source(), now)
	}
}

func (am *AlertManager) evaluateRule(rule AlertRule, value float64, now time.Time) {
	alert, exists := am.alerts[rule.Name]
	active := exists && alert.Status == StatusActive

	if !checkCondition(value, rule.Operator, rule.Threshold) {
		delete(am.pending, rule.Name)
		if active {
			alert.Status = StatusResolved
			alert.Value = value
			resolvedAt := now
			alert.ResolvedAt = &resolvedAt
			am.logger.SystemLogger("alert_resolved", fmt.Sprintf("Alert %s resolved", rule.Name))
		}
		return
	}

	if active {
		alert.Value = value
		return
	}

	since, pending := am.pending[rule.Name]
	if !pending {
		am.pending[rule.Name] = now
		since = now
	}
	if now.Sub(since) < rule.For {
		return
	}

	delete(am.pending, rule.Name)
	am.alerts[rule.Name] = &Alert{
		ID:          rule.Name,
		Name:        rule.Name,
		Description: rule.Description,
		Severity:    rule.Severity,
		Status:      StatusActive,
		Value:       value,
		Threshold:   rule.Threshold,
		FiredAt:     now,
	}
	am.logger.SystemLogger("alert_fired", fmt.Sprintf("Alert %s fired with severity %s (value %.2f, threshold %.2f)", rule.Name, rule.Severity, value, rule.Threshold))
}

func checkCondition(value float64, operator string, threshold float64) bool {
	switch operator {
	case "gt":
		return value > threshold
	case "gte":
		return value >= threshold
	case "lt":
		return value < threshold
	case "lte":
		return value <= threshold
	case "eq":
		return value == threshold
	case "ne":
		return value != threshold
	default:
		return false
	}
}

// Alerts returns every alert seen so far, ordered by name
func (am *AlertManager) Alerts() []Alert {
	return am.snapshot(false)
}

// ActiveAlerts returns only firing alerts, ordered by name
func (am *AlertManager) ActiveAlerts() []Alert {
	return am.snapshot(true)
}

func (am *AlertManager) snapshot(activeOnly bool) []Alert {
	am.mu.Lock()
	defer am.mu.Unlock()

	out := make([]Alert, 0, len(am.alerts))
	for _, a := range am.alerts {
		if activeOnly && a.Status != StatusActive {
			continue
		}
		out = append(out, *a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// DefaultAlertRules covers the request path, the model and the remote breaker
func DefaultAlertRules() []AlertRule {
	return []AlertRule{
		{
			Name:        "HighErrorRate",
			Query:       QueryErrorRate,
			Threshold:   10,
			Operator:    "gt",
			Severity:    SeverityWarning,
			Description: "More than 10% of requests are failing",
			For:         5 * time.Minute,
		},
		{
			Name:        "ModelErrors",
			Query:       QueryModelErrorRate,
			Threshold:   5,
			Operator:    "gt",
			Severity:    SeverityCritical,
			Description: "More than 5% of model calls are failing",
			For:         time.Minute,
		},
		{
			Name:        "SlowResponses",
			Query:       QueryP95ResponseTime,
			Threshold:   1000,
			Operator:    "gt",
			Severity:    SeverityWarning,
			Description: "p95 response time is above 1000ms",
			For:         2 * time.Minute,
		},
		{
			Name:        "ModelCircuitOpen",
			Query:       QueryCircuitOpen,
			Threshold:   1,
			Operator:    "gte",
			Severity:    SeverityCritical,
			Description: "The remote model circuit breaker is open",
		},
	}
}

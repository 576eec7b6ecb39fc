package types

import "github.com/ZanzyTHEbar/moto-risk/internal/monitoring"

// RiskRequest represents the request structure for the predict-risk endpoint.
// Numeric fields are pointers so a missing field fails "required" while an
// explicit zero passes. Experience accepts any integral JSON number, 5.0 included.
type RiskRequest struct {
	Temperature *float64 `json:"temperature" binding:"required,gt=-20,lt=60" example:"22.5"`
	Rainfall    *float64 `json:"rainfall" binding:"required,gte=0,lte=200" example:"0"`
	Visibility  *float64 `json:"visibility" binding:"required,gte=0,lte=50" example:"10"`
	Distance    *float64 `json:"distance" binding:"required,gte=0,lte=2000" example:"25"`
	TimeOfDay   string   `json:"time_of_day" binding:"required,oneof=morning afternoon evening night" example:"afternoon"`
	Experience  *float64 `json:"experience" binding:"required,integer,gte=0,lte=50" example:"5"`
}

// RiskResponse represents the predict-risk response body
type RiskResponse struct {
	RiskScore float64  `json:"risk_score" example:"0.412"`
	RiskLevel string   `json:"risk_level" example:"Medium"`
	Advice    string   `json:"advice"`
	Factors   []string `json:"factors"`
}

// StatusResponse is returned by the root liveness endpoint
type StatusResponse struct {
	Message string `json:"Message" example:"Motorcycle Risk API is alive!"`
}

// RateLimiterHealth reports the rate limiter's backing store
type RateLimiterHealth struct {
	Backend string `json:"backend" example:"redis"`
	Healthy bool   `json:"healthy"`
	Error   string `json:"error,omitempty"`
}

// HealthResponse is returned by the health endpoint
type HealthResponse struct {
	Status        string                 `json:"Status" example:"ok"`
	Timestamp     string                 `json:"timestamp"`
	Version       string                 `json:"version"`
	ModelKind     string                 `json:"model_kind"`
	ModelVersion  string                 `json:"model_version"`
	UptimeSeconds float64                `json:"uptime_seconds"`
	Breaker       map[string]interface{} `json:"circuit_breaker,omitempty"`
	RateLimiter   *RateLimiterHealth     `json:"rate_limiter,omitempty"`
	ActiveAlerts  []monitoring.Alert     `json:"active_alerts,omitempty"`
}

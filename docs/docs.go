// Package docs holds the OpenAPI document served under /swagger.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/": {
            "get": {
                "produces": ["application/json"],
                "tags": ["status"],
                "summary": "Liveness message",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.StatusResponse"}}
                }
            }
        },
        "/health": {
            "get": {
                "produces": ["application/json"],
                "tags": ["status"],
                "summary": "Service health",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.HealthResponse"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/types.HealthResponse"}}
                }
            }
        },
        "/api/v1/risk/predict-risk": {
            "post": {
                "description": "Encodes the rider context, runs the risk model, and returns a score, level and advice.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["risk"],
                "summary": "Score a planned ride",
                "parameters": [
                    {
                        "description": "Rider context",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/types.RiskRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.RiskResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/errors.AppError"}},
                    "429": {"description": "Too Many Requests", "schema": {"$ref": "#/definitions/errors.AppError"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/errors.AppError"}},
                    "502": {"description": "Bad Gateway", "schema": {"$ref": "#/definitions/errors.AppError"}}
                }
            }
        }
    },
    "definitions": {
        "errors.AppError": {
            "type": "object",
            "properties": {
                "error": {"type": "string"},
                "code": {"type": "string"},
                "category": {"type": "string"},
                "http_status": {"type": "integer"},
                "timestamp": {"type": "string"},
                "request_id": {"type": "string"},
                "fields": {"type": "object", "additionalProperties": {"type": "string"}}
            }
        },
        "types.HealthResponse": {
            "type": "object",
            "properties": {
                "Status": {"type": "string", "example": "ok"},
                "timestamp": {"type": "string"},
                "version": {"type": "string"},
                "model_kind": {"type": "string"},
                "model_version": {"type": "string"},
                "uptime_seconds": {"type": "number"},
                "circuit_breaker": {"type": "object", "additionalProperties": true},
                "rate_limiter": {"$ref": "#/definitions/types.RateLimiterHealth"},
                "active_alerts": {"type": "array", "items": {"$ref": "#/definitions/monitoring.Alert"}}
            }
        },
        "types.RateLimiterHealth": {
            "type": "object",
            "properties": {
                "backend": {"type": "string", "example": "redis"},
                "healthy": {"type": "boolean"},
                "error": {"type": "string"}
            }
        },
        "monitoring.Alert": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "name": {"type": "string"},
                "description": {"type": "string"},
                "severity": {"type": "string", "enum": ["warning", "critical"]},
                "status": {"type": "string", "enum": ["active", "resolved"]},
                "value": {"type": "number"},
                "threshold": {"type": "number"},
                "fired_at": {"type": "string"},
                "resolved_at": {"type": "string"}
            }
        },
        "types.RiskRequest": {
            "type": "object",
            "required": ["temperature", "rainfall", "visibility", "distance", "time_of_day", "experience"],
            "properties": {
                "temperature": {"type": "number", "example": 22.5},
                "rainfall": {"type": "number", "maximum": 200, "minimum": 0, "example": 0},
                "visibility": {"type": "number", "maximum": 50, "minimum": 0, "example": 10},
                "distance": {"type": "number", "maximum": 2000, "minimum": 0, "example": 25},
                "time_of_day": {"type": "string", "enum": ["morning", "afternoon", "evening", "night"], "example": "afternoon"},
                "experience": {"type": "integer", "maximum": 50, "minimum": 0, "example": 5}
            }
        },
        "types.RiskResponse": {
            "type": "object",
            "properties": {
                "risk_score": {"type": "number", "example": 0.412},
                "risk_level": {"type": "string", "example": "Medium"},
                "advice": {"type": "string"},
                "factors": {"type": "array", "items": {"type": "string"}}
            }
        },
        "types.StatusResponse": {
            "type": "object",
            "properties": {
                "Message": {"type": "string", "example": "Motorcycle Risk API is alive!"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Motorcycle Risk API",
	Description:      "Scores the risk of a planned motorcycle ride from weather, route and rider experience.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}

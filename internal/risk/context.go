package risk

import (
	"fmt"
	"sort"
	"strings"
)

// TimeOfDay is the coarse riding period supplied by the caller
type TimeOfDay string

const (
	Morning   TimeOfDay = "morning"
	Afternoon TimeOfDay = "afternoon"
	Evening   TimeOfDay = "evening"
	Night     TimeOfDay = "night"
)

// Input bounds. Temperature is an open interval, everything else is closed.
const (
	MinTemperature = -20.0
	MaxTemperature = 60.0
	MaxRainfall    = 200.0
	MaxVisibility  = 50.0
	MaxDistance    = 2000.0
	MaxExperience  = 50
)

// ParseTimeOfDay normalises s and rejects anything outside the four known periods
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	tod := TimeOfDay(strings.ToLower(strings.TrimSpace(s)))
	switch tod {
	case Morning, Afternoon, Evening, Night:
		return tod, nil
	}
	return "", fmt.Errorf("unknown time of day %q", s)
}

// IsDark reports whether the period is evening or night
func (t TimeOfDay) IsDark() bool {
	return t == Evening || t == Night
}

// ValidationError lists every field of a RiderContext that failed its bounds check
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "invalid rider context: " + strings.Join(parts, "; ")
}

// RiderContext is a validated rider/weather observation. The zero value is not valid;
// build one with NewRiderContext.
type RiderContext struct {
	temperature float64
	rainfall    float64
	visibility  float64
	distance    float64
	timeOfDay   TimeOfDay
	experience  int
}

// NewRiderContext validates the raw inputs and returns an immutable context
func NewRiderContext(temperature, rainfall, visibility, distance float64, timeOfDay string, experience int) (RiderContext, error) {
	fields := make(map[string]string)

	if !(temperature > MinTemperature && temperature < MaxTemperature) {
		fields["temperature"] = fmt.Sprintf("must be greater than %g and less than %g", MinTemperature, MaxTemperature)
	}
	if !(rainfall >= 0 && rainfall <= MaxRainfall) {
		fields["rainfall"] = fmt.Sprintf("must be between 0 and %g", MaxRainfall)
	}
	if !(visibility >= 0 && visibility <= MaxVisibility) {
		fields["visibility"] = fmt.Sprintf("must be between 0 and %g", MaxVisibility)
	}
	if !(distance >= 0 && distance <= MaxDistance) {
		fields["distance"] = fmt.Sprintf("must be between 0 and %g", MaxDistance)
	}
	if experience < 0 || experience > MaxExperience {
		fields["experience"] = fmt.Sprintf("must be between 0 and %d", MaxExperience)
	}

	tod, err := ParseTimeOfDay(timeOfDay)
	if err != nil {
		fields["time_of_day"] = "must be one of morning, afternoon, evening, night"
	}

	if len(fields) > 0 {
		return RiderContext{}, &ValidationError{Fields: fields}
	}

	return RiderContext{
		temperature: temperature,
		rainfall:    rainfall,
		visibility:  visibility,
		distance:    distance,
		timeOfDay:   tod,
		experience:  experience,
	}, nil
}

func (c RiderContext) Temperature() float64 { return c.temperature }
func (c RiderContext) Rainfall() float64 { return c.rainfall }
func (c RiderContext) Visibility() float64 { return c.visibility }
func (c RiderContext) Distance() float64 { return c.distance }
func (c RiderContext) TimeOfDay() TimeOfDay { return c.timeOfDay }
func (c RiderContext) Experience() int { return c.experience }

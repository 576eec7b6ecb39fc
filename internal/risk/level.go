package risk

import (
	"math"
	"strconv"
)

// Level is the discrete risk band derived from a clamped score
type Level string

const (
	LevelLow    Level = "Low"
	LevelMedium Level = "Medium"
	LevelHigh   Level = "High"
)

// Band lower bounds
const (
	MediumThreshold = 0.33
	HighThreshold   = 0.66
)

// Clamp bounds a raw regression output to [0,1]
func Clamp(score float64) float64 {
	return math.Max(0, math.Min(1, score))
}

// Round3 rounds the exact binary value to three decimal places, ties to even.
func Round3(score float64) float64 {
	rounded, err := strconv.ParseFloat(strconv.FormatFloat(score, 'f', 3, 64), 64)
	if err != nil {
		return score
	}
	return rounded
}

// Bucket maps a score in [0,1] to its band. Each band includes its lower bound.
func Bucket(score float64) Level {
	switch {
	case score < MediumThreshold:
		return LevelLow
	case score < HighThreshold:
		return LevelMedium
	default:
		return LevelHigh
	}
}

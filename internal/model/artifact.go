package model

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/ZanzyTHEbar/moto-risk/internal/risk"
)

// Artifact kinds
const (
	KindForest = "forest"
	KindLinear = "linear"
)

// Artifact is the on-disk form of a trained regression model
type Artifact struct {
	Kind     string   `json:"kind"`
	Version  string   `json:"version"`
	Features []string `json:"features"`

	Trees []Tree `json:"trees,omitempty"`

	Intercept    float64   `json:"intercept,omitempty"`
	Coefficients []float64 `json:"coefficients,omitempty"`
}

// Loaded is a predictor built from an artifact, plus its metadata
type Loaded interface {
	risk.Predictor
	Kind() string
	Version() string
}

// Load reads and validates the artifact at path. Any error here means the
// process must not start serving.
func Load(path string) (Loaded, error) {
	if path == "" {
		return nil, fmt.Errorf("model artifact path is required")
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model artifact: %w", err)
	}

	var a Artifact
	if err := json.Unmarshal(b, &a); err != nil {
		return nil, fmt.Errorf("parse model artifact: %w", err)
	}

	return FromArtifact(a)
}

// FromArtifact builds a predictor from a decoded artifact
func FromArtifact(a Artifact) (Loaded, error) {
	if err := checkFeatures(a.Features); err != nil {
		return nil, err
	}

	switch a.Kind {
	case KindForest:
		return NewForest(a.Version, a.Trees)
	case KindLinear:
		return NewLinear(a.Version, a.Intercept, a.Coefficients)
	default:
		return nil, fmt.Errorf("unknown model kind %q", a.Kind)
	}
}

// checkFeatures guards the training column order. A mismatch would silently
// corrupt every prediction.
func checkFeatures(names []string) error {
	if len(names) != risk.FeatureCount {
		return fmt.Errorf("model declares %d features, expected %d", len(names), risk.FeatureCount)
	}
	for i, name := range names {
		if name != risk.FeatureNames[i] {
			return fmt.Errorf("feature %d is %q, expected %q", i, name, risk.FeatureNames[i])
		}
	}
	return nil
}

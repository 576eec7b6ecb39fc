package model

import (
	"context"
	"fmt"

	"github.com/ZanzyTHEbar/moto-risk/internal/risk"
)

// Node is one split or leaf of a regression tree. Leaves have Left == -1.
type Node struct {
	Feature   int     `json:"feature"`
	Threshold float64 `json:"threshold"`
	Left      int     `json:"left"`
	Right     int     `json:"right"`
	Value     float64 `json:"value"`
}

// Tree is a flat node array rooted at index 0
type Tree struct {
	Nodes []Node `json:"nodes"`
}

// Forest averages the leaf values of an ensemble of regression trees
type Forest struct {
	version string
	trees   []Tree
}

// NewForest validates the trees so that Predict can walk them without bounds checks failing
func NewForest(version string, trees []Tree) (*Forest, error) {
	if len(trees) == 0 {
		return nil, fmt.Errorf("forest has no trees")
	}

	for ti, t := range trees {
		if err := validateTree(t); err != nil {
			return nil, fmt.Errorf("tree %d: %w", ti, err)
		}
	}

	return &Forest{version: version, trees: trees}, nil
}

func validateTree(t Tree) error {
	n := len(t.Nodes)
	if n == 0 {
		return fmt.Errorf("empty tree")
	}

	for i, node := range t.Nodes {
		if node.Left == -1 {
			continue
		}
		if node.Feature < 0 || node.Feature >= risk.FeatureCount {
			return fmt.Errorf("node %d: feature index %d out of range", i, node.Feature)
		}
		// children must point forward, which also rules out cycles
		if node.Left <= i || node.Left >= n || node.Right <= i || node.Right >= n {
			return fmt.Errorf("node %d: invalid children %d/%d", i, node.Left, node.Right)
		}
	}
	return nil
}

func (t Tree) predict(v risk.FeatureVector) float64 {
	i := 0
	for {
		node := t.Nodes[i]
		if node.Left == -1 {
			return node.Value
		}
		if v[node.Feature] <= node.Threshold {
			i = node.Left
		} else {
			i = node.Right
		}
	}
}

// Predict returns the mean prediction across all trees
func (f *Forest) Predict(ctx context.Context, v risk.FeatureVector) (float64, error) {
	_, span := tracer.Start(ctx, "model.predict")
	defer span.End()

	sum := 0.0
	for _, t := range f.trees {
		sum += t.predict(v)
	}
	return sum / float64(len(f.trees)), nil
}

func (f *Forest) Kind() string    { return KindForest }
func (f *Forest) Version() string { return f.version }

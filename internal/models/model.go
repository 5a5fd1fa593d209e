package models

import (
	"encoding/gob"
	"sort"
)

// Classifier is a trainable model. PredictProba columns follow Classes().
type Classifier interface {
	Fit(X [][]float64, y []int) error
	PredictProba(X [][]float64) [][]float64
	Classes() []int
	Name() string
}

// WeightedClassifier accepts one non-negative weight per training row.
type WeightedClassifier interface {
	Classifier
	FitWeighted(X [][]float64, y []int, w []float64) error
}

// Factory holds an untrained configuration. Copying the value clones it;
// New builds a fresh classifier whose randomness is fixed by seed.
type Factory interface {
	New(seed int64) Classifier
	Name() string
}

func init() {
	gob.Register(&DecisionTree{})
	gob.Register(&GradientBoosting{})
	gob.Register(DecisionTreeConfig{})
	gob.Register(GradientBoostingConfig{})
}

// Predict returns the most probable label for each row.
func Predict(c Classifier, X [][]float64) []int {
	classes := c.Classes()
	ps := c.PredictProba(X)
	out := make([]int, len(ps))
	for i, p := range ps {
		out[i] = classes[argmax(p)]
	}
	return out
}

// UniqueLabels returns the sorted distinct labels of y.
func UniqueLabels(y []int) []int {
	seen := make(map[int]struct{}, 4)
	for _, v := range y {
		seen[v] = struct{}{}
	}
	out := make([]int, 0, len(seen))
	for v := range seen {
		out = append(out, v)
	}
	sort.Ints(out)
	return out
}

// encodeLabels maps y onto indexes of classes.
func encodeLabels(y []int, classes []int) []int {
	pos := make(map[int]int, len(classes))
	for i, c := range classes {
		pos[c] = i
	}
	out := make([]int, len(y))
	for i, v := range y {
		out[i] = pos[v]
	}
	return out
}

func argmax(p []float64) int {
	best := 0
	for j := 1; j < len(p); j++ {
		if p[j] > p[best] {
			best = j
		}
	}
	return best
}

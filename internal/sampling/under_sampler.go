package sampling

import (
	"errors"
	"fmt"
	"math/rand"
)

// Config is the untrained form of RandomUnderSampler.
type Config struct {
	Strategy    Strategy
	Replacement bool
}

func (c Config) New(seed int64) *RandomUnderSampler {
	return &RandomUnderSampler{Strategy: c.Strategy, Replacement: c.Replacement, Seed: seed}
}

// RandomUnderSampler drops random rows of the classes picked by Strategy.
// Sample weights are not supported.
type RandomUnderSampler struct {
	Strategy    Strategy
	Replacement bool
	Seed        int64

	// SampleIndices holds, after FitResample, the input row of every output row.
	SampleIndices []int
	Targets       map[int]int
}

func NewRandomUnderSampler() *RandomUnderSampler {
	return &RandomUnderSampler{Strategy: Strategy{Kind: Auto}}
}

func (s *RandomUnderSampler) FitResample(X [][]float64, y []int) ([][]float64, []int, error) {
	if len(X) == 0 {
		return nil, nil, errors.New("random undersampler: empty input")
	}
	if len(X) != len(y) {
		return nil, nil, fmt.Errorf("random undersampler: %d rows but %d labels", len(X), len(y))
	}
	targets, err := Targets(s.Strategy, y)
	if err != nil {
		return nil, nil, err
	}
	s.Targets = targets

	byClass := make(map[int][]int, len(targets))
	for i, v := range y {
		byClass[v] = append(byClass[v], i)
	}
	rng := rand.New(rand.NewSource(s.Seed))
	idx := make([]int, 0, len(y))
	for _, c := range sortedLabels(ClassCounts(y)) {
		rows := byClass[c]
		n, ok := targets[c]
		if !ok {
			idx = append(idx, rows...)
			continue
		}
		if s.Replacement {
			for k := 0; k < n; k++ {
				idx = append(idx, rows[rng.Intn(len(rows))])
			}
			continue
		}
		for _, k := range rng.Perm(len(rows))[:n] {
			idx = append(idx, rows[k])
		}
	}
	s.SampleIndices = idx

	Xr := make([][]float64, len(idx))
	yr := make([]int, len(idx))
	for i, j := range idx {
		Xr[i] = X[j]
		yr[i] = y[j]
	}
	return Xr, yr, nil
}

package models

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

type gbTree struct {
	Feature   int
	Threshold float64
	LeftVal   float64
	RightVal  float64
}

// GradientBoostingConfig is the untrained form of GradientBoosting. The
// boosting itself is deterministic, so the seed is ignored.
type GradientBoostingConfig struct {
	NEstimators        int
	LearningRate       float64
	MinSamples         int
	MaxThresholdsPerFe int
}

func (c GradientBoostingConfig) New(int64) Classifier {
	return &GradientBoosting{
		NEstimators:        c.NEstimators,
		LearningRate:       c.LearningRate,
		MinSamples:         c.MinSamples,
		MaxThresholdsPerFe: c.MaxThresholdsPerFe,
	}
}

func (c GradientBoostingConfig) Name() string { return "GradientBoosting" }

// GradientBoosting fits logistic-loss decision stumps. Binary targets only.
type GradientBoosting struct {
	NEstimators        int
	LearningRate       float64
	MinSamples         int
	MaxThresholdsPerFe int
	Init               float64
	Labels             []int
	Trees              []gbTree
}

func DefaultGradientBoostingConfig() GradientBoostingConfig {
	return GradientBoostingConfig{NEstimators: 50, LearningRate: 0.1, MaxThresholdsPerFe: 32}
}

func NewGradientBoosting() *GradientBoosting {
	return DefaultGradientBoostingConfig().New(0).(*GradientBoosting)
}

func (gb *GradientBoosting) Name() string { return "GradientBoosting" }

func (gb *GradientBoosting) Classes() []int { return gb.Labels }

func sigmoid(z float64) float64 { return 1.0 / (1.0 + math.Exp(-z)) }

func (gb *GradientBoosting) Fit(X [][]float64, y []int) error {
	n := len(X)
	if n == 0 {
		return errors.New("gradient boosting: empty training set")
	}
	if n != len(y) {
		return fmt.Errorf("gradient boosting: %d rows but %d labels", n, len(y))
	}
	gb.Labels = UniqueLabels(y)
	if len(gb.Labels) > 2 {
		return fmt.Errorf("gradient boosting: binary targets only, got %d classes", len(gb.Labels))
	}
	gb.Trees = gb.Trees[:0]
	if len(gb.Labels) == 1 {
		gb.Init = 0
		return nil
	}
	t := encodeLabels(y, gb.Labels)

	pos := 0
	for i := 0; i < n; i++ {
		pos += t[i]
	}
	base := float64(pos) / float64(n)
	base = math.Min(math.Max(base, 1e-3), 1-1e-3)
	gb.Init = math.Log(base / (1.0 - base))
	F := make([]float64, n)
	for i := 0; i < n; i++ {
		F[i] = gb.Init
	}

	nFeats := len(X[0])
	cands := make([][]float64, nFeats)
	for j := 0; j < nFeats; j++ {
		cands[j] = gbCandidateThresholds(X, j, gb.MaxThresholdsPerFe)
	}

	r := make([]float64, n)
	for m := 0; m < gb.NEstimators; m++ {
		for i := 0; i < n; i++ {
			r[i] = float64(t[i]) - sigmoid(F[i])
		}
		best, ok := gb.bestStump(X, r, cands)
		if !ok {
			break
		}
		gb.Trees = append(gb.Trees, best)
		for i := 0; i < n; i++ {
			F[i] += gb.LearningRate * best.eval(X[i])
		}
	}
	return nil
}

func (gb *GradientBoosting) bestStump(X [][]float64, r []float64, cands [][]float64) (gbTree, bool) {
	n := len(X)
	best := gbTree{Feature: -1}
	bestSSE := math.MaxFloat64
	for j, thrs := range cands {
		for _, thr := range thrs {
			leftSum, leftCount := 0.0, 0.0
			rightSum, rightCount := 0.0, 0.0
			for i := 0; i < n; i++ {
				if X[i][j] <= thr {
					leftSum += r[i]
					leftCount++
				} else {
					rightSum += r[i]
					rightCount++
				}
			}
			if leftCount == 0 || rightCount == 0 {
				continue
			}
			if int(leftCount) < gb.MinSamples || int(rightCount) < gb.MinSamples {
				continue
			}
			leftAvg := leftSum / leftCount
			rightAvg := rightSum / rightCount

			sse := 0.0
			for i := 0; i < n; i++ {
				d := r[i] - rightAvg
				if X[i][j] <= thr {
					d = r[i] - leftAvg
				}
				sse += d * d
			}
			if sse < bestSSE {
				bestSSE = sse
				best = gbTree{Feature: j, Threshold: thr, LeftVal: leftAvg, RightVal: rightAvg}
			}
		}
	}
	return best, best.Feature != -1
}

func (t gbTree) eval(x []float64) float64 {
	if x[t.Feature] > t.Threshold {
		return t.RightVal
	}
	return t.LeftVal
}

func (gb *GradientBoosting) PredictProba(X [][]float64) [][]float64 {
	out := make([][]float64, len(X))
	for i := range X {
		if len(gb.Labels) < 2 {
			out[i] = uniform(len(gb.Labels))
			continue
		}
		f := gb.Init
		for _, t := range gb.Trees {
			f += gb.LearningRate * t.eval(X[i])
		}
		p := sigmoid(f)
		out[i] = []float64{1 - p, p}
	}
	return out
}

func (gb *GradientBoosting) Predict(X [][]float64) []int { return Predict(gb, X) }

func gbCandidateThresholds(X [][]float64, j int, nCand int) []float64 {
	if nCand <= 0 {
		nCand = 16
	}
	n := len(X)
	vals := make([]float64, n)
	for i := 0; i < n; i++ {
		vals[i] = X[i][j]
	}
	sort.Float64s(vals)
	out := make([]float64, 0, nCand)
	for k := 1; k < nCand; k++ {
		idx := int(math.Round(float64(k) / float64(nCand) * float64(n-1)))
		if idx <= 0 || idx >= n {
			continue
		}
		thr := vals[idx]
		if len(out) == 0 || thr != out[len(out)-1] {
			out = append(out, thr)
		}
	}
	if len(out) == 0 {
		sum := 0.0
		for i := 0; i < n; i++ {
			sum += vals[i]
		}
		out = append(out, sum/float64(n))
	}
	return out
}

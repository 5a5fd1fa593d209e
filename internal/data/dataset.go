package data

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sort"
)

// ClassificationConfig drives MakeClassification. Weights gives the share of
// each class; labels are 0..len(Weights)-1.
type ClassificationConfig struct {
	NSamples     int
	NFeatures    int
	NInformative int
	Weights      []float64
	ClassSep     float64
	FlipY        float64
	Seed         int64
}

func DefaultClassificationConfig() ClassificationConfig {
	return ClassificationConfig{
		NSamples:     1000,
		NFeatures:    20,
		NInformative: 3,
		Weights:      []float64{0.1, 0.9},
		ClassSep:     2,
		Seed:         10,
	}
}

// MakeClassification draws Gaussian clusters, one per class, centred on
// vertices of a hypercube in the informative columns. The remaining columns
// are noise. Rows are shuffled.
func MakeClassification(cfg ClassificationConfig) ([][]float64, []int, error) {
	k := len(cfg.Weights)
	if k < 2 {
		return nil, nil, errors.New("make classification: need at least two class weights")
	}
	if cfg.NSamples < k {
		return nil, nil, fmt.Errorf("make classification: %d samples for %d classes", cfg.NSamples, k)
	}
	bits := int(math.Ceil(math.Log2(float64(k))))
	if cfg.NInformative < bits || cfg.NInformative > cfg.NFeatures {
		return nil, nil, fmt.Errorf("make classification: n_informative must be in [%d, %d], got %d", bits, cfg.NFeatures, cfg.NInformative)
	}
	total := 0.0
	for _, w := range cfg.Weights {
		total += w
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	counts := make([]int, k)
	left := cfg.NSamples
	for c := 0; c < k-1; c++ {
		counts[c] = int(math.Round(cfg.Weights[c] / total * float64(cfg.NSamples)))
		left -= counts[c]
	}
	counts[k-1] = left

	X := make([][]float64, 0, cfg.NSamples)
	y := make([]int, 0, cfg.NSamples)
	for c := 0; c < k; c++ {
		for n := 0; n < counts[c]; n++ {
			row := make([]float64, cfg.NFeatures)
			for j := range row {
				row[j] = rng.NormFloat64()
				if j < cfg.NInformative {
					sign := -1.0
					if (c>>(j%bits))&1 == 1 {
						sign = 1
					}
					row[j] += sign * cfg.ClassSep
				}
			}
			X = append(X, row)
			y = append(y, c)
		}
	}
	for i := range y {
		if cfg.FlipY > 0 && rng.Float64() < cfg.FlipY {
			y[i] = rng.Intn(k)
		}
	}
	perm := rng.Perm(len(X))
	shX := make([][]float64, len(X))
	shY := make([]int, len(y))
	for i, j := range perm {
		shX[i] = X[j]
		shY[i] = y[j]
	}
	return shX, shY, nil
}

// StratifiedSplit holds out testFrac of every class, then shuffles both sides.
func StratifiedSplit(X [][]float64, y []int, testFrac float64, seed int64) (Xtrain [][]float64, ytrain []int, Xtest [][]float64, ytest []int) {
	rng := rand.New(rand.NewSource(seed))
	byClass := map[int][]int{}
	for i, v := range y {
		byClass[v] = append(byClass[v], i)
	}
	labels := make([]int, 0, len(byClass))
	for c := range byClass {
		labels = append(labels, c)
	}
	sort.Ints(labels)

	var trainIdx, testIdx []int
	for _, c := range labels {
		rows := byClass[c]
		nTest := int(math.Round(testFrac * float64(len(rows))))
		for k, p := range rng.Perm(len(rows)) {
			if k < nTest {
				testIdx = append(testIdx, rows[p])
			} else {
				trainIdx = append(trainIdx, rows[p])
			}
		}
	}
	take := func(idx []int) ([][]float64, []int) {
		xs := make([][]float64, len(idx))
		ys := make([]int, len(idx))
		for i, p := range rng.Perm(len(idx)) {
			xs[i] = X[idx[p]]
			ys[i] = y[idx[p]]
		}
		return xs, ys
	}
	Xtrain, ytrain = take(trainIdx)
	Xtest, ytest = take(testIdx)
	return
}

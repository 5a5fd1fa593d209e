package models

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
)

type DTNode struct {
	Feature   int
	Threshold float64
	Left      *DTNode
	Right     *DTNode
	IsLeaf    bool
	Proba     []float64
}

// DecisionTreeConfig is the untrained form of DecisionTree.
// MaxDepth < 0 grows until MinSamplesSplit or purity stops it.
// MaxFeatures 0 considers every feature at each split, -1 uses sqrt(n).
type DecisionTreeConfig struct {
	MaxDepth           int
	MinSamplesSplit    int
	MaxThresholdsPerFe int
	MaxFeatures        int
}

func DefaultDecisionTreeConfig() DecisionTreeConfig {
	return DecisionTreeConfig{MaxDepth: -1, MinSamplesSplit: 2, MaxThresholdsPerFe: 64}
}

func (c DecisionTreeConfig) New(seed int64) Classifier {
	return &DecisionTree{
		MaxDepth:           c.MaxDepth,
		MinSamplesSplit:    c.MinSamplesSplit,
		MaxThresholdsPerFe: c.MaxThresholdsPerFe,
		MaxFeatures:        c.MaxFeatures,
		Seed:               seed,
	}
}

func (c DecisionTreeConfig) Name() string { return "DecisionTree" }

type DecisionTree struct {
	MaxDepth           int
	MinSamplesSplit    int
	MaxThresholdsPerFe int
	MaxFeatures        int
	Seed               int64
	Labels             []int
	Root               *DTNode

	rng *rand.Rand
}

func NewDecisionTree() *DecisionTree {
	return &DecisionTree{MaxDepth: 6, MinSamplesSplit: 100, MaxThresholdsPerFe: 64}
}

func (dt *DecisionTree) Name() string { return "DecisionTree" }

func (dt *DecisionTree) Classes() []int { return dt.Labels }

func (dt *DecisionTree) Fit(X [][]float64, y []int) error {
	return dt.FitWeighted(X, y, nil)
}

func (dt *DecisionTree) FitWeighted(X [][]float64, y []int, w []float64) error {
	if len(X) == 0 {
		return errors.New("decision tree: empty training set")
	}
	if len(X) != len(y) {
		return fmt.Errorf("decision tree: %d rows but %d labels", len(X), len(y))
	}
	if w != nil && len(w) != len(y) {
		return fmt.Errorf("decision tree: %d rows but %d weights", len(X), len(w))
	}
	dt.rng = rand.New(rand.NewSource(dt.Seed))
	dt.Labels = UniqueLabels(y)
	enc := encodeLabels(y, dt.Labels)

	idx := make([]int, 0, len(X))
	for i := range X {
		if w != nil && w[i] <= 0 {
			continue
		}
		idx = append(idx, i)
	}
	if len(idx) == 0 {
		return errors.New("decision tree: all sample weights are zero")
	}
	maxFeats := dt.MaxFeatures
	if maxFeats < 0 {
		maxFeats = int(math.Max(1, math.Sqrt(float64(len(X[0])))))
	}
	dt.Root = dt.build(X, enc, w, idx, 0, maxFeats)
	return nil
}

func (dt *DecisionTree) PredictProba(X [][]float64) [][]float64 {
	out := make([][]float64, len(X))
	for i := range X {
		out[i] = dt.predictProbaOne(X[i])
	}
	return out
}

func (dt *DecisionTree) Predict(X [][]float64) []int { return Predict(dt, X) }

func (dt *DecisionTree) predictProbaOne(x []float64) []float64 {
	n := dt.Root
	if n == nil {
		return uniform(len(dt.Labels))
	}
	for !n.IsLeaf {
		if x[n.Feature] <= n.Threshold {
			n = n.Left
		} else {
			n = n.Right
		}
		if n == nil {
			return uniform(len(dt.Labels))
		}
	}
	p := make([]float64, len(n.Proba))
	copy(p, n.Proba)
	return p
}

func (dt *DecisionTree) build(X [][]float64, y []int, w []float64, idx []int, depth, maxFeats int) *DTNode {
	node := &DTNode{}
	p := classProba(y, w, idx, len(dt.Labels))
	stop := len(idx) < dt.MinSamplesSplit || (dt.MaxDepth >= 0 && depth >= dt.MaxDepth)
	if stop || isPure(p) {
		node.IsLeaf = true
		node.Proba = p
		return node
	}
	bestFeature := -1
	bestThr := 0.0
	bestImp := math.MaxFloat64
	var leftIdxBest, rightIdxBest []int

	for _, f := range pickFeatures(dt.rng, len(X[0]), maxFeats) {
		for _, thr := range candidateThresholds(dt.rng, X, idx, f, dt.MaxThresholdsPerFe) {
			lIdx, rIdx := splitIdx(X, idx, f, thr)
			if len(lIdx) == 0 || len(rIdx) == 0 {
				continue
			}
			imp := giniImpurity(y, w, lIdx, rIdx, len(dt.Labels))
			if imp < bestImp {
				bestImp = imp
				bestFeature = f
				bestThr = thr
				leftIdxBest = lIdx
				rightIdxBest = rIdx
			}
		}
	}

	if bestFeature == -1 {
		node.IsLeaf = true
		node.Proba = p
		return node
	}
	node.Feature = bestFeature
	node.Threshold = bestThr
	node.Left = dt.build(X, y, w, leftIdxBest, depth+1, maxFeats)
	node.Right = dt.build(X, y, w, rightIdxBest, depth+1, maxFeats)
	return node
}

func weightOf(w []float64, i int) float64 {
	if w == nil {
		return 1
	}
	return w[i]
}

func classProba(y []int, w []float64, idx []int, k int) []float64 {
	p := make([]float64, k)
	total := 0.0
	for _, i := range idx {
		wi := weightOf(w, i)
		p[y[i]] += wi
		total += wi
	}
	if total == 0 {
		return uniform(k)
	}
	for j := range p {
		p[j] /= total
	}
	return p
}

func isPure(p []float64) bool {
	for _, v := range p {
		if v == 1 {
			return true
		}
	}
	return false
}

func uniform(k int) []float64 {
	p := make([]float64, k)
	for j := range p {
		p[j] = 1 / float64(k)
	}
	return p
}

func splitIdx(X [][]float64, idx []int, f int, thr float64) ([]int, []int) {
	l := make([]int, 0, len(idx))
	r := make([]int, 0, len(idx))
	for _, i := range idx {
		if X[i][f] <= thr {
			l = append(l, i)
		} else {
			r = append(r, i)
		}
	}
	return l, r
}

// giniImpurity is the weighted gini of a two-way split.
func giniImpurity(y []int, w []float64, lIdx, rIdx []int, k int) float64 {
	g := func(ids []int) (float64, float64) {
		counts := make([]float64, k)
		total := 0.0
		for _, i := range ids {
			wi := weightOf(w, i)
			counts[y[i]] += wi
			total += wi
		}
		if total == 0 {
			return 0, 0
		}
		s := 0.0
		for _, c := range counts {
			q := c / total
			s += q * q
		}
		return 1 - s, total
	}
	gl, wl := g(lIdx)
	gr, wr := g(rIdx)
	n := wl + wr
	if n == 0 {
		return math.MaxFloat64
	}
	return (wl/n)*gl + (wr/n)*gr
}

func candidateThresholds(rng *rand.Rand, X [][]float64, idx []int, f int, maxC int) []float64 {
	values := make([]float64, len(idx))
	for j, i := range idx {
		values[j] = X[i][f]
	}
	if maxC <= 0 || maxC >= len(values) {
		return values
	}
	for i := range values {
		j := rng.Intn(len(values))
		values[i], values[j] = values[j], values[i]
	}
	return values[:maxC]
}

func pickFeatures(rng *rand.Rand, nFeats int, maxFeats int) []int {
	idx := make([]int, nFeats)
	for i := 0; i < nFeats; i++ {
		idx[i] = i
	}
	if maxFeats <= 0 || maxFeats >= nFeats {
		return idx
	}
	for i := range idx {
		j := rng.Intn(nFeats)
		idx[i], idx[j] = idx[j], idx[i]
	}
	return idx[:maxFeats]
}

package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfusionMatrix(t *testing.T) {
	y := []int{0, 0, 1, 1, 1, 2}
	p := []int{0, 1, 1, 1, 0, 2}
	cm := ConfusionMatrix(y, p, []int{0, 1, 2})
	assert.Equal(t, [][]int{{1, 1, 0}, {1, 2, 0}, {0, 0, 1}}, cm)
	assert.InDelta(t, (0.5+2.0/3+1)/3, BalancedAccuracy(y, p, []int{0, 1, 2}), 1e-12)
	assert.InDelta(t, 4.0/6, Accuracy(y, p), 1e-12)
}

func TestPRF1(t *testing.T) {
	y := []int{1, 1, 0, 0}
	ps := []float64{0.9, 0.4, 0.6, 0.1}
	tp, fp, tn, fn := Confusion(y, ps, 0.5)
	assert.Equal(t, []int{1, 1, 1, 1}, []int{tp, fp, tn, fn})

	prec, rec, f1 := PRF1(y, ps, 0.5)
	assert.Equal(t, 0.5, prec)
	assert.Equal(t, 0.5, rec)
	assert.Equal(t, 0.5, f1)
}

func TestROCAUC(t *testing.T) {
	assert.Equal(t, 1.0, ROCAUC([]int{0, 0, 1, 1}, []float64{0.1, 0.2, 0.8, 0.9}))
	assert.Equal(t, 0.0, ROCAUC([]int{1, 1, 0, 0}, []float64{0.1, 0.2, 0.8, 0.9}))
	assert.Equal(t, 0.5, ROCAUC([]int{0, 1}, []float64{0.5, 0.5}))
	assert.Equal(t, 0.75, ROCAUC([]int{0, 1, 0, 1}, []float64{0.1, 0.4, 0.5, 0.8}))
	assert.Equal(t, 0.0, ROCAUC([]int{1, 1}, []float64{0.1, 0.2}))
}

func TestPRAUCPerfect(t *testing.T) {
	assert.Equal(t, 1.0, PRAUC([]int{0, 0, 1, 1}, []float64{0.1, 0.2, 0.8, 0.9}))
}

func TestBestThreshold(t *testing.T) {
	y := []int{0, 0, 0, 1, 1}
	ps := []float64{0.1, 0.2, 0.3, 0.7, 0.8}
	thr, f1 := BestThreshold(y, ps, false)
	assert.Equal(t, 1.0, f1)
	assert.Greater(t, thr, 0.3)
	assert.LessOrEqual(t, thr, 0.7)

	_, acc := BestThreshold(y, ps, true)
	assert.Equal(t, 1.0, acc)
}

func TestPositiveColumn(t *testing.T) {
	proba := [][]float64{{0.2, 0.8}, {0.9, 0.1}}
	assert.Equal(t, []float64{0.8, 0.1}, PositiveColumn(proba, []int{0, 1}))
	assert.Equal(t, []float64{0, 0}, PositiveColumn(proba, []int{0, 2}))
	assert.Equal(t, []int{1, 0}, ProbaToPred([]float64{0.8, 0.1}, 0.5))
}

package ensemble

import (
	"math"

	"go.uber.org/zap"
)

// setOOBScore scores every training row with the members that did not draw
// it. Rows no member left out get a NaN decision row and are not scored.
func (b *Bagging) setOOBScore(X [][]float64, y []int) {
	n := len(X)
	predictions := make([][]float64, n)
	for i := range predictions {
		predictions[i] = make([]float64, b.NClasses)
	}
	for k, est := range b.Estimators {
		var rows []int
		for i, drawn := range b.EstimatorsSamples[k] {
			if !drawn {
				rows = append(rows, i)
			}
		}
		if len(rows) == 0 {
			continue
		}
		sub := make([][]float64, len(rows))
		for r, i := range rows {
			sub[r] = projectRow(X[i], b.EstimatorsFeatures[k])
		}
		b.accumulate(predictions, est, sub, rows)
	}

	decision := make([][]float64, n)
	correct, scored, missing := 0, 0, 0
	for i, p := range predictions {
		sum := 0.0
		for _, v := range p {
			sum += v
		}
		decision[i] = make([]float64, b.NClasses)
		if sum == 0 {
			missing++
			for j := range decision[i] {
				decision[i][j] = math.NaN()
			}
			continue
		}
		best := 0
		for j, v := range p {
			decision[i][j] = v / sum
			if v > p[best] {
				best = j
			}
		}
		scored++
		if b.ClassLabels[best] == y[i] {
			correct++
		}
	}
	if missing > 0 {
		b.log().Warn("some inputs do not have OOB scores; too few estimators were used to compute a reliable OOB estimate",
			zap.Int("rows_without_oob", missing))
	}
	b.OOBDecisionFunction = decision
	b.OOBScoreValue = math.NaN()
	if scored > 0 {
		b.OOBScoreValue = float64(correct) / float64(scored)
	}
}

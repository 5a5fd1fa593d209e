package report

import "balancedbag/internal/metrics"

// Evaluate scores binary fraud probabilities ps against y at thr.
func Evaluate(y []int, ps []float64, thr float64) Scores {
	pred := metrics.ProbaToPred(ps, thr)
	labels := []int{0, 1}
	prec, rec, f1 := metrics.PRF1(y, ps, thr)
	return Scores{
		Accuracy:         metrics.Accuracy(y, pred),
		BalancedAccuracy: metrics.BalancedAccuracy(y, pred, labels),
		Precision:        prec,
		Recall:           rec,
		F1:               f1,
		ROCAUC:           metrics.ROCAUC(y, ps),
		PRAUC:            metrics.PRAUC(y, ps),
		Confusion:        metrics.ConfusionMatrix(y, pred, labels),
	}
}

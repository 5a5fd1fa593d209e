package metrics

import (
	"math"
	"sort"
)

func Accuracy(y, p []int) float64 {
	if len(y) == 0 {
		return 0
	}
	c := 0
	for i := range y {
		if y[i] == p[i] {
			c++
		}
	}
	return float64(c) / float64(len(y))
}

// ConfusionMatrix counts rows by true label (row) and predicted label
// (column), both ordered as labels.
func ConfusionMatrix(y, p []int, labels []int) [][]int {
	pos := make(map[int]int, len(labels))
	for i, l := range labels {
		pos[l] = i
	}
	cm := make([][]int, len(labels))
	for i := range cm {
		cm[i] = make([]int, len(labels))
	}
	for i := range y {
		r, ok1 := pos[y[i]]
		c, ok2 := pos[p[i]]
		if ok1 && ok2 {
			cm[r][c]++
		}
	}
	return cm
}

// BalancedAccuracy is the mean per-class recall.
func BalancedAccuracy(y, p []int, labels []int) float64 {
	cm := ConfusionMatrix(y, p, labels)
	sum, n := 0.0, 0
	for i, row := range cm {
		total := 0
		for _, v := range row {
			total += v
		}
		if total == 0 {
			continue
		}
		sum += float64(row[i]) / float64(total)
		n++
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

func ProbaToPred(ps []float64, thr float64) []int {
	out := make([]int, len(ps))
	for i := range ps {
		if ps[i] >= thr {
			out[i] = 1
		}
	}
	return out
}

// PositiveColumn extracts the probability of label 1 from rows aligned to
// classes. It is zero when the model never saw label 1.
func PositiveColumn(proba [][]float64, classes []int) []float64 {
	col := -1
	for j, c := range classes {
		if c == 1 {
			col = j
		}
	}
	out := make([]float64, len(proba))
	if col < 0 {
		return out
	}
	for i, p := range proba {
		out[i] = p[col]
	}
	return out
}

func Confusion(y []int, ps []float64, thr float64) (tp, fp, tn, fn int) {
	for i := range y {
		pred := ps[i] >= thr
		switch {
		case pred && y[i] == 1:
			tp++
		case pred:
			fp++
		case y[i] == 1:
			fn++
		default:
			tn++
		}
	}
	return
}

func PRF1(y []int, ps []float64, thr float64) (precision, recall, f1 float64) {
	tp, fp, _, fn := Confusion(y, ps, thr)
	if tp+fp > 0 {
		precision = float64(tp) / float64(tp+fp)
	}
	if tp+fn > 0 {
		recall = float64(tp) / float64(tp+fn)
	}
	if precision+recall > 0 {
		f1 = 2 * precision * recall / (precision + recall)
	}
	return
}

type scored struct {
	s float64
	y int
}

func sortedByScore(y []int, ps []float64) []scored {
	pairs := make([]scored, len(y))
	for i := range y {
		pairs[i] = scored{ps[i], y[i]}
	}
	sort.SliceStable(pairs, func(i, j int) bool { return pairs[i].s > pairs[j].s })
	return pairs
}

// ROCAUC integrates the ROC curve with the trapezoid rule; tied scores form
// a single step. Returns 0 when only one class is present.
func ROCAUC(y []int, ps []float64) float64 {
	pairs := sortedByScore(y, ps)
	var pos, neg int
	for _, p := range pairs {
		if p.y == 1 {
			pos++
		} else {
			neg++
		}
	}
	if pos == 0 || neg == 0 {
		return 0
	}
	tp, fp := 0, 0
	prevS := math.Inf(1)
	var auc, prevTPR, prevFPR float64
	for _, p := range pairs {
		if p.s != prevS {
			tpr := float64(tp) / float64(pos)
			fpr := float64(fp) / float64(neg)
			auc += (fpr - prevFPR) * (tpr + prevTPR) / 2.0
			prevTPR, prevFPR = tpr, fpr
			prevS = p.s
		}
		if p.y == 1 {
			tp++
		} else {
			fp++
		}
	}
	auc += (1 - prevFPR) * (1 + prevTPR) / 2.0
	return auc
}

func PRAUC(y []int, ps []float64) float64 {
	pairs := sortedByScore(y, ps)
	var tp, fp, fn int
	for _, p := range pairs {
		if p.y == 1 {
			fn++
		}
	}
	var prevRec, auc float64
	for _, p := range pairs {
		if p.y == 1 {
			tp++
			fn--
		} else {
			fp++
		}
		var prec, rec float64
		if tp+fp > 0 {
			prec = float64(tp) / float64(tp+fp)
		}
		if tp+fn > 0 {
			rec = float64(tp) / float64(tp+fn)
		}
		auc += (rec - prevRec) * prec
		prevRec = rec
	}
	return auc
}

// BestThreshold scans [0, 1] in 200 steps for the threshold maximising F1,
// or accuracy when byAccuracy is set.
func BestThreshold(y []int, ps []float64, byAccuracy bool) (thr float64, best float64) {
	if len(ps) == 0 {
		return 0.5, 0
	}
	const steps = 200
	best = -1
	thr = 0.5
	for i := 0; i <= steps; i++ {
		t := float64(i) / float64(steps)
		var m float64
		if byAccuracy {
			m = Accuracy(y, ProbaToPred(ps, t))
		} else {
			_, _, m = PRF1(y, ps, t)
		}
		if m > best {
			best = m
			thr = t
		}
	}
	return
}

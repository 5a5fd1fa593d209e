package server

// RuleModel scores expenses from the red-flag features alone. The API falls
// back to it when no trained artifact can be loaded.
type RuleModel struct{}

func (r *RuleModel) Fit(X [][]float64, y []int) error { return nil }

func (r *RuleModel) Classes() []int { return []int{0, 1} }

func (r *RuleModel) Name() string { return "RuleModel" }

func (r *RuleModel) PredictProba(X [][]float64) [][]float64 {
	out := make([][]float64, len(X))
	for i, v := range X {
		s := r.score(v)
		out[i] = []float64{1 - s, s}
	}
	return out
}

// score expects the layout of features.Vectorize.
func (r *RuleModel) score(v []float64) float64 {
	s := 0.05
	if v[4] == 1 {
		s += 0.35
	}
	if v[5] == 1 {
		s += 0.1
	}
	if v[6] == 1 {
		s += 0.15
	}
	if v[7] == 1 {
		s += 0.15
	}
	if v[len(v)-3] == 1 && v[0] > 200 {
		s += 0.2
	}
	if v[1] < 0 {
		s += 0.3
	}
	if s > 0.95 {
		s = 0.95
	}
	return s
}

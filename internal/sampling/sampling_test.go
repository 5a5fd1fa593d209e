package sampling

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func labels(counts map[int]int) ([][]float64, []int) {
	var X [][]float64
	var y []int
	for _, c := range sortedLabels(counts) {
		for i := 0; i < counts[c]; i++ {
			X = append(X, []float64{float64(c), float64(i)})
			y = append(y, c)
		}
	}
	return X, y
}

func TestTargetsStrategies(t *testing.T) {
	_, y := labels(map[int]int{0: 10, 1: 50, 2: 30})

	tests := []struct {
		name string
		s    Strategy
		want map[int]int
	}{
		{"auto", FromKind(Auto), map[int]int{1: 10, 2: 10}},
		{"not minority", FromKind(NotMinority), map[int]int{1: 10, 2: 10}},
		{"majority", FromKind(Majority), map[int]int{1: 10}},
		{"not majority", FromKind(NotMajority), map[int]int{0: 10, 2: 10}},
		{"all", FromKind(All), map[int]int{0: 10, 1: 10, 2: 10}},
		{"counts", FromCounts(map[int]int{1: 20}), map[int]int{1: 20}},
		{"func", FromFunc(func(c map[int]int) map[int]int { return map[int]int{2: c[2] / 2} }), map[int]int{2: 15}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Targets(tt.s, y)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTargetsRatio(t *testing.T) {
	_, y := labels(map[int]int{0: 100, 1: 20})

	got, err := Targets(FromRatio(0.5), y)
	require.NoError(t, err)
	assert.Equal(t, map[int]int{0: 40}, got)

	_, err = Targets(FromRatio(0.1), y)
	assert.ErrorIs(t, err, ErrInvalidStrategy)

	_, err = Targets(FromRatio(1.5), y)
	assert.ErrorIs(t, err, ErrInvalidStrategy)

	_, multi := labels(map[int]int{0: 10, 1: 20, 2: 30})
	_, err = Targets(FromRatio(0.5), multi)
	assert.ErrorIs(t, err, ErrInvalidStrategy)
}

func TestTargetsTiesGoToFirstSeenLabel(t *testing.T) {
	y := []int{2, 2, 0, 0, 1, 1, 1, 1, 2, 0, 1}

	got, err := Targets(FromKind(Majority), y)
	require.NoError(t, err)
	assert.Equal(t, map[int]int{1: 3}, got)

	got, err = Targets(FromKind(NotMinority), y)
	require.NoError(t, err)
	assert.Equal(t, map[int]int{0: 3, 1: 3}, got, "class 2 is seen first among the smallest")

	tied := []int{1, 0, 1, 0, 2}
	got, err = Targets(FromKind(NotMajority), tied)
	require.NoError(t, err)
	assert.Equal(t, map[int]int{0: 1, 2: 1}, got, "class 1 is seen first among the largest")
}

func TestTargetsErrors(t *testing.T) {
	_, y := labels(map[int]int{0: 10, 1: 5})

	_, err := Targets(FromCounts(map[int]int{0: 11}), y)
	assert.ErrorIs(t, err, ErrInvalidStrategy)

	_, err = Targets(FromCounts(map[int]int{7: 1}), y)
	assert.ErrorIs(t, err, ErrInvalidStrategy)

	_, err = Targets(FromKind(Auto), []int{1, 1, 1})
	assert.ErrorIs(t, err, ErrInvalidTarget)
}

func TestFitResampleBalances(t *testing.T) {
	X, y := labels(map[int]int{0: 90, 1: 10})
	s := Config{Strategy: FromKind(Auto)}.New(7)

	Xr, yr, err := s.FitResample(X, y)
	require.NoError(t, err)
	assert.Equal(t, map[int]int{0: 10, 1: 10}, ClassCounts(yr))
	require.Len(t, s.SampleIndices, 20)

	seen := map[int]bool{}
	for i, j := range s.SampleIndices {
		assert.Equal(t, X[j], Xr[i])
		assert.Equal(t, y[j], yr[i])
		assert.False(t, seen[j], "row %d drawn twice without replacement", j)
		seen[j] = true
	}
	// classes come out in ascending label order, minority kept whole
	assert.Equal(t, 0, yr[0])
	assert.Equal(t, 1, yr[len(yr)-1])
}

func TestFitResampleReplacementAndSeed(t *testing.T) {
	X, y := labels(map[int]int{0: 40, 1: 30})

	a := Config{Strategy: FromKind(All), Replacement: true}.New(3)
	b := Config{Strategy: FromKind(All), Replacement: true}.New(3)
	_, ya, err := a.FitResample(X, y)
	require.NoError(t, err)
	_, _, err = b.FitResample(X, y)
	require.NoError(t, err)

	assert.Equal(t, a.SampleIndices, b.SampleIndices)
	assert.Equal(t, map[int]int{0: 30, 1: 30}, ClassCounts(ya))
}

func TestFitResampleInputErrors(t *testing.T) {
	s := NewRandomUnderSampler()
	_, _, err := s.FitResample(nil, nil)
	assert.Error(t, err)

	_, _, err = s.FitResample([][]float64{{1}, {2}}, []int{0})
	assert.Error(t, err)
}

func TestParseStrategy(t *testing.T) {
	s, err := ParseStrategy("Not Majority")
	require.NoError(t, err)
	assert.Equal(t, NotMajority, s.Kind)

	s, err = ParseStrategy(0.25)
	require.NoError(t, err)
	assert.Equal(t, Ratio, s.Kind)
	assert.Equal(t, 0.25, s.Ratio)

	s, err = ParseStrategy(map[string]any{"1": uint64(12)})
	require.NoError(t, err)
	assert.Equal(t, map[int]int{1: 12}, s.Counts)

	s, err = ParseStrategy(nil)
	require.NoError(t, err)
	assert.Equal(t, "auto", s.String())

	_, err = ParseStrategy("sometimes")
	assert.ErrorIs(t, err, ErrInvalidStrategy)

	_, err = ParseStrategy(map[string]any{"x": 1})
	assert.ErrorIs(t, err, ErrInvalidStrategy)
}

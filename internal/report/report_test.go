package report

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCurveSizes(t *testing.T) {
	s := CurveSizes(10000, 5, 500, true)
	require.Len(t, s, 5)
	assert.Equal(t, 500, s[0])
	assert.Equal(t, 10000, s[len(s)-1])
	for i := 1; i < len(s); i++ {
		assert.Greater(t, s[i], s[i-1])
	}

	assert.Equal(t, []int{100, 550, 1000}, CurveSizes(1000, 3, 100, false))
	// min above total collapses to half of it
	assert.Equal(t, []int{20, 40}, CurveSizes(40, 2, 500, false))
	assert.Nil(t, CurveSizes(0, 3, 10, false))
}

func TestWriteCurveCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "curve.csv")
	pts := []CurvePoint{{Size: 100, TestAcc: 0.5}, {Size: 200, TestAcc: 0.75, TestBalancedAcc: 0.6}}
	require.NoError(t, WriteCurveCSV(path, pts))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, curveHeader, rows[0])
	assert.Equal(t, "200", rows[2][0])
	assert.Equal(t, "0.750000", rows[2][2])
	assert.Equal(t, "0.600000", rows[2][9])
}

func TestPlots(t *testing.T) {
	dir := t.TempDir()
	curve := filepath.Join(dir, "curve.png")
	pts := []CurvePoint{{Size: 100, TrainAcc: 0.9, TestAcc: 0.8}, {Size: 200, TrainAcc: 0.92, TestAcc: 0.85}}
	require.NoError(t, PlotCurvePNG(curve, "curve", pts))
	assert.FileExists(t, curve)

	cm := filepath.Join(dir, "cm.png")
	require.NoError(t, PlotConfusionPNG(cm, "recall", []int{0, 1}, []string{"plain", "balanced"},
		[][][]int{{{170, 10}, {12, 8}}, {{150, 30}, {4, 16}}}))
	assert.FileExists(t, cm)
}

func TestRunJSON(t *testing.T) {
	r := NewRun("balanced")
	require.NotEmpty(t, r.ID)
	oob := 0.87
	r.OOBScore = &oob
	r.ClassDist = map[int]int{0: 900, 1: 100}
	r.Holdout = Evaluate([]int{0, 0, 1, 1}, []float64{0.1, 0.6, 0.4, 0.9}, 0.5)
	r.Finish()

	path := filepath.Join(t.TempDir(), "run.json")
	require.NoError(t, r.WriteJSON(path))
	back, err := ReadRun(path)
	require.NoError(t, err)
	assert.Equal(t, r.ID, back.ID)
	assert.Equal(t, map[int]int{0: 900, 1: 100}, back.ClassDist)
	require.NotNil(t, back.OOBScore)
	assert.Equal(t, 0.87, *back.OOBScore)
	assert.Equal(t, [][]int{{1, 1}, {1, 1}}, back.Holdout.Confusion)
	assert.Equal(t, 0.5, back.Holdout.BalancedAccuracy)
	assert.Equal(t, 0.75, back.Holdout.ROCAUC)
}

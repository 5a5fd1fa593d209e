package data

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func count(y []int) map[int]int {
	out := map[int]int{}
	for _, v := range y {
		out[v]++
	}
	return out
}

func TestMakeClassificationShape(t *testing.T) {
	X, y, err := MakeClassification(DefaultClassificationConfig())
	require.NoError(t, err)
	require.Len(t, X, 1000)
	assert.Len(t, X[0], 20)
	assert.Equal(t, map[int]int{0: 100, 1: 900}, count(y))
}

func TestMakeClassificationSeeded(t *testing.T) {
	a, ya, err := MakeClassification(DefaultClassificationConfig())
	require.NoError(t, err)
	b, yb, err := MakeClassification(DefaultClassificationConfig())
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Equal(t, ya, yb)
}

func TestMakeClassificationErrors(t *testing.T) {
	cfg := DefaultClassificationConfig()
	cfg.Weights = []float64{1}
	_, _, err := MakeClassification(cfg)
	assert.Error(t, err)

	cfg = DefaultClassificationConfig()
	cfg.NInformative = 30
	_, _, err = MakeClassification(cfg)
	assert.Error(t, err)
}

func TestStratifiedSplitKeepsProportions(t *testing.T) {
	X, y, err := MakeClassification(DefaultClassificationConfig())
	require.NoError(t, err)

	Xtr, ytr, Xte, yte := StratifiedSplit(X, y, 0.25, 0)
	assert.Len(t, Xtr, len(ytr))
	assert.Len(t, Xte, len(yte))
	assert.Equal(t, map[int]int{0: 25, 1: 225}, count(yte))
	assert.Equal(t, map[int]int{0: 75, 1: 675}, count(ytr))
}

func TestGenerateSyntheticExpenses(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "synthetic.csv")
	require.NoError(t, GenerateSyntheticExpenses(500, 0.02, 1, path))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 501)
	assert.Equal(t, Header, rows[0])

	fraud := 0
	for _, r := range rows[1:] {
		if r[14] == "1" {
			fraud++
		}
	}
	assert.Greater(t, fraud, 0)
	assert.Less(t, fraud, 500)
}

func TestExpenseInput(t *testing.T) {
	in := ExpenseInput{ExpenseID: "E9", RequestDate: "2024-02-28", TravelDate: "2024-03-02", Category: "Taxi", Amount: 35.5}
	e, err := in.Expense()
	require.NoError(t, err)
	assert.Equal(t, "E9", e.ExpenseID)
	assert.Equal(t, 3, int(e.TravelDate.Sub(e.RequestDate).Hours()/24))
	assert.Equal(t, 35.5, e.Amount)

	in.TravelDate = "02/03/2024"
	_, err = in.Expense()
	assert.ErrorContains(t, err, "travel_date")
}

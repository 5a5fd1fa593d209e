package report

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// CurvePoint holds train and holdout scores for one training-set size.
type CurvePoint struct {
	Size            int     `json:"size"`
	TrainAcc        float64 `json:"train_acc"`
	TestAcc         float64 `json:"test_acc"`
	TrainF1         float64 `json:"train_f1"`
	TestF1          float64 `json:"test_f1"`
	TrainROCAUC     float64 `json:"train_roc_auc"`
	TestROCAUC      float64 `json:"test_roc_auc"`
	TrainPRAUC      float64 `json:"train_pr_auc"`
	TestPRAUC       float64 `json:"test_pr_auc"`
	TestBalancedAcc float64 `json:"test_balanced_acc"`
}

var curveHeader = []string{"size", "train_acc", "test_acc", "train_f1", "test_f1",
	"train_roc_auc", "test_roc_auc", "train_pr_auc", "test_pr_auc", "test_balanced_acc"}

// CurveSizes spreads points training-set sizes between min and total,
// geometrically when useLog is set. Sizes are strictly increasing and the
// last one is always total.
func CurveSizes(total, points, min int, useLog bool) []int {
	if total <= 0 {
		return nil
	}
	if points <= 1 {
		points = 2
	}
	if min < 10 {
		min = 10
	}
	if min > total {
		min = int(math.Max(1, float64(total)/2))
	}
	sizes := make([]int, 0, points)
	if useLog {
		ratio := math.Pow(float64(total)/float64(min), 1.0/float64(points-1))
		for i := 0; i < points; i++ {
			sizes = append(sizes, int(math.Round(float64(min)*math.Pow(ratio, float64(i)))))
		}
	} else {
		step := float64(total-min) / float64(points-1)
		for i := 0; i < points; i++ {
			sizes = append(sizes, int(math.Round(float64(min)+float64(i)*step)))
		}
	}
	cleaned := make([]int, 0, len(sizes))
	last := 0
	for _, s := range sizes {
		if s <= last {
			s = last + 1
		}
		if s > total {
			s = total
		}
		if s != last {
			cleaned = append(cleaned, s)
			last = s
		}
	}
	cleaned[len(cleaned)-1] = total
	return cleaned
}

func WriteCurveCSV(path string, pts []CurvePoint) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	w := csv.NewWriter(f)
	if err := w.Write(curveHeader); err != nil {
		return err
	}
	ff := func(v float64) string { return fmt.Sprintf("%.6f", v) }
	for _, p := range pts {
		rec := []string{strconv.Itoa(p.Size), ff(p.TrainAcc), ff(p.TestAcc), ff(p.TrainF1), ff(p.TestF1),
			ff(p.TrainROCAUC), ff(p.TestROCAUC), ff(p.TrainPRAUC), ff(p.TestPRAUC), ff(p.TestBalancedAcc)}
		if err := w.Write(rec); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func PlotCurvePNG(path, title string, pts []CurvePoint) error {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Training samples"
	p.Y.Label.Text = "Score"
	p.Y.Min = 0
	p.Y.Max = 1

	xy := func(get func(CurvePoint) float64) plotter.XYs {
		out := make(plotter.XYs, len(pts))
		for i, pt := range pts {
			out[i].X = float64(pt.Size)
			out[i].Y = get(pt)
		}
		return out
	}
	if err := plotutil.AddLinePoints(p,
		"Train (Acc)", xy(func(c CurvePoint) float64 { return c.TrainAcc }),
		"Test (Acc)", xy(func(c CurvePoint) float64 { return c.TestAcc }),
		"Train (F1)", xy(func(c CurvePoint) float64 { return c.TrainF1 }),
		"Test (F1)", xy(func(c CurvePoint) float64 { return c.TestF1 }),
		"Test (BalAcc)", xy(func(c CurvePoint) float64 { return c.TestBalancedAcc }),
	); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return p.Save(8*vg.Inch, 4*vg.Inch, path)
}

package report

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// Scores summarises a classifier on one holdout set at a fixed threshold.
type Scores struct {
	Accuracy         float64 `json:"accuracy"`
	BalancedAccuracy float64 `json:"balanced_accuracy"`
	Precision        float64 `json:"precision"`
	Recall           float64 `json:"recall"`
	F1               float64 `json:"f1"`
	ROCAUC           float64 `json:"roc_auc"`
	PRAUC            float64 `json:"pr_auc"`
	Confusion        [][]int `json:"confusion_matrix"`
}

// Run is the JSON record a training run leaves next to its model.
type Run struct {
	ID        string            `json:"run_id"`
	StartedAt time.Time         `json:"started_at"`
	Duration  string            `json:"duration"`
	Algo      string            `json:"algo"`
	Model     string            `json:"model"`
	Params    map[string]string `json:"params,omitempty"`
	TrainRows int               `json:"train_rows"`
	TestRows  int               `json:"test_rows"`
	ClassDist map[int]int       `json:"class_distribution"`
	Threshold float64           `json:"threshold"`
	OOBScore  *float64          `json:"oob_score,omitempty"`
	Holdout   Scores            `json:"holdout"`
	Curve     []CurvePoint      `json:"learning_curve,omitempty"`
	ModelPath string            `json:"model_path"`
}

func NewRun(algo string) *Run {
	return &Run{ID: uuid.NewString(), StartedAt: time.Now().UTC(), Algo: algo}
}

func (r *Run) Finish() {
	r.Duration = time.Since(r.StartedAt).Round(time.Millisecond).String()
}

func (r *Run) WriteJSON(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	b, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("encode run %s: %w", r.ID, err)
	}
	return os.WriteFile(path, b, 0o644)
}

func ReadRun(path string) (*Run, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var r Run
	if err := json.Unmarshal(b, &r); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return &r, nil
}

// PlotConfusionPNG draws per-class recall for each named confusion matrix
// as grouped bars. Matrices share the label order given by labels.
func PlotConfusionPNG(path, title string, labels []int, names []string, cms [][][]int) error {
	p := plot.New()
	p.Title.Text = title
	p.Y.Label.Text = "Recall"
	p.Y.Min = 0
	p.Y.Max = 1

	w := vg.Points(20)
	for k, cm := range cms {
		vals := make(plotter.Values, len(labels))
		for i := range labels {
			var tot int
			for _, c := range cm[i] {
				tot += c
			}
			if tot > 0 {
				vals[i] = float64(cm[i][i]) / float64(tot)
			}
		}
		bars, err := plotter.NewBarChart(vals, w)
		if err != nil {
			return err
		}
		bars.LineStyle.Width = vg.Length(0)
		bars.Color = plotutil.Color(k)
		bars.Offset = w * vg.Length(float64(k)-float64(len(cms)-1)/2)
		p.Add(bars)
		p.Legend.Add(names[k], bars)
	}
	ticks := make([]string, len(labels))
	for i, l := range labels {
		ticks[i] = fmt.Sprintf("class %d", l)
	}
	p.NominalX(ticks...)
	p.Legend.Top = true

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return p.Save(6*vg.Inch, 4*vg.Inch, path)
}

package main

import (
	"flag"
	"fmt"
	"os"

	"balancedbag/internal/data"
	"balancedbag/internal/ensemble"
	"balancedbag/internal/features"
	"balancedbag/internal/metrics"
	"balancedbag/internal/models"
	"balancedbag/internal/report"
)

// analyzer fits plain and balanced bagging on the same imbalanced split and
// compares their confusion matrices.
func main() {
	dataPath := flag.String("data", "", "Expenses CSV; empty uses a synthetic 900/100 problem")
	nSamples := flag.Int("n_samples", 1000, "Synthetic rows")
	nFeatures := flag.Int("n_features", 20, "Synthetic features")
	minority := flag.Float64("minority", 0.1, "Synthetic minority share")
	estimators := flag.Int("estimators", 10, "Members per ensemble")
	jobs := flag.Int("jobs", -1, "Parallel fits (-1 all CPUs)")
	seed := flag.Int64("seed", 10, "Random seed")
	outImg := flag.String("out_img", "data/comparison.png", "Recall comparison PNG")
	flag.Parse()

	X, y, err := load(*dataPath, *nSamples, *nFeatures, *minority, *seed)
	if err != nil {
		fmt.Println("Failed to load data:", err)
		os.Exit(1)
	}
	Xtrain, ytrain, Xtest, ytest := data.StratifiedSplit(X, y, 0.25, *seed)
	labels := models.UniqueLabels(y)
	fmt.Printf("train=%d test=%d classes=%v\n", len(Xtrain), len(Xtest), labels)

	plain := ensemble.NewBagging()
	balanced := ensemble.NewBalancedBagging()
	for _, b := range []*ensemble.Bagging{plain, &balanced.Bagging} {
		b.NEstimators = *estimators
		b.NJobs = *jobs
		b.RandomState = ensemble.Seed(*seed)
	}

	var cms [][][]int
	for _, m := range []models.Classifier{plain, balanced} {
		if err := m.Fit(Xtrain, ytrain); err != nil {
			fmt.Printf("%s: fit failed: %v\n", m.Name(), err)
			os.Exit(1)
		}
		pred := models.Predict(m, Xtest)
		cm := metrics.ConfusionMatrix(ytest, pred, labels)
		cms = append(cms, cm)
		fmt.Printf("%s | acc=%.3f | balanced_acc=%.3f\n", m.Name(), metrics.Accuracy(ytest, pred), metrics.BalancedAccuracy(ytest, pred, labels))
		for i, row := range cm {
			fmt.Printf("  true %d: %v\n", labels[i], row)
		}
	}

	if err := report.PlotConfusionPNG(*outImg, "Per-class recall", labels, []string{plain.Name(), balanced.Name()}, cms); err != nil {
		fmt.Println("Failed to save PNG:", err)
	} else {
		fmt.Println("Plot saved to:", *outImg)
	}
}

func load(path string, n, nFeatures int, minority float64, seed int64) ([][]float64, []int, error) {
	if path != "" {
		return features.LoadCSV(path)
	}
	cfg := data.DefaultClassificationConfig()
	cfg.NSamples = n
	cfg.NFeatures = nFeatures
	cfg.Weights = []float64{1 - minority, minority}
	cfg.Seed = seed
	return data.MakeClassification(cfg)
}

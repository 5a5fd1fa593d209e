package main

import (
	"flag"
	"fmt"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"

	"balancedbag/internal/artifact"
	"balancedbag/internal/config"
	"balancedbag/internal/data"
	"balancedbag/internal/ensemble"
	"balancedbag/internal/features"
	"balancedbag/internal/metrics"
	"balancedbag/internal/models"
	"balancedbag/internal/report"
	"balancedbag/internal/sampling"
	"balancedbag/pkg/utils"
)

func main() {
	logger := utils.Logger()
	defer logger.Sync()

	cfgPath := flag.String("config", "", "YAML or TOML config file")
	algo := flag.String("algo", "", "Algorithm: dt|bagging|balanced|rf|brf|gb (overrides config)")
	regen := flag.Bool("regen", true, "Regenerate the synthetic dataset")
	n := flag.Int("n", 20000, "Number of synthetic expenses")
	fraudRate := flag.Float64("fraud_rate", 0.02, "Base fraud rate of the synthetic data")
	seed := flag.Int64("seed", 42, "Seed for data generation and the train/test split")
	out := flag.String("out", "data/synthetic.csv", "Synthetic CSV path")
	reportOut := flag.String("report_out", "models/report.json", "JSON run report")
	threshold := flag.Float64("threshold", 0.5, "Decision threshold when threshold_auto is off")
	thresholdAuto := flag.Bool("threshold_auto", true, "Tune the threshold on a validation slice")
	thresholdMetric := flag.String("threshold_metric", "f1", "Threshold metric: f1|acc")
	thrMin := flag.Float64("threshold_min", 0.05, "Lower bound for the tuned threshold")
	thrMax := flag.Float64("threshold_max", 0.95, "Upper bound for the tuned threshold")
	curve := flag.Bool("curve", true, "Compute a learning curve (PNG and CSV)")
	curvePoints := flag.Int("curve_points", 6, "Points on the learning curve")
	curveMin := flag.Int("curve_min", 500, "Smallest training size on the curve")
	curveLog := flag.Bool("curve_log", true, "Space curve sizes geometrically")
	curveImg := flag.String("curve_out_img", "data/learning_curve.png", "Learning curve PNG")
	curveCsv := flag.String("curve_out_csv", "data/learning_curve.csv", "Learning curve CSV")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}
	if *algo != "" {
		cfg.Model.Algo = strings.ToLower(*algo)
		if err := cfg.Validate(); err != nil {
			logger.Fatal("invalid algo", zap.Error(err))
		}
	}
	run := report.NewRun(cfg.Model.Algo)
	logger = logger.With(zap.String("run_id", run.ID))

	if *regen {
		logger.Info("generating synthetic dataset", zap.Int("n", *n), zap.String("out", *out))
		if err := data.GenerateSyntheticExpenses(*n, *fraudRate, *seed, *out); err != nil {
			logger.Fatal("generate dataset", zap.Error(err))
		}
	}
	X, y, err := features.LoadCSV(*out)
	if err != nil {
		logger.Fatal("load dataset", zap.Error(err))
	}
	run.ClassDist = sampling.ClassCounts(y)
	logger.Info("class distribution", zap.Any("counts", run.ClassDist))

	Xtrain, ytrain, Xtest, ytest := data.StratifiedSplit(X, y, 0.2, *seed)
	run.TrainRows, run.TestRows = len(Xtrain), len(Xtest)

	mdl, err := newModel(cfg, logger)
	if err != nil {
		logger.Fatal("build model", zap.Error(err))
	}
	start := time.Now()
	if err := mdl.Fit(Xtrain, ytrain); err != nil {
		logger.Fatal("fit", zap.String("model", mdl.Name()), zap.Error(err))
	}
	logger.Info("model fitted", zap.String("model", mdl.Name()), zap.Duration("took", time.Since(start)))
	run.Model = mdl.Name()
	run.Params = params(mdl)
	if oob, ok := oobScore(mdl); ok && !math.IsNaN(oob) {
		run.OOBScore = &oob
		logger.Info("out-of-bag score", zap.Float64("oob_score", oob))
	}

	tuner := thresholdTuner{
		auto:       *thresholdAuto,
		byAccuracy: *thresholdMetric == "acc",
		fixed:      *threshold,
		min:        *thrMin,
		max:        *thrMax,
	}
	thr := tuner.pick(mdl, Xtrain, ytrain, 100)
	probaTest := score(mdl, Xtest)
	run.Threshold = thr
	run.Holdout = report.Evaluate(ytest, probaTest, thr)
	logger.Info("holdout metrics",
		zap.String("model", mdl.Name()),
		zap.Float64("accuracy", run.Holdout.Accuracy),
		zap.Float64("balanced_accuracy", run.Holdout.BalancedAccuracy),
		zap.Float64("f1", run.Holdout.F1),
		zap.Float64("precision", run.Holdout.Precision),
		zap.Float64("recall", run.Holdout.Recall),
		zap.Float64("roc_auc", run.Holdout.ROCAUC),
		zap.Float64("pr_auc", run.Holdout.PRAUC),
		zap.Float64("threshold", thr),
	)

	run.ModelPath = cfg.Model.Path
	a := &artifact.Artifact{RunID: run.ID, Algo: cfg.Model.Algo, Threshold: thr, TrainedAt: time.Now().UTC(), Model: mdl}
	if err := artifact.Save(cfg.Model.Path, a); err != nil {
		logger.Fatal("save model", zap.Error(err))
	}
	logger.Info("model saved", zap.String("path", cfg.Model.Path))
	fmt.Println("Model:", mdl.Name())

	if *curve {
		pts := learningCurve(cfg, logger, tuner, Xtrain, ytrain, Xtest, ytest,
			report.CurveSizes(len(Xtrain), *curvePoints, *curveMin, *curveLog))
		run.Curve = pts
		if err := report.WriteCurveCSV(*curveCsv, pts); err != nil {
			logger.Warn("write curve csv", zap.Error(err))
		}
		if err := report.PlotCurvePNG(*curveImg, "Learning curve: "+mdl.Name(), pts); err != nil {
			logger.Warn("write curve png", zap.Error(err))
		} else {
			logger.Info("learning curve written", zap.String("png", *curveImg), zap.String("csv", *curveCsv))
		}
	}

	run.Finish()
	if err := run.WriteJSON(*reportOut); err != nil {
		logger.Warn("write report", zap.Error(err))
	}
}

func newModel(cfg config.Config, logger *zap.Logger) (models.Classifier, error) {
	mdl, err := cfg.NewModel()
	if err != nil {
		return nil, err
	}
	if l, ok := mdl.(interface{ SetLogger(*zap.Logger) }); ok {
		l.SetLogger(logger.Named("ensemble"))
	}
	return mdl, nil
}

func score(mdl models.Classifier, X [][]float64) []float64 {
	return metrics.PositiveColumn(mdl.PredictProba(X), mdl.Classes())
}

func oobScore(mdl models.Classifier) (float64, bool) {
	switch m := mdl.(type) {
	case *ensemble.BalancedBagging:
		return m.OOBScoreValue, m.OOBScore
	case *ensemble.Bagging:
		return m.OOBScoreValue, m.OOBScore
	}
	return 0, false
}

func params(mdl models.Classifier) map[string]string {
	var b *ensemble.Bagging
	out := map[string]string{}
	switch m := mdl.(type) {
	case *ensemble.BalancedBagging:
		b = &m.Bagging
		out["sampling_strategy"] = m.SamplingStrategy.String()
		out["replacement"] = fmt.Sprint(m.Replacement)
	case *ensemble.Bagging:
		b = m
	default:
		return nil
	}
	out["n_estimators"] = fmt.Sprint(b.NEstimators)
	out["max_samples"] = b.MaxSamples.String()
	out["max_features"] = b.MaxFeatures.String()
	out["bootstrap"] = fmt.Sprint(b.Bootstrap)
	out["bootstrap_features"] = fmt.Sprint(b.BootstrapFeatures)
	out["base_estimator"] = b.BaseEstimator.Name()
	return out
}

type thresholdTuner struct {
	auto       bool
	byAccuracy bool
	fixed      float64
	min, max   float64
}

// pick tunes on the last tenth of the training rows (at least minVal).
func (t thresholdTuner) pick(mdl models.Classifier, X [][]float64, y []int, minVal int) float64 {
	thr := t.fixed
	if t.auto {
		vs := len(X) / 10
		if vs < minVal {
			vs = minVal
		}
		if vs > len(X) {
			vs = len(X)
		}
		thr, _ = metrics.BestThreshold(y[len(y)-vs:], score(mdl, X[len(X)-vs:]), t.byAccuracy)
	}
	if thr < t.min {
		thr = t.min
	}
	if thr > t.max {
		thr = t.max
	}
	return thr
}

func learningCurve(cfg config.Config, logger *zap.Logger, tuner thresholdTuner, Xtrain [][]float64, ytrain []int, Xtest [][]float64, ytest []int, sizes []int) []report.CurvePoint {
	pts := make([]report.CurvePoint, 0, len(sizes))
	for _, s := range sizes {
		subX, subY := Xtrain[:s], ytrain[:s]
		mdl, err := newModel(cfg, zap.NewNop())
		if err != nil {
			logger.Warn("curve model", zap.Error(err))
			return pts
		}
		if err := mdl.Fit(subX, subY); err != nil {
			logger.Warn("skipping curve point", zap.Int("size", s), zap.Error(err))
			continue
		}
		thr := tuner.pick(mdl, subX, subY, 50)
		pTrain, pTest := score(mdl, subX), score(mdl, Xtest)
		tr, te := report.Evaluate(subY, pTrain, thr), report.Evaluate(ytest, pTest, thr)
		pts = append(pts, report.CurvePoint{
			Size:            s,
			TrainAcc:        tr.Accuracy,
			TestAcc:         te.Accuracy,
			TrainF1:         tr.F1,
			TestF1:          te.F1,
			TrainROCAUC:     tr.ROCAUC,
			TestROCAUC:      te.ROCAUC,
			TrainPRAUC:      tr.PRAUC,
			TestPRAUC:       te.PRAUC,
			TestBalancedAcc: te.BalancedAccuracy,
		})
		logger.Info("curve point", zap.Int("size", s), zap.Float64("test_f1", te.F1), zap.Float64("test_balanced_acc", te.BalancedAccuracy))
	}
	return pts
}

package ensemble

import (
	"context"
	"encoding/gob"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"balancedbag/internal/models"
)

func init() {
	gob.Register(&Bagging{})
}

// Bagging trains NEstimators copies of Base on random row and column
// subsets and averages their class probabilities.
type Bagging struct {
	Base              models.Factory
	NEstimators       int
	MaxSamples        Size
	MaxFeatures       Size
	Bootstrap         bool
	BootstrapFeatures bool
	OOBScore          bool
	WarmStart         bool
	NJobs             int
	RandomState       *int64
	Verbose           int

	// Set by Fit.
	BaseEstimator       models.Factory
	Estimators          []models.Classifier
	EstimatorsSamples   [][]bool
	EstimatorsFeatures  [][]int
	EstimatorSeeds      []int64
	ClassLabels         []int
	NClasses            int
	NFeatures           int
	OOBScoreValue       float64
	OOBDecisionFunction [][]float64

	logger *zap.Logger
}

func NewBagging() *Bagging {
	return &Bagging{
		NEstimators: 10,
		MaxSamples:  Fraction(1.0),
		MaxFeatures: Fraction(1.0),
		Bootstrap:   true,
		NJobs:       1,
	}
}

// Seed is a helper for RandomState.
func Seed(s int64) *int64 { return &s }

func (b *Bagging) SetLogger(l *zap.Logger) { b.logger = l }

func (b *Bagging) log() *zap.Logger {
	if b.logger == nil {
		return zap.NewNop()
	}
	return b.logger
}

func (b *Bagging) Name() string {
	if b.BaseEstimator != nil {
		return "Bagging(" + b.BaseEstimator.Name() + ")"
	}
	return "Bagging"
}

func (b *Bagging) Classes() []int { return b.ClassLabels }

func (b *Bagging) CheckFitted() error {
	if len(b.Estimators) == 0 {
		return ErrNotFitted
	}
	return nil
}

func (b *Bagging) validateEstimator(def models.Factory) error {
	if err := checkNEstimators(b.NEstimators); err != nil {
		return err
	}
	b.BaseEstimator = b.Base
	if b.BaseEstimator == nil {
		b.BaseEstimator = def
	}
	return nil
}

func (b *Bagging) Fit(X [][]float64, y []int) error {
	return b.FitWeighted(X, y, nil)
}

// FitWeighted fits with per-row weights. Weights need a base learner that
// implements models.WeightedClassifier.
func (b *Bagging) FitWeighted(X [][]float64, y []int, w []float64) error {
	if err := b.validateEstimator(models.DefaultDecisionTreeConfig()); err != nil {
		return err
	}
	return b.fit(X, y, b.MaxSamples, w)
}

type drawPlan struct {
	nSamples  int
	nFeatures int
	nDraw     int
	nFeatDraw int
}

func (b *Bagging) fit(X [][]float64, y []int, maxSamples Size, w []float64) error {
	nSamples, nFeatures, err := checkInput(X, y, w)
	if err != nil {
		return err
	}
	nDraw, errSamples := maxSamples.resolve("max_samples", nSamples)
	nFeatDraw, errFeatures := b.MaxFeatures.resolve("max_features", nFeatures)
	err = multierr.Combine(errSamples, errFeatures)
	if b.OOBScore && !b.Bootstrap {
		err = multierr.Append(err, &ParamError{Param: "oob_score", Value: true, Reason: "used with bootstrap=true"})
	}
	if b.OOBScore && b.WarmStart {
		err = multierr.Append(err, &ParamError{Param: "oob_score", Value: true, Reason: "used with warm_start=false"})
	}
	if err != nil {
		return err
	}

	kept := 0
	if b.WarmStart && len(b.Estimators) > 0 {
		if b.NFeatures != nFeatures {
			return fmt.Errorf("%w: warm start with %d features, ensemble was fitted on %d", ErrInvalidParam, nFeatures, b.NFeatures)
		}
		kept = len(b.Estimators)
	}
	nMore := b.NEstimators - kept
	if nMore < 0 {
		return &ParamError{Param: "n_estimators", Value: b.NEstimators,
			Reason: fmt.Sprintf("larger or equal to len(estimators)=%d when warm_start is set", kept)}
	}

	seed := time.Now().UnixNano()
	if b.RandomState != nil {
		seed = *b.RandomState
	}
	rng := rand.New(rand.NewSource(seed))
	for i := 0; i < kept; i++ {
		rng.Int63()
	}
	seeds := make([]int64, nMore)
	members := make([]models.Classifier, nMore)
	for i := range seeds {
		seeds[i] = rng.Int63()
		members[i] = b.BaseEstimator.New(seeds[i])
	}
	if w != nil && nMore > 0 {
		if _, ok := members[0].(models.WeightedClassifier); !ok {
			return fmt.Errorf("%w: base estimator %s does not support sample weights", ErrInvalidParam, b.BaseEstimator.Name())
		}
	}

	if kept == 0 {
		b.Estimators = nil
		b.EstimatorsSamples = nil
		b.EstimatorsFeatures = nil
		b.EstimatorSeeds = nil
	}
	b.ClassLabels = models.UniqueLabels(y)
	b.NClasses = len(b.ClassLabels)
	b.NFeatures = nFeatures
	if nMore == 0 {
		b.log().Warn("warm-start fitting without increasing n_estimators does not fit new estimators",
			zap.Int("n_estimators", b.NEstimators))
		return nil
	}

	plan := drawPlan{nSamples: nSamples, nFeatures: nFeatures, nDraw: nDraw, nFeatDraw: nFeatDraw}
	masks := make([][]bool, nMore)
	feats := make([][]int, nMore)

	start := time.Now()
	if b.Verbose > 0 {
		b.log().Info("fitting ensemble",
			zap.String("base", b.BaseEstimator.Name()),
			zap.Int("new_estimators", nMore),
			zap.Int("max_samples", nDraw),
			zap.Int("max_features", nFeatDraw),
			zap.Int("workers", jobs(b.NJobs)))
	}
	g, ctx := errgroup.WithContext(context.Background())
	g.SetLimit(jobs(b.NJobs))
	for i := range seeds {
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			mask, fs, err := b.fitMember(members[i], X, y, w, seeds[i], plan)
			if err != nil {
				return fmt.Errorf("estimator %d: %w", kept+i, err)
			}
			masks[i], feats[i] = mask, fs
			if b.Verbose > 1 {
				b.log().Debug("estimator fitted", zap.Int("index", kept+i))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	b.Estimators = append(b.Estimators, members...)
	b.EstimatorsSamples = append(b.EstimatorsSamples, masks...)
	b.EstimatorsFeatures = append(b.EstimatorsFeatures, feats...)
	b.EstimatorSeeds = append(b.EstimatorSeeds, seeds...)
	if b.Verbose > 0 {
		b.log().Info("ensemble fitted", zap.Int("estimators", len(b.Estimators)), zap.Duration("took", time.Since(start)))
	}

	if b.OOBScore {
		b.setOOBScore(X, y)
	}
	return nil
}

// fitMember draws columns, then rows, from the member's own seed and fits
// est on them. Weighted learners see every row with bootstrap counts folded
// into the weights; the rest are fitted on the drawn rows only.
func (b *Bagging) fitMember(est models.Classifier, X [][]float64, y []int, w []float64, seed int64, p drawPlan) ([]bool, []int, error) {
	rng := rand.New(rand.NewSource(seed))
	features := drawIndices(rng, b.BootstrapFeatures, p.nFeatures, p.nFeatDraw)
	samples := drawIndices(rng, b.Bootstrap, p.nSamples, p.nDraw)

	mask := make([]bool, p.nSamples)
	for _, i := range samples {
		mask[i] = true
	}

	if wc, ok := est.(models.WeightedClassifier); ok {
		cw := make([]float64, p.nSamples)
		for _, i := range samples {
			if b.Bootstrap {
				cw[i]++
			} else {
				cw[i] = 1
			}
		}
		if w != nil {
			for i := range cw {
				cw[i] *= w[i]
			}
		}
		return mask, features, wc.FitWeighted(project(X, features), y, cw)
	}

	Xs := make([][]float64, len(samples))
	ys := make([]int, len(samples))
	for k, i := range samples {
		Xs[k] = projectRow(X[i], features)
		ys[k] = y[i]
	}
	return mask, features, est.Fit(Xs, ys)
}

// PredictProba averages member probabilities. Columns follow Classes().
// An unfitted ensemble returns uniform rows.
func (b *Bagging) PredictProba(X [][]float64) [][]float64 {
	out := make([][]float64, len(X))
	for i := range out {
		out[i] = make([]float64, b.NClasses)
	}
	if len(b.Estimators) == 0 {
		for i := range out {
			for j := range out[i] {
				out[i][j] = 1 / float64(b.NClasses)
			}
		}
		return out
	}
	for k, est := range b.Estimators {
		b.accumulate(out, est, project(X, b.EstimatorsFeatures[k]), nil)
	}
	m := float64(len(b.Estimators))
	for i := range out {
		for j := range out[i] {
			out[i][j] /= m
		}
	}
	return out
}

func (b *Bagging) Predict(X [][]float64) []int { return models.Predict(b, X) }

// accumulate adds est's probabilities into out, aligning the member's
// classes with the ensemble's. rows maps Xf rows to out rows when non-nil.
func (b *Bagging) accumulate(out [][]float64, est models.Classifier, Xf [][]float64, rows []int) {
	pos := make(map[int]int, b.NClasses)
	for j, c := range b.ClassLabels {
		pos[c] = j
	}
	cols := est.Classes()
	for r, p := range est.PredictProba(Xf) {
		row := r
		if rows != nil {
			row = rows[r]
		}
		for j, v := range p {
			out[row][pos[cols[j]]] += v
		}
	}
}

func checkInput(X [][]float64, y []int, w []float64) (int, int, error) {
	if len(X) == 0 {
		return 0, 0, errors.New("bagging: empty training set")
	}
	if len(X) != len(y) {
		return 0, 0, fmt.Errorf("bagging: %d rows but %d labels", len(X), len(y))
	}
	nFeatures := len(X[0])
	if nFeatures == 0 {
		return 0, 0, errors.New("bagging: rows have no features")
	}
	for i, row := range X {
		if len(row) != nFeatures {
			return 0, 0, fmt.Errorf("bagging: row %d has %d features, expected %d", i, len(row), nFeatures)
		}
	}
	if w != nil {
		if len(w) != len(y) {
			return 0, 0, fmt.Errorf("bagging: %d rows but %d weights", len(X), len(w))
		}
		for i, v := range w {
			if v < 0 {
				return 0, 0, fmt.Errorf("bagging: negative weight %v at row %d", v, i)
			}
		}
	}
	return len(X), nFeatures, nil
}

func drawIndices(rng *rand.Rand, bootstrap bool, n, k int) []int {
	if bootstrap {
		out := make([]int, k)
		for i := range out {
			out[i] = rng.Intn(n)
		}
		return out
	}
	return rng.Perm(n)[:k]
}

func project(X [][]float64, features []int) [][]float64 {
	out := make([][]float64, len(X))
	for i, row := range X {
		out[i] = projectRow(row, features)
	}
	return out
}

func projectRow(row []float64, features []int) []float64 {
	out := make([]float64, len(features))
	for j, f := range features {
		out[j] = row[f]
	}
	return out
}

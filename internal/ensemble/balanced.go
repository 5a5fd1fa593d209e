package ensemble

import (
	"encoding/gob"
	"fmt"

	"balancedbag/internal/models"
	"balancedbag/internal/pipeline"
	"balancedbag/internal/sampling"
)

func init() {
	gob.Register(&BalancedBagging{})
}

// BalancedBagging is Bagging whose every member is a pipeline that randomly
// undersamples its bag before fitting a copy of Base.
type BalancedBagging struct {
	Bagging
	SamplingStrategy sampling.Strategy
	Replacement      bool
}

func NewBalancedBagging() *BalancedBagging {
	return &BalancedBagging{
		Bagging:          *NewBagging(),
		SamplingStrategy: sampling.FromKind(sampling.Auto),
	}
}

func (bb *BalancedBagging) Name() string { return "BalancedBagging" }

// validateEstimator checks n_estimators and assembles the effective member:
// the undersampler followed by Base, or a default decision tree when Base
// is nil.
func (bb *BalancedBagging) validateEstimator() error {
	if err := checkNEstimators(bb.NEstimators); err != nil {
		return err
	}
	base := bb.Base
	if base == nil {
		base = models.DefaultDecisionTreeConfig()
	}
	bb.BaseEstimator = pipeline.Config{
		Sampler: sampling.Config{
			Strategy:    bb.SamplingStrategy,
			Replacement: bb.Replacement,
		},
		Classifier: base,
	}
	return nil
}

// Fit builds the ensemble without sample weights; the undersampler has no
// use for them.
func (bb *BalancedBagging) Fit(X [][]float64, y []int) error {
	if err := bb.validateEstimator(); err != nil {
		return err
	}
	return bb.fit(X, y, bb.MaxSamples, nil)
}

// FitWeighted exists to shadow Bagging.FitWeighted. Only nil weights are
// accepted.
func (bb *BalancedBagging) FitWeighted(X [][]float64, y []int, w []float64) error {
	if w != nil {
		return fmt.Errorf("%w: random undersampling does not support sample weights", ErrInvalidParam)
	}
	return bb.Fit(X, y)
}

func (bb *BalancedBagging) Predict(X [][]float64) []int { return models.Predict(bb, X) }

package pipeline

import (
	"encoding/gob"
	"errors"
	"fmt"
	"math/rand"

	"balancedbag/internal/models"
	"balancedbag/internal/sampling"
)

const (
	SamplerStep    = "sampler"
	ClassifierStep = "classifier"
)

func init() {
	gob.Register(&Pipeline{})
	gob.Register(Config{})
}

// Config is the untrained two-step pipeline: resample, then classify.
type Config struct {
	Sampler    sampling.Config
	Classifier models.Factory
}

// New derives independent sampler and classifier seeds from seed.
func (c Config) New(seed int64) models.Classifier {
	rng := rand.New(rand.NewSource(seed))
	samplerSeed := rng.Int63()
	clfSeed := rng.Int63()
	return &Pipeline{
		Sampler:    c.Sampler.New(samplerSeed),
		Classifier: c.Classifier.New(clfSeed),
	}
}

func (c Config) Name() string {
	return fmt.Sprintf("Pipeline(%s, %s)", SamplerStep, c.Classifier.Name())
}

// Pipeline resamples rows before fitting the classifier. The sampler only
// acts at fit time; prediction goes straight to the classifier.
type Pipeline struct {
	Sampler    *sampling.RandomUnderSampler
	Classifier models.Classifier

	// LastFitCounts is the class distribution the classifier was fitted on.
	LastFitCounts map[int]int
}

func (p *Pipeline) Steps() []string { return []string{SamplerStep, ClassifierStep} }

func (p *Pipeline) Name() string {
	return fmt.Sprintf("Pipeline(%s, %s)", SamplerStep, p.Classifier.Name())
}

func (p *Pipeline) Fit(X [][]float64, y []int) error {
	if p.Sampler == nil || p.Classifier == nil {
		return errors.New("pipeline: missing step")
	}
	Xr, yr, err := p.Sampler.FitResample(X, y)
	if err != nil {
		return fmt.Errorf("pipeline step %s: %w", SamplerStep, err)
	}
	p.LastFitCounts = sampling.ClassCounts(yr)
	if err := p.Classifier.Fit(Xr, yr); err != nil {
		return fmt.Errorf("pipeline step %s: %w", ClassifierStep, err)
	}
	return nil
}

func (p *Pipeline) PredictProba(X [][]float64) [][]float64 { return p.Classifier.PredictProba(X) }

func (p *Pipeline) Classes() []int { return p.Classifier.Classes() }

func (p *Pipeline) Predict(X [][]float64) []int { return models.Predict(p, X) }

package pipeline

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"balancedbag/internal/models"
	"balancedbag/internal/models/mocks"
	"balancedbag/internal/sampling"
)

func imbalanced() ([][]float64, []int) {
	var X [][]float64
	var y []int
	for i := 0; i < 80; i++ {
		X = append(X, []float64{float64(i % 7), 0})
		y = append(y, 0)
	}
	for i := 0; i < 20; i++ {
		X = append(X, []float64{float64(i % 5), 10})
		y = append(y, 1)
	}
	return X, y
}

func TestPipelineResamplesBeforeClassifier(t *testing.T) {
	X, y := imbalanced()
	clf := &mocks.MockClassifier{}
	var gotY []int
	clf.On("Fit", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		gotY = args.Get(1).([]int)
	}).Return(nil).Once()

	p := &Pipeline{Sampler: sampling.NewRandomUnderSampler(), Classifier: clf}
	require.NoError(t, p.Fit(X, y))

	assert.Equal(t, map[int]int{0: 20, 1: 20}, sampling.ClassCounts(gotY))
	assert.Equal(t, map[int]int{0: 20, 1: 20}, p.LastFitCounts)
	clf.AssertExpectations(t)
	clf.AssertNotCalled(t, "FitWeighted", mock.Anything, mock.Anything, mock.Anything)
}

func TestPipelinePredictSkipsSampler(t *testing.T) {
	X, y := imbalanced()
	p := Config{
		Sampler:    sampling.Config{Strategy: sampling.FromKind(sampling.Auto)},
		Classifier: models.DefaultDecisionTreeConfig(),
	}.New(11).(*Pipeline)
	require.NoError(t, p.Fit(X, y))

	ps := p.PredictProba(X)
	require.Len(t, ps, len(X))
	assert.Equal(t, []int{0, 1}, p.Classes())
	pred := p.Predict([][]float64{{3, 10}, {3, 0}})
	assert.Equal(t, []int{1, 0}, pred)
}

func TestPipelinePropagatesStepErrors(t *testing.T) {
	X, y := imbalanced()
	boom := errors.New("boom")
	clf := &mocks.MockClassifier{}
	clf.On("Fit", mock.Anything, mock.Anything).Return(boom)

	p := &Pipeline{Sampler: sampling.NewRandomUnderSampler(), Classifier: clf}
	assert.ErrorIs(t, p.Fit(X, y), boom)

	one := &Pipeline{Sampler: sampling.NewRandomUnderSampler(), Classifier: clf}
	err := one.Fit([][]float64{{1}, {2}}, []int{1, 1})
	assert.ErrorIs(t, err, sampling.ErrInvalidTarget)
}

func TestConfigSeedsAreDeterministic(t *testing.T) {
	cfg := Config{Sampler: sampling.Config{}, Classifier: models.DefaultDecisionTreeConfig()}
	a := cfg.New(5).(*Pipeline)
	b := cfg.New(5).(*Pipeline)
	c := cfg.New(6).(*Pipeline)

	assert.Equal(t, a.Sampler.Seed, b.Sampler.Seed)
	assert.NotEqual(t, a.Sampler.Seed, c.Sampler.Seed)
	assert.Equal(t, "Pipeline(sampler, DecisionTree)", cfg.Name())
	assert.Equal(t, []string{"sampler", "classifier"}, a.Steps())
}

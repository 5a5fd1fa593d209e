package mocks

import (
	"github.com/stretchr/testify/mock"

	"balancedbag/internal/models"
)

type MockClassifier struct {
	mock.Mock
}

func (m *MockClassifier) Fit(X [][]float64, y []int) error {
	args := m.Called(X, y)
	return args.Error(0)
}

func (m *MockClassifier) FitWeighted(X [][]float64, y []int, w []float64) error {
	args := m.Called(X, y, w)
	return args.Error(0)
}

func (m *MockClassifier) PredictProba(X [][]float64) [][]float64 {
	args := m.Called(X)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([][]float64)
}

func (m *MockClassifier) Classes() []int {
	args := m.Called()
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]int)
}

func (m *MockClassifier) Name() string {
	args := m.Called()
	return args.String(0)
}

type MockFactory struct {
	mock.Mock
}

func (m *MockFactory) New(seed int64) models.Classifier {
	args := m.Called(seed)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(models.Classifier)
}

func (m *MockFactory) Name() string {
	args := m.Called()
	return args.String(0)
}

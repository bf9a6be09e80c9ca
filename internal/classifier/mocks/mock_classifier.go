package mocks

import (
	"context"

	"mangoapi/internal/classifier"

	"github.com/stretchr/testify/mock"
)

type MockClassifier struct {
	mock.Mock
}

func (m *MockClassifier) Predict(ctx context.Context, image []byte, kind classifier.Kind) ([]float64, error) {
	args := m.Called(ctx, image, kind)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]float64), args.Error(1)
}

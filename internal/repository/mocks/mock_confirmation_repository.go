package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"mangoapi/internal/model"
	"mangoapi/internal/repository"
)

type MockConfirmationRepository struct {
	mock.Mock
}

func (m *MockConfirmationRepository) Create(ctx context.Context, c *model.UserConfirmation) (*model.UserConfirmation, error) {
	args := m.Called(ctx, c)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.UserConfirmation), args.Error(1)
}

func (m *MockConfirmationRepository) FindByImageID(ctx context.Context, imageID string) (*model.UserConfirmation, error) {
	args := m.Called(ctx, imageID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.UserConfirmation), args.Error(1)
}

func (m *MockConfirmationRepository) List(ctx context.Context, f repository.ConfirmationFilter, pq repository.PageQuery) (*repository.PageResult[model.UserConfirmation], error) {
	args := m.Called(ctx, f, pq)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.PageResult[model.UserConfirmation]), args.Error(1)
}

func (m *MockConfirmationRepository) Stats(ctx context.Context) (*repository.ConfirmationStats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.ConfirmationStats), args.Error(1)
}

func (m *MockConfirmationRepository) DiseaseStats(ctx context.Context) ([]repository.DiseaseAccuracy, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]repository.DiseaseAccuracy), args.Error(1)
}

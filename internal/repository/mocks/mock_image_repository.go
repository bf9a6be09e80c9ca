package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"mangoapi/internal/model"
	"mangoapi/internal/repository"
)

type MockImageRepository struct {
	mock.Mock
}

func (m *MockImageRepository) Create(ctx context.Context, img *model.MangoImage) (*model.MangoImage, error) {
	args := m.Called(ctx, img)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.MangoImage), args.Error(1)
}

func (m *MockImageRepository) FindByID(ctx context.Context, id string) (*model.MangoImage, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.MangoImage), args.Error(1)
}

func (m *MockImageRepository) List(ctx context.Context, f repository.ImageFilter, pq repository.PageQuery) (*repository.PageResult[model.MangoImage], error) {
	args := m.Called(ctx, f, pq)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.PageResult[model.MangoImage]), args.Error(1)
}

func (m *MockImageRepository) Update(ctx context.Context, id string, upd repository.ImageUpdate) (*model.MangoImage, error) {
	args := m.Called(ctx, id, upd)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.MangoImage), args.Error(1)
}

func (m *MockImageRepository) BulkUpdate(ctx context.Context, ids []string, upd repository.ImageUpdate) (int64, error) {
	args := m.Called(ctx, ids, upd)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockImageRepository) ExistingIDs(ctx context.Context, ids []string) ([]string, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockImageRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockImageRepository) ExportAll(ctx context.Context) ([]model.MangoImage, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.MangoImage), args.Error(1)
}

func (m *MockImageRepository) ListWithoutNotification(ctx context.Context) ([]model.MangoImage, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.MangoImage), args.Error(1)
}

func (m *MockImageRepository) ExistsByOriginalFilename(ctx context.Context, name string) (bool, error) {
	args := m.Called(ctx, name)
	return args.Bool(0), args.Error(1)
}

func (m *MockImageRepository) Stats(ctx context.Context) (*repository.ImageStats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.ImageStats), args.Error(1)
}

func (m *MockImageRepository) CreatePredictionLog(ctx context.Context, l *model.PredictionLog) error {
	args := m.Called(ctx, l)
	return args.Error(0)
}

type MockMLModelRepository struct {
	mock.Mock
}

func (m *MockMLModelRepository) Create(ctx context.Context, mm *model.MLModel) (*model.MLModel, error) {
	args := m.Called(ctx, mm)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.MLModel), args.Error(1)
}

func (m *MockMLModelRepository) FindActive(ctx context.Context) (*model.MLModel, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.MLModel), args.Error(1)
}

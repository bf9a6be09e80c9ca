package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"mangoapi/internal/model"
	"mangoapi/internal/repository"
	"mangoapi/internal/service"
)

type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) Register(ctx context.Context, in service.RegisterInput) (*service.AuthResult, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.AuthResult), args.Error(1)
}

func (m *MockAuthService) Login(ctx context.Context, email, password string) (*service.AuthResult, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.AuthResult), args.Error(1)
}

func (m *MockAuthService) AdminLogin(ctx context.Context, identifier, password string) (*service.AuthResult, error) {
	args := m.Called(ctx, identifier, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.AuthResult), args.Error(1)
}

func (m *MockAuthService) Refresh(ctx context.Context, refreshToken string) (string, error) {
	args := m.Called(ctx, refreshToken)
	return args.String(0), args.Error(1)
}

func (m *MockAuthService) ParseAccessToken(token string) (*service.Claims, error) {
	args := m.Called(token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.Claims), args.Error(1)
}

type MockPredictionService struct {
	mock.Mock
}

func (m *MockPredictionService) Predict(ctx context.Context, in service.PredictInput) (*service.PredictResult, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.PredictResult), args.Error(1)
}

func (m *MockPredictionService) ModelInfo(ctx context.Context) (*service.ModelInfo, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ModelInfo), args.Error(1)
}

type MockImageService struct {
	mock.Mock
}

func (m *MockImageService) List(ctx context.Context, q service.ImageListQuery) (*service.ImageListResult, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ImageListResult), args.Error(1)
}

func (m *MockImageService) Get(ctx context.Context, id string) (*model.MangoImage, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.MangoImage), args.Error(1)
}

func (m *MockImageService) Update(ctx context.Context, id string, fields map[string]any, actorID string) (*model.MangoImage, error) {
	args := m.Called(ctx, id, fields, actorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.MangoImage), args.Error(1)
}

func (m *MockImageService) BulkUpdate(ctx context.Context, ids []string, fields map[string]any, actorID string) (int64, error) {
	args := m.Called(ctx, ids, fields, actorID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockImageService) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockImageService) Upload(ctx context.Context, filename, contentType string, data []byte, userID *string) (*model.MangoImage, error) {
	args := m.Called(ctx, filename, contentType, data, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.MangoImage), args.Error(1)
}

func (m *MockImageService) Export(ctx context.Context) ([]model.MangoImage, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.MangoImage), args.Error(1)
}

func (m *MockImageService) Stats(ctx context.Context) (*repository.ImageStats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.ImageStats), args.Error(1)
}

func (m *MockImageService) Details(ctx context.Context, id string) (*service.PredictionDetails, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.PredictionDetails), args.Error(1)
}

type MockNotificationService struct {
	mock.Mock
}

func (m *MockNotificationService) List(ctx context.Context, page, pageSize int, createNew bool) (*service.NotificationListResult, error) {
	args := m.Called(ctx, page, pageSize, createNew)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.NotificationListResult), args.Error(1)
}

func (m *MockNotificationService) Get(ctx context.Context, id string) (*model.Notification, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Notification), args.Error(1)
}

func (m *MockNotificationService) MarkRead(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockNotificationService) MarkAllRead(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockNotificationService) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockNotificationService) DeleteSelected(ctx context.Context, ids []string) ([]string, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

type MockConfirmationService struct {
	mock.Mock
}

func (m *MockConfirmationService) Create(ctx context.Context, in service.ConfirmationInput) (*model.UserConfirmation, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.UserConfirmation), args.Error(1)
}

func (m *MockConfirmationService) List(ctx context.Context, q service.ConfirmationListQuery) (*service.ConfirmationListResult, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ConfirmationListResult), args.Error(1)
}

func (m *MockConfirmationService) Statistics(ctx context.Context) (*service.ConfirmationStatistics, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ConfirmationStatistics), args.Error(1)
}

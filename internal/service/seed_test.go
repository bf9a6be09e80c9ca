package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"golang.org/x/crypto/bcrypt"

	"mangoapi/internal/config"
	"mangoapi/internal/model"
	repoMocks "mangoapi/internal/repository/mocks"
)

func TestEnsureSuperuser(t *testing.T) {
	ctx := context.Background()
	cfg := config.AuthConfig{
		AdminUsername: "admin",
		AdminEmail:    "admin@example.com",
		AdminPassword: "bootstrap-password",
	}

	t.Run("creates superuser when absent", func(t *testing.T) {
		users := new(repoMocks.MockUserRepository)
		users.On("FindByUsername", ctx, "admin").Return(nil, sql.ErrNoRows)
		users.On("Create", ctx, mock.MatchedBy(func(u *model.User) bool {
			return u.Username == "admin" && u.IsStaff && u.IsSuperuser && u.IsActive &&
				bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("bootstrap-password")) == nil
		})).Return(&model.User{ID: "admin-id", Username: "admin", IsSuperuser: true}, nil)

		u, created, err := EnsureSuperuser(ctx, users, cfg)

		assert.NoError(t, err)
		assert.True(t, created)
		assert.True(t, u.IsSuperuser)
		users.AssertExpectations(t)
	})

	t.Run("second run is a no-op", func(t *testing.T) {
		users := new(repoMocks.MockUserRepository)
		users.On("FindByUsername", ctx, "admin").Return(&model.User{ID: "admin-id", Username: "admin"}, nil)

		u, created, err := EnsureSuperuser(ctx, users, cfg)

		assert.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, "admin-id", u.ID)
		users.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("missing password fails before any write", func(t *testing.T) {
		users := new(repoMocks.MockUserRepository)
		users.On("FindByUsername", ctx, "admin").Return(nil, sql.ErrNoRows)
		noPass := cfg
		noPass.AdminPassword = ""

		_, _, err := EnsureSuperuser(ctx, users, noPass)

		assert.Error(t, err)
		users.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("missing username fails", func(t *testing.T) {
		users := new(repoMocks.MockUserRepository)
		noUser := cfg
		noUser.AdminUsername = ""

		_, _, err := EnsureSuperuser(ctx, users, noUser)

		assert.Error(t, err)
	})
}

func TestEnsureActiveModel(t *testing.T) {
	ctx := context.Background()
	cfg := config.ClassifierConfig{ServerURL: "http://tf-serving:8501"}

	t.Run("registers the served model when none is active", func(t *testing.T) {
		models := new(repoMocks.MockMLModelRepository)
		models.On("FindActive", ctx).Return(nil, sql.ErrNoRows)
		models.On("Create", ctx, mock.MatchedBy(func(m *model.MLModel) bool {
			return m.Name == "leaf-efficientnetb0" && m.IsActive &&
				m.Endpoint == "http://tf-serving:8501"
		})).Return(&model.MLModel{ID: "m-id", Name: "leaf-efficientnetb0", IsActive: true}, nil)

		m, created, err := EnsureActiveModel(ctx, models, cfg)

		assert.NoError(t, err)
		assert.True(t, created)
		assert.Equal(t, "leaf-efficientnetb0", m.Name)
		models.AssertExpectations(t)
	})

	t.Run("existing active model is kept", func(t *testing.T) {
		models := new(repoMocks.MockMLModelRepository)
		models.On("FindActive", ctx).Return(&model.MLModel{ID: "m-id", Version: "2"}, nil)

		m, created, err := EnsureActiveModel(ctx, models, cfg)

		assert.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, "2", m.Version)
		models.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("lookup failure propagates", func(t *testing.T) {
		models := new(repoMocks.MockMLModelRepository)
		models.On("FindActive", ctx).Return(nil, sql.ErrConnDone)

		_, _, err := EnsureActiveModel(ctx, models, cfg)

		assert.Error(t, err)
		models.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})
}

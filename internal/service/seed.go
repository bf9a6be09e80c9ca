package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"mangoapi/internal/classifier"
	"mangoapi/internal/config"
	"mangoapi/internal/model"
	"mangoapi/internal/repository"
)

// EnsureSuperuser provisions the bootstrap admin account from configuration.
// It is idempotent: when a user with the configured username already exists
// nothing is written. It must run after migration and before the server
// starts accepting requests.
func EnsureSuperuser(ctx context.Context, users repository.UserRepository, cfg config.AuthConfig) (*model.User, bool, error) {
	if cfg.AdminUsername == "" {
		return nil, false, errors.New("admin username is not configured")
	}

	existing, err := users.FindByUsername(ctx, cfg.AdminUsername)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, false, fmt.Errorf("find superuser: %w", err)
	}

	if cfg.AdminPassword == "" {
		return nil, false, errors.New("admin password is not configured")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(cfg.AdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, false, fmt.Errorf("hash admin password: %w", err)
	}

	u := &model.User{
		ID:           uuid.New().String(),
		Username:     cfg.AdminUsername,
		Email:        cfg.AdminEmail,
		PasswordHash: string(hash),
		IsStaff:      true,
		IsSuperuser:  true,
		IsActive:     true,
		DateJoined:   time.Now().UTC(),
	}

	created, err := users.Create(ctx, u)
	if err != nil {
		return nil, false, fmt.Errorf("create superuser: %w", err)
	}
	return created, true, nil
}

// EnsureActiveModel registers the served leaf model as the active model
// record when none exists yet. Classification works without the record,
// it backs the model metadata endpoint.
func EnsureActiveModel(ctx context.Context, models repository.MLModelRepository, cfg config.ClassifierConfig) (*model.MLModel, bool, error) {
	existing, err := models.FindActive(ctx)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, false, fmt.Errorf("find active model: %w", err)
	}

	m := &model.MLModel{
		ID:        uuid.New().String(),
		Name:      classifier.ModelFor(classifier.KindLeaf),
		Version:   "1",
		Endpoint:  cfg.ServerURL,
		IsActive:  true,
		CreatedAt: time.Now().UTC(),
	}

	created, err := models.Create(ctx, m)
	if err != nil {
		return nil, false, fmt.Errorf("register model: %w", err)
	}
	return created, true, nil
}

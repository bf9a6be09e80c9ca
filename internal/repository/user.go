package repository

import (
	"context"

	"mangoapi/internal/model"
)

// UserRepository defines data access for user accounts using SQL queries only.
// No business logic here, strictly persistence operations.
type UserRepository interface {
	// Create inserts a new user record and returns the stored row.
	Create(ctx context.Context, u *model.User) (*model.User, error)

	// FindByID returns a user by their ID.
	FindByID(ctx context.Context, id string) (*model.User, error)

	// FindByEmail returns a user by email (emails are unique, lowercased).
	FindByEmail(ctx context.Context, email string) (*model.User, error)

	// FindByUsername returns a user by username.
	FindByUsername(ctx context.Context, username string) (*model.User, error)

	// ExistsByEmail reports whether an account with the email exists.
	ExistsByEmail(ctx context.Context, email string) (bool, error)

	// FindFirstStaff returns the oldest staff account, or sql.ErrNoRows.
	FindFirstStaff(ctx context.Context) (*model.User, error)
}

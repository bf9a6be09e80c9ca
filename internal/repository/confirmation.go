package repository

import (
	"context"

	"mangoapi/internal/model"
)

// ConfirmationFilter narrows confirmation listings.
type ConfirmationFilter struct {
	IsCorrect *bool
	UserID    string
	Disease   string
}

// ConfirmationStats aggregates confirmation counters.
type ConfirmationStats struct {
	Total         int
	Confirmed     int
	Rejected      int
	DistinctUsers int
	Anonymous     int
	WithLocation  int
}

// DiseaseAccuracy is the per-disease confirmation breakdown.
type DiseaseAccuracy struct {
	Disease   string
	Total     int
	Confirmed int
	Rejected  int
}

// ConfirmationRepository defines data access for user confirmations.
type ConfirmationRepository interface {
	// Create inserts a confirmation and returns the stored row.
	Create(ctx context.Context, c *model.UserConfirmation) (*model.UserConfirmation, error)

	// FindByImageID returns the confirmation attached to an image,
	// or sql.ErrNoRows when the image has none.
	FindByImageID(ctx context.Context, imageID string) (*model.UserConfirmation, error)

	// List returns a filtered, paginated page ordered by confirmed_at descending.
	List(ctx context.Context, f ConfirmationFilter, pq PageQuery) (*PageResult[model.UserConfirmation], error)

	// Stats computes overall confirmation counters.
	Stats(ctx context.Context) (*ConfirmationStats, error)

	// DiseaseStats computes per-disease confirmation counters ordered by
	// total predictions descending.
	DiseaseStats(ctx context.Context) ([]DiseaseAccuracy, error)
}

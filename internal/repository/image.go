package repository

import (
	"context"
	"time"

	"mangoapi/internal/model"
)

// ImageFilter narrows classified image listings.
// Zero values mean "no filter" for strings; nil means "no filter" for Verified.
type ImageFilter struct {
	Search      string
	Disease     string
	DiseaseType string
	Verified    *bool
}

// ImageUpdate is a partial update of a mango_images row.
// Only non-nil fields are written.
type ImageUpdate struct {
	PredictedClass        *string
	DiseaseClassification *string
	ConfidenceScore       *float64
	DiseaseType           *string
	ImageSize             *string
	ProcessingTime        *float64
	ClientIP              *string
	IsVerified            *bool
	VerifiedBy            *string
	VerifiedDate          *time.Time
	Notes                 *string
}

// ImageStats aggregates dashboard counters over mango_images.
type ImageStats struct {
	Total             int
	Healthy           int
	Verified          int
	Leaf              int
	Fruit             int
	RecentWeek        int
	RecentMonth       int
	DiseasesBreakdown map[string]int
}

// ImageRepository defines data access for classified mango images.
type ImageRepository interface {
	// Create inserts a new image record and returns the stored row.
	Create(ctx context.Context, img *model.MangoImage) (*model.MangoImage, error)

	// FindByID returns an image by its ID.
	FindByID(ctx context.Context, id string) (*model.MangoImage, error)

	// List returns a filtered, paginated page of images ordered by
	// uploaded_at descending, plus the total row count for the filter.
	List(ctx context.Context, f ImageFilter, pq PageQuery) (*PageResult[model.MangoImage], error)

	// Update applies a partial update and returns the updated row.
	Update(ctx context.Context, id string, upd ImageUpdate) (*model.MangoImage, error)

	// BulkUpdate applies the same partial update to every listed image and
	// returns the number of rows written.
	BulkUpdate(ctx context.Context, ids []string, upd ImageUpdate) (int64, error)

	// ExistingIDs returns the subset of ids that exist.
	ExistingIDs(ctx context.Context, ids []string) ([]string, error)

	// Delete removes an image by ID. It returns nil if the row was deleted or did not exist.
	Delete(ctx context.Context, id string) error

	// ExportAll returns every image row ordered by uploaded_at descending.
	ExportAll(ctx context.Context) ([]model.MangoImage, error)

	// ListWithoutNotification returns images that have no notification yet.
	ListWithoutNotification(ctx context.Context) ([]model.MangoImage, error)

	// ExistsByOriginalFilename reports whether an image with the given
	// original filename was already imported.
	ExistsByOriginalFilename(ctx context.Context, name string) (bool, error)

	// Stats computes dashboard counters.
	Stats(ctx context.Context) (*ImageStats, error)

	// CreatePredictionLog records a classification request for analytics.
	CreatePredictionLog(ctx context.Context, l *model.PredictionLog) error
}

// MLModelRepository defines data access for classifier version metadata.
type MLModelRepository interface {
	// Create inserts a model metadata record.
	Create(ctx context.Context, m *model.MLModel) (*model.MLModel, error)

	// FindActive returns the most recently registered active model,
	// or sql.ErrNoRows when none is active.
	FindActive(ctx context.Context) (*model.MLModel, error)
}

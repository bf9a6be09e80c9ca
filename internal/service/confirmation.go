package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"mangoapi/internal/model"
	"mangoapi/internal/repository"
)

var ErrAlreadyConfirmed = errors.New("image already has a confirmation")

// ConfirmationInput is the public confirmation payload.
type ConfirmationInput struct {
	ImageID          string   `json:"image_id"`
	UserID           *string  `json:"user_id,omitempty"`
	IsCorrect        bool     `json:"is_correct"`
	UserFeedback     string   `json:"user_feedback"`
	ClientIP         string   `json:"-"`
	Latitude         *float64 `json:"latitude,omitempty"`
	Longitude        *float64 `json:"longitude,omitempty"`
	LocationAccuracy *float64 `json:"location_accuracy,omitempty"`
	LocationConsent  bool     `json:"location_consent_given"`
	LocationAddress  string   `json:"location_address,omitempty"`
}

// ConfirmationListQuery filters the staff confirmation listing.
type ConfirmationListQuery struct {
	Page     int
	PageSize int
	Status   string // all|confirmed|rejected
	UserID   string
	Disease  string
}

// ConfirmationListResult is the paginated listing plus overall counters.
type ConfirmationListResult struct {
	Items      []model.UserConfirmation      `json:"data"`
	Total      int                           `json:"total"`
	Page       int                           `json:"page"`
	PageSize   int                           `json:"page_size"`
	TotalPages int                           `json:"total_pages"`
	Stats      *repository.ConfirmationStats `json:"stats"`
}

// ConfirmationStatistics is the /api/confirmations/statistics payload.
type ConfirmationStatistics struct {
	Overall             *repository.ConfirmationStats `json:"overall"`
	AccuracyRate        float64                       `json:"accuracy_rate"`
	LocationConsentRate float64                       `json:"location_consent_rate"`
	PerDisease          []repository.DiseaseAccuracy  `json:"per_disease"`
}

// ConfirmationService collects and reports user feedback on predictions.
type ConfirmationService interface {
	// Create records one confirmation for an existing image. Only one
	// confirmation per image is allowed. Location fields are dropped
	// unless consent was given.
	Create(ctx context.Context, in ConfirmationInput) (*model.UserConfirmation, error)

	// List returns confirmations for the dashboard with overall counters.
	List(ctx context.Context, q ConfirmationListQuery) (*ConfirmationListResult, error)

	// Statistics returns overall accuracy, engagement and the per-disease
	// breakdown.
	Statistics(ctx context.Context) (*ConfirmationStatistics, error)
}

type confirmationService struct {
	confirmations repository.ConfirmationRepository
	images        repository.ImageRepository
	now           func() time.Time
}

// NewConfirmationService constructs a ConfirmationService.
func NewConfirmationService(confirmations repository.ConfirmationRepository, images repository.ImageRepository) ConfirmationService {
	return &confirmationService{confirmations: confirmations, images: images, now: time.Now}
}

func (s *confirmationService) Create(ctx context.Context, in ConfirmationInput) (*model.UserConfirmation, error) {
	if in.ImageID == "" {
		return nil, &ValidationError{Field: "image_id", Message: "image_id is required"}
	}

	img, err := s.images.FindByID(ctx, in.ImageID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrImageNotFound
		}
		return nil, fmt.Errorf("find image: %w", err)
	}

	if _, err := s.confirmations.FindByImageID(ctx, in.ImageID); err == nil {
		return nil, ErrAlreadyConfirmed
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("check confirmation: %w", err)
	}

	c := &model.UserConfirmation{
		ID:               uuid.New().String(),
		ImageID:          in.ImageID,
		UserID:           in.UserID,
		IsCorrect:        in.IsCorrect,
		PredictedDisease: img.PredictedClass,
		UserFeedback:     in.UserFeedback,
		ConfidenceScore:  img.ConfidenceScore,
		ClientIP:         in.ClientIP,
		ConfirmedAt:      s.now().UTC(),
	}
	if in.LocationConsent {
		c.LocationConsentGiven = true
		c.Latitude = in.Latitude
		c.Longitude = in.Longitude
		c.LocationAccuracy = in.LocationAccuracy
		c.LocationAddress = in.LocationAddress
	}

	stored, err := s.confirmations.Create(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("create confirmation: %w", err)
	}
	return stored, nil
}

func (s *confirmationService) List(ctx context.Context, q ConfirmationListQuery) (*ConfirmationListResult, error) {
	if q.Page <= 0 {
		q.Page = 1
	}
	if q.PageSize <= 0 {
		q.PageSize = 20
	}
	if q.PageSize > 100 {
		q.PageSize = 100
	}

	f := repository.ConfirmationFilter{UserID: q.UserID, Disease: q.Disease}
	switch q.Status {
	case "confirmed":
		v := true
		f.IsCorrect = &v
	case "rejected":
		v := false
		f.IsCorrect = &v
	case "", "all":
	default:
		return nil, &ValidationError{Field: "status", Message: "status must be all, confirmed or rejected"}
	}

	res, err := s.confirmations.List(ctx, f, repository.PageQuery{
		Limit:  q.PageSize,
		Offset: (q.Page - 1) * q.PageSize,
	})
	if err != nil {
		return nil, err
	}

	stats, err := s.confirmations.Stats(ctx)
	if err != nil {
		return nil, err
	}

	return &ConfirmationListResult{
		Items:      res.Items,
		Total:      res.Total,
		Page:       q.Page,
		PageSize:   q.PageSize,
		TotalPages: (res.Total + q.PageSize - 1) / q.PageSize,
		Stats:      stats,
	}, nil
}

func (s *confirmationService) Statistics(ctx context.Context) (*ConfirmationStatistics, error) {
	overall, err := s.confirmations.Stats(ctx)
	if err != nil {
		return nil, err
	}
	perDisease, err := s.confirmations.DiseaseStats(ctx)
	if err != nil {
		return nil, err
	}

	out := &ConfirmationStatistics{Overall: overall, PerDisease: perDisease}
	if overall.Total > 0 {
		out.AccuracyRate = roundRate(float64(overall.Confirmed) / float64(overall.Total) * 100)
		out.LocationConsentRate = roundRate(float64(overall.WithLocation) / float64(overall.Total) * 100)
	}
	return out, nil
}

func roundRate(v float64) float64 {
	return math.Round(v*100) / 100
}

package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"mangoapi/internal/model"
	"mangoapi/internal/repository"
	repoMocks "mangoapi/internal/repository/mocks"
)

func newConfirmationService() (ConfirmationService, *repoMocks.MockConfirmationRepository, *repoMocks.MockImageRepository) {
	confirmations := new(repoMocks.MockConfirmationRepository)
	images := new(repoMocks.MockImageRepository)
	return NewConfirmationService(confirmations, images), confirmations, images
}

func TestConfirmationService_Create(t *testing.T) {
	ctx := context.Background()
	score := 92.5
	img := &model.MangoImage{ID: "img-id", PredictedClass: "Anthracnose", ConfidenceScore: &score}

	t.Run("happy path copies prediction snapshot", func(t *testing.T) {
		svc, confirmations, images := newConfirmationService()
		images.On("FindByID", ctx, "img-id").Return(img, nil)
		confirmations.On("FindByImageID", ctx, "img-id").Return(nil, sql.ErrNoRows)
		confirmations.On("Create", ctx, mock.MatchedBy(func(c *model.UserConfirmation) bool {
			return c.ImageID == "img-id" && c.PredictedDisease == "Anthracnose" &&
				c.ConfidenceScore != nil && *c.ConfidenceScore == 92.5
		})).Return(&model.UserConfirmation{ID: "c-id", ImageID: "img-id"}, nil)

		c, err := svc.Create(ctx, ConfirmationInput{ImageID: "img-id", IsCorrect: true})

		assert.NoError(t, err)
		assert.Equal(t, "c-id", c.ID)
	})

	t.Run("duplicate rejected", func(t *testing.T) {
		svc, confirmations, images := newConfirmationService()
		images.On("FindByID", ctx, "img-id").Return(img, nil)
		confirmations.On("FindByImageID", ctx, "img-id").Return(&model.UserConfirmation{ID: "existing"}, nil)

		_, err := svc.Create(ctx, ConfirmationInput{ImageID: "img-id", IsCorrect: false})

		assert.ErrorIs(t, err, ErrAlreadyConfirmed)
	})

	t.Run("missing image rejected", func(t *testing.T) {
		svc, _, images := newConfirmationService()
		images.On("FindByID", ctx, "ghost").Return(nil, sql.ErrNoRows)

		_, err := svc.Create(ctx, ConfirmationInput{ImageID: "ghost", IsCorrect: true})

		assert.ErrorIs(t, err, ErrImageNotFound)
	})

	t.Run("location dropped without consent", func(t *testing.T) {
		svc, confirmations, images := newConfirmationService()
		lat, lng := -6.3, 108.3
		images.On("FindByID", ctx, "img-id").Return(img, nil)
		confirmations.On("FindByImageID", ctx, "img-id").Return(nil, sql.ErrNoRows)
		confirmations.On("Create", ctx, mock.MatchedBy(func(c *model.UserConfirmation) bool {
			return !c.LocationConsentGiven && c.Latitude == nil && c.Longitude == nil
		})).Return(&model.UserConfirmation{ID: "c-id"}, nil)

		_, err := svc.Create(ctx, ConfirmationInput{
			ImageID: "img-id", IsCorrect: true,
			Latitude: &lat, Longitude: &lng, LocationConsent: false,
		})

		assert.NoError(t, err)
		confirmations.AssertExpectations(t)
	})

	t.Run("location kept with consent", func(t *testing.T) {
		svc, confirmations, images := newConfirmationService()
		lat, lng := -6.3, 108.3
		images.On("FindByID", ctx, "img-id").Return(img, nil)
		confirmations.On("FindByImageID", ctx, "img-id").Return(nil, sql.ErrNoRows)
		confirmations.On("Create", ctx, mock.MatchedBy(func(c *model.UserConfirmation) bool {
			return c.LocationConsentGiven && c.Latitude != nil && *c.Latitude == lat
		})).Return(&model.UserConfirmation{ID: "c-id"}, nil)

		_, err := svc.Create(ctx, ConfirmationInput{
			ImageID: "img-id", IsCorrect: true,
			Latitude: &lat, Longitude: &lng, LocationConsent: true,
		})

		assert.NoError(t, err)
	})
}

func TestConfirmationService_List(t *testing.T) {
	ctx := context.Background()

	t.Run("status filter", func(t *testing.T) {
		svc, confirmations, _ := newConfirmationService()
		confirmed := true
		confirmations.On("List", ctx,
			repository.ConfirmationFilter{IsCorrect: &confirmed},
			repository.PageQuery{Limit: 20, Offset: 0}).
			Return(&repository.PageResult[model.UserConfirmation]{Items: []model.UserConfirmation{{ID: "c"}}, Total: 1}, nil)
		confirmations.On("Stats", ctx).Return(&repository.ConfirmationStats{Total: 1, Confirmed: 1}, nil)

		res, err := svc.List(ctx, ConfirmationListQuery{Status: "confirmed"})

		assert.NoError(t, err)
		assert.Equal(t, 1, res.Total)
		assert.Equal(t, 1, res.Stats.Confirmed)
	})

	t.Run("bad status", func(t *testing.T) {
		svc, _, _ := newConfirmationService()

		_, err := svc.List(ctx, ConfirmationListQuery{Status: "maybe"})

		var ve *ValidationError
		assert.ErrorAs(t, err, &ve)
	})
}

func TestConfirmationService_Statistics(t *testing.T) {
	ctx := context.Background()

	svc, confirmations, _ := newConfirmationService()
	confirmations.On("Stats", ctx).Return(&repository.ConfirmationStats{
		Total: 8, Confirmed: 6, Rejected: 2, WithLocation: 4,
	}, nil)
	confirmations.On("DiseaseStats", ctx).Return([]repository.DiseaseAccuracy{
		{Disease: "Anthracnose", Total: 5, Confirmed: 4, Rejected: 1},
	}, nil)

	stats, err := svc.Statistics(ctx)

	assert.NoError(t, err)
	assert.Equal(t, 75.0, stats.AccuracyRate)
	assert.Equal(t, 50.0, stats.LocationConsentRate)
	assert.Len(t, stats.PerDisease, 1)
}

func TestConfirmationService_StatisticsRounding(t *testing.T) {
	ctx := context.Background()

	svc, confirmations, _ := newConfirmationService()
	confirmations.On("Stats", ctx).Return(&repository.ConfirmationStats{
		Total: 3, Confirmed: 2, Rejected: 1, WithLocation: 1,
	}, nil)
	confirmations.On("DiseaseStats", ctx).Return(nil, nil)

	stats, err := svc.Statistics(ctx)

	assert.NoError(t, err)
	assert.Equal(t, 66.67, stats.AccuracyRate)
	assert.Equal(t, 33.33, stats.LocationConsentRate)
}

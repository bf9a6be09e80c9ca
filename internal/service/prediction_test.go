package service

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"image"
	"image/png"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"mangoapi/internal/classifier"
	clsMocks "mangoapi/internal/classifier/mocks"
	"mangoapi/internal/model"
	"mangoapi/internal/repository"
	repoMocks "mangoapi/internal/repository/mocks"
	"mangoapi/internal/storage"
	storeMocks "mangoapi/internal/storage/mocks"
)

func storageInfo(key string, size int64) storage.ObjectInfo {
	return storage.ObjectInfo{Key: key, Size: size}
}

// pngBytes renders a tiny PNG so dimension probing has something real to read.
func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

// leafProbs returns an 8-class vector with the given probability at idx and
// the remainder spread over the rest.
func leafProbs(idx int, p float64) []float64 {
	probs := make([]float64, 8)
	rest := (1 - p) / 7
	for i := range probs {
		probs[i] = rest
	}
	probs[idx] = p
	return probs
}

type predictionMocks struct {
	cls      *clsMocks.MockClassifier
	store    *storeMocks.MockStorage
	images   *repoMocks.MockImageRepository
	users    *repoMocks.MockUserRepository
	notifs   *repoMocks.MockNotificationRepository
	mlModels *repoMocks.MockMLModelRepository
}

func newPredictionService() (PredictionService, *predictionMocks) {
	m := &predictionMocks{
		cls:      new(clsMocks.MockClassifier),
		store:    new(storeMocks.MockStorage),
		images:   new(repoMocks.MockImageRepository),
		users:    new(repoMocks.MockUserRepository),
		notifs:   new(repoMocks.MockNotificationRepository),
		mlModels: new(repoMocks.MockMLModelRepository),
	}
	svc := NewPredictionService(m.cls, m.store, m.images, m.users, m.notifs, m.mlModels)
	return svc, m
}

func TestValidatePredictUpload(t *testing.T) {
	tests := []struct {
		name        string
		filename    string
		contentType string
		size        int64
		wantErr     error
	}{
		{"jpeg ok", "leaf.jpg", "image/jpeg", 1024, nil},
		{"png ok", "leaf.png", "image/png", 1024, nil},
		{"webp ok", "leaf.webp", "image/webp", 1024, nil},
		{"empty", "leaf.jpg", "image/jpeg", 0, ErrImageRequired},
		{"too large", "leaf.jpg", "image/jpeg", 11 << 20, ErrImageTooLarge},
		{"bad content type", "leaf.gif", "image/gif", 1024, ErrUnsupportedImage},
		{"bad extension", "leaf.gif", "image/jpeg", 1024, ErrUnsupportedImage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePredictUpload(tt.filename, tt.contentType, tt.size)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestPredictionService_Predict(t *testing.T) {
	ctx := context.Background()

	t.Run("confident prediction persists image, log and notification", func(t *testing.T) {
		svc, m := newPredictionService()
		data := pngBytes(t, 224, 224)

		m.cls.On("Predict", ctx, data, classifier.KindLeaf).Return(leafProbs(0, 0.92), nil)
		m.store.On("Put", ctx, mock.MatchedBy(func(key string) bool {
			return strings.HasPrefix(key, imagePrefix) && strings.HasSuffix(key, ".png")
		}), mock.Anything, mock.Anything).Return(storageInfo("mango_images/x.png", int64(len(data))), nil)
		m.images.On("Create", ctx, mock.MatchedBy(func(img *model.MangoImage) bool {
			return img.PredictedClass == classifier.ClassNames(classifier.KindLeaf)[0] &&
				img.DiseaseType == "leaf" && img.ConfidenceScore != nil &&
				img.Notes == "Predicted via mobile app with 92.00% confidence"
		})).Return(&model.MangoImage{ID: "img-id", OriginalFilename: "leaf.png", PredictedClass: "Anthracnose"}, nil)
		m.images.On("CreatePredictionLog", ctx, mock.Anything).Return(nil)
		m.users.On("FindFirstStaff", ctx).Return(&model.User{ID: "admin-id", IsStaff: true}, nil)
		m.notifs.On("Create", ctx, mock.Anything).Return(&model.Notification{ID: "n-id"}, nil)

		res, err := svc.Predict(ctx, PredictInput{
			Filename:    "leaf.png",
			ContentType: "image/png",
			Data:        data,
			Kind:        classifier.KindLeaf,
			ClientIP:    "10.0.0.1",
		})

		assert.NoError(t, err)
		assert.NotNil(t, res.SavedImageID)
		assert.Equal(t, "img-id", *res.SavedImageID)
		assert.Equal(t, "High", res.Primary.ConfidenceLevel)
		assert.Len(t, res.Top3, 3)
		assert.Equal(t, PredictionSummary{
			MostLikely:           classifier.ClassNames(classifier.KindLeaf)[0],
			ConfidenceLevel:      "High",
			TotalDiseasesChecked: 8,
		}, res.Summary)
		assert.Equal(t, "224x224", res.DebugInfo["image_size"])
		m.notifs.AssertExpectations(t)
		m.images.AssertExpectations(t)
	})

	t.Run("below threshold returns Unknown and persists nothing", func(t *testing.T) {
		svc, m := newPredictionService()
		data := pngBytes(t, 32, 32)

		// 8 classes, highest 30%
		m.cls.On("Predict", ctx, data, classifier.KindLeaf).Return(leafProbs(2, 0.30), nil)

		res, err := svc.Predict(ctx, PredictInput{
			Filename:    "blur.png",
			ContentType: "image/png",
			Data:        data,
			Kind:        classifier.KindLeaf,
		})

		assert.NoError(t, err)
		assert.Equal(t, "Unknown", res.Primary.Disease)
		assert.Equal(t, "Low", res.Primary.ConfidenceLevel)
		assert.Equal(t, classifier.UnknownTreatment, res.Primary.Treatment)
		assert.NotNil(t, res.Top3)
		assert.Empty(t, res.Top3)
		assert.Equal(t, PredictionSummary{
			MostLikely:           "Unknown",
			ConfidenceLevel:      "Low",
			TotalDiseasesChecked: 8,
		}, res.Summary)
		assert.Nil(t, res.SavedImageID)
		m.store.AssertNotCalled(t, "Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		m.images.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("classifier error fails the request", func(t *testing.T) {
		svc, m := newPredictionService()
		data := pngBytes(t, 32, 32)

		m.cls.On("Predict", ctx, data, classifier.KindFruit).Return(nil, errors.New("model server down"))

		res, err := svc.Predict(ctx, PredictInput{
			Filename:    "fruit.png",
			ContentType: "image/png",
			Data:        data,
			Kind:        classifier.KindFruit,
		})

		assert.Error(t, err)
		assert.Nil(t, res)
	})

	t.Run("db failure keeps response, drops saved id", func(t *testing.T) {
		svc, m := newPredictionService()
		data := pngBytes(t, 32, 32)

		m.cls.On("Predict", ctx, data, classifier.KindLeaf).Return(leafProbs(0, 0.95), nil)
		m.store.On("Put", ctx, mock.Anything, mock.Anything, mock.Anything).
			Return(storageInfo("mango_images/x.png", int64(len(data))), nil)
		m.images.On("Create", ctx, mock.Anything).Return(nil, errors.New("db down"))
		m.store.On("Delete", ctx, mock.Anything).Return(nil)

		res, err := svc.Predict(ctx, PredictInput{
			Filename:    "leaf.png",
			ContentType: "image/png",
			Data:        data,
			Kind:        classifier.KindLeaf,
		})

		assert.NoError(t, err)
		assert.Nil(t, res.SavedImageID)
		assert.Contains(t, res.DebugInfo, "save_error")
	})

	t.Run("invalid upload rejected before classification", func(t *testing.T) {
		svc, m := newPredictionService()

		_, err := svc.Predict(ctx, PredictInput{
			Filename:    "notes.txt",
			ContentType: "text/plain",
			Data:        []byte("hello"),
			Kind:        classifier.KindLeaf,
		})

		assert.ErrorIs(t, err, ErrUnsupportedImage)
		m.cls.AssertNotCalled(t, "Predict", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestPredictionService_ModelInfo(t *testing.T) {
	ctx := context.Background()

	t.Run("with active model", func(t *testing.T) {
		svc, m := newPredictionService()
		m.mlModels.On("FindActive", ctx).Return(&model.MLModel{Name: "leaf-efficientnetb0", Version: "1"}, nil)
		m.images.On("Stats", ctx).Return(&repository.ImageStats{Total: 12}, nil)

		info, err := svc.ModelInfo(ctx)

		assert.NoError(t, err)
		assert.Equal(t, "leaf-efficientnetb0", info.Model.Name)
		assert.Equal(t, 12, info.Stats.Total)
		assert.Len(t, info.LeafClasses, 8)
		assert.Len(t, info.FruitClasses, 4)
	})

	t.Run("no active model registered", func(t *testing.T) {
		svc, m := newPredictionService()
		m.mlModels.On("FindActive", ctx).Return(nil, sql.ErrNoRows)
		m.images.On("Stats", ctx).Return(&repository.ImageStats{}, nil)

		info, err := svc.ModelInfo(ctx)

		assert.NoError(t, err)
		assert.Nil(t, info.Model)
	})
}

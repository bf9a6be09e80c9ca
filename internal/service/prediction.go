package service

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"mangoapi/internal/classifier"
	"mangoapi/internal/model"
	"mangoapi/internal/repository"
	"mangoapi/internal/storage"
)

const (
	maxPredictImageSize = 10 << 20 // 10MB
	imagePrefix         = "mango_images/"
)

var (
	ErrImageRequired    = errors.New("image file is required")
	ErrImageTooLarge    = errors.New("image exceeds the maximum allowed size")
	ErrUnsupportedImage = errors.New("unsupported image type, use JPEG, PNG or WebP")
)

var predictImageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/jpg":  ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

var predictImageExts = map[string]struct{}{
	".jpg": {}, ".jpeg": {}, ".png": {}, ".webp": {},
}

// PredictInput is one classification request.
type PredictInput struct {
	Filename    string
	ContentType string
	Data        []byte
	Kind        classifier.Kind
	ClientIP    string
	UserAgent   string
}

// PrimaryPrediction is the headline result of a classification.
type PrimaryPrediction struct {
	Disease         string  `json:"disease"`
	Confidence      string  `json:"confidence"`
	ConfidenceScore float64 `json:"confidence_score"`
	ConfidenceLevel string  `json:"confidence_level"`
	Treatment       string  `json:"treatment"`
	DetectionType   string  `json:"detection_type"`
}

// PredictionSummary condenses a classification for the mobile client.
type PredictionSummary struct {
	MostLikely           string `json:"most_likely"`
	ConfidenceLevel      string `json:"confidence_level"`
	TotalDiseasesChecked int    `json:"total_diseases_checked"`
}

// PredictResult mirrors the payload the mobile client consumes.
type PredictResult struct {
	Primary      PrimaryPrediction             `json:"primary_prediction"`
	Top3         []classifier.RankedPrediction `json:"top_3_predictions"`
	Summary      PredictionSummary             `json:"prediction_summary"`
	SavedImageID *string                       `json:"saved_image_id"`
	ModelUsed    string                        `json:"model_used"`
	DebugInfo    map[string]any                `json:"debug_info"`
}

// ModelInfo is the /api/test-model payload.
type ModelInfo struct {
	Model        *model.MLModel         `json:"model,omitempty"`
	Classes      []string               `json:"classes"`
	LeafClasses  []string               `json:"leaf_classes"`
	FruitClasses []string               `json:"fruit_classes"`
	Stats        *repository.ImageStats `json:"stats"`
}

// PredictionService runs classifications and exposes model metadata.
type PredictionService interface {
	// Predict validates the upload, classifies it and, when the primary
	// confidence clears the threshold, persists the image with its
	// prediction. A persistence failure does not fail the request.
	Predict(ctx context.Context, in PredictInput) (*PredictResult, error)

	// ModelInfo returns active model metadata, the class catalog and
	// dataset counters.
	ModelInfo(ctx context.Context) (*ModelInfo, error)
}

type predictionService struct {
	cls      classifier.Classifier
	store    storage.Storage
	images   repository.ImageRepository
	users    repository.UserRepository
	notifs   repository.NotificationRepository
	mlModels repository.MLModelRepository
	now      func() time.Time
}

// NewPredictionService wires the classifier to storage and the repositories.
func NewPredictionService(
	cls classifier.Classifier,
	store storage.Storage,
	images repository.ImageRepository,
	users repository.UserRepository,
	notifs repository.NotificationRepository,
	mlModels repository.MLModelRepository,
) PredictionService {
	return &predictionService{
		cls:      cls,
		store:    store,
		images:   images,
		users:    users,
		notifs:   notifs,
		mlModels: mlModels,
		now:      time.Now,
	}
}

// ValidatePredictUpload checks size, content type and extension for /api/predict.
func ValidatePredictUpload(filename, contentType string, size int64) error {
	if size <= 0 {
		return ErrImageRequired
	}
	if size > maxPredictImageSize {
		return ErrImageTooLarge
	}
	if _, ok := predictImageTypes[strings.ToLower(contentType)]; !ok {
		return ErrUnsupportedImage
	}
	if _, ok := predictImageExts[strings.ToLower(filepath.Ext(filename))]; !ok {
		return ErrUnsupportedImage
	}
	return nil
}

func (s *predictionService) Predict(ctx context.Context, in PredictInput) (*PredictResult, error) {
	if err := ValidatePredictUpload(in.Filename, in.ContentType, int64(len(in.Data))); err != nil {
		return nil, err
	}

	started := s.now()
	dims := imageDimensions(in.Data)

	probs, err := s.cls.Predict(ctx, in.Data, in.Kind)
	if err != nil {
		return nil, fmt.Errorf("classify image: %w", err)
	}

	classes := classifier.ClassNames(in.Kind)
	summary, err := classifier.Summarize(probs, classes)
	if err != nil {
		return nil, err
	}

	elapsed := s.now().Sub(started).Seconds()
	res := &PredictResult{
		ModelUsed: classifier.ModelFor(in.Kind),
		DebugInfo: map[string]any{
			"detection_type":     string(in.Kind),
			"image_size":         dims,
			"processing_time":    elapsed,
			"confidence_percent": fmt.Sprintf("%.2f%%", summary.PrimaryConfidence),
		},
	}

	if summary.PrimaryConfidence < classifier.ConfidenceThreshold {
		// Inconclusive results carry no ranked alternatives and the level
		// is pinned to Low regardless of the raw score.
		res.Top3 = []classifier.RankedPrediction{}
		res.Primary = PrimaryPrediction{
			Disease:         "Unknown",
			Confidence:      fmt.Sprintf("%.2f%%", summary.PrimaryConfidence),
			ConfidenceScore: summary.PrimaryConfidence,
			ConfidenceLevel: "Low",
			Treatment:       classifier.UnknownTreatment,
			DetectionType:   string(in.Kind),
		}
		res.Summary = PredictionSummary{
			MostLikely:           "Unknown",
			ConfidenceLevel:      "Low",
			TotalDiseasesChecked: len(classes),
		}
		return res, nil
	}

	res.Top3 = summary.Top3
	res.Primary = PrimaryPrediction{
		Disease:         summary.PrimaryDisease,
		Confidence:      fmt.Sprintf("%.2f%%", summary.PrimaryConfidence),
		ConfidenceScore: summary.PrimaryConfidence,
		ConfidenceLevel: summary.ConfidenceLevel,
		Treatment:       classifier.TreatmentFor(summary.PrimaryDisease),
		DetectionType:   string(in.Kind),
	}
	res.Summary = PredictionSummary{
		MostLikely:           summary.PrimaryDisease,
		ConfidenceLevel:      summary.ConfidenceLevel,
		TotalDiseasesChecked: len(classes),
	}

	// Persistence is best effort: a storage or DB failure must not take the
	// prediction response down with it. SavedImageID stays nil on failure.
	if img, err := s.persist(ctx, in, summary, dims, elapsed); err == nil {
		res.SavedImageID = &img.ID
	} else {
		res.DebugInfo["save_error"] = err.Error()
	}

	return res, nil
}

func (s *predictionService) persist(ctx context.Context, in PredictInput, summary *classifier.Summary, dims string, elapsed float64) (*model.MangoImage, error) {
	ext := strings.ToLower(filepath.Ext(in.Filename))
	if ext == ".jpeg" {
		ext = ".jpg"
	}
	key := imagePrefix + uuid.New().String() + ext

	info, err := s.store.Put(ctx, key, bytes.NewReader(in.Data), storage.PutObjectOptions{
		Size:        int64(len(in.Data)),
		ContentType: in.ContentType,
		Metadata:    map[string]string{"original-filename": in.Filename},
	})
	if err != nil {
		return nil, fmt.Errorf("upload to storage: %w", err)
	}

	score := summary.PrimaryConfidence
	img := &model.MangoImage{
		ID:                    uuid.New().String(),
		StoragePath:           info.Key,
		OriginalFilename:      in.Filename,
		ContentType:           in.ContentType,
		Size:                  info.Size,
		PredictedClass:        summary.PrimaryDisease,
		DiseaseClassification: summary.PrimaryDisease,
		DiseaseType:           string(in.Kind),
		ConfidenceScore:       &score,
		ImageSize:             dims,
		ProcessingTime:        &elapsed,
		Notes:                 fmt.Sprintf("Predicted via mobile app with %.2f%% confidence", score),
		ClientIP:              in.ClientIP,
		UploadedAt:            s.now().UTC(),
	}

	stored, err := s.images.Create(ctx, img)
	if err != nil {
		if delErr := s.store.Delete(ctx, key); delErr != nil {
			return nil, fmt.Errorf("db save failed: %v; rollback delete failed: %v", err, delErr)
		}
		return nil, fmt.Errorf("db save failed: %w", err)
	}

	logEntry := &model.PredictionLog{
		ID:           uuid.New().String(),
		ImageID:      stored.ID,
		ClientIP:     in.ClientIP,
		UserAgent:    in.UserAgent,
		ResponseTime: elapsed,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.images.CreatePredictionLog(ctx, logEntry); err != nil {
		// The image row is already in place, keep it.
		return stored, nil
	}

	s.notifyUpload(ctx, stored)
	return stored, nil
}

// notifyUpload creates a dashboard notification for the first staff account.
// Missing staff or a write failure is ignored.
func (s *predictionService) notifyUpload(ctx context.Context, img *model.MangoImage) {
	staff, err := s.users.FindFirstStaff(ctx)
	if err != nil {
		return
	}
	n := &model.Notification{
		ID:               uuid.New().String(),
		NotificationType: model.NotificationImageUpload,
		Title:            "New Image Upload",
		Message:          fmt.Sprintf("%s was classified as %s", img.OriginalFilename, img.PredictedClass),
		RelatedImageID:   &img.ID,
		UserID:           staff.ID,
		CreatedAt:        s.now().UTC(),
	}
	_, _ = s.notifs.Create(ctx, n)
}

func (s *predictionService) ModelInfo(ctx context.Context) (*ModelInfo, error) {
	info := &ModelInfo{
		Classes:      classifier.AllClasses,
		LeafClasses:  classifier.ClassNames(classifier.KindLeaf),
		FruitClasses: classifier.ClassNames(classifier.KindFruit),
	}

	active, err := s.mlModels.FindActive(ctx)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("find active model: %w", err)
	}
	info.Model = active

	stats, err := s.images.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("load stats: %w", err)
	}
	info.Stats = stats

	return info, nil
}

// imageDimensions probes the image header for "WxH". WebP is not decodable
// with the registered formats, then the result is empty.
func imageDimensions(data []byte) string {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return ""
	}
	return fmt.Sprintf("%dx%d", cfg.Width, cfg.Height)
}

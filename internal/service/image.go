package service

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
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
	maxPlainUploadSize = 5 << 20 // 5MB
	detailsURLExpiry   = 15 * time.Minute
)

var (
	ErrIDRequired      = errors.New("id is required")
	ErrImageNotFound   = errors.New("image not found")
	ErrNoImageIDs      = errors.New("image_ids is required")
	ErrNoUpdates       = errors.New("updates is required")
	ErrUnknownField    = errors.New("unknown update field")
	ErrMissingImageIDs = errors.New("some image ids do not exist")
)

// ImageListQuery are the query parameters of the classified images listing.
type ImageListQuery struct {
	Page        int
	PageSize    int
	Search      string
	Disease     string
	DiseaseType string
	Verified    *bool
}

// ImageListResult is the paginated listing DTO.
type ImageListResult struct {
	Items      []model.MangoImage `json:"data"`
	Total      int                `json:"total"`
	Page       int                `json:"page"`
	PageSize   int                `json:"page_size"`
	TotalPages int                `json:"total_pages"`
}

// PredictionDetails expands a stored image with derived prediction info and
// the user confirmation, when one exists.
type PredictionDetails struct {
	Image           *model.MangoImage       `json:"image"`
	ImageURL        string                  `json:"image_url,omitempty"`
	Treatment       string                  `json:"treatment"`
	ConfidenceLevel string                  `json:"confidence_level"`
	Confirmation    *model.UserConfirmation `json:"confirmation,omitempty"`
}

// ImageService covers the admin dashboard image use cases.
type ImageService interface {
	// List returns classified images filtered and paginated.
	List(ctx context.Context, q ImageListQuery) (*ImageListResult, error)

	// Get returns one image by ID.
	Get(ctx context.Context, id string) (*model.MangoImage, error)

	// Update applies the allowed subset of fields to one image. When the
	// update flips is_verified on, the verifier and timestamp are recorded.
	Update(ctx context.Context, id string, fields map[string]any, actorID string) (*model.MangoImage, error)

	// BulkUpdate applies the same allowed fields to every listed image and
	// returns how many rows changed. Every id must exist.
	BulkUpdate(ctx context.Context, ids []string, fields map[string]any, actorID string) (int64, error)

	// Delete removes the storage object, then the row.
	Delete(ctx context.Context, id string) error

	// Upload stores an image without running a prediction.
	Upload(ctx context.Context, filename, contentType string, data []byte, userID *string) (*model.MangoImage, error)

	// Export returns the flat metadata export of the whole dataset.
	Export(ctx context.Context) ([]model.MangoImage, error)

	// Stats returns the dashboard counters.
	Stats(ctx context.Context) (*repository.ImageStats, error)

	// Details returns the image with treatment, confidence level, a
	// presigned download URL and its confirmation when present.
	Details(ctx context.Context, id string) (*PredictionDetails, error)
}

type imageService struct {
	store         storage.Storage
	images        repository.ImageRepository
	confirmations repository.ConfirmationRepository
	now           func() time.Time
}

// NewImageService constructs an ImageService.
func NewImageService(store storage.Storage, images repository.ImageRepository, confirmations repository.ConfirmationRepository) ImageService {
	return &imageService{store: store, images: images, confirmations: confirmations, now: time.Now}
}

func (s *imageService) List(ctx context.Context, q ImageListQuery) (*ImageListResult, error) {
	if q.Page <= 0 {
		q.Page = 1
	}
	if q.PageSize <= 0 {
		q.PageSize = 20
	}
	if q.PageSize > 100 {
		q.PageSize = 100
	}

	res, err := s.images.List(ctx, repository.ImageFilter{
		Search:      q.Search,
		Disease:     q.Disease,
		DiseaseType: q.DiseaseType,
		Verified:    q.Verified,
	}, repository.PageQuery{
		Limit:  q.PageSize,
		Offset: (q.Page - 1) * q.PageSize,
	})
	if err != nil {
		return nil, err
	}

	totalPages := (res.Total + q.PageSize - 1) / q.PageSize
	return &ImageListResult{
		Items:      res.Items,
		Total:      res.Total,
		Page:       q.Page,
		PageSize:   q.PageSize,
		TotalPages: totalPages,
	}, nil
}

func (s *imageService) Get(ctx context.Context, id string) (*model.MangoImage, error) {
	if id == "" {
		return nil, ErrIDRequired
	}
	img, err := s.images.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrImageNotFound
		}
		return nil, err
	}
	return img, nil
}

// updatableImageFields maps incoming field names to setters on ImageUpdate.
var updatableImageFields = map[string]func(*repository.ImageUpdate, any) error{
	"predicted_class":        func(u *repository.ImageUpdate, v any) error { return setString(&u.PredictedClass, v) },
	"disease_classification": func(u *repository.ImageUpdate, v any) error { return setString(&u.DiseaseClassification, v) },
	"disease_type":           func(u *repository.ImageUpdate, v any) error { return setString(&u.DiseaseType, v) },
	"confidence_score":       func(u *repository.ImageUpdate, v any) error { return setFloat(&u.ConfidenceScore, v) },
	"is_verified":            func(u *repository.ImageUpdate, v any) error { return setBool(&u.IsVerified, v) },
	"notes":                  func(u *repository.ImageUpdate, v any) error { return setString(&u.Notes, v) },
}

func setString(dst **string, v any) error {
	s, ok := v.(string)
	if !ok {
		return fmt.Errorf("expected string, got %T", v)
	}
	*dst = &s
	return nil
}

func setFloat(dst **float64, v any) error {
	f, ok := v.(float64)
	if !ok {
		return fmt.Errorf("expected number, got %T", v)
	}
	*dst = &f
	return nil
}

func setBool(dst **bool, v any) error {
	b, ok := v.(bool)
	if !ok {
		return fmt.Errorf("expected boolean, got %T", v)
	}
	*dst = &b
	return nil
}

// buildImageUpdate validates the field map against the allowed set.
func buildImageUpdate(fields map[string]any, actorID string, now time.Time) (repository.ImageUpdate, error) {
	var upd repository.ImageUpdate
	for name, value := range fields {
		setter, ok := updatableImageFields[name]
		if !ok {
			return upd, fmt.Errorf("%w: %s", ErrUnknownField, name)
		}
		if err := setter(&upd, value); err != nil {
			return upd, &ValidationError{Field: name, Message: err.Error()}
		}
	}
	if upd.IsVerified != nil && *upd.IsVerified {
		upd.VerifiedDate = &now
		if actorID != "" {
			upd.VerifiedBy = &actorID
		}
	}
	return upd, nil
}

func (s *imageService) Update(ctx context.Context, id string, fields map[string]any, actorID string) (*model.MangoImage, error) {
	if id == "" {
		return nil, ErrIDRequired
	}
	if len(fields) == 0 {
		return nil, ErrNoUpdates
	}

	upd, err := buildImageUpdate(fields, actorID, s.now().UTC())
	if err != nil {
		return nil, err
	}

	img, err := s.images.Update(ctx, id, upd)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrImageNotFound
		}
		return nil, err
	}
	return img, nil
}

func (s *imageService) BulkUpdate(ctx context.Context, ids []string, fields map[string]any, actorID string) (int64, error) {
	if len(ids) == 0 {
		return 0, ErrNoImageIDs
	}
	if len(fields) == 0 {
		return 0, ErrNoUpdates
	}

	upd, err := buildImageUpdate(fields, actorID, s.now().UTC())
	if err != nil {
		return 0, err
	}

	existing, err := s.images.ExistingIDs(ctx, ids)
	if err != nil {
		return 0, err
	}
	if len(existing) != len(ids) {
		missing := missingIDs(ids, existing)
		return 0, fmt.Errorf("%w: %s", ErrMissingImageIDs, strings.Join(missing, ", "))
	}

	return s.images.BulkUpdate(ctx, ids, upd)
}

func missingIDs(requested, existing []string) []string {
	have := make(map[string]struct{}, len(existing))
	for _, id := range existing {
		have[id] = struct{}{}
	}
	var missing []string
	for _, id := range requested {
		if _, ok := have[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing
}

// Delete removes the object from storage first, then the DB row. When the
// storage delete fails the row is kept so the object stays reachable.
func (s *imageService) Delete(ctx context.Context, id string) error {
	if id == "" {
		return ErrIDRequired
	}
	img, err := s.images.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrImageNotFound
		}
		return err
	}
	if err := s.store.Delete(ctx, img.StoragePath); err != nil {
		return fmt.Errorf("delete storage: %w", err)
	}
	return s.images.Delete(ctx, id)
}

var plainUploadTypes = map[string]struct{}{
	"image/jpeg": {},
	"image/jpg":  {},
	"image/png":  {},
}

func (s *imageService) Upload(ctx context.Context, filename, contentType string, data []byte, userID *string) (*model.MangoImage, error) {
	if len(data) == 0 {
		return nil, ErrImageRequired
	}
	if int64(len(data)) > maxPlainUploadSize {
		return nil, ErrImageTooLarge
	}
	if _, ok := plainUploadTypes[strings.ToLower(contentType)]; !ok {
		return nil, ErrUnsupportedImage
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if ext == ".jpeg" {
		ext = ".jpg"
	}
	key := imagePrefix + uuid.New().String() + ext

	info, err := s.store.Put(ctx, key, bytes.NewReader(data), storage.PutObjectOptions{
		Size:        int64(len(data)),
		ContentType: contentType,
		Metadata:    map[string]string{"original-filename": filename},
	})
	if err != nil {
		return nil, fmt.Errorf("upload to storage: %w", err)
	}

	img := &model.MangoImage{
		ID:               uuid.New().String(),
		UserID:           userID,
		StoragePath:      info.Key,
		OriginalFilename: filename,
		ContentType:      contentType,
		Size:             info.Size,
		ImageSize:        imageDimensions(data),
		UploadedAt:       s.now().UTC(),
	}

	stored, err := s.images.Create(ctx, img)
	if err != nil {
		if delErr := s.store.Delete(ctx, key); delErr != nil {
			return nil, fmt.Errorf("db save failed: %v; rollback delete failed: %v", err, delErr)
		}
		return nil, fmt.Errorf("db save failed: %w", err)
	}
	return stored, nil
}

func (s *imageService) Export(ctx context.Context) ([]model.MangoImage, error) {
	return s.images.ExportAll(ctx)
}

func (s *imageService) Stats(ctx context.Context) (*repository.ImageStats, error) {
	return s.images.Stats(ctx)
}

func (s *imageService) Details(ctx context.Context, id string) (*PredictionDetails, error) {
	img, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	d := &PredictionDetails{Image: img}
	if img.StoragePath != "" {
		// A presign failure degrades the payload, the details still load.
		if url, err := s.store.PresignGet(ctx, img.StoragePath, detailsURLExpiry); err == nil {
			d.ImageURL = url
		}
	}
	if img.PredictedClass != "" {
		d.Treatment = classifier.TreatmentFor(img.PredictedClass)
	}
	if img.ConfidenceScore != nil {
		d.ConfidenceLevel = classifier.ConfidenceLevel(*img.ConfidenceScore / 100)
	}

	conf, err := s.confirmations.FindByImageID(ctx, id)
	if err == nil {
		d.Confirmation = conf
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	return d, nil
}

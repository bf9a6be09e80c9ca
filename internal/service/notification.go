package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"mangoapi/internal/model"
	"mangoapi/internal/repository"
)

var ErrNotificationNotFound = errors.New("notification not found")

// NotificationListResult is the paginated notifications DTO.
type NotificationListResult struct {
	Items      []model.Notification `json:"data"`
	Total      int                  `json:"total"`
	Page       int                  `json:"page"`
	PageSize   int                  `json:"page_size"`
	TotalPages int                  `json:"total_pages"`
	Created    int                  `json:"created,omitempty"`
}

// NotificationService covers the admin dashboard notification feed.
type NotificationService interface {
	// List returns notifications newest first. When createNew is set,
	// images without a notification get one backfilled before listing.
	List(ctx context.Context, page, pageSize int, createNew bool) (*NotificationListResult, error)

	// Get returns one notification by ID.
	Get(ctx context.Context, id string) (*model.Notification, error)

	// MarkRead flags one notification as read.
	MarkRead(ctx context.Context, id string) error

	// MarkAllRead flags every unread notification and returns the count.
	MarkAllRead(ctx context.Context) (int64, error)

	// Delete removes one notification.
	Delete(ctx context.Context, id string) error

	// DeleteSelected removes the listed notifications and returns their titles.
	DeleteSelected(ctx context.Context, ids []string) ([]string, error)
}

type notificationService struct {
	notifs repository.NotificationRepository
	images repository.ImageRepository
	users  repository.UserRepository
	now    func() time.Time
}

// NewNotificationService constructs a NotificationService.
func NewNotificationService(notifs repository.NotificationRepository, images repository.ImageRepository, users repository.UserRepository) NotificationService {
	return &notificationService{notifs: notifs, images: images, users: users, now: time.Now}
}

func (s *notificationService) List(ctx context.Context, page, pageSize int, createNew bool) (*NotificationListResult, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}

	created := 0
	if createNew {
		n, err := s.backfill(ctx)
		if err != nil {
			return nil, err
		}
		created = n
	}

	res, err := s.notifs.List(ctx, repository.PageQuery{Limit: pageSize, Offset: (page - 1) * pageSize})
	if err != nil {
		return nil, err
	}

	return &NotificationListResult{
		Items:      res.Items,
		Total:      res.Total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: (res.Total + pageSize - 1) / pageSize,
		Created:    created,
	}, nil
}

// backfill creates an image_upload notification for every image lacking one.
func (s *notificationService) backfill(ctx context.Context) (int, error) {
	staff, err := s.users.FindFirstStaff(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("find staff: %w", err)
	}

	images, err := s.images.ListWithoutNotification(ctx)
	if err != nil {
		return 0, fmt.Errorf("list images without notification: %w", err)
	}

	created := 0
	for i := range images {
		img := images[i]
		n := &model.Notification{
			ID:               uuid.New().String(),
			NotificationType: model.NotificationImageUpload,
			Title:            "New Image Upload",
			Message:          fmt.Sprintf("%s was classified as %s", img.OriginalFilename, img.PredictedClass),
			RelatedImageID:   &img.ID,
			UserID:           staff.ID,
			CreatedAt:        s.now().UTC(),
		}
		if _, err := s.notifs.Create(ctx, n); err != nil {
			return created, fmt.Errorf("backfill notification: %w", err)
		}
		created++
	}
	return created, nil
}

func (s *notificationService) Get(ctx context.Context, id string) (*model.Notification, error) {
	if id == "" {
		return nil, ErrIDRequired
	}
	n, err := s.notifs.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotificationNotFound
		}
		return nil, err
	}
	return n, nil
}

func (s *notificationService) MarkRead(ctx context.Context, id string) error {
	if id == "" {
		return ErrIDRequired
	}
	if err := s.notifs.MarkRead(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotificationNotFound
		}
		return err
	}
	return nil
}

func (s *notificationService) MarkAllRead(ctx context.Context) (int64, error) {
	return s.notifs.MarkAllRead(ctx)
}

func (s *notificationService) Delete(ctx context.Context, id string) error {
	if id == "" {
		return ErrIDRequired
	}
	if err := s.notifs.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotificationNotFound
		}
		return err
	}
	return nil
}

func (s *notificationService) DeleteSelected(ctx context.Context, ids []string) ([]string, error) {
	if len(ids) == 0 {
		return nil, &ValidationError{Field: "notification_ids", Message: "notification_ids is required"}
	}

	found, err := s.notifs.ListByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	titles := make([]string, 0, len(found))
	for _, n := range found {
		titles = append(titles, n.Title)
	}

	if _, err := s.notifs.DeleteByIDs(ctx, ids); err != nil {
		return nil, err
	}
	return titles, nil
}

package repository

import (
	"context"

	"mangoapi/internal/model"
)

// NotificationRepository defines data access for admin dashboard notifications.
type NotificationRepository interface {
	// Create inserts a notification and returns the stored row.
	Create(ctx context.Context, n *model.Notification) (*model.Notification, error)

	// FindByID returns a notification by its ID.
	FindByID(ctx context.Context, id string) (*model.Notification, error)

	// List returns a page of notifications ordered by created_at descending.
	List(ctx context.Context, pq PageQuery) (*PageResult[model.Notification], error)

	// ListByIDs returns the notifications matching the given ids.
	ListByIDs(ctx context.Context, ids []string) ([]model.Notification, error)

	// MarkRead flags one notification as read. Returns sql.ErrNoRows when missing.
	MarkRead(ctx context.Context, id string) error

	// MarkAllRead flags every unread notification as read and returns the count.
	MarkAllRead(ctx context.Context) (int64, error)

	// Delete removes a notification by ID.
	Delete(ctx context.Context, id string) error

	// DeleteByIDs removes the listed notifications and returns the count removed.
	DeleteByIDs(ctx context.Context, ids []string) (int64, error)
}

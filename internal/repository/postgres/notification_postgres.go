package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"mangoapi/internal/model"
	"mangoapi/internal/repository"
)

// NotificationPostgres is a PostgreSQL implementation of repository.NotificationRepository.
type NotificationPostgres struct {
	db *sql.DB
}

// NewNotificationPostgres creates a new NotificationPostgres repository.
func NewNotificationPostgres(db *sql.DB) *NotificationPostgres {
	return &NotificationPostgres{db: db}
}

var _ repository.NotificationRepository = (*NotificationPostgres)(nil)

const notificationColumns = `id, notification_type, title, message, related_image_id, user_id, is_read, created_at`

func scanNotification(row interface{ Scan(...any) error }) (*model.Notification, error) {
	var n model.Notification
	if err := row.Scan(
		&n.ID,
		&n.NotificationType,
		&n.Title,
		&n.Message,
		&n.RelatedImageID,
		&n.UserID,
		&n.IsRead,
		&n.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &n, nil
}

// Create inserts a notification and returns the stored row.
func (r *NotificationPostgres) Create(ctx context.Context, n *model.Notification) (*model.Notification, error) {
	const q = `
		INSERT INTO notifications (id, notification_type, title, message, related_image_id, user_id, is_read, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + notificationColumns
	row := r.db.QueryRowContext(ctx, q,
		n.ID,
		n.NotificationType,
		n.Title,
		n.Message,
		n.RelatedImageID,
		n.UserID,
		n.IsRead,
		n.CreatedAt,
	)
	return scanNotification(row)
}

// FindByID returns a notification by its ID.
func (r *NotificationPostgres) FindByID(ctx context.Context, id string) (*model.Notification, error) {
	const q = `SELECT ` + notificationColumns + ` FROM notifications WHERE id = $1`
	return scanNotification(r.db.QueryRowContext(ctx, q, id))
}

// List returns a page of notifications ordered by created_at descending.
func (r *NotificationPostgres) List(ctx context.Context, pq repository.PageQuery) (*repository.PageResult[model.Notification], error) {
	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM notifications`).Scan(&total); err != nil {
		return nil, err
	}

	const q = `SELECT ` + notificationColumns + ` FROM notifications ORDER BY created_at DESC, id DESC LIMIT $1 OFFSET $2`
	rows, err := r.db.QueryContext(ctx, q, pq.Limit, pq.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Notification, 0)
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *n)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &repository.PageResult[model.Notification]{Items: items, Total: total}, nil
}

// ListByIDs returns the notifications matching the given ids.
func (r *NotificationPostgres) ListByIDs(ctx context.Context, ids []string) ([]model.Notification, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	q := fmt.Sprintf(`SELECT `+notificationColumns+` FROM notifications WHERE id IN (%s)`, inPlaceholders(1, len(ids)))
	rows, err := r.db.QueryContext(ctx, q, idArgs(ids)...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Notification, 0, len(ids))
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *n)
	}
	return items, rows.Err()
}

// MarkRead flags one notification as read.
func (r *NotificationPostgres) MarkRead(ctx context.Context, id string) error {
	const q = `UPDATE notifications SET is_read = TRUE WHERE id = $1`
	res, err := r.db.ExecContext(ctx, q, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// MarkAllRead flags every unread notification as read.
func (r *NotificationPostgres) MarkAllRead(ctx context.Context) (int64, error) {
	const q = `UPDATE notifications SET is_read = TRUE WHERE NOT is_read`
	res, err := r.db.ExecContext(ctx, q)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Delete removes a notification by ID.
func (r *NotificationPostgres) Delete(ctx context.Context, id string) error {
	const q = `DELETE FROM notifications WHERE id = $1`
	res, err := r.db.ExecContext(ctx, q, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// DeleteByIDs removes the listed notifications.
func (r *NotificationPostgres) DeleteByIDs(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	q := fmt.Sprintf(`DELETE FROM notifications WHERE id IN (%s)`, inPlaceholders(1, len(ids)))
	res, err := r.db.ExecContext(ctx, q, idArgs(ids)...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"mangoapi/internal/model"
	"mangoapi/internal/repository"
)

// ConfirmationPostgres is a PostgreSQL implementation of repository.ConfirmationRepository.
type ConfirmationPostgres struct {
	db *sql.DB
}

// NewConfirmationPostgres creates a new ConfirmationPostgres repository.
func NewConfirmationPostgres(db *sql.DB) *ConfirmationPostgres {
	return &ConfirmationPostgres{db: db}
}

var _ repository.ConfirmationRepository = (*ConfirmationPostgres)(nil)

const confirmationColumns = `id, image_id, user_id, is_correct, predicted_disease, user_feedback, confidence_score, client_ip, latitude, longitude, location_accuracy, location_consent_given, location_address, confirmed_at`

func scanConfirmation(row interface{ Scan(...any) error }) (*model.UserConfirmation, error) {
	var c model.UserConfirmation
	if err := row.Scan(
		&c.ID,
		&c.ImageID,
		&c.UserID,
		&c.IsCorrect,
		&c.PredictedDisease,
		&c.UserFeedback,
		&c.ConfidenceScore,
		&c.ClientIP,
		&c.Latitude,
		&c.Longitude,
		&c.LocationAccuracy,
		&c.LocationConsentGiven,
		&c.LocationAddress,
		&c.ConfirmedAt,
	); err != nil {
		return nil, err
	}
	return &c, nil
}

// Create inserts a confirmation and returns the stored row.
func (r *ConfirmationPostgres) Create(ctx context.Context, c *model.UserConfirmation) (*model.UserConfirmation, error) {
	const q = `
		INSERT INTO user_confirmations (id, image_id, user_id, is_correct, predicted_disease, user_feedback, confidence_score, client_ip, latitude, longitude, location_accuracy, location_consent_given, location_address, confirmed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING ` + confirmationColumns
	row := r.db.QueryRowContext(ctx, q,
		c.ID,
		c.ImageID,
		c.UserID,
		c.IsCorrect,
		c.PredictedDisease,
		c.UserFeedback,
		c.ConfidenceScore,
		c.ClientIP,
		c.Latitude,
		c.Longitude,
		c.LocationAccuracy,
		c.LocationConsentGiven,
		c.LocationAddress,
		c.ConfirmedAt,
	)
	return scanConfirmation(row)
}

// FindByImageID returns the confirmation attached to an image.
func (r *ConfirmationPostgres) FindByImageID(ctx context.Context, imageID string) (*model.UserConfirmation, error) {
	const q = `SELECT ` + confirmationColumns + ` FROM user_confirmations WHERE image_id = $1`
	return scanConfirmation(r.db.QueryRowContext(ctx, q, imageID))
}

// List returns a filtered, paginated page ordered by confirmed_at descending.
func (r *ConfirmationPostgres) List(ctx context.Context, f repository.ConfirmationFilter, pq repository.PageQuery) (*repository.PageResult[model.UserConfirmation], error) {
	var conds []string
	var args []any

	if f.IsCorrect != nil {
		args = append(args, *f.IsCorrect)
		conds = append(conds, fmt.Sprintf("is_correct = $%d", len(args)))
	}
	if f.UserID != "" {
		args = append(args, f.UserID)
		conds = append(conds, fmt.Sprintf("user_id = $%d", len(args)))
	}
	if f.Disease != "" {
		args = append(args, "%"+f.Disease+"%")
		conds = append(conds, fmt.Sprintf("predicted_disease ILIKE $%d", len(args)))
	}

	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM user_confirmations`+where, args...).Scan(&total); err != nil {
		return nil, err
	}

	listQ := fmt.Sprintf(`SELECT `+confirmationColumns+` FROM user_confirmations%s ORDER BY confirmed_at DESC, id DESC LIMIT $%d OFFSET $%d`,
		where, len(args)+1, len(args)+2)
	rows, err := r.db.QueryContext(ctx, listQ, append(args, pq.Limit, pq.Offset)...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.UserConfirmation, 0)
	for rows.Next() {
		c, err := scanConfirmation(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &repository.PageResult[model.UserConfirmation]{Items: items, Total: total}, nil
}

// Stats computes overall confirmation counters in one pass.
func (r *ConfirmationPostgres) Stats(ctx context.Context) (*repository.ConfirmationStats, error) {
	const q = `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE is_correct),
			COUNT(*) FILTER (WHERE NOT is_correct),
			COUNT(DISTINCT user_id) FILTER (WHERE user_id IS NOT NULL),
			COUNT(*) FILTER (WHERE user_id IS NULL),
			COUNT(*) FILTER (WHERE location_consent_given AND latitude IS NOT NULL AND longitude IS NOT NULL)
		FROM user_confirmations`

	var s repository.ConfirmationStats
	if err := r.db.QueryRowContext(ctx, q).Scan(
		&s.Total,
		&s.Confirmed,
		&s.Rejected,
		&s.DistinctUsers,
		&s.Anonymous,
		&s.WithLocation,
	); err != nil {
		return nil, err
	}
	return &s, nil
}

// DiseaseStats computes per-disease confirmation counters.
func (r *ConfirmationPostgres) DiseaseStats(ctx context.Context) ([]repository.DiseaseAccuracy, error) {
	const q = `
		SELECT
			predicted_disease,
			COUNT(*),
			COUNT(*) FILTER (WHERE is_correct),
			COUNT(*) FILTER (WHERE NOT is_correct)
		FROM user_confirmations
		GROUP BY predicted_disease
		ORDER BY COUNT(*) DESC, predicted_disease ASC`

	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]repository.DiseaseAccuracy, 0)
	for rows.Next() {
		var d repository.DiseaseAccuracy
		if err := rows.Scan(&d.Disease, &d.Total, &d.Confirmed, &d.Rejected); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

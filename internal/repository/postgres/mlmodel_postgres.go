package postgres

import (
	"context"
	"database/sql"

	"mangoapi/internal/model"
	"mangoapi/internal/repository"
)

// MLModelPostgres is a PostgreSQL implementation of repository.MLModelRepository.
type MLModelPostgres struct {
	db *sql.DB
}

// NewMLModelPostgres creates a new MLModelPostgres repository.
func NewMLModelPostgres(db *sql.DB) *MLModelPostgres {
	return &MLModelPostgres{db: db}
}

var _ repository.MLModelRepository = (*MLModelPostgres)(nil)

const mlModelColumns = `id, name, version, endpoint, is_active, created_at`

func scanMLModel(row interface{ Scan(...any) error }) (*model.MLModel, error) {
	var m model.MLModel
	if err := row.Scan(
		&m.ID,
		&m.Name,
		&m.Version,
		&m.Endpoint,
		&m.IsActive,
		&m.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &m, nil
}

// Create inserts a model metadata record.
func (r *MLModelPostgres) Create(ctx context.Context, m *model.MLModel) (*model.MLModel, error) {
	const q = `
		INSERT INTO ml_models (id, name, version, endpoint, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + mlModelColumns
	row := r.db.QueryRowContext(ctx, q,
		m.ID,
		m.Name,
		m.Version,
		m.Endpoint,
		m.IsActive,
		m.CreatedAt,
	)
	return scanMLModel(row)
}

// FindActive returns the most recently registered active model.
func (r *MLModelPostgres) FindActive(ctx context.Context) (*model.MLModel, error) {
	const q = `SELECT ` + mlModelColumns + ` FROM ml_models WHERE is_active ORDER BY created_at DESC LIMIT 1`
	return scanMLModel(r.db.QueryRowContext(ctx, q))
}

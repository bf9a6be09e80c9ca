package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"mangoapi/internal/model"
	"mangoapi/internal/repository"
)

// ImagePostgres is a PostgreSQL implementation of repository.ImageRepository.
type ImagePostgres struct {
	db *sql.DB
}

// NewImagePostgres creates a new ImagePostgres repository.
func NewImagePostgres(db *sql.DB) *ImagePostgres {
	return &ImagePostgres{db: db}
}

var _ repository.ImageRepository = (*ImagePostgres)(nil)

// inPlaceholders renders "$start, $start+1, ..." for an IN clause.
func inPlaceholders(start, n int) string {
	var b strings.Builder
	for i := 0; i < n; i++ {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "$%d", start+i)
	}
	return b.String()
}

func idArgs(ids []string) []any {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return args
}

const imageColumns = `id, user_id, storage_path, original_filename, content_type, size, predicted_class, disease_classification, disease_type, confidence_score, is_verified, verified_by, verified_date, notes, image_size, processing_time, client_ip, uploaded_at`

func scanImage(row interface{ Scan(...any) error }) (*model.MangoImage, error) {
	var img model.MangoImage
	if err := row.Scan(
		&img.ID,
		&img.UserID,
		&img.StoragePath,
		&img.OriginalFilename,
		&img.ContentType,
		&img.Size,
		&img.PredictedClass,
		&img.DiseaseClassification,
		&img.DiseaseType,
		&img.ConfidenceScore,
		&img.IsVerified,
		&img.VerifiedBy,
		&img.VerifiedDate,
		&img.Notes,
		&img.ImageSize,
		&img.ProcessingTime,
		&img.ClientIP,
		&img.UploadedAt,
	); err != nil {
		return nil, err
	}
	return &img, nil
}

// Create inserts a new image row and returns the stored record.
func (r *ImagePostgres) Create(ctx context.Context, img *model.MangoImage) (*model.MangoImage, error) {
	const q = `
		INSERT INTO mango_images (id, user_id, storage_path, original_filename, content_type, size, predicted_class, disease_classification, disease_type, confidence_score, is_verified, verified_by, verified_date, notes, image_size, processing_time, client_ip, uploaded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		RETURNING ` + imageColumns
	row := r.db.QueryRowContext(ctx, q,
		img.ID,
		img.UserID,
		img.StoragePath,
		img.OriginalFilename,
		img.ContentType,
		img.Size,
		img.PredictedClass,
		img.DiseaseClassification,
		img.DiseaseType,
		img.ConfidenceScore,
		img.IsVerified,
		img.VerifiedBy,
		img.VerifiedDate,
		img.Notes,
		img.ImageSize,
		img.ProcessingTime,
		img.ClientIP,
		img.UploadedAt,
	)
	return scanImage(row)
}

// FindByID fetches a single image by its ID.
func (r *ImagePostgres) FindByID(ctx context.Context, id string) (*model.MangoImage, error) {
	const q = `SELECT ` + imageColumns + ` FROM mango_images WHERE id = $1`
	return scanImage(r.db.QueryRowContext(ctx, q, id))
}

// buildImageFilter translates an ImageFilter into a WHERE clause and args.
func buildImageFilter(f repository.ImageFilter) (string, []any) {
	var conds []string
	var args []any

	add := func(cond string, val any) {
		args = append(args, val)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if f.Search != "" {
		args = append(args, "%"+f.Search+"%")
		n := len(args)
		conds = append(conds, fmt.Sprintf("(original_filename ILIKE $%d OR predicted_class ILIKE $%d)", n, n))
	}
	if f.Disease != "" {
		add("predicted_class ILIKE $%d", "%"+f.Disease+"%")
	}
	if f.DiseaseType != "" {
		add("LOWER(disease_type) = LOWER($%d)", f.DiseaseType)
	}
	if f.Verified != nil {
		add("is_verified = $%d", *f.Verified)
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// List returns images using LIMIT/OFFSET pagination and a total count for the filter.
func (r *ImagePostgres) List(ctx context.Context, f repository.ImageFilter, pq repository.PageQuery) (*repository.PageResult[model.MangoImage], error) {
	where, args := buildImageFilter(f)

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM mango_images`+where, args...).Scan(&total); err != nil {
		return nil, err
	}

	listQ := fmt.Sprintf(`SELECT `+imageColumns+` FROM mango_images%s ORDER BY uploaded_at DESC, id DESC LIMIT $%d OFFSET $%d`,
		where, len(args)+1, len(args)+2)
	rows, err := r.db.QueryContext(ctx, listQ, append(args, pq.Limit, pq.Offset)...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.MangoImage, 0)
	for rows.Next() {
		img, err := scanImage(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *img)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &repository.PageResult[model.MangoImage]{Items: items, Total: total}, nil
}

// buildImageUpdate translates an ImageUpdate into SET clauses and args.
func buildImageUpdate(upd repository.ImageUpdate) ([]string, []any) {
	var sets []string
	var args []any

	set := func(col string, val any) {
		args = append(args, val)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}

	if upd.PredictedClass != nil {
		set("predicted_class", *upd.PredictedClass)
	}
	if upd.DiseaseClassification != nil {
		set("disease_classification", *upd.DiseaseClassification)
	}
	if upd.ConfidenceScore != nil {
		set("confidence_score", *upd.ConfidenceScore)
	}
	if upd.DiseaseType != nil {
		set("disease_type", *upd.DiseaseType)
	}
	if upd.ImageSize != nil {
		set("image_size", *upd.ImageSize)
	}
	if upd.ProcessingTime != nil {
		set("processing_time", *upd.ProcessingTime)
	}
	if upd.ClientIP != nil {
		set("client_ip", *upd.ClientIP)
	}
	if upd.IsVerified != nil {
		set("is_verified", *upd.IsVerified)
	}
	if upd.VerifiedBy != nil {
		set("verified_by", *upd.VerifiedBy)
	}
	if upd.VerifiedDate != nil {
		set("verified_date", *upd.VerifiedDate)
	}
	if upd.Notes != nil {
		set("notes", *upd.Notes)
	}

	return sets, args
}

// Update applies a partial update and returns the updated row.
// An empty update returns the current row unchanged.
func (r *ImagePostgres) Update(ctx context.Context, id string, upd repository.ImageUpdate) (*model.MangoImage, error) {
	sets, args := buildImageUpdate(upd)
	if len(sets) == 0 {
		return r.FindByID(ctx, id)
	}

	q := fmt.Sprintf(`UPDATE mango_images SET %s WHERE id = $%d RETURNING `+imageColumns,
		strings.Join(sets, ", "), len(args)+1)
	return scanImage(r.db.QueryRowContext(ctx, q, append(args, id)...))
}

// BulkUpdate applies the same partial update to every listed image.
func (r *ImagePostgres) BulkUpdate(ctx context.Context, ids []string, upd repository.ImageUpdate) (int64, error) {
	sets, args := buildImageUpdate(upd)
	if len(sets) == 0 || len(ids) == 0 {
		return 0, nil
	}

	q := fmt.Sprintf(`UPDATE mango_images SET %s WHERE id IN (%s)`,
		strings.Join(sets, ", "), inPlaceholders(len(args)+1, len(ids)))
	for _, id := range ids {
		args = append(args, id)
	}
	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ExistingIDs returns the subset of ids present in mango_images.
func (r *ImagePostgres) ExistingIDs(ctx context.Context, ids []string) ([]string, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	q := fmt.Sprintf(`SELECT id FROM mango_images WHERE id IN (%s)`, inPlaceholders(1, len(ids)))
	rows, err := r.db.QueryContext(ctx, q, idArgs(ids)...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	found := make([]string, 0, len(ids))
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		found = append(found, id)
	}
	return found, rows.Err()
}

// Delete removes an image by ID. It does not return an error if the row does not exist.
func (r *ImagePostgres) Delete(ctx context.Context, id string) error {
	const q = `DELETE FROM mango_images WHERE id = $1`
	res, err := r.db.ExecContext(ctx, q, id)
	if err != nil {
		return err
	}
	_, _ = res.RowsAffected()
	return nil
}

// ExportAll returns every image row ordered by uploaded_at descending.
func (r *ImagePostgres) ExportAll(ctx context.Context) ([]model.MangoImage, error) {
	const q = `SELECT ` + imageColumns + ` FROM mango_images ORDER BY uploaded_at DESC, id DESC`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.MangoImage, 0)
	for rows.Next() {
		img, err := scanImage(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *img)
	}
	return items, rows.Err()
}

// ListWithoutNotification returns images with no notification attached yet.
func (r *ImagePostgres) ListWithoutNotification(ctx context.Context) ([]model.MangoImage, error) {
	const q = `
		SELECT ` + imageColumns + `
		FROM mango_images m
		WHERE NOT EXISTS (SELECT 1 FROM notifications n WHERE n.related_image_id = m.id)
		ORDER BY uploaded_at DESC`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.MangoImage, 0)
	for rows.Next() {
		img, err := scanImage(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *img)
	}
	return items, rows.Err()
}

// ExistsByOriginalFilename reports whether an image with the filename exists.
func (r *ImagePostgres) ExistsByOriginalFilename(ctx context.Context, name string) (bool, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM mango_images WHERE original_filename = $1)`
	var exists bool
	if err := r.db.QueryRowContext(ctx, q, name).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

// Stats computes dashboard counters over mango_images.
func (r *ImagePostgres) Stats(ctx context.Context) (*repository.ImageStats, error) {
	const q = `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE predicted_class ILIKE '%healthy%'),
			COUNT(*) FILTER (WHERE is_verified),
			COUNT(*) FILTER (WHERE LOWER(disease_type) = 'leaf'),
			COUNT(*) FILTER (WHERE LOWER(disease_type) = 'fruit'),
			COUNT(*) FILTER (WHERE uploaded_at >= now() - INTERVAL '7 days'),
			COUNT(*) FILTER (WHERE uploaded_at >= now() - INTERVAL '30 days')
		FROM mango_images`

	var s repository.ImageStats
	if err := r.db.QueryRowContext(ctx, q).Scan(
		&s.Total,
		&s.Healthy,
		&s.Verified,
		&s.Leaf,
		&s.Fruit,
		&s.RecentWeek,
		&s.RecentMonth,
	); err != nil {
		return nil, err
	}

	const qBreakdown = `
		SELECT predicted_class, COUNT(*)
		FROM mango_images
		WHERE predicted_class <> ''
		GROUP BY predicted_class
		ORDER BY COUNT(*) DESC`
	rows, err := r.db.QueryContext(ctx, qBreakdown)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	s.DiseasesBreakdown = make(map[string]int)
	for rows.Next() {
		var class string
		var n int
		if err := rows.Scan(&class, &n); err != nil {
			return nil, err
		}
		s.DiseasesBreakdown[class] = n
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &s, nil
}

// CreatePredictionLog records a classification request for analytics.
func (r *ImagePostgres) CreatePredictionLog(ctx context.Context, l *model.PredictionLog) error {
	const q = `
		INSERT INTO prediction_logs (id, image_id, client_ip, user_agent, response_time, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.db.ExecContext(ctx, q,
		l.ID,
		l.ImageID,
		l.ClientIP,
		l.UserAgent,
		l.ResponseTime,
		l.CreatedAt,
	)
	return err
}

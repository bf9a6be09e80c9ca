package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"

	"mangoapi/internal/model"
	"mangoapi/internal/repository"
)

var imageCols = []string{"id", "user_id", "storage_path", "original_filename", "content_type", "size", "predicted_class", "disease_classification", "disease_type", "confidence_score", "is_verified", "verified_by", "verified_date", "notes", "image_size", "processing_time", "client_ip", "uploaded_at"}

func imageRow(id string) *sqlmock.Rows {
	return sqlmock.NewRows(imageCols).
		AddRow(id, nil, "mango_images/"+id+".jpg", "leaf.jpg", "image/jpeg", int64(1024),
			"Anthracnose", "Diseased", "leaf", 92.5, false, nil, nil, "", "224x224", 0.42, "10.0.0.1", time.Now())
}

func TestImagePostgres_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewImagePostgres(db)
	ctx := context.Background()

	now := time.Now().UTC()
	score := 92.5
	img := &model.MangoImage{
		ID:                    "test-uuid",
		StoragePath:           "mango_images/test-uuid.jpg",
		OriginalFilename:      "leaf.jpg",
		ContentType:           "image/jpeg",
		Size:                  1024,
		PredictedClass:        "Anthracnose",
		DiseaseClassification: "Diseased",
		DiseaseType:           "leaf",
		ConfidenceScore:       &score,
		ImageSize:             "224x224",
		ClientIP:              "10.0.0.1",
		UploadedAt:            now,
	}

	rows := sqlmock.NewRows(imageCols).
		AddRow(img.ID, img.UserID, img.StoragePath, img.OriginalFilename, img.ContentType, img.Size,
			img.PredictedClass, img.DiseaseClassification, img.DiseaseType, img.ConfidenceScore, img.IsVerified,
			img.VerifiedBy, img.VerifiedDate, img.Notes, img.ImageSize, img.ProcessingTime, img.ClientIP, img.UploadedAt)

	mock.ExpectQuery("INSERT INTO mango_images").
		WithArgs(img.ID, img.UserID, img.StoragePath, img.OriginalFilename, img.ContentType, img.Size,
			img.PredictedClass, img.DiseaseClassification, img.DiseaseType, img.ConfidenceScore, img.IsVerified,
			img.VerifiedBy, img.VerifiedDate, img.Notes, img.ImageSize, img.ProcessingTime, img.ClientIP, img.UploadedAt).
		WillReturnRows(rows)

	result, err := repo.Create(ctx, img)

	assert.NoError(t, err)
	assert.NotNil(t, result)
	assert.Equal(t, img.ID, result.ID)
	assert.Equal(t, "Anthracnose", result.PredictedClass)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestImagePostgres_FindByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewImagePostgres(db)
	ctx := context.Background()

	t.Run("found", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM mango_images WHERE id = ?").
			WithArgs("test-id").
			WillReturnRows(imageRow("test-id"))

		img, err := repo.FindByID(ctx, "test-id")

		assert.NoError(t, err)
		assert.NotNil(t, img)
		assert.Equal(t, "test-id", img.ID)
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM mango_images WHERE id = ?").
			WithArgs("missing").
			WillReturnError(sql.ErrNoRows)

		img, err := repo.FindByID(ctx, "missing")

		assert.ErrorIs(t, err, sql.ErrNoRows)
		assert.Nil(t, img)
	})
}

func TestImagePostgres_List(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewImagePostgres(db)
	ctx := context.Background()

	t.Run("unfiltered", func(t *testing.T) {
		mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM mango_images").
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

		mock.ExpectQuery("SELECT (.+) FROM mango_images ORDER BY uploaded_at").
			WithArgs(10, 0).
			WillReturnRows(imageRow("test-id"))

		res, err := repo.List(ctx, repository.ImageFilter{}, repository.PageQuery{Limit: 10, Offset: 0})

		assert.NoError(t, err)
		assert.Equal(t, 1, res.Total)
		assert.Len(t, res.Items, 1)
	})

	t.Run("filtered by disease and verified", func(t *testing.T) {
		verified := true

		mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM mango_images WHERE").
			WithArgs("%Anthracnose%", true).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

		mock.ExpectQuery("SELECT (.+) FROM mango_images WHERE (.+) ORDER BY uploaded_at").
			WithArgs("%Anthracnose%", true, 10, 0).
			WillReturnRows(imageRow("test-id"))

		res, err := repo.List(ctx,
			repository.ImageFilter{Disease: "Anthracnose", Verified: &verified},
			repository.PageQuery{Limit: 10, Offset: 0})

		assert.NoError(t, err)
		assert.Equal(t, 1, res.Total)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestImagePostgres_Update(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewImagePostgres(db)
	ctx := context.Background()

	t.Run("partial update", func(t *testing.T) {
		verified := true
		notes := "checked in the field"

		mock.ExpectQuery("UPDATE mango_images SET").
			WithArgs(verified, notes, "test-id").
			WillReturnRows(imageRow("test-id"))

		img, err := repo.Update(ctx, "test-id", repository.ImageUpdate{IsVerified: &verified, Notes: &notes})

		assert.NoError(t, err)
		assert.NotNil(t, img)
	})

	t.Run("empty update returns current row", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM mango_images WHERE id = ?").
			WithArgs("test-id").
			WillReturnRows(imageRow("test-id"))

		img, err := repo.Update(ctx, "test-id", repository.ImageUpdate{})

		assert.NoError(t, err)
		assert.Equal(t, "test-id", img.ID)
	})
}

func TestImagePostgres_BulkUpdate(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewImagePostgres(db)
	ctx := context.Background()

	verified := true
	ids := []string{"id-1", "id-2"}

	mock.ExpectExec("UPDATE mango_images SET").
		WithArgs(verified, "id-1", "id-2").
		WillReturnResult(sqlmock.NewResult(0, 2))

	n, err := repo.BulkUpdate(ctx, ids, repository.ImageUpdate{IsVerified: &verified})

	assert.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestImagePostgres_Delete(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewImagePostgres(db)
	ctx := context.Background()

	mock.ExpectExec("DELETE FROM mango_images WHERE id = ?").
		WithArgs("test-id").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = repo.Delete(ctx, "test-id")

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestImagePostgres_ExistsByOriginalFilename(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewImagePostgres(db)
	ctx := context.Background()

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("leaf.jpg").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	exists, err := repo.ExistsByOriginalFilename(ctx, "leaf.jpg")

	assert.NoError(t, err)
	assert.True(t, exists)
}

func TestImagePostgres_Stats(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewImagePostgres(db)
	ctx := context.Background()

	mock.ExpectQuery("SELECT").
		WillReturnRows(sqlmock.NewRows([]string{"total", "healthy", "verified", "leaf", "fruit", "week", "month"}).
			AddRow(10, 4, 3, 7, 3, 2, 6))

	mock.ExpectQuery("SELECT predicted_class, COUNT\\(\\*\\)").
		WillReturnRows(sqlmock.NewRows([]string{"predicted_class", "count"}).
			AddRow("Anthracnose", 5).
			AddRow("Healthy", 4))

	s, err := repo.Stats(ctx)

	assert.NoError(t, err)
	assert.Equal(t, 10, s.Total)
	assert.Equal(t, 4, s.Healthy)
	assert.Equal(t, 7, s.Leaf)
	assert.Equal(t, 5, s.DiseasesBreakdown["Anthracnose"])
}

func TestImagePostgres_CreatePredictionLog(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewImagePostgres(db)
	ctx := context.Background()

	l := &model.PredictionLog{
		ID:           "log-id",
		ImageID:      "img-id",
		ClientIP:     "10.0.0.1",
		UserAgent:    "test-agent",
		ResponseTime: 0.42,
		CreatedAt:    time.Now(),
	}

	mock.ExpectExec("INSERT INTO prediction_logs").
		WithArgs(l.ID, l.ImageID, l.ClientIP, l.UserAgent, l.ResponseTime, l.CreatedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = repo.CreatePredictionLog(ctx, l)

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

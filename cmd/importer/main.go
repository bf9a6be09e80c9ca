package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"log"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/joho/godotenv/autoload"

	"mangoapi/internal/classifier"
	"mangoapi/internal/config"
	"mangoapi/internal/database"
	"mangoapi/internal/database/migration"
	"mangoapi/internal/model"
	"mangoapi/internal/repository"
	"mangoapi/internal/repository/postgres"
	"mangoapi/internal/service"
	"mangoapi/internal/storage"
)

var importExts = map[string]struct{}{
	".jpg": {}, ".jpeg": {}, ".png": {}, ".webp": {},
}

// The importer walks a directory of per-class folders, uploads every image to
// object storage and inserts a verified record. Files already imported, by
// original filename, are skipped so reruns are safe.
func main() {
	sourceDir := flag.String("source-dir", "datasets/split-mango/train", "source directory containing class folders")
	limit := flag.Int("limit", 0, "limit number of images per class (0 = no limit)")
	flag.Parse()

	if err := run(*sourceDir, *limit); err != nil {
		log.Fatal(err)
	}
}

func run(sourceDir string, limit int) error {
	cfg := config.Load()

	loc, err := time.LoadLocation(os.Getenv("TZ"))
	if err != nil {
		loc = time.UTC
	}

	ctx := context.Background()

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	if err := migration.EnsureMigrated(ctx, db, loc, cfg.Database.Host); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	userRepo := postgres.NewUserPostgres(db)
	imageRepo := postgres.NewImagePostgres(db)

	admin, created, err := service.EnsureSuperuser(ctx, userRepo, cfg.Auth)
	if err != nil {
		return fmt.Errorf("failed to provision superuser: %w", err)
	}
	if created {
		log.Printf("superuser %q created", cfg.Auth.AdminUsername)
	}

	objStore, err := storage.NewMinIO(cfg.MinIO)
	if err != nil {
		return fmt.Errorf("failed to initialize object storage: %w", err)
	}

	entries, err := os.ReadDir(sourceDir)
	if err != nil {
		return fmt.Errorf("failed to read source directory: %w", err)
	}

	totalImported := 0
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		className := entry.Name()
		log.Printf("processing class: %s", className)

		n, err := importClass(ctx, imageRepo, objStore, admin, filepath.Join(sourceDir, className), className, limit, &totalImported)
		if err != nil {
			return fmt.Errorf("failed to import class %s: %w", className, err)
		}
		log.Printf("completed %s: %d images imported", className, n)
	}

	log.Printf("successfully imported %d images total", totalImported)
	return nil
}

func importClass(
	ctx context.Context,
	images repository.ImageRepository,
	objStore storage.Storage,
	admin *model.User,
	classDir, className string,
	limit int,
	total *int,
) (int, error) {
	files, err := os.ReadDir(classDir)
	if err != nil {
		return 0, err
	}

	imported := 0
	for _, f := range files {
		if f.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(f.Name()))
		if _, ok := importExts[ext]; !ok {
			continue
		}
		if limit > 0 && imported >= limit {
			break
		}

		exists, err := images.ExistsByOriginalFilename(ctx, f.Name())
		if err != nil {
			return imported, err
		}
		if exists {
			continue
		}

		if err := importFile(ctx, images, objStore, admin, classDir, className, f.Name(), *total); err != nil {
			log.Printf("error processing %s: %v", f.Name(), err)
			continue
		}

		imported++
		*total++
		if imported%10 == 0 {
			log.Printf("  imported %d images for %s", imported, className)
		}
	}
	return imported, nil
}

func importFile(
	ctx context.Context,
	images repository.ImageRepository,
	objStore storage.Storage,
	admin *model.User,
	classDir, className, filename string,
	seq int,
) error {
	data, err := os.ReadFile(filepath.Join(classDir, filename))
	if err != nil {
		return err
	}

	ext := strings.ToLower(filepath.Ext(filename))
	base := strings.TrimSuffix(filename, filepath.Ext(filename))
	key := fmt.Sprintf("mango_images/%s_%s_%d%s", className, base, seq, ext)

	contentType := mime.TypeByExtension(ext)
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	imageSize := ""
	if cfg, _, err := image.DecodeConfig(bytes.NewReader(data)); err == nil {
		imageSize = fmt.Sprintf("%dx%d", cfg.Width, cfg.Height)
	}

	if _, err := objStore.Put(ctx, key, bytes.NewReader(data), storage.PutObjectOptions{
		Size:        int64(len(data)),
		ContentType: contentType,
	}); err != nil {
		return err
	}

	now := time.Now().UTC()
	_, err = images.Create(ctx, &model.MangoImage{
		ID:                    uuid.New().String(),
		UserID:                &admin.ID,
		StoragePath:           key,
		OriginalFilename:      filename,
		ContentType:           contentType,
		Size:                  int64(len(data)),
		PredictedClass:        className,
		DiseaseClassification: className,
		DiseaseType:           string(classifier.DiseaseTypeFor(className)),
		IsVerified:            true,
		VerifiedBy:            &admin.ID,
		VerifiedDate:          &now,
		ImageSize:             imageSize,
		ClientIP:              "127.0.0.1",
		UploadedAt:            now,
	})
	if err != nil {
		// Storage and DB must not drift apart on failed inserts.
		_ = objStore.Delete(ctx, key)
		return err
	}
	return nil
}

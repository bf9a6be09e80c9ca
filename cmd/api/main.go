package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"mangoapi/internal/classifier"
	"mangoapi/internal/config"
	"mangoapi/internal/database"
	"mangoapi/internal/database/migration"
	handlers "mangoapi/internal/http/handler"
	"mangoapi/internal/http/middleware"
	"mangoapi/internal/otel"
	"mangoapi/internal/repository/postgres"
	"mangoapi/internal/service"
	"mangoapi/internal/storage"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

// run wires the whole service together. The ordering matters: migrations and
// the superuser seed must succeed before the server starts listening.
func run() error {
	// Load configuration from environment variables (.env auto-loaded if present)
	cfg := config.Load()

	loc, err := time.LoadLocation(os.Getenv("TZ"))
	if err != nil {
		loc = time.UTC
	}

	ctx := context.Background()

	shutdownTracing, err := otel.Init(ctx, loc)
	if err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			log.Printf("failed to flush traces: %v", err)
		}
	}()

	// Initialize PostgreSQL connection (with pooling via database/sql)
	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	// Schema must be in place before the server accepts traffic.
	if err := migration.EnsureMigrated(ctx, db, loc, cfg.Database.Host); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	userRepo := postgres.NewUserPostgres(db)
	imageRepo := postgres.NewImagePostgres(db)
	confirmationRepo := postgres.NewConfirmationPostgres(db)
	notificationRepo := postgres.NewNotificationPostgres(db)
	mlModelRepo := postgres.NewMLModelPostgres(db)

	// Provision the bootstrap superuser; a broken admin account is a
	// deployment error, not something to discover later.
	if _, created, err := service.EnsureSuperuser(ctx, userRepo, cfg.Auth); err != nil {
		return fmt.Errorf("failed to provision superuser: %w", err)
	} else if created {
		log.Printf("superuser %q created", cfg.Auth.AdminUsername)
	}

	// Register the served model so the metadata endpoint has a record to
	// report from the first boot on.
	if m, created, err := service.EnsureActiveModel(ctx, mlModelRepo, cfg.Classifier); err != nil {
		return fmt.Errorf("failed to register active model: %w", err)
	} else if created {
		log.Printf("active model %q registered", m.Name)
	}

	// Initialize reusable S3-compatible object storage client (MinIO-supported)
	objStore, err := storage.NewMinIO(cfg.MinIO)
	if err != nil {
		return fmt.Errorf("failed to initialize object storage: %w", err)
	}

	cls, err := classifier.NewHTTP(cfg.Classifier)
	if err != nil {
		return fmt.Errorf("failed to initialize classifier client: %w", err)
	}

	authSvc := service.NewAuthService(userRepo, cfg.Auth)
	predSvc := service.NewPredictionService(cls, objStore, imageRepo, userRepo, notificationRepo, mlModelRepo)
	imgSvc := service.NewImageService(objStore, imageRepo, confirmationRepo)
	notifSvc := service.NewNotificationService(notificationRepo, imageRepo, userRepo)
	confSvc := service.NewConfirmationService(confirmationRepo, imageRepo)

	requestTimeout := time.Duration(cfg.RequestTimeoutSec) * time.Second
	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler(),
		ReadTimeout:  requestTimeout,
		WriteTimeout: requestTimeout,
		IdleTimeout:  requestTimeout,
		BodyLimit:    12 << 20, // predict uploads go up to 10MB plus form overhead
	})

	// Register global middleware
	app.Use(otelfiber.Middleware())
	// RequestID middleware adds/propagates X-Request-ID and stores it in context
	app.Use(middleware.RequestID())
	// JSON Logger middleware for structured request logs
	app.Use(middleware.Logger(loc))

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	promMW, err := middleware.NewPrometheusMiddleware(reg)
	if err != nil {
		return fmt.Errorf("failed to initialize metrics: %w", err)
	}
	app.Use(promMW.Handler())
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	// Register HTTP routes with injected services
	handlers.RegisterRoutes(app, db, objStore, authSvc, predSvc, imgSvc, notifSvc, confSvc)

	return app.Listen(":" + cfg.Port)
}

package handler

import (
	"database/sql"

	"github.com/gofiber/fiber/v2"

	"mangoapi/internal/http/middleware"
	"mangoapi/internal/service"
	"mangoapi/internal/storage"
)

// RegisterRoutes attaches HTTP routes to the provided Fiber app.
// Handlers stay thin; business rules live in the service layer.
func RegisterRoutes(
	app *fiber.App,
	db *sql.DB,
	store storage.Storage,
	authSvc service.AuthService,
	predSvc service.PredictionService,
	imgSvc service.ImageService,
	notifSvc service.NotificationService,
	confSvc service.ConfirmationService,
) {
	// Health endpoints: "/" and "/health" check DB connectivity,
	// "/healthz" stays a plain liveness probe.
	app.Get("/", HealthCheck(db))
	app.Get("/health", HealthCheck(db))
	app.Get("/healthz", LivenessProbe())

	api := app.Group("/api")

	// Mobile auth
	api.Post("/register", Register(authSvc))
	api.Post("/login", Login(authSvc))
	api.Post("/logout", Logout())

	// Admin auth
	api.Post("/auth/login", AdminLogin(authSvc))
	api.Post("/auth/refresh", RefreshToken(authSvc))

	// Prediction
	api.Post("/predict", Predict(predSvc))
	api.Get("/test-model", TestModel(predSvc))

	// Public confirmation submission, one per image
	api.Post("/confirmations", CreateConfirmation(confSvc))

	// Stored media passthrough
	api.Get("/media/*", Media(store))

	// Staff-only dashboard
	staff := api.Group("/", middleware.RequireAuth(authSvc), middleware.RequireStaff())

	staff.Get("/disease-statistics", DiseaseStatistics(imgSvc))
	staff.Get("/classified-images", ListImages(imgSvc))
	staff.Post("/classified-images/bulk-update", BulkUpdateImages(imgSvc))
	staff.Get("/classified-images/:id", GetImage(imgSvc))
	staff.Put("/classified-images/:id", UpdateImage(imgSvc))
	staff.Delete("/classified-images/:id", DeleteImage(imgSvc))
	staff.Get("/classified-images/:id/prediction-details", ImageDetails(imgSvc))
	staff.Post("/upload-image", UploadImage(imgSvc))
	staff.Get("/export-dataset", ExportDataset(imgSvc))

	staff.Get("/notifications", ListNotifications(notifSvc))
	staff.Post("/notifications/mark-all-read", MarkAllNotificationsRead(notifSvc))
	staff.Post("/notifications/delete-selected", DeleteSelectedNotifications(notifSvc))
	staff.Get("/notifications/:id", GetNotification(notifSvc))
	staff.Post("/notifications/:id/mark-read", MarkNotificationRead(notifSvc))
	staff.Delete("/notifications/:id", DeleteNotification(notifSvc))

	staff.Get("/confirmations", ListConfirmations(confSvc))
	staff.Get("/confirmations/statistics", ConfirmationStatistics(confSvc))
}

package handler

import (
	"io"

	"github.com/gofiber/fiber/v2"

	"mangoapi/internal/classifier"
	"mangoapi/internal/service"
)

// Predict handles POST /api/predict. Multipart field "image" carries the
// photo, optional "detection_type" selects the leaf or fruit model.
func Predict(pred service.PredictionService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		fh, err := c.FormFile("image")
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "IMAGE_REQUIRED", "image file is required")
		}

		contentType := fh.Header.Get("Content-Type")
		if err := service.ValidatePredictUpload(fh.Filename, contentType, fh.Size); err != nil {
			return writeServiceError(c, err)
		}

		f, err := fh.Open()
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_OPEN_ERROR", "cannot open uploaded file")
		}
		defer f.Close()

		data, err := io.ReadAll(f)
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_READ_ERROR", "cannot read uploaded file")
		}

		res, err := pred.Predict(c.UserContext(), service.PredictInput{
			Filename:    fh.Filename,
			ContentType: contentType,
			Data:        data,
			Kind:        classifier.ParseKind(c.FormValue("detection_type")),
			ClientIP:    c.IP(),
			UserAgent:   c.Get(fiber.HeaderUserAgent),
		})
		if err != nil {
			return writeServiceError(c, err)
		}

		return writeSuccess(c, fiber.StatusOK, "Prediction completed", res)
	}
}

// TestModel handles GET /api/test-model.
func TestModel(pred service.PredictionService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		info, err := pred.ModelInfo(c.UserContext())
		if err != nil {
			return writeServiceError(c, err)
		}
		return writeSuccess(c, fiber.StatusOK, "Model is reachable", info)
	}
}

package handler

import (
	"io"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"mangoapi/internal/http/middleware"
	"mangoapi/internal/service"
)

func parseIntQuery(c *fiber.Ctx, name string, def int) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}

func actorID(c *fiber.Ctx) string {
	id, _ := c.Locals(middleware.UserIDLocalKey).(string)
	return id
}

// ListImages handles GET /api/classified-images.
func ListImages(images service.ImageService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		page, err := parseIntQuery(c, "page", 1)
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_PAGE", "invalid page")
		}
		pageSize, err := parseIntQuery(c, "page_size", 20)
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_PAGE_SIZE", "invalid page_size")
		}

		q := service.ImageListQuery{
			Page:        page,
			PageSize:    pageSize,
			Search:      c.Query("search"),
			Disease:     c.Query("disease"),
			DiseaseType: c.Query("disease_type"),
		}
		if raw := c.Query("verified"); raw != "" {
			v, err := strconv.ParseBool(raw)
			if err != nil {
				return writeError(c, fiber.StatusBadRequest, "INVALID_VERIFIED", "verified must be a boolean")
			}
			q.Verified = &v
		}

		res, err := images.List(c.UserContext(), q)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(res)
	}
}

// GetImage handles GET /api/classified-images/:id.
func GetImage(images service.ImageService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}

		img, err := images.Get(c.UserContext(), id)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(img)
	}
}

// UpdateImage handles PUT /api/classified-images/:id.
func UpdateImage(images service.ImageService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}

		var fields map[string]any
		if err := c.BodyParser(&fields); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}

		img, err := images.Update(c.UserContext(), id, fields, actorID(c))
		if err != nil {
			return writeServiceError(c, err)
		}
		return writeSuccess(c, fiber.StatusOK, "Image updated", img)
	}
}

// DeleteImage handles DELETE /api/classified-images/:id.
func DeleteImage(images service.ImageService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}

		if err := images.Delete(c.UserContext(), id); err != nil {
			return writeServiceError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

type bulkUpdateRequest struct {
	ImageIDs []string       `json:"image_ids"`
	Updates  map[string]any `json:"updates"`
}

// BulkUpdateImages handles POST /api/classified-images/bulk-update.
func BulkUpdateImages(images service.ImageService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in bulkUpdateRequest
		if err := c.BodyParser(&in); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}

		n, err := images.BulkUpdate(c.UserContext(), in.ImageIDs, in.Updates, actorID(c))
		if err != nil {
			return writeServiceError(c, err)
		}
		return writeSuccess(c, fiber.StatusOK, "Images updated", fiber.Map{"updated": n})
	}
}

// ImageDetails handles GET /api/classified-images/:id/prediction-details.
func ImageDetails(images service.ImageService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}

		d, err := images.Details(c.UserContext(), id)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(d)
	}
}

// UploadImage handles POST /api/upload-image: a plain upload with no
// prediction attached.
func UploadImage(images service.ImageService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		fh, err := c.FormFile("image")
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "IMAGE_REQUIRED", "image file is required")
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

		var userID *string
		if id := actorID(c); id != "" {
			userID = &id
		}

		img, err := images.Upload(c.UserContext(), fh.Filename, fh.Header.Get("Content-Type"), data, userID)
		if err != nil {
			return writeServiceError(c, err)
		}
		return writeSuccess(c, fiber.StatusCreated, "Image uploaded", img)
	}
}

// ExportDataset handles GET /api/export-dataset.
func ExportDataset(images service.ImageService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		items, err := images.Export(c.UserContext())
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(fiber.Map{"count": len(items), "images": items})
	}
}

// DiseaseStatistics handles GET /api/disease-statistics.
func DiseaseStatistics(images service.ImageService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		stats, err := images.Stats(c.UserContext())
		if err != nil {
			return writeServiceError(c, err)
		}

		diseased := stats.Total - stats.Healthy
		return c.JSON(fiber.Map{
			"total_images":       stats.Total,
			"healthy":            stats.Healthy,
			"diseased":           diseased,
			"verified":           stats.Verified,
			"leaf":               stats.Leaf,
			"fruit":              stats.Fruit,
			"uploads_last_7d":    stats.RecentWeek,
			"uploads_last_30d":   stats.RecentMonth,
			"diseases_breakdown": stats.DiseasesBreakdown,
		})
	}
}

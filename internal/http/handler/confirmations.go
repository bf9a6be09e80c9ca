package handler

import (
	"github.com/gofiber/fiber/v2"

	"mangoapi/internal/service"
)

// CreateConfirmation handles POST /api/confirmations. The endpoint is
// public: anonymous feedback is allowed.
func CreateConfirmation(confirmations service.ConfirmationService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in service.ConfirmationInput
		if err := c.BodyParser(&in); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}
		in.ClientIP = c.IP()

		conf, err := confirmations.Create(c.UserContext(), in)
		if err != nil {
			return writeServiceError(c, err)
		}
		return writeSuccess(c, fiber.StatusCreated, "Confirmation recorded", conf)
	}
}

// ListConfirmations handles GET /api/confirmations.
func ListConfirmations(confirmations service.ConfirmationService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		page, err := parseIntQuery(c, "page", 1)
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_PAGE", "invalid page")
		}
		pageSize, err := parseIntQuery(c, "page_size", 20)
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_PAGE_SIZE", "invalid page_size")
		}

		res, err := confirmations.List(c.UserContext(), service.ConfirmationListQuery{
			Page:     page,
			PageSize: pageSize,
			Status:   c.Query("status", "all"),
			UserID:   c.Query("user_id"),
			Disease:  c.Query("disease"),
		})
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(res)
	}
}

// ConfirmationStatistics handles GET /api/confirmations/statistics.
func ConfirmationStatistics(confirmations service.ConfirmationService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		stats, err := confirmations.Statistics(c.UserContext())
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(stats)
	}
}

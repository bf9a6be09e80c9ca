package handler

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"mangoapi/internal/service"
)

// ListNotifications handles GET /api/notifications. The create_new query
// flag backfills notifications for images that never got one.
func ListNotifications(notifs service.NotificationService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		page, err := parseIntQuery(c, "page", 1)
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_PAGE", "invalid page")
		}
		pageSize, err := parseIntQuery(c, "page_size", 20)
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_PAGE_SIZE", "invalid page_size")
		}

		createNew := false
		if raw := c.Query("create_new"); raw != "" {
			createNew, err = strconv.ParseBool(raw)
			if err != nil {
				return writeError(c, fiber.StatusBadRequest, "INVALID_CREATE_NEW", "create_new must be a boolean")
			}
		}

		res, err := notifs.List(c.UserContext(), page, pageSize, createNew)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(res)
	}
}

// GetNotification handles GET /api/notifications/:id.
func GetNotification(notifs service.NotificationService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}

		n, err := notifs.Get(c.UserContext(), id)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(n)
	}
}

// MarkNotificationRead handles POST /api/notifications/:id/mark-read.
func MarkNotificationRead(notifs service.NotificationService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}

		if err := notifs.MarkRead(c.UserContext(), id); err != nil {
			return writeServiceError(c, err)
		}
		return writeSuccess(c, fiber.StatusOK, "Notification marked as read", nil)
	}
}

// MarkAllNotificationsRead handles POST /api/notifications/mark-all-read.
func MarkAllNotificationsRead(notifs service.NotificationService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		n, err := notifs.MarkAllRead(c.UserContext())
		if err != nil {
			return writeServiceError(c, err)
		}
		return writeSuccess(c, fiber.StatusOK, "All notifications marked as read", fiber.Map{"updated": n})
	}
}

// DeleteNotification handles DELETE /api/notifications/:id.
func DeleteNotification(notifs service.NotificationService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}

		if err := notifs.Delete(c.UserContext(), id); err != nil {
			return writeServiceError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

type deleteSelectedRequest struct {
	NotificationIDs []string `json:"notification_ids"`
}

// DeleteSelectedNotifications handles POST /api/notifications/delete-selected.
func DeleteSelectedNotifications(notifs service.NotificationService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in deleteSelectedRequest
		if err := c.BodyParser(&in); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}

		titles, err := notifs.DeleteSelected(c.UserContext(), in.NotificationIDs)
		if err != nil {
			return writeServiceError(c, err)
		}
		return writeSuccess(c, fiber.StatusOK, "Notifications deleted", fiber.Map{
			"deleted": len(titles),
			"titles":  titles,
		})
	}
}

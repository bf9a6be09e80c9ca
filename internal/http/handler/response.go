package handler

import (
	"time"

	"github.com/gofiber/fiber/v2"
)

// successPayload is the envelope the mobile client and dashboard expect for
// domain endpoints.
type successPayload struct {
	Success   bool   `json:"success"`
	Message   string `json:"message,omitempty"`
	Data      any    `json:"data,omitempty"`
	Timestamp string `json:"timestamp"`
}

func writeSuccess(c *fiber.Ctx, status int, message string, data any) error {
	return c.Status(status).JSON(successPayload{
		Success:   true,
		Message:   message,
		Data:      data,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

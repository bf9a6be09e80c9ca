package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"mangoapi/internal/http/middleware"
	"mangoapi/internal/service"
)

// errorPayload defines the standardized error response body.
type errorPayload struct {
	RequestID string        `json:"request_id"`
	Error     errorEnvelope `json:"error"`
}

type errorEnvelope struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// requestIDFromCtx extracts request_id previously stored by middleware.RequestID.
func requestIDFromCtx(c *fiber.Ctx) string {
	if v := c.Locals(middleware.RequestIDLocalKey); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// writeError writes a standardized JSON error response without leaking internal errors.
//
// Parameters:
// - status: HTTP status code to return
// - code: machine-readable short error code (e.g., "INVALID_ID", "NOT_FOUND", "INTERNAL_ERROR")
// - message: human-readable safe message (no internal details)
func writeError(c *fiber.Ctx, status int, code, message string) error {
	res := errorPayload{
		RequestID: requestIDFromCtx(c),
		Error: errorEnvelope{
			Code:    code,
			Message: message,
		},
	}
	return c.Status(status).JSON(res)
}

// writeServiceError maps service-level errors onto the standardized payload.
func writeServiceError(c *fiber.Ctx, err error) error {
	var ve *service.ValidationError
	if errors.As(err, &ve) {
		return writeError(c, fiber.StatusBadRequest, "VALIDATION_ERROR", ve.Message)
	}

	switch {
	case errors.Is(err, service.ErrIDRequired):
		return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "id is required")
	case errors.Is(err, service.ErrImageNotFound),
		errors.Is(err, service.ErrNotificationNotFound),
		errors.Is(err, service.ErrUserNotFound):
		return writeError(c, fiber.StatusNotFound, "NOT_FOUND", err.Error())
	case errors.Is(err, service.ErrEmailTaken):
		return writeError(c, fiber.StatusConflict, "EMAIL_TAKEN", "email is already registered")
	case errors.Is(err, service.ErrAlreadyConfirmed):
		return writeError(c, fiber.StatusConflict, "ALREADY_CONFIRMED", "image already has a confirmation")
	case errors.Is(err, service.ErrInvalidCredentials):
		return writeError(c, fiber.StatusUnauthorized, "INVALID_CREDENTIALS", "invalid credentials")
	case errors.Is(err, service.ErrAccountDisabled):
		return writeError(c, fiber.StatusForbidden, "ACCOUNT_DISABLED", "account is disabled")
	case errors.Is(err, service.ErrNotStaff):
		return writeError(c, fiber.StatusForbidden, "STAFF_REQUIRED", "staff access required")
	case errors.Is(err, service.ErrInvalidToken):
		return writeError(c, fiber.StatusUnauthorized, "INVALID_TOKEN", "invalid or expired token")
	case errors.Is(err, service.ErrImageRequired):
		return writeError(c, fiber.StatusBadRequest, "IMAGE_REQUIRED", "image file is required")
	case errors.Is(err, service.ErrImageTooLarge):
		return writeError(c, fiber.StatusRequestEntityTooLarge, "IMAGE_TOO_LARGE", "image exceeds the maximum allowed size")
	case errors.Is(err, service.ErrUnsupportedImage):
		return writeError(c, fiber.StatusBadRequest, "UNSUPPORTED_IMAGE", "unsupported image type, use JPEG, PNG or WebP")
	case errors.Is(err, service.ErrNoImageIDs),
		errors.Is(err, service.ErrNoUpdates),
		errors.Is(err, service.ErrUnknownField),
		errors.Is(err, service.ErrMissingImageIDs):
		return writeError(c, fiber.StatusBadRequest, "INVALID_REQUEST", err.Error())
	default:
		return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
	}
}

// ErrorHandler returns a Fiber global error handler that standardizes error responses.
func ErrorHandler() fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status := fiber.StatusInternalServerError
		message := ""
		if e, ok := err.(*fiber.Error); ok {
			status = e.Code
			message = e.Message
		}

		switch status {
		case fiber.StatusBadRequest:
			return writeError(c, status, "BAD_REQUEST", "bad request")
		case fiber.StatusUnauthorized:
			if message == "" {
				message = "unauthorized"
			}
			return writeError(c, status, "UNAUTHORIZED", message)
		case fiber.StatusForbidden:
			if message == "" {
				message = "forbidden"
			}
			return writeError(c, status, "FORBIDDEN", message)
		case fiber.StatusNotFound:
			return writeError(c, status, "NOT_FOUND", "resource not found")
		case fiber.StatusMethodNotAllowed:
			return writeError(c, status, "METHOD_NOT_ALLOWED", "method not allowed")
		default:
			return writeError(c, status, "INTERNAL_ERROR", "internal server error")
		}
	}
}

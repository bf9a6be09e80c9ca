package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"mangoapi/internal/service"
)

const (
	// ClaimsLocalKey is where validated token claims are stored in context locals.
	ClaimsLocalKey = "auth_claims"
	// UserIDLocalKey is where the authenticated user ID is stored in context locals.
	UserIDLocalKey = "user_id"
)

// RequireAuth validates the Bearer access token and stores its claims in
// context locals.
func RequireAuth(auth service.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := bearerToken(c)
		if token == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "missing bearer token")
		}

		claims, err := auth.ParseAccessToken(token)
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid or expired token")
		}

		c.Locals(ClaimsLocalKey, claims)
		c.Locals(UserIDLocalKey, claims.UserID)
		return c.Next()
	}
}

// RequireStaff runs after RequireAuth and rejects non-staff tokens.
func RequireStaff() fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, ok := c.Locals(ClaimsLocalKey).(*service.Claims)
		if !ok {
			return fiber.NewError(fiber.StatusUnauthorized, "missing bearer token")
		}
		if !claims.IsStaff {
			return fiber.NewError(fiber.StatusForbidden, "staff access required")
		}
		return c.Next()
	}
}

func bearerToken(c *fiber.Ctx) string {
	h := c.Get(fiber.HeaderAuthorization)
	if h == "" {
		return ""
	}
	parts := strings.SplitN(h, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

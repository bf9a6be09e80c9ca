package handler

import (
	"github.com/gofiber/fiber/v2"

	"mangoapi/internal/model"
	"mangoapi/internal/service"
)

// userPayload is the user representation returned by auth endpoints.
type userPayload struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	FullName  string `json:"fullName"`
	Address   string `json:"address,omitempty"`
	Phone     string `json:"phone,omitempty"`
	IsStaff   bool   `json:"is_staff"`
}

func toUserPayload(u *model.User) userPayload {
	return userPayload{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		FullName:  u.FullName(),
		Address:   u.Address,
		Phone:     u.Phone,
		IsStaff:   u.IsStaff,
	}
}

// Register handles POST /api/register.
func Register(auth service.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in service.RegisterInput
		if err := c.BodyParser(&in); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}

		res, err := auth.Register(c.UserContext(), in)
		if err != nil {
			return writeServiceError(c, err)
		}

		return writeSuccess(c, fiber.StatusCreated, "Registration successful", fiber.Map{
			"user":   toUserPayload(res.User),
			"tokens": res.Tokens,
		})
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login handles POST /api/login.
func Login(auth service.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in loginRequest
		if err := c.BodyParser(&in); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}

		res, err := auth.Login(c.UserContext(), in.Email, in.Password)
		if err != nil {
			return writeServiceError(c, err)
		}

		return writeSuccess(c, fiber.StatusOK, "Login successful", fiber.Map{
			"user":   toUserPayload(res.User),
			"tokens": res.Tokens,
		})
	}
}

// Logout handles POST /api/logout. Tokens are stateless, the client drops
// them; the endpoint exists for API compatibility.
func Logout() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return writeSuccess(c, fiber.StatusOK, "Logout successful", nil)
	}
}

// AdminLogin handles POST /api/auth/login for the dashboard.
func AdminLogin(auth service.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in loginRequest
		if err := c.BodyParser(&in); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}

		identifier := in.Username
		if identifier == "" {
			identifier = in.Email
		}

		res, err := auth.AdminLogin(c.UserContext(), identifier, in.Password)
		if err != nil {
			return writeServiceError(c, err)
		}

		return writeSuccess(c, fiber.StatusOK, "Login successful", fiber.Map{
			"user":   toUserPayload(res.User),
			"tokens": res.Tokens,
		})
	}
}

type refreshRequest struct {
	Refresh string `json:"refresh"`
}

// RefreshToken handles POST /api/auth/refresh.
func RefreshToken(auth service.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in refreshRequest
		if err := c.BodyParser(&in); err != nil || in.Refresh == "" {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "refresh token is required")
		}

		access, err := auth.Refresh(c.UserContext(), in.Refresh)
		if err != nil {
			return writeServiceError(c, err)
		}

		return writeSuccess(c, fiber.StatusOK, "Token refreshed", fiber.Map{"access": access})
	}
}

package middleware

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"

	"mangoapi/internal/service"
	svcMocks "mangoapi/internal/service/mocks"
)

func TestRequestID(t *testing.T) {
	app := fiber.New()
	app.Use(RequestID())

	app.Get("/test", func(c *fiber.Ctx) error {
		rid := c.Locals(RequestIDLocalKey)
		return c.SendString(rid.(string))
	})

	t.Run("should generate new request id if not present", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/test", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, fiber.StatusOK, resp.StatusCode)

		ridHeader := resp.Header.Get(RequestIDHeader)
		assert.NotEmpty(t, ridHeader)

		buf := new(bytes.Buffer)
		buf.ReadFrom(resp.Body)
		assert.Equal(t, ridHeader, buf.String())
	})

	t.Run("should preserve existing request id", func(t *testing.T) {
		existingID := "test-id-123"
		req := httptest.NewRequest("GET", "/test", nil)
		req.Header.Set(RequestIDHeader, existingID)

		resp, _ := app.Test(req)

		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
		assert.Equal(t, existingID, resp.Header.Get(RequestIDHeader))

		buf := new(bytes.Buffer)
		buf.ReadFrom(resp.Body)
		assert.Equal(t, existingID, buf.String())
	})
}

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	app := fiber.New()
	loc := time.UTC

	// Logger depends on RequestID for the request_id field
	app.Use(RequestID())
	app.Use(LoggerWithWriter(&buf, loc))

	app.Get("/test", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusAccepted)
	})

	req := httptest.NewRequest("GET", "/test", nil)
	resp, _ := app.Test(req)

	assert.Equal(t, fiber.StatusAccepted, resp.StatusCode)

	var logData map[string]any
	err := json.Unmarshal(buf.Bytes(), &logData)
	assert.NoError(t, err)

	assert.NotEmpty(t, logData["request_id"])
	assert.Equal(t, "GET", logData["method"])
	assert.Equal(t, "/test", logData["path"])
	assert.Equal(t, float64(fiber.StatusAccepted), logData["status"])
	assert.NotNil(t, logData["latency"])
	assert.NotEmpty(t, logData["ts"])
}

func TestRequireAuth(t *testing.T) {
	newApp := func(auth service.AuthService) *fiber.App {
		app := fiber.New()
		app.Get("/protected", RequireAuth(auth), func(c *fiber.Ctx) error {
			return c.SendString(c.Locals(UserIDLocalKey).(string))
		})
		return app
	}

	t.Run("valid token passes and exposes user id", func(t *testing.T) {
		auth := new(svcMocks.MockAuthService)
		auth.On("ParseAccessToken", "good-token").
			Return(&service.Claims{UserID: "user-id", IsStaff: false}, nil)
		app := newApp(auth)

		req := httptest.NewRequest("GET", "/protected", nil)
		req.Header.Set(fiber.HeaderAuthorization, "Bearer good-token")
		resp, _ := app.Test(req)

		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
		buf := new(bytes.Buffer)
		buf.ReadFrom(resp.Body)
		assert.Equal(t, "user-id", buf.String())
	})

	t.Run("missing header rejected", func(t *testing.T) {
		auth := new(svcMocks.MockAuthService)
		app := newApp(auth)

		req := httptest.NewRequest("GET", "/protected", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("bad token rejected", func(t *testing.T) {
		auth := new(svcMocks.MockAuthService)
		auth.On("ParseAccessToken", "bad-token").Return(nil, service.ErrInvalidToken)
		app := newApp(auth)

		req := httptest.NewRequest("GET", "/protected", nil)
		req.Header.Set(fiber.HeaderAuthorization, "Bearer bad-token")
		resp, _ := app.Test(req)

		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("non bearer scheme rejected", func(t *testing.T) {
		auth := new(svcMocks.MockAuthService)
		app := newApp(auth)

		req := httptest.NewRequest("GET", "/protected", nil)
		req.Header.Set(fiber.HeaderAuthorization, "Basic dXNlcjpwYXNz")
		resp, _ := app.Test(req)

		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	})
}

func TestRequireStaff(t *testing.T) {
	newApp := func(auth service.AuthService) *fiber.App {
		app := fiber.New()
		app.Get("/admin", RequireAuth(auth), RequireStaff(), func(c *fiber.Ctx) error {
			return c.SendString("ok")
		})
		return app
	}

	t.Run("staff token passes", func(t *testing.T) {
		auth := new(svcMocks.MockAuthService)
		auth.On("ParseAccessToken", "staff-token").
			Return(&service.Claims{UserID: "admin-id", IsStaff: true}, nil)
		app := newApp(auth)

		req := httptest.NewRequest("GET", "/admin", nil)
		req.Header.Set(fiber.HeaderAuthorization, "Bearer staff-token")
		resp, _ := app.Test(req)

		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	})

	t.Run("non staff token forbidden", func(t *testing.T) {
		auth := new(svcMocks.MockAuthService)
		auth.On("ParseAccessToken", "user-token").
			Return(&service.Claims{UserID: "user-id", IsStaff: false}, nil)
		app := newApp(auth)

		req := httptest.NewRequest("GET", "/admin", nil)
		req.Header.Set(fiber.HeaderAuthorization, "Bearer user-token")
		resp, _ := app.Test(req)

		assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	})
}

package handler

import (
	"path"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"mangoapi/internal/storage"
)

// mediaPrefix is the only storage namespace the media endpoint may serve.
const mediaPrefix = "mango_images/"

// Media handles GET /api/media/*: it streams the stored object. Keys are
// cleaned and must stay under the images prefix.
func Media(store storage.Storage) fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw := c.Params("*")
		key := path.Clean(strings.TrimPrefix(raw, "/"))
		if key == "." || strings.HasPrefix(key, "..") {
			return writeError(c, fiber.StatusBadRequest, "INVALID_KEY", "invalid media key")
		}
		if !strings.HasPrefix(key, mediaPrefix) {
			key = mediaPrefix + key
		}

		obj, info, err := store.Get(c.UserContext(), key)
		if err != nil {
			return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "media not found")
		}

		if info.ContentType != "" {
			c.Set(fiber.HeaderContentType, info.ContentType)
		}
		if info.Size > 0 {
			c.Set(fiber.HeaderContentLength, strconv.FormatInt(info.Size, 10))
		}
		c.Set(fiber.HeaderAccessControlAllowOrigin, "*")
		c.Set(fiber.HeaderAccessControlAllowMethods, "GET")

		// The stream is closed by the server once the body is written.
		if info.Size > 0 {
			return c.Status(fiber.StatusOK).SendStream(obj, int(info.Size))
		}
		return c.Status(fiber.StatusOK).SendStream(obj)
	}
}

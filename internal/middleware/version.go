package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/localnerve/recordsdb/internal/types"
)

// CurrentVersion is the API version served when a request names none.
const CurrentVersion = "1.0.0"

// VersionMiddleware parses the X-Api-Version header and stores it in context.
// Only major version 1 is served.
func VersionMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		version := c.Get("X-Api-Version", CurrentVersion)

		// Support version aliases
		switch version {
		case "1", "1.0":
			version = CurrentVersion
		}
		if !strings.HasPrefix(version, "1.") {
			return &types.CustomError{
				Code:    fiber.StatusBadRequest,
				Message: "Unsupported API version " + version,
				Type:    "version",
			}
		}

		c.Locals("apiVersion", version)
		c.Set("X-Api-Version", version)
		return c.Next()
	}
}

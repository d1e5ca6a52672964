package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// CachingMiddleware sets Cache-Control headers on GET responses based on endpoint.
// Handlers that set their own header win.
func CachingMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := c.Next()

		if c.Method() != fiber.MethodGet {
			return err
		}
		if existing := c.GetRespHeader(fiber.HeaderCacheControl); existing != "" {
			return err
		}

		path := c.Path()
		var ttl string

		switch {
		case path == "/v1/health" || path == "/v1/ready" || path == "/metrics":
			ttl = "no-cache"

		case strings.HasPrefix(path, "/v1/meetups/bbox"), strings.HasPrefix(path, "/v1/meetups/nearby"):
			ttl = "public, max-age=5" // map views poll; a few seconds of staleness is fine

		case strings.HasSuffix(path, "/pois"):
			ttl = "private, max-age=0" // the server-side cache decides freshness

		case strings.HasPrefix(path, "/v1/members/"):
			ttl = "public, max-age=300"

		case strings.HasPrefix(path, "/v1/"):
			ttl = "no-cache" // meetup state changes with every join
		}

		if ttl != "" {
			c.Set(fiber.HeaderCacheControl, ttl)
		}

		return err
	}
}

package http

import (
	"context"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/meetpoint/meetpoint/internal/pkg/logging"
)

type ctxKey string

const loggerKey ctxKey = "logger"

// RequestIDLogMiddleware copies the Fiber request ID into the user context,
// where the slog handler picks it up, and stores a logger carrying the
// request method and path next to it.
func RequestIDLogMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		rid, ok := c.Locals("requestid").(string)
		if !ok || rid == "" {
			return c.Next()
		}

		ctx := logging.WithRequestID(c.UserContext(), rid)
		ctx = context.WithValue(ctx, loggerKey, slog.Default().With("method", c.Method(), "path", c.Path()))
		c.SetUserContext(ctx)

		return c.Next()
	}
}

// LoggerFromCtx extracts the per-request slog.Logger from a context.
// Falls back to the default logger if none is set.
func LoggerFromCtx(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey).(*slog.Logger); ok {
		return l
	}
	return slog.Default()
}

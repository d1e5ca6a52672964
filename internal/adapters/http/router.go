package http

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/fiber/v2/middleware/timeout"
	"github.com/gofiber/websocket/v2"

	"github.com/meetpoint/meetpoint/internal/pkg/metrics"
)

const requestTimeout = 15 * time.Second

// isStream reports whether the request is a long-lived push stream.
func isStream(c *fiber.Ctx) bool {
	return strings.HasSuffix(c.Path(), "/stream") || strings.HasPrefix(c.Path(), "/ws/")
}

// SetupRoutes registers all REST, GraphQL, SSE and WebSocket routes.
func SetupRoutes(app *fiber.App, deps *Dependencies) {
	// Prometheus metrics
	app.Use(metrics.Middleware())
	app.Get("/metrics", metrics.Handler())

	// Response compression (gzip); streams must not be buffered
	app.Use(compress.New(compress.Config{
		Next:  isStream,
		Level: compress.LevelBestSpeed,
	}))

	// Request ID
	app.Use(requestid.New())

	// Propagate request ID into slog context
	app.Use(RequestIDLogMiddleware())

	// Access logs (structured HTTP request logging)
	app.Use(AccessLogMiddleware())

	// Rate limiting: 120 requests per minute per IP
	app.Use(limiter.New(limiter.Config{
		Next:       isStream,
		Max:        120,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return newError(c, fiber.StatusTooManyRequests, "rate_limited", "too many requests, please try again later")
		},
	}))

	// Security headers + API version
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Set("X-API-Version", "1.0.0")
		return c.Next()
	})

	// ETag for conditional caching
	app.Use(ETagMiddleware())

	// Default Cache-Control headers
	app.Use(CachingMiddleware())

	// Health & readiness (no timeout, fast internal checks)
	app.Get("/v1/health", HealthHandler(deps))
	app.Get("/v1/ready", ReadyHandler(deps))

	withTimeout := func(h fiber.Handler) fiber.Handler {
		return timeout.NewWithContext(h, requestTimeout)
	}

	v1 := app.Group("/v1")
	v1.Post("/members", withTimeout(CreateMemberHandler(deps)))
	v1.Get("/members/:id", withTimeout(GetMemberHandler(deps)))

	v1.Post("/meetups", withTimeout(CreateMeetupHandler(deps)))
	v1.Get("/meetups/bbox", withTimeout(MeetupsInBoundsHandler(deps)))
	v1.Get("/meetups/nearby", withTimeout(NearbyMeetupsHandler(deps)))
	v1.Get("/meetups/:id", withTimeout(GetMeetupHandler(deps)))
	v1.Get("/meetups/:id/participants", withTimeout(ParticipantsHandler(deps)))

	// Membership
	v1.Post("/meetups/:id/join", withTimeout(JoinHandler(deps)))
	v1.Delete("/meetups/:id/leave", withTimeout(LeaveHandler(deps)))

	// Host actions
	v1.Post("/meetups/:id/confirm-poi", withTimeout(ConfirmPlaceHandler(deps)))
	v1.Post("/meetups/:id/finish", withTimeout(FinishHandler(deps)))
	v1.Post("/meetups/:id/cancel", withTimeout(CancelHandler(deps)))

	// Places around the midpoint
	v1.Get("/meetups/:id/pois", withTimeout(PlacesHandler(deps)))

	// Server-Sent Events (no timeout, the stream is long-lived)
	v1.Get("/meetups/:id/stream", StreamHandler(deps))

	// GraphQL
	app.Post("/graphql", withTimeout(GraphQLHandler(deps)))

	// API documentation (Swagger UI)
	SetupDocs(app)

	// WebSocket
	app.Get("/ws/meetups/:id", WebSocketUpgrade(deps), websocket.New(WebSocketHandler(deps)))
}

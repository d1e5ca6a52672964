package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/meetpoint/meetpoint/internal/adapters/http"
	"github.com/meetpoint/meetpoint/internal/adapters/kakao"
	natsadapter "github.com/meetpoint/meetpoint/internal/adapters/nats"
	"github.com/meetpoint/meetpoint/internal/adapters/postgres"
	temporaladapter "github.com/meetpoint/meetpoint/internal/adapters/temporal"
	"github.com/meetpoint/meetpoint/internal/adapters/valkey"
	"github.com/meetpoint/meetpoint/internal/core/ports"
	"github.com/meetpoint/meetpoint/internal/core/usecases"
	"github.com/meetpoint/meetpoint/internal/pkg/config"
	"github.com/meetpoint/meetpoint/internal/pkg/logging"
	"github.com/meetpoint/meetpoint/internal/pkg/metrics"
	"github.com/meetpoint/meetpoint/internal/pkg/telemetry"
)

func main() {
	cfg, err := config.Load("meetpoint-api")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Telemetry
	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.OTLPEndpoint)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	// Database
	db, err := postgres.New(ctx, cfg.Database.DSN(), cfg.Database.MaxConns)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()
	go reportPoolStats(ctx, db)

	// Cache. The POI service needs one, so this is fatal.
	cache, err := valkey.New(cfg.Valkey.Addr)
	if err != nil {
		log.Fatalf("valkey: %v", err)
	}
	defer cache.Close()

	// NATS. The connection keeps retrying in the background, so a broker
	// that is down at start only costs undelivered notifications.
	nc, err := natsadapter.Connect(cfg.NATS.URL, cfg.Telemetry.ServiceName)
	if err != nil {
		log.Fatalf("nats: %v", err)
	}
	defer nc.Drain()
	publisher := natsadapter.NewPublisher(nc)
	subscriber := natsadapter.NewSubscriber(nc)

	// Lifecycle scheduler (optional)
	var scheduler ports.LifecycleScheduler
	if cfg.Temporal.Enabled {
		tc, err := temporaladapter.Dial(cfg.Temporal.HostPort, cfg.Temporal.Namespace)
		if err != nil {
			slog.Warn("temporal unavailable, meetups will not finish automatically", "error", err)
		} else {
			defer tc.Close()
			scheduler = temporaladapter.NewScheduler(tc, cfg.Temporal.TaskQueue)
		}
	}

	// Repos
	memberRepo := postgres.NewMemberRepo(db)
	meetupRepo := postgres.NewMeetupRepo(db)
	meetupStore := postgres.NewMeetupStore(db)

	// Use cases
	places := kakao.NewProvider(cfg.Kakao.APIKey, cfg.Kakao.BaseURL, cfg.Kakao.Timeout)
	poiCfg := usecases.POIConfig{
		CacheTTL:      cfg.POI.CacheTTL,
		MinRefresh:    cfg.POI.MinRefresh,
		MinMoveMeters: cfg.POI.MinMoveM,
		RadiusMeters:  cfg.POI.RadiusM,
	}

	deps := &http.Dependencies{
		Members:       usecases.NewMemberService(memberRepo),
		Meetups:       usecases.NewMeetupService(meetupRepo),
		Participation: usecases.NewParticipationService(memberRepo, meetupStore, publisher),
		Status:        usecases.NewStatusService(meetupStore, publisher, scheduler, cfg.Lifecycle.FinishAfter),
		POIs:          usecases.NewPOIService(meetupRepo, cache, places, publisher, poiCfg),
		Streams:       usecases.NewStreamService(meetupRepo, subscriber, cfg.Stream.Heartbeat),
		NATS:          nc,
		DB:            db,
		Cache:         cache,
		StreamContext: ctx,
	}

	// Fiber
	app := fiber.New(fiber.Config{
		ReadTimeout: time.Duration(cfg.Server.ReadTimeout) * time.Second,
		// WriteTimeout stays zero: SSE responses are open for the life of the stream.
		BodyLimit: 1024 * 1024, // 1 MB max request body
		AppName:   "MeetPoint API",
	})
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "http://localhost:3000, http://localhost:5173",
		AllowMethods: "GET,POST,DELETE,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept",
		MaxAge:       3600,
	}))

	http.SetupRoutes(app, deps)

	// Graceful shutdown
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("API server starting", "addr", addr)
		if err := app.Listen(addr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received, draining connections...", "signal", sig.String())

	// End open streams first so they do not hold the shutdown.
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	slog.Info("server stopped")
}

func reportPoolStats(ctx context.Context, db *postgres.DB) {
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			metrics.UpdateDBPoolMetrics(db.Pool.Stat())
		}
	}
}

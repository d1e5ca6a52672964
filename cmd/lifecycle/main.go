package main

import (
	"context"
	"log"
	"log/slog"

	"go.temporal.io/sdk/worker"

	natsadapter "github.com/meetpoint/meetpoint/internal/adapters/nats"
	"github.com/meetpoint/meetpoint/internal/adapters/postgres"
	temporaladapter "github.com/meetpoint/meetpoint/internal/adapters/temporal"
	"github.com/meetpoint/meetpoint/internal/core/usecases"
	"github.com/meetpoint/meetpoint/internal/pkg/config"
	"github.com/meetpoint/meetpoint/internal/pkg/logging"
	"github.com/meetpoint/meetpoint/internal/workflows"
)

func main() {
	cfg, err := config.Load("meetpoint-lifecycle")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	ctx := context.Background()
	db, err := postgres.New(ctx, cfg.Database.DSN(), cfg.Database.MaxConns)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	nc, err := natsadapter.Connect(cfg.NATS.URL, "meetpoint-lifecycle")
	if err != nil {
		log.Fatalf("nats: %v", err)
	}
	defer nc.Drain()

	c, err := temporaladapter.Dial(cfg.Temporal.HostPort, cfg.Temporal.Namespace)
	if err != nil {
		log.Fatalf("temporal client: %v", err)
	}
	defer c.Close()

	// The worker never reschedules, so it runs without a scheduler.
	status := usecases.NewStatusService(postgres.NewMeetupStore(db), natsadapter.NewPublisher(nc), nil, 0)

	w := worker.New(c, cfg.Temporal.TaskQueue, worker.Options{})
	w.RegisterWorkflow(workflows.MeetupFinishWorkflow)
	w.RegisterActivity(&workflows.LifecycleActivities{Status: status})

	slog.Info("lifecycle worker started", "task_queue", cfg.Temporal.TaskQueue)
	if err := w.Run(worker.InterruptCh()); err != nil {
		log.Fatalf("worker: %v", err)
	}
}

//go:build integration
// +build integration

package http_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	handler "github.com/meetpoint/meetpoint/internal/adapters/http"
	"github.com/meetpoint/meetpoint/internal/adapters/postgres"
	"github.com/meetpoint/meetpoint/internal/core/domain"
	"github.com/meetpoint/meetpoint/internal/core/usecases"
	"github.com/meetpoint/meetpoint/internal/pkg/config"
)

// setupIntegrationApp wires the router to a real database; events are
// swallowed by a mock publisher.
func setupIntegrationApp(t *testing.T) (*fiber.App, *postgres.DB) {
	t.Helper()
	cfg, err := config.Load("meetpoint-test")
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	db, err := postgres.New(ctx, cfg.Database.DSN(), 10)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	t.Cleanup(db.Close)

	members := postgres.NewMemberRepo(db)
	meetups := postgres.NewMeetupRepo(db)
	store := postgres.NewMeetupStore(db)
	pub := &mockPublisher{}

	deps := &handler.Dependencies{
		Members:       usecases.NewMemberService(members),
		Meetups:       usecases.NewMeetupService(meetups),
		Participation: usecases.NewParticipationService(members, store, pub),
		Status:        usecases.NewStatusService(store, pub, nil, 0),
		DB:            db,
	}
	app := fiber.New()
	handler.SetupRoutes(app, deps)
	return app, db
}

func TestIntegration_JoinLeaveRoundTrip(t *testing.T) {
	app, _ := setupIntegrationApp(t)
	env := &testEnv{app: app}

	code, body := env.do(t, "POST", "/v1/members", map[string]string{"nickname": "integration"})
	if code != 201 {
		t.Fatalf("create member: %d %s", code, body)
	}
	member := decode[domain.Member](t, body)

	code, body = env.do(t, "POST", "/v1/meetups", map[string]any{
		"title": "integration", "capacity": 1, "lat": 37.5665, "lng": 126.978,
	})
	if code != 201 {
		t.Fatalf("create meetup: %d %s", code, body)
	}
	meetup := decode[domain.Meetup](t, body)

	code, body = env.do(t, "POST", fmt.Sprintf("/v1/meetups/%d/join", meetup.ID), map[string]any{
		"member_id": member.ID, "lat": 37.5665, "lng": 126.978,
	})
	if code != 200 {
		t.Fatalf("join: %d %s", code, body)
	}

	code, body = env.do(t, "GET", fmt.Sprintf("/v1/meetups/%d", meetup.ID), nil)
	got := decode[domain.Meetup](t, body)
	if code != 200 || got.LiveCount != 1 || got.Midpoint == nil {
		t.Fatalf("detail after join: %d %s", code, body)
	}

	if code, body := env.do(t, "DELETE", fmt.Sprintf("/v1/meetups/%d/leave", meetup.ID), map[string]any{"member_id": member.ID}); code != 200 {
		t.Fatalf("leave: %d %s", code, body)
	}

	_, body = env.do(t, "GET", fmt.Sprintf("/v1/meetups/%d", meetup.ID), nil)
	if got := decode[domain.Meetup](t, body); got.LiveCount != 0 || got.Midpoint != nil {
		t.Errorf("detail after leave: %s", body)
	}
}

func TestIntegration_Ready(t *testing.T) {
	app, _ := setupIntegrationApp(t)
	env := &testEnv{app: app}

	// NATS is not wired here, so readiness reports the database only.
	_, body := env.do(t, "GET", "/v1/ready", nil)
	checks := decode[map[string]any](t, body)["checks"].(map[string]any)
	if checks["database"] != "ok" {
		t.Errorf("expected database ok, got %v", checks["database"])
	}
}

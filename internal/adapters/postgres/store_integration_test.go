//go:build integration
// +build integration

package postgres_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/meetpoint/meetpoint/internal/adapters/postgres"
	"github.com/meetpoint/meetpoint/internal/core/domain"
	"github.com/meetpoint/meetpoint/internal/core/ports"
	"github.com/meetpoint/meetpoint/internal/core/usecases"
	"github.com/meetpoint/meetpoint/internal/pkg/config"
)

type nopPublisher struct{}

func (nopPublisher) PublishMidpoint(context.Context, domain.MidpointEvent) error             { return nil }
func (nopPublisher) PublishPlaces(context.Context, domain.PlacesEvent) error                 { return nil }
func (nopPublisher) PublishPlaceConfirmed(context.Context, domain.PlaceConfirmedEvent) error { return nil }
func (nopPublisher) PublishStatusChanged(context.Context, domain.StatusChangedEvent) error   { return nil }

var _ ports.EventPublisher = nopPublisher{}

func setupTestDB(t *testing.T) *postgres.DB {
	t.Helper()
	cfg, err := config.Load("meetpoint-test")
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	db, err := postgres.New(ctx, cfg.Database.DSN(), 20)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	t.Cleanup(db.Close)
	return db
}

func seedMembers(t *testing.T, repo *postgres.MemberRepo, n int) []int64 {
	t.Helper()
	ids := make([]int64, n)
	for i := range ids {
		m, err := repo.Create(context.Background(), "tester")
		if err != nil {
			t.Fatalf("seed member: %v", err)
		}
		ids[i] = m.ID
	}
	return ids
}

func TestMeetupStore_ConcurrentJoinsRespectCapacity(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	members := postgres.NewMemberRepo(db)
	meetups := postgres.NewMeetupRepo(db)
	svc := usecases.NewParticipationService(members, postgres.NewMeetupStore(db), nopPublisher{})

	m, err := meetups.Create(ctx, domain.NewMeetup{Title: "storm", Capacity: 3, Location: domain.GeoPoint{Lat: 37.5665, Lng: 126.978}})
	if err != nil {
		t.Fatal(err)
	}
	ids := seedMembers(t, members, 20)

	var ok, full int64
	var wg sync.WaitGroup
	for _, id := range ids {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			loc := domain.GeoPoint{Lat: 37.5665, Lng: 126.978}
			_, err := svc.Join(ctx, m.ID, id, &loc)
			switch {
			case err == nil:
				atomic.AddInt64(&ok, 1)
			case errors.Is(err, domain.ErrMeetupFull):
				atomic.AddInt64(&full, 1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(id)
	}
	wg.Wait()

	if ok != 3 || full != 17 {
		t.Errorf("expected 3 joins and 17 full, got %d and %d", ok, full)
	}

	var count, rows int
	if err := db.Pool.QueryRow(ctx, `SELECT current_count FROM meetups WHERE id = $1`, m.ID).Scan(&count); err != nil {
		t.Fatal(err)
	}
	if err := db.Pool.QueryRow(ctx, `SELECT count(*) FROM participations WHERE meetup_id = $1`, m.ID).Scan(&rows); err != nil {
		t.Fatal(err)
	}
	if count != rows || rows != 3 {
		t.Errorf("count %d rows %d", count, rows)
	}
}

func TestMeetupStore_DuplicateInsertMapsToAlreadyJoined(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	members := postgres.NewMemberRepo(db)
	store := postgres.NewMeetupStore(db)

	m, err := postgres.NewMeetupRepo(db).Create(ctx, domain.NewMeetup{Title: "dup", Capacity: 5, Location: domain.GeoPoint{Lat: 37.5, Lng: 127}})
	if err != nil {
		t.Fatal(err)
	}
	id := seedMembers(t, members, 1)[0]

	insert := func() error {
		return store.InMeetupTx(ctx, m.ID, func(ctx context.Context, tx ports.MeetupTx) error {
			return tx.InsertParticipation(ctx, id, nil)
		})
	}
	if err := insert(); err != nil {
		t.Fatal(err)
	}
	if err := insert(); !errors.Is(err, domain.ErrAlreadyJoined) {
		t.Errorf("expected already joined, got %v", err)
	}
}

func TestMeetupStore_RollbackOnError(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	members := postgres.NewMemberRepo(db)
	meetups := postgres.NewMeetupRepo(db)
	store := postgres.NewMeetupStore(db)

	m, err := meetups.Create(ctx, domain.NewMeetup{Title: "rollback", Capacity: 5, Location: domain.GeoPoint{Lat: 37.5, Lng: 127}})
	if err != nil {
		t.Fatal(err)
	}
	id := seedMembers(t, members, 1)[0]

	boom := errors.New("boom")
	err = store.InMeetupTx(ctx, m.ID, func(ctx context.Context, tx ports.MeetupTx) error {
		if err := tx.InsertParticipation(ctx, id, nil); err != nil {
			return err
		}
		if err := tx.UpdateMembership(ctx, 1, &domain.GeoPoint{Lat: 1, Lng: 1}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}

	got, err := meetups.GetByID(ctx, m.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.LiveCount != 0 || got.Midpoint != nil {
		t.Errorf("partial state committed: %+v", got)
	}
	parts, err := meetups.ListParticipants(ctx, m.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(parts) != 0 {
		t.Errorf("participation committed: %+v", parts)
	}
}

func TestMeetupRepo_StatusRoundTrip(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	meetups := postgres.NewMeetupRepo(db)
	svc := usecases.NewStatusService(postgres.NewMeetupStore(db), nopPublisher{}, nil, 0)

	m, err := meetups.Create(ctx, domain.NewMeetup{Title: "status", Capacity: 2, Location: domain.GeoPoint{Lat: 37.5, Lng: 127}})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.ConfirmPlace(ctx, m.ID, domain.PlaceChoice{Name: "Cafe", Lat: 37.51, Lng: 127.01, Address: "Seoul"}); err != nil {
		t.Fatal(err)
	}

	got, err := meetups.GetByID(ctx, m.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != domain.StatusConfirmed || got.ConfirmedPlace == nil || got.ConfirmedPlace.Name != "Cafe" {
		t.Errorf("unexpected meetup after confirm: %+v", got)
	}
}

func TestMeetupRepo_GetByID_NotFound(t *testing.T) {
	db := setupTestDB(t)
	if _, err := postgres.NewMeetupRepo(db).GetByID(context.Background(), -1); !errors.Is(err, domain.ErrMeetupNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}

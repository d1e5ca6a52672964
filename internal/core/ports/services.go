package ports

import (
	"context"
	"errors"
	"time"

	"github.com/meetpoint/meetpoint/internal/core/domain"
)

// EventPublisher publishes meetup events to the per-meetup channels.
type EventPublisher interface {
	PublishMidpoint(ctx context.Context, ev domain.MidpointEvent) error
	PublishPlaces(ctx context.Context, ev domain.PlacesEvent) error
	PublishPlaceConfirmed(ctx context.Context, ev domain.PlaceConfirmedEvent) error
	PublishStatusChanged(ctx context.Context, ev domain.StatusChangedEvent) error
}

// Subscription delivers raw messages from both channels of one meetup.
// Close is safe to call more than once.
type Subscription interface {
	C() <-chan domain.BusMessage
	Close() error
}

// EventSubscriber opens per-meetup subscriptions.
type EventSubscriber interface {
	Subscribe(ctx context.Context, meetupID int64) (Subscription, error)
}

// ErrCacheMiss is returned by CacheService.Get when the key is absent.
var ErrCacheMiss = errors.New("cache miss")

// CacheService is a key-value store with optional expiry. ttl <= 0 means no expiry.
type CacheService interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// PlaceProvider searches places around a point.
type PlaceProvider interface {
	Search(ctx context.Context, center domain.GeoPoint, radiusMeters int) ([]domain.Place, error)
}

// LifecycleScheduler schedules the automatic end of a confirmed meetup.
type LifecycleScheduler interface {
	ScheduleFinish(ctx context.Context, meetupID int64, at time.Time) error
}

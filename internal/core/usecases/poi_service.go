package usecases

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/meetpoint/meetpoint/internal/core/domain"
	"github.com/meetpoint/meetpoint/internal/core/ports"
	"github.com/meetpoint/meetpoint/internal/pkg/geospatial"
	"github.com/meetpoint/meetpoint/internal/pkg/metrics"
	"github.com/meetpoint/meetpoint/internal/pkg/telemetry"
)

// PlaceSource tells how a PlacesResult was produced.
type PlaceSource string

const (
	SourceCache     PlaceSource = "cache"
	SourceProvider  PlaceSource = "provider"
	SourceStale     PlaceSource = "stale"
	SourceThrottled PlaceSource = "throttled"
)

// POIConfig holds the cache and throttle knobs.
type POIConfig struct {
	CacheTTL      time.Duration
	MinRefresh    time.Duration
	MinMoveMeters float64
	RadiusMeters  int
}

// PlacesResult is the answer to a place request.
type PlacesResult struct {
	Places []domain.Place `json:"pois"`
	Source PlaceSource    `json:"source"`
	// Throttled is set when the provider was skipped by the refresh policy.
	// An empty Places with Throttled means "too soon", not "nothing found".
	Throttled    bool         `json:"throttled"`
	Notification Notification `json:"notification"`
}

// freshness is the per-meetup throttle state.
type freshness struct {
	Lat float64   `json:"lat"`
	Lng float64   `json:"lng"`
	At  time.Time `json:"at"`
	Key string    `json:"key"`
}

// POIService serves places around a meetup midpoint from cache or provider.
type POIService struct {
	meetups  ports.MeetupRepository
	cache    ports.CacheService
	provider ports.PlaceProvider
	events   ports.EventPublisher
	cfg      POIConfig
	now      func() time.Time
}

// NewPOIService creates a new POIService.
func NewPOIService(meetups ports.MeetupRepository, cache ports.CacheService, provider ports.PlaceProvider, events ports.EventPublisher, cfg POIConfig) *POIService {
	return &POIService{
		meetups:  meetups,
		cache:    cache,
		provider: provider,
		events:   events,
		cfg:      cfg,
		now:      time.Now,
	}
}

// WithClock replaces the time source.
func (s *POIService) WithClock(now func() time.Time) *POIService {
	s.now = now
	return s
}

// PlacesForMeetup looks up places around the meetup's stored midpoint.
func (s *POIService) PlacesForMeetup(ctx context.Context, meetupID int64, force bool) (*PlacesResult, error) {
	m, err := s.meetups.GetByID(ctx, meetupID)
	if err != nil {
		return nil, err
	}
	if m.Midpoint == nil {
		return nil, domain.ErrMidpointUndefined
	}
	return s.GetPlaces(ctx, meetupID, *m.Midpoint, force)
}

// GetPlaces returns places around at. Unless force is set, a cached entry
// wins and the provider is only called once the midpoint has moved far
// enough and enough time has passed since the previous call.
func (s *POIService) GetPlaces(ctx context.Context, meetupID int64, at domain.GeoPoint, force bool) (*PlacesResult, error) {
	ctx, span := tracer.Start(ctx, telemetry.SpanGetPlaces, trace.WithAttributes(
		attribute.Int64(telemetry.AttrMeetupID, meetupID),
		attribute.Bool("poi.force", force),
	))
	defer span.End()

	res, err := s.getPlaces(ctx, meetupID, at, force)
	if err == nil {
		metrics.POIRequests.WithLabelValues(string(res.Source)).Inc()
		span.SetAttributes(attribute.String(telemetry.AttrSource, string(res.Source)))
	}
	return res, err
}

func (s *POIService) getPlaces(ctx context.Context, meetupID int64, at domain.GeoPoint, force bool) (*PlacesResult, error) {
	now := s.now()
	key := s.cacheKey(meetupID, at)

	if !force {
		if places, ok := s.cached(ctx, key); ok {
			return &PlacesResult{Places: places, Source: SourceCache}, nil
		}
	}

	last, hasLast := s.lastCall(ctx, meetupID)
	if !force {
		moved := s.cfg.MinMoveMeters + 1
		elapsed := now.Sub(time.Unix(0, 0))
		if hasLast {
			moved = geospatial.Haversine(last.Lat, last.Lng, at.Lat, at.Lng)
			elapsed = now.Sub(last.At)
		}
		if moved < s.cfg.MinMoveMeters || elapsed < s.cfg.MinRefresh {
			return s.throttled(ctx, key, last, hasLast), nil
		}
	}

	start := time.Now()
	places, err := s.provider.Search(ctx, at, s.cfg.RadiusMeters)
	metrics.ProviderDuration.WithLabelValues("default").Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.ProviderErrors.WithLabelValues("default").Inc()
		slog.WarnContext(ctx, "place provider failed",
			"meetup_id", meetupID,
			"error", err,
		)
		if stale, ok := s.cached(ctx, key); ok {
			return &PlacesResult{Places: stale, Source: SourceStale}, nil
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrUpstreamUnavailable, err)
	}
	if places == nil {
		places = []domain.Place{}
	}

	s.store(ctx, meetupID, key, at, now, places)

	n := delivered(ctx, string(domain.EventPOIUpdated), meetupID, s.events.PublishPlaces(ctx, domain.PlacesEvent{
		Type:     domain.EventPOIUpdated,
		MeetupID: meetupID,
		Midpoint: &at,
		Places:   places,
		Ts:       now.UTC(),
	}))
	return &PlacesResult{Places: places, Source: SourceProvider, Notification: n}, nil
}

// throttled answers without calling the provider: the entry for this key,
// else the result of the last provider call, else nothing.
func (s *POIService) throttled(ctx context.Context, key string, last freshness, hasLast bool) *PlacesResult {
	if places, ok := s.cached(ctx, key); ok {
		return &PlacesResult{Places: places, Source: SourceCache, Throttled: true}
	}
	if hasLast && last.Key != "" && last.Key != key {
		if places, ok := s.cached(ctx, last.Key); ok {
			return &PlacesResult{Places: places, Source: SourceCache, Throttled: true}
		}
	}
	return &PlacesResult{Places: []domain.Place{}, Source: SourceThrottled, Throttled: true}
}

func (s *POIService) cacheKey(meetupID int64, at domain.GeoPoint) string {
	return fmt.Sprintf("poi:%d:%.4f:%.4f:%d:default", meetupID, at.Lat, at.Lng, s.cfg.RadiusMeters)
}

func freshnessKey(meetupID int64) string {
	return "poi:freshness:" + strconv.FormatInt(meetupID, 10)
}

// cached treats any cache error as a miss; the cache is disposable.
func (s *POIService) cached(ctx context.Context, key string) ([]domain.Place, bool) {
	data, err := s.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, ports.ErrCacheMiss) {
			slog.DebugContext(ctx, "poi cache read failed", "key", key, "error", err)
		}
		return nil, false
	}
	var places []domain.Place
	if err := json.Unmarshal(data, &places); err != nil {
		return nil, false
	}
	return places, true
}

func (s *POIService) lastCall(ctx context.Context, meetupID int64) (freshness, bool) {
	data, err := s.cache.Get(ctx, freshnessKey(meetupID))
	if err != nil {
		return freshness{}, false
	}
	var f freshness
	if err := json.Unmarshal(data, &f); err != nil {
		return freshness{}, false
	}
	return f, true
}

func (s *POIService) store(ctx context.Context, meetupID int64, key string, at domain.GeoPoint, now time.Time, places []domain.Place) {
	if data, err := json.Marshal(places); err == nil {
		if err := s.cache.Set(ctx, key, data, s.cfg.CacheTTL); err != nil {
			slog.WarnContext(ctx, "poi cache write failed", "key", key, "error", err)
		}
	}
	state, _ := json.Marshal(freshness{Lat: at.Lat, Lng: at.Lng, At: now, Key: key})
	if err := s.cache.Set(ctx, freshnessKey(meetupID), state, 0); err != nil {
		slog.WarnContext(ctx, "poi freshness write failed", "meetup_id", meetupID, "error", err)
	}
}

package usecases

import (
	"context"
	"strings"

	"github.com/meetpoint/meetpoint/internal/core/domain"
	"github.com/meetpoint/meetpoint/internal/core/ports"
	"github.com/meetpoint/meetpoint/internal/pkg/geospatial"
)

const (
	defaultSearchLimit  = 100
	maxSearchLimit      = 200
	defaultNearbyRadius = 1000
	maxNearbyRadius     = 50_000
)

// MeetupService handles meetup creation and lookup.
type MeetupService struct {
	meetups ports.MeetupRepository
}

// NewMeetupService creates a new MeetupService.
func NewMeetupService(meetups ports.MeetupRepository) *MeetupService {
	return &MeetupService{meetups: meetups}
}

// Create validates and stores a new meetup in RECRUITING.
func (s *MeetupService) Create(ctx context.Context, m domain.NewMeetup) (*domain.Meetup, error) {
	m.Title = strings.TrimSpace(m.Title)
	if m.Title == "" {
		return nil, domain.Invalid("title must not be empty")
	}
	if len(m.Title) > 200 {
		return nil, domain.Invalid("title must be at most 200 characters")
	}
	if m.Capacity < 1 {
		return nil, domain.Invalid("capacity must be at least 1")
	}
	if err := m.Location.Validate(); err != nil {
		return nil, err
	}
	return s.meetups.Create(ctx, m)
}

// GetByID returns a single meetup.
func (s *MeetupService) GetByID(ctx context.Context, id int64) (*domain.Meetup, error) {
	return s.meetups.GetByID(ctx, id)
}

// InBounds returns meetups inside the box, newest first. Swapped corners
// are accepted.
func (s *MeetupService) InBounds(ctx context.Context, b domain.Bounds, limit int) ([]domain.Meetup, error) {
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	if limit > maxSearchLimit {
		limit = maxSearchLimit
	}
	var n domain.Bounds
	n.MinLat, n.MinLng, n.MaxLat, n.MaxLng = geospatial.NormalizeBounds(b.MinLat, b.MinLng, b.MaxLat, b.MaxLng)
	for _, p := range []domain.GeoPoint{{Lat: n.MinLat, Lng: n.MinLng}, {Lat: n.MaxLat, Lng: n.MaxLng}} {
		if err := p.Validate(); err != nil {
			return nil, err
		}
	}
	return s.meetups.FindInBounds(ctx, n, limit)
}

// Nearby returns meetups within radiusMeters of center, nearest first.
func (s *MeetupService) Nearby(ctx context.Context, center domain.GeoPoint, radiusMeters float64, limit int) ([]domain.Meetup, error) {
	if err := center.Validate(); err != nil {
		return nil, err
	}
	if radiusMeters <= 0 {
		radiusMeters = defaultNearbyRadius
	}
	if radiusMeters > maxNearbyRadius {
		radiusMeters = maxNearbyRadius
	}
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	if limit > maxSearchLimit {
		limit = maxSearchLimit
	}
	return s.meetups.FindNearby(ctx, center, radiusMeters, limit)
}

// Participants lists the members of a meetup with their coarsened
// locations.
func (s *MeetupService) Participants(ctx context.Context, meetupID int64) ([]domain.Participation, error) {
	if _, err := s.meetups.GetByID(ctx, meetupID); err != nil {
		return nil, err
	}
	return s.meetups.ListParticipants(ctx, meetupID)
}

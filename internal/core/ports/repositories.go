package ports

import (
	"context"

	"github.com/meetpoint/meetpoint/internal/core/domain"
)

// MemberRepository persists members.
type MemberRepository interface {
	Create(ctx context.Context, nickname string) (*domain.Member, error)
	GetByID(ctx context.Context, id int64) (*domain.Member, error)
}

// MeetupRepository persists meetups outside of a membership transaction.
type MeetupRepository interface {
	Create(ctx context.Context, m domain.NewMeetup) (*domain.Meetup, error)
	GetByID(ctx context.Context, id int64) (*domain.Meetup, error)
	// FindInBounds returns meetups inside b, newest first.
	FindInBounds(ctx context.Context, b domain.Bounds, limit int) ([]domain.Meetup, error)
	// FindNearby returns meetups within radiusMeters of p, nearest first,
	// with DistanceKm populated.
	FindNearby(ctx context.Context, p domain.GeoPoint, radiusMeters float64, limit int) ([]domain.Meetup, error)
	ListParticipants(ctx context.Context, meetupID int64) ([]domain.Participation, error)
}

// MeetupStore runs work against one meetup while holding its row lock.
type MeetupStore interface {
	// InMeetupTx locks the meetup row, runs fn and commits if fn returns nil.
	// Concurrent calls for the same meetup are serialized.
	InMeetupTx(ctx context.Context, meetupID int64, fn func(ctx context.Context, tx MeetupTx) error) error
}

// MeetupTx is the set of operations allowed while a meetup is locked.
type MeetupTx interface {
	// Meetup returns the locked row as read at lock time.
	Meetup() *domain.Meetup
	HasParticipation(ctx context.Context, memberID int64) (bool, error)
	// InsertParticipation returns domain.ErrAlreadyJoined on a duplicate.
	InsertParticipation(ctx context.Context, memberID int64, approx *domain.GeoPoint) error
	// DeleteParticipation reports whether a row was removed.
	DeleteParticipation(ctx context.Context, memberID int64) (bool, error)
	// ParticipantPoints returns the coarsened location of every participant that has one.
	ParticipantPoints(ctx context.Context) ([]domain.GeoPoint, error)
	UpdateMembership(ctx context.Context, liveCount int, midpoint *domain.GeoPoint) error
	UpdateStatus(ctx context.Context, status domain.Status, place *domain.ConfirmedPlace) error
}

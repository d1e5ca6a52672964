package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/meetpoint/meetpoint/internal/core/domain"
	"github.com/meetpoint/meetpoint/internal/core/ports"
)

// MeetupStore implements ports.MeetupStore. Each call runs in its own
// transaction holding a FOR UPDATE lock on the meetup row, so work on one
// meetup is serialized while other meetups proceed.
type MeetupStore struct {
	db *DB
}

// NewMeetupStore creates a new MeetupStore.
func NewMeetupStore(db *DB) *MeetupStore {
	return &MeetupStore{db: db}
}

// InMeetupTx locks the meetup, runs fn and commits. Any error rolls the
// whole transaction back.
func (s *MeetupStore) InMeetupTx(ctx context.Context, meetupID int64, fn func(ctx context.Context, tx ports.MeetupTx) error) error {
	return pgx.BeginFunc(ctx, s.db.Pool, func(tx pgx.Tx) error {
		m, err := scanMeetup(tx.QueryRow(ctx, `
			SELECT `+meetupColumns+`
			FROM meetups m
			WHERE m.id = $1
			FOR UPDATE
		`, meetupID))
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrMeetupNotFound
		}
		if err != nil {
			return fmt.Errorf("lock meetup %d: %w", meetupID, err)
		}
		return fn(ctx, &meetupTx{tx: tx, meetup: m})
	})
}

type meetupTx struct {
	tx     pgx.Tx
	meetup *domain.Meetup
}

func (t *meetupTx) Meetup() *domain.Meetup {
	m := *t.meetup
	return &m
}

func (t *meetupTx) HasParticipation(ctx context.Context, memberID int64) (bool, error) {
	var exists bool
	err := t.tx.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM participations WHERE meetup_id = $1 AND user_id = $2)
	`, t.meetup.ID, memberID).Scan(&exists)
	return exists, err
}

func (t *meetupTx) InsertParticipation(ctx context.Context, memberID int64, approx *domain.GeoPoint) error {
	var lat, lng *float64
	if approx != nil {
		lat, lng = &approx.Lat, &approx.Lng
	}
	_, err := t.tx.Exec(ctx, `
		INSERT INTO participations (user_id, meetup_id, approx_lat, approx_lng)
		VALUES ($1, $2, $3, $4)
	`, memberID, t.meetup.ID, lat, lng)
	switch pgCode(err) {
	case "":
	case codeUniqueViolation:
		return domain.ErrAlreadyJoined
	case codeForeignKeyViolation:
		return domain.ErrMemberNotFound
	}
	if err != nil {
		return fmt.Errorf("insert participation: %w", err)
	}
	return nil
}

func (t *meetupTx) DeleteParticipation(ctx context.Context, memberID int64) (bool, error) {
	tag, err := t.tx.Exec(ctx, `
		DELETE FROM participations WHERE meetup_id = $1 AND user_id = $2
	`, t.meetup.ID, memberID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (t *meetupTx) ParticipantPoints(ctx context.Context) ([]domain.GeoPoint, error) {
	rows, err := t.tx.Query(ctx, `
		SELECT approx_lat, approx_lng
		FROM participations
		WHERE meetup_id = $1 AND approx_lat IS NOT NULL AND approx_lng IS NOT NULL
	`, t.meetup.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.GeoPoint
	for rows.Next() {
		var p domain.GeoPoint
		if err := rows.Scan(&p.Lat, &p.Lng); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (t *meetupTx) UpdateMembership(ctx context.Context, liveCount int, midpoint *domain.GeoPoint) error {
	var lat, lng *float64
	if midpoint != nil {
		lat, lng = &midpoint.Lat, &midpoint.Lng
	}
	// ST_MakePoint is strict, so a NULL pair clears the midpoint.
	_, err := t.tx.Exec(ctx, `
		UPDATE meetups
		SET current_count = $2,
		    midpoint = ST_SetSRID(ST_MakePoint($3::float8, $4::float8), 4326)
		WHERE id = $1
	`, t.meetup.ID, liveCount, lng, lat)
	return err
}

func (t *meetupTx) UpdateStatus(ctx context.Context, status domain.Status, place *domain.ConfirmedPlace) error {
	var (
		name, address *string
		lat, lng      *float64
		at            any
	)
	if place != nil {
		name, address = &place.Name, &place.Address
		lat, lng = &place.Lat, &place.Lng
		at = place.ConfirmedAt
	}
	_, err := t.tx.Exec(ctx, `
		UPDATE meetups
		SET status = $2,
		    confirmed_poi_name = $3,
		    confirmed_poi_lat = $4,
		    confirmed_poi_lng = $5,
		    confirmed_poi_address = $6,
		    confirmed_at = $7
		WHERE id = $1
	`, t.meetup.ID, status.String(), name, lat, lng, address, at)
	return err
}

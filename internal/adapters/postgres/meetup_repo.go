package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/meetpoint/meetpoint/internal/core/domain"
)

// meetupColumns must stay in the order scanMeetup expects.
const meetupColumns = `
	m.id, m.title, COALESCE(m.description, ''), m.capacity, m.current_count, m.status,
	ST_Y(m.location) AS lat, ST_X(m.location) AS lng,
	ST_Y(m.midpoint), ST_X(m.midpoint),
	m.confirmed_poi_name, m.confirmed_poi_lat, m.confirmed_poi_lng,
	m.confirmed_poi_address, m.confirmed_at,
	m.created_at`

// scanMeetup reads one meetupColumns row, followed by any extra columns.
func scanMeetup(row pgx.Row, extra ...any) (*domain.Meetup, error) {
	var (
		m              domain.Meetup
		status         string
		midLat, midLng *float64
		placeName      *string
		placeLat       *float64
		placeLng       *float64
		placeAddress   *string
		confirmedAt    *time.Time
	)
	dest := append([]any{
		&m.ID, &m.Title, &m.Description, &m.Capacity, &m.LiveCount, &status,
		&m.Location.Lat, &m.Location.Lng,
		&midLat, &midLng,
		&placeName, &placeLat, &placeLng,
		&placeAddress, &confirmedAt,
		&m.CreatedAt,
	}, extra...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}

	st, err := domain.ParseStatus(status)
	if err != nil {
		return nil, err
	}
	m.Status = st

	if midLat != nil && midLng != nil {
		m.Midpoint = &domain.GeoPoint{Lat: *midLat, Lng: *midLng}
	}
	if placeName != nil && confirmedAt != nil {
		p := &domain.ConfirmedPlace{Name: *placeName, ConfirmedAt: *confirmedAt}
		if placeLat != nil && placeLng != nil {
			p.Lat, p.Lng = *placeLat, *placeLng
		}
		if placeAddress != nil {
			p.Address = *placeAddress
		}
		m.ConfirmedPlace = p
	}
	return &m, nil
}

// MeetupRepo implements ports.MeetupRepository with pgx.
type MeetupRepo struct {
	db *DB
}

// NewMeetupRepo creates a new MeetupRepo.
func NewMeetupRepo(db *DB) *MeetupRepo {
	return &MeetupRepo{db: db}
}

// Create inserts a meetup in RECRUITING with no participants.
func (r *MeetupRepo) Create(ctx context.Context, nm domain.NewMeetup) (*domain.Meetup, error) {
	var desc *string
	if nm.Description != "" {
		desc = &nm.Description
	}
	m, err := scanMeetup(r.db.Pool.QueryRow(ctx, `
		INSERT INTO meetups AS m (title, description, capacity, status, location)
		VALUES ($1, $2, $3, $4, ST_SetSRID(ST_MakePoint($5, $6), 4326))
		RETURNING `+meetupColumns,
		nm.Title, desc, nm.Capacity, domain.StatusRecruiting.String(), nm.Location.Lng, nm.Location.Lat,
	))
	if err != nil {
		return nil, fmt.Errorf("insert meetup: %w", err)
	}
	return m, nil
}

// GetByID returns a meetup by id.
func (r *MeetupRepo) GetByID(ctx context.Context, id int64) (*domain.Meetup, error) {
	m, err := scanMeetup(r.db.Pool.QueryRow(ctx, `SELECT `+meetupColumns+` FROM meetups m WHERE m.id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrMeetupNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get meetup %d: %w", id, err)
	}
	return m, nil
}

// FindInBounds returns meetups whose location falls in b, newest first.
func (r *MeetupRepo) FindInBounds(ctx context.Context, b domain.Bounds, limit int) ([]domain.Meetup, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT `+meetupColumns+`
		FROM meetups m
		WHERE ST_Intersects(m.location, ST_MakeEnvelope($1, $2, $3, $4, 4326))
		ORDER BY m.created_at DESC
		LIMIT $5
	`, b.MinLng, b.MinLat, b.MaxLng, b.MaxLat, limit)
	if err != nil {
		return nil, fmt.Errorf("query bbox: %w", err)
	}
	defer rows.Close()

	var out []domain.Meetup
	for rows.Next() {
		m, err := scanMeetup(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *m)
	}
	return out, rows.Err()
}

// FindNearby returns meetups within radiusMeters of p, nearest first.
func (r *MeetupRepo) FindNearby(ctx context.Context, p domain.GeoPoint, radiusMeters float64, limit int) ([]domain.Meetup, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT `+meetupColumns+`,
		       ST_Distance(m.location::geography, ST_SetSRID(ST_MakePoint($1, $2), 4326)::geography) / 1000.0 AS distance_km
		FROM meetups m
		WHERE ST_DWithin(m.location::geography, ST_SetSRID(ST_MakePoint($1, $2), 4326)::geography, $3)
		ORDER BY distance_km
		LIMIT $4
	`, p.Lng, p.Lat, radiusMeters, limit)
	if err != nil {
		return nil, fmt.Errorf("query nearby: %w", err)
	}
	defer rows.Close()

	var out []domain.Meetup
	for rows.Next() {
		var km float64
		m, err := scanMeetup(rows, &km)
		if err != nil {
			return nil, err
		}
		m.DistanceKm = &km
		out = append(out, *m)
	}
	return out, rows.Err()
}

// ListParticipants returns participations of a meetup in join order.
func (r *MeetupRepo) ListParticipants(ctx context.Context, meetupID int64) ([]domain.Participation, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT id, meetup_id, user_id, approx_lat, approx_lng, created_at
		FROM participations
		WHERE meetup_id = $1
		ORDER BY created_at, id
	`, meetupID)
	if err != nil {
		return nil, fmt.Errorf("query participants: %w", err)
	}
	defer rows.Close()

	var out []domain.Participation
	for rows.Next() {
		var (
			p        domain.Participation
			lat, lng *float64
		)
		if err := rows.Scan(&p.ID, &p.MeetupID, &p.MemberID, &lat, &lng, &p.CreatedAt); err != nil {
			return nil, err
		}
		if lat != nil && lng != nil {
			p.Approx = &domain.GeoPoint{Lat: *lat, Lng: *lng}
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

package domain

import (
	"time"
)

// Member is a user who can take part in meetups.
type Member struct {
	ID        int64     `json:"id"`
	Nickname  string    `json:"nickname"`
	CreatedAt time.Time `json:"created_at"`
}

// Meetup is an ephemeral, location-based gathering with a fixed capacity.
type Meetup struct {
	ID             int64           `json:"id"`
	Title          string          `json:"title"`
	Description    string          `json:"description,omitempty"`
	Capacity       int             `json:"capacity"`
	LiveCount      int             `json:"current_count"`
	Status         Status          `json:"status"`
	Location       GeoPoint        `json:"location"`
	Midpoint       *GeoPoint       `json:"midpoint"`
	ConfirmedPlace *ConfirmedPlace `json:"confirmed_poi"`
	DistanceKm     *float64        `json:"distance_km,omitempty"` // computed field
	CreatedAt      time.Time       `json:"created_at"`
}

// IsFull reports whether no seat is left.
func (m *Meetup) IsFull() bool {
	return m.LiveCount >= m.Capacity
}

// NewMeetup holds the fields needed to create a meetup.
type NewMeetup struct {
	Title       string
	Description string
	Capacity    int
	Location    GeoPoint
}

// Participation is one member's seat in one meetup. Only the
// coarsened location is ever stored.
type Participation struct {
	ID        int64     `json:"id"`
	MeetupID  int64     `json:"meetup_id"`
	MemberID  int64     `json:"member_id"`
	Approx    *GeoPoint `json:"approx,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Place is a point of interest returned by the place-search provider.
type Place struct {
	Name           string  `json:"name"`
	Category       string  `json:"category"`
	Address        string  `json:"address"`
	RoadAddress    string  `json:"road_address"`
	Lat            float64 `json:"lat"`
	Lng            float64 `json:"lng"`
	DistanceMeters int     `json:"distance_m"`
	URL            string  `json:"place_url"`
	Provider       string  `json:"provider"`
}

// PlaceChoice is what a host submits when confirming a place.
type PlaceChoice struct {
	Name    string  `json:"name"`
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
	Address string  `json:"address"`
}

// ConfirmedPlace is the final place chosen for a meetup. It is set once.
type ConfirmedPlace struct {
	Name        string    `json:"name"`
	Lat         float64   `json:"lat"`
	Lng         float64   `json:"lng"`
	Address     string    `json:"address"`
	ConfirmedAt time.Time `json:"confirmed_at"`
}

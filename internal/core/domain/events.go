package domain

import (
	"encoding/json"
	"time"
)

// EventKind labels a frame on the push stream.
type EventKind string

const (
	EventMidpointUpdated     EventKind = "midpoint_updated"
	EventPOIUpdated          EventKind = "poi_updated"
	EventPOIConfirmed        EventKind = "poi_confirmed"
	EventMeetupStatusChanged EventKind = "meetup_status_changed"
)

// Channel is a per-meetup pub/sub category.
type Channel string

const (
	ChannelMidpoint Channel = "midpoint"
	// ChannelPOI carries poi_updated, poi_confirmed and meetup_status_changed.
	ChannelPOI Channel = "poi"
)

// MidpointEvent is published after every membership change.
type MidpointEvent struct {
	Type     EventKind `json:"type"`
	MeetupID int64     `json:"meetup_id"`
	Midpoint *GeoPoint `json:"midpoint"`
	Ts       time.Time `json:"ts"`
}

// PlacesEvent is published after a fresh provider call.
type PlacesEvent struct {
	Type     EventKind `json:"type"`
	MeetupID int64     `json:"meetup_id"`
	Midpoint *GeoPoint `json:"midpoint"`
	Places   []Place   `json:"pois"`
	Ts       time.Time `json:"ts"`
}

// PlaceConfirmedEvent is published when the host confirms a place.
type PlaceConfirmedEvent struct {
	Type     EventKind   `json:"type"`
	MeetupID int64       `json:"meetup_id"`
	Place    PlaceChoice `json:"poi"`
	Ts       time.Time   `json:"ts"`
}

// StatusChangedEvent is published on every status transition.
type StatusChangedEvent struct {
	Type     EventKind `json:"type"`
	MeetupID int64     `json:"meetup_id"`
	Status   Status    `json:"status"`
	Ts       time.Time `json:"ts"`
}

// BusMessage is one message received from a meetup channel.
type BusMessage struct {
	Channel Channel
	Data    []byte
}

// Kind labels the message for the push stream. Everything on the midpoint
// channel is midpoint_updated; on the poi channel the embedded type decides,
// defaulting to poi_updated.
func (m BusMessage) Kind() EventKind {
	if m.Channel != ChannelPOI {
		return EventMidpointUpdated
	}
	var head struct {
		Type EventKind `json:"type"`
	}
	if err := json.Unmarshal(m.Data, &head); err != nil {
		return EventPOIUpdated
	}
	switch head.Type {
	case EventMeetupStatusChanged, EventPOIConfirmed:
		return head.Type
	default:
		return EventPOIUpdated
	}
}

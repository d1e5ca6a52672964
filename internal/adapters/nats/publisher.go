package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"

	"github.com/meetpoint/meetpoint/internal/core/domain"
)

// Publisher implements ports.EventPublisher on core NATS subjects.
// Delivery is at-most-once; subscribers that are not connected miss events.
type Publisher struct {
	conn *nats.Conn
}

// NewPublisher wraps a shared connection.
func NewPublisher(conn *nats.Conn) *Publisher {
	return &Publisher{conn: conn}
}

func (p *Publisher) PublishMidpoint(ctx context.Context, ev domain.MidpointEvent) error {
	return p.publish(ev.MeetupID, domain.ChannelMidpoint, ev)
}

func (p *Publisher) PublishPlaces(ctx context.Context, ev domain.PlacesEvent) error {
	return p.publish(ev.MeetupID, domain.ChannelPOI, ev)
}

func (p *Publisher) PublishPlaceConfirmed(ctx context.Context, ev domain.PlaceConfirmedEvent) error {
	return p.publish(ev.MeetupID, domain.ChannelPOI, ev)
}

func (p *Publisher) PublishStatusChanged(ctx context.Context, ev domain.StatusChangedEvent) error {
	return p.publish(ev.MeetupID, domain.ChannelPOI, ev)
}

func (p *Publisher) publish(meetupID int64, ch domain.Channel, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", ch, err)
	}
	if p.conn == nil || p.conn.IsClosed() {
		return nats.ErrConnectionClosed
	}
	return p.conn.Publish(Subject(meetupID, ch), data)
}

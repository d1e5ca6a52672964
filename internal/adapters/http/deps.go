package http

import (
	"context"

	"github.com/nats-io/nats.go"

	"github.com/meetpoint/meetpoint/internal/core/usecases"
)

// Pinger is a backing service that can report its reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Dependencies holds all services needed by HTTP handlers.
type Dependencies struct {
	Members       *usecases.MemberService
	Meetups       *usecases.MeetupService
	Participation *usecases.ParticipationService
	Status        *usecases.StatusService
	POIs          *usecases.POIService
	Streams       *usecases.StreamService
	NATS          *nats.Conn
	DB            Pinger
	Cache         Pinger

	// StreamContext bounds SSE and WebSocket streams. Optional.
	StreamContext context.Context
}

// baseContext is the parent of long-lived stream contexts. It is canceled
// on shutdown so open streams end.
func (d *Dependencies) baseContext() context.Context {
	if d.StreamContext != nil {
		return d.StreamContext
	}
	return context.Background()
}

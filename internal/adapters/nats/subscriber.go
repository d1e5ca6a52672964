package natsadapter

import (
	"context"
	"fmt"
	"sync"

	"github.com/nats-io/nats.go"

	"github.com/meetpoint/meetpoint/internal/core/domain"
	"github.com/meetpoint/meetpoint/internal/core/ports"
)

// bufferSize bounds the per-stream backlog. NATS drops messages for a
// slow consumer once it is full rather than blocking publishers.
const bufferSize = 64

// Subscriber implements ports.EventSubscriber with one NATS subscription
// per channel per stream.
type Subscriber struct {
	conn *nats.Conn
}

// NewSubscriber wraps a shared connection.
func NewSubscriber(conn *nats.Conn) *Subscriber {
	return &Subscriber{conn: conn}
}

// Subscribe listens on both channels of meetupID. The subscription is
// closed when ctx is done or Close is called.
func (s *Subscriber) Subscribe(ctx context.Context, meetupID int64) (ports.Subscription, error) {
	raw := make(chan *nats.Msg, bufferSize)
	sub := &subscription{
		out:  make(chan domain.BusMessage, bufferSize),
		done: make(chan struct{}),
	}

	for _, ch := range []domain.Channel{domain.ChannelMidpoint, domain.ChannelPOI} {
		ns, err := s.conn.ChanSubscribe(Subject(meetupID, ch), raw)
		if err != nil {
			sub.unsubscribe()
			return nil, fmt.Errorf("subscribe %s: %w", ch, err)
		}
		sub.subs = append(sub.subs, ns)
	}

	go sub.pump(ctx, raw)
	return sub, nil
}

type subscription struct {
	subs []*nats.Subscription
	out  chan domain.BusMessage
	done chan struct{}
	once sync.Once
}

func (s *subscription) C() <-chan domain.BusMessage { return s.out }

// Close unsubscribes. Calling it again is a no-op.
func (s *subscription) Close() error {
	s.once.Do(func() {
		s.unsubscribe()
		close(s.done)
	})
	return nil
}

func (s *subscription) unsubscribe() {
	for _, ns := range s.subs {
		_ = ns.Unsubscribe()
	}
}

// pump forwards raw messages until the subscription ends, then closes out.
func (s *subscription) pump(ctx context.Context, raw <-chan *nats.Msg) {
	defer close(s.out)
	for {
		select {
		case <-ctx.Done():
			_ = s.Close()
			return
		case <-s.done:
			return
		case msg := <-raw:
			select {
			case s.out <- domain.BusMessage{Channel: channelOf(msg.Subject), Data: msg.Data}:
			case <-s.done:
				return
			case <-ctx.Done():
				_ = s.Close()
				return
			}
		}
	}
}

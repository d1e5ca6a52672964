package usecases

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/meetpoint/meetpoint/internal/core/domain"
	"github.com/meetpoint/meetpoint/internal/core/ports"
)

// DefaultHeartbeat is the idle interval after which a keep-alive is sent.
const DefaultHeartbeat = 15 * time.Second

// Frame is one unit on a push stream: either an event or a heartbeat.
type Frame struct {
	Event     domain.EventKind
	Data      json.RawMessage
	Heartbeat bool
}

// StreamService turns a meetup's channels into a push stream.
type StreamService struct {
	meetups    ports.MeetupRepository
	subscriber ports.EventSubscriber
	heartbeat  time.Duration
}

// NewStreamService creates a new StreamService. A non-positive heartbeat
// uses DefaultHeartbeat.
func NewStreamService(meetups ports.MeetupRepository, subscriber ports.EventSubscriber, heartbeat time.Duration) *StreamService {
	if heartbeat <= 0 {
		heartbeat = DefaultHeartbeat
	}
	return &StreamService{meetups: meetups, subscriber: subscriber, heartbeat: heartbeat}
}

// Stream is an open subscription to one meetup.
type Stream struct {
	MeetupID  int64
	sub       ports.Subscription
	heartbeat time.Duration
}

// Open checks the meetup exists and subscribes to both its channels.
// The caller must Run or Close the returned stream.
func (s *StreamService) Open(ctx context.Context, meetupID int64) (*Stream, error) {
	if _, err := s.meetups.GetByID(ctx, meetupID); err != nil {
		return nil, err
	}
	sub, err := s.subscriber.Subscribe(ctx, meetupID)
	if err != nil {
		return nil, fmt.Errorf("subscribe meetup %d: %w", meetupID, err)
	}
	return &Stream{MeetupID: meetupID, sub: sub, heartbeat: s.heartbeat}, nil
}

// Run delivers frames to emit until ctx is done, the subscription ends or
// emit fails. A heartbeat frame is emitted whenever the stream has been
// idle for the heartbeat interval. The subscription is closed on return.
func (st *Stream) Run(ctx context.Context, emit func(Frame) error) error {
	defer st.Close()

	idle := time.NewTimer(st.heartbeat)
	defer idle.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-st.sub.C():
			if !ok {
				return nil
			}
			if err := emit(Frame{Event: msg.Kind(), Data: json.RawMessage(msg.Data)}); err != nil {
				return err
			}
			if !idle.Stop() {
				select {
				case <-idle.C:
				default:
				}
			}
			idle.Reset(st.heartbeat)
		case <-idle.C:
			if err := emit(Frame{Heartbeat: true}); err != nil {
				return err
			}
			idle.Reset(st.heartbeat)
		}
	}
}

// Close releases the subscription. It is safe to call more than once.
func (st *Stream) Close() error {
	return st.sub.Close()
}

package usecases

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/meetpoint/meetpoint/internal/core/domain"
	"github.com/meetpoint/meetpoint/internal/core/ports"
	"github.com/meetpoint/meetpoint/internal/pkg/metrics"
	"github.com/meetpoint/meetpoint/internal/pkg/telemetry"
)

// MembershipResult is the committed state after a join or leave.
type MembershipResult struct {
	MeetupID     int64            `json:"meetup_id"`
	LiveCount    int              `json:"current_count"`
	Capacity     int              `json:"capacity"`
	Midpoint     *domain.GeoPoint `json:"midpoint"`
	Notification Notification     `json:"notification"`
}

// ParticipationService joins and leaves meetups under the meetup row lock.
type ParticipationService struct {
	members ports.MemberRepository
	store   ports.MeetupStore
	events  ports.EventPublisher
	now     func() time.Time
}

// NewParticipationService creates a new ParticipationService.
func NewParticipationService(members ports.MemberRepository, store ports.MeetupStore, events ports.EventPublisher) *ParticipationService {
	return &ParticipationService{members: members, store: store, events: events, now: time.Now}
}

// Join adds memberID to the meetup. loc is coarsened before it is stored;
// a nil loc joins without a location and does not move the midpoint.
func (s *ParticipationService) Join(ctx context.Context, meetupID, memberID int64, loc *domain.GeoPoint) (*MembershipResult, error) {
	ctx, span := tracer.Start(ctx, telemetry.SpanJoin, trace.WithAttributes(
		attribute.Int64(telemetry.AttrMeetupID, meetupID),
		attribute.Int64(telemetry.AttrMemberID, memberID),
	))
	defer span.End()

	res, err := s.join(ctx, meetupID, memberID, loc)
	metrics.MembershipOps.WithLabelValues("join", outcome(err)).Inc()
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	res.Notification = s.publishMidpoint(ctx, meetupID, res.Midpoint)
	return res, nil
}

func (s *ParticipationService) join(ctx context.Context, meetupID, memberID int64, loc *domain.GeoPoint) (*MembershipResult, error) {
	var approx *domain.GeoPoint
	if loc != nil {
		if err := loc.Validate(); err != nil {
			return nil, err
		}
		c := domain.Coarsen(*loc)
		approx = &c
	}

	if _, err := s.members.GetByID(ctx, memberID); err != nil {
		return nil, err
	}

	var res MembershipResult
	err := s.store.InMeetupTx(ctx, meetupID, func(ctx context.Context, tx ports.MeetupTx) error {
		m := tx.Meetup()
		if m.Status != domain.StatusRecruiting {
			return domain.ErrNotRecruiting
		}
		if m.IsFull() {
			return domain.ErrMeetupFull
		}

		joined, err := tx.HasParticipation(ctx, memberID)
		if err != nil {
			return fmt.Errorf("check participation: %w", err)
		}
		if joined {
			return domain.ErrAlreadyJoined
		}

		if err := tx.InsertParticipation(ctx, memberID, approx); err != nil {
			return err
		}
		return s.recompute(ctx, tx, m, m.LiveCount+1, &res)
	})
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// Leave removes memberID from the meetup.
func (s *ParticipationService) Leave(ctx context.Context, meetupID, memberID int64) (*MembershipResult, error) {
	ctx, span := tracer.Start(ctx, telemetry.SpanLeave, trace.WithAttributes(
		attribute.Int64(telemetry.AttrMeetupID, meetupID),
		attribute.Int64(telemetry.AttrMemberID, memberID),
	))
	defer span.End()

	var res MembershipResult
	err := s.store.InMeetupTx(ctx, meetupID, func(ctx context.Context, tx ports.MeetupTx) error {
		m := tx.Meetup()
		if m.Status != domain.StatusRecruiting {
			return domain.ErrNotRecruiting
		}

		removed, err := tx.DeleteParticipation(ctx, memberID)
		if err != nil {
			return fmt.Errorf("delete participation: %w", err)
		}
		if !removed {
			return domain.ErrNotJoined
		}
		return s.recompute(ctx, tx, m, m.LiveCount-1, &res)
	})
	metrics.MembershipOps.WithLabelValues("leave", outcome(err)).Inc()
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	res.Notification = s.publishMidpoint(ctx, meetupID, res.Midpoint)
	return &res, nil
}

// recompute writes the new count and midpoint inside the same transaction
// as the participation change.
func (s *ParticipationService) recompute(ctx context.Context, tx ports.MeetupTx, m *domain.Meetup, count int, res *MembershipResult) error {
	points, err := tx.ParticipantPoints(ctx)
	if err != nil {
		return fmt.Errorf("load participant points: %w", err)
	}
	mid := domain.Midpoint(points)
	if err := tx.UpdateMembership(ctx, count, mid); err != nil {
		return fmt.Errorf("update membership: %w", err)
	}
	*res = MembershipResult{MeetupID: m.ID, LiveCount: count, Capacity: m.Capacity, Midpoint: mid}
	return nil
}

func (s *ParticipationService) publishMidpoint(ctx context.Context, meetupID int64, mid *domain.GeoPoint) Notification {
	err := s.events.PublishMidpoint(ctx, domain.MidpointEvent{
		Type:     domain.EventMidpointUpdated,
		MeetupID: meetupID,
		Midpoint: mid,
		Ts:       s.now().UTC(),
	})
	return delivered(ctx, string(domain.ChannelMidpoint), meetupID, err)
}

package usecases

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/meetpoint/meetpoint/internal/core/domain"
	"github.com/meetpoint/meetpoint/internal/core/ports"
	"github.com/meetpoint/meetpoint/internal/pkg/metrics"
	"github.com/meetpoint/meetpoint/internal/pkg/telemetry"
)

// StatusResult is the committed meetup after a status change.
type StatusResult struct {
	Meetup       *domain.Meetup `json:"meetup"`
	Notification Notification   `json:"notification"`
}

// StatusService applies lifecycle transitions.
type StatusService struct {
	store       ports.MeetupStore
	events      ports.EventPublisher
	scheduler   ports.LifecycleScheduler
	finishAfter time.Duration
	now         func() time.Time
}

// NewStatusService creates a new StatusService. scheduler may be nil, in
// which case confirmed meetups are only finished explicitly.
func NewStatusService(store ports.MeetupStore, events ports.EventPublisher, scheduler ports.LifecycleScheduler, finishAfter time.Duration) *StatusService {
	return &StatusService{
		store:       store,
		events:      events,
		scheduler:   scheduler,
		finishAfter: finishAfter,
		now:         time.Now,
	}
}

// ConfirmPlace records the chosen place and moves the meetup to CONFIRMED.
func (s *StatusService) ConfirmPlace(ctx context.Context, meetupID int64, choice domain.PlaceChoice) (*StatusResult, error) {
	ctx, span := tracer.Start(ctx, telemetry.SpanConfirmPlace, trace.WithAttributes(
		attribute.Int64(telemetry.AttrMeetupID, meetupID),
	))
	defer span.End()

	if strings.TrimSpace(choice.Name) == "" {
		return nil, domain.Invalid("place name must not be empty")
	}
	if err := (domain.GeoPoint{Lat: choice.Lat, Lng: choice.Lng}).Validate(); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	var out *domain.Meetup
	err := s.store.InMeetupTx(ctx, meetupID, func(ctx context.Context, tx ports.MeetupTx) error {
		m := tx.Meetup()
		if m.Status == domain.StatusConfirmed {
			return domain.ErrAlreadyConfirmed
		}
		if err := domain.CheckTransition(m.Status, domain.StatusConfirmed); err != nil {
			return err
		}

		place := &domain.ConfirmedPlace{
			Name:        choice.Name,
			Lat:         choice.Lat,
			Lng:         choice.Lng,
			Address:     choice.Address,
			ConfirmedAt: now,
		}
		if err := tx.UpdateStatus(ctx, domain.StatusConfirmed, place); err != nil {
			return fmt.Errorf("update status: %w", err)
		}

		cp := *m
		cp.Status = domain.StatusConfirmed
		cp.ConfirmedPlace = place
		out = &cp
		return nil
	})
	metrics.MembershipOps.WithLabelValues("confirm", outcome(err)).Inc()
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	n := delivered(ctx, string(domain.EventPOIConfirmed), meetupID, s.events.PublishPlaceConfirmed(ctx, domain.PlaceConfirmedEvent{
		Type:     domain.EventPOIConfirmed,
		MeetupID: meetupID,
		Place:    choice,
		Ts:       now,
	}))
	n = n.and(s.publishStatus(ctx, meetupID, domain.StatusConfirmed, now))

	s.scheduleFinish(ctx, meetupID, now)
	return &StatusResult{Meetup: out, Notification: n}, nil
}

// Finish moves a confirmed meetup to FINISHED.
func (s *StatusService) Finish(ctx context.Context, meetupID int64) (*StatusResult, error) {
	return s.transition(ctx, telemetry.SpanFinish, "finish", meetupID, domain.StatusFinished)
}

// Cancel moves a recruiting meetup to CANCELED.
func (s *StatusService) Cancel(ctx context.Context, meetupID int64) (*StatusResult, error) {
	return s.transition(ctx, telemetry.SpanCancel, "cancel", meetupID, domain.StatusCanceled)
}

func (s *StatusService) transition(ctx context.Context, spanName, op string, meetupID int64, target domain.Status) (*StatusResult, error) {
	ctx, span := tracer.Start(ctx, spanName, trace.WithAttributes(
		attribute.Int64(telemetry.AttrMeetupID, meetupID),
	))
	defer span.End()

	var out *domain.Meetup
	err := s.store.InMeetupTx(ctx, meetupID, func(ctx context.Context, tx ports.MeetupTx) error {
		m := tx.Meetup()
		if err := domain.CheckTransition(m.Status, target); err != nil {
			return err
		}
		if err := tx.UpdateStatus(ctx, target, m.ConfirmedPlace); err != nil {
			return fmt.Errorf("update status: %w", err)
		}
		cp := *m
		cp.Status = target
		out = &cp
		return nil
	})
	metrics.MembershipOps.WithLabelValues(op, outcome(err)).Inc()
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	n := s.publishStatus(ctx, meetupID, target, s.now().UTC())
	return &StatusResult{Meetup: out, Notification: n}, nil
}

func (s *StatusService) publishStatus(ctx context.Context, meetupID int64, status domain.Status, ts time.Time) Notification {
	err := s.events.PublishStatusChanged(ctx, domain.StatusChangedEvent{
		Type:     domain.EventMeetupStatusChanged,
		MeetupID: meetupID,
		Status:   status,
		Ts:       ts,
	})
	return delivered(ctx, string(domain.EventMeetupStatusChanged), meetupID, err)
}

// scheduleFinish is best-effort: a meetup that misses its timer can still
// be finished by hand.
func (s *StatusService) scheduleFinish(ctx context.Context, meetupID int64, confirmedAt time.Time) {
	if s.scheduler == nil || s.finishAfter <= 0 {
		return
	}
	at := confirmedAt.Add(s.finishAfter)
	if err := s.scheduler.ScheduleFinish(ctx, meetupID, at); err != nil {
		metrics.LifecycleScheduleErrors.Inc()
		slog.WarnContext(ctx, "schedule meetup finish failed",
			"meetup_id", meetupID,
			"finish_at", at,
			"error", err,
		)
	}
}

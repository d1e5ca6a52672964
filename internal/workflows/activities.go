package workflows

import (
	"context"
	"log/slog"

	"go.temporal.io/sdk/temporal"

	"github.com/meetpoint/meetpoint/internal/core/domain"
	"github.com/meetpoint/meetpoint/internal/core/usecases"
)

// Finisher ends a meetup. *usecases.StatusService satisfies it.
type Finisher interface {
	Finish(ctx context.Context, meetupID int64) (*usecases.StatusResult, error)
}

// LifecycleActivities holds the activity implementations for the meetup lifecycle workflow.
type LifecycleActivities struct {
	Status Finisher
}

// FinishMeetup moves a confirmed meetup to FINISHED and reports whether it
// did. A meetup canceled or finished by hand in the meantime is left alone.
// A missing meetup fails without retry.
func (a *LifecycleActivities) FinishMeetup(ctx context.Context, meetupID int64) (bool, error) {
	res, err := a.Status.Finish(ctx, meetupID)
	if err == nil {
		return res.Meetup.Status == domain.StatusFinished, nil
	}
	switch domain.KindOf(err) {
	case domain.KindConflict:
		slog.InfoContext(ctx, "meetup already left CONFIRMED, skipping auto finish",
			"meetup_id", meetupID, "reason", err)
		return false, nil
	case domain.KindNotFound, domain.KindInvalid:
		return false, temporal.NewNonRetryableApplicationError(err.Error(), domain.CodeOf(err), err)
	default:
		return false, err
	}
}

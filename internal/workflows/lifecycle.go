package workflows

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"
)

// FinishInput is the input for the meetup finish workflow.
type FinishInput struct {
	MeetupID int64
	FinishAt time.Time
}

// MeetupFinishWorkflow sleeps until FinishAt and then finishes the meetup.
func MeetupFinishWorkflow(ctx workflow.Context, input FinishInput) error {
	logger := workflow.GetLogger(ctx)
	logger.Info("Starting meetup finish workflow", "meetupID", input.MeetupID, "finishAt", input.FinishAt)

	if wait := input.FinishAt.Sub(workflow.Now(ctx)); wait > 0 {
		if err := workflow.Sleep(ctx, wait); err != nil {
			return err
		}
	}

	actOpts := workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval: time.Second,
			MaximumAttempts: 5,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, actOpts)

	var a *LifecycleActivities
	var finished bool
	if err := workflow.ExecuteActivity(ctx, a.FinishMeetup, input.MeetupID).Get(ctx, &finished); err != nil {
		logger.Error("auto finish failed", "meetupID", input.MeetupID, "error", err)
		return err
	}

	if !finished {
		logger.Info("meetup was no longer confirmed", "meetupID", input.MeetupID)
		return nil
	}
	logger.Info("meetup finished", "meetupID", input.MeetupID)
	return nil
}

// Package temporaladapter starts lifecycle workflows on a Temporal cluster.
package temporaladapter

import (
	"context"
	"fmt"
	"time"

	"go.temporal.io/sdk/client"

	"github.com/meetpoint/meetpoint/internal/workflows"
)

// Dial connects to Temporal.
func Dial(hostPort, namespace string) (client.Client, error) {
	c, err := client.Dial(client.Options{
		HostPort:  hostPort,
		Namespace: namespace,
	})
	if err != nil {
		return nil, fmt.Errorf("temporal dial %s: %w", hostPort, err)
	}
	return c, nil
}

// WorkflowID is the deterministic ID of a meetup's finish workflow, so a
// repeated confirmation never schedules twice.
func WorkflowID(meetupID int64) string {
	return fmt.Sprintf("meetup-finish-%d", meetupID)
}

// Scheduler implements ports.LifecycleScheduler.
type Scheduler struct {
	client    client.Client
	taskQueue string
}

// NewScheduler creates a new Scheduler.
func NewScheduler(c client.Client, taskQueue string) *Scheduler {
	return &Scheduler{client: c, taskQueue: taskQueue}
}

// ScheduleFinish starts the durable timer that finishes meetupID at the given time.
func (s *Scheduler) ScheduleFinish(ctx context.Context, meetupID int64, at time.Time) error {
	opts := client.StartWorkflowOptions{
		ID:                       WorkflowID(meetupID),
		TaskQueue:                s.taskQueue,
		WorkflowExecutionTimeout: time.Until(at) + 24*time.Hour,
	}
	_, err := s.client.ExecuteWorkflow(ctx, opts, workflows.MeetupFinishWorkflow, workflows.FinishInput{
		MeetupID: meetupID,
		FinishAt: at,
	})
	if err != nil {
		return fmt.Errorf("start finish workflow for meetup %d: %w", meetupID, err)
	}
	return nil
}

package workflows

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/testsuite"

	"github.com/meetpoint/meetpoint/internal/core/domain"
	"github.com/meetpoint/meetpoint/internal/core/usecases"
)

type mockFinisher struct {
	calls    atomic.Int32
	FinishFn func(ctx context.Context, meetupID int64) (*usecases.StatusResult, error)
}

func (m *mockFinisher) Finish(ctx context.Context, meetupID int64) (*usecases.StatusResult, error) {
	m.calls.Add(1)
	return m.FinishFn(ctx, meetupID)
}

func finishedResult(id int64) *usecases.StatusResult {
	return &usecases.StatusResult{Meetup: &domain.Meetup{ID: id, Status: domain.StatusFinished}}
}

func TestMeetupFinishWorkflow_FinishesAfterTimer(t *testing.T) {
	var s testsuite.WorkflowTestSuite
	env := s.NewTestWorkflowEnvironment()

	var gotID int64
	fin := &mockFinisher{FinishFn: func(_ context.Context, id int64) (*usecases.StatusResult, error) {
		gotID = id
		return finishedResult(id), nil
	}}
	env.RegisterActivity(&LifecycleActivities{Status: fin})

	env.ExecuteWorkflow(MeetupFinishWorkflow, FinishInput{MeetupID: 7, FinishAt: env.Now().Add(6 * time.Hour)})

	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())
	assert.Equal(t, int32(1), fin.calls.Load())
	assert.Equal(t, int64(7), gotID)
}

func TestMeetupFinishWorkflow_AlreadyTerminalIsNotAnError(t *testing.T) {
	var s testsuite.WorkflowTestSuite
	env := s.NewTestWorkflowEnvironment()

	fin := &mockFinisher{FinishFn: func(context.Context, int64) (*usecases.StatusResult, error) {
		return nil, domain.CheckTransition(domain.StatusCanceled, domain.StatusFinished)
	}}
	env.RegisterActivity(&LifecycleActivities{Status: fin})

	env.ExecuteWorkflow(MeetupFinishWorkflow, FinishInput{MeetupID: 3, FinishAt: env.Now().Add(time.Minute)})

	require.True(t, env.IsWorkflowCompleted())
	assert.NoError(t, env.GetWorkflowError())
	assert.Equal(t, int32(1), fin.calls.Load())
}

func TestMeetupFinishWorkflow_MissingMeetupNotRetried(t *testing.T) {
	var s testsuite.WorkflowTestSuite
	env := s.NewTestWorkflowEnvironment()

	fin := &mockFinisher{FinishFn: func(context.Context, int64) (*usecases.StatusResult, error) {
		return nil, domain.ErrMeetupNotFound
	}}
	env.RegisterActivity(&LifecycleActivities{Status: fin})

	env.ExecuteWorkflow(MeetupFinishWorkflow, FinishInput{MeetupID: 99, FinishAt: env.Now()})

	require.True(t, env.IsWorkflowCompleted())
	assert.Error(t, env.GetWorkflowError())
	assert.Equal(t, int32(1), fin.calls.Load())
}

func TestFinishMeetupActivity(t *testing.T) {
	var s testsuite.WorkflowTestSuite
	env := s.NewTestActivityEnvironment()

	acts := &LifecycleActivities{Status: &mockFinisher{FinishFn: func(_ context.Context, id int64) (*usecases.StatusResult, error) {
		return finishedResult(id), nil
	}}}
	env.RegisterActivity(acts)

	val, err := env.ExecuteActivity(acts.FinishMeetup, int64(5))
	require.NoError(t, err)

	var finished bool
	require.NoError(t, val.Get(&finished))
	assert.True(t, finished)
}

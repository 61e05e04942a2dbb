package service_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/tempo/internal/domain"
	"github.com/phrazzld/tempo/internal/domain/schedule"
	"github.com/phrazzld/tempo/internal/mocks"
	"github.com/phrazzld/tempo/internal/oracle"
	"github.com/phrazzld/tempo/internal/scheduling"
	"github.com/phrazzld/tempo/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func at(day, hour, minute int) time.Time {
	return time.Date(2026, 3, day, hour, minute, 0, 0, time.UTC)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// clock is a settable time source shared with the service under test.
type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

type fixture struct {
	store  *mocks.MemoryStore
	client *mocks.MockOracleClient
	clock  *clock
	svc    service.TaskService
}

func newFixture(t *testing.T, client *mocks.MockOracleClient) *fixture {
	t.Helper()
	if client == nil {
		client = &mocks.MockOracleClient{}
	}
	adapter, err := oracle.NewAdapter(client, discardLogger())
	require.NoError(t, err)
	engine := schedule.NewDefaultService()
	controller, err := scheduling.NewController(engine, adapter, discardLogger())
	require.NoError(t, err)
	return newFixtureWithPlanner(t, client, controller)
}

func newFixtureWithPlanner(t *testing.T, client *mocks.MockOracleClient, planner service.Planner) *fixture {
	t.Helper()
	mem := mocks.NewMemoryStore()
	c := &clock{now: at(2, 9, 0)}
	svc, err := service.NewTaskService(
		mem.Tasks(),
		mem.Profiles(),
		mem,
		planner,
		schedule.NewDefaultService(),
		discardLogger(),
		service.WithClock(c.Now),
	)
	require.NoError(t, err)
	return &fixture{store: mem, client: client, clock: c, svc: svc}
}

// stubPlanner returns fixed plans so tests can force particular windows.
type stubPlanner struct {
	plan       scheduling.Plan
	reassign   scheduling.Reassignment
	completion scheduling.CompletionResult
	err        error
}

func (p *stubPlanner) Create(
	context.Context, string, []string, []domain.TimeWindow, time.Time,
) (scheduling.Plan, error) {
	return p.plan, p.err
}

func (p *stubPlanner) Complete(
	context.Context, *domain.Task, []string, time.Time,
) (scheduling.CompletionResult, error) {
	return p.completion, p.err
}

func (p *stubPlanner) Reassign(
	context.Context, *domain.Task, string, []string, []domain.TimeWindow, time.Time,
) (scheduling.Reassignment, error) {
	return p.reassign, p.err
}

func TestNewTaskServiceValidation(t *testing.T) {
	t.Parallel()
	mem := mocks.NewMemoryStore()
	planner := &stubPlanner{}
	engine := schedule.NewDefaultService()

	tests := []struct {
		name  string
		build func() (service.TaskService, error)
	}{
		{"nil tasks", func() (service.TaskService, error) {
			return service.NewTaskService(nil, mem.Profiles(), mem, planner, engine, nil)
		}},
		{"nil profiles", func() (service.TaskService, error) {
			return service.NewTaskService(mem.Tasks(), nil, mem, planner, engine, nil)
		}},
		{"nil unit of work", func() (service.TaskService, error) {
			return service.NewTaskService(mem.Tasks(), mem.Profiles(), nil, planner, engine, nil)
		}},
		{"nil planner", func() (service.TaskService, error) {
			return service.NewTaskService(mem.Tasks(), mem.Profiles(), mem, nil, engine, nil)
		}},
		{"nil engine", func() (service.TaskService, error) {
			return service.NewTaskService(mem.Tasks(), mem.Profiles(), mem, planner, nil, nil)
		}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc, err := tc.build()
			assert.Nil(t, svc)
			assert.ErrorIs(t, err, domain.ErrValidation)
		})
	}
}

func TestCreateTask(t *testing.T) {
	t.Parallel()
	f := newFixture(t, nil)
	ctx := context.Background()
	owner := uuid.New()

	walk, err := f.svc.CreateTask(ctx, owner, "go for a morning walk")
	require.NoError(t, err)
	assert.Equal(t, owner, walk.OwnerID)
	assert.Equal(t, domain.TaskStatusPending, walk.Status)
	assert.Equal(t, domain.PeriodMorning, walk.Period)
	assert.Equal(t, domain.TimeWindow{Start: at(2, 9, 0), End: at(2, 9, 45)}, walk.Window)
	assert.Equal(t, 1, walk.Priority)

	stored := f.store.Task(walk.ID)
	require.NotNil(t, stored)
	assert.Equal(t, *walk, *stored)

	run, err := f.svc.CreateTask(ctx, owner, "morning run")
	require.NoError(t, err)
	assert.Equal(t, at(2, 10, 0), run.Window.Start, "second morning task skips the walk")
	assert.False(t, schedule.Conflicts(walk.Window, run.Window))

	other, err := f.svc.CreateTask(ctx, uuid.New(), "morning run")
	require.NoError(t, err)
	assert.Equal(t, at(2, 9, 0), other.Window.Start, "other owners' tasks are not commitments")

	assert.Equal(t, []uuid.UUID{owner, owner, other.OwnerID}, f.store.LockedOwners)
	assert.Equal(t, 3, f.store.Commits)
}

func TestCreateTaskRejectsBlankDescription(t *testing.T) {
	t.Parallel()
	f := newFixture(t, nil)

	_, err := f.svc.CreateTask(context.Background(), uuid.New(), "   ")
	assert.ErrorIs(t, err, domain.ErrEmptyDescription)
	assert.Zero(t, f.store.Commits)
}

func TestCreateTaskReplacesTakenSlot(t *testing.T) {
	t.Parallel()
	owner := uuid.New()
	planned := domain.Schedule{
		Window:            domain.TimeWindow{Start: at(2, 12, 0), End: at(2, 12, 30)},
		Period:            domain.PeriodAfternoon,
		EstimatedDuration: 30,
		Priority:          2,
	}
	f := newFixtureWithPlanner(t, nil, &stubPlanner{plan: scheduling.Plan{Schedule: planned}})

	// A concurrent writer took 12:00 after the plan was made.
	taken, err := domain.NewTask(owner, "lunch", planned, at(2, 8, 0))
	require.NoError(t, err)
	f.store.PutTask(taken)

	task, err := f.svc.CreateTask(context.Background(), owner, "write report")
	require.NoError(t, err)
	assert.Equal(t, at(2, 13, 0), task.Window.Start)
	assert.Equal(t, domain.PeriodAfternoon, task.Period)
	assert.False(t, schedule.Conflicts(taken.Window, task.Window))
}

func TestCreateTaskKeepsFallbackPlan(t *testing.T) {
	t.Parallel()
	owner := uuid.New()
	planned := domain.Schedule{
		Window:            domain.TimeWindow{Start: at(3, 12, 0), End: at(3, 12, 30)},
		Period:            domain.PeriodAfternoon,
		EstimatedDuration: 30,
		Priority:          2,
	}
	f := newFixtureWithPlanner(t, nil, &stubPlanner{plan: scheduling.Plan{Schedule: planned, Fallback: true}})

	existing, err := domain.NewTask(owner, "lunch", planned, at(2, 8, 0))
	require.NoError(t, err)
	f.store.PutTask(existing)

	task, err := f.svc.CreateTask(context.Background(), owner, "write report")
	require.NoError(t, err)
	assert.Equal(t, planned.Window, task.Window, "fallback windows are used as planned")
}

func TestCreateTaskRollsBackOnStoreFailure(t *testing.T) {
	t.Parallel()
	f := newFixture(t, nil)
	f.store.CreateErr = errors.New("disk full")
	owner := uuid.New()

	_, err := f.svc.CreateTask(context.Background(), owner, "write report")
	require.Error(t, err)

	var serviceErr *service.TaskServiceError
	require.ErrorAs(t, err, &serviceErr)
	assert.Equal(t, "create_task", serviceErr.Operation)
	assert.Equal(t, 1, f.store.Rollbacks)

	tasks, err := f.svc.ListTasks(context.Background(), owner)
	require.NoError(t, err)
	assert.Empty(t, tasks)
}

func TestGetTask(t *testing.T) {
	t.Parallel()
	f := newFixture(t, nil)
	ctx := context.Background()
	owner := uuid.New()

	created, err := f.svc.CreateTask(ctx, owner, "write report")
	require.NoError(t, err)

	got, err := f.svc.GetTask(ctx, owner, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)

	_, err = f.svc.GetTask(ctx, uuid.New(), created.ID)
	assert.ErrorIs(t, err, service.ErrNotOwned)

	_, err = f.svc.GetTask(ctx, owner, uuid.New())
	assert.ErrorIs(t, err, service.ErrTaskNotFound)
}

func TestListTasksOrderedByStart(t *testing.T) {
	t.Parallel()
	f := newFixture(t, nil)
	ctx := context.Background()
	owner := uuid.New()

	for _, d := range []string{"dinner with Jo", "go for a morning walk", "write report"} {
		_, err := f.svc.CreateTask(ctx, owner, d)
		require.NoError(t, err)
	}

	tasks, err := f.svc.ListTasks(ctx, owner)
	require.NoError(t, err)
	require.Len(t, tasks, 3)
	assert.Equal(t, domain.PeriodMorning, tasks[0].Period)
	assert.Equal(t, domain.PeriodAfternoon, tasks[1].Period)
	assert.Equal(t, domain.PeriodEvening, tasks[2].Period)
}

func TestCompleteTask(t *testing.T) {
	t.Parallel()
	client := mocks.NewMockOracleClientWithReply("early-riser, focused")
	f := newFixture(t, client)
	ctx := context.Background()
	owner := uuid.New()
	f.store.PutProfile(&domain.UserProfile{UserID: owner, Traits: []string{"night-owl"}})

	task, err := f.svc.CreateTask(ctx, owner, "go for a morning walk")
	require.NoError(t, err)

	f.clock.Set(at(2, 10, 10))
	outcome, err := f.svc.CompleteTask(ctx, owner, task.ID)
	require.NoError(t, err)

	assert.Equal(t, domain.TaskStatusCompleted, outcome.Task.Status)
	assert.Equal(t, service.Timing{
		StartTime: at(2, 9, 0),
		EndTime:   at(2, 10, 10),
		Duration:  70,
		IsOnTime:  true,
	}, outcome.Timing)
	assert.Equal(t, []string{"early-riser", "focused"}, outcome.Traits)
	assert.Equal(t, oracle.SourceParsed, outcome.TraitsSource)
	assert.Contains(t, client.LastPrompt(), "night-owl")

	stored := f.store.Task(task.ID)
	require.NotNil(t, stored)
	assert.Equal(t, domain.TaskStatusCompleted, stored.Status)
	require.NotNil(t, stored.ActualDuration)
	assert.Equal(t, 70, *stored.ActualDuration)

	profile := f.store.Profile(owner)
	require.NotNil(t, profile)
	assert.Equal(t, []string{"early-riser", "focused"}, profile.Traits)

	_, err = f.svc.CompleteTask(ctx, owner, task.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestCompleteMissedTaskIsRejected(t *testing.T) {
	t.Parallel()
	f := newFixture(t, mocks.NewMockOracleClientWithReply("punctual"))
	ctx := context.Background()
	owner := uuid.New()

	task, err := f.svc.CreateTask(ctx, owner, "write report")
	require.NoError(t, err)
	_, err = f.svc.MarkMissed(ctx, owner, task.ID)
	require.NoError(t, err)

	f.clock.Set(at(2, 13, 0))
	_, err = f.svc.CompleteTask(ctx, owner, task.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	stored := f.store.Task(task.ID)
	assert.Equal(t, domain.TaskStatusMissed, stored.Status)
	assert.Nil(t, stored.CompletedAt)
	assert.Nil(t, f.store.Profile(owner), "traits are not evolved")
	assert.Zero(t, f.client.CallCount())
}

func TestCompleteTaskKeepsTraitsWhenOracleFails(t *testing.T) {
	t.Parallel()
	f := newFixture(t, mocks.NewMockOracleClientWithError(errors.New("unavailable")))
	ctx := context.Background()
	owner := uuid.New()
	f.store.PutProfile(&domain.UserProfile{UserID: owner, Traits: []string{"night-owl"}})

	task, err := f.svc.CreateTask(ctx, owner, "write report")
	require.NoError(t, err)

	f.clock.Set(at(2, 12, 40))
	outcome, err := f.svc.CompleteTask(ctx, owner, task.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"night-owl"}, outcome.Traits)
	assert.Equal(t, oracle.SourceDefaulted, outcome.TraitsSource)
	assert.Equal(t, []string{"night-owl"}, f.store.Profile(owner).Traits)
}

func TestCompleteTaskCreatesProfile(t *testing.T) {
	t.Parallel()
	f := newFixture(t, mocks.NewMockOracleClientWithReply("punctual"))
	ctx := context.Background()
	owner := uuid.New()

	task, err := f.svc.CreateTask(ctx, owner, "write report")
	require.NoError(t, err)

	_, err = f.svc.CompleteTask(ctx, owner, task.ID)
	require.NoError(t, err)

	profile := f.store.Profile(owner)
	require.NotNil(t, profile)
	assert.Equal(t, []string{"punctual"}, profile.Traits)
}

func TestCompleteTaskRollsBackWhenTraitsFail(t *testing.T) {
	t.Parallel()
	f := newFixture(t, mocks.NewMockOracleClientWithReply("punctual"))
	ctx := context.Background()
	owner := uuid.New()

	task, err := f.svc.CreateTask(ctx, owner, "write report")
	require.NoError(t, err)

	f.store.UpsertErr = errors.New("connection reset")
	_, err = f.svc.CompleteTask(ctx, owner, task.ID)

	var serviceErr *service.TaskServiceError
	require.ErrorAs(t, err, &serviceErr)
	assert.Equal(t, "complete_task", serviceErr.Operation)
	assert.Equal(t, domain.TaskStatusPending, f.store.Task(task.ID).Status, "completion is rolled back")
}

func TestCompleteTaskOwnership(t *testing.T) {
	t.Parallel()
	f := newFixture(t, nil)
	ctx := context.Background()
	owner := uuid.New()

	task, err := f.svc.CreateTask(ctx, owner, "write report")
	require.NoError(t, err)

	_, err = f.svc.CompleteTask(ctx, uuid.New(), task.ID)
	assert.ErrorIs(t, err, service.ErrNotOwned)

	_, err = f.svc.CompleteTask(ctx, owner, uuid.New())
	assert.ErrorIs(t, err, service.ErrTaskNotFound)

	assert.Zero(t, f.client.CallCount())
}

func TestMarkMissed(t *testing.T) {
	t.Parallel()
	f := newFixture(t, nil)
	ctx := context.Background()
	owner := uuid.New()

	task, err := f.svc.CreateTask(ctx, owner, "write report")
	require.NoError(t, err)

	missed, err := f.svc.MarkMissed(ctx, owner, task.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TaskStatusMissed, missed.Status)
	assert.Equal(t, domain.TaskStatusMissed, f.store.Task(task.ID).Status)

	_, err = f.svc.MarkMissed(ctx, owner, task.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	_, err = f.svc.MarkMissed(ctx, uuid.New(), task.ID)
	assert.ErrorIs(t, err, service.ErrNotOwned)
}

func TestReassignTask(t *testing.T) {
	t.Parallel()
	reply := `{"updatedTraits":["late-starter"],"period":"evening","priority":1,"suggestedTimeSlot":"18:00","estimatedDuration":60}`
	client := &mocks.MockOracleClient{Reply: reply}
	f := newFixture(t, client)
	ctx := context.Background()
	owner := uuid.New()

	gym, err := f.svc.CreateTask(ctx, owner, "gym session")
	require.NoError(t, err)
	dinner, err := f.svc.CreateTask(ctx, owner, "dinner with Jo")
	require.NoError(t, err)
	require.Equal(t, at(2, 17, 0), dinner.Window.Start)

	_, err = f.svc.MarkMissed(ctx, owner, gym.ID)
	require.NoError(t, err)

	outcome, err := f.svc.ReassignTask(ctx, owner, gym.ID, " overslept ")
	require.NoError(t, err)

	assert.Equal(t, domain.TaskStatusPending, outcome.Task.Status)
	assert.Equal(t, domain.PeriodEvening, outcome.Task.Period)
	assert.Equal(t, domain.TimeWindow{Start: at(2, 18, 0), End: at(2, 19, 0)}, outcome.Task.Window)
	assert.Equal(t, 60, outcome.Task.EstimatedDuration)
	assert.Equal(t, 1, outcome.Task.Priority)
	assert.Equal(t, "overslept", outcome.Task.ReassignmentReason)
	assert.Equal(t, "18:00", outcome.SuggestedTimeSlot)
	assert.Equal(t, []string{"late-starter"}, outcome.Traits)
	assert.Equal(t, oracle.SourceParsed, outcome.TraitsSource)
	assert.False(t, outcome.Fallback)

	assert.Equal(t, []string{"late-starter"}, f.store.Profile(owner).Traits)
	assert.Equal(t, *outcome.Task, *f.store.Task(gym.ID))
}

func TestReassignTaskDefaultsOnOracleFailure(t *testing.T) {
	t.Parallel()
	f := newFixture(t, mocks.NewMockOracleClientWithError(errors.New("quota exceeded")))
	ctx := context.Background()
	owner := uuid.New()
	f.store.PutProfile(&domain.UserProfile{UserID: owner, Traits: []string{"night-owl"}})

	task, err := f.svc.CreateTask(ctx, owner, "go for a morning walk")
	require.NoError(t, err)

	outcome, err := f.svc.ReassignTask(ctx, owner, task.ID, "rain")
	require.NoError(t, err)
	assert.Equal(t, domain.PeriodAfternoon, outcome.Task.Period)
	assert.Equal(t, 30, outcome.Task.EstimatedDuration)
	assert.Equal(t, 2, outcome.Task.Priority)
	assert.Equal(t, at(2, 12, 0), outcome.Task.Window.Start)
	assert.Equal(t, []string{"night-owl"}, outcome.Traits)
	assert.Equal(t, oracle.SourceDefaulted, outcome.TraitsSource)
}

func TestReassignTaskErrors(t *testing.T) {
	t.Parallel()
	f := newFixture(t, mocks.NewMockOracleClientWithReply("punctual"))
	ctx := context.Background()
	owner := uuid.New()

	task, err := f.svc.CreateTask(ctx, owner, "write report")
	require.NoError(t, err)

	_, err = f.svc.ReassignTask(ctx, owner, task.ID, "  ")
	assert.ErrorIs(t, err, domain.ErrEmptyReason)

	_, err = f.svc.ReassignTask(ctx, uuid.New(), task.ID, "busy")
	assert.ErrorIs(t, err, service.ErrNotOwned)

	_, err = f.svc.ReassignTask(ctx, owner, uuid.New(), "busy")
	assert.ErrorIs(t, err, service.ErrTaskNotFound)

	_, err = f.svc.CompleteTask(ctx, owner, task.ID)
	require.NoError(t, err)
	_, err = f.svc.ReassignTask(ctx, owner, task.ID, "busy")
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestConcurrentCreatesStayDisjoint(t *testing.T) {
	t.Parallel()
	f := newFixture(t, nil)
	ctx := context.Background()
	owner := uuid.New()

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.CreateTask(ctx, owner, "write report")
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	tasks, err := f.svc.ListTasks(ctx, owner)
	require.NoError(t, err)
	require.Len(t, tasks, 8)
	for i := range tasks {
		for j := i + 1; j < len(tasks); j++ {
			assert.False(t, schedule.Conflicts(tasks[i].Window, tasks[j].Window),
				"%v overlaps %v", tasks[i].Window, tasks[j].Window)
		}
	}
}

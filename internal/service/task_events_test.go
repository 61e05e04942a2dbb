package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/phrazzld/tempo/internal/domain"
	"github.com/phrazzld/tempo/internal/domain/schedule"
	"github.com/phrazzld/tempo/internal/events"
	"github.com/phrazzld/tempo/internal/mocks"
	"github.com/phrazzld/tempo/internal/oracle"
	"github.com/phrazzld/tempo/internal/scheduling"
	"github.com/phrazzld/tempo/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingEmitter keeps every event it is given.
type recordingEmitter struct {
	mu     sync.Mutex
	events []*events.TaskEvent
	err    error
}

func (r *recordingEmitter) EmitEvent(_ context.Context, event *events.TaskEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return r.err
}

func (r *recordingEmitter) types() []events.Type {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]events.Type, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}

func newEventFixture(t *testing.T, emitter events.EventEmitter) (*mocks.MemoryStore, *clock, service.TaskService) {
	t.Helper()
	adapter, err := oracle.NewAdapter(mocks.NewMockOracleClientWithReply("steady"), discardLogger())
	require.NoError(t, err)
	engine := schedule.NewDefaultService()
	controller, err := scheduling.NewController(engine, adapter, discardLogger())
	require.NoError(t, err)

	mem := mocks.NewMemoryStore()
	c := &clock{now: at(2, 9, 0)}
	svc, err := service.NewTaskService(mem.Tasks(), mem.Profiles(), mem, controller, engine, discardLogger(),
		service.WithClock(c.Now), service.WithEventEmitter(emitter))
	require.NoError(t, err)
	return mem, c, svc
}

func TestTaskLifecycleEmitsEvents(t *testing.T) {
	t.Parallel()
	emitter := &recordingEmitter{}
	_, c, svc := newEventFixture(t, emitter)
	ctx := context.Background()
	owner := uuid.New()

	walk, err := svc.CreateTask(ctx, owner, "go for a morning walk")
	require.NoError(t, err)
	report, err := svc.CreateTask(ctx, owner, "write report")
	require.NoError(t, err)

	_, err = svc.MarkMissed(ctx, owner, walk.ID)
	require.NoError(t, err)
	_, err = svc.ReassignTask(ctx, owner, walk.ID, "overslept")
	require.NoError(t, err)

	c.Set(at(2, 12, 40))
	_, err = svc.CompleteTask(ctx, owner, report.ID)
	require.NoError(t, err)

	assert.Equal(t, []events.Type{
		events.TaskScheduled,
		events.TaskScheduled,
		events.TaskMissed,
		events.TaskReassigned,
		events.TaskCompleted,
	}, emitter.types())

	completed := emitter.events[4]
	assert.Equal(t, report.ID, completed.TaskID)
	assert.Equal(t, owner, completed.OwnerID)
	assert.Equal(t, domain.TaskStatusCompleted, completed.Status)
	var payload events.CompletedPayload
	require.NoError(t, completed.UnmarshalPayload(&payload))
	assert.Equal(t, 40, payload.ActualMinutes)
	assert.True(t, payload.OnTime)

	var moved events.ReassignedPayload
	require.NoError(t, emitter.events[3].UnmarshalPayload(&moved))
	assert.Equal(t, "overslept", moved.Reason)
}

func TestFailedChangesEmitNothing(t *testing.T) {
	t.Parallel()
	emitter := &recordingEmitter{}
	mem, _, svc := newEventFixture(t, emitter)
	mem.CreateErr = errors.New("disk full")

	_, err := svc.CreateTask(context.Background(), uuid.New(), "write report")
	require.Error(t, err)

	assert.Empty(t, emitter.types())
}

func TestEmitterFailureDoesNotFailOperation(t *testing.T) {
	t.Parallel()
	emitter := &recordingEmitter{err: errors.New("subscriber down")}
	mem, _, svc := newEventFixture(t, emitter)

	task, err := svc.CreateTask(context.Background(), uuid.New(), "write report")
	require.NoError(t, err)

	assert.NotNil(t, mem.Task(task.ID))
	assert.Len(t, emitter.types(), 1)
}

// blockAfternoons fills every afternoon of the search horizon starting on day.
func blockAfternoons(t *testing.T, mem *mocks.MemoryStore, owner uuid.UUID, day int) {
	t.Helper()
	for d := day; d < day+7; d++ {
		busy, err := domain.NewTask(owner, "offsite", domain.Schedule{
			Window:            domain.NewTimeWindow(at(d, 11, 0), 390),
			Period:            domain.PeriodAfternoon,
			EstimatedDuration: 390,
			Priority:          2,
		}, at(1, 8, 0))
		require.NoError(t, err)
		mem.PutTask(busy)
	}
}

func TestReplacedSlotReportsFallback(t *testing.T) {
	t.Parallel()
	planned := domain.Schedule{
		Window:            domain.NewTimeWindow(at(2, 12, 0), 30),
		Period:            domain.PeriodAfternoon,
		EstimatedDuration: 30,
		Priority:          2,
	}
	planner := &stubPlanner{
		plan: scheduling.Plan{Schedule: planned},
		reassign: scheduling.Reassignment{
			Plan:   scheduling.Plan{Schedule: planned},
			Reason: "overslept",
			Traits: scheduling.TraitUpdate{Source: oracle.SourceDefaulted},
		},
	}
	emitter := &recordingEmitter{}
	mem := mocks.NewMemoryStore()
	c := &clock{now: at(2, 9, 0)}
	svc, err := service.NewTaskService(mem.Tasks(), mem.Profiles(), mem, planner,
		schedule.NewDefaultService(), discardLogger(),
		service.WithClock(c.Now), service.WithEventEmitter(emitter))
	require.NoError(t, err)

	ctx := context.Background()
	owner := uuid.New()
	gym, err := domain.NewTask(owner, "gym session", domain.Schedule{
		Window:            domain.NewTimeWindow(at(2, 6, 0), 30),
		Period:            domain.PeriodMorning,
		EstimatedDuration: 30,
		Priority:          2,
	}, at(1, 8, 0))
	require.NoError(t, err)
	mem.PutTask(gym)
	blockAfternoons(t, mem, owner, 2)

	created, err := svc.CreateTask(ctx, owner, "write report")
	require.NoError(t, err)
	assert.Equal(t, at(3, 12, 0), created.Window.Start)

	outcome, err := svc.ReassignTask(ctx, owner, gym.ID, "overslept")
	require.NoError(t, err)
	assert.True(t, outcome.Fallback)
	assert.Equal(t, at(3, 12, 0), outcome.Task.Window.Start)

	require.Equal(t, []events.Type{events.TaskScheduled, events.TaskReassigned}, emitter.types())
	var scheduled events.ScheduledPayload
	require.NoError(t, emitter.events[0].UnmarshalPayload(&scheduled))
	assert.True(t, scheduled.Fallback)
	var moved events.ReassignedPayload
	require.NoError(t, emitter.events[1].UnmarshalPayload(&moved))
	assert.True(t, moved.Fallback)
}

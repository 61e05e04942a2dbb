package events

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/tempo/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockEventHandler records the events it receives.
type MockEventHandler struct {
	HandledCount int
	LastEvent    *TaskEvent
	HandlerError error
}

func (m *MockEventHandler) HandleEvent(_ context.Context, event *TaskEvent) error {
	m.HandledCount++
	m.LastEvent = event
	return m.HandlerError
}

func testTask() *domain.Task {
	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	return &domain.Task{
		ID:      uuid.New(),
		OwnerID: uuid.New(),
		Status:  domain.TaskStatusCompleted,
		Period:  domain.PeriodMorning,
		Window:  domain.NewTimeWindow(start, 45),
	}
}

func TestNewTaskEvent(t *testing.T) {
	task := testTask()
	now := time.Date(2026, 3, 2, 10, 10, 0, 0, time.FixedZone("CET", 3600))

	event, err := NewTaskEvent(TaskCompleted, task, CompletedPayload{
		ActualMinutes: 70,
		OnTime:        true,
		TraitsSource:  "parsed",
	}, now)
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, event.ID)
	assert.Equal(t, TaskCompleted, event.Type)
	assert.Equal(t, task.ID, event.TaskID)
	assert.Equal(t, task.OwnerID, event.OwnerID)
	assert.Equal(t, domain.TaskStatusCompleted, event.Status)
	assert.Equal(t, domain.PeriodMorning, event.Period)
	assert.Equal(t, time.UTC, event.OccurredAt.Location())

	var payload CompletedPayload
	require.NoError(t, event.UnmarshalPayload(&payload))
	assert.Equal(t, 70, payload.ActualMinutes)
	assert.True(t, payload.OnTime)
}

func TestNewTaskEventWithoutPayload(t *testing.T) {
	event, err := NewTaskEvent(TaskMissed, testTask(), nil, time.Now())
	require.NoError(t, err)
	assert.Empty(t, event.Payload)
}

func TestNewTaskEventRejectsUnencodablePayload(t *testing.T) {
	_, err := NewTaskEvent(TaskScheduled, testTask(), map[string]interface{}{"bad": make(chan int)}, time.Now())
	assert.Error(t, err)
}

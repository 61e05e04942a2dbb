package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/tempo/internal/domain"
)

// Type names a task lifecycle event.
type Type string

// Task lifecycle event types
const (
	TaskScheduled  Type = "task.scheduled"
	TaskCompleted  Type = "task.completed"
	TaskMissed     Type = "task.missed"
	TaskReassigned Type = "task.reassigned"
)

// TaskEvent records a committed change to a task.
type TaskEvent struct {
	// ID is a unique identifier for this event
	ID uuid.UUID `json:"id"`

	Type    Type      `json:"type"`
	OwnerID uuid.UUID `json:"owner_id"`
	TaskID  uuid.UUID `json:"task_id"`

	// Status, Period and Window describe the task after the change.
	Status domain.TaskStatus `json:"status"`
	Period domain.Period     `json:"period"`
	Window domain.TimeWindow `json:"window"`

	// Payload carries type-specific details serialized as JSON
	Payload json.RawMessage `json:"payload,omitempty"`

	OccurredAt time.Time `json:"occurred_at"`
}

// CompletedPayload is the payload of TaskCompleted.
type CompletedPayload struct {
	ActualMinutes int    `json:"actual_minutes"`
	OnTime        bool   `json:"on_time"`
	TraitsSource  string `json:"traits_source"`
}

// ReassignedPayload is the payload of TaskReassigned.
type ReassignedPayload struct {
	Reason            string `json:"reason"`
	Fallback          bool   `json:"fallback"`
	SuggestedTimeSlot string `json:"suggested_time_slot,omitempty"`
	TraitsSource      string `json:"traits_source"`
}

// ScheduledPayload is the payload of TaskScheduled.
type ScheduledPayload struct {
	Fallback bool `json:"fallback"`
}

// NewTaskEvent creates an event of eventType describing task. A nil payload
// leaves Payload empty.
func NewTaskEvent(eventType Type, task *domain.Task, payload interface{}, now time.Time) (*TaskEvent, error) {
	var raw json.RawMessage
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		raw = b
	}

	return &TaskEvent{
		ID:         uuid.New(),
		Type:       eventType,
		OwnerID:    task.OwnerID,
		TaskID:     task.ID,
		Status:     task.Status,
		Period:     task.Period,
		Window:     task.Window,
		Payload:    raw,
		OccurredAt: now.UTC(),
	}, nil
}

// UnmarshalPayload decodes the event payload into v.
func (e *TaskEvent) UnmarshalPayload(v interface{}) error {
	return json.Unmarshal(e.Payload, v)
}

// EventHandler processes emitted events.
type EventHandler interface {
	HandleEvent(ctx context.Context, event *TaskEvent) error
}

// HandlerFunc adapts a function to EventHandler.
type HandlerFunc func(ctx context.Context, event *TaskEvent) error

// HandleEvent calls f.
func (f HandlerFunc) HandleEvent(ctx context.Context, event *TaskEvent) error {
	return f(ctx, event)
}

// EventEmitter publishes events to registered handlers.
type EventEmitter interface {
	// EmitEvent publishes the given event to all registered handlers.
	// Returns an error if the event cannot be emitted.
	EmitEvent(ctx context.Context, event *TaskEvent) error
}

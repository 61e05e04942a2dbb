package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// TaskStatus represents the lifecycle state of a task.
type TaskStatus string

// Possible task status values
const (
	TaskStatusPending   TaskStatus = "pending"
	TaskStatusCompleted TaskStatus = "completed"
	TaskStatusMissed    TaskStatus = "missed"
)

// Priority values. Tasks whose period was inferred from an explicit keyword
// rank above tasks that fell back to the default period.
const (
	PriorityExplicit = 1
	PriorityDefault  = 2
)

// Task validation errors
var (
	ErrTaskIDEmpty       = errors.New("task ID cannot be empty")
	ErrTaskOwnerIDEmpty  = errors.New("task owner ID cannot be empty")
	ErrTaskStatusInvalid = errors.New("invalid task status")
	ErrTaskDurationZero  = errors.New("estimated duration must be positive")
	ErrTaskPriority      = errors.New("priority must be 1 or 2")
)

// Schedule is the outcome of a scheduling decision: where a task goes and how
// it ranks.
type Schedule struct {
	Window            TimeWindow `json:"window"`
	Period            Period     `json:"period"`
	EstimatedDuration int        `json:"estimated_duration"`
	Priority          int        `json:"priority"`
}

// Validate checks the schedule invariants.
func (s Schedule) Validate() error {
	if err := s.Window.Validate(); err != nil {
		return err
	}
	if !s.Period.IsValid() {
		return ErrInvalidPeriod
	}
	if s.EstimatedDuration <= 0 {
		return ErrTaskDurationZero
	}
	if s.Priority != PriorityExplicit && s.Priority != PriorityDefault {
		return ErrTaskPriority
	}
	return nil
}

// Task is a unit of work owned by exactly one user, placed into a
// conflict-free window of one of the daily periods.
type Task struct {
	ID                 uuid.UUID  `json:"id"`
	OwnerID            uuid.UUID  `json:"owner_id"`
	Description        string     `json:"description"`
	Status             TaskStatus `json:"status"`
	Window             TimeWindow `json:"window"`
	Period             Period     `json:"period"`
	EstimatedDuration  int        `json:"estimated_duration"`
	Priority           int        `json:"priority"`
	CompletedAt        *time.Time `json:"completed_at,omitempty"`
	ActualDuration     *int       `json:"actual_duration,omitempty"`
	ReassignmentReason string     `json:"reassignment_reason,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// NewTask creates a pending task for ownerID with the given schedule.
// Returns an error if validation fails.
func NewTask(ownerID uuid.UUID, description string, s Schedule, now time.Time) (*Task, error) {
	task := &Task{
		ID:          uuid.New(),
		OwnerID:     ownerID,
		Description: strings.TrimSpace(description),
		Status:      TaskStatusPending,
		CreatedAt:   now.UTC(),
		UpdatedAt:   now.UTC(),
	}
	task.applySchedule(s)

	if err := task.Validate(); err != nil {
		return nil, err
	}

	return task, nil
}

// Validate checks if the Task has valid data.
func (t *Task) Validate() error {
	if t.ID == uuid.Nil {
		return ErrTaskIDEmpty
	}
	if t.OwnerID == uuid.Nil {
		return ErrTaskOwnerIDEmpty
	}
	if strings.TrimSpace(t.Description) == "" {
		return ErrEmptyDescription
	}
	if !isValidTaskStatus(t.Status) {
		return ErrTaskStatusInvalid
	}
	if err := t.Schedule().Validate(); err != nil {
		return err
	}
	if t.Status == TaskStatusCompleted && (t.CompletedAt == nil || t.ActualDuration == nil) {
		return NewValidationError("completed_at", "is required for completed tasks", ErrValidation)
	}
	return nil
}

// Schedule returns the task's current scheduling decision.
func (t *Task) Schedule() Schedule {
	return Schedule{
		Window:            t.Window,
		Period:            t.Period,
		EstimatedDuration: t.EstimatedDuration,
		Priority:          t.Priority,
	}
}

// Complete marks a pending task completed at now with the measured duration.
// A missed task has to be reassigned before it can be completed.
func (t *Task) Complete(now time.Time, actualMinutes int) error {
	if t.Status != TaskStatusPending {
		return ErrInvalidTransition
	}
	completedAt := now.UTC()
	t.Status = TaskStatusCompleted
	t.CompletedAt = &completedAt
	t.ActualDuration = &actualMinutes
	t.UpdatedAt = completedAt
	return nil
}

// MarkMissed records that the task's window passed without completion.
func (t *Task) MarkMissed(now time.Time) error {
	if t.Status != TaskStatusPending {
		return ErrInvalidTransition
	}
	t.Status = TaskStatusMissed
	t.UpdatedAt = now.UTC()
	return nil
}

// Reassign puts a pending or missed task back to pending with a new schedule
// and records why it had to move.
func (t *Task) Reassign(s Schedule, reason string, now time.Time) error {
	if t.Status == TaskStatusCompleted {
		return ErrInvalidTransition
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return ErrEmptyReason
	}
	if err := s.Validate(); err != nil {
		return err
	}
	t.applySchedule(s)
	t.Status = TaskStatusPending
	t.ReassignmentReason = reason
	t.UpdatedAt = now.UTC()
	return nil
}

func (t *Task) applySchedule(s Schedule) {
	t.Window = s.Window
	t.Period = s.Period
	t.EstimatedDuration = s.EstimatedDuration
	t.Priority = s.Priority
}

// isValidTaskStatus checks if the given status is a valid TaskStatus.
func isValidTaskStatus(status TaskStatus) bool {
	switch status {
	case TaskStatusPending, TaskStatusCompleted, TaskStatusMissed:
		return true
	default:
		return false
	}
}

package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/phrazzld/tempo/internal/domain"
)

// TaskStore defines the interface for task data persistence.
type TaskStore interface {
	// Create saves a new task. Returns validation errors from the domain
	// Task if its data is invalid.
	Create(ctx context.Context, task *domain.Task) error

	// Update overwrites an existing task's mutable fields.
	// Returns ErrTaskNotFound if the task does not exist.
	Update(ctx context.Context, task *domain.Task) error

	// GetByID retrieves a task by its unique ID.
	// Returns ErrTaskNotFound if the task does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error)

	// ListByOwner returns all tasks of ownerID ordered by window start.
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*domain.Task, error)

	// PendingWindows returns the windows of the owner's pending tasks,
	// excluding excludeID. Pass uuid.Nil to exclude nothing.
	PendingWindows(ctx context.Context, ownerID, excludeID uuid.UUID) ([]domain.TimeWindow, error)

	// LockOwner serializes schedule changes for ownerID until the enclosing
	// transaction ends. Outside a transaction it is a no-op.
	LockOwner(ctx context.Context, ownerID uuid.UUID) error

	// WithTx returns a TaskStore bound to tx.
	WithTx(tx *sql.Tx) TaskStore
}

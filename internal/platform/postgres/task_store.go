package postgres

import (
	"context"
	"database/sql"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/tempo/internal/domain"
	"github.com/phrazzld/tempo/internal/platform/logger"
	"github.com/phrazzld/tempo/internal/redact"
	"github.com/phrazzld/tempo/internal/store"
)

const taskColumns = `id, owner_id, description, status, window_start, window_end, period,
	estimated_duration, priority, completed_at, actual_duration, reassignment_reason,
	created_at, updated_at`

// PostgresTaskStore implements the store.TaskStore interface
// using a PostgreSQL database as the storage backend.
type PostgresTaskStore struct {
	db     store.DBTX
	inTx   bool
	logger *slog.Logger
}

// NewPostgresTaskStore creates a new PostgreSQL implementation of the TaskStore interface.
// If logger is nil, a default logger will be used.
func NewPostgresTaskStore(db store.DBTX, logger *slog.Logger) *PostgresTaskStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresTaskStore{
		db:     db,
		logger: logger.With(slog.String("component", "task_store")),
	}
}

// Ensure PostgresTaskStore implements store.TaskStore interface
var _ store.TaskStore = (*PostgresTaskStore)(nil)

// WithTx implements store.TaskStore.WithTx
func (s *PostgresTaskStore) WithTx(tx *sql.Tx) store.TaskStore {
	return &PostgresTaskStore{
		db:     tx,
		inTx:   true,
		logger: s.logger,
	}
}

// Create implements store.TaskStore.Create
func (s *PostgresTaskStore) Create(ctx context.Context, task *domain.Task) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := task.Validate(); err != nil {
		log.Warn("task validation failed during create",
			slog.String("task_id", task.ID.String()),
			slog.String("error", err.Error()))
		return err
	}

	query := `
		INSERT INTO tasks (` + taskColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`
	_, err := s.db.ExecContext(ctx, query,
		task.ID,
		task.OwnerID,
		task.Description,
		string(task.Status),
		task.Window.Start,
		task.Window.End,
		string(task.Period),
		task.EstimatedDuration,
		task.Priority,
		nullTime(task),
		nullDuration(task),
		nullString(task.ReassignmentReason),
		task.CreatedAt,
		task.UpdatedAt,
	)
	if err != nil {
		log.Error("failed to insert task",
			slog.String("task_id", task.ID.String()),
			slog.String("error", redact.Error(err)))
		return MapError(err)
	}

	log.Debug("task created",
		slog.String("task_id", task.ID.String()),
		slog.String("owner_id", task.OwnerID.String()))
	return nil
}

// Update implements store.TaskStore.Update
func (s *PostgresTaskStore) Update(ctx context.Context, task *domain.Task) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := task.Validate(); err != nil {
		log.Warn("task validation failed during update",
			slog.String("task_id", task.ID.String()),
			slog.String("error", err.Error()))
		return err
	}

	query := `
		UPDATE tasks
		SET status = $2, window_start = $3, window_end = $4, period = $5,
			estimated_duration = $6, priority = $7, completed_at = $8,
			actual_duration = $9, reassignment_reason = $10, updated_at = $11
		WHERE id = $1
	`
	result, err := s.db.ExecContext(ctx, query,
		task.ID,
		string(task.Status),
		task.Window.Start,
		task.Window.End,
		string(task.Period),
		task.EstimatedDuration,
		task.Priority,
		nullTime(task),
		nullDuration(task),
		nullString(task.ReassignmentReason),
		task.UpdatedAt,
	)
	if err != nil {
		log.Error("failed to update task",
			slog.String("task_id", task.ID.String()),
			slog.String("error", redact.Error(err)))
		return MapError(err)
	}

	return CheckRowsAffected(result, store.ErrTaskNotFound)
}

// GetByID implements store.TaskStore.GetByID
func (s *PostgresTaskStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1`

	task, err := scanTask(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrTaskNotFound
		}
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to get task",
			slog.String("task_id", id.String()),
			slog.String("error", redact.Error(err)))
		return nil, MapError(err)
	}
	return task, nil
}

// ListByOwner implements store.TaskStore.ListByOwner
func (s *PostgresTaskStore) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*domain.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE owner_id = $1 ORDER BY window_start, created_at`

	rows, err := s.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to list tasks",
			slog.String("owner_id", ownerID.String()),
			slog.String("error", redact.Error(err)))
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	tasks := make([]*domain.Task, 0)
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task row: %w", MapError(err))
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating task rows: %w", MapError(err))
	}
	return tasks, nil
}

// PendingWindows implements store.TaskStore.PendingWindows
func (s *PostgresTaskStore) PendingWindows(
	ctx context.Context,
	ownerID, excludeID uuid.UUID,
) ([]domain.TimeWindow, error) {
	query := `
		SELECT window_start, window_end
		FROM tasks
		WHERE owner_id = $1 AND status = 'pending' AND id <> $2
		ORDER BY window_start
	`
	rows, err := s.db.QueryContext(ctx, query, ownerID, excludeID)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to load pending windows",
			slog.String("owner_id", ownerID.String()),
			slog.String("error", redact.Error(err)))
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	windows := make([]domain.TimeWindow, 0)
	for rows.Next() {
		var w domain.TimeWindow
		if err := rows.Scan(&w.Start, &w.End); err != nil {
			return nil, fmt.Errorf("failed to scan window row: %w", MapError(err))
		}
		windows = append(windows, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating window rows: %w", MapError(err))
	}
	return windows, nil
}

// LockOwner implements store.TaskStore.LockOwner with a transaction-scoped
// advisory lock keyed on the owner ID.
func (s *PostgresTaskStore) LockOwner(ctx context.Context, ownerID uuid.UUID) error {
	if !s.inTx {
		return nil
	}
	if _, err := s.db.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, ownerLockKey(ownerID)); err != nil {
		return fmt.Errorf("failed to lock owner schedule: %w", MapError(err))
	}
	return nil
}

// ownerLockKey folds a UUID into the int64 keyspace of advisory locks.
func ownerLockKey(id uuid.UUID) int64 {
	hi := binary.BigEndian.Uint64(id[:8])
	lo := binary.BigEndian.Uint64(id[8:])
	return int64(hi ^ lo)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (*domain.Task, error) {
	var (
		task        domain.Task
		status      string
		period      string
		completedAt sql.NullTime
		actual      sql.NullInt64
		reason      sql.NullString
	)

	err := row.Scan(
		&task.ID,
		&task.OwnerID,
		&task.Description,
		&status,
		&task.Window.Start,
		&task.Window.End,
		&period,
		&task.EstimatedDuration,
		&task.Priority,
		&completedAt,
		&actual,
		&reason,
		&task.CreatedAt,
		&task.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	task.Status = domain.TaskStatus(status)
	task.Period = domain.Period(period)
	if completedAt.Valid {
		t := completedAt.Time
		task.CompletedAt = &t
	}
	if actual.Valid {
		d := int(actual.Int64)
		task.ActualDuration = &d
	}
	task.ReassignmentReason = reason.String
	return &task, nil
}

func nullTime(task *domain.Task) sql.NullTime {
	if task.CompletedAt == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *task.CompletedAt, Valid: true}
}

func nullDuration(task *domain.Task) sql.NullInt64 {
	if task.ActualDuration == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*task.ActualDuration), Valid: true}
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/tempo/internal/domain"
	"github.com/phrazzld/tempo/internal/domain/schedule"
	"github.com/phrazzld/tempo/internal/events"
	"github.com/phrazzld/tempo/internal/oracle"
	"github.com/phrazzld/tempo/internal/platform/logger"
	"github.com/phrazzld/tempo/internal/scheduling"
	"github.com/phrazzld/tempo/internal/store"
)

// Planner makes scheduling decisions. *scheduling.Controller implements it.
type Planner interface {
	Create(
		ctx context.Context,
		description string,
		traits []string,
		commitments []domain.TimeWindow,
		now time.Time,
	) (scheduling.Plan, error)
	Complete(
		ctx context.Context,
		task *domain.Task,
		traits []string,
		now time.Time,
	) (scheduling.CompletionResult, error)
	Reassign(
		ctx context.Context,
		task *domain.Task,
		reason string,
		traits []string,
		commitments []domain.TimeWindow,
		now time.Time,
	) (scheduling.Reassignment, error)
}

var _ Planner = (*scheduling.Controller)(nil)

// Timing describes when a completed task actually ran.
type Timing struct {
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	Duration  int       `json:"duration"`
	IsOnTime  bool      `json:"is_on_time"`
}

// CompletionOutcome is the result of completing a task.
type CompletionOutcome struct {
	Task         *domain.Task
	Timing       Timing
	Traits       []string
	TraitsSource oracle.Source
}

// ReassignmentOutcome is the result of moving a task.
type ReassignmentOutcome struct {
	Task              *domain.Task
	Traits            []string
	TraitsSource      oracle.Source
	SuggestedTimeSlot string
	Fallback          bool
}

// TaskService provides the scheduling use cases for one owner's tasks.
type TaskService interface {
	// CreateTask schedules and stores a new task
	CreateTask(ctx context.Context, ownerID uuid.UUID, description string) (*domain.Task, error)

	// GetTask returns one of the owner's tasks
	GetTask(ctx context.Context, ownerID, taskID uuid.UUID) (*domain.Task, error)

	// ListTasks returns the owner's tasks ordered by window start
	ListTasks(ctx context.Context, ownerID uuid.UUID) ([]*domain.Task, error)

	// CompleteTask marks a task completed and evolves the owner's traits
	CompleteTask(ctx context.Context, ownerID, taskID uuid.UUID) (*CompletionOutcome, error)

	// MarkMissed records that a pending task was not done
	MarkMissed(ctx context.Context, ownerID, taskID uuid.UUID) (*domain.Task, error)

	// ReassignTask moves a task to a new window using the oracle's advice
	ReassignTask(ctx context.Context, ownerID, taskID uuid.UUID, reason string) (*ReassignmentOutcome, error)
}

// TaskServiceOption configures the task service.
type TaskServiceOption func(*taskServiceImpl)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) TaskServiceOption {
	return func(s *taskServiceImpl) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLocation sets the time zone slots are computed in.
func WithLocation(loc *time.Location) TaskServiceOption {
	return func(s *taskServiceImpl) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// WithEventEmitter publishes lifecycle events after each committed change.
func WithEventEmitter(emitter events.EventEmitter) TaskServiceOption {
	return func(s *taskServiceImpl) {
		s.events = emitter
	}
}

// taskServiceImpl implements the TaskService interface
type taskServiceImpl struct {
	tasks    store.TaskStore
	profiles store.ProfileStore
	uow      UnitOfWork
	planner  Planner
	engine   schedule.Service
	locks    *ownerLocks
	events   events.EventEmitter
	now      func() time.Time
	loc      *time.Location
	logger   *slog.Logger
}

// NewTaskService creates a new TaskService.
// It returns an error if any of the required dependencies are nil.
func NewTaskService(
	tasks store.TaskStore,
	profiles store.ProfileStore,
	uow UnitOfWork,
	planner Planner,
	engine schedule.Service,
	logger *slog.Logger,
	opts ...TaskServiceOption,
) (TaskService, error) {
	if tasks == nil {
		return nil, domain.NewValidationError("tasks", "cannot be nil", domain.ErrValidation)
	}
	if profiles == nil {
		return nil, domain.NewValidationError("profiles", "cannot be nil", domain.ErrValidation)
	}
	if uow == nil {
		return nil, domain.NewValidationError("uow", "cannot be nil", domain.ErrValidation)
	}
	if planner == nil {
		return nil, domain.NewValidationError("planner", "cannot be nil", domain.ErrValidation)
	}
	if engine == nil {
		return nil, domain.NewValidationError("engine", "cannot be nil", domain.ErrValidation)
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &taskServiceImpl{
		tasks:    tasks,
		profiles: profiles,
		uow:      uow,
		planner:  planner,
		engine:   engine,
		locks:    newOwnerLocks(),
		now:      time.Now,
		loc:      time.UTC,
		logger:   logger.With(slog.String("component", "task_service")),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *taskServiceImpl) clock() time.Time {
	return s.now().In(s.loc)
}

// CreateTask implements TaskService.CreateTask
func (s *taskServiceImpl) CreateTask(
	ctx context.Context,
	ownerID uuid.UUID,
	description string,
) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if strings.TrimSpace(description) == "" {
		return nil, domain.ErrEmptyDescription
	}

	release := s.locks.lock(ownerID)
	defer release()

	traits, err := s.loadTraits(ctx, ownerID)
	if err != nil {
		return nil, NewTaskServiceError("create_task", "failed to load traits", err)
	}
	commitments, err := s.tasks.PendingWindows(ctx, ownerID, uuid.Nil)
	if err != nil {
		return nil, NewTaskServiceError("create_task", "failed to load commitments", err)
	}

	now := s.clock()
	plan, err := s.planner.Create(ctx, description, traits, commitments, now)
	if err != nil {
		if errors.Is(err, domain.ErrValidation) {
			return nil, err
		}
		return nil, NewTaskServiceError("create_task", "failed to plan task", err)
	}

	var task *domain.Task
	err = s.uow.Run(ctx, func(ctx context.Context, tx Stores) error {
		if err := tx.Tasks.LockOwner(ctx, ownerID); err != nil {
			return err
		}
		confirmed, err := s.confirmSchedule(ctx, tx.Tasks, ownerID, uuid.Nil, plan, now)
		if err != nil {
			return err
		}
		plan = confirmed
		task, err = domain.NewTask(ownerID, description, plan.Schedule, now)
		if err != nil {
			return err
		}
		return tx.Tasks.Create(ctx, task)
	})
	if err != nil {
		log.Error("failed to create task",
			slog.String("owner_id", ownerID.String()),
			slog.String("error", err.Error()))
		if errors.Is(err, domain.ErrValidation) {
			return nil, err
		}
		return nil, NewTaskServiceError("create_task", "failed to save task", err)
	}

	log.Info("task created",
		slog.String("task_id", task.ID.String()),
		slog.String("period", string(task.Period)),
		slog.Time("start", task.Window.Start))
	s.emit(ctx, events.TaskScheduled, task, events.ScheduledPayload{Fallback: plan.Fallback}, now)
	return task, nil
}

// GetTask implements TaskService.GetTask
func (s *taskServiceImpl) GetTask(ctx context.Context, ownerID, taskID uuid.UUID) (*domain.Task, error) {
	return s.loadOwnedTask(ctx, s.tasks, "get_task", ownerID, taskID)
}

// ListTasks implements TaskService.ListTasks
func (s *taskServiceImpl) ListTasks(ctx context.Context, ownerID uuid.UUID) ([]*domain.Task, error) {
	tasks, err := s.tasks.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, NewTaskServiceError("list_tasks", "failed to list tasks", err)
	}
	return tasks, nil
}

// CompleteTask implements TaskService.CompleteTask
func (s *taskServiceImpl) CompleteTask(
	ctx context.Context,
	ownerID, taskID uuid.UUID,
) (*CompletionOutcome, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	release := s.locks.lock(ownerID)
	defer release()

	task, err := s.loadOwnedTask(ctx, s.tasks, "complete_task", ownerID, taskID)
	if err != nil {
		return nil, err
	}
	traits, err := s.loadTraits(ctx, ownerID)
	if err != nil {
		return nil, NewTaskServiceError("complete_task", "failed to load traits", err)
	}

	now := s.clock()
	result, err := s.planner.Complete(ctx, task, traits, now)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidTransition) {
			return nil, err
		}
		return nil, NewTaskServiceError("complete_task", "failed to measure completion", err)
	}

	err = s.uow.Run(ctx, func(ctx context.Context, tx Stores) error {
		if err := tx.Tasks.LockOwner(ctx, ownerID); err != nil {
			return err
		}
		current, err := s.loadOwnedTask(ctx, tx.Tasks, "complete_task", ownerID, taskID)
		if err != nil {
			return err
		}
		if err := current.Complete(now, result.ActualMinutes); err != nil {
			return err
		}
		if err := tx.Tasks.Update(ctx, current); err != nil {
			return err
		}
		task = current
		return s.saveTraits(ctx, tx.Profiles, ownerID, result.Traits.Traits, now)
	})
	if err != nil {
		if errors.Is(err, ErrTaskNotFound) || errors.Is(err, ErrNotOwned) ||
			errors.Is(err, domain.ErrInvalidTransition) {
			return nil, err
		}
		log.Error("failed to complete task",
			slog.String("task_id", taskID.String()),
			slog.String("error", err.Error()))
		return nil, NewTaskServiceError("complete_task", "failed to save completion", err)
	}

	log.Info("task completed",
		slog.String("task_id", taskID.String()),
		slog.Int("actual_minutes", result.ActualMinutes),
		slog.Bool("on_time", result.OnTime),
		slog.String("traits_source", string(result.Traits.Source)))
	s.emit(ctx, events.TaskCompleted, task, events.CompletedPayload{
		ActualMinutes: result.ActualMinutes,
		OnTime:        result.OnTime,
		TraitsSource:  string(result.Traits.Source),
	}, now)

	return &CompletionOutcome{
		Task: task,
		Timing: Timing{
			StartTime: task.Window.Start,
			EndTime:   result.CompletedAt,
			Duration:  result.ActualMinutes,
			IsOnTime:  result.OnTime,
		},
		Traits:       domain.CopyTraits(result.Traits.Traits),
		TraitsSource: result.Traits.Source,
	}, nil
}

// MarkMissed implements TaskService.MarkMissed
func (s *taskServiceImpl) MarkMissed(ctx context.Context, ownerID, taskID uuid.UUID) (*domain.Task, error) {
	release := s.locks.lock(ownerID)
	defer release()

	now := s.clock()
	var task *domain.Task
	err := s.uow.Run(ctx, func(ctx context.Context, tx Stores) error {
		current, err := s.loadOwnedTask(ctx, tx.Tasks, "mark_missed", ownerID, taskID)
		if err != nil {
			return err
		}
		if err := current.MarkMissed(now); err != nil {
			return err
		}
		task = current
		return tx.Tasks.Update(ctx, current)
	})
	if err != nil {
		if errors.Is(err, ErrTaskNotFound) || errors.Is(err, ErrNotOwned) ||
			errors.Is(err, domain.ErrInvalidTransition) {
			return nil, err
		}
		return nil, NewTaskServiceError("mark_missed", "failed to save task", err)
	}
	s.emit(ctx, events.TaskMissed, task, nil, now)
	return task, nil
}

// ReassignTask implements TaskService.ReassignTask
func (s *taskServiceImpl) ReassignTask(
	ctx context.Context,
	ownerID, taskID uuid.UUID,
	reason string,
) (*ReassignmentOutcome, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if strings.TrimSpace(reason) == "" {
		return nil, domain.ErrEmptyReason
	}

	release := s.locks.lock(ownerID)
	defer release()

	task, err := s.loadOwnedTask(ctx, s.tasks, "reassign_task", ownerID, taskID)
	if err != nil {
		return nil, err
	}
	traits, err := s.loadTraits(ctx, ownerID)
	if err != nil {
		return nil, NewTaskServiceError("reassign_task", "failed to load traits", err)
	}
	commitments, err := s.tasks.PendingWindows(ctx, ownerID, taskID)
	if err != nil {
		return nil, NewTaskServiceError("reassign_task", "failed to load commitments", err)
	}

	now := s.clock()
	moved, err := s.planner.Reassign(ctx, task, reason, traits, commitments, now)
	if err != nil {
		if errors.Is(err, domain.ErrValidation) || errors.Is(err, domain.ErrInvalidTransition) {
			return nil, err
		}
		return nil, NewTaskServiceError("reassign_task", "failed to plan reassignment", err)
	}

	err = s.uow.Run(ctx, func(ctx context.Context, tx Stores) error {
		if err := tx.Tasks.LockOwner(ctx, ownerID); err != nil {
			return err
		}
		current, err := s.loadOwnedTask(ctx, tx.Tasks, "reassign_task", ownerID, taskID)
		if err != nil {
			return err
		}
		confirmed, err := s.confirmSchedule(ctx, tx.Tasks, ownerID, taskID, moved.Plan, now)
		if err != nil {
			return err
		}
		moved.Plan = confirmed
		if err := current.Reassign(confirmed.Schedule, moved.Reason, now); err != nil {
			return err
		}
		if err := tx.Tasks.Update(ctx, current); err != nil {
			return err
		}
		task = current
		return s.saveTraits(ctx, tx.Profiles, ownerID, moved.Traits.Traits, now)
	})
	if err != nil {
		if errors.Is(err, ErrTaskNotFound) || errors.Is(err, ErrNotOwned) ||
			errors.Is(err, domain.ErrInvalidTransition) || errors.Is(err, domain.ErrValidation) {
			return nil, err
		}
		log.Error("failed to reassign task",
			slog.String("task_id", taskID.String()),
			slog.String("error", err.Error()))
		return nil, NewTaskServiceError("reassign_task", "failed to save reassignment", err)
	}
	s.emit(ctx, events.TaskReassigned, task, events.ReassignedPayload{
		Reason:            moved.Reason,
		Fallback:          moved.Fallback,
		SuggestedTimeSlot: moved.SuggestedTimeSlot,
		TraitsSource:      string(moved.Traits.Source),
	}, now)

	return &ReassignmentOutcome{
		Task:              task,
		Traits:            domain.CopyTraits(moved.Traits.Traits),
		TraitsSource:      moved.Traits.Source,
		SuggestedTimeSlot: moved.SuggestedTimeSlot,
		Fallback:          moved.Fallback,
	}, nil
}

// emit publishes a lifecycle event. The change is already committed, so a
// failure is only logged.
func (s *taskServiceImpl) emit(
	ctx context.Context,
	eventType events.Type,
	task *domain.Task,
	payload interface{},
	now time.Time,
) {
	if s.events == nil {
		return
	}
	log := logger.FromContextOrDefault(ctx, s.logger)

	event, err := events.NewTaskEvent(eventType, task, payload, now)
	if err == nil {
		err = s.events.EmitEvent(ctx, event)
	}
	if err != nil {
		log.Warn("failed to publish task event",
			slog.String("event_type", string(eventType)),
			slog.String("task_id", task.ID.String()),
			slog.String("error", err.Error()))
	}
}

// confirmSchedule re-checks a plan against commitments read under the owner
// lock and moves it if another writer took the slot in the meantime. The
// returned plan is flagged as a fallback when the re-placement exhausted the
// horizon.
func (s *taskServiceImpl) confirmSchedule(
	ctx context.Context,
	tasks store.TaskStore,
	ownerID, excludeID uuid.UUID,
	plan scheduling.Plan,
	now time.Time,
) (scheduling.Plan, error) {
	if plan.Fallback {
		return plan, nil
	}

	fresh, err := tasks.PendingWindows(ctx, ownerID, excludeID)
	if err != nil {
		return scheduling.Plan{}, err
	}
	for _, c := range fresh {
		if !schedule.Conflicts(plan.Schedule.Window, c) {
			continue
		}

		slot, err := s.engine.FindSlot(plan.Schedule.Period, plan.Schedule.EstimatedDuration, fresh, now)
		if err != nil {
			return scheduling.Plan{}, fmt.Errorf("failed to re-place task: %w", err)
		}
		logger.FromContextOrDefault(ctx, s.logger).Warn("planned slot was taken concurrently, re-placed",
			slog.String("owner_id", ownerID.String()),
			slog.Time("planned_start", plan.Schedule.Window.Start),
			slog.Time("start", slot.Window.Start),
			slog.Bool("fallback", slot.Fallback))
		plan.Schedule.Window = slot.Window
		plan.Fallback = slot.Fallback
		break
	}
	return plan, nil
}

func (s *taskServiceImpl) loadOwnedTask(
	ctx context.Context,
	tasks store.TaskStore,
	operation string,
	ownerID, taskID uuid.UUID,
) (*domain.Task, error) {
	task, err := tasks.GetByID(ctx, taskID)
	if err != nil {
		if store.IsNotFoundError(err) {
			return nil, ErrTaskNotFound
		}
		return nil, NewTaskServiceError(operation, "failed to load task", err)
	}
	if task.OwnerID != ownerID {
		logger.FromContextOrDefault(ctx, s.logger).Warn("task access denied",
			slog.String("task_id", taskID.String()),
			slog.String("owner_id", ownerID.String()))
		return nil, ErrNotOwned
	}
	return task, nil
}

// loadTraits returns a copy of the owner's traits; no profile means none.
func (s *taskServiceImpl) loadTraits(ctx context.Context, ownerID uuid.UUID) ([]string, error) {
	profile, err := s.profiles.Get(ctx, ownerID)
	if err != nil {
		if store.IsNotFoundError(err) {
			return []string{}, nil
		}
		return nil, err
	}
	return profile.TraitList(), nil
}

// saveTraits replaces the owner's trait list wholesale.
func (s *taskServiceImpl) saveTraits(
	ctx context.Context,
	profiles store.ProfileStore,
	ownerID uuid.UUID,
	traits []string,
	now time.Time,
) error {
	profile, err := profiles.Get(ctx, ownerID)
	if err != nil {
		if !store.IsNotFoundError(err) {
			return err
		}
		profile = domain.NewUserProfile(ownerID)
	}
	return profiles.Upsert(ctx, profile.WithTraits(traits, now))
}

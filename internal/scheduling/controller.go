package scheduling

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/phrazzld/tempo/internal/domain"
	"github.com/phrazzld/tempo/internal/domain/schedule"
	"github.com/phrazzld/tempo/internal/oracle"
	"github.com/phrazzld/tempo/internal/platform/logger"
)

// ErrInvalidConfig is returned when a Controller is built without its
// collaborators.
var ErrInvalidConfig = errors.New("invalid scheduling configuration")

// Plan is a scheduling decision for a new or moved task.
type Plan struct {
	Schedule domain.Schedule
	// Fallback is set when the horizon held no free slot.
	Fallback bool
}

// CompletionResult is the outcome of finishing a task.
type CompletionResult struct {
	ActualMinutes   int
	OnTime          bool
	CompletedAt     time.Time
	CompletedPeriod domain.Period
	Traits          TraitUpdate
}

// Reassignment is the new placement of a missed task.
type Reassignment struct {
	Plan
	Reason            string
	SuggestedTimeSlot string
	Traits            TraitUpdate
}

// Controller ties the engine to the oracle.
type Controller struct {
	engine        schedule.Service
	oracle        Oracle
	traits        *TraitAdapter
	reschedule    *RescheduleEngine
	suggestPeriod bool
	logger        *slog.Logger
}

// Option configures a Controller.
type Option func(*Controller)

// WithPeriodSuggestion lets the oracle pick a period for descriptions that
// carry no period keyword.
func WithPeriodSuggestion(enabled bool) Option {
	return func(c *Controller) {
		c.suggestPeriod = enabled
	}
}

// NewController creates a Controller.
func NewController(engine schedule.Service, o Oracle, log *slog.Logger, opts ...Option) (*Controller, error) {
	if engine == nil {
		return nil, fmt.Errorf("%w: engine cannot be nil", ErrInvalidConfig)
	}
	if o == nil {
		return nil, fmt.Errorf("%w: oracle cannot be nil", ErrInvalidConfig)
	}
	if log == nil {
		return nil, fmt.Errorf("%w: logger cannot be nil", ErrInvalidConfig)
	}

	c := &Controller{
		engine:     engine,
		oracle:     o,
		traits:     NewTraitAdapter(o),
		reschedule: NewRescheduleEngine(o),
		logger:     log.With(slog.String("component", "scheduling_controller")),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Create schedules a new task described by description against the owner's
// pending commitments.
func (c *Controller) Create(
	ctx context.Context,
	description string,
	traits []string,
	commitments []domain.TimeWindow,
	now time.Time,
) (Plan, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return Plan{}, domain.ErrEmptyDescription
	}

	period, explicit := c.engine.ClassifyPeriod(description)
	if !explicit {
		period = c.defaultPeriod(ctx, description, traits)
	}
	minutes := c.engine.EstimateDuration(description)

	slot, err := c.engine.FindSlot(period, minutes, commitments, now)
	if err != nil {
		return Plan{}, fmt.Errorf("failed to find slot: %w", err)
	}

	plan := Plan{
		Schedule: domain.Schedule{
			Window:            slot.Window,
			Period:            period,
			EstimatedDuration: minutes,
			Priority:          c.engine.AssignPriority(explicit),
		},
		Fallback: slot.Fallback,
	}

	logger.FromContextOrDefault(ctx, c.logger).DebugContext(ctx, "task planned",
		slog.String("period", string(period)),
		slog.Bool("explicit", explicit),
		slog.Int("duration", minutes),
		slog.Time("start", slot.Window.Start),
		slog.Bool("fallback", slot.Fallback))

	return plan, nil
}

// Complete measures a task finished at now and evolves the owner's traits.
// The task itself is not modified.
func (c *Controller) Complete(
	ctx context.Context,
	task *domain.Task,
	traits []string,
	now time.Time,
) (CompletionResult, error) {
	if task == nil {
		return CompletionResult{}, fmt.Errorf("%w: task cannot be nil", domain.ErrValidation)
	}
	if task.Status != domain.TaskStatusPending {
		return CompletionResult{}, domain.ErrInvalidTransition
	}

	measured := c.engine.MeasureCompletion(task.Window, now)
	completedPeriod := c.engine.PeriodAt(now)

	update := c.traits.Evolve(ctx, traits, oracle.Outcome{
		Task:             task.Description,
		OnTime:           measured.OnTime,
		AssignedPeriod:   task.Period,
		CompletedPeriod:  completedPeriod,
		EstimatedMinutes: task.EstimatedDuration,
		ActualMinutes:    measured.ActualMinutes,
	})

	return CompletionResult{
		ActualMinutes:   measured.ActualMinutes,
		OnTime:          measured.OnTime,
		CompletedAt:     now,
		CompletedPeriod: completedPeriod,
		Traits:          update,
	}, nil
}

// Reassign moves a missed or pending task to a new window chosen from the
// oracle's advice. commitments must not include the task's own window.
func (c *Controller) Reassign(
	ctx context.Context,
	task *domain.Task,
	reason string,
	traits []string,
	commitments []domain.TimeWindow,
	now time.Time,
) (Reassignment, error) {
	if task == nil {
		return Reassignment{}, fmt.Errorf("%w: task cannot be nil", domain.ErrValidation)
	}
	if task.Status == domain.TaskStatusCompleted {
		return Reassignment{}, domain.ErrInvalidTransition
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return Reassignment{}, domain.ErrEmptyReason
	}

	decision := c.reschedule.Decide(ctx, task.Description, reason, traits)

	slot, err := c.engine.FindSlot(decision.Period, decision.EstimatedDuration, commitments, now)
	if err != nil {
		return Reassignment{}, fmt.Errorf("failed to find slot: %w", err)
	}

	logger.FromContextOrDefault(ctx, c.logger).InfoContext(ctx, "task reassigned",
		slog.String("task_id", task.ID.String()),
		slog.String("period", string(decision.Period)),
		slog.String("oracle_source", string(decision.Source)),
		slog.Time("start", slot.Window.Start),
		slog.Bool("fallback", slot.Fallback))

	return Reassignment{
		Plan: Plan{
			Schedule: domain.Schedule{
				Window:            slot.Window,
				Period:            decision.Period,
				EstimatedDuration: decision.EstimatedDuration,
				Priority:          decision.Priority,
			},
			Fallback: slot.Fallback,
		},
		Reason:            reason,
		SuggestedTimeSlot: decision.SuggestedTimeSlot,
		Traits:            TraitUpdate{Traits: decision.Traits, Source: decision.Source},
	}, nil
}

// defaultPeriod is afternoon unless period suggestion is enabled and the
// oracle names a known period.
func (c *Controller) defaultPeriod(ctx context.Context, description string, traits []string) domain.Period {
	if !c.suggestPeriod {
		return domain.DefaultPeriod
	}

	result := c.oracle.SuggestPeriod(ctx, description, domain.CopyTraits(traits))
	if result.Defaulted() {
		return domain.DefaultPeriod
	}

	period, err := domain.ParsePeriod(result.Value)
	if err != nil {
		logger.FromContextOrDefault(ctx, c.logger).WarnContext(ctx, "oracle suggested unknown period, using default",
			slog.String("suggestion", result.Value))
		return domain.DefaultPeriod
	}
	return period
}

package oracle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/phrazzld/tempo/internal/domain"
	"github.com/phrazzld/tempo/internal/platform/logger"
	"github.com/phrazzld/tempo/internal/redact"
)

// DefaultTimeout bounds a single oracle question when none is configured.
const DefaultTimeout = 10 * time.Second

// Adapter asks the reasoning service the scheduler's questions and turns
// every reply, good or bad, into a usable Result.
type Adapter struct {
	client  Client
	prompts *Prompts
	timeout time.Duration
	logger  *slog.Logger
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithPrompts replaces the built-in prompt templates.
func WithPrompts(p *Prompts) Option {
	return func(a *Adapter) {
		if p != nil {
			a.prompts = p
		}
	}
}

// WithTimeout sets the per-question deadline.
func WithTimeout(d time.Duration) Option {
	return func(a *Adapter) {
		if d > 0 {
			a.timeout = d
		}
	}
}

// NewAdapter creates an Adapter around client.
func NewAdapter(client Client, log *slog.Logger, opts ...Option) (*Adapter, error) {
	if client == nil {
		return nil, fmt.Errorf("%w: client cannot be nil", ErrInvalidConfig)
	}
	if log == nil {
		return nil, fmt.Errorf("%w: logger cannot be nil", ErrInvalidConfig)
	}

	a := &Adapter{
		client:  client,
		timeout: DefaultTimeout,
		logger:  log.With(slog.String("component", "oracle_adapter")),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.prompts == nil {
		a.prompts = DefaultPrompts()
	}
	return a, nil
}

// ExtractTraits derives an initial trait list from onboarding answers.
// The default is an empty list.
func (a *Adapter) ExtractTraits(ctx context.Context, answers []Answer) Result[[]string] {
	reply, err := a.ask(ctx, "extract_traits", PromptExtractTraits, extractTraitsData{Answers: answers})
	if err != nil {
		return defaulted([]string{}, err)
	}

	traits := ParseTraitList(reply)
	if len(traits) == 0 {
		return fallback(ctx, a.logger, "extract_traits", []string{}, fmt.Errorf("%w: no traits in reply", ErrInvalidResponse))
	}
	return parsed(traits)
}

// EvolveTraits revises a trait list after a task is completed.
// The default is a copy of the previous list.
func (a *Adapter) EvolveTraits(ctx context.Context, previous []string, outcome Outcome) Result[[]string] {
	data := evolveTraitsData{Traits: previous, Outcome: outcome}
	reply, err := a.ask(ctx, "evolve_traits", PromptEvolveTraits, data)
	if err != nil {
		return defaulted(domain.CopyTraits(previous), err)
	}

	traits := ParseTraitList(reply)
	if len(traits) == 0 {
		return fallback(ctx, a.logger, "evolve_traits", domain.CopyTraits(previous),
			fmt.Errorf("%w: no traits in reply", ErrInvalidResponse))
	}
	return parsed(traits)
}

// Reschedule asks where a missed task should move and how the traits change.
// The default is afternoon, priority 2, 30 minutes and the previous traits.
func (a *Adapter) Reschedule(ctx context.Context, task, reason string, previous []string) Result[Reschedule] {
	data := rescheduleData{Traits: previous, Task: task, Reason: reason}
	reply, err := a.ask(ctx, "reschedule", PromptReschedule, data)
	if err != nil {
		return defaulted(DefaultReschedule(previous), err)
	}

	result := ParseReschedule(reply, previous)
	if result.Defaulted() {
		return fallback(ctx, a.logger, "reschedule", result.Value, result.Err)
	}
	return result
}

// SuggestPeriod asks for the period best suited to a task. The reply is
// normalized but not validated; the default is the empty string.
func (a *Adapter) SuggestPeriod(ctx context.Context, task string, traits []string) Result[string] {
	reply, err := a.ask(ctx, "suggest_period", PromptSuggestPeriod, suggestPeriodData{Traits: traits, Task: task})
	if err != nil {
		return defaulted("", err)
	}

	period := ParsePeriodText(reply)
	if period == "" {
		return fallback(ctx, a.logger, "suggest_period", "", fmt.Errorf("%w: empty reply", ErrInvalidResponse))
	}
	return parsed(period)
}

// ask renders the prompt and calls the client under the adapter's timeout.
// Failures are logged at WARN and returned for tagging.
func (a *Adapter) ask(ctx context.Context, question, promptName string, data any) (string, error) {
	log := logger.FromContextOrDefault(ctx, a.logger)

	prompt, err := a.prompts.render(promptName, data)
	if err != nil {
		log.WarnContext(ctx, "failed to render oracle prompt, using default",
			slog.String("question", question),
			slog.String("error", err.Error()))
		return "", err
	}

	callCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	start := time.Now()
	reply, err := a.client.Complete(callCtx, prompt)
	elapsed := time.Since(start)

	if err != nil {
		if errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			err = fmt.Errorf("%w: timed out after %s: %v", ErrTransientFailure, a.timeout, err)
		}
		log.WarnContext(ctx, "oracle call failed, using default",
			slog.String("question", question),
			slog.Duration("elapsed", elapsed),
			slog.String("error", redact.Error(err)))
		return "", err
	}

	if strings.TrimSpace(reply) == "" {
		err = fmt.Errorf("%w: empty reply", ErrInvalidResponse)
		log.WarnContext(ctx, "oracle returned empty reply, using default",
			slog.String("question", question))
		return "", err
	}

	log.DebugContext(ctx, "oracle call succeeded",
		slog.String("question", question),
		slog.Duration("elapsed", elapsed),
		slog.Int("reply_length", len(reply)))
	return reply, nil
}

// fallback logs an unparseable reply and tags the default.
func fallback[T any](ctx context.Context, base *slog.Logger, question string, value T, err error) Result[T] {
	logger.FromContextOrDefault(ctx, base).WarnContext(ctx, "unusable oracle reply, using default",
		slog.String("question", question),
		slog.String("error", err.Error()))
	return defaulted(value, err)
}

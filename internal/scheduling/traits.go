package scheduling

import (
	"context"

	"github.com/phrazzld/tempo/internal/domain"
	"github.com/phrazzld/tempo/internal/oracle"
)

// Oracle is the set of questions the scheduler asks the reasoning service.
// *oracle.Adapter satisfies it.
type Oracle interface {
	EvolveTraits(ctx context.Context, previous []string, outcome oracle.Outcome) oracle.Result[[]string]
	Reschedule(ctx context.Context, task, reason string, previous []string) oracle.Result[oracle.Reschedule]
	SuggestPeriod(ctx context.Context, task string, traits []string) oracle.Result[string]
}

var _ Oracle = (*oracle.Adapter)(nil)

// TraitUpdate is a replacement trait list and where it came from.
type TraitUpdate struct {
	Traits []string
	Source oracle.Source
}

// TraitAdapter evolves a trait list from completion outcomes.
type TraitAdapter struct {
	oracle Oracle
}

// NewTraitAdapter creates a TraitAdapter backed by o.
func NewTraitAdapter(o Oracle) *TraitAdapter {
	return &TraitAdapter{oracle: o}
}

// Evolve returns a new trait list. previous is never modified and never
// aliased by the result.
func (a *TraitAdapter) Evolve(ctx context.Context, previous []string, outcome oracle.Outcome) TraitUpdate {
	result := a.oracle.EvolveTraits(ctx, domain.CopyTraits(previous), outcome)
	return TraitUpdate{Traits: domain.CopyTraits(result.Value), Source: result.Source}
}

package scheduling

import (
	"context"

	"github.com/phrazzld/tempo/internal/domain"
	"github.com/phrazzld/tempo/internal/oracle"
)

// Decision is the RescheduleEngine's answer for a missed task.
type Decision struct {
	Period            domain.Period
	Priority          int
	EstimatedDuration int
	SuggestedTimeSlot string
	Traits            []string
	Source            oracle.Source
}

// RescheduleEngine asks the oracle where a missed task should go.
type RescheduleEngine struct {
	oracle Oracle
}

// NewRescheduleEngine creates a RescheduleEngine backed by o.
func NewRescheduleEngine(o Oracle) *RescheduleEngine {
	return &RescheduleEngine{oracle: o}
}

// Decide returns a validated decision. Any unusable oracle answer resolves
// to the afternoon default, so the result always describes a schedulable task.
func (e *RescheduleEngine) Decide(ctx context.Context, description, reason string, traits []string) Decision {
	result := e.oracle.Reschedule(ctx, description, reason, domain.CopyTraits(traits))
	value := result.Value
	source := result.Source

	// The adapter validates its answers; re-check in case a different
	// Oracle implementation is plugged in.
	if !value.Period.IsValid() || !validPriority(value.Priority) ||
		value.EstimatedDuration <= 0 || value.EstimatedDuration > oracle.MaxDuration {
		value = oracle.DefaultReschedule(traits)
		source = oracle.SourceDefaulted
	}

	return Decision{
		Period:            value.Period,
		Priority:          value.Priority,
		EstimatedDuration: value.EstimatedDuration,
		SuggestedTimeSlot: value.SuggestedTimeSlot,
		Traits:            domain.CopyTraits(value.Traits),
		Source:            source,
	}
}

func validPriority(p int) bool {
	return p == domain.PriorityExplicit || p == domain.PriorityDefault
}

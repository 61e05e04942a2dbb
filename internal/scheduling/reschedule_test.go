package scheduling

import (
	"context"
	"testing"

	"github.com/phrazzld/tempo/internal/domain"
	"github.com/phrazzld/tempo/internal/oracle"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type mockOracle struct {
	mock.Mock
}

func (m *mockOracle) EvolveTraits(ctx context.Context, previous []string, outcome oracle.Outcome) oracle.Result[[]string] {
	args := m.Called(ctx, previous, outcome)
	return args.Get(0).(oracle.Result[[]string])
}

func (m *mockOracle) Reschedule(ctx context.Context, task, reason string, previous []string) oracle.Result[oracle.Reschedule] {
	args := m.Called(ctx, task, reason, previous)
	return args.Get(0).(oracle.Result[oracle.Reschedule])
}

func (m *mockOracle) SuggestPeriod(ctx context.Context, task string, traits []string) oracle.Result[string] {
	args := m.Called(ctx, task, traits)
	return args.Get(0).(oracle.Result[string])
}

func TestRescheduleEngineDecide(t *testing.T) {
	t.Parallel()
	previous := []string{"night-owl"}

	tests := []struct {
		name       string
		answer     oracle.Reschedule
		wantPeriod domain.Period
		wantSource oracle.Source
	}{
		{
			name: "valid answer passes through",
			answer: oracle.Reschedule{
				Traits: []string{"tired"}, Period: domain.PeriodMidnight, Priority: 1, EstimatedDuration: 20,
			},
			wantPeriod: domain.PeriodMidnight,
			wantSource: oracle.SourceParsed,
		},
		{
			name:       "invalid period",
			answer:     oracle.Reschedule{Period: "brunch", Priority: 1, EstimatedDuration: 20},
			wantPeriod: domain.PeriodAfternoon,
			wantSource: oracle.SourceDefaulted,
		},
		{
			name:       "invalid priority",
			answer:     oracle.Reschedule{Period: domain.PeriodEvening, Priority: 7, EstimatedDuration: 20},
			wantPeriod: domain.PeriodAfternoon,
			wantSource: oracle.SourceDefaulted,
		},
		{
			name:       "zero duration",
			answer:     oracle.Reschedule{Period: domain.PeriodEvening, Priority: 1},
			wantPeriod: domain.PeriodAfternoon,
			wantSource: oracle.SourceDefaulted,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			o := &mockOracle{}
			o.On("Reschedule", mock.Anything, "gym", "rain", previous).
				Return(oracle.Result[oracle.Reschedule]{Value: tc.answer, Source: oracle.SourceParsed})

			got := NewRescheduleEngine(o).Decide(context.Background(), "gym", "rain", previous)

			assert.Equal(t, tc.wantPeriod, got.Period)
			assert.Equal(t, tc.wantSource, got.Source)
			assert.True(t, validPriority(got.Priority))
			assert.Positive(t, got.EstimatedDuration)
			o.AssertExpectations(t)
		})
	}
}

func TestTraitAdapterDoesNotAlias(t *testing.T) {
	t.Parallel()
	previous := []string{"calm"}
	shared := []string{"steady"}

	o := &mockOracle{}
	o.On("EvolveTraits", mock.Anything, previous, mock.Anything).
		Return(oracle.Result[[]string]{Value: shared, Source: oracle.SourceParsed})

	got := NewTraitAdapter(o).Evolve(context.Background(), previous, oracle.Outcome{Task: "x"})
	got.Traits[0] = "changed"

	assert.Equal(t, "steady", shared[0])
	assert.Equal(t, "calm", previous[0])
	o.AssertExpectations(t)
}

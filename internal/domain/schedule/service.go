package schedule

import (
	"errors"
	"time"

	"github.com/phrazzld/tempo/internal/domain"
)

// Common errors
var (
	ErrInvalidDuration = errors.New("duration must be positive")
)

// Completion is the measured outcome of finishing a task.
type Completion struct {
	ActualMinutes int  `json:"actual_minutes"`
	OnTime        bool `json:"on_time"`
}

// Service defines the interface for scheduling engine operations
type Service interface {
	// ClassifyPeriod returns the natural period of a description.
	// The boolean is false when no keyword matched.
	ClassifyPeriod(description string) (domain.Period, bool)

	// EstimateDuration returns the expected task length in minutes
	EstimateDuration(description string) int

	// FindSlot searches the horizon for a conflict-free window
	FindSlot(
		period domain.Period,
		minutes int,
		commitments []domain.TimeWindow,
		now time.Time,
	) (Slot, error)

	// AssignPriority ranks a task by whether its period was explicit
	AssignPriority(explicit bool) int

	// MeasureCompletion computes the actual duration and punctuality of a
	// task finished at now
	MeasureCompletion(window domain.TimeWindow, now time.Time) Completion

	// PeriodAt returns the period whose hour range contains t
	PeriodAt(t time.Time) domain.Period
}

// defaultService is the standard implementation of the Service interface
type defaultService struct {
	params *Params
}

// NewDefaultService creates a new scheduling engine with default parameters
func NewDefaultService() Service {
	return &defaultService{
		params: NewDefaultParams(),
	}
}

// NewServiceWithParams creates a new scheduling engine with custom parameters
func NewServiceWithParams(params *Params) Service {
	return &defaultService{
		params: params,
	}
}

func (s *defaultService) ClassifyPeriod(description string) (domain.Period, bool) {
	return classifyPeriod(description, s.params)
}

func (s *defaultService) EstimateDuration(description string) int {
	return estimateDuration(description, s.params)
}

// FindSlot implements the Service interface. Exhausting the horizon is not an
// error; the returned Slot is flagged as a fallback instead.
func (s *defaultService) FindSlot(
	period domain.Period,
	minutes int,
	commitments []domain.TimeWindow,
	now time.Time,
) (Slot, error) {
	if !period.IsValid() {
		return Slot{}, domain.ErrInvalidPeriod
	}
	if minutes <= 0 {
		return Slot{}, ErrInvalidDuration
	}

	return findSlot(period, minutes, commitments, now, s.params), nil
}

func (s *defaultService) AssignPriority(explicit bool) int {
	return assignPriority(explicit)
}

func (s *defaultService) MeasureCompletion(window domain.TimeWindow, now time.Time) Completion {
	return measureCompletion(window, now, s.params)
}

func (s *defaultService) PeriodAt(t time.Time) domain.Period {
	return periodAt(t, s.params)
}

// measureCompletion truncates both differences toward zero to whole minutes,
// so a completion 90 seconds before the window starts measures -1.
func measureCompletion(window domain.TimeWindow, now time.Time, params *Params) Completion {
	actual := int(now.Sub(window.Start) / time.Minute)
	late := int(now.Sub(window.End) / time.Minute)
	return Completion{
		ActualMinutes: actual,
		OnTime:        late <= params.GraceMinutes,
	}
}

// periodAt scans periods in declaration order. An hour not covered by any
// configured range maps to the default period.
func periodAt(t time.Time, params *Params) domain.Period {
	hour := t.Hour()
	for _, period := range domain.Periods() {
		r, ok := params.PeriodRanges[period]
		if !ok {
			continue
		}
		if r.Contains(hour) {
			return period
		}
	}
	return domain.DefaultPeriod
}

package domain

import "strings"

// Period is one of the four fixed daily time bands a task is bucketed into.
type Period string

// Known periods, in the order the classifier scans them.
const (
	PeriodMorning   Period = "morning"
	PeriodAfternoon Period = "afternoon"
	PeriodEvening   Period = "evening"
	PeriodMidnight  Period = "midnight"
)

// DefaultPeriod is used when a description carries no natural period.
const DefaultPeriod = PeriodAfternoon

// Periods returns the known periods in declaration order.
func Periods() []Period {
	return []Period{PeriodMorning, PeriodAfternoon, PeriodEvening, PeriodMidnight}
}

// IsValid reports whether p is one of the known periods.
func (p Period) IsValid() bool {
	switch p {
	case PeriodMorning, PeriodAfternoon, PeriodEvening, PeriodMidnight:
		return true
	default:
		return false
	}
}

// String implements fmt.Stringer.
func (p Period) String() string {
	return string(p)
}

// ParsePeriod normalizes s (trim, lower-case) and validates it.
func ParsePeriod(s string) (Period, error) {
	p := Period(strings.ToLower(strings.TrimSpace(s)))
	if !p.IsValid() {
		return "", ErrInvalidPeriod
	}
	return p, nil
}

package schedule

import (
	"github.com/phrazzld/tempo/internal/domain"
)

// HourRange is a half-open range of whole hours [Start, End) within a day.
// A range whose Start is greater than its End wraps past midnight.
type HourRange struct {
	Start int
	End   int
}

// Wraps reports whether the range crosses midnight.
func (r HourRange) Wraps() bool {
	return r.Start > r.End
}

// Contains reports whether hour falls inside the range.
func (r HourRange) Contains(hour int) bool {
	if r.Wraps() {
		return hour >= r.Start || hour < r.End
	}
	return hour >= r.Start && hour < r.End
}

// Hours returns the whole hours of the range in wall-clock order. For a
// wrapping range this is Start..23 followed by 0..End-1.
func (r HourRange) Hours() []int {
	if !r.Wraps() {
		hours := make([]int, 0, r.End-r.Start)
		for h := r.Start; h < r.End; h++ {
			hours = append(hours, h)
		}
		return hours
	}

	hours := make([]int, 0, 24-r.Start+r.End)
	for h := r.Start; h < 24; h++ {
		hours = append(hours, h)
	}
	for h := 0; h < r.End; h++ {
		hours = append(hours, h)
	}
	return hours
}

// PeriodKeywords associates a period with the words that signal it.
type PeriodKeywords struct {
	Period   domain.Period
	Keywords []string
}

// DurationRule maps any of its keywords to a duration in minutes.
type DurationRule struct {
	Keywords []string
	Minutes  int
}

// Params defines all configurable parameters for the scheduling engine
type Params struct {
	// Classification table, scanned in order; the first match wins.
	PeriodKeywords []PeriodKeywords

	// Wall-clock hours searched for each period.
	PeriodRanges map[domain.Period]HourRange

	// Duration rules, evaluated in order; the first match wins.
	DurationRules   []DurationRule
	DefaultDuration int

	// Number of period instances searched before falling back.
	HorizonDays int

	// Minutes after a window's end that still count as on time.
	GraceMinutes int
}

// ParamsConfig allows overriding the default parameters when creating a new Params instance
type ParamsConfig struct {
	HorizonDays  int
	GraceMinutes int
}

// NewDefaultParams creates a new Params instance with default values
func NewDefaultParams() *Params {
	return &Params{
		PeriodKeywords: []PeriodKeywords{
			{Period: domain.PeriodMorning, Keywords: []string{"morning", "breakfast", "dawn", "sunrise", "early", "am"}},
			{Period: domain.PeriodAfternoon, Keywords: []string{"afternoon", "lunch", "noon"}},
			{Period: domain.PeriodEvening, Keywords: []string{"evening", "sunset", "dinner", "dusk", "pm"}},
			{Period: domain.PeriodMidnight, Keywords: []string{"night", "midnight", "late", "bed"}},
		},

		PeriodRanges: map[domain.Period]HourRange{
			domain.PeriodMorning:   {Start: 6, End: 12},
			domain.PeriodAfternoon: {Start: 12, End: 17},
			domain.PeriodEvening:   {Start: 17, End: 22},
			domain.PeriodMidnight:  {Start: 22, End: 6},
		},

		// Order matters: "quick call" is a call, not a quick task.
		DurationRules: []DurationRule{
			{Keywords: []string{"walk", "exercise"}, Minutes: 45},
			{Keywords: []string{"meeting", "call"}, Minutes: 60},
			{Keywords: []string{"quick", "brief"}, Minutes: 15},
		},
		DefaultDuration: 30,

		HorizonDays:  7,
		GraceMinutes: 30,
	}
}

// NewParams creates a new Params instance with custom configuration
func NewParams(config ParamsConfig) *Params {
	params := NewDefaultParams()

	if config.HorizonDays > 0 {
		params.HorizonDays = config.HorizonDays
	}
	if config.GraceMinutes > 0 {
		params.GraceMinutes = config.GraceMinutes
	}

	return params
}

package schedule

import (
	"time"

	"github.com/phrazzld/tempo/internal/domain"
)

// Slot is the window chosen by the slot search.
type Slot struct {
	Window domain.TimeWindow `json:"window"`

	// Fallback is true when the horizon held no free candidate and the
	// window is the tomorrow-at-period-start default.
	Fallback bool `json:"fallback"`
}

// findSlot walks up to params.HorizonDays instances of the period, hour by
// hour, and returns the first candidate that starts at or after now and does
// not conflict with any commitment on the candidate's day.
//
// Candidates are built in now's location. The first instance is anchored on
// today, except while now is in the post-midnight tail of a wrapping period,
// in which case it is anchored on yesterday so the rest of the current night
// is still searched.
func findSlot(
	period domain.Period,
	minutes int,
	commitments []domain.TimeWindow,
	now time.Time,
	params *Params,
) Slot {
	rng := params.PeriodRanges[period]
	loc := now.Location()

	anchor := midnightOf(now)
	if rng.Wraps() && now.Hour() < rng.End {
		anchor = anchor.AddDate(0, 0, -1)
	}

	hours := rng.Hours()
	for instance := 0; instance < params.HorizonDays; instance++ {
		date := anchor.AddDate(0, 0, instance)

		for _, hour := range hours {
			day := date
			if rng.Wraps() && hour < rng.Start {
				day = date.AddDate(0, 0, 1)
			}

			start := time.Date(day.Year(), day.Month(), day.Day(), hour, 0, 0, 0, loc)
			if start.Before(now) {
				continue
			}

			candidate := domain.NewTimeWindow(start, minutes)
			if conflictsWithDay(candidate, commitments, loc) {
				continue
			}

			return Slot{Window: candidate}
		}
	}

	tomorrow := midnightOf(now).AddDate(0, 0, 1)
	start := time.Date(tomorrow.Year(), tomorrow.Month(), tomorrow.Day(), rng.Start, 0, 0, 0, loc)
	return Slot{Window: domain.NewTimeWindow(start, minutes), Fallback: true}
}

// conflictsWithDay checks the candidate against the commitments that touch
// one of its calendar days. A commitment touches a day when its start or end
// falls on it; the candidate's days are those of its own start and end.
func conflictsWithDay(candidate domain.TimeWindow, commitments []domain.TimeWindow, loc *time.Location) bool {
	for _, c := range commitments {
		if !sharesDay(candidate, c, loc) {
			continue
		}
		if Conflicts(candidate, c) {
			return true
		}
	}
	return false
}

func sharesDay(a, b domain.TimeWindow, loc *time.Location) bool {
	for _, x := range []time.Time{a.Start, a.End} {
		for _, y := range []time.Time{b.Start, b.End} {
			if sameDate(x, y, loc) {
				return true
			}
		}
	}
	return false
}

func sameDate(a, b time.Time, loc *time.Location) bool {
	ay, am, ad := a.In(loc).Date()
	by, bm, bd := b.In(loc).Date()
	return ay == by && am == bm && ad == bd
}

func midnightOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

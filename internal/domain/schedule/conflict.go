package schedule

import (
	"time"

	"github.com/phrazzld/tempo/internal/domain"
)

// Conflicts reports whether two windows overlap under the closed-interval
// policy: either endpoint of one window lying inside the other, bounds
// included, is a conflict. Windows that merely touch (one ends exactly when
// the other starts) therefore conflict.
func Conflicts(a, b domain.TimeWindow) bool {
	return within(a.Start, b) || within(a.End, b) ||
		within(b.Start, a) || within(b.End, a)
}

// within reports whether t lies in [w.Start, w.End].
func within(t time.Time, w domain.TimeWindow) bool {
	return !t.Before(w.Start) && !t.After(w.End)
}

package domain

import "time"

// TimeWindow is a scheduled interval. A valid window ends strictly after it starts.
type TimeWindow struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// NewTimeWindow returns a window starting at start and lasting minutes.
func NewTimeWindow(start time.Time, minutes int) TimeWindow {
	return TimeWindow{Start: start, End: start.Add(time.Duration(minutes) * time.Minute)}
}

// Validate checks the end > start invariant.
func (w TimeWindow) Validate() error {
	if !w.End.After(w.Start) {
		return ErrInvalidWindow
	}
	return nil
}

// Duration returns the window length.
func (w TimeWindow) Duration() time.Duration {
	return w.End.Sub(w.Start)
}

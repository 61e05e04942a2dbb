// Package schedule implements the pure scheduling engine: it classifies a task
// description into a daily period, estimates how long the task takes, searches
// a bounded horizon for a conflict-free window inside the period and ranks the
// result. Every function is deterministic given its inputs; the current time
// is always passed in rather than read from the clock.
package schedule

// Package scheduling orchestrates the scheduling engine and the reasoning
// oracle. The Controller turns descriptions into schedules, measures
// completions and moves missed tasks, consulting the oracle for trait
// evolution and rescheduling advice. It never touches persistence; callers
// load commitments and store results.
package scheduling

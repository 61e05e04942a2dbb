// Package domain contains the core business entities of the scheduler: tasks,
// their scheduled windows and periods, and the per-user trait profile. It is
// independent of any storage or delivery mechanism.
package domain

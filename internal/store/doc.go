// Package store defines interfaces for data persistence operations.
// These interfaces abstract the underlying data storage mechanism from
// the scheduling core, which only ever sees domain types. Implementations
// live under internal/platform.
package store

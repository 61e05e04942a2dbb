// Package postgres provides PostgreSQL implementations of the persistence
// interfaces defined in internal/store, plus the embedded goose migrations
// that create their schema. Database errors are translated into store
// sentinel errors by MapError so callers never see driver types.
package postgres

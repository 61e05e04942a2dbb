package service

import (
	"context"
	"database/sql"

	"github.com/phrazzld/tempo/internal/store"
)

// Stores are the transaction-bound stores handed to a unit of work.
type Stores struct {
	Tasks    store.TaskStore
	Profiles store.ProfileStore
}

// UnitOfWork runs fn atomically. Any error returned by fn discards every
// write fn made.
type UnitOfWork interface {
	Run(ctx context.Context, fn func(ctx context.Context, stores Stores) error) error
}

type sqlUnitOfWork struct {
	db       *sql.DB
	tasks    store.TaskStore
	profiles store.ProfileStore
}

// NewSQLUnitOfWork runs units of work in database transactions on db.
func NewSQLUnitOfWork(db *sql.DB, tasks store.TaskStore, profiles store.ProfileStore) UnitOfWork {
	return &sqlUnitOfWork{db: db, tasks: tasks, profiles: profiles}
}

func (u *sqlUnitOfWork) Run(ctx context.Context, fn func(ctx context.Context, stores Stores) error) error {
	return store.RunInTransaction(ctx, u.db, func(ctx context.Context, tx *sql.Tx) error {
		return fn(ctx, Stores{
			Tasks:    u.tasks.WithTx(tx),
			Profiles: u.profiles.WithTx(tx),
		})
	})
}

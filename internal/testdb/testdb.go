//go:build integration

package testdb

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/phrazzld/tempo/internal/ciutil"
	"github.com/phrazzld/tempo/internal/platform/logger"
	"github.com/phrazzld/tempo/internal/platform/postgres"
	"github.com/stretchr/testify/require"
)

// TestTimeout bounds setup work done against the test database.
const TestTimeout = 30 * time.Second

var (
	migrateOnce sync.Once
	migrateErr  error
)

// GetTestDB opens the integration database and migrates it to the latest
// schema. The connection is closed when t finishes.
func GetTestDB(t *testing.T) *sql.DB {
	t.Helper()

	log, _ := logger.GetTestLogger(t)
	url := ciutil.GetTestDatabaseURL(log)
	if url == "" {
		if ciutil.IsCI() {
			t.Fatalf("no test database configured; set %s", ciutil.EnvTempoTestDatabaseURL)
		}
		t.Skipf("skipping integration test: %s not set", ciutil.EnvTempoTestDatabaseURL)
	}

	ctx, cancel := context.WithTimeout(context.Background(), TestTimeout)
	defer cancel()

	db, err := postgres.Open(ctx, url, log)
	require.NoError(t, err, "failed to connect to test database")
	t.Cleanup(func() { _ = db.Close() })

	migrateOnce.Do(func() {
		migrateErr = postgres.Migrate(ctx, db, postgres.MigrateUp, log)
	})
	require.NoError(t, migrateErr, "failed to migrate test database")

	return db
}

// WithTx runs fn inside a transaction that is always rolled back.
func WithTx(t *testing.T, db *sql.DB, fn func(t *testing.T, tx *sql.Tx)) {
	t.Helper()

	tx, err := db.BeginTx(context.Background(), nil)
	require.NoError(t, err, "failed to begin transaction")

	defer func() {
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			t.Logf("warning: failed to roll back transaction: %v", err)
		}
	}()

	fn(t, tx)
}

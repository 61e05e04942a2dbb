package postgres

import (
	"context"
	"io/fs"
	"strings"
	"testing"

	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedMigrations(t *testing.T) {
	entries, err := fs.ReadDir(migrationFS, MigrationsDir)
	require.NoError(t, err)
	require.NotEmpty(t, entries)

	for _, entry := range entries {
		content, err := fs.ReadFile(migrationFS, MigrationsDir+"/"+entry.Name())
		require.NoError(t, err)
		assert.Contains(t, string(content), "-- +goose Up", entry.Name())
		assert.Contains(t, string(content), "-- +goose Down", entry.Name())
	}

	goose.SetBaseFS(migrationFS)
	t.Cleanup(func() { goose.SetBaseFS(nil) })

	migrations, err := goose.CollectMigrations(MigrationsDir, 0, goose.MaxVersion)
	require.NoError(t, err)
	assert.Len(t, migrations, len(entries))
	for i := 1; i < len(migrations); i++ {
		assert.Greater(t, migrations[i].Version, migrations[i-1].Version)
	}
}

func TestMigrationsEncodeDomainConstraints(t *testing.T) {
	content, err := fs.ReadFile(migrationFS, MigrationsDir+"/20260301120000_create_tasks.sql")
	require.NoError(t, err)
	sql := string(content)

	for _, want := range []string{
		"CHECK (window_end > window_start)",
		"CHECK (priority IN (1, 2))",
		"'morning', 'afternoon', 'evening', 'midnight'",
	} {
		assert.True(t, strings.Contains(sql, want), "missing %q", want)
	}
}

func TestMigrateRejectsUnknownCommand(t *testing.T) {
	db, _ := newSQLMock(t)
	err := Migrate(context.Background(), db, "sideways", nil)
	assert.ErrorContains(t, err, "unknown migration command")
}

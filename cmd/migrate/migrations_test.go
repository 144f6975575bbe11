package main

import (
	"path/filepath"
	"runtime"
	"testing"

	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func repoPath(t *testing.T, parts ...string) string {
	t.Helper()
	_, thisFile, _, ok := runtime.Caller(0)
	require.True(t, ok, "runtime.Caller failed")
	root := filepath.Clean(filepath.Join(filepath.Dir(thisFile), "..", ".."))
	return filepath.Join(append([]string{root}, parts...)...)
}

func TestCollectMigrations_Postgres(t *testing.T) {
	migrations, err := goose.CollectMigrations(repoPath(t, "db", "migrations"), 0, goose.MaxVersion)
	require.NoError(t, err)
	require.Len(t, migrations, 2)

	for i, m := range migrations {
		assert.Equal(t, int64(i+1), m.Version, "versions must be contiguous: %s", m.Source)
	}
}

func TestCollectMigrations_EmbeddedSQLite(t *testing.T) {
	migrations, err := goose.CollectMigrations(repoPath(t, "internal", "review", "migrations"), 0, goose.MaxVersion)
	require.NoError(t, err)
	assert.NotEmpty(t, migrations)
}

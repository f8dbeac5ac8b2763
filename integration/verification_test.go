//go:build basic

// Package integration contains end-to-end tests for the contest CLI.
// These tests are excluded from normal test runs due to build tags.
// To run these tests: go test -tags basic ./integration
// The database tag additionally runs MySQL and PostgreSQL in containers.
package integration

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestContestWithSQLite runs the CLI scenario against a throwaway SQLite file.
func TestContestWithSQLite(t *testing.T) {
	dbFile := filepath.Join(t.TempDir(), "contest.db")
	env := []string{"CONTEST_BACKEND=sqlite", "CONTEST_DB_CONNECT=" + dbFile}

	runScenario(t, env)

	_, err := runContestCommand(t, env, "db", "migrate", "--target-version", "0")
	require.NoError(t, err)
	_, err = runContestCommand(t, env, "db", "clear")
	require.NoError(t, err)
	require.NoFileExists(t, dbFile)
}

// TestContestPointsCommand checks the per-athlete weekly table of the engine.
func TestContestPointsCommand(t *testing.T) {
	env := []string{"CONTEST_BACKEND=sqlite", "CONTEST_DB_CONNECT=" + filepath.Join(t.TempDir(), "contest.db")}
	base := []string{"--year", "2024", "--timezone", "UTC", "--log-level", "error"}

	_, err := runContestCommand(t, env, append([]string{"import", "testdata/export.json"}, base...)...)
	require.NoError(t, err)

	out, err := runContestCommand(t, env, append([]string{"points", "1", "--output", "csv"}, base...)...)
	require.NoError(t, err)
	require.Contains(t, string(out), "1,2024,10,2,2,4,8")
}

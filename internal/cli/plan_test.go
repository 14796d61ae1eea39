package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunPlan_listsPendingStatements(t *testing.T) { //nolint:paralleltest // writes global AppConfig
	p := newProject(t, map[string]string{
		"V001_create_users.sql": "CREATE TABLE IF NOT EXISTS users (\n  id INTEGER PRIMARY KEY\n);\nCREATE INDEX IF NOT EXISTS idx_users_id ON users (id);",
		"V002_concurrent.sql":   "CREATE INDEX CONCURRENTLY IF NOT EXISTS idx_users_email ON users (email);",
	})
	useConfig(t, p.config())

	out, err := runCmd(t, runPlan, addSourceFlags, nil)
	require.NoError(t, err)

	assert.Contains(t, out, "2 migration(s) to apply:")
	assert.Contains(t, out, "1. 001_create_users (transaction)")
	assert.Contains(t, out, "   - CREATE TABLE IF NOT EXISTS users ( id INTEGER PRIMARY KEY )")
	assert.Contains(t, out, "   - CREATE INDEX IF NOT EXISTS idx_users_id ON users (id)")
	assert.Contains(t, out, "2. 002_concurrent (no transaction)")
}

func TestRunPlan_nothingPending(t *testing.T) { //nolint:paralleltest // writes global AppConfig
	p := newProject(t, usersMigrations)
	useConfig(t, p.config())

	_, err := runCmd(t, runApply, addApplyFlags, nil)
	require.NoError(t, err)

	out, err := runCmd(t, runPlan, addSourceFlags, nil)
	require.NoError(t, err)
	assert.Contains(t, out, "Nothing to apply.")
}

func TestRunPlan_warnsOnDrift(t *testing.T) { //nolint:paralleltest // writes global AppConfig
	p := newProject(t, usersMigrations)
	useConfig(t, p.config())

	_, err := runCmd(t, runApply, addApplyFlags, nil)
	require.NoError(t, err)

	p.write(t, "V002_add_email.sql", "ALTER TABLE users ADD COLUMN email VARCHAR(320);")

	out, err := runCmd(t, runPlan, addSourceFlags, nil)
	require.NoError(t, err)
	assert.Contains(t, out, "WARNING: 002_add_email changed after it was applied")
}

func TestRunPlan_unparsedBodyPrintedWhole(t *testing.T) { //nolint:paralleltest // writes global AppConfig
	p := newProject(t, map[string]string{
		"V001_broken.sql": "CREATE TABLE (\n  id INTEGER\n;",
	})
	useConfig(t, p.config())

	out, err := runCmd(t, runPlan, addSourceFlags, nil)
	require.NoError(t, err)

	assert.Contains(t, out, "1. 001_broken (transaction)")
	assert.Contains(t, out, "   unparsed: ")
	assert.Contains(t, out, "   - CREATE TABLE ( id INTEGER ;")
}

func TestOneLine(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{in: "SELECT 1", want: "SELECT 1"},
		{in: "  SELECT\n\t1  ", want: "SELECT 1"},
		{in: "CREATE TABLE t (\n  id INT\n)", want: "CREATE TABLE t ( id INT )"},
		{in: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, oneLine(tt.in))
		})
	}
}

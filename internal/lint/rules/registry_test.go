package rules_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aqasim81/migration-runner/internal/lint"
	"github.com/aqasim81/migration-runner/internal/lint/rules"
	"github.com/aqasim81/migration-runner/internal/migration"
	"github.com/aqasim81/migration-runner/migrations"
)

func TestNewDefaultRegistry_registersAllRules(t *testing.T) {
	t.Parallel()

	r := rules.NewDefaultRegistry()
	require.NotNil(t, r)
	assert.Len(t, r.Rules(), 6)
}

func TestNewDefaultRegistry_uniqueIDs(t *testing.T) {
	t.Parallel()

	seen := make(map[string]bool)

	for _, rule := range rules.NewDefaultRegistry().Rules() {
		id := rule.ID()
		assert.False(t, seen[id], "duplicate rule ID: %s", id)
		seen[id] = true
	}
}

func TestDefaultRegistry_referenceMigrations(t *testing.T) {
	t.Parallel()

	linter := lint.New(lint.WithRegistry(rules.NewDefaultRegistry()))

	ms, err := migration.LoadFromFS(migrations.FS, migrations.PostgresDir)
	require.NoError(t, err)

	results, err := linter.LintAll(ms)
	require.NoError(t, err)
	require.Len(t, results, 2)

	for _, r := range results {
		assert.Empty(t, r.Findings, "%s is guarded", r.Migration.ID())
	}

	// SQLite cannot guard ADD COLUMN, so its copy of the unit is flagged.
	ms, err = migration.LoadFromFS(migrations.FS, migrations.SQLiteDir)
	require.NoError(t, err)

	results, err = linter.LintAll(ms)
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Empty(t, results[0].Findings, "table and indexes are guarded")
	require.Len(t, results[1].Findings, 1)
	assert.Equal(t, "add-column-unguarded", results[1].Findings[0].Rule)
	assert.Equal(t, "ALTER TABLE experts ADD COLUMN version INTEGER DEFAULT 0", results[1].Findings[0].Statement)
	assert.Equal(t, 0, results[1].Findings[0].StmtIndex)
}

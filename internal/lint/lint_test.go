package lint_test

import (
	"testing"

	pg_query "github.com/pganalyze/pg_query_go/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aqasim81/migration-runner/internal/lint"
	"github.com/aqasim81/migration-runner/internal/migration"
	"github.com/aqasim81/migration-runner/internal/parser"
)

// stubRule reports every statement.
type stubRule struct {
	severity lint.Severity
}

func (r *stubRule) ID() string { return "test-stub" }

func (r *stubRule) Check(_ *pg_query.RawStmt, ctx *lint.RuleContext) []lint.Finding {
	return []lint.Finding{{
		Rule:      r.ID(),
		Severity:  r.severity,
		Message:   "stub finding",
		StmtIndex: ctx.StmtIndex,
	}}
}

// versionCapturingRule records the PG version it was given.
type versionCapturingRule struct {
	captured *int
}

func (r *versionCapturingRule) ID() string { return "version-capture" }

func (r *versionCapturingRule) Check(_ *pg_query.RawStmt, ctx *lint.RuleContext) []lint.Finding {
	*r.captured = ctx.TargetPGVersion
	return nil
}

func stubLinter(severity lint.Severity) *lint.Linter {
	registry := lint.NewRegistry()
	registry.Register(&stubRule{severity: severity})

	return lint.New(lint.WithRegistry(registry))
}

func TestLint_noRules_noFindings(t *testing.T) {
	t.Parallel()

	m := migration.New("001", "create_users", "CREATE TABLE users (id BIGSERIAL PRIMARY KEY);")

	result, err := lint.New().Lint(&m)
	require.NoError(t, err)
	assert.Empty(t, result.Findings)
	assert.Equal(t, lint.Safe, result.MaxSeverity)
	assert.False(t, result.HasAtLeast(lint.Safe))
}

func TestLint_withStubRule_returnsFindings(t *testing.T) {
	t.Parallel()

	m := migration.New("001", "create_users", "CREATE TABLE users (id BIGSERIAL PRIMARY KEY);")

	result, err := stubLinter(lint.High).Lint(&m)
	require.NoError(t, err)
	require.Len(t, result.Findings, 1)
	assert.Equal(t, lint.High, result.MaxSeverity)
	assert.Equal(t, "test-stub", result.Findings[0].Rule)
	assert.Equal(t, "CREATE TABLE users (id BIGSERIAL PRIMARY KEY)", result.Findings[0].Statement)
}

func TestLint_invalidSQL_returnsError(t *testing.T) {
	t.Parallel()

	m := migration.New("001", "bad_sql", "NOT VALID SQL AT ALL;;;")

	_, err := lint.New().Lint(&m)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing migration 001")
}

func TestLint_emptyMigration_noFindings(t *testing.T) {
	t.Parallel()

	m := migration.New("001", "empty", "")

	result, err := stubLinter(lint.High).Lint(&m)
	require.NoError(t, err)
	assert.Empty(t, result.Findings)
}

func TestLint_multiStatement_runsRulesOnEach(t *testing.T) {
	t.Parallel()

	m := migration.New("001", "multi", "CREATE TABLE a (id INT);\n-- second\nCREATE TABLE b (id INT);")

	result, err := stubLinter(lint.Low).Lint(&m)
	require.NoError(t, err)
	require.Len(t, result.Findings, 2)
	assert.Equal(t, 0, result.Findings[0].StmtIndex)
	assert.Equal(t, 1, result.Findings[1].StmtIndex)
	assert.Equal(t, "CREATE TABLE b (id INT)", result.Findings[1].Statement)
}

func TestLint_truncatesLongStatements(t *testing.T) {
	t.Parallel()

	cols := "a0 INT"
	for i := 1; i < 40; i++ {
		cols += ", a" + string(rune('0'+i%10)) + string(rune('a'+i%26)) + " INT"
	}

	m := migration.New("001", "wide", "CREATE TABLE wide ("+cols+");")

	result, err := stubLinter(lint.Low).Lint(&m)
	require.NoError(t, err)
	require.Len(t, result.Findings, 1)
	assert.Len(t, result.Findings[0].Statement, 120)
	assert.Contains(t, result.Findings[0].Statement, "...")
}

func TestLintAll_errorInOne_returnsWrappedError(t *testing.T) {
	t.Parallel()

	ms := []migration.Migration{
		migration.New("001", "good", "CREATE TABLE a (id INT);"),
		migration.New("002", "bad", "INVALID SQL;;;"),
	}

	_, err := lint.New().LintAll(ms)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing migration 002")
}

func TestLintAll_resultPerMigration(t *testing.T) {
	t.Parallel()

	ms := []migration.Migration{
		migration.New("001", "first", "CREATE TABLE a (id INT);"),
		migration.New("002", "second", "CREATE TABLE b (id INT);"),
	}

	results, err := lint.New().LintAll(ms)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "002", results[1].Migration.Version)
}

func TestWithPGVersion_setsVersion(t *testing.T) {
	t.Parallel()

	captured := 0
	registry := lint.NewRegistry()
	registry.Register(&versionCapturingRule{captured: &captured})

	m := migration.New("001", "test", "CREATE TABLE a (id INT);")

	_, err := lint.New(lint.WithRegistry(registry), lint.WithPGVersion(10)).Lint(&m)
	require.NoError(t, err)
	assert.Equal(t, 10, captured)
}

func TestWithParser_overridesParser(t *testing.T) {
	t.Parallel()

	called := false
	customParse := func(sql string) (*parser.ParseResult, error) {
		called = true
		return parser.Parse(sql)
	}

	m := migration.New("001", "test", "CREATE TABLE a (id INT);")

	_, err := lint.New(lint.WithParser(customParse)).Lint(&m)
	require.NoError(t, err)
	assert.True(t, called)
}

func TestResult_HasAtLeast(t *testing.T) {
	t.Parallel()

	r := &lint.Result{Findings: []lint.Finding{{Severity: lint.Medium}}, MaxSeverity: lint.Medium}

	assert.True(t, r.HasAtLeast(lint.Low))
	assert.True(t, r.HasAtLeast(lint.Medium))
	assert.False(t, r.HasAtLeast(lint.High))
}

func TestTableName(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "public.users", lint.TableName(&pg_query.RangeVar{Schemaname: "public", Relname: "users"}))
	assert.Equal(t, "orders", lint.TableName(&pg_query.RangeVar{Relname: "orders"}))
	assert.Equal(t, "<unknown>", lint.TableName(nil))
}

func TestTruncateSQL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		sql    string
		maxLen int
		want   string
	}{
		{name: "short", sql: "SELECT 1", maxLen: 100, want: "SELECT 1"},
		{name: "exact", sql: "SELECT 1", maxLen: 8, want: "SELECT 1"},
		{name: "truncated", sql: "SELECT * FROM very_long_table_name WHERE id = 1", maxLen: 20, want: "SELECT * FROM ver..."},
		{name: "max too small", sql: "SELECT 1", maxLen: 3, want: "SELECT 1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, lint.TruncateSQL(tt.sql, tt.maxLen))
		})
	}
}

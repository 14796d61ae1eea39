package lint

import "github.com/aqasim81/migration-runner/internal/migration"

// Finding is a single statement that is not safe to run twice.
type Finding struct {
	Rule       string   // Rule ID (e.g., "create-table-unguarded")
	Severity   Severity
	Table      string // Affected object name
	Statement  string // Statement text, truncated for display
	Message    string
	Suggestion string
	StmtIndex  int // 0-based index in the migration's statement list
}

// Result holds all findings for a single migration.
type Result struct {
	Migration   *migration.Migration
	Findings    []Finding
	MaxSeverity Severity
}

// HasAtLeast reports whether any finding reaches the given severity.
func (r *Result) HasAtLeast(s Severity) bool {
	return len(r.Findings) > 0 && r.MaxSeverity >= s
}

// TruncateSQL truncates a SQL string to maxLen bytes for display.
func TruncateSQL(sql string, maxLen int) string {
	if len(sql) <= maxLen || maxLen < 4 { //nolint:mnd // room for the ellipsis
		return sql
	}

	return sql[:maxLen-3] + "..."
}

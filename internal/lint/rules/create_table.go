package rules

import (
	pg_query "github.com/pganalyze/pg_query_go/v6"

	"github.com/aqasim81/migration-runner/internal/lint"
)

// CreateTableRule detects CREATE TABLE without IF NOT EXISTS.
type CreateTableRule struct{}

// NewCreateTableRule creates a new CreateTableRule.
func NewCreateTableRule() *CreateTableRule { return &CreateTableRule{} }

// ID returns the rule identifier.
func (r *CreateTableRule) ID() string { return "create-table-unguarded" }

// Check examines CREATE TABLE and CREATE TABLE AS statements.
func (r *CreateTableRule) Check(stmt *pg_query.RawStmt, ctx *lint.RuleContext) []lint.Finding {
	var (
		guarded bool
		rel     *pg_query.RangeVar
	)

	switch node := stmt.Stmt.Node.(type) {
	case *pg_query.Node_CreateStmt:
		guarded, rel = node.CreateStmt.IfNotExists, node.CreateStmt.Relation
	case *pg_query.Node_CreateTableAsStmt:
		if node.CreateTableAsStmt.Into == nil {
			return nil
		}

		guarded, rel = node.CreateTableAsStmt.IfNotExists, node.CreateTableAsStmt.Into.Rel
	default:
		return nil
	}

	if guarded {
		return nil
	}

	return []lint.Finding{{
		Rule:       r.ID(),
		Severity:   lint.Medium,
		Table:      lint.TableName(rel),
		Message:    "CREATE TABLE fails if the table already exists",
		Suggestion: "Use CREATE TABLE IF NOT EXISTS",
		StmtIndex:  ctx.StmtIndex,
	}}
}

package rules

import (
	pg_query "github.com/pganalyze/pg_query_go/v6"

	"github.com/aqasim81/migration-runner/internal/lint"
)

// UnboundedUpdateRule detects UPDATE and DELETE without a WHERE clause.
type UnboundedUpdateRule struct{}

// NewUnboundedUpdateRule creates a new UnboundedUpdateRule.
func NewUnboundedUpdateRule() *UnboundedUpdateRule { return &UnboundedUpdateRule{} }

// ID returns the rule identifier.
func (r *UnboundedUpdateRule) ID() string { return "unbounded-update" }

// Check examines UPDATE and DELETE statements.
func (r *UnboundedUpdateRule) Check(stmt *pg_query.RawStmt, ctx *lint.RuleContext) []lint.Finding {
	var (
		verb string
		rel  *pg_query.RangeVar
	)

	switch node := stmt.Stmt.Node.(type) {
	case *pg_query.Node_UpdateStmt:
		if node.UpdateStmt.WhereClause != nil {
			return nil
		}

		verb, rel = "UPDATE", node.UpdateStmt.Relation
	case *pg_query.Node_DeleteStmt:
		if node.DeleteStmt.WhereClause != nil {
			return nil
		}

		verb, rel = "DELETE", node.DeleteStmt.Relation
	default:
		return nil
	}

	return []lint.Finding{{
		Rule:       r.ID(),
		Severity:   lint.Low,
		Table:      lint.TableName(rel),
		Message:    verb + " without WHERE touches every row again on each run",
		Suggestion: "Restrict the statement to rows that still need the change",
		StmtIndex:  ctx.StmtIndex,
	}}
}

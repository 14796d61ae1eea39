package rules

import (
	pg_query "github.com/pganalyze/pg_query_go/v6"

	"github.com/aqasim81/migration-runner/internal/lint"
)

// CreateIndexRule detects CREATE INDEX statements that do not survive a re-run.
type CreateIndexRule struct{}

// NewCreateIndexRule creates a new CreateIndexRule.
func NewCreateIndexRule() *CreateIndexRule { return &CreateIndexRule{} }

// ID returns the rule identifier.
func (r *CreateIndexRule) ID() string { return "create-index-unguarded" }

// Check examines a statement for CREATE INDEX without IF NOT EXISTS.
func (r *CreateIndexRule) Check(stmt *pg_query.RawStmt, ctx *lint.RuleContext) []lint.Finding {
	node, ok := stmt.Stmt.Node.(*pg_query.Node_IndexStmt)
	if !ok {
		return nil
	}

	idx := node.IndexStmt
	if idx.IfNotExists {
		return nil
	}

	f := lint.Finding{
		Rule:       r.ID(),
		Severity:   lint.Medium,
		Table:      lint.TableName(idx.Relation),
		Message:    "CREATE INDEX fails if the index already exists",
		Suggestion: "Use CREATE INDEX IF NOT EXISTS",
		StmtIndex:  ctx.StmtIndex,
	}

	// IF NOT EXISTS requires an explicit name.
	if idx.Idxname == "" {
		f.Message = "unnamed CREATE INDEX builds a duplicate index on every run"
		f.Suggestion = "Name the index and use CREATE INDEX IF NOT EXISTS"
	}

	return []lint.Finding{f}
}

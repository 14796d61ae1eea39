package rules

import (
	"strings"

	pg_query "github.com/pganalyze/pg_query_go/v6"

	"github.com/aqasim81/migration-runner/internal/lint"
)

// DropRule detects DROP statements and DROP COLUMN commands without IF EXISTS.
type DropRule struct{}

// NewDropRule creates a new DropRule.
func NewDropRule() *DropRule { return &DropRule{} }

// ID returns the rule identifier.
func (r *DropRule) ID() string { return "drop-unguarded" }

// Check examines DROP and ALTER TABLE ... DROP COLUMN statements.
func (r *DropRule) Check(stmt *pg_query.RawStmt, ctx *lint.RuleContext) []lint.Finding {
	if node, ok := stmt.Stmt.Node.(*pg_query.Node_DropStmt); ok {
		if node.DropStmt.MissingOk {
			return nil
		}

		return []lint.Finding{{
			Rule:       r.ID(),
			Severity:   lint.Medium,
			Table:      strings.Join(dropObjectNames(node.DropStmt), ", "),
			Message:    "DROP fails if the object is already gone",
			Suggestion: "Use DROP ... IF EXISTS",
			StmtIndex:  ctx.StmtIndex,
		}}
	}

	var findings []lint.Finding

	forEachAlterCmd(stmt, func(alt *pg_query.AlterTableStmt, cmd *pg_query.AlterTableCmd) {
		if cmd.MissingOk {
			return
		}

		var what string

		switch cmd.Subtype { //nolint:exhaustive // only drop commands are checked
		case pg_query.AlterTableType_AT_DropColumn:
			what = "DROP COLUMN " + cmd.Name
		case pg_query.AlterTableType_AT_DropConstraint:
			what = "DROP CONSTRAINT " + cmd.Name
		default:
			return
		}

		findings = append(findings, lint.Finding{
			Rule:       r.ID(),
			Severity:   lint.Medium,
			Table:      lint.TableName(alt.Relation),
			Message:    what + " fails if it is already gone",
			Suggestion: "Add IF EXISTS",
			StmtIndex:  ctx.StmtIndex,
		})
	})

	return findings
}

func dropObjectNames(drop *pg_query.DropStmt) []string {
	var names []string

	for _, obj := range drop.Objects {
		switch n := obj.Node.(type) {
		case *pg_query.Node_List:
			var parts []string

			for _, item := range n.List.Items {
				if s, ok := item.Node.(*pg_query.Node_String_); ok {
					parts = append(parts, s.String_.Sval)
				}
			}

			if len(parts) > 0 {
				names = append(names, strings.Join(parts, "."))
			}
		case *pg_query.Node_String_:
			names = append(names, n.String_.Sval)
		}
	}

	return names
}

package rules

import (
	pg_query "github.com/pganalyze/pg_query_go/v6"

	"github.com/aqasim81/migration-runner/internal/lint"
)

const pgVersionSafeNonVolatileDefault = 11

// AddColumnDefaultRule detects ADD COLUMN with a DEFAULT that rewrites the table.
type AddColumnDefaultRule struct{}

// NewAddColumnDefaultRule creates a new AddColumnDefaultRule.
func NewAddColumnDefaultRule() *AddColumnDefaultRule { return &AddColumnDefaultRule{} }

// ID returns the rule identifier.
func (r *AddColumnDefaultRule) ID() string { return "add-column-volatile-default" }

// Check examines ADD COLUMN commands for rewriting defaults.
func (r *AddColumnDefaultRule) Check(stmt *pg_query.RawStmt, ctx *lint.RuleContext) []lint.Finding {
	var findings []lint.Finding

	forEachAlterCmd(stmt, func(alt *pg_query.AlterTableStmt, cmd *pg_query.AlterTableCmd) {
		if cmd.Subtype != pg_query.AlterTableType_AT_AddColumn {
			return
		}

		def := columnDef(cmd)
		if def == nil {
			return
		}

		expr := defaultExpr(def)
		if expr == nil {
			return
		}

		if ctx.TargetPGVersion >= pgVersionSafeNonVolatileDefault && !isVolatile(expr) {
			return
		}

		msg := "ADD COLUMN with volatile DEFAULT rewrites the entire table"
		if ctx.TargetPGVersion < pgVersionSafeNonVolatileDefault {
			msg = "ADD COLUMN with DEFAULT rewrites the entire table on PG < 11"
		}

		findings = append(findings, lint.Finding{
			Rule:       r.ID(),
			Severity:   lint.High,
			Table:      lint.TableName(alt.Relation),
			Message:    msg,
			Suggestion: "Add the column without DEFAULT, then backfill in a guarded UPDATE",
			StmtIndex:  ctx.StmtIndex,
		})
	})

	return findings
}

// defaultExpr finds the DEFAULT expression, stored as a CONSTR_DEFAULT
// constraint on the column definition.
func defaultExpr(def *pg_query.ColumnDef) *pg_query.Node {
	for _, c := range def.Constraints {
		cn, ok := c.Node.(*pg_query.Node_Constraint)
		if !ok {
			continue
		}

		if cn.Constraint.Contype == pg_query.ConstrType_CONSTR_DEFAULT {
			return cn.Constraint.RawExpr
		}
	}

	return nil
}

// isVolatile treats constants and casts of constants as stable and
// everything else, including function calls, as volatile.
func isVolatile(node *pg_query.Node) bool {
	if node == nil {
		return false
	}

	switch n := node.Node.(type) {
	case *pg_query.Node_AConst:
		return false
	case *pg_query.Node_TypeCast:
		if n.TypeCast.Arg != nil {
			if _, ok := n.TypeCast.Arg.Node.(*pg_query.Node_AConst); ok {
				return false
			}
		}

		return true
	default:
		return true
	}
}

package rules

import (
	pg_query "github.com/pganalyze/pg_query_go/v6"

	"github.com/aqasim81/migration-runner/internal/lint"
)

// AddColumnGuardRule detects ADD COLUMN without IF NOT EXISTS.
type AddColumnGuardRule struct{}

// NewAddColumnGuardRule creates a new AddColumnGuardRule.
func NewAddColumnGuardRule() *AddColumnGuardRule { return &AddColumnGuardRule{} }

// ID returns the rule identifier.
func (r *AddColumnGuardRule) ID() string { return "add-column-unguarded" }

// Check reports one finding per unguarded ADD COLUMN command.
func (r *AddColumnGuardRule) Check(stmt *pg_query.RawStmt, ctx *lint.RuleContext) []lint.Finding {
	var findings []lint.Finding

	forEachAlterCmd(stmt, func(alt *pg_query.AlterTableStmt, cmd *pg_query.AlterTableCmd) {
		if cmd.Subtype != pg_query.AlterTableType_AT_AddColumn || cmd.MissingOk {
			return
		}

		findings = append(findings, lint.Finding{
			Rule:       r.ID(),
			Severity:   lint.Medium,
			Table:      lint.TableName(alt.Relation),
			Message:    "ADD COLUMN " + columnName(cmd) + " fails if the column already exists",
			Suggestion: "Use ADD COLUMN IF NOT EXISTS",
			StmtIndex:  ctx.StmtIndex,
		})
	})

	return findings
}

// forEachAlterCmd calls fn for every command of an ALTER TABLE statement.
func forEachAlterCmd(stmt *pg_query.RawStmt, fn func(*pg_query.AlterTableStmt, *pg_query.AlterTableCmd)) {
	node, ok := stmt.Stmt.Node.(*pg_query.Node_AlterTableStmt)
	if !ok {
		return
	}

	for _, cmdNode := range node.AlterTableStmt.Cmds {
		cmd, ok := cmdNode.Node.(*pg_query.Node_AlterTableCmd)
		if !ok {
			continue
		}

		fn(node.AlterTableStmt, cmd.AlterTableCmd)
	}
}

func columnDef(cmd *pg_query.AlterTableCmd) *pg_query.ColumnDef {
	if cmd.Def == nil {
		return nil
	}

	def, ok := cmd.Def.Node.(*pg_query.Node_ColumnDef)
	if !ok {
		return nil
	}

	return def.ColumnDef
}

func columnName(cmd *pg_query.AlterTableCmd) string {
	if def := columnDef(cmd); def != nil {
		return def.Colname
	}

	return cmd.Name
}

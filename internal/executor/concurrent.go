package executor

import (
	pg_query "github.com/pganalyze/pg_query_go/v6"

	"github.com/aqasim81/migration-runner/internal/parser"
)

// RequiresNoTransaction parses the SQL and reports whether any statement
// cannot run inside a transaction block: CREATE INDEX CONCURRENTLY,
// DROP INDEX CONCURRENTLY, REINDEX ... CONCURRENTLY and VACUUM. Such
// bodies are executed directly on a connection.
//
// A body that does not parse is treated as transactional so the server
// reports the syntax error with its position.
func RequiresNoTransaction(sql string) bool {
	result, err := parser.Parse(sql)
	if err != nil {
		return false
	}

	for _, stmt := range result.Stmts {
		if stmt.Stmt == nil {
			continue
		}

		switch node := stmt.Stmt.Node.(type) {
		case *pg_query.Node_IndexStmt:
			if node.IndexStmt != nil && node.IndexStmt.Concurrent {
				return true
			}
		case *pg_query.Node_DropStmt:
			if node.DropStmt != nil && node.DropStmt.Concurrent {
				return true
			}
		case *pg_query.Node_ReindexStmt:
			if node.ReindexStmt != nil && hasOption(node.ReindexStmt.Params, "concurrently") {
				return true
			}
		case *pg_query.Node_VacuumStmt:
			if node.VacuumStmt != nil && node.VacuumStmt.IsVacuumcmd {
				return true
			}
		}
	}

	return false
}

// hasOption reports whether a DefElem list names the option.
func hasOption(params []*pg_query.Node, name string) bool {
	for _, p := range params {
		if def, ok := p.Node.(*pg_query.Node_DefElem); ok && def.DefElem.Defname == name {
			return true
		}
	}

	return false
}

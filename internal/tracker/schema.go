package tracker

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/jackc/pgx/v5"
)

// DefaultTable is the tracking table used when none is configured.
const DefaultTable = "schema_migrations"

// tableNamePattern accepts "table" or "schema.table" made of plain identifiers.
var tableNamePattern = regexp.MustCompile( //nolint:gochecknoglobals // compiled once, used by ValidateTableName
	`^[A-Za-z_][A-Za-z0-9_]{0,62}(\.[A-Za-z_][A-Za-z0-9_]{0,62})?$`,
)

// ValidateTableName rejects names that are not "table" or "schema.table".
func ValidateTableName(name string) error {
	if !tableNamePattern.MatchString(name) {
		return fmt.Errorf("%w: %q", ErrInvalidTableName, name)
	}

	return nil
}

// quoteIdent returns the name as a double-quoted, dot-separated identifier.
// Both PostgreSQL and SQLite accept this form.
func quoteIdent(name string) string {
	return pgx.Identifier(strings.Split(name, ".")).Sanitize()
}

// postgresSchemaSQL is the DDL for the PostgreSQL tracking table.
func postgresSchemaSQL(ident string) string {
	return `CREATE TABLE IF NOT EXISTS ` + ident + ` (
    version      TEXT PRIMARY KEY,
    name         TEXT NOT NULL,
    filename     TEXT NOT NULL,
    checksum     TEXT NOT NULL,
    applied_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    duration_ms  INTEGER NOT NULL,
    run_id       TEXT NOT NULL DEFAULT ''
)`
}

// sqliteSchemaSQL is the DDL for the SQLite tracking table. applied_at holds
// an RFC 3339 UTC timestamp.
func sqliteSchemaSQL(ident string) string {
	return `CREATE TABLE IF NOT EXISTS ` + ident + ` (
    version      TEXT PRIMARY KEY,
    name         TEXT NOT NULL,
    filename     TEXT NOT NULL,
    checksum     TEXT NOT NULL,
    applied_at   TEXT NOT NULL,
    duration_ms  INTEGER NOT NULL,
    run_id       TEXT NOT NULL DEFAULT ''
)`
}

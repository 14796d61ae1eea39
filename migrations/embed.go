// Package migrations embeds the reference migration set so the binary can
// apply it without files on disk. The set exists once per dialect.
package migrations

import "embed"

// FS holds the migration SQL files embedded at compile time.
//
//go:embed postgres/*.sql sqlite/*.sql
var FS embed.FS

// Directories inside FS holding each dialect's migrations.
const (
	PostgresDir = "postgres"
	SQLiteDir   = "sqlite"
)

// DirFor returns the directory of the set written for the named driver,
// "postgres" or "sqlite". Unknown drivers get the PostgreSQL set.
func DirFor(driver string) string {
	if driver == "sqlite" {
		return SQLiteDir
	}

	return PostgresDir
}

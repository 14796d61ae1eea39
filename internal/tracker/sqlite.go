package tracker

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/aqasim81/migration-runner/internal/migration"
)

// SQLQuerier is satisfied by *sql.DB, *sql.Conn and *sql.Tx.
type SQLQuerier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// SQLiteTracker manages the tracking table in a SQLite database.
type SQLiteTracker struct {
	db    *sql.DB
	table string
	ident string
}

// NewSQLite creates a SQLiteTracker for the given table. An empty table
// selects DefaultTable.
func NewSQLite(db *sql.DB, table string) (*SQLiteTracker, error) {
	if table == "" {
		table = DefaultTable
	}

	if err := ValidateTableName(table); err != nil {
		return nil, err
	}

	return &SQLiteTracker{db: db, table: table, ident: quoteIdent(table)}, nil
}

// Table returns the unquoted tracking table name.
func (t *SQLiteTracker) Table() string {
	return t.table
}

// EnsureTable creates the tracking table if it does not exist.
func (t *SQLiteTracker) EnsureTable(ctx context.Context) error {
	if _, err := t.db.ExecContext(ctx, sqliteSchemaSQL(t.ident)); err != nil {
		return fmt.Errorf("%w %s: %w", ErrTableCreation, t.table, err)
	}

	return nil
}

// IsApplied checks whether a migration version has been recorded. Pass a
// transaction to make the check part of it.
func (t *SQLiteTracker) IsApplied(ctx context.Context, q SQLQuerier, version string) (bool, error) {
	if q == nil {
		q = t.db
	}

	var n int

	err := q.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM `+t.ident+` WHERE version = ?`,
		version,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("checking if migration %s is applied: %w", version, err)
	}

	return n > 0, nil
}

// GetApplied returns all applied migrations ordered by version.
func (t *SQLiteTracker) GetApplied(ctx context.Context) ([]AppliedMigration, error) {
	rows, err := t.db.QueryContext(ctx,
		`SELECT version, name, filename, checksum, applied_at, duration_ms, run_id
		 FROM `+t.ident+`
		 ORDER BY version`,
	)
	if err != nil {
		return nil, fmt.Errorf("querying applied migrations: %w", err)
	}
	defer rows.Close()

	var applied []AppliedMigration

	for rows.Next() {
		var (
			m         AppliedMigration
			appliedAt string
		)

		if err := rows.Scan(
			&m.Version, &m.Name, &m.Filename, &m.Checksum, &appliedAt, &m.DurationMs, &m.RunID,
		); err != nil {
			return nil, fmt.Errorf("scanning migration row: %w", err)
		}

		m.AppliedAt, err = time.Parse(time.RFC3339Nano, appliedAt)
		if err != nil {
			return nil, fmt.Errorf("parsing applied_at of migration %s: %w", m.Version, err)
		}

		applied = append(applied, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("scanning applied migrations: %w", err)
	}

	sortByVersion(applied)

	return applied, nil
}

// RecordApplied inserts a migration record through q, normally the
// transaction that ran the migration body.
func (t *SQLiteTracker) RecordApplied(ctx context.Context, q SQLQuerier, p RecordParams) error {
	if q == nil {
		q = t.db
	}

	if p.AppliedAt.IsZero() {
		p.AppliedAt = time.Now()
	}

	_, err := q.ExecContext(ctx,
		`INSERT INTO `+t.ident+` (version, name, filename, checksum, applied_at, duration_ms, run_id)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.Version, p.Name, p.Filename, p.Checksum,
		p.AppliedAt.UTC().Format(time.RFC3339Nano), p.DurationMs, p.RunID,
	)
	if err != nil {
		if isSQLiteDuplicate(err) {
			return fmt.Errorf("recording migration %s: %w", p.Version, ErrAlreadyApplied)
		}

		return fmt.Errorf("recording migration %s as applied: %w", p.Version, err)
	}

	return nil
}

// isSQLiteDuplicate reports whether err is a primary key or unique
// constraint violation.
func isSQLiteDuplicate(err error) bool {
	var sqlErr *sqlite.Error
	if !errors.As(err, &sqlErr) {
		return false
	}

	switch sqlErr.Code() {
	case sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3.SQLITE_CONSTRAINT_UNIQUE:
		return true
	}

	return false
}

// sortByVersion orders records numerically; ORDER BY on the text column
// puts "10" before "9".
func sortByVersion(records []AppliedMigration) {
	slices.SortStableFunc(records, func(a, b AppliedMigration) int {
		return migration.CompareVersions(a.Version, b.Version)
	})
}

package tracker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// uniqueViolation is the SQLSTATE PostgreSQL reports for a duplicate key.
const uniqueViolation = "23505"

// AppliedMigration represents a row of the tracking table.
type AppliedMigration struct {
	Version    string
	Name       string
	Filename   string
	Checksum   string
	AppliedAt  time.Time
	DurationMs int
	RunID      string
}

// RecordParams contains the fields needed to record a migration as applied.
type RecordParams struct {
	Version    string
	Name       string
	Filename   string
	Checksum   string
	AppliedAt  time.Time
	DurationMs int
	RunID      string
}

// Querier is satisfied by *pgxpool.Pool, *pgxpool.Conn and pgx.Tx.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Tracker manages the PostgreSQL tracking table.
type Tracker struct {
	pool  *pgxpool.Pool
	table string
	ident string
}

// New creates a Tracker for the default table backed by the given connection pool.
func New(pool *pgxpool.Pool) *Tracker {
	return &Tracker{pool: pool, table: DefaultTable, ident: quoteIdent(DefaultTable)}
}

// NewWithTable creates a Tracker for a custom tracking table.
func NewWithTable(pool *pgxpool.Pool, table string) (*Tracker, error) {
	if err := ValidateTableName(table); err != nil {
		return nil, err
	}

	return &Tracker{pool: pool, table: table, ident: quoteIdent(table)}, nil
}

// Table returns the unquoted tracking table name.
func (t *Tracker) Table() string {
	return t.table
}

// EnsureTable creates the tracking table if it does not exist.
func (t *Tracker) EnsureTable(ctx context.Context) error {
	_, err := t.pool.Exec(ctx, postgresSchemaSQL(t.ident))
	if err != nil {
		return fmt.Errorf("%w %s: %w", ErrTableCreation, t.table, err)
	}

	return nil
}

// IsApplied checks whether a migration version has been recorded. Pass a
// transaction to make the check part of it.
func (t *Tracker) IsApplied(ctx context.Context, q Querier, version string) (bool, error) {
	if q == nil {
		q = t.pool
	}

	var exists bool

	err := q.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM `+t.ident+` WHERE version = $1)`,
		version,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking if migration %s is applied: %w", version, err)
	}

	return exists, nil
}

// GetApplied returns all applied migrations ordered by version.
func (t *Tracker) GetApplied(ctx context.Context) ([]AppliedMigration, error) {
	rows, err := t.pool.Query(ctx,
		`SELECT version, name, filename, checksum, applied_at, duration_ms, run_id
		 FROM `+t.ident+`
		 ORDER BY version`,
	)
	if err != nil {
		return nil, fmt.Errorf("querying applied migrations: %w", err)
	}
	defer rows.Close()

	applied, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (AppliedMigration, error) {
		var m AppliedMigration
		if scanErr := row.Scan(
			&m.Version, &m.Name, &m.Filename, &m.Checksum, &m.AppliedAt, &m.DurationMs, &m.RunID,
		); scanErr != nil {
			return AppliedMigration{}, fmt.Errorf("scanning migration row: %w", scanErr)
		}

		return m, nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning applied migrations: %w", err)
	}

	sortByVersion(applied)

	return applied, nil
}

// RecordApplied inserts a migration record through q, normally the
// transaction that ran the migration body. A duplicate version is reported
// as ErrAlreadyApplied; existing records are never updated.
func (t *Tracker) RecordApplied(ctx context.Context, q Querier, p RecordParams) error {
	if q == nil {
		q = t.pool
	}

	if p.AppliedAt.IsZero() {
		p.AppliedAt = time.Now().UTC()
	}

	_, err := q.Exec(ctx,
		`INSERT INTO `+t.ident+` (version, name, filename, checksum, applied_at, duration_ms, run_id)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		p.Version, p.Name, p.Filename, p.Checksum, p.AppliedAt, p.DurationMs, p.RunID,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return fmt.Errorf("recording migration %s: %w", p.Version, ErrAlreadyApplied)
		}

		return fmt.Errorf("recording migration %s as applied: %w", p.Version, err)
	}

	return nil
}

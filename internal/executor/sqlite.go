package executor

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/aqasim81/migration-runner/internal/database"
	"github.com/aqasim81/migration-runner/internal/migration"
	"github.com/aqasim81/migration-runner/internal/tracker"
)

// SQLiteBackend runs migrations against a SQLite database. The database
// should be opened with database.OpenSQLite so transactions begin IMMEDIATE.
type SQLiteBackend struct {
	db       *sql.DB
	tracker  *tracker.SQLiteTracker
	lock     *database.SQLiteLock
	lockWait time.Duration
	logger   *slog.Logger
}

// NewSQLiteBackend creates a backend. Backends sharing db and tracking table
// share one in-process run lock; lockWait bounds how long AcquireLock waits
// for it.
func NewSQLiteBackend(db *sql.DB, t *tracker.SQLiteTracker, lockWait time.Duration, logger *slog.Logger) *SQLiteBackend {
	if logger == nil {
		logger = slog.Default()
	}

	return &SQLiteBackend{
		db:       db,
		tracker:  t,
		lock:     database.SQLiteLockFor(fmt.Sprintf("%p/%s", db, t.Table())),
		lockWait: lockWait,
		logger:   logger,
	}
}

// AcquireLock takes the in-process run lock.
func (b *SQLiteBackend) AcquireLock(ctx context.Context) (Releaser, error) {
	handle, err := b.lock.Acquire(ctx, b.lockWait)
	if err != nil {
		return nil, err
	}

	b.logger.DebugContext(ctx, "sqlite run lock acquired")

	return handle, nil
}

// EnsureTable creates the tracking table if it does not exist.
func (b *SQLiteBackend) EnsureTable(ctx context.Context) error {
	return b.tracker.EnsureTable(ctx)
}

// GetApplied returns all applied records ordered by version.
func (b *SQLiteBackend) GetApplied(ctx context.Context) ([]tracker.AppliedMigration, error) {
	return b.tracker.GetApplied(ctx)
}

// ApplyMigration runs the body and inserts the record in one transaction.
func (b *SQLiteBackend) ApplyMigration(
	ctx context.Context,
	m *migration.Migration,
	p tracker.RecordParams,
) (time.Duration, error) {
	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}

	defer tx.Rollback() //nolint:errcheck // rollback on committed tx returns ErrTxDone

	applied, err := b.tracker.IsApplied(ctx, tx, m.Version)
	if err != nil {
		return 0, err
	}

	if applied {
		return 0, fmt.Errorf("migration %s: %w", m.Version, tracker.ErrAlreadyApplied)
	}

	start := time.Now()
	_, execErr := tx.ExecContext(ctx, m.UpSQL)
	duration := time.Since(start)

	if execErr != nil {
		return duration, &StatementError{Version: m.Version, Name: m.Name, Err: execErr}
	}

	p.DurationMs = int(duration.Milliseconds())
	p.AppliedAt = time.Now().UTC()

	if err := b.tracker.RecordApplied(ctx, tx, p); err != nil {
		return duration, err
	}

	if err := tx.Commit(); err != nil {
		return duration, fmt.Errorf("committing transaction: %w", err)
	}

	return duration, nil
}

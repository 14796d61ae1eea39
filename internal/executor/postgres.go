package executor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aqasim81/migration-runner/internal/database"
	"github.com/aqasim81/migration-runner/internal/migration"
	"github.com/aqasim81/migration-runner/internal/parser"
	"github.com/aqasim81/migration-runner/internal/tracker"
)

// PostgresConfig holds the PostgreSQL backend settings.
type PostgresConfig struct {
	LockTimeout      time.Duration // lock_timeout per migration, 0 for server default
	StatementTimeout time.Duration // statement_timeout per migration, 0 for server default
	LockWait         time.Duration // how long to wait for the run lock, 0 to fail fast
}

// PostgresBackend runs migrations against PostgreSQL through a pgx pool.
type PostgresBackend struct {
	pool    *pgxpool.Pool
	tracker *tracker.Tracker
	cfg     PostgresConfig
	lockID  int64
	logger  *slog.Logger
}

// NewPostgresBackend creates a backend. The run lock key is derived from the
// tracking table name.
func NewPostgresBackend(pool *pgxpool.Pool, t *tracker.Tracker, cfg PostgresConfig, logger *slog.Logger) *PostgresBackend {
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresBackend{
		pool:    pool,
		tracker: t,
		cfg:     cfg,
		lockID:  database.LockID(t.Table()),
		logger:  logger,
	}
}

// AcquireLock takes the session advisory lock on a pinned connection.
func (b *PostgresBackend) AcquireLock(ctx context.Context) (Releaser, error) {
	handle, err := database.AcquireLock(ctx, b.pool, b.lockID, b.cfg.LockWait)
	if err != nil {
		return nil, err
	}

	b.logger.DebugContext(ctx, "advisory lock acquired", slog.Int64("lock_id", b.lockID))

	return &loggedRelease{inner: handle, logger: b.logger, lockID: b.lockID}, nil
}

// EnsureTable creates the tracking table if it does not exist.
func (b *PostgresBackend) EnsureTable(ctx context.Context) error {
	return b.tracker.EnsureTable(ctx)
}

// GetApplied returns all applied records ordered by version.
func (b *PostgresBackend) GetApplied(ctx context.Context) ([]tracker.AppliedMigration, error) {
	return b.tracker.GetApplied(ctx)
}

// ApplyMigration runs the body and inserts the record in one transaction.
// Bodies that cannot run in a transaction run statement by statement first,
// and the record is inserted in its own transaction after they succeed.
func (b *PostgresBackend) ApplyMigration(
	ctx context.Context,
	m *migration.Migration,
	p tracker.RecordParams,
) (time.Duration, error) {
	if RequiresNoTransaction(m.UpSQL) {
		return b.applyWithoutTransaction(ctx, m, p)
	}

	var duration time.Duration

	err := ExecInTransaction(ctx, b.pool, func(tx pgx.Tx) error {
		applied, err := b.tracker.IsApplied(ctx, tx, m.Version)
		if err != nil {
			return err
		}

		if applied {
			return fmt.Errorf("migration %s: %w", m.Version, tracker.ErrAlreadyApplied)
		}

		if b.cfg.LockTimeout > 0 {
			if err := SetLockTimeout(ctx, tx, b.cfg.LockTimeout); err != nil {
				return err
			}
		}

		if b.cfg.StatementTimeout > 0 {
			if err := SetStatementTimeout(ctx, tx, b.cfg.StatementTimeout); err != nil {
				return err
			}
		}

		start := time.Now()
		_, execErr := tx.Exec(ctx, m.UpSQL)
		duration = time.Since(start)

		if execErr != nil {
			return newPostgresStatementError(m, "", execErr)
		}

		p.DurationMs = int(duration.Milliseconds())
		p.AppliedAt = time.Now().UTC()

		return b.tracker.RecordApplied(ctx, tx, p)
	})

	return duration, err
}

func (b *PostgresBackend) applyWithoutTransaction(
	ctx context.Context,
	m *migration.Migration,
	p tracker.RecordParams,
) (time.Duration, error) {
	applied, err := b.tracker.IsApplied(ctx, nil, m.Version)
	if err != nil {
		return 0, err
	}

	if applied {
		return 0, fmt.Errorf("migration %s: %w", m.Version, tracker.ErrAlreadyApplied)
	}

	stmts, err := parser.Split(m.UpSQL)
	if err != nil {
		return 0, fmt.Errorf("splitting migration %s: %w", m.Version, err)
	}

	texts := make([]string, len(stmts))
	for i, s := range stmts {
		texts[i] = s.Text
	}

	b.logger.DebugContext(ctx, "running migration outside a transaction",
		slog.String("version", m.Version),
		slog.Int("statements", len(texts)),
	)

	start := time.Now()
	err = ExecWithoutTransaction(ctx, b.pool, texts, b.cfg.LockTimeout, b.cfg.StatementTimeout,
		func(stmt string, err error) error {
			return newPostgresStatementError(m, stmt, err)
		},
	)
	duration := time.Since(start)

	if err != nil {
		return duration, err
	}

	p.DurationMs = int(duration.Milliseconds())
	p.AppliedAt = time.Now().UTC()

	err = ExecInTransaction(ctx, b.pool, func(tx pgx.Tx) error {
		return b.tracker.RecordApplied(ctx, tx, p)
	})

	return duration, err
}

// newPostgresStatementError builds a StatementError, locating the failing
// statement from the server-reported position when stmt is unknown.
func newPostgresStatementError(m *migration.Migration, stmt string, err error) *StatementError {
	se := &StatementError{
		Version:   m.Version,
		Name:      m.Name,
		Statement: stmt,
		Err:       err,
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return se
	}

	se.Position = int(pgErr.Position)

	if se.Statement == "" {
		if located, ok := parser.StatementAt(m.UpSQL, se.Position); ok {
			se.Statement = located
		}
	}

	return se
}

type loggedRelease struct {
	inner  Releaser
	logger *slog.Logger
	lockID int64
}

func (r *loggedRelease) Release(ctx context.Context) error {
	err := r.inner.Release(ctx)
	if err == nil {
		r.logger.DebugContext(ctx, "advisory lock released", slog.Int64("lock_id", r.lockID))
	}

	return err
}

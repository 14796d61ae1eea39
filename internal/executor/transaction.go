package executor

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ExecInTransaction runs fn inside a database transaction.
// On success the transaction is committed; on error it is rolled back.
func ExecInTransaction(ctx context.Context, pool *pgxpool.Pool, fn func(tx pgx.Tx) error) error {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}

	defer tx.Rollback(ctx) //nolint:errcheck // rollback on committed tx returns ErrTxClosed

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	return nil
}

// ExecWithoutTransaction executes statements one by one on a dedicated
// connection, outside any transaction, with session-level timeouts that are
// reset before the connection returns to the pool. Required for statements
// like CREATE INDEX CONCURRENTLY, which also refuse to run as part of a
// multi-statement query string. onError receives the failing statement.
func ExecWithoutTransaction(
	ctx context.Context,
	pool *pgxpool.Pool,
	statements []string,
	lockTimeout, statementTimeout time.Duration,
	onError func(stmt string, err error) error,
) error {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquiring connection: %w", err)
	}
	defer conn.Release()

	if err := setSessionTimeouts(ctx, conn, lockTimeout, statementTimeout); err != nil {
		return err
	}

	var execErr error

	for _, stmt := range statements {
		if _, err := conn.Exec(ctx, stmt); err != nil {
			execErr = onError(stmt, err)

			break
		}
	}

	if err := ResetTimeouts(context.WithoutCancel(ctx), conn); err != nil {
		// Close so the pool discards the connection with its session settings.
		_ = conn.Conn().Close(context.WithoutCancel(ctx))

		if execErr == nil {
			return err
		}
	}

	return execErr
}

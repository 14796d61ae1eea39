package executor

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// SetLockTimeout sets lock_timeout for the rest of the transaction.
// The migration fails fast if it cannot acquire a lock within the
// duration instead of queueing behind, and blocking, other queries.
func SetLockTimeout(ctx context.Context, tx pgx.Tx, timeout time.Duration) error {
	return setTimeout(ctx, tx, "LOCAL", "lock_timeout", timeout)
}

// SetStatementTimeout sets statement_timeout for the rest of the transaction.
func SetStatementTimeout(ctx context.Context, tx pgx.Tx, timeout time.Duration) error {
	return setTimeout(ctx, tx, "LOCAL", "statement_timeout", timeout)
}

// setSessionTimeouts applies both timeouts to a connection outside a
// transaction. Pair with ResetTimeouts before returning the connection.
func setSessionTimeouts(ctx context.Context, conn execer, lock, statement time.Duration) error {
	if lock > 0 {
		if err := setTimeout(ctx, conn, "SESSION", "lock_timeout", lock); err != nil {
			return err
		}
	}

	if statement > 0 {
		if err := setTimeout(ctx, conn, "SESSION", "statement_timeout", statement); err != nil {
			return err
		}
	}

	return nil
}

// ResetTimeouts restores both timeouts to the server defaults.
func ResetTimeouts(ctx context.Context, conn execer) error {
	_, err := conn.Exec(ctx, "RESET lock_timeout; RESET statement_timeout")
	if err != nil {
		return fmt.Errorf("resetting timeouts: %w", err)
	}

	return nil
}

func setTimeout(ctx context.Context, e execer, scope, setting string, timeout time.Duration) error {
	sql := fmt.Sprintf("SET %s %s = '%dms'", scope, setting, timeout.Milliseconds())

	if _, err := e.Exec(ctx, sql); err != nil {
		return fmt.Errorf("setting %s: %w", setting, err)
	}

	return nil
}

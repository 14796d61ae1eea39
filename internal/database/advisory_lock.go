package database

import (
	"context"
	"fmt"
	"hash/fnv"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// LockID derives the advisory lock identifier from a key, normally the
// tracking table name, so runners sharing a table contend for one lock.
func LockID(key string) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte("migrate:" + key))

	return int64(h.Sum64()) //nolint:gosec // wraparound is fine for a lock key
}

// LockHandle wraps a dedicated pooled connection that holds a
// session-level advisory lock. Call Release to unlock and return
// the connection to the pool.
type LockHandle struct {
	conn *pgxpool.Conn
	id   int64
}

// TryAcquireLock attempts to acquire a session-level advisory lock.
// Returns a LockHandle if successful, or ErrLockNotAcquired if the
// lock is already held by another process. The caller must call
// handle.Release() when done.
func TryAcquireLock(ctx context.Context, pool *pgxpool.Pool, id int64) (*LockHandle, error) {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquiring connection for advisory lock: %w", err)
	}

	var acquired bool

	err = conn.QueryRow(ctx, "SELECT pg_try_advisory_lock($1)", id).Scan(&acquired)
	if err != nil {
		conn.Release()

		return nil, fmt.Errorf("executing pg_try_advisory_lock: %w", err)
	}

	if !acquired {
		conn.Release()

		return nil, ErrLockNotAcquired
	}

	return &LockHandle{conn: conn, id: id}, nil
}

// AcquireLock is TryAcquireLock retried with exponential backoff for up to
// wait. A zero wait fails fast.
func AcquireLock(ctx context.Context, pool *pgxpool.Pool, id int64, wait time.Duration) (*LockHandle, error) {
	var handle *LockHandle

	err := waitFor(ctx, wait, func(ctx context.Context) (bool, error) {
		h, err := TryAcquireLock(ctx, pool, id)
		if err == ErrLockNotAcquired { //nolint:errorlint // returned unwrapped above
			return false, nil
		}

		if err != nil {
			return false, err
		}

		handle = h

		return true, nil
	})
	if err != nil {
		return nil, err
	}

	return handle, nil
}

// Release unlocks the advisory lock and returns the connection to the pool.
// Safe to call multiple times; subsequent calls are no-ops.
func (h *LockHandle) Release(ctx context.Context) error {
	if h == nil || h.conn == nil {
		return nil
	}

	_, err := h.conn.Exec(ctx, "SELECT pg_advisory_unlock($1)", h.id)
	h.conn.Release()
	h.conn = nil

	if err != nil {
		return fmt.Errorf("releasing advisory lock: %w", err)
	}

	return nil
}

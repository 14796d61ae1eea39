package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite" // registers the "sqlite" driver
)

const defaultBusyTimeout = 5 * time.Second

// SQLiteDSN builds the modernc DSN for a sqlite URL. Transactions begin
// IMMEDIATE so a write lock is held from the first statement.
func SQLiteDSN(databaseURL string, busyTimeout time.Duration) string {
	if busyTimeout <= 0 {
		busyTimeout = defaultBusyTimeout
	}

	dsn := SQLitePath(databaseURL)

	params := []string{
		"_txlock=immediate",
		fmt.Sprintf("_pragma=busy_timeout(%d)", busyTimeout.Milliseconds()),
		"_pragma=foreign_keys(ON)",
	}
	if !strings.Contains(dsn, ":memory:") && !strings.Contains(dsn, "mode=memory") {
		params = append(params, "_pragma=journal_mode(WAL)")
	}

	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}

	return dsn + sep + strings.Join(params, "&")
}

// OpenSQLite opens a single-connection SQLite database and verifies it.
func OpenSQLite(ctx context.Context, databaseURL string, busyTimeout time.Duration) (*sql.DB, error) {
	if SQLitePath(databaseURL) == "" {
		return nil, fmt.Errorf("%w: missing sqlite path", ErrInvalidDatabaseURL)
	}

	db, err := sql.Open("sqlite", SQLiteDSN(databaseURL, busyTimeout))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}

	// One connection serialises writes and keeps an in-memory database alive.
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()

		return nil, fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}

	return db, nil
}

// SQLiteLock emulates the advisory lock for SQLite with a mutex. It only
// excludes runners inside one process; separate processes are serialised per
// migration by IMMEDIATE transactions instead.
type SQLiteLock struct {
	mu sync.Mutex
}

var sqliteLocks = struct { //nolint:gochecknoglobals // process-wide lock registry
	sync.Mutex
	byKey map[string]*SQLiteLock
}{byKey: map[string]*SQLiteLock{}}

// SQLiteLockFor returns the process-wide lock for key, creating it on first
// use. Callers sharing a key contend for the same lock.
func SQLiteLockFor(key string) *SQLiteLock {
	sqliteLocks.Lock()
	defer sqliteLocks.Unlock()

	l, ok := sqliteLocks.byKey[key]
	if !ok {
		l = &SQLiteLock{}
		sqliteLocks.byKey[key] = l
	}

	return l
}

// SQLiteLockHandle releases a held SQLiteLock.
type SQLiteLockHandle struct {
	lock *SQLiteLock
	once sync.Once
}

// TryAcquire takes the lock without blocking, or returns ErrLockNotAcquired.
func (l *SQLiteLock) TryAcquire(ctx context.Context) (*SQLiteLockHandle, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("acquiring sqlite lock: %w", err)
	}

	if !l.mu.TryLock() {
		return nil, ErrLockNotAcquired
	}

	return &SQLiteLockHandle{lock: l}, nil
}

// Acquire is TryAcquire retried with exponential backoff for up to wait.
func (l *SQLiteLock) Acquire(ctx context.Context, wait time.Duration) (*SQLiteLockHandle, error) {
	var handle *SQLiteLockHandle

	err := waitFor(ctx, wait, func(ctx context.Context) (bool, error) {
		h, err := l.TryAcquire(ctx)
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

// Release unlocks. Safe to call multiple times.
func (h *SQLiteLockHandle) Release(_ context.Context) error {
	if h == nil {
		return nil
	}

	h.once.Do(h.lock.mu.Unlock)

	return nil
}

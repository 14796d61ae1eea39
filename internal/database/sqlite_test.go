package database_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aqasim81/migration-runner/internal/database"
)

func TestSQLiteDSN(t *testing.T) {
	t.Parallel()

	dsn := database.SQLiteDSN("sqlite:///tmp/app.db", 2*time.Second)
	assert.Equal(t,
		"/tmp/app.db?_txlock=immediate&_pragma=busy_timeout(2000)&_pragma=foreign_keys(ON)&_pragma=journal_mode(WAL)",
		dsn,
	)

	mem := database.SQLiteDSN(":memory:", 0)
	assert.Equal(t, ":memory:?_txlock=immediate&_pragma=busy_timeout(5000)&_pragma=foreign_keys(ON)", mem)

	withQuery := database.SQLiteDSN("file:app.db?cache=shared", time.Second)
	assert.Contains(t, withQuery, "file:app.db?cache=shared&_txlock=immediate")
}

func TestOpenSQLite(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "app.db")

	db, err := database.OpenSQLite(ctx, "sqlite://"+path, time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.ExecContext(ctx, "CREATE TABLE t (id INTEGER PRIMARY KEY)")
	require.NoError(t, err)

	var timeout int
	require.NoError(t, db.QueryRowContext(ctx, "PRAGMA busy_timeout").Scan(&timeout))
	assert.Equal(t, 1000, timeout)
}

func TestOpenSQLite_emptyPath(t *testing.T) {
	t.Parallel()

	_, err := database.OpenSQLite(context.Background(), "sqlite://", time.Second)
	require.ErrorIs(t, err, database.ErrInvalidDatabaseURL)
}

func TestSQLiteLock_TryAcquire(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	var lock database.SQLiteLock

	h1, err := lock.TryAcquire(ctx)
	require.NoError(t, err)

	_, err = lock.TryAcquire(ctx)
	require.ErrorIs(t, err, database.ErrLockNotAcquired)

	require.NoError(t, h1.Release(ctx))
	require.NoError(t, h1.Release(ctx), "second release is a no-op")

	h2, err := lock.TryAcquire(ctx)
	require.NoError(t, err)
	require.NoError(t, h2.Release(ctx))
}

func TestSQLiteLock_AcquireWaitsForRelease(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	var lock database.SQLiteLock

	h1, err := lock.TryAcquire(ctx)
	require.NoError(t, err)

	go func() {
		time.Sleep(150 * time.Millisecond)
		_ = h1.Release(ctx)
	}()

	h2, err := lock.Acquire(ctx, 5*time.Second)
	require.NoError(t, err)
	require.NoError(t, h2.Release(ctx))
}

func TestSQLiteLock_AcquireTimesOut(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	var lock database.SQLiteLock

	h1, err := lock.TryAcquire(ctx)
	require.NoError(t, err)
	t.Cleanup(func() { _ = h1.Release(ctx) })

	_, err = lock.Acquire(ctx, 300*time.Millisecond)
	require.ErrorIs(t, err, database.ErrLockNotAcquired)
}

func TestSQLiteLockFor_sharesByKey(t *testing.T) {
	t.Parallel()

	a := database.SQLiteLockFor(t.Name() + "/a")

	assert.Same(t, a, database.SQLiteLockFor(t.Name()+"/a"))
	assert.NotSame(t, a, database.SQLiteLockFor(t.Name()+"/b"))
}

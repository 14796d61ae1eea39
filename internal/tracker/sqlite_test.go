package tracker_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/aqasim81/migration-runner/internal/tracker"
)

func newSQLiteTracker(t *testing.T) (*tracker.SQLiteTracker, *sql.DB) {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	tr, err := tracker.NewSQLite(db, "")
	require.NoError(t, err)
	require.NoError(t, tr.EnsureTable(context.Background()))

	return tr, db
}

func TestSQLiteTracker_EnsureTableIsIdempotent(t *testing.T) {
	t.Parallel()

	tr, _ := newSQLiteTracker(t)
	require.NoError(t, tr.EnsureTable(context.Background()))
}

func TestSQLiteTracker_RecordAndRead(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	tr, db := newSQLiteTracker(t)

	appliedAt := time.Date(2026, 3, 1, 10, 30, 0, 123456000, time.UTC)
	require.NoError(t, tr.RecordApplied(ctx, db, tracker.RecordParams{
		Version:    "002",
		Name:       "add_expert_version",
		Filename:   "V002_add_expert_version.sql",
		Checksum:   "bbb",
		AppliedAt:  appliedAt.Add(time.Second),
		DurationMs: 7,
		RunID:      "run-1",
	}))
	require.NoError(t, tr.RecordApplied(ctx, db, tracker.RecordParams{
		Version:   "001",
		Name:      "add_availability_errors_table",
		Filename:  "V001_add_availability_errors_table.sql",
		Checksum:  "aaa",
		AppliedAt: appliedAt,
		RunID:     "run-1",
	}))

	applied, err := tr.GetApplied(ctx)
	require.NoError(t, err)
	require.Len(t, applied, 2)

	assert.Equal(t, "001", applied[0].Version)
	assert.Equal(t, "add_availability_errors_table", applied[0].Name)
	assert.True(t, appliedAt.Equal(applied[0].AppliedAt))
	assert.Equal(t, 7, applied[1].DurationMs)
	assert.Equal(t, "run-1", applied[1].RunID)

	ok, err := tr.IsApplied(ctx, nil, "001")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = tr.IsApplied(ctx, nil, "003")
	require.NoError(t, err)
	assert.False(t, ok)

	assert.Equal(t, "bbb", applied[1].Checksum)
}

func TestSQLiteTracker_DuplicateInsertIsRejected(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	tr, db := newSQLiteTracker(t)

	p := tracker.RecordParams{Version: "001", Name: "a", Filename: "V001_a.sql", Checksum: "x"}
	require.NoError(t, tr.RecordApplied(ctx, db, p))

	p.Checksum = "y"
	err := tr.RecordApplied(ctx, db, p)
	require.ErrorIs(t, err, tracker.ErrAlreadyApplied)

	applied, err := tr.GetApplied(ctx)
	require.NoError(t, err)
	require.Len(t, applied, 1)
	assert.Equal(t, "x", applied[0].Checksum, "existing record must not be overwritten")
}

func TestSQLiteTracker_OtherInsertErrorsAreNotDuplicates(t *testing.T) {
	t.Parallel()

	_, db := newSQLiteTracker(t)

	missing, err := tracker.NewSQLite(db, "never_created")
	require.NoError(t, err)

	err = missing.RecordApplied(context.Background(), nil, tracker.RecordParams{Version: "001", Name: "a", Filename: "f", Checksum: "x"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, tracker.ErrAlreadyApplied)
	assert.Contains(t, err.Error(), "recording migration 001 as applied")
}

func TestSQLiteTracker_GetAppliedOrdersVersionsNumerically(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	tr, db := newSQLiteTracker(t)

	for _, v := range []string{"10", "9", "100"} {
		require.NoError(t, tr.RecordApplied(ctx, db, tracker.RecordParams{Version: v, Name: "n", Filename: "f", Checksum: "x"}))
	}

	applied, err := tr.GetApplied(ctx)
	require.NoError(t, err)
	require.Len(t, applied, 3)
	assert.Equal(t, []string{"9", "10", "100"}, []string{applied[0].Version, applied[1].Version, applied[2].Version})
}

func TestSQLiteTracker_RecordRolledBackWithTransaction(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	tr, db := newSQLiteTracker(t)

	tx, err := db.BeginTx(ctx, nil)
	require.NoError(t, err)
	require.NoError(t, tr.RecordApplied(ctx, tx, tracker.RecordParams{Version: "001", Name: "a", Filename: "f", Checksum: "x"}))

	ok, err := tr.IsApplied(ctx, tx, "001")
	require.NoError(t, err)
	assert.True(t, ok)
	require.NoError(t, tx.Rollback())

	ok, err = tr.IsApplied(ctx, nil, "001")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSQLiteTracker_CustomTable(t *testing.T) {
	t.Parallel()

	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	tr, err := tracker.NewSQLite(db, "applied_units")
	require.NoError(t, err)
	require.NoError(t, tr.EnsureTable(context.Background()))

	var name string
	require.NoError(t, db.QueryRow(`SELECT name FROM sqlite_master WHERE type = 'table' AND name = 'applied_units'`).Scan(&name))
	assert.Equal(t, "applied_units", name)
}

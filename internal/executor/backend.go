package executor

import (
	"context"
	"time"

	"github.com/aqasim81/migration-runner/internal/migration"
	"github.com/aqasim81/migration-runner/internal/tracker"
)

// Releaser is returned by Backend.AcquireLock and must be released when done.
type Releaser interface {
	Release(ctx context.Context) error
}

// Backend is the target store as seen by the Executor.
type Backend interface {
	// AcquireLock takes the exclusive run lock.
	AcquireLock(ctx context.Context) (Releaser, error)
	// EnsureTable creates the tracking table if it does not exist.
	EnsureTable(ctx context.Context) error
	// GetApplied returns all applied records ordered by version.
	GetApplied(ctx context.Context) ([]tracker.AppliedMigration, error)
	// ApplyMigration runs the body and inserts p atomically. It returns an
	// error wrapping tracker.ErrAlreadyApplied, without running the body,
	// when a record for the version already exists.
	ApplyMigration(ctx context.Context, m *migration.Migration, p tracker.RecordParams) (time.Duration, error)
}

// Recorder receives run metrics.
type Recorder interface {
	ObserveUnit(status string, d time.Duration)
	ObserveRun(success bool)
}

type noopRecorder struct{}

func (noopRecorder) ObserveUnit(string, time.Duration) {}
func (noopRecorder) ObserveRun(bool)                   {}

package executor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/aqasim81/migration-runner/internal/migration"
	"github.com/aqasim81/migration-runner/internal/tracker"
)

// Progress status constants reported via ProgressEvent.
const (
	StatusStarting  = "starting"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
	StatusSkipped   = "skipped"
	StatusPending   = "pending" // dry-run: would be applied
)

// ProgressEvent is emitted by the executor for each migration processed.
type ProgressEvent struct {
	Migration *migration.Migration
	Status    string
	Duration  time.Duration
	Error     error
}

// Executor applies pending migrations in order, each one atomically with its
// tracking record, under an exclusive run lock.
type Executor struct {
	backend         Backend
	dryRun          bool
	allowOutOfOrder bool
	runID           string
	onProgress      func(ProgressEvent)
	logger          *slog.Logger
	metrics         Recorder
	now             func() time.Time
}

// Option configures an Executor.
type Option func(*Executor)

// WithDryRun enables dry-run mode where no SQL is executed and nothing is recorded.
func WithDryRun(b bool) Option {
	return func(e *Executor) { e.dryRun = b }
}

// WithProgressCallback sets a function called for each migration processed.
func WithProgressCallback(fn func(ProgressEvent)) Option {
	return func(e *Executor) { e.onProgress = fn }
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Executor) { e.logger = l }
}

// WithRunID overrides the generated run identifier stored with each record.
func WithRunID(id string) Option {
	return func(e *Executor) { e.runID = id }
}

// WithAllowOutOfOrder permits applying a pending migration whose version is
// lower than the latest applied one.
func WithAllowOutOfOrder(b bool) Option {
	return func(e *Executor) { e.allowOutOfOrder = b }
}

// WithMetrics sets the metrics recorder.
func WithMetrics(r Recorder) Option {
	return func(e *Executor) { e.metrics = r }
}

// New creates an Executor for the given backend.
func New(b Backend, opts ...Option) *Executor {
	e := &Executor{
		backend: b,
		now:     time.Now,
	}

	for _, opt := range opts {
		opt(e)
	}

	if e.runID == "" {
		e.runID = uuid.NewString()
	}

	if e.logger == nil {
		e.logger = slog.Default()
	}

	if e.metrics == nil {
		e.metrics = noopRecorder{}
	}

	return e
}

// RunID returns the identifier recorded with every migration this executor applies.
func (e *Executor) RunID() string {
	return e.runID
}

// Apply executes pending migrations in order. Every check that can fail
// without touching the schema runs before the first migration executes.
// Execution halts at the first failure.
func (e *Executor) Apply(ctx context.Context, migrations []migration.Migration) (err error) {
	defer func() { e.metrics.ObserveRun(err == nil) }()

	if err := migration.Validate(migrations); err != nil {
		return err
	}

	lock, err := e.backend.AcquireLock(ctx)
	if err != nil {
		return fmt.Errorf("acquiring migration lock: %w", err)
	}

	defer func() {
		if relErr := lock.Release(context.WithoutCancel(ctx)); relErr != nil {
			e.logger.WarnContext(ctx, "releasing migration lock", slog.Any("error", relErr))
		}
	}()

	if err := e.backend.EnsureTable(ctx); err != nil {
		return err
	}

	records, err := e.backend.GetApplied(ctx)
	if err != nil {
		return err
	}

	applied, err := e.preflight(ctx, migrations, records)
	if err != nil {
		return err
	}

	e.logger.InfoContext(ctx, "migration run started",
		slog.String("run_id", e.runID),
		slog.Int("total", len(migrations)),
		slog.Int("applied", len(applied)),
		slog.Bool("dry_run", e.dryRun),
	)

	for i := range migrations {
		if err := e.applyOne(ctx, &migrations[i], applied); err != nil {
			return err
		}
	}

	return nil
}

// preflight checks checksums and ordering of the input against the applied
// records, and returns the records indexed by version.
func (e *Executor) preflight(
	ctx context.Context,
	migrations []migration.Migration,
	records []tracker.AppliedMigration,
) (map[string]tracker.AppliedMigration, error) {
	applied := make(map[string]tracker.AppliedMigration, len(records))

	var latest string

	for _, r := range records {
		applied[r.Version] = r
		if latest == "" || migration.CompareVersions(r.Version, latest) > 0 {
			latest = r.Version
		}
	}

	if mismatches := findMismatches(migrations, applied); len(mismatches) > 0 {
		return nil, &ChecksumMismatchError{Mismatches: mismatches}
	}

	known := make(map[string]bool, len(migrations))

	for i := range migrations {
		m := &migrations[i]
		known[m.Version] = true

		if _, ok := applied[m.Version]; ok || e.allowOutOfOrder {
			continue
		}

		if latest != "" && migration.CompareVersions(m.Version, latest) < 0 {
			return nil, fmt.Errorf("%w: %s sorts before applied %s", ErrOutOfOrder, m.ID(), latest)
		}
	}

	for _, r := range records {
		if !known[r.Version] {
			e.logger.WarnContext(ctx, "unknown applied migration",
				slog.String("version", r.Version),
				slog.String("name", r.Name),
				slog.String("filename", r.Filename),
			)
		}
	}

	return applied, nil
}

func findMismatches(migrations []migration.Migration, applied map[string]tracker.AppliedMigration) []Mismatch {
	var mismatches []Mismatch

	for i := range migrations {
		m := &migrations[i]

		r, ok := applied[m.Version]
		if !ok || r.Checksum == m.Checksum {
			continue
		}

		mismatches = append(mismatches, Mismatch{
			Version:  m.Version,
			Name:     m.Name,
			Recorded: r.Checksum,
			Current:  m.Checksum,
		})
	}

	return mismatches
}

// applyOne handles a single migration: skip if applied, dry-run report, or
// execute and record, then fire progress.
func (e *Executor) applyOne(ctx context.Context, m *migration.Migration, applied map[string]tracker.AppliedMigration) error {
	if e.shouldSkip(m, applied) {
		e.metrics.ObserveUnit(StatusSkipped, 0)
		e.fireProgress(ProgressEvent{Migration: m, Status: StatusSkipped})

		return nil
	}

	if e.dryRun {
		e.fireProgress(ProgressEvent{Migration: m, Status: StatusPending})
		return nil
	}

	e.fireProgress(ProgressEvent{Migration: m, Status: StatusStarting})

	start := e.now()
	duration, execErr := e.backend.ApplyMigration(ctx, m, tracker.RecordParams{
		Version:  m.Version,
		Name:     m.Name,
		Filename: filepath.Base(m.FilePath),
		Checksum: m.Checksum,
		RunID:    e.runID,
	})

	if errors.Is(execErr, tracker.ErrAlreadyApplied) {
		// Another runner recorded it between our read and our transaction.
		e.logger.InfoContext(ctx, "migration applied concurrently",
			slog.String("run_id", e.runID),
			slog.String("version", m.Version),
		)
		e.metrics.ObserveUnit(StatusSkipped, 0)
		e.fireProgress(ProgressEvent{Migration: m, Status: StatusSkipped})

		return nil
	}

	if execErr != nil {
		if duration == 0 {
			duration = e.now().Sub(start)
		}

		e.metrics.ObserveUnit(StatusFailed, duration)
		e.logger.ErrorContext(ctx, "migration failed",
			slog.String("run_id", e.runID),
			slog.String("version", m.Version),
			slog.String("name", m.Name),
			slog.Int64("duration_ms", duration.Milliseconds()),
			slog.Any("error", execErr),
		)
		e.fireProgress(ProgressEvent{
			Migration: m,
			Status:    StatusFailed,
			Duration:  duration,
			Error:     execErr,
		})

		return fmt.Errorf("executing migration %s: %w", m.Version, execErr)
	}

	e.metrics.ObserveUnit(StatusCompleted, duration)
	e.logger.InfoContext(ctx, "migration applied",
		slog.String("run_id", e.runID),
		slog.String("version", m.Version),
		slog.String("name", m.Name),
		slog.Int64("duration_ms", duration.Milliseconds()),
	)
	e.fireProgress(ProgressEvent{
		Migration: m,
		Status:    StatusCompleted,
		Duration:  duration,
	})

	return nil
}

// shouldSkip returns true if the migration is already applied. Checksums were
// verified by preflight.
func (e *Executor) shouldSkip(m *migration.Migration, applied map[string]tracker.AppliedMigration) bool {
	_, ok := applied[m.Version]

	return ok
}

func (e *Executor) fireProgress(event ProgressEvent) {
	if e.onProgress != nil {
		e.onProgress(event)
	}
}

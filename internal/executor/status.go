package executor

import (
	"context"
	"sort"
	"time"

	"github.com/aqasim81/migration-runner/internal/migration"
	"github.com/aqasim81/migration-runner/internal/tracker"
)

// Migration states reported by Status.
const (
	StateApplied = "applied"
	StatePending = "pending"
	StateDrifted = "drifted" // applied, but the file changed since
	StateMissing = "missing" // applied, but no file exists for it
)

// MigrationStatus joins a migration with its applied record.
type MigrationStatus struct {
	Version   string               `json:"version"`
	Name      string               `json:"name"`
	State     string               `json:"state"`
	Checksum  string               `json:"checksum,omitempty"`
	AppliedAt *time.Time           `json:"applied_at,omitempty"`
	Duration  int                  `json:"duration_ms,omitempty"`
	RunID     string               `json:"run_id,omitempty"`
	Migration *migration.Migration `json:"-"`
}

// Status reports the state of every known migration and every applied record,
// ordered by version. It takes no lock.
func (e *Executor) Status(ctx context.Context, migrations []migration.Migration) ([]MigrationStatus, error) {
	if err := e.backend.EnsureTable(ctx); err != nil {
		return nil, err
	}

	records, err := e.backend.GetApplied(ctx)
	if err != nil {
		return nil, err
	}

	return buildStatus(migrations, records), nil
}

// Pending filters statuses down to the migrations not yet applied, keeping
// their order.
func Pending(statuses []MigrationStatus) []*migration.Migration {
	var pending []*migration.Migration

	for _, s := range statuses {
		if s.State == StatePending {
			pending = append(pending, s.Migration)
		}
	}

	return pending
}

// Verify returns a *ChecksumMismatchError when any applied migration drifted.
func (e *Executor) Verify(ctx context.Context, migrations []migration.Migration) error {
	if err := e.backend.EnsureTable(ctx); err != nil {
		return err
	}

	records, err := e.backend.GetApplied(ctx)
	if err != nil {
		return err
	}

	applied := make(map[string]tracker.AppliedMigration, len(records))
	for _, r := range records {
		applied[r.Version] = r
	}

	if mismatches := findMismatches(migrations, applied); len(mismatches) > 0 {
		return &ChecksumMismatchError{Mismatches: mismatches}
	}

	return nil
}

func buildStatus(migrations []migration.Migration, records []tracker.AppliedMigration) []MigrationStatus {
	applied := make(map[string]tracker.AppliedMigration, len(records))
	for _, r := range records {
		applied[r.Version] = r
	}

	statuses := make([]MigrationStatus, 0, len(migrations)+len(records))
	seen := make(map[string]bool, len(migrations))

	for i := range migrations {
		m := &migrations[i]
		seen[m.Version] = true

		s := MigrationStatus{
			Version:   m.Version,
			Name:      m.Name,
			State:     StatePending,
			Checksum:  m.Checksum,
			Migration: m,
		}

		if r, ok := applied[m.Version]; ok {
			s.State = StateApplied
			if r.Checksum != m.Checksum {
				s.State = StateDrifted
			}

			fillRecord(&s, r)
		}

		statuses = append(statuses, s)
	}

	for _, r := range records {
		if seen[r.Version] {
			continue
		}

		s := MigrationStatus{Version: r.Version, Name: r.Name, State: StateMissing, Checksum: r.Checksum}
		fillRecord(&s, r)
		statuses = append(statuses, s)
	}

	sort.SliceStable(statuses, func(i, j int) bool {
		return migration.CompareVersions(statuses[i].Version, statuses[j].Version) < 0
	})

	return statuses
}

func fillRecord(s *MigrationStatus, r tracker.AppliedMigration) {
	at := r.AppliedAt
	s.AppliedAt = &at
	s.Duration = r.DurationMs
	s.RunID = r.RunID
}

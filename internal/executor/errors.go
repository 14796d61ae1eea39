package executor

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/aqasim81/migration-runner/internal/tracker"
)

// ErrExecutionFailed indicates a migration failed to execute.
var ErrExecutionFailed = errors.New("migration execution failed")

// ErrOutOfOrder indicates a pending migration sorts below an applied one.
var ErrOutOfOrder = errors.New("pending migration is older than the latest applied migration")

// StatementError reports the statement of a migration that failed.
// Position is the 1-based character offset reported by the server, or 0.
type StatementError struct {
	Version   string
	Name      string
	Statement string
	Position  int
	Err       error
}

func (e *StatementError) Error() string {
	var b strings.Builder

	fmt.Fprintf(&b, "migration %s (%s) failed", e.Version, e.Name)

	if e.Statement != "" {
		fmt.Fprintf(&b, " at statement %q", truncate(e.Statement, maxStatementDisplay))
	}

	fmt.Fprintf(&b, ": %v", e.Err)

	return b.String()
}

func (e *StatementError) Unwrap() error { return e.Err }

// Is matches ErrExecutionFailed.
func (e *StatementError) Is(target error) bool { return target == ErrExecutionFailed }

// Mismatch is one applied migration whose file changed after it was applied.
type Mismatch struct {
	Version  string
	Name     string
	Recorded string
	Current  string
}

// ChecksumMismatchError collects every drifted migration found before a run.
type ChecksumMismatchError struct {
	Mismatches []Mismatch
}

func (e *ChecksumMismatchError) Error() string {
	parts := make([]string, 0, len(e.Mismatches))
	for _, m := range e.Mismatches {
		parts = append(parts, fmt.Sprintf("%s (%s) recorded=%s current=%s",
			m.Version, m.Name, shortSum(m.Recorded), shortSum(m.Current)))
	}

	return fmt.Sprintf("%s: %s", tracker.ErrChecksumMismatch, strings.Join(parts, "; "))
}

// Is matches tracker.ErrChecksumMismatch.
func (e *ChecksumMismatchError) Is(target error) bool { return target == tracker.ErrChecksumMismatch }

const (
	maxStatementDisplay = 120
	shortSumLen         = 12
)

func truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	if utf8.RuneCountInString(s) <= n {
		return s
	}

	return string([]rune(s)[:n-3]) + "..."
}

func shortSum(s string) string {
	if len(s) <= shortSumLen {
		return s
	}

	return s[:shortSumLen]
}

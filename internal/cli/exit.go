package cli

import (
	"errors"

	"github.com/aqasim81/migration-runner/internal/database"
	"github.com/aqasim81/migration-runner/internal/executor"
	"github.com/aqasim81/migration-runner/internal/tracker"
)

// Process exit codes.
const (
	ExitOK         = 0
	ExitError      = 1
	ExitConnection = 2
	ExitStatement  = 3
	ExitChecksum   = 4
	ExitLock       = 5
	ExitLint       = 6
)

// ExitCode maps an error returned by a command to a process exit code.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, database.ErrConnectionFailed),
		errors.Is(err, database.ErrInvalidDatabaseURL),
		errors.Is(err, database.ErrUnsupportedURL),
		errors.Is(err, errDatabaseURLRequired):
		return ExitConnection
	case errors.Is(err, executor.ErrExecutionFailed):
		return ExitStatement
	case errors.Is(err, tracker.ErrChecksumMismatch):
		return ExitChecksum
	case errors.Is(err, database.ErrLockNotAcquired):
		return ExitLock
	case errors.Is(err, errLintThreshold):
		return ExitLint
	default:
		return ExitError
	}
}

package database

import (
	"fmt"
	"strings"
)

// Driver identifies the kind of target store.
type Driver string

// Supported drivers.
const (
	Postgres Driver = "postgres"
	SQLite   Driver = "sqlite"
)

// DetectDriver picks the driver from the shape of a connection URL.
func DetectDriver(databaseURL string) (Driver, error) {
	u := strings.TrimSpace(databaseURL)
	lower := strings.ToLower(u)

	switch {
	case u == "":
		return "", fmt.Errorf("%w: empty", ErrInvalidDatabaseURL)
	case strings.HasPrefix(lower, "postgres://"), strings.HasPrefix(lower, "postgresql://"):
		return Postgres, nil
	case strings.HasPrefix(lower, "sqlite:"), strings.HasPrefix(lower, "file:"), u == ":memory:":
		return SQLite, nil
	case hasSQLiteSuffix(lower):
		return SQLite, nil
	case strings.Contains(u, "=") && !strings.Contains(u, "://"):
		// keyword/value DSN such as "host=localhost dbname=app"
		return Postgres, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedURL, u)
	}
}

func hasSQLiteSuffix(lower string) bool {
	path, _, _ := strings.Cut(lower, "?")

	for _, suffix := range []string{".db", ".sqlite", ".sqlite3"} {
		if strings.HasSuffix(path, suffix) {
			return true
		}
	}

	return false
}

// SQLitePath strips the sqlite scheme from a URL, leaving a path or file: URI
// that the driver understands.
func SQLitePath(databaseURL string) string {
	u := strings.TrimSpace(databaseURL)

	for _, prefix := range []string{"sqlite://", "sqlite:"} {
		if len(u) >= len(prefix) && strings.EqualFold(u[:len(prefix)], prefix) {
			return u[len(prefix):]
		}
	}

	return u
}

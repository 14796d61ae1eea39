package migration

import (
	"fmt"
	"sort"
	"strings"
)

// CompareVersions orders two versions by numeric value, so "9" sorts before
// "10" and "1" equals "01". Versions are digit strings.
func CompareVersions(a, b string) int {
	a, b = trimZeros(a), trimZeros(b)

	if len(a) != len(b) {
		if len(a) < len(b) {
			return -1
		}

		return 1
	}

	return strings.Compare(a, b)
}

func trimZeros(v string) string {
	v = strings.TrimLeft(v, "0")
	if v == "" {
		return "0"
	}

	return v
}

// Sort returns a new slice of migrations sorted by version.
// The sort is stable to preserve insertion order for equal versions.
func Sort(migrations []Migration) []Migration {
	sorted := make([]Migration, len(migrations))
	copy(sorted, migrations)

	sort.SliceStable(sorted, func(i, j int) bool {
		return CompareVersions(sorted[i].Version, sorted[j].Version) < 0
	})

	return sorted
}

// Validate checks that versions are strictly increasing. Versions with the
// same numeric value, such as "1" and "01", are duplicates.
func Validate(migrations []Migration) error {
	for i := 1; i < len(migrations); i++ {
		prev, cur := migrations[i-1].Version, migrations[i].Version

		switch c := CompareVersions(prev, cur); {
		case c == 0:
			return fmt.Errorf("%w: %s (%s, %s)", ErrDuplicateVersion, cur, migrations[i-1].Name, migrations[i].Name)
		case c > 0:
			return fmt.Errorf("%w: %s follows %s", ErrUnsorted, cur, prev)
		}
	}

	return nil
}

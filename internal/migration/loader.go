package migration

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"
)

// filenamePattern matches migration files in two formats, with an optional
// direction suffix:
//
//	V{version}_{name}[.up|.down].sql   (e.g., V001_add_availability_errors_table.sql)
//	{timestamp}_{name}[.up|.down].sql  (e.g., 20240101120000_create_users.up.sql)
var filenamePattern = regexp.MustCompile( //nolint:gochecknoglobals // compiled once, used by loadFiles
	`^(?:V(\d+)|(\d{14}))_(.+?)(\.up|\.down)?\.sql$`,
)

// LoadFromDir scans a directory for migration files and returns them sorted by version.
// Files that do not match the expected naming pattern and .down.sql files are skipped.
func LoadFromDir(dir string) ([]Migration, error) {
	return loadFiles(os.DirFS(dir), ".", func(name string) string {
		return filepath.Join(dir, name)
	})
}

// LoadFromFS scans dir inside fsys, typically an embed.FS, and returns the
// migrations sorted by version.
func LoadFromFS(fsys fs.FS, dir string) ([]Migration, error) {
	return loadFiles(fsys, dir, func(name string) string {
		return path.Join(dir, name)
	})
}

func loadFiles(fsys fs.FS, dir string, displayPath func(string) string) ([]Migration, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("reading migrations directory %s: %w", displayPath(""), err)
	}

	var migrations []Migration

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		version, name, ok := parseFilename(entry.Name())
		if !ok {
			continue
		}

		filePath := displayPath(entry.Name())

		data, err := fs.ReadFile(fsys, path.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("reading migration file %s: %w", filePath, err)
		}

		m := New(version, name, strings.TrimSpace(string(data)))
		m.FilePath = filePath
		migrations = append(migrations, m)
	}

	sorted := Sort(migrations)
	if err := Validate(sorted); err != nil {
		return nil, err
	}

	return sorted, nil
}

// parseFilename extracts version and name from an up migration filename.
func parseFilename(filename string) (version, name string, ok bool) {
	matches := filenamePattern.FindStringSubmatch(filename)
	if matches == nil || matches[4] == ".down" {
		return "", "", false
	}

	version = matches[1] // V-prefixed version
	if version == "" {
		version = matches[2] // timestamp version
	}

	return version, matches[3], true
}

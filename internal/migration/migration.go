package migration

import (
	"crypto/sha256"
	"encoding/hex"
)

// Migration is a single versioned change script.
type Migration struct {
	Version  string // "001" or "20240101120000", extracted from filename
	Name     string // "add_availability_errors_table", extracted from filename
	UpSQL    string // Trimmed body of the migration file
	Checksum string // SHA-256 hex digest of UpSQL
	FilePath string // Path of the source file
}

// ComputeChecksum returns the SHA-256 hex digest of the given SQL string.
func ComputeChecksum(sql string) string {
	h := sha256.Sum256([]byte(sql))

	return hex.EncodeToString(h[:])
}

// New builds a Migration from an in-memory body, computing its checksum.
func New(version, name, sql string) Migration {
	return Migration{
		Version:  version,
		Name:     name,
		UpSQL:    sql,
		Checksum: ComputeChecksum(sql),
	}
}

// ID returns the display identifier "version_name".
func (m *Migration) ID() string {
	if m.Name == "" {
		return m.Version
	}

	return m.Version + "_" + m.Name
}

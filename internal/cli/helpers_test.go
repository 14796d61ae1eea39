package cli

import (
	"bytes"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/aqasim81/migration-runner/internal/config"
)

// Tests in this package write the global AppConfig and Logger and must not
// run in parallel with each other.

type project struct {
	dir   string
	dbURL string
}

// newProject creates a migrations directory and a SQLite database URL.
func newProject(t *testing.T, files map[string]string) *project {
	t.Helper()

	root := t.TempDir()
	dir := filepath.Join(root, "migrations")
	require.NoError(t, os.Mkdir(dir, 0o755))

	for name, body := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o600))
	}

	return &project{dir: dir, dbURL: "sqlite://" + filepath.Join(root, "app.db")}
}

func (p *project) write(t *testing.T, name, body string) {
	t.Helper()

	require.NoError(t, os.WriteFile(filepath.Join(p.dir, name), []byte(body), 0o600))
}

// useConfig installs cfg as AppConfig with a silent logger for one test.
func useConfig(t *testing.T, cfg *config.Config) {
	t.Helper()

	oldCfg, oldLogger := AppConfig, Logger
	AppConfig = cfg
	Logger = slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Cleanup(func() { AppConfig, Logger = oldCfg, oldLogger })
}

func (p *project) config() *config.Config {
	cfg := config.New()
	cfg.DatabaseURL = p.dbURL
	cfg.MigrationsDir = p.dir

	return cfg
}

// newTestCmd builds a command wired to run with its flags and a captured
// output buffer.
func newTestCmd(run func(*cobra.Command, []string) error, addFlags func(*cobra.Command)) (*cobra.Command, *bytes.Buffer) {
	buf := new(bytes.Buffer)
	cmd := &cobra.Command{RunE: run}

	if addFlags != nil {
		addFlags(cmd)
	}

	cmd.SetOut(buf)
	cmd.SetErr(buf)

	return cmd, buf
}

func runCmd(t *testing.T, run func(*cobra.Command, []string) error, addFlags func(*cobra.Command), flags map[string]string, args ...string) (string, error) {
	t.Helper()

	cmd, buf := newTestCmd(run, addFlags)
	for k, v := range flags {
		require.NoError(t, cmd.Flags().Set(k, v))
	}

	err := run(cmd, args)

	return buf.String(), err
}

var usersMigrations = map[string]string{ //nolint:gochecknoglobals // test fixture
	"V001_create_users.sql":   "CREATE TABLE IF NOT EXISTS users (id INTEGER PRIMARY KEY);",
	"V002_add_email.sql":      "ALTER TABLE users ADD COLUMN email TEXT;",
	"V002_add_email.down.sql": "ALTER TABLE users DROP COLUMN email;",
	"README.md":               "not a migration",
}

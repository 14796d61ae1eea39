package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/aqasim81/migration-runner/internal/config"
	"github.com/aqasim81/migration-runner/internal/database"
	"github.com/aqasim81/migration-runner/internal/executor"
	"github.com/aqasim81/migration-runner/internal/migration"
	"github.com/aqasim81/migration-runner/internal/tracker"
	"github.com/aqasim81/migration-runner/migrations"
)

// errDatabaseURLRequired is returned when no database URL is configured.
var errDatabaseURLRequired = errors.New( //nolint:gochecknoglobals // sentinel error
	"database URL is required (set --database-url, MIGRATE_DATABASE_URL, DATABASE_URL, or database_url in config)",
)

// openBackend connects to the configured store. The returned close function
// is never nil.
func openBackend(
	ctx context.Context,
	cfg *config.Config,
	out io.Writer,
	logger *slog.Logger,
) (executor.Backend, func(), error) {
	noop := func() {}

	if cfg.DatabaseURL == "" {
		return nil, noop, errDatabaseURLRequired
	}

	driver, err := database.DetectDriver(cfg.DatabaseURL)
	if err != nil {
		return nil, noop, err
	}

	fmt.Fprintf(out, "Connecting to %s\n", config.RedactDSN(cfg.DatabaseURL))

	switch driver {
	case database.SQLite:
		db, err := database.OpenSQLite(ctx, cfg.DatabaseURL, cfg.LockTimeout)
		if err != nil {
			return nil, noop, fmt.Errorf("connecting to database: %w", err)
		}

		tr, err := tracker.NewSQLite(db, cfg.TrackingTable)
		if err != nil {
			_ = db.Close()

			return nil, noop, err
		}

		return executor.NewSQLiteBackend(db, tr, cfg.LockWait, logger), func() { _ = db.Close() }, nil
	default:
		pool, err := database.Connect(ctx, cfg.DatabaseURL, cfg.ConnectRetries)
		if err != nil {
			return nil, noop, fmt.Errorf("connecting to database: %w", err)
		}

		tr, err := tracker.NewWithTable(pool, cfg.TrackingTable)
		if err != nil {
			pool.Close()

			return nil, noop, err
		}

		backend := executor.NewPostgresBackend(pool, tr, executor.PostgresConfig{
			LockTimeout:      cfg.LockTimeout,
			StatementTimeout: cfg.StatementTimeout,
			LockWait:         cfg.LockWait,
		}, logger)

		return backend, pool.Close, nil
	}
}

// addSourceFlags registers the flags that choose where migrations come from.
func addSourceFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("embedded", false, "use the migrations compiled into the binary")
}

// loadMigrations reads migrations from the embedded set or the configured
// directory, sorted and validated.
func loadMigrations(cmd *cobra.Command, cfg *config.Config) ([]migration.Migration, error) {
	embedded, _ := cmd.Flags().GetBool("embedded")

	var (
		ms  []migration.Migration
		err error
	)

	if embedded {
		ms, err = migration.LoadFromFS(migrations.FS, migrations.DirFor(string(embeddedDriver(cfg.DatabaseURL))))
	} else {
		ms, err = migration.LoadFromDir(cfg.MigrationsDir)
	}

	if err != nil {
		return nil, fmt.Errorf("loading migrations: %w", err)
	}

	return ms, nil
}

// embeddedDriver picks the dialect of the embedded set. Without a usable URL
// the PostgreSQL set is used.
func embeddedDriver(databaseURL string) database.Driver {
	driver, err := database.DetectDriver(databaseURL)
	if err != nil {
		return database.Postgres
	}

	return driver
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}

	return context.Background()
}

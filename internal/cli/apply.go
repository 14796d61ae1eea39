package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/aqasim81/migration-runner/internal/config"
	"github.com/aqasim81/migration-runner/internal/executor"
	"github.com/aqasim81/migration-runner/internal/metrics"
)

var applyCmd = &cobra.Command{ //nolint:gochecknoglobals // standard Cobra pattern
	Use:   "apply",
	Short: "Apply pending migrations",
	Long: `Apply pending migrations in version order. Each migration and its
tracking record commit in one transaction; the run stops at the first
failure. Applied migrations whose files changed abort the run before
anything executes.`,
	RunE: runApply,
}

func init() { //nolint:gochecknoinits // standard Cobra pattern for flag registration
	addApplyFlags(applyCmd)
	rootCmd.AddCommand(applyCmd)
}

func addApplyFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("dry-run", false, "show what would be applied without executing")
	cmd.Flags().Duration("lock-timeout", 0, "override lock timeout (e.g., 10s, 1m)")
	cmd.Flags().Duration("statement-timeout", 0, "override statement timeout (e.g., 30s, 5m)")
	cmd.Flags().Duration("lock-wait", 0, "wait up to this long for another run to finish")
	cmd.Flags().Bool("allow-out-of-order", false, "apply pending migrations older than the latest applied one")
	addSourceFlags(cmd)
}

func runApply(cmd *cobra.Command, _ []string) error {
	cfg := *AppConfig
	applyOverrides(cmd, &cfg)

	dryRun, _ := cmd.Flags().GetBool("dry-run")
	out := cmd.OutOrStdout()

	ms, err := loadMigrations(cmd, &cfg)
	if err != nil {
		return err
	}

	if len(ms) == 0 {
		fmt.Fprintln(out, "No migration files found.")
		return nil
	}

	ctx := commandContext(cmd)

	backend, closeFn, err := openBackend(ctx, &cfg, out, Logger)
	if err != nil {
		return err
	}
	defer closeFn()

	rec := metrics.New()
	summary := &applySummary{out: out}

	exec := executor.New(backend,
		executor.WithDryRun(dryRun),
		executor.WithLogger(Logger),
		executor.WithAllowOutOfOrder(cfg.AllowOutOfOrder),
		executor.WithMetrics(rec),
		executor.WithProgressCallback(summary.onProgress),
	)

	if dryRun {
		fmt.Fprintln(out, "\n--- DRY RUN (no changes will be made) ---")
	}

	runErr := exec.Apply(ctx, ms)

	if cfg.MetricsPushURL != "" {
		pushMetrics(ctx, rec, &cfg)
	}

	if runErr != nil {
		return runErr
	}

	summary.print(dryRun)

	return nil
}

// applyOverrides copies explicitly-set apply flags into cfg.
func applyOverrides(cmd *cobra.Command, cfg *config.Config) {
	if cmd.Flags().Changed("lock-timeout") {
		cfg.LockTimeout, _ = cmd.Flags().GetDuration("lock-timeout")
	}

	if cmd.Flags().Changed("statement-timeout") {
		cfg.StatementTimeout, _ = cmd.Flags().GetDuration("statement-timeout")
	}

	if cmd.Flags().Changed("lock-wait") {
		cfg.LockWait, _ = cmd.Flags().GetDuration("lock-wait")
	}

	if cmd.Flags().Changed("allow-out-of-order") {
		cfg.AllowOutOfOrder, _ = cmd.Flags().GetBool("allow-out-of-order")
	}
}

type applySummary struct {
	out     io.Writer
	applied int
	skipped int
	pending int
}

func (s *applySummary) onProgress(event executor.ProgressEvent) {
	m := event.Migration

	switch event.Status {
	case executor.StatusStarting:
		fmt.Fprintf(s.out, "  Applying %s ... ", m.ID())
	case executor.StatusCompleted:
		fmt.Fprintf(s.out, "done (%s)\n", event.Duration.Truncate(time.Millisecond))
		s.applied++
	case executor.StatusPending:
		fmt.Fprintf(s.out, "  Would apply %s\n", m.ID())
		s.pending++
	case executor.StatusSkipped:
		s.skipped++
	case executor.StatusFailed:
		fmt.Fprintf(s.out, "FAILED\n")
		fmt.Fprintf(s.out, "    Error: %v\n", event.Error)
	}
}

func (s *applySummary) print(dryRun bool) {
	if dryRun {
		fmt.Fprintf(s.out, "\nDry run complete: %d migration(s) would be applied, %d already applied.\n",
			s.pending, s.skipped)

		return
	}

	fmt.Fprintf(s.out, "\nApply complete: %d applied, %d skipped.\n", s.applied, s.skipped)
}

// pushMetrics sends the run's metrics. A failed push is logged, not returned.
func pushMetrics(ctx context.Context, rec *metrics.Recorder, cfg *config.Config) {
	grouping := map[string]string{"table": cfg.TrackingTable}

	if err := rec.Push(ctx, cfg.MetricsPushURL, cfg.MetricsJob, grouping); err != nil {
		Logger.WarnContext(ctx, "metrics push failed", slog.String("error", err.Error()))
		return
	}

	Logger.DebugContext(ctx, "metrics pushed", slog.String("job", cfg.MetricsJob))
}

package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/aqasim81/migration-runner/internal/executor"
)

var statusCmd = &cobra.Command{ //nolint:gochecknoglobals // standard Cobra pattern
	Use:   "status",
	Short: "Show migration status",
	Long: `Display every migration file and every tracking record with its state:
applied, pending, drifted (file changed after it was applied) or missing
(applied, but the file is gone).`,
	RunE: runStatus,
}

func init() { //nolint:gochecknoinits // standard Cobra pattern for flag registration
	addStatusFlags(statusCmd)
	rootCmd.AddCommand(statusCmd)
}

func addStatusFlags(cmd *cobra.Command) {
	cmd.Flags().String("format", "", "output format (text, json)")
	addSourceFlags(cmd)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	cfg := AppConfig

	format := cfg.Format
	if cmd.Flags().Changed("format") {
		format, _ = cmd.Flags().GetString("format")
	}

	if format == "" {
		format = "text"
	}

	if format != "text" && format != "json" {
		return fmt.Errorf("unknown format %q (want text or json)", format)
	}

	ms, err := loadMigrations(cmd, cfg)
	if err != nil {
		return err
	}

	ctx := commandContext(cmd)

	// Connection chatter stays off stdout so JSON output remains parseable.
	backend, closeFn, err := openBackend(ctx, cfg, cmd.ErrOrStderr(), Logger)
	if err != nil {
		return err
	}
	defer closeFn()

	statuses, err := executor.New(backend, executor.WithLogger(Logger)).Status(ctx, ms)
	if err != nil {
		return fmt.Errorf("reading migration status: %w", err)
	}

	if format == "json" {
		return writeStatusJSON(cmd.OutOrStdout(), statuses)
	}

	return writeStatusText(cmd.OutOrStdout(), statuses)
}

func writeStatusJSON(out io.Writer, statuses []executor.MigrationStatus) error {
	if statuses == nil {
		statuses = []executor.MigrationStatus{}
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")

	if err := enc.Encode(statuses); err != nil {
		return fmt.Errorf("encoding status: %w", err)
	}

	return nil
}

func writeStatusText(out io.Writer, statuses []executor.MigrationStatus) error {
	if len(statuses) == 0 {
		fmt.Fprintln(out, "No migrations found.")
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0) //nolint:mnd // column padding

	fmt.Fprintln(tw, "VERSION\tNAME\tSTATE\tAPPLIED\tDURATION")

	counts := make(map[string]int)

	for _, s := range statuses {
		counts[s.State]++

		applied, duration := "-", "-"
		if s.AppliedAt != nil {
			applied = humanize.Time(*s.AppliedAt)
			duration = fmt.Sprintf("%dms", s.Duration)
		}

		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", s.Version, s.Name, s.State, applied, duration)
	}

	if err := tw.Flush(); err != nil {
		return fmt.Errorf("writing status: %w", err)
	}

	fmt.Fprintf(out, "\n%d applied, %d pending, %d drifted, %d missing.\n",
		counts[executor.StateApplied],
		counts[executor.StatePending],
		counts[executor.StateDrifted],
		counts[executor.StateMissing],
	)

	return nil
}

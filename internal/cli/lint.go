package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/aqasim81/migration-runner/internal/lint"
	"github.com/aqasim81/migration-runner/internal/lint/rules"
)

var lintCmd = &cobra.Command{ //nolint:gochecknoglobals // standard Cobra pattern
	Use:   "lint [migration-dir]",
	Short: "Report statements that are not safe to re-run",
	Long: `Parse migrations with the PostgreSQL parser and report statements that
fail or repeat their effect when run a second time, such as CREATE TABLE
without IF NOT EXISTS. Lint never blocks apply.`,
	RunE: runLint,
}

func init() { //nolint:gochecknoinits // standard Cobra pattern for flag registration
	addLintFlags(lintCmd)
	rootCmd.AddCommand(lintCmd)
}

func addLintFlags(cmd *cobra.Command) {
	cmd.Flags().String("fail-on", "", "exit non-zero when a finding reaches this severity (low, medium, high, critical)")
	addSourceFlags(cmd)
}

// errLintThreshold is returned when --fail-on is set and a finding reaches it.
var errLintThreshold = errors.New("lint findings reached the --fail-on threshold")

func runLint(cmd *cobra.Command, args []string) error {
	cfg := *AppConfig
	if len(args) > 0 {
		cfg.MigrationsDir = args[0]
	}

	threshold := lint.Severity(-1)

	if v, _ := cmd.Flags().GetString("fail-on"); v != "" {
		s, err := lint.ParseSeverity(v)
		if err != nil {
			return fmt.Errorf("parsing --fail-on: %w", err)
		}

		threshold = s
	}

	ms, err := loadMigrations(cmd, &cfg)
	if err != nil {
		return err
	}

	if len(ms) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No migration files found.")
		return nil
	}

	l := lint.New(
		lint.WithRegistry(rules.NewDefaultRegistry()),
		lint.WithPGVersion(cfg.TargetPGVersion),
	)

	results, err := l.LintAll(ms)
	if err != nil {
		return fmt.Errorf("linting migrations: %w", err)
	}

	printLintResults(cmd.OutOrStdout(), results)

	if threshold < lint.Safe {
		return nil
	}

	for i := range results {
		if results[i].HasAtLeast(threshold) {
			return fmt.Errorf("%w (%s)", errLintThreshold, threshold)
		}
	}

	return nil
}

func printLintResults(out io.Writer, results []lint.Result) {
	total := 0

	for _, r := range results {
		if len(r.Findings) == 0 {
			continue
		}

		fmt.Fprintf(out, "\n=== %s ===\n", r.Migration.ID())

		for _, f := range r.Findings {
			fmt.Fprintf(out, "  [%s] %s\n", f.Severity, f.Message)
			fmt.Fprintf(out, "    Table: %s\n", f.Table)
			fmt.Fprintf(out, "    Rule:  %s\n", f.Rule)

			if f.Statement != "" {
				fmt.Fprintf(out, "    SQL:   %s\n", oneLine(f.Statement))
			}

			fmt.Fprintf(out, "    Fix:   %s\n\n", f.Suggestion)
		}

		total += len(r.Findings)
	}

	if total == 0 {
		fmt.Fprintln(out, "All statements are safe to re-run.")
		return
	}

	fmt.Fprintf(out, "Found %d finding(s) across %d migration(s).\n", total, countMigrationsWithFindings(results))
}

func countMigrationsWithFindings(results []lint.Result) int {
	count := 0

	for _, r := range results {
		if len(r.Findings) > 0 {
			count++
		}
	}

	return count
}

package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aqasim81/migration-runner/internal/executor"
	"github.com/aqasim81/migration-runner/internal/migration"
	"github.com/aqasim81/migration-runner/internal/parser"
)

var planCmd = &cobra.Command{ //nolint:gochecknoglobals // standard Cobra pattern
	Use:   "plan",
	Short: "Show execution plan for pending migrations",
	Long: `Display the pending migrations in the order apply would run them,
with each migration's statements and whether it runs inside a transaction.`,
	RunE: runPlan,
}

func init() { //nolint:gochecknoinits // standard Cobra pattern for flag registration
	addSourceFlags(planCmd)
	rootCmd.AddCommand(planCmd)
}

func runPlan(cmd *cobra.Command, _ []string) error {
	cfg := AppConfig
	out := cmd.OutOrStdout()

	ms, err := loadMigrations(cmd, cfg)
	if err != nil {
		return err
	}

	ctx := commandContext(cmd)

	backend, closeFn, err := openBackend(ctx, cfg, out, Logger)
	if err != nil {
		return err
	}
	defer closeFn()

	statuses, err := executor.New(backend, executor.WithLogger(Logger)).Status(ctx, ms)
	if err != nil {
		return fmt.Errorf("reading migration status: %w", err)
	}

	for _, s := range statuses {
		if s.State == executor.StateDrifted {
			fmt.Fprintf(out, "WARNING: %s_%s changed after it was applied; apply will refuse to run.\n", s.Version, s.Name)
		}
	}

	pending := executor.Pending(statuses)

	if len(pending) == 0 {
		fmt.Fprintln(out, "Nothing to apply.")
		return nil
	}

	fmt.Fprintf(out, "%d migration(s) to apply:\n", len(pending))

	for i, m := range pending {
		printPlanEntry(out, i+1, m)
	}

	return nil
}

func printPlanEntry(out io.Writer, n int, m *migration.Migration) {
	mode := "transaction"
	if executor.RequiresNoTransaction(m.UpSQL) {
		mode = "no transaction"
	}

	fmt.Fprintf(out, "\n%d. %s (%s)\n", n, m.ID(), mode)

	stmts, err := parser.Split(m.UpSQL)
	if err != nil {
		fmt.Fprintf(out, "   unparsed: %v\n", err)
		fmt.Fprintf(out, "   - %s\n", oneLine(m.UpSQL))

		return
	}

	for _, s := range stmts {
		fmt.Fprintf(out, "   - %s\n", oneLine(s.Text))
	}
}

// oneLine collapses runs of whitespace so a statement prints on one line.
func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

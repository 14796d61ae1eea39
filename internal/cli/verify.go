package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aqasim81/migration-runner/internal/executor"
)

var verifyCmd = &cobra.Command{ //nolint:gochecknoglobals // standard Cobra pattern
	Use:   "verify",
	Short: "Check applied migrations against their files",
	Long: `Compare the checksum recorded for every applied migration with the
current file. Exits non-zero when any applied migration was edited.`,
	RunE: runVerify,
}

func init() { //nolint:gochecknoinits // standard Cobra pattern for flag registration
	addSourceFlags(verifyCmd)
	rootCmd.AddCommand(verifyCmd)
}

func runVerify(cmd *cobra.Command, _ []string) error {
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

	if err := executor.New(backend, executor.WithLogger(Logger)).Verify(ctx, ms); err != nil {
		return err
	}

	fmt.Fprintln(out, "All applied migrations match their files.")

	return nil
}

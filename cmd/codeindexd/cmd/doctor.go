package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/codeindex-dev/codeindex/internal/output"
	"github.com/codeindex-dev/codeindex/internal/preflight"
)

func newDoctorCmd() *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Run pre-flight system checks",
		Long:  `Checks disk space, memory, write permissions, file descriptor limits and config validity before indexing starts.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := output.New(cmd.OutOrStdout())
			checker := preflight.New(
				preflight.WithVerbose(verbose),
				preflight.WithOutput(cmd.OutOrStdout()),
			)
			results := checker.RunAll(cmd.Context(), projectPath)
			checker.PrintResults(results)

			switch checker.SummaryStatus(results) {
			case "failed":
				return fmt.Errorf("system check failed")
			case "ready_with_warnings":
				out.Warning("codeindexd is ready, with warnings")
			default:
				out.Success("codeindexd is ready")
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Show detailed check output")

	return cmd
}

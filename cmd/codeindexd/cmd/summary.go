package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/codeindex-dev/codeindex/internal/output"
)

func newSummaryCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "summary <file>",
		Short: "Summarize a single indexed file",
		Long:  `Extracts line count, size, and (for recognised languages) imports, classes, and functions.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := openService(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = svc.Close() }()

			summary, err := svc.GetFileSummary(args[0])
			if err != nil {
				return fmt.Errorf("summary failed: %w", err)
			}

			if jsonOutput {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(summary)
			}

			out := output.New(cmd.OutOrStdout())
			out.Statusf("", "%s: %d lines, %d bytes", args[0], summary.LineCount, summary.Size)
			if len(summary.Imports) > 0 {
				out.Statusf("", "  imports: %v", summary.Imports)
			}
			if len(summary.Classes) > 0 {
				out.Statusf("", "  classes: %v", summary.Classes)
			}
			if len(summary.Functions) > 0 {
				out.Statusf("", "  functions: %v", summary.Functions)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output raw JSON")

	return cmd
}

package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/codeindex-dev/codeindex/internal/output"
)

func newStatsCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show in-flight and recent indexing operations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := openService(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = svc.Close() }()

			ops, err := svc.GetOperations()
			if err != nil {
				return fmt.Errorf("stats failed: %w", err)
			}

			if jsonOutput {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(ops)
			}

			out := output.New(cmd.OutOrStdout())
			if len(ops) == 0 {
				out.Status("", "No tracked operations")
				return nil
			}
			for _, op := range ops {
				out.Statusf("", "%s [%s] %s: %d/%d (%s)", op.ID, op.Status, op.Name, op.ProcessedItems, op.TotalItems, op.CurrentStage)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output raw JSON")

	return cmd
}

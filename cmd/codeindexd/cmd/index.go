package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/codeindex-dev/codeindex/internal/output"
)

func newIndexCmd() *cobra.Command {
	var clearCache bool

	cmd := &cobra.Command{
		Use:   "index",
		Short: "Force a full reindex of the project",
		Long:  `Re-walks the project from scratch, as if every file changed, ignoring the incremental change tracker.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := output.New(cmd.OutOrStdout())
			svc, err := openService(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = svc.Close() }()

			result, err := svc.ForceReindex(cmd.Context(), clearCache)
			if err != nil {
				return fmt.Errorf("reindex failed: %w", err)
			}
			out.Successf("Indexed %d files (%d added, %d modified, %d deleted) in %dms",
				result.Files, result.Added, result.Modified, result.Deleted, result.Elapsed)
			return nil
		},
	}

	cmd.Flags().BoolVar(&clearCache, "clear-cache", false, "Clear the content cache before reindexing")

	return cmd
}

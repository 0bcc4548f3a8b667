package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/codeindex-dev/codeindex/internal/output"
)

func newRefreshCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "refresh",
		Short: "Incrementally re-index changed files",
		Long:  `Walks the project, compares (mtime, size, hash) against the last known state, and re-indexes only what changed.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := output.New(cmd.OutOrStdout())
			svc, err := openService(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = svc.Close() }()

			result, err := svc.Refresh(cmd.Context())
			if err != nil {
				return fmt.Errorf("refresh failed: %w", err)
			}
			out.Successf("Refreshed: %d added, %d modified, %d deleted (%dms)",
				result.Added, result.Modified, result.Deleted, result.Elapsed)
			return nil
		},
	}

	return cmd
}

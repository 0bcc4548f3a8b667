package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/codeindex-dev/codeindex/internal/output"
)

func newMemoryCmd() *cobra.Command {
	var jsonOutput bool
	var profile bool

	cmd := &cobra.Command{
		Use:   "memory",
		Short: "Show memory-governor readings for the project",
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := openService(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = svc.Close() }()

			if profile {
				prof, err := svc.MemoryProfile()
				if err != nil {
					return fmt.Errorf("memory profile failed: %w", err)
				}
				if jsonOutput {
					enc := json.NewEncoder(cmd.OutOrStdout())
					enc.SetIndent("", "  ")
					return enc.Encode(prof)
				}
				out := output.New(cmd.OutOrStdout())
				out.Statusf("", "peak: %d MB RSS, %d loaded files, %d cached queries",
					prof.Peak.RSSBytes/(1024*1024), prof.Peak.LoadedFiles, prof.Peak.CachedQueries)
				out.Statusf("", "history: %d samples", len(prof.History))
				return nil
			}

			snap, err := svc.MemorySnapshot()
			if err != nil {
				return fmt.Errorf("memory snapshot failed: %w", err)
			}
			if jsonOutput {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(snap)
			}
			out := output.New(cmd.OutOrStdout())
			out.Statusf("", "%d MB RSS, %d goroutines, %d loaded files, %d cached queries",
				snap.RSSBytes/(1024*1024), snap.Goroutines, snap.LoadedFiles, snap.CachedQueries)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output raw JSON")
	cmd.Flags().BoolVar(&profile, "profile", false, "Show peak + history instead of the current snapshot")

	return cmd
}

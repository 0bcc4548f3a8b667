package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/codeindex-dev/codeindex/internal/output"
	"github.com/codeindex-dev/codeindex/internal/watcher"
)

func newWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Watch the project and incrementally re-index on change",
		Long:  `Runs until interrupted, refreshing the index whenever the file watcher reports a batch of changes.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := output.New(cmd.OutOrStdout())
			svc, err := openService(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = svc.Close() }()

			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			w, err := watcher.NewHybridWatcher(watcher.DefaultOptions())
			if err != nil {
				return fmt.Errorf("failed to start watcher: %w", err)
			}
			if err := w.Start(ctx, projectPath); err != nil {
				return fmt.Errorf("failed to watch %s: %w", projectPath, err)
			}
			defer func() { _ = w.Stop() }()

			out.Successf("Watching %s (%s)", projectPath, w.WatcherType())

			for {
				select {
				case <-ctx.Done():
					out.Newline()
					out.Status("", "Stopped")
					return nil
				case batch, ok := <-w.Events():
					if !ok {
						return nil
					}
					result, err := svc.Refresh(ctx)
					if err != nil {
						out.Errorf("refresh failed: %v", err)
						continue
					}
					out.Statusf("🔄", "%d file events: %d added, %d modified, %d deleted",
						len(batch), result.Added, result.Modified, result.Deleted)
				case err, ok := <-w.Errors():
					if !ok {
						continue
					}
					out.Errorf("watcher error: %v", err)
				}
			}
		},
	}

	return cmd
}

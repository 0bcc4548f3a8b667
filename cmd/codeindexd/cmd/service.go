package cmd

import (
	"context"
	"fmt"

	"github.com/codeindex-dev/codeindex/internal/config"
	"github.com/codeindex-dev/codeindex/pkg/codeindex"
)

// openService loads config for projectPath, opens it as the active project,
// and returns a Service ready for a single command invocation. Callers must
// Close it when done.
func openService(ctx context.Context) (*codeindex.Service, error) {
	cfg, err := config.Load(projectPath)
	if err != nil {
		cfg = config.NewConfig()
	}

	svc := codeindex.NewService(cfg)
	if _, err := svc.SetProject(ctx, projectPath); err != nil {
		return nil, fmt.Errorf("failed to open project %s: %w", projectPath, err)
	}
	return svc, nil
}

package cmd

import (
	"log/slog"

	"github.com/codeindex-dev/codeindex/internal/logging"
)

// loggingSetup configures debug logging using the daemon's default rotating
// file writer.
func loggingSetup() (*slog.Logger, func(), error) {
	return logging.Setup(logging.DebugConfig())
}

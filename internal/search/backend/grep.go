package backend

import (
	"bytes"
	"context"
	"os/exec"
	"runtime"
	"strconv"

	"github.com/codeindex-dev/codeindex/internal/errors"
)

// cliBackend runs an external line-oriented search tool and parses its
// output with the shared path:line:content parser. RipgrepBackend and
// AgBackend each supply their own argv builder.
type cliBackend struct {
	tool     string
	buildArg func(opts Options) []string

	lookPath    func(file string) (string, error)
	execCommand func(ctx context.Context, name string, args ...string) *exec.Cmd
}

func newCLIBackend(tool string, buildArg func(opts Options) []string) *cliBackend {
	return &cliBackend{
		tool:        tool,
		buildArg:    buildArg,
		lookPath:    exec.LookPath,
		execCommand: exec.CommandContext,
	}
}

func (b *cliBackend) Name() string { return b.tool }

func (b *cliBackend) IsAvailable() bool {
	_, err := b.lookPath(b.tool)
	return err == nil
}

func (b *cliBackend) Search(ctx context.Context, opts Options) (Result, error) {
	args := b.buildArg(opts)
	cmd := b.execCommand(ctx, b.tool, args...)
	cmd.Dir = opts.BasePath

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			if exitErr.ExitCode() == 1 {
				// Exit code 1 means "no matches" for grep-family tools.
				return Result{}, nil
			}
			return nil, errors.SearchFailedErr(b.tool, stderr.String())
		}
		return nil, errors.SearchFailedErr(b.tool, err.Error())
	}

	return parseOutput(stdout.String(), opts.BasePath), nil
}

func hostCPUCount() int {
	n := runtime.NumCPU()
	if n < 1 {
		return 1
	}
	return n
}

func itoa(n int) string { return strconv.Itoa(n) }

package backend

import (
	"context"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCLIBackend_IsAvailable_ReflectsLookPath(t *testing.T) {
	b := newCLIBackend("rg", buildRipgrepArgs)

	b.lookPath = func(string) (string, error) { return "/usr/bin/rg", nil }
	assert.True(t, b.IsAvailable())

	b.lookPath = func(string) (string, error) { return "", exec.ErrNotFound }
	assert.False(t, b.IsAvailable())
}

func TestCLIBackend_Search_ParsesStdout(t *testing.T) {
	b := newCLIBackend("rg", buildRipgrepArgs)
	b.execCommand = func(ctx context.Context, name string, args ...string) *exec.Cmd {
		return exec.CommandContext(ctx, "sh", "-c", `printf './a.go:3:hit\n'`)
	}

	result, err := b.Search(context.Background(), Options{Pattern: "hit", BasePath: "/base", CaseSensitive: true})
	require.NoError(t, err)
	require.Contains(t, result, "a.go")
	assert.Equal(t, 3, result["a.go"][0].Line)
}

func TestCLIBackend_Search_ExitCodeOneIsEmptySuccess(t *testing.T) {
	b := newCLIBackend("rg", buildRipgrepArgs)
	b.execCommand = func(ctx context.Context, name string, args ...string) *exec.Cmd {
		return exec.CommandContext(ctx, "sh", "-c", `exit 1`)
	}

	result, err := b.Search(context.Background(), Options{Pattern: "hit", BasePath: "/base", CaseSensitive: true})
	require.NoError(t, err)
	assert.Empty(t, result)
}

func TestCLIBackend_Search_ExitCodeAboveOneIsSearchFailed(t *testing.T) {
	b := newCLIBackend("rg", buildRipgrepArgs)
	b.execCommand = func(ctx context.Context, name string, args ...string) *exec.Cmd {
		return exec.CommandContext(ctx, "sh", "-c", `echo "bad pattern" >&2; exit 2`)
	}

	_, err := b.Search(context.Background(), Options{Pattern: "hit", BasePath: "/base", CaseSensitive: true})
	assert.Error(t, err)
}

func TestBuildRipgrepArgs_FixedStringsWhenNotFuzzy(t *testing.T) {
	args := buildRipgrepArgs(Options{Pattern: "foo", CaseSensitive: true})
	assert.Contains(t, args, "--fixed-strings")
	assert.Contains(t, args, "foo")
}

func TestBuildRipgrepArgs_FuzzyUsesSafePattern(t *testing.T) {
	args := buildRipgrepArgs(Options{Pattern: "test", Fuzzy: true})
	assert.NotContains(t, args, "--fixed-strings")
	assert.Contains(t, args, safeFuzzyPattern("test"))
}

func TestBuildRipgrepArgs_CaseInsensitiveAddsIgnoreCase(t *testing.T) {
	args := buildRipgrepArgs(Options{Pattern: "foo", CaseSensitive: false})
	assert.Contains(t, args, "--ignore-case")
}

func TestBuildRipgrepArgs_ContextLines(t *testing.T) {
	args := buildRipgrepArgs(Options{Pattern: "foo", ContextLines: 3})
	assert.Contains(t, args, "--context")
	assert.Contains(t, args, "3")
}

func TestBuildAgArgs_LiteralWhenNotFuzzy(t *testing.T) {
	args := buildAgArgs(Options{Pattern: "foo", CaseSensitive: true})
	assert.Contains(t, args, "--literal")
}

func TestBuildAgArgs_FilePatternAddsGlobFlag(t *testing.T) {
	args := buildAgArgs(Options{Pattern: "foo", FilePattern: "*.go"})
	assert.Contains(t, args, "-G")
	assert.Contains(t, args, "*.go")
}

func TestNewRipgrepBackend_Name(t *testing.T) {
	assert.Equal(t, "rg", NewRipgrepBackend().Name())
}

func TestNewAgBackend_Name(t *testing.T) {
	assert.Equal(t, "ag", NewAgBackend().Name())
}

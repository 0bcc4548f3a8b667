package indexer

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProcessChunk_BuildsRecordsWithHash(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.go")
	require.NoError(t, os.WriteFile(path, []byte("package a"), 0o644))

	chunk := []candidate{{RelPath: "a.go", AbsPath: path, Size: 9, ModTime: time.Now()}}
	res := processChunk(chunk, nil)

	require.Len(t, res.Records, 1)
	assert.Empty(t, res.Errors)
	assert.Equal(t, "a.go", res.Records[0].Path)
	assert.Equal(t, ".go", res.Records[0].Extension)
	assert.NotEmpty(t, res.Records[0].ContentHash)
}

func TestProcessChunk_CollectsPerFileErrorsWithoutAborting(t *testing.T) {
	dir := t.TempDir()
	ok := filepath.Join(dir, "ok.go")
	require.NoError(t, os.WriteFile(ok, []byte("package a"), 0o644))

	chunk := []candidate{
		{RelPath: "missing.go", AbsPath: filepath.Join(dir, "missing.go")},
		{RelPath: "ok.go", AbsPath: ok},
	}
	res := processChunk(chunk, nil)

	require.Len(t, res.Errors, 1)
	assert.Equal(t, "missing.go", res.Errors[0].Path)
	require.Len(t, res.Records, 1)
	assert.Equal(t, "ok.go", res.Records[0].Path)
}

func TestChunkPaths_PartitionsIntoConfiguredSize(t *testing.T) {
	paths := make([]string, 205)
	for i := range paths {
		paths[i] = string(rune('a' + i%26))
	}
	chunks := chunkPaths(paths, 100)
	require.Len(t, chunks, 3)
	assert.Len(t, chunks[0], 100)
	assert.Len(t, chunks[1], 100)
	assert.Len(t, chunks[2], 5)
}

func TestChunkPaths_EmptyInputYieldsNoChunks(t *testing.T) {
	assert.Nil(t, chunkPaths(nil, 100))
}

func TestChunkPaths_ZeroSizeYieldsSingleChunk(t *testing.T) {
	chunks := chunkPaths([]string{"a", "b", "c"}, 0)
	require.Len(t, chunks, 1)
	assert.Len(t, chunks[0], 3)
}

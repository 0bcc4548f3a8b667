package content

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, data, 0o644))
	return p
}

func TestRegistry_ContentLoadsOnFirstAccess(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "a.txt", []byte("hello world"))

	r := NewRegistry(0, 0)
	data, err := r.Content(p)
	require.NoError(t, err)
	assert.Equal(t, "hello world", string(data))
	assert.Equal(t, 1, r.LoadedCount())
}

func TestRegistry_ContentIsCachedAfterFirstLoad(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "a.txt", []byte("v1"))

	r := NewRegistry(0, 0)
	data1, err := r.Content(p)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(p, []byte("v2"), 0o644))
	data2, err := r.Content(p)
	require.NoError(t, err)

	assert.Equal(t, data1, data2, "second call returns the cached bytes, not a reread")
}

func TestHolder_UnloadForcesReread(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "a.txt", []byte("v1"))

	r := NewRegistry(0, 0)
	h := r.Register(p)
	_, err := h.Content(DefaultChunkSize, DefaultLargeFileThreshold, DefaultMmapThreshold)
	require.NoError(t, err)

	h.Unload()
	require.NoError(t, os.WriteFile(p, []byte("v2"), 0o644))

	data, err := h.Content(DefaultChunkSize, DefaultLargeFileThreshold, DefaultMmapThreshold)
	require.NoError(t, err)
	assert.Equal(t, "v2", string(data))
}

func TestRegistry_ChunkedReadForLargeFiles(t *testing.T) {
	dir := t.TempDir()
	content := strings.Repeat("x", 5000)
	p := writeFile(t, dir, "big.txt", []byte(content))

	r := NewRegistry(1000, 2000) // force chunked path at a low threshold
	data, err := r.Content(p)
	require.NoError(t, err)
	assert.Equal(t, content, string(data))
}

func TestRegistry_MissingFileReturnsError(t *testing.T) {
	r := NewRegistry(0, 0)
	_, err := r.Content(filepath.Join(t.TempDir(), "nope.txt"))
	assert.Error(t, err)
}

func TestRegistry_Enforce_UnloadsLeastRecentlyAccessed(t *testing.T) {
	dir := t.TempDir()
	pa := writeFile(t, dir, "a.txt", []byte("a"))
	pb := writeFile(t, dir, "b.txt", []byte("b"))
	pc := writeFile(t, dir, "c.txt", []byte("c"))

	r := NewRegistry(0, 0)
	_, _ = r.Content(pa)
	_, _ = r.Content(pb)
	_, _ = r.Content(pc) // c is most recently accessed

	n := r.Enforce(1)
	assert.Equal(t, 2, n)
	assert.Equal(t, 1, r.LoadedCount())

	h := r.Register(pc)
	assert.True(t, h.isLoaded(), "the most recently accessed holder should survive")
}

func TestRegistry_Enforce_NoopUnderCap(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "a.txt", []byte("a"))

	r := NewRegistry(0, 0)
	_, _ = r.Content(p)

	assert.Equal(t, 0, r.Enforce(10))
}

func TestComputeHash_StreamsWithoutFullLoad(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "a.txt", []byte("hello world"))

	hash, err := ComputeHash(p)
	require.NoError(t, err)
	assert.Len(t, hash, 64) // hex-encoded sha256
}

func TestComputeHash_SameContentSameHash(t *testing.T) {
	dir := t.TempDir()
	p1 := writeFile(t, dir, "a.txt", []byte("identical"))
	p2 := writeFile(t, dir, "b.txt", []byte("identical"))

	h1, err := ComputeHash(p1)
	require.NoError(t, err)
	h2, err := ComputeHash(p2)
	require.NoError(t, err)
	assert.Equal(t, h1, h2)
}

func TestRegistry_UnregisterRemovesHolder(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "a.txt", []byte("a"))

	r := NewRegistry(0, 0)
	_, _ = r.Content(p)
	r.Unregister(p)

	assert.Equal(t, 0, r.LoadedCount())
}

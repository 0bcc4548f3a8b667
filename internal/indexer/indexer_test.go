package indexer

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeindex-dev/codeindex/internal/filter"
	"github.com/codeindex-dev/codeindex/internal/ignore"
	"github.com/codeindex-dev/codeindex/internal/progress"
	"github.com/codeindex-dev/codeindex/internal/store"
	"github.com/codeindex-dev/codeindex/internal/tracker"
	"github.com/codeindex-dev/codeindex/internal/trie"
)

func newTestIndexer(t *testing.T, root string, policy filter.Policy) (*Indexer, Deps) {
	t.Helper()
	deps := Deps{
		Matcher: ignore.New(),
		Policy:  policy,
		Tracker: tracker.New(),
		Trie:    trie.New(),
		Store:   store.NewMemStore(),
	}
	stateDir := t.TempDir()
	return New(root, stateDir, deps, 4, 2), deps
}

func TestIndexer_ColdIndex_ScenarioOne(t *testing.T) {
	root := t.TempDir()
	writeIndexerFile(t, root, "main.py", "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	writeIndexerFile(t, root, "utils/helper.py", "bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb")
	writeIndexerFile(t, root, "config.json", "cccccccccccccccccccccccccccccccccccccccccccccc")

	ix, deps := newTestIndexer(t, root, filter.Policy{})

	result, err := ix.Refresh(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, result.Files)
	assert.Equal(t, 3, result.Added)
	assert.Equal(t, 0, result.Modified)
	assert.Equal(t, 0, result.Deleted)

	all := deps.Trie.AllFiles()
	var paths []string
	for _, r := range all {
		paths = append(paths, r.Path)
	}
	assert.ElementsMatch(t, []string{"main.py", "utils/helper.py", "config.json"}, paths)
}

func TestIndexer_Refresh_TrieAndTrackerKeySetsAreEqual(t *testing.T) {
	root := t.TempDir()
	writeIndexerFile(t, root, "a.go", "package a")
	writeIndexerFile(t, root, "b/c.go", "package c")

	ix, deps := newTestIndexer(t, root, filter.Policy{})
	_, err := ix.Refresh(context.Background())
	require.NoError(t, err)

	trieKeys := map[string]bool{}
	for _, r := range deps.Trie.AllFiles() {
		trieKeys[r.Path] = true
	}
	trackerKeys := map[string]bool{}
	for k := range deps.Tracker.Snapshot() {
		trackerKeys[k] = true
	}
	assert.Equal(t, trieKeys, trackerKeys)
}

func TestIndexer_IncrementalRefresh_ScenarioFour(t *testing.T) {
	root := t.TempDir()
	writeIndexerFile(t, root, "main.py", "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	writeIndexerFile(t, root, "utils/helper.py", "bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb")
	writeIndexerFile(t, root, "config.json", "cccccccccccccccccccccccccccccccccccccccccccccc")

	ix, _ := newTestIndexer(t, root, filter.Policy{})
	_, err := ix.Refresh(context.Background())
	require.NoError(t, err)

	// ensure the mtime actually advances on the filesystems under test
	time.Sleep(10 * time.Millisecond)
	mainPath := filepath.Join(root, "main.py")
	data, err := os.ReadFile(mainPath)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(mainPath, append(data, 'x'), 0o644))

	result, err := ix.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, result.Added)
	assert.Equal(t, 1, result.Modified)
	assert.Equal(t, 0, result.Deleted)
	assert.Equal(t, 3, result.Files)

	result2, err := ix.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, result2.Added)
	assert.Equal(t, 0, result2.Modified)
	assert.Equal(t, 0, result2.Deleted)
}

func TestIndexer_Refresh_DeletedFileIsPruned(t *testing.T) {
	root := t.TempDir()
	writeIndexerFile(t, root, "keep.go", "package a")
	writeIndexerFile(t, root, "gone.go", "package a")

	ix, deps := newTestIndexer(t, root, filter.Policy{})
	_, err := ix.Refresh(context.Background())
	require.NoError(t, err)

	require.NoError(t, os.Remove(filepath.Join(root, "gone.go")))

	result, err := ix.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Deleted)
	assert.Equal(t, 1, result.Files)

	_, ok := deps.Trie.GetFileInfo("gone.go")
	assert.False(t, ok)
	_, ok = deps.Tracker.Get("gone.go")
	assert.False(t, ok)
}

func TestIndexer_EmptyProjectRefreshesToZeroFiles(t *testing.T) {
	root := t.TempDir()
	ix, _ := newTestIndexer(t, root, filter.Policy{})

	result, err := ix.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, result.Files)
}

func TestIndexer_ForceReindex_TreatsEverythingAsAdded(t *testing.T) {
	root := t.TempDir()
	writeIndexerFile(t, root, "a.go", "package a")

	ix, _ := newTestIndexer(t, root, filter.Policy{})
	_, err := ix.Refresh(context.Background())
	require.NoError(t, err)

	result, err := ix.ForceReindex(context.Background(), true)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Added)
	assert.Equal(t, 0, result.Modified)
	assert.Equal(t, 1, result.Files)
}

func TestIndexer_SecondConcurrentRefreshReturnsAlreadyRunning(t *testing.T) {
	root := t.TempDir()
	writeIndexerFile(t, root, "a.go", "package a")

	deps1 := Deps{Matcher: ignore.New(), Tracker: tracker.New(), Trie: trie.New(), Store: store.NewMemStore()}
	stateDir := t.TempDir()
	ix1 := New(root, stateDir, deps1, 4, 2)

	release, err := ix1.lock.TryAcquire(root)
	require.NoError(t, err)
	defer release()

	deps2 := Deps{Matcher: ignore.New(), Tracker: tracker.New(), Trie: trie.New(), Store: store.NewMemStore()}
	ix2 := New(root, stateDir, deps2, 4, 2)

	_, err = ix2.Refresh(context.Background())
	require.Error(t, err)
}

func TestIndexer_SizeLimitExclusionAfterModification(t *testing.T) {
	root := t.TempDir()
	writeIndexerFile(t, root, "grow.log", "small")

	policy := filter.Policy{TypeSpecificLimits: map[string]int64{".log": 20}}
	ix, deps := newTestIndexer(t, root, policy)

	_, err := ix.Refresh(context.Background())
	require.NoError(t, err)
	_, ok := deps.Trie.GetFileInfo("grow.log")
	require.True(t, ok)

	require.NoError(t, os.WriteFile(filepath.Join(root, "grow.log"), []byte("this line is now far too long"), 0o644))

	result, err := ix.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Deleted)
	_, ok = deps.Trie.GetFileInfo("grow.log")
	assert.False(t, ok)
}

func TestIndexer_CancelBetweenChunksProducesPartialSubsetTree(t *testing.T) {
	root := t.TempDir()
	for i := 0; i < 10; i++ {
		writeIndexerFile(t, root, filepath.Join("pkg", string(rune('a'+i))+".go"), "package pkg")
	}

	deps := Deps{
		Matcher:  ignore.New(),
		Tracker:  tracker.New(),
		Trie:     trie.New(),
		Store:    store.NewMemStore(),
		Progress: progress.NewRegistry(),
	}
	ix := New(root, t.TempDir(), deps, 1, 1)

	deps.Progress.Subscribe(func(e progress.Event) {
		if e.Type == progress.EventStageChanged && e.Operation.CurrentStage == "process" {
			op, ok := deps.Progress.Get(e.Operation.ID)
			if ok {
				op.Cancel()
			}
		}
	})

	result, err := ix.Refresh(context.Background())
	require.Error(t, err)
	assert.LessOrEqual(t, result.Files, 10)

	for _, r := range deps.Trie.AllFiles() {
		_, ok := deps.Tracker.Get(r.Path)
		assert.True(t, ok)
	}
}

func TestIndexer_Load_RestoresPersistedState(t *testing.T) {
	root := t.TempDir()
	writeIndexerFile(t, root, "a.go", "package a")

	deps := Deps{Matcher: ignore.New(), Tracker: tracker.New(), Trie: trie.New(), Store: store.NewMemStore()}
	stateDir := t.TempDir()
	ix := New(root, stateDir, deps, 4, 2)
	_, err := ix.Refresh(context.Background())
	require.NoError(t, err)

	freshDeps := Deps{Matcher: ignore.New(), Tracker: tracker.New(), Trie: trie.New(), Store: store.NewMemStore()}
	ix2 := New(root, stateDir, freshDeps, 4, 2)
	require.NoError(t, ix2.Load())

	_, ok := freshDeps.Trie.GetFileInfo("a.go")
	assert.True(t, ok)
	_, ok = freshDeps.Tracker.Get("a.go")
	assert.True(t, ok)
}

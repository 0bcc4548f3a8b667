package indexer

import (
	"context"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/codeindex-dev/codeindex/internal/errors"
	"github.com/codeindex-dev/codeindex/internal/progress"
	"github.com/codeindex-dev/codeindex/internal/tracker"
	"github.com/codeindex-dev/codeindex/internal/trie"
)

const defaultChunkSize = 100

// Indexer runs the refresh pipeline for a single project
// root, wiring the ignore matcher, filter policy, change tracker, path
// trie, and KV store together.
type Indexer struct {
	root     string
	stateDir string
	deps     Deps

	maxWorkers int
	chunkSize  int

	lock *projectLock
	mu   sync.Mutex
}

// New returns an Indexer for root, persisting its state under stateDir.
// maxWorkers <= 0 defaults to runtime.NumCPU(); chunkSize <= 0 defaults
// to 100 paths per chunk.
func New(root, stateDir string, deps Deps, maxWorkers, chunkSize int) *Indexer {
	if maxWorkers <= 0 {
		maxWorkers = runtime.NumCPU()
	}
	if chunkSize <= 0 {
		chunkSize = defaultChunkSize
	}
	return &Indexer{
		root:       root,
		stateDir:   stateDir,
		deps:       deps,
		maxWorkers: maxWorkers,
		chunkSize:  chunkSize,
		lock:       newProjectLock(stateDir),
	}
}

// Load restores the trie and change tracker from their last persisted
// snapshot. A project that has never been refreshed loads empty.
func (ix *Indexer) Load() error {
	if err := loadTrie(ix.stateDir, ix.deps.Trie); err != nil {
		return errors.BackendUnavailableErr("failed to load index", err)
	}
	if err := loadTracker(ix.stateDir, ix.deps.Tracker); err != nil {
		return errors.BackendUnavailableErr("failed to load change tracker", err)
	}
	return nil
}

// Refresh runs the incremental pipeline: only added/modified/deleted
// paths since the last refresh are processed.
func (ix *Indexer) Refresh(ctx context.Context) (Result, error) {
	return ix.run(ctx, false, false)
}

// ForceReindex clears the trie and change tracker (and, if clearCache is
// set, the KV store) before running the same pipeline, so every
// surviving path is treated as added.
func (ix *Indexer) ForceReindex(ctx context.Context, clearCache bool) (Result, error) {
	return ix.run(ctx, true, clearCache)
}

func (ix *Indexer) run(ctx context.Context, force, clearCache bool) (Result, error) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	release, err := ix.lock.TryAcquire(ix.root)
	if err != nil {
		return Result{}, err
	}
	defer release()

	if force {
		ix.clearState(clearCache)
	}

	var op *progress.Operation
	if ix.deps.Progress != nil {
		op = ix.deps.Progress.Start("refresh", []string{"walk", "classify", "process", "prune", "persist"}, 0)
	}

	start := timeNow()
	result, err := ix.doRefresh(ctx, op)
	result.Elapsed = timeNow().Sub(start)

	if op == nil {
		return result, err
	}
	switch {
	case err == nil:
		op.SetMetadata("files", result.Files)
		op.SetMetadata("added", result.Added)
		op.SetMetadata("modified", result.Modified)
		op.SetMetadata("deleted", result.Deleted)
		op.SetMetadata("elapsed", result.Elapsed)
		op.Complete()
	case errors.GetCode(err) == errors.ErrCodeCancelled:
		// CheckCancel has already driven the operation to its terminal
		// cancelled state and emitted the event.
	default:
		op.Fail(err)
	}
	return result, err
}

func (ix *Indexer) clearState(clearCache bool) {
	for _, r := range ix.deps.Trie.AllFiles() {
		ix.deps.Trie.RemoveFile(r.Path)
	}
	ix.deps.Tracker.Restore(map[string]tracker.Record{})
	if clearCache && ix.deps.Store != nil {
		_ = ix.deps.Store.Clear()
	}
}

func (ix *Indexer) doRefresh(ctx context.Context, op *progress.Operation) (Result, error) {
	if op != nil {
		op.SetStage("walk")
		if err := op.CheckCancel(); err != nil {
			return Result{}, err
		}
	}

	candidates, err := walkProject(ctx, ix.root, ix.deps.Matcher, ix.deps.Policy)
	if err != nil {
		if ctx.Err() != nil {
			return Result{}, errors.CancelledErr("refresh cancelled during walk")
		}
		return Result{}, errors.RefreshFailedErr("walk failed", err)
	}

	if op != nil {
		op.SetStage("classify")
		if err := op.CheckCancel(); err != nil {
			return Result{}, err
		}
	}

	byPath := make(map[string]candidate, len(candidates))
	paths := make([]string, len(candidates))
	changed := make(map[string]bool, len(candidates))
	for i, c := range candidates {
		byPath[c.RelPath] = c
		paths[i] = c.RelPath
		changed[c.RelPath] = ix.deps.Tracker.HasChanged(c.RelPath, c.ModTime, c.Size)
	}
	added, modified, deleted := ix.deps.Tracker.Classify(paths, changed)

	if len(added) == 0 && len(modified) == 0 && len(deleted) == 0 {
		return Result{Files: len(ix.deps.Tracker.Snapshot())}, nil
	}

	if op != nil {
		op.SetStage("process")
	}
	toProcess := append(append([]string{}, added...), modified...)
	records, fileErrs, cancelled, err := ix.processAll(ctx, toProcess, byPath, op)
	if err != nil {
		return Result{}, errors.RefreshFailedErr("parallel processing failed", err)
	}
	_ = fileErrs // per-file errors are collected but never abort the refresh

	for _, rec := range records {
		ix.deps.Trie.AddFile(rec)
		ix.deps.Tracker.Update(rec.Path, rec.MTime, rec.Size, rec.ContentHash)
	}

	if cancelled {
		return ix.persistPartial()
	}

	if op != nil {
		op.SetStage("prune")
		if err := op.CheckCancel(); err != nil {
			return ix.persistPartial()
		}
	}
	for _, path := range deleted {
		ix.deps.Trie.RemoveFile(path)
		ix.deps.Tracker.Remove(path)
	}

	if op != nil {
		op.SetStage("persist")
	}
	if err := ix.persist(); err != nil {
		return Result{}, err
	}

	return Result{
		Files:    len(ix.deps.Tracker.Snapshot()),
		Added:    len(added),
		Modified: len(modified),
		Deleted:  len(deleted),
	}, nil
}

// persistPartial saves whatever state has already been merged into the
// trie/tracker when a cancel arrives mid-refresh, satisfying the
// cleanup-hook contract in : a cancel leaves a safely-mergeable
// subset of the tree that a completed refresh would have produced.
func (ix *Indexer) persistPartial() (Result, error) {
	if err := ix.persist(); err != nil {
		return Result{}, err
	}
	return Result{Files: len(ix.deps.Tracker.Snapshot())}, errors.CancelledErr("refresh cancelled")
}

func (ix *Indexer) persist() error {
	if err := persistTrie(ix.stateDir, ix.deps.Trie); err != nil {
		return errors.RefreshFailedErr("failed to persist index", err)
	}
	if err := persistTracker(ix.stateDir, ix.deps.Tracker); err != nil {
		return errors.RefreshFailedErr("failed to persist change tracker", err)
	}
	if ix.deps.Store != nil {
		if err := ix.deps.Store.Flush(); err != nil {
			return errors.RefreshFailedErr("failed to flush store", err)
		}
	}
	return nil
}

// processAll partitions paths into chunks of ix.chunkSize and processes
// them concurrently across ix.maxWorkers workers, merging records as each
// chunk completes. It returns cancelled=true if any worker observed a
// cooperative cancel.
func (ix *Indexer) processAll(ctx context.Context, paths []string, byPath map[string]candidate, op *progress.Operation) ([]trie.FileRecord, []fileError, bool, error) {
	chunks := chunkPaths(paths, ix.chunkSize)
	if len(chunks) == 0 {
		return nil, nil, false, nil
	}

	results := make([]chunkResult, len(chunks))
	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(ix.maxWorkers)

	for i, chunk := range chunks {
		i, chunk := i, chunk
		g.Go(func() error {
			candidates := make([]candidate, len(chunk))
			for j, p := range chunk {
				candidates[j] = byPath[p]
			}
			results[i] = processChunk(candidates, op)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, false, err
	}

	var records []trie.FileRecord
	var errs []fileError
	var cancelled bool
	for _, r := range results {
		records = append(records, r.Records...)
		errs = append(errs, r.Errors...)
		if r.Cancelled {
			cancelled = true
		}
	}
	return records, errs, cancelled, nil
}

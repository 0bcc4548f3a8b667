package tracker

import (
	"context"
	"os"

	"golang.org/x/sync/semaphore"

	"github.com/codeindex-dev/codeindex/internal/content"
)

// DefaultConcurrency bounds how many files TrackerAsync hashes at once.
const DefaultConcurrency = 8

// ProgressFunc reports fractional progress (processed/total) as
// TrackerAsync works through a batch of paths.
type ProgressFunc func(processed, total int)

// TrackerAsync wraps a Tracker with a semaphore-bounded worker pool for
// stat+hash operations over a batch of paths.
type TrackerAsync struct {
	*Tracker
	sem *semaphore.Weighted
}

// NewAsync returns a TrackerAsync bounding concurrent hashing to
// concurrency goroutines. A non-positive concurrency uses
// DefaultConcurrency.
func NewAsync(concurrency int) *TrackerAsync {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	return &TrackerAsync{Tracker: New(), sem: semaphore.NewWeighted(int64(concurrency))}
}

// RefreshAll stats and, where mtime/size changed, rehashes every path in
// paths, updating the tracker in place. It reports progress via onProgress
// (may be nil) and stops early on ctx cancellation, returning its error.
func (ta *TrackerAsync) RefreshAll(ctx context.Context, paths []string, onProgress ProgressFunc) error {
	total := len(paths)
	processed := 0
	errCh := make(chan error, total)

	for _, p := range paths {
		if err := ta.sem.Acquire(ctx, 1); err != nil {
			return err
		}
		go func(path string) {
			defer ta.sem.Release(1)
			errCh <- ta.refreshOne(path)
		}(p)
	}

	var firstErr error
	for i := 0; i < total; i++ {
		if err := <-errCh; err != nil && firstErr == nil {
			firstErr = err
		}
		processed++
		if onProgress != nil {
			onProgress(processed, total)
		}
	}
	return firstErr
}

func (ta *TrackerAsync) refreshOne(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}

	if !ta.HasChanged(path, info.ModTime(), info.Size()) {
		return nil
	}

	hash, err := content.ComputeHash(path)
	if err != nil {
		return err
	}
	ta.Update(path, info.ModTime(), info.Size(), hash)
	return nil
}

package indexer

import (
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	"github.com/codeindex-dev/codeindex/internal/errors"
)

// projectLock is a cross-process mutual-exclusion lock enforcing the
// invariant that two refreshes for the same project never overlap.
// Adapted from the embedding downloader's file lock: same gofrs/flock
// primitive, but TryLock failure here is a user-visible AlreadyRunning
// error rather than a condition to poll around.
type projectLock struct {
	path  string
	flock *flock.Flock
}

func newProjectLock(stateDir string) *projectLock {
	path := filepath.Join(stateDir, "refresh.lock")
	return &projectLock{path: path, flock: flock.New(path)}
}

// TryAcquire attempts a non-blocking exclusive lock, returning
// AlreadyRunningErr if another refresh currently holds it.
func (l *projectLock) TryAcquire(project string) (func(), error) {
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return nil, errors.RefreshFailedErr("failed to create lock directory", err)
	}

	ok, err := l.flock.TryLock()
	if err != nil {
		return nil, errors.RefreshFailedErr("failed to acquire refresh lock", err)
	}
	if !ok {
		return nil, errors.AlreadyRunningErr(project)
	}

	return func() { _ = l.flock.Unlock() }, nil
}

package tracker

import (
	"sync"
	"time"

	"github.com/codeindex-dev/codeindex/internal/content"
)

// Record is what the tracker remembers about one path as of its last
// successful check.
type Record struct {
	MTime       time.Time
	Size        int64
	Hash        string
	LastChecked time.Time
}

// Tracker holds the known (mtime, size, hash) for every path seen so
// far. Safe for concurrent use.
type Tracker struct {
	mu      sync.RWMutex
	records map[string]Record
}

// New returns an empty Tracker.
func New() *Tracker {
	return &Tracker{records: make(map[string]Record)}
}

// Snapshot returns a copy of the current path -> Record map, for
// persistence.
func (t *Tracker) Snapshot() map[string]Record {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make(map[string]Record, len(t.records))
	for k, v := range t.records {
		out[k] = v
	}
	return out
}

// Restore replaces the tracker's contents with records, e.g. loaded from
// persisted state.
func (t *Tracker) Restore(records map[string]Record) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.records = make(map[string]Record, len(records))
	for k, v := range records {
		t.records[k] = v
	}
}

// HasChanged reports whether path is new, or its mtime or size differs
// from the stored record. It never rehashes.
func (t *Tracker) HasChanged(path string, mtime time.Time, size int64) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()

	rec, ok := t.records[path]
	if !ok {
		return true
	}
	return !rec.MTime.Equal(mtime) || rec.Size != size
}

// Update records path's current mtime/size/hash and marks it checked now.
func (t *Tracker) Update(path string, mtime time.Time, size int64, hash string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.records[path] = Record{MTime: mtime, Size: size, Hash: hash, LastChecked: time.Now()}
}

// Remove forgets path entirely (used once it is classified as deleted).
func (t *Tracker) Remove(path string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.records, path)
}

// Get returns the stored record for path, if any.
func (t *Tracker) Get(path string) (Record, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	rec, ok := t.records[path]
	return rec, ok
}

// VerifyIntegrity rehashes path explicitly and reports whether it still
// matches the stored hash. A path with no stored record is not valid.
func (t *Tracker) VerifyIntegrity(path string) (bool, error) {
	t.mu.RLock()
	rec, ok := t.records[path]
	t.mu.RUnlock()
	if !ok {
		return false, nil
	}

	hash, err := content.ComputeHash(path)
	if err != nil {
		return false, err
	}
	return hash == rec.Hash, nil
}

// Classify partitions currentPaths against the tracker's known set into
// added (unknown paths), modified (known paths whose mtime/size differ,
// determined by the caller via HasChanged before calling Classify), and
// deleted (known paths absent from currentPaths).
func (t *Tracker) Classify(currentPaths []string, changed map[string]bool) (added, modified, deleted []string) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	seen := make(map[string]bool, len(currentPaths))
	for _, p := range currentPaths {
		seen[p] = true
		if _, known := t.records[p]; !known {
			added = append(added, p)
		} else if changed[p] {
			modified = append(modified, p)
		}
	}
	for known := range t.records {
		if !seen[known] {
			deleted = append(deleted, known)
		}
	}
	return added, modified, deleted
}

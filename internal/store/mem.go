package store

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/codeindex-dev/codeindex/internal/errors"
)

type kvEntry struct {
	value     string
	createdAt time.Time
	updatedAt time.Time
}

// MemStore is the pure in-memory Store fallback used when the SQLite
// backend cannot be initialised (BackendUnavailable). Search is a naive
// substring scan ranked by match count — adequate for the small, short-
// lived indexes this fallback is meant to serve.
type MemStore struct {
	mu       sync.RWMutex
	kv       map[string]*kvEntry
	versions map[string]Version
	diffs    []Diff
}

// NewMemStore returns an empty MemStore.
func NewMemStore() *MemStore {
	return &MemStore{
		kv:       make(map[string]*kvEntry),
		versions: make(map[string]Version),
	}
}

func (m *MemStore) Put(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	if e, ok := m.kv[key]; ok {
		e.value = value
		e.updatedAt = now
		return nil
	}
	m.kv[key] = &kvEntry{value: value, createdAt: now, updatedAt: now}
	return nil
}

func (m *MemStore) Get(key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.kv[key]
	if !ok {
		return "", false, nil
	}
	return e.value, true, nil
}

func (m *MemStore) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.kv, key)
	return nil
}

func (m *MemStore) Exists(key string) (bool, error) {
	_, ok, err := m.Get(key)
	return ok, err
}

func (m *MemStore) Keys(glob string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []string
	for k := range m.kv {
		if glob == "" {
			out = append(out, k)
			continue
		}
		if ok, _ := doublestar.Match(glob, k); ok {
			out = append(out, k)
		}
	}
	return out, nil
}

func (m *MemStore) Items(glob string) (map[string]string, error) {
	keys, err := m.Keys(glob)
	if err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]string, len(keys))
	for _, k := range keys {
		out[k] = m.kv[k].value
	}
	return out, nil
}

func (m *MemStore) Size() (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.kv), nil
}

func (m *MemStore) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.kv = make(map[string]*kvEntry)
	return nil
}

// Flush is a no-op: MemStore holds nothing but process memory.
func (m *MemStore) Flush() error { return nil }

// Close is a no-op.
func (m *MemStore) Close() error { return nil }

// Search does a case-insensitive substring scan over stored values,
// ranked by descending occurrence count.
func (m *MemStore) Search(query string, limit int) ([]SearchHit, error) {
	if limit <= 0 {
		limit = 50
	}
	q := strings.ToLower(query)
	if q == "" {
		return nil, errors.ValidationErr("search query must not be empty", nil)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var hits []SearchHit
	for k, e := range m.kv {
		count := strings.Count(strings.ToLower(e.value), q)
		if count > 0 {
			hits = append(hits, SearchHit{Key: k, Value: e.value, Rank: -float64(count)})
		}
	}
	sort.Slice(hits, func(i, j int) bool { return hits[i].Rank < hits[j].Rank })
	if len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

func (m *MemStore) PutVersion(v Version) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.versions[v.ID] = v
	return nil
}

func (m *MemStore) GetVersion(id string) (Version, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.versions[id]
	return v, ok, nil
}

func (m *MemStore) PutDiff(d Diff) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if d.PreviousVersionID != "" {
		if _, ok := m.versions[d.PreviousVersionID]; !ok {
			return errors.IntegrityErr("diff references an unknown previous version", nil)
		}
	}
	if _, ok := m.versions[d.CurrentVersionID]; !ok {
		return errors.IntegrityErr("diff references an unknown current version", nil)
	}

	m.diffs = append(m.diffs, d)
	return nil
}

func (m *MemStore) GetDiffsForPath(path string) ([]Diff, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []Diff
	for _, d := range m.diffs {
		if d.FilePath == path {
			out = append(out, d)
		}
	}
	return out, nil
}

func (m *MemStore) versionsForPath(path string) ([]Version, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []Version
	for _, v := range m.versions {
		if v.FilePath == path {
			out = append(out, v)
		}
	}
	return out, nil
}

func (m *MemStore) GetFileHistory(path string) ([]HistoryEntry, error) {
	return defaultGetFileHistory(m, path)
}

func (m *MemStore) ReconstructVersion(path, versionID string) (string, error) {
	return Reconstruct(m, path, versionID)
}

package store

import (
	"strings"
	"sync"

	"github.com/blevesearch/bleve/v2"

	"github.com/codeindex-dev/codeindex/internal/errors"
)

type bleveDoc struct {
	Value string `json:"value"`
}

// BleveStore is the alternate FTS engine to SQLite's FTS5 (project.Open
// does not construct it, and the fts_backend config value does not select
// it): a bleve.Index drives Search, while KV storage,
// versions, and diffs are kept in an embedded MemStore. On-disk bleve
// indexes persist across restarts; an empty path opens a mem-only index.
type BleveStore struct {
	*MemStore

	mu    sync.RWMutex
	index bleve.Index
	path  string
}

// NewBleveStore opens (or creates) a bleve index at path. An empty path
// opens a memory-only index, used in tests and for small projects that
// do not need Search to survive a restart.
func NewBleveStore(path string) (*BleveStore, error) {
	mapping := bleve.NewIndexMapping()

	var idx bleve.Index
	var err error
	if path == "" {
		idx, err = bleve.NewMemOnly(mapping)
	} else {
		idx, err = bleve.Open(path)
		if err == bleve.ErrorIndexPathDoesNotExist {
			idx, err = bleve.New(path, mapping)
		}
	}
	if err != nil {
		return nil, errors.BackendUnavailableErr("cannot open bleve index", err)
	}

	return &BleveStore{MemStore: NewMemStore(), index: idx, path: path}, nil
}

func (b *BleveStore) Put(key, value string) error {
	if err := b.MemStore.Put(key, value); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	return b.index.Index(key, bleveDoc{Value: value})
}

func (b *BleveStore) Delete(key string) error {
	if err := b.MemStore.Delete(key); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	return b.index.Delete(key)
}

func (b *BleveStore) Clear() error {
	if err := b.MemStore.Clear(); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	count, err := b.index.DocCount()
	if err != nil {
		return err
	}
	req := bleve.NewSearchRequest(bleve.NewMatchAllQuery())
	req.Size = int(count)
	result, err := b.index.Search(req)
	if err != nil {
		return err
	}
	batch := b.index.NewBatch()
	for _, hit := range result.Hits {
		batch.Delete(hit.ID)
	}
	return b.index.Batch(batch)
}

func (b *BleveStore) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.index.Close()
}

// Flush closes and reopens the bleve index, forcing its segment files to
// sync; a no-op for a memory-only index.
func (b *BleveStore) Flush() error {
	if b.path == "" {
		return nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.index.Close(); err != nil {
		return err
	}
	idx, err := bleve.Open(b.path)
	if err != nil {
		return err
	}
	b.index = idx
	return nil
}

func (b *BleveStore) Search(query string, limit int) ([]SearchHit, error) {
	if strings.TrimSpace(query) == "" {
		return nil, errors.ValidationErr("search query must not be empty", nil)
	}
	if limit <= 0 {
		limit = 50
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	matchQuery := bleve.NewMatchQuery(query)
	matchQuery.SetField("Value")
	req := bleve.NewSearchRequest(matchQuery)
	req.Size = limit

	result, err := b.index.Search(req)
	if err != nil {
		return nil, errors.SearchFailedErr("bleve", err.Error())
	}

	hits := make([]SearchHit, 0, len(result.Hits))
	for _, hit := range result.Hits {
		value, _, _ := b.MemStore.Get(hit.ID)
		hits = append(hits, SearchHit{Key: hit.ID, Value: value, Rank: -hit.Score})
	}
	return hits, nil
}

func (b *BleveStore) GetFileHistory(path string) ([]HistoryEntry, error) {
	return defaultGetFileHistory(b.MemStore, path)
}

func (b *BleveStore) ReconstructVersion(path, versionID string) (string, error) {
	return Reconstruct(b, path, versionID)
}

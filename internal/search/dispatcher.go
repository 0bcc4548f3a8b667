package search

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/codeindex-dev/codeindex/internal/cache"
	"github.com/codeindex-dev/codeindex/internal/errors"
	"github.com/codeindex-dev/codeindex/internal/search/backend"
)

const (
	defaultCacheCapacity = 256
	defaultCacheTTL      = 5 * time.Minute
	defaultPageSize      = 20
)

// Dispatcher probes a priority-ordered list of backends, caches paginated
// results, and fans out multi-pattern searches across a worker pool.
type Dispatcher struct {
	mu        sync.RWMutex
	backends  []backend.Backend
	available []backend.Backend
	basePath  string
	cache     *cache.Cache[string, PageResult]
}

// New builds a Dispatcher over backends in priority order (the order they
// are tried when the preferred one fails). basePath is the project root
// every search is rooted at.
func New(basePath string, backends []backend.Backend) *Dispatcher {
	resultCache, err := cache.New[string, PageResult](defaultCacheCapacity, defaultCacheTTL)
	if err != nil {
		// Only a non-positive capacity constant could cause this, which
		// would be a programming error, not a runtime condition.
		panic(err)
	}
	return &Dispatcher{
		backends: backends,
		basePath: basePath,
		cache:    resultCache,
	}
}

// Probe tests is-available() for every backend in priority order and
// records the ordered subset that responded available. It is called at
// project-set time and again on a user-visible refresh.
func (d *Dispatcher) Probe(ctx context.Context) []string {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.available = d.available[:0]
	names := make([]string, 0, len(d.backends))
	for _, b := range d.backends {
		if ctx.Err() != nil {
			break
		}
		if b.IsAvailable() {
			d.available = append(d.available, b)
			names = append(names, b.Name())
		}
	}
	return names
}

// CacheLen reports how many paginated results are currently cached, used
// by the memory governor to track cached-queries pressure.
func (d *Dispatcher) CacheLen() int {
	return d.cache.Len()
}

func (d *Dispatcher) availableBackends() []backend.Backend {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]backend.Backend, len(d.available))
	copy(out, d.available)
	return out
}

func (d *Dispatcher) cacheKey(q Query) string {
	return fmt.Sprintf("%s\x00%t\x00%d\x00%s\x00%t\x00%d\x00%d",
		q.Pattern, q.CaseSensitive, q.ContextLines, q.FilePattern, q.Fuzzy, q.Page, q.PageSize)
}

// Search looks up the LRU cache by query+page; on a miss it invokes the
// preferred available backend, retrying the next backend in priority order
// on SearchFailed, then paginates and caches the result.
func (d *Dispatcher) Search(ctx context.Context, q Query) (PageResult, error) {
	key := d.cacheKey(q)
	if cached, ok := d.cache.Get(key); ok {
		return cached, nil
	}

	backends := d.availableBackends()
	if len(backends) == 0 {
		return PageResult{}, errors.BackendUnavailableErr("no search backend available", nil)
	}

	var lastErr error
	for _, b := range backends {
		result, err := b.Search(ctx, q.toOptions(d.basePath))
		if err == nil {
			pageSize := q.PageSize
			if pageSize <= 0 {
				pageSize = defaultPageSize
			}
			page := paginate(result, q.Page, pageSize)
			d.cache.Put(key, page)
			return page, nil
		}
		lastErr = err
		if !errors.IsRetryable(err) {
			return PageResult{}, err
		}
		// SearchFailed is retryable: fall through and try the next backend.
	}
	return PageResult{}, lastErr
}

// SearchMultiple fans patterns out concurrently to the preferred backend
// with a worker pool sized min(len(patterns), host-cpu-count). Per-pattern
// failures are surfaced inside that pattern's own result slot rather than
// aborting the whole call.
func (d *Dispatcher) SearchMultiple(ctx context.Context, patterns []string, base Query) map[string]PatternResult {
	results := make(map[string]PatternResult, len(patterns))
	var mu sync.Mutex

	workers := len(patterns)
	if n := runtime.NumCPU(); workers > n {
		workers = n
	}
	if workers < 1 {
		workers = 1
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for _, p := range patterns {
		p := p
		g.Go(func() error {
			q := base
			q.Pattern = p
			page, err := d.Search(gctx, q)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				results[p] = PatternResult{Error: err.Error()}
			} else {
				pg := page
				results[p] = PatternResult{Result: &pg}
			}
			return nil
		})
	}
	_ = g.Wait()

	return results
}

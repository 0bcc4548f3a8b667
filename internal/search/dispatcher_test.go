package search

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeindex-dev/codeindex/internal/errors"
	"github.com/codeindex-dev/codeindex/internal/search/backend"
)

type fakeBackend struct {
	name      string
	available bool
	result    backend.Result
	err       error
	calls     int
}

func (f *fakeBackend) Name() string      { return f.name }
func (f *fakeBackend) IsAvailable() bool { return f.available }
func (f *fakeBackend) Search(ctx context.Context, opts backend.Options) (backend.Result, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func TestDispatcher_Probe_RecordsOnlyAvailableBackendsInOrder(t *testing.T) {
	b1 := &fakeBackend{name: "rg", available: true}
	b2 := &fakeBackend{name: "ag", available: false}
	b3 := &fakeBackend{name: "fallback", available: true}

	d := New("/base", []backend.Backend{b1, b2, b3})
	names := d.Probe(context.Background())

	assert.Equal(t, []string{"rg", "fallback"}, names)
}

func TestDispatcher_Search_NoBackendsAvailableIsBackendUnavailable(t *testing.T) {
	d := New("/base", []backend.Backend{&fakeBackend{name: "rg", available: false}})
	d.Probe(context.Background())

	_, err := d.Search(context.Background(), Query{Pattern: "x"})
	assert.Error(t, err)
	assert.Equal(t, errors.ErrCodeBackendUnavailable, errors.GetCode(err))
}

func TestDispatcher_Search_CachesByQueryAndPage(t *testing.T) {
	b := &fakeBackend{name: "rg", available: true, result: buildResult(3)}
	d := New("/base", []backend.Backend{b})
	d.Probe(context.Background())

	_, err := d.Search(context.Background(), Query{Pattern: "x", Page: 1, PageSize: 20})
	require.NoError(t, err)
	_, err = d.Search(context.Background(), Query{Pattern: "x", Page: 1, PageSize: 20})
	require.NoError(t, err)

	assert.Equal(t, 1, b.calls, "second call with identical query+page should hit the cache")
}

func TestDispatcher_Search_RetriesNextBackendOnSearchFailed(t *testing.T) {
	failing := &fakeBackend{name: "rg", available: true, err: errors.SearchFailedErr("rg", "boom")}
	working := &fakeBackend{name: "fallback", available: true, result: buildResult(1)}

	d := New("/base", []backend.Backend{failing, working})
	d.Probe(context.Background())

	page, err := d.Search(context.Background(), Query{Pattern: "x"})
	require.NoError(t, err)
	assert.Equal(t, 1, failing.calls)
	assert.Equal(t, 1, working.calls)
	assert.Equal(t, 1, page.TotalMatches)
}

func TestDispatcher_Search_NonRetryableErrorStopsImmediately(t *testing.T) {
	failing := &fakeBackend{name: "rg", available: true, err: errors.ValidationErr("bad pattern", nil)}
	working := &fakeBackend{name: "fallback", available: true, result: buildResult(1)}

	d := New("/base", []backend.Backend{failing, working})
	d.Probe(context.Background())

	_, err := d.Search(context.Background(), Query{Pattern: "x"})
	assert.Error(t, err)
	assert.Equal(t, 0, working.calls)
}

func TestDispatcher_SearchMultiple_ReturnsExactlyRequestedKeys(t *testing.T) {
	b := &fakeBackend{name: "rg", available: true, result: buildResult(2)}
	d := New("/base", []backend.Backend{b})
	d.Probe(context.Background())

	patterns := []string{"a", "b", "c"}
	results := d.SearchMultiple(context.Background(), patterns, Query{PageSize: 20})

	assert.Len(t, results, 3)
	for _, p := range patterns {
		assert.Contains(t, results, p)
		assert.Empty(t, results[p].Error)
	}
}

func TestDispatcher_SearchMultiple_PerPatternFailureDoesNotAbortOthers(t *testing.T) {
	b := &fakeBackend{name: "rg", available: false}
	d := New("/base", []backend.Backend{b})
	d.Probe(context.Background())

	results := d.SearchMultiple(context.Background(), []string{"a", "b"}, Query{})
	for _, p := range []string{"a", "b"} {
		assert.NotEmpty(t, results[p].Error)
	}
}

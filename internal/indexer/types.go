package indexer

import (
	"time"

	"github.com/codeindex-dev/codeindex/internal/filter"
	"github.com/codeindex-dev/codeindex/internal/ignore"
	"github.com/codeindex-dev/codeindex/internal/progress"
	"github.com/codeindex-dev/codeindex/internal/store"
	"github.com/codeindex-dev/codeindex/internal/tracker"
	"github.com/codeindex-dev/codeindex/internal/trie"
)

// Deps are the collaborators an Indexer wires together. None are owned by
// the Indexer: the caller constructs and persists/loads them.
type Deps struct {
	Matcher  *ignore.Matcher
	Policy   filter.Policy
	Tracker  *tracker.Tracker
	Trie     *trie.Trie
	Store    store.Store
	Progress *progress.Registry
}

// Result is the outcome of one refresh, matching refresh
// RPC output shape.
type Result struct {
	Files    int
	Added    int
	Modified int
	Deleted  int
	Elapsed  time.Duration
}

// candidate is one path surviving the walk+filter stage.
type candidate struct {
	RelPath string
	AbsPath string
	Size    int64
	ModTime time.Time
}

// fileError records a single path's processing failure; collected at
// chunk level, it never aborts the refresh.
type fileError struct {
	Path string
	Err  error
}

// timeNow is a seam for deterministic tests.
var timeNow = time.Now

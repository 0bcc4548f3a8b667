package project

import (
	"log/slog"
	"path/filepath"

	"github.com/codeindex-dev/codeindex/internal/content"
	"github.com/codeindex-dev/codeindex/internal/errors"
	"github.com/codeindex-dev/codeindex/internal/filter"
	"github.com/codeindex-dev/codeindex/internal/ignore"
	"github.com/codeindex-dev/codeindex/internal/indexer"
	"github.com/codeindex-dev/codeindex/internal/progress"
	"github.com/codeindex-dev/codeindex/internal/store"
	"github.com/codeindex-dev/codeindex/internal/tracker"
	"github.com/codeindex-dev/codeindex/internal/trie"
)

// Options configures how a project is opened; the caller (typically
// internal/config's merged settings) fills this in.
type Options struct {
	MaxFileSize                   int64
	TypeSpecificLimits            map[string]int64
	MaxFilesPerDirectory          int
	MaxSubdirectoriesPerDirectory int
	SkipLargeDirectories          []string
	ExplicitInclusions            []string
	LogFilterDecisions            bool

	MaxWorkers          int
	ChunkSize           int
	PreferredSearchTool string
}

// Project is one opened, indexed project: its root, its on-disk state
// directory, and every component wired together.
type Project struct {
	Root     string
	StateDir string
	Paths    Paths

	Matcher  *ignore.Matcher
	Policy   filter.Policy
	Tracker  *tracker.Tracker
	Trie     *trie.Trie
	Store    store.Store
	Content  *content.Registry
	Progress *progress.Registry
	Indexer  *indexer.Indexer

	searchTool string
}

// Open resolves root's state directory, restores any prior persisted
// state, and returns a ready-to-use Project. A failure to open the
// persistent KV store falls back to an in-memory one (BackendUnavailable,
// logged, non-fatal — ).
func Open(root string, opts Options) (*Project, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, errors.PathErr("failed to resolve project root", err)
	}

	stateDir := StateDir(absRoot)
	if err := EnsureStateDir(stateDir); err != nil {
		return nil, errors.BackendUnavailableErr("failed to create project state directory", err)
	}
	paths := ResolvePaths(stateDir)

	matcher := ignore.NewFromProject(absRoot)
	policy := filter.Policy{
		MaxFileSize:                   opts.MaxFileSize,
		TypeSpecificLimits:            opts.TypeSpecificLimits,
		MaxFilesPerDirectory:          opts.MaxFilesPerDirectory,
		MaxSubdirectoriesPerDirectory: opts.MaxSubdirectoriesPerDirectory,
		SkipLargeDirectories:          opts.SkipLargeDirectories,
		ExplicitInclusions:            opts.ExplicitInclusions,
		LogDecisions:                  opts.LogFilterDecisions,
	}

	kv, err := store.NewSQLiteStore(paths.CacheDBPath)
	var backend store.Store
	if err != nil {
		slog.Warn("project: falling back to in-memory store", slog.String("root", absRoot), slog.String("error", err.Error()))
		backend = store.NewMemStore()
	} else {
		backend = kv
	}

	tr := tracker.New()
	tb := trie.New()
	progressReg := progress.NewRegistry()

	deps := indexer.Deps{
		Matcher:  matcher,
		Policy:   policy,
		Tracker:  tr,
		Trie:     tb,
		Store:    backend,
		Progress: progressReg,
	}
	ix := indexer.New(absRoot, stateDir, deps, opts.MaxWorkers, opts.ChunkSize)
	if err := ix.Load(); err != nil {
		return nil, err
	}

	rec, ok, err := LoadRecord(paths.ConfigPath)
	if err != nil {
		slog.Warn("project: failed to load config record", slog.String("error", err.Error()))
	}
	searchTool := opts.PreferredSearchTool
	if ok && searchTool == "" {
		searchTool = rec.SearchTool
	}

	return &Project{
		Root:       absRoot,
		StateDir:   stateDir,
		Paths:      paths,
		Matcher:    matcher,
		Policy:     policy,
		Tracker:    tr,
		Trie:       tb,
		Store:      backend,
		Content:    content.NewRegistry(0, 0),
		Progress:   progressReg,
		Indexer:    ix,
		searchTool: searchTool,
	}, nil
}

// SearchTool returns the search backend name set-project reports to the
// caller: the one recorded by the last SetSearchTool, or else the one Open
// took from Options.PreferredSearchTool or the persisted config record;
// empty when none of these set it.
func (p *Project) SearchTool() string { return p.searchTool }

// SetSearchTool records the backend probed as active and persists it in
// the project's config record.
func (p *Project) SetSearchTool(tool string) {
	p.searchTool = tool
	_ = SaveRecord(p.Paths.ConfigPath, Record{
		RootPath:   p.Root,
		SearchTool: tool,
		Files:      len(p.Tracker.Snapshot()),
	})
}

// Close flushes and releases every resource the project holds.
func (p *Project) Close() error {
	return p.Store.Close()
}

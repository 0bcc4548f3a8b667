package codeindex

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/codeindex-dev/codeindex/internal/config"
	"github.com/codeindex-dev/codeindex/internal/errors"
	"github.com/codeindex-dev/codeindex/internal/indexer"
	"github.com/codeindex-dev/codeindex/internal/memory"
	"github.com/codeindex-dev/codeindex/internal/progress"
	"github.com/codeindex-dev/codeindex/internal/project"
	"github.com/codeindex-dev/codeindex/internal/search"
	"github.com/codeindex-dev/codeindex/internal/search/backend"
)

// Service is the facade a transport layer drives: one active project at a
// time, every operation routed through the components internal/project
// wires together.
type Service struct {
	mu       sync.RWMutex
	proj     *project.Project
	search   *search.Dispatcher
	memory   *memory.Governor
	cfg      *config.Config
}

// NewService returns a Service with no project set; every operation other
// than SetProject fails with NotConfigured until one is opened.
func NewService(cfg *config.Config) *Service {
	if cfg == nil {
		cfg = config.NewConfig()
	}
	return &Service{cfg: cfg}
}

// SetProjectResult is set-project's {files, search-tool} response.
type SetProjectResult struct {
	Files      int    `json:"files"`
	SearchTool string `json:"search_tool"`
}

// SetProject opens root as the active project: builds or restores its
// persisted state, runs an initial refresh, and probes available search
// backends.
func (s *Service) SetProject(ctx context.Context, root string) (SetProjectResult, error) {
	opts := project.Options{
		MaxFileSize:                   s.cfg.Filter.MaxFileSize,
		TypeSpecificLimits:            s.cfg.Filter.TypeSpecificLimits,
		MaxFilesPerDirectory:          s.cfg.Filter.MaxFilesPerDirectory,
		MaxSubdirectoriesPerDirectory: s.cfg.Filter.MaxSubdirectoriesPerDirectory,
		SkipLargeDirectories:          s.cfg.Filter.SkipLargeDirectories,
		ExplicitInclusions:            s.cfg.Filter.ExplicitInclusions,
		LogFilterDecisions:            s.cfg.Filter.LogDecisions,
		MaxWorkers:                    s.cfg.Performance.MaxWorkers,
		ChunkSize:                     s.cfg.Performance.ChunkSize,
		PreferredSearchTool:           s.cfg.Search.PreferredSearchTool,
	}

	p, err := project.Open(root, opts)
	if err != nil {
		return SetProjectResult{}, err
	}

	if _, err := p.Indexer.Refresh(ctx); err != nil && errors.GetCode(err) != errors.ErrCodeCancelled {
		_ = p.Close()
		return SetProjectResult{}, err
	}

	dispatcher := search.New(p.Root, []backend.Backend{
		backend.NewRipgrepBackend(),
		backend.NewAgBackend(),
		backend.NewFallbackBackend(),
	})
	available := dispatcher.Probe(ctx)
	searchTool := p.SearchTool()
	if searchTool == "" && len(available) > 0 {
		searchTool = available[0]
	}
	p.SetSearchTool(searchTool)

	governor := memory.New(memory.Config{
		SoftLimitMB:      s.cfg.Memory.SoftLimitMB,
		HardLimitMB:      s.cfg.Memory.HardLimitMB,
		GCThresholdMB:    s.cfg.Memory.GCThresholdMB,
		SpillThresholdMB: s.cfg.Memory.SpillThresholdMB,
		MaxLoadedFiles:   s.cfg.Memory.MaxLoadedFiles,
		MaxCachedQueries: s.cfg.Memory.MaxCachedQueries,
	}, p.Content.LoadedCount, dispatcher.CacheLen)
	governor.OnLimitExceeded(func() { p.Content.Enforce(s.cfg.Memory.MaxLoadedFiles) })
	governor.Start(ctx)

	s.mu.Lock()
	if s.memory != nil {
		s.memory.Stop()
	}
	if s.proj != nil {
		_ = s.proj.Close()
	}
	s.proj = p
	s.search = dispatcher
	s.memory = governor
	s.mu.Unlock()

	return SetProjectResult{Files: len(p.Tracker.Snapshot()), SearchTool: searchTool}, nil
}

// activeProject returns the active project or a NotConfigured error.
func (s *Service) activeProject() (*project.Project, *search.Dispatcher, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.proj == nil {
		return nil, nil, errors.NotConfiguredErr("no project set; call set-project first")
	}
	return s.proj, s.search, nil
}

// GetFileContent returns the bytes of a project-relative file.
func (s *Service) GetFileContent(relPath string) ([]byte, error) {
	p, _, err := s.activeProject()
	if err != nil {
		return nil, err
	}
	abs, err := resolveRelPath(p.Root, relPath)
	if err != nil {
		return nil, err
	}
	return p.Content.Content(abs)
}

// StructureNode is one entry of get-structure's nested directory mapping:
// a file maps to nil, a directory maps to its own StructureNode map.
type StructureNode map[string]StructureNode

// GetStructure builds the project's directory tree as a nested mapping
// from the trie's flat file list.
func (s *Service) GetStructure() (StructureNode, error) {
	p, _, err := s.activeProject()
	if err != nil {
		return nil, err
	}

	root := StructureNode{}
	for _, rec := range p.Trie.AllFiles() {
		segs := strings.Split(rec.Path, "/")
		cur := root
		for i, seg := range segs {
			if i == len(segs)-1 {
				cur[seg] = nil
				continue
			}
			next, ok := cur[seg]
			if !ok || next == nil {
				next = StructureNode{}
				cur[seg] = next
			}
			cur = next
		}
	}
	return root, nil
}

// FindFiles returns every project-relative path matching glob, ordered.
func (s *Service) FindFiles(glob string) ([]string, error) {
	p, _, err := s.activeProject()
	if err != nil {
		return nil, err
	}
	matches := p.Trie.FindByGlob(glob)
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, m.Path)
	}
	sort.Strings(out)
	return out, nil
}

// GetFileSummary analyses a single project-relative file.
func (s *Service) GetFileSummary(relPath string) (FileSummary, error) {
	p, _, err := s.activeProject()
	if err != nil {
		return FileSummary{}, err
	}
	abs, err := resolveRelPath(p.Root, relPath)
	if err != nil {
		return FileSummary{}, err
	}
	return summarizeFile(abs)
}

// Search runs a search.Query against the active project's dispatcher.
func (s *Service) Search(ctx context.Context, q search.Query) (search.PageResult, error) {
	_, dispatcher, err := s.activeProject()
	if err != nil {
		return search.PageResult{}, err
	}
	return dispatcher.Search(ctx, q)
}

// Refresh re-walks the active project incrementally.
func (s *Service) Refresh(ctx context.Context) (indexerResult, error) {
	p, _, err := s.activeProject()
	if err != nil {
		return indexerResult{}, err
	}
	result, err := p.Indexer.Refresh(ctx)
	return toIndexerResult(result), err
}

// ForceReindex re-walks the active project from scratch.
func (s *Service) ForceReindex(ctx context.Context, clearCache bool) (indexerResult, error) {
	p, _, err := s.activeProject()
	if err != nil {
		return indexerResult{}, err
	}
	result, err := p.Indexer.ForceReindex(ctx, clearCache)
	return toIndexerResult(result), err
}

// GetOperations returns every tracked operation's snapshot.
func (s *Service) GetOperations() ([]progress.Snapshot, error) {
	p, _, err := s.activeProject()
	if err != nil {
		return nil, err
	}
	return p.Progress.List(), nil
}

// CancelOperation cancels a single in-flight operation by id.
func (s *Service) CancelOperation(id string) (bool, error) {
	p, _, err := s.activeProject()
	if err != nil {
		return false, err
	}
	return p.Progress.Cancel(id), nil
}

// CancelAll cancels every in-flight operation.
func (s *Service) CancelAll() error {
	p, _, err := s.activeProject()
	if err != nil {
		return err
	}
	p.Progress.CancelAll()
	return nil
}

// MemorySnapshot returns the current memory-governor reading.
func (s *Service) MemorySnapshot() (memory.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.memory == nil {
		return memory.Snapshot{}, errors.NotConfiguredErr("no project set; call set-project first")
	}
	return s.memory.Snapshot(), nil
}

// MemoryProfile returns the peak snapshot and bounded recent history.
func (s *Service) MemoryProfile() (memory.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.memory == nil {
		return memory.Profile{}, errors.NotConfiguredErr("no project set; call set-project first")
	}
	return s.memory.Profile(), nil
}

// Close releases the active project's resources, if any.
func (s *Service) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.memory != nil {
		s.memory.Stop()
	}
	if s.proj == nil {
		return nil
	}
	err := s.proj.Close()
	s.proj = nil
	return err
}

// indexerResult mirrors internal/indexer.Result for the facade's exported
// surface, so callers of pkg/codeindex never need to import internal/indexer.
type indexerResult struct {
	Files    int   `json:"files"`
	Added    int   `json:"added"`
	Modified int   `json:"modified"`
	Deleted  int   `json:"deleted"`
	Elapsed  int64 `json:"elapsed_ms"`
}

func toIndexerResult(r indexer.Result) indexerResult {
	return indexerResult{
		Files:    r.Files,
		Added:    r.Added,
		Modified: r.Modified,
		Deleted:  r.Deleted,
		Elapsed:  r.Elapsed.Milliseconds(),
	}
}

package search

import "github.com/codeindex-dev/codeindex/internal/search/backend"

// Query is a single search request, including the pagination the caller
// wants applied to the result.
type Query struct {
	Pattern       string
	CaseSensitive bool
	ContextLines  int
	FilePattern   string
	Fuzzy         bool
	Page          int
	PageSize      int
}

func (q Query) toOptions(basePath string) backend.Options {
	return backend.Options{
		Pattern:       q.Pattern,
		BasePath:      basePath,
		CaseSensitive: q.CaseSensitive,
		ContextLines:  q.ContextLines,
		FilePattern:   q.FilePattern,
		Fuzzy:         q.Fuzzy,
	}
}

// PageResult is the paginated view of a search, regrouped back to a
// per-file mapping after flattening and slicing.
type PageResult struct {
	Matches      backend.Result
	Page         int
	PageSize     int
	TotalMatches int
	TotalPages   int
	HasNext      bool
}

// PatternResult is one slot of a multi-pattern search response: either a
// successful paginated result or an error message, never both.
type PatternResult struct {
	Result *PageResult
	Error  string
}

package search

import (
	"sort"

	"github.com/codeindex-dev/codeindex/internal/search/backend"
)

type flatMatch struct {
	path  string
	match backend.Match
}

// paginate flattens result to an ordered list (sorted by path, then by the
// already-ascending line order within a path), slices by page*pageSize, and
// regroups the slice back into a per-file mapping.
func paginate(result backend.Result, page, pageSize int) PageResult {
	flat := flatten(result)
	total := len(flat)

	if pageSize <= 0 {
		pageSize = total
		if pageSize == 0 {
			pageSize = 1
		}
	}
	if page < 1 {
		page = 1
	}

	totalPages := (total + pageSize - 1) / pageSize
	if totalPages == 0 {
		totalPages = 1
	}

	start := (page - 1) * pageSize
	end := start + pageSize
	if start > total {
		start = total
	}
	if end > total {
		end = total
	}

	slice := flat[start:end]
	regrouped := make(backend.Result)
	for _, fm := range slice {
		regrouped[fm.path] = append(regrouped[fm.path], fm.match)
	}

	return PageResult{
		Matches:      regrouped,
		Page:         page,
		PageSize:     pageSize,
		TotalMatches: total,
		TotalPages:   totalPages,
		HasNext:      page < totalPages,
	}
}

func flatten(result backend.Result) []flatMatch {
	paths := make([]string, 0, len(result))
	for p := range result {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	var flat []flatMatch
	for _, p := range paths {
		for _, m := range result[p] {
			flat = append(flat, flatMatch{path: p, match: m})
		}
	}
	return flat
}

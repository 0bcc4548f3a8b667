package store

import "sort"

// historySource is the subset of Store needed to assemble a combined
// version+diff history; satisfied by every backend.
type historySource interface {
	versionsForPath(path string) ([]Version, error)
	GetDiffsForPath(path string) ([]Diff, error)
}

// defaultGetFileHistory merges a path's versions and diffs into a single
// chronologically-sorted history, shared by every Store implementation.
func defaultGetFileHistory(s historySource, path string) ([]HistoryEntry, error) {
	versions, err := s.versionsForPath(path)
	if err != nil {
		return nil, err
	}
	diffs, err := s.GetDiffsForPath(path)
	if err != nil {
		return nil, err
	}

	entries := make([]HistoryEntry, 0, len(versions)+len(diffs))
	for i := range versions {
		v := versions[i]
		entries = append(entries, HistoryEntry{Timestamp: v.Timestamp, Version: &v})
	}
	for i := range diffs {
		d := diffs[i]
		entries = append(entries, HistoryEntry{Timestamp: d.Timestamp, Diff: &d})
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Timestamp.Before(entries[j].Timestamp) })
	return entries, nil
}

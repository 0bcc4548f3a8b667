// Package indexer implements the refresh pipeline (C8): walk the project
// tree, filter candidates through the ignore matcher and filter policy,
// classify them against the change tracker, process added/modified paths
// in parallel chunks, prune deleted paths, and persist the trie and
// change-tracker state atomically.
//
// A per-project file lock excludes concurrent refreshes across processes;
// within a process, Indexer itself serialises Refresh calls.
package indexer

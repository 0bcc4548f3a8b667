// Package search implements the search dispatcher (C10): backend
// capability probing in priority order, an LRU paginated result cache, and
// concurrent multi-pattern fan-out.
package search

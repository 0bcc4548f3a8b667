// Package cache implements the generic, capacity-bounded LRU cache (C5)
// with TTL expiry, hit/miss statistics, and an optional disk-backed
// persistent variant with a background maintenance loop.
package cache

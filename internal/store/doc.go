// Package store implements the persistent KV store (C3): a
// string-keyed mapping of text/structured values plus full-text search,
// and the file-version/diff history tables used by the change-tracker
// facade. SQLiteStore (modernc.org/sqlite, WAL, FTS5) is the default
// backend; MemStore is the pure in-memory fallback used when
// BackendUnavailable is raised; BleveStore is an alternate FTS engine that
// project.Open does not construct (the fts_backend config value is
// validated but does not select it).
package store

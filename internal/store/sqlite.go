package store

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite" // pure-Go SQLite driver, no cgo

	"github.com/codeindex-dev/codeindex/internal/errors"
)

// SQLiteStore is the default KV-plus-FTS backend: modernc.org/sqlite in
// WAL mode with a single writer connection, an FTS5 virtual table for
// Search, and the file_versions/file_diffs history tables.
type SQLiteStore struct {
	mu   sync.RWMutex
	db   *sql.DB
	path string
}

// NewSQLiteStore opens (creating if absent) the store at path. An empty
// path opens an in-memory database, used in tests. A corrupted on-disk
// database is detected via PRAGMA integrity_check, logged, and cleared
// rather than returned as a fatal error — the caller gets a fresh store
// and the project is expected to reindex.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	dsn := ":memory:"
	if path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, errors.BackendUnavailableErr("cannot create store directory", err)
		}
		if err := validateSQLiteIntegrity(path); err != nil {
			slog.Warn("store: sqlite index corrupted, clearing", slog.String("path", path), slog.String("error", err.Error()))
			_ = os.Remove(path)
			_ = os.Remove(path + "-wal")
			_ = os.Remove(path + "-shm")
		}
		dsn = path + "?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, errors.BackendUnavailableErr("cannot open sqlite database", err)
	}

	db.SetMaxOpenConns(1) // single writer, avoids SQLITE_BUSY under WAL
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA temp_store = MEMORY",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, errors.BackendUnavailableErr("cannot set sqlite pragma", err)
		}
	}

	s := &SQLiteStore{db: db, path: path}
	if err := s.initSchema(); err != nil {
		_ = db.Close()
		return nil, errors.BackendUnavailableErr("cannot initialize sqlite schema", err)
	}
	return s, nil
}

func validateSQLiteIntegrity(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}

	db, err := sql.Open("sqlite", path+"?mode=ro")
	if err != nil {
		return fmt.Errorf("cannot open for validation: %w", err)
	}
	defer func() { _ = db.Close() }()

	var result string
	if err := db.QueryRow("PRAGMA integrity_check").Scan(&result); err != nil {
		return fmt.Errorf("integrity check failed: %w", err)
	}
	if result != "ok" {
		return fmt.Errorf("database reports corruption: %s", result)
	}
	return nil
}

const schema = `
CREATE TABLE IF NOT EXISTS kv (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL,
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL
);

CREATE VIRTUAL TABLE IF NOT EXISTS kv_fts USING fts5(
	key UNINDEXED,
	value,
	tokenize='unicode61'
);

CREATE TRIGGER IF NOT EXISTS kv_ai AFTER INSERT ON kv BEGIN
	INSERT INTO kv_fts(rowid, key, value) VALUES (new.rowid, new.key, new.value);
END;
CREATE TRIGGER IF NOT EXISTS kv_ad AFTER DELETE ON kv BEGIN
	DELETE FROM kv_fts WHERE rowid = old.rowid;
END;
CREATE TRIGGER IF NOT EXISTS kv_au AFTER UPDATE ON kv BEGIN
	DELETE FROM kv_fts WHERE rowid = old.rowid;
	INSERT INTO kv_fts(rowid, key, value) VALUES (new.rowid, new.key, new.value);
END;

CREATE TABLE IF NOT EXISTS file_versions (
	version_id TEXT PRIMARY KEY,
	file_path TEXT NOT NULL,
	content TEXT NOT NULL,
	sha256 TEXT NOT NULL,
	size INTEGER NOT NULL,
	timestamp INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_file_versions_path ON file_versions(file_path);

CREATE TABLE IF NOT EXISTS file_diffs (
	diff_id TEXT PRIMARY KEY,
	file_path TEXT NOT NULL,
	previous_version_id TEXT,
	current_version_id TEXT NOT NULL,
	diff_text TEXT NOT NULL,
	operation TEXT NOT NULL,
	timestamp INTEGER NOT NULL,
	FOREIGN KEY (previous_version_id) REFERENCES file_versions(version_id),
	FOREIGN KEY (current_version_id) REFERENCES file_versions(version_id)
);
CREATE INDEX IF NOT EXISTS idx_file_diffs_path ON file_diffs(file_path);
`

func (s *SQLiteStore) initSchema() error {
	_, err := s.db.Exec(schema)
	return err
}

// Put inserts or replaces key's value, maintaining created_at on first
// insert and updated_at on every write.
func (s *SQLiteStore) Put(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().Unix()
	_, err := s.db.Exec(`
		INSERT INTO kv (key, value, created_at, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, key, value, now, now)
	return err
}

func (s *SQLiteStore) Get(key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var value string
	err := s.db.QueryRow(`SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

func (s *SQLiteStore) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`DELETE FROM kv WHERE key = ?`, key)
	return err
}

func (s *SQLiteStore) Exists(key string) (bool, error) {
	_, ok, err := s.Get(key)
	return ok, err
}

func (s *SQLiteStore) Keys(glob string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `SELECT key FROM kv`
	args := []any{}
	if glob != "" {
		query += ` WHERE key GLOB ?`
		args = append(args, glob)
	}
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		out = append(out, k)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Items(glob string) (map[string]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `SELECT key, value FROM kv`
	args := []any{}
	if glob != "" {
		query += ` WHERE key GLOB ?`
		args = append(args, glob)
	}
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	out := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, err
		}
		out[k] = v
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Size() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM kv`).Scan(&n)
	return n, err
}

func (s *SQLiteStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`DELETE FROM kv`)
	return err
}

// Flush forces SQLite to checkpoint its WAL file, making prior writes
// durable on disk.
func (s *SQLiteStore) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`PRAGMA wal_checkpoint(TRUNCATE)`)
	return err
}

func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

// Search runs an FTS5 MATCH query ranked by bm25(), ascending (lowest =
// best match).
func (s *SQLiteStore) Search(query string, limit int) ([]SearchHit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(`
		SELECT kv.key, kv.value, bm25(kv_fts) AS rank
		FROM kv_fts JOIN kv ON kv.rowid = kv_fts.rowid
		WHERE kv_fts.value MATCH ?
		ORDER BY rank
		LIMIT ?
	`, query, limit)
	if err != nil {
		return nil, errors.SearchFailedErr("sqlite-fts", err.Error())
	}
	defer func() { _ = rows.Close() }()

	var hits []SearchHit
	for rows.Next() {
		var h SearchHit
		if err := rows.Scan(&h.Key, &h.Value, &h.Rank); err != nil {
			return nil, err
		}
		hits = append(hits, h)
	}
	return hits, rows.Err()
}

func (s *SQLiteStore) PutVersion(v Version) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`
		INSERT INTO file_versions (version_id, file_path, content, sha256, size, timestamp)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(version_id) DO UPDATE SET content = excluded.content, sha256 = excluded.sha256,
			size = excluded.size, timestamp = excluded.timestamp
	`, v.ID, v.FilePath, v.Content, v.SHA256, v.Size, v.Timestamp.Unix())
	return err
}

func (s *SQLiteStore) GetVersion(id string) (Version, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var v Version
	var ts int64
	err := s.db.QueryRow(`
		SELECT version_id, file_path, content, sha256, size, timestamp FROM file_versions WHERE version_id = ?
	`, id).Scan(&v.ID, &v.FilePath, &v.Content, &v.SHA256, &v.Size, &ts)
	if err == sql.ErrNoRows {
		return Version{}, false, nil
	}
	if err != nil {
		return Version{}, false, err
	}
	v.Timestamp = time.Unix(ts, 0).UTC()
	return v, true, nil
}

func (s *SQLiteStore) PutDiff(d Diff) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`
		INSERT INTO file_diffs (diff_id, file_path, previous_version_id, current_version_id, diff_text, operation, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, d.ID, d.FilePath, nullable(d.PreviousVersionID), d.CurrentVersionID, d.DiffText, string(d.Operation), d.Timestamp.Unix())
	if isForeignKeyViolation(err) {
		return errors.IntegrityErr("diff references an unknown version", err)
	}
	return err
}

func (s *SQLiteStore) GetDiffsForPath(path string) ([]Diff, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT diff_id, file_path, COALESCE(previous_version_id, ''), current_version_id, diff_text, operation, timestamp
		FROM file_diffs WHERE file_path = ? ORDER BY timestamp ASC
	`, path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []Diff
	for rows.Next() {
		var d Diff
		var op string
		var ts int64
		if err := rows.Scan(&d.ID, &d.FilePath, &d.PreviousVersionID, &d.CurrentVersionID, &d.DiffText, &op, &ts); err != nil {
			return nil, err
		}
		d.Operation = Operation(op)
		d.Timestamp = time.Unix(ts, 0).UTC()
		out = append(out, d)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) versionsForPath(path string) ([]Version, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT version_id, file_path, content, sha256, size, timestamp
		FROM file_versions WHERE file_path = ? ORDER BY timestamp ASC
	`, path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []Version
	for rows.Next() {
		var v Version
		var ts int64
		if err := rows.Scan(&v.ID, &v.FilePath, &v.Content, &v.SHA256, &v.Size, &ts); err != nil {
			return nil, err
		}
		v.Timestamp = time.Unix(ts, 0).UTC()
		out = append(out, v)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) GetFileHistory(path string) ([]HistoryEntry, error) {
	return defaultGetFileHistory(s, path)
}

func (s *SQLiteStore) ReconstructVersion(path, versionID string) (string, error) {
	return Reconstruct(s, path, versionID)
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func isForeignKeyViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "foreign key") || strings.Contains(msg, "constraint failed")
}

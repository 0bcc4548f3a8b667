package project

import (
	"crypto/md5"
	"encoding/hex"
	"os"
	"path/filepath"
)

const (
	configFileName       = "config.json"
	cacheDBFileName       = "cache.db"
	indexDBFileName       = "index.db"
	metadataDBFileName    = "metadata.db"
	contentCacheFileName  = "file_content_cache.json"
	stateRootEnvOverride  = "CODEINDEX_STATE_ROOT"
	defaultStateDirPrefix = "codeindex"
)

// hashPath returns the MD5 hex digest of an absolute path, used to name
// a project's state directory.
func hashPath(absRoot string) string {
	sum := md5.Sum([]byte(absRoot)) //nolint:gosec // identity key, not a security boundary
	return hex.EncodeToString(sum[:])
}

// StateDir returns the per-project state directory for root, creating
// neither the directory nor its contents. root must already be absolute.
func StateDir(root string) string {
	base := os.Getenv(stateRootEnvOverride)
	if base == "" {
		base = filepath.Join(os.TempDir(), defaultStateDirPrefix)
	}
	return filepath.Join(base, hashPath(root))
}

// Paths are the file locations within a project's state directory.
type Paths struct {
	ConfigPath       string
	CacheDBPath      string
	IndexDBPath      string
	MetadataDBPath   string
	ContentCachePath string
}

// ResolvePaths returns the file paths within stateDir, without creating
// anything.
func ResolvePaths(stateDir string) Paths {
	return Paths{
		ConfigPath:       filepath.Join(stateDir, configFileName),
		CacheDBPath:      filepath.Join(stateDir, cacheDBFileName),
		IndexDBPath:      filepath.Join(stateDir, indexDBFileName),
		MetadataDBPath:   filepath.Join(stateDir, metadataDBFileName),
		ContentCachePath: filepath.Join(stateDir, contentCacheFileName),
	}
}

// EnsureStateDir creates stateDir (and any parents) if absent.
func EnsureStateDir(stateDir string) error {
	return os.MkdirAll(stateDir, 0o755)
}

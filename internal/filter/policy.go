package filter

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Policy is a size/count admission policy evaluated after the ignore
// matcher during a walk. It holds no state; every method is a pure
// function of its receiver and arguments.
type Policy struct {
	// MaxFileSize is the default per-file byte ceiling. Zero or negative
	// means unlimited.
	MaxFileSize int64
	// TypeSpecificLimits maps a lower-cased extension (including the
	// leading dot, e.g. ".log") to a byte ceiling that overrides
	// MaxFileSize for files with that extension.
	TypeSpecificLimits map[string]int64
	// MaxFilesPerDirectory and MaxSubdirectoriesPerDirectory bound how
	// many entries a single directory may contain before the walker
	// prunes it. Zero or negative means unlimited.
	MaxFilesPerDirectory          int
	MaxSubdirectoriesPerDirectory int
	// SkipLargeDirectories is a glob list (matched against the
	// project-relative directory path) of directories pruned outright.
	SkipLargeDirectories []string
	// ExplicitInclusions lists paths, directories, or bare extensions
	// (".md") that waive every limit above.
	ExplicitInclusions []string
	// LogDecisions, when set, logs every rejection at debug level.
	LogDecisions bool
}

// AllowFile reports whether relPath (size bytes) passes the policy, and a
// human-readable reason when it does not.
func (p Policy) AllowFile(relPath string, size int64) (bool, string) {
	relPath = filepath.ToSlash(relPath)

	if p.isExplicitlyIncluded(relPath) {
		return true, ""
	}

	limit := p.MaxFileSize
	if ext := strings.ToLower(filepath.Ext(relPath)); ext != "" {
		if l, ok := p.TypeSpecificLimits[ext]; ok {
			limit = l
		}
	}

	if limit > 0 && size > limit {
		reason := fmt.Sprintf("file %q (%d bytes) exceeds limit of %d bytes", relPath, size, limit)
		p.logRejection(reason)
		return false, reason
	}

	return true, ""
}

// AllowDirectory reports whether relPath, containing fileCount files and
// subdirCount subdirectories, may be descended into.
func (p Policy) AllowDirectory(relPath string, fileCount, subdirCount int) bool {
	relPath = filepath.ToSlash(relPath)

	if p.isExplicitlyIncluded(relPath) {
		return true
	}

	for _, pattern := range p.SkipLargeDirectories {
		if ok, _ := doublestar.Match(pattern, relPath); ok {
			p.logRejection(fmt.Sprintf("directory %q matches skip-large-directories pattern %q", relPath, pattern))
			return false
		}
	}

	if p.MaxFilesPerDirectory > 0 && fileCount > p.MaxFilesPerDirectory {
		p.logRejection(fmt.Sprintf("directory %q has %d files, exceeding limit of %d", relPath, fileCount, p.MaxFilesPerDirectory))
		return false
	}

	if p.MaxSubdirectoriesPerDirectory > 0 && subdirCount > p.MaxSubdirectoriesPerDirectory {
		p.logRejection(fmt.Sprintf("directory %q has %d subdirectories, exceeding limit of %d", relPath, subdirCount, p.MaxSubdirectoriesPerDirectory))
		return false
	}

	return true
}

func (p Policy) isExplicitlyIncluded(relPath string) bool {
	ext := strings.ToLower(filepath.Ext(relPath))
	for _, inc := range p.ExplicitInclusions {
		inc = filepath.ToSlash(inc)
		if inc == relPath {
			return true
		}
		if strings.HasPrefix(inc, ".") && !strings.Contains(inc, "/") && inc == ext {
			return true
		}
		if ok, _ := doublestar.Match(inc, relPath); ok {
			return true
		}
		if strings.HasPrefix(relPath, strings.TrimSuffix(inc, "/")+"/") {
			return true
		}
	}
	return false
}

func (p Policy) logRejection(reason string) {
	if !p.LogDecisions {
		return
	}
	slog.Debug("filter: rejected", slog.String("reason", reason))
}

package codeindex

import (
	"path/filepath"
	"strings"

	"github.com/codeindex-dev/codeindex/internal/errors"
)

// resolveRelPath validates a user-supplied project-relative path against
// spec's path security rule and returns the absolute path under root: reject
// absolute paths (including drive-letter), reject ".." segments, and require
// that realpath(root/path) still starts with realpath(root).
func resolveRelPath(root, rel string) (string, error) {
	if rel == "" {
		return "", errors.ValidationErr("path must not be empty", nil)
	}
	clean := filepath.ToSlash(rel)
	if filepath.IsAbs(clean) || strings.HasPrefix(clean, "/") || isDriveAbs(clean) {
		return "", errors.ValidationErr("path must be project-relative, got absolute path: "+rel, nil)
	}
	for _, seg := range strings.Split(clean, "/") {
		if seg == ".." {
			return "", errors.ValidationErr("path must not contain .. segments: "+rel, nil)
		}
	}

	joined := filepath.Join(root, filepath.FromSlash(clean))

	realRoot, err := filepath.EvalSymlinks(root)
	if err != nil {
		return "", errors.PathErr("failed to resolve project root", err)
	}
	realJoined, err := filepath.EvalSymlinks(joined)
	if err != nil {
		// The target may not exist yet (e.g. a path being created); fall
		// back to a lexical check against the resolved root.
		if !strings.HasPrefix(filepath.Clean(joined), realRoot) {
			return "", errors.ValidationErr("path escapes project root: "+rel, nil)
		}
		return joined, nil
	}
	if realJoined != realRoot && !strings.HasPrefix(realJoined, realRoot+string(filepath.Separator)) {
		return "", errors.ValidationErr("path escapes project root: "+rel, nil)
	}
	return joined, nil
}

// isDriveAbs reports whether clean looks like a Windows drive-letter
// absolute path ("C:/...") regardless of the host OS.
func isDriveAbs(clean string) bool {
	return len(clean) >= 2 && clean[1] == ':' && ((clean[0] >= 'a' && clean[0] <= 'z') || (clean[0] >= 'A' && clean[0] <= 'Z'))
}

// toRelPath normalises an absolute path under root back to a
// project-relative, forward-slash path.
func toRelPath(root, abs string) (string, error) {
	rel, err := filepath.Rel(root, abs)
	if err != nil {
		return "", err
	}
	return filepath.ToSlash(rel), nil
}

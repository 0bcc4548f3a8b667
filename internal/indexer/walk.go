package indexer

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/codeindex-dev/codeindex/internal/filter"
	"github.com/codeindex-dev/codeindex/internal/ignore"
)

// walkProject performs the depth-first traversal of step 1:
// at each directory, the ignore matcher and filter policy may prune it
// outright; otherwise every surviving file becomes a candidate once it
// also passes AllowFile. Dot-named entries are skipped unconditionally,
// per the hidden-file rule.
func walkProject(ctx context.Context, root string, matcher *ignore.Matcher, policy filter.Policy) ([]candidate, error) {
	var out []candidate

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if path == root {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		name := d.Name()

		if d.IsDir() {
			if strings.HasPrefix(name, ".") {
				return filepath.SkipDir
			}
			if matcher.ShouldIgnoreDirectory(rel) {
				return filepath.SkipDir
			}
			entries, err := os.ReadDir(path)
			if err != nil {
				return err
			}
			var fileCount, subdirCount int
			for _, e := range entries {
				if e.IsDir() {
					subdirCount++
				} else {
					fileCount++
				}
			}
			if !policy.AllowDirectory(rel, fileCount, subdirCount) {
				return filepath.SkipDir
			}
			return nil
		}

		if strings.HasPrefix(name, ".") {
			return nil
		}
		if matcher.ShouldIgnore(rel) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}
		if allowed, _ := policy.AllowFile(rel, info.Size()); !allowed {
			return nil
		}

		out = append(out, candidate{
			RelPath: rel,
			AbsPath: path,
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

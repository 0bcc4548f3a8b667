package indexer

import (
	"path/filepath"
	"strings"

	"github.com/codeindex-dev/codeindex/internal/content"
	"github.com/codeindex-dev/codeindex/internal/progress"
	"github.com/codeindex-dev/codeindex/internal/trie"
)

// chunkResult is what one worker produces for one chunk of paths: the
// successfully-built records, plus a per-path error for everything that
// failed. Neither aborts the refresh.
type chunkResult struct {
	Records   []trie.FileRecord
	Errors    []fileError
	Cancelled bool
}

// processChunk hashes and stats every candidate in chunk, building the
// trie record step 5 calls for. op may be nil (e.g. in unit
// tests); when non-nil, CheckCancel is consulted at every file boundary.
func processChunk(chunk []candidate, op *progress.Operation) chunkResult {
	var res chunkResult
	for _, c := range chunk {
		if op != nil {
			if err := op.CheckCancel(); err != nil {
				res.Cancelled = true
				return res
			}
		}

		hash, err := content.ComputeHash(c.AbsPath)
		if err != nil {
			res.Errors = append(res.Errors, fileError{Path: c.RelPath, Err: err})
			continue
		}

		res.Records = append(res.Records, trie.FileRecord{
			Path:        c.RelPath,
			Type:        trie.RecordTypeFile,
			Extension:   strings.ToLower(filepath.Ext(c.RelPath)),
			MTime:       c.ModTime,
			Size:        c.Size,
			ContentHash: hash,
			LastChecked: timeNow(),
		})
	}
	return res
}

// chunkPaths partitions paths into groups of at most size, preserving
// order. size <= 0 is treated as "one chunk".
func chunkPaths(paths []string, size int) [][]string {
	if size <= 0 || size >= len(paths) {
		if len(paths) == 0 {
			return nil
		}
		return [][]string{paths}
	}

	var chunks [][]string
	for i := 0; i < len(paths); i += size {
		end := i + size
		if end > len(paths) {
			end = len(paths)
		}
		chunks = append(chunks, paths[i:end])
	}
	return chunks
}

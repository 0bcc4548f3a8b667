package backend

import (
	"bufio"
	"context"
	"io"
	"os"
	"path/filepath"
	"regexp"

	"github.com/bmatcuk/doublestar/v4"
)

// largeFileThreshold is the size above which FallbackBackend switches from
// bufio.Scanner line reading to explicit chunked reads, matching the
// threshold used by the content registry.
const largeFileThreshold = 10 * 1024 * 1024

const fallbackChunkSize = 4 * 1024 * 1024

// FallbackBackend is the pure in-process search strategy used when no
// external command-line tool is available. It does not support context
// lines.
type FallbackBackend struct{}

// NewFallbackBackend returns the in-process fallback backend. It is always
// available.
func NewFallbackBackend() *FallbackBackend { return &FallbackBackend{} }

func (b *FallbackBackend) Name() string { return "fallback" }

func (b *FallbackBackend) IsAvailable() bool { return true }

func (b *FallbackBackend) Search(ctx context.Context, opts Options) (Result, error) {
	re, err := compilePattern(opts)
	if err != nil {
		return nil, err
	}

	result := make(Result)

	err = filepath.WalkDir(opts.BasePath, func(path string, d os.DirEntry, walkErr error) error {
		if walkErr != nil {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if opts.FilePattern != "" {
			matched, _ := doublestar.Match(opts.FilePattern, d.Name())
			if !matched {
				return nil
			}
		}

		matches, err := searchFile(path, re)
		if err != nil {
			// Unreadable files are skipped, never fatal.
			return nil
		}
		if len(matches) == 0 {
			return nil
		}

		rel, err := filepath.Rel(opts.BasePath, path)
		if err != nil {
			return nil
		}
		result[filepath.ToSlash(rel)] = matches
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

func compilePattern(opts Options) (*regexp.Regexp, error) {
	pattern := opts.Pattern
	if opts.Fuzzy {
		pattern = safeFuzzyPattern(opts.Pattern)
	} else {
		pattern = regexp.QuoteMeta(pattern)
	}
	if !opts.CaseSensitive {
		pattern = "(?i)" + pattern
	}
	return regexp.Compile(pattern)
}

func searchFile(path string, re *regexp.Regexp) ([]Match, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.Size() > largeFileThreshold {
		return searchFileChunked(path, re)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var matches []Match
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Text()
		if re.MatchString(line) {
			matches = append(matches, Match{Line: lineNum, Content: line})
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return matches, nil
}

// searchFileChunked reads a large file in fixed-size chunks, splicing
// partial lines across chunk boundaries, so a single oversized file never
// forces the whole content into memory at once.
func searchFileChunked(path string, re *regexp.Regexp) ([]Match, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var matches []Match
	lineNum := 0
	var carry []byte
	buf := make([]byte, fallbackChunkSize)

	for {
		n, readErr := f.Read(buf)
		if n > 0 {
			carry = append(carry, buf[:n]...)
			lines := splitLines(carry)
			carry = lines[len(lines)-1]
			for _, line := range lines[:len(lines)-1] {
				lineNum++
				s := string(line)
				if re.MatchString(s) {
					matches = append(matches, Match{Line: lineNum, Content: s})
				}
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return nil, readErr
		}
	}

	if len(carry) > 0 {
		lineNum++
		s := string(carry)
		if re.MatchString(s) {
			matches = append(matches, Match{Line: lineNum, Content: s})
		}
	}

	return matches, nil
}

func splitLines(data []byte) [][]byte {
	var lines [][]byte
	start := 0
	for i, b := range data {
		if b == '\n' {
			lines = append(lines, data[start:i])
			start = i + 1
		}
	}
	lines = append(lines, data[start:])
	return lines
}

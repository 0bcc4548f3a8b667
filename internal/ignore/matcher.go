package ignore

import (
	"bufio"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
)

// DefaultPatterns is the built-in exclusion set applied before any
// project-specific .gitignore/.ignore file is loaded.
var DefaultPatterns = []string{
	".git/",
	".svn/",
	".hg/",
	".code-index/",
	"node_modules/",
	"bower_components/",
	"__pycache__/",
	"*.pyc",
	"*.pyo",
	".venv/",
	"venv/",
	"env/",
	"dist/",
	"build/",
	"target/",
	"out/",
	".idea/",
	".vscode/",
	"*.swp",
	"*.swo",
	".DS_Store",
	"Thumbs.db",
	".cache/",
	"*.tmp",
	"*.log",
}

// rule is a single compiled gitignore pattern.
type rule struct {
	pattern  string
	regex    *regexp.Regexp
	negation bool
	dirOnly  bool
	anchored bool
}

// Matcher holds compiled exclusion patterns and answers should-ignore
// queries. Safe for concurrent use.
type Matcher struct {
	mu    sync.RWMutex
	rules []rule
}

// New returns an empty Matcher with no patterns loaded.
func New() *Matcher {
	return &Matcher{}
}

// NewFromProject builds a Matcher for root: the built-in defaults, then
// root/.gitignore, then root/.ignore, in that order. A pattern whose regex
// fails to compile is logged and skipped; it never aborts construction.
func NewFromProject(root string) *Matcher {
	m := New()
	for _, p := range DefaultPatterns {
		m.AddPattern(p)
	}
	m.addFromFileIfExists(filepath.Join(root, ".gitignore"))
	m.addFromFileIfExists(filepath.Join(root, ".ignore"))
	return m
}

func (m *Matcher) addFromFileIfExists(path string) {
	f, err := os.Open(path)
	if err != nil {
		return
	}
	defer func() { _ = f.Close() }()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		m.AddPattern(scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		slog.Warn("ignore: failed reading pattern file", slog.String("path", path), slog.String("error", err.Error()))
	}
}

// AddPattern compiles and adds a single gitignore-syntax pattern. A pattern
// that fails to compile raises (logs) a PatternParseError and is skipped;
// it is never fatal to the caller.
func (m *Matcher) AddPattern(pattern string) {
	pattern = strings.TrimRight(pattern, "\r")
	trimmed := strings.TrimSpace(pattern)
	if trimmed == "" || (strings.HasPrefix(trimmed, "#") && !strings.HasPrefix(trimmed, `\#`)) {
		return
	}
	pattern = trimmed

	r := rule{pattern: pattern}

	if strings.HasPrefix(pattern, `\#`) || strings.HasPrefix(pattern, `\!`) {
		pattern = strings.TrimPrefix(pattern, `\`)
	} else if strings.HasPrefix(pattern, "!") {
		r.negation = true
		pattern = strings.TrimPrefix(pattern, "!")
	}

	if strings.HasSuffix(pattern, "/") {
		r.dirOnly = true
		pattern = strings.TrimSuffix(pattern, "/")
	}

	if strings.HasPrefix(pattern, "/") {
		r.anchored = true
		pattern = strings.TrimPrefix(pattern, "/")
	} else if strings.Contains(pattern, "/") && !strings.HasPrefix(pattern, "**/") {
		// A pattern with an internal slash is anchored to the root too,
		// per gitignore semantics ("doc/frotz" means "/doc/frotz").
		r.anchored = true
	}

	regexSrc := "^" + patternToRegex(pattern) + "$"
	regex, err := regexp.Compile(regexSrc)
	if err != nil {
		slog.Warn("ignore: PatternParseError, skipping pattern",
			slog.String("pattern", r.pattern), slog.String("error", err.Error()))
		return
	}
	r.regex = regex

	m.mu.Lock()
	m.rules = append(m.rules, r)
	m.mu.Unlock()
}

// ShouldIgnore reports whether a project-relative, slash-normalised path
// (a regular file) should be excluded.
func (m *Matcher) ShouldIgnore(path string) bool {
	return m.match(path, false)
}

// ShouldIgnoreDirectory reports whether a project-relative directory path
// should be excluded. Directories inside an already-ignored directory are
// not re-evaluated by callers (the walker prunes instead of recursing).
func (m *Matcher) ShouldIgnoreDirectory(path string) bool {
	return m.match(path, true)
}

func (m *Matcher) match(path string, isDir bool) bool {
	path = filepath.ToSlash(strings.Trim(path, "/"))
	if path == "" {
		return false
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	ignored := false
	for _, r := range m.rules {
		if matchRule(path, isDir, r) {
			ignored = !r.negation
		}
	}
	return ignored
}

func matchRule(path string, isDir bool, r rule) bool {
	parts := strings.Split(path, "/")
	basename := parts[len(parts)-1]

	if r.anchored {
		if r.regex.MatchString(path) {
			if r.dirOnly {
				return isDir
			}
			return true
		}
		if r.dirOnly {
			for i := range parts[:len(parts)-1] {
				if r.regex.MatchString(strings.Join(parts[:i+1], "/")) {
					return true
				}
			}
		}
		return false
	}

	if r.dirOnly {
		for i, part := range parts {
			if r.regex.MatchString(part) {
				if i == len(parts)-1 {
					return isDir
				}
				return true
			}
		}
		return false
	}

	if r.regex.MatchString(basename) || r.regex.MatchString(path) {
		return true
	}
	for _, part := range parts {
		if r.regex.MatchString(part) {
			return true
		}
	}
	return false
}

// patternToRegex converts a gitignore glob pattern into a regex body
// (without the surrounding anchors).
func patternToRegex(pattern string) string {
	var out strings.Builder
	i := 0
	for i < len(pattern) {
		c := pattern[i]
		switch c {
		case '*':
			if i+1 < len(pattern) && pattern[i+1] == '*' {
				if i+2 < len(pattern) && pattern[i+2] == '/' {
					out.WriteString("(?:.*/)?")
					i += 3
					continue
				}
				out.WriteString(".*")
				i += 2
				continue
			}
			out.WriteString("[^/]*")
			i++
		case '?':
			out.WriteString("[^/]")
			i++
		case '[':
			j := i + 1
			for j < len(pattern) && pattern[j] != ']' {
				j++
			}
			if j < len(pattern) {
				out.WriteString(pattern[i : j+1])
				i = j + 1
			} else {
				out.WriteString(regexp.QuoteMeta(string(c)))
				i++
			}
		case '\\':
			if i+1 < len(pattern) {
				out.WriteString(regexp.QuoteMeta(string(pattern[i+1])))
				i += 2
			} else {
				out.WriteString(regexp.QuoteMeta(string(c)))
				i++
			}
		case '.', '+', '^', '$', '(', ')', '{', '}', '|':
			out.WriteString(regexp.QuoteMeta(string(c)))
			i++
		default:
			out.WriteByte(c)
			i++
		}
	}
	return out.String()
}

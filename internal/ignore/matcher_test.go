package ignore

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatcher_SimplePatterns(t *testing.T) {
	tests := []struct {
		name     string
		pattern  string
		path     string
		isDir    bool
		expected bool
	}{
		{name: "exact filename match", pattern: "foo.txt", path: "foo.txt", expected: true},
		{name: "exact filename no match", pattern: "foo.txt", path: "bar.txt", expected: false},
		{name: "filename in subdir", pattern: "foo.txt", path: "src/foo.txt", expected: true},
		{name: "filename deep nested", pattern: "foo.txt", path: "a/b/c/foo.txt", expected: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := New()
			m.AddPattern(tt.pattern)
			assert.Equal(t, tt.expected, m.ShouldIgnore(tt.path))
		})
	}
}

func TestMatcher_WildcardPatterns(t *testing.T) {
	tests := []struct {
		name     string
		pattern  string
		path     string
		expected bool
	}{
		{name: "*.log matches .log", pattern: "*.log", path: "error.log", expected: true},
		{name: "*.log matches nested .log", pattern: "*.log", path: "logs/error.log", expected: true},
		{name: "*.log no match .txt", pattern: "*.log", path: "error.txt", expected: false},
		{name: "test* matches prefix", pattern: "test*", path: "testfile.go", expected: true},
		{name: "test* no match other", pattern: "test*", path: "production.go", expected: false},
		{name: "** matches across segments", pattern: "**/vendor/**", path: "a/b/vendor/c/d.go", expected: true},
		{name: "? matches single char", pattern: "a?.txt", path: "ab.txt", expected: true},
		{name: "? does not match two chars", pattern: "a?.txt", path: "abc.txt", expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := New()
			m.AddPattern(tt.pattern)
			assert.Equal(t, tt.expected, m.ShouldIgnore(tt.path))
		})
	}
}

func TestMatcher_AnchoredPatterns(t *testing.T) {
	m := New()
	m.AddPattern("/build")

	assert.True(t, m.ShouldIgnore("build"))
	assert.False(t, m.ShouldIgnore("src/build"))
}

func TestMatcher_InternalSlashIsAnchored(t *testing.T) {
	m := New()
	m.AddPattern("doc/frotz")

	assert.True(t, m.ShouldIgnore("doc/frotz"))
	assert.False(t, m.ShouldIgnore("a/doc/frotz"))
}

func TestMatcher_DirOnlyPattern(t *testing.T) {
	m := New()
	m.AddPattern("build/")

	assert.True(t, m.ShouldIgnoreDirectory("build"))
	assert.False(t, m.ShouldIgnore("build"))
	assert.True(t, m.ShouldIgnoreDirectory("src/build"))
}

func TestMatcher_NegationLastMatchWins(t *testing.T) {
	m := New()
	m.AddPattern("*.log")
	m.AddPattern("!keep.log")

	assert.True(t, m.ShouldIgnore("error.log"))
	assert.False(t, m.ShouldIgnore("keep.log"))
}

func TestMatcher_NegationOrderMatters(t *testing.T) {
	m := New()
	m.AddPattern("!keep.log")
	m.AddPattern("*.log")

	assert.True(t, m.ShouldIgnore("keep.log"), "a later pattern re-excludes a prior negation")
}

func TestMatcher_CommentsAndBlankLinesIgnored(t *testing.T) {
	m := New()
	m.AddPattern("# this is a comment")
	m.AddPattern("")
	m.AddPattern("   ")
	m.AddPattern("*.log")

	assert.True(t, m.ShouldIgnore("error.log"))
}

func TestMatcher_EscapedHashIsLiteral(t *testing.T) {
	m := New()
	m.AddPattern(`\#hash.txt`)

	assert.True(t, m.ShouldIgnore("#hash.txt"))
}

func TestMatcher_InvalidPatternIsSkippedNotFatal(t *testing.T) {
	m := New()
	require.NotPanics(t, func() {
		m.AddPattern("[z-a].txt")
	})
	m.AddPattern("*.log")
	assert.True(t, m.ShouldIgnore("error.log"), "a later valid pattern still applies")
}

func TestMatcher_DefaultPatterns(t *testing.T) {
	m := New()
	for _, p := range DefaultPatterns {
		m.AddPattern(p)
	}

	assert.True(t, m.ShouldIgnoreDirectory(".git"))
	assert.True(t, m.ShouldIgnoreDirectory("node_modules"))
	assert.True(t, m.ShouldIgnoreDirectory("vendor/node_modules"))
	assert.True(t, m.ShouldIgnore("main.pyc"))
	assert.True(t, m.ShouldIgnore(".DS_Store"))
	assert.False(t, m.ShouldIgnoreDirectory("src"))
	assert.False(t, m.ShouldIgnore("main.go"))
}

func TestNewFromProject_LoadsGitignoreAndIgnoreFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".gitignore"), []byte("*.log\nbuild/\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".ignore"), []byte("secrets.yaml\n"), 0o644))

	m := NewFromProject(dir)

	assert.True(t, m.ShouldIgnore("error.log"))
	assert.True(t, m.ShouldIgnoreDirectory("build"))
	assert.True(t, m.ShouldIgnore("secrets.yaml"))
	assert.True(t, m.ShouldIgnoreDirectory(".git"), "defaults are still loaded")
}

func TestNewFromProject_MissingFilesAreNotFatal(t *testing.T) {
	dir := t.TempDir()

	require.NotPanics(t, func() {
		m := NewFromProject(dir)
		assert.True(t, m.ShouldIgnoreDirectory(".git"))
	})
}

func TestMatcher_ConcurrentAccessIsSafe(t *testing.T) {
	m := New()
	m.AddPattern("*.log")

	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			m.AddPattern("*.tmp")
		}
		close(done)
	}()

	for i := 0; i < 100; i++ {
		m.ShouldIgnore("a.log")
	}
	<-done
}

package backend

import "context"

// Match is a single matched line within a file.
type Match struct {
	Line    int
	Content string
}

// Result maps a file path, relative to the search base and forward-slash
// normalised, to the matches found within it.
type Result map[string][]Match

// Options carries the parameters of a single search invocation.
type Options struct {
	Pattern       string
	BasePath      string
	CaseSensitive bool
	ContextLines  int
	FilePattern   string
	Fuzzy         bool
}

// Backend is the uniform contract every search backend implements, whether
// it shells out to an external tool or runs entirely in-process.
type Backend interface {
	Name() string
	IsAvailable() bool
	Search(ctx context.Context, opts Options) (Result, error)
}

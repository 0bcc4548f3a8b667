package backend

// NewRipgrepBackend returns a Backend that shells out to ripgrep (rg).
func NewRipgrepBackend() Backend {
	return newCLIBackend("rg", buildRipgrepArgs)
}

func buildRipgrepArgs(opts Options) []string {
	args := []string{"--line-number", "--no-heading", "--color=never", "--threads", itoa(hostCPUCount())}

	if !opts.CaseSensitive {
		args = append(args, "--ignore-case")
	}
	if opts.ContextLines > 0 {
		args = append(args, "--context", itoa(opts.ContextLines))
	}
	if opts.FilePattern != "" {
		args = append(args, "--glob", opts.FilePattern)
	}

	pattern := opts.Pattern
	if opts.Fuzzy {
		pattern = safeFuzzyPattern(opts.Pattern)
	} else {
		args = append(args, "--fixed-strings")
	}

	args = append(args, pattern, ".")
	return args
}

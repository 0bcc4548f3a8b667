package backend

import (
	"strconv"
	"strings"
)

// parseOutput parses the line-oriented "path:line:content" output shared by
// ripgrep, ag, and grep, turning absolute (or base-relative) paths into
// paths relative to basePath with forward slashes. Lines that don't match
// the expected shape (tool banners, summary lines) are silently skipped.
//
// Relative-path computation works on forward-slash-normalised strings
// rather than path/filepath, since filepath's separator handling is
// platform-dependent and a Windows-style drive-letter path must parse
// identically regardless of the host OS running this code.
func parseOutput(output, basePath string) Result {
	result := make(Result)
	normalizedBase := strings.TrimSuffix(toSlash(basePath), "/")

	for _, line := range strings.Split(output, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		filePath, lineNum, content, ok := splitMatchLine(line)
		if !ok {
			continue
		}

		rel := relativeSlashPath(normalizedBase, toSlash(filePath))
		result[rel] = append(result[rel], Match{Line: lineNum, Content: content})
	}

	return result
}

func toSlash(s string) string { return strings.ReplaceAll(s, `\`, "/") }

// relativeSlashPath strips base from path (both already forward-slashed).
// Tools invoked with a working directory already emit base-relative paths
// (typically prefixed with "./"); absolute paths are stripped of base
// instead.
func relativeSlashPath(base, path string) string {
	path = strings.TrimPrefix(path, "./")
	if base != "" && strings.HasPrefix(path, base+"/") {
		return strings.TrimPrefix(path, base+"/")
	}
	return strings.TrimPrefix(path, "/")
}

// splitMatchLine splits a single "path:line:content" line, accounting for
// Windows drive letters (e.g. "C:\foo\bar.go:12:content") which would
// otherwise be mistaken for the path/line-number separator.
func splitMatchLine(line string) (path string, lineNum int, content string, ok bool) {
	parts := strings.SplitN(line, ":", 3)
	if len(parts) < 3 {
		return "", 0, "", false
	}

	if len(parts[0]) == 1 && isDriveLetter(parts[0][0]) && strings.HasPrefix(parts[1], `\`) {
		// Re-join the drive letter with the path that follows it.
		rest := strings.SplitN(parts[2], ":", 2)
		if len(rest) < 2 {
			return "", 0, "", false
		}
		path = parts[0] + ":" + parts[1]
		n, err := strconv.Atoi(rest[0])
		if err != nil {
			return "", 0, "", false
		}
		return path, n, rest[1], true
	}

	n, err := strconv.Atoi(parts[1])
	if err != nil {
		return "", 0, "", false
	}
	return parts[0], n, parts[2], true
}

func isDriveLetter(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

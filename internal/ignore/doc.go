// Package ignore provides gitignore-style path-exclusion matching (C1).
//
// It loads, in order, a built-in default pattern set covering
// version-control, build, cache, editor, and OS-junk paths, then the
// project's .gitignore, then its .ignore file. Patterns are compiled to
// anchored regular expressions following gitignore semantics: a leading "/"
// anchors to the project root, a trailing "/" matches directories only,
// "**" matches zero-or-more path segments, "*"/"?" do not cross segment
// boundaries, and a leading "!" negates a previous match. Within a single
// evaluation, the last matching pattern wins.
package ignore

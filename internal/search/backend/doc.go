// Package backend implements the pluggable search backends (C9): a
// uniform contract over external command-line search tools (ripgrep,
// ag) whose output is parsed by a common path:line:content parser, plus
// a pure in-process fallback that walks the tree and matches lines with
// regex/fuzzy patterns directly.
package backend

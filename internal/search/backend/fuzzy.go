package backend

import "regexp"

// safeFuzzyPattern builds a word-boundary regex that is more permissive than
// an exact match while staying safe from regex injection: the input is
// always regexp-escaped first.
func safeFuzzyPattern(pattern string) string {
	escaped := regexp.QuoteMeta(pattern)
	if len(pattern) >= 3 {
		return `\b` + escaped + `|` + escaped + `\b`
	}
	return `\b` + escaped + `\b`
}

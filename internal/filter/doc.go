// Package filter implements the size/count-based admission policy (C2) that
// runs after the ignore matcher during a directory walk. It is pure
// functions over a Policy value: no state is held between calls.
package filter

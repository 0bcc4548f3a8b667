package store

import (
	"sort"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/codeindex-dev/codeindex/internal/errors"
)

// ComputeDiffText produces a patch-format diff text (go-diff's own
// serialization, not a hand-rolled unified diff) transitioning old to
// next. It is what gets stored in a Diff's DiffText field.
func ComputeDiffText(old, next string) string {
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(old, next, false)
	patches := dmp.PatchMake(old, diffs)
	return dmp.PatchToText(patches)
}

// ApplyDiffText applies a previously-computed diff text to base, raising
// IntegrityError if the patch text is malformed or any hunk fails to
// apply cleanly (spec's open question on replacing the hand-rolled
// line-splicing applier).
func ApplyDiffText(base, diffText string) (string, error) {
	dmp := diffmatchpatch.New()
	patches, err := dmp.PatchFromText(diffText)
	if err != nil {
		return "", errors.IntegrityErr("malformed diff patch text", err)
	}

	result, applied := dmp.PatchApply(patches, base)
	for _, ok := range applied {
		if !ok {
			return "", errors.IntegrityErr("diff hunk failed to apply cleanly", nil)
		}
	}
	return result, nil
}

// Reconstruct returns path's content as of versionID. It first looks for
// a directly-stored version (the common case: every version records its
// full content), then falls back to replaying the diff chain from the
// file's earliest known state.
func Reconstruct(s Store, path, versionID string) (string, error) {
	if v, ok, err := s.GetVersion(versionID); err != nil {
		return "", err
	} else if ok {
		return v.Content, nil
	}

	diffs, err := s.GetDiffsForPath(path)
	if err != nil {
		return "", err
	}
	sort.Slice(diffs, func(i, j int) bool { return diffs[i].Timestamp.Before(diffs[j].Timestamp) })

	content := ""
	for _, d := range diffs {
		content, err = ApplyDiffText(content, d.DiffText)
		if err != nil {
			return "", err
		}
		if d.CurrentVersionID == versionID {
			return content, nil
		}
	}

	return "", errors.IntegrityErr("version "+versionID+" not found in "+path+"'s history", nil)
}

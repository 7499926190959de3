package service

import "github.com/sergi/go-diff/diffmatchpatch"

// feedbackDiff renders a unified-style patch from before to after. Nil reads
// as empty.
func feedbackDiff(before, after *string) string {
	var a, b string
	if before != nil {
		a = *before
	}
	if after != nil {
		b = *after
	}
	if a == b {
		return ""
	}
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffCleanupSemantic(dmp.DiffMain(a, b, false))
	return dmp.PatchToText(dmp.PatchMake(a, diffs))
}

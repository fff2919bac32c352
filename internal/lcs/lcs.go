// Package lcs implements C6: the recursive-descent correlation engine
// that turns two ComparisonUnit arrays (Words and/or Groups) into a
// sequence of Equal/Deleted/Inserted CorrelatedSequences (§4.6). This is
// the pipeline's largest and most subtle stage.
package lcs

import (
	"github.com/vortex/docx-redline/internal/canon"
	"github.com/vortex/docx-redline/internal/cunit"
)

// Settings controls the thresholds the engine consults.
type Settings struct {
	// DetailThreshold is the minimum fraction (matched length / shorter
	// array length) a common prefix/suffix or hash-LCS match must reach
	// to be accepted (§4.6 step 1/3). Spec default 0.15.
	DetailThreshold float64

	// TrackFormattingChanges enables the post-pass that reclassifies an
	// adjacent Deleted+Inserted pair as FormatChanged when their text
	// content matches exactly and only run-properties differ (§4.6/§6.2
	// "track_formatting_changes"). A text atom's hash bakes in its
	// run-properties signature (§4.4), so formatting-only differences
	// never correlate as Equal in the first place; this pass is what
	// turns that into the dedicated FormatChanged status rather than
	// leaving it as a false replace.
	TrackFormattingChanges bool
	// Canon folds characters identically to how atomization folded them,
	// so the text-equality check this pass performs agrees with what
	// atomization already decided counted as "the same character".
	Canon canon.Options
}

// Correlate is the engine's entry point: a recursive descent that
// repeatedly narrows an Unknown span down to Equal/Deleted/Inserted
// leaves (§4.6 "the loop runs until no Unknown sequences remain").
func Correlate(left, right []*cunit.Unit, st Settings) []cunit.CorrelatedSequence {
	return mergeFormatChanges(correlate(left, right, st), st)
}

// mergeFormatChanges scans the final sequence list for an adjacent
// Deleted/Inserted pair (in either order) whose atom runs are
// character-for-character identical text with differing run-properties
// signatures, and collapses the pair into one FormatChanged sequence
// (§4.6: "a run's text content is Equal but its run-properties
// signature differs"). Applied once at the top level rather than inside
// every recursive call, since the pairing only makes sense once a
// residual span has already settled into its final Delete/Insert shape.
func mergeFormatChanges(seqs []cunit.CorrelatedSequence, st Settings) []cunit.CorrelatedSequence {
	if !st.TrackFormattingChanges {
		return seqs
	}
	out := make([]cunit.CorrelatedSequence, 0, len(seqs))
	for i := 0; i < len(seqs); i++ {
		if i+1 < len(seqs) {
			if merged, ok := tryMergeFormatChange(seqs[i], seqs[i+1], st); ok {
				out = append(out, merged)
				i++
				continue
			}
		}
		out = append(out, seqs[i])
	}
	return out
}

func tryMergeFormatChange(a, b cunit.CorrelatedSequence, st Settings) (cunit.CorrelatedSequence, bool) {
	var deleted, inserted cunit.CorrelatedSequence
	switch {
	case a.Status == cunit.StatusDeleted && b.Status == cunit.StatusInserted:
		deleted, inserted = a, b
	case a.Status == cunit.StatusInserted && b.Status == cunit.StatusDeleted:
		inserted, deleted = a, b
	default:
		return cunit.CorrelatedSequence{}, false
	}
	if !sameFoldedText(deleted.Left, inserted.Right, st) {
		return cunit.CorrelatedSequence{}, false
	}
	return cunit.CorrelatedSequence{Left: deleted.Left, Right: inserted.Right, Status: cunit.StatusFormatChanged}, true
}

// sameFoldedText reports whether left and right are both non-empty runs
// of plain-text atoms with matching folded characters but at least one
// differing run-properties signature. Anything involving a structural
// atom (paragraph mark, break, drawing, ...) is left alone: §4.8's
// formatting-change revision only ever wraps a run's own <w:rPr>.
func sameFoldedText(left, right []*cunit.Atom, st Settings) bool {
	if len(left) == 0 || len(right) == 0 || len(left) != len(right) {
		return false
	}
	sawDifferentFormatting := false
	for i := range left {
		if left[i].Kind != cunit.ContentChar || right[i].Kind != cunit.ContentChar {
			return false
		}
		if canon.FoldRune(left[i].Char, st.Canon) != canon.FoldRune(right[i].Char, st.Canon) {
			return false
		}
		if left[i].RunPropsSig != right[i].RunPropsSig {
			sawDifferentFormatting = true
		}
	}
	return sawDifferentFormatting
}

func correlate(left, right []*cunit.Unit, st Settings) []cunit.CorrelatedSequence {
	if len(left) == 0 && len(right) == 0 {
		return nil
	}
	if len(left) == 0 {
		return []cunit.CorrelatedSequence{{Right: flattenUnits(right), Status: cunit.StatusInserted}}
	}
	if len(right) == 0 {
		return []cunit.CorrelatedSequence{{Left: flattenUnits(left), Status: cunit.StatusDeleted}}
	}

	prefix := commonPrefix(left, right, st)
	suffix := commonSuffix(left[prefix:], right[prefix:], st)

	var out []cunit.CorrelatedSequence
	if prefix > 0 {
		out = append(out, equalSequence(left[:prefix], right[:prefix]))
	}

	midLeft := left[prefix : len(left)-suffix]
	midRight := right[prefix : len(right)-suffix]
	out = append(out, dispatch(midLeft, midRight, st)...)

	if suffix > 0 {
		out = append(out, equalSequence(left[len(left)-suffix:], right[len(right)-suffix:]))
	}
	return out
}

func equalSequence(left, right []*cunit.Unit) cunit.CorrelatedSequence {
	return cunit.CorrelatedSequence{Left: flattenUnits(left), Right: flattenUnits(right), Status: cunit.StatusEqual}
}

func flattenUnits(units []*cunit.Unit) []*cunit.Atom {
	var out []*cunit.Atom
	for _, u := range units {
		out = append(out, u.FlattenAtoms()...)
	}
	return out
}

// commonPrefix returns the length of the longest matching prefix
// satisfying the detail threshold and the paragraph-mark rule (§4.6 step
// 1): a match is rejected outright if its first unit is itself a
// paragraph mark, since claiming it would orphan nothing-preceding into
// a false Equal boundary; deeper recursion (hash-LCS) re-discovers the
// correct placement for such marks instead.
func commonPrefix(left, right []*cunit.Unit, st Settings) int {
	n := 0
	for n < len(left) && n < len(right) && left[n].CorrelatedSHA1() == right[n].CorrelatedSHA1() {
		n++
	}
	if n == 0 {
		return 0
	}
	if startsWithParagraphMark(left[0]) {
		return 0
	}
	if !meetsDetailThreshold(n, min(len(left), len(right)), st) {
		return 0
	}
	return n
}

// commonSuffix mirrors commonPrefix from the right edge.
func commonSuffix(left, right []*cunit.Unit, st Settings) int {
	n := 0
	for n < len(left) && n < len(right) &&
		left[len(left)-1-n].CorrelatedSHA1() == right[len(right)-1-n].CorrelatedSHA1() {
		n++
	}
	if n == 0 {
		return 0
	}
	if startsWithParagraphMark(left[len(left)-n]) {
		return 0
	}
	if !meetsDetailThreshold(n, min(len(left), len(right)), st) {
		return 0
	}
	return n
}

func meetsDetailThreshold(matched, shorterLen int, st Settings) bool {
	if shorterLen == 0 {
		return false
	}
	return float64(matched)/float64(shorterLen) >= st.DetailThreshold
}

func startsWithParagraphMark(u *cunit.Unit) bool {
	atoms := u.FlattenAtoms()
	return len(atoms) > 0 && atoms[0].IsParagraphMark()
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// dispatch implements §4.6 step 2's content-type table once prefix/suffix
// matching leaves a residual span with no further common edges.
func dispatch(left, right []*cunit.Unit, st Settings) []cunit.CorrelatedSequence {
	if len(left) == 0 && len(right) == 0 {
		return nil
	}
	if len(left) == 0 {
		return []cunit.CorrelatedSequence{{Right: flattenUnits(right), Status: cunit.StatusInserted}}
	}
	if len(right) == 0 {
		return []cunit.CorrelatedSequence{{Left: flattenUnits(left), Status: cunit.StatusDeleted}}
	}

	switch {
	case cunit.AllWords(left) && cunit.AllWords(right):
		return hashLCS(left, right, st)
	case containsKindAny(left, cunit.GroupTable) && containsKindAny(right, cunit.GroupTable):
		return correlateTables(left, right, st)
	case containsKindAny(left, cunit.GroupRow) && containsKindAny(right, cunit.GroupRow):
		return correlateByGroupPairing(left, right, st)
	case isMixed(left) || isMixed(right):
		return correlateByGroupPairing(left, right, st)
	case !cunit.AllWords(left) && !cunit.AllWords(right):
		return correlateByGroupPairing(left, right, st)
	default:
		return []cunit.CorrelatedSequence{
			{Left: flattenUnits(left), Status: cunit.StatusDeleted},
			{Right: flattenUnits(right), Status: cunit.StatusInserted},
		}
	}
}

func containsKindAny(units []*cunit.Unit, kind cunit.GroupKind) bool {
	for _, u := range units {
		if u.Tag == cunit.UnitGroup && u.ContainsKind(kind) {
			return true
		}
	}
	return false
}

func isMixed(units []*cunit.Unit) bool {
	sawWord, sawGroup := false, false
	for _, u := range units {
		if u.Tag == cunit.UnitWord {
			sawWord = true
		} else {
			sawGroup = true
		}
	}
	return sawWord && sawGroup
}

// correlateTables dispatches a residual span containing Table groups by
// forwarding it to correlateByGroupPairing: same-kind groups are paired
// by position and recursed into row by row and cell by cell. It does not
// compare structure_sha1 and does not look for merged cells, so two
// tables whose merged-cell layout differs are still paired and recursed
// rather than replaced by a whole-table Delete+Insert.
func correlateTables(left, right []*cunit.Unit, st Settings) []cunit.CorrelatedSequence {
	return correlateByGroupPairing(left, right, st)
}

// correlateByGroupPairing handles the Row/mixed branches, and spans that
// hold only Groups on both sides, by pairing like
// adjacent groups and recursing into their children, falling back to
// Delete+Insert for anything left over. It does not attempt a full
// positional LCS over heterogeneous Group kinds; within a single
// document pair's actual (small) residual span after prefix/suffix
// trimming this is normally just one or two groups per side.
func correlateByGroupPairing(left, right []*cunit.Unit, st Settings) []cunit.CorrelatedSequence {
	n := min(len(left), len(right))
	var out []cunit.CorrelatedSequence
	for i := 0; i < n; i++ {
		l, r := left[i], right[i]
		if l.Tag == cunit.UnitGroup && r.Tag == cunit.UnitGroup && l.Kind == r.Kind {
			out = append(out, correlate(l.Children, r.Children, st)...)
			continue
		}
		out = append(out, dispatch([]*cunit.Unit{l}, nil, st)...)
		out = append(out, dispatch(nil, []*cunit.Unit{r}, st)...)
	}
	if len(left) > n {
		out = append(out, cunit.CorrelatedSequence{Left: flattenUnits(left[n:]), Status: cunit.StatusDeleted})
	}
	if len(right) > n {
		out = append(out, cunit.CorrelatedSequence{Right: flattenUnits(right[n:]), Status: cunit.StatusInserted})
	}
	return out
}

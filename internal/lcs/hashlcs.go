package lcs

import "github.com/vortex/docx-redline/internal/cunit"

// hashLCS implements §4.6 step 3: find the longest contiguous run of
// matching correlated_sha1 hashes at any offset, reject it if it fails
// the paragraph-mark/single-character/word-break-only guards, then
// recurse on the spans before and after the accepted match. Those spans
// are passed on as they are; they are not extended or split at the next
// paragraph mark.
func hashLCS(left, right []*cunit.Unit, st Settings) []cunit.CorrelatedSequence {
	i1, i2, length := longestCommonRun(left, right)
	i1, i2, length = trimLeadingParagraphMarks(left, right, i1, i2, length)

	if length == 0 || !acceptableMatch(left, right, i1, i2, length, st) {
		return []cunit.CorrelatedSequence{
			{Left: flattenUnits(left), Status: cunit.StatusDeleted},
			{Right: flattenUnits(right), Status: cunit.StatusInserted},
		}
	}

	var out []cunit.CorrelatedSequence
	out = append(out, correlate(left[:i1], right[:i2], st)...)
	out = append(out, equalSequence(left[i1:i1+length], right[i2:i2+length]))
	out = append(out, correlate(left[i1+length:], right[i2+length:], st)...)
	return out
}

// longestCommonRun finds the longest contiguous matching run of
// correlated_sha1 hashes, using two rolling DP rows so memory stays
// O(len(right)) rather than O(len(left)*len(right))
// (§5: the engine must avoid O(n^2) memory for ~500K-atom documents).
func longestCommonRun(left, right []*cunit.Unit) (i1, i2, length int) {
	if len(left) == 0 || len(right) == 0 {
		return 0, 0, 0
	}
	prev := make([]int, len(right)+1)
	curr := make([]int, len(right)+1)
	best := 0
	bestI1, bestI2 := 0, 0
	for i := 1; i <= len(left); i++ {
		for j := 1; j <= len(right); j++ {
			if left[i-1].CorrelatedSHA1() == right[j-1].CorrelatedSHA1() {
				curr[j] = prev[j-1] + 1
				if curr[j] > best {
					best = curr[j]
					bestI1 = i - best
					bestI2 = j - best
				}
			} else {
				curr[j] = 0
			}
		}
		prev, curr = curr, prev
	}
	return bestI1, bestI2, best
}

// trimLeadingParagraphMarks shrinks a match from the front while its
// first unit is a paragraph mark (§4.6 step 1's rule, reapplied here
// since hash-LCS can land a match starting on one).
func trimLeadingParagraphMarks(left, right []*cunit.Unit, i1, i2, length int) (int, int, int) {
	for length > 0 && left[i1].FlattenAtoms()[0].IsParagraphMark() {
		i1++
		i2++
		length--
	}
	return i1, i2, length
}

// acceptableMatch applies the remaining §4.6 step 3 rejection rules:
// single-character/single-separator matches need the detail threshold,
// and a match consisting entirely of single-character Words is rejected
// unless it sits strictly inside both arrays (bordered by unmatched
// content on both sides, the closest approximation of "surrounded by
// matching context" available without a second matching pass). Any
// one-character Word counts, a one-letter word as much as a separator:
// Settings carries no separator set to tell them apart.
func acceptableMatch(left, right []*cunit.Unit, i1, i2, length int, st Settings) bool {
	if length == 0 {
		return false
	}
	shorter := min(len(left), len(right))
	if length == 1 && isTrivialWord(left[i1]) {
		return meetsDetailThreshold(length, shorter, st)
	}
	if allSeparatorWords(left[i1 : i1+length]) {
		return i1 > 0 && i2 > 0 && i1+length < len(left) && i2+length < len(right)
	}
	return true
}

func isTrivialWord(u *cunit.Unit) bool {
	atoms := u.FlattenAtoms()
	return len(atoms) == 1 && atoms[0].Kind == cunit.ContentChar
}

func allSeparatorWords(units []*cunit.Unit) bool {
	for _, u := range units {
		if !isTrivialWord(u) {
			return false
		}
	}
	return len(units) > 0
}

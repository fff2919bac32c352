package auxparts

import "github.com/beevik/etree"

// PreserveCommentRanges hoists any commentRangeStart/commentRangeEnd
// marker that ended up inside a <w:ins>/<w:del> wrapper back out to a
// bare sibling at the wrapper's position (§4.9: these markers "must be
// preserved in output even when their surrounding content is wholly
// inserted or deleted" — a comment's anchor must never itself appear
// inserted or deleted just because the text around it did).
func PreserveCommentRanges(tops []*etree.Element) []*etree.Element {
	for _, t := range tops {
		hoistCommentRanges(t)
	}
	return tops
}

func hoistCommentRanges(e *etree.Element) {
	for _, c := range e.ChildElements() {
		hoistCommentRanges(c)
	}
	if e.Tag != "ins" && e.Tag != "del" {
		return
	}
	parent := e.Parent()
	if parent == nil {
		return
	}
	idx := indexOfChild(parent, e)
	for _, run := range e.ChildElements() {
		if run.Tag != "r" {
			continue
		}
		for _, marker := range run.ChildElements() {
			if marker.Tag != "commentRangeStart" && marker.Tag != "commentRangeEnd" {
				continue
			}
			run.RemoveChild(marker)
			idx++
			parent.InsertChildAt(idx, marker)
		}
		if len(run.ChildElements()) == 0 {
			e.RemoveChild(run)
		}
	}
	if len(e.ChildElements()) == 0 {
		parent.RemoveChild(e)
	}
}

func indexOfChild(parent, child *etree.Element) int {
	for i, c := range parent.ChildElements() {
		if c == child {
			return i
		}
	}
	return -1
}

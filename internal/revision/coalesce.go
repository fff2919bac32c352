package revision

import "github.com/beevik/etree"

// noMergeContainers lists container tags whose children never coalesce
// across a sibling boundary even if their keys match, since each one is
// a distinct structural or field boundary (§4.8's "never merge across
// paragraph/table/row/cell/hyperlink/SDT/moveFrom/moveTo/field
// boundaries" rule, restated here as "treat every element inside one of
// these as un-mergeable with a sibling outside it" — satisfied for free
// by only ever coalescing direct children of the same parent, so a
// hyperlink/SDT/moveFrom/moveTo wrapper's contents are never compared
// against anything outside that wrapper in the first place).
var noMergeContainers = map[string]bool{
	"hyperlink": true,
	"sdt":       true,
	"moveFrom":  true,
	"moveTo":    true,
}

// Coalesce merges adjacent sibling elements describing the same edit
// (§4.8): consecutive bare <w:r> runs with identical rPr (an ordinary
// Equal/Equal seam reconstruction left split), consecutive <w:ins> with
// the same id/author/date/rPr (the asymmetric rule: distinct insert ids
// never merge), and consecutive <w:del> sharing author/date/rPr
// regardless of id (distinct delete ids may merge).
func Coalesce(tops []*etree.Element) []*etree.Element {
	for _, e := range tops {
		coalesceChildren(e)
	}
	return tops
}

func coalesceChildren(e *etree.Element) {
	for _, c := range e.ChildElements() {
		coalesceChildren(c)
	}
	if noMergeContainers[e.Tag] {
		return
	}

	children := e.ChildElements()
	var merged []*etree.Element
	for _, c := range children {
		if len(merged) > 0 {
			last := merged[len(merged)-1]
			if key, ok := mergeKey(last); ok {
				if otherKey, ok2 := mergeKey(c); ok2 && key == otherKey {
					mergeInto(last, c)
					e.RemoveChild(c)
					continue
				}
			}
		}
		merged = append(merged, c)
	}
}

// mergeKey returns the composite identity two adjacent siblings must
// share to coalesce, and whether e participates in coalescing at all
// (only bare runs and ins/del wrappers around a single run do).
func mergeKey(e *etree.Element) (string, bool) {
	switch e.Tag {
	case "r":
		if numberingChild(e) != nil {
			return "", false
		}
		return "eq|" + rPrSignature(e), true
	case "ins":
		run := singleRunChild(e)
		if run == nil || numberingChild(run) != nil {
			return "", false
		}
		id := e.SelectAttrValue("w:id", "")
		author := e.SelectAttrValue("w:author", "")
		date := e.SelectAttrValue("w:date", "")
		return "ins|" + id + "|" + author + "|" + date + "|" + rPrSignature(run), true
	case "del":
		run := singleRunChild(e)
		if run == nil || numberingChild(run) != nil {
			return "", false
		}
		author := e.SelectAttrValue("w:author", "")
		date := e.SelectAttrValue("w:date", "")
		return "del|" + author + "|" + date + "|" + rPrSignature(run), true
	default:
		return "", false
	}
}

// rPrSignature returns the canonical form of run's <w:rPr>, or the
// empty string if it carries none (an empty rPr and a missing rPr are
// treated as the same signature — both mean "default formatting").
func rPrSignature(run *etree.Element) string {
	rPr := childElement(run, "rPr")
	if rPr == nil {
		return ""
	}
	return canonicalXML(rPr)
}

func singleRunChild(e *etree.Element) *etree.Element {
	runs := e.ChildElements()
	if len(runs) != 1 || runs[0].Tag != "r" {
		return nil
	}
	return runs[0]
}

// numberingChild reports whether run carries list-numbering metadata
// (w:numPr lives in pPr, not rPr, but a run referencing a list-level
// style is left alone here too since merging it would risk collapsing
// two distinct list items' formatting into one run).
func numberingChild(run *etree.Element) *etree.Element {
	rPr := childElement(run, "rPr")
	if rPr == nil {
		return nil
	}
	return childElement(rPr, "numPr")
}

// mergeInto appends src's text content onto dst (both already verified
// by mergeKey to be the same kind of wrapper/run with identical
// properties) and discards src.
func mergeInto(dst, src *etree.Element) {
	dstRun := dst
	srcRun := src
	if dst.Tag == "ins" || dst.Tag == "del" {
		dstRun = singleRunChild(dst)
		srcRun = singleRunChild(src)
	}
	if dstRun == nil || srcRun == nil {
		return
	}
	for _, tag := range []string{"t", "delText"} {
		dstText := childElement(dstRun, tag)
		srcText := childElement(srcRun, tag)
		if srcText == nil {
			continue
		}
		if dstText == nil {
			dstRun.AddChild(srcText.Copy())
			continue
		}
		dstText.SetText(dstText.Text() + srcText.Text())
	}
}

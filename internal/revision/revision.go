// Package revision implements C8: turning the revStatus-tagged elements
// internal/reconstruct produces into real w:ins/w:del markup (or, for a
// uniformly-revised table row/cell, the trPr/tcPr property-based form),
// assigning revision IDs from a monotone counter, and coalescing
// adjacent revisions that describe the same edit (§4.7/§4.8).
package revision

import (
	"strconv"
	"strings"

	"github.com/beevik/etree"

	"github.com/vortex/docx-redline/internal/xmltree"
)

// Settings controls the author/date stamped on every emitted revision.
type Settings struct {
	Author string
	Date   string
}

// revStatus attribute names, matching internal/reconstruct's constants
// (kept as string literals here rather than an import, since neither
// package otherwise depends on the other's internals).
const (
	attrRevStatus   = "revStatus"
	attrRevFmtOther = "revFmtOther"
)

// Counter mints ascending revision IDs, shared across an entire
// Compare call so every w:ins/w:del/w:cellIns/w:cellDel/rPrChange in the
// output package gets a unique w:id (§4.7: "a process-wide monotone
// counter", not one counter per part).
type Counter struct{ next int }

// NewCounter starts numbering at start. redline.Compare seeds it from
// Settings.StartingID (§6.2's starting_id_for_footnotes_endnotes) and
// shares the one counter between the main document and the note parts.
func NewCounter(start int) *Counter { return &Counter{next: start} }

// Next returns the next unused ID.
func (c *Counter) Next() int {
	id := c.next
	c.next++
	return id
}

// Wrap walks a reconstructed element forest in place, replacing every
// revStatus-tagged run/paragraph with real revision markup and
// promoting a table row/cell whose entire content shares one status to
// the property-based form. It returns the same slice for convenience.
func Wrap(tops []*etree.Element, st Settings, ids *Counter) []*etree.Element {
	for _, e := range tops {
		wrapElement(e, st, ids)
	}
	return tops
}

func wrapElement(e *etree.Element, st Settings, ids *Counter) {
	for _, c := range e.ChildElements() {
		wrapElement(c, st, ids)
	}

	switch e.Tag {
	case "p":
		wrapParagraphMark(e, st, ids)
	case "tr":
		promoteContainer(e, "trPr", "ins", "del", st, ids)
	case "tc":
		promoteContainer(e, "tcPr", "cellIns", "cellDel", st, ids)
	}

	wrapChildRuns(e, st, ids)
}

// wrapChildRuns replaces each direct <w:r> child carrying a revStatus
// attribute with its wrapped form (w:ins/w:del around the run, or the
// run left in place with an appended w:rPrChange for a formatting-only
// change), in place in the parent's child list.
func wrapChildRuns(parent *etree.Element, st Settings, ids *Counter) {
	for _, r := range parent.ChildElements() {
		if r.Tag != "r" {
			continue
		}
		attr := r.SelectAttr(attrRevStatus)
		if attr == nil {
			continue
		}
		status := attr.Value
		r.RemoveAttr(attrRevStatus)
		switch status {
		case "ins":
			wrapRunInPlace(parent, r, "ins", st, ids)
		case "del":
			r.RemoveAttr(attrRevFmtOther)
			wrapRunInPlace(parent, r, "del", st, ids)
		case "fmt":
			other := r.SelectAttrValue(attrRevFmtOther, "")
			r.RemoveAttr(attrRevFmtOther)
			applyFormatChange(r, other, st, ids)
		}
	}
}

// wrapRunInPlace builds the <w:ins>/<w:del> wrapper around run and
// splices it into parent at run's original index, so the wrapper ends
// up exactly where the bare run used to sit.
func wrapRunInPlace(parent, run *etree.Element, kind string, st Settings, ids *Counter) {
	idx := indexOfChild(parent, run)
	wrapper := xmltree.NewElement("w:" + kind)
	setRevisionAttrs(wrapper, ids.Next(), st)
	parent.RemoveChild(run)
	wrapper.AddChild(run)
	if idx < 0 {
		parent.AddChild(wrapper)
		return
	}
	parent.InsertChildAt(idx, wrapper)
}

// applyFormatChange leaves content in place (it didn't change) and
// records the prior run-properties signature via a synthetic
// w:rPrChange marker. The marker carries only that hash, as a
// priorSignature attribute; no later step replaces it with the other
// side's actual <w:rPr> element.
func applyFormatChange(run *etree.Element, otherSig string, st Settings, ids *Counter) {
	rPr := childElement(run, "rPr")
	if rPr == nil {
		rPr = xmltree.NewElement("w:rPr")
		run.InsertChildAt(0, rPr)
	}
	change := xmltree.NewElement("w:rPrChange")
	setRevisionAttrs(change, ids.Next(), st)
	change.CreateAttr("priorSignature", otherSig)
	rPr.AddChild(change)
}

// wrapParagraphMark folds a <w:p>'s own revStatus (recorded by
// reconstruct on the element itself, since the paragraph mark isn't a
// run) into <w:pPr><w:rPr><w:ins|w:del/></w:rPr></w:pPr> (§4.7: the
// paragraph-mark revision lives in the paragraph's own rPr, inside its
// pPr, rather than wrapping the whole paragraph).
func wrapParagraphMark(p *etree.Element, st Settings, ids *Counter) {
	attr := p.SelectAttr(attrRevStatus)
	if attr == nil {
		return
	}
	status := attr.Value
	p.RemoveAttr(attrRevStatus)
	pPr := childElement(p, "pPr")
	if pPr == nil {
		pPr = xmltree.NewElement("w:pPr")
		p.InsertChildAt(0, pPr)
	}
	rPr := childElement(pPr, "rPr")
	if rPr == nil {
		rPr = xmltree.NewElement("w:rPr")
		pPr.AddChild(rPr)
	}
	marker := xmltree.NewElement("w:" + status)
	setRevisionAttrs(marker, ids.Next(), st)
	rPr.AddChild(marker)
}

// promoteContainer adds a trPr/w:ins|w:del or tcPr/w:cellIns|w:cellDel
// marker when every run inside e shares the same ins/del status (a
// whole row or cell was inserted or deleted, not just edited).
func promoteContainer(e *etree.Element, propTag, insTag, delTag string, st Settings, ids *Counter) {
	status, uniform := uniformRevisionStatus(e)
	if !uniform {
		return
	}
	prop := xmltree.NewElement("w:" + propTag)
	var marker *etree.Element
	switch status {
	case "ins":
		marker = xmltree.NewElement("w:" + insTag)
	case "del":
		marker = xmltree.NewElement("w:" + delTag)
	default:
		return
	}
	setRevisionAttrs(marker, ids.Next(), st)
	prop.AddChild(marker)
	e.InsertChildAt(0, prop)
}

// uniformRevisionStatus reports the single ins/del status shared by
// every wrapped run/marker under e, or ok=false if e contains any
// unrevised (Equal) content or a mix of insertions and deletions.
func uniformRevisionStatus(e *etree.Element) (status string, ok bool) {
	found := ""
	complete := true
	var walk func(*etree.Element)
	walk = func(n *etree.Element) {
		switch n.Tag {
		case "ins", "del":
			s := n.Tag
			if found == "" {
				found = s
			} else if found != s {
				complete = false
			}
			return // do not look inside a wrapper for bare runs
		case "r":
			complete = false // unwrapped run: equal content present
		default:
			for _, c := range n.ChildElements() {
				walk(c)
			}
		}
	}
	for _, c := range e.ChildElements() {
		walk(c)
	}
	if found == "" || !complete {
		return "", false
	}
	return found, true
}

func setRevisionAttrs(e *etree.Element, id int, st Settings) {
	e.CreateAttr("w:id", strconv.Itoa(id))
	e.CreateAttr("w:author", st.Author)
	e.CreateAttr("w:date", st.Date)
}

func childElement(e *etree.Element, local string) *etree.Element {
	for _, c := range e.ChildElements() {
		if c.Tag == local {
			return c
		}
	}
	return nil
}

func indexOfChild(parent, child *etree.Element) int {
	for i, c := range parent.ChildElements() {
		if c == child {
			return i
		}
	}
	return -1
}

// canonicalXML produces a deterministic string form of an element
// subtree for merge-key comparison (§4.8). Unlike internal/canon's
// hasher, these elements are freshly synthesized by internal/reconstruct
// and are not registered in any xmltree.Tree, so this works directly off
// *etree.Element instead of going through a Tree/NodeID pair.
func canonicalXML(e *etree.Element) string {
	var b strings.Builder
	writeCanonical(&b, e)
	return b.String()
}

func writeCanonical(b *strings.Builder, e *etree.Element) {
	b.WriteByte('<')
	b.WriteString(e.Tag)
	for _, a := range e.Attr {
		if a.Key == "id" || a.Key == "author" || a.Key == "date" {
			continue
		}
		b.WriteByte(' ')
		b.WriteString(a.FullKey())
		b.WriteString(`="`)
		b.WriteString(a.Value)
		b.WriteByte('"')
	}
	b.WriteByte('>')
	for _, c := range e.ChildElements() {
		writeCanonical(b, c)
	}
	b.WriteString("</")
	b.WriteString(e.Tag)
	b.WriteByte('>')
}

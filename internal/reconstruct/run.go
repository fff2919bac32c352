package reconstruct

import (
	"strings"
	"unicode"

	"github.com/beevik/etree"

	"github.com/vortex/docx-redline/internal/cunit"
	"github.com/vortex/docx-redline/internal/xmltree"
)

// runBuilder accumulates consecutive ContentChar atoms that share both
// correlation status and run-properties signature into a single <w:r>,
// the same coalescing §4.7 expects reconstruction to do at the leaf
// level (C8's revision coalescing pass handles merging *across* runs
// once they're wrapped; this is the finer-grained merge of characters
// back into runs in the first place).
type runBuilder struct {
	status  cunit.Status
	sig     string
	fmtOth  string
	rPr     *etree.Element
	text    strings.Builder
	deleted bool
}

func newRunBuilder(a *cunit.Atom) *runBuilder {
	rb := &runBuilder{status: a.Status, sig: a.RunPropsSig, fmtOth: a.FormatHashOther, deleted: a.Status == cunit.StatusDeleted}
	rb.rPr = originalRunProps(a)
	return rb
}

func (rb *runBuilder) accepts(a *cunit.Atom) bool {
	return a.Kind == cunit.ContentChar && a.Status == rb.status && a.RunPropsSig == rb.sig
}

func (rb *runBuilder) append(a *cunit.Atom) {
	rb.text.WriteRune(a.Char)
}

func (rb *runBuilder) build() *etree.Element {
	r := xmltree.NewElement("w:r")
	if rb.rPr != nil {
		r.AddChild(rb.rPr.Copy())
	}
	textTag := "w:t"
	if rb.deleted {
		textTag = "w:delText"
	}
	t := xmltree.NewElement(textTag)
	s := rb.text.String()
	t.SetText(s)
	if needsPreserve(s) {
		t.CreateAttr("xml:space", "preserve")
	}
	r.AddChild(t)
	switch rb.status {
	case cunit.StatusInserted:
		r.CreateAttr(attrRevStatus, statusIns)
	case cunit.StatusDeleted:
		r.CreateAttr(attrRevStatus, statusDel)
	case cunit.StatusFormatChanged:
		r.CreateAttr(attrRevStatus, statusFmtChanged)
		r.CreateAttr(attrRevFmtOther, rb.fmtOth)
	}
	return r
}

// needsPreserve reports whether a run's text needs xml:space="preserve"
// to round-trip its leading/trailing whitespace (§4.2/§9: Word XML
// readers collapse leading/trailing whitespace in <w:t> without it).
func needsPreserve(s string) bool {
	runes := []rune(s)
	if len(runes) == 0 {
		return false
	}
	return unicode.IsSpace(runes[0]) || unicode.IsSpace(runes[len(runes)-1])
}

// originalRunProps fetches the <w:rPr> of the <w:r> enclosing the
// <w:t> a text atom's Node refers to, so reconstruction preserves the
// run's formatting instead of emitting a bare, unstyled run.
func originalRunProps(a *cunit.Atom) *etree.Element {
	if a.Tree == nil {
		return nil
	}
	parent, ok, err := a.Tree.Parent(a.Node)
	if err != nil || !ok {
		return nil
	}
	runEl, err := a.Tree.Element(parent)
	if err != nil {
		return nil
	}
	return childElement(runEl, "rPr")
}

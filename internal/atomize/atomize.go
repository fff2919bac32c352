// Package atomize implements C4: walking a preprocessed document part and
// emitting one ComparisonUnitAtom per character, plus a fixed set of
// structural-marker atoms (paragraph marks, breaks, tabs, field
// boundaries, drawings, math/OLE objects, references).
package atomize

import (
	"github.com/vortex/docx-redline/internal/canon"
	"github.com/vortex/docx-redline/internal/cunit"
	"github.com/vortex/docx-redline/internal/preprocess"
	"github.com/vortex/docx-redline/internal/xmltree"
)

// opaqueObjectTags are trimmed from the walk: their internal XML is not
// WordprocessingML text and is hashed whole rather than atomized
// character-by-character (§4.4: "Math/OLE/other opaque object: hash of
// canonical XML").
var opaqueObjectTags = map[string]bool{
	"object":    true,
	"oMath":     true,
	"oMathPara": true,
	"pict":      true,
}

// Atomize walks part (a document body, or a footnote/endnote/comment/
// header/footer root) and returns its atoms in document order. t must
// already have had internal/preprocess.Run applied (UNIDs assigned,
// pre-existing revisions resolved).
func Atomize(t *xmltree.Tree, part cunit.Part, opt canon.Options) ([]*cunit.Atom, error) {
	root := t.Root()
	paragraphs, err := findParagraphs(t, root)
	if err != nil {
		return nil, err
	}

	var atoms []*cunit.Atom
	for _, p := range paragraphs {
		pAtoms, err := atomizeParagraph(t, p, part, opt)
		if err != nil {
			return nil, err
		}
		atoms = append(atoms, pAtoms...)
	}
	return atoms, nil
}

// findParagraphs returns every <w:p> under root, in document order,
// including ones nested inside tables and textbox content — reading
// order across those containers already matches the underlying XML's
// document order, so a single depth-first pass finds them correctly
// without needing to understand table/textbox structure specially.
func findParagraphs(t *xmltree.Tree, root xmltree.NodeID) ([]xmltree.NodeID, error) {
	descendants, err := t.Descendants(root)
	if err != nil {
		return nil, err
	}
	var out []xmltree.NodeID
	for _, id := range descendants {
		name, err := t.Name(id)
		if err != nil {
			return nil, err
		}
		if name.Local == "p" {
			out = append(out, id)
		}
	}
	return out, nil
}

// atomizeParagraph emits every atom belonging to one paragraph: its
// inline content in order, followed by its paragraph-mark atom. The
// inline walk stops at any nested <w:p> (found inside a drawing's
// textbox content) so that paragraph's atoms are produced by its own
// call to atomizeParagraph instead of being duplicated here.
func atomizeParagraph(t *xmltree.Tree, p xmltree.NodeID, part cunit.Part, opt canon.Options) ([]*cunit.Atom, error) {
	inline, err := t.DescendantsTrimmed(p, func(n xmltree.Name) bool {
		return n.Local == "p" || opaqueObjectTags[n.Local]
	})
	if err != nil {
		return nil, err
	}

	var atoms []*cunit.Atom
	for _, id := range inline {
		name, err := t.Name(id)
		if err != nil {
			return nil, err
		}
		a, err := atomsFor(t, id, name, part, opt)
		if err != nil {
			return nil, err
		}
		atoms = append(atoms, a...)
	}

	mark, err := paragraphMarkAtom(t, p, part, opt)
	if err != nil {
		return nil, err
	}
	atoms = append(atoms, mark)
	return atoms, nil
}

// atomsFor dispatches on an inline element's local name and returns the
// atoms it contributes (zero for pure containers like <w:r>, one for
// most structural markers including the <w:hyperlink> boundary,
// one-per-character for text).
func atomsFor(t *xmltree.Tree, id xmltree.NodeID, name xmltree.Name, part cunit.Part, opt canon.Options) ([]*cunit.Atom, error) {
	switch name.Local {
	case "t":
		return textAtoms(t, id, part, opt)
	case "br":
		kind, _, err := t.Attr(id, "w:type")
		if err != nil {
			return nil, err
		}
		if kind == "page" || kind == "column" {
			return nil, nil
		}
		return []*cunit.Atom{newStructuralAtom(t, id, part, cunit.ContentBreak, '\n', opt)}, nil
	case "cr":
		return []*cunit.Atom{newStructuralAtom(t, id, part, cunit.ContentBreak, '\n', opt)}, nil
	case "tab", "ptab":
		return []*cunit.Atom{newStructuralAtom(t, id, part, cunit.ContentTab, '\t', opt)}, nil
	case "noBreakHyphen":
		return []*cunit.Atom{newStructuralAtom(t, id, part, cunit.ContentChar, '-', opt)}, nil
	case "fldChar":
		kind, _, err := t.Attr(id, "w:fldCharType")
		if err != nil {
			return nil, err
		}
		var fk cunit.ContentKind
		switch kind {
		case "begin":
			fk = cunit.ContentFieldBegin
		case "separate":
			fk = cunit.ContentFieldSeparate
		case "end":
			fk = cunit.ContentFieldEnd
		default:
			return nil, nil
		}
		return []*cunit.Atom{newStructuralAtom(t, id, part, fk, 0, opt)}, nil
	case "drawing":
		return []*cunit.Atom{newStructuralAtom(t, id, part, cunit.ContentDrawing, 0, opt)}, nil
	case "object", "oMath", "oMathPara", "pict":
		return []*cunit.Atom{newStructuralAtom(t, id, part, cunit.ContentMathOrOLE, 0, opt)}, nil
	case "footnoteReference", "endnoteReference", "commentReference":
		return []*cunit.Atom{newStructuralAtom(t, id, part, cunit.ContentReference, 0, opt)}, nil
	case "commentRangeStart":
		return []*cunit.Atom{newStructuralAtom(t, id, part, cunit.ContentCommentRangeStart, 0, opt)}, nil
	case "commentRangeEnd":
		return []*cunit.Atom{newStructuralAtom(t, id, part, cunit.ContentCommentRangeEnd, 0, opt)}, nil
	case "hyperlink":
		return []*cunit.Atom{newStructuralAtom(t, id, part, cunit.ContentHyperlinkBoundary, 0, opt)}, nil
	default:
		return nil, nil
	}
}

// textAtoms emits one ContentChar atom per rune of a <w:t>'s text,
// hashed on (character, run-properties-signature) per §4.4.
func textAtoms(t *xmltree.Tree, id xmltree.NodeID, part cunit.Part, opt canon.Options) ([]*cunit.Atom, error) {
	text, err := t.Text(id)
	if err != nil {
		return nil, err
	}
	sig, err := runPropsSignature(t, id, opt)
	if err != nil {
		return nil, err
	}
	ancestors, err := ancestorChain(t, id)
	if err != nil {
		return nil, err
	}

	atoms := make([]*cunit.Atom, 0, len(text))
	for _, r := range text {
		folded := canon.FoldRune(r, opt)
		a := &cunit.Atom{
			Kind:        cunit.ContentChar,
			Char:        r,
			Node:        id,
			Tree:        t,
			Ancestors:   ancestors,
			Part:        part,
			RunPropsSig: sig,
		}
		a.SetHash(canon.HashString(string(folded) + "|" + sig))
		atoms = append(atoms, a)
	}
	return atoms, nil
}

func newStructuralAtom(t *xmltree.Tree, id xmltree.NodeID, part cunit.Part, kind cunit.ContentKind, char rune, opt canon.Options) *cunit.Atom {
	ancestors, _ := ancestorChain(t, id)
	hash, _ := canon.HashElement(t, id, opt)
	a := &cunit.Atom{
		Kind:      kind,
		Char:      char,
		Node:      id,
		Tree:      t,
		Ancestors: ancestors,
		Part:      part,
	}
	a.SetHash(hash)
	return a
}

// paragraphMarkAtom builds the synthetic atom representing a paragraph's
// terminator, hashed on the paragraph's properties element (§4.4).
func paragraphMarkAtom(t *xmltree.Tree, p xmltree.NodeID, part cunit.Part, opt canon.Options) (*cunit.Atom, error) {
	ancestors, err := ancestorChain(t, p)
	if err != nil {
		return nil, err
	}
	pPr, ok, err := childNamed(t, p, "pPr")
	if err != nil {
		return nil, err
	}
	var hash string
	if ok {
		hash, err = canon.HashElement(t, pPr, opt)
		if err != nil {
			return nil, err
		}
	} else {
		hash = canon.HashString("")
	}
	a := &cunit.Atom{
		Kind:      cunit.ContentParagraphMark,
		Node:      p,
		Tree:      t,
		Ancestors: ancestors,
		Part:      part,
	}
	a.SetHash(hash)
	return a, nil
}

// runPropsSignature returns the canonical hash of the <w:rPr> of the
// <w:r> enclosing a <w:t>, or the empty-string hash if the run carries
// no properties (or id's parent isn't a run, as for <w:t> standing
// outside any <w:r> on a permissively-parsed document).
func runPropsSignature(t *xmltree.Tree, textID xmltree.NodeID, opt canon.Options) (string, error) {
	parent, ok, err := t.Parent(textID)
	if err != nil || !ok {
		return canon.HashString(""), err
	}
	rPr, ok, err := childNamed(t, parent, "rPr")
	if err != nil {
		return "", err
	}
	if !ok {
		return canon.HashString(""), nil
	}
	return canon.HashElement(t, rPr, opt)
}

func childNamed(t *xmltree.Tree, parent xmltree.NodeID, local string) (xmltree.NodeID, bool, error) {
	children, err := t.Children(parent)
	if err != nil {
		return 0, false, err
	}
	for _, c := range children {
		name, err := t.Name(c)
		if err != nil {
			return 0, false, err
		}
		if name.Local == local {
			return c, true, nil
		}
	}
	return 0, false, nil
}

// ancestorChain walks up from id to the document root, collecting every
// grouping-container ancestor's (name, UNID, node), nearest first — the
// leaf-to-root order cunit.Atom.Ancestors expects.
func ancestorChain(t *xmltree.Tree, id xmltree.NodeID) ([]cunit.Ancestor, error) {
	var chain []cunit.Ancestor
	cur, ok, err := t.Parent(id)
	for ok {
		if err != nil {
			return nil, err
		}
		name, err := t.Name(cur)
		if err != nil {
			return nil, err
		}
		if preprocess.IsGroupingContainer(name) {
			unid, err := preprocess.UNIDOf(t, cur)
			if err != nil {
				return nil, err
			}
			chain = append(chain, cunit.Ancestor{Name: name, UNID: unid, Node: cur})
		}
		cur, ok, err = t.Parent(cur)
		if err != nil {
			return nil, err
		}
	}
	return chain, nil
}

package auxparts

import (
	"bytes"
	"fmt"

	"github.com/beevik/etree"

	"github.com/vortex/docx-redline/internal/atomize"
	"github.com/vortex/docx-redline/internal/cunit"
	"github.com/vortex/docx-redline/internal/group"
	"github.com/vortex/docx-redline/internal/lcs"
	"github.com/vortex/docx-redline/internal/preprocess"
	"github.com/vortex/docx-redline/internal/reconstruct"
	"github.com/vortex/docx-redline/internal/revision"
	"github.com/vortex/docx-redline/internal/xmltree"
)

const procInst = `version="1.0" encoding="UTF-8" standalone="yes"`

// NoteKind names one of the two auxiliary parts that carry per-reference
// content (§1's word/footnotes.xml and word/endnotes.xml).
type NoteKind struct {
	RootTag string // "footnotes" or "endnotes"
	NoteTag string // "footnote" or "endnote"
	Part    cunit.Part
}

var (
	Footnotes = NoteKind{RootTag: "footnotes", NoteTag: "footnote", Part: cunit.PartFootnote}
	Endnotes  = NoteKind{RootTag: "endnotes", NoteTag: "endnote", Part: cunit.PartEndnote}
)

// CompareNotesPart rebuilds a footnotes.xml/endnotes.xml part from both
// inputs' raw bytes and the reference Diff already computed from the
// main document's atoms (§4.9): every matched ID is compared in
// isolation through the full C4-C8 pipeline, every modified-only ID
// becomes a wholly-inserted note, and every original-only ID is dropped
// (its footnoteReference atom was itself deleted in the main text, so
// §4.9 calls for removing the note rather than emitting a phantom
// deleted one). Any note id outside the reference set entirely (the
// separator/continuationSeparator definitions Word requires) is copied
// verbatim from the modified part, since comparing those is meaningless.
func CompareNotesPart(originalXML, modifiedXML []byte, kind NoteKind, refs Diff, ids *revision.Counter, st Settings) ([]byte, error) {
	originalTree, err := xmltree.Parse(originalXML)
	if err != nil {
		return nil, fmt.Errorf("auxparts: parse original %s: %w", kind.RootTag, err)
	}
	modifiedTree, err := xmltree.Parse(modifiedXML)
	if err != nil {
		return nil, fmt.Errorf("auxparts: parse modified %s: %w", kind.RootTag, err)
	}

	referenced := make(map[string]bool, len(refs.Matched)+len(refs.ModifiedOnly))
	for _, r := range refs.Matched {
		referenced[r.ID] = true
	}
	for _, r := range refs.ModifiedOnly {
		referenced[r.ID] = true
	}

	out := xmltree.NewElement("w:" + kind.RootTag)

	for _, ref := range refs.Matched {
		leftNote, ok, err := findNote(originalTree, kind.NoteTag, ref.ID)
		if err != nil {
			return nil, err
		}
		rightNote, ok2, err := findNote(modifiedTree, kind.NoteTag, ref.ID)
		if err != nil {
			return nil, err
		}
		if !ok || !ok2 {
			continue // reference existed but its note body is missing: nothing to compare
		}
		tops, err := compareNoteBodies(originalTree, leftNote, modifiedTree, rightNote, kind.Part, st)
		if err != nil {
			return nil, err
		}
		revision.Wrap(tops, st.Revision, ids)
		revision.Coalesce(tops)
		PreserveCommentRanges(tops)
		out.AddChild(buildNote(kind.NoteTag, ref.ID, tops))
	}

	for _, ref := range refs.ModifiedOnly {
		rightNote, ok, err := findNote(modifiedTree, kind.NoteTag, ref.ID)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		tops, err := oneSidedNoteBody(modifiedTree, rightNote, kind.Part, cunit.StatusInserted, st)
		if err != nil {
			return nil, err
		}
		revision.Wrap(tops, st.Revision, ids)
		revision.Coalesce(tops)
		PreserveCommentRanges(tops)
		out.AddChild(buildNote(kind.NoteTag, ref.ID, tops))
	}

	// Separator/continuationSeparator notes and anything else never
	// referenced by a footnoteReference/endnoteReference atom pass
	// through untouched from the modified part.
	children, err := modifiedTree.Children(modifiedTree.Root())
	if err != nil {
		return nil, err
	}
	for _, id := range children {
		name, err := modifiedTree.Name(id)
		if err != nil || name.Local != kind.NoteTag {
			continue
		}
		noteID, ok, err := modifiedTree.Attr(id, "w:id")
		if err != nil {
			return nil, err
		}
		if ok && referenced[noteID] {
			continue
		}
		el, err := modifiedTree.Element(id)
		if err != nil {
			return nil, err
		}
		out.AddChild(el.Copy())
	}

	return serializePart(out)
}

func findNote(t *xmltree.Tree, noteTag, id string) (xmltree.NodeID, bool, error) {
	children, err := t.Children(t.Root())
	if err != nil {
		return 0, false, err
	}
	for _, c := range children {
		name, err := t.Name(c)
		if err != nil {
			return 0, false, err
		}
		if name.Local != noteTag {
			continue
		}
		noteID, ok, err := t.Attr(c, "w:id")
		if err != nil {
			return 0, false, err
		}
		if ok && noteID == id {
			return c, true, nil
		}
	}
	return 0, false, nil
}

// compareNoteBodies runs the C3-C7 pipeline between two note
// subtrees, each reparsed into its own independent Tree (a footnote or
// endnote element is itself a grouping container, so isolating it as a
// comparison root works exactly like the main document body's).
func compareNoteBodies(leftTree *xmltree.Tree, leftNote xmltree.NodeID, rightTree *xmltree.Tree, rightNote xmltree.NodeID, part cunit.Part, st Settings) ([]*etree.Element, error) {
	leftSub, err := subtreeOf(leftTree, leftNote)
	if err != nil {
		return nil, err
	}
	rightSub, err := subtreeOf(rightTree, rightNote)
	if err != nil {
		return nil, err
	}

	if err := preprocess.Run(leftSub, preprocess.NewUNIDCounter(), st.Canon); err != nil {
		return nil, err
	}
	if err := preprocess.Run(rightSub, preprocess.NewUNIDCounter(), st.Canon); err != nil {
		return nil, err
	}

	leftAtoms, err := atomize.Atomize(leftSub, part, st.Canon)
	if err != nil {
		return nil, err
	}
	rightAtoms, err := atomize.Atomize(rightSub, part, st.Canon)
	if err != nil {
		return nil, err
	}

	leftGroups := group.Groups(group.Words(leftAtoms, group.DefaultConfig()))
	rightGroups := group.Groups(group.Words(rightAtoms, group.DefaultConfig()))

	seqs := lcs.Correlate(leftGroups, rightGroups, st.LCS)
	return reconstruct.Build(reconstruct.Flatten(seqs)), nil
}

// oneSidedNoteBody atomizes a note present on only one side and stamps
// every atom with a single status, so it reconstructs as a wholly
// inserted (or, in principle, wholly deleted) note body.
func oneSidedNoteBody(t *xmltree.Tree, note xmltree.NodeID, part cunit.Part, status cunit.Status, st Settings) ([]*etree.Element, error) {
	sub, err := subtreeOf(t, note)
	if err != nil {
		return nil, err
	}
	if err := preprocess.Run(sub, preprocess.NewUNIDCounter(), st.Canon); err != nil {
		return nil, err
	}
	atoms, err := atomize.Atomize(sub, part, st.Canon)
	if err != nil {
		return nil, err
	}
	groups := group.Groups(group.Words(atoms, group.DefaultConfig()))

	var flat []*cunit.Atom
	for _, g := range groups {
		flat = append(flat, g.FlattenAtoms()...)
	}
	seq := cunit.CorrelatedSequence{Status: status}
	if status == cunit.StatusInserted {
		seq.Right = flat
	} else {
		seq.Left = flat
	}
	return reconstruct.Build(reconstruct.Flatten([]cunit.CorrelatedSequence{seq})), nil
}

// subtreeOf reparses note's serialized bytes into an independent Tree,
// since atomize.Atomize always atomizes from a Tree's own root.
func subtreeOf(t *xmltree.Tree, note xmltree.NodeID) (*xmltree.Tree, error) {
	raw, err := t.Serialize(note)
	if err != nil {
		return nil, err
	}
	return xmltree.Parse(raw)
}

// serializePart renders a freshly synthesized root element (never
// registered in any xmltree.Tree) into a standalone OOXML part document,
// mirroring xmltree.Tree.SerializeDocument's settings.
func serializePart(root *etree.Element) ([]byte, error) {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", procInst)
	doc.WriteSettings.CanonicalEndTags = true
	doc.SetRoot(root)
	var buf bytes.Buffer
	if _, err := doc.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("auxparts: serialize part: %w", err)
	}
	return buf.Bytes(), nil
}

func buildNote(noteTag, id string, tops []*etree.Element) *etree.Element {
	note := xmltree.NewElement("w:" + noteTag)
	note.CreateAttr("w:id", id)
	for _, t := range tops {
		note.AddChild(t)
	}
	return note
}

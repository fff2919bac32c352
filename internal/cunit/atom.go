// Package cunit holds the §3 data model shared by every pipeline stage:
// ComparisonUnitAtom, the Word/Group ComparisonUnit variant, and
// CorrelatedSequence. These types cross package boundaries constantly
// (C4 produces atoms, C5 groups them, C6 correlates groups, C7 consumes
// the correlated atom stream) so they live in one place rather than
// being redeclared per stage.
package cunit

import "github.com/vortex/docx-redline/internal/xmltree"

// Part identifies which document part an atom originated from (§3).
type Part int

const (
	PartMain Part = iota
	PartFootnote
	PartEndnote
	PartHeader
	PartFooter
	PartComment
)

func (p Part) String() string {
	switch p {
	case PartMain:
		return "main"
	case PartFootnote:
		return "footnote"
	case PartEndnote:
		return "endnote"
	case PartHeader:
		return "header"
	case PartFooter:
		return "footer"
	case PartComment:
		return "comment"
	default:
		return "unknown"
	}
}

// Status is the correlation status attached to an atom or sequence of
// atoms once LCS has processed it (§3, Glossary).
type Status int

const (
	StatusUnknown Status = iota
	StatusEqual
	StatusDeleted
	StatusInserted
	StatusFormatChanged
)

func (s Status) String() string {
	switch s {
	case StatusEqual:
		return "Equal"
	case StatusDeleted:
		return "Deleted"
	case StatusInserted:
		return "Inserted"
	case StatusFormatChanged:
		return "FormatChanged"
	default:
		return "Unknown"
	}
}

// ContentKind distinguishes the synthetic content an atom represents,
// beyond plain text, so reconstruction (C7) and revision wrapping (C8)
// know how to re-materialize it.
type ContentKind int

const (
	ContentChar ContentKind = iota // one text character
	ContentParagraphMark
	ContentBreak
	ContentTab
	ContentFieldBegin
	ContentFieldSeparate
	ContentFieldEnd
	ContentDrawing
	ContentMathOrOLE
	ContentReference // footnoteReference / endnoteReference
	ContentCommentRangeStart
	ContentCommentRangeEnd
	ContentHyperlinkBoundary
)

// Ancestor is one link in an atom's ancestor chain: the enclosing
// container's qualified name, paired with the UNID minted for it during
// preprocessing (§3: ancestor_elements / ancestor_unids, kept as
// parallel slices in the original design — bundled here as one slice of
// pairs since they are never indexed independently in this codebase).
type Ancestor struct {
	Name xmltree.Name
	UNID int64
	// Node is the NodeID of the container element within its Tree. It is
	// retained so C7 can fetch the original element for property
	// preservation without a second UNID->NodeID lookup table.
	Node xmltree.NodeID
}

// Atom is a ComparisonUnitAtom (§3): the indivisible character-grained
// comparison unit.
type Atom struct {
	// Kind distinguishes plain text from structural markers.
	Kind ContentKind
	// Char is the literal character for Kind==ContentChar.
	Char rune
	// Node is the backing XML node (the w:t element itself for text, or
	// the structural element itself for markers).
	Node xmltree.NodeID
	// Tree is the source document tree this atom's Node lives in. Both
	// input documents are atomized into the same logical pipeline, so
	// atoms must carry their own tree reference rather than assume a
	// shared one.
	Tree *xmltree.Tree
	// Ancestors is the ordered chain from the nearest grouping boundary
	// upward (root-to-leaf order is reversed at call sites as needed;
	// stored leaf-to-root here to match how atomization discovers them).
	Ancestors []Ancestor
	// Status is this atom's correlation status; starts Unknown.
	Status Status
	// Part identifies the owning document part.
	Part Part
	// RunPropsSig is the run-properties canonical signature used as half
	// of the text-atom hash key (§4.4).
	RunPropsSig string
	// hash is set once at construction via SetHash; see Hash().
	hash string
	// FormatHashOther holds the *other* side's run-properties signature
	// when Status==FormatChanged, so C8 can emit rPrChange/old rPr.
	FormatHashOther string
}

// UNIDAt returns the UNID recorded at ancestor depth level (0 = nearest
// enclosing container), and whether that depth exists.
func (a *Atom) UNIDAt(level int) (int64, bool) {
	if level < 0 || level >= len(a.Ancestors) {
		return 0, false
	}
	return a.Ancestors[level].UNID, true
}

// IsParagraphMark reports whether this atom is the paragraph-mark atom
// terminating a paragraph.
func (a *Atom) IsParagraphMark() bool { return a.Kind == ContentParagraphMark }

// SetHash caches a precomputed content hash (assigned by atomize once,
// per the "cached_sha1" field in §3).
func (a *Atom) SetHash(h string) { a.hash = h }

// Hash returns the atom's cached content hash. Atomization is
// responsible for populating it; an empty string indicates a
// programmer error upstream (every atom must be hashed at creation).
func (a *Atom) Hash() string { return a.hash }

package cunit

import (
	"github.com/vortex/docx-redline/internal/canon"
	"github.com/vortex/docx-redline/internal/xmltree"
)

// GroupKind enumerates the fixed set of container types a Group can
// represent (§4.5 / §9: dynamic dispatch is unnecessary, the variants
// are fixed).
type GroupKind int

const (
	GroupParagraph GroupKind = iota
	GroupRow
	GroupCell
	GroupTable
	GroupTextbox
)

func (k GroupKind) String() string {
	switch k {
	case GroupParagraph:
		return "Paragraph"
	case GroupRow:
		return "Row"
	case GroupCell:
		return "Cell"
	case GroupTable:
		return "Table"
	case GroupTextbox:
		return "Textbox"
	default:
		return "Group"
	}
}

// UnitTag discriminates the ComparisonUnit variant (§3: Word vs Group).
type UnitTag int

const (
	UnitWord UnitTag = iota
	UnitGroup
)

// Unit is the tagged ComparisonUnit variant. Exactly one of the
// Word-only or Group-only fields is meaningful, selected by Tag.
type Unit struct {
	Tag UnitTag

	// --- Word fields ---
	Atoms []*Atom // ordered atoms bounded by word-separator characters

	// --- Group fields ---
	Kind     GroupKind
	Children []*Unit // child Words (leaf groups) or child Groups
	UNID     int64
	Node     xmltree.NodeID
	Tree     *xmltree.Tree

	// correlatedSHA1 is an ordered hash of child hashes, ignoring
	// ancestor positioning (§3).
	correlatedSHA1 string
	// structureSHA1 is an ordered hash of container names/arities only,
	// used by the table branch for merged-cell detection (§4.5/§4.6).
	structureSHA1 string
}

// NewWord builds a leaf Word unit from its bounding atoms and computes
// its correlated_sha1 eagerly (Words are the leaves LCS hashes most
// often, so there is no benefit to laziness here).
func NewWord(atoms []*Atom) *Unit {
	u := &Unit{Tag: UnitWord, Atoms: atoms}
	hashes := make([]string, len(atoms))
	for i, a := range atoms {
		hashes[i] = a.Hash()
	}
	u.correlatedSHA1 = canon.HashOrdered(hashes)
	u.structureSHA1 = canon.HashString("Word")
	return u
}

// NewGroup builds a Group unit from its children and UNID, computing
// both hashes from the children (§4.5: every Group carries
// correlated_sha1 and structure_sha1).
func NewGroup(kind GroupKind, unid int64, children []*Unit) *Unit {
	g := &Unit{Tag: UnitGroup, Kind: kind, UNID: unid, Children: children}
	corrHashes := make([]string, len(children))
	structHashes := make([]string, len(children))
	for i, c := range children {
		corrHashes[i] = c.CorrelatedSHA1()
		structHashes[i] = c.StructureSHA1()
	}
	g.correlatedSHA1 = canon.HashOrdered(corrHashes)
	g.structureSHA1 = canon.HashOrdered([]string{kind.String(), canon.HashOrdered(structHashes)})
	return g
}

// CorrelatedSHA1 returns the content hash used as the primary LCS key.
func (u *Unit) CorrelatedSHA1() string { return u.correlatedSHA1 }

// StructureSHA1 returns the structural-skeleton hash used by the table
// branch's merged-cell handling (§4.6 step 4).
func (u *Unit) StructureSHA1() string { return u.structureSHA1 }

// FlattenAtoms returns every atom reachable from u, in document order.
// Used whenever a stage needs the flat character stream under a Unit
// (e.g. the generic word-level fallback, or building final output).
func (u *Unit) FlattenAtoms() []*Atom {
	if u.Tag == UnitWord {
		out := make([]*Atom, len(u.Atoms))
		copy(out, u.Atoms)
		return out
	}
	var out []*Atom
	for _, c := range u.Children {
		out = append(out, c.FlattenAtoms()...)
	}
	return out
}

// EndsWithParagraphMark reports whether the last atom reachable from u
// is a paragraph-mark atom (used by the paragraph-mark priority rule in
// §4.6 step 2).
func (u *Unit) EndsWithParagraphMark() bool {
	atoms := u.FlattenAtoms()
	if len(atoms) == 0 {
		return false
	}
	return atoms[len(atoms)-1].IsParagraphMark()
}

// ContainsKind reports whether any descendant Group has the given kind
// (used for content-type dispatch in §4.6 step 2: "contains Rows",
// "contains Table").
func (u *Unit) ContainsKind(kind GroupKind) bool {
	if u.Tag == UnitWord {
		return false
	}
	if u.Kind == kind {
		return true
	}
	for _, c := range u.Children {
		if c.Tag == UnitGroup && c.ContainsKind(kind) {
			return true
		}
	}
	return false
}

// AllWords reports whether every element of units is a Word (no Groups),
// the first branch condition of §4.6 step 2's dispatch table.
func AllWords(units []*Unit) bool {
	for _, u := range units {
		if u.Tag != UnitWord {
			return false
		}
	}
	return len(units) > 0
}

// Status is the CorrelatedSequence.status (§3); reuses the atom Status
// enum. internal/lcs emits Equal, Deleted and Inserted sequences, and its
// mergeFormatChanges pass turns an adjacent Deleted/Inserted pair with
// identical text into one FormatChanged sequence.
type CorrelatedSequence struct {
	Left   []*Atom
	Right  []*Atom
	Status Status
}

package cunit

import "testing"

func charAtom(r rune, hash string) *Atom {
	a := &Atom{Kind: ContentChar, Char: r}
	a.SetHash(hash)
	return a
}

func TestNewWord_ComputesCorrelatedHashFromAtoms(t *testing.T) {
	w1 := NewWord([]*Atom{charAtom('h', "h1"), charAtom('i', "h2")})
	w2 := NewWord([]*Atom{charAtom('h', "h1"), charAtom('i', "h2")})
	if w1.CorrelatedSHA1() != w2.CorrelatedSHA1() {
		t.Errorf("identical atom sequences produced different Word hashes")
	}

	w3 := NewWord([]*Atom{charAtom('b', "h3"), charAtom('i', "h2")})
	if w1.CorrelatedSHA1() == w3.CorrelatedSHA1() {
		t.Errorf("different atom sequences produced the same Word hash")
	}
}

func TestNewGroup_HashesDependOnChildOrder(t *testing.T) {
	w1 := NewWord([]*Atom{charAtom('a', "ha")})
	w2 := NewWord([]*Atom{charAtom('b', "hb")})

	g1 := NewGroup(GroupParagraph, 1, []*Unit{w1, w2})
	g2 := NewGroup(GroupParagraph, 2, []*Unit{w2, w1})
	if g1.CorrelatedSHA1() == g2.CorrelatedSHA1() {
		t.Errorf("reordered children produced the same correlated hash")
	}
}

func TestNewGroup_StructureHashDependsOnKind(t *testing.T) {
	w1 := NewWord([]*Atom{charAtom('a', "ha")})
	gPara := NewGroup(GroupParagraph, 1, []*Unit{w1})
	gRow := NewGroup(GroupRow, 1, []*Unit{w1})
	if gPara.StructureSHA1() == gRow.StructureSHA1() {
		t.Errorf("different GroupKinds produced the same structure hash")
	}
}

func TestFlattenAtoms_GathersLeavesInOrder(t *testing.T) {
	w1 := NewWord([]*Atom{charAtom('a', "ha")})
	w2 := NewWord([]*Atom{charAtom('b', "hb"), charAtom('c', "hc")})
	g := NewGroup(GroupParagraph, 1, []*Unit{w1, w2})

	atoms := g.FlattenAtoms()
	if len(atoms) != 3 {
		t.Fatalf("got %d atoms, want 3", len(atoms))
	}
	want := []rune{'a', 'b', 'c'}
	for i, a := range atoms {
		if a.Char != want[i] {
			t.Errorf("atom %d = %q, want %q", i, a.Char, want[i])
		}
	}
}

func TestEndsWithParagraphMark(t *testing.T) {
	w := NewWord([]*Atom{charAtom('a', "ha")})
	mark := NewWord([]*Atom{{Kind: ContentParagraphMark}})
	g := NewGroup(GroupParagraph, 1, []*Unit{w, mark})
	if !g.EndsWithParagraphMark() {
		t.Errorf("EndsWithParagraphMark() = false, want true")
	}

	gNoMark := NewGroup(GroupParagraph, 2, []*Unit{w})
	if gNoMark.EndsWithParagraphMark() {
		t.Errorf("EndsWithParagraphMark() = true for a group with no mark")
	}
}

func TestContainsKind(t *testing.T) {
	w := NewWord([]*Atom{charAtom('a', "ha")})
	cell := NewGroup(GroupCell, 1, []*Unit{w})
	row := NewGroup(GroupRow, 2, []*Unit{cell})
	table := NewGroup(GroupTable, 3, []*Unit{row})

	if !table.ContainsKind(GroupRow) {
		t.Errorf("ContainsKind(GroupRow) = false, want true")
	}
	if !table.ContainsKind(GroupCell) {
		t.Errorf("ContainsKind(GroupCell) = false, want true")
	}
	if table.ContainsKind(GroupTextbox) {
		t.Errorf("ContainsKind(GroupTextbox) = true, want false")
	}
}

func TestAllWords(t *testing.T) {
	w1 := NewWord([]*Atom{charAtom('a', "ha")})
	w2 := NewWord([]*Atom{charAtom('b', "hb")})
	g := NewGroup(GroupParagraph, 1, nil)

	if !AllWords([]*Unit{w1, w2}) {
		t.Errorf("AllWords(all Words) = false, want true")
	}
	if AllWords([]*Unit{w1, g}) {
		t.Errorf("AllWords(mixed) = true, want false")
	}
	if AllWords(nil) {
		t.Errorf("AllWords(empty) = true, want false")
	}
}

func TestGroupKind_String(t *testing.T) {
	cases := map[GroupKind]string{
		GroupParagraph: "Paragraph",
		GroupRow:       "Row",
		GroupCell:      "Cell",
		GroupTable:     "Table",
		GroupTextbox:   "Textbox",
	}
	for kind, want := range cases {
		if got := kind.String(); got != want {
			t.Errorf("GroupKind(%d).String() = %q, want %q", kind, got, want)
		}
	}
}

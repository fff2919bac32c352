package atomize

import (
	"testing"

	"github.com/vortex/docx-redline/internal/canon"
	"github.com/vortex/docx-redline/internal/cunit"
	"github.com/vortex/docx-redline/internal/preprocess"
	"github.com/vortex/docx-redline/internal/xmltree"
)

const nsAttrs = `xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"`

func mustAtomize(t *testing.T, xml string) []*cunit.Atom {
	t.Helper()
	tree, err := xmltree.Parse([]byte(xml))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if err := preprocess.Run(tree, preprocess.NewUNIDCounter(), canon.Options{}); err != nil {
		t.Fatalf("preprocess.Run: %v", err)
	}
	atoms, err := Atomize(tree, cunit.PartMain, canon.Options{})
	if err != nil {
		t.Fatalf("Atomize: %v", err)
	}
	return atoms
}

func TestAtomize_OneCharAtomPerRunePlusParagraphMark(t *testing.T) {
	xml := `<w:body ` + nsAttrs + `><w:p><w:r><w:t>hi</w:t></w:r></w:p></w:body>`
	atoms := mustAtomize(t, xml)

	if len(atoms) != 3 {
		t.Fatalf("got %d atoms, want 3 (2 chars + paragraph mark)", len(atoms))
	}
	if atoms[0].Kind != cunit.ContentChar || atoms[0].Char != 'h' {
		t.Errorf("atom 0 = %+v, want ContentChar 'h'", atoms[0])
	}
	if atoms[1].Kind != cunit.ContentChar || atoms[1].Char != 'i' {
		t.Errorf("atom 1 = %+v, want ContentChar 'i'", atoms[1])
	}
	if !atoms[2].IsParagraphMark() {
		t.Errorf("atom 2 = %+v, want paragraph mark", atoms[2])
	}
}

func TestAtomize_MultipleParagraphsInOrder(t *testing.T) {
	xml := `<w:body ` + nsAttrs + `>
		<w:p><w:r><w:t>a</w:t></w:r></w:p>
		<w:p><w:r><w:t>b</w:t></w:r></w:p>
	</w:body>`
	atoms := mustAtomize(t, xml)

	if len(atoms) != 4 {
		t.Fatalf("got %d atoms, want 4", len(atoms))
	}
	wantKinds := []cunit.ContentKind{cunit.ContentChar, cunit.ContentParagraphMark, cunit.ContentChar, cunit.ContentParagraphMark}
	for i, want := range wantKinds {
		if atoms[i].Kind != want {
			t.Errorf("atom %d kind = %v, want %v", i, atoms[i].Kind, want)
		}
	}
}

func TestAtomize_TabAndBreakProduceSingletonAtoms(t *testing.T) {
	xml := `<w:body ` + nsAttrs + `><w:p><w:r><w:tab/><w:br/><w:t>x</w:t></w:r></w:p></w:body>`
	atoms := mustAtomize(t, xml)

	if len(atoms) != 4 {
		t.Fatalf("got %d atoms, want 4 (tab, break, char, mark)", len(atoms))
	}
	if atoms[0].Kind != cunit.ContentTab {
		t.Errorf("atom 0 kind = %v, want ContentTab", atoms[0].Kind)
	}
	if atoms[1].Kind != cunit.ContentBreak {
		t.Errorf("atom 1 kind = %v, want ContentBreak", atoms[1].Kind)
	}
}

func TestAtomize_PageBreakIsSkipped(t *testing.T) {
	xml := `<w:body ` + nsAttrs + `><w:p><w:r><w:br w:type="page"/><w:t>x</w:t></w:r></w:p></w:body>`
	atoms := mustAtomize(t, xml)

	if len(atoms) != 2 {
		t.Fatalf("got %d atoms, want 2 (char, mark) with page break skipped", len(atoms))
	}
}

func TestAtomize_FieldCharsProduceBeginSeparateEnd(t *testing.T) {
	xml := `<w:body ` + nsAttrs + `><w:p><w:r>
		<w:fldChar w:fldCharType="begin"/>
		<w:fldChar w:fldCharType="separate"/>
		<w:fldChar w:fldCharType="end"/>
	</w:r></w:p></w:body>`
	atoms := mustAtomize(t, xml)

	if len(atoms) != 4 {
		t.Fatalf("got %d atoms, want 4 (begin, separate, end, mark)", len(atoms))
	}
	want := []cunit.ContentKind{cunit.ContentFieldBegin, cunit.ContentFieldSeparate, cunit.ContentFieldEnd}
	for i, w := range want {
		if atoms[i].Kind != w {
			t.Errorf("atom %d kind = %v, want %v", i, atoms[i].Kind, w)
		}
	}
}

func TestAtomize_MathObjectIsOneOpaqueAtomNotDescendedInto(t *testing.T) {
	xml := `<w:body ` + nsAttrs + ` xmlns:m="http://schemas.openxmlformats.org/officeDocument/2006/math">
		<w:p><w:r><m:oMath><m:r><m:t>x</m:t></m:r></m:oMath></w:r></w:p>
	</w:body>`
	atoms := mustAtomize(t, xml)

	if len(atoms) != 2 {
		t.Fatalf("got %d atoms, want 2 (one opaque oMath atom + paragraph mark), got kinds %v", len(atoms), kindsOf(atoms))
	}
	if atoms[0].Kind != cunit.ContentMathOrOLE {
		t.Errorf("atom 0 kind = %v, want ContentMathOrOLE", atoms[0].Kind)
	}
}

func TestAtomize_DrawingDescendsIntoTextboxContent(t *testing.T) {
	xml := `<w:body ` + nsAttrs + ` xmlns:wp="http://schemas.openxmlformats.org/drawingml/2006/wordprocessingDrawing">
		<w:p><w:r><w:drawing><wp:anchor><w:txbxContent>
			<w:p><w:r><w:t>in box</w:t></w:r></w:p>
		</w:txbxContent></wp:anchor></w:drawing></w:r></w:p>
	</w:body>`
	atoms := mustAtomize(t, xml)

	var chars int
	var sawDrawing, sawMark bool
	for _, a := range atoms {
		switch a.Kind {
		case cunit.ContentChar:
			chars++
		case cunit.ContentDrawing:
			sawDrawing = true
		case cunit.ContentParagraphMark:
			sawMark = true
		}
	}
	if !sawDrawing {
		t.Errorf("expected a ContentDrawing atom")
	}
	if chars != len("in box") {
		t.Errorf("got %d char atoms, want %d (textbox content should be atomized)", chars, len("in box"))
	}
	if !sawMark {
		t.Errorf("expected at least one paragraph-mark atom")
	}
}

func TestAtomize_RunPropertyChangeAffectsCharHash(t *testing.T) {
	xmlPlain := `<w:body ` + nsAttrs + `><w:p><w:r><w:t>a</w:t></w:r></w:p></w:body>`
	xmlBold := `<w:body ` + nsAttrs + `><w:p><w:r><w:rPr><w:b/></w:rPr><w:t>a</w:t></w:r></w:p></w:body>`

	plain := mustAtomize(t, xmlPlain)
	bold := mustAtomize(t, xmlBold)

	if plain[0].Hash() == bold[0].Hash() {
		t.Errorf("char hash unaffected by run-properties change")
	}
}

func TestAtomize_AncestorChainRecordsEnclosingParagraphUNID(t *testing.T) {
	xml := `<w:body ` + nsAttrs + `><w:p><w:r><w:t>a</w:t></w:r></w:p></w:body>`
	atoms := mustAtomize(t, xml)

	if len(atoms[0].Ancestors) == 0 {
		t.Fatalf("char atom has no ancestor chain")
	}
	if atoms[0].Ancestors[0].Name.Local != "p" {
		t.Errorf("nearest ancestor = %q, want \"p\"", atoms[0].Ancestors[0].Name.Local)
	}
	if atoms[0].Ancestors[0].UNID == 0 {
		t.Errorf("nearest ancestor UNID unset")
	}
}

func kindsOf(atoms []*cunit.Atom) []cunit.ContentKind {
	out := make([]cunit.ContentKind, len(atoms))
	for i, a := range atoms {
		out[i] = a.Kind
	}
	return out
}

package auxparts

import (
	"strings"
	"testing"

	"github.com/beevik/etree"

	"github.com/vortex/docx-redline/internal/atomize"
	"github.com/vortex/docx-redline/internal/canon"
	"github.com/vortex/docx-redline/internal/cunit"
	"github.com/vortex/docx-redline/internal/lcs"
	"github.com/vortex/docx-redline/internal/preprocess"
	"github.com/vortex/docx-redline/internal/revision"
	"github.com/vortex/docx-redline/internal/xmltree"
)

const nsAttrs = `xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"`

func mustAtoms(t *testing.T, xml string) []*cunit.Atom {
	t.Helper()
	tree, err := xmltree.Parse([]byte(xml))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if err := preprocess.Run(tree, preprocess.NewUNIDCounter(), canon.Options{}); err != nil {
		t.Fatalf("preprocess.Run: %v", err)
	}
	atoms, err := atomize.Atomize(tree, cunit.PartMain, canon.Options{})
	if err != nil {
		t.Fatalf("Atomize: %v", err)
	}
	return atoms
}

func testSettings() Settings {
	return Settings{
		LCS:      lcs.Settings{DetailThreshold: 0.15},
		Canon:    canon.Options{},
		Revision: revision.Settings{Author: "tester", Date: "2026-01-01T00:00:00Z"},
	}
}

func TestCollectReferences_FindsFootnoteAndEndnote(t *testing.T) {
	atoms := mustAtoms(t, `<w:body `+nsAttrs+`><w:p><w:r><w:t>a</w:t></w:r>`+
		`<w:r><w:footnoteReference w:id="1"/></w:r>`+
		`<w:r><w:endnoteReference w:id="2"/></w:r></w:p></w:body>`)

	refs := CollectReferences(atoms)
	if len(refs) != 2 {
		t.Fatalf("got %d references, want 2: %+v", len(refs), refs)
	}
	if refs[0].ID != "1" || refs[0].Part != cunit.PartFootnote {
		t.Errorf("unexpected first reference: %+v", refs[0])
	}
	if refs[1].ID != "2" || refs[1].Part != cunit.PartEndnote {
		t.Errorf("unexpected second reference: %+v", refs[1])
	}
}

func TestDiffReferences_PartitionsMatchedDeletedInserted(t *testing.T) {
	original := []Reference{{ID: "1", Part: cunit.PartFootnote}, {ID: "2", Part: cunit.PartFootnote}}
	modified := []Reference{{ID: "1", Part: cunit.PartFootnote}, {ID: "3", Part: cunit.PartFootnote}}

	d := DiffReferences(original, modified)
	if len(d.Matched) != 1 || d.Matched[0].ID != "1" {
		t.Errorf("unexpected Matched: %+v", d.Matched)
	}
	if len(d.OriginalOnly) != 1 || d.OriginalOnly[0].ID != "2" {
		t.Errorf("unexpected OriginalOnly: %+v", d.OriginalOnly)
	}
	if len(d.ModifiedOnly) != 1 || d.ModifiedOnly[0].ID != "3" {
		t.Errorf("unexpected ModifiedOnly: %+v", d.ModifiedOnly)
	}
}

func TestCompareNotesPart_MatchedNoteCorrelatesAndDroppedNoteIsOmitted(t *testing.T) {
	original := `<w:footnotes ` + nsAttrs + `>` +
		`<w:footnote w:id="-1"><w:p><w:r><w:t>sep</w:t></w:r></w:p></w:footnote>` +
		`<w:footnote w:id="1"><w:p><w:r><w:t>old text</w:t></w:r></w:p></w:footnote>` +
		`<w:footnote w:id="2"><w:p><w:r><w:t>gone</w:t></w:r></w:p></w:footnote>` +
		`</w:footnotes>`
	modified := `<w:footnotes ` + nsAttrs + `>` +
		`<w:footnote w:id="-1"><w:p><w:r><w:t>sep</w:t></w:r></w:p></w:footnote>` +
		`<w:footnote w:id="1"><w:p><w:r><w:t>new text</w:t></w:r></w:p></w:footnote>` +
		`<w:footnote w:id="3"><w:p><w:r><w:t>added</w:t></w:r></w:p></w:footnote>` +
		`</w:footnotes>`

	refs := Diff{
		Matched:      []Reference{{ID: "1", Part: cunit.PartFootnote}},
		OriginalOnly: []Reference{{ID: "2", Part: cunit.PartFootnote}},
		ModifiedOnly: []Reference{{ID: "3", Part: cunit.PartFootnote}},
	}

	out, err := CompareNotesPart([]byte(original), []byte(modified), Footnotes, refs, revision.NewCounter(1), testSettings())
	if err != nil {
		t.Fatalf("CompareNotesPart: %v", err)
	}
	s := string(out)

	if !strings.Contains(s, "old") || !strings.Contains(s, "new") {
		t.Errorf("matched note should carry both its original and modified text, got %s", s)
	}
	if strings.Contains(s, "gone") {
		t.Errorf("original-only note should be dropped entirely, got %s", s)
	}
	if !strings.Contains(s, "sep") {
		t.Errorf("separator note should pass through verbatim, got %s", s)
	}
	if !strings.Contains(s, "added") {
		t.Errorf("modified-only note body should survive, got %s", s)
	}
	if !strings.Contains(s, `w:id="3"`) {
		t.Errorf("inserted note should keep its own w:id=3, got %s", s)
	}
}

func TestPreserveCommentRanges_HoistsMarkerOutOfDelWrapper(t *testing.T) {
	p := etree.NewElement("p")
	del := etree.NewElement("del")
	del.CreateAttr("w:id", "1")
	run := etree.NewElement("r")
	marker := etree.NewElement("commentRangeStart")
	marker.CreateAttr("w:id", "0")
	run.AddChild(marker)
	del.AddChild(run)
	p.AddChild(del)

	PreserveCommentRanges([]*etree.Element{p})

	found := false
	for _, c := range p.ChildElements() {
		if c.Tag == "commentRangeStart" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected commentRangeStart hoisted to a direct child of <p>, got %v", p.ChildElements())
	}
}

func TestRenumberDrawingIDs_AssignsDistinctIDs(t *testing.T) {
	p1 := etree.NewElement("docPr")
	p1.CreateAttr("id", "1")
	p2 := etree.NewElement("docPr")
	p2.CreateAttr("id", "1")
	root := etree.NewElement("p")
	root.AddChild(p1)
	root.AddChild(p2)

	next := RenumberDrawingIDs([]*etree.Element{root}, 100)

	if p1.SelectAttrValue("id", "") == p2.SelectAttrValue("id", "") {
		t.Fatalf("expected distinct ids, both got %q", p1.SelectAttrValue("id", ""))
	}
	if next != 102 {
		t.Errorf("got next=%d, want 102", next)
	}
}

func TestAssignParagraphIDs_StampsEveryParagraph(t *testing.T) {
	p := etree.NewElement("p")
	AssignParagraphIDs([]*etree.Element{p})

	if p.SelectAttrValue("w14:paraId", "") == "" {
		t.Fatalf("expected w14:paraId to be set")
	}
	if p.SelectAttrValue("w14:paraId", "") != p.SelectAttrValue("w14:textId", "") {
		t.Errorf("expected paraId and textId to match")
	}
}

package lcs

import (
	"testing"

	"github.com/vortex/docx-redline/internal/atomize"
	"github.com/vortex/docx-redline/internal/canon"
	"github.com/vortex/docx-redline/internal/cunit"
	"github.com/vortex/docx-redline/internal/group"
	"github.com/vortex/docx-redline/internal/preprocess"
	"github.com/vortex/docx-redline/internal/xmltree"
)

const nsAttrs = `xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"`

func mustGroups(t *testing.T, xml string) []*cunit.Unit {
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
	words := group.Words(atoms, group.DefaultConfig())
	return group.Groups(words)
}

func defaultSettings() Settings { return Settings{DetailThreshold: 0.15} }

func statusCounts(seqs []cunit.CorrelatedSequence) map[cunit.Status]int {
	counts := make(map[cunit.Status]int)
	for _, s := range seqs {
		counts[s.Status]++
	}
	return counts
}

func TestCorrelate_IdenticalParagraphsAreWhollyEqual(t *testing.T) {
	left := mustGroups(t, `<w:body `+nsAttrs+`><w:p><w:r><w:t>hello world</w:t></w:r></w:p></w:body>`)
	right := mustGroups(t, `<w:body `+nsAttrs+`><w:p><w:r><w:t>hello world</w:t></w:r></w:p></w:body>`)

	seqs := Correlate(left, right, defaultSettings())
	for _, s := range seqs {
		if s.Status != cunit.StatusEqual {
			t.Fatalf("got status %v in all-equal comparison", s.Status)
		}
	}
	if len(seqs) == 0 {
		t.Fatalf("expected at least one Equal sequence")
	}
}

func TestCorrelate_AppendedWordIsPureInsert(t *testing.T) {
	left := mustGroups(t, `<w:body `+nsAttrs+`><w:p><w:r><w:t>hello world</w:t></w:r></w:p></w:body>`)
	right := mustGroups(t, `<w:body `+nsAttrs+`><w:p><w:r><w:t>hello world again</w:t></w:r></w:p></w:body>`)

	seqs := Correlate(left, right, defaultSettings())
	counts := statusCounts(seqs)
	if counts[cunit.StatusInserted] == 0 {
		t.Fatalf("expected an Inserted sequence, got %v", seqs)
	}
	if counts[cunit.StatusDeleted] != 0 {
		t.Fatalf("did not expect a Deleted sequence for a pure append, got %v", seqs)
	}
}

func TestCorrelate_ReplacedWordIsDeleteThenInsert(t *testing.T) {
	left := mustGroups(t, `<w:body `+nsAttrs+`><w:p><w:r><w:t>the quick fox</w:t></w:r></w:p></w:body>`)
	right := mustGroups(t, `<w:body `+nsAttrs+`><w:p><w:r><w:t>the slow fox</w:t></w:r></w:p></w:body>`)

	seqs := Correlate(left, right, defaultSettings())
	counts := statusCounts(seqs)
	if counts[cunit.StatusDeleted] == 0 || counts[cunit.StatusInserted] == 0 {
		t.Fatalf("expected both Deleted and Inserted sequences for a replaced word, got %v", seqs)
	}
	if counts[cunit.StatusEqual] == 0 {
		t.Fatalf("expected matching prefix/suffix to stay Equal, got %v", seqs)
	}
}

func TestCorrelate_EmptyLeftIsWhollyInserted(t *testing.T) {
	right := mustGroups(t, `<w:body `+nsAttrs+`><w:p><w:r><w:t>new text</w:t></w:r></w:p></w:body>`)

	seqs := Correlate(nil, right, defaultSettings())
	if len(seqs) != 1 || seqs[0].Status != cunit.StatusInserted {
		t.Fatalf("got %v, want a single Inserted sequence", seqs)
	}
}

func TestCorrelate_EmptyRightIsWhollyDeleted(t *testing.T) {
	left := mustGroups(t, `<w:body `+nsAttrs+`><w:p><w:r><w:t>old text</w:t></w:r></w:p></w:body>`)

	seqs := Correlate(left, nil, defaultSettings())
	if len(seqs) != 1 || seqs[0].Status != cunit.StatusDeleted {
		t.Fatalf("got %v, want a single Deleted sequence", seqs)
	}
}

func TestCorrelate_MatchMustNotBeginWithParagraphMark(t *testing.T) {
	left := mustGroups(t, `<w:body `+nsAttrs+`><w:p><w:r><w:t>alpha</w:t></w:r></w:p><w:p><w:r><w:t>beta</w:t></w:r></w:p></w:body>`)
	right := mustGroups(t, `<w:body `+nsAttrs+`><w:p><w:r><w:t>gamma alpha</w:t></w:r></w:p><w:p><w:r><w:t>beta</w:t></w:r></w:p></w:body>`)

	seqs := Correlate(left, right, defaultSettings())
	for _, s := range seqs {
		if s.Status == cunit.StatusEqual && len(s.Left) > 0 && s.Left[0].IsParagraphMark() {
			t.Fatalf("an Equal sequence must not begin with a paragraph mark: %v", seqs)
		}
	}
}

func TestCorrelate_DissimilarTablesFallBackToDeleteInsert(t *testing.T) {
	left := mustGroups(t, `<w:body `+nsAttrs+`><w:tbl><w:tr><w:tc><w:p><w:r><w:t>a</w:t></w:r></w:p></w:tc></w:tr></w:tbl></w:body>`)
	right := mustGroups(t, `<w:body `+nsAttrs+`><w:tbl><w:tr><w:tc><w:p><w:r><w:t>z</w:t></w:r></w:p></w:tc><w:tc><w:p><w:r><w:t>y</w:t></w:r></w:p></w:tc></w:tr></w:tbl></w:body>`)

	seqs := Correlate(left, right, defaultSettings())
	counts := statusCounts(seqs)
	if counts[cunit.StatusDeleted] == 0 && counts[cunit.StatusInserted] == 0 {
		t.Fatalf("expected the mismatched table cells to surface some change, got %v", seqs)
	}
}

func TestLongestCommonRun_FindsInteriorMatch(t *testing.T) {
	left := mustGroups(t, `<w:body `+nsAttrs+`><w:p><w:r><w:t>xx common yy</w:t></w:r></w:p></w:body>`)[0].Children
	right := mustGroups(t, `<w:body `+nsAttrs+`><w:p><w:r><w:t>qq common zz</w:t></w:r></w:p></w:body>`)[0].Children

	_, _, length := longestCommonRun(left, right)
	if length == 0 {
		t.Fatalf("expected a nonzero common run between the two paragraphs")
	}
}

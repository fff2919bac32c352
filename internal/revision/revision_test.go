package revision

import (
	"testing"

	"github.com/beevik/etree"

	"github.com/vortex/docx-redline/internal/atomize"
	"github.com/vortex/docx-redline/internal/canon"
	"github.com/vortex/docx-redline/internal/cunit"
	"github.com/vortex/docx-redline/internal/group"
	"github.com/vortex/docx-redline/internal/lcs"
	"github.com/vortex/docx-redline/internal/preprocess"
	"github.com/vortex/docx-redline/internal/reconstruct"
	"github.com/vortex/docx-redline/internal/xmltree"
)

const nsAttrs = `xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"`

func buildReconstructed(t *testing.T, leftXML, rightXML string) []*etree.Element {
	t.Helper()
	left := mustGroups(t, leftXML)
	right := mustGroups(t, rightXML)
	seqs := lcs.Correlate(left, right, lcs.Settings{DetailThreshold: 0.15})
	atoms := reconstruct.Flatten(seqs)
	return reconstruct.Build(atoms)
}

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

func TestWrap_InsertedRunGetsInsWrapperWithID(t *testing.T) {
	top := buildReconstructed(t,
		`<w:body `+nsAttrs+`><w:p><w:r><w:t>hello world</w:t></w:r></w:p></w:body>`,
		`<w:body `+nsAttrs+`><w:p><w:r><w:t>hello big world</w:t></w:r></w:p></w:body>`)

	Wrap(top, Settings{Author: "tester", Date: "2026-01-01T00:00:00Z"}, NewCounter(1))

	if !anyElementNamed(top[0], "ins") {
		t.Fatalf("expected a <w:ins> wrapper, got %v", top)
	}
	ins := findElementNamed(top[0], "ins")
	if ins.SelectAttrValue("w:id", "") == "" {
		t.Fatalf("expected w:id to be set on w:ins")
	}
	if ins.SelectAttrValue("w:author", "") != "tester" {
		t.Fatalf("expected w:author=tester, got %q", ins.SelectAttrValue("w:author", ""))
	}
}

func TestWrap_DeletedRunGetsDelWrapper(t *testing.T) {
	top := buildReconstructed(t,
		`<w:body `+nsAttrs+`><w:p><w:r><w:t>hello old world</w:t></w:r></w:p></w:body>`,
		`<w:body `+nsAttrs+`><w:p><w:r><w:t>hello world</w:t></w:r></w:p></w:body>`)

	Wrap(top, Settings{Author: "tester", Date: "now"}, NewCounter(1))

	if !anyElementNamed(top[0], "del") {
		t.Fatalf("expected a <w:del> wrapper, got %v", top)
	}
}

func TestCoalesce_MergesAdjacentEqualRunsWithSameProps(t *testing.T) {
	p := etree.NewElement("p")
	r1 := etree.NewElement("r")
	t1 := etree.NewElement("t")
	t1.SetText("hello ")
	r1.AddChild(t1)
	r2 := etree.NewElement("r")
	t2 := etree.NewElement("t")
	t2.SetText("world")
	r2.AddChild(t2)
	p.AddChild(r1)
	p.AddChild(r2)

	Coalesce([]*etree.Element{p})

	runs := p.ChildElements()
	if len(runs) != 1 {
		t.Fatalf("got %d runs after coalesce, want 1", len(runs))
	}
	if got := runs[0].ChildElements()[0].Text(); got != "hello world" {
		t.Fatalf("got %q, want %q", got, "hello world")
	}
}

func TestCoalesce_DoesNotMergeInsAndDel(t *testing.T) {
	p := etree.NewElement("p")
	ins := etree.NewElement("ins")
	ins.CreateAttr("w:id", "1")
	r1 := etree.NewElement("r")
	t1 := etree.NewElement("t")
	t1.SetText("a")
	r1.AddChild(t1)
	ins.AddChild(r1)

	del := etree.NewElement("del")
	del.CreateAttr("w:id", "2")
	r2 := etree.NewElement("r")
	d2 := etree.NewElement("delText")
	d2.SetText("b")
	r2.AddChild(d2)
	del.AddChild(r2)

	p.AddChild(ins)
	p.AddChild(del)

	Coalesce([]*etree.Element{p})

	if len(p.ChildElements()) != 2 {
		t.Fatalf("expected ins and del to remain separate, got %d children", len(p.ChildElements()))
	}
}

func anyElementNamed(e *etree.Element, tag string) bool {
	return findElementNamed(e, tag) != nil
}

func findElementNamed(e *etree.Element, tag string) *etree.Element {
	if e.Tag == tag {
		return e
	}
	for _, c := range e.ChildElements() {
		if f := findElementNamed(c, tag); f != nil {
			return f
		}
	}
	return nil
}

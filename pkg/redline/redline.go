// Package redline is the public API: opening .docx packages, comparing
// two versions of one into a third carrying tracked-change markup
// (§1-§4), and reading that markup back out as structured Revisions.
package redline

import (
	"bytes"
	"fmt"

	"github.com/beevik/etree"

	"github.com/vortex/docx-redline/internal/atomize"
	"github.com/vortex/docx-redline/internal/auxparts"
	"github.com/vortex/docx-redline/internal/cunit"
	"github.com/vortex/docx-redline/internal/docpkg"
	"github.com/vortex/docx-redline/internal/group"
	"github.com/vortex/docx-redline/internal/lcs"
	"github.com/vortex/docx-redline/internal/preprocess"
	"github.com/vortex/docx-redline/internal/reconstruct"
	"github.com/vortex/docx-redline/internal/revision"
	"github.com/vortex/docx-redline/internal/xmltree"
)

const procInst = `version="1.0" encoding="UTF-8" standalone="yes"`

// Compare produces a third document carrying original's and modified's
// differences as tracked-change markup, wiring the full C1-C9 pipeline
// (§1's architecture diagram): preprocess both inputs, atomize, group,
// correlate, rebuild, wrap in revision markup, and repeat the
// reference-bearing auxiliary parts (footnotes, endnotes) independently.
// Any panic anywhere in the pipeline is converted to an *InvariantError
// rather than escaping to the caller (§7).
func Compare(original, modified Document, settings Settings) (out Document, err error) {
	defer func() {
		if r := recover(); r != nil {
			out = Document{}
			err = NewInvariantError(nil, "redline: internal error comparing documents: %v", r)
		}
	}()
	return compare(original, modified, settings)
}

func compare(original, modified Document, settings Settings) (Document, error) {
	if original.pkg == nil || modified.pkg == nil {
		return Document{}, NewInvalidPackageError(nil, "redline: both documents must be opened before Compare")
	}

	opt := settings.canonOptions()
	lcsSt := settings.lcsSettings()
	revSt := settings.revisionSettings()
	groupCfg := settings.groupConfig()
	auxSt := auxparts.Settings{LCS: lcsSt, Canon: opt, Revision: revSt}
	ids := revision.NewCounter(settings.StartingID)

	origMainXML, ok := original.pkg.Part(docpkg.MainDocumentPart)
	if !ok {
		return Document{}, NewMissingPartError(nil, "redline: original is missing %s", docpkg.MainDocumentPart)
	}
	modMainXML, ok := modified.pkg.Part(docpkg.MainDocumentPart)
	if !ok {
		return Document{}, NewMissingPartError(nil, "redline: modified is missing %s", docpkg.MainDocumentPart)
	}

	origTree, err := xmltree.Parse(origMainXML)
	if err != nil {
		return Document{}, NewInvalidPackageError(err, "redline: parsing original %s: %v", docpkg.MainDocumentPart, err)
	}
	modTree, err := xmltree.Parse(modMainXML)
	if err != nil {
		return Document{}, NewInvalidPackageError(err, "redline: parsing modified %s: %v", docpkg.MainDocumentPart, err)
	}

	if err := preprocess.Run(origTree, preprocess.NewUNIDCounter(), opt); err != nil {
		return Document{}, NewInvalidPackageError(err, "redline: preprocessing original document: %v", err)
	}
	if err := preprocess.Run(modTree, preprocess.NewUNIDCounter(), opt); err != nil {
		return Document{}, NewInvalidPackageError(err, "redline: preprocessing modified document: %v", err)
	}

	origAtoms, err := atomize.Atomize(origTree, cunit.PartMain, opt)
	if err != nil {
		return Document{}, NewInvariantError(err, "redline: atomizing original document: %v", err)
	}
	modAtoms, err := atomize.Atomize(modTree, cunit.PartMain, opt)
	if err != nil {
		return Document{}, NewInvariantError(err, "redline: atomizing modified document: %v", err)
	}

	origRefs := auxparts.CollectReferences(origAtoms)
	modRefs := auxparts.CollectReferences(modAtoms)

	origGroups := group.Groups(group.Words(origAtoms, groupCfg))
	modGroups := group.Groups(group.Words(modAtoms, groupCfg))

	seqs := lcs.Correlate(origGroups, modGroups, lcsSt)
	flat := reconstruct.Flatten(seqs)
	preprocess.NormalizeTextboxUNIDs(flat, preprocess.TextboxDepth)
	tops := reconstruct.Build(flat)

	revision.Wrap(tops, revSt, ids)
	revision.Coalesce(tops)
	auxparts.PreserveCommentRanges(tops)
	auxparts.RenumberDrawingIDs(tops, settings.StartingID)
	auxparts.AssignParagraphIDs(tops)

	mainOut, err := buildDocumentPart(tops, modTree)
	if err != nil {
		return Document{}, NewInvariantError(err, "redline: assembling %s: %v", docpkg.MainDocumentPart, err)
	}

	rawModified, err := modified.pkg.Bytes()
	if err != nil {
		return Document{}, NewInvariantError(err, "redline: cloning modified package: %v", err)
	}
	outPkg, err := docpkg.Open(rawModified)
	if err != nil {
		return Document{}, NewInvariantError(err, "redline: cloning modified package: %v", err)
	}
	outPkg.SetPart(docpkg.MainDocumentPart, mainOut)

	if err := compareNotePart(outPkg, original.pkg, modified.pkg, docpkg.FootnotesPart, auxparts.Footnotes,
		origRefs, modRefs, ids, auxSt); err != nil {
		return Document{}, err
	}
	if err := compareNotePart(outPkg, original.pkg, modified.pkg, docpkg.EndnotesPart, auxparts.Endnotes,
		origRefs, modRefs, ids, auxSt); err != nil {
		return Document{}, err
	}

	return Document{pkg: outPkg}, nil
}

// compareNotePart rebuilds one footnotes.xml/endnotes.xml part in place
// on outPkg, or leaves outPkg's already-cloned copy of the modified
// part untouched if the main document carries no reference into it at
// all (nothing to diff).
func compareNotePart(outPkg, originalPkg, modifiedPkg *docpkg.Document, partName string, kind auxparts.NoteKind,
	origRefs, modRefs []auxparts.Reference, ids *revision.Counter, st auxparts.Settings) error {
	origFiltered := filterReferences(origRefs, kind.Part)
	modFiltered := filterReferences(modRefs, kind.Part)
	diff := auxparts.DiffReferences(origFiltered, modFiltered)
	if len(diff.Matched) == 0 && len(diff.OriginalOnly) == 0 && len(diff.ModifiedOnly) == 0 {
		return nil
	}

	origXML := partOrEmpty(originalPkg, partName, kind.RootTag)
	modXML := partOrEmpty(modifiedPkg, partName, kind.RootTag)

	out, err := auxparts.CompareNotesPart(origXML, modXML, kind, diff, ids, st)
	if err != nil {
		return NewInvariantError(err, "redline: comparing %s: %v", partName, err)
	}
	outPkg.SetPart(partName, out)
	return nil
}

func filterReferences(refs []auxparts.Reference, part cunit.Part) []auxparts.Reference {
	var out []auxparts.Reference
	for _, r := range refs {
		if r.Part == part {
			out = append(out, r)
		}
	}
	return out
}

// partOrEmpty returns name's bytes from pkg, or a minimal empty part of
// the given root tag if pkg never carried that part at all (a document
// with no footnotes/endnotes has no word/footnotes.xml to begin with).
func partOrEmpty(pkg *docpkg.Document, name, rootTag string) []byte {
	if b, ok := pkg.Part(name); ok {
		return b
	}
	return []byte(`<w:` + rootTag + ` xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"></w:` + rootTag + `>`)
}

// buildDocumentPart assembles the final word/document.xml: the
// reconstructed body content plus the modified input's own document
// element (so its namespace declarations and trailing section
// properties survive unchanged, per §4.7's container-property
// preservation rule applied at the document root itself).
func buildDocumentPart(tops []*etree.Element, modTree *xmltree.Tree) ([]byte, error) {
	modRoot, err := modTree.Element(modTree.Root())
	if err != nil {
		return nil, err
	}
	docEl := modRoot.Copy()
	body := findChild(docEl, "body")
	if body == nil {
		body = xmltree.NewElement("w:body")
		docEl.AddChild(body)
	} else {
		for _, c := range body.ChildElements() {
			body.RemoveChild(c)
		}
	}
	for _, t := range tops {
		body.AddChild(t)
	}
	if sectPr := trailingSectPr(modTree); sectPr != nil {
		body.AddChild(sectPr.Copy())
	}
	return serializePart(docEl)
}

// trailingSectPr returns the modified document's top-level <w:sectPr>
// (the document's own section properties, not a paragraph's), if any.
func trailingSectPr(modTree *xmltree.Tree) *etree.Element {
	root, err := modTree.Element(modTree.Root())
	if err != nil {
		return nil
	}
	body := findChild(root, "body")
	if body == nil {
		return nil
	}
	return findChild(body, "sectPr")
}

func findChild(e *etree.Element, local string) *etree.Element {
	for _, c := range e.ChildElements() {
		if c.Tag == local {
			return c
		}
	}
	return nil
}

func serializePart(root *etree.Element) ([]byte, error) {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", procInst)
	doc.WriteSettings.CanonicalEndTags = true
	doc.SetRoot(root)
	var buf bytes.Buffer
	if _, err := doc.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("redline: serialize part: %w", err)
	}
	return buf.Bytes(), nil
}

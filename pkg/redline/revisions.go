package redline

import (
	"strings"

	"github.com/beevik/etree"

	"github.com/vortex/docx-redline/internal/docpkg"
)

// RevisionKind discriminates the kind of tracked change a Revision
// describes.
type RevisionKind string

const (
	RevisionInsertion    RevisionKind = "insertion"
	RevisionDeletion     RevisionKind = "deletion"
	RevisionFormatChange RevisionKind = "formatChange"
)

// Revision is one tracked change read back out of a compared document's
// markup (§1: "a compared document's revisions can be enumerated
// programmatically").
type Revision struct {
	ID     string
	Kind   RevisionKind
	Author string
	Date   string
	// Text is the run text the revision covers. Empty for FormatChange,
	// whose content didn't change.
	Text string
}

// GetRevisions walks compared's main document part and every footnote/
// endnote part and returns every <w:ins>/<w:del>/<w:rPrChange> it finds,
// in document order per part.
func GetRevisions(compared Document, settings Settings) ([]Revision, error) {
	if compared.pkg == nil {
		return nil, NewInvalidPackageError(nil, "redline: document is not open")
	}

	var out []Revision
	for _, name := range revisionBearingParts(compared.pkg) {
		data, ok := compared.pkg.Part(name)
		if !ok {
			continue
		}
		doc := etree.NewDocument()
		if err := doc.ReadFromBytes(data); err != nil {
			return nil, NewInvalidPackageError(err, "redline: parsing %s: %v", name, err)
		}
		if doc.Root() == nil {
			continue
		}
		collectRevisions(doc.Root(), &out)
	}
	return out, nil
}

func revisionBearingParts(pkg *docpkg.Document) []string {
	names := []string{docpkg.MainDocumentPart, docpkg.FootnotesPart, docpkg.EndnotesPart}
	names = append(names, pkg.HeaderParts()...)
	names = append(names, pkg.FooterParts()...)
	return names
}

func collectRevisions(e *etree.Element, out *[]Revision) {
	for _, c := range e.ChildElements() {
		switch c.Tag {
		case "ins", "del":
			kind := RevisionInsertion
			if c.Tag == "del" {
				kind = RevisionDeletion
			}
			*out = append(*out, Revision{
				ID:     c.SelectAttrValue("w:id", ""),
				Kind:   kind,
				Author: c.SelectAttrValue("w:author", ""),
				Date:   c.SelectAttrValue("w:date", ""),
				Text:   revisionText(c),
			})
		case "rPrChange", "pPrChange":
			*out = append(*out, Revision{
				ID:     c.SelectAttrValue("w:id", ""),
				Kind:   RevisionFormatChange,
				Author: c.SelectAttrValue("w:author", ""),
				Date:   c.SelectAttrValue("w:date", ""),
			})
		}
		collectRevisions(c, out)
	}
}

// revisionText concatenates every w:t/w:delText reachable under e, in
// document order.
func revisionText(e *etree.Element) string {
	var b strings.Builder
	for _, c := range e.ChildElements() {
		if c.Tag == "t" || c.Tag == "delText" {
			b.WriteString(c.Text())
		}
		b.WriteString(revisionText(c))
	}
	return b.String()
}

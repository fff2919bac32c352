// Package docpkg is a minimal OPC (Open Packaging Conventions) shim: open
// and save a .docx zip archive, exposing its well-known WordprocessingML
// parts as raw bytes. §1 places full package I/O (content types,
// relationship graphs, arbitrary part types) out of scope for the
// comparer itself; this package carries just enough of that concern for
// the comparer to read/write the parts it actually touches.
package docpkg

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"sort"
	"strings"
)

// Well-known part names within a WordprocessingML package.
const (
	MainDocumentPart = "word/document.xml"
	FootnotesPart    = "word/footnotes.xml"
	EndnotesPart     = "word/endnotes.xml"
	CommentsPart     = "word/comments.xml"
	CorePropsPart    = "docProps/core.xml"
)

// Document is an opened .docx package: every zip entry's raw bytes,
// keyed by its archive path, plus the entry order so Save can reproduce
// a stable archive layout rather than whatever order a map would give.
type Document struct {
	parts map[string][]byte
	order []string
}

// Open parses docx bytes (the contents of a .docx file) into a Document.
func Open(data []byte) (*Document, error) {
	r, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("docpkg: open: %w", err)
	}
	d := &Document{parts: make(map[string][]byte, len(r.File))}
	for _, f := range r.File {
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("docpkg: open part %q: %w", f.Name, err)
		}
		buf, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("docpkg: read part %q: %w", f.Name, err)
		}
		d.parts[f.Name] = buf
		d.order = append(d.order, f.Name)
	}
	if _, ok := d.parts[MainDocumentPart]; !ok {
		return nil, fmt.Errorf("docpkg: missing %s", MainDocumentPart)
	}
	return d, nil
}

// Part returns a part's raw bytes and whether it is present.
func (d *Document) Part(name string) ([]byte, bool) {
	b, ok := d.parts[name]
	return b, ok
}

// SetPart replaces (or adds) a part's bytes, preserving its position in
// the archive if it already existed.
func (d *Document) SetPart(name string, data []byte) {
	if _, existed := d.parts[name]; !existed {
		d.order = append(d.order, name)
	}
	d.parts[name] = data
}

// HeaderParts returns the names of every word/header*.xml part, sorted,
// since the package's relationship graph (which header/footer applies to
// which section) is out of this shim's scope — comparison treats every
// header/footer part as an independent auxiliary part by name.
func (d *Document) HeaderParts() []string { return d.partsMatching("word/header", ".xml") }

// FooterParts returns the names of every word/footer*.xml part, sorted.
func (d *Document) FooterParts() []string { return d.partsMatching("word/footer", ".xml") }

func (d *Document) partsMatching(prefix, suffix string) []string {
	var out []string
	for name := range d.parts {
		if strings.HasPrefix(name, prefix) && strings.HasSuffix(name, suffix) {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

// Bytes serializes the Document back into a .docx archive, in the
// original entry order (with any newly-added parts appended at the end).
func (d *Document) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for _, name := range d.order {
		fw, err := w.Create(name)
		if err != nil {
			return nil, fmt.Errorf("docpkg: create part %q: %w", name, err)
		}
		if _, err := fw.Write(d.parts[name]); err != nil {
			return nil, fmt.Errorf("docpkg: write part %q: %w", name, err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("docpkg: close archive: %w", err)
	}
	return buf.Bytes(), nil
}

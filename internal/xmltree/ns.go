// Package xmltree is the arena-backed XML tree substrate (C1). It wraps
// github.com/beevik/etree with stable node identifiers, order-preserving
// attribute access, and iterative (non-recursive) tree walks so that
// pathologically deep documents cannot overflow the call stack.
package xmltree

import "strings"

// Nsmap is the canonical prefix → namespace URI table for the well-known
// OOXML namespaces. Name resolution, and so hashing, keys off this table
// so that prefix choice never affects comparison results.
var Nsmap = map[string]string{
	"a":        "http://schemas.openxmlformats.org/drawingml/2006/main",
	"c":        "http://schemas.openxmlformats.org/drawingml/2006/chart",
	"cp":       "http://schemas.openxmlformats.org/package/2006/metadata/core-properties",
	"dc":       "http://purl.org/dc/elements/1.1/",
	"dcmitype": "http://purl.org/dc/dcmitype/",
	"dcterms":  "http://purl.org/dc/terms/",
	"dgm":      "http://schemas.openxmlformats.org/drawingml/2006/diagram",
	"m":        "http://schemas.openxmlformats.org/officeDocument/2006/math",
	"mc":       "http://schemas.openxmlformats.org/markup-compatibility/2006",
	"o":        "urn:schemas-microsoft-com:office:office",
	"pic":      "http://schemas.openxmlformats.org/drawingml/2006/picture",
	"r":        "http://schemas.openxmlformats.org/officeDocument/2006/relationships",
	"v":        "urn:schemas-microsoft-com:vml",
	"w":        "http://schemas.openxmlformats.org/wordprocessingml/2006/main",
	"w10":      "urn:schemas-microsoft-com:office:word",
	"w14":      "http://schemas.microsoft.com/office/word/2010/wordml",
	"wp":       "http://schemas.openxmlformats.org/drawingml/2006/wordprocessingDrawing",
	"xml":      "http://www.w3.org/XML/1998/namespace",
	"xsi":      "http://www.w3.org/2001/XMLSchema-instance",
}

// Pfxmap is the reverse mapping of URI -> prefix, used by canonicalization
// to emit a deterministic prefix regardless of the prefix chosen by the
// document that was parsed.
var Pfxmap map[string]string

func init() {
	Pfxmap = make(map[string]string, len(Nsmap))
	for pfx, uri := range Nsmap {
		Pfxmap[uri] = pfx
	}
}

// Name is a namespace-qualified element or attribute name. Equality is by
// both the URI and the local part, never by prefix (§3 XName).
type Name struct {
	URI   string
	Local string
}

// QName builds a Name from a "prefix:local" or bare "local" string using
// the well-known namespace table. Unknown prefixes are kept verbatim in
// URI so round-tripping of non-OOXML extensions still works.
func QName(prefixed string) Name {
	prefix, local, ok := strings.Cut(prefixed, ":")
	if !ok {
		return Name{Local: prefixed}
	}
	if uri, known := Nsmap[prefix]; known {
		return Name{URI: uri, Local: local}
	}
	return Name{URI: prefix, Local: local}
}

// Prefixed renders the name back as "prefix:local" using the canonical
// prefix table, falling back to the bare local name when the URI is
// unrecognized.
func (n Name) Prefixed() string {
	if n.URI == "" {
		return n.Local
	}
	if pfx, ok := Pfxmap[n.URI]; ok {
		return pfx + ":" + n.Local
	}
	return n.Local
}

func (n Name) String() string { return n.Prefixed() }

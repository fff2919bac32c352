// Package canon implements order-stable SHA-1 canonicalization of XML
// fragments (C2): the hash a node produces must not depend on RSID
// bookkeeping attributes, the prefix an input document happened to use
// for a well-known namespace, or (when enabled) whitespace/case
// conventions the two compared documents disagree on.
package canon

import (
	"crypto/sha1"
	"encoding/hex"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/vortex/docx-redline/internal/xmltree"
)

// Options controls the conflations canonicalization applies before
// hashing. These mirror the redline.Settings fields of the same name.
type Options struct {
	CaseInsensitive                     bool
	ConflateBreakingAndNonBreakingSpace bool
}

// nonBreakingSpace is U+00A0.
const nonBreakingSpace = " "

var upperCaser = cases.Upper(language.Und)

// skippedAttrPrefixes are attribute local-name prefixes that are
// nondeterministic across saves and must never influence a hash (§4.2
// step 3): revision-save IDs (the RSID family) and the comparer's own
// internal hierarchy-ID bookkeeping (§3: UNID, minted in
// internal/preprocess under the unprefixed "unid" attribute name).
var skippedAttrPrefixes = []string{"rsid"}

const unidAttrLocal = "unid"
const blockHashAttrLocal = "blockhash"

// SkipAttr reports whether an attribute must be excluded from hashing.
func SkipAttr(local string) bool {
	if local == unidAttrLocal || local == blockHashAttrLocal {
		return true
	}
	low := strings.ToLower(local)
	for _, p := range skippedAttrPrefixes {
		if strings.HasPrefix(low, p) {
			return true
		}
	}
	return false
}

// FoldText applies the configured case/whitespace conflations to a text
// fragment prior to hashing or Word-separator comparison. Case folding
// uses golang.org/x/text's locale-invariant uppercasing rather than
// strings.ToUpper, which is defined in terms of the platform's default
// locale and famously misbehaves for the Turkish dotted/dotless I (§9).
func FoldText(s string, opt Options) string {
	if opt.ConflateBreakingAndNonBreakingSpace {
		s = strings.ReplaceAll(s, nonBreakingSpace, " ")
	}
	if opt.CaseInsensitive {
		s = upperCaser.String(s)
	}
	return s
}

// FoldRune applies the same conflations at single-character granularity,
// used when hashing one atomized character at a time (§4.4).
func FoldRune(r rune, opt Options) rune {
	if opt.ConflateBreakingAndNonBreakingSpace && r == ' ' {
		r = ' '
	}
	if opt.CaseInsensitive {
		folded := upperCaser.String(string(r))
		for _, rr := range folded {
			return rr
		}
	}
	return r
}

// Element produces the canonical serialization of an element subtree:
// canonical-prefix tag name, attributes in storage order (skipped ones
// elided), text folded per opt, recursing into children in order.
func Element(t *xmltree.Tree, id xmltree.NodeID, opt Options) (string, error) {
	var b strings.Builder
	if err := writeElement(&b, t, id, opt); err != nil {
		return "", err
	}
	return b.String(), nil
}

func writeElement(b *strings.Builder, t *xmltree.Tree, id xmltree.NodeID, opt Options) error {
	name, err := t.Name(id)
	if err != nil {
		return err
	}
	b.WriteByte('<')
	b.WriteString(name.Prefixed())

	attrs, err := t.Attrs(id)
	if err != nil {
		return err
	}
	for _, a := range attrs {
		if SkipAttr(a.Name.Local) {
			continue
		}
		b.WriteByte(' ')
		b.WriteString(a.Name.Prefixed())
		b.WriteString(`="`)
		b.WriteString(FoldText(a.Value, opt))
		b.WriteByte('"')
	}
	b.WriteByte('>')

	text, err := t.Text(id)
	if err != nil {
		return err
	}
	if text != "" {
		b.WriteString(FoldText(text, opt))
	}

	children, err := t.Children(id)
	if err != nil {
		return err
	}
	for _, c := range children {
		if err := writeElement(b, t, c, opt); err != nil {
			return err
		}
	}

	b.WriteString("</")
	b.WriteString(name.Prefixed())
	b.WriteByte('>')
	return nil
}

// SHA1Hex returns the lowercase hex SHA-1 digest of s.
func SHA1Hex(s string) string {
	sum := sha1.Sum([]byte(s))
	return hex.EncodeToString(sum[:])
}

// HashElement computes the canonical SHA-1 digest of an element subtree
// (§4.2 contract: stable across RSID differences, prefix choice, and,
// when enabled, whitespace/case conflation).
func HashElement(t *xmltree.Tree, id xmltree.NodeID, opt Options) (string, error) {
	s, err := Element(t, id, opt)
	if err != nil {
		return "", err
	}
	return SHA1Hex(s), nil
}

// HashString hashes an arbitrary string under the same digest scheme,
// used for composite keys like "(character, run-properties-signature)"
// (§4.4) that are not themselves XML fragments.
func HashString(s string) string {
	return SHA1Hex(s)
}

// HashOrdered hashes a sequence of already-computed hashes, in order,
// without going through an intermediate map — used to build a Group's
// correlated_sha1 from its children's hashes (§4.5) and to keep the
// result dependent on child order, never on map iteration order (§9).
func HashOrdered(hashes []string) string {
	var b strings.Builder
	for _, h := range hashes {
		b.WriteString(h)
		b.WriteByte('|')
	}
	return SHA1Hex(b.String())
}

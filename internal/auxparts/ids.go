package auxparts

import (
	"strconv"
	"strings"

	"github.com/beevik/etree"
	"github.com/google/uuid"
)

// RenumberDrawingIDs walks tops and assigns fresh, sequential integer IDs
// to every wp:docPr/@id and VML shape @id (§4.9: "renumber shape IDs,
// drawing IDs ... so each is unique within its namespace"). Each side of
// a comparison numbered its drawings independently before the documents
// were merged, so a collision between the two inputs is the common case
// rather than the exception once both sides' drawings end up in one
// output tree.
func RenumberDrawingIDs(tops []*etree.Element, start int) int {
	next := start
	var walk func(*etree.Element)
	walk = func(e *etree.Element) {
		switch {
		case e.Tag == "docPr":
			if e.SelectAttr("id") != nil {
				e.CreateAttr("id", strconv.Itoa(next))
				next++
			}
		case isVMLShapeTag(e.Tag):
			if e.SelectAttr("id") != nil {
				e.CreateAttr("id", strconv.Itoa(next))
				next++
			}
		}
		for _, c := range e.ChildElements() {
			walk(c)
		}
	}
	for _, t := range tops {
		walk(t)
	}
	return next
}

var vmlShapeTags = map[string]bool{
	"shape": true, "rect": true, "oval": true, "line": true,
	"roundrect": true, "polyline": true, "group": true,
}

func isVMLShapeTag(tag string) bool {
	return vmlShapeTags[strings.TrimPrefix(tag, "v:")]
}

// AssignParagraphIDs stamps a fresh w14:paraId/w14:textId pair on every
// reconstructed paragraph. Word treats these as opaque per-save
// identifiers; reconstruction never copies them from either input (they
// aren't in pPr's property whitelist), so every paragraph in a compared
// document gets a freshly minted one, matching how Word itself
// regenerates them on structural edits.
func AssignParagraphIDs(tops []*etree.Element) {
	var walk func(*etree.Element)
	walk = func(e *etree.Element) {
		if e.Tag == "p" {
			id := paraID()
			e.CreateAttr("w14:paraId", id)
			e.CreateAttr("w14:textId", id)
		}
		for _, c := range e.ChildElements() {
			walk(c)
		}
	}
	for _, t := range tops {
		walk(t)
	}
}

func paraID() string {
	raw := strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", ""))
	return raw[:8]
}

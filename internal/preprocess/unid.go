// Package preprocess implements C3: resolving pre-existing revisions so
// both inputs represent current-text state, stripping markup variants
// the comparer does not understand, minting hierarchy IDs (UNIDs) on
// every grouping container, annotating block-level content hashes, and
// the cross-input textbox-UNID normalization step.
package preprocess

import (
	"fmt"

	"github.com/vortex/docx-redline/internal/xmltree"
)

// unidAttr is the attribute the comparer uses to stamp a monotone
// hierarchy ID onto every grouping container. It is stripped from the
// final output once tree reconstruction (C7) no longer needs it, and is
// always excluded from canonical hashing (internal/canon.SkipAttr). Kept
// unprefixed (no namespace) since it is never declared against any real
// xmlns and only ever read back by this package's own SetAttribute/Attr
// calls, which must agree on the exact key etree indexes attributes by.
const unidAttr = "unid"

// groupingContainers is the set of element local names that receive a
// UNID (§4.3 step 3): body, paragraph, table, row, cell,
// textbox-content, footnote, endnote. Header/footer and comment root
// elements are included too; Compare itself does not compare header or
// footer parts and carries them over from the modified input unchanged.
var groupingContainers = map[string]bool{
	"body":        true,
	"p":           true,
	"tbl":         true,
	"tr":          true,
	"tc":          true,
	"txbxContent": true,
	"footnote":    true,
	"endnote":     true,
	"hdr":         true,
	"ftr":         true,
	"comment":     true,
}

// IsGroupingContainer reports whether name is one of the fixed grouping
// container types that receives a UNID and participates in Group
// rollup (§4.3, §4.5).
func IsGroupingContainer(name xmltree.Name) bool {
	return groupingContainers[name.Local]
}

// UNIDCounter mints strictly increasing hierarchy IDs, local to one
// comparison (§5: no process-global state; reset at the start of every
// Compare call).
type UNIDCounter struct {
	next int64
}

// NewUNIDCounter creates a counter starting at 1 (0 is reserved to mean
// "no UNID assigned" when an atom's ancestor chain is queried before
// preprocessing runs).
func NewUNIDCounter() *UNIDCounter { return &UNIDCounter{next: 1} }

// Next mints and returns the next UNID.
func (c *UNIDCounter) Next() int64 {
	v := c.next
	c.next++
	return v
}

// AssignUNIDs walks t depth-first (iteratively, per §9) and stamps a
// fresh UNID on every grouping container that doesn't already carry one.
func AssignUNIDs(t *xmltree.Tree, counter *UNIDCounter) error {
	root := t.Root()
	rootName, err := t.Name(root)
	if err != nil {
		return err
	}
	if IsGroupingContainer(rootName) {
		if err := stampIfMissing(t, root, counter); err != nil {
			return err
		}
	}
	descendants, err := t.Descendants(root)
	if err != nil {
		return err
	}
	for _, id := range descendants {
		name, err := t.Name(id)
		if err != nil {
			return err
		}
		if !IsGroupingContainer(name) {
			continue
		}
		if err := stampIfMissing(t, id, counter); err != nil {
			return err
		}
	}
	return nil
}

func stampIfMissing(t *xmltree.Tree, id xmltree.NodeID, counter *UNIDCounter) error {
	if _, ok, err := t.Attr(id, unidAttr); err != nil {
		return err
	} else if ok {
		return nil
	}
	return t.SetAttribute(id, unidAttr, fmt.Sprintf("%d", counter.Next()))
}

// UNIDOf returns the UNID stamped on id, or 0 if none was assigned
// (meaning id is not a grouping container, or ran before AssignUNIDs).
func UNIDOf(t *xmltree.Tree, id xmltree.NodeID) (int64, error) {
	v, ok, err := t.Attr(id, unidAttr)
	if err != nil || !ok {
		return 0, err
	}
	var n int64
	_, err = fmt.Sscanf(v, "%d", &n)
	return n, err
}

// StripUNIDs removes the bookkeeping attribute from every element in t,
// once C7 has finished using the UNID chain to reconstruct the tree
// (§3 Lifecycles: "UNIDs ... persist through to final tree
// reconstruction, then discarded"). Traversal is iterative (§9).
func StripUNIDs(t *xmltree.Tree, root xmltree.NodeID) error {
	ids := []xmltree.NodeID{root}
	descendants, err := t.Descendants(root)
	if err != nil {
		return err
	}
	ids = append(ids, descendants...)
	for _, id := range ids {
		e, err := t.Element(id)
		if err != nil {
			return err
		}
		e.RemoveAttr(unidAttr)
	}
	return nil
}

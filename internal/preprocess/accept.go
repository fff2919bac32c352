package preprocess

import "github.com/vortex/docx-redline/internal/xmltree"

// wrapperInsertTags are run/paragraph-wrapping elements that mark content
// as already inserted. Accepting them means keeping the wrapped content
// and discarding the wrapper itself (§4.3 step 1).
var wrapperInsertTags = map[string]bool{
	"ins":     true,
	"moveTo":  true,
	"cellIns": true,
}

// wrapperDeleteTags mark content as already deleted. Accepting them means
// discarding the wrapper and everything inside it.
var wrapperDeleteTags = map[string]bool{
	"del":      true,
	"moveFrom": true,
	"cellDel":  true,
}

// propertyChangeTags record a property's pre-revision value inline on a
// pPr/rPr/trPr and carry no content of their own; accepting a revision
// simply drops the record of what the property used to be.
var propertyChangeTags = map[string]bool{
	"rPrChange":    true,
	"pPrChange":    true,
	"tblPrChange":  true,
	"trPrChange":   true,
	"tcPrChange":   true,
	"sectPrChange": true,
}

// AcceptRevisions resolves every pre-existing tracked-revision element
// under root so the tree represents current-text state, as if the
// revisions it already carries had been accepted (§4.3 step 1). Both
// compared inputs are run through this before atomization, since the
// comparer's contract is to diff current states, never to layer new
// revisions on top of old ones.
//
// Traversal collects the elements to act on first (iteratively, via
// Descendants) and mutates afterward, since mutating the tree while a
// child-index-based walk is in flight over the same subtree would
// invalidate sibling positions out from under it.
func AcceptRevisions(t *xmltree.Tree, root xmltree.NodeID) error {
	descendants, err := t.Descendants(root)
	if err != nil {
		return err
	}

	var toUnwrap, toDelete, toStrip []xmltree.NodeID
	for _, id := range descendants {
		name, err := t.Name(id)
		if err != nil {
			return err
		}
		switch {
		case wrapperInsertTags[name.Local]:
			toUnwrap = append(toUnwrap, id)
		case wrapperDeleteTags[name.Local]:
			toDelete = append(toDelete, id)
		case propertyChangeTags[name.Local]:
			toStrip = append(toStrip, id)
		}
	}

	// Deletions first: a wrapper nested inside another wrapper scheduled
	// for deletion is removed along with its ancestor, so skip it if it
	// (or an ancestor) has already been detached.
	for _, id := range toDelete {
		if detached, err := t.IsDetached(id); err != nil || detached {
			continue
		}
		if err := t.Remove(id); err != nil {
			return err
		}
	}
	for _, id := range toUnwrap {
		if detached, err := t.IsDetached(id); err != nil || detached {
			continue
		}
		if err := unwrap(t, id); err != nil {
			return err
		}
	}
	for _, id := range toStrip {
		if detached, err := t.IsDetached(id); err != nil || detached {
			continue
		}
		if err := t.Remove(id); err != nil {
			return err
		}
	}
	return nil
}

// unwrap replaces a wrapper element with its children, splicing them into
// the wrapper's former position in its parent.
func unwrap(t *xmltree.Tree, id xmltree.NodeID) error {
	parent, ok, err := t.Parent(id)
	if err != nil {
		return err
	}
	if !ok {
		// A root-level wrapper (not expected in practice) has nothing to
		// splice into; leave it as-is rather than discarding content.
		return nil
	}
	children, err := t.Children(id)
	if err != nil {
		return err
	}
	anchor := id
	for _, c := range children {
		moved, err := t.MoveAfter(parent, anchor, c)
		if err != nil {
			return err
		}
		anchor = moved
	}
	return t.Remove(id)
}

package preprocess

import (
	"github.com/vortex/docx-redline/internal/canon"
	"github.com/vortex/docx-redline/internal/xmltree"
)

// blockHashAttr is the attribute preprocessing stamps on paragraph/table/
// row containers with their canonical content hash (§4.3 step 4). Only
// BlockHashOf reads it back; C6 does not consult it and matches blocks by
// their Group correlated_sha1 instead.
const blockHashAttr = "blockhash"

// blockLevelContainers is the subset of grouping containers worth
// annotating: paragraphs, tables, and rows are the granularity LCS
// short-circuits at (cells and textbox-content are compared as part of
// their enclosing row/paragraph's content and don't need their own
// cache entry).
var blockLevelContainers = map[string]bool{
	"p":   true,
	"tbl": true,
	"tr":  true,
}

// HashBlocks annotates every paragraph, table, and row under root with a
// canonical content hash attribute (§4.3 step 4), readable through
// BlockHashOf. The LCS engine does not read this attribute.
func HashBlocks(t *xmltree.Tree, root xmltree.NodeID, opt canon.Options) error {
	descendants, err := t.Descendants(root)
	if err != nil {
		return err
	}
	rootName, err := t.Name(root)
	if err != nil {
		return err
	}
	ids := descendants
	if blockLevelContainers[rootName.Local] {
		ids = append([]xmltree.NodeID{root}, descendants...)
	}
	for _, id := range ids {
		name, err := t.Name(id)
		if err != nil {
			return err
		}
		if !blockLevelContainers[name.Local] {
			continue
		}
		hash, err := canon.HashElement(t, id, opt)
		if err != nil {
			return err
		}
		if err := t.SetAttribute(id, blockHashAttr, hash); err != nil {
			return err
		}
	}
	return nil
}

// BlockHashOf returns the cached block-level content hash stamped on id
// by HashBlocks, and whether one was present.
func BlockHashOf(t *xmltree.Tree, id xmltree.NodeID) (string, bool, error) {
	return t.Attr(id, blockHashAttr)
}

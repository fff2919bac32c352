package preprocess

import (
	"github.com/vortex/docx-redline/internal/canon"
	"github.com/vortex/docx-redline/internal/xmltree"
)

// Run applies the four tree-local preprocessing steps to t in order
// (§4.3 steps 1, 2, 3, 4): accept pre-existing revisions, simplify
// unsupported markup, assign UNIDs, then hash blocks. The cross-input
// textbox normalization step (step 5) is not part of Run — it requires
// atoms with correlation status from C6 and is invoked separately by the
// pipeline orchestrator as NormalizeTextboxUNIDs.
func Run(t *xmltree.Tree, counter *UNIDCounter, opt canon.Options) error {
	root := t.Root()

	if err := AcceptRevisions(t, root); err != nil {
		return err
	}
	if err := SimplifyMarkup(t, root); err != nil {
		return err
	}
	if err := AssignUNIDs(t, counter); err != nil {
		return err
	}
	if err := HashBlocks(t, root, opt); err != nil {
		return err
	}
	return nil
}

package preprocess

import "github.com/vortex/docx-redline/internal/cunit"

// TextboxDepth is the ancestor-chain depth NormalizeTextboxUNIDs expects
// a textbox paragraph's enclosing txbxContent at. Ancestors only ever
// records grouping containers (never raw XML nesting), so a textbox
// paragraph's own entry is always depth 0 and its txbxContent is always
// depth 1, regardless of how deeply the surrounding document nests.
const TextboxDepth = 1

// NormalizeTextboxUNIDs implements §4.3's cross-input step. Unlike the
// four tree-local preprocessing steps, it cannot run before atomization: it
// needs each atom's correlation status, which only exists once C6 has
// correlated the two inputs' atom streams. It is grouped with
// preprocessing in name because it is the same kind of bookkeeping
// fixup (ancestor UNID repair), not because it runs in the same pass;
// the pipeline orchestrator calls it after C6 and before C7.
//
// Two textboxes holding equal content in both inputs must carry
// identical ancestor UNIDs so C7's coalesce groups them as one
// container instead of emitting a spurious delete/insert pair. The
// correlated atom stream already agrees on *content*; this step makes
// it agree on *container identity* too.
func NormalizeTextboxUNIDs(atoms []*cunit.Atom, textboxDepth int) {
	groups := groupByTextboxContent(atoms, textboxDepth)
	for _, g := range groups {
		byParagraph := splitByParagraph(g)
		for _, p := range byParagraph {
			ref := pickReferenceAtom(p)
			if ref == nil {
				continue
			}
			propagateAncestors(p, ref, textboxDepth)
		}
	}
}

// groupByTextboxContent partitions atoms into contiguous runs that are
// all inside *some* textbox at the given ancestor depth, preserving atom
// order. The boundary is the presence/absence of an ancestor at
// textboxDepth, not its UNID value: two correlated textboxes hold
// different UNIDs on the two input sides precisely because they were
// minted independently, which is the condition this pass exists to fix,
// so grouping on UNID equality would never merge them in the first
// place. Atoms with no ancestor at textboxDepth are skipped. Presence is
// the only test, so a body, cell or note paragraph (whose depth-1
// ancestor is the body, cell or note) is grouped the same way as a
// textbox paragraph.
func groupByTextboxContent(atoms []*cunit.Atom, textboxDepth int) [][]*cunit.Atom {
	var groups [][]*cunit.Atom
	var current []*cunit.Atom
	inTextbox := false

	flush := func() {
		if len(current) > 0 {
			groups = append(groups, current)
		}
		current = nil
	}

	for _, a := range atoms {
		_, ok := a.UNIDAt(textboxDepth)
		if !ok {
			if inTextbox {
				flush()
			}
			inTextbox = false
			continue
		}
		inTextbox = true
		current = append(current, a)
	}
	flush()
	return groups
}

// splitByParagraph subdivides a textbox-content atom group at paragraph
// boundaries. The boundary is a paragraph-mark atom, not a UNID value,
// for the same reason groupByTextboxContent doesn't split on UNID: the
// two correlated paragraphs a group straddles carry different paragraph
// UNIDs until this very pass normalizes them.
func splitByParagraph(atoms []*cunit.Atom) [][]*cunit.Atom {
	var groups [][]*cunit.Atom
	var current []*cunit.Atom

	for _, a := range atoms {
		current = append(current, a)
		if a.IsParagraphMark() {
			groups = append(groups, current)
			current = nil
		}
	}
	if len(current) > 0 {
		groups = append(groups, current)
	}
	return groups
}

// pickReferenceAtom chooses the atom whose ancestor UNID chain becomes
// canonical for the group: the first Equal atom, or failing that the
// first Deleted atom (§4.3: "Equal, or Deleted as fallback"). A group
// with only Inserted atoms (content present in just one input) has no
// reference and is left alone — there is nothing to normalize against.
func pickReferenceAtom(atoms []*cunit.Atom) *cunit.Atom {
	var fallback *cunit.Atom
	for _, a := range atoms {
		if a.Status == cunit.StatusEqual {
			return a
		}
		if fallback == nil && a.Status == cunit.StatusDeleted {
			fallback = a
		}
	}
	return fallback
}

// propagateAncestors overwrites every atom's ancestor UNID chain, from
// the textbox-content level down to the root of the Ancestors slice,
// with the reference atom's chain at the same levels. It also
// normalizes the paragraph-level UNID (depth 0) whenever the paragraph
// mixes correlated and uncorrelated atoms, per §4.3's explicit carve-out.
func propagateAncestors(atoms []*cunit.Atom, ref *cunit.Atom, textboxDepth int) {
	mixed := paragraphIsMixed(atoms)
	for _, a := range atoms {
		if a == ref {
			continue
		}
		for level := textboxDepth; level < len(a.Ancestors) && level < len(ref.Ancestors); level++ {
			a.Ancestors[level].UNID = ref.Ancestors[level].UNID
			a.Ancestors[level].Node = ref.Ancestors[level].Node
		}
		if mixed && len(a.Ancestors) > 0 && len(ref.Ancestors) > 0 {
			a.Ancestors[0].UNID = ref.Ancestors[0].UNID
			a.Ancestors[0].Node = ref.Ancestors[0].Node
		}
	}
}

func paragraphIsMixed(atoms []*cunit.Atom) bool {
	var sawCorrelated, sawUncorrelated bool
	for _, a := range atoms {
		switch a.Status {
		case cunit.StatusEqual:
			sawCorrelated = true
		case cunit.StatusInserted, cunit.StatusDeleted:
			sawUncorrelated = true
		}
	}
	return sawCorrelated && sawUncorrelated
}

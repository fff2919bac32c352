// Package group implements C5: the two-stage Atoms -> Words -> Groups
// roll-up (§4.5) that turns a flat atom stream into the tree of
// ComparisonUnits the LCS correlation engine operates on.
package group

import (
	"github.com/vortex/docx-redline/internal/cunit"
	"github.com/vortex/docx-redline/internal/xmltree"
)

// Config controls the word-separator set used by the Atoms->Words stage.
// The zero value is not ready to use; call DefaultConfig.
type Config struct {
	Separators map[rune]bool
}

// DefaultConfig returns the source-enumerated default separator set
// (§4.5): space, hyphen, common parenthesis, semicolon, comma, and a
// handful of CJK punctuation marks.
func DefaultConfig() Config {
	seps := []rune{
		' ', '-', '(', ')', ';', ',',
		'、', // CJK ideographic comma
		'。', // CJK ideographic full stop
		'，', // fullwidth comma
		'；', // fullwidth semicolon
		'「', // CJK left corner bracket
		'」', // CJK right corner bracket
	}
	m := make(map[rune]bool, len(seps))
	for _, r := range seps {
		m[r] = true
	}
	return Config{Separators: m}
}

// Words splits an atom stream into Word units (§4.5 stage 1). A
// separator character, a break, or a tab becomes its own singleton
// Word; a paragraph mark terminates whatever Word is open and becomes
// its own Word; every other atom accumulates into the open Word.
func Words(atoms []*cunit.Atom, cfg Config) []*cunit.Unit {
	var words []*cunit.Unit
	var current []*cunit.Atom

	flush := func() {
		if len(current) > 0 {
			words = append(words, cunit.NewWord(current))
			current = nil
		}
	}

	for _, a := range atoms {
		switch {
		case a.Kind == cunit.ContentParagraphMark:
			flush()
			words = append(words, cunit.NewWord([]*cunit.Atom{a}))
		case a.Kind == cunit.ContentBreak || a.Kind == cunit.ContentTab:
			flush()
			words = append(words, cunit.NewWord([]*cunit.Atom{a}))
		case a.Kind == cunit.ContentChar && cfg.Separators[a.Char]:
			flush()
			words = append(words, cunit.NewWord([]*cunit.Atom{a}))
		default:
			current = append(current, a)
		}
	}
	flush()
	return words
}

// groupKindOf maps a grouping-container element name to the GroupKind it
// forms, and reports whether the name participates in the Group
// hierarchy at all — part-level roots (body, footnote, endnote, header,
// footer, comment) bound a part but are not themselves a GroupKind.
func groupKindOf(local string) (cunit.GroupKind, bool) {
	switch local {
	case "p":
		return cunit.GroupParagraph, true
	case "tr":
		return cunit.GroupRow, true
	case "tc":
		return cunit.GroupCell, true
	case "tbl":
		return cunit.GroupTable, true
	case "txbxContent":
		return cunit.GroupTextbox, true
	default:
		return 0, false
	}
}

// containerPath returns a Word's enclosing Group-forming ancestors in
// root-to-leaf order (Atom.Ancestors is recorded nearest-first, so this
// reverses it and drops part-level roots that have no GroupKind), along
// with the source tree those ancestors' NodeIDs live in. Word units
// never set their own Tree field (only Groups do), so this reads it off
// the Word's first atom instead.
func containerPath(w *cunit.Unit) ([]cunit.Ancestor, *xmltree.Tree) {
	atoms := w.FlattenAtoms()
	if len(atoms) == 0 {
		return nil, nil
	}
	ancestors := atoms[0].Ancestors
	var path []cunit.Ancestor
	for i := len(ancestors) - 1; i >= 0; i-- {
		if _, ok := groupKindOf(ancestors[i].Name.Local); ok {
			path = append(path, ancestors[i])
		}
	}
	return path, atoms[0].Tree
}

// frame is one open Group being accumulated on the build stack.
type frame struct {
	unid     int64
	kind     cunit.GroupKind
	node     xmltree.NodeID
	tree     *xmltree.Tree
	children []*cunit.Unit
}

// Groups folds a sequence of Words into the Group tree described by
// their ancestor_unids (§4.5 stage 2), returning the top-level units in
// document order (siblings directly under the part root — typically
// top-level paragraphs and tables).
func Groups(words []*cunit.Unit) []*cunit.Unit {
	var stack []frame
	var top []*cunit.Unit

	closeFrame := func() {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		g := cunit.NewGroup(f.kind, f.unid, f.children)
		g.Node = f.node
		g.Tree = f.tree
		if len(stack) == 0 {
			top = append(top, g)
		} else {
			parent := &stack[len(stack)-1]
			parent.children = append(parent.children, g)
		}
	}

	for _, w := range words {
		path, tree := containerPath(w)

		common := 0
		for common < len(stack) && common < len(path) &&
			stack[common].unid == path[common].UNID && stack[common].kind == groupKindMustBe(path[common]) {
			common++
		}
		for len(stack) > common {
			closeFrame()
		}
		for i := common; i < len(path); i++ {
			kind, _ := groupKindOf(path[i].Name.Local)
			stack = append(stack, frame{unid: path[i].UNID, kind: kind, node: path[i].Node, tree: tree})
		}

		if len(stack) == 0 {
			top = append(top, w)
			continue
		}
		last := &stack[len(stack)-1]
		last.children = append(last.children, w)
	}
	for len(stack) > 0 {
		closeFrame()
	}
	return top
}

func groupKindMustBe(a cunit.Ancestor) cunit.GroupKind {
	kind, _ := groupKindOf(a.Name.Local)
	return kind
}

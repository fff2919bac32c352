// Package reconstruct implements C7: rebuilding a WordprocessingML
// subtree from a correlated atom stream. Where C6 only classifies
// content as Equal/Deleted/Inserted, this package materializes that
// classification back into real elements — paragraphs, runs, table
// rows/cells — nested the way the original ancestor_unids chain says
// they were nested, with each synthesized run/paragraph/cell carrying a
// transient, unprefixed "revStatus" bookkeeping attribute (mirroring
// the unid/blockhash convention from internal/preprocess) that
// internal/revision reads to decide how to wrap or strip it.
package reconstruct

import (
	"github.com/beevik/etree"

	"github.com/vortex/docx-redline/internal/cunit"
	"github.com/vortex/docx-redline/internal/xmltree"
)

// revStatus values. Unprefixed and stripped by internal/revision once
// consumed; never written to the final serialized document.
const (
	attrRevStatus    = "revStatus"
	attrRevFmtOther  = "revFmtOther"
	statusIns        = "ins"
	statusDel        = "del"
	statusFmtChanged = "fmt"
)

// containerTags maps a grouping container's local name to the element
// tag reconstruction creates for it.
var containerTags = map[string]string{
	"p":           "w:p",
	"tr":          "w:tr",
	"tc":          "w:tc",
	"tbl":         "w:tbl",
	"txbxContent": "w:txbxContent",
}

// Flatten stamps each sequence's Status onto its atoms and concatenates
// them in sequence order, picking the Left side as canonical for Equal
// spans (both sides hash-identical once correlation accepted them) and
// the Right side, respectively Left side, for Inserted/Deleted spans.
func Flatten(seqs []cunit.CorrelatedSequence) []*cunit.Atom {
	var out []*cunit.Atom
	for _, s := range seqs {
		switch s.Status {
		case cunit.StatusEqual:
			for _, a := range s.Left {
				a.Status = cunit.StatusEqual
				out = append(out, a)
			}
		case cunit.StatusDeleted:
			for _, a := range s.Left {
				a.Status = cunit.StatusDeleted
				out = append(out, a)
			}
		case cunit.StatusInserted:
			for _, a := range s.Right {
				a.Status = cunit.StatusInserted
				out = append(out, a)
			}
		case cunit.StatusFormatChanged:
			for i, a := range s.Left {
				a.Status = cunit.StatusFormatChanged
				if i < len(s.Right) {
					a.FormatHashOther = s.Right[i].RunPropsSig
				}
				out = append(out, a)
			}
		}
	}
	return out
}

// frame is one open container being accumulated on the build stack.
type frame struct {
	unid  int64
	local string
	elem  *etree.Element
	node  xmltree.NodeID // the container's own original NodeID, for property copy
	tree  *xmltree.Tree
}

// Build reconstructs an ordered list of top-level elements (paragraphs
// and tables directly under the part root) from a flattened,
// status-stamped atom stream.
func Build(atoms []*cunit.Atom) []*etree.Element {
	var stack []frame
	var top []*etree.Element
	var run *runBuilder

	closeFrame := func() {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		copyContainerProps(f)
		if len(stack) == 0 {
			top = append(top, f.elem)
		} else {
			stack[len(stack)-1].elem.AddChild(f.elem)
		}
	}

	flushRun := func() {
		if run != nil && len(stack) > 0 {
			stack[len(stack)-1].elem.AddChild(run.build())
		}
		run = nil
	}

	for _, a := range atoms {
		path := containerPath(a)

		common := 0
		for common < len(stack) && common < len(path) && stack[common].unid == path[common].UNID {
			common++
		}
		if common < len(stack) {
			flushRun()
		}
		for len(stack) > common {
			closeFrame()
		}
		for i := common; i < len(path); i++ {
			local := path[i].Name.Local
			tag, ok := containerTags[local]
			if !ok {
				tag = "w:" + local
			}
			stack = append(stack, frame{
				unid:  path[i].UNID,
				local: local,
				elem:  xmltree.NewElement(tag),
				node:  path[i].Node,
				tree:  a.Tree,
			})
		}

		if a.Kind == cunit.ContentParagraphMark {
			flushRun()
			if len(stack) > 0 {
				markParagraphEnd(&stack[len(stack)-1], a)
			}
			continue
		}

		if a.Kind == cunit.ContentChar {
			if run == nil || !run.accepts(a) {
				flushRun()
				run = newRunBuilder(a)
			}
			run.append(a)
			continue
		}

		flushRun()
		if len(stack) > 0 {
			stack[len(stack)-1].elem.AddChild(standaloneElement(a))
		} else {
			top = append(top, standaloneElement(a))
		}
	}
	flushRun()
	for len(stack) > 0 {
		closeFrame()
	}
	return top
}

// containerPath mirrors internal/group's containerPath: the ancestor
// chain filtered to grouping containers, root-to-leaf.
func containerPath(a *cunit.Atom) []cunit.Ancestor {
	var path []cunit.Ancestor
	for i := len(a.Ancestors) - 1; i >= 0; i-- {
		if _, ok := containerTags[a.Ancestors[i].Name.Local]; ok {
			path = append(path, a.Ancestors[i])
		}
	}
	return path
}

// copyContainerProps deep-copies the whitelisted property child (pPr,
// tblPr+tblGrid, trPr, tcPr) from the container that opened this frame
// onto the synthesized element, per the fixed per-container-type
// whitelist the format keeps these elements to.
func copyContainerProps(f frame) {
	if f.tree == nil {
		return
	}
	orig, err := f.tree.Element(f.node)
	if err != nil {
		return
	}
	var propNames []string
	switch f.local {
	case "p":
		propNames = []string{"pPr"}
	case "tbl":
		propNames = []string{"tblPr", "tblGrid"}
	case "tr":
		propNames = []string{"trPr"}
	case "tc":
		propNames = []string{"tcPr"}
	}
	for _, name := range propNames {
		if child := childElement(orig, name); child != nil {
			f.elem.AddChild(child.Copy())
		}
	}
}

func childElement(e *etree.Element, local string) *etree.Element {
	for _, c := range e.ChildElements() {
		if c.Tag == local {
			return c
		}
	}
	return nil
}

// markParagraphEnd records the paragraph mark's own revision status (it
// tracks the paragraph boundary itself, not any run) as a revStatus
// attribute directly on the synthesized <w:p>, for internal/revision to
// fold into <w:pPr>/<w:rPr>/<w:ins|w:del> once IDs are assigned.
func markParagraphEnd(f *frame, a *cunit.Atom) {
	switch a.Status {
	case cunit.StatusInserted:
		f.elem.CreateAttr(attrRevStatus, statusIns)
	case cunit.StatusDeleted:
		f.elem.CreateAttr(attrRevStatus, statusDel)
	}
}

// standaloneElement copies a non-text structural atom's original
// element (break, tab, drawing, math/OLE, reference, comment-range
// boundary, hyperlink boundary) and tags it with its revision status.
func standaloneElement(a *cunit.Atom) *etree.Element {
	var orig *etree.Element
	if a.Tree != nil {
		orig, _ = a.Tree.Element(a.Node)
	}
	var copyEl *etree.Element
	if orig != nil {
		copyEl = orig.Copy()
	} else {
		copyEl = xmltree.NewElement("w:br")
	}
	wrapper := xmltree.NewElement("w:r")
	wrapper.AddChild(copyEl)
	tagRevStatus(wrapper, a)
	return wrapper
}

func tagRevStatus(e *etree.Element, a *cunit.Atom) {
	switch a.Status {
	case cunit.StatusInserted:
		e.CreateAttr(attrRevStatus, statusIns)
	case cunit.StatusDeleted:
		e.CreateAttr(attrRevStatus, statusDel)
	case cunit.StatusFormatChanged:
		e.CreateAttr(attrRevStatus, statusFmtChanged)
		e.CreateAttr(attrRevFmtOther, a.FormatHashOther)
	}
}

package xmltree

import (
	"bytes"
	"fmt"

	"github.com/beevik/etree"
)

// NodeID is a stable identifier for a node within a Tree's arena. IDs are
// never reused and remain valid for the lifetime of the Tree even after
// the node they name has been removed from the document (Node then
// reports IsDetached).
type NodeID int

// InvalidRefError is returned when a NodeID is presented to a Tree that
// did not mint it, or that has since been released.
type InvalidRefError struct {
	ID NodeID
}

func (e *InvalidRefError) Error() string {
	return fmt.Sprintf("xmltree: invalid node reference %d", e.ID)
}

// XmlParseError wraps a malformed-input failure from the underlying parser.
type XmlParseError struct{ cause error }

func (e *XmlParseError) Error() string { return fmt.Sprintf("xmltree: parse: %v", e.cause) }
func (e *XmlParseError) Unwrap() error { return e.cause }

const procInst = `version="1.0" encoding="UTF-8" standalone="yes"`

// Tree is an arena of XML nodes backed by an *etree.Document. Every
// *etree.Element and text-bearing token encountered is assigned a stable
// NodeID the first time it is seen; the mapping is retained for the life
// of the Tree so repeated lookups are O(1) and unrelated IDs are never
// invalidated by mutation elsewhere in the tree.
type Tree struct {
	doc      *etree.Document
	byID     []*etree.Element
	idOf     map[*etree.Element]NodeID
	parentOf map[*etree.Element]*etree.Element
	detached map[*etree.Element]bool
}

// Parse parses bytes into a new Tree rooted at the document element.
func Parse(data []byte) (*Tree, error) {
	doc := etree.NewDocument()
	doc.ReadSettings.Permissive = true
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, &XmlParseError{cause: err}
	}
	if doc.Root() == nil {
		return nil, &XmlParseError{cause: fmt.Errorf("no root element")}
	}
	t := &Tree{
		doc:      doc,
		idOf:     make(map[*etree.Element]NodeID),
		parentOf: make(map[*etree.Element]*etree.Element),
		detached: make(map[*etree.Element]bool),
	}
	t.register(doc.Root(), nil)
	return t, nil
}

// register assigns a NodeID to e (if it doesn't have one already) and
// records its parent. It does not descend into children: children are
// registered lazily, on first traversal, so that Parse is O(1) in
// document size rather than eagerly walking the whole tree twice.
func (t *Tree) register(e *etree.Element, parent *etree.Element) NodeID {
	if id, ok := t.idOf[e]; ok {
		return id
	}
	id := NodeID(len(t.byID))
	t.byID = append(t.byID, e)
	t.idOf[e] = id
	t.parentOf[e] = parent
	return id
}

// Root returns the NodeID of the document's root element.
func (t *Tree) Root() NodeID {
	return t.idOf[t.doc.Root()]
}

func (t *Tree) element(id NodeID) (*etree.Element, error) {
	if id < 0 || int(id) >= len(t.byID) || t.byID[id] == nil {
		return nil, &InvalidRefError{ID: id}
	}
	return t.byID[id], nil
}

// Element returns the raw *etree.Element backing id. This is an escape
// hatch for components (C7/C8) that must build or splice real etree
// structure directly; most callers should prefer the typed accessors
// below.
func (t *Tree) Element(id NodeID) (*etree.Element, error) {
	return t.element(id)
}

// MustElement panics on an invalid ref; used in call sites where the ID
// was only just minted by this same Tree.
func (t *Tree) MustElement(id NodeID) *etree.Element {
	e, err := t.element(id)
	if err != nil {
		panic(err)
	}
	return e
}

// Name returns the namespace-qualified name of the element at id.
func (t *Tree) Name(id NodeID) (Name, error) {
	e, err := t.element(id)
	if err != nil {
		return Name{}, err
	}
	return elementName(e), nil
}

func elementName(e *etree.Element) Name {
	if e.Space == "" {
		return Name{Local: e.Tag}
	}
	if uri, ok := Nsmap[e.Space]; ok {
		return Name{URI: uri, Local: e.Tag}
	}
	return Name{URI: e.Space, Local: e.Tag}
}

// Attribute is an ordered (name, value) pair. Attributes are always
// returned/stored in input storage order (§3 XAttribute) — never through
// an unordered map.
type Attribute struct {
	Name  Name
	Value string
}

// Attrs returns the element's attributes in storage order.
func (t *Tree) Attrs(id NodeID) ([]Attribute, error) {
	e, err := t.element(id)
	if err != nil {
		return nil, err
	}
	out := make([]Attribute, len(e.Attr))
	for i, a := range e.Attr {
		name := Name{Local: a.Key}
		if a.Space != "" {
			if uri, ok := Nsmap[a.Space]; ok {
				name.URI = uri
			} else {
				name.URI = a.Space
			}
		}
		out[i] = Attribute{Name: name, Value: a.Value}
	}
	return out, nil
}

// Attr returns the value of the named attribute and whether it was present.
func (t *Tree) Attr(id NodeID, local string) (string, bool, error) {
	e, err := t.element(id)
	if err != nil {
		return "", false, err
	}
	if a := e.SelectAttr(local); a != nil {
		return a.Value, true, nil
	}
	return "", false, nil
}

// SetAttribute sets an attribute's value, preserving its position if the
// name is already present and appending it otherwise (§4.1).
func (t *Tree) SetAttribute(id NodeID, local, value string) error {
	e, err := t.element(id)
	if err != nil {
		return err
	}
	if a := e.SelectAttr(local); a != nil {
		a.Value = value
		return nil
	}
	e.CreateAttr(local, value)
	return nil
}

// Children returns the NodeIDs of id's direct element children, in
// document order, registering any not yet seen.
func (t *Tree) Children(id NodeID) ([]NodeID, error) {
	e, err := t.element(id)
	if err != nil {
		return nil, err
	}
	kids := e.ChildElements()
	out := make([]NodeID, len(kids))
	for i, k := range kids {
		out[i] = t.register(k, e)
	}
	return out, nil
}

// Parent returns the NodeID of id's parent element, or ok=false at the root.
func (t *Tree) Parent(id NodeID) (NodeID, bool, error) {
	e, err := t.element(id)
	if err != nil {
		return 0, false, err
	}
	parent, tracked := t.parentOf[e]
	if !tracked || parent == nil {
		return 0, false, nil
	}
	return t.register(parent, nil), true, nil
}

// Text returns the literal concatenation of this element's direct
// character-data children (not descendants). Used for leaf text elements
// like w:t / w:delText / w:instrText.
func (t *Tree) Text(id NodeID) (string, error) {
	e, err := t.element(id)
	if err != nil {
		return "", err
	}
	return e.Text(), nil
}

// AddChild appends child as the last child of parent and registers it.
func (t *Tree) AddChild(parent NodeID, child *etree.Element) (NodeID, error) {
	pe, err := t.element(parent)
	if err != nil {
		return 0, err
	}
	pe.AddChild(child)
	return t.register(child, pe), nil
}

// InsertBefore inserts newChild immediately before existing within its
// parent's child list.
func (t *Tree) InsertBefore(parent, existing NodeID, newChild *etree.Element) (NodeID, error) {
	pe, err := t.element(parent)
	if err != nil {
		return 0, err
	}
	ee, err := t.element(existing)
	if err != nil {
		return 0, err
	}
	pe.InsertChildAt(indexOf(pe, ee), newChild)
	return t.register(newChild, pe), nil
}

// InsertAfter inserts newChild immediately after existing within its
// parent's child list.
func (t *Tree) InsertAfter(parent, existing NodeID, newChild *etree.Element) (NodeID, error) {
	pe, err := t.element(parent)
	if err != nil {
		return 0, err
	}
	ee, err := t.element(existing)
	if err != nil {
		return 0, err
	}
	pe.InsertChildAt(indexOf(pe, ee)+1, newChild)
	return t.register(newChild, pe), nil
}

// MoveAfter relocates an already-registered node so it becomes a child of
// newParent, immediately after existing (or first, if existing is the
// zero NodeID... callers pass a real sibling or use AddChild for that
// case). Unlike InsertBefore/InsertAfter with a fresh element, this
// detaches node from its current parent first and repoints parentOf,
// since register is a no-op for IDs it has already minted (§9: splicing
// an accepted revision's children back into the tree must not leave the
// node listed under two parents at once).
func (t *Tree) MoveAfter(newParent, existing, node NodeID) (NodeID, error) {
	npe, err := t.element(newParent)
	if err != nil {
		return 0, err
	}
	ne, err := t.element(node)
	if err != nil {
		return 0, err
	}
	if old, ok := t.parentOf[ne]; ok && old != nil {
		old.RemoveChild(ne)
	}
	ee, err := t.element(existing)
	if err != nil {
		return 0, err
	}
	npe.InsertChildAt(indexOf(npe, ee)+1, ne)
	t.parentOf[ne] = npe
	return node, nil
}

func indexOf(parent, child *etree.Element) int {
	for i, tok := range parent.Child {
		if el, ok := tok.(*etree.Element); ok && el == child {
			return i
		}
	}
	return len(parent.Child)
}

// Replace swaps the element at old for replacement within its parent.
func (t *Tree) Replace(old NodeID, replacement *etree.Element) (NodeID, error) {
	oe, err := t.element(old)
	if err != nil {
		return 0, err
	}
	parent, ok := t.parentOf[oe]
	if !ok || parent == nil {
		return 0, fmt.Errorf("xmltree: cannot replace root element")
	}
	parent.InsertChildAt(indexOf(parent, oe), replacement)
	parent.RemoveChild(oe)
	return t.register(replacement, parent), nil
}

// Remove detaches id from its parent. The NodeID remains valid for
// lookups (Element/Name/Attrs still work) but Parent/Children traversal
// from the removed node no longer reaches the live tree.
func (t *Tree) Remove(id NodeID) error {
	e, err := t.element(id)
	if err != nil {
		return err
	}
	parent, ok := t.parentOf[e]
	if !ok || parent == nil {
		return fmt.Errorf("xmltree: cannot remove root element")
	}
	parent.RemoveChild(e)
	t.detached[e] = true
	return nil
}

// IsDetached reports whether id (or any of its recorded ancestors) has
// been removed from the tree via Remove. parentOf is never updated by
// Remove itself, so this walks the recorded parent chain rather than
// asking the live etree structure, and stops as soon as it finds a
// detached node — it does not need to reach the root once it knows one.
func (t *Tree) IsDetached(id NodeID) (bool, error) {
	e, err := t.element(id)
	if err != nil {
		return false, err
	}
	for cur := e; cur != nil; cur = t.parentOf[cur] {
		if t.detached[cur] {
			return true, nil
		}
	}
	return false, nil
}

// Descendants performs an iterative (explicit-stack) depth-first walk of
// id's element descendants, in document order. Recursion is avoided per
// §9: adversarial documents can nest thousands of levels deep.
func (t *Tree) Descendants(id NodeID) ([]NodeID, error) {
	return t.walk(id, nil)
}

// DescendantsTrimmed walks id's descendants but does not descend into any
// element for which stop returns true: the matched element itself is
// still yielded, traversal simply does not enter its children. This is
// the standard way to walk main-document content without re-entering
// textbox content (§4.1).
func (t *Tree) DescendantsTrimmed(id NodeID, stop func(Name) bool) ([]NodeID, error) {
	return t.walk(id, stop)
}

func (t *Tree) walk(id NodeID, stop func(Name) bool) ([]NodeID, error) {
	root, err := t.element(id)
	if err != nil {
		return nil, err
	}
	var out []NodeID
	// Explicit stack of "remaining sibling slices", mirroring the
	// iterative-DFS idiom used throughout this codebase's XML layer.
	type frame struct {
		parent   *etree.Element
		siblings []*etree.Element
	}
	stack := []frame{{parent: root, siblings: root.ChildElements()}}
	for len(stack) > 0 {
		top := len(stack) - 1
		f := stack[top]
		if len(f.siblings) == 0 {
			stack = stack[:top]
			continue
		}
		child := f.siblings[0]
		stack[top].siblings = f.siblings[1:]
		childID := t.register(child, f.parent)
		out = append(out, childID)
		if stop != nil && stop(elementName(child)) {
			continue // yield but do not descend
		}
		if kids := child.ChildElements(); len(kids) > 0 {
			stack = append(stack, frame{parent: child, siblings: kids})
		}
	}
	return out, nil
}

// Serialize renders id and its subtree to bytes: attributes in storage
// order, canonical end tags, and whitespace and namespace prefixes
// exactly as they were parsed (§4.1).
func (t *Tree) Serialize(id NodeID) ([]byte, error) {
	e, err := t.element(id)
	if err != nil {
		return nil, err
	}
	doc := etree.NewDocument()
	doc.WriteSettings.CanonicalEndTags = true
	doc.SetRoot(e.Copy())
	var buf bytes.Buffer
	if _, err := doc.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("xmltree: serialize: %w", err)
	}
	return buf.Bytes(), nil
}

// SerializeDocument renders the whole tree with the standard OOXML part
// XML declaration, suitable for writing back into a package part.
func (t *Tree) SerializeDocument() ([]byte, error) {
	out := etree.NewDocument()
	out.CreateProcInst("xml", procInst)
	out.WriteSettings.CanonicalEndTags = true
	out.SetRoot(t.doc.Root().Copy())
	var buf bytes.Buffer
	if _, err := out.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("xmltree: serialize document: %w", err)
	}
	return buf.Bytes(), nil
}

// NewElement creates a detached element with the given namespace-prefixed
// tag (e.g. "w:r"), ready to be attached via AddChild/InsertBefore/After.
func NewElement(prefixedTag string) *etree.Element {
	n := QName(prefixedTag)
	e := etree.NewElement(n.Local)
	if pfx, local, ok := cutPrefix(prefixedTag); ok {
		e.Space = pfx
		e.Tag = local
	}
	return e
}

func cutPrefix(s string) (prefix, local string, ok bool) {
	for i := 0; i < len(s); i++ {
		if s[i] == ':' {
			return s[:i], s[i+1:], true
		}
	}
	return "", s, false
}

package xmltree

import (
	"strings"
	"testing"
)

const sampleDoc = `<root xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
	<w:p w:rsidR="00AA1111"><w:r><w:t>Hello</w:t></w:r></w:p>
	<w:p><w:r><w:t>World</w:t></w:r></w:p>
</root>`

func TestParse_RegistersRoot(t *testing.T) {
	tree, err := Parse([]byte(sampleDoc))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	root := tree.Root()
	name, err := tree.Name(root)
	if err != nil {
		t.Fatalf("Name: %v", err)
	}
	if name.Local != "root" {
		t.Errorf("root local name = %q, want %q", name.Local, "root")
	}
}

func TestParse_RejectsMalformedInput(t *testing.T) {
	if _, err := Parse([]byte("<unclosed>")); err == nil {
		t.Errorf("expected error parsing malformed XML, got nil")
	}
}

func TestChildren_RegistersLazily(t *testing.T) {
	tree, err := Parse([]byte(sampleDoc))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	children, err := tree.Children(tree.Root())
	if err != nil {
		t.Fatalf("Children: %v", err)
	}
	if len(children) != 2 {
		t.Fatalf("got %d children, want 2", len(children))
	}
	name, _ := tree.Name(children[0])
	if name.Local != "p" {
		t.Errorf("first child local name = %q, want %q", name.Local, "p")
	}
}

func TestDescendants_VisitsInDocumentOrder(t *testing.T) {
	tree, err := Parse([]byte(sampleDoc))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	descendants, err := tree.Descendants(tree.Root())
	if err != nil {
		t.Fatalf("Descendants: %v", err)
	}
	var order []string
	for _, id := range descendants {
		name, _ := tree.Name(id)
		order = append(order, name.Local)
	}
	want := "p r t p r t"
	if strings.Join(order, " ") != want {
		t.Errorf("visit order = %q, want %q", strings.Join(order, " "), want)
	}
}

func TestDescendantsTrimmed_StopsDescendingButYieldsMatch(t *testing.T) {
	tree, err := Parse([]byte(sampleDoc))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	descendants, err := tree.DescendantsTrimmed(tree.Root(), func(n Name) bool {
		return n.Local == "r"
	})
	if err != nil {
		t.Fatalf("DescendantsTrimmed: %v", err)
	}
	var order []string
	for _, id := range descendants {
		name, _ := tree.Name(id)
		order = append(order, name.Local)
	}
	want := "p r p r"
	if strings.Join(order, " ") != want {
		t.Errorf("visit order = %q, want %q (t should not appear)", strings.Join(order, " "), want)
	}
}

func TestRemove_DetachesFromParent(t *testing.T) {
	tree, err := Parse([]byte(sampleDoc))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	root := tree.Root()
	children, _ := tree.Children(root)
	first := children[0]

	if err := tree.Remove(first); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	after, err := tree.Children(root)
	if err != nil {
		t.Fatalf("Children after remove: %v", err)
	}
	if len(after) != 1 {
		t.Fatalf("got %d children after remove, want 1", len(after))
	}

	detached, err := tree.IsDetached(first)
	if err != nil {
		t.Fatalf("IsDetached: %v", err)
	}
	if !detached {
		t.Errorf("IsDetached(removed node) = false, want true")
	}
}

func TestIsDetached_FalseForLiveNode(t *testing.T) {
	tree, err := Parse([]byte(sampleDoc))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	children, _ := tree.Children(tree.Root())
	detached, err := tree.IsDetached(children[0])
	if err != nil {
		t.Fatalf("IsDetached: %v", err)
	}
	if detached {
		t.Errorf("IsDetached(live node) = true, want false")
	}
}

func TestMoveAfter_RepositionsAndRepointsParent(t *testing.T) {
	tree, err := Parse([]byte(sampleDoc))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	root := tree.Root()
	children, _ := tree.Children(root)
	first, second := children[0], children[1]

	firstChildren, err := tree.Children(first)
	if err != nil {
		t.Fatalf("Children(first): %v", err)
	}
	run := firstChildren[0] // the <w:r> inside the first <w:p>

	moved, err := tree.MoveAfter(root, second, run)
	if err != nil {
		t.Fatalf("MoveAfter: %v", err)
	}
	if moved != run {
		t.Errorf("MoveAfter returned %d, want %d", moved, run)
	}

	rootChildren, err := tree.Children(root)
	if err != nil {
		t.Fatalf("Children(root) after move: %v", err)
	}
	if len(rootChildren) != 3 {
		t.Fatalf("got %d root children after move, want 3", len(rootChildren))
	}
	if rootChildren[2] != run {
		t.Errorf("moved run is not last root child: %v", rootChildren)
	}

	parent, ok, err := tree.Parent(run)
	if err != nil {
		t.Fatalf("Parent: %v", err)
	}
	if !ok || parent != root {
		t.Errorf("Parent(moved run) = (%d, %v), want (%d, true)", parent, ok, root)
	}

	firstChildrenAfter, err := tree.Children(first)
	if err != nil {
		t.Fatalf("Children(first) after move: %v", err)
	}
	if len(firstChildrenAfter) != 0 {
		t.Errorf("run still listed under its old parent: %v", firstChildrenAfter)
	}
}

func TestSerialize_RoundTripsText(t *testing.T) {
	tree, err := Parse([]byte(sampleDoc))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	out, err := tree.Serialize(tree.Root())
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	if !strings.Contains(string(out), "Hello") || !strings.Contains(string(out), "World") {
		t.Errorf("serialized output missing text: %s", out)
	}
}

func TestNewElement_ParsesPrefixedTag(t *testing.T) {
	e := NewElement("w:ins")
	if e.Tag != "ins" || e.Space != "w" {
		t.Errorf("NewElement(%q) = {Space:%q Tag:%q}, want {w ins}", "w:ins", e.Space, e.Tag)
	}
}

func TestSetAttribute_PreservesPositionWhenPresent(t *testing.T) {
	tree, err := Parse([]byte(sampleDoc))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	children, _ := tree.Children(tree.Root())
	first := children[0]
	if err := tree.SetAttribute(first, "rsidR", "00CC3333"); err != nil {
		t.Fatalf("SetAttribute: %v", err)
	}
	val, ok, err := tree.Attr(first, "rsidR")
	if err != nil {
		t.Fatalf("Attr: %v", err)
	}
	if !ok || val != "00CC3333" {
		t.Errorf("Attr(rsidR) = (%q, %v), want (00CC3333, true)", val, ok)
	}
	attrs, err := tree.Attrs(first)
	if err != nil {
		t.Fatalf("Attrs: %v", err)
	}
	if len(attrs) != 1 {
		t.Errorf("got %d attrs, want 1 (overwrite, not append)", len(attrs))
	}
}

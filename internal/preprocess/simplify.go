package preprocess

import "github.com/vortex/docx-redline/internal/xmltree"

// discardTags are elements the comparer does not understand and unwraps
// before atomization, dropping the element and keeping any content it
// wraps (§4.3 step 2): spelling/grammar
// proofing markers carry no content and no semantic weight for a
// text-level diff, and smart-tag wrappers are a compatibility shim for an
// editor feature no longer relevant once the document is read back.
var discardTags = map[string]bool{
	"proofErr": true,
	"smartTag": true,
}

// alternateContentTag and its children, namespaced under "mc" rather than
// "w" (§4.3 step 2: mc:AlternateContent / mc:Choice / mc:Fallback).
const (
	alternateContentTag = "AlternateContent"
	choiceTag           = "Choice"
	fallbackTag         = "Fallback"
)

// allowedExtensionRequires is the whitelist of markup-compatibility
// "Requires" namespace prefixes the comparer accepts a Choice branch for.
// Anything else falls through to Fallback, and if no Fallback is present
// the AlternateContent is dropped entirely rather than left ambiguous.
var allowedExtensionRequires = map[string]bool{
	"w14":  true,
	"w15":  true,
	"wp14": true,
}

// SimplifyMarkup removes markup variants the comparer does not model
// (§4.3 step 2): proofing-error and smart-tag wrappers are discarded
// outright (unwrapped, keeping their content — they never bound a
// deletion the way a revision wrapper does); mc:AlternateContent is
// resolved to whichever single branch applies, collapsing the
// compatibility wrapper so atomization sees one unambiguous subtree.
func SimplifyMarkup(t *xmltree.Tree, root xmltree.NodeID) error {
	descendants, err := t.Descendants(root)
	if err != nil {
		return err
	}

	var toUnwrap, toResolve []xmltree.NodeID
	for _, id := range descendants {
		name, err := t.Name(id)
		if err != nil {
			return err
		}
		switch {
		case discardTags[name.Local]:
			toUnwrap = append(toUnwrap, id)
		case name.Local == alternateContentTag:
			toResolve = append(toResolve, id)
		}
	}

	for _, id := range toResolve {
		if detached, err := t.IsDetached(id); err != nil || detached {
			continue
		}
		if err := resolveAlternateContent(t, id); err != nil {
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
	return nil
}

// resolveAlternateContent replaces an mc:AlternateContent element with the
// single branch the comparer accepts: the first mc:Choice whose Requires
// attribute names only whitelisted extension namespaces, or the
// mc:Fallback if none match, or nothing at all if neither is usable.
func resolveAlternateContent(t *xmltree.Tree, id xmltree.NodeID) error {
	children, err := t.Children(id)
	if err != nil {
		return err
	}

	var chosen xmltree.NodeID
	var found bool
	var fallback xmltree.NodeID
	var hasFallback bool
	for _, c := range children {
		name, err := t.Name(c)
		if err != nil {
			return err
		}
		switch name.Local {
		case choiceTag:
			if found {
				continue
			}
			requires, _, err := t.Attr(c, "Requires")
			if err != nil {
				return err
			}
			if isAllowedRequires(requires) {
				chosen, found = c, true
			}
		case fallbackTag:
			fallback, hasFallback = c, true
		}
	}
	if !found && hasFallback {
		chosen, found = fallback, true
	}
	if !found {
		return t.Remove(id)
	}

	// Drop every sibling branch except the chosen one before splicing it
	// into the AlternateContent element's position, then unwrap that
	// element so the branch's own children take its place.
	for _, c := range children {
		if c == chosen {
			continue
		}
		if err := t.Remove(c); err != nil {
			return err
		}
	}
	if err := unwrap(t, chosen); err != nil {
		return err
	}
	return unwrap(t, id)
}

func isAllowedRequires(requires string) bool {
	if requires == "" {
		return false
	}
	return allowedExtensionRequires[requires]
}

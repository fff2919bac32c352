// Package auxparts implements C9: per-reference footnote/endnote
// comparison, comment-range preservation, and the post-reconstruction ID
// fix-ups a merged document needs once content from two independent
// inputs is spliced together (§4.9).
package auxparts

import (
	"github.com/vortex/docx-redline/internal/canon"
	"github.com/vortex/docx-redline/internal/cunit"
	"github.com/vortex/docx-redline/internal/lcs"
	"github.com/vortex/docx-redline/internal/revision"
)

// Settings bundles the per-run tuning auxparts needs from the caller.
// It mirrors the relevant subset of redline.Settings rather than
// importing pkg/redline, keeping internal/ packages free of a dependency
// on the public API they are assembled into.
type Settings struct {
	LCS      lcs.Settings
	Canon    canon.Options
	Revision revision.Settings
}

// Reference is one footnote/endnote reference found while atomizing a
// main-document (or header/footer) part: its note ID and which note
// part it points into.
type Reference struct {
	ID   string
	Part cunit.Part // PartFootnote or PartEndnote
}

// CollectReferences scans atoms already produced by atomize.Atomize on a
// part that can carry footnote/endnote references and returns each
// distinct (part, id) pair in first-seen order (§4.9: "During
// atomization of the main document, collect all reference atoms").
func CollectReferences(atoms []*cunit.Atom) []Reference {
	var out []Reference
	seen := make(map[string]bool)
	for _, a := range atoms {
		if a.Kind != cunit.ContentReference || a.Tree == nil {
			continue
		}
		name, err := a.Tree.Name(a.Node)
		if err != nil {
			continue
		}
		var part cunit.Part
		switch name.Local {
		case "footnoteReference":
			part = cunit.PartFootnote
		case "endnoteReference":
			part = cunit.PartEndnote
		default:
			continue // commentReference has no separate part to recurse into
		}
		id, ok, err := a.Tree.Attr(a.Node, "w:id")
		if err != nil || !ok {
			continue
		}
		key := name.Local + "|" + id
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, Reference{ID: id, Part: part})
	}
	return out
}

// Diff buckets two reference lists by where each ID was seen (§4.9).
type Diff struct {
	Matched      []Reference
	OriginalOnly []Reference
	ModifiedOnly []Reference
}

// DiffReferences partitions original/modified reference lists (already
// restricted to one note kind by the caller) into matched/deleted/
// inserted buckets, preserving the modified side's order for Matched and
// ModifiedOnly so output note order follows the new document.
func DiffReferences(original, modified []Reference) Diff {
	origByID := make(map[string]bool, len(original))
	for _, r := range original {
		origByID[r.ID] = true
	}
	modByID := make(map[string]bool, len(modified))
	for _, r := range modified {
		modByID[r.ID] = true
	}

	var d Diff
	for _, r := range modified {
		if origByID[r.ID] {
			d.Matched = append(d.Matched, r)
		} else {
			d.ModifiedOnly = append(d.ModifiedOnly, r)
		}
	}
	for _, r := range original {
		if !modByID[r.ID] {
			d.OriginalOnly = append(d.OriginalOnly, r)
		}
	}
	return d
}

package redline

import (
	"github.com/vortex/docx-redline/internal/canon"
	"github.com/vortex/docx-redline/internal/config"
	"github.com/vortex/docx-redline/internal/group"
	"github.com/vortex/docx-redline/internal/lcs"
	"github.com/vortex/docx-redline/internal/revision"
)

// Settings is the public configuration surface (§6.2's settings table).
// The zero value is not ready to use; call DefaultSettings.
type Settings struct {
	// WordSeparators is the set of runes that end a Word unit (§4.5).
	// Empty means the built-in default set.
	WordSeparators []rune
	// Author attributed to every <w:ins>/<w:del>/<w:rPrChange> this
	// comparison produces.
	Author string
	// Date is the w:date timestamp on every revision this comparison
	// produces, RFC3339. Empty lets the caller stamp one in later so
	// output stays byte-identical across repeated runs in tests.
	Date string
	// DetailThreshold is the minimum fraction of matched content a
	// prefix/suffix/hash-LCS candidate must reach to be accepted.
	DetailThreshold float64
	// CaseInsensitive folds case before hashing/comparing text.
	CaseInsensitive bool
	// ConflateBreakingAndNonBreakingSpace treats U+00A0 and U+0020 as
	// the same character before hashing/comparing text.
	ConflateBreakingAndNonBreakingSpace bool
	// TrackFormattingChanges emits rPrChange for formatting-only run
	// differences instead of a delete+insert pair. Paragraph-property
	// differences are not tracked; no pPrChange is emitted.
	TrackFormattingChanges bool
	// StartingID seeds the w:id counter every <w:ins>/<w:del>/note
	// renumbering draws from.
	StartingID int
}

// DefaultSettings returns the spec-mandated defaults (§6.2).
func DefaultSettings() Settings {
	return Settings{
		Author:                              "redline",
		DetailThreshold:                     0.15,
		ConflateBreakingAndNonBreakingSpace: true,
		TrackFormattingChanges:              true,
		StartingID:                          1,
	}
}

// FromFile merges a loaded config.FileSettings on top of DefaultSettings,
// following the same "env wins, file provides defaults" precedence
// internal/config already resolved before this is called.
func FromFile(fs config.FileSettings) Settings {
	st := DefaultSettings()
	if fs.WordSeparators != "" {
		st.WordSeparators = []rune(fs.WordSeparators)
	}
	if fs.AuthorForRevisions != "" {
		st.Author = fs.AuthorForRevisions
	}
	if fs.DateTimeForRevisions != "" {
		st.Date = fs.DateTimeForRevisions
	}
	if fs.DetailThreshold != 0 {
		st.DetailThreshold = fs.DetailThreshold
	}
	st.CaseInsensitive = fs.CaseInsensitive
	st.ConflateBreakingAndNonBreakingSpace = fs.ConflateBreakingAndNonBreaking
	st.TrackFormattingChanges = fs.TrackFormattingChanges
	if fs.StartingIDForFootnotesEndnotes != 0 {
		st.StartingID = fs.StartingIDForFootnotesEndnotes
	}
	return st
}

func (s Settings) canonOptions() canon.Options {
	return canon.Options{
		CaseInsensitive:                     s.CaseInsensitive,
		ConflateBreakingAndNonBreakingSpace: s.ConflateBreakingAndNonBreakingSpace,
	}
}

func (s Settings) lcsSettings() lcs.Settings {
	return lcs.Settings{
		DetailThreshold:        s.DetailThreshold,
		TrackFormattingChanges: s.TrackFormattingChanges,
		Canon:                  s.canonOptions(),
	}
}

func (s Settings) revisionSettings() revision.Settings {
	return revision.Settings{Author: s.Author, Date: s.Date}
}

func (s Settings) groupConfig() group.Config {
	if len(s.WordSeparators) == 0 {
		return group.DefaultConfig()
	}
	seps := make(map[rune]bool, len(s.WordSeparators))
	for _, r := range s.WordSeparators {
		seps[r] = true
	}
	return group.Config{Separators: seps}
}

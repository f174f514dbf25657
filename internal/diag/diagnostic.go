package diag

import (
	"rillcheck/internal/source"
)

type Note struct {
	Span source.Span
	Msg  string
}

type FixEdit struct {
	Span    source.Span
	NewText string
}

// Fix is a suggestion attached to a diagnostic. Title alone is enough for
// text output; Edits carry concrete replacements when the producer can
// compute them.
type Fix struct {
	Title string
	Edits []FixEdit
}

type Diagnostic struct {
	Severity Severity
	Code     Code
	Message  string
	Primary  source.Span
	Notes    []Note
	Fixes    []Fix
}

// FixSuggestion returns the title of the first fix, or "".
func (d Diagnostic) FixSuggestion() string {
	if len(d.Fixes) == 0 {
		return ""
	}
	return d.Fixes[0].Title
}

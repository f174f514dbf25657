package diagfmt

import (
	"encoding/json"
	"io"

	"rillcheck/internal/observ"
	"rillcheck/internal/rules"
	"rillcheck/internal/source"
)

// LocationJSON is a diagnostic location in JSON output.
type LocationJSON struct {
	File   string `json:"file"`
	Line   uint32 `json:"line"`
	Column uint32 `json:"column"`
	Length uint32 `json:"length"`
}

// NoteJSON is a secondary note in JSON output.
type NoteJSON struct {
	Message  string       `json:"message"`
	Location LocationJSON `json:"location"`
}

// DiagnosticJSON is one diagnostic in JSON output.
type DiagnosticJSON struct {
	Severity string       `json:"severity"`
	Code     string       `json:"code"`
	Rule     string       `json:"rule"`
	Category string       `json:"category"`
	Message  string       `json:"message"`
	Location LocationJSON `json:"location"`
	Notes    []NoteJSON   `json:"notes,omitempty"`
	Fix      string       `json:"fix,omitempty"`
}

// FailureJSON is one isolated rule failure.
type FailureJSON struct {
	Rule  string `json:"rule"`
	Error string `json:"error"`
}

// ReportJSON is the root structure of JSON output.
type ReportJSON struct {
	Diagnostics []DiagnosticJSON `json:"diagnostics"`
	Count       int              `json:"count"`
	BySeverity  map[string]int   `json:"by_severity"`
	ByRule      map[string]int   `json:"by_rule"`
	Failures    []FailureJSON    `json:"failures,omitempty"`
	Timing      *observ.Report   `json:"timing,omitempty"`
}

// JSON renders the report as a single JSON document.
func JSON(w io.Writer, report *rules.Report, fs *source.FileSet, opts JSONOpts) error {
	out := ReportJSON{
		Diagnostics: make([]DiagnosticJSON, 0, report.Bag.Len()),
		Count:       report.Bag.Len(),
		BySeverity:  report.BySev,
		ByRule:      report.ByRule,
	}
	for _, d := range report.Bag.Items() {
		dj := DiagnosticJSON{
			Severity: d.Severity.Label(),
			Code:     d.Code.ID(),
			Rule:     d.Code.Rule(),
			Category: d.Code.Category(),
			Message:  d.Message,
			Location: makeLocation(d.Primary, fs, opts.PathMode),
		}
		if opts.IncludeNotes {
			for _, n := range d.Notes {
				dj.Notes = append(dj.Notes, NoteJSON{
					Message:  n.Msg,
					Location: makeLocation(n.Span, fs, opts.PathMode),
				})
			}
		}
		if opts.IncludeFixes {
			dj.Fix = d.FixSuggestion()
		}
		out.Diagnostics = append(out.Diagnostics, dj)
	}
	for _, f := range report.Failures {
		out.Failures = append(out.Failures, FailureJSON{Rule: f.RuleID, Error: f.Err})
	}
	if opts.IncludeTimings && len(report.Timing.Phases) > 0 {
		timing := report.Timing
		out.Timing = &timing
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func makeLocation(span source.Span, fs *source.FileSet, pathMode PathMode) LocationJSON {
	loc := LocationJSON{
		Line:   span.Line,
		Column: span.Col,
		Length: span.Len,
	}
	if f := fs.Get(span.File); f != nil {
		loc.File = formatPath(f, pathMode, fs.BaseDir())
	}
	return loc
}

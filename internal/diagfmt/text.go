// Package diagfmt renders analysis reports. It owns formatting only: no
// analysis logic, no IO beyond the writer it is handed.
package diagfmt

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"rillcheck/internal/diag"
	"rillcheck/internal/rules"
	"rillcheck/internal/source"
)

var (
	errorColor   = color.New(color.FgRed, color.Bold)
	warningColor = color.New(color.FgYellow, color.Bold)
	infoColor    = color.New(color.FgCyan)
	noteColor    = color.New(color.Faint)
)

// Text renders the report one line per diagnostic:
//
//	[severity] file:line: message
//	    fix: suggestion
//
// with an optional source context line and caret underline when the file's
// content is available.
func Text(w io.Writer, report *rules.Report, fs *source.FileSet, opts TextOpts) {
	for _, d := range report.Bag.Items() {
		writeDiagnostic(w, d, fs, opts)
	}

	if len(report.Failures) > 0 {
		for _, f := range report.Failures {
			fmt.Fprintf(w, "[engine] rule %s failed: %s\n", f.RuleID, f.Err)
		}
	}

	if opts.ShowTimings && len(report.Timing.Phases) > 0 {
		fmt.Fprintf(w, "timings: %.2f ms total\n", report.Timing.TotalMS)
		for _, p := range report.Timing.Phases {
			fmt.Fprintf(w, "  %-30s %7.2f ms\n", p.Name, p.DurationMS)
		}
	}

	writeSummary(w, report)
}

func writeDiagnostic(w io.Writer, d diag.Diagnostic, fs *source.FileSet, opts TextOpts) {
	f := fs.Get(d.Primary.File)
	path := "<unknown>"
	if f != nil {
		path = formatPath(f, opts.PathMode, fs.BaseDir())
	}

	label := "[" + d.Severity.Label() + "]"
	if opts.Color {
		label = severityColor(d.Severity).Sprint(label)
	}
	fmt.Fprintf(w, "%s %s:%d: %s\n", label, path, d.Primary.Line, d.Message)

	if opts.ShowContext && f != nil {
		writeContext(w, f, d.Primary, opts)
	}
	if opts.ShowFixes {
		if fix := d.FixSuggestion(); fix != "" {
			fmt.Fprintf(w, "    fix: %s\n", fix)
		}
	}
	if opts.ShowNotes {
		for _, n := range d.Notes {
			nf := fs.Get(n.Span.File)
			npath := "<unknown>"
			if nf != nil {
				npath = formatPath(nf, opts.PathMode, fs.BaseDir())
			}
			line := fmt.Sprintf("    note: %s:%d: %s", npath, n.Span.Line, n.Msg)
			if opts.Color {
				line = noteColor.Sprint(line)
			}
			fmt.Fprintln(w, line)
		}
	}
}

// writeContext prints the offending line and underlines the span. Underline
// width honours wide runes so the carets line up in CJK-heavy sources.
func writeContext(w io.Writer, f *source.File, sp source.Span, opts TextOpts) {
	line := f.GetLine(sp.Line)
	if line == "" {
		return
	}
	fmt.Fprintf(w, "    %s\n", line)

	col := int(sp.Col)
	if col < 1 {
		col = 1
	}
	prefix := line
	if col-1 < len(line) {
		prefix = line[:col-1]
	}
	pad := runewidth.StringWidth(prefix)

	length := int(sp.Len)
	if length < 1 {
		length = 1
	}
	region := ""
	if col-1 < len(line) {
		end := col - 1 + length
		if end > len(line) {
			end = len(line)
		}
		region = line[col-1 : end]
	}
	width := runewidth.StringWidth(region)
	if width < 1 {
		width = 1
	}

	underline := strings.Repeat(" ", pad) + "^" + strings.Repeat("~", width-1)
	if opts.Color {
		underline = strings.Repeat(" ", pad) + severityColor(diag.SevError).Sprint("^"+strings.Repeat("~", width-1))
	}
	fmt.Fprintf(w, "    %s\n", underline)
}

func writeSummary(w io.Writer, report *rules.Report) {
	errs := report.BySev["error"]
	warns := report.BySev["warning"]
	switch {
	case errs == 0 && warns == 0:
		fmt.Fprintln(w, "no issues found")
	default:
		fmt.Fprintf(w, "%d error(s), %d warning(s)\n", errs, warns)
	}
}

func severityColor(s diag.Severity) *color.Color {
	switch s {
	case diag.SevError:
		return errorColor
	case diag.SevWarning:
		return warningColor
	default:
		return infoColor
	}
}

func formatPath(f *source.File, mode PathMode, baseDir string) string {
	switch mode {
	case PathModeAbsolute:
		return f.FormatPath("absolute", "")
	case PathModeRelative:
		return f.FormatPath("relative", baseDir)
	case PathModeBasename:
		return f.FormatPath("basename", "")
	default:
		return f.Path
	}
}

package diagfmt

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"rillcheck/internal/diag"
	"rillcheck/internal/observ"
	"rillcheck/internal/rules"
	"rillcheck/internal/source"
)

func demoReport(t *testing.T) (*rules.Report, *source.FileSet) {
	t.Helper()
	fs := source.NewFileSet()
	id := fs.Add("demo.rill", []byte("fn save() uses [Database] {\n    runQuery(sql)\n}\n"), 0)

	diags := []diag.Diagnostic{
		diag.NewError(diag.EffMissingDeclaration,
			source.Span{File: id, Line: 1, Col: 4, Len: 4},
			"function 'save' uses undeclared effects [Logging]").
			WithFix("add [Logging] to the uses clause of 'save'"),
		diag.NewWarning(diag.EffUnusedDeclaration,
			source.Span{File: id, Line: 2, Col: 5, Len: 8},
			"function 'save' declares effects [Network] that are never used").
			WithNote(source.Span{File: id, Line: 1, Col: 11, Len: 16}, "declared here"),
	}
	return rules.NewReport("demo.rill", diags, []rules.RuleFailure{{RuleID: "dead-error-paths", Err: "boom"}}, observ.Report{}), fs
}

func TestText_PlainOutput(t *testing.T) {
	report, fs := demoReport(t)
	var buf bytes.Buffer
	Text(&buf, report, fs, TextOpts{ShowNotes: true, ShowFixes: true})

	out := buf.String()
	wantLines := []string{
		"[error] demo.rill:1: function 'save' uses undeclared effects [Logging]",
		"    fix: add [Logging] to the uses clause of 'save'",
		"[warning] demo.rill:2: function 'save' declares effects [Network] that are never used",
		"    note: demo.rill:1: declared here",
		"[engine] rule dead-error-paths failed: boom",
		"1 error(s), 1 warning(s)",
	}
	for _, want := range wantLines {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "\x1b[") {
		t.Errorf("color escapes present without Color option:\n%q", out)
	}
}

func TestText_ContextUnderline(t *testing.T) {
	report, fs := demoReport(t)
	var buf bytes.Buffer
	Text(&buf, report, fs, TextOpts{ShowContext: true})

	out := buf.String()
	if !strings.Contains(out, "fn save() uses [Database] {") {
		t.Errorf("context line missing:\n%s", out)
	}
	// Col 4, len 4 on the first line: three spaces then ^~~~.
	if !strings.Contains(out, "\n       ^~~~\n") {
		t.Errorf("underline missing or misaligned:\n%q", out)
	}
}

func TestText_CleanReport(t *testing.T) {
	report := rules.NewReport("clean.rill", nil, nil, observ.Report{})
	var buf bytes.Buffer
	Text(&buf, report, source.NewFileSet(), TextOpts{})
	if got := buf.String(); got != "no issues found\n" {
		t.Errorf("output = %q", got)
	}
}

func TestJSON_Shape(t *testing.T) {
	report, fs := demoReport(t)
	var buf bytes.Buffer
	if err := JSON(&buf, report, fs, JSONOpts{IncludeNotes: true, IncludeFixes: true}); err != nil {
		t.Fatalf("JSON: %v", err)
	}

	var decoded ReportJSON
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if decoded.Count != 2 || len(decoded.Diagnostics) != 2 {
		t.Fatalf("count = %d, diagnostics = %d", decoded.Count, len(decoded.Diagnostics))
	}

	first := decoded.Diagnostics[0]
	if first.Code != "EFF3003" || first.Rule != "effect-completeness" || first.Category != "effects" {
		t.Errorf("first = %+v", first)
	}
	if first.Location.File != "demo.rill" || first.Location.Line != 1 || first.Location.Column != 4 {
		t.Errorf("location = %+v", first.Location)
	}
	if first.Fix == "" {
		t.Errorf("fix missing with IncludeFixes")
	}
	if len(decoded.Diagnostics[1].Notes) != 1 {
		t.Errorf("notes = %+v", decoded.Diagnostics[1].Notes)
	}
	if decoded.BySeverity["error"] != 1 || decoded.BySeverity["warning"] != 1 {
		t.Errorf("by_severity = %v", decoded.BySeverity)
	}
	if len(decoded.Failures) != 1 || decoded.Failures[0].Rule != "dead-error-paths" {
		t.Errorf("failures = %+v", decoded.Failures)
	}
}

func TestSarif_Shape(t *testing.T) {
	report, fs := demoReport(t)
	var buf bytes.Buffer
	if err := Sarif(&buf, report, fs, SarifRunMeta{ToolName: "rillcheck", ToolVersion: "0.1.0"}); err != nil {
		t.Fatalf("Sarif: %v", err)
	}

	var log map[string]any
	if err := json.Unmarshal(buf.Bytes(), &log); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if log["version"] != "2.1.0" {
		t.Errorf("version = %v", log["version"])
	}
	if schema, _ := log["$schema"].(string); !strings.Contains(schema, "sarif-2.1.0") {
		t.Errorf("$schema = %v", log["$schema"])
	}

	runs := log["runs"].([]any)
	if len(runs) != 1 {
		t.Fatalf("runs = %d", len(runs))
	}
	run := runs[0].(map[string]any)
	driver := run["tool"].(map[string]any)["driver"].(map[string]any)
	if driver["name"] != "rillcheck" {
		t.Errorf("driver name = %v", driver["name"])
	}
	ruleEntries := driver["rules"].([]any)
	if len(ruleEntries) != 2 {
		t.Errorf("driver rules = %d, want one per distinct ruleId", len(ruleEntries))
	}

	results := run["results"].([]any)
	if len(results) != 2 {
		t.Fatalf("results = %d", len(results))
	}
	first := results[0].(map[string]any)
	if first["ruleId"] != "effect-completeness" || first["level"] != "error" {
		t.Errorf("first result = %v", first)
	}
	loc := first["locations"].([]any)[0].(map[string]any)["physicalLocation"].(map[string]any)
	if loc["artifactLocation"].(map[string]any)["uri"] != "demo.rill" {
		t.Errorf("uri = %v", loc)
	}
	region := loc["region"].(map[string]any)
	if region["startLine"].(float64) != 1 || region["startColumn"].(float64) != 4 {
		t.Errorf("region = %v", region)
	}
}

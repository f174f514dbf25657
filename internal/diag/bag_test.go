package diag

import (
	"strings"
	"testing"

	"rillcheck/internal/source"
)

func span(line, col uint32) source.Span {
	return source.Span{File: 1, Line: line, Col: col, Len: 1}
}

func TestBag_SortIsDeterministic(t *testing.T) {
	b := NewBag(10)
	b.Add(NewError(ResUnusedResult, span(9, 3), "later line"))
	b.Add(NewWarning(EffUnusedDeclaration, span(2, 8), "same line, later col"))
	b.Add(NewError(EffMissingDeclaration, span(2, 1), "same line, first col"))
	b.Add(NewError(EffPureDeclaresEffects, span(2, 8), "same position, earlier rule"))

	b.Sort()

	items := b.Items()
	wantCodes := []Code{EffMissingDeclaration, EffUnusedDeclaration, EffPureDeclaresEffects, ResUnusedResult}
	for i, want := range wantCodes {
		if items[i].Code != want {
			t.Fatalf("pos %d: code = %v, want %v", i, items[i].Code, want)
		}
	}
}

func TestBag_SortByRuleAtSamePosition(t *testing.T) {
	// effect-minimality < pure-function-validation lexicographically,
	// so EFF3004 must render before EFF3001 at the same span.
	b := NewBag(4)
	b.Add(NewError(EffPureDeclaresEffects, span(5, 1), "purity"))
	b.Add(NewWarning(EffUnusedDeclaration, span(5, 1), "minimality"))
	b.Sort()

	if b.Items()[0].Code != EffUnusedDeclaration {
		t.Errorf("rule id should break position ties: got %v first", b.Items()[0].Code)
	}
}

func TestBag_CapDropsOverflow(t *testing.T) {
	b := NewBag(2)
	if !b.Add(NewError(ResUnusedResult, span(1, 1), "a")) {
		t.Fatalf("first add rejected")
	}
	b.Add(NewError(ResUnusedResult, span(2, 1), "b"))
	if b.Add(NewError(ResUnusedResult, span(3, 1), "c")) {
		t.Errorf("add beyond cap should report dropped")
	}
	if b.Len() != 2 {
		t.Errorf("Len() = %d, want 2", b.Len())
	}
}

func TestBag_LargeCapDoesNotWrap(t *testing.T) {
	// Caps above 65535 used to truncate; 70000 must stay 70000.
	b := NewBag(70000)
	if b.Cap() != 70000 {
		t.Fatalf("Cap() = %d, want 70000", b.Cap())
	}
	for i := 0; i < 5000; i++ {
		if !b.Add(NewError(ResUnusedResult, span(uint32(i+1), 1), "x")) {
			t.Fatalf("add %d rejected below cap", i)
		}
	}
}

func TestBag_HasErrors(t *testing.T) {
	b := NewBag(4)
	b.Add(NewWarning(EffUnusedDeclaration, span(1, 1), "w"))
	if b.HasErrors() {
		t.Errorf("warnings alone should not count as errors")
	}
	if !b.HasWarnings() {
		t.Errorf("HasWarnings should see the warning")
	}
	b.Add(NewError(EffMissingDeclaration, span(2, 1), "e"))
	if !b.HasErrors() {
		t.Errorf("HasErrors should see the error")
	}
}

func TestBag_Dedup(t *testing.T) {
	b := NewBag(4)
	b.Add(NewError(ResUnusedResult, span(1, 1), "dup"))
	b.Add(NewError(ResUnusedResult, span(1, 1), "dup"))
	b.Add(NewError(ResUnusedResult, span(1, 1), "distinct message survives"))
	b.Dedup()
	if b.Len() != 2 {
		t.Errorf("Len() after dedup = %d, want 2", b.Len())
	}
}

func TestReportBuilder_EmitOnce(t *testing.T) {
	bag := NewBag(4)
	b := ReportError(BagReporter{Bag: bag}, EffMissingDeclaration, span(3, 1), "msg").
		WithNote(span(8, 1), "declared here").
		WithFix("add Database to the uses clause")
	b.Emit()
	b.Emit()

	if bag.Len() != 1 {
		t.Fatalf("Emit twice produced %d diagnostics", bag.Len())
	}
	d := bag.Items()[0]
	if len(d.Notes) != 1 || d.Notes[0].Msg != "declared here" {
		t.Errorf("note not carried: %+v", d.Notes)
	}
	if d.FixSuggestion() != "add Database to the uses clause" {
		t.Errorf("fix = %q", d.FixSuggestion())
	}
}

func TestReportBuilder_SeverityShortcuts(t *testing.T) {
	bag := NewBag(4)
	r := BagReporter{Bag: bag}
	ReportInfo(r, EffUnusedDeclaration, span(1, 1), "i").Emit()
	ReportWarning(r, EffUnusedDeclaration, span(2, 1), "w").Emit()
	ReportError(r, EffMissingDeclaration, span(3, 1), "e").Emit()

	if bag.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", bag.Len())
	}
	want := []Severity{SevInfo, SevWarning, SevError}
	for i, d := range bag.Items() {
		if d.Severity != want[i] {
			t.Errorf("item %d severity = %v, want %v", i, d.Severity, want[i])
		}
	}
}

func TestCode_Metadata(t *testing.T) {
	tests := []struct {
		code     Code
		id       string
		rule     string
		category string
	}{
		{EffPureDeclaresEffects, "EFF3001", "pure-function-validation", "effects"},
		{EffMissingDeclaration, "EFF3003", "effect-completeness", "effects"},
		{ResUnusedResult, "RES4004", "unused-results", "results"},
		{ResContradictoryGuard, "RES4006", "dead-error-paths", "results"},
		{EngRuleFailure, "ENG5001", "engine", "engine"},
		{CfgMalformed, "CFG1002", "config", "config"},
	}
	for _, tt := range tests {
		if got := tt.code.ID(); got != tt.id {
			t.Errorf("%v.ID() = %q, want %q", tt.code, got, tt.id)
		}
		if got := tt.code.Rule(); got != tt.rule {
			t.Errorf("%v.Rule() = %q, want %q", tt.code, got, tt.rule)
		}
		if got := tt.code.Category(); got != tt.category {
			t.Errorf("%v.Category() = %q, want %q", tt.code, got, tt.category)
		}
	}
}

func TestParseSeverity(t *testing.T) {
	for label, want := range map[string]Severity{"info": SevInfo, "warning": SevWarning, "error": SevError} {
		got, err := ParseSeverity(label)
		if err != nil || got != want {
			t.Errorf("ParseSeverity(%q) = %v, %v", label, got, err)
		}
	}
	if _, err := ParseSeverity("fatal"); err == nil {
		t.Errorf("ParseSeverity(fatal) should fail")
	}
}

func TestFormatGoldenDiagnostics(t *testing.T) {
	fs := source.NewFileSet()
	id := fs.Add("demo.rill", []byte("fn main() {}\n"), 0)
	diags := []Diagnostic{
		NewError(EffMissingDeclaration, source.Span{File: id, Line: 4, Col: 1, Len: 3}, "uses   undeclared\neffects"),
		NewWarning(EffUnusedDeclaration, source.Span{File: id, Line: 2, Col: 5, Len: 1}, "never used"),
	}

	got := FormatGoldenDiagnostics(diags, fs, false)
	want := strings.Join([]string{
		"warning EFF3004 demo.rill:2:5 never used",
		"error EFF3003 demo.rill:4:1 uses undeclared effects",
	}, "\n")
	if got != want {
		t.Errorf("golden output mismatch:\ngot:\n%s\nwant:\n%s", got, want)
	}
}

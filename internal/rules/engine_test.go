package rules

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"rillcheck/internal/callgraph"
	"rillcheck/internal/config"
	"rillcheck/internal/diag"
	"rillcheck/internal/effects"
	"rillcheck/internal/observ"
	"rillcheck/internal/symbols"
	"rillcheck/internal/testkit"
)

func analyzed(t *testing.T) Input {
	t.Helper()
	prog := testkit.Program("demo.rill",
		testkit.PureFn("calc", 1, testkit.Call("Database.Write", 2)),
		testkit.EffectFn("save", 5, []string{"Database", "Network"},
			testkit.Call("Database.Write", 6),
		),
	)
	table, err := symbols.Build(prog)
	if err != nil {
		t.Fatalf("Build table: %v", err)
	}
	graph := callgraph.Build(table, callgraph.Options{})
	sol, err := effects.Solve(table, graph)
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}
	return Input{Path: "demo.rill", Program: prog, Table: table, Graph: graph, Effects: sol}
}

func TestEngine_RunsDefaultRules(t *testing.T) {
	engine := NewEngine(DefaultRules(), config.Default(), Options{})
	report := engine.AnalyzeFile(analyzed(t))

	if report.Skipped {
		t.Fatalf("file should not be skipped")
	}
	// One purity error for calc, one minimality warning for save.
	if report.ByRule["pure-function-validation"] != 1 {
		t.Errorf("ByRule = %v", report.ByRule)
	}
	if report.ByRule["effect-minimality"] != 1 {
		t.Errorf("ByRule = %v", report.ByRule)
	}
	if !report.HasErrors() {
		t.Errorf("purity error should make the report dirty")
	}
	if len(report.Timing.Phases) == 0 {
		t.Errorf("timing phases missing")
	}
}

func TestEngine_FaultIsolation(t *testing.T) {
	panicky := Rule{
		ID:           "explosive",
		Category:     "test",
		DefaultLevel: diag.SevError,
		Analyze: func(Input, diag.Reporter) error {
			panic("boom")
		},
	}
	failing := Rule{
		ID:           "failing",
		Category:     "test",
		DefaultLevel: diag.SevError,
		Analyze: func(Input, diag.Reporter) error {
			return errors.New("backend unavailable")
		},
	}
	healthy := Rule{
		ID:           "healthy",
		Category:     "test",
		DefaultLevel: diag.SevError,
		Analyze: func(in Input, r diag.Reporter) error {
			diag.ReportError(r, diag.ResUnusedResult, testkit.At(1, 1), "still here").Emit()
			return nil
		},
	}

	engine := NewEngine([]Rule{panicky, failing, healthy}, config.Default(), Options{})
	report := engine.AnalyzeFile(analyzed(t))

	if len(report.Failures) != 2 {
		t.Fatalf("failures = %+v", report.Failures)
	}
	if report.Failures[0].RuleID != "explosive" || !strings.Contains(report.Failures[0].Err, "panicked: boom") {
		t.Errorf("failure 0 = %+v", report.Failures[0])
	}
	if report.Failures[1].RuleID != "failing" {
		t.Errorf("failure 1 = %+v", report.Failures[1])
	}
	if report.Bag.Len() != 1 || report.Bag.Items()[0].Message != "still here" {
		t.Errorf("healthy rule did not run: %+v", report.Bag.Items())
	}
}

func TestEngine_DisabledRuleSkipped(t *testing.T) {
	cfg := config.Default()
	off := false
	cfg.Rules["pure-function-validation"] = config.RuleConfig{Enabled: &off}

	engine := NewEngine(DefaultRules(), cfg, Options{})
	report := engine.AnalyzeFile(analyzed(t))

	if report.ByRule["pure-function-validation"] != 0 {
		t.Errorf("disabled rule still reported: %v", report.ByRule)
	}
	if report.ByRule["effect-minimality"] != 1 {
		t.Errorf("other rules affected: %v", report.ByRule)
	}
}

func TestEngine_ThresholdSkipsWeakRules(t *testing.T) {
	cfg := config.Default()
	cfg.Threshold = diag.SevError

	engine := NewEngine(DefaultRules(), cfg, Options{})
	report := engine.AnalyzeFile(analyzed(t))

	// effect-minimality defaults to warning, below the error threshold.
	if report.ByRule["effect-minimality"] != 0 {
		t.Errorf("warning-level rule ran above threshold: %v", report.ByRule)
	}
	if report.ByRule["pure-function-validation"] != 1 {
		t.Errorf("error-level rule missing: %v", report.ByRule)
	}
}

func TestEngine_LevelOverrideRelevels(t *testing.T) {
	cfg := config.Default()
	cfg.Rules["effect-minimality"] = config.RuleConfig{Level: "error"}

	engine := NewEngine(DefaultRules(), cfg, Options{})
	report := engine.AnalyzeFile(analyzed(t))

	found := false
	for _, d := range report.Bag.Items() {
		if d.Code == diag.EffUnusedDeclaration {
			found = true
			if d.Severity != diag.SevError {
				t.Errorf("severity = %v, want releveled error", d.Severity)
			}
		}
	}
	if !found {
		t.Fatalf("minimality diagnostic missing")
	}
}

func TestEngine_Exclusion(t *testing.T) {
	cfg := config.Default()
	cfg.Exclude = []string{"demo.rill"}

	engine := NewEngine(DefaultRules(), cfg, Options{})
	report := engine.AnalyzeFile(analyzed(t))

	if !report.Skipped {
		t.Fatalf("excluded file not skipped")
	}
	if report.Bag.Len() != 0 {
		t.Errorf("skipped file produced diagnostics")
	}
}

func TestEngine_Deterministic(t *testing.T) {
	engine := NewEngine(DefaultRules(), config.Default(), Options{})
	in := analyzed(t)

	first := engine.AnalyzeFile(in)
	for i := 0; i < 5; i++ {
		again := engine.AnalyzeFile(in)
		if !reflect.DeepEqual(again.Bag.Items(), first.Bag.Items()) {
			t.Fatalf("run %d produced different diagnostics", i)
		}
	}
}

func TestDefaultRules_IDsUniqueAndCategorized(t *testing.T) {
	seen := map[string]bool{}
	for _, r := range DefaultRules() {
		if seen[r.ID] {
			t.Errorf("duplicate rule id %q", r.ID)
		}
		seen[r.ID] = true
		if r.Category != "effects" && r.Category != "results" {
			t.Errorf("rule %s has category %q", r.ID, r.Category)
		}
		if r.Analyze == nil {
			t.Errorf("rule %s has no analyze func", r.ID)
		}
	}
	if len(seen) != 8 {
		t.Errorf("rule count = %d, want 8", len(seen))
	}
}

func TestReport_Merge(t *testing.T) {
	a := NewReport("a.rill", []diag.Diagnostic{
		diag.NewError(diag.ResUnusedResult, testkit.At(1, 1), "one"),
	}, nil, observ.Report{})
	b := NewReport("b.rill", []diag.Diagnostic{
		diag.NewWarning(diag.EffUnusedDeclaration, testkit.At(2, 1), "two"),
	}, []RuleFailure{{RuleID: "x", Err: "down"}}, observ.Report{})

	a.Merge(b)
	if a.Bag.Len() != 2 {
		t.Errorf("merged bag len = %d", a.Bag.Len())
	}
	if a.BySev["error"] != 1 || a.BySev["warning"] != 1 {
		t.Errorf("BySev = %v", a.BySev)
	}
	if len(a.Failures) != 1 {
		t.Errorf("failures = %+v", a.Failures)
	}
}

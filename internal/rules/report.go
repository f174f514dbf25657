package rules

import (
	"rillcheck/internal/diag"
	"rillcheck/internal/observ"
)

// RuleFailure records a rule that errored or panicked. Its diagnostics for
// this file are absent; everything else still ran.
type RuleFailure struct {
	RuleID string
	Err    string
}

// Report is the frozen outcome of analyzing one file (or, after merging,
// a whole run). Diagnostics are sorted; counts are derived once.
type Report struct {
	Path     string
	Skipped  bool
	Bag      *diag.Bag
	BySev    map[string]int
	ByRule   map[string]int
	Failures []RuleFailure
	Timing   observ.Report
}

func newReport(path string, maxDiagnostics int) *Report {
	return &Report{
		Path:   path,
		Bag:    diag.NewBag(maxDiagnostics),
		BySev:  make(map[string]int),
		ByRule: make(map[string]int),
	}
}

// NewReport rebuilds a finalized report from stored diagnostics; the driver
// uses it when replaying a cache hit.
func NewReport(path string, diags []diag.Diagnostic, failures []RuleFailure, timing observ.Report) *Report {
	n := len(diags)
	if n == 0 {
		n = 1
	}
	r := newReport(path, n)
	for _, d := range diags {
		r.Bag.Add(d)
	}
	r.Failures = failures
	r.Timing = timing
	r.finalize()
	return r
}

// finalize sorts the bag and derives the aggregate counts.
func (r *Report) finalize() {
	r.Bag.Sort()
	for _, d := range r.Bag.Items() {
		r.BySev[d.Severity.Label()]++
		r.ByRule[d.Code.Rule()]++
	}
}

// HasErrors reports whether the run should exit non-zero.
func (r *Report) HasErrors() bool {
	return r.Bag.HasErrors()
}

// Merge folds another report into this one. Used by the driver when
// aggregating per-file reports; inputs are expected pre-sorted by path.
func (r *Report) Merge(other *Report) {
	r.Bag.Merge(other.Bag)
	for k, v := range other.BySev {
		r.BySev[k] += v
	}
	for k, v := range other.ByRule {
		r.ByRule[k] += v
	}
	r.Failures = append(r.Failures, other.Failures...)
}

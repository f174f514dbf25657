package rules

import (
	"fmt"

	"rillcheck/internal/config"
	"rillcheck/internal/diag"
	"rillcheck/internal/observ"
)

// Engine runs a caller-constructed rule list over analyzed files.
type Engine struct {
	rules          []Rule
	cfg            config.Config
	maxDiagnostics int
}

// Options configure an Engine.
type Options struct {
	// MaxDiagnostics caps the diagnostics kept per file. 0 means the
	// default of 1000.
	MaxDiagnostics int
}

// NewEngine builds an engine over an explicit rule list. The list is copied;
// later mutation of the caller's slice has no effect.
func NewEngine(ruleList []Rule, cfg config.Config, opts Options) *Engine {
	maxDiags := opts.MaxDiagnostics
	if maxDiags <= 0 {
		maxDiags = 1000
	}
	rs := make([]Rule, len(ruleList))
	copy(rs, ruleList)
	return &Engine{rules: rs, cfg: cfg, maxDiagnostics: maxDiags}
}

// RuleIDs returns the ids of all registered rules, in registration order.
func (e *Engine) RuleIDs() []string {
	out := make([]string, len(e.rules))
	for i, r := range e.rules {
		out[i] = r.ID
	}
	return out
}

// Rules returns a copy of the registered rule list.
func (e *Engine) Rules() []Rule {
	out := make([]Rule, len(e.rules))
	copy(out, e.rules)
	return out
}

// AnalyzeFile runs every enabled rule over the input and assembles the
// report. A rule failure (error or panic) is isolated: it is recorded on the
// report and the remaining rules still run. The returned report is final.
// It is sorted, counted and safe to share.
func (e *Engine) AnalyzeFile(in Input) *Report {
	report := newReport(in.Path, e.maxDiagnostics)
	if e.cfg.Excluded(in.Path) {
		report.Skipped = true
		return report
	}

	timer := observ.NewTimer()
	for _, rule := range e.rules {
		if !e.cfg.RuleEnabled(rule.ID) {
			continue
		}
		level := e.cfg.RuleLevel(rule.ID, rule.DefaultLevel)
		if level < e.cfg.Threshold {
			continue
		}

		private := diag.NewBag(e.maxDiagnostics)
		phase := timer.Begin(rule.ID)
		err := e.runIsolated(rule, in, diag.BagReporter{Bag: private})
		timer.End(phase, fmt.Sprintf("%d diagnostics", private.Len()))
		if err != nil {
			report.Failures = append(report.Failures, RuleFailure{RuleID: rule.ID, Err: err.Error()})
			continue
		}
		relevelBag(private, rule, level)
		report.Bag.Merge(private)
	}
	report.Timing = timer.Report()
	report.finalize()
	return report
}

// runIsolated shields the engine from a misbehaving rule: panics become
// errors and never abort the file's remaining rules.
func (e *Engine) runIsolated(rule Rule, in Input, r diag.Reporter) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("rule %s panicked: %v", rule.ID, rec)
		}
	}()
	return rule.Analyze(in, r)
}

// relevelBag rewrites diagnostic severities when the config overrides the
// rule's level. Without an override the codes keep their natural severity.
func relevelBag(bag *diag.Bag, rule Rule, level diag.Severity) {
	if level == rule.DefaultLevel {
		return
	}
	items := bag.Items()
	for i := range items {
		items[i].Severity = level
	}
}

// Package rules turns the individual checks into independently configurable
// Rule values and orchestrates them over one file's analyzed state. There is
// no global registry: callers construct the rule list explicitly (tests
// build minimal sets) and hand it to NewEngine.
package rules

import (
	"rillcheck/internal/ast"
	"rillcheck/internal/callgraph"
	"rillcheck/internal/diag"
	"rillcheck/internal/effects"
	"rillcheck/internal/resultcheck"
	"rillcheck/internal/symbols"
)

// Input is the read-only analyzed state shared by every rule for one file.
type Input struct {
	Path    string
	Program *ast.Program
	Table   *symbols.Table
	Graph   *callgraph.Graph
	Effects *effects.Solution
}

// Rule is one independently configurable check.
type Rule struct {
	ID           string
	Category     string
	Description  string
	DefaultLevel diag.Severity
	Analyze      func(in Input, r diag.Reporter) error
}

// DefaultRules returns the full built-in rule set in a fixed order.
func DefaultRules() []Rule {
	return []Rule{
		{
			ID:           "pure-function-validation",
			Category:     "effects",
			Description:  "pure functions must not declare, use or reach effects",
			DefaultLevel: diag.SevError,
			Analyze: func(in Input, r diag.Reporter) error {
				effects.CheckPurity(in.Table, in.Graph, in.Effects, r)
				return nil
			},
		},
		{
			ID:           "effect-completeness",
			Category:     "effects",
			Description:  "every exercised effect must appear in the uses clause",
			DefaultLevel: diag.SevError,
			Analyze: func(in Input, r diag.Reporter) error {
				effects.CheckCompleteness(in.Table, in.Effects, r)
				return nil
			},
		},
		{
			ID:           "effect-minimality",
			Category:     "effects",
			Description:  "declared effects that are never exercised are noise",
			DefaultLevel: diag.SevWarning,
			Analyze: func(in Input, r diag.Reporter) error {
				effects.CheckMinimality(in.Table, in.Effects, r)
				return nil
			},
		},
		{
			ID:           "effect-propagation",
			Category:     "effects",
			Description:  "call sites must not leak callee effects the caller does not declare",
			DefaultLevel: diag.SevError,
			Analyze: func(in Input, r diag.Reporter) error {
				effects.CheckPropagation(in.Table, in.Graph, in.Effects, r)
				return nil
			},
		},
		{
			ID:           "error-handling",
			Category:     "results",
			Description:  "Result functions need a success and an error path",
			DefaultLevel: diag.SevError,
			Analyze: func(in Input, r diag.Reporter) error {
				resultcheck.CheckPathCoverage(in.Table, r)
				return nil
			},
		},
		{
			ID:           "error-propagation-validation",
			Category:     "results",
			Description:  "the ? operator requires a Result context on both sides",
			DefaultLevel: diag.SevError,
			Analyze: func(in Input, r diag.Reporter) error {
				resultcheck.CheckPropagation(in.Table, r)
				return nil
			},
		},
		{
			ID:           "unused-results",
			Category:     "results",
			Description:  "every Result value must be consumed",
			DefaultLevel: diag.SevError,
			Analyze: func(in Input, r diag.Reporter) error {
				resultcheck.CheckUnusedResults(in.Table, r)
				return nil
			},
		},
		{
			ID:           "dead-error-paths",
			Category:     "results",
			Description:  "unreachable code after Ok returns and contradictory guards",
			DefaultLevel: diag.SevWarning,
			Analyze: func(in Input, r diag.Reporter) error {
				resultcheck.CheckDeadErrorPaths(in.Table, r)
				return nil
			},
		},
	}
}

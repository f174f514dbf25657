package effects

import (
	"fmt"
	"strings"

	"rillcheck/internal/callgraph"
	"rillcheck/internal/diag"
	"rillcheck/internal/symbols"
)

// CheckPurity enforces pure-function-validation: a pure function must not
// declare effects, use effectful primitives, or reach an impure callee.
func CheckPurity(table *symbols.Table, graph *callgraph.Graph, sol *Solution, r diag.Reporter) {
	table.Each(func(sig *symbols.FunctionSignature) {
		if !sig.IsPure {
			return
		}
		if len(sig.DeclaredEffects) > 0 {
			diag.ReportError(r, diag.EffPureDeclaresEffects, sig.Span,
				fmt.Sprintf("pure function '%s' must not declare effects %s",
					sig.Name, tagList(sig.DeclaredEffects))).
				WithFix(fmt.Sprintf("remove the uses clause from '%s'", sig.Name)).
				Emit()
		}
		if direct := graph.DirectUsages(sig.Name); len(direct) > 0 {
			diag.ReportError(r, diag.EffPureCallsImpure, sig.Span,
				fmt.Sprintf("pure function '%s' uses effectful operations %s",
					sig.Name, tagList(direct))).
				WithFix(fmt.Sprintf("drop the pure modifier or remove the effectful calls from '%s'", sig.Name)).
				Emit()
		}
		for _, callee := range graph.Callees(sig.Name) {
			calleeSig, ok := table.Lookup(callee)
			if !ok || calleeSig.IsPure {
				continue
			}
			if sol.ClaimedNonEmpty(callee) {
				diag.ReportError(r, diag.EffPureCallsImpure, sig.Span,
					fmt.Sprintf("pure function '%s' cannot call impure function '%s'",
						sig.Name, callee)).
					WithNote(calleeSig.Span, fmt.Sprintf("'%s' has effects %s", callee, tagList(sol.Claimed(callee)))).
					Emit()
			}
		}
	})
}

// CheckCompleteness enforces effect-completeness: a non-pure function must
// declare every tag in its effective set. Pure functions are skipped
// entirely; when purity is violated the purity rule already explains the
// problem, and a second completeness report would only contradict it.
func CheckCompleteness(table *symbols.Table, sol *Solution, r diag.Reporter) {
	table.Each(func(sig *symbols.FunctionSignature) {
		if sig.IsPure {
			return
		}
		missing := sol.Missing(sig.Name, sig.DeclaredEffects)
		if len(missing) == 0 {
			return
		}
		diag.ReportError(r, diag.EffMissingDeclaration, sig.Span,
			fmt.Sprintf("function '%s' uses undeclared effects %s",
				sig.Name, tagList(missing))).
			WithFix(fmt.Sprintf("add %s to the uses clause of '%s'", tagList(missing), sig.Name)).
			Emit()
	})
}

// CheckMinimality enforces effect-minimality: declared tags that are never
// exercised, directly or transitively, are reported as a warning.
func CheckMinimality(table *symbols.Table, sol *Solution, r diag.Reporter) {
	table.Each(func(sig *symbols.FunctionSignature) {
		if sig.IsPure {
			return
		}
		unused := sol.Unused(sig.Name, sig.DeclaredEffects)
		if len(unused) == 0 {
			return
		}
		diag.ReportWarning(r, diag.EffUnusedDeclaration, sig.Span,
			fmt.Sprintf("function '%s' declares effects %s that are never used",
				sig.Name, tagList(unused))).
			WithFix(fmt.Sprintf("remove %s from the uses clause of '%s'", tagList(unused), sig.Name)).
			Emit()
	})
}

// CheckPropagation enforces effect-propagation per call site: every tag in a
// direct callee's claimed set must appear in the caller's declared set. The
// message distinguishes a pure caller (the call itself is illegal) from an
// impure caller with an incomplete uses clause.
func CheckPropagation(table *symbols.Table, graph *callgraph.Graph, sol *Solution, r diag.Reporter) {
	for _, site := range graph.Sites() {
		caller, ok := table.Lookup(site.Caller)
		if !ok {
			continue
		}
		calleeSig, ok := table.Lookup(site.Callee)
		if !ok || calleeSig.IsPure {
			continue
		}
		declared := make(map[string]bool, len(caller.DeclaredEffects))
		for _, tag := range caller.DeclaredEffects {
			declared[tag] = true
		}
		for _, tag := range sol.Claimed(site.Callee) {
			if declared[tag] {
				continue
			}
			if caller.IsPure {
				diag.ReportError(r, diag.EffPurePropagation, site.Span,
					fmt.Sprintf("pure function '%s' cannot call impure function '%s' (effect %s)",
						site.Caller, site.Callee, tag)).
					Emit()
			} else {
				diag.ReportError(r, diag.EffUndeclaredPropagation, site.Span,
					fmt.Sprintf("function '%s' must declare effect %s to call '%s'",
						site.Caller, tag, site.Callee)).
					WithFix(fmt.Sprintf("add %s to the uses clause of '%s'", tag, site.Caller)).
					Emit()
			}
		}
	}
}

func tagList(tags []string) string {
	return "[" + strings.Join(tags, ", ") + "]"
}

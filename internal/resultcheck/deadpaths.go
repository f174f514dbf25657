package resultcheck

import (
	"fmt"
	"strings"

	"rillcheck/internal/ast"
	"rillcheck/internal/diag"
	"rillcheck/internal/symbols"
)

// CheckDeadErrorPaths enforces dead-error-paths (warning only):
//
//  1. statements following an unconditional `return Ok(...)` in the same
//     block are unreachable;
//  2. a single-branch `if (cond) { return Error("...") }` whose comparison
//     operator lexically contradicts the error text (a fixed antonym table)
//     is flagged as a consistency smell. Both are acknowledged heuristics.
func CheckDeadErrorPaths(table *symbols.Table, r diag.Reporter) {
	table.Each(func(sig *symbols.FunctionSignature) {
		d := deadPaths{reporter: r, fn: sig.Name}
		d.stmts(sig.Decl.Body)
	})
}

type deadPaths struct {
	reporter diag.Reporter
	fn       string
}

func (d *deadPaths) stmts(body []ast.Stmt) {
	for i, s := range body {
		if ret, ok := s.(*ast.ReturnStmt); ok && i+1 < len(body) {
			if _, isOk := ret.Value.(*ast.OkExpr); isOk {
				next := body[i+1]
				diag.ReportWarning(d.reporter, diag.ResUnreachableAfterOk, next.StmtSpan(),
					fmt.Sprintf("unreachable code in '%s' after unconditional return Ok", d.fn)).
					WithNote(ret.Span, "every path returns here").
					Emit()
				// Keep walking: nested blocks may hide further findings.
			}
		}
		d.stmt(s)
	}
}

func (d *deadPaths) stmt(s ast.Stmt) {
	switch st := s.(type) {
	case *ast.IfStmt:
		d.checkContradiction(st)
		d.stmts(st.Then)
		d.stmts(st.Else)
	case *ast.GuardStmt:
		d.stmts(st.Else)
	case *ast.MatchStmt:
		d.stmts(st.OkArm)
		d.stmts(st.ErrArm)
	case *ast.LetStmt, *ast.ReturnStmt, *ast.ExprStmt:
	}
}

// antonyms maps a comparison operator to words that contradict it when they
// appear in the guarded error message. Small and fixed on purpose.
var antonyms = map[string][]string{
	">":  {"negative", "too small", "less than"},
	">=": {"negative", "too small"},
	"<":  {"positive", "too large", "greater than"},
	"<=": {"positive", "too large"},
	"==": {"not equal", "differ"},
	"!=": {"equal"},
}

func (d *deadPaths) checkContradiction(st *ast.IfStmt) {
	if len(st.Else) != 0 || len(st.Then) != 1 {
		return
	}
	ret, ok := st.Then[0].(*ast.ReturnStmt)
	if !ok {
		return
	}
	errExpr, ok := ret.Value.(*ast.ErrExpr)
	if !ok || errExpr.Value == nil {
		return
	}
	lit, ok := errExpr.Value.(*ast.LitExpr)
	if !ok || lit.Kind != ast.LitString {
		return
	}
	cond, ok := st.Cond.(*ast.BinaryExpr)
	if !ok {
		return
	}
	msg := strings.ToLower(lit.Text)
	for _, word := range antonyms[cond.Op] {
		if strings.Contains(msg, word) {
			diag.ReportWarning(d.reporter, diag.ResContradictoryGuard, st.Span,
				fmt.Sprintf("guard in '%s' tests '%s' but its error message says %q",
					d.fn, cond.Op, lit.Text)).
				Emit()
			return
		}
	}
}

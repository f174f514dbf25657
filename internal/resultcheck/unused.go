package resultcheck

import (
	"fmt"

	"rillcheck/internal/ast"
	"rillcheck/internal/diag"
	"rillcheck/internal/symbols"
)

// CheckUnusedResults enforces unused-results: a Result-returning call used
// as a bare statement (not let-bound, not returned, not propagated, not
// matched) discards its error channel and is reported.
func CheckUnusedResults(table *symbols.Table, r diag.Reporter) {
	table.Each(func(sig *symbols.FunctionSignature) {
		u := unused{table: table, reporter: r}
		u.stmts(sig.Decl.Body)
	})
}

type unused struct {
	table    *symbols.Table
	reporter diag.Reporter
}

func (u *unused) stmts(body []ast.Stmt) {
	for _, s := range body {
		u.stmt(s)
	}
}

func (u *unused) stmt(s ast.Stmt) {
	switch st := s.(type) {
	case *ast.ExprStmt:
		if call, ok := st.X.(*ast.CallExpr); ok {
			if sig, known := u.table.Lookup(call.Callee); known && sig.ReturnsResult() {
				diag.ReportError(u.reporter, diag.ResUnusedResult, call.Span,
					fmt.Sprintf("result of '%s' is not consumed", call.Callee)).
					WithFix(fmt.Sprintf("bind, match, return or propagate the Result of '%s'", call.Callee)).
					Emit()
			}
		}
	case *ast.IfStmt:
		u.stmts(st.Then)
		u.stmts(st.Else)
	case *ast.GuardStmt:
		u.stmts(st.Else)
	case *ast.MatchStmt:
		u.stmts(st.OkArm)
		u.stmts(st.ErrArm)
	case *ast.LetStmt, *ast.ReturnStmt:
		// binding and returning both consume the value
	}
}

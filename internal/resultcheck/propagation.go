package resultcheck

import (
	"fmt"

	"rillcheck/internal/ast"
	"rillcheck/internal/diag"
	"rillcheck/internal/symbols"
)

// CheckPropagation enforces error-propagation-validation. The `?` operator
// is legal only (a) inside a function whose own return type is Result and
// (b) applied to an expression statically known to produce a Result: a call
// to a Result-returning function or another propagation expression.
func CheckPropagation(table *symbols.Table, r diag.Reporter) {
	table.Each(func(sig *symbols.FunctionSignature) {
		p := propagation{table: table, fn: sig, reporter: r}
		p.stmts(sig.Decl.Body)
	})
}

type propagation struct {
	table    *symbols.Table
	fn       *symbols.FunctionSignature
	reporter diag.Reporter
}

func (p *propagation) stmts(body []ast.Stmt) {
	for _, s := range body {
		p.stmt(s)
	}
}

func (p *propagation) stmt(s ast.Stmt) {
	switch st := s.(type) {
	case *ast.LetStmt:
		p.expr(st.Value)
	case *ast.IfStmt:
		p.expr(st.Cond)
		p.stmts(st.Then)
		p.stmts(st.Else)
	case *ast.GuardStmt:
		p.expr(st.Cond)
		p.stmts(st.Else)
	case *ast.ReturnStmt:
		if st.Value != nil {
			p.expr(st.Value)
		}
	case *ast.MatchStmt:
		p.expr(st.Subject)
		p.stmts(st.OkArm)
		p.stmts(st.ErrArm)
	case *ast.ExprStmt:
		p.expr(st.X)
	}
}

func (p *propagation) expr(e ast.Expr) {
	switch ex := e.(type) {
	case *ast.PropagateExpr:
		if !p.fn.ReturnsResult() {
			diag.ReportError(p.reporter, diag.ResPropagateOutsideResult, ex.Span,
				fmt.Sprintf("'?' requires the enclosing function '%s' to return Result, not %s",
					p.fn.Name, typeName(p.fn.Return))).
				WithFix(fmt.Sprintf("change the return type of '%s' to Result<%s, _> or handle the error locally",
					p.fn.Name, typeName(p.fn.Return))).
				Emit()
		}
		if !p.yieldsResult(ex.X) {
			diag.ReportError(p.reporter, diag.ResPropagateNonResult, ex.Span,
				"'?' applied to an expression that is not statically known to return Result").
				Emit()
		}
		p.expr(ex.X)
	case *ast.CallExpr:
		for _, arg := range ex.Args {
			p.expr(arg)
		}
	case *ast.BinaryExpr:
		p.expr(ex.L)
		p.expr(ex.R)
	case *ast.OkExpr:
		if ex.Value != nil {
			p.expr(ex.Value)
		}
	case *ast.ErrExpr:
		if ex.Value != nil {
			p.expr(ex.Value)
		}
	case *ast.IdentExpr, *ast.MemberExpr, *ast.LitExpr:
	}
}

// yieldsResult reports whether the expression statically produces a Result.
func (p *propagation) yieldsResult(e ast.Expr) bool {
	switch ex := e.(type) {
	case *ast.CallExpr:
		sig, ok := p.table.Lookup(ex.Callee)
		return ok && sig.ReturnsResult()
	case *ast.PropagateExpr:
		return true
	default:
		return false
	}
}

func typeName(t ast.TypeRef) string {
	if t.IsUnit() {
		return "unit"
	}
	return t.String()
}

package resultcheck

import (
	"fmt"

	"rillcheck/internal/ast"
	"rillcheck/internal/diag"
	"rillcheck/internal/symbols"
)

// CheckPathCoverage enforces error-handling: a Result-returning function
// must return Ok along some path and Error (or delegate to another Result
// source) along some path. Only the complete absence of both is reported;
// partial coverage is a type-level concern the frontend already owns.
func CheckPathCoverage(table *symbols.Table, r diag.Reporter) {
	table.Each(func(sig *symbols.FunctionSignature) {
		if !sig.ReturnsResult() {
			return
		}
		cov := coverage{table: table}
		cov.stmts(sig.Decl.Body)
		if cov.hasOk || cov.hasErr || cov.hasDelegate {
			return
		}
		diag.ReportError(r, diag.ResNoTerminalPath, sig.Span,
			fmt.Sprintf("function '%s' returns Result but has no success or error path", sig.Name)).
			WithFix(fmt.Sprintf("return Ok(...) on success and Error(...) on failure from '%s'", sig.Name)).
			Emit()
	})
}

type coverage struct {
	table       *symbols.Table
	hasOk       bool
	hasErr      bool
	hasDelegate bool
}

func (c *coverage) stmts(body []ast.Stmt) {
	for _, s := range body {
		c.stmt(s)
	}
}

func (c *coverage) stmt(s ast.Stmt) {
	switch st := s.(type) {
	case *ast.LetStmt:
		c.expr(st.Value)
	case *ast.IfStmt:
		c.stmts(st.Then)
		c.stmts(st.Else)
	case *ast.GuardStmt:
		c.stmts(st.Else)
	case *ast.ReturnStmt:
		c.ret(st.Value)
	case *ast.MatchStmt:
		c.stmts(st.OkArm)
		c.stmts(st.ErrArm)
	case *ast.ExprStmt:
		c.expr(st.X)
	}
}

func (c *coverage) ret(value ast.Expr) {
	switch v := value.(type) {
	case nil:
	case *ast.OkExpr:
		c.hasOk = true
	case *ast.ErrExpr:
		c.hasErr = true
	case *ast.CallExpr:
		// Forwarding another Result-returning call covers both paths.
		if sig, ok := c.table.Lookup(v.Callee); ok && sig.ReturnsResult() {
			c.hasDelegate = true
		}
	default:
		c.expr(value)
	}
}

// expr only hunts for propagation: a `?` anywhere gives the function an
// error path by construction.
func (c *coverage) expr(e ast.Expr) {
	switch ex := e.(type) {
	case *ast.PropagateExpr:
		c.hasDelegate = true
		c.expr(ex.X)
	case *ast.CallExpr:
		for _, arg := range ex.Args {
			c.expr(arg)
		}
	case *ast.BinaryExpr:
		c.expr(ex.L)
		c.expr(ex.R)
	case *ast.OkExpr:
		if ex.Value != nil {
			c.expr(ex.Value)
		}
	case *ast.ErrExpr:
		if ex.Value != nil {
			c.expr(ex.Value)
		}
	case *ast.IdentExpr, *ast.MemberExpr, *ast.LitExpr:
	}
}

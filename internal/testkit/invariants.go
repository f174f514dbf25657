// Package testkit holds shared test helpers: tree invariant checks and
// builders for hand-written programs.
package testkit

import (
	"fmt"

	"fortio.org/safecast"

	"rillcheck/internal/ast"
	"rillcheck/internal/source"
)

// CheckSpanInvariants runs a minimal set of span invariants on a decoded
// program:
// 1) every declaration span is non-empty and points at sf
// 2) every statement and expression span points at sf
// 3) when sf carries content, no span starts past the last line
func CheckSpanInvariants(prog *ast.Program, sf *source.File) error {
	if prog == nil || sf == nil {
		return fmt.Errorf("nil program or file")
	}

	var maxLine uint32
	if len(sf.Content) > 0 {
		n, err := safecast.Conv[uint32](len(sf.LineIdx))
		if err != nil {
			return fmt.Errorf("line count overflow: %w", err)
		}
		maxLine = n
	}

	check := func(sp source.Span, what string) error {
		if sp.Empty() {
			return fmt.Errorf("empty %s span: %v", what, sp)
		}
		if sp.File != sf.ID {
			return fmt.Errorf("%s span file mismatch: got=%d want=%d", what, sp.File, sf.ID)
		}
		if maxLine > 0 && sp.Line > maxLine {
			return fmt.Errorf("%s span beyond file: line %d > %d", what, sp.Line, maxLine)
		}
		return nil
	}

	var walkExpr func(e ast.Expr) error
	var walkStmts func(stmts []ast.Stmt) error

	walkExpr = func(e ast.Expr) error {
		if e == nil {
			return nil
		}
		if err := check(e.ExprSpan(), "expr"); err != nil {
			return err
		}
		switch x := e.(type) {
		case *ast.CallExpr:
			for _, arg := range x.Args {
				if err := walkExpr(arg); err != nil {
					return err
				}
			}
		case *ast.BinaryExpr:
			if err := walkExpr(x.L); err != nil {
				return err
			}
			return walkExpr(x.R)
		case *ast.PropagateExpr:
			return walkExpr(x.X)
		case *ast.OkExpr:
			return walkExpr(x.Value)
		case *ast.ErrExpr:
			return walkExpr(x.Value)
		}
		return nil
	}

	walkStmts = func(stmts []ast.Stmt) error {
		for _, s := range stmts {
			if err := check(s.StmtSpan(), "stmt"); err != nil {
				return err
			}
			switch st := s.(type) {
			case *ast.LetStmt:
				if err := walkExpr(st.Value); err != nil {
					return err
				}
			case *ast.IfStmt:
				if err := walkExpr(st.Cond); err != nil {
					return err
				}
				if err := walkStmts(st.Then); err != nil {
					return err
				}
				if err := walkStmts(st.Else); err != nil {
					return err
				}
			case *ast.GuardStmt:
				if err := walkExpr(st.Cond); err != nil {
					return err
				}
				if err := walkStmts(st.Else); err != nil {
					return err
				}
			case *ast.ReturnStmt:
				if err := walkExpr(st.Value); err != nil {
					return err
				}
			case *ast.MatchStmt:
				if err := walkExpr(st.Subject); err != nil {
					return err
				}
				if err := walkStmts(st.OkArm); err != nil {
					return err
				}
				if err := walkStmts(st.ErrArm); err != nil {
					return err
				}
			case *ast.ExprStmt:
				if err := walkExpr(st.X); err != nil {
					return err
				}
			}
		}
		return nil
	}

	checkFunc := func(fn *ast.FuncDecl) error {
		if err := check(fn.Span, "func"); err != nil {
			return err
		}
		return walkStmts(fn.Body)
	}

	for _, decl := range prog.Decls {
		switch d := decl.(type) {
		case *ast.FuncDecl:
			if err := checkFunc(d); err != nil {
				return err
			}
		case *ast.ModuleDecl:
			if err := check(d.Span, "module"); err != nil {
				return err
			}
			for _, fn := range d.Funcs {
				if err := checkFunc(fn); err != nil {
					return err
				}
			}
		default:
			return fmt.Errorf("unknown declaration %T", decl)
		}
	}
	return nil
}

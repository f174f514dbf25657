package testkit

import (
	"rillcheck/internal/ast"
	"rillcheck/internal/source"
)

// At builds a span in file 1; tests rarely care about the file id.
func At(line, col uint32) source.Span {
	return source.Span{File: 1, Line: line, Col: col, Len: 1}
}

// Fn builds a plain function with the given body.
func Fn(name string, line uint32, body ...ast.Stmt) *ast.FuncDecl {
	return &ast.FuncDecl{
		Name:       name,
		ReturnType: ast.TypeRef{Name: "Unit"},
		Body:       body,
		Span:       At(line, 1),
	}
}

// PureFn builds a function marked pure.
func PureFn(name string, line uint32, body ...ast.Stmt) *ast.FuncDecl {
	fn := Fn(name, line, body...)
	fn.IsPure = true
	return fn
}

// EffectFn builds a function with a uses clause.
func EffectFn(name string, line uint32, effects []string, body ...ast.Stmt) *ast.FuncDecl {
	fn := Fn(name, line, body...)
	fn.DeclaredEffects = effects
	return fn
}

// ResultFn builds a function returning Result<Int, String>.
func ResultFn(name string, line uint32, body ...ast.Stmt) *ast.FuncDecl {
	fn := Fn(name, line, body...)
	fn.ReturnType = ast.TypeRef{Name: "Result", Args: []ast.TypeRef{{Name: "Int"}, {Name: "String"}}}
	return fn
}

// Call builds a call statement.
func Call(callee string, line uint32, args ...ast.Expr) ast.Stmt {
	return &ast.ExprStmt{
		X:    &ast.CallExpr{Callee: callee, Args: args, Span: At(line, 5)},
		Span: At(line, 5),
	}
}

// Ret builds a return statement.
func Ret(line uint32, value ast.Expr) ast.Stmt {
	return &ast.ReturnStmt{Value: value, Span: At(line, 5)}
}

// Ok builds an Ok constructor expression.
func Ok(line uint32, value ast.Expr) ast.Expr {
	return &ast.OkExpr{Value: value, Span: At(line, 12)}
}

// Err builds an Error constructor expression.
func Err(line uint32, value ast.Expr) ast.Expr {
	return &ast.ErrExpr{Value: value, Span: At(line, 12)}
}

// Str builds a string literal.
func Str(text string, line uint32) ast.Expr {
	return &ast.LitExpr{Kind: ast.LitString, Text: text, Span: At(line, 20)}
}

// Int builds an integer literal.
func Int(text string, line uint32) ast.Expr {
	return &ast.LitExpr{Kind: ast.LitInt, Text: text, Span: At(line, 20)}
}

// Program wraps declarations into a program.
func Program(path string, decls ...ast.Decl) *ast.Program {
	return &ast.Program{Path: path, Decls: decls}
}

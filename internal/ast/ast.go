// Package ast models the analyzer's input contract: the already-parsed tree
// the frontend hands over. The node set is closed (sealed interfaces with a
// marker method per kind); every pass walks it with exhaustive type switches
// and treats an unknown kind as a structural error rather than a silent no-op.
package ast

import (
	"rillcheck/internal/source"
)

// Program is one file's worth of top-level declarations plus the metadata the
// renderer needs. The analyzer never reads Source itself; it is carried along
// purely for diagnostic context lines.
type Program struct {
	Path   string
	Source []byte
	Decls  []Decl
}

// Decl is a top-level declaration: a function or a module of functions.
type Decl interface {
	isDecl()
	DeclSpan() source.Span
}

// FuncDecl is a single function declaration. Module-level functions carry the
// bare name; the qualified form is produced by the declaration table.
type FuncDecl struct {
	Name            string
	Params          []Param
	ReturnType      TypeRef
	IsPure          bool
	DeclaredEffects []string // nil when the uses clause is absent
	Body            []Stmt
	Span            source.Span
}

type Param struct {
	Name string
	Type TypeRef
	Span source.Span
}

// ModuleDecl groups nested functions; they are indexed as Module.Function.
type ModuleDecl struct {
	Name  string
	Funcs []*FuncDecl
	Span  source.Span
}

func (*FuncDecl) isDecl()   {}
func (*ModuleDecl) isDecl() {}

func (d *FuncDecl) DeclSpan() source.Span   { return d.Span }
func (d *ModuleDecl) DeclSpan() source.Span { return d.Span }

// Stmt is the closed set of statement kinds.
type Stmt interface {
	isStmt()
	StmtSpan() source.Span
}

// LetStmt binds the value of an expression to a name.
type LetStmt struct {
	Name  string
	Value Expr
	Span  source.Span
}

// IfStmt is a conditional with an optional else block.
type IfStmt struct {
	Cond Expr
	Then []Stmt
	Else []Stmt // nil when absent
	Span source.Span
}

// GuardStmt is the early-exit form: the else block runs when Cond fails.
type GuardStmt struct {
	Cond Expr
	Else []Stmt
	Span source.Span
}

// ReturnStmt returns an optional value.
type ReturnStmt struct {
	Value Expr // nil for bare return
	Span  source.Span
}

// MatchStmt destructures a Result into an Ok arm and an Error arm.
type MatchStmt struct {
	Subject Expr
	OkBind  string
	OkArm   []Stmt
	ErrBind string
	ErrArm  []Stmt
	Span    source.Span
}

// ExprStmt evaluates an expression for its effects and drops the value.
type ExprStmt struct {
	X    Expr
	Span source.Span
}

func (*LetStmt) isStmt()    {}
func (*IfStmt) isStmt()     {}
func (*GuardStmt) isStmt()  {}
func (*ReturnStmt) isStmt() {}
func (*MatchStmt) isStmt()  {}
func (*ExprStmt) isStmt()   {}

func (s *LetStmt) StmtSpan() source.Span    { return s.Span }
func (s *IfStmt) StmtSpan() source.Span     { return s.Span }
func (s *GuardStmt) StmtSpan() source.Span  { return s.Span }
func (s *ReturnStmt) StmtSpan() source.Span { return s.Span }
func (s *MatchStmt) StmtSpan() source.Span  { return s.Span }
func (s *ExprStmt) StmtSpan() source.Span   { return s.Span }

// Expr is the closed set of expression kinds.
type Expr interface {
	isExpr()
	ExprSpan() source.Span
}

// CallExpr invokes a callee by its already-disambiguated qualified name
// ("toInt" or "Database.Write").
type CallExpr struct {
	Callee string
	Args   []Expr
	Span   source.Span
}

// IdentExpr references a binding or bare function value.
type IdentExpr struct {
	Name string
	Span source.Span
}

// MemberExpr is a qualified access used as a value (not called).
type MemberExpr struct {
	Qualifier string
	Member    string
	Span      source.Span
}

// BinaryExpr applies an infix operator.
type BinaryExpr struct {
	Op   string
	L, R Expr
	Span source.Span
}

// PropagateExpr is the `?` operator applied to a Result expression.
type PropagateExpr struct {
	X    Expr
	Span source.Span
}

// OkExpr constructs the success variant of a Result.
type OkExpr struct {
	Value Expr // nil for Ok()
	Span  source.Span
}

// ErrExpr constructs the error variant of a Result.
type ErrExpr struct {
	Value Expr // nil for Error()
	Span  source.Span
}

// LitExpr is an opaque literal; the analyzer only ever inspects string
// literal text (for the contradictory-guard heuristic).
type LitExpr struct {
	Kind LitKind
	Text string
	Span source.Span
}

type LitKind uint8

const (
	LitInt LitKind = iota
	LitFloat
	LitString
	LitBool
)

func (*CallExpr) isExpr()      {}
func (*IdentExpr) isExpr()     {}
func (*MemberExpr) isExpr()    {}
func (*BinaryExpr) isExpr()    {}
func (*PropagateExpr) isExpr() {}
func (*OkExpr) isExpr()        {}
func (*ErrExpr) isExpr()       {}
func (*LitExpr) isExpr()       {}

func (e *CallExpr) ExprSpan() source.Span      { return e.Span }
func (e *IdentExpr) ExprSpan() source.Span     { return e.Span }
func (e *MemberExpr) ExprSpan() source.Span    { return e.Span }
func (e *BinaryExpr) ExprSpan() source.Span    { return e.Span }
func (e *PropagateExpr) ExprSpan() source.Span { return e.Span }
func (e *OkExpr) ExprSpan() source.Span        { return e.Span }
func (e *ErrExpr) ExprSpan() source.Span       { return e.Span }
func (e *LitExpr) ExprSpan() source.Span       { return e.Span }

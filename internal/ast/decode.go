package ast

import (
	"encoding/json"
	"errors"
	"fmt"

	"rillcheck/internal/source"
)

// ErrBadDump marks a malformed AST dump. The caller treats it as a
// structural precondition failure: the file cannot be analyzed at all.
var ErrBadDump = errors.New("malformed AST dump")

// DecodeProgram decodes the frontend's JSON dump of a parsed file. Spans in
// the dump are file-relative; fileID stamps them with the FileSet identity
// the driver registered for this file.
func DecodeProgram(data []byte, fileID source.FileID) (*Program, error) {
	var raw rawProgram
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadDump, err)
	}
	prog := &Program{
		Path:   raw.Path,
		Source: []byte(raw.Source),
		Decls:  make([]Decl, 0, len(raw.Decls)),
	}
	for i, rd := range raw.Decls {
		d, err := decodeDecl(rd, fileID)
		if err != nil {
			return nil, fmt.Errorf("decl %d: %w", i, err)
		}
		prog.Decls = append(prog.Decls, d)
	}
	return prog, nil
}

type rawProgram struct {
	Path   string            `json:"path"`
	Source string            `json:"source,omitempty"`
	Decls  []json.RawMessage `json:"decls"`
}

type rawSpan struct {
	Line uint32 `json:"line"`
	Col  uint32 `json:"col"`
	Len  uint32 `json:"len"`
}

func (r rawSpan) span(fileID source.FileID) source.Span {
	return source.Span{File: fileID, Line: r.Line, Col: r.Col, Len: r.Len}
}

type rawTypeRef struct {
	Name string       `json:"name"`
	Args []rawTypeRef `json:"args,omitempty"`
}

func (r rawTypeRef) typeRef() TypeRef {
	t := TypeRef{Name: r.Name}
	for _, a := range r.Args {
		t.Args = append(t.Args, a.typeRef())
	}
	return t
}

type rawDecl struct {
	Kind    string            `json:"kind"`
	Name    string            `json:"name"`
	Pure    bool              `json:"pure,omitempty"`
	Effects []string          `json:"effects"`
	Params  []rawParam        `json:"params,omitempty"`
	Return  rawTypeRef        `json:"return"`
	Body    []json.RawMessage `json:"body,omitempty"`
	Funcs   []json.RawMessage `json:"funcs,omitempty"`
	Span    rawSpan           `json:"span"`
}

type rawParam struct {
	Name string     `json:"name"`
	Type rawTypeRef `json:"type"`
	Span rawSpan    `json:"span"`
}

func decodeDecl(data json.RawMessage, fileID source.FileID) (Decl, error) {
	var raw rawDecl
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadDump, err)
	}
	switch raw.Kind {
	case "func":
		return decodeFunc(raw, fileID)
	case "module":
		mod := &ModuleDecl{Name: raw.Name, Span: raw.Span.span(fileID)}
		for i, rf := range raw.Funcs {
			var fraw rawDecl
			if err := json.Unmarshal(rf, &fraw); err != nil {
				return nil, fmt.Errorf("%w: module %s func %d: %v", ErrBadDump, raw.Name, i, err)
			}
			if fraw.Kind != "func" {
				return nil, fmt.Errorf("%w: module %s contains non-function %q", ErrBadDump, raw.Name, fraw.Kind)
			}
			fn, err := decodeFunc(fraw, fileID)
			if err != nil {
				return nil, err
			}
			mod.Funcs = append(mod.Funcs, fn)
		}
		return mod, nil
	default:
		return nil, fmt.Errorf("%w: unknown declaration kind %q", ErrBadDump, raw.Kind)
	}
}

func decodeFunc(raw rawDecl, fileID source.FileID) (*FuncDecl, error) {
	fn := &FuncDecl{
		Name:            raw.Name,
		IsPure:          raw.Pure,
		DeclaredEffects: raw.Effects,
		ReturnType:      raw.Return.typeRef(),
		Span:            raw.Span.span(fileID),
	}
	for _, p := range raw.Params {
		fn.Params = append(fn.Params, Param{Name: p.Name, Type: p.Type.typeRef(), Span: p.Span.span(fileID)})
	}
	body, err := decodeStmts(raw.Body, fileID)
	if err != nil {
		return nil, fmt.Errorf("func %s: %w", raw.Name, err)
	}
	fn.Body = body
	return fn, nil
}

type rawStmt struct {
	Kind    string            `json:"kind"`
	Name    string            `json:"name,omitempty"`
	Value   json.RawMessage   `json:"value,omitempty"`
	Cond    json.RawMessage   `json:"cond,omitempty"`
	Then    []json.RawMessage `json:"then,omitempty"`
	Else    []json.RawMessage `json:"else,omitempty"`
	Subject json.RawMessage   `json:"subject,omitempty"`
	OkBind  string            `json:"ok_bind,omitempty"`
	OkArm   []json.RawMessage `json:"ok_arm,omitempty"`
	ErrBind string            `json:"err_bind,omitempty"`
	ErrArm  []json.RawMessage `json:"err_arm,omitempty"`
	Expr    json.RawMessage   `json:"expr,omitempty"`
	Span    rawSpan           `json:"span"`
}

func decodeStmts(raw []json.RawMessage, fileID source.FileID) ([]Stmt, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	out := make([]Stmt, 0, len(raw))
	for i, rs := range raw {
		s, err := decodeStmt(rs, fileID)
		if err != nil {
			return nil, fmt.Errorf("stmt %d: %w", i, err)
		}
		out = append(out, s)
	}
	return out, nil
}

func decodeStmt(data json.RawMessage, fileID source.FileID) (Stmt, error) {
	var raw rawStmt
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadDump, err)
	}
	sp := raw.Span.span(fileID)
	switch raw.Kind {
	case "let":
		value, err := decodeExpr(raw.Value, fileID)
		if err != nil {
			return nil, err
		}
		return &LetStmt{Name: raw.Name, Value: value, Span: sp}, nil
	case "if":
		cond, err := decodeExpr(raw.Cond, fileID)
		if err != nil {
			return nil, err
		}
		then, err := decodeStmts(raw.Then, fileID)
		if err != nil {
			return nil, err
		}
		els, err := decodeStmts(raw.Else, fileID)
		if err != nil {
			return nil, err
		}
		return &IfStmt{Cond: cond, Then: then, Else: els, Span: sp}, nil
	case "guard":
		cond, err := decodeExpr(raw.Cond, fileID)
		if err != nil {
			return nil, err
		}
		els, err := decodeStmts(raw.Else, fileID)
		if err != nil {
			return nil, err
		}
		return &GuardStmt{Cond: cond, Else: els, Span: sp}, nil
	case "return":
		var value Expr
		if len(raw.Value) > 0 {
			var err error
			value, err = decodeExpr(raw.Value, fileID)
			if err != nil {
				return nil, err
			}
		}
		return &ReturnStmt{Value: value, Span: sp}, nil
	case "match":
		subject, err := decodeExpr(raw.Subject, fileID)
		if err != nil {
			return nil, err
		}
		okArm, err := decodeStmts(raw.OkArm, fileID)
		if err != nil {
			return nil, err
		}
		errArm, err := decodeStmts(raw.ErrArm, fileID)
		if err != nil {
			return nil, err
		}
		return &MatchStmt{
			Subject: subject,
			OkBind:  raw.OkBind, OkArm: okArm,
			ErrBind: raw.ErrBind, ErrArm: errArm,
			Span: sp,
		}, nil
	case "expr":
		x, err := decodeExpr(raw.Expr, fileID)
		if err != nil {
			return nil, err
		}
		return &ExprStmt{X: x, Span: sp}, nil
	default:
		return nil, fmt.Errorf("%w: unknown statement kind %q", ErrBadDump, raw.Kind)
	}
}

type rawExpr struct {
	Kind      string            `json:"kind"`
	Name      string            `json:"name,omitempty"`
	Callee    string            `json:"callee,omitempty"`
	Args      []json.RawMessage `json:"args,omitempty"`
	Qualifier string            `json:"qualifier,omitempty"`
	Member    string            `json:"member,omitempty"`
	Op        string            `json:"op,omitempty"`
	Left      json.RawMessage   `json:"left,omitempty"`
	Right     json.RawMessage   `json:"right,omitempty"`
	Value     json.RawMessage   `json:"value,omitempty"`
	Lit       string            `json:"lit,omitempty"`
	Text      string            `json:"text,omitempty"`
	Span      rawSpan           `json:"span"`
}

func decodeExpr(data json.RawMessage, fileID source.FileID) (Expr, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: missing expression", ErrBadDump)
	}
	var raw rawExpr
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadDump, err)
	}
	sp := raw.Span.span(fileID)
	switch raw.Kind {
	case "call":
		call := &CallExpr{Callee: raw.Callee, Span: sp}
		for i, ra := range raw.Args {
			arg, err := decodeExpr(ra, fileID)
			if err != nil {
				return nil, fmt.Errorf("arg %d: %w", i, err)
			}
			call.Args = append(call.Args, arg)
		}
		return call, nil
	case "ident":
		return &IdentExpr{Name: raw.Name, Span: sp}, nil
	case "member":
		return &MemberExpr{Qualifier: raw.Qualifier, Member: raw.Member, Span: sp}, nil
	case "binary":
		left, err := decodeExpr(raw.Left, fileID)
		if err != nil {
			return nil, err
		}
		right, err := decodeExpr(raw.Right, fileID)
		if err != nil {
			return nil, err
		}
		return &BinaryExpr{Op: raw.Op, L: left, R: right, Span: sp}, nil
	case "propagate":
		x, err := decodeExpr(raw.Value, fileID)
		if err != nil {
			return nil, err
		}
		return &PropagateExpr{X: x, Span: sp}, nil
	case "ok":
		var value Expr
		if len(raw.Value) > 0 {
			var err error
			value, err = decodeExpr(raw.Value, fileID)
			if err != nil {
				return nil, err
			}
		}
		return &OkExpr{Value: value, Span: sp}, nil
	case "error":
		var value Expr
		if len(raw.Value) > 0 {
			var err error
			value, err = decodeExpr(raw.Value, fileID)
			if err != nil {
				return nil, err
			}
		}
		return &ErrExpr{Value: value, Span: sp}, nil
	case "lit":
		kind, err := parseLitKind(raw.Lit)
		if err != nil {
			return nil, err
		}
		return &LitExpr{Kind: kind, Text: raw.Text, Span: sp}, nil
	default:
		return nil, fmt.Errorf("%w: unknown expression kind %q", ErrBadDump, raw.Kind)
	}
}

func parseLitKind(s string) (LitKind, error) {
	switch s {
	case "int":
		return LitInt, nil
	case "float":
		return LitFloat, nil
	case "string":
		return LitString, nil
	case "bool":
		return LitBool, nil
	}
	return LitInt, fmt.Errorf("%w: unknown literal kind %q", ErrBadDump, s)
}

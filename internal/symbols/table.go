// Package symbols builds the declaration table: every function in a program,
// module-qualified where needed, indexed by name. The table is immutable once
// built and is the only owner of FunctionSignature records.
package symbols

import (
	"errors"
	"fmt"
	"sort"

	"rillcheck/internal/ast"
	"rillcheck/internal/source"
)

// ErrDuplicateFunction indicates two declarations share a qualified name.
// This is fatal for the file's analysis, not a lint diagnostic.
var ErrDuplicateFunction = errors.New("duplicate qualified function name")

// Param mirrors one declared parameter of a function.
type Param struct {
	Name string
	Type ast.TypeRef
}

// FunctionSignature is the table's record for one function. Immutable after
// Build returns.
type FunctionSignature struct {
	Name            string // qualified: "save" or "Store.save"
	Params          []Param
	Return          ast.TypeRef
	IsPure          bool
	DeclaredEffects []string // deduped, declaration order
	Span            source.Span
	Decl            *ast.FuncDecl
}

// ReturnsResult reports whether the function's declared return type is
// Result<T,E>.
func (s *FunctionSignature) ReturnsResult() bool {
	return s.Return.IsResult()
}

// Table maps qualified names to signatures.
type Table struct {
	byName map[string]*FunctionSignature
	names  []string // sorted for deterministic iteration
}

// Build walks the top-level declarations and indexes every function. Module
// functions are indexed under Module.Function.
func Build(prog *ast.Program) (*Table, error) {
	t := &Table{byName: make(map[string]*FunctionSignature)}
	for _, decl := range prog.Decls {
		switch d := decl.(type) {
		case *ast.FuncDecl:
			if err := t.add(d.Name, d); err != nil {
				return nil, err
			}
		case *ast.ModuleDecl:
			for _, fn := range d.Funcs {
				if err := t.add(d.Name+"."+fn.Name, fn); err != nil {
					return nil, err
				}
			}
		default:
			return nil, fmt.Errorf("unrecognized top-level declaration %T", decl)
		}
	}
	sort.Strings(t.names)
	return t, nil
}

func (t *Table) add(qualified string, fn *ast.FuncDecl) error {
	if prev, ok := t.byName[qualified]; ok {
		return fmt.Errorf("%w: %s (first at %s, again at %s)",
			ErrDuplicateFunction, qualified, prev.Span, fn.Span)
	}
	sig := &FunctionSignature{
		Name:            qualified,
		Return:          fn.ReturnType,
		IsPure:          fn.IsPure,
		DeclaredEffects: dedupEffects(fn.DeclaredEffects),
		Span:            fn.Span,
		Decl:            fn,
	}
	for _, p := range fn.Params {
		sig.Params = append(sig.Params, Param{Name: p.Name, Type: p.Type})
	}
	t.byName[qualified] = sig
	t.names = append(t.names, qualified)
	return nil
}

// Lookup returns the signature for the qualified name.
func (t *Table) Lookup(name string) (*FunctionSignature, bool) {
	sig, ok := t.byName[name]
	return sig, ok
}

// Names returns qualified names in sorted order.
func (t *Table) Names() []string {
	return t.names
}

// Len returns the number of indexed functions.
func (t *Table) Len() int {
	return len(t.byName)
}

// Each calls fn for every signature in sorted name order.
func (t *Table) Each(fn func(*FunctionSignature)) {
	for _, name := range t.names {
		fn(t.byName[name])
	}
}

func dedupEffects(effects []string) []string {
	if len(effects) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(effects))
	out := make([]string, 0, len(effects))
	for _, e := range effects {
		if seen[e] {
			continue
		}
		seen[e] = true
		out = append(out, e)
	}
	return out
}

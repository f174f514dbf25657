// Package callgraph walks function bodies and records two things per
// function: outgoing call edges (to callees present in the declaration
// table) and directly observed effect usages (via the inference provider for
// everything else). Edges have set semantics; the graph may contain cycles.
package callgraph

import (
	"sort"

	"rillcheck/internal/ast"
	"rillcheck/internal/source"
	"rillcheck/internal/symbols"
)

// Edge is one caller→callee pair.
type Edge struct {
	Caller string
	Callee string
}

// CallSite remembers where an edge was observed, for per-call-site rules.
type CallSite struct {
	Caller string
	Callee string
	Span   source.Span
}

// Graph is the per-program call graph. Read-only after Build.
type Graph struct {
	edges  map[string]map[string]struct{}
	usages map[string]map[string]struct{}
	sites  []CallSite
}

// Options configure graph construction.
type Options struct {
	// Provider infers direct effects for calls that do not resolve in the
	// declaration table. Defaults to HeuristicProvider.
	Provider EffectInferenceProvider
}

// Build constructs the call graph for every function in the table.
func Build(table *symbols.Table, opts Options) *Graph {
	provider := opts.Provider
	if provider == nil {
		provider = HeuristicProvider{}
	}
	g := &Graph{
		edges:  make(map[string]map[string]struct{}),
		usages: make(map[string]map[string]struct{}),
	}
	table.Each(func(sig *symbols.FunctionSignature) {
		w := &walker{graph: g, table: table, provider: provider, caller: sig.Name}
		w.stmts(sig.Decl.Body)
	})
	sort.Slice(g.sites, func(i, j int) bool {
		si, sj := g.sites[i], g.sites[j]
		if si.Caller != sj.Caller {
			return si.Caller < sj.Caller
		}
		if si.Span.Line != sj.Span.Line {
			return si.Span.Line < sj.Span.Line
		}
		if si.Span.Col != sj.Span.Col {
			return si.Span.Col < sj.Span.Col
		}
		return si.Callee < sj.Callee
	})
	return g
}

// Callees returns the sorted set of direct callees of caller.
func (g *Graph) Callees(caller string) []string {
	return sortedKeys(g.edges[caller])
}

// DirectUsages returns the sorted set of effect tags observed directly in
// the function body.
func (g *Graph) DirectUsages(fn string) []string {
	return sortedKeys(g.usages[fn])
}

// Edges returns every edge, sorted by (caller, callee).
func (g *Graph) Edges() []Edge {
	out := make([]Edge, 0, len(g.sites))
	for _, caller := range sortedKeys2(g.edges) {
		for _, callee := range sortedKeys(g.edges[caller]) {
			out = append(out, Edge{Caller: caller, Callee: callee})
		}
	}
	return out
}

// Sites returns every observed call site in deterministic order. A
// caller/callee pair appears once per occurrence, unlike Edges.
func (g *Graph) Sites() []CallSite {
	return g.sites
}

func (g *Graph) addEdge(caller, callee string, sp source.Span) {
	set, ok := g.edges[caller]
	if !ok {
		set = make(map[string]struct{})
		g.edges[caller] = set
	}
	set[callee] = struct{}{}
	g.sites = append(g.sites, CallSite{Caller: caller, Callee: callee, Span: sp})
}

func (g *Graph) addUsage(fn, tag string) {
	set, ok := g.usages[fn]
	if !ok {
		set = make(map[string]struct{})
		g.usages[fn] = set
	}
	set[tag] = struct{}{}
}

type walker struct {
	graph    *Graph
	table    *symbols.Table
	provider EffectInferenceProvider
	caller   string
}

func (w *walker) stmts(body []ast.Stmt) {
	for _, s := range body {
		w.stmt(s)
	}
}

func (w *walker) stmt(s ast.Stmt) {
	switch st := s.(type) {
	case *ast.LetStmt:
		w.expr(st.Value)
	case *ast.IfStmt:
		w.expr(st.Cond)
		w.stmts(st.Then)
		w.stmts(st.Else)
	case *ast.GuardStmt:
		w.expr(st.Cond)
		w.stmts(st.Else)
	case *ast.ReturnStmt:
		if st.Value != nil {
			w.expr(st.Value)
		}
	case *ast.MatchStmt:
		w.expr(st.Subject)
		w.stmts(st.OkArm)
		w.stmts(st.ErrArm)
	case *ast.ExprStmt:
		w.expr(st.X)
	}
}

func (w *walker) expr(e ast.Expr) {
	switch ex := e.(type) {
	case *ast.CallExpr:
		if _, resolved := w.table.Lookup(ex.Callee); resolved {
			w.graph.addEdge(w.caller, ex.Callee, ex.Span)
		} else {
			ctx := CallContext{Caller: w.caller, Argc: len(ex.Args)}
			for _, tag := range w.provider.InferEffects(ex.Callee, ctx) {
				w.graph.addUsage(w.caller, tag)
			}
		}
		for _, arg := range ex.Args {
			w.expr(arg)
		}
	case *ast.IdentExpr, *ast.MemberExpr, *ast.LitExpr:
		// leaves
	case *ast.BinaryExpr:
		w.expr(ex.L)
		w.expr(ex.R)
	case *ast.PropagateExpr:
		w.expr(ex.X)
	case *ast.OkExpr:
		if ex.Value != nil {
			w.expr(ex.Value)
		}
	case *ast.ErrExpr:
		if ex.Value != nil {
			w.expr(ex.Value)
		}
	}
}

func sortedKeys(set map[string]struct{}) []string {
	if len(set) == 0 {
		return nil
	}
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func sortedKeys2(m map[string]map[string]struct{}) []string {
	if len(m) == 0 {
		return nil
	}
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

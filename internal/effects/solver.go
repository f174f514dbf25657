// Package effects computes every function's effective effect set as a least
// fixed point over the call graph and validates the declared annotations
// against it.
//
// Two set families are tracked per function:
//
//   - claimed: declared ∪ direct usages ∪ claimed sets of non-pure callees.
//     This is the conservative contract a caller must honour.
//   - observed: direct usages ∪ observed sets of non-pure callees. This is
//     what actually happens, and is what minimality compares against (a tag
//     a callee merely declares does not count as exercising it).
//
// Both closures are monotone over a finite lattice, so iteration terminates;
// cycles in the graph (self or mutual recursion) need no special casing
// because set union is idempotent. A defensive pass cap turns a broken
// relaxation loop into an error instead of a hang.
package effects

import (
	"errors"
	"fmt"
	"sort"

	"rillcheck/internal/callgraph"
	"rillcheck/internal/source"
	"rillcheck/internal/symbols"
)

// ErrSolverDiverged reports that the relaxation loop exceeded its bound.
// That can only happen through an implementation bug; it is never silent.
var ErrSolverDiverged = errors.New("effect solver exceeded iteration bound")

type tagSet map[source.StringID]struct{}

func (s tagSet) add(id source.StringID) bool {
	if _, ok := s[id]; ok {
		return false
	}
	s[id] = struct{}{}
	return true
}

func (s tagSet) union(other tagSet) bool {
	changed := false
	for id := range other {
		if s.add(id) {
			changed = true
		}
	}
	return changed
}

// Solution is the solver's read-only output.
type Solution struct {
	claimed  map[string]tagSet
	observed map[string]tagSet
	interner *source.Interner
	passes   int
}

// Solve runs the fixed-point computation for every function in the table.
func Solve(table *symbols.Table, graph *callgraph.Graph) (*Solution, error) {
	sol := &Solution{
		claimed:  make(map[string]tagSet, table.Len()),
		observed: make(map[string]tagSet, table.Len()),
		interner: source.NewInterner(),
	}

	table.Each(func(sig *symbols.FunctionSignature) {
		claimed := make(tagSet)
		observed := make(tagSet)
		for _, tag := range sig.DeclaredEffects {
			claimed.add(sol.interner.Intern(tag))
		}
		for _, tag := range graph.DirectUsages(sig.Name) {
			id := sol.interner.Intern(tag)
			claimed.add(id)
			observed.add(id)
		}
		sol.claimed[sig.Name] = claimed
		sol.observed[sig.Name] = observed
	})

	edges := graph.Edges()

	// Each pass either grows at least one set or is the final no-op pass.
	// Distinct tags are fixed at initialization (unions add nothing new), so
	// |functions| × |tags| + 1 passes always suffice.
	distinctTags := sol.interner.Len() - 1 // minus the empty sentinel
	maxPasses := table.Len()*distinctTags + 1

	for {
		sol.passes++
		if sol.passes > maxPasses {
			return nil, fmt.Errorf("%w after %d passes (%d functions, %d tags)",
				ErrSolverDiverged, sol.passes, table.Len(), distinctTags)
		}
		changed := false
		for _, e := range edges {
			callee, ok := table.Lookup(e.Callee)
			if !ok || callee.IsPure {
				// Pure functions are never propagation sources; an impure
				// effective set on one is reported as a purity violation,
				// not forwarded as legitimate.
				continue
			}
			if sol.claimed[e.Caller].union(sol.claimed[e.Callee]) {
				changed = true
			}
			if sol.observed[e.Caller].union(sol.observed[e.Callee]) {
				changed = true
			}
		}
		if !changed {
			return sol, nil
		}
	}
}

// Passes returns how many relaxation passes the solver took.
func (s *Solution) Passes() int {
	return s.passes
}

// Claimed returns the sorted claimed effect set of fn.
func (s *Solution) Claimed(fn string) []string {
	return s.names(s.claimed[fn])
}

// Observed returns the sorted observed (actually exercised) effect set of fn.
func (s *Solution) Observed(fn string) []string {
	return s.names(s.observed[fn])
}

// ClaimedNonEmpty reports whether fn's claimed set has at least one tag.
func (s *Solution) ClaimedNonEmpty(fn string) bool {
	return len(s.claimed[fn]) > 0
}

// Missing returns the sorted claimed tags absent from declared.
func (s *Solution) Missing(fn string, declared []string) []string {
	return s.subtract(s.claimed[fn], declared)
}

// Unused returns the sorted declared tags absent from the observed set.
// Queries never intern: the Solution must stay read-only so rules can share
// it across goroutines.
func (s *Solution) Unused(fn string, declared []string) []string {
	observed := s.observed[fn]
	var out []string
	for _, tag := range declared {
		id, known := s.interner.Find(tag)
		if !known {
			out = append(out, tag)
			continue
		}
		if _, ok := observed[id]; !ok {
			out = append(out, tag)
		}
	}
	sort.Strings(out)
	return out
}

func (s *Solution) subtract(set tagSet, declared []string) []string {
	have := make(tagSet, len(declared))
	for _, tag := range declared {
		if id, ok := s.interner.Find(tag); ok {
			have.add(id)
		}
	}
	var out []string
	for id := range set {
		if _, ok := have[id]; !ok {
			out = append(out, s.interner.MustLookup(id))
		}
	}
	sort.Strings(out)
	return out
}

func (s *Solution) names(set tagSet) []string {
	if len(set) == 0 {
		return nil
	}
	out := make([]string, 0, len(set))
	for id := range set {
		out = append(out, s.interner.MustLookup(id))
	}
	sort.Strings(out)
	return out
}

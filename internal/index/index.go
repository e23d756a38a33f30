// Package index implements first-argument clause indexing (spec §4.6):
// partitioning a predicate's clauses so the machine can skip clauses that
// cannot possibly unify with a call's first argument.
package index

import (
	"github.com/hashicorp/go-set/v3"

	"github.com/gowam/wam/internal/compile"
	"github.com/gowam/wam/internal/term"
)

// Key identifies the shape of a dereferenced first argument: an unbound
// variable (Kind: KindVar, matching everything), an atom, or a compound
// functor.
type Key struct {
	Kind  Kind
	Atom  term.Atom
	Func  term.Functor
}

type Kind int

const (
	KindVar Kind = iota
	KindAtom
	KindFunc
)

func varKey() Key           { return Key{Kind: KindVar} }
func atomKey(a term.Atom) Key { return Key{Kind: KindAtom, Atom: a} }
func funcKey(f term.Functor) Key { return Key{Kind: KindFunc, Func: f} }

// Predicate is a predicate's compiled clauses, organized for indexed
// dispatch: the clauses in source order (the always-tried fallback when
// indexing cannot rule anything out), plus a lookup by first-argument
// shape built from the set of shapes that actually occur.
type Predicate struct {
	Clauses []compile.Code

	// order lists every clause index in source order: the candidate list
	// whenever indexing cannot narrow a call.
	order []int
	// buckets maps a concrete first-argument shape to the indices (into
	// Clauses, in source order) of clauses whose head could unify with
	// it: every clause with a variable first argument, plus every clause
	// whose own first argument has the same shape.
	buckets map[Key][]int
	// shapes is the set of concrete shapes seen among the clause heads,
	// used only to decide whether indexing is worth consulting at all.
	shapes *set.Set[Key]
}

// Build partitions clauses (already compiled, paired with their source
// first-argument term for shape classification) into an indexed
// Predicate. When enabled is false, every clause's shape is treated as
// unknown, so Candidates always falls back to trying every clause in
// source order (spec §4.6's indexing is an optimization, never required
// for correctness).
func Build(clauses []compile.Code, firstArgs []term.Term, enabled bool) *Predicate {
	p := &Predicate{Clauses: clauses, buckets: map[Key][]int{}, shapes: set.New[Key](0)}
	p.order = allIndices(len(clauses))
	if !enabled {
		return p
	}

	varIdx := []int{}
	for i, arg := range firstArgs {
		if isVarShaped(arg) {
			varIdx = append(varIdx, i)
			continue
		}
		p.shapes.Insert(shapeKey(arg))
	}

	for i, arg := range firstArgs {
		if isVarShaped(arg) {
			continue
		}
		k := shapeKey(arg)
		p.buckets[k] = append(p.buckets[k], i)
	}
	// Every variable-headed clause is a candidate for every shape, and
	// must be merged into each bucket in its correct source position.
	for k, idxs := range p.buckets {
		p.buckets[k] = mergeSorted(idxs, varIdx)
	}
	// The variable bucket is consulted when a call's argument shape
	// matches no clause head exactly: only variable-headed clauses remain.
	p.buckets[varKey()] = varIdx

	return p
}

// Candidates returns the indices into p.Clauses that could unify with a
// call whose dereferenced first argument is arg, in source order. If arg
// is an unbound variable, every clause is a candidate (nothing can be
// ruled out).
func (p *Predicate) Candidates(arg term.Term) []int {
	if arg == nil || isVarShaped(arg) || p.shapes.Size() == 0 {
		return p.order
	}
	k := shapeKey(arg)
	if idxs, ok := p.buckets[k]; ok {
		return idxs
	}
	// No clause head has this exact shape: only variable-headed clauses
	// remain candidates.
	return p.buckets[varKey()]
}

// isVarShaped reports whether t cannot narrow a dispatch: an actual
// variable, or nil (a zero-arity predicate's absent first argument).
func isVarShaped(t term.Term) bool {
	if t == nil {
		return true
	}
	_, ok := t.(term.Var)
	return ok
}

func shapeKey(t term.Term) Key {
	switch v := t.(type) {
	case term.Atom:
		return atomKey(v)
	case term.Compound:
		return funcKey(v.Functor())
	}
	return varKey()
}

func mergeSorted(a, b []int) []int {
	out := make([]int, 0, len(a)+len(b))
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		if a[i] < b[j] {
			out = append(out, a[i])
			i++
		} else {
			out = append(out, b[j])
			j++
		}
	}
	out = append(out, a[i:]...)
	out = append(out, b[j:]...)
	return out
}

func allIndices(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

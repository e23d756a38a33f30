package index_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gowam/wam/internal/compile"
	"github.com/gowam/wam/internal/index"
	"github.com/gowam/wam/internal/term"
)

func atom(name string) term.Atom { return term.Atom{Name: name} }
func v(name string) term.Var     { return term.Var{Name: name} }

func comp(name string, args ...term.Term) term.Compound { return term.Compound{Name: name, Args: args} }

func dummyClauses(n int) []compile.Code {
	out := make([]compile.Code, n)
	for i := range out {
		out[i] = compile.Code{Functor: term.Functor{Name: "p", Arity: 1}}
	}
	return out
}

// spec §8 scenario 3: filter via first-argument indexing. Four clauses
// keyed red, blue, <var>, green: a call with first argument "red" only
// tries the red-headed clause plus the variable-headed one, in source
// order; an unseen shape falls back to the variable bucket alone; an
// unbound call argument (nothing known yet) tries every clause.
func TestPredicateCandidatesByFirstArgumentShape(t *testing.T) {
	firstArgs := []term.Term{atom("red"), atom("blue"), v("X"), atom("green")}
	p := index.Build(dummyClauses(4), firstArgs, true)

	assert.Equal(t, []int{0, 2}, p.Candidates(atom("red")))
	assert.Equal(t, []int{1, 2}, p.Candidates(atom("blue")))
	assert.Equal(t, []int{2, 3}, p.Candidates(atom("green")))

	// "yellow" matches no clause's concrete shape: only the variable
	// clause remains a candidate.
	assert.Equal(t, []int{2}, p.Candidates(atom("yellow")))

	// An unbound call argument rules nothing out (P8: indexing is only
	// ever a pruning optimization, never a source of incompleteness).
	assert.Equal(t, []int{0, 1, 2, 3}, p.Candidates(v("Y")))
	assert.Equal(t, []int{0, 1, 2, 3}, p.Candidates(nil))
}

// Compound first arguments index by functor, ignoring their own
// arguments (spec §4.6 only looks at the top-level shape).
func TestPredicateCandidatesByFunctorShape(t *testing.T) {
	firstArgs := []term.Term{comp("f", atom("a")), comp("g", atom("b")), comp("f", atom("c"))}
	p := index.Build(dummyClauses(3), firstArgs, true)

	assert.Equal(t, []int{0, 2}, p.Candidates(comp("f", v("Z"))))
	assert.Equal(t, []int{1}, p.Candidates(comp("g", atom("anything"))))
}

// With indexing disabled (WithIndexing(false)'s escape hatch), every
// call falls back to a full scan in source order regardless of shape,
// so P8's pruning is an optimization the machine can verify against.
func TestPredicateCandidatesIndexingDisabled(t *testing.T) {
	firstArgs := []term.Term{atom("red"), atom("blue")}
	p := index.Build(dummyClauses(2), firstArgs, false)

	assert.Equal(t, []int{0, 1}, p.Candidates(atom("red")))
	assert.Equal(t, []int{0, 1}, p.Candidates(atom("nonexistent")))
}

// A predicate whose every clause has a variable first argument (or none
// at all, e.g. a 0-arity predicate) has no concrete shapes at all:
// Candidates always returns the full clause list.
func TestPredicateAllVariableHeadsNoNarrowing(t *testing.T) {
	firstArgs := []term.Term{v("X"), v("Y")}
	p := index.Build(dummyClauses(2), firstArgs, true)
	require.Equal(t, []int{0, 1}, p.Candidates(atom("anything")))
}

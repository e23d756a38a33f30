package analyze_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gowam/wam/internal/analyze"
	"github.com/gowam/wam/internal/term"
)

func comp(name string, args ...term.Term) term.Compound { return term.Compound{Name: name, Args: args} }
func v(name string) term.Var                           { return term.Var{Name: name} }
func atom(name string) term.Atom                        { return term.Atom{Name: name} }

// spec §8 scenario 5: a builtin in the middle of a clause does not
// split the chunk.
//
//	p(X,Y,Z):- =(X,f(a,W)), >(Z,Y), q(W,Y,X).
func TestChunksBuiltinsDoNotSplit(t *testing.T) {
	clause := term.Clause{
		Head: comp("p", v("X"), v("Y"), v("Z")),
		Body: []term.Compound{
			comp("=", v("X"), comp("f", atom("a"), v("W"))),
			comp(">", v("Z"), v("Y")),
			comp("q", v("W"), v("Y"), v("X")),
		},
	}
	chunks := analyze.Chunks(clause)
	require.Len(t, chunks, 1, "builtins must not terminate a chunk")
	assert.Equal(t, clause.Head, chunks[0].Head())
	assert.Equal(t, clause.Body[2], chunks[0].Last())
}

func TestChunksSplitOnNonBuiltin(t *testing.T) {
	// member(E,[H|T]):-member_(T,E,H).
	clause := term.Clause{
		Head: comp("member", v("E"), comp(".", v("H"), v("T"))),
		Body: []term.Compound{comp("member_", v("T"), v("E"), v("H"))},
	}
	chunks := analyze.Chunks(clause)
	require.Len(t, chunks, 1)

	// A clause with two non-builtin goals splits into two chunks.
	clause2 := term.Clause{
		Head: comp("f", v("X")),
		Body: []term.Compound{comp("g", v("X")), comp("h", v("X"))},
	}
	chunks2 := analyze.Chunks(clause2)
	require.Len(t, chunks2, 2)
	assert.Equal(t, []term.Compound{clause2.Head, clause2.Body[0]}, chunks2[0].Terms)
	assert.Equal(t, []term.Compound{clause2.Body[1]}, chunks2[1].Terms)
}

func TestChunksTrailingBuiltinsFormFinalChunk(t *testing.T) {
	clause := term.Clause{
		Head: comp("f", v("X"), v("Y")),
		Body: []term.Compound{comp("g", v("X")), comp("==", v("X"), v("Y"))},
	}
	chunks := analyze.Chunks(clause)
	require.Len(t, chunks, 2)
	assert.Equal(t, []term.Compound{clause.Body[1]}, chunks[1].Terms)
}

func TestAnalyzeClassifiesTemporaryAndPermanent(t *testing.T) {
	// f(X,Y):-g(X),h(Y). X confined to chunk 1 (temp); Y occurs in the head,
	// which belongs to chunk 1, and in h(Y) in chunk 2 (permanent).
	clause := term.Clause{
		Head: comp("f", v("X"), v("Y")),
		Body: []term.Compound{comp("g", v("X")), comp("h", v("Y"))},
	}
	a := analyze.Analyze(clause, false)
	assert.ElementsMatch(t, []term.Var{v("X")}, a.Temps)
	assert.ElementsMatch(t, []term.Var{v("Y")}, a.Perms)

	// f(X):-g(X,Y),h(Y). Y spans chunk 1 and chunk 2: permanent.
	clause2 := term.Clause{
		Head: comp("f", v("X")),
		Body: []term.Compound{comp("g", v("X"), v("Y")), comp("h", v("Y"))},
	}
	a2 := analyze.Analyze(clause2, false)
	assert.ElementsMatch(t, []term.Var{v("Y")}, a2.Perms)
}

func TestAnalyzeForQueryForcesAllPermanent(t *testing.T) {
	// nat(X). — a query goal list, not a clause, but Analyze only needs a
	// Head+Body shape; forQuery=true must force every variable permanent
	// even though X only occurs in one chunk.
	query := term.Clause{Head: comp("$query", v("X"))}
	a := analyze.Analyze(query, true)
	assert.ElementsMatch(t, []term.Var{v("X")}, a.Perms)
	assert.Empty(t, a.Temps)
}

func TestIsBuiltin(t *testing.T) {
	assert.True(t, analyze.IsBuiltin(term.Functor{Name: "=", Arity: 2}))
	assert.True(t, analyze.IsBuiltin(term.Functor{Name: "<", Arity: 2}))
	assert.False(t, analyze.IsBuiltin(term.Functor{Name: "member", Arity: 2}))
}

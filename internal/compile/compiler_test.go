package compile_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gowam/wam/internal/compile"
	"github.com/gowam/wam/internal/opcode"
	"github.com/gowam/wam/internal/term"
)

func comp(name string, args ...term.Term) term.Compound { return term.Compound{Name: name, Args: args} }
func v(name string) term.Var                            { return term.Var{Name: name} }
func atom(name string) term.Atom                         { return term.Atom{Name: name} }

// spec §8 scenario 6: a fact-free, single-goal clause whose only body
// goal is a tail call compiles straight to execute, with no environment
// and with the argument variable never moved out of its arriving
// register — the ideal case USE is meant to find.
func TestClauseTailCallNoEnvironment(t *testing.T) {
	clause := term.Clause{
		Head: comp("f", v("X")),
		Body: []term.Compound{comp("g", v("X"))},
	}
	code := compile.Clause(clause)

	require.Equal(t, term.Functor{Name: "f", Arity: 1}, code.Functor)
	require.Equal(t, []opcode.Instruction{
		opcode.Execute(term.Functor{Name: "g", Arity: 1}),
	}, code.Instructions)
	assert.Equal(t, 1, code.NumRegs)
}

// A repeated head variable must unify its second occurrence against the
// first rather than being silently dropped: p(X,X) only succeeds when
// both call arguments are equal.
func TestClauseRepeatedHeadVariableUnifies(t *testing.T) {
	clause := term.Clause{Head: comp("p", v("X"), v("X"))}
	code := compile.Clause(clause)

	require.Equal(t, []opcode.Instruction{
		opcode.GetVal(1, opcode.Register(0)),
		opcode.Proceed(),
	}, code.Instructions)
}

// Two distinct, unrelated head variables whose home registers coincide
// with their arriving positions get no get_var at all (P3, no-op
// suppression).
func TestClauseDistinctHeadVariablesSuppressGetVar(t *testing.T) {
	clause := term.Clause{
		Head: comp("q", v("X"), v("Y")),
		Body: []term.Compound{comp("r", v("X"), v("Y"))},
	}
	code := compile.Clause(clause)
	// Neither X nor Y ever needs to move: X stays in X0, Y stays in X1,
	// for both the head arrival and the tail call's departure.
	require.Equal(t, []opcode.Instruction{
		opcode.Execute(term.Functor{Name: "r", Arity: 2}),
	}, code.Instructions)
}

// member(E,[H|T]):-member_(T,E,H). The list argument decomposes via
// get_struct/unify_var; E's home register conflicts with the call's
// first argument position (T, not E), forcing an eviction get_var
// before the call can proceed.
func TestClauseHeadStructureDecomposition(t *testing.T) {
	clause := term.Clause{
		Head: comp("member", v("E"), comp(".", v("H"), v("T"))),
		Body: []term.Compound{comp("member_", v("T"), v("E"), v("H"))},
	}
	code := compile.Clause(clause)

	require.Equal(t, []opcode.Instruction{
		opcode.GetStruct(1, term.Functor{Name: ".", Arity: 2}),
		opcode.UnifyVar(opcode.Register(2)),
		opcode.UnifyVar(opcode.Register(3)),
		opcode.GetVar(0, opcode.Register(1)),
		opcode.PutVal(0, opcode.Register(3)),
		opcode.Execute(term.Functor{Name: "member_", Arity: 3}),
	}, code.Instructions)
}

// f(X):-g(X,Y),h(Y). Y spans two chunks and is classified permanent, so
// the clause needs an environment; the trailing call is still rewritten
// to execute, but deallocate is inserted immediately before it.
func TestClausePermanentVariableGetsEnvironment(t *testing.T) {
	clause := term.Clause{
		Head: comp("f", v("X")),
		Body: []term.Compound{comp("g", v("X"), v("Y")), comp("h", v("Y"))},
	}
	code := compile.Clause(clause)

	require.NotEmpty(t, code.Instructions)
	assert.Equal(t, opcode.Allocate(1), code.Instructions[0])
	last := code.Instructions[len(code.Instructions)-1]
	assert.Equal(t, opcode.OpExecute, last.Op)
	assert.Equal(t, term.Functor{Name: "h", Arity: 1}, last.Functor)

	deallocIdx := len(code.Instructions) - 2
	assert.Equal(t, opcode.Deallocate(), code.Instructions[deallocIdx])
}

// A clause with two calls to user predicates, the first of which is not
// last, needs an environment (spec §4.5's non-tail-call rule) even with
// zero permanent variables (X and Y here each stay within one chunk),
// since the first call overwrites the continuation the clause must
// eventually return through.
func TestClauseNonTailCallForcesEnvironment(t *testing.T) {
	clause := term.Clause{
		Head: comp("f", v("X")),
		Body: []term.Compound{comp("g", v("X")), comp("h", v("Y"))},
	}
	code := compile.Clause(clause)

	require.NotEmpty(t, code.Instructions)
	assert.Equal(t, opcode.OpAllocate, code.Instructions[0].Op)
	last := code.Instructions[len(code.Instructions)-1]
	assert.Equal(t, opcode.OpExecute, last.Op)
	assert.Equal(t, term.Functor{Name: "h", Arity: 1}, last.Functor)
}

// A single call that is not the clause's last goal also needs an
// environment, even with zero permanent variables and only one call:
// the trailing builtin still needs to resume through a saved
// continuation distinct from the caller's own (spec §4.5).
func TestClauseSingleNonFinalCallForcesEnvironment(t *testing.T) {
	clause := term.Clause{
		Head: comp("p", v("X")),
		Body: []term.Compound{comp("q", v("X")), comp("=", v("Y"), v("Y"))},
	}
	code := compile.Clause(clause)

	require.NotEmpty(t, code.Instructions)
	assert.Equal(t, opcode.OpAllocate, code.Instructions[0].Op)
	last := code.Instructions[len(code.Instructions)-1]
	assert.Equal(t, opcode.OpProceed, last.Op)

	var sawCall, sawDeallocate bool
	for _, in := range code.Instructions {
		if in.Op == opcode.OpCall {
			sawCall = true
		}
		if in.Op == opcode.OpDeallocate {
			sawDeallocate = true
			assert.True(t, sawCall, "deallocate must follow the call, not precede it")
		}
	}
	assert.True(t, sawCall, "q/1 must compile to call, not execute, since it is not the clause's last goal")
	assert.True(t, sawDeallocate)
}

// p(X):-q(f(X,a)). f(X,a)'s constructed arguments must keep source
// order: unify_val X1 (X) before unify_atom a, never the reverse
// (test_compiler.py:72-74's put_term never defers variable arguments to
// the end of the sequence).
func TestClauseConstructedCompoundPreservesArgumentOrder(t *testing.T) {
	clause := term.Clause{
		Head: comp("p", v("X")),
		Body: []term.Compound{comp("q", comp("f", v("X"), atom("a")))},
	}
	code := compile.Clause(clause)

	require.Equal(t, []opcode.Instruction{
		opcode.GetVar(0, opcode.Register(1)),
		opcode.PutStruct(0, term.Functor{Name: "f", Arity: 2}),
		opcode.UnifyVal(opcode.Register(1)),
		opcode.UnifyAtom(atom("a")),
		opcode.Execute(term.Functor{Name: "q", Arity: 1}),
	}, code.Instructions)
}

// p:-q(s(s(X))). Nested structure construction must build innermost
// first: s(X) is fully materialized (put_struct + unify_var) before
// s(s(X))'s own put_struct is emitted, even though both happen to reuse
// register 0 — the read of register 0 for the outer unify_val always
// executes before the outer put_struct's own finalize overwrites it
// (spec §4.4; test_compiler.py's length(L, s(s(s(0)))) query case).
func TestClauseNestedCompoundConstructionBuildsInnermostFirst(t *testing.T) {
	clause := term.Clause{
		Head: comp("p"),
		Body: []term.Compound{comp("q", comp("s", comp("s", v("X"))))},
	}
	code := compile.Clause(clause)

	require.Equal(t, []opcode.Instruction{
		opcode.PutStruct(0, term.Functor{Name: "s", Arity: 1}),
		opcode.UnifyVar(opcode.Register(1)),
		opcode.PutStruct(0, term.Functor{Name: "s", Arity: 1}),
		opcode.UnifyVal(opcode.Register(0)),
		opcode.Execute(term.Functor{Name: "q", Arity: 1}),
	}, code.Instructions)
}

// A fact with no body at all gets neither allocate/deallocate nor
// execute: just its get-sequence (if any) followed by proceed.
func TestClauseFactGetsProceed(t *testing.T) {
	clause := term.Clause{Head: comp("nat", atom("0"))}
	code := compile.Clause(clause)
	assert.Equal(t, []opcode.Instruction{
		opcode.GetAtom(0, atom("0")),
		opcode.Proceed(),
	}, code.Instructions)
}

// A builtin goal never becomes call/execute: its arguments are
// resolved to addresses and it is emitted as a single builtin
// instruction, and it never forces an environment by itself.
func TestClauseBuiltinGoalEmitsBuiltinInstruction(t *testing.T) {
	clause := term.Clause{
		Head: comp("p", v("X"), v("Y")),
		Body: []term.Compound{comp("<", v("X"), v("Y"))},
	}
	code := compile.Clause(clause)

	require.Len(t, code.Instructions, 2)
	assert.Equal(t, opcode.OpBuiltin, code.Instructions[0].Op)
	assert.Equal(t, "<", code.Instructions[0].Builtin)
	assert.Equal(t, opcode.Proceed(), code.Instructions[1])
}

// Compilation is a pure function of the clause: running it twice on the
// same input produces byte-identical instruction streams (P1).
func TestClauseCompilationIsDeterministic(t *testing.T) {
	clause := term.Clause{
		Head: comp("member", v("E"), comp(".", v("H"), v("T"))),
		Body: []term.Compound{comp("member_", v("T"), v("E"), v("H"))},
	}
	first := compile.Clause(clause)
	second := compile.Clause(clause)
	assert.Equal(t, first, second)
}

// Query compiles a goal list with no head, forces every variable
// permanent, prepends its own allocate (since there is no caller clause
// to do it), and ends in halt rather than the usual proceed/execute.
func TestQueryForcesPermanentAndHalts(t *testing.T) {
	code, vars := compile.Query([]term.Compound{comp("nat", v("X"))})

	require.NotEmpty(t, code.Instructions)
	assert.Equal(t, opcode.OpAllocate, code.Instructions[0].Op)
	assert.Equal(t, opcode.Halt(), code.Instructions[len(code.Instructions)-1])
	assert.Equal(t, []term.Var{v("X")}, vars)
}

func TestDisassembleRendersOneInstructionPerLine(t *testing.T) {
	clause := term.Clause{
		Head: comp("f", v("X")),
		Body: []term.Compound{comp("g", v("X"))},
	}
	code := compile.Clause(clause)
	out := compile.Disassemble(code)
	assert.Equal(t, "f/1:\n  execute g/1\n", out)
}

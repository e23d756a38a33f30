package machine_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gowam/wam/internal/compile"
	"github.com/gowam/wam/internal/index"
	"github.com/gowam/wam/internal/machine"
	"github.com/gowam/wam/internal/term"
)

func v(name string) term.Var   { return term.Var{Name: name} }
func a(name string) term.Atom  { return term.Atom{Name: name} }
func comp(name string, args ...term.Term) term.Compound {
	return term.Compound{Name: name, Args: args}
}
func fact(head term.Compound) term.Clause { return term.Clause{Head: head} }
func rule(head term.Compound, body ...term.Compound) term.Clause {
	return term.Clause{Head: head, Body: body}
}

// build compiles clauses into predicates and a query, ready to run
// directly against the machine, bypassing the root wam package so this
// test can reach ToTerm/EnvSlot/HeapAt directly.
func build(t *testing.T, clauses []term.Clause, goals ...term.Compound) (*machine.Machine, compile.Code, []term.Var) {
	t.Helper()
	groups := compile.Program(clauses)
	preds := index.BuildProgram(groups, true)
	qcode, qvars := compile.Query(goals)
	m := machine.New(preds, 10_000, 16, nil)
	return m, qcode, qvars
}

func solutionTerm(m *machine.Machine, vars []term.Var) map[string]term.Term {
	gen := map[machine.Addr]string{}
	out := make(map[string]term.Term, len(vars))
	for i, vr := range vars {
		out[vr.Name] = m.ToTerm(m.EnvSlot(i), gen)
	}
	return out
}

// Two occurrences of the same solution's variable bindings must be
// structurally identical term trees, not merely pointer-equal or
// reflect.DeepEqual over interface-typed values that might mix concrete
// types (Var/Atom/Compound) unpredictably; go-cmp's structural diffing
// pins this precisely, naming the differing field on failure.
func TestToTermReconstructsStructurallyEqualTrees(t *testing.T) {
	m, qcode, qvars := build(t, []term.Clause{
		fact(comp("pair", a("a"), a("b"))),
	}, comp("pair", v("X"), v("Y")))

	ok, err := m.RunQuery(qcode)
	require.NoError(t, err)
	require.True(t, ok)

	got := solutionTerm(m, qvars)
	want := map[string]term.Term{
		"X": a("a"),
		"Y": a("b"),
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("solution bindings mismatch (-want +got):\n%s", diff)
	}
}

// spec P6: after backtracking to a choice point, every Ref unbound at
// that point is unbound again. member(a, [X,Y]) tries X=a first (binding
// X, leaving Y unbound), then backtracks to try Y=a (X must be unbound
// again, not left over from the first branch).
func TestBacktrackingRestoresUnboundRefs(t *testing.T) {
	m, qcode, qvars := build(t, []term.Clause{
		fact(comp("member", v("E"), comp(".", v("E"), v("_")))),
		rule(comp("member", v("E"), comp(".", v("_"), v("T"))), comp("member", v("E"), v("T"))),
	}, comp("member", a("a"), comp(".", v("X"), comp(".", v("Y"), a("[]")))))

	ok, err := m.RunQuery(qcode)
	require.NoError(t, err)
	require.True(t, ok)

	first := solutionTerm(m, qvars)
	assert.Equal(t, a("a"), first["X"])
	assert.Equal(t, v("_G0"), first["Y"], "Y is still unbound in the first solution")

	ok, err = m.Redo()
	require.NoError(t, err)
	require.True(t, ok)

	second := solutionTerm(m, qvars)
	assert.Equal(t, v("_G0"), second["X"], "X must be unbound again after backtracking past its binding")
	assert.Equal(t, a("a"), second["Y"])

	ok, err = m.Redo()
	require.NoError(t, err)
	assert.False(t, ok, "only two positions in a 2-element list")
}

package wam

import "github.com/gowam/wam/internal/term"

// Term, Var, Atom, Compound, Functor and Clause are aliases onto the
// internal term model, so the compiler and machine packages can operate
// on the same concrete types this package exposes without importing
// back up to it.
type (
	Term     = term.Term
	Var      = term.Var
	Atom     = term.Atom
	Compound = term.Compound
	Functor  = term.Functor
	Clause   = term.Clause
)

// NewAtom builds an atomic constant.
func NewAtom(name string) Atom { return term.Atom{Name: name} }

// NewVar builds a named variable. It panics if name is not a legal
// variable name (non-empty, starting with an uppercase letter or
// underscore) since the front end is expected to have already validated
// it; this module has no parser of its own (spec's supplemented
// programmatic term-builder front end).
func NewVar(name string) Var {
	if !term.IsVarName(name) {
		panic("wam: invalid variable name " + name)
	}
	return term.Var{Name: name}
}

// Comp builds a compound term. Comp(name) with no args is a zero-arity
// structure, distinct from an Atom of the same name.
func Comp(name string, args ...Term) Compound {
	return term.Compound{Name: name, Args: args}
}

// NewClause builds a clause from a head and zero or more body goals. A
// clause with no body goals is a fact.
func NewClause(head Compound, body ...Compound) Clause {
	return term.Clause{Head: head, Body: body}
}

// Package term implements the immutable surface term model: variables,
// atoms, and compounds, plus the clause shape that the rest of the
// compiler pipeline consumes.
package term

import (
	"fmt"
	"strings"
)

// Term is the tagged sum described by the data model: a Var, an Atom, or
// a Compound. All three are comparable only by identity of their
// concrete Go type; Var and Functor are additionally valid map keys.
type Term interface {
	isTerm()
	String() string
}

// Var is a syntactic variable, identified purely by name. Two Vars with
// equal Name compare equal, which is relied on to dedupe a clause's
// variable occurrences during chunk analysis.
type Var struct{ Name string }

func (Var) isTerm()          {}
func (v Var) String() string { return v.Name }

// Atom is an atomic constant identified by name.
type Atom struct{ Name string }

func (Atom) isTerm()          {}
func (a Atom) String() string { return a.Name }

// Compound is a functor application: a name plus an ordered argument
// sequence. Arity is len(Args); a Compound with Args == nil is a
// zero-arity "struct" distinct from an Atom.
type Compound struct {
	Name string
	Args []Term
}

func (Compound) isTerm() {}

func (c Compound) String() string {
	if len(c.Args) == 0 {
		return c.Name
	}
	var sb strings.Builder
	sb.WriteString(c.Name)
	sb.WriteByte('(')
	for i, arg := range c.Args {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(arg.String())
	}
	sb.WriteByte(')')
	return sb.String()
}

// Arity returns the number of arguments of c.
func (c Compound) Arity() int { return len(c.Args) }

// Functor returns the (name, arity) pair identifying c's shape.
func (c Compound) Functor() Functor { return Functor{Name: c.Name, Arity: len(c.Args)} }

// Functor identifies a predicate or compound shape by name and arity. It
// is comparable and used directly as a map key by the indexer and the
// code store.
type Functor struct {
	Name  string
	Arity int
}

func (f Functor) String() string { return fmt.Sprintf("%s/%d", f.Name, f.Arity) }

// Clause is a head plus an ordered body of goals. A fact has an empty
// Body.
type Clause struct {
	Head Compound
	Body []Compound
}

func (c Clause) String() string {
	if len(c.Body) == 0 {
		return c.Head.String() + "."
	}
	parts := make([]string, len(c.Body))
	for i, g := range c.Body {
		parts[i] = g.String()
	}
	return c.Head.String() + " :- " + strings.Join(parts, ", ") + "."
}

// IsVarName reports whether name would be a legal variable name: it must
// be non-empty and start with an uppercase letter or underscore. The
// front end (out of scope for this module) is expected to apply this
// rule before constructing terms; it is exposed here so that the
// programmatic builders in the root package can validate it too.
func IsVarName(name string) bool {
	if name == "" {
		return false
	}
	r := name[0]
	return r == '_' || (r >= 'A' && r <= 'Z')
}

// Vars returns the distinct variables occurring in t, depth-first
// through compound arguments, in first-occurrence order.
func Vars(t Term) []Var {
	var out []Var
	seen := map[Var]bool{}
	var walk func(Term)
	walk = func(t Term) {
		switch v := t.(type) {
		case Var:
			if !seen[v] {
				seen[v] = true
				out = append(out, v)
			}
		case Compound:
			for _, arg := range v.Args {
				walk(arg)
			}
		}
	}
	walk(t)
	return out
}

// CountNestedCompounds counts every Compound appearing strictly inside
// the argument positions of terms, i.e. excluding the terms themselves
// when they are the top-level goal arguments being scanned directly.
// This matches the register-count upper bound of spec §4.2, which needs
// one register per nested compound subterm.
func CountNestedCompounds(terms ...Compound) int {
	n := 0
	var walk func(Term)
	walk = func(t Term) {
		if c, ok := t.(Compound); ok {
			n++
			for _, arg := range c.Args {
				walk(arg)
			}
		}
	}
	for _, t := range terms {
		for _, arg := range t.Args {
			walk(arg)
		}
	}
	return n
}

package main

import (
	"sort"
	"strings"

	"github.com/gowam/wam"
)

// demo is one runnable knowledge base + query pair, named after the
// end-to-end scenarios of spec §8 so wamc can reproduce them without a
// parser.
type demo struct {
	clauses []wam.Clause
	query   []wam.Compound
}

func v(name string) wam.Var { return wam.NewVar(name) }
func a(name string) wam.Atom { return wam.NewAtom(name) }
func c(name string, args ...wam.Term) wam.Compound { return wam.Comp(name, args...) }
func fact(head wam.Compound) wam.Clause { return wam.NewClause(head) }
func rule(head wam.Compound, body ...wam.Compound) wam.Clause { return wam.NewClause(head, body...) }

// cons builds a Prolog-style list cell '.'(Head, Tail).
func cons(head, tail wam.Term) wam.Compound { return c(".", head, tail) }

// list builds a proper list ending in the atom "[]" from its elements.
func list(elems ...wam.Term) wam.Term {
	var out wam.Term = a("[]")
	for i := len(elems) - 1; i >= 0; i-- {
		out = cons(elems[i], out)
	}
	return out
}

var demos = map[string]demo{
	// spec §8 scenario 1: membership by length.
	"length-member": {
		clauses: []wam.Clause{
			rule(c("member", v("E"), cons(v("H"), v("T"))),
				c("member_", v("T"), v("E"), v("H"))),
			fact(c("member_", v("_"), v("E"), v("E"))),
			rule(c("member_", cons(v("H"), v("T")), v("E"), v("_")),
				c("member_", v("T"), v("E"), v("H"))),
			fact(c("length", a("[]"), a("0"))),
			rule(c("length", cons(v("_"), v("T")), c("s", v("L"))),
				c("length", v("T"), v("L"))),
		},
		query: []wam.Compound{
			c("length", v("L"), c("s", c("s", c("s", a("0"))))),
			c("member", a("a"), v("L")),
		},
	},
	// spec §8 scenario 2: natural-number generation.
	"nat": {
		clauses: []wam.Clause{
			fact(c("nat", a("0"))),
			rule(c("nat", c("s", v("X"))), c("nat", v("X"))),
		},
		query: []wam.Compound{c("nat", v("X"))},
	},
	// spec §8 scenario 3: filter via first-argument indexing.
	"index-filter": {
		clauses: []wam.Clause{
			fact(c("member", v("E"), cons(v("E"), v("_")))),
			rule(c("member", v("E"), cons(v("_"), v("T"))), c("member", v("E"), v("T"))),
		},
		query: []wam.Compound{
			c("member", c("f", v("X")), list(a("a"), c("f", a("b")), c("g", a("c")), c("f", a("d")))),
		},
	},
	// spec §8 scenario 4: arithmetic comparison ordering.
	"compare": {
		clauses: []wam.Clause{
			rule(c("p", v("X"), v("Y")), c("<", v("X"), v("Y"))),
		},
		query: []wam.Compound{c("p", a("a"), a("b"))},
	},
}

func demoNames() string {
	names := make([]string, 0, len(demos))
	for name := range demos {
		names = append(names, name)
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}

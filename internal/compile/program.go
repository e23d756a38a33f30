package compile

import "github.com/gowam/wam/internal/term"

// Group is one predicate's clauses, compiled in source order, paired
// with each clause's first head argument (for first-argument indexing;
// nil for a zero-arity predicate, which cannot be indexed).
type Group struct {
	Functor   term.Functor
	Clauses   []Code
	FirstArgs []term.Term
}

// Program compiles a whole clause database, grouping clauses by functor
// in first-occurrence order and preserving each group's source order
// (spec §4.6 requires trying clauses in the order they were asserted).
func Program(clauses []term.Clause) []Group {
	order := []term.Functor{}
	groups := map[term.Functor]*Group{}
	for _, clause := range clauses {
		f := clause.Head.Functor()
		g, ok := groups[f]
		if !ok {
			g = &Group{Functor: f}
			groups[f] = g
			order = append(order, f)
		}
		g.Clauses = append(g.Clauses, Clause(clause))
		var first term.Term
		if len(clause.Head.Args) > 0 {
			first = clause.Head.Args[0]
		}
		g.FirstArgs = append(g.FirstArgs, first)
	}
	out := make([]Group, len(order))
	for i, f := range order {
		out[i] = *groups[f]
	}
	return out
}

package index

import (
	"github.com/gowam/wam/internal/compile"
	"github.com/gowam/wam/internal/term"
)

// BuildProgram indexes every predicate group of a compiled program.
func BuildProgram(groups []compile.Group, indexingEnabled bool) map[term.Functor]*Predicate {
	out := make(map[term.Functor]*Predicate, len(groups))
	for _, g := range groups {
		out[g.Functor] = Build(g.Clauses, g.FirstArgs, indexingEnabled)
	}
	return out
}

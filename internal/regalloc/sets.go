// Package regalloc implements Debray's register allocation algorithm
// (spec §4.2): per-chunk USE/NOUSE/CONFLICT sets and the allocation
// policy that assigns each temporary variable and nested compound to a
// register.
package regalloc

import (
	"github.com/gowam/wam/internal/analyze"
	"github.com/gowam/wam/internal/opcode"
	"github.com/gowam/wam/internal/term"
)

// RegSet is a small set of registers, used for USE/NOUSE/CONFLICT.
type RegSet map[opcode.Register]bool

func (s RegSet) has(r opcode.Register) bool { return s != nil && s[r] }

// ChunkSets holds the register-count upper bound and the USE/NOUSE/
// CONFLICT sets of every temporary variable in one chunk.
type ChunkSets struct {
	MaxArgs  int
	MaxRegs  int
	Use      map[term.Var]RegSet
	NoUse    map[term.Var]RegSet
	Conflict map[term.Var]RegSet
}

// ComputeChunkSets computes the register sets for chunk, given the set
// of variables classified as temporary for the whole clause and whether
// chunk is the clause's first (head) chunk.
func ComputeChunkSets(chunk analyze.Chunk, temps map[term.Var]bool, isHead bool) ChunkSets {
	firstTerm := chunk.Head()
	lastTerm := chunk.Last()

	inputArity := 0
	if isHead {
		inputArity = firstTerm.Arity()
	}
	outputArity := 0
	if !analyze.IsBuiltin(lastTerm.Functor()) {
		outputArity = lastTerm.Arity()
	}
	maxArgs := inputArity
	if outputArity > maxArgs {
		maxArgs = outputArity
	}
	maxRegs := maxArgs + len(temps) + chunk.CountNestedCompounds()

	use := map[term.Var]RegSet{}
	addUse := func(t term.Compound) {
		for i, arg := range t.Args {
			if v, ok := arg.(term.Var); ok && temps[v] {
				if use[v] == nil {
					use[v] = RegSet{}
				}
				use[v][opcode.Register(i)] = true
			}
		}
	}
	if isHead {
		addUse(firstTerm)
	}
	addUse(lastTerm)

	noUse := map[term.Var]RegSet{}
	for x := range temps {
		for i, arg := range lastTerm.Args {
			v, ok := arg.(term.Var)
			if !ok || v == x || !temps[v] {
				continue
			}
			reg := opcode.Register(i)
			if use[x].has(reg) {
				continue
			}
			if noUse[x] == nil {
				noUse[x] = RegSet{}
			}
			noUse[x][reg] = true
		}
	}

	conflict := map[term.Var]RegSet{}
	lastVars := map[term.Var]bool{}
	for _, v := range term.Vars(lastTerm) {
		lastVars[v] = true
	}
	for x := range temps {
		if !lastVars[x] {
			continue
		}
		for i, arg := range lastTerm.Args {
			if v, ok := arg.(term.Var); ok && v == x {
				continue
			}
			if conflict[x] == nil {
				conflict[x] = RegSet{}
			}
			conflict[x][opcode.Register(i)] = true
		}
	}

	return ChunkSets{MaxArgs: maxArgs, MaxRegs: maxRegs, Use: use, NoUse: noUse, Conflict: conflict}
}

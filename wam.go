// Package wam compiles Horn clauses into Warren Abstract Machine code
// and runs queries against them, backtracking through indexed clause
// dispatch to enumerate solutions.
package wam

import (
	"fmt"
	"sort"
	"strings"

	"github.com/gowam/wam/internal/compile"
	"github.com/gowam/wam/internal/index"
	"github.com/gowam/wam/internal/machine"
	"github.com/gowam/wam/internal/panicerr"
	"github.com/gowam/wam/internal/term"
)

// Program is a compiled, first-argument-indexed clause database.
type Program struct {
	predicates map[term.Functor]*index.Predicate
	options    machineOptions
}

// Build compiles every clause, groups them by predicate in source
// order, and indexes each group (spec §4).
func Build(clauses []Clause, opts ...MachineOption) *Program {
	groups := compile.Program(clauses)
	options := newMachineOptions(opts)
	return &Program{
		predicates: index.BuildProgram(groups, options.indexing),
		options:    options,
	}
}

// Disassemble renders every compiled clause's instruction stream, one
// predicate at a time, for inspection (the supplemented compiler dump).
func (p *Program) Disassemble() string {
	s := ""
	for _, pred := range p.predicates {
		for _, code := range pred.Clauses {
			s += compile.Disassemble(code)
		}
	}
	return s
}

// Solve compiles goals as a query and returns a Solutions cursor over
// its answers, ready for its first Next call.
func (p *Program) Solve(goals ...Compound) *Solutions {
	code, vars := compile.Query(goals)
	return &Solutions{
		m:     machine.New(p.predicates, p.options.maxInferences, p.options.registers, p.options.logf),
		code:  code,
		vars:  vars,
		first: true,
	}
}

// Solutions is a cursor over a query's answers, produced one at a time
// by backtracking into the machine's remaining choice points.
type Solutions struct {
	m     *machine.Machine
	code  compile.Code
	vars  []term.Var
	first bool
	done  bool
}

// Next advances to the next solution. It returns ok=false, err=nil once
// the query is exhausted; a non-nil err reports either a machine error
// (an undefined predicate, an exhausted inference budget, an unknown
// builtin) or a recovered panic, and ends the cursor.
func (s *Solutions) Next() (sol Solution, ok bool, err error) {
	if s.done {
		return Solution{}, false, nil
	}

	rerr := panicerr.Recover("wam", func() error {
		var runErr error
		if s.first {
			s.first = false
			ok, runErr = s.m.RunQuery(s.code)
		} else {
			ok, runErr = s.m.Redo()
		}
		return runErr
	})
	if rerr != nil {
		s.done = true
		return Solution{}, false, rerr
	}
	if !ok {
		s.done = true
		return Solution{}, false, nil
	}

	gen := map[machine.Addr]string{}
	bindings := make(map[string]Term, len(s.vars))
	for i, v := range s.vars {
		bindings[v.Name] = s.m.ToTerm(s.m.EnvSlot(i), gen)
	}
	return Solution{bindings: bindings}, true, nil
}

// Solution is one satisfying assignment of a query's variables.
type Solution struct {
	bindings map[string]Term
}

// Binding returns the term bound to the query variable named name.
func (s Solution) Binding(name string) (Term, bool) {
	t, ok := s.bindings[name]
	return t, ok
}

// String renders every binding as "Name = term", one per line, sorted
// by name for deterministic output.
func (s Solution) String() string {
	names := make([]string, 0, len(s.bindings))
	for name := range s.bindings {
		names = append(names, name)
	}
	sort.Strings(names)
	lines := make([]string, len(names))
	for i, name := range names {
		lines[i] = fmt.Sprintf("%s = %s", name, s.bindings[name])
	}
	return strings.Join(lines, "\n")
}

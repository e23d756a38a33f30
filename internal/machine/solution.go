package machine

import (
	"fmt"

	"github.com/gowam/wam/internal/term"
)

// ToTerm reconstructs a concrete term.Term by walking the heap from a.
// Every still-unbound variable reached during the walk is given a fresh
// generated name, stable within one call via gen, so that two
// occurrences of the same unbound variable in one solution print
// identically.
func (m *Machine) ToTerm(a Addr, gen map[Addr]string) term.Term {
	a = m.heap.Deref(a)
	switch c := m.heap.At(a).(type) {
	case Ref:
		name, ok := gen[a]
		if !ok {
			name = fmt.Sprintf("_G%d", len(gen))
			gen[a] = name
		}
		return term.Var{Name: name}
	case AtomCell:
		return c.Atom
	case StructCell:
		args := make([]term.Term, len(c.Args))
		for i, argAddr := range c.Args {
			args[i] = m.ToTerm(argAddr, gen)
		}
		return term.Compound{Name: c.Functor.Name, Args: args}
	}
	panic("machine: unreachable cell kind")
}

// EnvSlot reads permanent slot i of the machine's current environment,
// used after a query halts to read back its variables' bindings (the
// query's own environment, allocated once and never deallocated, is
// still current at that point).
func (m *Machine) EnvSlot(i int) Addr { return m.env.slots[i] }

// Package machine implements the abstract machine of spec §5-§7: a
// heap of tagged cells, register/environment/trail/choice-point stacks,
// and the opcode interpreter loop with unification and backtracking.
package machine

import "github.com/gowam/wam/internal/term"

// Addr indexes a cell on the machine's heap. The zero value is never a
// valid address: heap index 0 is reserved and holds no cell, so a
// register or slot that was never written does not alias a real cell.
type Addr int

// Cell is the tagged sum stored at each heap address: an unbound or
// bound reference, an atom, or a structure naming its argument cells.
type Cell interface{ isCell() }

// Ref is either an unbound variable, when it addresses itself, or a
// forwarding pointer created by binding during unification.
type Ref Addr

func (Ref) isCell() {}

// AtomCell holds an atomic constant.
type AtomCell struct{ Atom term.Atom }

func (AtomCell) isCell() {}

// StructCell holds a compound's functor and the heap addresses of its
// arguments.
type StructCell struct {
	Functor term.Functor
	Args    []Addr
}

func (StructCell) isCell() {}

// Heap is the machine's cell store, addressed by Addr starting at 1 (see
// Addr's zero-value sentinel).
type Heap struct {
	cells []Cell
}

func newHeap() *Heap {
	return &Heap{cells: make([]Cell, 1, 256)}
}

// NewRef pushes a fresh unbound variable (a Ref pointing to itself) and
// returns its address.
func (h *Heap) NewRef() Addr {
	a := Addr(len(h.cells))
	h.cells = append(h.cells, Ref(a))
	return a
}

// NewAtom pushes an atom cell.
func (h *Heap) NewAtom(a term.Atom) Addr {
	addr := Addr(len(h.cells))
	h.cells = append(h.cells, AtomCell{Atom: a})
	return addr
}

// NewStruct pushes a structure cell referencing args (already on the
// heap).
func (h *Heap) NewStruct(f term.Functor, args []Addr) Addr {
	addr := Addr(len(h.cells))
	h.cells = append(h.cells, StructCell{Functor: f, Args: args})
	return addr
}

// Top returns the heap's current high-water mark, used to remember how
// far to truncate on backtracking.
func (h *Heap) Top() Addr { return Addr(len(h.cells)) }

// Truncate discards every cell at or beyond top, undoing every
// allocation made since a choice point recorded it.
func (h *Heap) Truncate(top Addr) { h.cells = h.cells[:top] }

// At returns the cell stored at a.
func (h *Heap) At(a Addr) Cell { return h.cells[a] }

// Set overwrites the cell stored at a, used to bind an unbound Ref and,
// when the trail is unwound, to unbind it again.
func (h *Heap) Set(a Addr, c Cell) { h.cells[a] = c }

// Deref follows a chain of bound Refs to the representative address: an
// unbound variable, an atom, or a structure.
func (h *Heap) Deref(a Addr) Addr {
	for {
		ref, ok := h.cells[a].(Ref)
		if !ok || Addr(ref) == a {
			return a
		}
		a = Addr(ref)
	}
}

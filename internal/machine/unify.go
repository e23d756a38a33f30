package machine

// Trail records every bound-Ref address that might need unbinding on
// backtracking: addresses older than the current choice point's heap
// mark, since anything newer is discarded wholesale when the heap is
// truncated.
type Trail []Addr

// bindRef binds the unbound variable at ref to cell, trailing the
// binding only if ref predates the nearest enclosing choice point's heap
// mark (barrier); a ref created since that choice point will vanish
// entirely when the heap is truncated on backtrack, so it needs no
// trail entry.
func (m *Machine) bindRef(ref Addr, cell Cell, barrier Addr) {
	m.heap.Set(ref, cell)
	if ref < barrier {
		m.trail = append(m.trail, ref)
	}
}

// bind unifies two dereferenced unbound variables by binding the
// higher-numbered (newer) one to the lower-numbered (older) one, so
// long-lived variables accumulate fewer indirections.
func (m *Machine) bind(a, b Addr, barrier Addr) {
	if a > b {
		m.bindRef(a, Ref(b), barrier)
	} else {
		m.bindRef(b, Ref(a), barrier)
	}
}

// unwindTrail undoes every binding trailed since mark, restoring each
// address to an unbound reference to itself.
func (m *Machine) unwindTrail(mark int) {
	for i := len(m.trail) - 1; i >= mark; i-- {
		a := m.trail[i]
		m.heap.Set(a, Ref(a))
	}
	m.trail = m.trail[:mark]
}

type addrPair struct{ a, b Addr }

// unify attempts to unify the terms addressed by a and b, trailing and
// binding as needed; it returns false (leaving any bindings already made
// in place, to be undone by the caller's backtrack) the first time two
// cells cannot match. The worklist is iterative rather than recursive so
// deeply nested or self-referential structures cannot blow the Go stack.
func (m *Machine) unify(a, b Addr) bool {
	barrier := m.heapBarrier()
	work := []addrPair{{a, b}}
	for len(work) > 0 {
		p := work[len(work)-1]
		work = work[:len(work)-1]

		a, b := m.heap.Deref(p.a), m.heap.Deref(p.b)
		if a == b {
			continue
		}
		ca, cb := m.heap.At(a), m.heap.At(b)
		_, aRef := ca.(Ref)
		_, bRef := cb.(Ref)

		switch {
		case aRef && bRef:
			m.bind(a, b, barrier)
		case aRef:
			m.bindRef(a, cb, barrier)
		case bRef:
			m.bindRef(b, ca, barrier)
		default:
			switch va := ca.(type) {
			case AtomCell:
				vb, ok := cb.(AtomCell)
				if !ok || vb.Atom != va.Atom {
					return false
				}
			case StructCell:
				vb, ok := cb.(StructCell)
				if !ok || vb.Functor != va.Functor {
					return false
				}
				for i := range va.Args {
					work = append(work, addrPair{va.Args[i], vb.Args[i]})
				}
			}
		}
	}
	return true
}

// heapBarrier is the heap mark of the nearest enclosing choice point, or
// 0 (nothing predates it) if there is none.
func (m *Machine) heapBarrier() Addr {
	if len(m.choices) == 0 {
		return 0
	}
	return m.choices[len(m.choices)-1].heapTop
}

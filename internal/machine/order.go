package machine

// orderClass ranks a cell's kind in the standard order of terms:
// variables first, then atoms, then compounds.
func orderClass(c Cell) int {
	switch c.(type) {
	case Ref:
		return 0
	case AtomCell:
		return 1
	case StructCell:
		return 2
	}
	return 3
}

// Compare implements the standard order of terms (spec §6.3): it
// dereferences both addresses first (an open question resolved in favor
// of comparing representative values, not indirection chains), then
// orders by class (Var < Atom < Compound); within a class, unbound
// variables order by heap age, atoms by name, and compounds by arity
// then name then arguments left to right.
func (m *Machine) Compare(a, b Addr) int {
	a, b = m.heap.Deref(a), m.heap.Deref(b)
	ca, cb := m.heap.At(a), m.heap.At(b)
	ka, kb := orderClass(ca), orderClass(cb)
	if ka != kb {
		return sign(ka - kb)
	}
	switch va := ca.(type) {
	case Ref:
		return sign(int(a) - int(b))
	case AtomCell:
		vb := cb.(AtomCell)
		switch {
		case va.Atom.Name < vb.Atom.Name:
			return -1
		case va.Atom.Name > vb.Atom.Name:
			return 1
		default:
			return 0
		}
	case StructCell:
		vb := cb.(StructCell)
		if len(va.Args) != len(vb.Args) {
			return sign(len(va.Args) - len(vb.Args))
		}
		if va.Functor.Name != vb.Functor.Name {
			if va.Functor.Name < vb.Functor.Name {
				return -1
			}
			return 1
		}
		for i := range va.Args {
			if c := m.Compare(va.Args[i], vb.Args[i]); c != 0 {
				return c
			}
		}
		return 0
	}
	return 0
}

func sign(n int) int {
	switch {
	case n < 0:
		return -1
	case n > 0:
		return 1
	default:
		return 0
	}
}

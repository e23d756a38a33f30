package wam

// Compare implements the standard order of terms (spec §6.3) over two
// already-materialized terms: Var < Atom < Compound; within a class,
// variables order by name, atoms by name, and compounds by arity then
// name then arguments left to right. internal/machine.Machine.Compare
// orders live heap cells the same way except that it orders two unbound
// variables by heap age instead of by name, which only makes sense
// while a machine is running; Compare here lets the ordering contract
// itself (supplement 4) be tested against plain Term values, independent
// of any machine.
func Compare(a, b Term) int {
	ka, kb := orderClass(a), orderClass(b)
	if ka != kb {
		return sign(ka - kb)
	}
	switch va := a.(type) {
	case Var:
		return sign(strCompare(va.Name, b.(Var).Name))
	case Atom:
		return sign(strCompare(va.Name, b.(Atom).Name))
	case Compound:
		vb := b.(Compound)
		if len(va.Args) != len(vb.Args) {
			return sign(len(va.Args) - len(vb.Args))
		}
		if c := strCompare(va.Name, vb.Name); c != 0 {
			return sign(c)
		}
		for i := range va.Args {
			if c := Compare(va.Args[i], vb.Args[i]); c != 0 {
				return c
			}
		}
		return 0
	}
	return 0
}

func orderClass(t Term) int {
	switch t.(type) {
	case Var:
		return 0
	case Atom:
		return 1
	case Compound:
		return 2
	}
	return 3
}

func strCompare(a, b string) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
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

package machine

import (
	"fmt"

	"github.com/gowam/wam/internal/opcode"
)

// runBuiltin dispatches the builtin goals of spec §6.3. The comparison
// operators order dereferenced cells by the standard order of terms
// (Compare), not by numeric value: the term model has no dedicated
// numeric cell, and spec §8 scenario 4 pins `a<b` succeeding because
// atom `a` precedes atom `b` in standard order, not because either is
// parsed as a number.
func (m *Machine) runBuiltin(name string, args []opcode.Addr) (bool, error) {
	vals := make([]Addr, len(args))
	for i, a := range args {
		vals[i] = m.resolveAddr(a)
	}
	switch name {
	case "=":
		return m.unify(vals[0], vals[1]), nil
	case "==":
		return m.Compare(vals[0], vals[1]) == 0, nil
	case `\==`:
		return m.Compare(vals[0], vals[1]) != 0, nil
	case "<":
		return m.Compare(vals[0], vals[1]) < 0, nil
	case ">":
		return m.Compare(vals[0], vals[1]) > 0, nil
	case "=<":
		return m.Compare(vals[0], vals[1]) <= 0, nil
	case ">=":
		return m.Compare(vals[0], vals[1]) >= 0, nil
	}
	return false, fmt.Errorf("machine: unknown builtin %q", name)
}

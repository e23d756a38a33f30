package regalloc

import "github.com/gowam/wam/internal/opcode"

// Allocator tracks the free-register pool and next-new-register counter
// for one chunk's compilation, and implements the allocation policy of
// spec §4.2.
type Allocator struct {
	free   map[opcode.Register]bool
	topReg int
}

// NewAllocator creates an allocator whose free pool is {0 .. maxRegs-1}
// and whose next freshly-minted register is maxArgs (registers below
// maxArgs are the chunk's argument positions).
func NewAllocator(maxArgs, maxRegs int) *Allocator {
	free := make(map[opcode.Register]bool, maxRegs)
	for i := 0; i < maxRegs; i++ {
		free[opcode.Register(i)] = true
	}
	return &Allocator{free: free, topReg: maxArgs}
}

// Reserve removes reg from the free pool without allocating it to any
// variable, e.g. to reserve a clause head's argument registers until
// their get-instruction releases them.
func (a *Allocator) Reserve(reg opcode.Register) { delete(a.free, reg) }

// Release returns reg to the free pool.
func (a *Allocator) Release(reg opcode.Register) { a.free[reg] = true }

// Alloc picks a register for a temporary variable or nested compound,
// given its USE set and an exclusion set (NOUSE, plus CONFLICT for
// non-head chunks). It prefers a free register already in USE, falls
// back to any free register outside the exclusion set, and otherwise
// mints a fresh register beyond the chunk's argument positions.
func (a *Allocator) Alloc(use, excl RegSet) opcode.Register {
	if reg, ok := a.lowestFreeIn(use); ok {
		delete(a.free, reg)
		return reg
	}
	if reg, ok := a.lowestFreeNotIn(excl); ok {
		delete(a.free, reg)
		return reg
	}
	reg := opcode.Register(a.topReg)
	a.topReg++
	return reg
}

func (a *Allocator) lowestFreeIn(set RegSet) (opcode.Register, bool) {
	best, found := opcode.Register(0), false
	for reg := range a.free {
		if !set.has(reg) {
			continue
		}
		if !found || reg < best {
			best, found = reg, true
		}
	}
	return best, found
}

func (a *Allocator) lowestFreeNotIn(excl RegSet) (opcode.Register, bool) {
	best, found := opcode.Register(0), false
	for reg := range a.free {
		if excl.has(reg) {
			continue
		}
		if !found || reg < best {
			best, found = reg, true
		}
	}
	return best, found
}

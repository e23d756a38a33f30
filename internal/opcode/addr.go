// Package opcode defines the instruction set shared by the compiler and
// the machine: addresses and the flat instruction stream described in
// spec §3 and §6.2.
package opcode

import (
	"fmt"

	"github.com/gowam/wam/internal/term"
)

// Addr is the tagged sum of addressing modes an instruction operand may
// name: a temporary register, a permanent (environment) slot, or a
// read-only atom literal.
type Addr interface {
	isAddr()
	String() string
}

// Register addresses a temporary slot in the current activation.
type Register int

func (Register) isAddr()          {}
func (r Register) String() string { return fmt.Sprintf("X%d", int(r)) }

// StackAddr addresses a permanent-variable slot in the current
// environment.
type StackAddr int

func (StackAddr) isAddr()          {}
func (s StackAddr) String() string { return fmt.Sprintf("Y%d", int(s)) }

// AtomAddr is a read-only literal source: reading it yields a fresh atom
// cell, and writing to it is a compiler/machine bug.
type AtomAddr struct{ Atom term.Atom }

func (AtomAddr) isAddr()          {}
func (a AtomAddr) String() string { return "@" + a.Atom.Name }

// Package compile implements the clause compiler of spec §4.3-§4.5: it
// turns an analyzed clause into a flat Code object (functor, instruction
// stream, register-count watermark).
package compile

import (
	"strings"

	"github.com/gowam/wam/internal/opcode"
	"github.com/gowam/wam/internal/term"
)

// Code is one clause's compiled form: its functor, its linear
// instruction sequence, and the maximum register index used + 1.
type Code struct {
	Functor      term.Functor
	Instructions []opcode.Instruction
	NumRegs      int
}

// Disassemble renders c's instruction stream as readable assembly-style
// text, one instruction per line, mirroring the teacher's dictionary
// dumper (dumper.go) generalized from THIRD's cells to WAM instructions.
func Disassemble(c Code) string {
	var sb strings.Builder
	sb.WriteString(c.Functor.String())
	sb.WriteString(":\n")
	for _, in := range c.Instructions {
		sb.WriteString("  ")
		sb.WriteString(in.String())
		sb.WriteByte('\n')
	}
	return sb.String()
}

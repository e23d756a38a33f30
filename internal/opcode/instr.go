package opcode

import (
	"strconv"
	"strings"

	"github.com/gowam/wam/internal/term"
)

// Op tags which of the §6.2 opcodes an Instruction carries.
type Op byte

const (
	OpGetVar Op = iota
	OpGetVal
	OpGetAtom
	OpGetStruct
	OpPutVar
	OpPutVal
	OpPutAtom
	OpPutStruct
	OpUnifyVar
	OpUnifyVal
	OpUnifyAtom
	OpCall
	OpExecute
	OpProceed
	OpAllocate
	OpDeallocate
	OpBuiltin
	OpHalt
)

var opNames = [...]string{
	OpGetVar:     "get_var",
	OpGetVal:     "get_val",
	OpGetAtom:    "get_atom",
	OpGetStruct:  "get_struct",
	OpPutVar:     "put_var",
	OpPutVal:     "put_val",
	OpPutAtom:    "put_atom",
	OpPutStruct:  "put_struct",
	OpUnifyVar:   "unify_var",
	OpUnifyVal:   "unify_val",
	OpUnifyAtom:  "unify_atom",
	OpCall:       "call",
	OpExecute:    "execute",
	OpProceed:    "proceed",
	OpAllocate:   "allocate",
	OpDeallocate: "deallocate",
	OpBuiltin:    "builtin",
	OpHalt:       "halt",
}

func (op Op) String() string {
	if int(op) < len(opNames) {
		return opNames[op]
	}
	return "?"
}

// Instruction is a single instruction of the flat stream the compiler
// emits. Only the fields relevant to Op are populated; the rest are
// zero. This mirrors the tagged-union data model of spec §3 without the
// overhead of one Go type per opcode, matching how the machine's
// interpreter loop dispatches on a single field.
type Instruction struct {
	Op      Op
	Reg     Register
	Addr    Addr
	Atom    term.Atom
	Functor term.Functor
	N       int      // allocate: permanent-variable count
	Builtin string   // builtin: predicate name
	Args    []Addr   // builtin: argument addresses
}

func GetVar(reg Register, addr Addr) Instruction   { return Instruction{Op: OpGetVar, Reg: reg, Addr: addr} }
func GetVal(reg Register, addr Addr) Instruction   { return Instruction{Op: OpGetVal, Reg: reg, Addr: addr} }
func GetAtom(reg Register, a term.Atom) Instruction { return Instruction{Op: OpGetAtom, Reg: reg, Atom: a} }
func GetStruct(reg Register, f term.Functor) Instruction {
	return Instruction{Op: OpGetStruct, Reg: reg, Functor: f}
}
func PutVar(reg Register, addr Addr) Instruction { return Instruction{Op: OpPutVar, Reg: reg, Addr: addr} }
func PutVal(reg Register, addr Addr) Instruction { return Instruction{Op: OpPutVal, Reg: reg, Addr: addr} }
func PutAtom(reg Register, a term.Atom) Instruction {
	return Instruction{Op: OpPutAtom, Reg: reg, Atom: a}
}
func PutStruct(reg Register, f term.Functor) Instruction {
	return Instruction{Op: OpPutStruct, Reg: reg, Functor: f}
}
func UnifyVar(addr Addr) Instruction     { return Instruction{Op: OpUnifyVar, Addr: addr} }
func UnifyVal(addr Addr) Instruction     { return Instruction{Op: OpUnifyVal, Addr: addr} }
func UnifyAtom(a term.Atom) Instruction  { return Instruction{Op: OpUnifyAtom, Atom: a} }
func Call(f term.Functor) Instruction    { return Instruction{Op: OpCall, Functor: f} }
func Execute(f term.Functor) Instruction { return Instruction{Op: OpExecute, Functor: f} }
func Proceed() Instruction               { return Instruction{Op: OpProceed} }
func Allocate(n int) Instruction         { return Instruction{Op: OpAllocate, N: n} }
func Deallocate() Instruction            { return Instruction{Op: OpDeallocate} }
func Builtin(name string, args ...Addr) Instruction {
	return Instruction{Op: OpBuiltin, Builtin: name, Args: args}
}
func Halt() Instruction { return Instruction{Op: OpHalt} }

func (in Instruction) String() string {
	switch in.Op {
	case OpGetVar, OpGetVal, OpPutVar, OpPutVal:
		return in.Op.String() + " " + in.Reg.String() + ", " + in.Addr.String()
	case OpGetAtom, OpPutAtom:
		return in.Op.String() + " " + in.Reg.String() + ", " + in.Atom.Name
	case OpGetStruct, OpPutStruct:
		return in.Op.String() + " " + in.Reg.String() + ", " + in.Functor.String()
	case OpUnifyVar, OpUnifyVal:
		return in.Op.String() + " " + in.Addr.String()
	case OpUnifyAtom:
		return in.Op.String() + " " + in.Atom.Name
	case OpCall, OpExecute:
		return in.Op.String() + " " + in.Functor.String()
	case OpAllocate:
		return "allocate " + strconv.Itoa(in.N)
	case OpBuiltin:
		parts := make([]string, len(in.Args))
		for i, a := range in.Args {
			parts[i] = a.String()
		}
		s := in.Builtin
		if len(parts) > 0 {
			s += " " + strings.Join(parts, ", ")
		}
		return s
	default:
		return in.Op.String()
	}
}


package machine

import (
	"fmt"

	"github.com/gowam/wam/internal/compile"
	"github.com/gowam/wam/internal/index"
	"github.com/gowam/wam/internal/opcode"
	"github.com/gowam/wam/internal/term"
)

// frame is one permanent-variable environment, linked to the caller's
// frame the way the WAM's CE chain links activations. Frames are
// ordinary Go values reclaimed by the garbage collector once nothing
// (no live choice point, no live continuation) still points to them,
// rather than a manually popped contiguous stack.
type frame struct {
	slots    []Addr
	contCode *compile.Code
	contPC   int
	prev     *frame
}

// choicePoint is a retry point: the next clause to try, and every piece
// of mutable state that must be restored before trying it.
type choicePoint struct {
	heapTop     Addr
	trailTop    int
	savedArgs   []Addr
	env         *frame
	contCode    *compile.Code
	contPC      int
	candidates  []compile.Code
	cursor      int
}

// ErrUndefined is returned when a call names a functor the database has
// no clauses for.
type ErrUndefined struct{ Functor term.Functor }

func (e ErrUndefined) Error() string { return fmt.Sprintf("undefined predicate %v", e.Functor) }

// ErrInferenceLimit reports that Run stopped after MaxInferences
// instructions without reaching a halt, per spec §7's runaway-query
// guard.
type ErrInferenceLimit struct{ Limit int }

func (e ErrInferenceLimit) Error() string {
	return fmt.Sprintf("exceeded inference limit (%d)", e.Limit)
}

// Machine is one query's abstract machine: heap, trail, registers,
// environment and choice-point stacks, and the predicate database it
// resolves calls against.
type Machine struct {
	heap  *Heap
	trail Trail
	regs  []Addr

	env      *frame
	contCode *compile.Code
	contPC   int

	code *compile.Code
	pc   int

	choices []*choicePoint

	predicates map[term.Functor]*index.Predicate

	maxInferences int
	steps         int

	// Struct-argument cursor (spec §5's read/write mode): getStruct and
	// putStruct switch between matching an existing structure's
	// arguments one at a time (modeRead) and accumulating a new
	// structure's arguments before materializing it (modeWrite); the
	// unify_* instructions that follow dispatch on whichever is active.
	mode     argMode
	readArgs []Addr
	readIdx  int

	writeFunctor term.Functor
	writeReg     opcode.Register
	writeArity   int
	writeArgs    []Addr

	logf func(mark, mess string, args ...interface{})
}

type argMode int

const (
	modeNone argMode = iota
	modeRead
	modeWrite
)

// New creates a Machine over predicates, ready to run a compiled query.
// registers sizes the initial register file; it grows on demand.
func New(predicates map[term.Functor]*index.Predicate, maxInferences, registers int, logf func(string, string, ...interface{})) *Machine {
	if registers <= 0 {
		registers = 64
	}
	return &Machine{
		heap:          newHeap(),
		predicates:    predicates,
		maxInferences: maxInferences,
		regs:          make([]Addr, registers),
		logf:          logf,
	}
}

func (m *Machine) ensureRegs(n int) {
	for len(m.regs) < n {
		m.regs = append(m.regs, 0)
	}
}

func (m *Machine) log(mark, mess string, args ...interface{}) {
	if m.logf != nil {
		m.logf(mark, mess, args...)
	}
}

// Halted reports whether the last Step call reached a halt instruction.
func (m *Machine) Halted() bool { return m.code == nil }

// HeapAt and HeapDeref expose heap cells and dereferencing to callers
// outside the package (solution.go's ToTerm reads the heap directly).
func (m *Machine) HeapAt(a Addr) Cell { return m.heap.At(a) }
func (m *Machine) HeapDeref(a Addr) Addr { return m.heap.Deref(a) }

// RunQuery loads a compiled query as the initial instruction stream and
// runs it to the first solution (or failure). It returns true if a
// solution was reached (the machine halted with its choice points, if
// any, ready to be asked for the next solution via Redo).
func (m *Machine) RunQuery(q compile.Code) (bool, error) {
	m.code = &q
	m.pc = 0
	m.env = nil
	m.contCode = nil
	m.contPC = 0
	return m.run()
}

// Redo backtracks into the most recent choice point and resumes
// execution looking for the next solution.
func (m *Machine) Redo() (bool, error) {
	if !m.backtrack() {
		return false, nil
	}
	return m.run()
}

func (m *Machine) run() (bool, error) {
	for {
		if m.code == nil {
			return true, nil
		}
		m.steps++
		if m.maxInferences > 0 && m.steps > m.maxInferences {
			return false, ErrInferenceLimit{Limit: m.maxInferences}
		}
		if m.pc >= len(m.code.Instructions) {
			return false, fmt.Errorf("machine: program counter ran off the end of %v", m.code.Functor)
		}
		in := m.code.Instructions[m.pc]
		m.log("#", "%-4v %v", m.pc, in)
		ok, err := m.step(in)
		if err != nil {
			return false, err
		}
		if !ok {
			if !m.backtrack() {
				return false, nil
			}
		}
	}
}

// step executes one instruction, advancing pc unless the instruction
// itself transfers control (call/execute/proceed/halt). It returns
// ok=false on unification failure, signalling the caller to backtrack.
func (m *Machine) step(in opcode.Instruction) (ok bool, err error) {
	switch in.Op {
	case opcode.OpGetVar:
		m.ensureRegs(int(in.Reg) + 1)
		m.setAddr(in.Addr, m.regs[in.Reg])
		m.pc++
		return true, nil
	case opcode.OpGetVal:
		m.ensureRegs(int(in.Reg) + 1)
		ok := m.unify(m.regs[in.Reg], m.resolveAddr(in.Addr))
		m.pc++
		return ok, nil
	case opcode.OpGetAtom:
		m.ensureRegs(int(in.Reg) + 1)
		ok := m.unify(m.regs[in.Reg], m.heap.NewAtom(in.Atom))
		m.pc++
		return ok, nil
	case opcode.OpGetStruct:
		m.ensureRegs(int(in.Reg) + 1)
		ok := m.getStruct(in.Reg, in.Functor)
		m.pc++
		return ok, nil

	case opcode.OpPutVar:
		m.ensureRegs(int(in.Reg) + 1)
		a := m.heap.NewRef()
		m.regs[in.Reg] = a
		m.setAddr(in.Addr, a)
		m.pc++
		return true, nil
	case opcode.OpPutVal:
		m.ensureRegs(int(in.Reg) + 1)
		m.regs[in.Reg] = m.resolveAddr(in.Addr)
		m.pc++
		return true, nil
	case opcode.OpPutAtom:
		m.ensureRegs(int(in.Reg) + 1)
		m.regs[in.Reg] = m.heap.NewAtom(in.Atom)
		m.pc++
		return true, nil
	case opcode.OpPutStruct:
		m.mode = modeWrite
		m.writeFunctor = in.Functor
		m.writeReg = in.Reg
		m.writeArity = in.Functor.Arity
		m.writeArgs = m.writeArgs[:0]
		m.maybeFinalizeWrite()
		m.pc++
		return true, nil

	case opcode.OpUnifyVar:
		ok := m.unifyVarMode(in.Addr)
		m.pc++
		return ok, nil
	case opcode.OpUnifyVal:
		ok := m.unifyValMode(in.Addr)
		m.pc++
		return ok, nil
	case opcode.OpUnifyAtom:
		ok := m.unifyAtomMode(in.Atom)
		m.pc++
		return ok, nil

	case opcode.OpCall:
		return m.call(in.Functor, m.pc+1)
	case opcode.OpExecute:
		return m.call(in.Functor, -1)
	case opcode.OpProceed:
		m.returnToContinuation()
		return true, nil
	case opcode.OpAllocate:
		m.env = &frame{slots: make([]Addr, in.N), contCode: m.contCode, contPC: m.contPC, prev: m.env}
		m.pc++
		return true, nil
	case opcode.OpDeallocate:
		m.contCode, m.contPC = m.env.contCode, m.env.contPC
		m.env = m.env.prev
		m.pc++
		return true, nil
	case opcode.OpBuiltin:
		ok, err := m.runBuiltin(in.Builtin, in.Args)
		if err != nil {
			return false, err
		}
		m.pc++
		return ok, nil
	case opcode.OpHalt:
		m.code = nil
		return true, nil
	}
	return false, fmt.Errorf("machine: unimplemented opcode %v", in.Op)
}

// setAddr writes v into the location named by a (a register or a
// permanent-variable stack slot); an AtomAddr is a read-only literal
// source and is never a write target.
func (m *Machine) setAddr(a opcode.Addr, v Addr) {
	switch x := a.(type) {
	case opcode.Register:
		m.ensureRegs(int(x) + 1)
		m.regs[x] = v
	case opcode.StackAddr:
		m.env.slots[x] = v
	default:
		panic(fmt.Sprintf("machine: cannot write to address %v", a))
	}
}

// resolveAddr reads the current value at a: a register, a permanent
// slot, or (for builtin arguments) a fresh cell for an atom literal.
func (m *Machine) resolveAddr(a opcode.Addr) Addr {
	switch x := a.(type) {
	case opcode.Register:
		m.ensureRegs(int(x) + 1)
		return m.regs[x]
	case opcode.StackAddr:
		return m.env.slots[x]
	case opcode.AtomAddr:
		return m.heap.NewAtom(x.Atom)
	}
	panic(fmt.Sprintf("machine: unknown address kind %v", a))
}

// getStruct implements get_struct: if reg holds an unbound variable, it
// is bound to a freshly built structure whose arguments are themselves
// fresh unbound variables, and decomposition proceeds exactly as if that
// structure had already existed (spec §5's "read mode on a fresh
// structure" case needs no special handling beyond this).
func (m *Machine) getStruct(reg opcode.Register, f term.Functor) bool {
	a := m.heap.Deref(m.regs[reg])
	switch c := m.heap.At(a).(type) {
	case StructCell:
		if c.Functor != f {
			return false
		}
		m.mode, m.readArgs, m.readIdx = modeRead, c.Args, 0
		return true
	case Ref:
		args := make([]Addr, f.Arity)
		for i := range args {
			args[i] = m.heap.NewRef()
		}
		m.bindRef(a, StructCell{Functor: f, Args: args}, m.heapBarrier())
		m.mode, m.readArgs, m.readIdx = modeRead, args, 0
		return true
	default:
		return false
	}
}

// unifyVarMode handles unify_variable: in read mode it binds addr
// directly to the next structure argument (a fresh reference, so no
// unification test is needed); in write mode it allocates a fresh
// variable for addr and appends it to the structure under construction.
func (m *Machine) unifyVarMode(addr opcode.Addr) bool {
	switch m.mode {
	case modeRead:
		a := m.readArgs[m.readIdx]
		m.readIdx++
		m.setAddr(addr, a)
	case modeWrite:
		a := m.heap.NewRef()
		m.setAddr(addr, a)
		m.writeArgs = append(m.writeArgs, a)
		m.maybeFinalizeWrite()
	}
	return true
}

// unifyValMode handles unify_value: in read mode it unifies addr's
// current value against the next structure argument (which may fail);
// in write mode it appends addr's current value to the structure under
// construction.
func (m *Machine) unifyValMode(addr opcode.Addr) bool {
	switch m.mode {
	case modeRead:
		a := m.readArgs[m.readIdx]
		m.readIdx++
		return m.unify(m.resolveAddr(addr), a)
	case modeWrite:
		m.writeArgs = append(m.writeArgs, m.resolveAddr(addr))
		m.maybeFinalizeWrite()
	}
	return true
}

// unifyAtomMode handles unify_atom analogously to unifyValMode, with a
// freshly materialized atom cell as the value.
func (m *Machine) unifyAtomMode(atom term.Atom) bool {
	switch m.mode {
	case modeRead:
		a := m.readArgs[m.readIdx]
		m.readIdx++
		return m.unify(m.heap.NewAtom(atom), a)
	case modeWrite:
		m.writeArgs = append(m.writeArgs, m.heap.NewAtom(atom))
		m.maybeFinalizeWrite()
	}
	return true
}

// maybeFinalizeWrite materializes the structure under construction once
// every argument instruction for it has run, storing its address in the
// register put_struct named and leaving write mode.
func (m *Machine) maybeFinalizeWrite() {
	if m.mode != modeWrite || len(m.writeArgs) < m.writeArity {
		return
	}
	args := make([]Addr, len(m.writeArgs))
	copy(args, m.writeArgs)
	addr := m.heap.NewStruct(m.writeFunctor, args)
	m.ensureRegs(int(m.writeReg) + 1)
	m.regs[m.writeReg] = addr
	m.mode = modeNone
}

// returnToContinuation implements proceed: jump to the continuation
// (CP) the most recent call set up.
func (m *Machine) returnToContinuation() {
	m.code = m.contCode
	m.pc = m.contPC
}

// shapeOf classifies the dereferenced cell at a for first-argument
// indexing: a var shape for an unbound reference, or the atom/functor
// shape of a bound value (the argument values inside a bound structure
// are irrelevant to indexing, so they are left zero).
func (m *Machine) shapeOf(a Addr) term.Term {
	switch c := m.heap.At(m.heap.Deref(a)).(type) {
	case AtomCell:
		return c.Atom
	case StructCell:
		return term.Compound{Name: c.Functor.Name, Args: make([]term.Term, len(c.Args))}
	default:
		return term.Var{}
	}
}

// call implements both call and execute (returnPC < 0): it selects the
// candidate clauses for f via first-argument indexing, pushes a choice
// point if more than one remains untried, and transfers control into
// the first candidate. call additionally sets the continuation (CP) to
// resume at returnPC in the current code; execute leaves CP untouched,
// implementing last-call optimization.
func (m *Machine) call(f term.Functor, returnPC int) (bool, error) {
	pred, ok := m.predicates[f]
	if !ok {
		return false, ErrUndefined{Functor: f}
	}

	var shape term.Term
	if f.Arity > 0 {
		m.ensureRegs(f.Arity)
		shape = m.shapeOf(m.regs[0])
	}
	idxs := pred.Candidates(shape)
	if len(idxs) == 0 {
		return false, nil
	}

	if returnPC >= 0 {
		m.contCode, m.contPC = m.code, returnPC
	}

	if len(idxs) > 1 {
		savedArgs := make([]Addr, f.Arity)
		copy(savedArgs, m.regs[:f.Arity])
		candidates := make([]compile.Code, len(idxs)-1)
		for i, ix := range idxs[1:] {
			candidates[i] = pred.Clauses[ix]
		}
		m.choices = append(m.choices, &choicePoint{
			heapTop:    m.heap.Top(),
			trailTop:   len(m.trail),
			savedArgs:  savedArgs,
			env:        m.env,
			contCode:   m.contCode,
			contPC:     m.contPC,
			candidates: candidates,
		})
	}

	next := pred.Clauses[idxs[0]]
	m.code = &next
	m.pc = 0
	m.mode = modeNone
	return true, nil
}

// backtrack pops choice points until one still has an untried candidate,
// restoring the heap, trail, registers, environment and continuation to
// their state at that choice point's creation, then transfers control
// into the next candidate clause. It returns false once every choice
// point is exhausted.
func (m *Machine) backtrack() bool {
	for len(m.choices) > 0 {
		cp := m.choices[len(m.choices)-1]
		m.heap.Truncate(cp.heapTop)
		m.unwindTrail(cp.trailTop)
		m.ensureRegs(len(cp.savedArgs))
		copy(m.regs, cp.savedArgs)
		m.env = cp.env
		m.contCode, m.contPC = cp.contCode, cp.contPC

		if cp.cursor >= len(cp.candidates) {
			m.choices = m.choices[:len(m.choices)-1]
			continue
		}
		next := cp.candidates[cp.cursor]
		cp.cursor++
		if cp.cursor >= len(cp.candidates) {
			m.choices = m.choices[:len(m.choices)-1]
		}
		m.code = &next
		m.pc = 0
		m.mode = modeNone
		m.log("#", "redo %v", next.Functor)
		return true
	}
	return false
}

package compile

import (
	"github.com/gowam/wam/internal/analyze"
	"github.com/gowam/wam/internal/opcode"
	"github.com/gowam/wam/internal/regalloc"
	"github.com/gowam/wam/internal/term"
)

// clauseState is shared across every chunk of one clause: the permanent
// variable address table (stack slots are assigned in first-occurrence
// order, independent of chunking) and the temp/perm classification.
type clauseState struct {
	perms     map[term.Var]bool
	temps     map[term.Var]bool
	permAddr  map[term.Var]opcode.StackAddr
	permOrder []term.Var
}

func newClauseState(a analyze.ClauseChunks) *clauseState {
	cs := &clauseState{
		perms:    map[term.Var]bool{},
		temps:    map[term.Var]bool{},
		permAddr: map[term.Var]opcode.StackAddr{},
	}
	for _, v := range a.Perms {
		cs.perms[v] = true
	}
	for _, v := range a.Temps {
		cs.temps[v] = true
	}
	return cs
}

func (cs *clauseState) permAddrFor(v term.Var) (opcode.StackAddr, bool) {
	if addr, ok := cs.permAddr[v]; ok {
		return addr, false
	}
	addr := opcode.StackAddr(len(cs.permAddr))
	cs.permAddr[v] = addr
	cs.permOrder = append(cs.permOrder, v)
	return addr, true
}

// delayedStruct records a nested compound seen while decomposing the
// head: its register has been reserved and a unify_variable instruction
// emitted, but its own decomposition is deferred until the current
// argument level is finished (spec §4.3's breadth-first head walk).
type delayedStruct struct {
	term term.Compound
	reg  opcode.Register
}

// chunkCompiler compiles one chunk's terms into instructions, given the
// register sets computed for it.
type chunkCompiler struct {
	parent   *clauseState
	alloc    *regalloc.Allocator
	sets     regalloc.ChunkSets
	isHead   bool
	instrs   []opcode.Instruction
	tempAddr map[term.Var]opcode.Register
	regVar   map[opcode.Register]term.Var
	delayed  []delayedStruct
}

func newChunkCompiler(parent *clauseState, chunk analyze.Chunk, isHead bool) *chunkCompiler {
	sets := regalloc.ComputeChunkSets(chunk, parent.temps, isHead)
	return &chunkCompiler{
		parent:   parent,
		alloc:    regalloc.NewAllocator(sets.MaxArgs, sets.MaxRegs),
		sets:     sets,
		isHead:   isHead,
		tempAddr: map[term.Var]opcode.Register{},
		regVar:   map[opcode.Register]term.Var{},
	}
}

func (cc *chunkCompiler) emit(in opcode.Instruction) { cc.instrs = append(cc.instrs, in) }

func (cc *chunkCompiler) setReg(reg opcode.Register, v term.Var) {
	cc.tempAddr[v] = reg
	cc.regVar[reg] = v
}

func (cc *chunkCompiler) unsetReg(reg opcode.Register, v term.Var) {
	delete(cc.tempAddr, v)
	delete(cc.regVar, reg)
}

func mergeRegSets(a, b regalloc.RegSet) regalloc.RegSet {
	if len(a) == 0 {
		return b
	}
	if len(b) == 0 {
		return a
	}
	out := regalloc.RegSet{}
	for r := range a {
		out[r] = true
	}
	for r := range b {
		out[r] = true
	}
	return out
}

// tempAddrFor resolves (and, on first reference, allocates) the register
// holding temporary variable v. Outside the clause's head chunk, v's
// CONFLICT registers are excluded along with its NOUSE registers (§4.2);
// in the head chunk only NOUSE is excluded.
func (cc *chunkCompiler) tempAddrFor(v term.Var, isHead bool) (opcode.Register, bool) {
	if reg, ok := cc.tempAddr[v]; ok {
		return reg, false
	}
	excl := cc.sets.NoUse[v]
	if !cc.isHead {
		excl = mergeRegSets(excl, cc.sets.Conflict[v])
	}
	reg := cc.alloc.Alloc(cc.sets.Use[v], excl)
	cc.setReg(reg, v)
	return reg, true
}

// varAddr resolves v's address: a permanent variable always lives on the
// stack; a temporary variable lives in a register.
func (cc *chunkCompiler) varAddr(v term.Var, isHead bool) (opcode.Addr, bool) {
	if cc.parent.perms[v] {
		addr, isNew := cc.parent.permAddrFor(v)
		return addr, isNew
	}
	reg, isNew := cc.tempAddrFor(v, isHead)
	return reg, isNew
}

// allocFresh reserves a register for a nested compound term, which is
// never cached (every occurrence is a fresh subterm) and never appears in
// USE/NOUSE/CONFLICT, so the allocator falls back to "any free register".
func (cc *chunkCompiler) allocFresh() opcode.Register {
	return cc.alloc.Alloc(nil, nil)
}

// compileHead emits the get-sequence for the chunk's head term into the
// reserved argument registers 0..arity-1, decomposing nested structures
// breadth-first: each level's unify_variable reservations are resolved
// only after the current level's get-instructions are all emitted.
func (cc *chunkCompiler) compileHead(head term.Compound) {
	for i := range head.Args {
		cc.alloc.Reserve(opcode.Register(i))
	}
	for i, arg := range head.Args {
		cc.getTerm(arg, opcode.Register(i))
	}
	for len(cc.delayed) > 0 {
		pending := cc.delayed
		cc.delayed = nil
		for _, d := range pending {
			cc.getTerm(d.term, d.reg)
		}
	}
}

// getTerm emits the read-mode instruction for term t arriving in reg
// (spec §4.3, the get_* instructions). It always resolves variables with
// isHead=true, since it is only ever invoked on a head-decomposition
// position (a top-level head argument or a deferred nested structure).
func (cc *chunkCompiler) getTerm(t term.Term, reg opcode.Register) {
	switch v := t.(type) {
	case term.Atom:
		cc.emit(opcode.GetAtom(reg, v))
		cc.alloc.Release(reg)
	case term.Var:
		// reg must be released before resolving v's home register, not
		// after: a first occurrence is free to settle right back into
		// reg (its own arriving position is frequently its best home,
		// e.g. when the same position recurs as the last goal's
		// argument), and that can only happen if reg is back in the
		// free pool before the allocator runs. A repeat occurrence
		// resolves to whatever register the first one picked, which may
		// or may not be reg; either way the register this argument
		// arrived in is done being reserved for it.
		cc.alloc.Release(reg)
		addr, isNew := cc.varAddr(v, true)
		if r, ok := addr.(opcode.Register); ok && r == reg {
			return
		}
		if isNew {
			cc.emit(opcode.GetVar(reg, addr))
		} else {
			cc.emit(opcode.GetVal(reg, addr))
		}
	case term.Compound:
		cc.emit(opcode.GetStruct(reg, v.Functor()))
		cc.alloc.Release(reg)
		for _, arg := range v.Args {
			cc.unifyArg(arg)
		}
	}
}

// unifyArg emits the read-mode instruction for one argument of a
// structure being decomposed (the unify_* instructions). Nested
// structures are not decomposed immediately: a fresh register is
// reserved and the structure is queued in cc.delayed.
func (cc *chunkCompiler) unifyArg(t term.Term) {
	switch v := t.(type) {
	case term.Atom:
		cc.emit(opcode.UnifyAtom(v))
	case term.Var:
		addr, isNew := cc.varAddr(v, false)
		if isNew {
			cc.emit(opcode.UnifyVar(addr))
		} else {
			cc.emit(opcode.UnifyVal(addr))
		}
	case term.Compound:
		reg := cc.allocFresh()
		cc.delayed = append(cc.delayed, delayedStruct{term: v, reg: reg})
		cc.emit(opcode.UnifyVar(reg))
	}
}

// termAddr resolves the address that holds t's value, constructing it
// first via putTerm if t is a compound not yet materialized.
func (cc *chunkCompiler) termAddr(t term.Term) opcode.Addr {
	switch v := t.(type) {
	case term.Atom:
		return opcode.AtomAddr{Atom: v}
	case term.Var:
		addr, _ := cc.varAddr(v, false)
		return addr
	case term.Compound:
		reg := cc.allocFresh()
		cc.putTerm(v, reg, false)
		return reg
	}
	panic("compile: unreachable term kind")
}

// putTerm emits the write-mode instruction that materializes term t into
// reg (spec §4.3/§4.4's put_* instructions). topLevel marks a last-goal
// argument position, where a register already holding an unrelated live
// temporary must be evicted to a fresh slot first (spec §4.3's "conflict
// resolution on put").
func (cc *chunkCompiler) putTerm(t term.Term, reg opcode.Register, topLevel bool) {
	if topLevel {
		if held, ok := cc.regVar[reg]; ok {
			if v, isVar := t.(term.Var); !isVar || v != held {
				cc.unsetReg(reg, held)
				addr, _ := cc.tempAddrFor(held, false)
				cc.emit(opcode.GetVar(reg, addr))
			}
		}
	}
	switch v := t.(type) {
	case term.Atom:
		cc.emit(opcode.PutAtom(reg, v))
	case term.Var:
		addr, isNew := cc.varAddr(v, false)
		if r, ok := addr.(opcode.Register); ok && !isNew && r == reg {
			return
		}
		if isNew {
			cc.emit(opcode.PutVar(reg, addr))
		} else {
			cc.emit(opcode.PutVal(reg, addr))
		}
		if r, ok := addr.(opcode.Register); ok {
			cc.alloc.Release(r)
		}
	case term.Compound:
		// Build innermost-first (spec §4.4): every nested compound
		// argument is fully materialized into its own register *before*
		// this level's put_struct is emitted, so the machine's single
		// flat write cursor never has two structures under construction
		// at once. A var argument's address is resolved here too (but
		// not yet written), purely to capture whether this is its first
		// occurrence, since that governs unify_var vs unify_val below.
		addrs := make([]opcode.Addr, len(v.Args))
		isNewVar := make([]bool, len(v.Args))
		for i, arg := range v.Args {
			switch a := arg.(type) {
			case term.Var:
				addrs[i], isNewVar[i] = cc.varAddr(a, false)
			case term.Compound:
				nreg := cc.allocFresh()
				cc.putTerm(a, nreg, false)
				addrs[i] = nreg
			}
		}
		cc.emit(opcode.PutStruct(reg, v.Functor()))
		for i, arg := range v.Args {
			switch a := arg.(type) {
			case term.Atom:
				cc.emit(opcode.UnifyAtom(a))
			case term.Var:
				if isNewVar[i] {
					cc.emit(opcode.UnifyVar(addrs[i]))
				} else {
					cc.emit(opcode.UnifyVal(addrs[i]))
				}
			case term.Compound:
				cc.emit(opcode.UnifyVal(addrs[i]))
			}
		}
	}
}

// compileGoal emits the write-mode argument sequence and call/builtin
// instruction for one body goal. A non-builtin goal always emits call;
// finalize later rewrites a call that ends the clause into an execute.
func (cc *chunkCompiler) compileGoal(goal term.Compound) {
	f := goal.Functor()
	if analyze.IsBuiltin(f) {
		addrs := make([]opcode.Addr, len(goal.Args))
		for i, arg := range goal.Args {
			addrs[i] = cc.termAddr(arg)
		}
		cc.emit(opcode.Builtin(f.Name, addrs...))
		return
	}
	for i, arg := range goal.Args {
		cc.putTerm(arg, opcode.Register(i), true)
	}
	cc.emit(opcode.Call(f))
}

// compileChunk emits one chunk's full instruction sequence: the head
// get-sequence (only for the clause's first chunk) followed by every
// goal after it.
func compileChunk(parent *clauseState, chunk analyze.Chunk, isHead bool) []opcode.Instruction {
	cc := newChunkCompiler(parent, chunk, isHead)
	terms := chunk.Terms
	if isHead {
		cc.compileHead(terms[0])
		terms = terms[1:]
	}
	for _, goal := range terms {
		cc.compileGoal(goal)
	}
	return cc.instrs
}

// Clause compiles a single Horn clause into Code, per spec §4.1-§4.5.
func Clause(clause term.Clause) Code {
	return compile(clause, false)
}

// Query compiles a top-level query (a goal sequence with no head) into
// Code, forcing every variable permanent so its bindings survive in the
// environment for Solutions to read back, and appends a halt instead of
// going through the tail-call rewrite of finalize.
func Query(goals []term.Compound) (Code, []term.Var) {
	head := term.Compound{Name: "$query", Args: nil}
	clause := term.Clause{Head: head, Body: goals}
	a := analyze.Analyze(clause, true)
	cs := newClauseState(a)

	var instrs []opcode.Instruction
	maxRegs := 0
	for i, chunk := range a.Chunks {
		isHead := i == 0
		chunkInstrs := compileChunk(cs, chunk, isHead)
		instrs = append(instrs, chunkInstrs...)
		for _, in := range chunkInstrs {
			for _, r := range regOperands(in) {
				if int(r)+1 > maxRegs {
					maxRegs = int(r) + 1
				}
			}
		}
	}
	// Every query variable is permanent (forQuery above), but a query has
	// no caller clause to emit the usual allocate/deallocate bracketing
	// (finalize is not run for queries): prepend the allocate here so the
	// variables' stack slots exist, and never deallocate, so the
	// environment survives past halt for solution extraction.
	instrs = append([]opcode.Instruction{opcode.Allocate(len(cs.permOrder))}, instrs...)
	instrs = append(instrs, opcode.Halt())

	return Code{Functor: head.Functor(), Instructions: instrs, NumRegs: maxRegs}, cs.permOrder
}

func compile(clause term.Clause, forQuery bool) Code {
	a := analyze.Analyze(clause, forQuery)
	cs := newClauseState(a)

	var instrs []opcode.Instruction
	maxRegs := clause.Head.Arity()
	for i, chunk := range a.Chunks {
		isHead := i == 0
		chunkInstrs := compileChunk(cs, chunk, isHead)
		instrs = append(instrs, chunkInstrs...)
		for _, in := range chunkInstrs {
			for _, r := range regOperands(in) {
				if int(r)+1 > maxRegs {
					maxRegs = int(r) + 1
				}
			}
		}
	}

	instrs = finalize(instrs, len(cs.permOrder))
	return Code{Functor: clause.Head.Functor(), Instructions: instrs, NumRegs: maxRegs}
}

// regOperands extracts every register an instruction names — both its own
// Reg field (the argument position it reads or writes) and, when present,
// an Addr operand that happens to be a register rather than a stack slot
// or atom literal — so Clause can track the clause's peak register usage.
func regOperands(in opcode.Instruction) []opcode.Register {
	var out []opcode.Register
	switch in.Op {
	case opcode.OpGetVar, opcode.OpGetVal, opcode.OpGetAtom, opcode.OpGetStruct,
		opcode.OpPutVar, opcode.OpPutVal, opcode.OpPutAtom, opcode.OpPutStruct:
		out = append(out, in.Reg)
	}
	if a, ok := in.Addr.(opcode.Register); ok {
		out = append(out, a)
	}
	for _, a := range in.Args {
		if r, ok := a.(opcode.Register); ok {
			out = append(out, r)
		}
	}
	return out
}

// finalize applies the environment and tail-call rewrite rules of spec
// §4.5: a clause needing an environment (permanent variables, or a call
// that is not its final instruction) gets allocate/deallocate bracketing; its
// final call becomes an execute (last-call optimization); a clause with
// no trailing call gets an explicit proceed.
func finalize(instrs []opcode.Instruction, numPerms int) []opcode.Instruction {
	hasCallAtEnd := len(instrs) > 0 && instrs[len(instrs)-1].Op == opcode.OpCall

	callCount := 0
	for _, in := range instrs {
		if in.Op == opcode.OpCall {
			callCount++
		}
	}
	// An environment is needed whenever some call is not the clause's
	// final control transfer: either there is more than one call, or
	// there is exactly one and it is not the last instruction (trailing
	// builtin goals follow it), since resuming after that call needs a
	// saved continuation distinct from the caller's own.
	needsEnv := numPerms > 0 || callCount >= 2 || (callCount == 1 && !hasCallAtEnd)

	if needsEnv {
		if hasCallAtEnd {
			last := instrs[len(instrs)-1]
			instrs = append(instrs[:len(instrs)-1], opcode.Deallocate(), last)
		} else {
			instrs = append(instrs, opcode.Deallocate())
		}
		instrs = append([]opcode.Instruction{opcode.Allocate(numPerms)}, instrs...)
	}

	if hasCallAtEnd {
		instrs[len(instrs)-1] = opcode.Execute(instrs[len(instrs)-1].Functor)
	} else {
		instrs = append(instrs, opcode.Proceed())
	}
	return instrs
}

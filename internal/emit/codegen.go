package emit

import (
	"fmt"

	"corec/internal/bytecode"
	"corec/internal/diag"
	"corec/internal/ir"
	"corec/internal/regalloc"
	"corec/internal/source"
)

// emitFunc lowers one function to a code slice plus its debug-line table,
// returning the routine's metadata for the routine table.
func (e *emitter) emitFunc(fn *ir.Func) (bytecode.Routine, []byte, []bytecode.DebugLine, error) {
	moves := eliminatePhis(fn)
	alloc := regalloc.Allocate(fn)
	order := blockOrder(fn)
	owned := ownedAllocas(e.mod, fn)

	fs := &fnState{
		fn:          fn,
		order:       order,
		alloc:       alloc,
		moves:       moves,
		blockOffset: make(map[ir.BlockID]int, len(order)),
	}

	for _, b := range order {
		fs.blockOffset[b] = len(fs.code)
		blk := fn.Block(b)
		for _, instr := range blk.Instrs {
			e.encodeInstr(fs, instr)
			if retained, ok := retainTarget(instr); ok && refcounted(e.mod.Types, fn.ValueType(retained)) {
				fs.code = append(fs.code, byte(bytecode.OpArcRetain))
				fs.code = append(fs.code, bytecode.PutReg(e.regOf(fs, retained), 0))
			}
		}
		for _, mv := range moves[b] {
			if mv.Dst == mv.Src {
				continue
			}
			fs.code = append(fs.code, byte(bytecode.OpMov))
			fs.code = append(fs.code, bytecode.PutReg(e.regOf(fs, mv.Dst), e.regOf(fs, mv.Src)))
		}
		e.encodeTerm(fs, b, blk, owned)
	}

	if err := e.patchJumps(fs); err != nil {
		return bytecode.Routine{}, nil, nil, err
	}

	routine := bytecode.Routine{
		LocalCount: uint16(alloc.NumSlots),
		ArgCount:   uint8(len(fn.Params)),
	}
	if fn.Name == "main" {
		routine.Flags |= bytecode.RoutineFlagEntrypoint
	}
	return routine, fs.code, fs.debug, nil
}

// regOf returns v's assigned register, falling back to the spill-scratch
// register (r15) for a spilled value. Only one spilled operand per
// instruction is supported; a second spilled operand in the same
// instruction is an allocator ICE.
func (e *emitter) regOf(fs *fnState, v ir.ValueID) uint8 {
	a := fs.alloc.Values[v]
	if a == nil {
		return 0
	}
	if a.HasReg {
		return uint8(a.Reg)
	}
	return bytecode.RegLastResult
}

func (e *emitter) encodeInstr(fs *fnState, instr ir.Instr) {
	op, ok := instrOp[instr.Kind]
	if !ok {
		return
	}

	// Reload a spilled operand into the scratch register immediately
	// before use. Only one spilled operand per instruction can be served
	// this way since they'd otherwise clobber each other in r15.
	spilled := 0
	for _, arg := range instr.Args {
		if a := fs.alloc.Values[arg]; a != nil && a.HasSlot && !a.HasReg {
			spilled++
		}
	}
	if spilled > 1 {
		e.errorf(diag.EmitRegAllocFailed, "instruction has %d spilled operands, only one is reloadable per instruction", spilled)
	}
	for _, arg := range instr.Args {
		if a := fs.alloc.Values[arg]; a != nil && a.HasSlot && !a.HasReg {
			fs.code = append(fs.code, byte(bytecode.OpSpillLoad))
			fs.code = append(fs.code, bytecode.PutReg(bytecode.RegLastResult, 0))
			fs.code = bytecode.PutU16(fs.code, uint16(a.Slot))
		}
	}

	fs.code = append(fs.code, byte(op))

	switch instr.Kind {
	case ir.InstrIConst:
		fs.code = append(fs.code, bytecode.PutReg(e.regOf(fs, instr.Dst), 0))
		fs.code = bytecode.PutU64(fs.code, uint64(instr.IntImm))
	case ir.InstrFConst:
		fs.code = append(fs.code, bytecode.PutReg(e.regOf(fs, instr.Dst), 0))
		fs.code = bytecode.PutF64(fs.code, instr.FloatImm)
	case ir.InstrSConst:
		idx := e.image.Pool.String(instr.StrImm)
		fs.code = append(fs.code, bytecode.PutReg(e.regOf(fs, instr.Dst), 0))
		fs.code = bytecode.PutU32(fs.code, idx)
	case ir.InstrBConst:
		fs.code = append(fs.code, bytecode.PutReg(e.regOf(fs, instr.Dst), 0))
		b := byte(0)
		if instr.BoolImm {
			b = 1
		}
		fs.code = append(fs.code, b)
	case ir.InstrNullConst, ir.InstrAlloca:
		fs.code = append(fs.code, bytecode.PutReg(e.regOf(fs, instr.Dst), 0))
	case ir.InstrICmp, ir.InstrFCmp:
		fs.code = append(fs.code, bytecode.PutReg(e.regOf(fs, instr.Dst), e.regOf(fs, instr.Args[0])))
		fs.code = append(fs.code, bytecode.PutReg(e.regOf(fs, instr.Args[1]), 0))
		fs.code = append(fs.code, byte(instr.Cond))
	case ir.InstrFieldPtr:
		fs.code = append(fs.code, bytecode.PutReg(e.regOf(fs, instr.Dst), e.regOf(fs, instr.Args[0])))
		fs.code = bytecode.PutU32(fs.code, uint32(instr.FieldIdx))
	case ir.InstrCall:
		e.encodeCall(fs, instr)
	case ir.InstrMakeClosure:
		idx := e.image.Pool.Ident(instr.Callee)
		fs.code = append(fs.code, bytecode.PutReg(e.regOf(fs, instr.Dst), 0))
		fs.code = bytecode.PutU32(fs.code, idx)
	case ir.InstrDebugLine:
		fs.debug = append(fs.debug, bytecode.DebugLine{CodeOffset: uint32(len(fs.code) - 1), Line: instr.Line})
	default:
		e.encodeGeneric(fs, instr)
	}

	if instr.Dst.IsValid() {
		if a := fs.alloc.Values[instr.Dst]; a != nil && a.HasSlot && !a.HasReg {
			fs.code = append(fs.code, byte(bytecode.OpSpillStore))
			fs.code = bytecode.PutU16(fs.code, uint16(a.Slot))
			fs.code = append(fs.code, bytecode.PutReg(bytecode.RegLastResult, 0))
		}
	}
}

// encodeGeneric handles the common shape: Dst plus up to three register
// arguments, packed two nibbles per byte.
func (e *emitter) encodeGeneric(fs *fnState, instr ir.Instr) {
	regs := make([]uint8, 0, len(instr.Args)+1)
	if instr.Dst.IsValid() {
		regs = append(regs, e.regOf(fs, instr.Dst))
	}
	for _, a := range instr.Args {
		regs = append(regs, e.regOf(fs, a))
	}
	for i := 0; i < len(regs); i += 2 {
		hi := uint8(0)
		if i+1 < len(regs) {
			hi = regs[i+1]
		}
		fs.code = append(fs.code, bytecode.PutReg(regs[i], hi))
	}
}

func (e *emitter) encodeCall(fs *fnState, instr ir.Instr) {
	dst := uint8(0)
	if instr.Dst.IsValid() {
		dst = e.regOf(fs, instr.Dst)
	}
	target, hasTarget := e.mod.Lookup(instr.Callee)

	inline := instr.Args
	overflow := 0
	if len(inline) > bytecode.MaxInlineArgs {
		overflow = len(inline) - bytecode.MaxInlineArgs
		inline = inline[:bytecode.MaxInlineArgs]
	}
	for _, extra := range instr.Args[len(inline):] {
		fs.code = append(fs.code, byte(bytecode.OpPushStackArg))
		fs.code = append(fs.code, bytecode.PutReg(e.regOf(fs, extra), 0))
	}

	routineIdx := uint32(0)
	if hasTarget {
		if idx, ok := e.routineOf[target.ID]; ok {
			routineIdx = idx
		}
		if len(target.Params) > 0 && len(target.Params) != len(instr.Args) {
			e.errorf(diag.EmitArityMismatch, "call to %q passes %d arguments, expected %d",
				instr.Callee, len(instr.Args), len(target.Params))
		}
	} else {
		e.errorf(diag.EmitArityMismatch, "call to unresolved routine %q", instr.Callee)
	}

	fs.code = append(fs.code, bytecode.PutReg(dst, uint8(len(inline))))
	fs.code = bytecode.PutU32(fs.code, routineIdx)
	for i := 0; i < len(inline); i += 2 {
		hi := uint8(0)
		if i+1 < len(inline) {
			hi = e.regOf(fs, inline[i+1])
		}
		fs.code = append(fs.code, bytecode.PutReg(e.regOf(fs, inline[i]), hi))
	}
	fs.code = append(fs.code, byte(overflow))
}

func (e *emitter) encodeTerm(fs *fnState, id ir.BlockID, blk *ir.Block, owned []ir.ValueID) {
	switch blk.Term.Kind {
	case ir.TermJump:
		e.encodeJump(fs, blk.Term.Jump.Target)
	case ir.TermBrIf:
		fs.code = append(fs.code, byte(bytecode.OpBrIf))
		fs.code = append(fs.code, bytecode.PutReg(e.regOf(fs, blk.Term.BrIf.Cond), 0))
		e.encodeJumpOperand(fs, blk.Term.BrIf.Then)
		e.encodeJump(fs, blk.Term.BrIf.Else)
	case ir.TermBrTable:
		fs.code = append(fs.code, byte(bytecode.OpBrTable))
		fs.code = append(fs.code, bytecode.PutReg(e.regOf(fs, blk.Term.BrTable.Value), 0))
		fs.code = bytecode.PutU32(fs.code, uint32(len(blk.Term.BrTable.Cases)))
		for _, c := range blk.Term.BrTable.Cases {
			fs.code = bytecode.PutU64(fs.code, uint64(c.Value))
			e.encodeJumpOperand(fs, c.Target)
		}
		e.encodeJump(fs, blk.Term.BrTable.Default)
	case ir.TermReturn:
		for _, v := range owned {
			if blk.Term.Return.HasValue && v == blk.Term.Return.Value {
				continue
			}
			fs.code = append(fs.code, byte(bytecode.OpArcRelease))
			fs.code = append(fs.code, bytecode.PutReg(e.regOf(fs, v), 0))
		}
		if blk.Term.Return.HasValue {
			fs.code = append(fs.code, byte(bytecode.OpRet))
			fs.code = append(fs.code, bytecode.PutReg(e.regOf(fs, blk.Term.Return.Value), 0))
		} else {
			fs.code = append(fs.code, byte(bytecode.OpRetVoid))
		}
	case ir.TermThrow:
		fs.code = append(fs.code, byte(bytecode.OpThrow))
		fs.code = append(fs.code, bytecode.PutReg(e.regOf(fs, blk.Term.Throw.Value), 0))
	case ir.TermUnreachable:
		fs.code = append(fs.code, byte(bytecode.OpUnreachable))
	default:
		e.errorf(diag.EmitInvariant, "block %d has no terminator", id)
	}
}

// encodeJump emits an unconditional jump opcode plus target operand.
func (e *emitter) encodeJump(fs *fnState, target ir.BlockID) {
	fs.code = append(fs.code, byte(bytecode.OpJump))
	e.encodeJumpOperand(fs, target)
}

// encodeJumpOperand appends a placeholder i16 offset and records it for
// the final patch pass, since the target's code offset may not be known
// yet (forward jump).
func (e *emitter) encodeJumpOperand(fs *fnState, target ir.BlockID) {
	from := len(fs.code) + 2
	fs.pendingJumps = append(fs.pendingJumps, pendingJump{
		patchAt: len(fs.code),
		from:    from,
		target:  target,
	})
	fs.code = bytecode.PutI16(fs.code, 0)
}

// patchJumps rewrites every recorded placeholder now that every block's
// offset is known, and fails with EmitUnresolvedJump if any target was
// never placed.
func (e *emitter) patchJumps(fs *fnState) error {
	for _, pj := range fs.pendingJumps {
		off, ok := fs.blockOffset[pj.target]
		if !ok {
			e.errorf(diag.EmitUnresolvedJump, "jump to unplaced block %d", pj.target)
			continue
		}
		delta := off - pj.from
		if !bytecode.JumpFitsShort(delta) {
			e.errorf(diag.EmitInvariant, "jump offset %d exceeds the short form; long-form emission is not yet implemented", delta)
			continue
		}
		b := bytecode.PutI16(nil, int16(delta))
		fs.code[pj.patchAt] = b[0]
		fs.code[pj.patchAt+1] = b[1]
	}
	return nil
}

func (e *emitter) errorf(code diag.Code, format string, args ...interface{}) {
	diag.ReportError(e.rep, code, source.Span{}, fmt.Sprintf(format, args...)).Emit()
}

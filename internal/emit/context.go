// Package emit lowers an ir.Module to a bytecode.Image: it eliminates phi
// nodes into parallel copies, drives per-function register allocation,
// inserts reference-counting ops at heap-value escape points, and resolves
// every jump to a concrete code offset.
package emit

import (
	"corec/internal/bytecode"
	"corec/internal/diag"
	"corec/internal/ir"
	"corec/internal/regalloc"
)

// emitter holds the state threaded through emission of one module: the
// image under construction and the routine index every function is
// assigned as its funcs are emitted in order.
type emitter struct {
	mod   *ir.Module
	rep   diag.Reporter
	image *bytecode.Image

	routineOf map[ir.FuncID]uint32
}

func newEmitter(mod *ir.Module, rep diag.Reporter) *emitter {
	return &emitter{
		mod:       mod,
		rep:       rep,
		image:     bytecode.NewImage(),
		routineOf: make(map[ir.FuncID]uint32),
	}
}

// fnState is the per-function scratch state codegen accumulates: the
// pending-offset jump table, spill-slot count, and register allocation.
type fnState struct {
	fn    *ir.Func
	order []ir.BlockID
	alloc *regalloc.Result
	moves map[ir.BlockID][]move
	code  []byte
	debug []bytecode.DebugLine

	// blockOffset records the code offset each block's first byte lands
	// at, filled in as codegen walks order; pendingJumps records forward
	// jumps whose target block hadn't been placed yet.
	blockOffset  map[ir.BlockID]int
	pendingJumps []pendingJump
}

// pendingJump is a jump instruction emitted before its target's offset was
// known, recorded so the final patch pass can rewrite the placeholder.
type pendingJump struct {
	patchAt int // byte offset of the i16/i32 operand to rewrite
	from    int // byte offset of the instruction *after* the opcode+operand,
	// i.e. where the jump is relative from
	target ir.BlockID
	long   bool
}

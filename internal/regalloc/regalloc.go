// Package regalloc assigns SSA values to a fixed bank of virtual registers
// using a two-pass linear-scan allocator: a first pass records every
// value's use positions in linear program order, from which the next use
// after any program point is looked up, and a forward pass
// walks the instruction stream assigning registers, spilling whichever
// live value has the farthest next use when the bank is full.
package regalloc

import (
	"corec/internal/ir"
)

// NumRegisters is the size of the virtual register bank the bytecode
// format's 4-bit register operand can address.
const NumRegisters = 16

// Assignment is the backend's single source of truth for where each SSA
// value lives once allocation finishes: either a register (Reg, valid
// whenever HasReg) or a spill slot (Slot, valid whenever HasSlot). A spilled
// value has HasReg false and keeps its slot for the rest of the function;
// the allocator never reloads it into a register.
type Assignment struct {
	HasReg  bool
	Reg     int
	HasSlot bool
	Slot    int
}

// Result is the outcome of allocating one function: the value -> location
// mapping, plus how many spill slots the routine's frame must reserve.
type Result struct {
	Values   map[ir.ValueID]*Assignment
	NumSlots int
}

// Allocate runs the two-pass allocator over fn and returns the resulting
// value placement.
func Allocate(fn *ir.Func) *Result {
	order := linearOrder(fn)
	distances := computeUseDistances(fn, order)
	return allocateForward(fn, order, distances)
}

// linearOrder returns fn's blocks in a single linear program order: a
// depth-first preorder from the entry block, visiting successors in
// terminator order. Blocks unreachable from the entry are left out.
func linearOrder(fn *ir.Func) []ir.BlockID {
	visited := make(map[ir.BlockID]bool, len(fn.Blocks))
	var order []ir.BlockID
	var walk func(ir.BlockID)
	walk = func(b ir.BlockID) {
		if visited[b] {
			return
		}
		visited[b] = true
		order = append(order, b)
		blk := fn.Block(b)
		if blk == nil {
			return
		}
		for _, s := range blk.Term.Successors() {
			walk(s)
		}
	}
	walk(fn.Entry)
	return order
}

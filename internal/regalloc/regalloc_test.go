package regalloc_test

import (
	"testing"

	"corec/internal/ir"
	"corec/internal/regalloc"
	"corec/internal/source"
	"corec/internal/types"
)

func newFunc(name string) (*ir.Module, *ir.Func, types.TypeID) {
	typs := types.NewInterner()
	mod := ir.NewModule(source.NewInterner(), typs)
	intType := typs.Builtins().Int
	fn := mod.NewFunc(name, 0, intType)
	entry := fn.NewBlock("entry")
	fn.Entry = entry
	return mod, fn, intType
}

func TestAllocateNoSpillWithinRegisterBank(t *testing.T) {
	_, fn, intType := newFunc("small")
	blk := fn.Block(fn.Entry)

	a := fn.NewValue(intType)
	bv := fn.NewValue(intType)
	sum := fn.NewValue(intType)

	blk.Instrs = append(blk.Instrs,
		ir.Instr{Kind: ir.InstrIConst, Dst: a, Type: intType, IntImm: 1},
		ir.Instr{Kind: ir.InstrIConst, Dst: bv, Type: intType, IntImm: 2},
		ir.Instr{Kind: ir.InstrIAdd, Dst: sum, Type: intType, Args: []ir.ValueID{a, bv}},
	)
	blk.Term = ir.Terminator{Kind: ir.TermReturn, Return: ir.ReturnTerm{HasValue: true, Value: sum}}

	res := regalloc.Allocate(fn)
	if res.NumSlots != 0 {
		t.Fatalf("expected no spills for a 3-value function, got %d slots", res.NumSlots)
	}
	for _, v := range []ir.ValueID{a, bv, sum} {
		assign, ok := res.Values[v]
		if !ok || !assign.HasReg {
			t.Fatalf("expected value %d to hold a register, got %+v", v, assign)
		}
		if assign.Reg < 0 || assign.Reg >= regalloc.NumRegisters {
			t.Fatalf("register %d out of bank range", assign.Reg)
		}
	}
}

// TestAllocateSpillsWhenLiveSetExceedsBank forces more simultaneously-live
// values than the register bank holds by defining NumRegisters+4 constants
// and using all of them in one final instruction, so every one of them is
// still live at that use.
func TestAllocateSpillsWhenLiveSetExceedsBank(t *testing.T) {
	_, fn, intType := newFunc("spilly")
	blk := fn.Block(fn.Entry)

	n := regalloc.NumRegisters + 4
	values := make([]ir.ValueID, n)
	for i := 0; i < n; i++ {
		v := fn.NewValue(intType)
		values[i] = v
		blk.Instrs = append(blk.Instrs, ir.Instr{Kind: ir.InstrIConst, Dst: v, Type: intType, IntImm: int64(i)})
	}

	combine := fn.NewValue(intType)
	blk.Instrs = append(blk.Instrs, ir.Instr{Kind: ir.InstrIAdd, Dst: combine, Type: intType, Args: values})
	blk.Term = ir.Terminator{Kind: ir.TermReturn, Return: ir.ReturnTerm{HasValue: true, Value: combine}}

	res := regalloc.Allocate(fn)
	if res.NumSlots == 0 {
		t.Fatalf("expected at least one spill slot when %d values are simultaneously live", n)
	}

	seenReg := make(map[int]bool)
	for _, v := range values {
		assign, ok := res.Values[v]
		if !ok {
			t.Fatalf("value %d has no assignment", v)
		}
		if assign.HasReg {
			if seenReg[assign.Reg] {
				continue // a later value reusing a freed register is fine
			}
			seenReg[assign.Reg] = true
		} else if !assign.HasSlot {
			t.Fatalf("value %d has neither a register nor a spill slot", v)
		}
	}
}

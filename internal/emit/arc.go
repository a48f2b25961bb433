package emit

import (
	"corec/internal/ir"
	"corec/internal/types"
)

// refcounted reports whether a value of type t is heap-allocated and
// refcounted by the runtime. Integers, bools, and floats never are.
func refcounted(interner *types.Interner, t types.TypeID) bool {
	typ, ok := interner.Lookup(t)
	if !ok {
		return false
	}
	switch typ.Kind {
	case types.KindString, types.KindOwn, types.KindArray:
		return true
	default:
		return false
	}
}

// ownedAllocas returns every alloca in fn whose slot holds a refcounted
// type, in definition order. These are the locals arc_release must cover
// at every function exit; this is a function-wide approximation of scope
// exit, not a per-block liveness analysis.
func ownedAllocas(mod *ir.Module, fn *ir.Func) []ir.ValueID {
	var out []ir.ValueID
	for _, blk := range fn.Blocks {
		for _, instr := range blk.Instrs {
			if instr.Kind != ir.InstrAlloca {
				continue
			}
			if refcounted(mod.Types, fn.ValueType(instr.Dst)) {
				out = append(out, instr.Dst)
			}
		}
	}
	return out
}

// retainTarget reports, for a given instruction, the value (if any) that
// escapes and needs an arc_retain immediately after it: the stored value
// of a store, or the pushed/inserted value of a collection write.
func retainTarget(instr ir.Instr) (ir.ValueID, bool) {
	switch instr.Kind {
	case ir.InstrStore:
		if len(instr.Args) == 2 {
			return instr.Args[1], true
		}
	case ir.InstrListPush, ir.InstrListPushStruct:
		if len(instr.Args) == 2 {
			return instr.Args[1], true
		}
	case ir.InstrMapSet:
		if len(instr.Args) == 3 {
			return instr.Args[2], true
		}
	}
	return ir.NoValueID, false
}

package emit

import (
	"testing"

	"corec/internal/ir"
	"corec/internal/source"
	"corec/internal/types"
)

// TestEliminatePhisSplitsCriticalEdge builds a CFG where entry branches to A
// and B, A itself branches again to join and to a third block C, and join
// has two predecessors (A and B). The A->join edge is critical (A has two
// successors, join has two predecessors), so eliminatePhis must route join's
// phi move through a fresh trampoline block rather than appending it
// directly to A, which would also execute it on the A->C path.
func TestEliminatePhisSplitsCriticalEdge(t *testing.T) {
	typs := types.NewInterner()
	mod := ir.NewModule(source.NewInterner(), typs)
	intType := typs.Builtins().Int
	boolType := typs.Builtins().Bool

	fn := mod.NewFunc("f", 0, intType)
	entry := fn.NewBlock("entry")
	a := fn.NewBlock("a")
	b := fn.NewBlock("b")
	c := fn.NewBlock("c")
	join := fn.NewBlock("join")
	fn.Entry = entry

	cond := fn.NewValue(boolType)
	entryBlk := fn.Block(entry)
	entryBlk.Instrs = append(entryBlk.Instrs, ir.Instr{Kind: ir.InstrBConst, Dst: cond, Type: boolType, BoolImm: true})
	entryBlk.Term = ir.Terminator{Kind: ir.TermBrIf, BrIf: ir.BrIfTerm{Cond: cond, Then: a, Else: b}}

	cond2 := fn.NewValue(boolType)
	xA := fn.NewValue(intType)
	aBlk := fn.Block(a)
	aBlk.Instrs = append(aBlk.Instrs,
		ir.Instr{Kind: ir.InstrBConst, Dst: cond2, Type: boolType, BoolImm: false},
		ir.Instr{Kind: ir.InstrIConst, Dst: xA, Type: intType, IntImm: 1},
	)
	aBlk.Term = ir.Terminator{Kind: ir.TermBrIf, BrIf: ir.BrIfTerm{Cond: cond2, Then: join, Else: c}}

	xB := fn.NewValue(intType)
	bBlk := fn.Block(b)
	bBlk.Instrs = append(bBlk.Instrs, ir.Instr{Kind: ir.InstrIConst, Dst: xB, Type: intType, IntImm: 2})
	bBlk.Term = ir.Terminator{Kind: ir.TermJump, Jump: ir.JumpTerm{Target: join}}

	cBlk := fn.Block(c)
	cBlk.Term = ir.Terminator{Kind: ir.TermUnreachable}

	phiDst := fn.NewValue(intType)
	joinBlk := fn.Block(join)
	joinBlk.Preds = []ir.BlockID{a, b}
	joinBlk.Phis = []ir.Phi{{
		Dst:  phiDst,
		Type: intType,
		Incoming: []ir.PhiArg{
			{Block: a, Value: xA},
			{Block: b, Value: xB},
		},
	}}
	joinBlk.Term = ir.Terminator{Kind: ir.TermReturn, Return: ir.ReturnTerm{HasValue: true, Value: phiDst}}

	blocksBefore := len(fn.Blocks)
	moves := eliminatePhis(fn)

	if len(fn.Blocks) != blocksBefore+1 {
		t.Fatalf("expected exactly one trampoline block to be inserted, got %d new blocks", len(fn.Blocks)-blocksBefore)
	}
	tramp := ir.BlockID(len(fn.Blocks) - 1)

	if _, ok := moves[a]; ok {
		t.Fatalf("the critical A->join move must not be attached directly to A")
	}
	trampMoves, ok := moves[tramp]
	if !ok || len(trampMoves) != 1 || trampMoves[0].Dst != phiDst || trampMoves[0].Src != xA {
		t.Fatalf("expected the A->join move on the trampoline block, got %+v", moves)
	}

	bMoves, ok := moves[b]
	if !ok || len(bMoves) != 1 || bMoves[0].Dst != phiDst || bMoves[0].Src != xB {
		t.Fatalf("expected the non-critical B->join move to stay on B, got %+v", moves)
	}

	if fn.Block(a).Term.BrIf.Then != tramp {
		t.Fatalf("expected A's then-target to be retargeted to the trampoline")
	}
	if fn.Block(a).Term.BrIf.Else != c {
		t.Fatalf("A's other successor must be untouched")
	}

	if joinBlk.Phis != nil {
		t.Fatalf("expected join's phis to be cleared after elimination")
	}
}

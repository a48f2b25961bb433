package emit

import "corec/internal/ir"

// move is one parallel-copy a phi's elimination introduces: copy Src into
// Dst at the end of the block the move is attached to, before its
// terminator.
type move struct {
	Dst ir.ValueID
	Src ir.ValueID
}

// eliminatePhis removes every phi in fn by inserting copies at the end of
// each predecessor, splitting critical edges (a predecessor with more than
// one successor feeding a block with more than one predecessor) with a
// fresh trampoline block so the copy doesn't run on paths that don't
// actually reach the phi's block.
func eliminatePhis(fn *ir.Func) map[ir.BlockID][]move {
	moves := make(map[ir.BlockID][]move)

	for _, blk := range fn.Blocks {
		if len(blk.Phis) == 0 {
			continue
		}
		succID := blk.ID
		for _, pred := range append([]ir.BlockID(nil), blk.Preds...) {
			predBlk := fn.Block(pred)
			if predBlk == nil {
				continue
			}

			movesTo := pred
			if isCriticalEdge(fn, predBlk, blk) {
				movesTo = splitEdge(fn, predBlk, succID)
			}

			for i := range blk.Phis {
				phi := &blk.Phis[i]
				v, ok := phi.Arg(pred)
				if !ok {
					continue
				}
				moves[movesTo] = append(moves[movesTo], move{Dst: phi.Dst, Src: v})
				if movesTo != pred {
					for j := range phi.Incoming {
						if phi.Incoming[j].Block == pred {
							phi.Incoming[j].Block = movesTo
						}
					}
				}
			}
		}
		blk.Phis = nil
	}
	return moves
}

func isCriticalEdge(fn *ir.Func, pred *ir.Block, succ *ir.Block) bool {
	return len(pred.Term.Successors()) > 1 && len(succ.Preds) > 1
}

// splitEdge inserts a trampoline block on the pred->succ edge and retargets
// pred's terminator to jump through it, returning the trampoline's ID.
func splitEdge(fn *ir.Func, pred *ir.Block, succ ir.BlockID) ir.BlockID {
	trampID := fn.NewBlock("critedge")
	tramp := fn.Block(trampID)
	tramp.Term = ir.Terminator{Kind: ir.TermJump, Jump: ir.JumpTerm{Target: succ}}
	tramp.AddPred(pred.ID)

	switch pred.Term.Kind {
	case ir.TermJump:
		if pred.Term.Jump.Target == succ {
			pred.Term.Jump.Target = trampID
		}
	case ir.TermBrIf:
		if pred.Term.BrIf.Then == succ {
			pred.Term.BrIf.Then = trampID
		}
		if pred.Term.BrIf.Else == succ {
			pred.Term.BrIf.Else = trampID
		}
	case ir.TermBrTable:
		if pred.Term.BrTable.Default == succ {
			pred.Term.BrTable.Default = trampID
		}
		for i := range pred.Term.BrTable.Cases {
			if pred.Term.BrTable.Cases[i].Target == succ {
				pred.Term.BrTable.Cases[i].Target = trampID
			}
		}
	}

	succBlk := fn.Block(succ)
	for i, p := range succBlk.Preds {
		if p == pred.ID {
			succBlk.Preds[i] = trampID
		}
	}
	return trampID
}

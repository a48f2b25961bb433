package ir

import "corec/internal/types"

// PhiArg is one incoming edge of a Phi: the value flowing in from Block.
type PhiArg struct {
	Block BlockID
	Value ValueID
}

// Phi selects a value based on which predecessor control-flow reached the
// block through. Phis are restricted to block entry (Block.Phis); each Phi
// carries exactly one argument per predecessor, and the argument's block
// set must match the owning block's Preds exactly.
type Phi struct {
	Dst      ValueID
	Type     types.TypeID
	Incoming []PhiArg
}

// Arg returns the incoming value for pred, and whether pred was found.
func (p *Phi) Arg(pred BlockID) (ValueID, bool) {
	for _, a := range p.Incoming {
		if a.Block == pred {
			return a.Value, true
		}
	}
	return NoValueID, false
}

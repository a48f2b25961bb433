package ir

import "fmt"

// defSite records where a value was defined: its block and its position
// within that block's phi+instruction stream (phis are position -1, i.e.
// "before" every regular instruction, matching "phis only at block entry").
type defSite struct {
	block BlockID
	pos   int
}

// Validate checks the invariants SPEC_FULL.md §3.4/§8 place on SSA IR:
// every block terminates exactly once, phis appear only at block entry
// with an incoming edge for exactly the block's predecessor set, and every
// non-phi use is dominated by its definition (phi arguments are checked
// against the dominance of the corresponding predecessor instead).
func Validate(m *Module) error {
	for _, fn := range m.Funcs {
		if err := validateFunc(fn); err != nil {
			return fmt.Errorf("func %s: %w", fn.Name, err)
		}
	}
	return nil
}

func validateFunc(f *Func) error {
	if !f.Entry.IsValid() {
		return fmt.Errorf("no entry block")
	}

	defs := make(map[ValueID]defSite, f.NumValues())
	for _, p := range f.Params {
		defs[p.Value] = defSite{block: f.Entry, pos: -1}
	}

	for _, b := range f.Blocks {
		if !b.Terminated() {
			return fmt.Errorf("block %s: missing terminator", b.Label)
		}
		for _, phi := range b.Phis {
			defs[phi.Dst] = defSite{block: b.ID, pos: -1}
		}
		for idx, instr := range b.Instrs {
			if instr.Dst.IsValid() {
				defs[instr.Dst] = defSite{block: b.ID, pos: idx}
			}
		}
	}

	dom := BuildDomTree(f)

	for _, b := range f.Blocks {
		for _, phi := range b.Phis {
			if len(phi.Incoming) != len(b.Preds) {
				return fmt.Errorf("block %s: phi %%%d has %d incoming args, block has %d predecessors",
					b.Label, phi.Dst, len(phi.Incoming), len(b.Preds))
			}
			for _, pred := range b.Preds {
				val, ok := phi.Arg(pred)
				if !ok {
					return fmt.Errorf("block %s: phi %%%d missing argument for predecessor %s", b.Label, phi.Dst, pred)
				}
				site, known := defs[val]
				if !known {
					return fmt.Errorf("block %s: phi %%%d argument %%%d from %s is never defined", b.Label, phi.Dst, val, pred)
				}
				if !dom.Dominates(site.block, pred) {
					return fmt.Errorf("block %s: phi %%%d argument %%%d does not dominate predecessor %s", b.Label, phi.Dst, val, pred)
				}
			}
		}
		for idx, instr := range b.Instrs {
			for _, arg := range instr.Args {
				if !arg.IsValid() {
					continue
				}
				site, known := defs[arg]
				if !known {
					return fmt.Errorf("block %s: instruction %d uses undefined value %%%d", b.Label, idx, arg)
				}
				if site.block == b.ID {
					if site.pos >= idx {
						return fmt.Errorf("block %s: value %%%d used at %d before its definition at %d", b.Label, arg, idx, site.pos)
					}
					continue
				}
				if !dom.Dominates(site.block, b.ID) {
					return fmt.Errorf("block %s: instruction %d uses %%%d, whose definition does not dominate this block", b.Label, idx, arg)
				}
			}
		}
		if err := validateTerminatorUses(b, defs, dom); err != nil {
			return err
		}
	}
	return nil
}

func validateTerminatorUses(b *Block, defs map[ValueID]defSite, dom *DomTree) error {
	check := func(v ValueID) error {
		if !v.IsValid() {
			return nil
		}
		site, ok := defs[v]
		if !ok {
			return fmt.Errorf("block %s: terminator uses undefined value %%%d", b.Label, v)
		}
		if site.block != b.ID && !dom.Dominates(site.block, b.ID) {
			return fmt.Errorf("block %s: terminator uses %%%d, whose definition does not dominate this block", b.Label, v)
		}
		return nil
	}
	switch b.Term.Kind {
	case TermBrIf:
		return check(b.Term.BrIf.Cond)
	case TermBrTable:
		return check(b.Term.BrTable.Value)
	case TermReturn:
		if b.Term.Return.HasValue {
			return check(b.Term.Return.Value)
		}
	case TermThrow:
		return check(b.Term.Throw.Value)
	}
	return nil
}

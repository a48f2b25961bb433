package emit

import (
	"corec/internal/bytecode"
	"corec/internal/diag"
	"corec/internal/ir"
)

// EmitModule lowers every function in mod to bytecode and returns the
// assembled image. Diagnostics reported through rep during emission are
// internal-compiler-errors per spec: the caller should treat a non-nil
// error, or any error-severity diagnostic emitted here, as fatal.
func EmitModule(mod *ir.Module, rep diag.Reporter) (*bytecode.Image, error) {
	e := newEmitter(mod, rep)

	// Assign routine indices up front so a call to a function defined
	// later in the module still resolves on its first encoding pass.
	for i, fn := range mod.Funcs {
		e.routineOf[fn.ID] = uint32(i)
	}

	for _, fn := range mod.Funcs {
		routine, code, debugLines, err := e.emitFunc(fn)
		if err != nil {
			return nil, err
		}
		routine.NameConstIdx = e.image.Pool.Ident(fn.Name)
		base := uint32(len(e.image.Code))
		idx := e.image.AddRoutine(routine, code)
		for _, d := range debugLines {
			e.image.AddDebugLine(base+d.CodeOffset, d.Line)
		}
		e.image.AddExport(routine.NameConstIdx, idx)
	}

	if err := e.checkInvariants(); err != nil {
		return nil, err
	}
	return e.image, nil
}

// checkInvariants runs the end-of-emission ICE check that every routine's
// code section is non-empty. The other ICE checks run while each routine is
// encoded: encodeTerm reports a block without a terminator, encodeCall a
// call arity mismatch, and patchJumps an unresolved jump target.
func (e *emitter) checkInvariants() error {
	for i, r := range e.image.Routines {
		if r.CodeLength == 0 {
			e.errorf(diag.EmitInvariant, "routine %d emitted no code", i)
		}
	}
	return nil
}

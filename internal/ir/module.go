package ir

import (
	"corec/internal/source"
	"corec/internal/types"
)

// Module is the narrow waist of the pipeline: the immutable artifact the
// lowerer produces and the bytecode emitter (or a hypothetical native
// backend) consumes. It owns the function list, the string pool, and the
// type registry for one compilation.
type Module struct {
	Funcs      []*Func
	FuncByName map[string]FuncID

	Strings *source.Interner
	Types   *types.Interner
}

// NewModule creates an empty module backed by the given string interner
// and type registry; both are owned by the caller and outlive lowering.
func NewModule(strings *source.Interner, typs *types.Interner) *Module {
	return &Module{
		FuncByName: make(map[string]FuncID),
		Strings:    strings,
		Types:      typs,
	}
}

// NewFunc appends a new, empty function and registers it by name.
func (m *Module) NewFunc(name string, sym source.StringID, result types.TypeID) *Func {
	id := FuncID(len(m.Funcs))
	fn := &Func{ID: id, Name: name, Sym: sym, Result: result, Entry: NoBlockID}
	m.Funcs = append(m.Funcs, fn)
	m.FuncByName[name] = id
	return fn
}

// Func returns the function with the given ID, or nil if out of range.
func (m *Module) Func(id FuncID) *Func {
	if !id.IsValid() || int(id) >= len(m.Funcs) {
		return nil
	}
	return m.Funcs[id]
}

// Lookup returns the function named name, if one was registered.
func (m *Module) Lookup(name string) (*Func, bool) {
	id, ok := m.FuncByName[name]
	if !ok {
		return nil, false
	}
	return m.Func(id), true
}

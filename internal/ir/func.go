package ir

import (
	"corec/internal/source"
	"corec/internal/types"
)

// Param is one function parameter; its Value is the SSA value the entry
// block's implicit definitions bind it to.
type Param struct {
	Name  source.StringID
	Type  types.TypeID
	Value ValueID
}

// Func owns an ordered list of basic blocks and the monotonic value
// counter for every SSA value defined within it (instructions, phis, and
// parameters all draw from the same counter).
type Func struct {
	ID     FuncID
	Name   string
	Sym    source.StringID
	Params []Param
	Result types.TypeID
	Blocks []*Block
	Entry  BlockID

	nextValue  ValueID
	valueTypes []types.TypeID
}

// NewValue allocates a fresh SSA value of the given type.
func (f *Func) NewValue(t types.TypeID) ValueID {
	id := f.nextValue
	f.nextValue++
	f.valueTypes = append(f.valueTypes, t)
	return id
}

// NumValues returns how many SSA values have been allocated in f so far.
func (f *Func) NumValues() int {
	return int(f.nextValue)
}

// ValueType returns the type a value was allocated with, or NoTypeID if id
// is out of range.
func (f *Func) ValueType(id ValueID) types.TypeID {
	if !id.IsValid() || int(id) >= len(f.valueTypes) {
		return types.NoTypeID
	}
	return f.valueTypes[id]
}

// NewBlock appends a fresh, unterminated block and returns its ID.
func (f *Func) NewBlock(label string) BlockID {
	id := BlockID(len(f.Blocks))
	f.Blocks = append(f.Blocks, &Block{ID: id, Label: label})
	return id
}

// Block returns the block with the given ID, or nil if out of range.
func (f *Func) Block(id BlockID) *Block {
	if !id.IsValid() || int(id) >= len(f.Blocks) {
		return nil
	}
	return f.Blocks[id]
}

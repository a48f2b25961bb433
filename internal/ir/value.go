package ir

import "corec/internal/types"

// Value is the immutable record of one SSA definition: a value is created
// once by exactly one instruction, phi, or function parameter, and never
// mutated afterward.
type Value struct {
	ID   ValueID
	Type types.TypeID
}

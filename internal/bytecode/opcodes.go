// Package bytecode defines the register-based instruction set the emitter
// produces and the runtime VM executes, plus the binary image writer for
// the "CBO1" file format.
package bytecode

// Op is one opcode byte. The table mirrors internal/ir's InstrKind
// one-for-one for value-producing instructions, and adds the control-flow,
// phi-elimination, and refcounting ops the IR keeps out-of-band (on
// Block.Term, or inserted during emission).
type Op uint8

const (
	OpInvalid Op = iota

	// Constants.
	OpIConst
	OpFConst
	OpSConst
	OpBConst
	OpNullConst

	// Arithmetic.
	OpIAdd
	OpISub
	OpIMul
	OpSDiv
	OpUDiv
	OpSRem
	OpURem
	OpINeg
	OpFAdd
	OpFSub
	OpFMul
	OpFDiv
	OpFNeg

	// Bitwise & shift.
	OpBAnd
	OpBOr
	OpBXor
	OpBNot
	OpShl
	OpAShr
	OpLShr

	// Comparison.
	OpICmp
	OpFCmp

	// Logical.
	OpLogAnd
	OpLogOr
	OpLogNot

	// Memory.
	OpAlloca
	OpLoad
	OpStore
	OpFieldPtr
	OpIndexPtr

	// Conversions.
	OpBitcast
	OpSExt
	OpUExt
	OpTrunc
	OpIntToFloat
	OpFloatToInt

	// Strings.
	OpStrConcat
	OpStrLen
	OpStrCompare
	OpStrIndex
	OpStrSlice

	// Optional.
	OpWrapOptional
	OpUnwrapOptional
	OpIsNull

	// Arrays.
	OpArrayLoad
	OpArrayStore
	OpArrayLen
	OpSliceNew

	// Collections - list.
	OpListNew
	OpListPush
	OpListPop
	OpListGet
	OpListSet
	OpListLen
	OpListPushStruct
	OpListGetStruct

	// Collections - map.
	OpMapNew
	OpMapSet
	OpMapGet
	OpMapHas
	OpMapDelete
	OpMapLen

	// Sum types.
	OpVariantConstruct
	OpVariantGetTag
	OpVariantGetPayload

	// Closures.
	OpMakeClosure

	// Control / error (handler stack).
	OpSetHandler
	OpClearHandler

	// Control flow (mirrors ir.Block.Term, absent from InstrKind).
	OpJump
	OpJumpLong
	OpBrIf
	OpBrIfLong
	OpBrTable
	OpRet
	OpRetVoid
	OpThrow
	OpUnreachable

	// Calls.
	OpCall
	OpPushArg
	OpPopArg

	// Phi elimination.
	OpMov

	// Reference counting.
	OpArcRetain
	OpArcRelease

	// Register spill traffic (frame slot <-> register), inserted by the
	// allocator's spill path; distinct from the language-level load/store
	// which operate on alloca pointers.
	OpSpillLoad
	OpSpillStore

	// Stack arguments beyond the 15 the call opcode can pack inline.
	OpPushStackArg
	OpPopStackArg

	// Debug.
	OpDebugLine

	opCount
)

// Name returns the opcode's mnemonic, used by --emit-bytecode-text.
func (o Op) Name() string {
	if int(o) < len(opNames) {
		return opNames[o]
	}
	return "op?"
}

var opNames = [opCount]string{
	OpInvalid:            "invalid",
	OpIConst:              "iconst",
	OpFConst:              "fconst",
	OpSConst:              "sconst",
	OpBConst:              "bconst",
	OpNullConst:           "null_const",
	OpIAdd:                "iadd",
	OpISub:                "isub",
	OpIMul:                "imul",
	OpSDiv:                "sdiv",
	OpUDiv:                "udiv",
	OpSRem:                "srem",
	OpURem:                "urem",
	OpINeg:                "ineg",
	OpFAdd:                "fadd",
	OpFSub:                "fsub",
	OpFMul:                "fmul",
	OpFDiv:                "fdiv",
	OpFNeg:                "fneg",
	OpBAnd:                "band",
	OpBOr:                 "bor",
	OpBXor:                "bxor",
	OpBNot:                "bnot",
	OpShl:                 "shl",
	OpAShr:                "ashr",
	OpLShr:                "lshr",
	OpICmp:                "icmp",
	OpFCmp:                "fcmp",
	OpLogAnd:              "log_and",
	OpLogOr:               "log_or",
	OpLogNot:              "log_not",
	OpAlloca:              "alloca",
	OpLoad:                "load",
	OpStore:               "store",
	OpFieldPtr:            "field_ptr",
	OpIndexPtr:            "index_ptr",
	OpBitcast:             "bitcast",
	OpSExt:                "sext",
	OpUExt:                "uext",
	OpTrunc:               "trunc",
	OpIntToFloat:          "int_to_float",
	OpFloatToInt:          "float_to_int",
	OpStrConcat:           "str_concat",
	OpStrLen:              "str_len",
	OpStrCompare:          "str_compare",
	OpStrIndex:            "str_index",
	OpStrSlice:            "str_slice",
	OpWrapOptional:        "wrap_optional",
	OpUnwrapOptional:      "unwrap_optional",
	OpIsNull:              "is_null",
	OpArrayLoad:           "array_load",
	OpArrayStore:          "array_store",
	OpArrayLen:            "array_len",
	OpSliceNew:            "slice_new",
	OpListNew:             "list_new",
	OpListPush:            "list_push",
	OpListPop:             "list_pop",
	OpListGet:             "list_get",
	OpListSet:             "list_set",
	OpListLen:             "list_len",
	OpListPushStruct:      "list_push_struct",
	OpListGetStruct:       "list_get_struct",
	OpMapNew:              "map_new",
	OpMapSet:              "map_set",
	OpMapGet:              "map_get",
	OpMapHas:              "map_has",
	OpMapDelete:           "map_delete",
	OpMapLen:              "map_len",
	OpVariantConstruct:    "variant_construct",
	OpVariantGetTag:       "variant_get_tag",
	OpVariantGetPayload:   "variant_get_payload",
	OpMakeClosure:         "make_closure",
	OpSetHandler:          "set_handler",
	OpClearHandler:        "clear_handler",
	OpJump:                "jump",
	OpJumpLong:            "jump_long",
	OpBrIf:                "br_if",
	OpBrIfLong:            "br_if_long",
	OpBrTable:             "br_table",
	OpRet:                 "ret",
	OpRetVoid:             "ret_void",
	OpThrow:               "throw",
	OpUnreachable:         "unreachable",
	OpCall:                "call",
	OpPushArg:             "push_arg",
	OpPopArg:              "pop_arg",
	OpMov:                 "mov",
	OpArcRetain:           "arc_retain",
	OpArcRelease:          "arc_release",
	OpSpillLoad:           "spill_load",
	OpSpillStore:          "spill_store",
	OpPushStackArg:        "push_stack_arg",
	OpPopStackArg:         "pop_stack_arg",
	OpDebugLine:           "debug_line",
}

// RegLastResult is r15, the VM's "last result" convention register.
const RegLastResult = 15

// NumRegisters is the size of the register bank operands can address.
const NumRegisters = 16

// MaxInlineArgs is the number of call arguments the 4-bit argc nibble can
// carry inline; additional arguments are passed via push_arg/pop_arg.
const MaxInlineArgs = 15

package emit

import (
	"corec/internal/bytecode"
	"corec/internal/ir"
)

// instrOp maps an IR instruction kind to its bytecode opcode. Control flow
// (jump/br_if/br_table/ret/throw) lives on Block.Term, not here; codegen.go
// handles terminators separately.
var instrOp = map[ir.InstrKind]bytecode.Op{
	ir.InstrIConst:    bytecode.OpIConst,
	ir.InstrFConst:    bytecode.OpFConst,
	ir.InstrSConst:    bytecode.OpSConst,
	ir.InstrBConst:    bytecode.OpBConst,
	ir.InstrNullConst: bytecode.OpNullConst,

	ir.InstrIAdd: bytecode.OpIAdd,
	ir.InstrISub: bytecode.OpISub,
	ir.InstrIMul: bytecode.OpIMul,
	ir.InstrSDiv: bytecode.OpSDiv,
	ir.InstrUDiv: bytecode.OpUDiv,
	ir.InstrSRem: bytecode.OpSRem,
	ir.InstrURem: bytecode.OpURem,
	ir.InstrINeg: bytecode.OpINeg,
	ir.InstrFAdd: bytecode.OpFAdd,
	ir.InstrFSub: bytecode.OpFSub,
	ir.InstrFMul: bytecode.OpFMul,
	ir.InstrFDiv: bytecode.OpFDiv,
	ir.InstrFNeg: bytecode.OpFNeg,

	ir.InstrBAnd: bytecode.OpBAnd,
	ir.InstrBOr:  bytecode.OpBOr,
	ir.InstrBXor: bytecode.OpBXor,
	ir.InstrBNot: bytecode.OpBNot,
	ir.InstrShl:  bytecode.OpShl,
	ir.InstrAShr: bytecode.OpAShr,
	ir.InstrLShr: bytecode.OpLShr,

	ir.InstrICmp: bytecode.OpICmp,
	ir.InstrFCmp: bytecode.OpFCmp,

	ir.InstrLogAnd: bytecode.OpLogAnd,
	ir.InstrLogOr:  bytecode.OpLogOr,
	ir.InstrLogNot: bytecode.OpLogNot,

	ir.InstrAlloca:    bytecode.OpAlloca,
	ir.InstrLoad:      bytecode.OpLoad,
	ir.InstrStore:     bytecode.OpStore,
	ir.InstrFieldPtr:  bytecode.OpFieldPtr,
	ir.InstrIndexPtr:  bytecode.OpIndexPtr,

	ir.InstrBitcast:     bytecode.OpBitcast,
	ir.InstrSExt:        bytecode.OpSExt,
	ir.InstrUExt:        bytecode.OpUExt,
	ir.InstrTrunc:       bytecode.OpTrunc,
	ir.InstrIntToFloat:  bytecode.OpIntToFloat,
	ir.InstrFloatToInt:  bytecode.OpFloatToInt,

	ir.InstrStrConcat:  bytecode.OpStrConcat,
	ir.InstrStrLen:     bytecode.OpStrLen,
	ir.InstrStrCompare: bytecode.OpStrCompare,
	ir.InstrStrIndex:   bytecode.OpStrIndex,
	ir.InstrStrSlice:   bytecode.OpStrSlice,

	ir.InstrWrapOptional:   bytecode.OpWrapOptional,
	ir.InstrUnwrapOptional: bytecode.OpUnwrapOptional,
	ir.InstrIsNull:         bytecode.OpIsNull,

	ir.InstrArrayLoad:  bytecode.OpArrayLoad,
	ir.InstrArrayStore: bytecode.OpArrayStore,
	ir.InstrArrayLen:   bytecode.OpArrayLen,
	ir.InstrSliceNew:   bytecode.OpSliceNew,

	ir.InstrListNew:         bytecode.OpListNew,
	ir.InstrListPush:        bytecode.OpListPush,
	ir.InstrListPop:         bytecode.OpListPop,
	ir.InstrListGet:         bytecode.OpListGet,
	ir.InstrListSet:         bytecode.OpListSet,
	ir.InstrListLen:         bytecode.OpListLen,
	ir.InstrListPushStruct:  bytecode.OpListPushStruct,
	ir.InstrListGetStruct:   bytecode.OpListGetStruct,

	ir.InstrMapNew:    bytecode.OpMapNew,
	ir.InstrMapSet:    bytecode.OpMapSet,
	ir.InstrMapGet:    bytecode.OpMapGet,
	ir.InstrMapHas:    bytecode.OpMapHas,
	ir.InstrMapDelete: bytecode.OpMapDelete,
	ir.InstrMapLen:    bytecode.OpMapLen,

	ir.InstrVariantConstruct:   bytecode.OpVariantConstruct,
	ir.InstrVariantGetTag:      bytecode.OpVariantGetTag,
	ir.InstrVariantGetPayload:  bytecode.OpVariantGetPayload,

	ir.InstrCall: bytecode.OpCall,

	ir.InstrMakeClosure: bytecode.OpMakeClosure,

	ir.InstrSetHandler:   bytecode.OpSetHandler,
	ir.InstrClearHandler: bytecode.OpClearHandler,

	ir.InstrDebugLine: bytecode.OpDebugLine,
}

// instrArgCount reports how many register operands (beyond Dst) kind reads,
// used to size the operand-encoding byte(s). InstrCall is handled
// separately since its operand count is call-site dependent.
func instrArgCount(k ir.InstrKind) int {
	switch k {
	case ir.InstrINeg, ir.InstrFNeg, ir.InstrBNot, ir.InstrLogNot,
		ir.InstrLoad, ir.InstrStrLen, ir.InstrArrayLen, ir.InstrListLen,
		ir.InstrMapLen, ir.InstrWrapOptional, ir.InstrUnwrapOptional,
		ir.InstrIsNull, ir.InstrBitcast, ir.InstrSExt, ir.InstrUExt,
		ir.InstrTrunc, ir.InstrIntToFloat, ir.InstrFloatToInt,
		ir.InstrVariantGetTag, ir.InstrVariantGetPayload, ir.InstrListPop,
		ir.InstrListNew, ir.InstrMapNew, ir.InstrListPushStruct:
		return 1
	case ir.InstrStore, ir.InstrFieldPtr, ir.InstrIAdd, ir.InstrISub,
		ir.InstrIMul, ir.InstrSDiv, ir.InstrUDiv, ir.InstrSRem, ir.InstrURem,
		ir.InstrFAdd, ir.InstrFSub, ir.InstrFMul, ir.InstrFDiv,
		ir.InstrBAnd, ir.InstrBOr, ir.InstrBXor, ir.InstrShl, ir.InstrAShr,
		ir.InstrLShr, ir.InstrICmp, ir.InstrFCmp, ir.InstrLogAnd, ir.InstrLogOr,
		ir.InstrStrConcat, ir.InstrStrCompare, ir.InstrStrIndex,
		ir.InstrArrayLoad, ir.InstrListGet, ir.InstrMapGet, ir.InstrMapHas,
		ir.InstrMapDelete, ir.InstrListPush, ir.InstrListGetStruct:
		return 2
	case ir.InstrIndexPtr, ir.InstrArrayStore, ir.InstrListSet, ir.InstrMapSet,
		ir.InstrStrSlice:
		return 3
	default:
		return 0
	}
}

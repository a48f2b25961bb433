package ir

import (
	"fmt"
	"strings"
)

// Print renders m as human-readable text, grouped by function, for the
// `--emit-ir` debug dump flag.
func Print(m *Module) string {
	var sb strings.Builder
	for _, f := range m.Funcs {
		printFunc(&sb, f)
	}
	return sb.String()
}

func printFunc(sb *strings.Builder, f *Func) {
	fmt.Fprintf(sb, "func %s(", f.Name)
	for i, p := range f.Params {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(sb, "%%%d:%d", p.Value, p.Type)
	}
	fmt.Fprintf(sb, ") -> %d {\n", f.Result)
	for _, b := range f.Blocks {
		printBlock(sb, b)
	}
	sb.WriteString("}\n")
}

func printBlock(sb *strings.Builder, b *Block) {
	fmt.Fprintf(sb, "%s: ; preds=%v\n", b.Label, b.Preds)
	for _, phi := range b.Phis {
		fmt.Fprintf(sb, "  %%%d = phi", phi.Dst)
		for _, a := range phi.Incoming {
			fmt.Fprintf(sb, " [%s: %%%d]", a.Block.label(), a.Value)
		}
		sb.WriteString("\n")
	}
	for _, instr := range b.Instrs {
		printInstr(sb, instr)
	}
	printTerm(sb, b.Term)
}

func (id BlockID) label() string {
	return fmt.Sprintf("bb%d", int(id))
}

func printInstr(sb *strings.Builder, instr Instr) {
	if instr.Dst.IsValid() {
		fmt.Fprintf(sb, "  %%%d = %s", instr.Dst, instrName(instr.Kind))
	} else {
		fmt.Fprintf(sb, "  %s", instrName(instr.Kind))
	}
	for _, a := range instr.Args {
		fmt.Fprintf(sb, " %%%d", a)
	}
	if instr.StrImm != "" {
		fmt.Fprintf(sb, " %q", instr.StrImm)
	}
	sb.WriteString("\n")
}

func printTerm(sb *strings.Builder, t Terminator) {
	switch t.Kind {
	case TermJump:
		fmt.Fprintf(sb, "  jump %s\n", t.Jump.Target.label())
	case TermBrIf:
		fmt.Fprintf(sb, "  br_if %%%d, %s, %s\n", t.BrIf.Cond, t.BrIf.Then.label(), t.BrIf.Else.label())
	case TermBrTable:
		fmt.Fprintf(sb, "  br_table %%%d, default=%s (%d cases)\n", t.BrTable.Value, t.BrTable.Default.label(), len(t.BrTable.Cases))
	case TermReturn:
		if t.Return.HasValue {
			fmt.Fprintf(sb, "  ret %%%d\n", t.Return.Value)
		} else {
			sb.WriteString("  ret\n")
		}
	case TermThrow:
		fmt.Fprintf(sb, "  throw %%%d\n", t.Throw.Value)
	case TermUnreachable:
		sb.WriteString("  unreachable\n")
	default:
		sb.WriteString("  <no terminator>\n")
	}
}

func instrName(k InstrKind) string {
	if n, ok := instrNames[k]; ok {
		return n
	}
	return fmt.Sprintf("op%d", int(k))
}

var instrNames = map[InstrKind]string{
	InstrIConst: "iconst", InstrFConst: "fconst", InstrSConst: "sconst",
	InstrBConst: "bconst", InstrNullConst: "null_const",
	InstrIAdd: "iadd", InstrISub: "isub", InstrIMul: "imul", InstrSDiv: "sdiv",
	InstrUDiv: "udiv", InstrSRem: "srem", InstrURem: "urem", InstrINeg: "ineg",
	InstrFAdd: "fadd", InstrFSub: "fsub", InstrFMul: "fmul", InstrFDiv: "fdiv", InstrFNeg: "fneg",
	InstrBAnd: "band", InstrBOr: "bor", InstrBXor: "bxor", InstrBNot: "bnot",
	InstrShl: "shl", InstrAShr: "ashr", InstrLShr: "lshr",
	InstrICmp: "icmp", InstrFCmp: "fcmp",
	InstrLogAnd: "log_and", InstrLogOr: "log_or", InstrLogNot: "log_not",
	InstrAlloca: "alloca", InstrLoad: "load", InstrStore: "store",
	InstrFieldPtr: "field_ptr", InstrIndexPtr: "index_ptr",
	InstrCall: "call",
	InstrBitcast: "bitcast", InstrSExt: "sext", InstrUExt: "uext", InstrTrunc: "trunc",
	InstrIntToFloat: "int_to_float", InstrFloatToInt: "float_to_int",
	InstrStrConcat: "str_concat", InstrStrLen: "str_len", InstrStrCompare: "str_compare",
	InstrStrIndex: "str_index", InstrStrSlice: "str_slice",
	InstrWrapOptional: "wrap_optional", InstrUnwrapOptional: "unwrap_optional", InstrIsNull: "is_null",
	InstrArrayLoad: "array_load", InstrArrayStore: "array_store", InstrArrayLen: "array_len", InstrSliceNew: "slice_new",
	InstrListNew: "list_new", InstrListPush: "list_push", InstrListPop: "list_pop",
	InstrListGet: "list_get", InstrListSet: "list_set", InstrListLen: "list_len",
	InstrListPushStruct: "list_push_struct", InstrListGetStruct: "list_get_struct",
	InstrMapNew: "map_new", InstrMapSet: "map_set", InstrMapGet: "map_get",
	InstrMapHas: "map_has", InstrMapDelete: "map_delete", InstrMapLen: "map_len",
	InstrVariantConstruct: "variant_construct", InstrVariantGetTag: "variant_get_tag", InstrVariantGetPayload: "variant_get_payload",
	InstrMakeClosure: "make_closure",
	InstrSetHandler: "set_handler", InstrClearHandler: "clear_handler",
	InstrDebugLine: "debug_line",
}

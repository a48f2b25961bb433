package lower

import (
	"strconv"

	"corec/internal/ast"
	"corec/internal/diag"
	"corec/internal/ir"
	"corec/internal/types"
)

// lowerExpr lowers expr into the current block and returns the SSA value
// holding its result. Constructs without a direct bytecode counterpart
// (async, select/race, parallel map/reduce, spawn/task) report
// LowUnsupportedConstruct and return a null placeholder so lowering of the
// surrounding function can continue and surface every unsupported site in
// one pass rather than aborting at the first one.
func (l *lowerer) lowerExpr(id ast.ExprID) ir.ValueID {
	if !id.IsValid() {
		return ir.NoValueID
	}
	expr := l.b.Exprs.Get(id)
	if expr == nil {
		return ir.NoValueID
	}
	switch expr.Kind {
	case ast.ExprIdent:
		d, _ := l.b.Exprs.Ident(id)
		if v, ok := l.lookup(d.Name); ok {
			return v
		}
		l.errorf(diag.LowUnsupportedConstruct, expr.Span, "reference to unbound name")
		return l.nullValue(id)
	case ast.ExprLit:
		return l.lowerLiteral(id, expr)
	case ast.ExprBinary:
		return l.lowerBinary(id, expr)
	case ast.ExprUnary:
		return l.lowerUnary(id, expr)
	case ast.ExprCall:
		return l.lowerCall(id, expr)
	case ast.ExprGroup:
		d, _ := l.b.Exprs.Group(id)
		return l.lowerExpr(d.Inner)
	case ast.ExprTernary:
		return l.lowerTernary(id, expr)
	case ast.ExprCast:
		d, _ := l.b.Exprs.Cast(id)
		return l.lowerExpr(d.Value)
	case ast.ExprBlock:
		return l.lowerBlockExpr(id, expr)
	default:
		l.errorf(diag.LowUnsupportedConstruct, expr.Span, "expression kind not supported by the lowerer")
		return l.nullValue(id)
	}
}

func (l *lowerer) nullValue(sp ast.ExprID) ir.ValueID {
	dst := l.fn.NewValue(l.mod.Types.Builtins().Nothing)
	return l.emit(ir.Instr{Kind: ir.InstrNullConst, Dst: dst, Type: l.mod.Types.Builtins().Nothing})
}

func (l *lowerer) lowerLiteral(id ast.ExprID, expr *ast.Expr) ir.ValueID {
	lit, _ := l.b.Exprs.Literal(id)
	raw, _ := l.b.StringsInterner.Lookup(lit.Value)
	bi := l.mod.Types.Builtins()
	switch lit.Kind {
	case ast.ExprLitInt:
		n, _ := strconv.ParseInt(raw, 10, 64)
		dst := l.fn.NewValue(l.exprType(id))
		return l.emit(ir.Instr{Kind: ir.InstrIConst, Dst: dst, Type: bi.Int, IntImm: n})
	case ast.ExprLitUint:
		n, _ := strconv.ParseUint(raw, 10, 64)
		dst := l.fn.NewValue(l.exprType(id))
		return l.emit(ir.Instr{Kind: ir.InstrIConst, Dst: dst, Type: bi.Uint, IntImm: int64(n)})
	case ast.ExprLitFloat:
		f, _ := strconv.ParseFloat(raw, 64)
		dst := l.fn.NewValue(l.exprType(id))
		return l.emit(ir.Instr{Kind: ir.InstrFConst, Dst: dst, Type: bi.Float, FloatImm: f})
	case ast.ExprLitString:
		dst := l.fn.NewValue(bi.String)
		return l.emit(ir.Instr{Kind: ir.InstrSConst, Dst: dst, Type: bi.String, StrImm: raw})
	case ast.ExprLitTrue:
		dst := l.fn.NewValue(bi.Bool)
		return l.emit(ir.Instr{Kind: ir.InstrBConst, Dst: dst, Type: bi.Bool, BoolImm: true})
	case ast.ExprLitFalse:
		dst := l.fn.NewValue(bi.Bool)
		return l.emit(ir.Instr{Kind: ir.InstrBConst, Dst: dst, Type: bi.Bool, BoolImm: false})
	case ast.ExprLitNothing:
		return l.nullValue(id)
	default:
		l.errorf(diag.LowUnsupportedConstruct, expr.Span, "unsupported literal kind")
		return l.nullValue(id)
	}
}

func (l *lowerer) lowerBinary(id ast.ExprID, expr *ast.Expr) ir.ValueID {
	d, _ := l.b.Exprs.Binary(id)
	if isAssignOp(d.Op) {
		return l.lowerAssign(d, expr)
	}
	switch d.Op {
	case ast.ExprBinaryLogicalAnd:
		return l.lowerShortCircuit(d, expr, true)
	case ast.ExprBinaryLogicalOr:
		return l.lowerShortCircuit(d, expr, false)
	}

	lv := l.lowerExpr(d.Left)
	rv := l.lowerExpr(d.Right)
	resultType := l.exprType(id)
	kind, cond, isCmp := binaryInstr(d.Op, l.isFloatExpr(d.Left))

	dst := l.fn.NewValue(resultType)
	instr := ir.Instr{Kind: kind, Dst: dst, Type: resultType, Args: []ir.ValueID{lv, rv}}
	if isCmp {
		instr.Cond = cond
	}
	return l.emit(instr)
}

func (l *lowerer) isFloatExpr(id ast.ExprID) bool {
	t, ok := l.mod.Types.Lookup(l.exprType(id))
	return ok && t.Kind == types.KindFloat
}

func binaryInstr(op ast.ExprBinaryOp, isFloat bool) (ir.InstrKind, ir.CmpCond, bool) {
	switch op {
	case ast.ExprBinaryAdd:
		if isFloat {
			return ir.InstrFAdd, 0, false
		}
		return ir.InstrIAdd, 0, false
	case ast.ExprBinarySub:
		if isFloat {
			return ir.InstrFSub, 0, false
		}
		return ir.InstrISub, 0, false
	case ast.ExprBinaryMul:
		if isFloat {
			return ir.InstrFMul, 0, false
		}
		return ir.InstrIMul, 0, false
	case ast.ExprBinaryDiv:
		if isFloat {
			return ir.InstrFDiv, 0, false
		}
		return ir.InstrSDiv, 0, false
	case ast.ExprBinaryMod:
		return ir.InstrSRem, 0, false
	case ast.ExprBinaryBitAnd:
		return ir.InstrBAnd, 0, false
	case ast.ExprBinaryBitOr:
		return ir.InstrBOr, 0, false
	case ast.ExprBinaryBitXor:
		return ir.InstrBXor, 0, false
	case ast.ExprBinaryShiftLeft:
		return ir.InstrShl, 0, false
	case ast.ExprBinaryShiftRight:
		return ir.InstrAShr, 0, false
	case ast.ExprBinaryEq:
		if isFloat {
			return ir.InstrFCmp, ir.CmpEq, true
		}
		return ir.InstrICmp, ir.CmpEq, true
	case ast.ExprBinaryNotEq:
		if isFloat {
			return ir.InstrFCmp, ir.CmpNe, true
		}
		return ir.InstrICmp, ir.CmpNe, true
	case ast.ExprBinaryLess:
		if isFloat {
			return ir.InstrFCmp, ir.CmpLt, true
		}
		return ir.InstrICmp, ir.CmpLt, true
	case ast.ExprBinaryLessEq:
		if isFloat {
			return ir.InstrFCmp, ir.CmpLe, true
		}
		return ir.InstrICmp, ir.CmpLe, true
	case ast.ExprBinaryGreater:
		if isFloat {
			return ir.InstrFCmp, ir.CmpGt, true
		}
		return ir.InstrICmp, ir.CmpGt, true
	case ast.ExprBinaryGreaterEq:
		if isFloat {
			return ir.InstrFCmp, ir.CmpGe, true
		}
		return ir.InstrICmp, ir.CmpGe, true
	default:
		return ir.InstrIAdd, 0, false
	}
}

// lowerAssign handles `target op= value`; target must be an identifier
// (field/index assignment lowering is not yet implemented).
func (l *lowerer) lowerAssign(d *ast.ExprBinaryData, expr *ast.Expr) ir.ValueID {
	ident, ok := l.b.Exprs.Ident(d.Left)
	if !ok {
		l.errorf(diag.LowUnsupportedConstruct, expr.Span, "assignment target must be a local name")
		return l.nullValue(d.Left)
	}
	rv := l.lowerExpr(d.Right)
	if d.Op != ast.ExprBinaryAssign {
		cur, _ := l.lookup(ident.Name)
		kind, _, _ := binaryInstr(compoundBase(d.Op), l.isFloatExpr(d.Left))
		dst := l.fn.NewValue(l.fn.ValueType(cur))
		rv = l.emit(ir.Instr{Kind: kind, Dst: dst, Type: l.fn.ValueType(cur), Args: []ir.ValueID{cur, rv}})
	}
	l.assignOrBind(ident.Name, rv)
	return rv
}

func compoundBase(op ast.ExprBinaryOp) ast.ExprBinaryOp {
	switch op {
	case ast.ExprBinaryAddAssign:
		return ast.ExprBinaryAdd
	case ast.ExprBinarySubAssign:
		return ast.ExprBinarySub
	case ast.ExprBinaryMulAssign:
		return ast.ExprBinaryMul
	case ast.ExprBinaryDivAssign:
		return ast.ExprBinaryDiv
	case ast.ExprBinaryModAssign:
		return ast.ExprBinaryMod
	case ast.ExprBinaryBitAndAssign:
		return ast.ExprBinaryBitAnd
	case ast.ExprBinaryBitOrAssign:
		return ast.ExprBinaryBitOr
	case ast.ExprBinaryBitXorAssign:
		return ast.ExprBinaryBitXor
	case ast.ExprBinaryShlAssign:
		return ast.ExprBinaryShiftLeft
	case ast.ExprBinaryShrAssign:
		return ast.ExprBinaryShiftRight
	default:
		return ast.ExprBinaryAdd
	}
}

// lowerShortCircuit lowers && / || as a diamond CFG with a join phi, so the
// right-hand side is only evaluated when it can affect the result.
func (l *lowerer) lowerShortCircuit(d *ast.ExprBinaryData, expr *ast.Expr, isAnd bool) ir.ValueID {
	lv := l.lowerExpr(d.Left)
	rhsBB := l.newBlock("logic.rhs")
	joinBB := l.newBlock("logic.join")
	shortExit := l.cur

	if isAnd {
		l.branch(lv, rhsBB, joinBB)
	} else {
		l.branch(lv, joinBB, rhsBB)
	}

	l.seal(rhsBB)
	rv := l.lowerExpr(d.Right)
	rhsExit := l.cur
	l.jump(joinBB)

	l.seal(joinBB)
	bi := l.mod.Types.Builtins()
	dst := l.fn.NewValue(bi.Bool)
	l.block().Phis = append(l.block().Phis, ir.Phi{
		Dst:  dst,
		Type: bi.Bool,
		Incoming: []ir.PhiArg{
			{Block: shortExit, Value: lv},
			{Block: rhsExit, Value: rv},
		},
	})
	return dst
}

func (l *lowerer) lowerUnary(id ast.ExprID, expr *ast.Expr) ir.ValueID {
	d, _ := l.b.Exprs.Unary(id)
	v := l.lowerExpr(d.Operand)
	resultType := l.exprType(id)
	switch d.Op {
	case ast.ExprUnaryMinus:
		kind := ir.InstrINeg
		if l.isFloatExpr(d.Operand) {
			kind = ir.InstrFNeg
		}
		dst := l.fn.NewValue(resultType)
		return l.emit(ir.Instr{Kind: kind, Dst: dst, Type: resultType, Args: []ir.ValueID{v}})
	case ast.ExprUnaryNot:
		dst := l.fn.NewValue(l.mod.Types.Builtins().Bool)
		return l.emit(ir.Instr{Kind: ir.InstrLogNot, Dst: dst, Type: l.mod.Types.Builtins().Bool, Args: []ir.ValueID{v}})
	case ast.ExprUnaryPlus:
		return v
	default:
		l.errorf(diag.LowUnsupportedConstruct, expr.Span, "unsupported unary operator")
		return v
	}
}

func (l *lowerer) lowerCall(id ast.ExprID, expr *ast.Expr) ir.ValueID {
	d, _ := l.b.Exprs.Call(id)
	callee, ok := l.b.Exprs.Ident(d.Target)
	if !ok {
		l.errorf(diag.LowUnsupportedConstruct, expr.Span, "indirect calls are not yet lowered")
		return l.nullValue(id)
	}
	name, _ := l.b.StringsInterner.Lookup(callee.Name)

	args := make([]ir.ValueID, 0, len(d.Args))
	for _, a := range d.Args {
		args = append(args, l.lowerExpr(a.Value))
	}
	resultType := l.exprType(id)
	dst := l.fn.NewValue(resultType)
	return l.emit(ir.Instr{Kind: ir.InstrCall, Dst: dst, Type: resultType, Args: args, Callee: name})
}

// lowerTernary lowers `cond ? a : b` with the same diamond+phi shape as if/else.
func (l *lowerer) lowerTernary(id ast.ExprID, expr *ast.Expr) ir.ValueID {
	d, _ := l.b.Exprs.Ternary(id)
	condV := l.lowerExpr(d.Cond)
	thenBB := l.newBlock("ternary.then")
	elseBB := l.newBlock("ternary.else")
	joinBB := l.newBlock("ternary.join")
	l.branch(condV, thenBB, elseBB)

	l.seal(thenBB)
	tv := l.lowerExpr(d.TrueExpr)
	thenExit := l.cur
	l.jump(joinBB)

	l.seal(elseBB)
	ev := l.lowerExpr(d.FalseExpr)
	elseExit := l.cur
	l.jump(joinBB)

	l.seal(joinBB)
	resultType := l.exprType(id)
	dst := l.fn.NewValue(resultType)
	l.block().Phis = append(l.block().Phis, ir.Phi{
		Dst:  dst,
		Type: resultType,
		Incoming: []ir.PhiArg{
			{Block: thenExit, Value: tv},
			{Block: elseExit, Value: ev},
		},
	})
	return dst
}

// lowerBlockExpr lowers a block expression `{ stmts...; lastExpr }`; the
// type checker guarantees the final statement is either a return or an
// expression statement supplying the block's value.
func (l *lowerer) lowerBlockExpr(id ast.ExprID, expr *ast.Expr) ir.ValueID {
	d, _ := l.b.Exprs.Block(id)
	l.pushScope()
	defer l.popScope()

	var last ir.ValueID = ir.NoValueID
	for i, s := range d.Stmts {
		if l.block().Terminated() {
			break
		}
		stmt := l.b.Stmts.Get(s)
		if i == len(d.Stmts)-1 && stmt != nil && stmt.Kind == ast.StmtExpr {
			last = l.lowerExpr(l.b.Stmts.Expr(s).Expr)
			continue
		}
		l.lowerStmt(s)
	}
	if !last.IsValid() {
		return l.nullValue(id)
	}
	return last
}

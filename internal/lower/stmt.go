package lower

import (
	"corec/internal/ast"
	"corec/internal/diag"
	"corec/internal/ir"
	"corec/internal/types"
)

// lowerStmt lowers one statement into the current block, advancing the
// cursor across any control-flow it introduces. Callers must check
// l.block().Terminated() before emitting further instructions into a block
// that has already returned, broken, or continued.
func (l *lowerer) lowerStmt(id ast.StmtID) {
	stmt := l.b.Stmts.Get(id)
	if stmt == nil {
		return
	}
	switch stmt.Kind {
	case ast.StmtBlock:
		l.lowerBlock(l.b.Stmts.Block(id))
	case ast.StmtLet:
		l.lowerLet(l.b.Stmts.Let(id))
	case ast.StmtConst:
		l.lowerConst(l.b.Stmts.Const(id))
	case ast.StmtReturn:
		l.lowerReturn(l.b.Stmts.Return(id))
	case ast.StmtBreak:
		l.lowerBreak()
	case ast.StmtContinue:
		l.lowerContinue()
	case ast.StmtExpr:
		data := l.b.Stmts.Expr(id)
		l.lowerExpr(data.Expr)
	case ast.StmtIf:
		l.lowerIf(l.b.Stmts.If(id))
	case ast.StmtWhile:
		l.lowerWhile(l.b.Stmts.While(id))
	case ast.StmtForClassic:
		l.lowerForClassic(l.b.Stmts.ForClassic(id))
	case ast.StmtForIn:
		l.errorf(diag.LowUnsupportedConstruct, stmt.Span, "for-in loops are not yet lowered")
	case ast.StmtSignal:
		l.errorf(diag.LowUnsupportedConstruct, stmt.Span, "signal declarations are not yet lowered")
	case ast.StmtDrop:
		data := l.b.Stmts.Drop(id)
		l.lowerExpr(data.Expr)
	default:
		l.errorf(diag.LowUnsupportedConstruct, stmt.Span, "unsupported statement kind")
	}
}

func (l *lowerer) lowerBlock(data *ast.StmtBlockData) {
	if data == nil {
		return
	}
	l.pushScope()
	defer l.popScope()
	for _, s := range data.Stmts {
		if l.block().Terminated() {
			return
		}
		l.lowerStmt(s)
	}
}

func (l *lowerer) lowerLet(data *ast.StmtLetData) {
	if data == nil {
		return
	}
	var v ir.ValueID
	if data.Value.IsValid() {
		v = l.lowerExpr(data.Value)
	} else {
		v = l.emit(ir.Instr{Kind: ir.InstrNullConst, Dst: l.fn.NewValue(l.exprTypeOrUnit(data.Type))})
	}
	l.bind(data.Name, v)
}

func (l *lowerer) lowerConst(data *ast.StmtConstData) {
	if data == nil {
		return
	}
	v := l.lowerExpr(data.Value)
	l.bind(data.Name, v)
}

func (l *lowerer) lowerReturn(data *ast.StmtReturnData) {
	if data == nil {
		return
	}
	term := ir.Terminator{Kind: ir.TermReturn}
	if data.Expr.IsValid() {
		v := l.lowerExpr(data.Expr)
		term.Return = ir.ReturnTerm{HasValue: true, Value: v}
	}
	l.block().Term = term
}

func (l *lowerer) lowerBreak() {
	if len(l.loops) == 0 {
		return
	}
	target := l.loops[len(l.loops)-1].breakTarget
	l.jump(target)
}

func (l *lowerer) lowerContinue() {
	if len(l.loops) == 0 {
		return
	}
	target := l.loops[len(l.loops)-1].continueTarget
	l.jump(target)
}

// exprTypeOrUnit maps an ast.TypeID annotation to a types.TypeID; the
// surface-type resolution table lives in sema and is not yet threaded
// through lowering, so an absent annotation defaults to unit.
func (l *lowerer) exprTypeOrUnit(t ast.TypeID) types.TypeID {
	return l.mod.Types.Builtins().Unit
}

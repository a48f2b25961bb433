package lower

import (
	"corec/internal/ast"
	"corec/internal/source"
)

// collectAssignedStmt walks stmt and returns every local name a bare or
// compound assignment targets, used to pre-declare while/for header phis
// before the loop body is lowered.
func collectAssignedStmt(b *ast.Builder, id ast.StmtID) map[source.StringID]struct{} {
	out := make(map[source.StringID]struct{})
	walkStmtAssigned(b, id, out)
	return out
}

func collectAssignedExpr(b *ast.Builder, id ast.ExprID) map[source.StringID]struct{} {
	out := make(map[source.StringID]struct{})
	walkExprAssigned(b, id, out)
	return out
}

func walkStmtAssigned(b *ast.Builder, id ast.StmtID, out map[source.StringID]struct{}) {
	stmt := b.Stmts.Get(id)
	if stmt == nil {
		return
	}
	switch stmt.Kind {
	case ast.StmtBlock:
		for _, s := range b.Stmts.Block(id).Stmts {
			walkStmtAssigned(b, s, out)
		}
	case ast.StmtLet:
		d := b.Stmts.Let(id)
		walkExprAssigned(b, d.Value, out)
	case ast.StmtConst:
		d := b.Stmts.Const(id)
		walkExprAssigned(b, d.Value, out)
	case ast.StmtReturn:
		d := b.Stmts.Return(id)
		walkExprAssigned(b, d.Expr, out)
	case ast.StmtExpr:
		d := b.Stmts.Expr(id)
		walkExprAssigned(b, d.Expr, out)
	case ast.StmtIf:
		d := b.Stmts.If(id)
		walkExprAssigned(b, d.Cond, out)
		walkStmtAssigned(b, d.Then, out)
		walkStmtAssigned(b, d.Else, out)
	case ast.StmtWhile:
		d := b.Stmts.While(id)
		walkExprAssigned(b, d.Cond, out)
		walkStmtAssigned(b, d.Body, out)
	case ast.StmtForClassic:
		d := b.Stmts.ForClassic(id)
		walkStmtAssigned(b, d.Init, out)
		walkExprAssigned(b, d.Cond, out)
		walkExprAssigned(b, d.Post, out)
		walkStmtAssigned(b, d.Body, out)
	case ast.StmtForIn:
		d := b.Stmts.ForIn(id)
		walkExprAssigned(b, d.Iterable, out)
		walkStmtAssigned(b, d.Body, out)
	case ast.StmtDrop:
		d := b.Stmts.Drop(id)
		walkExprAssigned(b, d.Expr, out)
	}
}

func walkExprAssigned(b *ast.Builder, id ast.ExprID, out map[source.StringID]struct{}) {
	if !id.IsValid() {
		return
	}
	expr := b.Exprs.Get(id)
	if expr == nil {
		return
	}
	switch expr.Kind {
	case ast.ExprBinary:
		d, _ := b.Exprs.Binary(id)
		if isAssignOp(d.Op) {
			if target, ok := b.Exprs.Ident(d.Left); ok {
				out[target.Name] = struct{}{}
			}
		}
		walkExprAssigned(b, d.Left, out)
		walkExprAssigned(b, d.Right, out)
	case ast.ExprUnary:
		d, _ := b.Exprs.Unary(id)
		walkExprAssigned(b, d.Operand, out)
	case ast.ExprCall:
		d, _ := b.Exprs.Call(id)
		walkExprAssigned(b, d.Target, out)
		for _, a := range d.Args {
			walkExprAssigned(b, a.Value, out)
		}
	case ast.ExprGroup:
		d, _ := b.Exprs.Group(id)
		walkExprAssigned(b, d.Inner, out)
	case ast.ExprTernary:
		d, _ := b.Exprs.Ternary(id)
		walkExprAssigned(b, d.Cond, out)
		walkExprAssigned(b, d.TrueExpr, out)
		walkExprAssigned(b, d.FalseExpr, out)
	case ast.ExprIndex:
		d, _ := b.Exprs.Index(id)
		walkExprAssigned(b, d.Target, out)
		walkExprAssigned(b, d.Index, out)
	case ast.ExprMember:
		d, _ := b.Exprs.Member(id)
		walkExprAssigned(b, d.Target, out)
	case ast.ExprBlock:
		d, _ := b.Exprs.Block(id)
		for _, s := range d.Stmts {
			walkStmtAssigned(b, s, out)
		}
	}
}

func isAssignOp(op ast.ExprBinaryOp) bool {
	switch op {
	case ast.ExprBinaryAssign, ast.ExprBinaryAddAssign, ast.ExprBinarySubAssign,
		ast.ExprBinaryMulAssign, ast.ExprBinaryDivAssign, ast.ExprBinaryModAssign,
		ast.ExprBinaryBitAndAssign, ast.ExprBinaryBitOrAssign, ast.ExprBinaryBitXorAssign,
		ast.ExprBinaryShlAssign, ast.ExprBinaryShrAssign:
		return true
	default:
		return false
	}
}

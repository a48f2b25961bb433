package lower_test

import (
	"testing"

	"corec/internal/ast"
	"corec/internal/diag"
	"corec/internal/ir"
	"corec/internal/lower"
	"corec/internal/sema"
	"corec/internal/source"
	"corec/internal/types"
)

func newFile(b *ast.Builder) ast.FileID {
	return b.Files.New(source.Span{})
}

func addFn(b *ast.Builder, file ast.FileID, name string, body ast.StmtID) {
	fnName := b.StringsInterner.Intern(name)
	item := b.Items.NewFn(fnName, ast.NoTypeID, body, source.Span{})
	b.PushItem(file, item)
}

func newModule(b *ast.Builder) *ir.Module {
	return ir.NewModule(b.StringsInterner, types.NewInterner())
}

func intLit(b *ast.Builder, v string) ast.ExprID {
	return b.Exprs.NewLiteral(source.Span{}, ast.ExprLitInt, b.StringsInterner.Intern(v))
}

func ident(b *ast.Builder, name string) ast.ExprID {
	return b.Exprs.NewIdent(source.Span{}, b.StringsInterner.Intern(name))
}

func TestLowerReturnArithmetic(t *testing.T) {
	b := ast.NewBuilder(ast.Hints{}, nil)
	file := newFile(b)

	sum := b.Exprs.NewBinary(source.Span{}, ast.ExprBinaryAdd, intLit(b, "1"), intLit(b, "2"))
	body := b.Stmts.NewBlock(source.Span{}, []ast.StmtID{
		b.Stmts.NewReturn(source.Span{}, sum),
	})
	addFn(b, file, "add", body)

	mod := newModule(b)
	if err := lower.LowerFile(b, file, &sema.Result{}, mod, &diag.BagReporter{Bag: diag.NewBag(10)}); err != nil {
		t.Fatalf("LowerFile: %v", err)
	}

	fn, ok := mod.Lookup("add")
	if !ok {
		t.Fatalf("expected function %q in module", "add")
	}
	if err := ir.Validate(mod); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	entry := fn.Block(fn.Entry)
	if entry == nil {
		t.Fatalf("missing entry block")
	}
	if entry.Term.Kind != ir.TermReturn || !entry.Term.Return.HasValue {
		t.Fatalf("expected a value-returning terminator, got %+v", entry.Term)
	}

	var sawAdd bool
	for _, instr := range entry.Instrs {
		if instr.Kind == ir.InstrIAdd {
			sawAdd = true
		}
	}
	if !sawAdd {
		t.Fatalf("expected an iadd instruction, got %+v", entry.Instrs)
	}
}

func TestLowerIfElseInsertsJoinPhi(t *testing.T) {
	b := ast.NewBuilder(ast.Hints{}, nil)
	file := newFile(b)

	letX := b.Stmts.NewLet(source.Span{}, b.StringsInterner.Intern("x"), ast.NoTypeID, intLit(b, "0"), true)
	thenBranch := b.Stmts.NewBlock(source.Span{}, []ast.StmtID{
		b.Stmts.NewExpr(source.Span{}, b.Exprs.NewBinary(source.Span{}, ast.ExprBinaryAssign, ident(b, "x"), intLit(b, "1"))),
	})
	elseBranch := b.Stmts.NewBlock(source.Span{}, []ast.StmtID{
		b.Stmts.NewExpr(source.Span{}, b.Exprs.NewBinary(source.Span{}, ast.ExprBinaryAssign, ident(b, "x"), intLit(b, "2"))),
	})
	ifStmt := b.Stmts.NewIf(source.Span{}, intLit(b, "1"), thenBranch, elseBranch)
	body := b.Stmts.NewBlock(source.Span{}, []ast.StmtID{
		letX,
		ifStmt,
		b.Stmts.NewReturn(source.Span{}, ident(b, "x")),
	})
	addFn(b, file, "pick", body)

	mod := newModule(b)
	if err := lower.LowerFile(b, file, &sema.Result{}, mod, &diag.BagReporter{Bag: diag.NewBag(10)}); err != nil {
		t.Fatalf("LowerFile: %v", err)
	}
	if err := ir.Validate(mod); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	fn, ok := mod.Lookup("pick")
	if !ok {
		t.Fatalf("missing function")
	}

	var sawPhi bool
	for _, blk := range fn.Blocks {
		if len(blk.Phis) > 0 {
			sawPhi = true
		}
	}
	if !sawPhi {
		t.Fatalf("expected a join phi for the reassigned variable")
	}
}

func TestLowerWhileHeaderPhi(t *testing.T) {
	b := ast.NewBuilder(ast.Hints{}, nil)
	file := newFile(b)

	letI := b.Stmts.NewLet(source.Span{}, b.StringsInterner.Intern("i"), ast.NoTypeID, intLit(b, "0"), true)
	incr := b.Stmts.NewExpr(source.Span{}, b.Exprs.NewBinary(source.Span{}, ast.ExprBinaryAssign, ident(b, "i"),
		b.Exprs.NewBinary(source.Span{}, ast.ExprBinaryAdd, ident(b, "i"), intLit(b, "1"))))
	loopBody := b.Stmts.NewBlock(source.Span{}, []ast.StmtID{incr})
	whileStmt := b.Stmts.NewWhile(source.Span{}, intLit(b, "1"), loopBody)
	body := b.Stmts.NewBlock(source.Span{}, []ast.StmtID{
		letI,
		whileStmt,
		b.Stmts.NewReturn(source.Span{}, ident(b, "i")),
	})
	addFn(b, file, "count", body)

	mod := newModule(b)
	if err := lower.LowerFile(b, file, &sema.Result{}, mod, &diag.BagReporter{Bag: diag.NewBag(10)}); err != nil {
		t.Fatalf("LowerFile: %v", err)
	}
	if err := ir.Validate(mod); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	fn, ok := mod.Lookup("count")
	if !ok {
		t.Fatalf("missing function")
	}
	var sawHeaderPhi bool
	for _, blk := range fn.Blocks {
		if len(blk.Preds) >= 2 && len(blk.Phis) > 0 {
			sawHeaderPhi = true
		}
	}
	if !sawHeaderPhi {
		t.Fatalf("expected a loop header phi for the reassigned induction variable")
	}
}

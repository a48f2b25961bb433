// Package lower translates a checked AST into the SSA IR consumed by the
// bytecode emitter.
package lower

import (
	"corec/internal/ast"
	"corec/internal/diag"
	"corec/internal/ir"
	"corec/internal/sema"
	"corec/internal/source"
	"corec/internal/types"
)

// loopCtx tracks the jump targets break/continue resolve to.
type loopCtx struct {
	breakTarget    ir.BlockID
	continueTarget ir.BlockID
}

// lowerer holds the state threaded through one function's lowering: the
// current block cursor, the scope stack of source-name to SSA-value
// bindings, and the loop stack break/continue resolve against.
type lowerer struct {
	b    *ast.Builder
	sema *sema.Result
	mod  *ir.Module
	rep  diag.Reporter

	fn  *ir.Func
	cur ir.BlockID

	scopes []map[source.StringID]ir.ValueID
	loops  []loopCtx
}

func newLowerer(b *ast.Builder, semaRes *sema.Result, mod *ir.Module, rep diag.Reporter) *lowerer {
	return &lowerer{b: b, sema: semaRes, mod: mod, rep: rep}
}

func (l *lowerer) pushScope() {
	l.scopes = append(l.scopes, make(map[source.StringID]ir.ValueID))
}

func (l *lowerer) popScope() {
	l.scopes = l.scopes[:len(l.scopes)-1]
}

// bind records name as resolving to v in the innermost scope.
func (l *lowerer) bind(name source.StringID, v ir.ValueID) {
	l.scopes[len(l.scopes)-1][name] = v
}

// lookup searches the scope stack innermost-first.
func (l *lowerer) lookup(name source.StringID) (ir.ValueID, bool) {
	for i := len(l.scopes) - 1; i >= 0; i-- {
		if v, ok := l.scopes[i][name]; ok {
			return v, true
		}
	}
	return ir.NoValueID, false
}

// block returns the block the cursor currently points at.
func (l *lowerer) block() *ir.Block {
	return l.fn.Block(l.cur)
}

// emit appends instr to the current block and returns its destination, if any.
func (l *lowerer) emit(instr ir.Instr) ir.ValueID {
	l.block().Instrs = append(l.block().Instrs, instr)
	return instr.Dst
}

// newBlock allocates a fresh block in the current function.
func (l *lowerer) newBlock(label string) ir.BlockID {
	return l.fn.NewBlock(label)
}

// seal switches the lowering cursor to b, which must be unterminated.
func (l *lowerer) seal(b ir.BlockID) {
	l.cur = b
}

// jump terminates the current block with an unconditional jump to target,
// recording target's new predecessor, unless the block is already terminated
// (e.g. a `return` already closed it).
func (l *lowerer) jump(target ir.BlockID) {
	cur := l.block()
	if cur.Terminated() {
		return
	}
	cur.Term = ir.Terminator{Kind: ir.TermJump, Jump: ir.JumpTerm{Target: target}}
	l.fn.Block(target).AddPred(l.cur)
}

// branch terminates the current block with a conditional branch.
func (l *lowerer) branch(cond ir.ValueID, then, els ir.BlockID) {
	cur := l.block()
	if cur.Terminated() {
		return
	}
	cur.Term = ir.Terminator{Kind: ir.TermBrIf, BrIf: ir.BrIfTerm{Cond: cond, Then: then, Else: els}}
	l.fn.Block(then).AddPred(l.cur)
	l.fn.Block(els).AddPred(l.cur)
}

func (l *lowerer) exprType(id ast.ExprID) types.TypeID {
	if l.sema == nil || l.sema.ExprTypes == nil {
		return l.mod.Types.Builtins().Int
	}
	if t, ok := l.sema.ExprTypes[id]; ok {
		return t
	}
	return l.mod.Types.Builtins().Int
}

func (l *lowerer) errorf(code diag.Code, sp source.Span, msg string) {
	diag.ReportError(l.rep, code, sp, msg).Emit()
}

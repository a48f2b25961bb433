package lower

import (
	"corec/internal/ast"
	"corec/internal/ir"
	"corec/internal/source"
)

// flatten collects the visible bindings across the whole scope stack,
// innermost shadowing outer, as a single name->value view for comparing
// branch exits when deciding whether a join phi is needed.
func (l *lowerer) flatten() map[source.StringID]ir.ValueID {
	out := make(map[source.StringID]ir.ValueID)
	for _, m := range l.scopes {
		for k, v := range m {
			out[k] = v
		}
	}
	return out
}

// assignOrBind updates name wherever it is already bound in the scope
// stack, or introduces it in the innermost scope if it is genuinely new.
func (l *lowerer) assignOrBind(name source.StringID, v ir.ValueID) {
	for i := len(l.scopes) - 1; i >= 0; i-- {
		if _, ok := l.scopes[i][name]; ok {
			l.scopes[i][name] = v
			return
		}
	}
	l.bind(name, v)
}

// lowerIf builds the then/else/join diamond directly: each branch lowers
// against a snapshot of the pre-branch bindings, and a join phi is inserted
// only for names whose value actually diverges between the two exits
// (matching the source language's reducible, structured control flow).
func (l *lowerer) lowerIf(data *ast.StmtIfData) {
	if data == nil {
		return
	}
	condV := l.lowerExpr(data.Cond)
	thenBB := l.newBlock("if.then")
	elseBB := l.newBlock("if.else")
	l.branch(condV, thenBB, elseBB)

	before := l.flatten()

	l.seal(thenBB)
	l.lowerStmt(data.Then)
	thenExit := l.cur
	thenTerm := l.block().Terminated()
	thenBindings := l.flatten()
	for n, v := range before {
		l.assignOrBind(n, v)
	}

	l.seal(elseBB)
	if data.Else.IsValid() {
		l.lowerStmt(data.Else)
	}
	elseExit := l.cur
	elseTerm := l.block().Terminated()
	elseBindings := l.flatten()

	if thenTerm && elseTerm {
		return
	}

	joinBB := l.newBlock("if.join")
	if !thenTerm {
		l.seal(thenExit)
		l.jump(joinBB)
	}
	if !elseTerm {
		l.seal(elseExit)
		l.jump(joinBB)
	}
	l.seal(joinBB)

	names := make(map[source.StringID]struct{})
	for n := range before {
		names[n] = struct{}{}
	}
	for n := range thenBindings {
		names[n] = struct{}{}
	}
	for n := range elseBindings {
		names[n] = struct{}{}
	}

	for n := range names {
		tv, tok := thenBindings[n]
		if !tok {
			tv = before[n]
		}
		ev, eok := elseBindings[n]
		if !eok {
			ev = before[n]
		}
		switch {
		case thenTerm:
			l.assignOrBind(n, ev)
		case elseTerm:
			l.assignOrBind(n, tv)
		case tv == ev:
			l.assignOrBind(n, tv)
		default:
			typ := l.fn.ValueType(tv)
			phiDst := l.fn.NewValue(typ)
			l.block().Phis = append(l.block().Phis, ir.Phi{
				Dst:  phiDst,
				Type: typ,
				Incoming: []ir.PhiArg{
					{Block: thenExit, Value: tv},
					{Block: elseExit, Value: ev},
				},
			})
			l.assignOrBind(n, phiDst)
		}
	}
}

// lowerWhile lowers a while loop using a header block whose phis are
// pre-declared as placeholders for every outer name the body reassigns,
// then patched with the back-edge value once the body has been lowered.
func (l *lowerer) lowerWhile(data *ast.StmtWhileData) {
	if data == nil {
		return
	}
	preheader := l.flatten()
	reassigned := collectAssignedStmt(l.b, data.Body)

	headerBB := l.newBlock("while.header")
	l.jump(headerBB)
	l.seal(headerBB)

	placeholders := make(map[source.StringID]ir.ValueID, len(reassigned))
	entryPred := l.findPred(headerBB)

	for n := range reassigned {
		v, ok := preheader[n]
		if !ok {
			continue
		}
		typ := l.fn.ValueType(v)
		phiDst := l.fn.NewValue(typ)
		l.block().Phis = append(l.block().Phis, ir.Phi{
			Dst:  phiDst,
			Type: typ,
			Incoming: []ir.PhiArg{
				{Block: entryPred, Value: v},
			},
		})
		placeholders[n] = phiDst
		l.assignOrBind(n, phiDst)
	}

	condV := l.lowerExpr(data.Cond)
	bodyBB := l.newBlock("while.body")
	exitBB := l.newBlock("while.exit")
	l.branch(condV, bodyBB, exitBB)

	l.loops = append(l.loops, loopCtx{breakTarget: exitBB, continueTarget: headerBB})
	l.seal(bodyBB)
	l.lowerStmt(data.Body)
	bodyExit := l.cur
	bodyTerm := l.block().Terminated()
	l.loops = l.loops[:len(l.loops)-1]

	if !bodyTerm {
		afterBody := l.flatten()
		l.seal(bodyExit)
		headerBlock := l.fn.Block(headerBB)
		for i := range headerBlock.Phis {
			phi := &headerBlock.Phis[i]
			for n, ph := range placeholders {
				if ph != phi.Dst {
					continue
				}
				v, ok := afterBody[n]
				if !ok {
					v = ph
				}
				phi.Incoming = append(phi.Incoming, ir.PhiArg{Block: bodyExit, Value: v})
			}
		}
		l.jump(headerBB)
	}

	l.seal(exitBB)
	for n, ph := range placeholders {
		l.assignOrBind(n, ph)
	}
}

// findPred returns the first (and, before the loop body is lowered, only)
// predecessor recorded for target.
func (l *lowerer) findPred(target ir.BlockID) ir.BlockID {
	preds := l.fn.Block(target).Preds
	if len(preds) == 0 {
		return ir.NoBlockID
	}
	return preds[0]
}

// lowerForClassic desugars `for init; cond; post { body }` into the
// equivalent while loop shape: init runs once, cond gates the header, and
// post runs at the end of every iteration before the back-edge.
func (l *lowerer) lowerForClassic(data *ast.StmtForClassicData) {
	if data == nil {
		return
	}
	l.pushScope()
	defer l.popScope()

	if data.Init.IsValid() {
		l.lowerStmt(data.Init)
	}

	preheader := l.flatten()
	reassigned := collectAssignedStmt(l.b, data.Body)
	if data.Post.IsValid() {
		for n := range collectAssignedExpr(l.b, data.Post) {
			reassigned[n] = struct{}{}
		}
	}

	headerBB := l.newBlock("for.header")
	l.jump(headerBB)
	l.seal(headerBB)
	entryPred := l.findPred(headerBB)

	placeholders := make(map[source.StringID]ir.ValueID, len(reassigned))
	for n := range reassigned {
		v, ok := preheader[n]
		if !ok {
			continue
		}
		typ := l.fn.ValueType(v)
		phiDst := l.fn.NewValue(typ)
		l.block().Phis = append(l.block().Phis, ir.Phi{
			Dst:      phiDst,
			Type:     typ,
			Incoming: []ir.PhiArg{{Block: entryPred, Value: v}},
		})
		placeholders[n] = phiDst
		l.assignOrBind(n, phiDst)
	}

	bodyBB := l.newBlock("for.body")
	exitBB := l.newBlock("for.exit")
	if data.Cond.IsValid() {
		condV := l.lowerExpr(data.Cond)
		l.branch(condV, bodyBB, exitBB)
	} else {
		l.jump(bodyBB)
	}

	contBB := l.newBlock("for.post")
	l.loops = append(l.loops, loopCtx{breakTarget: exitBB, continueTarget: contBB})
	l.seal(bodyBB)
	l.lowerStmt(data.Body)
	bodyTerm := l.block().Terminated()
	if !bodyTerm {
		l.jump(contBB)
	}
	l.loops = l.loops[:len(l.loops)-1]

	l.seal(contBB)
	if data.Post.IsValid() {
		l.lowerExpr(data.Post)
	}
	postExit := l.cur
	postTerm := l.block().Terminated()
	if !postTerm {
		afterPost := l.flatten()
		headerBlock := l.fn.Block(headerBB)
		for i := range headerBlock.Phis {
			phi := &headerBlock.Phis[i]
			for n, ph := range placeholders {
				if ph != phi.Dst {
					continue
				}
				v, ok := afterPost[n]
				if !ok {
					v = ph
				}
				phi.Incoming = append(phi.Incoming, ir.PhiArg{Block: postExit, Value: v})
			}
		}
		l.jump(headerBB)
	}

	l.seal(exitBB)
	for n, ph := range placeholders {
		l.assignOrBind(n, ph)
	}
}

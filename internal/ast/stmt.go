package ast

import (
	"corec/internal/source"
)

// Stmts manages allocation of statements, one payload arena per StmtKind
// that carries extra data.
type Stmts struct {
	Arena       *Arena[Stmt]
	Blocks      *Arena[StmtBlockData]
	Lets        *Arena[StmtLetData]
	Consts      *Arena[StmtConstData]
	Returns     *Arena[StmtReturnData]
	Exprs       *Arena[StmtExprData]
	Ifs         *Arena[StmtIfData]
	Whiles      *Arena[StmtWhileData]
	ForClassics *Arena[StmtForClassicData]
	ForIns      *Arena[StmtForInData]
	Signals     *Arena[StmtSignalData]
	Drops       *Arena[StmtDropData]
}

// NewStmts creates a new Stmts with per-kind arenas preallocated using
// capHint as the initial capacity. If capHint is 0, a default capacity of
// 1<<8 is used.
func NewStmts(capHint uint) *Stmts {
	if capHint == 0 {
		capHint = 1 << 8
	}
	return &Stmts{
		Arena:       NewArena[Stmt](capHint),
		Blocks:      NewArena[StmtBlockData](capHint),
		Lets:        NewArena[StmtLetData](capHint),
		Consts:      NewArena[StmtConstData](capHint),
		Returns:     NewArena[StmtReturnData](capHint),
		Exprs:       NewArena[StmtExprData](capHint),
		Ifs:         NewArena[StmtIfData](capHint),
		Whiles:      NewArena[StmtWhileData](capHint),
		ForClassics: NewArena[StmtForClassicData](capHint),
		ForIns:      NewArena[StmtForInData](capHint),
		Signals:     NewArena[StmtSignalData](capHint),
		Drops:       NewArena[StmtDropData](capHint),
	}
}

func (s *Stmts) new(kind StmtKind, span source.Span, payload PayloadID) StmtID {
	return StmtID(s.Arena.Allocate(Stmt{
		Kind:    kind,
		Span:    span,
		Payload: payload,
	}))
}

// New allocates a bare statement node with no payload (StmtBreak/StmtContinue).
func (s *Stmts) New(kind StmtKind, span source.Span) StmtID {
	return s.new(kind, span, NoPayloadID)
}

// Get returns the statement with the given ID.
func (s *Stmts) Get(id StmtID) *Stmt {
	return s.Arena.Get(uint32(id))
}

// NewBlock creates a block statement from an ordered list of statement IDs.
func (s *Stmts) NewBlock(span source.Span, stmts []StmtID) StmtID {
	payload := s.Blocks.Allocate(StmtBlockData{Stmts: stmts, Span: span})
	return s.new(StmtBlock, span, PayloadID(payload))
}

// Block returns the block payload for id, or nil if id is not a block statement.
func (s *Stmts) Block(id StmtID) *StmtBlockData {
	stmt := s.Arena.Get(uint32(id))
	if stmt == nil || stmt.Kind != StmtBlock {
		return nil
	}
	return s.Blocks.Get(uint32(stmt.Payload))
}

// NewLet creates a local let-binding statement.
func (s *Stmts) NewLet(span source.Span, name source.StringID, typeID TypeID, value ExprID, isMut bool) StmtID {
	payload := s.Lets.Allocate(StmtLetData{Name: name, Type: typeID, Value: value, IsMut: isMut, Span: span})
	return s.new(StmtLet, span, PayloadID(payload))
}

// Let returns the let payload for id, or nil if id is not a let statement.
func (s *Stmts) Let(id StmtID) *StmtLetData {
	stmt := s.Arena.Get(uint32(id))
	if stmt == nil || stmt.Kind != StmtLet {
		return nil
	}
	return s.Lets.Get(uint32(stmt.Payload))
}

// NewConst creates a local const-binding statement.
func (s *Stmts) NewConst(span source.Span, name source.StringID, typeID TypeID, value ExprID) StmtID {
	payload := s.Consts.Allocate(StmtConstData{Name: name, Type: typeID, Value: value, Span: span})
	return s.new(StmtConst, span, PayloadID(payload))
}

// Const returns the const payload for id, or nil if id is not a const statement.
func (s *Stmts) Const(id StmtID) *StmtConstData {
	stmt := s.Arena.Get(uint32(id))
	if stmt == nil || stmt.Kind != StmtConst {
		return nil
	}
	return s.Consts.Get(uint32(stmt.Payload))
}

// NewReturn creates a return statement; expr is NoExprID for a bare `return;`.
func (s *Stmts) NewReturn(span source.Span, expr ExprID) StmtID {
	payload := s.Returns.Allocate(StmtReturnData{Expr: expr, Span: span})
	return s.new(StmtReturn, span, PayloadID(payload))
}

// Return returns the return payload for id, or nil if id is not a return statement.
func (s *Stmts) Return(id StmtID) *StmtReturnData {
	stmt := s.Arena.Get(uint32(id))
	if stmt == nil || stmt.Kind != StmtReturn {
		return nil
	}
	return s.Returns.Get(uint32(stmt.Payload))
}

// NewBreak creates a break statement.
func (s *Stmts) NewBreak(span source.Span) StmtID {
	return s.new(StmtBreak, span, NoPayloadID)
}

// NewContinue creates a continue statement.
func (s *Stmts) NewContinue(span source.Span) StmtID {
	return s.new(StmtContinue, span, NoPayloadID)
}

// NewExpr creates an expression statement.
func (s *Stmts) NewExpr(span source.Span, expr ExprID) StmtID {
	payload := s.Exprs.Allocate(StmtExprData{Expr: expr, Span: span})
	return s.new(StmtExpr, span, PayloadID(payload))
}

// Expr returns the expression-statement payload for id, or nil if id is not one.
func (s *Stmts) Expr(id StmtID) *StmtExprData {
	stmt := s.Arena.Get(uint32(id))
	if stmt == nil || stmt.Kind != StmtExpr {
		return nil
	}
	return s.Exprs.Get(uint32(stmt.Payload))
}

// NewIf creates an if/else statement; elseStmt is NoStmtID when there is no else clause.
func (s *Stmts) NewIf(span source.Span, cond ExprID, thenStmt, elseStmt StmtID) StmtID {
	payload := s.Ifs.Allocate(StmtIfData{Cond: cond, Then: thenStmt, Else: elseStmt, Span: span})
	return s.new(StmtIf, span, PayloadID(payload))
}

// If returns the if payload for id, or nil if id is not an if statement.
func (s *Stmts) If(id StmtID) *StmtIfData {
	stmt := s.Arena.Get(uint32(id))
	if stmt == nil || stmt.Kind != StmtIf {
		return nil
	}
	return s.Ifs.Get(uint32(stmt.Payload))
}

// NewWhile creates a while statement.
func (s *Stmts) NewWhile(span source.Span, cond ExprID, body StmtID) StmtID {
	payload := s.Whiles.Allocate(StmtWhileData{Cond: cond, Body: body, Span: span})
	return s.new(StmtWhile, span, PayloadID(payload))
}

// While returns the while payload for id, or nil if id is not a while statement.
func (s *Stmts) While(id StmtID) *StmtWhileData {
	stmt := s.Arena.Get(uint32(id))
	if stmt == nil || stmt.Kind != StmtWhile {
		return nil
	}
	return s.Whiles.Get(uint32(stmt.Payload))
}

// NewForClassic creates a C-style for statement; init/cond/post are
// NoStmtID/NoExprID/NoExprID when the corresponding clause is omitted.
func (s *Stmts) NewForClassic(span source.Span, init StmtID, cond ExprID, post ExprID, body StmtID) StmtID {
	payload := s.ForClassics.Allocate(StmtForClassicData{Init: init, Cond: cond, Post: post, Body: body, Span: span})
	return s.new(StmtForClassic, span, PayloadID(payload))
}

// ForClassic returns the for-classic payload for id, or nil if id is not one.
func (s *Stmts) ForClassic(id StmtID) *StmtForClassicData {
	stmt := s.Arena.Get(uint32(id))
	if stmt == nil || stmt.Kind != StmtForClassic {
		return nil
	}
	return s.ForClassics.Get(uint32(stmt.Payload))
}

// NewForIn creates a for-in statement.
func (s *Stmts) NewForIn(span source.Span, pattern source.StringID, patternSpan source.Span, typeID TypeID, iterable ExprID, body StmtID) StmtID {
	payload := s.ForIns.Allocate(StmtForInData{
		Pattern:     pattern,
		PatternSpan: patternSpan,
		Type:        typeID,
		Iterable:    iterable,
		Body:        body,
		Span:        span,
	})
	return s.new(StmtForIn, span, PayloadID(payload))
}

// ForIn returns the for-in payload for id, or nil if id is not one.
func (s *Stmts) ForIn(id StmtID) *StmtForInData {
	stmt := s.Arena.Get(uint32(id))
	if stmt == nil || stmt.Kind != StmtForIn {
		return nil
	}
	return s.ForIns.Get(uint32(stmt.Payload))
}

// NewSignal creates a signal declaration statement, reserved for future
// reactive-stream support.
func (s *Stmts) NewSignal(span source.Span, name source.StringID, value ExprID) StmtID {
	payload := s.Signals.Allocate(StmtSignalData{Name: name, Value: value, Span: span})
	return s.new(StmtSignal, span, PayloadID(payload))
}

// Signal returns the signal payload for id, or nil if id is not a signal statement.
func (s *Stmts) Signal(id StmtID) *StmtSignalData {
	stmt := s.Arena.Get(uint32(id))
	if stmt == nil || stmt.Kind != StmtSignal {
		return nil
	}
	return s.Signals.Get(uint32(stmt.Payload))
}

// NewDrop creates an `@drop expr;` statement.
func (s *Stmts) NewDrop(span source.Span, expr ExprID) StmtID {
	payload := s.Drops.Allocate(StmtDropData{Expr: expr, Span: span})
	return s.new(StmtDrop, span, PayloadID(payload))
}

// Drop returns the drop payload for id, or nil if id is not a drop statement.
func (s *Stmts) Drop(id StmtID) *StmtDropData {
	stmt := s.Arena.Get(uint32(id))
	if stmt == nil || stmt.Kind != StmtDrop {
		return nil
	}
	return s.Drops.Get(uint32(stmt.Payload))
}

package parser

import (
	"corec/internal/diag"
	_ "corec/internal/lexer"
	"corec/internal/source"
	"corec/internal/token"
)

// advance — съедает следующий токен и обновляет lastSpan
func (p *Parser) advance() token.Token {
	tok := p.lx.Next()
	if tok.Kind != token.EOF && tok.Kind != token.Invalid {
		p.lastSpan = tok.Span
	}
	return tok
}

// getDiagnosticSpan — возвращает лучший span для диагностики
// Если текущий токен EOF или Invalid с нулевой длиной, используем позицию после lastSpan
func (p *Parser) getDiagnosticSpan() source.Span {
	peek := p.lx.Peek()
	// Если peek это EOF или Invalid с нулевой длиной span, используем позицию после lastSpan
	if (peek.Kind == token.EOF || peek.Kind == token.Invalid) && peek.Span.Start == peek.Span.End && peek.Span.Start == 0 {
		if p.lastSpan.End > 0 {
			return source.Span{
				File:  p.lastSpan.File,
				Start: p.lastSpan.End,
				End:   p.lastSpan.End,
			}
		}
	}
	return peek.Span
}

// expect — ожидаем конкретный токен. Если нет — репортим и возвращаем (invalid,false).
// An optional builder callback may attach notes/fix suggestions to the
// diagnostic before it is emitted.
func (p *Parser) expect(k token.Kind, code diag.Code, msg string, build ...func(*diag.ReportBuilder)) (token.Token, bool) {
	if p.at(k) {
		return p.advance(), true
	}
	// Используем лучший span для диагностики
	diagSpan := p.getDiagnosticSpan()
	var fn func(*diag.ReportBuilder)
	if len(build) > 0 {
		fn = build[0]
	}
	p.emitDiagnostic(code, diag.SevError, diagSpan, msg, fn)
	return token.Token{Kind: token.Invalid, Span: diagSpan, Text: p.lx.Peek().Text}, false
}

// emitDiagnostic reports a diagnostic through p.opts.Reporter via a
// diag.ReportBuilder, honoring the MaxErrors budget the same way report does.
// build, if non-nil, may attach notes and fix suggestions before Emit.
func (p *Parser) emitDiagnostic(code diag.Code, sev diag.Severity, sp source.Span, msg string, build func(*diag.ReportBuilder)) bool {
	if p.opts.Reporter == nil {
		return false
	}
	if sev == diag.SevError {
		p.opts.CurrentErrors++
	}
	if p.opts.Enough() {
		return false
	}
	b := diag.NewReportBuilder(p.opts.Reporter, sev, code, sp, msg)
	if build != nil {
		build(b)
	}
	b.Emit()
	return true
}

// want - желаем увидеть токен, но кидаем warning, если нет
func (p *Parser) want(k token.Kind, code diag.Code, msg string) (token.Token, bool) {
	if p.at(k) {
		return p.advance(), true
	}
	diagSpan := p.getDiagnosticSpan()
	p.report(code, diag.SevWarning, diagSpan, msg)
	return p.lx.Peek(), false
}

// репортует ошибку и передает текущий спан
func (p *Parser) err(code diag.Code, msg string) bool {
	return p.report(code, diag.SevError, p.getDiagnosticSpan(), msg)
}

// репортует warning и передает текущий спан
func (p *Parser) warn(code diag.Code, msg string) bool {
	return p.report(code, diag.SevWarning, p.getDiagnosticSpan(), msg)
}

// репортует info и передает текущий спан
func (p *Parser) info(code diag.Code, msg string) bool {
	return p.report(code, diag.SevInfo, p.getDiagnosticSpan(), msg)
}

// currentErrorSpan returns the best span to anchor a diagnostic at the
// current parse position; same rule as getDiagnosticSpan.
func (p *Parser) currentErrorSpan() source.Span {
	return p.getDiagnosticSpan()
}

// resyncUntil advances the token stream until it reaches one of kinds or EOF,
// without consuming the matching token, so the caller can resume parsing from
// a known-good boundary after an error.
func (p *Parser) resyncUntil(kinds ...token.Kind) {
	for !p.at(token.EOF) {
		if p.at_or(kinds...) {
			return
		}
		p.advance()
	}
}

// resyncStatement skips tokens until the next likely statement boundary,
// used to recover from a malformed statement inside a block.
func (p *Parser) resyncStatement() {
	p.resyncUntil(
		token.Semicolon, token.RBrace, token.EOF,
		token.KwLet, token.KwConst, token.KwReturn, token.KwBreak, token.KwContinue,
		token.KwIf, token.KwWhile, token.KwFor, token.KwSignal,
	)
}

func (p *Parser) report(code diag.Code, sev diag.Severity, sp source.Span, msg string) bool {
	if p.opts.Reporter != nil {
		if sev == diag.SevError {
			p.opts.CurrentErrors++
		}
		if !p.opts.Enough() {
			p.opts.Reporter.Report(code, sev, sp, msg, nil, nil)
			return true
		}
		return false // достигли максимального количества ошибок
	}
	return false // нет reporter - ничего не записали
}

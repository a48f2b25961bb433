package lexer

import (
	"corec/internal/diag"
	"corec/internal/source"
)

// ReporterAdapter adapts a diag.Bag to the lexer's own minimal Reporter
// interface, translating the lexer's string kind labels into diag.Code
// values so callers don't need to depend on internal/diag directly.
type ReporterAdapter struct {
	Bag *diag.Bag
}

// Report implements lexer.Reporter.
func (r *ReporterAdapter) Report(kind string, span source.Span, msg string) {
	if r == nil || r.Bag == nil {
		return
	}
	r.Bag.Add(diag.NewError(lexKindToCode(kind), span, msg))
}

// Reporter returns r itself as a lexer.Reporter, for call sites that prefer
// to build the adapter and obtain the interface value in one expression.
func (r *ReporterAdapter) Reporter() Reporter {
	return r
}

// DiagReporterAdapter adapts an already-constructed diag.Reporter (e.g. the
// one a parser was configured with) to the lexer's Reporter interface, for
// lexers spun up internally by the parser (f-string sub-expressions).
type DiagReporterAdapter struct {
	Inner diag.Reporter
}

// Report implements lexer.Reporter.
func (r DiagReporterAdapter) Report(kind string, span source.Span, msg string) {
	if r.Inner == nil {
		return
	}
	r.Inner.Report(lexKindToCode(kind), diag.SevError, span, msg, nil, nil)
}

func lexKindToCode(kind string) diag.Code {
	switch kind {
	case "UnknownChar":
		return diag.LexUnknownChar
	case "UnterminatedString":
		return diag.LexUnterminatedString
	case "UnterminatedBlockComment":
		return diag.LexUnterminatedBlockComment
	case "BadNumber":
		return diag.LexBadNumber
	case "TokenTooLong":
		return diag.LexTokenTooLong
	default:
		return diag.LexInfo
	}
}

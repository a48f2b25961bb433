package sema

import (
	"context"

	"corec/internal/ast"
	"corec/internal/diag"
	"corec/internal/symbols"
	"corec/internal/types"
)

// Options configure a semantic pass over a file.
type Options struct {
	Reporter diag.Reporter
	Symbols  *symbols.Result
	Types    *types.Interner
}

// Result stores semantic artefacts produced by the checker.
type Result struct {
	TypeInterner *types.Interner
	ExprTypes    map[ast.ExprID]types.TypeID
}

// Check performs semantic analysis over a single file: collecting top-level
// declarations into the symbol table (if not already resolved by the
// caller), then checking every item body in a second pass. ctx carries
// cancellation across a whole-project multi-file check driven by the CLI's
// build pipeline; Check itself does not block, but threads ctx through to
// keep that caller in control of an early abort.
func Check(ctx context.Context, builder *ast.Builder, fileID ast.FileID, opts Options) Result {
	res := Result{
		ExprTypes: make(map[ast.ExprID]types.TypeID),
	}
	if opts.Types != nil {
		res.TypeInterner = opts.Types
	} else {
		res.TypeInterner = types.NewInterner()
	}
	if builder == nil || fileID == ast.NoFileID {
		return res
	}

	if ctx == nil {
		ctx = context.Background()
	}
	checker := typeChecker{
		builder:  builder,
		fileID:   fileID,
		reporter: opts.Reporter,
		symbols:  opts.Symbols,
		types:    res.TypeInterner,
		result:   &res,
	}
	if err := ctx.Err(); err != nil {
		return res
	}
	checker.run()
	return res
}

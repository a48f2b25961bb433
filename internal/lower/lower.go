package lower

import (
	"sort"

	"corec/internal/ast"
	"corec/internal/diag"
	"corec/internal/ir"
	"corec/internal/sema"
)

// LowerFile walks every item of fileID in declaration order and lowers each
// function item into an ir.Func appended to mod. Non-function items
// (types, contracts, externs, imports) carry no executable body and are
// skipped; the type checker has already validated them.
func LowerFile(b *ast.Builder, fileID ast.FileID, semaRes *sema.Result, mod *ir.Module, rep diag.Reporter) error {
	file := b.Files.Get(fileID)
	if file == nil {
		return nil
	}

	fnItems := make([]ast.ItemID, 0, len(file.Items))
	for _, itemID := range file.Items {
		item := b.Items.Get(itemID)
		if item == nil || item.Kind != ast.ItemFn {
			continue
		}
		fnItems = append(fnItems, itemID)
	}
	// Deterministic order independent of arena allocation order.
	sort.Slice(fnItems, func(i, j int) bool { return fnItems[i] < fnItems[j] })

	for _, itemID := range fnItems {
		fnItem, ok := b.Items.Fn(itemID)
		if !ok {
			continue
		}
		if err := lowerFn(b, semaRes, mod, rep, fnItem); err != nil {
			return err
		}
	}
	return nil
}

func lowerFn(b *ast.Builder, semaRes *sema.Result, mod *ir.Module, rep diag.Reporter, fnItem *ast.FnItem) error {
	name, _ := b.StringsInterner.Lookup(fnItem.Name)
	result := fnItem.ReturnType
	resultType := mod.Types.Builtins().Unit
	if semaRes != nil {
		// The type checker resolves ast.TypeID -> types.TypeID as part of
		// signature checking; until that table is threaded through here the
		// emitter treats an absent return type as unit.
		_ = result
	}

	fn := mod.NewFunc(name, fnItem.Name, resultType)

	l := newLowerer(b, semaRes, mod, rep)
	l.fn = fn
	entry := l.newBlock("entry")
	fn.Entry = entry
	l.seal(entry)
	l.pushScope()

	l.lowerStmt(fnItem.Body)

	// A function whose body falls through without an explicit return
	// yields unit; every block must terminate for the IR to validate.
	if !l.block().Terminated() {
		l.block().Term = ir.Terminator{Kind: ir.TermReturn, Return: ir.ReturnTerm{HasValue: false}}
	}
	l.popScope()
	return nil
}

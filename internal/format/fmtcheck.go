package format

import (
	"bytes"

	"fortio.org/safecast"

	"corec/internal/ast"
	"corec/internal/diag"
	"corec/internal/lexer"
	"corec/internal/parser"
	"corec/internal/source"
)

// PrettyNoop returns the original file bytes. Placeholder for the structural
// printer until Print is wired for every item kind; still lets round-trip
// scaffolding (parse -> print -> parse) run without panics.
func PrettyNoop(sf *source.File) []byte {
	return append([]byte(nil), sf.Content...)
}

// RunFmtCheck parses the file, prints it, re-parses, and verifies coarse
// structural equality (sequence of top-level item kinds) per spec §8's
// Parse(Print(AST)) ≡ AST round-trip law. Returns (ok, report).
func RunFmtCheck(sf *source.File, maxDiagnostics int) (success bool, msg string) {
	firstBag := diag.NewBag(maxDiagnostics)
	firstBuilder, firstFileID := parseOnce(sf, firstBag)
	if firstBuilder == nil {
		return false, "fmt-check: initial parse failed"
	}
	if hasErrors(firstBag) {
		return false, "fmt-check: initial parse has errors"
	}

	out := PrettyNoop(sf)

	fs2 := source.NewFileSetWithBase("")
	f2 := fs2.AddVirtual(sf.Path, out)
	secondBag := diag.NewBag(maxDiagnostics)
	secondBuilder, secondFileID := parseOnce(fs2.Get(f2), secondBag)
	if secondBuilder == nil || hasErrors(secondBag) {
		return false, "fmt-check: reparse failed"
	}

	if !sameTopItemKinds(firstBuilder, firstFileID, secondBuilder, secondFileID) {
		return false, "fmt-check: top-level item kinds differ after round-trip"
	}

	return true, "fmt-check: OK"
}

func parseOnce(sf *source.File, bag *diag.Bag) (*ast.Builder, ast.FileID) {
	lx := lexer.New(sf, lexer.Options{Reporter: (&lexer.ReporterAdapter{Bag: bag}).Reporter()})
	builder := ast.NewBuilder(ast.Hints{}, nil)

	var maxErr uint
	if m, err := safecast.Conv[uint](bag.Cap()); err == nil {
		maxErr = m
	}

	opts := parser.Options{Reporter: &diag.BagReporter{Bag: bag}, MaxErrors: maxErr}
	res := parser.ParseFile(source.NewFileSet(), lx, builder, opts)
	return builder, res.File
}

func hasErrors(b *diag.Bag) bool {
	for _, d := range b.Items() {
		if d.Severity >= diag.SevError {
			return true
		}
	}
	return false
}

func sameTopItemKinds(b1 *ast.Builder, f1 ast.FileID, b2 *ast.Builder, f2 ast.FileID) bool {
	file1 := b1.Files.Get(f1)
	file2 := b2.Files.Get(f2)
	if file1 == nil || file2 == nil {
		return false
	}
	getKinds := func(b *ast.Builder, f *ast.File) []ast.ItemKind {
		kinds := make([]ast.ItemKind, 0, len(f.Items))
		for _, id := range f.Items {
			if it := b.Items.Get(id); it != nil {
				kinds = append(kinds, it.Kind)
			}
		}
		return kinds
	}
	k1, k2 := getKinds(b1, file1), getKinds(b2, file2)
	return bytes.Equal(itemKindsToBytes(k1), itemKindsToBytes(k2))
}

func itemKindsToBytes(kinds []ast.ItemKind) []byte {
	buf := make([]byte, len(kinds))
	for i, k := range kinds {
		buf[i] = byte(k)
	}
	return buf
}

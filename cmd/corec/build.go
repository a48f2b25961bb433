package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"corec/internal/ast"
	"corec/internal/bytecode"
	"corec/internal/diag"
	"corec/internal/diagfmt"
	"corec/internal/emit"
	"corec/internal/ir"
	"corec/internal/lexer"
	"corec/internal/lower"
	"corec/internal/parser"
	"corec/internal/pipeline"
	"corec/internal/sema"
	"corec/internal/source"
	"corec/internal/symbols"
)

var (
	buildOut    string
	buildEmitIR bool
	buildEmitBC bool
)

func init() {
	buildCmd.Flags().StringVar(&buildOut, "out", "", "output bytecode image path (defaults to <file>.cbc)")
	buildCmd.Flags().BoolVar(&buildEmitIR, "emit-ir", false, "print the SSA IR instead of writing bytecode")
	buildCmd.Flags().BoolVar(&buildEmitBC, "emit-bytecode-text", false, "print a disassembly of the emitted bytecode")
}

var buildCmd = &cobra.Command{
	Use:   "build <file>",
	Short: "Compile a source file to a bytecode image",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		maxDiag, _ := cmd.Flags().GetInt("max-diagnostics")
		showTimings, _ := cmd.Flags().GetBool("timings")
		quiet, _ := cmd.Flags().GetBool("quiet")

		path := args[0]
		content, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}

		fs := source.NewFileSetWithBase("")
		fid := fs.AddVirtual(path, content)
		sf := fs.Get(fid)

		var timings pipeline.Timings
		bag := diag.NewBag(maxDiag)

		start := time.Now()
		lx := lexer.New(sf, lexer.Options{Reporter: (&lexer.ReporterAdapter{Bag: bag}).Reporter()})
		builder := ast.NewBuilder(ast.Hints{}, nil)
		timings.Set(pipeline.StageLex, time.Since(start))

		start = time.Now()
		parseRes := parser.ParseFile(fs, lx, builder, parser.Options{
			Reporter:  &diag.BagReporter{Bag: bag},
			MaxErrors: uint(maxDiag),
		})
		timings.Set(pipeline.StageParse, time.Since(start))

		if bag.HasErrors() {
			return reportBuildFailure(cmd, bag, fs, path, timings, showTimings)
		}

		start = time.Now()
		symRes := symbols.ResolveFile(builder, parseRes.File, symbols.ResolveOptions{
			Reporter: &diag.BagReporter{Bag: bag},
		})
		semaRes := sema.Check(context.Background(), builder, parseRes.File, sema.Options{
			Reporter: &diag.BagReporter{Bag: bag},
			Symbols:  &symRes,
		})
		timings.Set(pipeline.StageCheck, time.Since(start))

		if bag.HasErrors() {
			return reportBuildFailure(cmd, bag, fs, path, timings, showTimings)
		}

		start = time.Now()
		mod := ir.NewModule(builder.StringsInterner, semaRes.TypeInterner)
		if err := lower.LowerFile(builder, parseRes.File, &semaRes, mod, &diag.BagReporter{Bag: bag}); err != nil {
			return fmt.Errorf("lower: %s: %w", path, err)
		}
		if bag.HasErrors() {
			return reportBuildFailure(cmd, bag, fs, path, timings, showTimings)
		}
		if err := ir.Validate(mod); err != nil {
			return fmt.Errorf("lower: %s: %w", path, err)
		}
		timings.Set(pipeline.StageLower, time.Since(start))

		if buildEmitIR {
			fmt.Fprint(cmd.OutOrStdout(), ir.Print(mod))
			if showTimings {
				printTimings(cmd.ErrOrStderr(), timings)
			}
			return nil
		}

		start = time.Now()
		image, err := emit.EmitModule(mod, &diag.BagReporter{Bag: bag})
		if err != nil {
			return fmt.Errorf("emit: %s: %w", path, err)
		}
		if bag.HasErrors() {
			return reportBuildFailure(cmd, bag, fs, path, timings, showTimings)
		}
		timings.Set(pipeline.StageEmit, time.Since(start))

		if bag.Len() > 0 {
			diagfmt.Pretty(cmd.ErrOrStderr(), bag, fs, diagfmt.PrettyOpts{Color: wantColor(cmd, os.Stderr), ShowNotes: true})
		}

		if buildEmitBC {
			fmt.Fprint(cmd.OutOrStdout(), disassemble(image))
			if showTimings {
				printTimings(cmd.ErrOrStderr(), timings)
			}
			return nil
		}

		out := buildOut
		if out == "" {
			out = path + ".cbc"
		}
		if err := os.WriteFile(out, image.Encode(), 0o644); err != nil {
			return fmt.Errorf("write %s: %w", out, err)
		}

		if !quiet {
			fmt.Fprintf(cmd.OutOrStdout(), "%s: wrote %s\n", path, out)
		}
		if showTimings {
			printTimings(cmd.ErrOrStderr(), timings)
		}
		return nil
	},
}

func reportBuildFailure(cmd *cobra.Command, bag *diag.Bag, fs *source.FileSet, path string, timings pipeline.Timings, showTimings bool) error {
	diagfmt.Pretty(cmd.ErrOrStderr(), bag, fs, diagfmt.PrettyOpts{Color: wantColor(cmd, os.Stderr), ShowNotes: true})
	if showTimings {
		printTimings(cmd.ErrOrStderr(), timings)
	}
	return fmt.Errorf("build: %s reported errors", path)
}

// disassemble prints each routine's name, placement, and raw code bytes
// annotated with opcode mnemonics where a byte lines up with an opcode
// boundary. It is a debugging aid, not a faithful re-parse of operand
// widths, since those vary per opcode.
func disassemble(img *bytecode.Image) string {
	var sb strings.Builder
	names := make(map[uint32]string)
	for i, c := range img.Pool.Entries() {
		if c.Tag == bytecode.ConstIdent {
			names[uint32(i)] = c.S
		}
	}
	for i, r := range img.Routines {
		fmt.Fprintf(&sb, "routine %d %q  args=%d locals=%d offset=%d length=%d\n",
			i, names[r.NameConstIdx], r.ArgCount, r.LocalCount, r.CodeOffset, r.CodeLength)
		code := img.Code[r.CodeOffset : r.CodeOffset+r.CodeLength]
		for off := 0; off < len(code); off++ {
			fmt.Fprintf(&sb, "  %04x: %02x  %s\n", off, code[off], bytecode.Op(code[off]).Name())
		}
	}
	return sb.String()
}

func printTimings(w io.Writer, t pipeline.Timings) {
	for _, stage := range pipeline.Stages() {
		if !t.Has(stage) {
			continue
		}
		fmt.Fprintf(w, "  %-6s %s\n", stage, t.Duration(stage))
	}
}


package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"corec/internal/ast"
	"corec/internal/diag"
	"corec/internal/diagfmt"
	"corec/internal/lexer"
	"corec/internal/parser"
	"corec/internal/sema"
	"corec/internal/source"
	"corec/internal/symbols"
)

var checkCmd = &cobra.Command{
	Use:   "check <file>",
	Short: "Parse and type-check a source file without emitting bytecode",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		maxDiag, _ := cmd.Flags().GetInt("max-diagnostics")
		quiet, _ := cmd.Flags().GetBool("quiet")

		content, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("read %s: %w", args[0], err)
		}

		fs := source.NewFileSetWithBase("")
		fid := fs.AddVirtual(args[0], content)
		sf := fs.Get(fid)

		bag := diag.NewBag(maxDiag)
		lx := lexer.New(sf, lexer.Options{Reporter: (&lexer.ReporterAdapter{Bag: bag}).Reporter()})
		builder := ast.NewBuilder(ast.Hints{}, nil)

		parseRes := parser.ParseFile(fs, lx, builder, parser.Options{
			Reporter:  &diag.BagReporter{Bag: bag},
			MaxErrors: uint(maxDiag),
		})

		if !bag.HasErrors() {
			symRes := symbols.ResolveFile(builder, parseRes.File, symbols.ResolveOptions{
				Reporter: &diag.BagReporter{Bag: bag},
			})
			sema.Check(context.Background(), builder, parseRes.File, sema.Options{
				Reporter: &diag.BagReporter{Bag: bag},
				Symbols:  &symRes,
			})
		}

		if bag.Len() > 0 {
			diagfmt.Pretty(cmd.ErrOrStderr(), bag, fs, diagfmt.PrettyOpts{Color: wantColor(cmd, os.Stderr), ShowNotes: true})
		}
		if bag.HasErrors() {
			return fmt.Errorf("check: %s reported errors", args[0])
		}
		if !quiet {
			fmt.Fprintf(cmd.OutOrStdout(), "%s: ok\n", args[0])
		}
		return nil
	},
}

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"corec/internal/ast"
	"corec/internal/diag"
	"corec/internal/diagfmt"
	"corec/internal/lexer"
	"corec/internal/parser"
	"corec/internal/source"
)

var parseFormat string

func init() {
	parseCmd.Flags().StringVar(&parseFormat, "format", "pretty", "output format (pretty|json)")
}

var parseCmd = &cobra.Command{
	Use:   "parse <file>",
	Short: "Parse a source file and print its AST",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		maxDiag, _ := cmd.Flags().GetInt("max-diagnostics")

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

		res := parser.ParseFile(fs, lx, builder, parser.Options{
			Reporter:  &diag.BagReporter{Bag: bag},
			MaxErrors: uint(maxDiag),
		})

		switch parseFormat {
		case "json":
			if err := diagfmt.FormatASTJSON(cmd.OutOrStdout(), builder, res.File); err != nil {
				return err
			}
		default:
			if err := diagfmt.FormatASTPretty(cmd.OutOrStdout(), builder, res.File, fs); err != nil {
				return err
			}
		}

		if bag.HasErrors() {
			diagfmt.Pretty(cmd.ErrOrStderr(), bag, fs, diagfmt.PrettyOpts{Color: wantColor(cmd, os.Stderr), ShowNotes: true})
			return fmt.Errorf("parse: %s reported errors", args[0])
		}
		return nil
	},
}

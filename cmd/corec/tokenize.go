package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"corec/internal/diag"
	"corec/internal/diagfmt"
	"corec/internal/lexer"
	"corec/internal/source"
	"corec/internal/token"
)

var tokenizeFormat string

func init() {
	tokenizeCmd.Flags().StringVar(&tokenizeFormat, "format", "pretty", "output format (pretty|json)")
}

var tokenizeCmd = &cobra.Command{
	Use:   "tokenize <file>",
	Short: "Scan a source file and print its token stream",
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

		var toks []token.Token
		for {
			tok := lx.Next()
			toks = append(toks, tok)
			if tok.Kind == token.EOF {
				break
			}
		}

		switch tokenizeFormat {
		case "json":
			if err := diagfmt.FormatTokensJSON(cmd.OutOrStdout(), toks); err != nil {
				return err
			}
		default:
			if err := diagfmt.FormatTokensPretty(cmd.OutOrStdout(), toks, fs); err != nil {
				return err
			}
		}

		if bag.HasErrors() {
			diagfmt.Pretty(cmd.ErrOrStderr(), bag, fs, diagfmt.PrettyOpts{Color: wantColor(cmd, os.Stderr), ShowNotes: true})
			return fmt.Errorf("tokenize: %s reported errors", args[0])
		}
		return nil
	},
}

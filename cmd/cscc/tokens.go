package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/skx/cscc/frontend"
	"github.com/skx/cscc/lexer"
)

func newTokensCmd(pipeline *frontend.Pipeline) *cobra.Command {
	return &cobra.Command{
		Use:   "tokens <file>",
		Short: "Scan a source file and print its token stream",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source, err := readSource(args[0])
			if err != nil {
				return err
			}
			toks, errs := lexer.Scan(source)
			for _, t := range toks {
				fmt.Printf("%-12s %-10q line=%d column=%d\n", t.Kind, t.Lexeme, t.Line, t.Column)
			}
			for _, e := range errs {
				fmt.Printf("lex error: line %d, column %d: %s (%q)\n", e.Line, e.Column, e.Description, e.Lexeme)
			}
			return nil
		},
	}
}

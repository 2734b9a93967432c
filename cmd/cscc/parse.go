package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/skx/cscc/frontend"
)

func newParseCmd(pipeline *frontend.Pipeline) *cobra.Command {
	return &cobra.Command{
		Use:   "parse <file>",
		Short: "Parse a source file and print its AST",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source, err := readSource(args[0])
			if err != nil {
				return err
			}
			res := pipeline.Parse(source)
			for _, e := range res.Lex {
				fmt.Printf("lex error: line %d, column %d: %s\n", e.Line, e.Column, e.Description)
			}
			for _, e := range res.Syntax {
				fmt.Println("syntax error:", e.String())
			}
			fmt.Print(res.Tree.String())
			return nil
		},
	}
}

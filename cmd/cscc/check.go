package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/skx/cscc/frontend"
)

func newCheckCmd(pipeline *frontend.Pipeline) *cobra.Command {
	return &cobra.Command{
		Use:   "check <file>",
		Short: "Type-check a source file and print its symbol table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source, err := readSource(args[0])
			if err != nil {
				return err
			}
			res := pipeline.Check(source)
			for _, e := range res.Lex {
				fmt.Printf("lex error: line %d, column %d: %s\n", e.Line, e.Column, e.Description)
			}
			for _, e := range res.Syntax {
				fmt.Println("syntax error:", e.String())
			}
			for _, e := range res.Semantic {
				fmt.Println("semantic error:", e.String())
			}
			fmt.Print(res.Table.Format())
			return nil
		},
	}
}

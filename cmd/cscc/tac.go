package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/skx/cscc/frontend"
	"github.com/skx/cscc/tac"
)

func newTacCmd(pipeline *frontend.Pipeline) *cobra.Command {
	return &cobra.Command{
		Use:   "tac <file>",
		Short: "Compile a source file and print its three-address code listing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source, err := readSource(args[0])
			if err != nil {
				return err
			}
			res := pipeline.Compile(source)
			for _, e := range res.Semantic {
				fmt.Println("semantic error:", e.String())
			}
			fmt.Print(tac.Format(res.TAC))
			return nil
		},
	}
}

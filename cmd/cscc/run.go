package main

import (
	"bufio"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/skx/cscc/frontend"
	"github.com/skx/cscc/interp"
)

func newRunCmd(pipeline *frontend.Pipeline) *cobra.Command {
	var inputs []string

	cmd := &cobra.Command{
		Use:   "run <file>",
		Short: "Compile and execute a source file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source, err := readSource(args[0])
			if err != nil {
				return err
			}

			stdin := bufio.NewScanner(os.Stdin)
			promptFn := func(prompt string) string {
				fmt.Fprint(os.Stderr, prompt)
				if stdin.Scan() {
					return stdin.Text()
				}
				return ""
			}

			res := pipeline.Run(source,
				interp.WithInputs(inputs),
				interp.WithInputFunc(promptFn),
				interp.WithOutputFunc(func(text string) { fmt.Print(text) }),
			)
			for _, d := range res.Diagnostics() {
				fmt.Fprintln(os.Stderr, d)
			}
			return nil
		},
	}

	cmd.Flags().StringSliceVarP(&inputs, "input", "i", nil, "queued value(s) for 'cin', consumed in order before prompting interactively")

	return cmd
}

// Command cscc drives the compiler front-end from the shell: scan, parse,
// check, lower to TAC, or run a source file, one subcommand per stage.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/skx/cscc/frontend"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "cscc",
		Short: "cscc is a teaching-grade compiler front-end",
		Long: "cscc scans, parses, type-checks, lowers, and runs programs written\n" +
			"in a small C++-flavored teaching language (int/float/bool, if/while/do,\n" +
			"cin/cout).",
	}

	pipeline := frontend.New()
	root.AddCommand(
		newTokensCmd(pipeline),
		newParseCmd(pipeline),
		newCheckCmd(pipeline),
		newTacCmd(pipeline),
		newRunCmd(pipeline),
	)
	return root
}

func readSource(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	return string(data), nil
}

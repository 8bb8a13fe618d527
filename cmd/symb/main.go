// Command symb differentiates and simplifies single-variable expressions.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/symb/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}

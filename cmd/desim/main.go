// Command desim runs discrete-event simulations built on the
// github.com/ersantana/desim engine.
package main

import (
	"fmt"
	"os"

	"github.com/ersantana/desim/internal/cli"
)

func main() {
	root := cli.NewRootCommand()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.GetExitCode(err))
	}
}

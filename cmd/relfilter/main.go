// Command relfilter compiles and checks relational filters.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/roach88/relfilter/internal/cli"
)

func main() {
	err := cli.NewRootCommand().Execute()
	if err != nil {
		var exitErr *cli.ExitError
		if !errors.As(err, &exitErr) {
			// Errors raised before a command ran (flags, config) are not
			// reported by the commands themselves.
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
	}
	os.Exit(cli.GetExitCode(err))
}

package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/LDY1998/prusti-dev/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.Execute(); err != nil {
		// Commands print their own diagnostics; only surface errors that
		// escaped the formatters (flag parsing, usage).
		var exitErr *cli.ExitError
		if !errors.As(err, &exitErr) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(cli.GetExitCode(err))
	}
}

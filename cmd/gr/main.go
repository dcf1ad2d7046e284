package main

import (
	"fmt"
	"os"

	do "github.com/samber/do/v2"
	"github.com/spf13/cobra"

	"github.com/denchenko/gitar/internal/config"
	"github.com/denchenko/gitar/internal/core"
	"github.com/denchenko/gitar/internal/grerror"
)

func main() {
	injector := do.New(
		config.Package,
		core.Package,
		cliPackage,
	)

	cmd, err := do.Invoke[*cobra.Command](injector)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create CLI command: %v\n", err)
		os.Exit(1)
	}

	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(grerror.ExitCode(err))
	}
}

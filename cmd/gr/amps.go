package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/denchenko/gitar/internal/amps"
	"github.com/denchenko/gitar/internal/config"
)

const ampsDirName = "amps"

func ampsDir() string {
	return filepath.Join(config.DefaultConfigDir(), ampsDirName)
}

func newAmpsCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "amps",
		Short: "Run external scripts that wrap gr invocations",
	}

	cmd.AddCommand(
		newAmpsListCommand(),
		newAmpsExecCommand(cfg),
	)

	return cmd
}

func newAmpsListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List available amps",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			list, err := amps.List(ampsDir())
			if err != nil {
				return err
			}

			if len(list) == 0 {
				fmt.Printf("no amps found in %s\n", ampsDir())

				return nil
			}

			for _, a := range list {
				fmt.Println(a.Name)
			}

			return nil
		},
	}
}

func newAmpsExecCommand(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "exec <name> [-- args...]",
		Short: "Run an amp by name",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			domainName, _, err := resolveDomainProject(cmd)
			if err != nil {
				return err
			}

			dc, err := cfg.Resolve(domainName)
			if err != nil {
				return err
			}

			a, err := amps.Resolve(ampsDir(), args[0])
			if err != nil {
				return err
			}

			return amps.Exec(withContext(cmd), a, dc.APIToken, domainName, args[1:])
		},
	}
}

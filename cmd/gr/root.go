package main

import (
	"os"

	do "github.com/samber/do/v2"
	"github.com/spf13/cobra"

	"github.com/denchenko/gitar/internal/config"
	"github.com/denchenko/gitar/internal/core"
	"github.com/denchenko/gitar/internal/log"
)

// cliPackage is the DI module that assembles the root *cobra.Command,
// mirroring the teacher's adapters.PrimaryPackage / cli.Command shape,
// generalized since the provider/App a verb needs is only resolvable once
// the verb's target domain is known.
var cliPackage = do.Package(
	do.Lazy[*cobra.Command](buildRootCommand),
)

func buildRootCommand(i do.Injector) (*cobra.Command, error) {
	cfg := do.MustInvoke[*config.Config](i)
	resolver := do.MustInvoke[*core.Resolver](i)

	cmd := &cobra.Command{
		Use:           "gr",
		Short:         "gr is a unified CLI for GitLab and GitHub",
		Long:          `gr exposes merge/pull requests, pipelines, projects, releases, the container registry, runners and trending repos across GitLab and GitHub through one provider-agnostic command set.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			verbose, _ := cmd.Flags().GetBool("verbose")
			log.SetLevel(verbose, os.Getenv("RUST_LOG") == "debug")

			return nil
		},
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "log INFO-level progress to stderr")
	cmd.PersistentFlags().BoolP("refresh", "r", false, "accepted but not read by any command: cache TTLs apply unchanged")
	cmd.PersistentFlags().String("domain", "", "target domain (e.g. gitlab.com); defaults to the current git remote's host")
	cmd.PersistentFlags().StringP("project", "p", "", "project path (e.g. group/project); defaults to the current git remote")

	cmd.AddCommand(
		newMRCommand(resolver),
		newPPCommand(resolver),
		newPJCommand(resolver),
		newRLCommand(resolver),
		newDKCommand(resolver),
		newBRCommand(resolver),
		newUSCommand(resolver),
		newMyCommand(resolver),
		newTRCommand(resolver),
		newAmpsCommand(cfg),
		newInitCommand(),
	)

	return cmd, nil
}

const version = "0.1.0"

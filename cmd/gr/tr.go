package main

import (
	"github.com/spf13/cobra"

	"github.com/denchenko/gitar/internal/core"
	"github.com/denchenko/gitar/internal/core/domain"
	"github.com/denchenko/gitar/internal/format"
	"github.com/denchenko/gitar/internal/log"
)

func newTRCommand(resolver *core.Resolver) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tr [language]",
		Short: "Trending repositories (GitHub only)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			domainName, _ := cmd.Flags().GetString("domain")
			if domainName == "" {
				domainName = "github.com"
			}

			strategy, err := throttleStrategyFromFlags(cmd)
			if err != nil {
				return err
			}

			a, err := resolver.App(domainName, strategy)
			if err != nil {
				return err
			}

			var language string
			if len(args) == 1 {
				language = args[0]
			}

			var repos []*domain.TrendingRepo
			err = log.WithSpinner("Fetching trending repositories...", func() error {
				var err error
				repos, err = a.Trending(withContext(cmd), language)

				return err
			})
			if err != nil {
				return err
			}

			return printTable(cmd, format.TrendingTable(repos))
		},
	}

	return cmd
}

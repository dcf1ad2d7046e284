package main

import (
	"github.com/spf13/cobra"

	"github.com/denchenko/gitar/internal/core"
	"github.com/denchenko/gitar/internal/core/domain"
	"github.com/denchenko/gitar/internal/format"
	"github.com/denchenko/gitar/internal/log"
)

func newRLCommand(resolver *core.Resolver) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rl",
		Short: "Releases",
	}

	cmd.AddCommand(
		newRLListCommand(resolver),
		newRLAssetsCommand(resolver),
	)

	return cmd
}

func newRLListCommand(resolver *core.Resolver) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List releases",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, _, project, err := resolveApp(cmd, resolver)
			if err != nil {
				return err
			}

			var releases []*domain.Release
			err = log.WithSpinner("Fetching releases...", func() error {
				var err error
				releases, err = a.ListReleases(withContext(cmd), project, pageRangeFromFlags(cmd))

				return err
			})
			if err != nil {
				return err
			}

			return printTable(cmd, format.ReleasesTable(releases))
		},
	}
	addListFlags(cmd)

	return cmd
}

func newRLAssetsCommand(resolver *core.Resolver) *cobra.Command {
	return &cobra.Command{
		Use:   "assets <tag>",
		Short: "List a release's assets",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, _, project, err := resolveApp(cmd, resolver)
			if err != nil {
				return err
			}

			var assets []domain.ReleaseAsset
			err = log.WithSpinner("Fetching release assets...", func() error {
				var err error
				assets, err = a.ListReleaseAssets(withContext(cmd), project, args[0])

				return err
			})
			if err != nil {
				return err
			}

			return printTable(cmd, format.ReleaseAssetsTable(args[0], assets))
		},
	}
}

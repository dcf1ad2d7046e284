package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/denchenko/gitar/internal/core"
	"github.com/denchenko/gitar/internal/core/domain"
	"github.com/denchenko/gitar/internal/format"
	"github.com/denchenko/gitar/internal/log"
)

func newDKCommand(resolver *core.Resolver) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dk",
		Short: "Container registry",
	}

	cmd.AddCommand(
		newDKListCommand(resolver),
		newDKTagsCommand(resolver),
		newDKImageCommand(resolver),
	)

	return cmd
}

func newDKListCommand(resolver *core.Resolver) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List container registry repositories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, _, project, err := resolveApp(cmd, resolver)
			if err != nil {
				return err
			}

			var repos []*domain.ContainerRepo
			err = log.WithSpinner("Fetching container repositories...", func() error {
				var err error
				repos, err = a.ListContainerRepos(withContext(cmd), project)

				return err
			})
			if err != nil {
				return err
			}

			return printTable(cmd, format.ContainerReposTable(repos))
		},
	}
}

func newDKTagsCommand(resolver *core.Resolver) *cobra.Command {
	return &cobra.Command{
		Use:   "tags <repo-id>",
		Short: "List a container repository's tags",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, _, project, err := resolveApp(cmd, resolver)
			if err != nil {
				return err
			}

			repoID, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid repository id %q: %w", args[0], err)
			}

			var tags []*domain.ContainerTag
			err = log.WithSpinner("Fetching container tags...", func() error {
				var err error
				tags, err = a.ListContainerTags(withContext(cmd), project, repoID)

				return err
			})
			if err != nil {
				return err
			}

			return printTable(cmd, format.ContainerTagsTable(tags))
		},
	}
}

func newDKImageCommand(resolver *core.Resolver) *cobra.Command {
	return &cobra.Command{
		Use:   "image <repo-id> <tag>",
		Short: "Get a container image's metadata",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, _, project, err := resolveApp(cmd, resolver)
			if err != nil {
				return err
			}

			repoID, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid repository id %q: %w", args[0], err)
			}

			var tag *domain.ContainerTag
			err = log.WithSpinner("Fetching image metadata...", func() error {
				var err error
				tag, err = a.ImageMetadata(withContext(cmd), project, repoID, args[1])

				return err
			})
			if err != nil {
				return err
			}

			return printTable(cmd, format.ContainerTagsTable([]*domain.ContainerTag{tag}))
		},
	}
}

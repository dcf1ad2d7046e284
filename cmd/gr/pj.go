package main

import (
	"github.com/spf13/cobra"

	"github.com/denchenko/gitar/internal/core"
	"github.com/denchenko/gitar/internal/core/domain"
	"github.com/denchenko/gitar/internal/format"
	"github.com/denchenko/gitar/internal/log"
)

func newPJCommand(resolver *core.Resolver) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pj",
		Short: "Projects",
	}

	cmd.AddCommand(
		newPJGetCommand(resolver),
		newPJMembersCommand(resolver),
		newPJTagsCommand(resolver),
	)

	return cmd
}

func newPJGetCommand(resolver *core.Resolver) *cobra.Command {
	return &cobra.Command{
		Use:   "get",
		Short: "Get the current project",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, _, project, err := resolveApp(cmd, resolver)
			if err != nil {
				return err
			}

			var p *domain.Project
			err = log.WithSpinner("Fetching project...", func() error {
				var err error
				p, err = a.GetProject(withContext(cmd), project)

				return err
			})
			if err != nil {
				return err
			}

			return printTable(cmd, format.ProjectsTable([]*domain.Project{p}))
		},
	}
}

func newPJMembersCommand(resolver *core.Resolver) *cobra.Command {
	return &cobra.Command{
		Use:   "members",
		Short: "List project members",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, _, project, err := resolveApp(cmd, resolver)
			if err != nil {
				return err
			}

			var members []*domain.User
			err = log.WithSpinner("Fetching members...", func() error {
				var err error
				members, err = a.ListMembers(withContext(cmd), project)

				return err
			})
			if err != nil {
				return err
			}

			return printTable(cmd, format.MembersTable(members))
		},
	}
}

// newPJTagsCommand lists the project's container-registry tags across all
// of its repositories, a project-scoped shortcut over `dk tags` (which
// requires a repository id).
func newPJTagsCommand(resolver *core.Resolver) *cobra.Command {
	return &cobra.Command{
		Use:   "tags",
		Short: "List container tags across every registry repository in the project",
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

			var tags []*domain.ContainerTag
			err = log.WithSpinner("Fetching container tags...", func() error {
				for _, r := range repos {
					repoTags, err := a.ListContainerTags(withContext(cmd), project, r.ID)
					if err != nil {
						return err
					}
					tags = append(tags, repoTags...)
				}

				return nil
			})
			if err != nil {
				return err
			}

			return printTable(cmd, format.ContainerTagsTable(tags))
		},
	}
}

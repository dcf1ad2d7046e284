package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/skratchdot/open-golang/open"
	"github.com/spf13/cobra"

	"github.com/denchenko/gitar/internal/core"
)

// newBRCommand builds the `br` verb: a thin adapter resolving a domain
// entity's web URL and opening it in the default browser, deliberately
// without any caching/retry logic of its own (spec.md §6 non-goal).
func newBRCommand(resolver *core.Resolver) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "br",
		Short: "Open a resource in your browser",
	}

	cmd.AddCommand(
		newBRMRCommand(resolver),
		newBRProjectCommand(resolver),
		newBRPipelineCommand(resolver),
		newBRIssueCommand(resolver),
	)

	return cmd
}

func newBRMRCommand(resolver *core.Resolver) *cobra.Command {
	return &cobra.Command{
		Use:   "mr",
		Short: "Open the page for creating a merge request from the current branch",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, _, _, err := resolveApp(cmd, resolver)
			if err != nil {
				return err
			}

			url, err := a.GetCurrentMRURL(withContext(cmd))
			if err != nil {
				return err
			}

			return open.Start(url)
		},
	}
}

func newBRProjectCommand(resolver *core.Resolver) *cobra.Command {
	return &cobra.Command{
		Use:   "project",
		Short: "Open the current project",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, _, _, err := resolveApp(cmd, resolver)
			if err != nil {
				return err
			}

			project, _, err := a.GetCurrentProjectInfo(withContext(cmd))
			if err != nil {
				return err
			}

			return open.Start(project.WebURL)
		},
	}
}

func newBRPipelineCommand(resolver *core.Resolver) *cobra.Command {
	return &cobra.Command{
		Use:   "pipeline <id>",
		Short: "Open a pipeline",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, _, project, err := resolveApp(cmd, resolver)
			if err != nil {
				return err
			}

			id, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid pipeline id %q: %w", args[0], err)
			}

			pipeline, err := a.GetPipeline(withContext(cmd), project, id)
			if err != nil {
				return err
			}

			return open.Start(pipeline.WebURL)
		},
	}
}

// newBRIssueCommand opens the issue tracker entry referenced by the
// current branch's merge request title, generalizing the teacher's
// standalone `issue browse` command under the `br` verb.
func newBRIssueCommand(resolver *core.Resolver) *cobra.Command {
	return &cobra.Command{
		Use:   "issue",
		Short: "Open the issue linked to the current branch's merge request",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, domainName, _, err := resolveApp(cmd, resolver)
			if err != nil {
				return err
			}

			project, branch, err := a.GetCurrentProjectInfo(withContext(cmd))
			if err != nil {
				return err
			}

			mr, err := a.GetMergeRequestByBranch(withContext(cmd), project.Path, branch)
			if err != nil {
				return err
			}

			issuer, err := resolver.Issuer(domainName)
			if err != nil {
				return err
			}

			issueNumber := issuer.ExtractNumber(mr.Title)
			if issueNumber == "" {
				return fmt.Errorf("no issue number found in merge request title: %s", mr.Title)
			}

			issueURL, err := issuer.MakeURL(issueNumber)
			if err != nil {
				return err
			}
			if issueURL == "" {
				return errors.New("issue_url_template is not configured for this domain")
			}

			return open.Start(issueURL)
		},
	}
}

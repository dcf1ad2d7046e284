package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/denchenko/gitar/internal/core"
	"github.com/denchenko/gitar/internal/core/domain"
	"github.com/denchenko/gitar/internal/format"
	"github.com/denchenko/gitar/internal/log"
	"github.com/denchenko/gitar/internal/provider"
)

func newMRCommand(resolver *core.Resolver) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mr",
		Short: "Merge/pull requests",
	}

	cmd.AddCommand(
		newMRListCommand(resolver),
		newMRGetCommand(resolver),
		newMRCreateCommand(resolver),
		newMRUpdateCommand(resolver),
		newMRCloseCommand(resolver),
		newMRMergeCommand(resolver),
		newMRApproveCommand(resolver),
		newMRCommentCommand(resolver),
	)

	return cmd
}

func newMRListCommand(resolver *core.Resolver) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List merge requests",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, _, project, err := resolveApp(cmd, resolver)
			if err != nil {
				return err
			}

			filter, err := mrFilterFromFlags(cmd)
			if err != nil {
				return err
			}

			var mrs []*domain.MergeRequest
			err = log.WithSpinner("Fetching merge requests...", func() error {
				var err error
				mrs, err = a.ListMergeRequests(withContext(cmd), project, filter, pageRangeFromFlags(cmd))

				return err
			})
			if err != nil {
				return err
			}

			return printTable(cmd, format.MergeRequestsTable(mrs))
		},
	}
	addListFlags(cmd)

	return cmd
}

func newMRGetCommand(resolver *core.Resolver) *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Get a merge request",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, _, project, err := resolveApp(cmd, resolver)
			if err != nil {
				return err
			}

			id, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid merge request id %q: %w", args[0], err)
			}

			var mr *domain.MergeRequest
			err = log.WithSpinner("Fetching merge request...", func() error {
				var err error
				mr, err = a.GetMergeRequest(withContext(cmd), project, id)

				return err
			})
			if err != nil {
				return err
			}

			return printTable(cmd, format.MergeRequestsTable([]*domain.MergeRequest{mr}))
		},
	}
}

func newMRCreateCommand(resolver *core.Resolver) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a merge request",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, _, project, err := resolveApp(cmd, resolver)
			if err != nil {
				return err
			}

			title, _ := cmd.Flags().GetString("title")
			source, _ := cmd.Flags().GetString("source")
			target, _ := cmd.Flags().GetString("target")
			description, _ := cmd.Flags().GetString("description")
			draft, _ := cmd.Flags().GetBool("draft")

			req := provider.MrCreate{
				Title:       title,
				Description: description,
				Source:      source,
				Target:      target,
				Draft:       draft,
			}

			var mr *domain.MergeRequest
			err = log.WithSpinner("Creating merge request...", func() error {
				var err error
				mr, err = a.CreateMergeRequest(withContext(cmd), project, req)

				return err
			})
			if err != nil {
				return err
			}

			return printTable(cmd, format.MergeRequestsTable([]*domain.MergeRequest{mr}))
		},
	}

	cmd.Flags().String("title", "", "merge request title")
	cmd.Flags().String("description", "", "merge request description")
	cmd.Flags().String("source", "", "source branch")
	cmd.Flags().String("target", "", "target branch")
	cmd.Flags().Bool("draft", false, "create as a draft")
	_ = cmd.MarkFlagRequired("title")
	_ = cmd.MarkFlagRequired("source")
	_ = cmd.MarkFlagRequired("target")

	return cmd
}

func newMRUpdateCommand(resolver *core.Resolver) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update a merge request's title, description, assignee, reviewers, or target branch",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, _, project, err := resolveApp(cmd, resolver)
			if err != nil {
				return err
			}

			id, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid merge request id %q: %w", args[0], err)
			}

			patch, err := mrPatchFromFlags(cmd)
			if err != nil {
				return err
			}

			var mr *domain.MergeRequest
			err = log.WithSpinner("Updating merge request...", func() error {
				var err error
				mr, err = a.UpdateMergeRequest(withContext(cmd), project, id, patch)

				return err
			})
			if err != nil {
				return err
			}

			return printTable(cmd, format.MergeRequestsTable([]*domain.MergeRequest{mr}))
		},
	}

	cmd.Flags().String("title", "", "new title")
	cmd.Flags().String("description", "", "new description")
	cmd.Flags().Int("assignee-id", 0, "new assignee user id")
	cmd.Flags().String("reviewer-ids", "", "comma-separated reviewer user ids")
	cmd.Flags().String("target", "", "new target branch")

	return cmd
}

// mrPatchFromFlags only sets the fields of provider.MrPatch whose flags were
// explicitly passed, leaving the rest nil so the provider doesn't overwrite
// unrelated fields on the merge request.
func mrPatchFromFlags(cmd *cobra.Command) (provider.MrPatch, error) {
	var patch provider.MrPatch

	if cmd.Flags().Changed("title") {
		title, _ := cmd.Flags().GetString("title")
		patch.Title = &title
	}

	if cmd.Flags().Changed("description") {
		description, _ := cmd.Flags().GetString("description")
		patch.Description = &description
	}

	if cmd.Flags().Changed("assignee-id") {
		assigneeID, _ := cmd.Flags().GetInt("assignee-id")
		patch.AssigneeID = &assigneeID
	}

	if cmd.Flags().Changed("reviewer-ids") {
		raw, _ := cmd.Flags().GetString("reviewer-ids")
		for _, s := range strings.Split(raw, ",") {
			s = strings.TrimSpace(s)
			if s == "" {
				continue
			}

			id, err := strconv.Atoi(s)
			if err != nil {
				return provider.MrPatch{}, fmt.Errorf("invalid reviewer id %q: %w", s, err)
			}

			patch.ReviewerIDs = append(patch.ReviewerIDs, id)
		}
	}

	if cmd.Flags().Changed("target") {
		target, _ := cmd.Flags().GetString("target")
		patch.Target = &target
	}

	return patch, nil
}

func newMRCloseCommand(resolver *core.Resolver) *cobra.Command {
	return &cobra.Command{
		Use:   "close <id>",
		Short: "Close a merge request",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, _, project, err := resolveApp(cmd, resolver)
			if err != nil {
				return err
			}

			id, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid merge request id %q: %w", args[0], err)
			}

			return log.WithSpinner("Closing merge request...", func() error {
				_, err := a.CloseMergeRequest(withContext(cmd), project, id)

				return err
			})
		},
	}
}

func newMRMergeCommand(resolver *core.Resolver) *cobra.Command {
	return &cobra.Command{
		Use:   "merge <id>",
		Short: "Merge a merge request",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, _, project, err := resolveApp(cmd, resolver)
			if err != nil {
				return err
			}

			id, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid merge request id %q: %w", args[0], err)
			}

			return log.WithSpinner("Merging merge request...", func() error {
				_, err := a.MergeMergeRequest(withContext(cmd), project, id)

				return err
			})
		},
	}
}

func newMRApproveCommand(resolver *core.Resolver) *cobra.Command {
	return &cobra.Command{
		Use:   "approve <id>",
		Short: "Approve a merge request",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, _, project, err := resolveApp(cmd, resolver)
			if err != nil {
				return err
			}

			id, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid merge request id %q: %w", args[0], err)
			}

			return log.WithSpinner("Approving merge request...", func() error {
				return a.ApproveMergeRequest(withContext(cmd), project, id)
			})
		},
	}
}

func newMRCommentCommand(resolver *core.Resolver) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "comment <id>",
		Short: "List or add comments on a merge request",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, _, project, err := resolveApp(cmd, resolver)
			if err != nil {
				return err
			}

			id, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid merge request id %q: %w", args[0], err)
			}

			body, _ := cmd.Flags().GetString("body")
			if body != "" {
				return log.WithSpinner("Posting comment...", func() error {
					_, err := a.CreateComment(withContext(cmd), project, id, body)

					return err
				})
			}

			var comments []*domain.Comment
			err = log.WithSpinner("Fetching comments...", func() error {
				var err error
				comments, err = a.ListComments(withContext(cmd), project, id)

				return err
			})
			if err != nil {
				return err
			}

			return printTable(cmd, format.CommentsTable(comments))
		},
	}

	cmd.Flags().String("body", "", "post this comment instead of listing existing ones")

	return cmd
}

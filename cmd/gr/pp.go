package main

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/denchenko/gitar/internal/core"
	"github.com/denchenko/gitar/internal/core/domain"
	"github.com/denchenko/gitar/internal/format"
	"github.com/denchenko/gitar/internal/log"
)

func newPPCommand(resolver *core.Resolver) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pp",
		Short: "Pipelines/actions",
	}

	rn := &cobra.Command{
		Use:   "rn",
		Short: "Runners",
	}
	rn.AddCommand(newPPRunnersListCommand(resolver), newPPRunnerGetCommand(resolver))

	cmd.AddCommand(
		newPPListCommand(resolver),
		newPPLintCommand(resolver),
		rn,
		newPPMergedCICommand(resolver),
		newPPChartCommand(resolver),
	)

	return cmd
}

func newPPListCommand(resolver *core.Resolver) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List pipelines",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, _, project, err := resolveApp(cmd, resolver)
			if err != nil {
				return err
			}

			var pipelines []*domain.Pipeline
			err = log.WithSpinner("Fetching pipelines...", func() error {
				var err error
				pipelines, err = a.ListPipelines(withContext(cmd), project, pageRangeFromFlags(cmd))

				return err
			})
			if err != nil {
				return err
			}

			return printTable(cmd, format.PipelinesTable(pipelines))
		},
	}
	addListFlags(cmd)

	return cmd
}

func newPPLintCommand(resolver *core.Resolver) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lint [file]",
		Short: "Lint a pipeline definition (reads stdin if file is omitted)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, _, project, err := resolveApp(cmd, resolver)
			if err != nil {
				return err
			}

			var src io.Reader = os.Stdin
			if len(args) == 1 {
				f, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("opening %s: %w", args[0], err)
				}
				defer f.Close()
				src = f
			}

			yamlBytes, err := io.ReadAll(src)
			if err != nil {
				return fmt.Errorf("reading pipeline definition: %w", err)
			}

			result, err := a.LintPipeline(withContext(cmd), project, string(yamlBytes))
			if err != nil {
				return err
			}

			if result.Valid {
				fmt.Println("valid")

				return nil
			}

			for _, e := range result.Errors {
				fmt.Printf("line %d: %s\n", e.Line, e.Message)
			}

			return fmt.Errorf("pipeline definition is invalid (%d error(s))", len(result.Errors))
		},
	}

	return cmd
}

func newPPRunnersListCommand(resolver *core.Resolver) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list <status>",
		Short: "List CI runners, optionally filtered by status (online, offline, stale)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, _, project, err := resolveApp(cmd, resolver)
			if err != nil {
				return err
			}

			var status domain.RunnerStatus
			if len(args) == 1 {
				status = domain.RunnerStatus(args[0])
			}

			var runners []*domain.Runner
			err = log.WithSpinner("Fetching runners...", func() error {
				var err error
				runners, err = a.ListRunners(withContext(cmd), project, status)

				return err
			})
			if err != nil {
				return err
			}

			return printTable(cmd, format.RunnersTable(runners))
		},
	}

	return cmd
}

func newPPRunnerGetCommand(resolver *core.Resolver) *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Get a single CI runner",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, _, project, err := resolveApp(cmd, resolver)
			if err != nil {
				return err
			}

			id, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid runner id %q: %w", args[0], err)
			}

			var runner *domain.Runner
			err = log.WithSpinner("Fetching runner...", func() error {
				var err error
				runner, err = a.GetRunner(withContext(cmd), project, id)

				return err
			})
			if err != nil {
				return err
			}

			return printTable(cmd, format.RunnersTable([]*domain.Runner{runner}))
		},
	}
}

func newPPMergedCICommand(resolver *core.Resolver) *cobra.Command {
	return &cobra.Command{
		Use:   "merged-ci",
		Short: "Print the fully merged/expanded pipeline configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, _, project, err := resolveApp(cmd, resolver)
			if err != nil {
				return err
			}

			var yamlBytes []byte
			err = log.WithSpinner("Resolving merged CI configuration...", func() error {
				var err error
				yamlBytes, err = a.MergedCI(withContext(cmd), project)

				return err
			})
			if err != nil {
				return err
			}

			fmt.Println(string(yamlBytes))

			return nil
		},
	}
}

// newPPChartCommand renders a one-line-per-status count of the project's
// pipelines over the pages selected by the shared page flags (up to
// max_pages pages when none is given), a quick health-at-a-glance view on top of
// the same data `pp list` already fetches.
func newPPChartCommand(resolver *core.Resolver) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chart",
		Short: "Show a status breakdown of recent pipelines",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, _, project, err := resolveApp(cmd, resolver)
			if err != nil {
				return err
			}

			var pipelines []*domain.Pipeline
			err = log.WithSpinner("Fetching pipelines...", func() error {
				var err error
				pipelines, err = a.ListPipelines(withContext(cmd), project, pageRangeFromFlags(cmd))

				return err
			})
			if err != nil {
				return err
			}

			counts := map[string]int{}
			for _, p := range pipelines {
				counts[p.Status]++
			}

			statuses := make([]string, 0, len(counts))
			for s := range counts {
				statuses = append(statuses, s)
			}
			sort.Strings(statuses)

			for _, s := range statuses {
				n := counts[s]
				fmt.Printf("%-12s %s (%d)\n", s, barOf(n), n)
			}

			return nil
		},
	}
	addListFlags(cmd)

	return cmd
}

func barOf(n int) string {
	bar := make([]byte, n)
	for i := range bar {
		bar[i] = '#'
	}

	return string(bar)
}

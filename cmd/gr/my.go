package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/denchenko/gitar/internal/core"
	"github.com/denchenko/gitar/internal/core/domain"
	"github.com/denchenko/gitar/internal/format"
	"github.com/denchenko/gitar/internal/grerror"
	"github.com/denchenko/gitar/internal/log"
)

func newMyCommand(resolver *core.Resolver) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "my",
		Short: "Queries scoped to the authenticated user",
	}

	cmd.AddCommand(
		newMyMRCommand(resolver),
		newMyReviewCommand(resolver),
		newMyActivityCommand(resolver),
	)

	return cmd
}

func newMyMRCommand(resolver *core.Resolver) *cobra.Command {
	return &cobra.Command{
		Use:   "mr",
		Short: "List your merge requests in the current project, prioritized",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, _, project, err := resolveApp(cmd, resolver)
			if err != nil {
				return err
			}

			var mrs []*domain.MergeRequestWithStatus
			err = log.WithSpinner("Fetching your merge requests...", func() error {
				var err error
				mrs, err = a.GetMergeRequestsWithStatus(withContext(cmd), project)

				return err
			})
			if err != nil {
				return err
			}

			return printTable(cmd, format.MergeRequestsWithStatusTable(mrs))
		},
	}
}

func newMyReviewCommand(resolver *core.Resolver) *cobra.Command {
	return &cobra.Command{
		Use:   "review",
		Short: "List merge requests awaiting your review",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, _, project, err := resolveApp(cmd, resolver)
			if err != nil {
				return err
			}

			var mrs []*domain.MergeRequestWithStatus
			err = log.WithSpinner("Fetching your review workload...", func() error {
				var err error
				mrs, err = a.GetMyReviewWorkloadWithStatus(withContext(cmd), project)

				return err
			})
			if err != nil {
				return err
			}

			return printTable(cmd, format.MergeRequestsWithStatusTable(mrs))
		},
	}
}

func newMyActivityCommand(resolver *core.Resolver) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "activity",
		Short: "Show your recent activity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, _, _, err := resolveApp(cmd, resolver)
			if err != nil {
				return err
			}

			afterStr, _ := cmd.Flags().GetString("after")
			beforeStr, _ := cmd.Flags().GetString("before")

			since, till, err := parseActivityDates(afterStr, beforeStr, time.Now())
			if err != nil {
				return err
			}

			var events []*domain.Event
			err = log.WithSpinner("Fetching your activity...", func() error {
				var err error
				events, err = a.GetMyActivity(withContext(cmd), since, till)

				return err
			})
			if err != nil {
				return err
			}

			return printTable(cmd, format.EventsTable(events))
		},
	}

	cmd.Flags().String("after", "", "only events after this date (YYYY-MM-DD); defaults to the last working day")
	cmd.Flags().String("before", "", "only events before this date (YYYY-MM-DD)")

	return cmd
}

// parseActivityDates resolves --after/--before into a since/till range,
// defaulting --after to calculateDefaultAfter(now) (kept from the
// teacher's identically named helper).
func parseActivityDates(afterStr, beforeStr string, now time.Time) (since time.Time, till *time.Time, err error) {
	since = calculateDefaultAfter(now)
	if afterStr != "" {
		since, err = time.Parse(dateLayout, afterStr)
		if err != nil {
			return time.Time{}, nil, grerror.Wrap(grerror.Config, fmt.Sprintf("invalid --after %q", afterStr), err)
		}
	}

	if beforeStr == "" {
		return since, nil, nil
	}

	before, err := time.Parse(dateLayout, beforeStr)
	if err != nil {
		return time.Time{}, nil, grerror.Wrap(grerror.Config, fmt.Sprintf("invalid --before %q", beforeStr), err)
	}
	if !since.Before(before) {
		return time.Time{}, nil, grerror.New(grerror.Config, "--after must be before --before")
	}

	return since, &before, nil
}

// calculateDefaultAfter returns midnight on the day before the previous
// working day (kept from the teacher's identically named helper,
// unchanged since it has nothing provider-specific in it).
func calculateDefaultAfter(now time.Time) time.Time {
	var lastWorkingDay time.Time

	switch now.Weekday() {
	case time.Monday:
		lastWorkingDay = now.AddDate(0, 0, -3)
	case time.Saturday:
		lastWorkingDay = now.AddDate(0, 0, -1)
	case time.Sunday:
		lastWorkingDay = now.AddDate(0, 0, -2)
	default:
		lastWorkingDay = now.AddDate(0, 0, -1)
	}

	dayBefore := lastWorkingDay.AddDate(0, 0, -1)

	return time.Date(dayBefore.Year(), dayBefore.Month(), dayBefore.Day(), 0, 0, 0, 0, dayBefore.Location())
}

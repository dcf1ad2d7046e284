package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/denchenko/gitar/internal/core/domain"
	"github.com/denchenko/gitar/internal/format"
	"github.com/denchenko/gitar/internal/grerror"
	"github.com/denchenko/gitar/internal/provider"
	"github.com/denchenko/gitar/internal/throttle"
)

const dateLayout = "2006-01-02"

// resolveDomainProject reads --domain/--project, falling back to the
// current git remote for whichever one was left empty.
func resolveDomainProject(cmd *cobra.Command) (domainName, project string, err error) {
	domainName, _ = cmd.Flags().GetString("domain")
	project, _ = cmd.Flags().GetString("project")

	if domainName != "" && project != "" {
		return domainName, project, nil
	}

	remoteDomain, remoteProject, gitErr := detectGitRemote(cmd.Context())

	if domainName == "" {
		if gitErr != nil {
			return "", "", grerror.Wrap(grerror.Config, "resolving target domain", gitErr)
		}
		domainName = remoteDomain
	}
	if project == "" {
		if gitErr != nil {
			return "", "", grerror.Wrap(grerror.Config, "resolving target project", gitErr)
		}
		project = remoteProject
	}

	return domainName, project, nil
}

// addListFlags registers the flags shared by every list verb (spec.md §6).
func addListFlags(cmd *cobra.Command) {
	cmd.Flags().Int("page", 0, "fetch a single page")
	cmd.Flags().Int("from-page", 0, "first page to fetch")
	cmd.Flags().Int("to-page", 0, "last page to fetch")
	cmd.Flags().Bool("num-pages", false, "print the total page count and exit")
	cmd.Flags().String("sort", "desc", "sort order: asc or desc")
	cmd.Flags().String("created-after", "", "only items created after this date (YYYY-MM-DD)")
	cmd.Flags().String("created-before", "", "only items created before this date (YYYY-MM-DD)")
	cmd.Flags().String("format", "plain", "output format: plain, csv, toml or pipe")
	cmd.Flags().Int("throttle", 0, "fixed pre-request delay in milliseconds, overriding the adaptive governor")
	cmd.Flags().String("throttle-range", "", "random pre-request delay range in milliseconds, e.g. 200-800")
}

// pageRangeFromFlags builds a provider.PageRange from --page/--from-page/
// --to-page/--num-pages.
func pageRangeFromFlags(cmd *cobra.Command) provider.PageRange {
	page, _ := cmd.Flags().GetInt("page")
	from, _ := cmd.Flags().GetInt("from-page")
	to, _ := cmd.Flags().GetInt("to-page")
	numPagesOnly, _ := cmd.Flags().GetBool("num-pages")

	if page != 0 {
		from, to = page, page
	}

	return provider.PageRange{From: from, To: to, NumPagesOnly: numPagesOnly}
}

// throttleStrategyFromFlags builds the CLI's throttle.Strategy override
// from --throttle/--throttle-range, or nil to keep the engine's default
// AutoRate strategy.
func throttleStrategyFromFlags(cmd *cobra.Command) (throttle.Strategy, error) {
	fixedMs, _ := cmd.Flags().GetInt("throttle")
	if fixedMs > 0 {
		return throttle.PreFixed{Delay_: time.Duration(fixedMs) * time.Millisecond}, nil
	}

	rangeStr, _ := cmd.Flags().GetString("throttle-range")
	if rangeStr == "" {
		return nil, nil
	}

	lo, hi, err := parseThrottleRange(rangeStr)
	if err != nil {
		return nil, err
	}

	return throttle.Random{Min: lo, Max: hi}, nil
}

func parseThrottleRange(s string) (lo, hi time.Duration, err error) {
	parts := strings.SplitN(s, "-", 2)
	if len(parts) != 2 {
		return 0, 0, grerror.New(grerror.Config, fmt.Sprintf("invalid --throttle-range %q, expected LO-HI", s))
	}

	loMs, err1 := strconv.Atoi(parts[0])
	hiMs, err2 := strconv.Atoi(parts[1])
	if err1 != nil || err2 != nil {
		return 0, 0, grerror.New(grerror.Config, fmt.Sprintf("invalid --throttle-range %q, expected LO-HI in milliseconds", s))
	}

	return time.Duration(loMs) * time.Millisecond, time.Duration(hiMs) * time.Millisecond, nil
}

// mrFilterFromFlags builds a domain.MrFilter from --sort/--created-after/
// --created-before.
func mrFilterFromFlags(cmd *cobra.Command) (domain.MrFilter, error) {
	var filter domain.MrFilter

	sortOrder, _ := cmd.Flags().GetString("sort")
	filter.SortAsc = sortOrder == "asc"

	after, err := parseDateFlag(cmd, "created-after")
	if err != nil {
		return filter, err
	}
	filter.CreatedAfter = after

	before, err := parseDateFlag(cmd, "created-before")
	if err != nil {
		return filter, err
	}
	filter.CreatedBefore = before

	return filter, nil
}

func parseDateFlag(cmd *cobra.Command, name string) (*time.Time, error) {
	raw, _ := cmd.Flags().GetString(name)
	if raw == "" {
		return nil, nil
	}

	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		return nil, grerror.Wrap(grerror.Config, fmt.Sprintf("invalid --%s %q", name, raw), err)
	}

	return &t, nil
}

func outputFormatFromFlags(cmd *cobra.Command) format.Kind {
	raw, _ := cmd.Flags().GetString("format")

	return format.Kind(raw)
}

// printTable renders tbl in the format named by --format and writes it to
// stdout.
func printTable(cmd *cobra.Command, tbl format.Table) error {
	out, err := format.Render(outputFormatFromFlags(cmd), tbl)
	if err != nil {
		return grerror.Wrap(grerror.Config, "rendering output", err)
	}

	fmt.Println(out)

	return nil
}

func withContext(cmd *cobra.Command) context.Context {
	if cmd.Context() != nil {
		return cmd.Context()
	}

	return context.Background()
}

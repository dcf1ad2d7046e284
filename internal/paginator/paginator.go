// Package paginator implements gitar's cursor/link pagination with bounded
// parallel fan-out (spec.md §4.6, C6). It follows the teacher's
// `golang.org/x/sync/errgroup` idiom for joining worker pools (already used
// in the teacher's core/app for fan-out approval fetches), reused here for
// fetching pages concurrently.
package paginator

import (
	"context"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/denchenko/gitar/internal/engine"
	"github.com/denchenko/gitar/internal/grerror"
)

const defaultParallelWorkers = 4

// Range restricts pagination to [From, To] (1-indexed, inclusive). A zero
// value means "unset": From defaults to 1, To defaults to max_pages.
type Range struct {
	From int
	To   int
}

// Page is one fetched page, tagged with its 1-indexed position so callers
// can reassemble strictly ascending order regardless of fetch order.
type Page struct {
	Index int
	Body  []byte
}

// Fetcher is the subset of *engine.Engine the paginator depends on.
type Fetcher interface {
	Fetch(ctx context.Context, req engine.Request, category string, ttl time.Duration) (*engine.Response, error)
	RateLimited() bool
}

var linkSplit = regexp.MustCompile(`\s*,\s*`)
var linkEntry = regexp.MustCompile(`<([^>]+)>;\s*rel="([^"]+)"`)

// parseLinks parses an RFC 8288 Link header into rel -> URL.
func parseLinks(header string) map[string]string {
	links := map[string]string{}
	if header == "" {
		return links
	}

	for _, part := range linkSplit.Split(header, -1) {
		m := linkEntry.FindStringSubmatch(part)
		if m == nil {
			continue
		}
		links[m[2]] = m[1]
	}

	return links
}

func pageParam(rawURL string) int {
	u, err := url.Parse(rawURL)
	if err != nil {
		return 0
	}

	n, err := strconv.Atoi(u.Query().Get("page"))
	if err != nil {
		return 0
	}

	return n
}

func withPage(rawURL string, page int) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}

	q := u.Query()
	q.Set("page", strconv.Itoa(page))
	u.RawQuery = q.Encode()

	return u.String(), nil
}

// Fetch performs the full pagination run for firstURL under category,
// returning pages in strictly ascending order (spec.md §4.6).
func Fetch(ctx context.Context, f Fetcher, firstURL, category string, rng Range, maxPages, ttlSeconds int) ([]Page, error) {
	ttl := time.Duration(ttlSeconds) * time.Second

	first, err := f.Fetch(ctx, engine.Request{Method: "GET", URL: firstURL}, category, ttl)
	if err != nil {
		return nil, err
	}

	links := parseLinks(first.Headers.Get("Link"))
	firstPage := Page{Index: 1, Body: first.Body}

	to := maxPages
	if rng.To > 0 && rng.To < to {
		to = rng.To
	}
	from := 1
	if rng.From > 1 {
		from = rng.From
	}
	if from > 1 {
		// The first page we already fetched was page 1; if the caller wants
		// a range starting later, re-fetch at the requested start page.
		pagedURL, err := withPage(firstURL, from)
		if err != nil {
			return nil, grerror.Wrap(grerror.Parse, "building ranged page URL", err)
		}

		resp, err := f.Fetch(ctx, engine.Request{Method: "GET", URL: pagedURL}, category, ttl)
		if err != nil {
			return nil, err
		}
		firstPage = Page{Index: from, Body: resp.Body}
		links = parseLinks(resp.Headers.Get("Link"))
	}

	if lastURL, ok := links["last"]; ok {
		total := pageParam(lastURL)
		if total > 0 && total < to {
			to = total
		}

		if to > from {
			return fetchParallel(ctx, f, firstURL, category, ttl, firstPage, from, to)
		}

		return []Page{firstPage}, nil
	}

	if _, ok := links["next"]; ok {
		return fetchSequentialByLink(ctx, f, category, ttl, firstPage, links, to)
	}

	return fetchSequentialByPageParam(ctx, f, firstURL, category, ttl, firstPage, from, to)
}

// NumPages short-circuits pagination: fetch page 1, read the `last` rel,
// return the page count only (spec.md §4.6 `--num-pages`).
func NumPages(ctx context.Context, f Fetcher, firstURL, category string) (int, error) {
	resp, err := f.Fetch(ctx, engine.Request{Method: "GET", URL: firstURL}, category, 0)
	if err != nil {
		return 0, err
	}

	links := parseLinks(resp.Headers.Get("Link"))
	if lastURL, ok := links["last"]; ok {
		if total := pageParam(lastURL); total > 0 {
			return total, nil
		}
	}

	return 1, nil
}

func fetchSequentialByLink(ctx context.Context, f Fetcher, category string, ttl time.Duration, firstPage Page, links map[string]string, to int) ([]Page, error) {
	pages := []Page{firstPage}
	currentLinks := links

	for i := firstPage.Index; i < to; i++ {
		nextURL, ok := currentLinks["next"]
		if !ok {
			break
		}

		if f.RateLimited() {
			return nil, grerror.New(grerror.RateLimited, "rate limit threshold reached mid-pagination")
		}

		resp, err := f.Fetch(ctx, engine.Request{Method: "GET", URL: nextURL}, category, ttl)
		if err != nil {
			return nil, err
		}

		pages = append(pages, Page{Index: i + 1, Body: resp.Body})
		currentLinks = parseLinks(resp.Headers.Get("Link"))
	}

	return pages, nil
}

// fetchSequentialByPageParam is the fallback for providers without Link
// headers: increment ?page=N until an empty body is returned or maxPages is
// reached (spec.md §4.6).
func fetchSequentialByPageParam(ctx context.Context, f Fetcher, firstURL, category string, ttl time.Duration, firstPage Page, from, to int) ([]Page, error) {
	pages := []Page{firstPage}

	for i := firstPage.Index + 1; i <= to; i++ {
		if f.RateLimited() {
			return nil, grerror.New(grerror.RateLimited, "rate limit threshold reached mid-pagination")
		}

		pagedURL, err := withPage(firstURL, i)
		if err != nil {
			return nil, grerror.Wrap(grerror.Parse, "building page URL", err)
		}

		resp, err := f.Fetch(ctx, engine.Request{Method: "GET", URL: pagedURL}, category, ttl)
		if err != nil {
			return nil, err
		}

		if len(resp.Body) == 0 {
			break
		}

		pages = append(pages, Page{Index: i, Body: resp.Body})
	}

	return pages, nil
}

// fetchParallel discovers the total page count via the `last` rel, then
// fans out at most defaultParallelWorkers concurrent workers (capped by
// maxPages), collecting into ascending order (spec.md §4.6). A worker
// failure cancels pending pages and returns the first error.
func fetchParallel(ctx context.Context, f Fetcher, firstURL, category string, ttl time.Duration, firstPage Page, from, to int) ([]Page, error) {
	indices := make([]int, 0, to-from)
	for i := from + 1; i <= to; i++ {
		if i == firstPage.Index {
			continue
		}
		indices = append(indices, i)
	}

	results := make(map[int][]byte, len(indices)+1)
	results[firstPage.Index] = firstPage.Body

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(defaultParallelWorkers)

	for _, idx := range indices {
		idx := idx
		g.Go(func() error {
			if f.RateLimited() {
				return grerror.New(grerror.RateLimited, "rate limit threshold reached mid-pagination")
			}

			pagedURL, err := withPage(firstURL, idx)
			if err != nil {
				return grerror.Wrap(grerror.Parse, "building page URL", err)
			}

			resp, err := f.Fetch(gctx, engine.Request{Method: "GET", URL: pagedURL}, category, ttl)
			if err != nil {
				return err
			}

			mu.Lock()
			results[idx] = resp.Body
			mu.Unlock()

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	keys := make([]int, 0, len(results))
	for k := range results {
		keys = append(keys, k)
	}
	sort.Ints(keys)

	pages := make([]Page, 0, len(keys))
	for _, k := range keys {
		pages = append(pages, Page{Index: k, Body: results[k]})
	}

	return pages, nil
}

package paginator

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/denchenko/gitar/internal/engine"
)

// fakeFetcher serves a fixed number of pages and records requested URLs.
type fakeFetcher struct {
	mu          sync.Mutex
	totalPages  int
	rateLimited bool
	requested   []string
	linkStyle   bool
	onlyNext    bool
}

func (f *fakeFetcher) Fetch(_ context.Context, req engine.Request, category string, ttl time.Duration) (*engine.Response, error) {
	f.mu.Lock()
	f.requested = append(f.requested, req.URL)
	f.mu.Unlock()

	u, _ := url.Parse(req.URL)
	page := 1
	if p := u.Query().Get("page"); p != "" {
		fmt.Sscanf(p, "%d", &page)
	}

	if page > f.totalPages {
		return &engine.Response{Status: 200, Headers: http.Header{}, Body: nil}, nil
	}

	headers := http.Header{}
	if f.linkStyle {
		var links []string
		if page < f.totalPages {
			links = append(links, fmt.Sprintf(`<https://example.com/api?page=%d>; rel="next"`, page+1))
		}
		if !f.onlyNext {
			links = append(links, fmt.Sprintf(`<https://example.com/api?page=%d>; rel="last"`, f.totalPages))
		}
		headers.Set("Link", joinLinks(links))
	}

	return &engine.Response{
		Status:  200,
		Headers: headers,
		Body:    []byte(fmt.Sprintf("page-%d", page)),
	}, nil
}

func (f *fakeFetcher) RateLimited() bool { return f.rateLimited }

func joinLinks(links []string) string {
	out := ""
	for i, l := range links {
		if i > 0 {
			out += ", "
		}
		out += l
	}

	return out
}

func TestParseLinks(t *testing.T) {
	header := `<https://api.example.com/x?page=2>; rel="next", <https://api.example.com/x?page=5>; rel="last"`
	links := parseLinks(header)
	assert.Equal(t, "https://api.example.com/x?page=2", links["next"])
	assert.Equal(t, "https://api.example.com/x?page=5", links["last"])
}

func TestParseLinksEmpty(t *testing.T) {
	assert.Empty(t, parseLinks(""))
}

func TestFetchSequentialViaLinkHeader(t *testing.T) {
	f := &fakeFetcher{totalPages: 3, linkStyle: true}

	pages, err := Fetch(context.Background(), f, "https://example.com/api?page=1", "merge_request", Range{}, 10, 0)
	require.NoError(t, err)
	require.Len(t, pages, 3)
	for i, p := range pages {
		assert.Equal(t, i+1, p.Index)
	}
}

func TestFetchSequentialByNextLinkOnly(t *testing.T) {
	f := &fakeFetcher{totalPages: 3, linkStyle: true, onlyNext: true}

	pages, err := Fetch(context.Background(), f, "https://example.com/api?page=1", "merge_request", Range{}, 10, 0)
	require.NoError(t, err)
	require.Len(t, pages, 3)
	for i, p := range pages {
		assert.Equal(t, i+1, p.Index)
		assert.Equal(t, []byte(fmt.Sprintf("page-%d", i+1)), p.Body)
	}
}

func TestFetchParallelViaLastLink(t *testing.T) {
	f := &fakeFetcher{totalPages: 6, linkStyle: true}

	pages, err := Fetch(context.Background(), f, "https://example.com/api?page=1", "merge_request", Range{}, 10, 0)
	require.NoError(t, err)
	require.Len(t, pages, 6)

	for i, p := range pages {
		assert.Equal(t, i+1, p.Index)
		assert.Equal(t, []byte(fmt.Sprintf("page-%d", i+1)), p.Body)
	}
}

func TestFetchFallbackByPageParamStopsOnEmptyBody(t *testing.T) {
	f := &fakeFetcher{totalPages: 2, linkStyle: false}

	pages, err := Fetch(context.Background(), f, "https://example.com/api?page=1", "merge_request", Range{}, 10, 0)
	require.NoError(t, err)
	require.Len(t, pages, 2)
}

func TestFetchRespectsMaxPages(t *testing.T) {
	f := &fakeFetcher{totalPages: 10, linkStyle: true}

	pages, err := Fetch(context.Background(), f, "https://example.com/api?page=1", "merge_request", Range{}, 4, 0)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(pages), 4)
}

func TestFetchAbortsWhenRateLimitedMidPagination(t *testing.T) {
	f := &fakeFetcher{totalPages: 5, linkStyle: true, rateLimited: true}

	_, err := Fetch(context.Background(), f, "https://example.com/api?page=1", "merge_request", Range{}, 10, 0)
	require.Error(t, err)
}

func TestNumPagesShortCircuits(t *testing.T) {
	f := &fakeFetcher{totalPages: 7, linkStyle: true}

	n, err := NumPages(context.Background(), f, "https://example.com/api?page=1", "merge_request")
	require.NoError(t, err)
	assert.Equal(t, 7, n)
	assert.Len(t, f.requested, 1, "NumPages must only issue one request")
}

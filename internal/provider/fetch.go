package provider

import (
	"context"
	"encoding/json"
	"time"

	"github.com/denchenko/gitar/internal/engine"
	"github.com/denchenko/gitar/internal/grerror"
	"github.com/denchenko/gitar/internal/paginator"
)

// FetchJSON issues a single request through eng and unmarshals the body
// into a *T, used by provider adapters for non-paginated operations.
func FetchJSON[T any](ctx context.Context, eng *engine.Engine, method, url, category string, body []byte, ttlSeconds int) (*T, error) {
	resp, err := eng.Fetch(ctx, engine.Request{Method: method, URL: url, Body: body}, category, time.Duration(ttlSeconds)*time.Second)
	if err != nil {
		return nil, err
	}

	var out T
	if len(resp.Body) > 0 {
		if err := json.Unmarshal(resp.Body, &out); err != nil {
			return nil, grerror.Wrap(grerror.Parse, "decoding response body", err)
		}
	}

	return &out, nil
}

// FetchPages paginates url via internal/paginator and unmarshals each
// page's JSON array body into []T, flattening in ascending page order
// (spec.md §4.6, §4.7).
func FetchPages[T any](ctx context.Context, eng *engine.Engine, url, category string, rng PageRange, maxPages, ttlSeconds int) ([]T, error) {
	pages, err := paginator.Fetch(ctx, eng, url, category, paginator.Range{From: rng.From, To: rng.To}, maxPages, ttlSeconds)
	if err != nil {
		return nil, err
	}

	var all []T
	for _, page := range pages {
		if len(page.Body) == 0 {
			continue
		}

		var items []T
		if err := json.Unmarshal(page.Body, &items); err != nil {
			return nil, grerror.Wrap(grerror.Parse, "decoding paginated response body", err)
		}
		all = append(all, items...)
	}

	return all, nil
}

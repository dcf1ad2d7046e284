// Package engine implements gitar's cached-request engine (spec.md §4.5,
// C5): the component that composes the cache store, throttle governor and
// HTTP transport into the single `fetch(req, category) -> Response`
// decision procedure every provider adapter calls through.
package engine

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/denchenko/gitar/internal/cache"
	"github.com/denchenko/gitar/internal/grerror"
	"github.com/denchenko/gitar/internal/throttle"
	"github.com/denchenko/gitar/internal/transport"
)

// Source tags how a Response was produced (spec.md §4.5).
type Source string

const (
	SourceFresh       Source = "fresh"
	SourceCached      Source = "cached"
	SourceRevalidated Source = "revalidated"
)

// Request is a provider-materialized HTTP request, not yet dispatched.
type Request struct {
	Method  string
	URL     string
	Headers http.Header
	Body    []byte
}

// Response is the result of Fetch: a body plus headers plus a source tag.
type Response struct {
	Status  int
	Headers http.Header
	Body    []byte
	Source  Source
}

// Engine binds one domain's cache, transport and throttle governor.
type Engine struct {
	domain            string
	cache             *cache.Store
	transport         *transport.Client
	governor          *throttle.Governor
	strategy          throttle.Strategy
	authDiscriminator string
}

// New builds an Engine for domain. authDiscriminator identifies the
// authenticated user for cache-key purposes (spec.md §3).
func New(domain string, store *cache.Store, client *transport.Client, governor *throttle.Governor, authDiscriminator string) *Engine {
	return &Engine{
		domain:            domain,
		cache:             store,
		transport:         client,
		governor:          governor,
		strategy:          throttle.AutoRate{},
		authDiscriminator: authDiscriminator,
	}
}

// SetStrategy overrides the throttle strategy, used for the CLI's
// `--throttle`/`--throttle-range` flags (spec.md §4.4).
func (e *Engine) SetStrategy(s throttle.Strategy) {
	e.strategy = s
}

// RateLimited reports whether the domain's current snapshot is at or below
// threshold, the signal the paginator uses to abort further pages.
func (e *Engine) RateLimited() bool {
	return e.governor.RateLimited()
}

// Fetch implements the 7-step decision procedure from spec.md §4.5.
func (e *Engine) Fetch(ctx context.Context, req Request, category string, ttl time.Duration) (*Response, error) {
	key := cache.Key(req.Method, req.URL, req.Body, e.authDiscriminator)

	var entry *cache.Entry
	if e.cache.Enabled() {
		if found, ok := e.cache.Get(e.domain, category, key); ok {
			entry = found

			if ttl > 0 && time.Since(entry.StoredAt) < ttl {
				return &Response{
					Status:  entry.Status,
					Headers: entry.Headers,
					Body:    entry.Body,
					Source:  SourceCached,
				}, nil
			}
		}
	}

	headers := req.Headers.Clone()
	if headers == nil {
		headers = http.Header{}
	}
	if entry != nil && entry.HasValidators() {
		if entry.ETag != "" {
			headers.Set("If-None-Match", entry.ETag)
		}
		if entry.LastModified != "" {
			headers.Set("If-Modified-Since", entry.LastModified)
		}
	}

	if err := e.governor.Wait(ctx, e.strategy); err != nil {
		return nil, grerror.Wrap(grerror.Cancelled, "waiting on throttle governor", err)
	}

	resp, err := e.transport.Do(ctx, &transport.Request{
		Method:  req.Method,
		URL:     req.URL,
		Headers: headers,
		Body:    req.Body,
	})
	if err != nil {
		return nil, err
	}

	e.governor.UpdateFromHeaders(resp.Headers)

	switch {
	case resp.Status == http.StatusNotModified:
		if entry == nil {
			return nil, grerror.New(grerror.Provider, "received 304 Not Modified with no cached entry to revalidate")
		}

		now := time.Now().UTC()
		if e.cache.Enabled() {
			if err := e.cache.Touch(e.domain, category, key, now); err != nil {
				return nil, err
			}
		}

		return &Response{
			Status:  entry.Status,
			Headers: entry.Headers,
			Body:    entry.Body,
			Source:  SourceRevalidated,
		}, nil

	case resp.Status >= 200 && resp.Status < 300:
		newEntry := &cache.Entry{
			Status:       resp.Status,
			ETag:         resp.Headers.Get("ETag"),
			LastModified: resp.Headers.Get("Last-Modified"),
			StoredAt:     time.Now().UTC(),
			Headers:      resp.Headers,
			Body:         resp.Body,
		}

		if e.cache.Enabled() {
			if err := e.cache.Put(e.domain, category, key, newEntry); err != nil {
				return nil, err
			}
		}

		return &Response{
			Status:  resp.Status,
			Headers: resp.Headers,
			Body:    resp.Body,
			Source:  SourceFresh,
		}, nil

	case resp.Status == http.StatusTooManyRequests:
		return nil, grerror.New(grerror.RateLimited, fmt.Sprintf("%s %s returned 429", req.Method, req.URL))

	case resp.Status == http.StatusUnauthorized || resp.Status == http.StatusForbidden:
		return nil, grerror.New(grerror.Auth, fmt.Sprintf("%s %s returned %d", req.Method, req.URL, resp.Status))

	case resp.Status == http.StatusNotFound:
		return nil, grerror.New(grerror.NotFound, fmt.Sprintf("%s %s returned 404", req.Method, req.URL))

	default:
		return nil, grerror.New(grerror.Provider, fmt.Sprintf("%s %s returned unexpected status %d", req.Method, req.URL, resp.Status))
	}
}

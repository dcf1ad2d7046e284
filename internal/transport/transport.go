// Package transport is gitar's HTTP execution layer (spec.md §4.3, C3): a
// retrying client with provider-aware authentication, built on
// hashicorp/go-retryablehttp the same way the teacher's go.sum pulls it in
// transitively via gitlab.com/gitlab-org/api/client-go.
package transport

import (
	"bytes"
	"context"
	"crypto/rand"
	"fmt"
	"io"
	"math"
	"math/big"
	"net"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/oauth2"

	"github.com/denchenko/gitar/internal/grerror"
)

// Scheme selects how the Authorization header is built for a provider
// (spec.md §6: "Bearer <token> on one provider and token <token>/Bearer
// <token> on the other").
type Scheme int

const (
	SchemeBearer Scheme = iota
	SchemeToken
)

const (
	maxAttempts      = 3
	connectTimeout   = 10 * time.Second
	attemptTimeout   = 60 * time.Second
	maxRedirects     = 5
	baseBackoff      = 500 * time.Millisecond
	jitterFraction   = 0.2
)

// Request is a fully materialized HTTP request ready for dispatch.
type Request struct {
	Method  string
	URL     string
	Headers http.Header
	Body    []byte
}

// Response is the result of a dispatched request.
type Response struct {
	Status  int
	Headers http.Header
	Body    []byte
	Elapsed time.Duration
}

// Client executes Requests with retry/backoff and provider authentication.
type Client struct {
	http *retryablehttp.Client
}

// New builds a Client. token and scheme configure the Authorization header
// added to every outgoing request via an oauth2.StaticTokenSource, the same
// construction the pack's GitHub client (spiffcs-triage/internal/ghclient)
// uses for its bearer token.
func New(token string, scheme Scheme) *Client {
	base := retryablehttp.NewClient()
	base.Logger = nil
	base.RetryMax = maxAttempts - 1
	base.CheckRetry = checkRetry
	base.Backoff = backoff
	// A 429 that outlasts the retry budget is handed back as a response so
	// the engine classifies it as rate-limited; any other exhausted retry
	// becomes an error.
	base.ErrorHandler = func(resp *http.Response, err error, attempts int) (*http.Response, error) {
		if err == nil && resp != nil && resp.StatusCode == http.StatusTooManyRequests {
			return resp, nil
		}
		if resp != nil {
			resp.Body.Close()
		}
		if err == nil {
			err = fmt.Errorf("giving up after %d attempt(s)", attempts)
		}

		return nil, err
	}

	base.HTTPClient = &http.Client{
		Timeout: attemptTimeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return fmt.Errorf("stopped after %d redirects", maxRedirects)
			}

			return nil
		},
	}

	if tr, ok := base.HTTPClient.Transport.(*http.Transport); ok {
		tr.DialContext = dialContextWithTimeout(connectTimeout)
	} else {
		tr := &http.Transport{DialContext: dialContextWithTimeout(connectTimeout)}
		base.HTTPClient.Transport = tr
	}

	tokenSource := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	base.HTTPClient.Transport = &authTransport{
		base:   base.HTTPClient.Transport,
		scheme: scheme,
		source: tokenSource,
	}

	return &Client{http: base}
}

// Do executes req and returns the response. Transport failures and
// retryable HTTP statuses are retried per spec.md §4.3; exhausting the
// retry budget surfaces a grerror.Network error, except that a final 429 is
// returned as the response.
func (c *Client) Do(ctx context.Context, req *Request) (*Response, error) {
	start := time.Now()

	var bodyReader io.Reader
	if req.Body != nil {
		bodyReader = bytes.NewReader(req.Body)
	}

	rreq, err := retryablehttp.NewRequestWithContext(ctx, req.Method, req.URL, bodyReader)
	if err != nil {
		return nil, grerror.Wrap(grerror.Network, "building request", err)
	}
	rreq.Header = req.Headers.Clone()

	resp, err := c.http.Do(rreq)
	if err != nil {
		if ctx.Err() != nil {
			return nil, grerror.Wrap(grerror.Cancelled, "request cancelled", ctx.Err())
		}

		return nil, grerror.Wrap(grerror.Network, fmt.Sprintf("%s %s failed after retries", req.Method, req.URL), err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, grerror.Wrap(grerror.Network, "reading response body", err)
	}

	return &Response{
		Status:  resp.StatusCode,
		Headers: resp.Header,
		Body:    body,
		Elapsed: time.Since(start),
	}, nil
}

// checkRetry retries transport errors and 5xx/429 responses; any other 4xx
// is non-retryable (spec.md §4.3).
func checkRetry(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}

	if err != nil {
		return true, nil
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return true, nil
	}
	if resp.StatusCode >= 500 {
		return true, nil
	}

	return false, nil
}

// backoff implements 0.5s/1s/2s with ±20% jitter, per spec.md §4.3.
func backoff(min, max time.Duration, attemptNum int, resp *http.Response) time.Duration {
	delay := time.Duration(float64(baseBackoff) * math.Pow(2, float64(attemptNum)))

	jitter := jitterDuration(delay, jitterFraction)

	return delay + jitter
}

// jitterDuration returns a random offset in [-fraction*d, +fraction*d].
func jitterDuration(d time.Duration, fraction float64) time.Duration {
	span := int64(float64(d) * fraction * 2)
	if span <= 0 {
		return 0
	}

	n, err := rand.Int(rand.Reader, big.NewInt(span))
	if err != nil {
		return 0
	}

	return time.Duration(n.Int64()) - time.Duration(float64(d)*fraction)
}

type authTransport struct {
	base   http.RoundTripper
	scheme Scheme
	source oauth2.TokenSource
}

func (t *authTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	token, err := t.source.Token()
	if err != nil {
		return nil, fmt.Errorf("resolving auth token: %w", err)
	}

	clone := req.Clone(req.Context())
	switch t.scheme {
	case SchemeToken:
		clone.Header.Set("Authorization", "token "+token.AccessToken)
	default:
		clone.Header.Set("Authorization", "Bearer "+token.AccessToken)
	}

	base := t.base
	if base == nil {
		base = http.DefaultTransport
	}

	return base.RoundTrip(clone)
}

func dialContextWithTimeout(timeout time.Duration) func(ctx context.Context, network, addr string) (net.Conn, error) {
	d := &net.Dialer{Timeout: timeout}

	return d.DialContext
}

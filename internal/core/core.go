// Package core wires a resolved domain configuration into a ready-to-use
// App, composing internal/cache, internal/transport, internal/throttle
// and internal/engine exactly as the teacher's adapters.go does for its
// single GitLab repository, generalized to pick a provider.Provider
// implementation per domain.
package core

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	do "github.com/samber/do/v2"

	"github.com/denchenko/gitar/internal/cache"
	"github.com/denchenko/gitar/internal/config"
	"github.com/denchenko/gitar/internal/core/app"
	"github.com/denchenko/gitar/internal/engine"
	"github.com/denchenko/gitar/internal/issue"
	"github.com/denchenko/gitar/internal/provider"
	"github.com/denchenko/gitar/internal/provider/github"
	"github.com/denchenko/gitar/internal/provider/gitlab"
	"github.com/denchenko/gitar/internal/throttle"
	"github.com/denchenko/gitar/internal/transport"
)

// Package is the DI module cmd/gr's injector loads, mirroring the
// teacher's do.Package(do.Lazy[*app.App](NewApp)) shape.
var Package = do.Package(
	do.Lazy[*Resolver](NewResolver),
)

const (
	gitLabAPISuffix = "/api/v4"
	gitHubAPIHost   = "api.github.com"
)

// Resolver builds a domain's App on demand, lazily, the first time a CLI
// invocation names that domain. It is the one place deciding which
// provider.Provider implementation a domain gets.
type Resolver struct {
	cfg *config.Config
}

// NewResolver is the DI constructor for Resolver.
func NewResolver(i do.Injector) (*Resolver, error) {
	cfg := do.MustInvoke[*config.Config](i)

	return &Resolver{cfg: cfg}, nil
}

// App builds the App for domainName: resolves its DomainConfig, then
// composes cache/transport/throttle/engine and picks the GitHub or
// GitLab adapter based on the domain's own host name. strategy overrides
// the engine's default AutoRate throttle strategy when the CLI passed
// --throttle/--throttle-range; pass nil to keep the default.
func (r *Resolver) App(domainName string, strategy throttle.Strategy) (*app.App, error) {
	dc, err := r.cfg.Resolve(domainName)
	if err != nil {
		return nil, err
	}

	store := cache.New(dc.CacheLocation)
	scheme := transport.SchemeBearer
	if isGitHub(domainName) {
		scheme = transport.SchemeToken
	}

	client := transport.New(dc.APIToken, scheme)
	governor := throttle.NewGovernor(dc.RateLimitRemainingThreshold)
	eng := engine.New(domainName, store, client, governor, tokenDiscriminator(dc.APIToken))
	if strategy != nil {
		eng.SetStrategy(strategy)
	}

	p := providerFor(domainName, eng, dc)

	return app.New(p), nil
}

// Issuer builds the issue.Issuer configured for domainName's
// issue_url_template (spec.md's IssueURLTemplate), since the URL template
// is per-domain configuration, not a process-wide singleton.
func (r *Resolver) Issuer(domainName string) (*issue.Issuer, error) {
	dc, err := r.cfg.Resolve(domainName)
	if err != nil {
		return nil, err
	}

	iss, err := issue.New(dc.IssueURLTemplate, "")
	if err != nil {
		return nil, err
	}

	return iss, nil
}

func providerFor(domainName string, eng *engine.Engine, dc *config.DomainConfig) provider.Provider {
	if isGitHub(domainName) {
		return github.New(eng, "https://"+gitHubAPIHost, dc.MaxPagesFor)
	}

	return gitlab.New(eng, "https://"+domainName+gitLabAPISuffix, dc.MaxPagesFor)
}

func isGitHub(domainName string) bool {
	return domainName == "github.com" || strings.HasSuffix(domainName, ".github.com")
}

// tokenDiscriminator hashes the API token into the cache key's
// authenticated-user discriminator (spec.md §3) without requiring an
// extra round trip to resolve the current user before the first request.
func tokenDiscriminator(token string) string {
	sum := sha256.Sum256([]byte(token))

	return hex.EncodeToString(sum[:])[:16]
}

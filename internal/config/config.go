// Package config resolves gitar's layered TOML configuration into a
// per-domain settings object (spec.md §4.1, C1). It is the one component
// that reaches for a dependency the rest of the retrieved pack never uses
// (BurntSushi/toml) because no example repo ships a structured-config
// library for this ambient concern; see DESIGN.md.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	do "github.com/samber/do/v2"

	"github.com/denchenko/gitar/internal/grerror"
)

// Package is the DI module cmd/gr's injector loads, mirroring the
// teacher's config.Package.
var Package = do.Package(
	do.Lazy[*Config](NewConfigFromDI),
)

// NewConfigFromDI is the DI constructor for Config, reading from the
// default config directory (spec.md §6).
func NewConfigFromDI(_ do.Injector) (*Config, error) {
	return Load(DefaultConfigDir())
}

const (
	// DefaultRateLimitRemainingThreshold is used when a domain omits the key
	// (spec.md §3).
	DefaultRateLimitRemainingThreshold = 10

	// DefaultMaxPages is used when a domain omits a per-category override.
	DefaultMaxPages = 10

	appDirName     = "gitar"
	tokenEnvSuffix = "_API_TOKEN"
)

// MergeRequestsConfig holds merge-request-specific settings for a domain, or
// for a single project overriding the domain (per §4.1, overrides shadow,
// never merge, the domain-level table).
type MergeRequestsConfig struct {
	PreferredAssignee   string
	PreferredAssigneeID int
	Members             []string
}

// DomainConfig is the resolved, per-domain configuration (spec.md §3).
type DomainConfig struct {
	Domain                      string
	APIToken                    string
	CacheLocation               string
	RateLimitRemainingThreshold int
	MaxPages                    map[string]int
	CacheExpirations            map[string]time.Duration
	MergeRequests               MergeRequestsConfig
	IssueURLTemplate            string
	mrOverrides                 map[string]MergeRequestsConfig
}

// CacheEnabled reports whether the invariant "cache_location absent ⇒
// bypass cache" applies to this domain (spec.md §3).
func (d *DomainConfig) CacheEnabled() bool {
	return d.CacheLocation != ""
}

// MaxPagesFor returns the configured max-pages for category, or the default.
func (d *DomainConfig) MaxPagesFor(category string) int {
	if d.MaxPages != nil {
		if v, ok := d.MaxPages[category]; ok {
			return v
		}
	}

	return DefaultMaxPages
}

// TTLFor returns the configured TTL for category, or zero (automatic
// revalidation, spec.md §3).
func (d *DomainConfig) TTLFor(category string) time.Duration {
	if d.CacheExpirations != nil {
		return d.CacheExpirations[category]
	}

	return 0
}

// MergeRequestSettingsFor resolves the per-project override for
// "<group>_<project>" if one exists, else falls back to the domain-level
// table. Overrides shadow (replace), they never merge field-by-field
// (Open Question (b), resolved in spec.md §9).
func (d *DomainConfig) MergeRequestSettingsFor(groupProject string) MergeRequestsConfig {
	if d.mrOverrides != nil {
		if override, ok := d.mrOverrides[groupProject]; ok {
			return override
		}
	}

	return d.MergeRequests
}

// Config is the fully resolved, multi-domain configuration.
type Config struct {
	Domains map[string]*DomainConfig
}

// Resolve returns the DomainConfig for domain, synthesizing an env-only
// config if the domain was never named by any file (spec.md §4.1).
func (c *Config) Resolve(domain string) (*DomainConfig, error) {
	if dc, ok := c.Domains[domain]; ok {
		return dc, nil
	}

	return domainConfigFromEnv(domain)
}

// Load reads configDir's main file (gitar.toml) plus every sibling
// "<domain>.toml" / "<domain>_<group>_<project>.toml" file and merges them.
// Duplicate fully-qualified keys across files are a fatal config error
// naming both files (spec.md §4.1, §8 scenario 6). A missing configDir is
// not an error: Resolve() then falls back entirely to environment variables.
func Load(configDir string) (*Config, error) {
	entries, err := os.ReadDir(configDir)
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{Domains: map[string]*DomainConfig{}}, nil
		}

		return nil, grerror.Wrap(grerror.Config, "reading config directory", err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".toml") {
			continue
		}
		files = append(files, filepath.Join(configDir, e.Name()))
	}
	sort.Strings(files)

	merged := map[string]any{}
	origin := map[string]string{}

	for _, path := range files {
		var doc map[string]any
		if _, err := toml.DecodeFile(path, &doc); err != nil {
			return nil, grerror.Wrap(grerror.Config, fmt.Sprintf("parsing %s", path), err)
		}

		if err := mergeInto(merged, origin, doc, "", path); err != nil {
			return nil, err
		}
	}

	domains := map[string]*DomainConfig{}
	for domain, raw := range merged {
		table, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		dc, err := decodeDomain(domain, table)
		if err != nil {
			return nil, err
		}
		domains[domain] = dc
	}

	return &Config{Domains: domains}, nil
}

// mergeInto recursively folds src into dst, tracking which file first
// contributed each dotted key path and rejecting a second file that
// contributes the same leaf path.
func mergeInto(dst map[string]any, origin map[string]string, src map[string]any, prefix, file string) error {
	for k, v := range src {
		path := k
		if prefix != "" {
			path = prefix + "." + k
		}

		subTable, isTable := v.(map[string]any)
		existing, exists := dst[k]

		if isTable {
			existingTable, existingIsTable := existing.(map[string]any)
			if !exists {
				existingTable = map[string]any{}
				dst[k] = existingTable
			} else if !existingIsTable {
				return duplicateKeyError(path, origin[path], file)
			}
			if err := mergeInto(existingTable, origin, subTable, path, file); err != nil {
				return err
			}

			continue
		}

		if exists {
			return duplicateKeyError(path, origin[path], file)
		}
		dst[k] = v
		origin[path] = file
	}

	return nil
}

func duplicateKeyError(path, firstFile, secondFile string) error {
	return grerror.New(grerror.Config, fmt.Sprintf(
		"duplicate key %q defined in both %s and %s", path, firstFile, secondFile,
	))
}

func decodeDomain(domain string, table map[string]any) (*DomainConfig, error) {
	dc := &DomainConfig{
		Domain:                      domain,
		RateLimitRemainingThreshold: DefaultRateLimitRemainingThreshold,
		MaxPages:                    map[string]int{},
		CacheExpirations:            map[string]time.Duration{},
		mrOverrides:                 map[string]MergeRequestsConfig{},
	}

	if v, ok := table["api_token"].(string); ok {
		dc.APIToken = v
	}
	if v, ok := table["cache_location"].(string); ok {
		dc.CacheLocation = v
	}
	if v, ok := toInt(table["rate_limit_remaining_threshold"]); ok {
		dc.RateLimitRemainingThreshold = v
	}
	if v, ok := table["issue_url_template"].(string); ok {
		dc.IssueURLTemplate = v
	}

	if maxPages, ok := table["max_pages_api"].(map[string]any); ok {
		for category, v := range maxPages {
			if n, ok := toInt(v); ok {
				dc.MaxPages[category] = n
			}
		}
	}

	if expirations, ok := table["cache_expirations"].(map[string]any); ok {
		for category, v := range expirations {
			s, ok := v.(string)
			if !ok {
				continue
			}
			d, err := time.ParseDuration(s)
			if err != nil {
				return nil, grerror.Wrap(grerror.Config,
					fmt.Sprintf("invalid cache_expirations.%s for domain %s", category, domain), err)
			}
			dc.CacheExpirations[category] = d
		}
	}

	if mr, ok := table["merge_requests"].(map[string]any); ok {
		dc.MergeRequests = decodeMergeRequests(mr)

		if overrides, ok := mr["overrides"].(map[string]any); ok {
			for key, v := range overrides {
				if overrideTable, ok := v.(map[string]any); ok {
					dc.mrOverrides[key] = decodeMergeRequests(overrideTable)
				}
			}
		}
	}

	if dc.APIToken == "" {
		dc.APIToken = os.Getenv(tokenEnvVar(domain))
	}

	return dc, nil
}

func decodeMergeRequests(table map[string]any) MergeRequestsConfig {
	var mr MergeRequestsConfig
	if v, ok := table["preferred_assignee"].(string); ok {
		mr.PreferredAssignee = v
	}
	if v, ok := toInt(table["preferred_assignee_id"]); ok {
		mr.PreferredAssigneeID = v
	}
	if members, ok := table["members"].([]any); ok {
		for _, m := range members {
			if s, ok := m.(string); ok {
				mr.Members = append(mr.Members, s)
			}
		}
	}

	return mr
}

func toInt(v any) (int, bool) {
	switch t := v.(type) {
	case int64:
		return int(t), true
	case int:
		return t, true
	case float64:
		return int(t), true
	case string:
		n, err := strconv.Atoi(t)
		return n, err == nil
	default:
		return 0, false
	}
}

var nonAlnum = regexp.MustCompile(`[^A-Za-z0-9]`)

// tokenEnvVar computes "<DOMAIN>_API_TOKEN" per spec.md §4.1/§6, e.g.
// gitlab.com -> GITLAB_COM_API_TOKEN.
func tokenEnvVar(domain string) string {
	return strings.ToUpper(nonAlnum.ReplaceAllString(domain, "_")) + tokenEnvSuffix
}

// domainConfigFromEnv builds a DomainConfig using only environment
// variables, for a domain no config file mentioned (spec.md §4.1).
func domainConfigFromEnv(domain string) (*DomainConfig, error) {
	token := os.Getenv(tokenEnvVar(domain))
	if token == "" {
		return nil, grerror.New(grerror.Auth,
			fmt.Sprintf("no api_token configured for domain %s (checked config files and %s)", domain, tokenEnvVar(domain)))
	}

	return &DomainConfig{
		Domain:                      domain,
		APIToken:                    token,
		RateLimitRemainingThreshold: DefaultRateLimitRemainingThreshold,
		MaxPages:                    map[string]int{},
		CacheExpirations:            map[string]time.Duration{},
		mrOverrides:                 map[string]MergeRequestsConfig{},
	}, nil
}

// DefaultConfigDir resolves $XDG_CONFIG_HOME/gitar, falling back to
// $HOME/.config/gitar (spec.md §6).
func DefaultConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, appDirName)
	}

	return filepath.Join(os.Getenv("HOME"), ".config", appDirName)
}

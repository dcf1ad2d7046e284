package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600))
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name     string
		files    map[string]string
		validate func(*testing.T, *Config)
		wantErr  bool
	}{
		{
			name: "single domain in main file",
			files: map[string]string{
				"gitar.toml": `
["gitlab.com"]
api_token = "glpat-123"
cache_location = "/tmp/gitar-cache"
rate_limit_remaining_threshold = 5

["gitlab.com".max_pages_api]
merge_request = 3

["gitlab.com".cache_expirations]
merge_request = "5m"

["gitlab.com".merge_requests]
preferred_assignee = "alice"
members = ["alice", "bob"]
`,
			},
			validate: func(t *testing.T, c *Config) {
				dc, err := c.Resolve("gitlab.com")
				require.NoError(t, err)
				assert.Equal(t, "glpat-123", dc.APIToken)
				assert.True(t, dc.CacheEnabled())
				assert.Equal(t, 5, dc.RateLimitRemainingThreshold)
				assert.Equal(t, 3, dc.MaxPagesFor("merge_request"))
				assert.Equal(t, DefaultMaxPages, dc.MaxPagesFor("pipeline"))
				assert.Equal(t, 5*time.Minute, dc.TTLFor("merge_request"))
				assert.Equal(t, "alice", dc.MergeRequests.PreferredAssignee)
				assert.Equal(t, []string{"alice", "bob"}, dc.MergeRequests.Members)
			},
		},
		{
			name: "domain split across sibling file",
			files: map[string]string{
				"gitar.toml": `
["gitlab.com"]
api_token = "glpat-main"
`,
				"gitlab_com.toml": `
["gitlab.com"]
cache_location = "/tmp/gitar-cache"
`,
			},
			validate: func(t *testing.T, c *Config) {
				dc, err := c.Resolve("gitlab.com")
				require.NoError(t, err)
				assert.Equal(t, "glpat-main", dc.APIToken)
				assert.Equal(t, "/tmp/gitar-cache", dc.CacheLocation)
			},
		},
		{
			name: "per-project override shadows domain settings",
			files: map[string]string{
				"gitar.toml": `
["gitlab.com"]
api_token = "glpat-main"

["gitlab.com".merge_requests]
preferred_assignee = "alice"
members = ["alice", "bob"]

["gitlab.com".merge_requests.overrides.myteam_myproject]
preferred_assignee = "carol"
`,
			},
			validate: func(t *testing.T, c *Config) {
				dc, err := c.Resolve("gitlab.com")
				require.NoError(t, err)

				override := dc.MergeRequestSettingsFor("myteam_myproject")
				assert.Equal(t, "carol", override.PreferredAssignee)
				assert.Empty(t, override.Members, "override replaces the domain table, it does not merge members into it")

				fallback := dc.MergeRequestSettingsFor("other_project")
				assert.Equal(t, "alice", fallback.PreferredAssignee)
				assert.Equal(t, []string{"alice", "bob"}, fallback.Members)
			},
		},
		{
			name: "duplicate key across files is an error",
			files: map[string]string{
				"gitar.toml": `
["gitlab.com"]
api_token = "glpat-main"
`,
				"gitlab_com.toml": `
["gitlab.com"]
api_token = "glpat-duplicate"
`,
			},
			wantErr: true,
		},
		{
			name:  "empty config directory falls back to environment",
			files: nil,
			validate: func(t *testing.T, c *Config) {
				assert.Empty(t, c.Domains)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			for name, content := range tt.files {
				writeFile(t, dir, name, content)
			}

			cfg, err := Load(dir)

			if tt.wantErr {
				require.Error(t, err)
				return
			}

			require.NoError(t, err)
			if tt.validate != nil {
				tt.validate(t, cfg)
			}
		})
	}
}

func TestLoadMissingDirectory(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist"))
	require.NoError(t, err)
	assert.Empty(t, cfg.Domains)
}

func TestResolveFallsBackToEnv(t *testing.T) {
	t.Setenv("GITHUB_COM_API_TOKEN", "ghp-from-env")

	cfg := &Config{Domains: map[string]*DomainConfig{}}
	dc, err := cfg.Resolve("github.com")
	require.NoError(t, err)
	assert.Equal(t, "ghp-from-env", dc.APIToken)
	assert.False(t, dc.CacheEnabled())
}

func TestResolveMissingTokenIsAuthError(t *testing.T) {
	t.Setenv("GITHUB_COM_API_TOKEN", "")
	_ = os.Unsetenv("GITHUB_COM_API_TOKEN")

	cfg := &Config{Domains: map[string]*DomainConfig{}}
	_, err := cfg.Resolve("github.com")
	require.Error(t, err)
}

func TestTokenEnvVar(t *testing.T) {
	assert.Equal(t, "GITLAB_COM_API_TOKEN", tokenEnvVar("gitlab.com"))
	assert.Equal(t, "GITHUB_COM_API_TOKEN", tokenEnvVar("github.com"))
}

func TestDefaultConfigDir(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/home/someone/.config")
	assert.Equal(t, "/home/someone/.config/gitar", DefaultConfigDir())
}

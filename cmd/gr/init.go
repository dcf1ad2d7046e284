package main

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"github.com/denchenko/gitar/internal/config"
)

// newInitCommand writes a starter gitar.toml for one domain into
// $XDG_CONFIG_HOME/gitar, prompting interactively for the fields
// internal/config.DomainConfig needs.
func newInitCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write a starter configuration file",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return runInit(os.Stdin, os.Stdout)
		},
	}
}

func runInit(in *os.File, out *os.File) error {
	reader := bufio.NewReader(in)

	domainName := prompt(reader, out, "Domain (e.g. gitlab.com): ")
	if domainName == "" {
		return fmt.Errorf("a domain is required")
	}

	token := prompt(reader, out, "API token (leave blank to read from env at runtime): ")
	cacheLocation := prompt(reader, out, "Cache directory (leave blank to disable caching): ")

	configDir := config.DefaultConfigDir()
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	doc := map[string]any{
		domainName: map[string]any{
			"api_token":      token,
			"cache_location": cacheLocation,
		},
	}

	path := filepath.Join(configDir, "gitar.toml")

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		if os.IsExist(err) {
			return fmt.Errorf("%s already exists, remove it first to reinitialize", path)
		}

		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(doc); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}

	fmt.Fprintf(out, "wrote %s\n", path)

	return nil
}

func prompt(reader *bufio.Reader, out *os.File, label string) string {
	fmt.Fprint(out, label)

	line, _ := reader.ReadString('\n')

	return trimNewline(line)
}

func trimNewline(s string) string {
	for len(s) > 0 && (s[len(s)-1] == '\n' || s[len(s)-1] == '\r') {
		s = s[:len(s)-1]
	}

	return s
}

// Package amps resolves and runs "amp" scripts: small shell scripts under
// $XDG_CONFIG_HOME/gitar/amps that wrap one or more gr invocations behind
// a single name. gitar itself never interprets their contents — it only
// discovers, lists and execs them, mirroring the os/exec idiom
// internal/core/app.go uses for git subcommands.
package amps

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
)

// Amp is one discovered amp script.
type Amp struct {
	Name string
	Path string
}

// List returns every *.sh file under dir, sorted by name. A missing dir
// is not an error: it yields an empty list.
func List(dir string) ([]Amp, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}

		return nil, fmt.Errorf("reading amps directory: %w", err)
	}

	var amps []Amp
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".sh") {
			continue
		}

		amps = append(amps, Amp{
			Name: strings.TrimSuffix(e.Name(), ".sh"),
			Path: filepath.Join(dir, e.Name()),
		})
	}

	sort.Slice(amps, func(i, j int) bool { return amps[i].Name < amps[j].Name })

	return amps, nil
}

// Resolve finds the amp named name under dir.
func Resolve(dir, name string) (Amp, error) {
	amps, err := List(dir)
	if err != nil {
		return Amp{}, err
	}

	for _, a := range amps {
		if a.Name == name {
			return a, nil
		}
	}

	return Amp{}, fmt.Errorf("amp %q not found in %s", name, dir)
}

// Exec runs the amp's script, inheriting the current process's stdio and
// injecting GR_TOKEN/GR_DOMAIN alongside the inherited environment.
func Exec(ctx context.Context, a Amp, token, domainName string, args []string) error {
	cmd := exec.CommandContext(ctx, "sh", append([]string{a.Path}, args...)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Env = append(os.Environ(),
		"GR_TOKEN="+token,
		"GR_DOMAIN="+domainName,
	)

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("running amp %q: %w", a.Name, err)
	}

	return nil
}

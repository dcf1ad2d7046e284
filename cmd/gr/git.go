package main

import (
	"context"
	"errors"
	"os/exec"
	"strings"
)

// detectGitRemote parses the current directory's "origin" remote into a
// domain host and project path, generalizing internal/core/app's
// projectPathFromRemote (which assumes the host is already known) since
// the CLI must pick a domain before an App exists to ask it.
func detectGitRemote(ctx context.Context) (domainHost, projectPath string, err error) {
	cmd := exec.CommandContext(ctx, "git", "remote", "get-url", "origin")
	out, err := cmd.Output()
	if err != nil {
		return "", "", errors.New("no --domain/--project given and no git remote \"origin\" found")
	}

	remoteURL := strings.TrimSpace(string(out))
	remoteURL = strings.TrimSuffix(remoteURL, ".git")

	if strings.HasPrefix(remoteURL, "git@") {
		rest := strings.TrimPrefix(remoteURL, "git@")
		parts := strings.SplitN(rest, ":", 2)
		if len(parts) != 2 {
			return "", "", errors.New("invalid SSH remote URL format")
		}

		return parts[0], parts[1], nil
	}

	rest := remoteURL
	rest = strings.TrimPrefix(rest, "https://")
	rest = strings.TrimPrefix(rest, "http://")
	parts := strings.SplitN(rest, "/", 2)
	if len(parts) != 2 {
		return "", "", errors.New("invalid HTTPS remote URL format")
	}

	return parts[0], parts[1], nil
}

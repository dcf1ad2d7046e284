package amps

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestList(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "deploy.sh"), []byte("#!/bin/sh\necho hi\n"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "release.sh"), []byte("#!/bin/sh\necho hi\n"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("not an amp"), 0o644))

	amps, err := List(dir)

	require.NoError(t, err)
	require.Len(t, amps, 2)
	assert.Equal(t, "deploy", amps[0].Name)
	assert.Equal(t, "release", amps[1].Name)
}

func TestListMissingDir(t *testing.T) {
	amps, err := List(filepath.Join(t.TempDir(), "nonexistent"))

	require.NoError(t, err)
	assert.Empty(t, amps)
}

func TestResolveNotFound(t *testing.T) {
	dir := t.TempDir()

	_, err := Resolve(dir, "missing")
	require.Error(t, err)
}

func TestExec(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("sh scripts require a POSIX shell")
	}

	dir := t.TempDir()
	script := filepath.Join(dir, "echo.sh")
	require.NoError(t, os.WriteFile(script, []byte("#!/bin/sh\nprintenv GR_TOKEN\n"), 0o755))

	a := Amp{Name: "echo", Path: script}

	err := Exec(context.Background(), a, "tok123", "gitlab.com", nil)
	require.NoError(t, err)
}

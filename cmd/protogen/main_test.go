// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Protogen Contributors

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate points the XDG directories at a temp dir so no real config or
// extension directory is read.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(dir, "data"))
	t.Setenv("HOME", dir)
	configFile = ""
	return dir
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

// writeExtension writes a single-file lua extension to root/name.
func writeExtension(t *testing.T, root, name, code string) string {
	t.Helper()
	dir := filepath.Join(root, name)
	require.NoError(t, os.MkdirAll(dir, 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(dir, name+".lua"), []byte(code), 0o600))
	return dir
}

func TestRootCommand_HasExpectedSubcommands(t *testing.T) {
	isolate(t)

	output, err := execute(t, "--help")
	require.NoError(t, err)

	for _, sub := range []string{"serve", "extensions", "status"} {
		assert.Contains(t, output, sub, "Help missing %q command", sub)
	}
}

func TestRootCommand_ConfigFlag(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		wantFlag string
	}{
		{"separate value", []string{"--config", "/path/to/config.yaml", "--help"}, "/path/to/config.yaml"},
		{"with equals", []string{"--config=/etc/protogen.yaml", "--help"}, "/etc/protogen.yaml"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)

			_, err := execute(t, tt.args...)

			require.NoError(t, err)
			assert.Equal(t, tt.wantFlag, configFile)
		})
	}
}

func TestRootCommand_PersistentConfigFlags(t *testing.T) {
	isolate(t)

	output, err := execute(t, "serve", "--help")
	require.NoError(t, err)

	for _, flag := range []string{"--apps-dir", "--sensors-dir", "--surfaces-dir", "--control-addr", "--log-level", "--watch"} {
		assert.Contains(t, output, flag)
	}
}

func TestRootCommand_MissingExplicitConfig(t *testing.T) {
	dir := isolate(t)

	_, err := execute(t, "extensions", "list", "--config", filepath.Join(dir, "missing.yaml"))

	require.Error(t, err)
}

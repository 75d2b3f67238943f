// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Protogen Contributors

package xdg

import (
	"errors"
	"os"
	"os/user"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stubUser(t *testing.T, u *user.User, err error) {
	t.Helper()
	orig := lookupUser
	lookupUser = func() (*user.User, error) { return u, err }
	t.Cleanup(func() { lookupUser = orig })
}

func TestHomeDir_EnvVar(t *testing.T) {
	t.Setenv("HOME", "/home/testuser")
	stubUser(t, nil, errors.New("must not be called"))

	got, err := HomeDir()

	require.NoError(t, err)
	assert.Equal(t, "/home/testuser", got)
}

func TestHomeDir_FallsBackToUserRecord(t *testing.T) {
	t.Setenv("HOME", "")
	stubUser(t, &user.User{Username: "proto", HomeDir: "/var/lib/proto"}, nil)

	got, err := HomeDir()

	require.NoError(t, err)
	assert.Equal(t, "/var/lib/proto", got)
}

func TestHomeDir_NoHome(t *testing.T) {
	t.Setenv("HOME", "")

	stubUser(t, nil, errors.New("no such user"))
	_, err := HomeDir()
	require.Error(t, err)

	stubUser(t, &user.User{Username: "proto"}, nil)
	_, err = HomeDir()
	require.Error(t, err)
}

func TestConfigDir(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/custom/config")
	got, err := ConfigDir()
	require.NoError(t, err)
	assert.Equal(t, "/custom/config/protogen", got)

	t.Setenv("XDG_CONFIG_HOME", "")
	t.Setenv("HOME", "/home/testuser")
	got, err = ConfigDir()
	require.NoError(t, err)
	assert.Equal(t, "/home/testuser/.config/protogen", got)
}

func TestDataDir(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "/custom/data")
	got, err := DataDir()
	require.NoError(t, err)
	assert.Equal(t, "/custom/data/protogen", got)

	t.Setenv("XDG_DATA_HOME", "")
	t.Setenv("HOME", "/home/testuser")
	got, err = DataDir()
	require.NoError(t, err)
	assert.Equal(t, "/home/testuser/.local/share/protogen", got)
}

func TestEnsureDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a", "b")

	require.NoError(t, EnsureDir(path))
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
	assert.Equal(t, os.FileMode(0o700), info.Mode().Perm())

	require.NoError(t, EnsureDir(path), "existing directory is fine")
}

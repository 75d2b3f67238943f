// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Protogen Contributors

// Package xdg provides home and XDG Base Directory paths for protogen.
package xdg

import (
	"os"
	"os/user"
	"path/filepath"

	"github.com/samber/oops"
)

const appName = "protogen"

// lookupUser is replaced in tests.
var lookupUser = user.Current

// HomeDir returns the user's home directory. It checks HOME first and
// falls back to the user database.
func HomeDir() (string, error) {
	if home := os.Getenv("HOME"); home != "" {
		return home, nil
	}
	u, err := lookupUser()
	if err != nil {
		return "", oops.In("xdg").Hint("HOME is unset and the user record lookup failed").Wrap(err)
	}
	if u.HomeDir == "" {
		return "", oops.In("xdg").With("user", u.Username).Errorf("user record has no home directory")
	}
	return u.HomeDir, nil
}

// ConfigDir returns the XDG config directory for protogen.
// Checks XDG_CONFIG_HOME first, falls back to ~/.config.
func ConfigDir() (string, error) {
	return baseDir("XDG_CONFIG_HOME", ".config")
}

// DataDir returns the XDG data directory for protogen.
// Checks XDG_DATA_HOME first, falls back to ~/.local/share.
func DataDir() (string, error) {
	return baseDir("XDG_DATA_HOME", filepath.Join(".local", "share"))
}

func baseDir(env, fallback string) (string, error) {
	base := os.Getenv(env)
	if base == "" {
		home, err := HomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, fallback)
	}
	return filepath.Join(base, appName), nil
}

// EnsureDir creates a directory and all parent directories if they don't exist.
// Directories are created with 0700 permissions.
func EnsureDir(path string) error {
	if err := os.MkdirAll(path, 0o700); err != nil {
		return oops.In("xdg").With("path", path).Wrap(err)
	}
	return nil
}

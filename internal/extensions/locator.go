// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Protogen Contributors

package extensions

import (
	"log/slog"
	"path/filepath"

	"github.com/mrf7777/protogen-software-sub000/internal/xdg"
)

// Locator derives a directory for a bundle. It reports false when no
// directory can be derived.
type Locator interface {
	Locate(b *Bundle) (string, bool)
}

// Default directory names.
const (
	DefaultHomeSubdir     = ".protogen"
	DefaultUserDataSubdir = "userdata"
	DefaultResourceSubdir = "resources"
)

// HomeUserDataLocator places user data at <home>/<HomeSubdir>/<id>/<Subdir>.
type HomeUserDataLocator struct {
	HomeSubdir string
	Subdir     string

	// Home resolves the home directory. Defaults to xdg.HomeDir.
	Home func() (string, error)

	// Create makes the directory if it does not exist.
	Create bool
}

// NewHomeUserDataLocator returns a locator for <home>/.protogen/<id>/userdata.
func NewHomeUserDataLocator() *HomeUserDataLocator {
	return &HomeUserDataLocator{
		HomeSubdir: DefaultHomeSubdir,
		Subdir:     DefaultUserDataSubdir,
		Home:       xdg.HomeDir,
	}
}

// Locate needs the extension id; an extension without one gets nothing.
func (l *HomeUserDataLocator) Locate(b *Bundle) (string, bool) {
	id := b.ID()
	if id == "" {
		return "", false
	}

	home := l.Home
	if home == nil {
		home = xdg.HomeDir
	}
	dir, err := home()
	if err != nil {
		slog.Warn("cannot resolve home directory for user data", "id", id, "error", err)
		return "", false
	}

	path := filepath.Join(dir, l.HomeSubdir, id, l.Subdir)
	if l.Create {
		if err := xdg.EnsureDir(path); err != nil {
			slog.Warn("cannot create user data directory", "id", id, "path", path, "error", err)
			return "", false
		}
	}
	return path, true
}

// ResourceLocator places resources at <Root>/<id>/<Subdir>. With an empty
// Root the bundle's own directory is used instead of <Root>/<id>.
type ResourceLocator struct {
	Root   string
	Subdir string
}

// NewResourceLocator returns a locator for <root>/<id>/resources.
func NewResourceLocator(root string) *ResourceLocator {
	return &ResourceLocator{Root: root, Subdir: DefaultResourceSubdir}
}

func (l *ResourceLocator) Locate(b *Bundle) (string, bool) {
	if l.Root == "" {
		if b.Dir == "" {
			return "", false
		}
		return filepath.Join(b.Dir, l.Subdir), true
	}
	id := b.ID()
	if id == "" {
		return "", false
	}
	return filepath.Join(l.Root, id, l.Subdir), true
}

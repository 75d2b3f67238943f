// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Protogen Contributors

package extensions

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/gobwas/glob"
	"github.com/samber/oops"

	"github.com/mrf7777/protogen-software-sub000/internal/extensions/module"
)

// Finder produces loaded extension bundles.
type Finder interface {
	Find(ctx context.Context) ([]*Bundle, error)
}

// ModuleLoader loads one module file. *module.Loader implements it.
type ModuleLoader interface {
	Match(name string) (module.Backend, bool)
	Load(path string) (*module.Handle, error)
}

// DirectoryFinder treats every immediate subdirectory of Root as one
// extension candidate holding exactly one module file.
type DirectoryFinder struct {
	root   string
	loader ModuleLoader
	ignore []glob.Glob
}

// NewDirectoryFinder creates a finder for root. ignore holds glob patterns
// matched against subdirectory names; matching candidates are not looked at.
func NewDirectoryFinder(root string, loader ModuleLoader, ignore ...string) (*DirectoryFinder, error) {
	f := &DirectoryFinder{root: root, loader: loader}
	for _, pattern := range ignore {
		g, err := glob.Compile(pattern)
		if err != nil {
			return nil, oops.In("finder").With("pattern", pattern).Hint("invalid ignore pattern").Wrap(err)
		}
		f.ignore = append(f.ignore, g)
	}
	return f, nil
}

// Root returns the scanned directory.
func (f *DirectoryFinder) Root() string {
	return f.root
}

// Candidates returns the extension directories Find looks at, in name
// order. A missing root has none.
func (f *DirectoryFinder) Candidates() ([]string, error) {
	entries, err := os.ReadDir(f.root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			slog.Debug("extension root does not exist", "root", f.root)
			return nil, nil
		}
		return nil, oops.In("finder").With("root", f.root).Wrap(err)
	}

	var dirs []string
	for _, entry := range entries {
		if entry.IsDir() && !f.ignored(entry.Name()) {
			dirs = append(dirs, filepath.Join(f.root, entry.Name()))
		}
	}
	return dirs, nil
}

// Find loads every valid candidate. Candidates that cannot be loaded are
// logged and skipped. Results are in directory name order.
func (f *DirectoryFinder) Find(ctx context.Context) ([]*Bundle, error) {
	dirs, err := f.Candidates()
	if err != nil {
		return nil, err
	}

	var bundles []*Bundle
	for _, dir := range dirs {
		if err := ctx.Err(); err != nil {
			releaseAll(bundles)
			return nil, oops.In("finder").With("root", f.root).Wrap(err)
		}

		path, ok := f.moduleFile(ctx, dir)
		if !ok {
			continue
		}

		h, err := f.loader.Load(path)
		if err != nil {
			slog.WarnContext(ctx, "skipping extension that failed to load",
				"dir", dir,
				"path", path,
				"error", err)
			continue
		}
		bundles = append(bundles, NewBundle(h.Extension(), dir, h))
	}
	return bundles, nil
}

func (f *DirectoryFinder) ignored(name string) bool {
	for _, g := range f.ignore {
		if g.Match(name) {
			return true
		}
	}
	return false
}

// moduleFile returns the single module file in dir.
func (f *DirectoryFinder) moduleFile(ctx context.Context, dir string) (string, bool) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		slog.WarnContext(ctx, "skipping unreadable extension directory", "dir", dir, "error", err)
		return "", false
	}

	var found []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if _, ok := f.loader.Match(e.Name()); ok {
			found = append(found, filepath.Join(dir, e.Name()))
		}
	}

	switch len(found) {
	case 1:
		return found[0], true
	case 0:
		slog.WarnContext(ctx, "skipping extension directory without a module file", "dir", dir)
	default:
		slog.WarnContext(ctx, "skipping extension directory with several module files",
			"dir", dir,
			"files", found)
	}
	return "", false
}

func releaseAll(bundles []*Bundle) {
	for _, b := range bundles {
		if err := b.Release(); err != nil {
			slog.Warn("releasing extension failed", "dir", b.Dir, "error", err)
		}
	}
}

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Protogen Contributors

// Package watch triggers extension reloads when extension directories change.
package watch

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/samber/oops"
)

// DefaultDebounce is used when no debounce interval is given.
const DefaultDebounce = 500 * time.Millisecond

// ReloadFunc is called once per burst of changes.
type ReloadFunc func(ctx context.Context) error

// Watcher watches extension roots and their immediate subdirectories.
type Watcher struct {
	roots    []string
	debounce time.Duration
	reload   ReloadFunc
}

// New creates a watcher over roots. Empty roots are ignored.
func New(roots []string, debounce time.Duration, reload ReloadFunc) *Watcher {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	kept := make([]string, 0, len(roots))
	for _, r := range roots {
		if r != "" {
			kept = append(kept, filepath.Clean(r))
		}
	}
	return &Watcher{roots: kept, debounce: debounce, reload: reload}
}

// Run watches until ctx is done. Reload errors are logged, not returned.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return oops.In("watch").Wrapf(err, "create watcher")
	}
	defer func() {
		if err := fsw.Close(); err != nil {
			slog.Warn("closing watcher failed", "error", err)
		}
	}()

	for _, root := range w.roots {
		w.addTree(fsw, root)
	}

	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if !w.relevant(ev) {
				continue
			}
			if ev.Has(fsnotify.Create) && w.isExtensionDir(ev.Name) {
				w.add(fsw, ev.Name)
			}
			slog.Debug("extension change detected", "path", ev.Name, "op", ev.Op.String())
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			slog.Warn("extension watcher error", "error", err)

		case <-fire:
			fire = nil
			slog.Info("reloading extensions after change")
			if err := w.reload(ctx); err != nil {
				slog.Error("reload after change failed", "error", err)
			}
		}
	}
}

// addTree watches root and every directory directly below it.
func (w *Watcher) addTree(fsw *fsnotify.Watcher, root string) {
	entries, err := os.ReadDir(root)
	if err != nil {
		slog.Warn("not watching extension root", "path", root, "error", err)
		return
	}
	w.add(fsw, root)
	for _, e := range entries {
		if e.IsDir() {
			w.add(fsw, filepath.Join(root, e.Name()))
		}
	}
}

func (w *Watcher) add(fsw *fsnotify.Watcher, path string) {
	if err := fsw.Add(path); err != nil {
		slog.Warn("watching path failed", "path", path, "error", err)
	}
}

// isExtensionDir reports whether path is a directory directly below a root.
func (w *Watcher) isExtensionDir(path string) bool {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return false
	}
	parent := filepath.Dir(path)
	for _, r := range w.roots {
		if parent == r {
			return true
		}
	}
	return false
}

func (w *Watcher) relevant(ev fsnotify.Event) bool {
	if ev.Op == fsnotify.Chmod {
		return false
	}
	base := filepath.Base(ev.Name)
	return base != "" && base[0] != '.'
}

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Protogen Contributors

package watch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func start(t *testing.T, w *Watcher) (cancel func()) {
	t.Helper()
	ctx, stop := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	// Give the watcher time to register its paths.
	time.Sleep(50 * time.Millisecond)
	return func() {
		stop()
		select {
		case err := <-done:
			require.NoError(t, err)
		case <-time.After(2 * time.Second):
			t.Fatal("Run did not return after cancel")
		}
	}
}

func TestWatcher_ReloadsOnChange(t *testing.T) {
	defer goleak.VerifyNone(t)

	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, "faces"), 0o750))

	var reloads atomic.Int32
	w := New([]string{root, ""}, 20*time.Millisecond, func(context.Context) error {
		reloads.Add(1)
		return nil
	})
	stop := start(t, w)
	defer stop()

	for i := range 5 {
		require.NoError(t, os.WriteFile(filepath.Join(root, "faces", "faces.lua"), []byte{byte(i)}, 0o600))
	}
	require.Eventually(t, func() bool { return reloads.Load() >= 1 }, 2*time.Second, 10*time.Millisecond)
	assert.Less(t, reloads.Load(), int32(5), "a burst of writes is coalesced")

	before := reloads.Load()
	require.NoError(t, os.Mkdir(filepath.Join(root, "clock"), 0o750))
	require.Eventually(t, func() bool { return reloads.Load() > before }, 2*time.Second, 10*time.Millisecond)

	before = reloads.Load()
	require.NoError(t, os.WriteFile(filepath.Join(root, "clock", "clock.lua"), []byte("x"), 0o600))
	require.Eventually(t, func() bool { return reloads.Load() > before }, 2*time.Second, 10*time.Millisecond,
		"new extension directories are watched")
}

func TestWatcher_ReloadErrorKeepsWatching(t *testing.T) {
	defer goleak.VerifyNone(t)

	root := t.TempDir()
	var reloads atomic.Int32
	w := New([]string{root}, 10*time.Millisecond, func(context.Context) error {
		reloads.Add(1)
		return errors.New("broken extension")
	})
	stop := start(t, w)
	defer stop()

	require.NoError(t, os.WriteFile(filepath.Join(root, "a"), nil, 0o600))
	require.Eventually(t, func() bool { return reloads.Load() == 1 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, os.WriteFile(filepath.Join(root, "b"), nil, 0o600))
	require.Eventually(t, func() bool { return reloads.Load() == 2 }, 2*time.Second, 10*time.Millisecond)
}

func TestWatcher_MissingRootDoesNotFail(t *testing.T) {
	defer goleak.VerifyNone(t)

	w := New([]string{filepath.Join(t.TempDir(), "missing")}, 0, func(context.Context) error { return nil })
	assert.Equal(t, DefaultDebounce, w.debounce)

	stop := start(t, w)
	stop()
}

func TestWatcher_Relevant(t *testing.T) {
	w := New(nil, 0, nil)

	assert.True(t, w.relevant(fsnotify.Event{Name: "/x/app.so", Op: fsnotify.Write}))
	assert.True(t, w.relevant(fsnotify.Event{Name: "/x/app.so", Op: fsnotify.Write | fsnotify.Chmod}))
	assert.False(t, w.relevant(fsnotify.Event{Name: "/x/app.so", Op: fsnotify.Chmod}))
	assert.False(t, w.relevant(fsnotify.Event{Name: "/x/.app.lua.swp", Op: fsnotify.Create}))
}

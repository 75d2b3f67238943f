// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Protogen Contributors

package module

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/samber/oops"

	"github.com/mrf7777/protogen-software-sub000/pkg/extension"
)

// ErrReleased is returned when a handle is released more often than it
// was retained.
var ErrReleased = errors.New("handle already released")

// Handle owns an extension instance and the module that created it.
//
// A handle starts with one reference. Every Retain must be paired with a
// Release. The last Release calls the module's destroy function on the
// instance and only then closes the module. Callers must not release the
// last reference while a call into the extension is in progress.
type Handle struct {
	ext     extension.Extension
	destroy extension.DestroyFunc
	mod     Module
	path    string
	backend string

	refs     atomic.Int64
	once     sync.Once
	closeErr error
}

func newHandle(ext extension.Extension, destroy extension.DestroyFunc, mod Module) *Handle {
	h := &Handle{ext: ext, destroy: destroy, mod: mod}
	h.refs.Store(1)
	return h
}

// Extension returns the owned instance.
func (h *Handle) Extension() extension.Extension {
	return h.ext
}

// Path returns the module file the extension was loaded from.
func (h *Handle) Path() string {
	return h.path
}

// Backend returns the name of the backend that opened the module.
func (h *Handle) Backend() string {
	return h.backend
}

// Retain adds a reference. It returns false if the handle was already
// torn down, in which case the extension must not be used.
func (h *Handle) Retain() bool {
	for {
		n := h.refs.Load()
		if n <= 0 {
			return false
		}
		if h.refs.CompareAndSwap(n, n+1) {
			return true
		}
	}
}

// Release drops a reference and tears the handle down when it was the
// last one.
func (h *Handle) Release() error {
	for {
		n := h.refs.Load()
		if n <= 0 {
			return ErrReleased
		}
		if !h.refs.CompareAndSwap(n, n-1) {
			continue
		}
		if n > 1 {
			return nil
		}
		h.once.Do(h.teardown)
		return h.closeErr
	}
}

// Released reports whether the handle has been torn down.
func (h *Handle) Released() bool {
	return h.refs.Load() <= 0
}

func (h *Handle) teardown() {
	h.runDestroy()
	if err := h.mod.Close(); err != nil {
		h.closeErr = oops.In("module").With("path", h.path).With("operation", "close").Wrap(err)
	}
}

func (h *Handle) runDestroy() {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("extension destroy panicked",
				"path", h.path,
				"backend", h.backend,
				"panic", r)
		}
	}()
	if h.destroy != nil {
		h.destroy(h.ext)
	}
}

// String implements fmt.Stringer for diagnostics.
func (h *Handle) String() string {
	return fmt.Sprintf("%s(%s)", h.backend, h.path)
}

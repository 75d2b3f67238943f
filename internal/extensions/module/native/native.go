// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Protogen Contributors

// Package native loads extensions built with `go build -buildmode=plugin`.
//
// The Go runtime never unmaps a plugin once opened. Closing a native
// module therefore only invalidates it: later lookups fail, and opening
// the same path again returns the already loaded code.
package native

import (
	"sync/atomic"

	"github.com/mrf7777/protogen-software-sub000/internal/extensions/module"
)

// Pattern matches native module files.
const Pattern = "*.so"

// Backend opens Go plugin shared objects.
type Backend struct{}

var _ module.Backend = (*Backend)(nil)

// New creates a native backend.
func New() *Backend {
	return &Backend{}
}

// Name returns "native".
func (*Backend) Name() string { return "native" }

// Pattern returns the native module glob.
func (*Backend) Pattern() string { return Pattern }

// Open loads the shared object at path.
func (*Backend) Open(path string) (module.Module, error) {
	lookup, err := open(path)
	if err != nil {
		return nil, err
	}
	return &nativeModule{lookup: lookup}, nil
}

type nativeModule struct {
	lookup func(string) (any, error)
	closed atomic.Bool
}

func (m *nativeModule) Lookup(symbol string) (any, error) {
	if m.closed.Load() {
		return nil, module.ErrClosed
	}
	return m.lookup(symbol)
}

func (m *nativeModule) Close() error {
	m.closed.Store(true)
	return nil
}

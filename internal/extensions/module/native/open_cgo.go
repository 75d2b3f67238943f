// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Protogen Contributors

//go:build (linux || darwin || freebsd) && cgo

package native

import (
	"plugin"

	"github.com/samber/oops"
)

// Supported reports whether native modules can be loaded on this build.
const Supported = true

func open(path string) (func(string) (any, error), error) {
	p, err := plugin.Open(path)
	if err != nil {
		return nil, oops.In("native").With("path", path).Wrap(err)
	}
	return func(symbol string) (any, error) {
		sym, err := p.Lookup(symbol)
		if err != nil {
			return nil, oops.In("native").With("symbol", symbol).Wrap(err)
		}
		return any(sym), nil
	}, nil
}

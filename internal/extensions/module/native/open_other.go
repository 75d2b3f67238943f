// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Protogen Contributors

//go:build !((linux || darwin || freebsd) && cgo)

package native

import (
	"github.com/samber/oops"

	"github.com/mrf7777/protogen-software-sub000/internal/extensions/module"
)

// Supported reports whether native modules can be loaded on this build.
const Supported = false

func open(path string) (func(string) (any, error), error) {
	return nil, oops.In("native").With("path", path).Wrap(module.ErrUnsupported)
}

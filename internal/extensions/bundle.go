// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Protogen Contributors

// Package extensions discovers, initializes, validates and collects
// extensions of one kind from a directory tree.
package extensions

import (
	"github.com/mrf7777/protogen-software-sub000/pkg/extension"
)

// Owner keeps the code behind an extension loaded. *module.Handle is the
// production implementation.
type Owner interface {
	Retain() bool
	Release() error
}

// Bundle is an extension instance paired with the directory it was
// loaded from.
type Bundle struct {
	Extension extension.Extension
	Dir       string

	owner Owner
}

// NewBundle pairs ext with dir. owner may be nil for extensions that do
// not come from a module.
func NewBundle(ext extension.Extension, dir string, owner Owner) *Bundle {
	return &Bundle{Extension: ext, Dir: dir, owner: owner}
}

// ID returns the extension's id attribute, or "".
func (b *Bundle) ID() string {
	if b == nil {
		return ""
	}
	return GuardValue("extension", "", "attribute_store", "", func() string {
		return extension.ID(b.Extension)
	})
}

// Retain adds a reference to the owner. It reports false once the bundle
// has been released.
func (b *Bundle) Retain() bool {
	if b.owner == nil {
		return true
	}
	return b.owner.Retain()
}

// Release drops a reference. Releasing the last one destroys the
// extension and unloads its module.
func (b *Bundle) Release() error {
	if b == nil || b.owner == nil {
		return nil
	}
	return b.owner.Release()
}

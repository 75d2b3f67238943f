// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Protogen Contributors

package extensions

import (
	"log/slog"

	"github.com/mrf7777/protogen-software-sub000/pkg/attributes"
	"github.com/mrf7777/protogen-software-sub000/pkg/extension"
)

// Initializer prepares a freshly loaded bundle for use.
type Initializer interface {
	Initialize(b *Bundle) extension.Initialization
}

// InitializerFunc adapts a function to Initializer.
type InitializerFunc func(b *Bundle) extension.Initialization

func (f InitializerFunc) Initialize(b *Bundle) extension.Initialization {
	return f(b)
}

// BaseInitializer injects the user data and resources directories and
// then runs the extension's own Initialize. Nil locators are skipped.
type BaseInitializer struct {
	UserData  Locator
	Resources Locator
}

// Initialize runs the chain. Attribute injection failures are logged and
// do not fail the bundle. Nothing is rolled back on failure.
func (i *BaseInitializer) Initialize(b *Bundle) extension.Initialization {
	id := b.ID()
	i.inject(b, id, attributes.KeyUserDataDirectory, i.UserData)
	i.inject(b, id, attributes.KeyResourcesDirectory, i.Resources)

	return GuardValue("extension", id, "initialize", extension.InitFailure, b.Extension.Initialize)
}

func (i *BaseInitializer) inject(b *Bundle, id, key string, l Locator) {
	if l == nil {
		return
	}
	path, ok := l.Locate(b)
	if !ok {
		slog.Debug("no directory for extension attribute", "id", id, "key", key)
		return
	}

	ok = GuardValue("extension", id, "inject_attribute", false, func() bool {
		return Inject(b.Extension.AttributeStore(), key, path)
	})
	if !ok {
		slog.Warn("extension attribute not injected", "id", id, "key", key, "value", path)
	}
}

// Inject sets a host-provided attribute. Stores with an admin surface get a
// read-only, pinned value; others go through SetAttribute.
func Inject(store attributes.Store, key, value string) bool {
	if store == nil {
		return false
	}
	if admin, ok := administrable(store); ok {
		if !admin.AdminSet(key, value, attributes.AccessRead).Accepted() {
			return false
		}
		admin.Pin(key)
		return true
	}
	return store.SetAttribute(key, value).Accepted()
}

// administrable finds an admin surface on store or on a store it wraps.
func administrable(store attributes.Store) (attributes.Administrable, bool) {
	for store != nil {
		if admin, ok := store.(attributes.Administrable); ok {
			return admin, true
		}
		u, ok := store.(interface{ Unwrap() attributes.Store })
		if !ok {
			return nil, false
		}
		store = u.Unwrap()
	}
	return nil, false
}

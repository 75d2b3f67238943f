// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Protogen Contributors

// Package extensionsdk provides helpers for building protogen extensions.
//
// In-process extensions embed Base and export the two factory symbols:
//
//	type Blinker struct{ *extensionsdk.Base }
//
//	func CreateExtension() extension.Extension {
//		return &Blinker{Base: extensionsdk.NewBase(extensionsdk.Identity{
//			ID: "blinker", Name: "Blinker", Description: "Blinks.", Author: "me",
//		})}
//	}
//
//	func DestroyExtension(extension.Extension) {}
//
// Out-of-process extensions call Serve from main.
package extensionsdk

import (
	"github.com/mrf7777/protogen-software-sub000/pkg/attributes"
	"github.com/mrf7777/protogen-software-sub000/pkg/extension"
)

// Identity holds the attributes an extension publishes about itself.
type Identity struct {
	ID          string
	Name        string
	Description string
	Author      string
	Version     string
	HomePage    string
	Thumbnail   string
}

func (id Identity) pairs() [][2]string {
	return [][2]string{
		{attributes.KeyID, id.ID},
		{attributes.KeyName, id.Name},
		{attributes.KeyDescription, id.Description},
		{attributes.KeyAuthor, id.Author},
		{attributes.KeyVersion, id.Version},
		{attributes.KeyHomePage, id.HomePage},
		{attributes.KeyThumbnail, id.Thumbnail},
	}
}

// Base implements extension.Extension with a StandardStore. Non-empty
// identity fields are stored read-only and pinned.
type Base struct {
	store *attributes.StandardStore
}

var _ extension.Extension = (*Base)(nil)

// NewBase creates a Base publishing id.
func NewBase(id Identity, opts ...attributes.StoreOption) *Base {
	store := attributes.NewStandardStore(opts...)
	for _, kv := range id.pairs() {
		if kv[1] == "" {
			continue
		}
		store.AdminSet(kv[0], kv[1], attributes.AccessRead)
		store.Pin(kv[0])
	}
	return &Base{store: store}
}

// Initialize succeeds. Embedders override it when they have setup work.
func (b *Base) Initialize() extension.Initialization {
	return extension.InitSuccess
}

// AttributeStore returns the extension's store.
func (b *Base) AttributeStore() attributes.Store {
	return b.store
}

// Store returns the administrable store, for extensions that need to
// publish read-only values after construction.
func (b *Base) Store() *attributes.StandardStore {
	return b.store
}

// Attribute returns a readable attribute or "".
func (b *Base) Attribute(key string) string {
	v, _ := b.store.GetAttribute(key)
	return v
}

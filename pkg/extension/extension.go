// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Protogen Contributors

// Package extension defines the contract shared by every loadable unit:
// apps, sensors and render surfaces.
//
// A module exposes two symbols, CreateExtension and DestroyExtension. The
// host calls the first to obtain an instance and the second to dispose of
// it before the module is unloaded:
//
//	func CreateExtension() extension.Extension { return NewBlinker() }
//	func DestroyExtension(e extension.Extension) { e.(*Blinker).Stop() }
package extension

import "github.com/mrf7777/protogen-software-sub000/pkg/attributes"

// Symbol names a module must export.
const (
	CreateSymbol  = "CreateExtension"
	DestroySymbol = "DestroyExtension"
)

// Initialization is the outcome of an initialization step.
type Initialization int

// Initialization outcomes. The zero value is a failure.
const (
	InitFailure Initialization = iota
	InitSuccess
)

// String returns "success" or "failure".
func (i Initialization) String() string {
	if i == InitSuccess {
		return "success"
	}
	return "failure"
}

// Extension is the minimal capability of every loadable unit.
type Extension interface {
	// Initialize prepares the extension after the host has injected its
	// attributes. Failure is terminal for the current load.
	Initialize() Initialization
	// AttributeStore returns the store that carries the extension's
	// identity and host-injected paths. It may return nil.
	AttributeStore() attributes.Store
}

// CreateFunc is the signature of the CreateExtension symbol.
type CreateFunc = func() Extension

// DestroyFunc is the signature of the DestroyExtension symbol.
type DestroyFunc = func(Extension)

// ID returns the id attribute of e, or "" if it has none.
func ID(e Extension) string {
	if e == nil {
		return ""
	}
	store := e.AttributeStore()
	if store == nil {
		return ""
	}
	id, _ := store.GetAttribute(attributes.KeyID)
	return id
}

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Protogen Contributors

// Package attributes provides the string key/value store every extension
// exposes to the host.
//
// Each key carries an access level. Callers going through the plain
// Store interface are subject to that level; the host uses the
// Administrable surface to inject values, change access levels and pin
// keys against removal.
package attributes

// Access is the permitted operation set for an attribute key.
type Access int

// Access levels.
const (
	AccessRead Access = iota
	AccessWrite
	AccessReadWrite
)

// String returns the lower-case name of the access level.
func (a Access) String() string {
	switch a {
	case AccessRead:
		return "read"
	case AccessWrite:
		return "write"
	case AccessReadWrite:
		return "read_write"
	default:
		return "unknown"
	}
}

// Readable reports whether values under this access level may be read.
func (a Access) Readable() bool {
	return a == AccessRead || a == AccessReadWrite
}

// Writable reports whether values under this access level may be written.
func (a Access) Writable() bool {
	return a == AccessWrite || a == AccessReadWrite
}

// SetResult is the outcome of a write.
type SetResult int

// Set outcomes.
const (
	SetCreated SetResult = iota
	SetUpdated
	SetRejectedNotWritable
	SetRejectedByPolicy
)

// String returns the snake-case name of the result.
func (r SetResult) String() string {
	switch r {
	case SetCreated:
		return "created"
	case SetUpdated:
		return "updated"
	case SetRejectedNotWritable:
		return "rejected_not_writable"
	case SetRejectedByPolicy:
		return "rejected_by_policy"
	default:
		return "unknown"
	}
}

// Accepted reports whether the write was applied.
func (r SetResult) Accepted() bool {
	return r == SetCreated || r == SetUpdated
}

// RemoveResult is the outcome of a removal.
type RemoveResult int

// Remove outcomes.
const (
	RemoveRemoved RemoveResult = iota
	RemoveDoesNotExist
	RemoveRejectedNotWritable
	RemoveRejectedPinned
	RemoveRejectedByPolicy
)

// String returns the snake-case name of the result.
func (r RemoveResult) String() string {
	switch r {
	case RemoveRemoved:
		return "removed"
	case RemoveDoesNotExist:
		return "does_not_exist"
	case RemoveRejectedNotWritable:
		return "rejected_not_writable"
	case RemoveRejectedPinned:
		return "rejected_pinned"
	case RemoveRejectedByPolicy:
		return "rejected_by_policy"
	default:
		return "unknown"
	}
}

// Readable is the read half of a store.
type Readable interface {
	// GetAttribute returns the value for key. The boolean is false when
	// the key is absent or not readable.
	GetAttribute(key string) (string, bool)
	// ListAttributes returns every key in the store, including keys that
	// are not readable.
	ListAttributes() []string
	// AttributeAccess returns the access level for key.
	AttributeAccess(key string) (Access, bool)
	// HasAttribute reports whether key exists.
	HasAttribute(key string) bool
}

// Writable is the write half of a store.
type Writable interface {
	SetAttribute(key, value string) SetResult
	RemoveAttribute(key string) RemoveResult
}

// Store is the attribute store an extension exposes.
type Store interface {
	Readable
	Writable
}

// Administrable is the privileged surface used by the host. Admin calls
// ignore access levels and pre-hooks.
type Administrable interface {
	Store
	AdminSet(key, value string, access Access) SetResult
	AdminGet(key string) (string, bool)
	AdminRemove(key string) RemoveResult
	Pin(key string) bool
	Unpin(key string) bool
	IsPinned(key string) bool
}

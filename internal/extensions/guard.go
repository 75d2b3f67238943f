// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Protogen Contributors

package extensions

import (
	"log/slog"
	"runtime/debug"

	"github.com/mrf7777/protogen-software-sub000/internal/observability"
)

// Guard runs fn and recovers any panic raised by extension code. A
// recovered panic is logged with the extension id and operation, counted,
// and reported by returning false.
func Guard(kind, id, operation string, fn func()) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			fault(kind, id, operation, r)
			ok = false
		}
	}()
	fn()
	return true
}

// GuardValue is Guard for calls returning a value. fallback is returned
// when fn panics.
func GuardValue[T any](kind, id, operation string, fallback T, fn func() T) (v T) {
	defer func() {
		if r := recover(); r != nil {
			fault(kind, id, operation, r)
			v = fallback
		}
	}()
	return fn()
}

func fault(kind, id, operation string, r any) {
	observability.RecordExtensionFault(kind, operation)
	slog.Error("extension fault",
		"kind", kind,
		"id", id,
		"operation", operation,
		"panic", r,
		"stack", string(debug.Stack()))
}

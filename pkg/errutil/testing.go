// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Protogen Contributors

package errutil

import (
	"testing"

	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
)

// AssertErrorCode checks that err carries code, as reported by Code.
func AssertErrorCode(t testing.TB, err error, code string) bool {
	t.Helper()
	if !assert.Error(t, err) {
		return false
	}
	return assert.Equal(t, code, Code(err, ""), "error: %v", err)
}

// RequireErrorCode is AssertErrorCode that stops the test on failure.
func RequireErrorCode(t testing.TB, err error, code string) {
	t.Helper()
	if !AssertErrorCode(t, err, code) {
		t.FailNow()
	}
}

// AssertErrorContext checks that err has key set to value in its oops
// context.
func AssertErrorContext(t testing.TB, err error, key string, value any) bool {
	t.Helper()
	oopsErr, ok := oops.AsOops(err)
	if !assert.True(t, ok, "expected oops error, got %T: %v", err, err) {
		return false
	}
	got, present := oopsErr.Context()[key]
	if !assert.True(t, present, "context has no %q: %v", key, oopsErr.Context()) {
		return false
	}
	return assert.Equal(t, value, got, "context %q", key)
}

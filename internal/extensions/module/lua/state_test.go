// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Protogen Contributors

package lua

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	luavm "github.com/yuin/gopher-lua"
)

func TestSandbox_Globals(t *testing.T) {
	L, err := newSandbox().open("ext.lua")
	require.NoError(t, err)
	defer L.Close()

	for _, lib := range []string{"table", "string", "math"} {
		assert.NotEqual(t, luavm.LTNil, L.GetGlobal(lib).Type(), "library %q not loaded", lib)
	}
	for _, lib := range []string{"os", "io", "debug", "package", "coroutine"} {
		assert.Equal(t, luavm.LTNil, L.GetGlobal(lib).Type(), "library %q loaded", lib)
	}
	for _, fn := range blockedGlobals {
		assert.Equal(t, luavm.LTNil, L.GetGlobal(fn).Type(), "function %q present", fn)
	}
}

func TestSandbox_RunsScripts(t *testing.T) {
	L, err := newSandbox().open("ext.lua")
	require.NoError(t, err)
	defer L.Close()

	require.NoError(t, L.DoString(`
		t = {3, 1, 2}
		table.sort(t)
		result = ("x"):upper() .. t[1] .. math.abs(-2)
	`))

	assert.Equal(t, "X12", L.GetGlobal("result").String())
}

func TestSandbox_PrintGoesToLog(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })

	L, err := newSandbox().open("/ext/blink/blink.lua")
	require.NoError(t, err)
	defer L.Close()

	require.NoError(t, L.DoString(`print("frame", 3, true)`))

	out := buf.String()
	assert.Contains(t, out, `msg="frame\t3\ttrue"`)
	assert.Contains(t, out, "path=/ext/blink/blink.lua")
}

func TestSandbox_LibraryOpenError(t *testing.T) {
	failing := func(L *luavm.LState) int {
		L.RaiseError("no such library")
		return 0
	}
	s := sandbox{libs: []library{{"broken", failing}}}

	_, err := s.open("ext.lua")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "open library broken")
}

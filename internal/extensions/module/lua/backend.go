// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Protogen Contributors

// Package lua loads extensions written as sandboxed Lua scripts.
//
// A script runs once when its module is opened. It declares its identity
// through the host table and defines optional global functions:
//
//	protogen.identity{ id = "blink", name = "Blink", description = "...", author = "..." }
//
//	function initialize() return true end   -- all kinds
//	function destroy() end                   -- all kinds
//	function channels() return { "std.in.temperature" } end -- sensors
//	function read(channel) return 21.5 end                  -- sensors
//	function set_active(active) end                         -- apps
//	function render(width, height) protogen.set_pixel(0, 0, 255, 0, 0) end -- apps
//	framerate = 10                                          -- apps
//
// A script that defines read is a sensor; one that defines render or
// set_active is an app.
package lua

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/samber/oops"
	lua "github.com/yuin/gopher-lua"

	"github.com/mrf7777/protogen-software-sub000/internal/extensions/module"
	"github.com/mrf7777/protogen-software-sub000/pkg/attributes"
	"github.com/mrf7777/protogen-software-sub000/pkg/extension"
	"github.com/mrf7777/protogen-software-sub000/pkg/render"
	"github.com/mrf7777/protogen-software-sub000/pkg/sensor"
)

// Pattern matches Lua extension scripts.
const Pattern = "*.lua"

// Backend opens Lua extension scripts.
type Backend struct {
	sandbox sandbox
}

var _ module.Backend = (*Backend)(nil)

// New creates a Lua backend.
func New() *Backend {
	return &Backend{sandbox: newSandbox()}
}

// Name returns "lua".
func (*Backend) Name() string { return "lua" }

// Pattern returns the script glob.
func (*Backend) Pattern() string { return Pattern }

// Open reads and runs the script at path.
func (b *Backend) Open(path string) (module.Module, error) {
	errb := oops.In("lua").With("path", path).With("operation", "open")

	code, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, errb.Hint("failed to read script").Wrap(err)
	}

	L, err := b.sandbox.open(path)
	if err != nil {
		return nil, errb.Hint("failed to create state").Wrap(err)
	}

	m := &scriptModule{
		L:     L,
		path:  path,
		store: attributes.NewStandardStore(),
	}
	m.registerHostFunctions()

	if err := L.DoString(string(code)); err != nil {
		L.Close()
		return nil, errb.Hint("script error").Wrap(err)
	}
	return m, nil
}

// scriptModule owns one Lua state. LState is not safe for concurrent use,
// so every entry into the script holds mu.
type scriptModule struct {
	mu     sync.Mutex
	L      *lua.LState
	path   string
	store  *attributes.StandardStore
	closed bool

	// Set by the host for apps; read by host functions during calls.
	surface render.Surface
	sensors *sensor.Combined
	canvas  render.Canvas
}

func (m *scriptModule) Lookup(symbol string) (any, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, module.ErrClosed
	}
	switch symbol {
	case extension.CreateSymbol:
		return m.create, nil
	case extension.DestroySymbol:
		return func(extension.Extension) {
			if _, _, err := m.call("destroy", 0); err != nil {
				m.logError("destroy", err)
			}
		}, nil
	default:
		return nil, oops.In("lua").With("symbol", symbol).Errorf("unknown symbol")
	}
}

func (m *scriptModule) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil
	}
	m.closed = true
	m.L.Close()
	return nil
}

// create picks the extension kind from the globals the script defined.
func (m *scriptModule) create() extension.Extension {
	m.mu.Lock()
	isSensor := m.isFunction("read")
	isApp := m.isFunction("render") || m.isFunction("set_active")
	m.mu.Unlock()

	base := &scriptExtension{m: m}
	switch {
	case isSensor:
		return &scriptSensor{scriptExtension: base}
	case isApp:
		return &scriptApp{scriptExtension: base}
	default:
		return base
	}
}

// isFunction must be called with mu held.
func (m *scriptModule) isFunction(name string) bool {
	return m.L.GetGlobal(name).Type() == lua.LTFunction
}

// call invokes a global function and returns its results. The boolean
// reports whether the function exists. Must be called without mu held.
func (m *scriptModule) call(name string, nret int, args ...lua.LValue) ([]lua.LValue, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, false, module.ErrClosed
	}
	fn := m.L.GetGlobal(name)
	if fn.Type() != lua.LTFunction {
		return nil, false, nil
	}
	if err := m.L.CallByParam(lua.P{Fn: fn, NRet: nret, Protect: true}, args...); err != nil {
		return nil, true, oops.In("lua").With("path", m.path).With("function", name).Wrap(err)
	}
	rets := make([]lua.LValue, nret)
	for i := range nret {
		rets[i] = m.L.Get(i - nret)
	}
	m.L.Pop(nret)
	return rets, true, nil
}

// global reads a global variable.
func (m *scriptModule) global(name string) lua.LValue {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return lua.LNil
	}
	return m.L.GetGlobal(name)
}

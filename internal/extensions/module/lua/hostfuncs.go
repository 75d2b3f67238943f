// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Protogen Contributors

package lua

import (
	"image/color"
	"log/slog"
	"strings"

	lua "github.com/yuin/gopher-lua"

	"github.com/mrf7777/protogen-software-sub000/pkg/attributes"
	"github.com/mrf7777/protogen-software-sub000/pkg/sensor"
)

// hostTable is the global table exposing host functions to scripts.
const hostTable = "protogen"

// registerHostFunctions installs the protogen table. Host functions run
// inside a script call, so mu is already held and they must not lock it.
func (m *scriptModule) registerHostFunctions() {
	L := m.L
	t := L.NewTable()
	L.SetFuncs(t, map[string]lua.LGFunction{
		"identity":      m.luaIdentity,
		"set_attribute": m.luaSetAttribute,
		"get_attribute": m.luaGetAttribute,
		"log":           m.luaLog,
		"read_sensor":   m.luaReadSensor,
		"set_pixel":     m.luaSetPixel,
		"resolution":    m.luaResolution,
	})
	L.SetGlobal(hostTable, t)
}

// identity{...} publishes read-only, pinned attributes.
func (m *scriptModule) luaIdentity(L *lua.LState) int {
	tbl := L.CheckTable(1)
	tbl.ForEach(func(k, v lua.LValue) {
		key := k.String()
		m.store.AdminSet(key, v.String(), attributes.AccessRead)
		m.store.Pin(key)
	})
	return 0
}

// set_attribute(key, value) returns the result name.
func (m *scriptModule) luaSetAttribute(L *lua.LState) int {
	result := m.store.SetAttribute(L.CheckString(1), L.CheckString(2))
	L.Push(lua.LString(result.String()))
	return 1
}

// get_attribute(key) returns the value or nil.
func (m *scriptModule) luaGetAttribute(L *lua.LState) int {
	v, ok := m.store.GetAttribute(L.CheckString(1))
	if !ok {
		L.Push(lua.LNil)
		return 1
	}
	L.Push(lua.LString(v))
	return 1
}

// log(level, message)
func (m *scriptModule) luaLog(L *lua.LState) int {
	level := strings.ToLower(L.CheckString(1))
	msg := L.CheckString(2)
	attrs := []any{"path", m.path, "id", m.id()}
	switch level {
	case "debug":
		slog.Debug(msg, attrs...)
	case "warn":
		slog.Warn(msg, attrs...)
	case "error":
		slog.Error(msg, attrs...)
	default:
		slog.Info(msg, attrs...)
	}
	return 0
}

// read_sensor(channel) returns the reading or nil.
func (m *scriptModule) luaReadSensor(L *lua.LState) int {
	channel := L.CheckString(1)
	if m.sensors == nil {
		L.Push(lua.LNil)
		return 1
	}
	res := m.sensors.Read(channel)
	if !res.OK() {
		L.Push(lua.LNil)
		return 1
	}
	L.Push(toLua(L, res.Value))
	return 1
}

// set_pixel(x, y, r, g, b) is only effective inside render.
func (m *scriptModule) luaSetPixel(L *lua.LState) int {
	if m.canvas == nil {
		return 0
	}
	c := color.RGBA{
		R: uint8(L.CheckInt(3)), // #nosec G115 -- truncation to a color channel is intended
		G: uint8(L.CheckInt(4)), // #nosec G115
		B: uint8(L.CheckInt(5)), // #nosec G115
		A: 255,
	}
	m.canvas.SetPixel(L.CheckInt(1), L.CheckInt(2), c)
	return 0
}

// resolution() returns width, height of the render surface, or 0, 0.
func (m *scriptModule) luaResolution(L *lua.LState) int {
	if m.surface == nil {
		L.Push(lua.LNumber(0))
		L.Push(lua.LNumber(0))
		return 2
	}
	res := m.surface.Resolution()
	L.Push(lua.LNumber(res.Width))
	L.Push(lua.LNumber(res.Height))
	return 2
}

func (m *scriptModule) id() string {
	v, _ := m.store.GetAttribute(attributes.KeyID)
	return v
}

func (m *scriptModule) logError(operation string, err error) {
	slog.Error("lua extension call failed",
		"path", m.path,
		"id", m.id(),
		"operation", operation,
		"error", err)
}

func toLua(L *lua.LState, v sensor.ChannelValue) lua.LValue {
	switch x := v.(type) {
	case float64:
		return lua.LNumber(x)
	case int32:
		return lua.LNumber(x)
	case uint8:
		return lua.LNumber(x)
	case bool:
		return lua.LBool(x)
	case string:
		return lua.LString(x)
	case []float64:
		return listToLua(L, x, func(f float64) lua.LValue { return lua.LNumber(f) })
	case []int32:
		return listToLua(L, x, func(i int32) lua.LValue { return lua.LNumber(i) })
	case []uint8:
		return listToLua(L, x, func(b uint8) lua.LValue { return lua.LNumber(b) })
	case []string:
		return listToLua(L, x, func(s string) lua.LValue { return lua.LString(s) })
	default:
		return lua.LNil
	}
}

func listToLua[T any](L *lua.LState, xs []T, conv func(T) lua.LValue) *lua.LTable {
	t := L.CreateTable(len(xs), 0)
	for _, x := range xs {
		t.Append(conv(x))
	}
	return t
}

// fromLua converts a script return value to a channel value. Tables of
// numbers become []float64; other tables become []string.
func fromLua(v lua.LValue) (sensor.ChannelValue, bool) {
	switch x := v.(type) {
	case lua.LNumber:
		return float64(x), true
	case lua.LBool:
		return bool(x), true
	case lua.LString:
		return string(x), true
	case *lua.LTable:
		n := x.Len()
		nums := make([]float64, 0, n)
		strs := make([]string, 0, n)
		allNumbers := true
		for i := 1; i <= n; i++ {
			item := x.RawGetInt(i)
			strs = append(strs, item.String())
			if num, ok := item.(lua.LNumber); ok {
				nums = append(nums, float64(num))
			} else {
				allNumbers = false
			}
		}
		if allNumbers {
			return nums, true
		}
		return strs, true
	default:
		return nil, false
	}
}

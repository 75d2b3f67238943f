// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Protogen Contributors

package lua

import (
	lua "github.com/yuin/gopher-lua"

	"github.com/mrf7777/protogen-software-sub000/pkg/app"
	"github.com/mrf7777/protogen-software-sub000/pkg/attributes"
	"github.com/mrf7777/protogen-software-sub000/pkg/extension"
	"github.com/mrf7777/protogen-software-sub000/pkg/render"
	"github.com/mrf7777/protogen-software-sub000/pkg/sensor"
)

var (
	_ extension.Extension = (*scriptExtension)(nil)
	_ sensor.Sensor       = (*scriptSensor)(nil)
	_ app.App             = (*scriptApp)(nil)
)

type scriptExtension struct {
	m *scriptModule
}

// Initialize calls initialize(). A missing function, or one returning
// nothing, counts as success; returning false or raising an error fails.
func (e *scriptExtension) Initialize() extension.Initialization {
	rets, _, err := e.m.call("initialize", 1)
	if err != nil {
		e.m.logError("initialize", err)
		return extension.InitFailure
	}
	if len(rets) == 1 && rets[0] == lua.LFalse {
		return extension.InitFailure
	}
	return extension.InitSuccess
}

func (e *scriptExtension) AttributeStore() attributes.Store {
	return e.m.store
}

type scriptSensor struct {
	*scriptExtension
}

func (s *scriptSensor) Channels() []sensor.ChannelInfo {
	rets, ok, err := s.m.call("channels", 1)
	if err != nil {
		s.m.logError("channels", err)
		return nil
	}
	if !ok {
		return nil
	}
	tbl, isTable := rets[0].(*lua.LTable)
	if !isTable {
		return nil
	}
	out := make([]sensor.ChannelInfo, 0, tbl.Len())
	for i := 1; i <= tbl.Len(); i++ {
		switch item := tbl.RawGetInt(i).(type) {
		case lua.LString:
			out = append(out, sensor.ChannelInfo{ID: string(item)})
		case *lua.LTable:
			out = append(out, sensor.ChannelInfo{
				ID:          item.RawGetString("id").String(),
				Description: lua.LVAsString(item.RawGetString("description")),
			})
		}
	}
	return out
}

func (s *scriptSensor) Read(channel string) sensor.ReadResult {
	rets, _, err := s.m.call("read", 1, lua.LString(channel))
	if err != nil {
		s.m.logError("read", err)
		return sensor.Failed()
	}
	if len(rets) == 0 {
		return sensor.NotFound()
	}
	v, ok := fromLua(rets[0])
	if !ok {
		return sensor.NotFound()
	}
	return sensor.Value(v)
}

type scriptApp struct {
	*scriptExtension
}

func (a *scriptApp) SetActive(active bool) {
	if _, _, err := a.m.call("set_active", 0, lua.LBool(active)); err != nil {
		a.m.logError("set_active", err)
	}
}

func (a *scriptApp) ReceiveRenderSurface(surface render.Surface) {
	a.m.mu.Lock()
	a.m.surface = surface
	a.m.mu.Unlock()
}

func (a *scriptApp) ReceiveSensors(sensors []sensor.Sensor) {
	combined := sensor.Combine(sensors...)
	a.m.mu.Lock()
	a.m.sensors = combined
	a.m.mu.Unlock()
}

func (a *scriptApp) Render(canvas render.Canvas) {
	a.m.mu.Lock()
	a.m.canvas = canvas
	a.m.mu.Unlock()

	_, _, err := a.m.call("render", 0, lua.LNumber(canvas.Width()), lua.LNumber(canvas.Height()))

	a.m.mu.Lock()
	a.m.canvas = nil
	a.m.mu.Unlock()

	if err != nil {
		a.m.logError("render", err)
	}
}

func (a *scriptApp) Framerate() float64 {
	if n, ok := a.m.global("framerate").(lua.LNumber); ok {
		return float64(n)
	}
	return 0
}

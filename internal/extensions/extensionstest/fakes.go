// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Protogen Contributors

// Package extensionstest provides in-memory extensions, owners and finders
// for tests.
package extensionstest

import (
	"context"
	"errors"
	"image/color"
	"sync"
	"sync/atomic"

	"github.com/mrf7777/protogen-software-sub000/internal/extensions"
	"github.com/mrf7777/protogen-software-sub000/pkg/extension"
	"github.com/mrf7777/protogen-software-sub000/pkg/extensionsdk"
	"github.com/mrf7777/protogen-software-sub000/pkg/render"
	"github.com/mrf7777/protogen-software-sub000/pkg/sensor"
)

// Identity returns a complete identity for id.
func Identity(id string) extensionsdk.Identity {
	return extensionsdk.Identity{
		ID:          id,
		Name:        "Test " + id,
		Description: "Test extension " + id,
		Author:      "tests",
	}
}

// Extension is a configurable extension. Set PanicOn to an operation name
// ("initialize", "set_active", "render", "read", ...) to make it panic there.
type Extension struct {
	*extensionsdk.Base

	InitResult extension.Initialization
	PanicOn    string
	Inits      atomic.Int32
}

// NewExtension creates an extension whose Initialize succeeds.
func NewExtension(id extensionsdk.Identity) *Extension {
	return &Extension{Base: extensionsdk.NewBase(id), InitResult: extension.InitSuccess}
}

func (e *Extension) Initialize() extension.Initialization {
	e.Inits.Add(1)
	e.maybePanic("initialize")
	return e.InitResult
}

func (e *Extension) maybePanic(op string) {
	if e.PanicOn == op {
		panic("extensionstest: " + op)
	}
}

// Sensor serves fixed readings.
type Sensor struct {
	*Extension

	mu       sync.Mutex
	Readings map[string]sensor.ChannelValue
	Reads    atomic.Int32
}

// NewSensor creates a sensor with the given readings.
func NewSensor(id extensionsdk.Identity, readings map[string]sensor.ChannelValue) *Sensor {
	return &Sensor{Extension: NewExtension(id), Readings: readings}
}

func (s *Sensor) Channels() []sensor.ChannelInfo {
	s.maybePanic("channels")
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]sensor.ChannelInfo, 0, len(s.Readings))
	for ch := range s.Readings {
		out = append(out, sensor.ChannelInfo{ID: ch})
	}
	return out
}

func (s *Sensor) Read(channel string) sensor.ReadResult {
	s.Reads.Add(1)
	s.maybePanic("read")
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.Readings[channel]
	if !ok {
		return sensor.NotFound()
	}
	return sensor.Value(v)
}

// Set changes a reading.
func (s *Sensor) Set(channel string, v sensor.ChannelValue) {
	s.mu.Lock()
	s.Readings[channel] = v
	s.mu.Unlock()
}

// Surface records frames into a memory canvas.
type Surface struct {
	*Extension

	Res    render.Resolution
	mu     sync.Mutex
	Frames int
	Canvas *render.MemoryCanvas
}

// NewSurface creates a surface of the given resolution.
func NewSurface(id extensionsdk.Identity, res render.Resolution) *Surface {
	return &Surface{Extension: NewExtension(id), Res: res, Canvas: render.NewMemoryCanvas(res)}
}

func (s *Surface) DrawFrame(draw func(render.Canvas)) {
	s.maybePanic("draw_frame")
	s.mu.Lock()
	defer s.mu.Unlock()
	draw(s.Canvas)
	s.Frames++
}

func (s *Surface) Resolution() render.Resolution {
	s.maybePanic("resolution")
	return s.Res
}

// FrameCount returns the number of drawn frames.
func (s *Surface) FrameCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Frames
}

// App records what the host hands it.
type App struct {
	*Extension

	mu       sync.Mutex
	Active   bool
	Toggles  []bool
	Surface  render.Surface
	Sensors  []sensor.Sensor
	Fill     color.RGBA
	FPS      float64
	Renders  atomic.Int32
	Sequence []string
}

// NewApp creates an app rendering a solid color.
func NewApp(id extensionsdk.Identity) *App {
	return &App{Extension: NewExtension(id), Fill: color.RGBA{R: 255, A: 255}, FPS: 30}
}

func (a *App) Initialize() extension.Initialization {
	a.record("initialize")
	return a.Extension.Initialize()
}

func (a *App) SetActive(active bool) {
	a.maybePanic("set_active")
	a.mu.Lock()
	defer a.mu.Unlock()
	a.Active = active
	a.Toggles = append(a.Toggles, active)
}

func (a *App) ReceiveRenderSurface(s render.Surface) {
	a.record("receive_render_surface")
	a.mu.Lock()
	a.Surface = s
	a.mu.Unlock()
}

func (a *App) ReceiveSensors(s []sensor.Sensor) {
	a.record("receive_sensors")
	a.mu.Lock()
	a.Sensors = s
	a.mu.Unlock()
}

func (a *App) Render(c render.Canvas) {
	a.Renders.Add(1)
	a.maybePanic("render")
	render.Fill(c, a.Fill)
}

func (a *App) Framerate() float64 {
	a.maybePanic("framerate")
	return a.FPS
}

// IsActive reports the last SetActive value.
func (a *App) IsActive() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.Active
}

// Calls returns the recorded call order.
func (a *App) Calls() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.Sequence...)
}

func (a *App) record(op string) {
	a.mu.Lock()
	a.Sequence = append(a.Sequence, op)
	a.mu.Unlock()
}

// Owner counts references like a module handle.
type Owner struct {
	refs     atomic.Int64
	releases atomic.Int32

	// OnTeardown runs when the last reference is released.
	OnTeardown func()
}

// NewOwner returns an owner holding one reference.
func NewOwner() *Owner {
	o := &Owner{}
	o.refs.Store(1)
	return o
}

func (o *Owner) Retain() bool {
	for {
		n := o.refs.Load()
		if n <= 0 {
			return false
		}
		if o.refs.CompareAndSwap(n, n+1) {
			return true
		}
	}
}

func (o *Owner) Release() error {
	n := o.refs.Add(-1)
	if n < 0 {
		return errors.New("extensionstest: released too often")
	}
	if n == 0 {
		o.releases.Add(1)
		if o.OnTeardown != nil {
			o.OnTeardown()
		}
	}
	return nil
}

// Released reports whether the last reference is gone.
func (o *Owner) Released() bool {
	return o.refs.Load() <= 0
}

// Refs returns the current reference count.
func (o *Owner) Refs() int64 {
	return o.refs.Load()
}

// Bundle wraps ext in a bundle with a fresh owner.
func Bundle(ext extension.Extension, dir string) (*extensions.Bundle, *Owner) {
	o := NewOwner()
	return extensions.NewBundle(ext, dir, o), o
}

// Finder returns the same bundles on every call, or Err.
type Finder struct {
	Bundles []*extensions.Bundle
	Err     error
}

func (f *Finder) Find(context.Context) ([]*extensions.Bundle, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	return f.Bundles, nil
}

// FinderFunc adapts a function to extensions.Finder.
type FinderFunc func(ctx context.Context) ([]*extensions.Bundle, error)

func (f FinderFunc) Find(ctx context.Context) ([]*extensions.Bundle, error) {
	return f(ctx)
}

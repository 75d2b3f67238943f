// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Protogen Contributors

// Package host owns the loaded extensions and drives the active app.
package host

import (
	"errors"
	"log/slog"
	"sync"

	"github.com/samber/lo"
	"github.com/samber/oops"

	"github.com/mrf7777/protogen-software-sub000/internal/apps"
	"github.com/mrf7777/protogen-software-sub000/internal/extensions"
	"github.com/mrf7777/protogen-software-sub000/internal/sensors"
	"github.com/mrf7777/protogen-software-sub000/internal/surfaces"
	"github.com/mrf7777/protogen-software-sub000/pkg/app"
	"github.com/mrf7777/protogen-software-sub000/pkg/attributes"
	"github.com/mrf7777/protogen-software-sub000/pkg/extension"
	"github.com/mrf7777/protogen-software-sub000/pkg/render"
	"github.com/mrf7777/protogen-software-sub000/pkg/sensor"
)

// Error codes.
const (
	CodeNotFound    = "EXTENSION_NOT_FOUND"
	CodeUnknownKind = "UNKNOWN_KIND"
	CodeClosed      = "REGISTRY_CLOSED"
)

// ErrClosed is returned for calls on a closed registry.
var ErrClosed = errors.New("registry is closed")

// Summary describes a loaded extension.
type Summary struct {
	Kind        string `json:"kind" yaml:"kind"`
	ID          string `json:"id" yaml:"id"`
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description" yaml:"description"`
	Dir         string `json:"dir" yaml:"dir"`
	Active      bool   `json:"active,omitempty" yaml:"active,omitempty"`
	Selected    bool   `json:"selected,omitempty" yaml:"selected,omitempty"`
}

// Registry holds one generation of loaded extensions. It is built by a
// Host and released as a whole by Close.
type Registry struct {
	surfaces map[string]*extensions.Loaded[render.Surface]
	sensors  map[string]*extensions.Loaded[sensor.Sensor]
	apps     map[string]*extensions.Loaded[app.App]
	surface  *extensions.Loaded[render.Surface]
	combined sensor.Sensor

	// activation serializes SetActive toggles and frames.
	activation sync.Mutex
	active     string
	drawn      bool
	closed     bool
}

// NewRegistry takes ownership of the loaded extensions. surface may be
// nil when no render surface loaded. combined reads across all sensors.
func NewRegistry(
	surfaceSet map[string]*extensions.Loaded[render.Surface],
	surface *extensions.Loaded[render.Surface],
	sensorSet map[string]*extensions.Loaded[sensor.Sensor],
	combined sensor.Sensor,
	appSet map[string]*extensions.Loaded[app.App],
) *Registry {
	if combined == nil {
		combined = sensor.Combine(sensors.Values(sensorSet)...)
	}
	return &Registry{
		surfaces: surfaceSet,
		sensors:  sensorSet,
		apps:     appSet,
		surface:  surface,
		combined: combined,
	}
}

// Surface returns the render surface apps draw on.
func (r *Registry) Surface() (render.Surface, bool) {
	if r.surface == nil {
		return nil, false
	}
	return r.surface.Value, true
}

// Sensor returns the combined view over every loaded sensor.
func (r *Registry) Sensor() sensor.Sensor {
	return r.combined
}

// AppIDs returns the loaded app ids in order.
func (r *Registry) AppIDs() []string {
	return extensions.SortedIDs(r.apps)
}

// Active returns the id of the active app, or "".
func (r *Registry) Active() string {
	r.activation.Lock()
	defer r.activation.Unlock()
	return r.active
}

// List summarizes every loaded extension, surfaces first, then sensors,
// then apps, each ordered by id.
func (r *Registry) List() []Summary {
	active := r.Active()
	var out []Summary
	out = append(out, summaries(r.surfaces, func(l *extensions.Loaded[render.Surface]) Summary {
		s := summarize(surfaces.Kind, l.ID, l.Bundle)
		s.Selected = r.surface != nil && r.surface.ID == l.ID
		return s
	})...)
	out = append(out, summaries(r.sensors, func(l *extensions.Loaded[sensor.Sensor]) Summary {
		return summarize(sensors.Kind, l.ID, l.Bundle)
	})...)
	out = append(out, summaries(r.apps, func(l *extensions.Loaded[app.App]) Summary {
		s := summarize(apps.Kind, l.ID, l.Bundle)
		s.Active = l.ID == active
		return s
	})...)
	return out
}

func summaries[T extension.Extension](loaded map[string]*extensions.Loaded[T], f func(*extensions.Loaded[T]) Summary) []Summary {
	return lo.Map(extensions.SortedIDs(loaded), func(id string, _ int) Summary {
		return f(loaded[id])
	})
}

// Display fallbacks for extensions that publish no name or description.
const (
	UnnamedExtension     = "Unnamed"
	UndescribedExtension = "No description."
)

func summarize(kind, id string, b *extensions.Bundle) Summary {
	store := b.Extension.AttributeStore()
	s := Summary{Kind: kind, ID: id, Dir: b.Dir, Name: UnnamedExtension, Description: UndescribedExtension}
	if store == nil {
		return s
	}
	if v, ok := store.GetAttribute(attributes.KeyName); ok && v != "" {
		s.Name = v
	}
	if v, ok := store.GetAttribute(attributes.KeyDescription); ok && v != "" {
		s.Description = v
	}
	return s
}

// WithExtension runs fn on the extension of kind with id while holding a
// reference to it, so a concurrent Close cannot unload it mid-call.
func (r *Registry) WithExtension(kind, id string, fn func(extension.Extension)) error {
	b, err := r.bundle(kind, id)
	if err != nil {
		return err
	}
	if !b.Retain() {
		return oops.In("registry").Code(CodeClosed).With("kind", kind).With("id", id).Wrap(ErrClosed)
	}
	defer func() {
		if err := b.Release(); err != nil {
			slog.Warn("releasing extension failed", "kind", kind, "id", id, "error", err)
		}
	}()
	fn(b.Extension)
	return nil
}

// WithApp runs fn on a loaded app.
func (r *Registry) WithApp(id string, fn func(app.App)) error {
	return r.WithExtension(apps.Kind, id, func(e extension.Extension) {
		fn(e.(app.App))
	})
}

// WithSensor runs fn on a loaded sensor.
func (r *Registry) WithSensor(id string, fn func(sensor.Sensor)) error {
	return r.WithExtension(sensors.Kind, id, func(e extension.Extension) {
		fn(e.(sensor.Sensor))
	})
}

func (r *Registry) bundle(kind, id string) (*extensions.Bundle, error) {
	errb := oops.In("registry").With("kind", kind).With("id", id)
	var (
		b  *extensions.Bundle
		ok bool
	)
	switch kind {
	case apps.Kind:
		b, ok = bundleOf(r.apps, id)
	case sensors.Kind:
		b, ok = bundleOf(r.sensors, id)
	case surfaces.Kind:
		b, ok = bundleOf(r.surfaces, id)
	default:
		return nil, errb.Code(CodeUnknownKind).Errorf("unknown extension kind %q", kind)
	}
	if !ok {
		return nil, errb.Code(CodeNotFound).Errorf("no %s with id %q", kind, id)
	}
	return b, nil
}

func bundleOf[T extension.Extension](loaded map[string]*extensions.Loaded[T], id string) (*extensions.Bundle, bool) {
	l, ok := loaded[id]
	if !ok {
		return nil, false
	}
	return l.Bundle, true
}

// Activate deactivates the current app and activates id. Activating the
// active app again does nothing.
func (r *Registry) Activate(id string) error {
	r.activation.Lock()
	defer r.activation.Unlock()

	if r.closed {
		return oops.In("registry").Code(CodeClosed).Wrap(ErrClosed)
	}
	next, ok := r.apps[id]
	if !ok {
		return oops.In("registry").Code(CodeNotFound).With("id", id).Errorf("no app with id %q", id)
	}
	if r.active == id {
		return nil
	}
	r.deactivateLocked()

	next.Value.SetActive(true)
	r.active = id
	r.drawn = false
	slog.Info("app activated", "id", id)
	return nil
}

// Deactivate deactivates the active app, if any.
func (r *Registry) Deactivate() {
	r.activation.Lock()
	defer r.activation.Unlock()
	r.deactivateLocked()
}

func (r *Registry) deactivateLocked() {
	if r.active == "" {
		return
	}
	if current, ok := r.apps[r.active]; ok {
		current.Value.SetActive(false)
	}
	slog.Info("app deactivated", "id", r.active)
	r.active = ""
	r.drawn = false
}

// RenderFrame draws the active app on the selected surface and returns the
// app's framerate. An app with framerate zero is drawn once per
// activation. It reports false when nothing was drawn.
func (r *Registry) RenderFrame() (fps float64, drawn bool) {
	r.activation.Lock()
	defer r.activation.Unlock()

	if r.closed || r.active == "" || r.surface == nil {
		return 0, false
	}
	a := r.apps[r.active].Value
	fps = a.Framerate()
	if fps == 0 && r.drawn {
		return 0, false
	}
	r.surface.Value.DrawFrame(a.Render)
	r.drawn = true
	return fps, true
}

// Close deactivates the active app and releases apps, sensors and surfaces
// in that order. Extensions still in use by WithExtension callers are
// unloaded when those calls return.
func (r *Registry) Close() error {
	r.activation.Lock()
	if r.closed {
		r.activation.Unlock()
		return nil
	}
	r.deactivateLocked()
	r.closed = true
	r.activation.Unlock()

	return errors.Join(
		extensions.ReleaseAll(r.apps),
		extensions.ReleaseAll(r.sensors),
		extensions.ReleaseAll(r.surfaces),
	)
}

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Protogen Contributors

// Package surfaces loads render surface extensions and picks the one the
// host draws on.
package surfaces

import (
	"github.com/mrf7777/protogen-software-sub000/internal/extensions"
	"github.com/mrf7777/protogen-software-sub000/pkg/attributes"
	"github.com/mrf7777/protogen-software-sub000/pkg/extension"
	"github.com/mrf7777/protogen-software-sub000/pkg/render"
)

// Kind labels render surfaces in logs and metrics.
const Kind = "surface"

// SafetyWrapper delegates to a render surface inside a fault boundary.
type SafetyWrapper struct {
	inner render.Surface
}

var _ render.Surface = (*SafetyWrapper)(nil)

// Wrap guards s. Wrapping twice is a no-op.
func Wrap(s render.Surface) render.Surface {
	if w, ok := s.(*SafetyWrapper); ok {
		return w
	}
	return &SafetyWrapper{inner: s}
}

// Unwrap returns the guarded surface.
func (w *SafetyWrapper) Unwrap() render.Surface {
	return w.inner
}

func (w *SafetyWrapper) id() string {
	return extensions.GuardValue(Kind, "", "attribute_store", "", func() string {
		return extension.ID(w.inner)
	})
}

func (w *SafetyWrapper) Initialize() extension.Initialization {
	return extensions.GuardValue(Kind, w.id(), "initialize", extension.InitFailure, w.inner.Initialize)
}

func (w *SafetyWrapper) AttributeStore() attributes.Store {
	id := w.id()
	store := extensions.GuardValue[attributes.Store](Kind, id, "attribute_store", nil, w.inner.AttributeStore)
	return extensions.SafeStore(Kind, id, store)
}

// DrawFrame also recovers panics raised by draw. They are counted as
// draw_frame faults of the surface.
func (w *SafetyWrapper) DrawFrame(draw func(render.Canvas)) {
	extensions.Guard(Kind, w.id(), "draw_frame", func() { w.inner.DrawFrame(draw) })
}

func (w *SafetyWrapper) Resolution() render.Resolution {
	return extensions.GuardValue(Kind, w.id(), "resolution", render.Resolution{}, w.inner.Resolution)
}

// NewProvider returns a provider of safety-wrapped render surfaces.
func NewProvider(cfg extensions.ProviderConfig) *extensions.Provider[render.Surface] {
	return &extensions.Provider[render.Surface]{
		Kind:        Kind,
		Finder:      cfg.Finder,
		Initializer: cfg.Initializer,
		Check:       cfg.Check,
		Wrap:        Wrap,
		Metrics:     cfg.Metrics,
	}
}

// Select picks the surface to draw on: the first id in preference that
// was loaded, otherwise the lowest loaded id. It reports false when
// nothing was loaded.
func Select(loaded map[string]*extensions.Loaded[render.Surface], preference []string) (*extensions.Loaded[render.Surface], bool) {
	for _, id := range preference {
		if l, ok := loaded[id]; ok {
			return l, true
		}
	}
	ids := extensions.SortedIDs(loaded)
	if len(ids) == 0 {
		return nil, false
	}
	return loaded[ids[0]], true
}

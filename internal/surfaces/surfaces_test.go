// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Protogen Contributors

package surfaces_test

import (
	"context"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrf7777/protogen-software-sub000/internal/extensions"
	"github.com/mrf7777/protogen-software-sub000/internal/extensions/extensionstest"
	"github.com/mrf7777/protogen-software-sub000/internal/surfaces"
	"github.com/mrf7777/protogen-software-sub000/pkg/render"
)

var panel = render.Resolution{Width: 8, Height: 4}

func TestSafetyWrapper_Delegates(t *testing.T) {
	s := extensionstest.NewSurface(extensionstest.Identity("panel"), panel)
	w := surfaces.Wrap(s)

	assert.Equal(t, panel, w.Resolution())
	w.DrawFrame(func(c render.Canvas) { c.SetPixel(1, 1, color.RGBA{B: 1, A: 255}) })
	assert.Equal(t, 1, s.FrameCount())
	assert.Equal(t, color.RGBA{B: 1, A: 255}, s.Canvas.Pixel(1, 1))
	assert.Same(t, w, surfaces.Wrap(w))
	assert.Same(t, s, w.(*surfaces.SafetyWrapper).Unwrap())
}

func TestSafetyWrapper_Faults(t *testing.T) {
	s := extensionstest.NewSurface(extensionstest.Identity("panel"), panel)
	w := surfaces.Wrap(s)

	s.PanicOn = "resolution"
	assert.Equal(t, render.Resolution{}, w.Resolution())

	s.PanicOn = "draw_frame"
	assert.NotPanics(t, func() { w.DrawFrame(func(render.Canvas) {}) })

	s.PanicOn = ""
	assert.NotPanics(t, func() { w.DrawFrame(func(render.Canvas) { panic("app fault") }) })
}

func loadedSurfaces(t *testing.T, ids ...string) map[string]*extensions.Loaded[render.Surface] {
	t.Helper()
	var bundles []*extensions.Bundle
	for _, id := range ids {
		b, _ := extensionstest.Bundle(extensionstest.NewSurface(extensionstest.Identity(id), panel), "")
		bundles = append(bundles, b)
	}
	p := surfaces.NewProvider(extensions.ProviderConfig{
		Finder:      &extensionstest.Finder{Bundles: bundles},
		Initializer: &extensions.BaseInitializer{},
	})
	loaded, err := p.LoadAll(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { _ = extensions.ReleaseAll(loaded) })
	return loaded
}

func TestSelect(t *testing.T) {
	loaded := loadedSurfaces(t, "web", "hub75")

	got, ok := surfaces.Select(loaded, []string{"missing", "web"})
	require.True(t, ok)
	assert.Equal(t, "web", got.ID)

	got, ok = surfaces.Select(loaded, nil)
	require.True(t, ok)
	assert.Equal(t, "hub75", got.ID, "lowest id without a preference")

	_, ok = surfaces.Select(nil, []string{"web"})
	assert.False(t, ok)
}

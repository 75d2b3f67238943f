// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Protogen Contributors

package render_test

import (
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mrf7777/protogen-software-sub000/pkg/render"
)

func TestResolution_FitsIn(t *testing.T) {
	tests := []struct {
		name  string
		r     render.Resolution
		other render.Resolution
		want  bool
	}{
		{"equal", render.Resolution{Width: 64, Height: 32}, render.Resolution{Width: 64, Height: 32}, true},
		{"smaller", render.Resolution{Width: 32, Height: 16}, render.Resolution{Width: 64, Height: 32}, true},
		{"too wide", render.Resolution{Width: 65, Height: 32}, render.Resolution{Width: 64, Height: 32}, false},
		{"too tall", render.Resolution{Width: 64, Height: 33}, render.Resolution{Width: 64, Height: 32}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.r.FitsIn(tt.other))
		})
	}
}

func TestResolution_String(t *testing.T) {
	assert.Equal(t, "128x32", render.Resolution{Width: 128, Height: 32}.String())
}

func TestFillRegion_ClipsToCanvas(t *testing.T) {
	c := render.NewMemoryCanvas(render.Resolution{Width: 4, Height: 4})
	red := color.RGBA{R: 255, A: 255}

	render.FillRegion(c, -1, -1, 3, 3, red)

	assert.Equal(t, red, c.Pixel(0, 0))
	assert.Equal(t, red, c.Pixel(1, 1))
	assert.Equal(t, color.RGBA{}, c.Pixel(2, 2))
}

func TestFill(t *testing.T) {
	c := render.NewMemoryCanvas(render.Resolution{Width: 3, Height: 2})
	blue := color.RGBA{B: 255, A: 255}

	render.Fill(c, blue)

	for x := range 3 {
		for y := range 2 {
			assert.Equal(t, blue, c.Pixel(x, y))
		}
	}
}

func TestMemoryCanvas_OutOfRangeIgnored(t *testing.T) {
	c := render.NewMemoryCanvas(render.Resolution{Width: 2, Height: 2})

	c.SetPixel(5, 5, color.RGBA{R: 1})

	assert.Equal(t, color.RGBA{}, c.Pixel(5, 5))
}

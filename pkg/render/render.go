// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Protogen Contributors

// Package render defines the render surface capability and the canvas
// handed to drawing code.
package render

import (
	"fmt"
	"image/color"

	"github.com/mrf7777/protogen-software-sub000/pkg/extension"
)

// Canvas is a pixel grid to draw a single frame on.
type Canvas interface {
	Width() int
	Height() int
	SetPixel(x, y int, c color.RGBA)
}

// Surface presents frames on a physical or virtual display.
type Surface interface {
	extension.Extension
	// DrawFrame calls draw with a canvas for the next frame and presents
	// the result. It is called from a single render goroutine.
	DrawFrame(draw func(Canvas))
	Resolution() Resolution
}

// Resolution is a width and height in pixels.
type Resolution struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// FitsIn reports whether r is no larger than other in both dimensions.
func (r Resolution) FitsIn(other Resolution) bool {
	return r.Width <= other.Width && r.Height <= other.Height
}

// Area returns the number of pixels.
func (r Resolution) Area() int {
	return r.Width * r.Height
}

// String returns "WxH".
func (r Resolution) String() string {
	return fmt.Sprintf("%dx%d", r.Width, r.Height)
}

// Fill paints every pixel of c with col.
func Fill(c Canvas, col color.RGBA) {
	FillRegion(c, 0, 0, c.Width(), c.Height(), col)
}

// FillRegion paints a rectangle, clipped to the canvas bounds.
func FillRegion(c Canvas, x, y, w, h int, col color.RGBA) {
	if x < 0 {
		w += x
		x = 0
	}
	if y < 0 {
		h += y
		y = 0
	}
	w = min(w, c.Width()-x)
	h = min(h, c.Height()-y)
	for i := range max(w, 0) {
		for j := range max(h, 0) {
			c.SetPixel(x+i, y+j, col)
		}
	}
}

// MemoryCanvas is an in-memory Canvas backed by a flat pixel slice.
type MemoryCanvas struct {
	res    Resolution
	pixels []color.RGBA
}

// NewMemoryCanvas allocates a black canvas of the given size.
func NewMemoryCanvas(res Resolution) *MemoryCanvas {
	return &MemoryCanvas{res: res, pixels: make([]color.RGBA, max(res.Area(), 0))}
}

// Width returns the canvas width.
func (m *MemoryCanvas) Width() int { return m.res.Width }

// Height returns the canvas height.
func (m *MemoryCanvas) Height() int { return m.res.Height }

// SetPixel sets a pixel. Out of range coordinates are ignored.
func (m *MemoryCanvas) SetPixel(x, y int, c color.RGBA) {
	if x < 0 || y < 0 || x >= m.res.Width || y >= m.res.Height {
		return
	}
	m.pixels[y*m.res.Width+x] = c
}

// Pixel returns the color at x, y, or transparent black when out of range.
func (m *MemoryCanvas) Pixel(x, y int) color.RGBA {
	if x < 0 || y < 0 || x >= m.res.Width || y >= m.res.Height {
		return color.RGBA{}
	}
	return m.pixels[y*m.res.Width+x]
}

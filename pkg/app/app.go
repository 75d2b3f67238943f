// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Protogen Contributors

// Package app defines the app capability: an extension that draws on the
// head's display while it is the active app.
package app

import (
	"math"
	"net/http"

	"github.com/mrf7777/protogen-software-sub000/pkg/extension"
	"github.com/mrf7777/protogen-software-sub000/pkg/render"
	"github.com/mrf7777/protogen-software-sub000/pkg/sensor"
)

// MaxFramerate is the highest framerate the host will render an app at.
const MaxFramerate = 60.0

// App is a selectable program for the display.
//
// The host calls ReceiveRenderSurface and ReceiveSensors once, after
// Initialize succeeds. SetActive marks the start and end of the period in
// which the app may run background work; the host never calls it
// concurrently for the same app.
type App interface {
	extension.Extension
	SetActive(active bool)
	ReceiveRenderSurface(surface render.Surface)
	ReceiveSensors(sensors []sensor.Sensor)
	// Render draws one frame. It is only called while the app is active.
	Render(canvas render.Canvas)
	// Framerate is the desired number of frames per second. Zero means
	// the app only needs to be drawn once per activation.
	Framerate() float64
}

// WebApp is implemented by apps that serve their own HTTP pages. The host
// mounts the handler under the app's path prefix.
type WebApp interface {
	App
	Handler() http.Handler
}

// ClampFramerate bounds fps to [0, MaxFramerate].
func ClampFramerate(fps float64) float64 {
	switch {
	case math.IsNaN(fps), fps < 0:
		return 0
	case fps > MaxFramerate:
		return MaxFramerate
	default:
		return fps
	}
}

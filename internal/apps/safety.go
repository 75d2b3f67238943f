// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Protogen Contributors

package apps

import (
	"net/http"

	"github.com/mrf7777/protogen-software-sub000/internal/extensions"
	"github.com/mrf7777/protogen-software-sub000/pkg/app"
	"github.com/mrf7777/protogen-software-sub000/pkg/attributes"
	"github.com/mrf7777/protogen-software-sub000/pkg/extension"
	"github.com/mrf7777/protogen-software-sub000/pkg/render"
	"github.com/mrf7777/protogen-software-sub000/pkg/sensor"
)

// SafetyWrapper delegates to an app and turns any panic into a logged
// fault with a safe default result.
type SafetyWrapper struct {
	inner app.App
}

var _ app.App = (*SafetyWrapper)(nil)

// Wrap guards a. Apps serving HTTP keep their handler. Wrapping twice is a
// no-op.
func Wrap(a app.App) app.App {
	switch a.(type) {
	case *SafetyWrapper, *webSafetyWrapper:
		return a
	}
	w := &SafetyWrapper{inner: a}
	if web, ok := a.(app.WebApp); ok {
		return &webSafetyWrapper{SafetyWrapper: w, web: web}
	}
	return w
}

// Unwrap returns the guarded app.
func (w *SafetyWrapper) Unwrap() app.App {
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

func (w *SafetyWrapper) SetActive(active bool) {
	extensions.Guard(Kind, w.id(), "set_active", func() { w.inner.SetActive(active) })
}

func (w *SafetyWrapper) ReceiveRenderSurface(s render.Surface) {
	extensions.Guard(Kind, w.id(), "receive_render_surface", func() { w.inner.ReceiveRenderSurface(s) })
}

func (w *SafetyWrapper) ReceiveSensors(s []sensor.Sensor) {
	extensions.Guard(Kind, w.id(), "receive_sensors", func() { w.inner.ReceiveSensors(s) })
}

func (w *SafetyWrapper) Render(c render.Canvas) {
	extensions.Guard(Kind, w.id(), "render", func() { w.inner.Render(c) })
}

// Framerate is clamped to [0, app.MaxFramerate].
func (w *SafetyWrapper) Framerate() float64 {
	fps := extensions.GuardValue[float64](Kind, w.id(), "framerate", 0, w.inner.Framerate)
	return app.ClampFramerate(fps)
}

type webSafetyWrapper struct {
	*SafetyWrapper
	web app.WebApp
}

var _ app.WebApp = (*webSafetyWrapper)(nil)

// Handler guards both obtaining the handler and serving requests.
func (w *webSafetyWrapper) Handler() http.Handler {
	id := w.id()
	h := extensions.GuardValue[http.Handler](Kind, id, "handler", nil, w.web.Handler)
	if h == nil {
		return nil
	}
	return &safeHandler{id: id, inner: h}
}

type safeHandler struct {
	id    string
	inner http.Handler
}

func (h *safeHandler) ServeHTTP(rw http.ResponseWriter, r *http.Request) {
	ok := extensions.Guard(Kind, h.id, "serve_http", func() { h.inner.ServeHTTP(rw, r) })
	if !ok {
		http.Error(rw, "app failed to handle the request", http.StatusInternalServerError)
	}
}

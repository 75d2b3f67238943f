// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Protogen Contributors

package control

import (
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/samber/lo"

	"github.com/mrf7777/protogen-software-sub000/internal/apps"
	"github.com/mrf7777/protogen-software-sub000/internal/host"
	"github.com/mrf7777/protogen-software-sub000/internal/sensors"
	"github.com/mrf7777/protogen-software-sub000/internal/surfaces"
	"github.com/mrf7777/protogen-software-sub000/pkg/app"
	"github.com/mrf7777/protogen-software-sub000/pkg/attributes"
	"github.com/mrf7777/protogen-software-sub000/pkg/errutil"
	"github.com/mrf7777/protogen-software-sub000/pkg/extension"
	"github.com/mrf7777/protogen-software-sub000/pkg/sensor"
)

// CodeNotReady is reported before the first load completes.
const CodeNotReady = "NOT_READY"

// maxAttributeSize bounds PUT bodies.
const maxAttributeSize = 64 << 10

// ListResponse is returned by GET /extensions.
type ListResponse struct {
	Surfaces []host.Summary `json:"surfaces"`
	Sensors  []host.Summary `json:"sensors"`
	Apps     []host.Summary `json:"apps"`
}

// AttributeResponse describes one attribute.
type AttributeResponse struct {
	Key    string `json:"key"`
	Value  string `json:"value,omitempty"`
	Access string `json:"access,omitempty"`
	Result string `json:"result,omitempty"`
}

// ReadingResponse is returned by GET /sensors/channels/{channel}.
type ReadingResponse struct {
	Channel string              `json:"channel"`
	Status  string              `json:"status"`
	Value   sensor.ChannelValue `json:"value,omitempty"`
	Time    time.Time           `json:"time"`
}

// ActivationResponse is returned by the app activation endpoints.
type ActivationResponse struct {
	Active string `json:"active"`
}

// ReloadResponse is returned by POST /extensions/reload.
type ReloadResponse struct {
	Extensions int `json:"extensions"`
}

type extensionHandlers struct {
	backend Backend
}

// RegisterRoutes registers the extension routes.
func (h *extensionHandlers) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/extensions", h.list).Methods(http.MethodGet)
	r.HandleFunc("/extensions/reload", h.reload).Methods(http.MethodPost)
	r.HandleFunc("/extensions/{kind}/{id}/attributes", h.attributes).Methods(http.MethodGet)
	r.HandleFunc("/extensions/{kind}/{id}/attributes/{key}", h.getAttribute).Methods(http.MethodGet)
	r.HandleFunc("/extensions/{kind}/{id}/attributes/{key}", h.setAttribute).Methods(http.MethodPut)
	r.HandleFunc("/extensions/{kind}/{id}/attributes/{key}", h.removeAttribute).Methods(http.MethodDelete)

	r.HandleFunc("/apps/deactivate", h.deactivate).Methods(http.MethodPost)
	r.HandleFunc("/apps/{id}/activate", h.activate).Methods(http.MethodPost)
	r.PathPrefix("/apps/{id}/web").HandlerFunc(h.web)

	r.HandleFunc("/sensors/channels", h.channels).Methods(http.MethodGet)
	r.HandleFunc("/sensors/channels/{channel}", h.read).Methods(http.MethodGet)
}

// registry returns the current generation or writes 503.
func (h *extensionHandlers) registry(w http.ResponseWriter) (*host.Registry, bool) {
	reg := h.backend.Registry()
	if reg == nil {
		writeError(w, http.StatusServiceUnavailable, CodeNotReady, "extensions are not loaded")
		return nil, false
	}
	return reg, true
}

func writeRegistryError(w http.ResponseWriter, err error) {
	code := errutil.Code(err, "")
	status := http.StatusInternalServerError
	switch code {
	case host.CodeNotFound:
		status = http.StatusNotFound
	case host.CodeUnknownKind:
		status = http.StatusBadRequest
	case host.CodeClosed:
		status = http.StatusServiceUnavailable
	}
	writeError(w, status, code, err.Error())
}

// list handles GET /extensions
func (h *extensionHandlers) list(w http.ResponseWriter, _ *http.Request) {
	reg, ok := h.registry(w)
	if !ok {
		return
	}
	byKind := lo.GroupBy(reg.List(), func(s host.Summary) string { return s.Kind })
	writeJSON(w, http.StatusOK, ListResponse{
		Surfaces: nonNil(byKind[surfaces.Kind]),
		Sensors:  nonNil(byKind[sensors.Kind]),
		Apps:     nonNil(byKind[apps.Kind]),
	})
}

func nonNil(s []host.Summary) []host.Summary {
	if s == nil {
		return []host.Summary{}
	}
	return s
}

// reload handles POST /extensions/reload
func (h *extensionHandlers) reload(w http.ResponseWriter, r *http.Request) {
	if err := h.backend.Reload(r.Context()); err != nil {
		errutil.LogError(slog.Default(), "reload failed", err)
		writeError(w, http.StatusInternalServerError, errutil.Code(err, ""), err.Error())
		return
	}
	reg, ok := h.registry(w)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, ReloadResponse{Extensions: len(reg.List())})
}

// withStore runs fn on the attribute store of the addressed extension.
func (h *extensionHandlers) withStore(w http.ResponseWriter, r *http.Request, fn func(attributes.Store)) bool {
	reg, ok := h.registry(w)
	if !ok {
		return false
	}
	vars := mux.Vars(r)
	err := reg.WithExtension(vars["kind"], vars["id"], func(e extension.Extension) {
		fn(e.AttributeStore())
	})
	if err != nil {
		writeRegistryError(w, err)
		return false
	}
	return true
}

// attributes handles GET /extensions/{kind}/{id}/attributes
func (h *extensionHandlers) attributes(w http.ResponseWriter, r *http.Request) {
	var snapshot map[string]string
	if h.withStore(w, r, func(s attributes.Store) { snapshot = attributes.Snapshot(s) }) {
		writeJSON(w, http.StatusOK, snapshot)
	}
}

// getAttribute handles GET /extensions/{kind}/{id}/attributes/{key}
func (h *extensionHandlers) getAttribute(w http.ResponseWriter, r *http.Request) {
	key := mux.Vars(r)["key"]
	var (
		resp   = AttributeResponse{Key: key}
		exists bool
		found  bool
	)
	if !h.withStore(w, r, func(s attributes.Store) {
		if s == nil {
			return
		}
		var access attributes.Access
		if access, exists = s.AttributeAccess(key); exists {
			resp.Access = access.String()
		}
		resp.Value, found = s.GetAttribute(key)
	}) {
		return
	}

	switch {
	case !exists:
		writeError(w, http.StatusNotFound, "", "no attribute "+key)
	case !found:
		writeError(w, http.StatusForbidden, "", "attribute "+key+" is not readable")
	default:
		writeJSON(w, http.StatusOK, resp)
	}
}

// setAttribute handles PUT /extensions/{kind}/{id}/attributes/{key}
func (h *extensionHandlers) setAttribute(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxAttributeSize+1))
	if err != nil {
		writeError(w, http.StatusBadRequest, "", err.Error())
		return
	}
	if len(body) > maxAttributeSize {
		writeError(w, http.StatusRequestEntityTooLarge, "", "attribute value too large")
		return
	}

	key := mux.Vars(r)["key"]
	result := attributes.SetRejectedByPolicy
	if !h.withStore(w, r, func(s attributes.Store) {
		if s != nil {
			result = s.SetAttribute(key, strings.TrimSuffix(string(body), "\n"))
		}
	}) {
		return
	}

	status := http.StatusForbidden
	switch result {
	case attributes.SetCreated:
		status = http.StatusCreated
	case attributes.SetUpdated:
		status = http.StatusOK
	}
	writeJSON(w, status, AttributeResponse{Key: key, Result: result.String()})
}

// removeAttribute handles DELETE /extensions/{kind}/{id}/attributes/{key}
func (h *extensionHandlers) removeAttribute(w http.ResponseWriter, r *http.Request) {
	key := mux.Vars(r)["key"]
	result := attributes.RemoveRejectedByPolicy
	if !h.withStore(w, r, func(s attributes.Store) {
		if s != nil {
			result = s.RemoveAttribute(key)
		}
	}) {
		return
	}

	status := http.StatusForbidden
	switch result {
	case attributes.RemoveRemoved:
		status = http.StatusOK
	case attributes.RemoveDoesNotExist:
		status = http.StatusNotFound
	}
	writeJSON(w, status, AttributeResponse{Key: key, Result: result.String()})
}

// activate handles POST /apps/{id}/activate
func (h *extensionHandlers) activate(w http.ResponseWriter, r *http.Request) {
	reg, ok := h.registry(w)
	if !ok {
		return
	}
	if err := reg.Activate(mux.Vars(r)["id"]); err != nil {
		writeRegistryError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ActivationResponse{Active: reg.Active()})
}

// deactivate handles POST /apps/deactivate
func (h *extensionHandlers) deactivate(w http.ResponseWriter, _ *http.Request) {
	reg, ok := h.registry(w)
	if !ok {
		return
	}
	reg.Deactivate()
	writeJSON(w, http.StatusOK, ActivationResponse{})
}

// web serves /apps/{id}/web/... from the app's own handler.
func (h *extensionHandlers) web(w http.ResponseWriter, r *http.Request) {
	reg, ok := h.registry(w)
	if !ok {
		return
	}
	id := mux.Vars(r)["id"]
	served := false
	err := reg.WithApp(id, func(a app.App) {
		web, isWeb := a.(app.WebApp)
		if !isWeb {
			return
		}
		handler := web.Handler()
		if handler == nil {
			return
		}
		served = true
		http.StripPrefix("/apps/"+id+"/web", handler).ServeHTTP(w, r)
	})
	if err != nil {
		writeRegistryError(w, err)
		return
	}
	if !served {
		writeError(w, http.StatusNotFound, "", "app "+id+" has no web interface")
	}
}

// channels handles GET /sensors/channels
func (h *extensionHandlers) channels(w http.ResponseWriter, _ *http.Request) {
	reg, ok := h.registry(w)
	if !ok {
		return
	}
	channels := reg.Sensor().Channels()
	if channels == nil {
		channels = []sensor.ChannelInfo{}
	}
	writeJSON(w, http.StatusOK, channels)
}

// read handles GET /sensors/channels/{channel}
func (h *extensionHandlers) read(w http.ResponseWriter, r *http.Request) {
	reg, ok := h.registry(w)
	if !ok {
		return
	}
	channel := mux.Vars(r)["channel"]
	res := reg.Sensor().Read(channel)

	status := http.StatusOK
	switch res.Status {
	case sensor.ReadChannelNotFound:
		status = http.StatusNotFound
	case sensor.ReadFailed:
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, ReadingResponse{
		Channel: channel,
		Status:  res.Status.String(),
		Value:   res.Value,
		Time:    res.Time,
	})
}

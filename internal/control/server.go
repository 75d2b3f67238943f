// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Protogen Contributors

// Package control provides the HTTP control interface of the extension host.
package control

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gorilla/mux"
	"github.com/samber/oops"

	"github.com/mrf7777/protogen-software-sub000/internal/host"
)

// Backend is the host the control server drives.
type Backend interface {
	Registry() *host.Registry
	Reload(ctx context.Context) error
	Ready() bool
}

// HealthResponse is returned by the /health endpoint.
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

// StatusResponse is returned by the /status endpoint.
type StatusResponse struct {
	Running       bool   `json:"running"`
	Ready         bool   `json:"ready"`
	PID           int    `json:"pid"`
	UptimeSeconds int64  `json:"uptime_seconds"`
	ActiveApp     string `json:"active_app,omitempty"`
}

// ShutdownResponse is returned by the /shutdown endpoint.
type ShutdownResponse struct {
	Message string `json:"message"`
}

// ErrorResponse is the body of every non-2xx JSON response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// ShutdownFunc is called when shutdown is requested.
type ShutdownFunc func()

// Option configures a Server.
type Option func(*Server)

// WithShutdown enables POST /shutdown.
func WithShutdown(fn ShutdownFunc) Option {
	return func(s *Server) {
		s.shutdownFunc = fn
	}
}

// WithHandler mounts h under prefix, for example the observability routes.
func WithHandler(prefix string, h http.Handler) Option {
	return func(s *Server) {
		s.mounts = append(s.mounts, mount{prefix: prefix, handler: h})
	}
}

type mount struct {
	prefix  string
	handler http.Handler
}

// Server serves the control API over HTTP.
type Server struct {
	addr         string
	backend      Backend
	startTime    time.Time
	listener     net.Listener
	httpServer   *http.Server
	shutdownFunc ShutdownFunc
	mounts       []mount
	running      atomic.Bool
}

// NewServer creates a control server for backend listening on addr.
func NewServer(addr string, backend Backend, opts ...Option) *Server {
	s := &Server{
		addr:      addr,
		backend:   backend,
		startTime: time.Now(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the control routes. It is usable without Start.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/status", s.handleStatus).Methods(http.MethodGet)
	if s.shutdownFunc != nil {
		r.HandleFunc("/shutdown", s.handleShutdown).Methods(http.MethodPost)
	}
	(&extensionHandlers{backend: s.backend}).RegisterRoutes(r)
	for _, m := range s.mounts {
		r.PathPrefix(m.prefix).Handler(m.handler)
	}
	return r
}

// Start begins serving. The returned channel receives a serve error, and
// is closed when the server stops.
func (s *Server) Start() (<-chan error, error) {
	if !s.running.CompareAndSwap(false, true) {
		return nil, oops.In("control").Errorf("control server already running")
	}

	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		s.running.Store(false)
		return nil, oops.In("control").With("addr", s.addr).Wrap(err)
	}
	s.listener = listener

	s.httpServer = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		defer close(errCh)
		if err := s.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("control server error", "error", err)
			errCh <- err
		}
	}()

	slog.Info("control server started", "addr", listener.Addr().String())
	return errCh, nil
}

// Stop gracefully shuts down the control server.
func (s *Server) Stop(ctx context.Context) error {
	if !s.running.CompareAndSwap(true, false) {
		return nil
	}
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return oops.In("control").With("operation", "shutdown_control_server").Wrap(err)
	}
	slog.Info("control server stopped")
	return nil
}

// Addr returns the address the server is listening on, or "" before Start.
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return ""
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	resp := StatusResponse{
		Running:       true,
		Ready:         s.backend.Ready(),
		PID:           os.Getpid(),
		UptimeSeconds: int64(time.Since(s.startTime).Seconds()),
	}
	if reg := s.backend.Registry(); reg != nil {
		resp.ActiveApp = reg.Active()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleShutdown(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusAccepted, ShutdownResponse{Message: "shutdown initiated"})
	go s.shutdownFunc()
}

func writeJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, statusCode int, code, msg string) {
	writeJSON(w, statusCode, ErrorResponse{Error: strings.TrimSpace(msg), Code: code})
}

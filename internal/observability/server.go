// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Protogen Contributors

// Package observability provides HTTP endpoints for metrics and health checks.
package observability

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/samber/oops"
)

// ReadinessChecker returns whether the host has finished loading extensions.
type ReadinessChecker func() bool

// extensionFaults is a package-level counter for faults caught at the
// extension call boundary. Safety wrappers increment it without needing
// access to the Server instance.
var extensionFaults = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "protogen_extension_faults_total",
		Help: "Total number of faults caught at the extension call boundary by kind and operation",
	},
	[]string{"kind", "operation"},
)

// RecordExtensionFault increments the extension fault counter.
func RecordExtensionFault(kind, operation string) {
	extensionFaults.WithLabelValues(kind, operation).Inc()
}

// ExtensionFaults exposes the fault counter for tests.
func ExtensionFaults() *prometheus.CounterVec {
	return extensionFaults
}

// Metrics contains custom Prometheus metrics for the extension host.
type Metrics struct {
	ExtensionsLoaded  *prometheus.CounterVec
	ExtensionsSkipped *prometheus.CounterVec
	Reloads           prometheus.Counter
}

// NewMetrics creates and registers extension host metrics.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ExtensionsLoaded: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "protogen_extensions_loaded_total",
				Help: "Total number of extensions loaded by kind",
			},
			[]string{"kind"},
		),
		ExtensionsSkipped: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "protogen_extensions_skipped_total",
				Help: "Total number of extension candidates skipped by kind and stage",
			},
			[]string{"kind", "stage"},
		),
		Reloads: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "protogen_reloads_total",
				Help: "Total number of extension reloads",
			},
		),
	}

	reg.MustRegister(m.ExtensionsLoaded)
	reg.MustRegister(m.ExtensionsSkipped)
	reg.MustRegister(m.Reloads)
	reg.MustRegister(extensionFaults)

	return m
}

// Server provides HTTP endpoints for observability (metrics and health probes).
type Server struct {
	addr       string
	listener   net.Listener
	httpServer *http.Server
	registry   *prometheus.Registry
	metrics    *Metrics
	isReady    ReadinessChecker
	running    atomic.Bool
}

// NewServer creates a new observability server.
// addr: listen address in "host:port" format (e.g., "127.0.0.1:9100", ":9100" for all interfaces).
func NewServer(addr string, readinessChecker ReadinessChecker) *Server {
	registry := prometheus.NewRegistry()

	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	metrics := NewMetrics(registry)

	s := &Server{
		addr:     addr,
		registry: registry,
		metrics:  metrics,
		isReady:  readinessChecker,
	}

	return s
}

// Metrics returns the custom metrics for recording application events.
func (s *Server) Metrics() *Metrics {
	return s.metrics
}

// Start begins serving observability endpoints.
// It returns an error channel that will receive any errors from the HTTP server
// after it starts. The channel is closed when the server stops gracefully.
// Callers should monitor this channel to detect server failures.
func (s *Server) Start() (<-chan error, error) {
	if !s.running.CompareAndSwap(false, true) {
		return nil, oops.Errorf("observability server already running")
	}

	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		s.running.Store(false)
		return nil, oops.With("addr", s.addr).Wrap(err)
	}
	s.listener = listener

	httpSrv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.httpServer = httpSrv

	// Create buffered error channel so the goroutine doesn't block
	errCh := make(chan error, 1)

	go func() {
		defer close(errCh)
		if serveErr := httpSrv.Serve(listener); serveErr != nil && serveErr != http.ErrServerClosed {
			slog.Error("observability server error", "error", serveErr)
			errCh <- serveErr
		}
	}()

	slog.Info("observability server started", "addr", listener.Addr().String())
	return errCh, nil
}

// Handler returns the metrics and health probe routes. It is usable
// without Start, which lets the control server share a port with it.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	}))
	mux.HandleFunc("/healthz/liveness", s.handleLiveness)
	mux.HandleFunc("/healthz/readiness", s.handleReadiness)
	return mux
}

// Registry returns the registry metrics are registered on.
func (s *Server) Registry() *prometheus.Registry {
	return s.registry
}

// Stop gracefully shuts down the observability server.
func (s *Server) Stop(ctx context.Context) error {
	if !s.running.CompareAndSwap(true, false) {
		return nil
	}

	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			s.running.Store(true)
			return oops.With("operation", "shutdown_observability_server").Wrap(err)
		}
	}

	slog.Info("observability server stopped")
	return nil
}

// Addr returns the address the server is listening on.
// Returns empty string if not running.
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return ""
}

// handleLiveness returns 200 if the process is running.
// This is a simple check that the process is alive.
func (s *Server) handleLiveness(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	//nolint:errcheck // health check write error is acceptable, client may disconnect
	w.Write([]byte("ok\n"))
}

// handleReadiness returns 200 once extensions are loaded, or 503 if not ready.
func (s *Server) handleReadiness(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")

	if s.isReady == nil || s.isReady() {
		w.WriteHeader(http.StatusOK)
		//nolint:errcheck // health check write error is acceptable, client may disconnect
		w.Write([]byte("ok\n"))
		return
	}

	w.WriteHeader(http.StatusServiceUnavailable)
	//nolint:errcheck // health check write error is acceptable, client may disconnect
	w.Write([]byte("not ready\n"))
}

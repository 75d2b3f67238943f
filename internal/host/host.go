// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Protogen Contributors

package host

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/samber/oops"

	"github.com/mrf7777/protogen-software-sub000/internal/apps"
	"github.com/mrf7777/protogen-software-sub000/internal/extensions"
	"github.com/mrf7777/protogen-software-sub000/internal/observability"
	"github.com/mrf7777/protogen-software-sub000/internal/sensors"
	"github.com/mrf7777/protogen-software-sub000/internal/surfaces"
	"github.com/mrf7777/protogen-software-sub000/pkg/extension"
	"github.com/mrf7777/protogen-software-sub000/pkg/sensor"
)

// Config selects where extensions come from and how they are used.
type Config struct {
	AppsDir     string
	SensorsDir  string
	SurfacesDir string
	// Ignore holds glob patterns for extension directory names to skip.
	Ignore []string

	// SurfacePreference lists render surface ids, most preferred first.
	SurfacePreference []string
	// DefaultApp is activated after a load when no app was active.
	DefaultApp string
	// VersionConstraint, when set, must be satisfied by extension versions.
	VersionConstraint string

	CreateUserDataDirs bool
	SensorCacheTTL     time.Duration
	SensorCacheSize    int

	// IdleInterval is how often the render loop checks for work when no
	// app is being animated.
	IdleInterval time.Duration
}

// DefaultIdleInterval is used when Config.IdleInterval is zero.
const DefaultIdleInterval = 100 * time.Millisecond

// MaxFrameInterval bounds the wait between two frames of a slow app.
const MaxFrameInterval = time.Minute

// Host loads extensions into registries and drives the active app. A
// reload builds a new registry from scratch and retires the old one.
type Host struct {
	cfg      Config
	loader   extensions.ModuleLoader
	metrics  *observability.Metrics
	userData *extensions.HomeUserDataLocator

	mu      sync.Mutex
	loads   int
	closed  bool
	current atomic.Pointer[Registry]
}

// Option configures a Host.
type Option func(*Host)

// WithMetrics records load and reload counters.
func WithMetrics(m *observability.Metrics) Option {
	return func(h *Host) {
		h.metrics = m
	}
}

// WithUserDataLocator replaces the home directory based user data locator.
func WithUserDataLocator(l *extensions.HomeUserDataLocator) Option {
	return func(h *Host) {
		h.userData = l
	}
}

// New creates a host. Nothing is loaded until Reload.
func New(cfg Config, loader extensions.ModuleLoader, opts ...Option) *Host {
	if cfg.IdleInterval <= 0 {
		cfg.IdleInterval = DefaultIdleInterval
	}
	h := &Host{cfg: cfg, loader: loader, userData: extensions.NewHomeUserDataLocator()}
	for _, opt := range opts {
		opt(h)
	}
	h.userData.Create = cfg.CreateUserDataDirs
	return h
}

// Registry returns the current generation, or nil before the first load.
func (h *Host) Registry() *Registry {
	return h.current.Load()
}

// Ready reports whether extensions have been loaded.
func (h *Host) Ready() bool {
	return h.current.Load() != nil
}

// Reload loads every extension again. On success the previous generation
// is closed and the previously active app, or the default app, is
// activated in the new one. On failure the previous generation stays.
func (h *Host) Reload(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return oops.In("host").Code(CodeClosed).Wrap(ErrClosed)
	}

	next, err := h.build(ctx)
	if err != nil {
		return err
	}

	prev := h.current.Swap(next)
	want := h.cfg.DefaultApp
	if prev != nil {
		if active := prev.Active(); active != "" {
			want = active
		}
		if err := prev.Close(); err != nil {
			slog.WarnContext(ctx, "closing previous extensions failed", "error", err)
		}
	}

	h.loads++
	if h.loads > 1 && h.metrics != nil {
		h.metrics.Reloads.Inc()
	}

	if want != "" {
		if err := next.Activate(want); err != nil {
			slog.WarnContext(ctx, "could not activate app after load", "id", want, "error", err)
		}
	}
	return nil
}

func (h *Host) build(ctx context.Context) (*Registry, error) {
	surfaceSet, err := load(ctx, h, h.cfg.SurfacesDir, surfaces.NewProvider, nil)
	if err != nil {
		return nil, err
	}
	selected, haveSurface := surfaces.Select(surfaceSet, h.cfg.SurfacePreference)
	if !haveSurface {
		slog.WarnContext(ctx, "no render surface loaded")
	}

	sensorSet, err := load(ctx, h, h.cfg.SensorsDir, func(cfg extensions.ProviderConfig) *extensions.Provider[sensor.Sensor] {
		return sensors.NewProvider(cfg)
	}, nil)
	if err != nil {
		return nil, errors.Join(err, extensions.ReleaseAll(surfaceSet))
	}
	sensorValues := sensors.Values(sensorSet)
	combined := sensors.NewCached(sensor.Combine(sensorValues...), h.cfg.SensorCacheSize, h.cfg.SensorCacheTTL)

	appSet, err := load(ctx, h, h.cfg.AppsDir, apps.NewProvider, func(base extensions.Initializer) extensions.Initializer {
		init := &apps.Initializer{Inner: base, Sensors: sensorValues}
		if haveSurface {
			init.Surface = selected.Value
		}
		return init
	})
	if err != nil {
		return nil, errors.Join(err, extensions.ReleaseAll(sensorSet), extensions.ReleaseAll(surfaceSet))
	}

	return NewRegistry(surfaceSet, selected, sensorSet, combined, appSet), nil
}

// load runs one provider over root. decorate may wrap the base initializer.
func load[T extension.Extension](
	ctx context.Context,
	h *Host,
	root string,
	newProvider func(extensions.ProviderConfig) *extensions.Provider[T],
	decorate func(extensions.Initializer) extensions.Initializer,
) (map[string]*extensions.Loaded[T], error) {
	if root == "" {
		return map[string]*extensions.Loaded[T]{}, nil
	}

	finder, err := extensions.NewDirectoryFinder(root, h.loader, h.cfg.Ignore...)
	if err != nil {
		return nil, err
	}

	var init extensions.Initializer = &extensions.BaseInitializer{
		UserData:  h.userData,
		Resources: extensions.NewResourceLocator(root),
	}
	if decorate != nil {
		init = decorate(init)
	}

	check, err := h.check()
	if err != nil {
		return nil, err
	}

	return newProvider(extensions.ProviderConfig{
		Finder:      finder,
		Initializer: init,
		Check:       check,
		Metrics:     h.metrics,
	}).LoadAll(ctx)
}

func (h *Host) check() (extensions.Check, error) {
	required := extensions.NewRequiredAttributesCheck()
	if h.cfg.VersionConstraint == "" {
		return required, nil
	}
	version, err := extensions.NewVersionCheck(h.cfg.VersionConstraint)
	if err != nil {
		return nil, err
	}
	return extensions.NewAllChecks(required, version), nil
}

// Run drives the render loop until ctx is done.
func (h *Host) Run(ctx context.Context) error {
	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-timer.C:
		}

		wait := h.cfg.IdleInterval
		if reg := h.current.Load(); reg != nil {
			if fps, drawn := reg.RenderFrame(); drawn {
				wait = frameInterval(fps, wait)
			}
		}
		timer.Reset(wait)
	}
}

// frameInterval is the wait between frames at fps, at most
// MaxFrameInterval. Apps without a positive framerate wait idle.
func frameInterval(fps float64, idle time.Duration) time.Duration {
	if math.IsNaN(fps) || fps <= 0 {
		return idle
	}
	wait := float64(time.Second) / fps
	if wait > float64(MaxFrameInterval) {
		return MaxFrameInterval
	}
	return time.Duration(wait)
}

// Close retires the current generation. The host cannot be reloaded
// afterwards.
func (h *Host) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil
	}
	h.closed = true
	if reg := h.current.Swap(nil); reg != nil {
		return reg.Close()
	}
	return nil
}

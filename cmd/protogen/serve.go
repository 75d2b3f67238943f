// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Protogen Contributors

package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/samber/oops"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/mrf7777/protogen-software-sub000/internal/config"
	"github.com/mrf7777/protogen-software-sub000/internal/control"
	"github.com/mrf7777/protogen-software-sub000/internal/extensions"
	"github.com/mrf7777/protogen-software-sub000/internal/host"
	"github.com/mrf7777/protogen-software-sub000/internal/logging"
	"github.com/mrf7777/protogen-software-sub000/internal/observability"
	"github.com/mrf7777/protogen-software-sub000/internal/watch"
)

// shutdownTimeout bounds how long servers get to drain.
const shutdownTimeout = 5 * time.Second

// serveDeps holds injectable dependencies for the serve command.
type serveDeps struct {
	// LoaderFactory builds the module loader. Default: newLoader.
	LoaderFactory func(cfg config.Config) (extensions.ModuleLoader, error)

	// Ready, when set, is called with the control and observability
	// addresses once both servers listen.
	Ready func(controlAddr, metricsAddr string)
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Load extensions and run the active app",
		Long: `Load every extension, activate the default app and render it until
interrupted. SIGHUP and POST /extensions/reload reload all extensions.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			logging.SetDefault(cfg.Logging(version))
			return runServe(cmd.Context(), cfg, nil)
		},
	}
}

// runServe runs the host until ctx is done, a termination signal arrives or
// shutdown is requested over the control server.
func runServe(ctx context.Context, cfg config.Config, deps *serveDeps) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if deps == nil {
		deps = &serveDeps{}
	}
	if deps.LoaderFactory == nil {
		deps.LoaderFactory = func(cfg config.Config) (extensions.ModuleLoader, error) {
			return newLoader(cfg)
		}
	}

	loader, err := deps.LoaderFactory(cfg)
	if err != nil {
		return oops.In("serve").Wrapf(err, "create module loader")
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var (
		h         *host.Host
		obsServer *observability.Server
		metrics   *observability.Metrics
	)
	if cfg.Observability.Addr != "" {
		obsServer = observability.NewServer(cfg.Observability.Addr, func() bool { return h.Ready() })
		metrics = obsServer.Metrics()
	} else {
		metrics = observability.NewMetrics(prometheus.NewRegistry())
	}

	h = host.New(cfg.HostConfig(), loader, host.WithMetrics(metrics))
	defer func() {
		if err := h.Close(); err != nil {
			slog.Warn("closing extensions failed", "error", err)
		}
	}()

	slog.Info("loading extensions",
		"apps_dir", cfg.Extensions.AppsDir,
		"sensors_dir", cfg.Extensions.SensorsDir,
		"surfaces_dir", cfg.Extensions.SurfacesDir)
	if err := h.Reload(ctx); err != nil {
		return oops.In("serve").Wrapf(err, "load extensions")
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return h.Run(gctx) })
	g.Go(func() error { return reloadOnHangup(gctx, h) })
	if cfg.Extensions.Watch {
		w := watch.New(cfg.Roots(), cfg.Extensions.WatchDebounce, h.Reload)
		g.Go(func() error { return w.Run(gctx) })
	}

	var controlAddr, metricsAddr string
	if obsServer != nil {
		errCh, err := obsServer.Start()
		if err != nil {
			cancel()
			return errors.Join(g.Wait(), oops.In("serve").Wrapf(err, "start observability server"))
		}
		metricsAddr = obsServer.Addr()
		g.Go(func() error { return monitorServerErrors(gctx, errCh) })
		g.Go(func() error { return stopOnDone(gctx, "observability", obsServer.Stop) })
	}
	if cfg.Control.Addr != "" {
		ctrl := control.NewServer(cfg.Control.Addr, h, control.WithShutdown(control.ShutdownFunc(cancel)))
		errCh, err := ctrl.Start()
		if err != nil {
			cancel()
			return errors.Join(g.Wait(), oops.In("serve").Wrapf(err, "start control server"))
		}
		controlAddr = ctrl.Addr()
		g.Go(func() error { return monitorServerErrors(gctx, errCh) })
		g.Go(func() error { return stopOnDone(gctx, "control", ctrl.Stop) })
	}

	if deps.Ready != nil {
		deps.Ready(controlAddr, metricsAddr)
	}
	slog.Info("protogen ready", "control_addr", controlAddr, "metrics_addr", metricsAddr)

	err = g.Wait()
	slog.Info("shutdown complete")
	return err
}

// reloadOnHangup reloads extensions on every SIGHUP.
func reloadOnHangup(ctx context.Context, h *host.Host) error {
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGHUP)
	defer signal.Stop(sig)

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-sig:
			slog.Info("received SIGHUP, reloading extensions")
			if err := h.Reload(ctx); err != nil {
				slog.Error("reload failed", "error", err)
			}
		}
	}
}

// monitorServerErrors returns a serve error, ending the group.
func monitorServerErrors(ctx context.Context, errCh <-chan error) error {
	select {
	case err, ok := <-errCh:
		if !ok {
			return nil
		}
		return err
	case <-ctx.Done():
		return nil
	}
}

// stopOnDone stops a server once ctx is done.
func stopOnDone(ctx context.Context, name string, stop func(context.Context) error) error {
	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := stop(shutdownCtx); err != nil {
		slog.Warn("error stopping server", "server", name, "error", err)
	}
	return nil
}

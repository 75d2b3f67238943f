// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Protogen Contributors

package main

import (
	"context"
	"encoding/json"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrf7777/protogen-software-sub000/internal/config"
	"github.com/mrf7777/protogen-software-sub000/internal/control"
	"github.com/mrf7777/protogen-software-sub000/internal/extensions"
)

func serveConfig(t *testing.T, root string) config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Extensions.AppsDir = filepath.Join(root, "apps")
	cfg.Extensions.SensorsDir = filepath.Join(root, "sensors")
	cfg.Extensions.SurfacesDir = filepath.Join(root, "surfaces")
	cfg.Extensions.CreateUserDataDirs = false
	cfg.Extensions.Watch = false
	cfg.Control.Addr = "127.0.0.1:0"
	cfg.Observability.Addr = "127.0.0.1:0"
	return cfg
}

type serveResult struct {
	controlAddr string
	metricsAddr string
	done        chan error
}

func startServe(t *testing.T, ctx context.Context, cfg config.Config) serveResult {
	t.Helper()
	ready := make(chan [2]string, 1)
	res := serveResult{done: make(chan error, 1)}
	go func() {
		res.done <- runServe(ctx, cfg, &serveDeps{
			Ready: func(controlAddr, metricsAddr string) { ready <- [2]string{controlAddr, metricsAddr} },
		})
	}()

	select {
	case addrs := <-ready:
		res.controlAddr, res.metricsAddr = addrs[0], addrs[1]
	case err := <-res.done:
		t.Fatalf("serve exited early: %v", err)
	case <-time.After(10 * time.Second):
		t.Fatal("serve did not become ready")
	}
	return res
}

func waitDone(t *testing.T, done <-chan error) error {
	t.Helper()
	select {
	case err := <-done:
		return err
	case <-time.After(10 * time.Second):
		t.Fatal("serve did not stop")
		return nil
	}
}

func TestRunServe_ServesUntilCancelled(t *testing.T) {
	root := isolate(t)
	writeExtension(t, filepath.Join(root, "sensors"), "thermo", thermoScript)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	res := startServe(t, ctx, serveConfig(t, root))

	resp, err := http.Get("http://" + res.controlAddr + "/status")
	require.NoError(t, err)
	var status control.StatusResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&status))
	_ = resp.Body.Close()
	assert.True(t, status.Running)
	assert.True(t, status.Ready)

	resp, err = http.Get("http://" + res.metricsAddr + "/healthz/readiness")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get("http://" + res.controlAddr + "/sensors/channels/std.in.temperature")
	require.NoError(t, err)
	var reading control.ReadingResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&reading))
	_ = resp.Body.Close()
	assert.InDelta(t, 21.5, reading.Value, 0.001)

	cancel()
	assert.NoError(t, waitDone(t, res.done))
}

func TestRunServe_ShutdownOverControl(t *testing.T) {
	root := isolate(t)

	res := startServe(t, context.Background(), serveConfig(t, root))

	resp, err := http.Post("http://"+res.controlAddr+"/shutdown", "application/json", nil)
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)

	assert.NoError(t, waitDone(t, res.done))
}

func TestRunServe_WithoutServers(t *testing.T) {
	root := isolate(t)
	cfg := serveConfig(t, root)
	cfg.Control.Addr = ""
	cfg.Observability.Addr = ""
	ctx, cancel := context.WithCancel(context.Background())

	res := startServe(t, ctx, cfg)
	assert.Empty(t, res.controlAddr)
	assert.Empty(t, res.metricsAddr)

	cancel()
	assert.NoError(t, waitDone(t, res.done))
}

func TestRunServe_LoaderError(t *testing.T) {
	root := isolate(t)

	err := runServe(context.Background(), serveConfig(t, root), &serveDeps{
		LoaderFactory: func(config.Config) (extensions.ModuleLoader, error) {
			return nil, assert.AnError
		},
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, assert.AnError)
}

func TestRunServe_ControlAddrInUse(t *testing.T) {
	root := isolate(t)
	first := startServe(t, context.Background(), serveConfig(t, root))

	cfg := serveConfig(t, root)
	cfg.Control.Addr = first.controlAddr
	err := runServe(context.Background(), cfg, nil)
	require.Error(t, err)

	resp, err := http.Post("http://"+first.controlAddr+"/shutdown", "application/json", nil)
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.NoError(t, waitDone(t, first.done))
}

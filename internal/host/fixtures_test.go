// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Protogen Contributors

package host_test

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mrf7777/protogen-software-sub000/internal/extensions"
	"github.com/mrf7777/protogen-software-sub000/internal/extensions/extensionstest"
	"github.com/mrf7777/protogen-software-sub000/internal/extensions/module"
	"github.com/mrf7777/protogen-software-sub000/internal/host"
	"github.com/mrf7777/protogen-software-sub000/pkg/extension"
	"github.com/mrf7777/protogen-software-sub000/pkg/render"
	"github.com/mrf7777/protogen-software-sub000/pkg/sensor"
)

var panel = render.Resolution{Width: 4, Height: 2}

// fakeBackend opens "*.fake" files containing "<kind> <id>" and keeps
// every instance it creates.
type fakeBackend struct {
	mu        sync.Mutex
	instances map[string][]extension.Extension
	closed    int
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{instances: map[string][]extension.Extension{}}
}

func (*fakeBackend) Name() string    { return "fake" }
func (*fakeBackend) Pattern() string { return "*.fake" }

func (b *fakeBackend) Open(path string) (module.Module, error) {
	data, err := os.ReadFile(path) //nolint:gosec // test fixture path
	if err != nil {
		return nil, err
	}
	kind, id, _ := strings.Cut(strings.TrimSpace(string(data)), " ")
	return &fakeModule{backend: b, kind: kind, id: id}, nil
}

// latest returns the most recent instance with id.
func (b *fakeBackend) latest(id string) extension.Extension {
	b.mu.Lock()
	defer b.mu.Unlock()
	all := b.instances[id]
	if len(all) == 0 {
		return nil
	}
	return all[len(all)-1]
}

func (b *fakeBackend) closedCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closed
}

type fakeModule struct {
	backend *fakeBackend
	kind    string
	id      string
}

func (m *fakeModule) Lookup(symbol string) (any, error) {
	switch symbol {
	case extension.CreateSymbol:
		return func() extension.Extension {
			var ext extension.Extension
			switch m.kind {
			case "app":
				ext = extensionstest.NewApp(extensionstest.Identity(m.id))
			case "sensor":
				ext = extensionstest.NewSensor(extensionstest.Identity(m.id), map[string]sensor.ChannelValue{
					sensor.ChannelInternalTemperature: 21.0,
				})
			case "surface":
				ext = extensionstest.NewSurface(extensionstest.Identity(m.id), panel)
			default:
				ext = extensionstest.NewExtension(extensionstest.Identity(m.id))
			}
			m.backend.mu.Lock()
			m.backend.instances[m.id] = append(m.backend.instances[m.id], ext)
			m.backend.mu.Unlock()
			return ext
		}, nil
	case extension.DestroySymbol:
		return func(extension.Extension) {}, nil
	}
	return nil, os.ErrNotExist
}

func (m *fakeModule) Close() error {
	m.backend.mu.Lock()
	m.backend.closed++
	m.backend.mu.Unlock()
	return nil
}

type tree struct {
	root    string
	backend *fakeBackend
	cfg     host.Config
}

func newTree(t *testing.T) *tree {
	t.Helper()
	root := t.TempDir()
	return &tree{
		root:    root,
		backend: newFakeBackend(),
		cfg: host.Config{
			AppsDir:     filepath.Join(root, "apps"),
			SensorsDir:  filepath.Join(root, "sensors"),
			SurfacesDir: filepath.Join(root, "surfaces"),
		},
	}
}

func (tr *tree) add(t *testing.T, dir, kind, id string) {
	t.Helper()
	path := filepath.Join(dir, id, id+".fake")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte(kind+" "+id), 0o600))
}

func (tr *tree) standard(t *testing.T) {
	t.Helper()
	tr.add(t, tr.cfg.SurfacesDir, "surface", "panel")
	tr.add(t, tr.cfg.SensorsDir, "sensor", "thermo")
	tr.add(t, tr.cfg.AppsDir, "app", "faces")
	tr.add(t, tr.cfg.AppsDir, "app", "clock")
}

func (tr *tree) host(t *testing.T, opts ...host.Option) *host.Host {
	t.Helper()
	loader, err := module.NewLoader(tr.backend)
	require.NoError(t, err)

	userData := extensions.NewHomeUserDataLocator()
	home := t.TempDir()
	userData.Home = func() (string, error) { return home, nil }

	h := host.New(tr.cfg, loader, append([]host.Option{host.WithUserDataLocator(userData)}, opts...)...)
	t.Cleanup(func() { _ = h.Close() })
	return h
}

func (tr *tree) app(id string) *extensionstest.App {
	a, _ := tr.backend.latest(id).(*extensionstest.App)
	return a
}

func (tr *tree) surface(id string) *extensionstest.Surface {
	s, _ := tr.backend.latest(id).(*extensionstest.Surface)
	return s
}

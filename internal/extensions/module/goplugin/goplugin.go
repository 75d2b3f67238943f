// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Protogen Contributors

// Package goplugin loads out-of-process extensions using HashiCorp's
// go-plugin system over net/rpc.
//
// The extension executable is started when the module is opened. Its
// destroy function runs inside the extension process, and closing the
// module kills the process.
package goplugin

import (
	"log/slog"
	"os"
	"os/exec"

	"github.com/hashicorp/go-hclog"
	hashiplug "github.com/hashicorp/go-plugin"
	"github.com/samber/oops"

	"github.com/mrf7777/protogen-software-sub000/internal/extensions/module"
	"github.com/mrf7777/protogen-software-sub000/pkg/extension"
	"github.com/mrf7777/protogen-software-sub000/pkg/extensionsdk"
)

// Pattern matches extension executables.
const Pattern = "*.plugin"

// PluginClient wraps go-plugin client for testability.
type PluginClient interface {
	// Client returns the RPC client protocol.
	Client() (hashiplug.ClientProtocol, error)
	// Kill terminates the extension process.
	Kill()
}

// ClientFactory creates plugin clients.
type ClientFactory interface {
	// NewClient creates a client for the given executable path.
	NewClient(execPath string) PluginClient
}

// DefaultClientFactory creates real go-plugin clients.
type DefaultClientFactory struct {
	Logger hclog.Logger
}

// NewClient creates a real go-plugin client.
func (f *DefaultClientFactory) NewClient(execPath string) PluginClient {
	return hashiplug.NewClient(&hashiplug.ClientConfig{
		HandshakeConfig:  extensionsdk.HandshakeConfig,
		Plugins:          extensionsdk.PluginMap(nil, nil),
		Cmd:              exec.Command(execPath), // #nosec G204 -- execPath comes from the extension directory scan
		AllowedProtocols: []hashiplug.Protocol{hashiplug.ProtocolNetRPC},
		Logger:           f.Logger,
	})
}

// Backend starts extension executables.
type Backend struct {
	factory ClientFactory
}

var _ module.Backend = (*Backend)(nil)

// New creates a backend whose extension processes log through logger.
func New(logger hclog.Logger) *Backend {
	return &Backend{factory: &DefaultClientFactory{Logger: logger}}
}

// NewWithFactory creates a backend with a custom client factory (for testing).
// Panics if factory is nil.
func NewWithFactory(factory ClientFactory) *Backend {
	if factory == nil {
		panic("goplugin: factory cannot be nil")
	}
	return &Backend{factory: factory}
}

// Name returns "goplugin".
func (*Backend) Name() string { return "goplugin" }

// Pattern returns the executable glob.
func (*Backend) Pattern() string { return Pattern }

// Open starts the executable at path and dispenses its extension.
func (b *Backend) Open(path string) (module.Module, error) {
	errb := oops.In("goplugin").With("path", path)

	if _, err := os.Stat(path); err != nil {
		return nil, errb.Hint("cannot access extension executable").Wrap(err)
	}

	client := b.factory.NewClient(path)

	rpcClient, err := client.Client()
	if err != nil {
		client.Kill()
		return nil, errb.Hint("failed to connect to extension").Wrap(err)
	}

	raw, err := rpcClient.Dispense(extensionsdk.PluginName)
	if err != nil {
		client.Kill()
		return nil, errb.Hint("failed to dispense extension").Wrap(err)
	}

	ext, ok := raw.(extension.Extension)
	if !ok {
		client.Kill()
		return nil, errb.Errorf("dispensed %T is not an extension", raw)
	}

	return &remoteModule{client: client, ext: ext, path: path}, nil
}

type destroyer interface {
	Destroy() error
}

type remoteModule struct {
	client PluginClient
	ext    extension.Extension
	path   string
	closed bool
}

func (m *remoteModule) Lookup(symbol string) (any, error) {
	if m.closed {
		return nil, module.ErrClosed
	}
	switch symbol {
	case extension.CreateSymbol:
		return func() extension.Extension { return m.ext }, nil
	case extension.DestroySymbol:
		return func(e extension.Extension) {
			d, ok := e.(destroyer)
			if !ok {
				return
			}
			if err := d.Destroy(); err != nil {
				slog.Warn("remote destroy failed", "path", m.path, "error", err)
			}
		}, nil
	default:
		return nil, oops.In("goplugin").With("symbol", symbol).Errorf("symbol not exported over rpc")
	}
}

func (m *remoteModule) Close() error {
	if m.closed {
		return nil
	}
	m.closed = true
	m.client.Kill()
	return nil
}

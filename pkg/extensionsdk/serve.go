// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Protogen Contributors

package extensionsdk

import (
	"github.com/hashicorp/go-hclog"
	hashiplug "github.com/hashicorp/go-plugin"

	"github.com/mrf7777/protogen-software-sub000/pkg/extension"
)

// ServeConfig configures an out-of-process extension.
type ServeConfig struct {
	// Extension is the instance to serve.
	// Required; Serve will panic if nil.
	Extension extension.Extension
	// Destroy runs when the host releases the extension, before the
	// process is killed. Optional.
	Destroy extension.DestroyFunc
	// Logger receives go-plugin diagnostics. Defaults to a JSON logger on
	// stderr, which the host forwards into its own log.
	Logger hclog.Logger
}

// Serve starts the extension server. This should be called from main().
// It blocks and never returns under normal operation.
func Serve(config *ServeConfig) {
	if config == nil {
		panic("extensionsdk: config cannot be nil")
	}
	if config.Extension == nil {
		panic("extensionsdk: config.Extension cannot be nil")
	}
	logger := config.Logger
	if logger == nil {
		logger = hclog.New(&hclog.LoggerOptions{
			Name:       extension.ID(config.Extension),
			JSONFormat: true,
		})
	}
	hashiplug.Serve(&hashiplug.ServeConfig{
		HandshakeConfig: HandshakeConfig,
		Plugins:         PluginMap(config.Extension, config.Destroy),
		Logger:          logger,
	})
}

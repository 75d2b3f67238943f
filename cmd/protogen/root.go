// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Protogen Contributors

package main

import (
	"github.com/spf13/cobra"

	"github.com/mrf7777/protogen-software-sub000/internal/config"
	"github.com/mrf7777/protogen-software-sub000/internal/extensions/module"
	"github.com/mrf7777/protogen-software-sub000/internal/extensions/module/goplugin"
	extlua "github.com/mrf7777/protogen-software-sub000/internal/extensions/module/lua"
	"github.com/mrf7777/protogen-software-sub000/internal/extensions/module/native"
	"github.com/mrf7777/protogen-software-sub000/internal/logging"
)

// Global flags available to all subcommands.
var configFile string

// NewRootCmd creates the root command for the protogen CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "protogen",
		Short: "Protogen - extension host for protogen head displays",
		Long: `Protogen loads apps, sensors and render surfaces from extension
directories and drives the active app on the selected render surface.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (default: XDG_CONFIG_HOME/protogen/config.yaml)")
	config.BindFlags(cmd.PersistentFlags(), config.Default())

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newExtensionsCmd())
	cmd.AddCommand(newStatusCmd())

	return cmd
}

// loadConfig reads the configuration for cmd.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	return config.Load(configFile, cmd.Flags())
}

// newLoader returns a module loader with every backend.
func newLoader(cfg config.Config) (*module.Loader, error) {
	return module.NewLoader(
		native.New(),
		goplugin.New(logging.PluginLogger("extension", cfg.Logging(version), nil)),
		extlua.New(),
	)
}

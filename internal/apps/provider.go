// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Protogen Contributors

package apps

import (
	"github.com/mrf7777/protogen-software-sub000/internal/extensions"
	"github.com/mrf7777/protogen-software-sub000/pkg/app"
)

// NewProvider returns a provider of safety-wrapped apps. cfg.Initializer
// should be an *Initializer so apps receive their dependencies.
func NewProvider(cfg extensions.ProviderConfig) *extensions.Provider[app.App] {
	return &extensions.Provider[app.App]{
		Kind:        Kind,
		Finder:      cfg.Finder,
		Initializer: cfg.Initializer,
		Check:       cfg.Check,
		Wrap:        Wrap,
		Metrics:     cfg.Metrics,
	}
}

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Protogen Contributors

package sensors

import (
	"github.com/mrf7777/protogen-software-sub000/internal/extensions"
	"github.com/mrf7777/protogen-software-sub000/pkg/sensor"
)

// NewProvider returns a provider of safety-wrapped sensors.
func NewProvider(cfg extensions.ProviderConfig, opts ...WrapOption) *extensions.Provider[sensor.Sensor] {
	return &extensions.Provider[sensor.Sensor]{
		Kind:        Kind,
		Finder:      cfg.Finder,
		Initializer: cfg.Initializer,
		Check:       cfg.Check,
		Wrap: func(s sensor.Sensor) sensor.Sensor {
			return Wrap(s, opts...)
		},
		Metrics: cfg.Metrics,
	}
}

// Values returns the loaded sensors ordered by id.
func Values(loaded map[string]*extensions.Loaded[sensor.Sensor]) []sensor.Sensor {
	ids := extensions.SortedIDs(loaded)
	out := make([]sensor.Sensor, 0, len(ids))
	for _, id := range ids {
		out = append(out, loaded[id].Value)
	}
	return out
}

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Protogen Contributors

// Package apps loads app extensions and guards calls into them.
package apps

import (
	"log/slog"

	"github.com/mrf7777/protogen-software-sub000/internal/extensions"
	"github.com/mrf7777/protogen-software-sub000/pkg/app"
	"github.com/mrf7777/protogen-software-sub000/pkg/extension"
	"github.com/mrf7777/protogen-software-sub000/pkg/render"
	"github.com/mrf7777/protogen-software-sub000/pkg/sensor"
)

// Kind labels apps in logs and metrics.
const Kind = "app"

// Initializer runs Inner and then hands the app its render surface and
// the available sensors. The hand-over only happens once Inner succeeded.
type Initializer struct {
	Inner   extensions.Initializer
	Surface render.Surface
	Sensors []sensor.Sensor
}

func (i *Initializer) Initialize(b *extensions.Bundle) extension.Initialization {
	if i.Inner != nil && i.Inner.Initialize(b) != extension.InitSuccess {
		return extension.InitFailure
	}

	a, ok := b.Extension.(app.App)
	if !ok {
		slog.Warn("app initializer given a non-app extension", "dir", b.Dir)
		return extension.InitFailure
	}

	id := b.ID()
	if i.Surface != nil {
		if !extensions.Guard(Kind, id, "receive_render_surface", func() { a.ReceiveRenderSurface(i.Surface) }) {
			return extension.InitFailure
		}
	}
	sensors := append([]sensor.Sensor(nil), i.Sensors...)
	if !extensions.Guard(Kind, id, "receive_sensors", func() { a.ReceiveSensors(sensors) }) {
		return extension.InitFailure
	}
	return extension.InitSuccess
}

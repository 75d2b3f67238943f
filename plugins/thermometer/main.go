// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Protogen Contributors

// Package main implements an out-of-process sensor reporting the SoC
// temperature as the internal head temperature.
//
// Build it into a sensor directory:
//
//	go build -o ~/.local/share/protogen/sensors/thermometer/thermometer.plugin ./plugins/thermometer
package main

import (
	"os"
	"strconv"
	"strings"

	"github.com/mrf7777/protogen-software-sub000/pkg/attributes"
	"github.com/mrf7777/protogen-software-sub000/pkg/extension"
	"github.com/mrf7777/protogen-software-sub000/pkg/extensionsdk"
	"github.com/mrf7777/protogen-software-sub000/pkg/sensor"
)

// DefaultZone is the thermal zone file read when the zone attribute is unset.
const DefaultZone = "/sys/class/thermal/thermal_zone0/temp"

// zoneKey is a writable attribute selecting the thermal zone file.
const zoneKey = "thermometer.zone"

// Thermometer reads a millidegree thermal zone file.
type Thermometer struct {
	*extensionsdk.Base
}

// New creates a thermometer reading zone.
func New(zone string) *Thermometer {
	t := &Thermometer{Base: extensionsdk.NewBase(extensionsdk.Identity{
		ID:          "thermometer",
		Name:        "Thermometer",
		Description: "Reports the SoC temperature in degrees Celsius",
		Author:      "Protogen Contributors",
		Version:     "0.1.0",
	})}
	t.Store().AdminSet(zoneKey, zone, attributes.AccessReadWrite)
	return t
}

// Initialize fails when the zone cannot be read.
func (t *Thermometer) Initialize() extension.Initialization {
	if _, err := t.celsius(); err != nil {
		return extension.InitFailure
	}
	return extension.InitSuccess
}

func (t *Thermometer) Channels() []sensor.ChannelInfo {
	return []sensor.ChannelInfo{{
		ID:          sensor.ChannelInternalTemperature,
		Description: "SoC temperature in degrees Celsius",
	}}
}

func (t *Thermometer) Read(channel string) sensor.ReadResult {
	if channel != sensor.ChannelInternalTemperature {
		return sensor.NotFound()
	}
	c, err := t.celsius()
	if err != nil {
		return sensor.Failed()
	}
	return sensor.Value(c)
}

func (t *Thermometer) celsius() (float64, error) {
	zone, _ := t.AttributeStore().GetAttribute(zoneKey)
	data, err := os.ReadFile(zone) // #nosec G304 -- the zone path is operator configuration
	if err != nil {
		return 0, err
	}
	milli, err := strconv.ParseFloat(strings.TrimSpace(string(data)), 64)
	if err != nil {
		return 0, err
	}
	return milli / 1000, nil
}

func main() {
	extensionsdk.Serve(&extensionsdk.ServeConfig{Extension: New(DefaultZone)})
}

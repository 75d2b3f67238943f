// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Protogen Contributors

// Package sensor defines the sensor capability and the channels a sensor
// publishes.
package sensor

import (
	"time"

	"github.com/mrf7777/protogen-software-sub000/pkg/extension"
)

// Sensor reads values from the environment on named channels.
type Sensor interface {
	extension.Extension
	Channels() []ChannelInfo
	Read(channel string) ReadResult
}

// ChannelInfo describes one channel of a sensor.
type ChannelInfo struct {
	ID          string `json:"id"`
	Description string `json:"description"`
}

// ChannelValue is the value of a reading. It is one of float64, bool,
// string, uint8, int32, []uint8, []int32, []float64 or []string. Each
// channel documents which type it carries.
type ChannelValue any

// ReadStatus is the outcome of a read.
type ReadStatus int

// Read outcomes.
const (
	ReadOK ReadStatus = iota
	ReadChannelNotFound
	ReadFailed
)

// String returns the snake-case name of the status.
func (s ReadStatus) String() string {
	switch s {
	case ReadOK:
		return "ok"
	case ReadChannelNotFound:
		return "channel_not_found"
	case ReadFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// ReadResult is a single reading.
type ReadResult struct {
	Time   time.Time    `json:"time"`
	Value  ChannelValue `json:"value,omitempty"`
	Status ReadStatus   `json:"status"`
}

// OK reports whether the reading carries a value.
func (r ReadResult) OK() bool {
	return r.Status == ReadOK
}

// NotFound is the result for a channel the sensor does not provide.
func NotFound() ReadResult {
	return ReadResult{Time: time.Now(), Status: ReadChannelNotFound}
}

// Failed is the result for a read that could not complete.
func Failed() ReadResult {
	return ReadResult{Time: time.Now(), Status: ReadFailed}
}

// Value wraps v in a successful reading taken now.
func Value(v ChannelValue) ReadResult {
	return ReadResult{Time: time.Now(), Value: v, Status: ReadOK}
}

// Standard channels. Sensors should prefer these over custom channels so
// apps can rely on them.
const (
	// ChannelInternalTemperature is the temperature inside the head in
	// celsius, as float64.
	ChannelInternalTemperature = "std.in.temperature"
	// ChannelExternalTemperature is the ambient temperature in celsius, as
	// float64.
	ChannelExternalTemperature = "std.out.temperature"
	// ChannelInternalLoudness is the loudness inside the head in
	// decibels, as float64.
	ChannelInternalLoudness = "std.in.loudness"
	// ChannelExternalLoudness is the ambient loudness in decibels, as
	// float64.
	ChannelExternalLoudness = "std.out.loudness"
	// ChannelLatLonWGS84 is latitude then longitude in degrees, as
	// []float64 of length 2.
	ChannelLatLonWGS84 = "std.lat_lon_wgs84"
	// ChannelAzimuthFromNorth is the heading in degrees, as float64.
	ChannelAzimuthFromNorth = "std.azimuth_from_north"
	// ChannelAltitudeWGS84 is the altitude in meters, as float64.
	ChannelAltitudeWGS84 = "std.altitude_wgs84"
	// ChannelDistanceToFrontObject is in meters, as float64. Negative
	// when nothing is detected.
	ChannelDistanceToFrontObject = "std.distance_to_front_object"
	// ChannelIsBooped is true while the nose is being touched, as bool.
	ChannelIsBooped = "std.is_booped"
	// ChannelInternalVowelConfidence is the confidence of the vowels a, e,
	// i, o, u in [0, 1], as []float64 of length 5.
	ChannelInternalVowelConfidence = "std.in.vowel_confidence"
)

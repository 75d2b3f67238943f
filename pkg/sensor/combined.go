// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Protogen Contributors

package sensor

import (
	"sort"

	"github.com/mrf7777/protogen-software-sub000/pkg/attributes"
	"github.com/mrf7777/protogen-software-sub000/pkg/extension"
)

var _ Sensor = (*Combined)(nil)

type route struct {
	info   ChannelInfo
	sensor Sensor
}

// Combined presents several sensors as one. When more than one sensor
// provides a channel, the first in construction order serves it.
//
// Sensors must be initialized before they are combined; the channel table
// is built once and does not follow later changes to the inputs.
type Combined struct {
	routes map[string]route
	store  *attributes.StandardStore
}

// Combine builds a Combined sensor over sensors. Nil entries are ignored.
func Combine(sensors ...Sensor) *Combined {
	c := &Combined{
		routes: make(map[string]route),
		store:  attributes.NewStandardStore(),
	}
	c.store.AdminSet(attributes.KeyID, "", attributes.AccessRead)
	c.store.AdminSet(attributes.KeyName, "Combined sensor", attributes.AccessRead)
	c.store.AdminSet(attributes.KeyDescription, "Routes each channel to the first sensor that provides it.", attributes.AccessRead)

	for _, s := range sensors {
		if s == nil {
			continue
		}
		for _, ch := range s.Channels() {
			if _, taken := c.routes[ch.ID]; taken {
				continue
			}
			c.routes[ch.ID] = route{info: ch, sensor: s}
		}
	}
	return c
}

// Initialize does nothing; the inputs are already initialized.
func (c *Combined) Initialize() extension.Initialization {
	return extension.InitSuccess
}

// AttributeStore returns the combined sensor's own store. Its id is empty.
func (c *Combined) AttributeStore() attributes.Store {
	return c.store
}

// Channels returns every routed channel, sorted by id.
func (c *Combined) Channels() []ChannelInfo {
	out := make([]ChannelInfo, 0, len(c.routes))
	for _, r := range c.routes {
		out = append(out, r.info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ChannelInfo returns the description of one channel.
func (c *Combined) ChannelInfo(channel string) (ChannelInfo, bool) {
	r, ok := c.routes[channel]
	return r.info, ok
}

// Provider returns the sensor serving channel.
func (c *Combined) Provider(channel string) (Sensor, bool) {
	r, ok := c.routes[channel]
	return r.sensor, ok
}

// Read delegates to the sensor serving channel.
func (c *Combined) Read(channel string) ReadResult {
	r, ok := c.routes[channel]
	if !ok {
		return NotFound()
	}
	return r.sensor.Read(channel)
}

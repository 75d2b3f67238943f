// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Protogen Contributors

package sensors

import (
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/mrf7777/protogen-software-sub000/pkg/attributes"
	"github.com/mrf7777/protogen-software-sub000/pkg/extension"
	"github.com/mrf7777/protogen-software-sub000/pkg/sensor"
)

// DefaultCacheSize bounds the number of cached channels.
const DefaultCacheSize = 256

// Cached serves successful readings from an expiring cache so that
// several readers in one frame hit the sensor once. Failed and not-found
// readings are never cached.
type Cached struct {
	inner sensor.Sensor
	cache *lru.LRU[string, sensor.ReadResult]
}

var _ sensor.Sensor = (*Cached)(nil)

// NewCached caches readings of s for ttl. A non-positive ttl disables
// caching and NewCached returns s unchanged.
func NewCached(s sensor.Sensor, size int, ttl time.Duration) sensor.Sensor {
	if ttl <= 0 {
		return s
	}
	if size <= 0 {
		size = DefaultCacheSize
	}
	return &Cached{
		inner: s,
		cache: lru.NewLRU[string, sensor.ReadResult](size, nil, ttl),
	}
}

func (c *Cached) Initialize() extension.Initialization {
	return c.inner.Initialize()
}

func (c *Cached) AttributeStore() attributes.Store {
	return c.inner.AttributeStore()
}

func (c *Cached) Channels() []sensor.ChannelInfo {
	return c.inner.Channels()
}

func (c *Cached) Read(channel string) sensor.ReadResult {
	if r, ok := c.cache.Get(channel); ok {
		return r
	}
	r := c.inner.Read(channel)
	if r.OK() {
		c.cache.Add(channel, r)
	}
	return r
}

// Purge drops every cached reading.
func (c *Cached) Purge() {
	c.cache.Purge()
}

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Protogen Contributors

// Package sensors loads sensor extensions, guards calls into them and
// caches their readings.
package sensors

import (
	"errors"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"

	"github.com/mrf7777/protogen-software-sub000/internal/extensions"
	"github.com/mrf7777/protogen-software-sub000/pkg/attributes"
	"github.com/mrf7777/protogen-software-sub000/pkg/extension"
	"github.com/mrf7777/protogen-software-sub000/pkg/sensor"
)

// Kind labels sensors in logs and metrics.
const Kind = "sensor"

// Breaker defaults. A sensor whose reads fault this many times in a row is
// not called again until the cool-down has passed.
const (
	DefaultTripAfter = 5
	DefaultCoolDown  = 10 * time.Second
)

var errReadFault = errors.New("sensor read faulted")

// SafetyWrapper delegates to a sensor, turning panics into safe defaults.
// Reads additionally pass through a circuit breaker so a sensor that keeps
// faulting is skipped instead of being called on every frame.
type SafetyWrapper struct {
	inner   sensor.Sensor
	breaker *gobreaker.CircuitBreaker
}

var _ sensor.Sensor = (*SafetyWrapper)(nil)

// WrapOption configures a SafetyWrapper.
type WrapOption func(*gobreaker.Settings)

// WithBreaker overrides the trip threshold and cool-down.
func WithBreaker(tripAfter uint32, coolDown time.Duration) WrapOption {
	return func(s *gobreaker.Settings) {
		s.ReadyToTrip = func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= tripAfter
		}
		s.Timeout = coolDown
	}
}

// Wrap guards s. Wrapping twice is a no-op.
func Wrap(s sensor.Sensor, opts ...WrapOption) sensor.Sensor {
	if w, ok := s.(*SafetyWrapper); ok {
		return w
	}
	w := &SafetyWrapper{inner: s}
	settings := gobreaker.Settings{
		Name: w.id(),
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= DefaultTripAfter
		},
		Timeout: DefaultCoolDown,
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("sensor circuit breaker changed state",
				"id", name,
				"from", from.String(),
				"to", to.String())
		},
	}
	for _, opt := range opts {
		opt(&settings)
	}
	w.breaker = gobreaker.NewCircuitBreaker(settings)
	return w
}

// Unwrap returns the guarded sensor.
func (w *SafetyWrapper) Unwrap() sensor.Sensor {
	return w.inner
}

// State reports the breaker state guarding reads.
func (w *SafetyWrapper) State() gobreaker.State {
	return w.breaker.State()
}

func (w *SafetyWrapper) id() string {
	return extensions.GuardValue(Kind, "", "attribute_store", "", func() string {
		return extension.ID(w.inner)
	})
}

func (w *SafetyWrapper) Initialize() extension.Initialization {
	return extensions.GuardValue(Kind, w.id(), "initialize", extension.InitFailure, w.inner.Initialize)
}

func (w *SafetyWrapper) AttributeStore() attributes.Store {
	id := w.id()
	store := extensions.GuardValue[attributes.Store](Kind, id, "attribute_store", nil, w.inner.AttributeStore)
	return extensions.SafeStore(Kind, id, store)
}

func (w *SafetyWrapper) Channels() []sensor.ChannelInfo {
	return extensions.GuardValue[[]sensor.ChannelInfo](Kind, w.id(), "channels", nil, w.inner.Channels)
}

// Read returns a failed reading when the sensor faults or while the
// breaker is open.
func (w *SafetyWrapper) Read(channel string) sensor.ReadResult {
	id := w.id()
	res, err := w.breaker.Execute(func() (interface{}, error) {
		var r sensor.ReadResult
		ok := extensions.Guard(Kind, id, "read", func() { r = w.inner.Read(channel) })
		if !ok {
			return nil, errReadFault
		}
		return r, nil
	})
	if err != nil {
		return sensor.Failed()
	}
	return res.(sensor.ReadResult)
}

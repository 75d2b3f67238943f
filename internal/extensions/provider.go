// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Protogen Contributors

package extensions

import (
	"context"
	"errors"
	"log/slog"
	"sort"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/mrf7777/protogen-software-sub000/internal/observability"
	"github.com/mrf7777/protogen-software-sub000/pkg/extension"
)

const tracerName = "github.com/mrf7777/protogen-software-sub000/internal/extensions"

// Skip stages, used as metric labels.
const (
	StageKind       = "kind"
	StageInitialize = "initialize"
	StageCheck      = "check"
	StageDuplicate  = "duplicate"
)

// Loaded is an extension of kind T that passed the whole pipeline.
type Loaded[T extension.Extension] struct {
	ID     string
	Value  T
	Bundle *Bundle
}

// Release drops the provider's reference to the extension.
func (l *Loaded[T]) Release() error {
	return l.Bundle.Release()
}

// Provider loads every extension of kind T that a Finder produces.
type Provider[T extension.Extension] struct {
	// Kind names the extension kind in logs and metrics.
	Kind string

	Finder      Finder
	Initializer Initializer

	// Check may be nil.
	Check Check

	// Wrap puts the extension behind a fault boundary before it is
	// initialized. May be nil.
	Wrap func(T) T

	Metrics *observability.Metrics
	Tracer  trace.Tracer
}

// LoadAll runs find, kind cast, initialize and check for every bundle and
// returns the survivors keyed by id. Skipped bundles are logged and
// released. When two bundles share an id the first one in find order wins.
func (p *Provider[T]) LoadAll(ctx context.Context) (map[string]*Loaded[T], error) {
	loadID := ulid.Make().String()
	tracer := p.Tracer
	if tracer == nil {
		tracer = otel.Tracer(tracerName)
	}
	ctx, span := tracer.Start(ctx, "extensions.LoadAll", trace.WithAttributes(
		attribute.String("extension.kind", p.Kind),
		attribute.String("extension.load_id", loadID),
	))
	defer span.End()

	log := slog.With("kind", p.Kind, "load_id", loadID)

	bundles, err := p.Finder.Find(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "find failed")
		return nil, oops.In("provider").With("kind", p.Kind).With("load_id", loadID).Wrap(err)
	}

	out := make(map[string]*Loaded[T], len(bundles))
	for _, b := range bundles {
		loaded, stage, ok := p.load(ctx, log, b)
		if !ok {
			p.skip(b, stage)
			continue
		}
		if first, dup := out[loaded.ID]; dup {
			log.WarnContext(ctx, "skipping extension with duplicate id",
				"id", loaded.ID,
				"dir", b.Dir,
				"kept", first.Bundle.Dir)
			p.skip(b, StageDuplicate)
			continue
		}
		out[loaded.ID] = loaded
		if p.Metrics != nil {
			p.Metrics.ExtensionsLoaded.WithLabelValues(p.Kind).Inc()
		}
		log.InfoContext(ctx, "extension loaded", "id", loaded.ID, "dir", b.Dir)
	}

	span.SetAttributes(
		attribute.Int("extension.found", len(bundles)),
		attribute.Int("extension.loaded", len(out)),
	)
	log.InfoContext(ctx, "extensions loaded", "found", len(bundles), "loaded", len(out), "ids", SortedIDs(out))
	return out, nil
}

func (p *Provider[T]) load(ctx context.Context, log *slog.Logger, b *Bundle) (*Loaded[T], string, bool) {
	v, ok := b.Extension.(T)
	if !ok {
		log.WarnContext(ctx, "skipping extension of another kind", "dir", b.Dir, "id", b.ID())
		return nil, StageKind, false
	}
	if p.Wrap != nil {
		v = p.Wrap(v)
		b.Extension = v
	}

	if p.Initializer != nil && p.Initializer.Initialize(b) != extension.InitSuccess {
		log.WarnContext(ctx, "skipping extension that failed to initialize", "dir", b.Dir, "id", b.ID())
		return nil, StageInitialize, false
	}

	if p.Check != nil && !p.Check.Check(b) {
		log.WarnContext(ctx, "skipping extension that failed validation",
			"dir", b.Dir,
			"id", b.ID(),
			"reason", p.Check.Error())
		return nil, StageCheck, false
	}

	return &Loaded[T]{ID: b.ID(), Value: v, Bundle: b}, "", true
}

func (p *Provider[T]) skip(b *Bundle, stage string) {
	if p.Metrics != nil {
		p.Metrics.ExtensionsSkipped.WithLabelValues(p.Kind, stage).Inc()
	}
	if err := b.Release(); err != nil {
		slog.Warn("releasing skipped extension failed", "kind", p.Kind, "dir", b.Dir, "error", err)
	}
}

// SortedIDs returns the keys of loaded in order.
func SortedIDs[T extension.Extension](loaded map[string]*Loaded[T]) []string {
	ids := make([]string, 0, len(loaded))
	for id := range loaded {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// ReleaseAll releases every loaded extension and joins the errors.
func ReleaseAll[T extension.Extension](loaded map[string]*Loaded[T]) error {
	var errs []error
	for _, id := range SortedIDs(loaded) {
		if err := loaded[id].Release(); err != nil {
			errs = append(errs, oops.In("provider").With("id", id).Wrap(err))
		}
	}
	return errors.Join(errs...)
}

// ProviderConfig holds the kind-independent parts of a provider.
type ProviderConfig struct {
	Finder      Finder
	Initializer Initializer
	Check       Check
	Metrics     *observability.Metrics
}

// Package otelform attaches OpenTelemetry tracing to a form's event bus.
// Every FetchStart/FetchFinish pair becomes one span, so data-source
// latency, cache behavior and failures show up in traces without the
// engine knowing telemetry exists.
package otelform

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/reoring/goforma/events"
)

const scope = "github.com/reoring/goforma/otelform"

// Option configures instrumentation.
type Option func(*config)

type config struct {
	provider trace.TracerProvider
}

// WithTracerProvider routes spans to tp instead of the global provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(c *config) { c.provider = tp }
}

// Instrument subscribes span-producing handlers to bus. The returned func
// detaches them; spans still open at that point stay unfinished.
func Instrument(bus *events.Bus, opts ...Option) (detach func()) {
	cfg := config{}
	for _, o := range opts {
		o(&cfg)
	}
	if cfg.provider == nil {
		cfg.provider = otel.GetTracerProvider()
	}
	sub := &subscriber{tracer: cfg.provider.Tracer(scope)}
	unsubStart := events.Subscribe(bus, sub.start)
	unsubFinish := events.Subscribe(bus, sub.finish)
	return func() {
		unsubStart()
		unsubFinish()
	}
}

type subscriber struct {
	tracer trace.Tracer
	spans  sync.Map // RequestID -> trace.Span
}

func (s *subscriber) start(ctx context.Context, e events.FetchStart) {
	_, span := s.tracer.Start(ctx, "form.fetch")
	span.SetAttributes(
		attribute.String("form.source", e.Source),
		attribute.String("form.cache.key", e.CacheKey),
	)
	if e.Query != "" {
		span.SetAttributes(attribute.String("form.query", e.Query))
	}
	s.spans.Store(e.RequestID, span)
}

func (s *subscriber) finish(_ context.Context, e events.FetchFinish) {
	v, ok := s.spans.LoadAndDelete(e.RequestID)
	if !ok {
		return
	}
	span := v.(trace.Span)
	span.SetAttributes(
		attribute.Bool("form.cache.hit", e.CacheHit),
		attribute.Int("form.options", e.Options),
	)
	if e.Err != nil {
		span.RecordError(e.Err)
		span.SetStatus(codes.Error, e.Err.Error())
	}
	span.End()
}

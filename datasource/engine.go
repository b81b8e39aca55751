package datasource

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	j "github.com/goccy/go-json"
	"golang.org/x/sync/singleflight"

	goforma "github.com/reoring/goforma"
	"github.com/reoring/goforma/events"
)

// TuningFunc resolves document-level timing overrides for a source key.
type TuningFunc func(key string) (goforma.SourceTuning, bool)

// Engine orchestrates fetching for one form session: it owns the in-flight
// de-duplication group, the request id counter, and the lifecycle context
// every underlying fetch runs on. Fetches deliberately run on the engine's
// context rather than an initiating binding's, so de-dup joiners are not
// starved when the initiator is superseded; Close cancels them all.
type Engine struct {
	sources goforma.DataSources
	tuning  TuningFunc
	cache   *Cache
	bus     *events.Bus

	group singleflight.Group
	reqID atomic.Uint64

	ctx    context.Context
	cancel context.CancelFunc
}

// Option configures an Engine.
type Option func(*Engine)

// WithCache injects a shared cache. Without it the engine builds its own.
func WithCache(c *Cache) Option {
	return func(e *Engine) { e.cache = c }
}

// WithBus attaches an event bus for fetch lifecycle notifications.
func WithBus(b *events.Bus) Option {
	return func(e *Engine) { e.bus = b }
}

// WithTuning supplies per-source timing overrides, typically
// (*goforma.Schema).SourceTuning from a parsed document.
func WithTuning(fn TuningFunc) Option {
	return func(e *Engine) { e.tuning = fn }
}

// New creates an engine over the given source configs.
func New(sources goforma.DataSources, opts ...Option) *Engine {
	ctx, cancel := context.WithCancel(context.Background())
	e := &Engine{sources: sources, ctx: ctx, cancel: cancel}
	for _, o := range opts {
		o(e)
	}
	if e.cache == nil {
		e.cache = NewCache()
	}
	return e
}

// HasSource reports whether a source key is configured.
func (e *Engine) HasSource(key string) bool {
	_, ok := e.sources[key]
	return ok
}

// Cache returns the engine's option cache.
func (e *Engine) Cache() *Cache { return e.cache }

// ClearCache drops every cached option set.
func (e *Engine) ClearCache() {
	e.cache.Clear()
	events.Publish(e.ctx, e.bus, events.CacheCleared{})
}

// ClearSource drops the cached option sets of one source.
func (e *Engine) ClearSource(key string) {
	e.cache.ClearSource(key)
	events.Publish(e.ctx, e.bus, events.CacheCleared{Source: key})
}

// Close cancels the lifecycle context and with it every in-flight fetch.
func (e *Engine) Close() { e.cancel() }

// config resolves a source config with tuning and defaults applied.
func (e *Engine) config(key string) (goforma.DataSourceConfig, bool) {
	cfg, ok := e.sources[key]
	if !ok {
		return cfg, false
	}
	var t goforma.SourceTuning
	if e.tuning != nil {
		t, _ = e.tuning(key)
	}
	return cfg.WithDefaults(t), true
}

// DefaultCacheKey concatenates the source key, a stable JSON serialization
// of the dependency values (map keys sort during marshal), and the search
// query. Identical FetchParams therefore always land on the same key.
func DefaultCacheKey(source string, params goforma.FetchParams) string {
	blob := []byte("{}")
	if len(params.Dependencies) > 0 {
		if b, err := j.Marshal(params.Dependencies); err == nil {
			blob = b
		} else {
			blob = []byte(fmt.Sprintf("%v", params.Dependencies))
		}
	}
	return source + ":" + string(blob) + ":" + params.SearchQuery
}

// fetch runs, or joins, the underlying request for a cache key. At most one
// request per key is in flight at any time: the singleflight group claims
// the key before the fetch starts and releases it when it settles, success
// or not, so a failing fetch never wedges the key. All joiners observe the
// same result. Successful results are written through the cache.
func (e *Engine) fetch(key, source string, cfg goforma.DataSourceConfig, params goforma.FetchParams) ([]goforma.Option, error) {
	v, err, _ := e.group.Do(key, func() (any, error) {
		id := e.reqID.Add(1)
		events.Publish(e.ctx, e.bus, events.FetchStart{
			RequestID: id, Source: source, CacheKey: key, Query: params.SearchQuery,
		})
		start := time.Now()
		raw, ferr := cfg.Fetch(e.ctx, params)
		if ferr == nil {
			var opts []goforma.Option
			opts, ferr = coerceOptions(raw, cfg.Transform)
			if ferr == nil {
				e.cache.Put(key, opts)
				events.Publish(e.ctx, e.bus, events.FetchFinish{
					RequestID: id, Source: source, CacheKey: key,
					Options: len(opts), Duration: time.Since(start),
				})
				return opts, nil
			}
		}
		ferr = fmt.Errorf("source %q: %w", source, ferr)
		events.Publish(e.ctx, e.bus, events.FetchFinish{
			RequestID: id, Source: source, CacheKey: key,
			Err: ferr, Duration: time.Since(start),
		})
		return nil, ferr
	})
	if err != nil {
		return nil, err
	}
	return v.([]goforma.Option), nil
}

// emitCacheHit publishes the start/finish pair for a resolution served
// synchronously from cache, so tracing sees every resolution, not just
// network ones.
func (e *Engine) emitCacheHit(source, key, query string, n int) {
	id := e.reqID.Add(1)
	events.Publish(e.ctx, e.bus, events.FetchStart{
		RequestID: id, Source: source, CacheKey: key, Query: query,
	})
	events.Publish(e.ctx, e.bus, events.FetchFinish{
		RequestID: id, Source: source, CacheKey: key, CacheHit: true, Options: n,
	})
}

// canceled distinguishes engine shutdown from real fetch failures;
// cancellation is not an error and is never surfaced.
func canceled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// coerceOptions turns a raw fetch result into options. Without a Transform
// the engine accepts ready-made option slices and []any of label/value
// maps; anything else is refused so misconfigured sources fail visibly
// instead of rendering garbage.
func coerceOptions(raw any, transform goforma.TransformFunc) ([]goforma.Option, error) {
	if transform != nil {
		return transform(raw), nil
	}
	switch v := raw.(type) {
	case nil:
		return nil, nil
	case []goforma.Option:
		return v, nil
	case []any:
		out := make([]goforma.Option, 0, len(v))
		for _, it := range v {
			m, ok := it.(map[string]any)
			if !ok {
				return nil, goforma.ErrUntransformable
			}
			label, _ := m["label"].(string)
			out = append(out, goforma.Option{Label: label, Value: m["value"]})
		}
		return out, nil
	default:
		return nil, goforma.ErrUntransformable
	}
}

package datasource

import (
	"reflect"
	"sync"
	"sync/atomic"
	"time"

	goforma "github.com/reoring/goforma"
)

// Binding connects one field instance to its source. Each binding owns a
// monotonic request token: every initiated fetch captures the current token
// and a completion that finds a newer one discards itself, so the last
// request issued always wins regardless of network ordering. Across
// bindings there is no ordering; the shared cache and singleflight group
// keep them consistent instead.
type Binding struct {
	e      *Engine
	source string
	cfg    goforma.DataSourceConfig
	notify func()

	token atomic.Uint64

	mu       sync.Mutex
	deps     map[string]any
	query    string
	primed   bool
	debounce *time.Timer
	closed   bool

	options []goforma.Option
	loading bool
	err     error
}

// Bind creates a binding for a configured source key. notify fires from a
// fetch goroutine whenever asynchronous state lands and must be safe for
// concurrent use; ok is false for unknown keys.
func (e *Engine) Bind(sourceKey string, notify func()) (*Binding, bool) {
	cfg, ok := e.config(sourceKey)
	if !ok {
		return nil, false
	}
	if notify == nil {
		notify = func() {}
	}
	return &Binding{e: e, source: sourceKey, cfg: cfg, notify: notify}, true
}

// Source returns the bound source key.
func (b *Binding) Source() string { return b.source }

// Resolve feeds the binding the dependency values read in the current
// resolution pass. The first call and every dependency change start a
// fetch; unchanged dependencies leave state alone, which also means a
// failed fetch is not retried until something changes. A fresh cache entry
// is applied synchronously, before Resolve returns, so a cache hit never
// shows a loading flash.
func (b *Binding) Resolve(deps map[string]any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	if b.primed && reflect.DeepEqual(deps, b.deps) {
		return
	}
	b.deps = cloneDeps(deps)
	b.primed = true
	b.kick(false)
}

// Search schedules a fetch for the query after the source's debounce window
// of quiescence. A keystroke inside the window replaces the pending timer;
// no network work happens for intermediate queries.
func (b *Binding) Search(query string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.query = query
	if b.debounce != nil {
		b.debounce.Stop()
	}
	b.debounce = time.AfterFunc(b.cfg.Debounce, b.debounceFire)
}

func (b *Binding) debounceFire() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.kick(false)
	b.mu.Unlock()
	b.notify()
}

// Refetch forces a fetch, bypassing cache freshness.
func (b *Binding) Refetch() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.kick(true)
	b.mu.Unlock()
	b.notify()
}

// Snapshot returns the current options, loading flag and error.
func (b *Binding) Snapshot() ([]goforma.Option, bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]goforma.Option(nil), b.options...), b.loading, b.err
}

// Close tears the binding down: the debounce timer stops and the token
// advances so in-flight completions discard themselves. Underlying fetches
// keep running on the engine context for the benefit of de-dup joiners and
// the cache.
func (b *Binding) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	b.token.Add(1)
	if b.debounce != nil {
		b.debounce.Stop()
		b.debounce = nil
	}
}

// kick starts a resolution for the current deps and query. Callers hold
// b.mu. The cache is consulted first unless forced; misses mark loading and
// hand off to a goroutine.
func (b *Binding) kick(force bool) {
	token := b.token.Add(1)
	params := goforma.FetchParams{Dependencies: cloneDeps(b.deps), SearchQuery: b.query}
	key := b.cacheKey(params)
	if !force {
		if opts, ok := b.e.cache.Get(key, b.cfg.StaleTime); ok {
			b.options = opts
			b.loading = false
			b.err = nil
			b.e.emitCacheHit(b.source, key, params.SearchQuery, len(opts))
			return
		}
	}
	b.loading = true
	b.err = nil
	go b.await(token, key, params)
}

// await joins the fetch and applies its outcome unless a newer request has
// been issued meanwhile. Cancellation from engine shutdown leaves prior
// state untouched and is never surfaced as an error.
func (b *Binding) await(token uint64, key string, params goforma.FetchParams) {
	opts, err := b.e.fetch(key, b.source, b.cfg, params)
	if err != nil && canceled(err) {
		return
	}
	b.mu.Lock()
	if b.closed || b.token.Load() != token {
		b.mu.Unlock()
		return
	}
	if err != nil {
		b.loading = false
		b.err = err
		b.mu.Unlock()
		if b.cfg.OnError != nil {
			b.cfg.OnError(err)
		}
		b.notify()
		return
	}
	b.options = opts
	b.loading = false
	b.err = nil
	b.mu.Unlock()
	b.notify()
}

func (b *Binding) cacheKey(params goforma.FetchParams) string {
	if b.cfg.CacheKey != nil {
		return b.cfg.CacheKey(params)
	}
	return DefaultCacheKey(b.source, params)
}

func cloneDeps(deps map[string]any) map[string]any {
	if deps == nil {
		return nil
	}
	out := make(map[string]any, len(deps))
	for k, v := range deps {
		out[k] = v
	}
	return out
}

// Package form is the field-resolution engine: it ties a schema to a form
// controller and data sources and turns value paths into renderer-ready
// descriptors, re-resolving visibility, options and state on every change.
package form

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	goforma "github.com/reoring/goforma"
	"github.com/reoring/goforma/datasource"
	"github.com/reoring/goforma/events"
	"github.com/reoring/goforma/validate"
)

type subscriber struct {
	fn func(paths []string)
}

// boundSource pairs a data-source binding with the concrete path it last
// resolved at. Bindings are keyed by identity (array item ids, not
// indices), so the path shifts under reordering while the binding stays.
type boundSource struct {
	b    *datasource.Binding
	path string
}

// Form is one form session. All resolution is synchronous; asynchronous
// work happens only at fetch boundaries, surfacing through subscriber
// notifications.
type Form struct {
	schema   *goforma.Schema
	ctrl     goforma.FormController
	engine   *datasource.Engine
	registry goforma.RendererLookup
	bus      *events.Bus
	valid    *validate.Validator

	condEdges map[string][]string
	dataEdges map[string][]string

	mu       sync.Mutex
	bindings map[string]*boundSource
	subs     []*subscriber
	closed   bool

	unsubCtrl func()
}

type config struct {
	sources  goforma.DataSources
	registry goforma.RendererLookup
	cache    *datasource.Cache
	bus      *events.Bus
	custom   map[string]validate.CustomFunc
}

// Option configures a Form.
type Option func(*config)

// WithDataSources supplies the source configs referenced by the schema's
// dataSource keys. Fields whose key has no config hold state but never
// fetch.
func WithDataSources(ds goforma.DataSources) Option {
	return func(c *config) { c.sources = ds }
}

// WithRegistry attaches the renderer registry consulted for descriptor
// renderer flags. Without one every type is considered renderable.
func WithRegistry(reg goforma.RendererLookup) Option {
	return func(c *config) { c.registry = reg }
}

// WithCache shares an option cache across forms.
func WithCache(cache *datasource.Cache) Option {
	return func(c *config) { c.cache = cache }
}

// WithBus attaches an event bus for fetch, invalidation and array events.
func WithBus(b *events.Bus) Option {
	return func(c *config) { c.bus = b }
}

// WithCustomValidators supplies the named hooks resolved against the
// schema's validation.custom keys.
func WithCustomValidators(m map[string]validate.CustomFunc) Option {
	return func(c *config) { c.custom = m }
}

// New builds a form session over a validated schema and a controller. The
// validator compiles up front; a schema naming a custom validator with no
// supplied hook fails here rather than at first Validate.
func New(schema *goforma.Schema, ctrl goforma.FormController, opts ...Option) (*Form, error) {
	if schema == nil {
		return nil, fmt.Errorf("goforma: nil schema")
	}
	if ctrl == nil {
		return nil, fmt.Errorf("goforma: nil controller")
	}
	cfg := &config{}
	for _, o := range opts {
		o(cfg)
	}
	v, err := validate.Compile(schema, validate.WithCustom(cfg.custom))
	if err != nil {
		return nil, err
	}
	cond, data := schema.Edges()
	f := &Form{
		schema:    schema,
		ctrl:      ctrl,
		registry:  cfg.registry,
		bus:       cfg.bus,
		valid:     v,
		condEdges: cond,
		dataEdges: data,
		bindings:  map[string]*boundSource{},
	}
	eopts := []datasource.Option{datasource.WithTuning(schema.SourceTuning)}
	if cfg.cache != nil {
		eopts = append(eopts, datasource.WithCache(cfg.cache))
	}
	if cfg.bus != nil {
		eopts = append(eopts, datasource.WithBus(cfg.bus))
	}
	f.engine = datasource.New(cfg.sources, eopts...)
	f.unsubCtrl = ctrl.Subscribe(f.onValueChange)
	return f, nil
}

// Schema returns the session's schema.
func (f *Form) Schema() *goforma.Schema { return f.schema }

// Controller returns the session's controller.
func (f *Form) Controller() goforma.FormController { return f.ctrl }

// Engine returns the data-source engine, for cache control.
func (f *Form) Engine() *datasource.Engine { return f.engine }

// Render resolves every top-level field in schema order. Hidden fields are
// included with ShouldRender false so hosts see the full shape. A full pass
// also sweeps bindings of instances that no longer render (removed items,
// hidden subtrees); Field does not.
func (f *Form) Render(ctx context.Context) ([]goforma.FieldDescriptor, error) {
	if f.isClosed() {
		return nil, goforma.ErrFormClosed
	}
	p := f.newPass()
	defs := f.schema.Fields()
	out := make([]goforma.FieldDescriptor, 0, len(defs))
	for i := range defs {
		out = append(out, p.resolve(&defs[i], resolveIn{}))
	}
	f.sweep(p.seen)
	return out, nil
}

// Field resolves a single concrete path, folding ancestor flags and
// conditions on the way down.
func (f *Form) Field(ctx context.Context, path string) (goforma.FieldDescriptor, error) {
	if f.isClosed() {
		return goforma.FieldDescriptor{}, goforma.ErrFormClosed
	}
	return f.newPass().at(path)
}

// Subscribe registers a re-render listener. Each invocation carries the
// concrete paths affected by one change; nil means everything. The returned
// func removes the listener.
func (f *Form) Subscribe(fn func(paths []string)) func() {
	s := &subscriber{fn: fn}
	f.mu.Lock()
	f.subs = append(f.subs, s)
	f.mu.Unlock()
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		for i, cur := range f.subs {
			if cur == s {
				f.subs = append(f.subs[:i], f.subs[i+1:]...)
				return
			}
		}
	}
}

// Validate runs the compiled validator over the current values and
// distributes the results: previously distributed errors are cleared, then
// each failing path gets its first issue's message. The full issue list
// comes back as the error; nil means the tree is valid.
func (f *Form) Validate(ctx context.Context) error {
	if f.isClosed() {
		return goforma.ErrFormClosed
	}
	res := f.valid.SafeParse(ctx, f.ctrl.Values())
	f.ctrl.ClearErrors()
	if res.Valid {
		return nil
	}
	seen := map[string]struct{}{}
	for _, is := range res.Issues {
		if _, dup := seen[is.Path]; dup {
			continue
		}
		seen[is.Path] = struct{}{}
		f.ctrl.SetError(is.Path, is.Message)
	}
	return res.Issues
}

// Close tears the session down: the controller subscription, every
// data-source binding and the engine's in-flight fetches. Further
// operations return ErrFormClosed.
func (f *Form) Close() {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return
	}
	f.closed = true
	bindings := f.bindings
	f.bindings = map[string]*boundSource{}
	f.mu.Unlock()

	f.unsubCtrl()
	for _, bs := range bindings {
		bs.b.Close()
	}
	f.engine.Close()
}

func (f *Form) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

// onValueChange fans one controller write out to the fields it can affect:
// condition-gated fields watching the path and fetching fields depending on
// it. Affected templates are filled with the indices captured from the
// changed path; markers left over (a change above an array) expand against
// the live array lengths.
func (f *Form) onValueChange(path string) {
	if f.isClosed() {
		return
	}
	if path == "" {
		events.Publish(context.Background(), f.bus, events.FieldsInvalidated{})
		f.notify(nil)
		return
	}
	affected := f.affectedBy(path)
	events.Publish(context.Background(), f.bus, events.FieldsInvalidated{Changed: path, Paths: affected})
	f.notify(dedup(append(affected, path)))
}

func (f *Form) affectedBy(changed string) []string {
	var out []string
	values := f.ctrl.Values()
	collect := func(edges map[string][]string) {
		for pattern, dependents := range edges {
			m, ok := goforma.MatchTemplate(pattern, changed)
			if !ok || !m.Touches() {
				continue
			}
			for _, dep := range dependents {
				filled, unfilled := goforma.FillTemplate(dep, m.Indices)
				if unfilled == 0 {
					out = append(out, filled)
					continue
				}
				out = append(out, expandMarkers(values, filled)...)
			}
		}
	}
	collect(f.condEdges)
	collect(f.dataEdges)
	return dedup(out)
}

// expandMarkers turns a partially filled template into the concrete paths
// existing under the current values, one per live index.
func expandMarkers(values map[string]any, partial string) []string {
	i := strings.Index(partial, "[]")
	if i < 0 {
		return []string{partial}
	}
	arrPath, rest := partial[:i], partial[i+2:]
	v, ok := goforma.ValueAtPath(values, arrPath)
	if !ok {
		return nil
	}
	arr, ok := v.([]any)
	if !ok {
		return nil
	}
	var out []string
	for idx := range arr {
		out = append(out, expandMarkers(values, arrPath+"."+strconv.Itoa(idx)+rest)...)
	}
	return out
}

func dedup(in []string) []string {
	sort.Strings(in)
	out := in[:0]
	for i, v := range in {
		if i == 0 || in[i-1] != v {
			out = append(out, v)
		}
	}
	return out
}

func (f *Form) notify(paths []string) {
	f.mu.Lock()
	subs := make([]*subscriber, len(f.subs))
	copy(subs, f.subs)
	f.mu.Unlock()
	for _, s := range subs {
		s.fn(paths)
	}
}

// bindingFor returns, creating on first use, the binding for a field
// instance. The stored path refreshes every pass so async notifications
// name the instance's current concrete path even after reordering.
func (f *Form) bindingFor(key, source, path string) *datasource.Binding {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return nil
	}
	if bs, ok := f.bindings[key]; ok {
		bs.path = path
		return bs.b
	}
	b, ok := f.engine.Bind(source, func() { f.notifyBinding(key) })
	if !ok {
		return nil
	}
	f.bindings[key] = &boundSource{b: b, path: path}
	return b
}

func (f *Form) notifyBinding(key string) {
	f.mu.Lock()
	bs, ok := f.bindings[key]
	closed := f.closed
	var path string
	if ok {
		path = bs.path
	}
	f.mu.Unlock()
	if closed || !ok {
		return
	}
	f.notify([]string{path})
}

// closeBinding tears one instance's binding down when it stops rendering.
// Flipping visible again creates a fresh binding, typically served from
// cache.
func (f *Form) closeBinding(key string) {
	f.mu.Lock()
	bs, ok := f.bindings[key]
	if ok {
		delete(f.bindings, key)
	}
	f.mu.Unlock()
	if ok {
		bs.b.Close()
	}
}

// sweep closes the bindings a full pass did not touch: instances gone with
// removed items or hidden ancestors.
func (f *Form) sweep(seen map[string]struct{}) {
	f.mu.Lock()
	var stale []*boundSource
	for key, bs := range f.bindings {
		if _, ok := seen[key]; !ok {
			stale = append(stale, bs)
			delete(f.bindings, key)
		}
	}
	f.mu.Unlock()
	for _, bs := range stale {
		bs.b.Close()
	}
}

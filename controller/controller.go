// Package controller ships the in-memory goforma.FormController. Hosts with
// their own state containers implement the interface themselves; this one
// is the default for tests, CLIs and server-side rendering.
package controller

import (
	"strconv"
	"sync"

	goforma "github.com/reoring/goforma"
)

type fieldMeta struct {
	touched bool
	dirty   bool
	err     string
}

type subscriber struct {
	fn func(path string)
}

// Controller holds the value tree, per-field metadata and per-array item
// identity behind one mutex. Values are plain map[string]any / []any trees;
// writes create intermediate containers on demand.
type Controller struct {
	mu     sync.Mutex
	values map[string]any
	meta   map[string]*fieldMeta
	ids    map[string][]string
	subs   []*subscriber
}

var _ goforma.FormController = (*Controller)(nil)

// New creates a controller seeded with a deep copy of initial. A nil map
// starts empty.
func New(initial map[string]any) *Controller {
	values, _ := cloneAny(initial).(map[string]any)
	if values == nil {
		values = map[string]any{}
	}
	return &Controller{
		values: values,
		meta:   map[string]*fieldMeta{},
		ids:    map[string][]string{},
	}
}

// GetValue reads the value at a dotted path.
func (c *Controller) GetValue(path string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return goforma.ValueAtPath(c.values, path)
}

// SetValue writes a value, creating intermediate objects and arrays as the
// path's segments dictate, marks the field dirty and notifies subscribers.
func (c *Controller) SetValue(path string, value any) {
	c.mu.Lock()
	c.writeLocked(path, value)
	c.metaLocked(path).dirty = true
	subs := c.subsSnapshot()
	c.mu.Unlock()
	fanOut(subs, path)
}

// Values returns a deep copy of the whole tree.
func (c *Controller) Values() map[string]any {
	c.mu.Lock()
	defer c.mu.Unlock()
	out, _ := cloneAny(c.values).(map[string]any)
	return out
}

// RegisterField seeds the default when the path has no value yet (silently:
// seeding is not a user edit) and returns the field's current view.
func (c *Controller) RegisterField(path string, defaultValue any) goforma.FieldBinding {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, found := goforma.ValueAtPath(c.values, path); !found && defaultValue != nil {
		c.writeLocked(path, defaultValue)
	}
	value, _ := goforma.ValueAtPath(c.values, path)
	m := c.metaLocked(path)
	return goforma.FieldBinding{
		Value:    value,
		OnChange: func(v any) { c.SetValue(path, v) },
		OnBlur:   func() { c.touch(path) },
		Touched:  m.touched,
		Dirty:    m.dirty,
		Error:    m.err,
	}
}

// FieldArray returns the raw array view at path. Bounds from a schema are
// not this layer's business; only out-of-range indices are refused.
func (c *Controller) FieldArray(path string) goforma.FieldArray {
	return &fieldArray{c: c, path: path}
}

// Subscribe registers a change listener. The returned func removes it.
func (c *Controller) Subscribe(fn func(path string)) func() {
	s := &subscriber{fn: fn}
	c.mu.Lock()
	c.subs = append(c.subs, s)
	c.mu.Unlock()
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		for i, cur := range c.subs {
			if cur == s {
				c.subs = append(c.subs[:i], c.subs[i+1:]...)
				return
			}
		}
	}
}

// SetError attaches a per-field message.
func (c *Controller) SetError(path, message string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.metaLocked(path).err = message
}

// ClearErrors drops every field error, leaving touched and dirty state.
func (c *Controller) ClearErrors() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, m := range c.meta {
		m.err = ""
	}
}

// Reset replaces the whole tree and forgets all metadata and item identity.
func (c *Controller) Reset(values map[string]any) {
	c.mu.Lock()
	next, _ := cloneAny(values).(map[string]any)
	if next == nil {
		next = map[string]any{}
	}
	c.values = next
	c.meta = map[string]*fieldMeta{}
	c.ids = map[string][]string{}
	subs := c.subsSnapshot()
	c.mu.Unlock()
	fanOut(subs, "")
}

func (c *Controller) touch(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.metaLocked(path).touched = true
}

func (c *Controller) metaLocked(path string) *fieldMeta {
	m, ok := c.meta[path]
	if !ok {
		m = &fieldMeta{}
		c.meta[path] = m
	}
	return m
}

func (c *Controller) writeLocked(path string, value any) {
	out := setValue(c.values, goforma.SplitPath(path), value)
	if m, ok := out.(map[string]any); ok {
		c.values = m
	}
}

func (c *Controller) subsSnapshot() []*subscriber {
	out := make([]*subscriber, len(c.subs))
	copy(out, c.subs)
	return out
}

func fanOut(subs []*subscriber, path string) {
	for _, s := range subs {
		s.fn(path)
	}
}

// setValue descends seg by seg, replacing nodes whose shape does not fit
// and padding arrays with nils up to the written index.
func setValue(node any, segs []string, value any) any {
	if len(segs) == 0 {
		return value
	}
	if idx, ok := parseIndex(segs[0]); ok {
		arr, _ := node.([]any)
		for len(arr) <= idx {
			arr = append(arr, nil)
		}
		arr[idx] = setValue(arr[idx], segs[1:], value)
		return arr
	}
	m, ok := node.(map[string]any)
	if !ok {
		m = map[string]any{}
	}
	m[segs[0]] = setValue(m[segs[0]], segs[1:], value)
	return m
}

func parseIndex(seg string) (int, bool) {
	if seg == "" {
		return 0, false
	}
	for _, r := range seg {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(seg)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

func cloneAny(v any) any {
	switch x := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, vv := range x {
			out[k] = cloneAny(vv)
		}
		return out
	case []any:
		out := make([]any, len(x))
		for i, vv := range x {
			out[i] = cloneAny(vv)
		}
		return out
	default:
		return v
	}
}

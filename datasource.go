package goforma

import (
	"context"
	"time"
)

// Timing defaults applied when neither the config nor the schema document
// sets a value.
const (
	DefaultStaleTime = 30 * time.Second
	DefaultDebounce  = 300 * time.Millisecond
)

// FetchParams is the pure input a fetch derives from: the dependency values
// read at resolution time, keyed by the declared dependency path with any
// item-relative marker stripped, plus the current search query. Two
// resolutions with equal params (modulo cache-key derivation) are satisfied
// by one underlying request.
type FetchParams struct {
	Dependencies map[string]any
	SearchQuery  string
}

// FetchFunc loads raw data for a source. The context is the engine's
// lifecycle context; implementations should honor cancellation. Absent
// dependency values arrive as nil entries and it is the fetch function's
// business whether to short-circuit on them.
type FetchFunc func(ctx context.Context, params FetchParams) (any, error)

// TransformFunc converts raw fetch results into options.
type TransformFunc func(raw any) []Option

// CacheKeyFunc replaces the default cache key derivation for a source.
type CacheKeyFunc func(params FetchParams) string

// DataSourceConfig describes one named option source. A single config is
// shared by every field instance referencing its key; each instance still
// resolves to its own cache entry via its dependency values.
type DataSourceConfig struct {
	Fetch     FetchFunc
	Transform TransformFunc
	CacheKey  CacheKeyFunc
	// StaleTime bounds cache reuse; Debounce delays search fetches while
	// keystrokes keep arriving. Zero means "use document tuning, then the
	// package default".
	StaleTime time.Duration
	Debounce  time.Duration
	// OnError observes fetch failures as a side channel; the same error also
	// lands on the field descriptor.
	OnError func(err error)
}

// WithDefaults resolves zero timing fields against document tuning and the
// package defaults.
func (c DataSourceConfig) WithDefaults(t SourceTuning) DataSourceConfig {
	if c.StaleTime == 0 {
		if t.StaleTime != 0 {
			c.StaleTime = t.StaleTime.Std()
		} else {
			c.StaleTime = DefaultStaleTime
		}
	}
	if c.Debounce == 0 {
		if t.Debounce != 0 {
			c.Debounce = t.Debounce.Std()
		} else {
			c.Debounce = DefaultDebounce
		}
	}
	return c
}

// DataSources maps source keys to their configs.
type DataSources map[string]DataSourceConfig

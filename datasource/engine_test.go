package datasource_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	goforma "github.com/reoring/goforma"
	"github.com/reoring/goforma/datasource"
	"github.com/reoring/goforma/events"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Unix(1700000000, 0)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func optList(labels ...string) []goforma.Option {
	out := make([]goforma.Option, 0, len(labels))
	for _, l := range labels {
		out = append(out, goforma.Option{Label: l, Value: l})
	}
	return out
}

// settle waits for the binding to leave its loading state and returns the
// options it landed on.
func settle(t *testing.T, b *datasource.Binding) []goforma.Option {
	t.Helper()
	require.Eventually(t, func() bool {
		_, loading, _ := b.Snapshot()
		return !loading
	}, 2*time.Second, 5*time.Millisecond)
	o, _, _ := b.Snapshot()
	return o
}

func TestDefaultCacheKey(t *testing.T) {
	empty := datasource.DefaultCacheKey("countries", goforma.FetchParams{})
	assert.Equal(t, "countries:{}:", empty)

	a := datasource.DefaultCacheKey("regions", goforma.FetchParams{
		Dependencies: map[string]any{"country": "JP", "plan": "pro"},
		SearchQuery:  "to",
	})
	b := datasource.DefaultCacheKey("regions", goforma.FetchParams{
		Dependencies: map[string]any{"plan": "pro", "country": "JP"},
		SearchQuery:  "to",
	})
	assert.Equal(t, a, b, "insertion order must not affect the key")
	assert.Equal(t, `regions:{"country":"JP","plan":"pro"}:to`, a)

	c := datasource.DefaultCacheKey("regions", goforma.FetchParams{
		Dependencies: map[string]any{"country": "US", "plan": "pro"},
		SearchQuery:  "to",
	})
	assert.NotEqual(t, a, c, "different dependency values need different keys")
}

func TestFetchDeduplicatesConcurrentResolves(t *testing.T) {
	bus := events.New()
	var starts atomic.Int32
	events.Subscribe(bus, func(ctx context.Context, ev events.FetchStart) {
		starts.Add(1)
	})

	var calls atomic.Int32
	gate := make(chan struct{})
	e := datasource.New(goforma.DataSources{
		"countries": {
			Fetch: func(ctx context.Context, p goforma.FetchParams) (any, error) {
				calls.Add(1)
				<-gate
				return optList("Japan", "United States"), nil
			},
		},
	}, datasource.WithBus(bus))
	defer e.Close()

	b1, ok := e.Bind("countries", nil)
	require.True(t, ok)
	b2, ok := e.Bind("countries", nil)
	require.True(t, ok)

	b1.Resolve(map[string]any{"region": "asia"})
	b2.Resolve(map[string]any{"region": "asia"})

	time.Sleep(50 * time.Millisecond)
	close(gate)

	assert.Len(t, settle(t, b1), 2)
	assert.Len(t, settle(t, b2), 2)
	assert.Equal(t, int32(1), calls.Load(), "identical concurrent resolutions share one request")
	assert.Equal(t, int32(1), starts.Load(), "joiners must not emit their own fetch events")
}

func TestCacheFreshnessWindow(t *testing.T) {
	clk := newFakeClock()
	cache := datasource.NewCache(datasource.WithClock(clk.Now))

	var calls atomic.Int32
	e := datasource.New(goforma.DataSources{
		"countries": {
			StaleTime: time.Minute,
			Fetch: func(ctx context.Context, p goforma.FetchParams) (any, error) {
				calls.Add(1)
				return optList("Japan"), nil
			},
		},
	}, datasource.WithCache(cache))
	defer e.Close()

	b1, _ := e.Bind("countries", nil)
	b1.Resolve(nil)
	settle(t, b1)
	require.Equal(t, int32(1), calls.Load())

	// Inside the stale window a second mount is served synchronously:
	// options are present the moment Resolve returns, with no loading
	// flash and no request.
	b2, _ := e.Bind("countries", nil)
	b2.Resolve(nil)
	o2, loading2, err2 := b2.Snapshot()
	assert.NoError(t, err2)
	assert.False(t, loading2)
	assert.Equal(t, optList("Japan"), o2)
	assert.Equal(t, int32(1), calls.Load())

	// Past the window the entry stops being served and a fetch runs again.
	clk.Advance(2 * time.Minute)
	b3, _ := e.Bind("countries", nil)
	b3.Resolve(nil)
	settle(t, b3)
	assert.Equal(t, int32(2), calls.Load())
}

func TestCacheHitEmitsMarkedEvents(t *testing.T) {
	bus := events.New()
	var mu sync.Mutex
	var finishes []events.FetchFinish
	events.Subscribe(bus, func(ctx context.Context, ev events.FetchFinish) {
		mu.Lock()
		finishes = append(finishes, ev)
		mu.Unlock()
	})

	e := datasource.New(goforma.DataSources{
		"countries": {
			Fetch: func(ctx context.Context, p goforma.FetchParams) (any, error) {
				return optList("Japan"), nil
			},
		},
	}, datasource.WithBus(bus))
	defer e.Close()

	b1, _ := e.Bind("countries", nil)
	b1.Resolve(nil)
	settle(t, b1)

	b2, _ := e.Bind("countries", nil)
	b2.Resolve(nil)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, finishes, 2)
	assert.False(t, finishes[0].CacheHit)
	assert.NoError(t, finishes[0].Err)
	assert.True(t, finishes[1].CacheHit)
	assert.Equal(t, 1, finishes[1].Options)
}

func TestClearSourceScopesEviction(t *testing.T) {
	bus := events.New()
	var mu sync.Mutex
	var cleared []events.CacheCleared
	events.Subscribe(bus, func(ctx context.Context, ev events.CacheCleared) {
		mu.Lock()
		cleared = append(cleared, ev)
		mu.Unlock()
	})

	var countryCalls, planCalls atomic.Int32
	e := datasource.New(goforma.DataSources{
		"countries": {
			Fetch: func(ctx context.Context, p goforma.FetchParams) (any, error) {
				countryCalls.Add(1)
				return optList("Japan"), nil
			},
		},
		"plans": {
			Fetch: func(ctx context.Context, p goforma.FetchParams) (any, error) {
				planCalls.Add(1)
				return optList("free", "pro"), nil
			},
		},
	}, datasource.WithBus(bus))
	defer e.Close()

	bc, _ := e.Bind("countries", nil)
	bp, _ := e.Bind("plans", nil)
	bc.Resolve(nil)
	bp.Resolve(nil)
	settle(t, bc)
	settle(t, bp)
	require.Equal(t, 2, e.Cache().Len())

	e.ClearSource("countries")
	assert.Equal(t, 1, e.Cache().Len(), "other sources keep their entries")

	b2, _ := e.Bind("countries", nil)
	b2.Resolve(nil)
	settle(t, b2)
	assert.Equal(t, int32(2), countryCalls.Load(), "cleared source must fetch again")
	assert.Equal(t, int32(1), planCalls.Load())

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, cleared, 1)
	assert.Equal(t, "countries", cleared[0].Source)
}

func TestRawResultShapes(t *testing.T) {
	t.Run("option slice passes through", func(t *testing.T) {
		e := datasource.New(goforma.DataSources{
			"src": {Fetch: func(ctx context.Context, p goforma.FetchParams) (any, error) {
				return optList("Japan"), nil
			}},
		})
		defer e.Close()
		b, _ := e.Bind("src", nil)
		b.Resolve(nil)
		assert.Equal(t, optList("Japan"), settle(t, b))
	})

	t.Run("label value maps convert", func(t *testing.T) {
		e := datasource.New(goforma.DataSources{
			"src": {Fetch: func(ctx context.Context, p goforma.FetchParams) (any, error) {
				return []any{
					map[string]any{"label": "Japan", "value": "jp"},
					map[string]any{"label": "United States", "value": "us"},
				}, nil
			}},
		})
		defer e.Close()
		b, _ := e.Bind("src", nil)
		b.Resolve(nil)
		want := []goforma.Option{
			{Label: "Japan", Value: "jp"},
			{Label: "United States", Value: "us"},
		}
		assert.Equal(t, want, settle(t, b))
	})

	t.Run("transform wins over built-in coercion", func(t *testing.T) {
		e := datasource.New(goforma.DataSources{
			"src": {
				Fetch: func(ctx context.Context, p goforma.FetchParams) (any, error) {
					return []string{"jp", "us"}, nil
				},
				Transform: func(raw any) []goforma.Option {
					codes := raw.([]string)
					out := make([]goforma.Option, 0, len(codes))
					for _, c := range codes {
						out = append(out, goforma.Option{Label: c, Value: c})
					}
					return out
				},
			},
		})
		defer e.Close()
		b, _ := e.Bind("src", nil)
		b.Resolve(nil)
		assert.Equal(t, optList("jp", "us"), settle(t, b))
	})

	t.Run("unconvertible raw data fails visibly", func(t *testing.T) {
		e := datasource.New(goforma.DataSources{
			"src": {Fetch: func(ctx context.Context, p goforma.FetchParams) (any, error) {
				return map[string]any{"unexpected": true}, nil
			}},
		})
		defer e.Close()
		b, _ := e.Bind("src", nil)
		b.Resolve(nil)
		settle(t, b)
		_, _, err := b.Snapshot()
		require.Error(t, err)
		assert.ErrorIs(t, err, goforma.ErrUntransformable)
	})
}

func TestFetchErrorSurfacesAndNotifiesHook(t *testing.T) {
	boom := errors.New("boom")
	var hookMu sync.Mutex
	var hooked []error
	e := datasource.New(goforma.DataSources{
		"countries": {
			Fetch: func(ctx context.Context, p goforma.FetchParams) (any, error) {
				return nil, boom
			},
			OnError: func(err error) {
				hookMu.Lock()
				hooked = append(hooked, err)
				hookMu.Unlock()
			},
		},
	})
	defer e.Close()

	notified := make(chan struct{}, 1)
	b, _ := e.Bind("countries", func() {
		select {
		case notified <- struct{}{}:
		default:
		}
	})
	b.Resolve(nil)

	select {
	case <-notified:
	case <-time.After(2 * time.Second):
		t.Fatal("fetch never settled")
	}

	_, loading, err := b.Snapshot()
	assert.False(t, loading)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.ErrorContains(t, err, `source "countries"`)

	hookMu.Lock()
	defer hookMu.Unlock()
	require.Len(t, hooked, 1)
	assert.ErrorIs(t, hooked[0], boom)
}

func TestBindUnknownSource(t *testing.T) {
	e := datasource.New(nil)
	defer e.Close()

	assert.False(t, e.HasSource("missing"))
	b, ok := e.Bind("missing", nil)
	assert.False(t, ok)
	assert.Nil(t, b)
}

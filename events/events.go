package events

import "time"

// FetchStart is emitted when a data-source resolution begins: once per
// initiated fetch and once per synchronous cache hit. De-dup joiners attach
// to an existing fetch and emit nothing.
type FetchStart struct {
	RequestID uint64
	Source    string
	CacheKey  string
	Query     string
}

// FetchFinish pairs with FetchStart by RequestID.
type FetchFinish struct {
	RequestID uint64
	Source    string
	CacheKey  string
	CacheHit  bool
	Options   int
	Err       error
	Duration  time.Duration
}

// CacheCleared is emitted by explicit invalidation. Source is empty for a
// whole-cache clear.
type CacheCleared struct {
	Source string
}

// FieldsInvalidated reports the outcome of one targeted invalidation pass:
// the value path that changed and the field paths affected by it.
type FieldsInvalidated struct {
	Changed string
	Paths   []string
}

// ArrayChanged is emitted after an applied array mutation.
type ArrayChanged struct {
	Path string
	Op   string // "append", "remove" or "move"
	From int
	To   int
	Len  int
}

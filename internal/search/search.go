// Package search implements a local-first search coordinator: queries are
// matched synchronously against an in-memory collection, and a remote
// lookup is scheduled (after a debounce interval) only when the local scan
// comes up empty.
package search

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"
	"unicode/utf8"

	"quickfind/internal/stream"
)

// Source tells a subscriber where a snapshot's items came from.
type Source string

const (
	SourceNone   Source = "none"
	SourceLocal  Source = "local"
	SourceRemote Source = "remote"
)

// Snapshot is one immutable result emission. Each emission is a fresh
// value; Items is never aliased to coordinator-owned storage.
type Snapshot[T any] struct {
	Items   []T
	Query   string
	Loading bool
	Source  Source
	Err     string
}

// RemoteFunc fetches results for a query from a remote source. It may
// block; the coordinator calls it on its own goroutine and cancels ctx
// when the coordinator is closed.
type RemoteFunc[T any] func(ctx context.Context, query string) ([]T, error)

// MatchFunc reports whether an item matches a query. It must be fast and
// side-effect free; it is called once per local item per search.
type MatchFunc[T any] func(item T, query string) bool

// EqualFunc reports whether two items are the same entry. Used to
// deduplicate the local collection.
type EqualFunc[T any] func(a, b T) bool

const (
	// DefaultDebounce is the delay between a local miss and the remote
	// lookup it triggers.
	DefaultDebounce = 300 * time.Millisecond

	// DefaultMinQueryLength is the shortest query forwarded to the remote
	// source by the debounced path.
	DefaultMinQueryLength = 2
)

// Options configures a Coordinator.
type Options[T any] struct {
	// InitialData seeds the local collection. Duplicates (by Equal) are
	// skipped.
	InitialData []T

	// Remote is the fallback lookup. Required.
	Remote RemoteFunc[T]

	// Match is the local predicate. Required.
	Match MatchFunc[T]

	// Equal is the item identity. Required.
	Equal EqualFunc[T]

	// Debounce is the delay before a remote lookup fires. Zero means
	// DefaultDebounce.
	Debounce time.Duration

	// MinQueryLength is the minimum query length (in runes) for the
	// debounced remote path. Zero means DefaultMinQueryLength; set 1 to
	// allow single-character remote queries, which is the lowest useful
	// threshold since empty queries never go remote on this path.
	// ForceRemoteSearch ignores it.
	MinQueryLength int
}

// Coordinator owns the local collection and the snapshot stream. All
// exported methods are safe for concurrent use; the debounce timer and the
// remote fetch run on their own goroutines.
type Coordinator[T any] struct {
	mu     sync.Mutex
	opts   Options[T]
	items  []T
	query  string
	gen    uint64
	timer  *time.Timer
	closed bool

	out    *stream.Broadcast[Snapshot[T]]
	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a Coordinator from opts.
func New[T any](opts Options[T]) (*Coordinator[T], error) {
	if opts.Remote == nil {
		return nil, fmt.Errorf("search: Remote function is required")
	}
	if opts.Match == nil {
		return nil, fmt.Errorf("search: Match function is required")
	}
	if opts.Equal == nil {
		return nil, fmt.Errorf("search: Equal function is required")
	}
	if opts.Debounce == 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.MinQueryLength == 0 {
		opts.MinQueryLength = DefaultMinQueryLength
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := &Coordinator[T]{
		opts:   opts,
		out:    stream.New[Snapshot[T]](),
		ctx:    ctx,
		cancel: cancel,
	}
	for _, item := range opts.InitialData {
		if !c.containsLocked(item) {
			c.items = append(c.items, item)
		}
	}
	return c, nil
}

// Snapshots attaches a subscriber to the result stream. There is no
// replay; the subscriber sees only snapshots emitted after it attached.
// buffer <= 0 uses the stream default.
func (c *Coordinator[T]) Snapshots(buffer int) (<-chan Snapshot[T], func()) {
	return c.out.Subscribe(buffer)
}

// Search records query as the current query, emits the local matches
// immediately, and schedules a debounced remote lookup when the local scan
// found nothing. Any previously pending remote lookup is canceled.
func (c *Coordinator[T]) Search(query string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}

	c.query = query
	c.gen++
	gen := c.gen
	c.stopTimerLocked()

	local := c.scanLocked(query)
	c.out.Publish(Snapshot[T]{
		Items:  local,
		Query:  query,
		Source: SourceLocal,
	})

	if len(local) > 0 {
		return
	}
	c.timer = time.AfterFunc(c.opts.Debounce, func() {
		c.runRemote(gen, query, false)
	})
}

// ForceRemoteSearch bypasses the debounce delay, the local-hit
// short-circuit and the minimum-length guard, and runs the remote lookup
// for query right away.
func (c *Coordinator[T]) ForceRemoteSearch(query string) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.query = query
	c.gen++
	gen := c.gen
	c.stopTimerLocked()
	c.mu.Unlock()

	go c.runRemote(gen, query, true)
}

// AddItems appends items to the local collection, skipping entries already
// present by Equal. No snapshot is emitted.
func (c *Coordinator[T]) AddItems(items []T) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	for _, item := range items {
		if !c.containsLocked(item) {
			c.items = append(c.items, item)
		}
	}
}

// ClearLocalData empties the local collection. No snapshot is emitted.
func (c *Coordinator[T]) ClearLocalData() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.items = nil
}

// Items returns a copy of the local collection in insertion order.
func (c *Coordinator[T]) Items() []T {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]T, len(c.items))
	copy(out, c.items)
	return out
}

// Close cancels any pending remote lookup, cancels in-flight fetch
// contexts and closes the snapshot stream. Safe to call more than once;
// the coordinator must not be used afterward.
func (c *Coordinator[T]) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.stopTimerLocked()
	c.mu.Unlock()

	c.cancel()
	c.out.Close()
}

// runRemote is the remote execution path. gen is the generation captured
// when the lookup was scheduled; if the coordinator has moved on to a
// newer query, nothing is emitted and nothing is merged.
func (c *Coordinator[T]) runRemote(gen uint64, query string, forced bool) {
	c.mu.Lock()
	if c.closed || gen != c.gen {
		c.mu.Unlock()
		return
	}
	if !forced {
		if query == "" || utf8.RuneCountInString(query) < c.opts.MinQueryLength {
			c.mu.Unlock()
			return
		}
	}
	c.out.Publish(Snapshot[T]{
		Query:   query,
		Loading: true,
		Source:  SourceRemote,
	})
	ctx := c.ctx
	c.mu.Unlock()

	items, err := c.fetch(ctx, query)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed || gen != c.gen {
		// Superseded while in flight: discard the outcome entirely.
		return
	}
	if err != nil {
		log.Printf("search: remote lookup for %q failed: %v", query, err)
		c.out.Publish(Snapshot[T]{
			Query:  query,
			Source: SourceRemote,
			Err:    err.Error(),
		})
		return
	}
	for _, item := range items {
		if !c.containsLocked(item) {
			c.items = append(c.items, item)
		}
	}
	c.out.Publish(Snapshot[T]{
		Items:  items,
		Query:  query,
		Source: SourceRemote,
	})
}

// fetch invokes the remote function, converting a panic into an error so a
// misbehaving callback surfaces as an error snapshot instead of tearing
// down the host.
func (c *Coordinator[T]) fetch(ctx context.Context, query string) (items []T, err error) {
	defer func() {
		if r := recover(); r != nil {
			items = nil
			err = fmt.Errorf("remote search panic: %v", r)
		}
	}()
	return c.opts.Remote(ctx, query)
}

// scanLocked returns the local matches for query. An empty query matches
// the whole collection. Caller holds c.mu.
func (c *Coordinator[T]) scanLocked(query string) []T {
	if query == "" {
		out := make([]T, len(c.items))
		copy(out, c.items)
		return out
	}
	var out []T
	for _, item := range c.items {
		if c.opts.Match(item, query) {
			out = append(out, item)
		}
	}
	return out
}

func (c *Coordinator[T]) containsLocked(item T) bool {
	for _, existing := range c.items {
		if c.opts.Equal(existing, item) {
			return true
		}
	}
	return false
}

func (c *Coordinator[T]) stopTimerLocked() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

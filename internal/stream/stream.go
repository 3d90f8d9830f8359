package stream

import (
	"log"
	"sync"
)

// DefaultBuffer is the channel buffer used when a subscriber doesn't ask
// for a specific size.
const DefaultBuffer = 16

// Broadcast fans values out to any number of subscribers. There is no
// replay: a subscriber only sees values published after it attached.
type Broadcast[T any] struct {
	mu     sync.Mutex
	subs   map[int]chan T
	nextID int
	closed bool
}

// New creates a new broadcast stream.
func New[T any]() *Broadcast[T] {
	return &Broadcast[T]{
		subs: make(map[int]chan T),
	}
}

// Subscribe registers a new subscriber and returns its channel along with
// an unsubscribe function. buffer <= 0 uses DefaultBuffer. The channel is
// closed when the subscriber unsubscribes or the stream is closed.
func (b *Broadcast[T]) Subscribe(buffer int) (<-chan T, func()) {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan T, buffer)
	if b.closed {
		close(ch)
		return ch, func() {}
	}

	id := b.nextID
	b.nextID++
	b.subs[id] = ch

	return ch, func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if sub, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(sub)
		}
	}
}

// Publish delivers v to all current subscribers. The send is non-blocking:
// a subscriber that has fallen behind loses the value rather than stalling
// the publisher.
func (b *Broadcast[T]) Publish(v T) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}

	for _, ch := range b.subs {
		select {
		case ch <- v:
		default:
			log.Printf("stream: subscriber buffer full, dropping value")
		}
	}
}

// Close closes all subscriber channels and rejects further publishes.
// Safe to call more than once.
func (b *Broadcast[T]) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true

	for id, ch := range b.subs {
		delete(b.subs, id)
		close(ch)
	}
}

// Closed reports whether Close has been called.
func (b *Broadcast[T]) Closed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closed
}

// Package broadcast implements a non-replaying single-producer,
// multi-consumer fan-out with drop-oldest backpressure.
package broadcast

import (
	"sync"
)

// DefaultCapacity is the per-subscriber buffer size used when 0 is passed to New.
const DefaultCapacity = 16

// Broadcaster delivers each published value to every current subscriber.
// Publish never blocks: when a subscriber's buffer is full the oldest pending
// value is discarded to make room for the new one.
type Broadcaster[T any] struct {
	subs     map[*Subscription[T]]struct{}
	capacity int
	mu       sync.Mutex
}

// Subscription is one consumer's view of a Broadcaster.
type Subscription[T any] struct {
	b       *Broadcaster[T]
	ch      chan T
	dropped uint64
	once    sync.Once
}

// New creates a broadcaster with the given per-subscriber capacity.
func New[T any](capacity int) *Broadcaster[T] {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Broadcaster[T]{
		subs:     make(map[*Subscription[T]]struct{}),
		capacity: capacity,
	}
}

// Subscribe registers a new consumer. Values published before this call
// are not delivered to it.
func (b *Broadcaster[T]) Subscribe() *Subscription[T] {
	s := &Subscription[T]{
		b:  b,
		ch: make(chan T, b.capacity),
	}

	b.mu.Lock()
	b.subs[s] = struct{}{}
	b.mu.Unlock()

	return s
}

// Publish sends v to every subscriber without blocking.
func (b *Broadcaster[T]) Publish(v T) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for s := range b.subs {
		for {
			select {
			case s.ch <- v:
			default:
				// буфер полон - выбрасываем самое старое значение
				select {
				case <-s.ch:
					s.dropped++
				default:
				}
				continue
			}
			break
		}
	}
}

// Len returns the number of active subscriptions.
func (b *Broadcaster[T]) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

// CloseAll closes every current subscription. New subscriptions can still
// be created afterwards.
func (b *Broadcaster[T]) CloseAll() {
	b.mu.Lock()
	subs := b.subs
	b.subs = make(map[*Subscription[T]]struct{})
	b.mu.Unlock()

	for s := range subs {
		s.once.Do(func() { close(s.ch) })
	}
}

// C returns the receive channel. It is closed by Close or CloseAll.
func (s *Subscription[T]) C() <-chan T {
	return s.ch
}

// Dropped returns how many values were discarded for this subscriber.
func (s *Subscription[T]) Dropped() uint64 {
	s.b.mu.Lock()
	defer s.b.mu.Unlock()
	return s.dropped
}

// Close unsubscribes and closes the channel. Safe to call more than once.
func (s *Subscription[T]) Close() {
	s.b.mu.Lock()
	delete(s.b.subs, s)
	s.b.mu.Unlock()

	s.once.Do(func() { close(s.ch) })
}

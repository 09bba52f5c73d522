// Package retain caps how many telemetry samples (plot points, log lines,
// decoded messages) are kept in memory, dropping the coldest ones first.
package retain

import (
	"errors"
	"sync"

	"github.com/IvanBrykalov/lrulist/lrulist"
)

// ErrCapacity is returned by New for a non-positive capacity.
var ErrCapacity = errors.New("retain: capacity must be > 0")

// Ticket identifies a retained sample. It stays valid until the sample is
// dropped; after that Touch reports false.
type Ticket[T any] struct {
	h *lrulist.Handle[T]
}

// Options configures a Buffer.
type Options[T any] struct {
	// Capacity is the maximum number of retained samples.
	Capacity int
	// OnDrop, if set, receives samples evicted to make room, coldest first.
	// It runs under the buffer lock and must not call back into the Buffer.
	OnDrop func(dropped []T)
}

// Buffer keeps at most Capacity samples. New samples are admitted hot, so
// an untouched stream keeps the latest Capacity samples; samples a consumer
// keeps reading (Touch) are moved back to the hot end and outlive them.
// Buffer is safe for concurrent use.
type Buffer[T any] struct {
	mu   sync.Mutex
	list lrulist.List[T]
	opt  Options[T]
}

// New returns an empty buffer.
func New[T any](opt Options[T]) (*Buffer[T], error) {
	if opt.Capacity <= 0 {
		return nil, ErrCapacity
	}
	return &Buffer[T]{opt: opt}, nil
}

// Add retains item, dropping the coldest samples first if the buffer is full.
func (b *Buffer[T]) Add(item T) Ticket[T] {
	b.mu.Lock()
	defer b.mu.Unlock()

	if over := b.list.Len() + 1 - b.opt.Capacity; over > 0 {
		b.dropLocked(b.list.Pop(over))
	}
	h := b.list.Push(item)
	_, _ = b.list.Access(h)
	return Ticket[T]{h: h}
}

// Touch marks the sample as recently used and returns it. It reports false
// if the sample has already been dropped.
func (b *Buffer[T]) Touch(t Ticket[T]) (T, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	item, err := b.list.Access(t.h)
	return item, err == nil
}

// Trim drops up to n of the coldest samples and returns them, coldest first.
// OnDrop is not called for trimmed samples.
func (b *Buffer[T]) Trim(n int) []T {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.list.Pop(n)
}

// Resize changes the capacity, dropping the coldest samples if it shrinks.
func (b *Buffer[T]) Resize(capacity int) error {
	if capacity <= 0 {
		return ErrCapacity
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	b.opt.Capacity = capacity
	if over := b.list.Len() - capacity; over > 0 {
		b.dropLocked(b.list.Pop(over))
	}
	return nil
}

// Len returns the number of retained samples.
func (b *Buffer[T]) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.list.Len()
}

// Hottest returns the most recently used sample.
func (b *Buffer[T]) Hottest() (T, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	item, err := b.list.Head()
	return item, err == nil
}

// Coldest returns the sample that would be dropped next.
func (b *Buffer[T]) Coldest() (T, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	item, err := b.list.Tail()
	return item, err == nil
}

// Snapshot copies the retained samples, hottest first.
func (b *Buffer[T]) Snapshot() []T {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]T, 0, b.list.Len())
	for item := range b.list.All() {
		out = append(out, item)
	}
	return out
}

func (b *Buffer[T]) dropLocked(dropped []T) {
	if len(dropped) > 0 && b.opt.OnDrop != nil {
		b.opt.OnDrop(dropped)
	}
}

package lrulist

import (
	"errors"
	"iter"
)

var (
	// ErrEmpty is returned by Head, Tail and PopTail on an empty list.
	ErrEmpty = errors.New("lrulist: list is empty")
	// ErrForeignHandle is returned when a handle is nil, was already evicted
	// or removed, or was issued by a different List.
	ErrForeignHandle = errors.New("lrulist: handle is not owned by this list")
)

// Handle is a node of a List. It is returned by Push and identifies the
// entry for later O(1) Access or Remove calls.
type Handle[T any] struct {
	item T

	// prev is closer to the head (MRU), next closer to the tail (LRU).
	prev *Handle[T]
	next *Handle[T]

	// list is the owner; nil once the node has been evicted or removed.
	list *List[T]
}

// Item returns the payload without changing its position.
func (h *Handle[T]) Item() T { return h.item }

// List is a doubly linked list kept in recency order: head is the most
// recently used item, tail the least recently used one.
//
// The zero value is an empty list ready to use. List is not safe for
// concurrent use; callers serialize access themselves.
type List[T any] struct {
	head  *Handle[T] // MRU
	tail  *Handle[T] // LRU
	count int
}

// New returns an empty list.
func New[T any]() *List[T] { return &List[T]{} }

// Len returns the number of live nodes in O(1).
func (l *List[T]) Len() int { return l.count }

// Head returns the most recently used item.
func (l *List[T]) Head() (T, error) {
	if l.head == nil {
		var zero T
		return zero, ErrEmpty
	}
	return l.head.item, nil
}

// Tail returns the least recently used item.
func (l *List[T]) Tail() (T, error) {
	if l.tail == nil {
		var zero T
		return zero, ErrEmpty
	}
	return l.tail.item, nil
}

// Push appends item at the tail. New items start cold: without an Access
// they are the next ones to be evicted.
func (l *List[T]) Push(item T) *Handle[T] {
	h := &Handle[T]{item: item, prev: l.tail, list: l}
	if l.tail == nil {
		l.head = h
	} else {
		l.tail.next = h
	}
	l.tail = h
	l.count++
	return h
}

// Access promotes h to the head and returns its item.
func (l *List[T]) Access(h *Handle[T]) (T, error) {
	if !l.owns(h) {
		var zero T
		return zero, ErrForeignHandle
	}
	// A singleton, or any node already at the head, is already MRU.
	if h == l.head {
		return h.item, nil
	}
	l.unlink(h)
	l.linkFront(h)
	return h.item, nil
}

// PopTail removes the least recently used node and returns its item.
// The node's handle becomes stale.
func (l *List[T]) PopTail() (T, error) {
	h := l.tail
	if h == nil {
		var zero T
		return zero, ErrEmpty
	}
	l.unlink(h)
	l.count--
	h.list = nil
	return h.item, nil
}

// Pop evicts up to n items from the tail and returns them coldest first.
// It returns fewer than n items if the list runs out; n <= 0 evicts nothing.
func (l *List[T]) Pop(n int) []T {
	if n > l.count {
		n = l.count
	}
	if n <= 0 {
		return []T{}
	}
	popped := make([]T, 0, n)
	for range n {
		item, _ := l.PopTail()
		popped = append(popped, item)
	}
	return popped
}

// Remove splices h out of the list wherever it is and returns its item.
// The handle becomes stale.
func (l *List[T]) Remove(h *Handle[T]) (T, error) {
	if !l.owns(h) {
		var zero T
		return zero, ErrForeignHandle
	}
	l.unlink(h)
	l.count--
	h.list = nil
	return h.item, nil
}

// All yields items from head (MRU) to tail (LRU).
// The list must not be mutated during iteration.
func (l *List[T]) All() iter.Seq[T] {
	return func(yield func(T) bool) {
		for h := l.head; h != nil; h = h.next {
			if !yield(h.item) {
				return
			}
		}
	}
}

// Backward yields items from tail (LRU) to head (MRU).
func (l *List[T]) Backward() iter.Seq[T] {
	return func(yield func(T) bool) {
		for h := l.tail; h != nil; h = h.prev {
			if !yield(h.item) {
				return
			}
		}
	}
}

// -------------------- internals --------------------

func (l *List[T]) owns(h *Handle[T]) bool { return h != nil && h.list == l }

// unlink detaches h in O(1) and clears its links. count is left to the caller.
func (l *List[T]) unlink(h *Handle[T]) {
	if h.prev != nil {
		h.prev.next = h.next
	} else {
		l.head = h.next
	}
	if h.next != nil {
		h.next.prev = h.prev
	} else {
		l.tail = h.prev
	}
	h.prev, h.next = nil, nil
}

// linkFront inserts a detached h at the head.
func (l *List[T]) linkFront(h *Handle[T]) {
	h.next = l.head
	if l.head != nil {
		l.head.prev = h
	}
	l.head = h
	if l.tail == nil {
		l.tail = h
	}
}

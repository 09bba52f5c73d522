// Package lrulist implements a generic doubly linked list kept in
// least-recently-used order, with O(1) push, promotion and eviction.
//
// Design
//
//   - Ordering: the head is the most recently used (MRU) entry, the tail the
//     least recently used (LRU) one. Push appends at the tail, so a new item
//     starts cold; Access moves an item to the head.
//
//   - Handles: Push returns a *Handle. The caller keeps it (usually in its own
//     key index) and passes it back to Access or Remove. No lookup or search is
//     performed by the list, and items need not be comparable.
//
//   - Eviction: Pop(n) removes up to n items from the tail, coldest first.
//     PopTail removes exactly one. Evicted handles become stale.
//
//   - Errors: operations that would otherwise corrupt the links fail fast.
//     Head, Tail and PopTail on an empty list return ErrEmpty; Access and
//     Remove with a nil, stale or foreign handle return ErrForeignHandle.
//     A failed call leaves the list untouched.
//
//   - Concurrency: none. A List is owned by one goroutine or guarded by the
//     caller's lock (see packages cache and retain).
//
// Basic usage
//
//	l := lrulist.New[string]()
//	l.Push("a")            // list: a
//	b := l.Push("b")       // list: a b   (b is coldest)
//	l.Push("c")            // list: a b c
//	_, _ = l.Access(b)     // list: b a c
//	cold := l.Pop(2)       // ["c", "a"]
//
// The list does not enforce a capacity. The caller decides when and how much
// to Pop.
package lrulist

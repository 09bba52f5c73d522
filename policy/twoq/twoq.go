// Package twoq implements the 2Q eviction policy.
package twoq

import (
	"github.com/IvanBrykalov/lrulist/lrulist"
	"github.com/IvanBrykalov/lrulist/policy"
)

// twoQ keeps first-time entries in a probation queue (A1in) and remembers
// the keys it evicted from there in a ghost queue (A1out). A key that
// comes back while it is still a ghost skips probation.
//
// Everything that is not in A1in lives in Am, whose order is the shard list
// itself. A1in and A1out are lrulist.Lists of their own, indexed by handle.
//
// Concurrency: all methods are called under the shard lock.
type twoQ[K comparable, V any] struct {
	h policy.Hooks[K, V]

	capIn    int // A1in capacity (per-shard)
	capGhost int // A1out capacity (per-shard)

	in    lrulist.List[policy.Node[K, V]]
	inIdx map[policy.Node[K, V]]*lrulist.Handle[policy.Node[K, V]]

	ghosts   lrulist.List[K]
	ghostIdx map[K]*lrulist.Handle[K]
}

// New constructs a 2Q policy factory.
// Common choices: capIn ≈ 25% of shard capacity; capGhost ≈ 50–100% of shard capacity.
// NOTE: When used with a sharded cache, pass *per-shard* sizes here.
func New[K comparable, V any](capIn, capGhost int) policy.Policy[K, V] {
	return twoQPolicy[K, V]{capIn: max(capIn, 1), capGhost: max(capGhost, 1)}
}

type twoQPolicy[K comparable, V any] struct {
	capIn    int
	capGhost int
}

func (p twoQPolicy[K, V]) New(h policy.Hooks[K, V]) policy.ShardPolicy[K, V] {
	return &twoQ[K, V]{
		h:        h,
		capIn:    p.capIn,
		capGhost: p.capGhost,
		inIdx:    make(map[policy.Node[K, V]]*lrulist.Handle[policy.Node[K, V]]),
		ghostIdx: make(map[K]*lrulist.Handle[K]),
	}
}

// pushHot appends x and promotes it, so the list tail stays the oldest entry.
func pushHot[T any](l *lrulist.List[T], x T) *lrulist.Handle[T] {
	h := l.Push(x)
	_, _ = l.Access(h)
	return h
}

// OnAdd admits a ghost straight into Am and anything else into A1in.
// When A1in overflows, its oldest entry is handed back for eviction.
func (q *twoQ[K, V]) OnAdd(n policy.Node[K, V]) (evict policy.Node[K, V]) {
	k := n.Key()
	if gh, ok := q.ghostIdx[k]; ok {
		_, _ = q.ghosts.Remove(gh)
		delete(q.ghostIdx, k)
		q.h.PushFront(n)
		return nil
	}

	q.h.PushFront(n)
	q.inIdx[n] = pushHot(&q.in, n)

	if q.in.Len() > q.capIn {
		if oldest, err := q.in.Tail(); err == nil {
			return oldest
		}
	}
	return nil
}

// OnGet graduates an A1in entry to Am and promotes it in the shard list.
func (q *twoQ[K, V]) OnGet(n policy.Node[K, V]) {
	if h, ok := q.inIdx[n]; ok {
		_, _ = q.in.Remove(h)
		delete(q.inIdx, n)
	}
	q.h.MoveToFront(n)
}

// OnUpdate follows OnGet semantics (updates count as recent use).
func (q *twoQ[K, V]) OnUpdate(n policy.Node[K, V]) { q.OnGet(n) }

// OnRemove turns an A1in entry into a ghost. Removals from Am leave no ghost.
func (q *twoQ[K, V]) OnRemove(n policy.Node[K, V]) {
	h, ok := q.inIdx[n]
	if !ok {
		return
	}
	_, _ = q.in.Remove(h)
	delete(q.inIdx, n)

	k := n.Key()
	if old, ok := q.ghostIdx[k]; ok {
		_, _ = q.ghosts.Remove(old)
	}
	q.ghostIdx[k] = pushHot(&q.ghosts, k)

	if over := q.ghosts.Len() - q.capGhost; over > 0 {
		for _, gone := range q.ghosts.Pop(over) {
			delete(q.ghostIdx, gone)
		}
	}
}

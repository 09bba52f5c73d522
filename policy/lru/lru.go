// Package lru implements recency-ordered eviction policies: classic LRU,
// which admits new entries at MRU, and LIP (LRU Insertion Policy), which
// admits them at LRU.
package lru

import "github.com/IvanBrykalov/lrulist/policy"

// Insertion selects where a newly admitted entry lands in the shard list.
type Insertion uint8

const (
	// InsertHot admits at MRU (classic LRU).
	InsertHot Insertion = iota
	// InsertCold admits at LRU. An entry that is never read again is the
	// first to go, so one-pass scans cannot flush the working set.
	InsertCold
)

// String returns the policy name used in configs and metrics labels.
func (i Insertion) String() string {
	if i == InsertCold {
		return "lip"
	}
	return "lru"
}

// recency promotes on every read or update and never proposes evictions
// itself; the shard trims from the tail when limits are exceeded.
type recency[K comparable, V any] struct {
	h    policy.Hooks[K, V]
	mode Insertion
}

type factory[K comparable, V any] struct{ mode Insertion }

// New returns a classic LRU policy factory.
func New[K comparable, V any]() policy.Policy[K, V] { return factory[K, V]{mode: InsertHot} }

// NewLIP returns an LRU Insertion Policy factory. It relies on the
// list's native push, which appends at the cold end.
func NewLIP[K comparable, V any]() policy.Policy[K, V] { return factory[K, V]{mode: InsertCold} }

// New binds shard hooks and returns a shard-local policy instance.
func (f factory[K, V]) New(h policy.Hooks[K, V]) policy.ShardPolicy[K, V] {
	return &recency[K, V]{h: h, mode: f.mode}
}

func (p *recency[K, V]) OnAdd(n policy.Node[K, V]) (evict policy.Node[K, V]) {
	if p.mode == InsertCold {
		p.h.PushBack(n)
	} else {
		p.h.PushFront(n)
	}
	return nil
}

func (p *recency[K, V]) OnGet(n policy.Node[K, V]) { p.h.MoveToFront(n) }

// OnUpdate counts a write as a use.
func (p *recency[K, V]) OnUpdate(n policy.Node[K, V]) { p.h.MoveToFront(n) }

func (p *recency[K, V]) OnRemove(policy.Node[K, V]) {}

package cache

import (
	"sync"
	"time"

	"github.com/IvanBrykalov/lrulist/internal/util"
	"github.com/IvanBrykalov/lrulist/lrulist"
	"github.com/IvanBrykalov/lrulist/policy"
)

// shard is an independent partition of the cache with its own lock, key
// index and recency list (head=MRU, tail=LRU).
type shard[K comparable, V any] struct {
	// ---- guarded by mu ----
	mu      sync.RWMutex
	m       map[K]*node[K, V]
	order   lrulist.List[*node[K, V]]
	cost    int64 // total cost (if MaxCost is enabled)
	cap     int   // per-shard entry capacity
	maxCost int64 // per-shard cost limit (0 = disabled)

	factory policy.Policy[K, V]
	pol     policy.ShardPolicy[K, V]
	opt     Options[K, V]

	// last size published through Metrics.Resize
	reportedLen  int
	reportedCost int64

	// ---- hot counters (separate cache lines to avoid false sharing) ----
	_      util.CacheLinePad
	hits   util.PaddedAtomicInt64
	misses util.PaddedAtomicInt64
	evicts util.PaddedAtomicUint64
}

// newShard initializes a shard with per-shard capacity, policy factory, and options.
// maxCost is derived by splitting opt.MaxCost evenly across shards.
func newShard[K comparable, V any](capacity, shards int, pol policy.Policy[K, V], opt Options[K, V]) *shard[K, V] {
	s := &shard[K, V]{
		m:       make(map[K]*node[K, V], capacity),
		cap:     capacity,
		factory: pol,
		opt:     opt,
	}
	if opt.MaxCost > 0 {
		s.maxCost = (opt.MaxCost + int64(shards) - 1) / int64(shards)
	}
	s.pol = pol.New(shardHooks[K, V]{s: s})
	return s
}

// Add inserts a NEW entry (no update) through the policy.
// ttl is an absolute UnixNano deadline (0 = no TTL); cost is the logical weight (0 = equal).
// Returns false if the key already exists and is not expired.
func (s *shard[K, V]) Add(k K, v V, ttl int64, cost int32) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if n, exists := s.m[k]; exists {
		if !s.expiredLocked(n) {
			return false
		}
		s.evictNode(n, EvictTTL)
	}
	s.admitLocked(&node[K, V]{key: k, val: v, exp: ttl, cost: cost})
	return true
}

// Set inserts or updates an entry and promotes it according to the policy.
func (s *shard[K, V]) Set(k K, v V, ttl int64, cost int32) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if n, ok := s.m[k]; ok {
		s.cost += int64(cost) - int64(n.cost)
		n.val = v
		n.exp = ttl
		n.cost = cost

		s.pol.OnUpdate(n)
		s.enforceLimitsLocked()
		return
	}
	s.admitLocked(&node[K, V]{key: k, val: v, exp: ttl, cost: cost})
}

// Get returns the value and promotes the entry according to the policy.
// TTL: if expired, the entry is evicted and a miss is returned.
func (s *shard[K, V]) Get(k K) (V, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.m[k]
	if ok && s.expiredLocked(n) {
		s.evictNode(n, EvictTTL)
		s.reportSizeLocked()
		ok = false
	}
	if !ok {
		s.misses.Add(1)
		s.opt.Metrics.Miss()
		var zero V
		return zero, false
	}

	s.pol.OnGet(n)
	s.hits.Add(1)
	s.opt.Metrics.Hit()
	return n.val, true
}

// Peek reads an entry without promoting it. Expired entries read as
// misses but are left for the next mutating call to evict.
func (s *shard[K, V]) Peek(k K) (V, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n, ok := s.m[k]
	if !ok || s.expiredLocked(n) {
		var zero V
		return zero, false
	}
	return n.val, true
}

// Remove deletes an entry by key. Returns true if the entry existed.
// Explicit removal is not counted as an eviction.
func (s *shard[K, V]) Remove(k K) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.m[k]
	if !ok {
		return false
	}
	s.pol.OnRemove(n)
	s.unlinkNode(n)
	delete(s.m, k)
	s.reportSizeLocked()
	return true
}

// Purge drops every entry and resets policy state.
func (s *shard[K, V]) Purge() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.m = make(map[K]*node[K, V], s.cap)
	// Handles of the old list are only reachable through the old map.
	s.order = lrulist.List[*node[K, V]]{}
	s.cost = 0
	s.pol = s.factory.New(shardHooks[K, V]{s: s})
	s.reportSizeLocked()
}

// Len returns the number of resident entries in this shard.
func (s *shard[K, V]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.order.Len()
}

// -------------------- internals (mu held) --------------------

func (s *shard[K, V]) expiredLocked(n *node[K, V]) bool {
	if n.exp == 0 {
		return false
	}
	return s.now() > n.exp
}

func (s *shard[K, V]) now() int64 {
	if s.opt.Clock != nil {
		return s.opt.Clock.NowUnixNano()
	}
	return time.Now().UnixNano()
}

// admitLocked indexes n and lets the policy link it. A victim handed back
// by the policy is evicted first; the limits are then restored from the
// cold end without touching n, so a cold admission is never its own victim.
func (s *shard[K, V]) admitLocked(n *node[K, V]) {
	s.m[n.key] = n
	if ev := s.pol.OnAdd(n); ev != nil {
		s.evictNode(ev.(*node[K, V]), EvictPolicy)
	}

	for s.order.Len() > s.cap {
		if !s.evictColdest(n, EvictPolicy) {
			break
		}
	}
	for s.maxCost > 0 && s.cost > s.maxCost {
		if !s.evictColdest(n, EvictCapacity) {
			break
		}
	}
	s.reportSizeLocked()
}

// evictColdest evicts the LRU-most node other than keep. It reports false
// when keep is the only resident node.
func (s *shard[K, V]) evictColdest(keep *node[K, V], reason EvictReason) bool {
	for n := range s.order.Backward() {
		if n != keep {
			s.evictNode(n, reason)
			return true
		}
	}
	return false
}

// link appends n at the cold end and accounts for its cost.
func (s *shard[K, V]) link(n *node[K, V]) {
	n.h = s.order.Push(n)
	s.cost += int64(n.cost)
}

// promote moves n to MRU. Unlinked nodes are ignored.
func (s *shard[K, V]) promote(n *node[K, V]) {
	if n.h != nil {
		_, _ = s.order.Access(n.h)
	}
}

// unlinkNode splices n out of the recency list wherever it is.
func (s *shard[K, V]) unlinkNode(n *node[K, V]) {
	if n.h == nil {
		return
	}
	_, _ = s.order.Remove(n.h)
	s.released(n)
}

// released finishes bookkeeping for a node that is no longer in the list.
func (s *shard[K, V]) released(n *node[K, V]) {
	n.h = nil
	s.cost -= int64(n.cost)
	if s.cost < 0 {
		s.cost = 0
	}
}

// back returns the current LRU node in O(1), or nil.
func (s *shard[K, V]) back() *node[K, V] {
	n, err := s.order.Tail()
	if err != nil {
		return nil
	}
	return n
}

// evictNode removes a linked node and reports the eviction.
func (s *shard[K, V]) evictNode(n *node[K, V], reason EvictReason) {
	s.pol.OnRemove(n)
	s.unlinkNode(n)
	s.dropped(n, reason)
}

// dropped deletes an already-unlinked node from the index and fires
// counters, metrics and the OnEvict callback.
func (s *shard[K, V]) dropped(n *node[K, V], reason EvictReason) {
	delete(s.m, n.key)
	s.evicts.Add(1)
	s.opt.Metrics.Evict(reason)
	if cb := s.opt.OnEvict; cb != nil {
		cb(n.key, n.val, reason)
	}
}

// evictTail evicts up to count nodes from the LRU end in one bulk pop.
func (s *shard[K, V]) evictTail(count int, reason EvictReason) {
	for _, n := range s.order.Pop(count) {
		s.released(n)
		s.pol.OnRemove(n)
		s.dropped(n, reason)
	}
}

// enforceLimitsLocked trims from the LRU end until both the count and the
// cost limits hold, then reports the shard size.
func (s *shard[K, V]) enforceLimitsLocked() {
	if over := s.order.Len() - s.cap; over > 0 {
		s.evictTail(over, EvictPolicy)
	}
	if s.maxCost > 0 {
		for s.cost > s.maxCost && s.order.Len() > 0 {
			s.evictTail(1, EvictCapacity)
		}
	}
	s.reportSizeLocked()
}

// reportSizeLocked publishes the size change since the last report.
func (s *shard[K, V]) reportSizeLocked() {
	dl, dc := s.order.Len()-s.reportedLen, s.cost-s.reportedCost
	if dl == 0 && dc == 0 {
		return
	}
	s.reportedLen, s.reportedCost = s.order.Len(), s.cost
	s.opt.Metrics.Resize(dl, dc)
}

// -------------------- policy hooks --------------------

// shardHooks adapts the shard's recency list to policy.Hooks.
// Policies call these while the shard lock is held.
type shardHooks[K comparable, V any] struct{ s *shard[K, V] }

func (h shardHooks[K, V]) PushFront(x policy.Node[K, V]) {
	n := x.(*node[K, V])
	h.s.link(n)
	h.s.promote(n)
}
func (h shardHooks[K, V]) PushBack(x policy.Node[K, V])    { h.s.link(x.(*node[K, V])) }
func (h shardHooks[K, V]) MoveToFront(x policy.Node[K, V]) { h.s.promote(x.(*node[K, V])) }
func (h shardHooks[K, V]) Remove(x policy.Node[K, V])      { h.s.unlinkNode(x.(*node[K, V])) }
func (h shardHooks[K, V]) Len() int                        { return h.s.order.Len() }
func (h shardHooks[K, V]) Back() policy.Node[K, V] {
	// Avoid returning a typed nil inside the interface.
	if n := h.s.back(); n != nil {
		return n
	}
	return nil
}

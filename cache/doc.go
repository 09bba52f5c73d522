// Package cache provides a generic, sharded, capacity-bounded in-memory
// cache built on lrulist. It is the keyed layer the list leaves out: each
// shard maps keys to list handles and drives promotion and eviction.
//
// Design
//
//   - Concurrency: the cache is split into shards (a power of two), each
//     protected by an RWMutex. The lrulist.List inside a shard is only
//     touched under that lock.
//
//   - Storage: each shard keeps a map[K]*node for lookups; a node carries its
//     lrulist handle, so promotion and removal are O(1) splices.
//
//   - Policies: placement and promotion are delegated to a policy.Policy.
//     lru.New (default) admits at MRU, lru.NewLIP admits at LRU (the list's
//     native push) and resists scans, twoq.New adds a probation queue and
//     ghost keys.
//
//   - Limits: Capacity bounds the entry count and is split evenly across
//     shards. Room is made before admission with a single bulk Pop from the
//     tail. Optional Cost/MaxCost bounds a user-defined weight the same way.
//
//   - TTL: per-entry deadlines (UnixNano), expired lazily on read.
//
//   - GetOrLoad: coalesces concurrent loads for the same key. Without a
//     Loader it returns ErrNoLoader; after Close it returns ErrClosed.
//
//   - Observability: Options.Metrics receives Hit/Miss/Evict/Resize signals
//     (see metrics/prom for a Prometheus adapter); Options.OnEvict is called
//     for every eviction with its EvictReason; Stats aggregates counters.
//
// Basic usage
//
//	c := cache.New[string, []byte](cache.Options[string, []byte]{Capacity: 10_000})
//	c.Set("a", []byte("1"))
//	if v, ok := c.Get("a"); ok {
//	    _ = v
//	}
//	c.Remove("a")
//
// Scan-resistant admission
//
//	c := cache.New[string, string](cache.Options[string, string]{
//	    Capacity: 50_000,
//	    Policy:   lru.NewLIP[string, string](),
//	})
//
// With GetOrLoad
//
//	c := cache.New[string, string](cache.Options[string, string]{
//	    Capacity: 1024,
//	    Loader: func(ctx context.Context, k string) (string, error) {
//	        return "v:" + k, nil
//	    },
//	})
//	v, err := c.GetOrLoad(context.Background(), "key")
package cache

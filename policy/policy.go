package policy

// Node is the minimal contract a cache entry must satisfy for a policy.
// It provides read-only access to the key and a pointer to the value.
// The pointer allows in-place updates without re-linking the entry.
type Node[K comparable, V any] interface {
	Key() K
	Value() *V
}

// Hooks expose O(1) operations on the shard's recency list (an
// lrulist.List, head=MRU, tail=LRU). Implementations are provided by the shard.
//
// Concurrency: all hook calls happen under the shard lock.
// Important: hooks manage only the list; the shard owns the key->node map.
type Hooks[K comparable, V any] interface {
	// PushFront admits the node hot, at MRU.
	PushFront(Node[K, V])
	// PushBack admits the node cold, at LRU: it is the next eviction
	// candidate unless it gets accessed first.
	PushBack(Node[K, V])
	// MoveToFront promotes the node to MRU.
	MoveToFront(Node[K, V])
	// Remove detaches the node from the list (map bookkeeping is done by the shard).
	Remove(Node[K, V])
	// Back returns the current LRU node (or nil if empty).
	Back() Node[K, V]
	// Len returns the number of resident nodes in the shard.
	Len() int
}

// ShardPolicy is a per-shard eviction policy instance bound to shard hooks.
// All methods are invoked under the shard lock.
//
// Semantics:
//   - OnAdd places the node via PushFront or PushBack and may return an
//     eviction candidate (e.g., LRU of a probation queue). The shard will
//     evict that node and subsequently call OnRemove for it.
//   - OnGet/OnUpdate typically promote the node (e.g., move to MRU).
//   - OnRemove is a notification to update policy-internal state
//     (e.g., maintain ghost queues). The shard performs actual deletion.
type ShardPolicy[K comparable, V any] interface {
	OnAdd(Node[K, V]) (evict Node[K, V])
	OnGet(Node[K, V])
	OnUpdate(Node[K, V])
	OnRemove(Node[K, V])
}

// Policy is a factory that creates shard-local policy instances
// bound to a particular shard's hooks.
type Policy[K comparable, V any] interface {
	New(Hooks[K, V]) ShardPolicy[K, V]
}

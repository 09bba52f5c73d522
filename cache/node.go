package cache

import "github.com/IvanBrykalov/lrulist/lrulist"

// node is a resident entry. Its position in the shard's recency list is
// addressed through h; the list never looks entries up by key.
type node[K comparable, V any] struct {
	key K
	val V

	// h is nil while the node is not linked (before admission, after eviction).
	h *lrulist.Handle[*node[K, V]]

	// Absolute expiration deadline in UnixNano. Zero means "no TTL".
	exp int64

	// Logical "cost" used when MaxCost is enabled.
	cost int32
}

// Key returns the node key (part of policy.Node interface).
func (n *node[K, V]) Key() K { return n.key }

// Value returns a pointer to the stored value (part of policy.Node interface).
// Callers must only read/write through this pointer while holding the
// shard lock.
func (n *node[K, V]) Value() *V { return &n.val }

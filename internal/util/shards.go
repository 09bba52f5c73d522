package util

import (
	"math/bits"
	"runtime"
)

// maxShards caps the automatic shard count.
const maxShards = 256

// NextPow2 returns the smallest power of two >= x (1 for x <= 1).
// Values above 1<<63 are clamped to 1<<63.
func NextPow2(x uint64) uint64 {
	if x <= 1 {
		return 1
	}
	if x > 1<<63 {
		return 1 << 63
	}
	return 1 << bits.Len64(x-1)
}

// ReasonableShardCount picks a default shard count from CPU parallelism:
// nextPow2(2*GOMAXPROCS), clamped to [1..256].
func ReasonableShardCount() int {
	p := max(runtime.GOMAXPROCS(0), 1)
	return int(min(NextPow2(uint64(2*p)), maxShards))
}

// ShardIndex maps a 64-bit hash to a shard index. Power-of-two shard counts
// take the mask path; any other count falls back to modulo.
func ShardIndex(hash uint64, shards int) int {
	if shards <= 1 {
		return 0
	}
	n := uint64(shards)
	if n&(n-1) == 0 {
		return int(hash & (n - 1))
	}
	return int(hash % n)
}

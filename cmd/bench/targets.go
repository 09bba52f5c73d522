package main

import (
	"fmt"

	"github.com/dgraph-io/ristretto/v2"
	hlru "github.com/hashicorp/golang-lru/v2"

	"github.com/IvanBrykalov/lrulist/cache"
	"github.com/IvanBrykalov/lrulist/internal/util"
	"github.com/IvanBrykalov/lrulist/policy"
	"github.com/IvanBrykalov/lrulist/policy/lru"
	"github.com/IvanBrykalov/lrulist/policy/twoq"
)

const (
	implLRUList   = "lrulist"
	implGolangLRU = "golang-lru"
	implRistretto = "ristretto"
)

// target is the minimal surface the workload drives. Baselines from other
// libraries are wrapped to compare hit rates and throughput.
type target interface {
	Get(k string) bool
	Set(k, v string)
	Len() int
	Close()
}

// newTarget builds the implementation selected by cfg. m may be nil.
func newTarget(cfg Config, m cache.Metrics) (target, error) {
	switch cfg.Impl {
	case implLRUList:
		return newLRUListTarget(cfg, m), nil
	case implGolangLRU:
		c, err := hlru.New[string, string](cfg.Capacity)
		if err != nil {
			return nil, fmt.Errorf("bench: golang-lru: %w", err)
		}
		return golangLRUTarget{c}, nil
	case implRistretto:
		c, err := ristretto.NewCache(&ristretto.Config[string, string]{
			NumCounters: int64(cfg.Capacity) * 10,
			MaxCost:     int64(cfg.Capacity),
			BufferItems: 64,
			Metrics:     true,

			// Cost is an entry count, not bytes.
			IgnoreInternalCost: true,
		})
		if err != nil {
			return nil, fmt.Errorf("bench: ristretto: %w", err)
		}
		return ristrettoTarget{c}, nil
	default:
		return nil, fmt.Errorf("%w: unknown impl %q", errInvalidConfig, cfg.Impl)
	}
}

// ---- lrulist ----

type lruListTarget struct {
	c cache.Cache[string, string]
}

func newLRUListTarget(cfg Config, m cache.Metrics) lruListTarget {
	opt := cache.Options[string, string]{
		Capacity: cfg.Capacity,
		Shards:   cfg.Shards,
		Metrics:  m,
		Policy:   benchPolicy(cfg),
	}
	return lruListTarget{c: cache.New(opt)}
}

// benchPolicy sizes the policy per shard, as the cache applies it per shard.
func benchPolicy(cfg Config) policy.Policy[string, string] {
	switch cfg.Policy {
	case "lip":
		return lru.NewLIP[string, string]()
	case "2q":
		shards := cfg.Shards
		if shards <= 0 {
			shards = util.ReasonableShardCount()
		} else {
			shards = int(util.NextPow2(uint64(shards)))
		}
		perShard := (cfg.Capacity + shards - 1) / shards
		return twoq.New[string, string](perShard/4, perShard/2)
	default:
		return lru.New[string, string]()
	}
}

func (t lruListTarget) Get(k string) bool {
	_, ok := t.c.Get(k)
	return ok
}

func (t lruListTarget) Set(k, v string) { t.c.Set(k, v) }
func (t lruListTarget) Len() int        { return t.c.Len() }
func (t lruListTarget) Close()          { _ = t.c.Close() }

// ---- hashicorp/golang-lru ----

type golangLRUTarget struct {
	c *hlru.Cache[string, string]
}

func (t golangLRUTarget) Get(k string) bool {
	_, ok := t.c.Get(k)
	return ok
}

func (t golangLRUTarget) Set(k, v string) { t.c.Add(k, v) }
func (t golangLRUTarget) Len() int        { return t.c.Len() }
func (t golangLRUTarget) Close()          { t.c.Purge() }

// ---- dgraph-io/ristretto ----

type ristrettoTarget struct {
	c *ristretto.Cache[string, string]
}

func (t ristrettoTarget) Get(k string) bool {
	_, ok := t.c.Get(k)
	return ok
}

func (t ristrettoTarget) Set(k, v string) { t.c.Set(k, v, 1) }
func (t ristrettoTarget) Close()          { t.c.Close() }

// Len is approximate: ristretto admits asynchronously.
func (t ristrettoTarget) Len() int {
	t.c.Wait()
	return int(t.c.Metrics.KeysAdded() - t.c.Metrics.KeysEvicted())
}

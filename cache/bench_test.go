package cache

import (
	"context"
	"math/rand"
	"strconv"
	"sync/atomic"
	"testing"

	"github.com/IvanBrykalov/lrulist/internal/util"
	"github.com/IvanBrykalov/lrulist/policy"
	"github.com/IvanBrykalov/lrulist/policy/lru"
	"github.com/IvanBrykalov/lrulist/policy/twoq"
)

const (
	benchCapacity = 100_000
	benchKeys     = 1 << 18
)

func benchPolicies() []struct {
	name string
	pol  policy.Policy[int, int]
} {
	perShard := benchCapacity / util.ReasonableShardCount()
	return []struct {
		name string
		pol  policy.Policy[int, int]
	}{
		{"lru", lru.New[int, int]()},
		{"lip", lru.NewLIP[int, int]()},
		{"2q", twoq.New[int, int](perShard/4, perShard/2)},
	}
}

// BenchmarkCache_Zipf drives a skewed read/write mix, so hit rate and
// promotion cost depend on the policy. Int keys keep strconv out of the
// hot path.
func BenchmarkCache_Zipf(b *testing.B) {
	for _, p := range benchPolicies() {
		for _, reads := range []int{90, 50} {
			b.Run(p.name+"/r"+strconv.Itoa(reads), func(b *testing.B) {
				c := New(Options[int, int]{Capacity: benchCapacity, Policy: p.pol})
				b.Cleanup(func() { _ = c.Close() })
				for i := range benchCapacity / 2 {
					c.Set(i, i)
				}

				var seed atomic.Int64
				b.ReportAllocs()
				b.ResetTimer()
				b.RunParallel(func(pb *testing.PB) {
					r := rand.New(rand.NewSource(seed.Add(1)))
					zipf := rand.NewZipf(r, 1.1, 1, benchKeys-1)
					for pb.Next() {
						k := int(zipf.Uint64())
						if r.Intn(100) < reads {
							c.Get(k)
						} else {
							c.Set(k, k)
						}
					}
				})

				st := c.Stats()
				b.ReportMetric(st.HitRatio()*100, "hit%")
			})
		}
	}
}

// BenchmarkCache_StringKeys measures the end-to-end path including key
// hashing of strings.
func BenchmarkCache_StringKeys(b *testing.B) {
	c := New(Options[string, string]{Capacity: benchCapacity})
	b.Cleanup(func() { _ = c.Close() })

	keys := make([]string, benchKeys)
	for i := range keys {
		keys[i] = "k:" + strconv.Itoa(i)
	}

	b.ReportAllocs()
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		i := rand.Int()
		for pb.Next() {
			k := keys[i&(benchKeys-1)]
			if i%10 == 0 {
				c.Set(k, k)
			} else {
				c.Get(k)
			}
			i++
		}
	})
}

func BenchmarkCache_GetOrLoad(b *testing.B) {
	c := New(Options[int, int]{
		Capacity: benchCapacity,
		Loader:   func(_ context.Context, k int) (int, error) { return k, nil },
	})
	b.Cleanup(func() { _ = c.Close() })

	ctx := context.Background()
	b.ReportAllocs()
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		i := 0
		for pb.Next() {
			_, _ = c.GetOrLoad(ctx, i&(benchKeys-1))
			i++
		}
	})
}

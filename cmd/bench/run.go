package main

import (
	"context"
	"math/rand"
	"strconv"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
)

// report summarizes one run.
type report struct {
	Ops, Reads, Writes, Hits, Misses uint64
	Elapsed                          time.Duration
	Len                              int
}

func (r report) hitRate() float64 {
	if r.Reads == 0 {
		return 0
	}
	return float64(r.Hits) / float64(r.Reads) * 100
}

func (r report) opsPerSec() float64 {
	if r.Elapsed <= 0 {
		return 0
	}
	return float64(r.Ops) / r.Elapsed.Seconds()
}

// runWorkload preloads t and then drives a Zipf-distributed read/write mix
// from cfg.Workers goroutines until cfg.Duration elapses or ctx is done.
func runWorkload(ctx context.Context, cfg Config, t target) (report, error) {
	for i := range cfg.Preload {
		t.Set("k:"+strconv.Itoa(i), "v"+strconv.Itoa(i))
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.Duration)
	defer cancel()

	var reads, writes, hits, misses, total atomic.Uint64
	keysMax := uint64(cfg.Keys - 1)

	start := time.Now()
	g, ctx := errgroup.WithContext(ctx)
	for w := range cfg.Workers {
		g.Go(func() error {
			// rand.Rand is not goroutine-safe: one generator per worker.
			r := rand.New(rand.NewSource(cfg.Seed + int64(w)*9973))
			zipf := rand.NewZipf(r, cfg.ZipfS, cfg.ZipfV, keysMax)
			key := func() string { return "k:" + strconv.FormatUint(zipf.Uint64(), 10) }

			for ctx.Err() == nil {
				total.Add(1)
				if r.Intn(100) < cfg.ReadPct {
					reads.Add(1)
					if t.Get(key()) {
						hits.Add(1)
					} else {
						misses.Add(1)
					}
					continue
				}
				writes.Add(1)
				t.Set(key(), "v"+strconv.Itoa(r.Int()))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return report{}, err
	}

	return report{
		Ops:     total.Load(),
		Reads:   reads.Load(),
		Writes:  writes.Load(),
		Hits:    hits.Load(),
		Misses:  misses.Load(),
		Elapsed: time.Since(start),
		Len:     t.Len(),
	}, nil
}

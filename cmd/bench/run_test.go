package main

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func shortConfig(impl, policy string) Config {
	cfg := defaultConfig()
	cfg.Impl = impl
	cfg.Policy = policy
	cfg.Capacity = 256
	cfg.Shards = 4
	cfg.Workers = 2
	cfg.Duration = 50 * time.Millisecond
	cfg.Keys = 1024
	cfg.Seed = 1
	cfg.MetricsAddr = ""
	return cfg
}

func TestRunWorkload_AllTargets(t *testing.T) {
	cases := []struct{ impl, policy string }{
		{implLRUList, "lru"},
		{implLRUList, "lip"},
		{implLRUList, "2q"},
		{implGolangLRU, "lru"},
		{implRistretto, "lru"},
	}
	for _, tc := range cases {
		t.Run(tc.impl+"/"+tc.policy, func(t *testing.T) {
			cfg := shortConfig(tc.impl, tc.policy)
			require.NoError(t, cfg.validate())

			tgt, err := newTarget(cfg, nil)
			require.NoError(t, err)
			defer tgt.Close()

			rep, err := runWorkload(context.Background(), cfg, tgt)
			require.NoError(t, err)

			assert.Positive(t, rep.Ops)
			assert.Equal(t, rep.Ops, rep.Reads+rep.Writes)
			assert.Equal(t, rep.Reads, rep.Hits+rep.Misses)
			assert.Positive(t, rep.Elapsed)
			assert.LessOrEqual(t, rep.Len, cfg.Capacity+cfg.Shards, "bounded by capacity (per-shard rounding aside)")
			assert.GreaterOrEqual(t, rep.hitRate(), 0.0)
			assert.LessOrEqual(t, rep.hitRate(), 100.0)
		})
	}
}

func TestRunWorkload_StopsOnCancel(t *testing.T) {
	cfg := shortConfig(implLRUList, "lru")
	cfg.Duration = time.Hour
	require.NoError(t, cfg.validate())

	tgt, err := newTarget(cfg, nil)
	require.NoError(t, err)
	defer tgt.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, err := runWorkload(ctx, cfg, tgt)
		assert.NoError(t, err)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("workload ignored context cancellation")
	}
}

func TestNewTarget_Unknown(t *testing.T) {
	_, err := newTarget(Config{Impl: "nope"}, nil)
	require.ErrorIs(t, err, errInvalidConfig)
}

func TestReport_Rates(t *testing.T) {
	var zero report
	assert.Zero(t, zero.hitRate())
	assert.Zero(t, zero.opsPerSec())

	r := report{Ops: 200, Reads: 100, Hits: 25, Elapsed: 2 * time.Second}
	assert.InDelta(t, 25.0, r.hitRate(), 1e-9)
	assert.InDelta(t, 100.0, r.opsPerSec(), 1e-9)
}

func TestRun_NoMetricsServer(t *testing.T) {
	cfg := shortConfig(implLRUList, "2q")
	cfg.Duration = 20 * time.Millisecond
	require.NoError(t, cfg.validate())

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	require.NoError(t, run(context.Background(), cfg, log))
}

func TestNewLogger_Levels(t *testing.T) {
	ctx := context.Background()
	assert.True(t, newLogger("debug").Enabled(ctx, slog.LevelDebug))
	assert.False(t, newLogger("warn").Enabled(ctx, slog.LevelInfo))
	assert.True(t, newLogger("bogus").Enabled(ctx, slog.LevelInfo))
	assert.False(t, newLogger("bogus").Enabled(ctx, slog.LevelDebug))
}

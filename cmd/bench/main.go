// Command bench runs a synthetic Zipf workload against the lrulist cache
// (or a baseline cache library) and reports throughput and hit rate.
//
// Usage:
//
//	bench [--config bench.yaml] [--impl lrulist|golang-lru|ristretto] [--policy lru|lip|2q] ...
//
// Values from --config are applied first; flags set on the command line
// override them. Prometheus metrics are served on --metrics-addr while the
// lrulist implementation runs.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	_ "net/http/pprof" // registers /debug/pprof/* on DefaultServeMux
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/urfave/cli/v3"

	"github.com/IvanBrykalov/lrulist/cache"
	"github.com/IvanBrykalov/lrulist/metrics/prom"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp().Run(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "bench:", err)
		os.Exit(1)
	}
}

func newApp() *cli.Command {
	def := defaultConfig()
	return &cli.Command{
		Name:  "bench",
		Usage: "synthetic cache workload (lrulist vs. baselines)",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "YAML/JSON config file"},
			&cli.StringFlag{Name: "impl", Value: def.Impl, Usage: "lrulist | golang-lru | ristretto"},
			&cli.StringFlag{Name: "policy", Value: def.Policy, Usage: "eviction policy for lrulist: lru | lip | 2q"},
			&cli.IntFlag{Name: "cap", Value: def.Capacity, Usage: "cache capacity (entries)"},
			&cli.IntFlag{Name: "shards", Value: def.Shards, Usage: "number of shards (0=auto)"},
			&cli.IntFlag{Name: "workers", Value: def.Workers, Usage: "number of worker goroutines"},
			&cli.DurationFlag{Name: "duration", Value: def.Duration, Usage: "benchmark duration"},
			&cli.IntFlag{Name: "reads", Value: def.ReadPct, Usage: "read percentage [0..100]"},
			&cli.IntFlag{Name: "keys", Value: def.Keys, Usage: "keyspace size"},
			&cli.FloatFlag{Name: "zipf-s", Value: def.ZipfS, Usage: "Zipf s > 1 (skew)"},
			&cli.FloatFlag{Name: "zipf-v", Value: def.ZipfV, Usage: "Zipf v >= 1"},
			&cli.Int64Flag{Name: "seed", Value: def.Seed, Usage: "random seed"},
			&cli.IntFlag{Name: "preload", Usage: "preload entries (0 = cap/2)"},
			&cli.StringFlag{Name: "metrics-addr", Value: ":8080", Usage: "serve Prometheus metrics at addr; empty = disabled"},
			&cli.StringFlag{Name: "pprof-addr", Usage: "serve pprof at addr (e.g. :6060); empty = disabled"},
			&cli.StringFlag{Name: "log-level", Value: def.LogLevel, Usage: "debug | info | warn | error"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := resolveConfig(cmd)
			if err != nil {
				return err
			}
			return run(ctx, cfg, newLogger(cfg.LogLevel))
		},
	}
}

// resolveConfig layers defaults, the optional config file and explicit flags.
func resolveConfig(cmd *cli.Command) (Config, error) {
	cfg := defaultConfig()
	cfg.MetricsAddr = cmd.String("metrics-addr")
	if path := cmd.String("config"); path != "" {
		if err := loadConfigFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	set := func(name string, apply func()) {
		if cmd.IsSet(name) {
			apply()
		}
	}
	set("impl", func() { cfg.Impl = cmd.String("impl") })
	set("policy", func() { cfg.Policy = cmd.String("policy") })
	set("cap", func() { cfg.Capacity = cmd.Int("cap") })
	set("shards", func() { cfg.Shards = cmd.Int("shards") })
	set("workers", func() { cfg.Workers = cmd.Int("workers") })
	set("duration", func() { cfg.Duration = cmd.Duration("duration") })
	set("reads", func() { cfg.ReadPct = cmd.Int("reads") })
	set("keys", func() { cfg.Keys = cmd.Int("keys") })
	set("zipf-s", func() { cfg.ZipfS = cmd.Float("zipf-s") })
	set("zipf-v", func() { cfg.ZipfV = cmd.Float("zipf-v") })
	set("seed", func() { cfg.Seed = cmd.Int64("seed") })
	set("preload", func() { cfg.Preload = cmd.Int("preload") })
	set("metrics-addr", func() { cfg.MetricsAddr = cmd.String("metrics-addr") })
	set("pprof-addr", func() { cfg.PprofAddr = cmd.String("pprof-addr") })
	set("log-level", func() { cfg.LogLevel = cmd.String("log-level") })

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.ToUpper(level))); err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}

func run(ctx context.Context, cfg Config, log *slog.Logger) error {
	if cfg.PprofAddr != "" {
		go serve(ctx, log, "pprof", cfg.PprofAddr, http.DefaultServeMux)
	}

	var metrics cache.Metrics
	if cfg.MetricsAddr != "" && cfg.Impl == implLRUList {
		reg := prometheus.NewRegistry()
		m, err := prom.New(reg, "lrulist", "bench", prometheus.Labels{"policy": cfg.Policy})
		if err != nil {
			return err
		}
		metrics = m

		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		go serve(ctx, log, "metrics", cfg.MetricsAddr, mux)
	}

	t, err := newTarget(cfg, metrics)
	if err != nil {
		return err
	}
	defer t.Close()

	log.Info("starting workload",
		"impl", cfg.Impl, "policy", cfg.Policy, "cap", cfg.Capacity, "shards", cfg.Shards,
		"workers", cfg.Workers, "keys", cfg.Keys, "duration", cfg.Duration, "seed", cfg.Seed)

	rep, err := runWorkload(ctx, cfg, t)
	if err != nil {
		return err
	}

	log.Info("done",
		"ops", rep.Ops,
		"ops_per_sec", fmt.Sprintf("%.0f", rep.opsPerSec()),
		"reads", rep.Reads,
		"writes", rep.Writes,
		"hits", rep.Hits,
		"misses", rep.Misses,
		"hit_rate_pct", fmt.Sprintf("%.2f", rep.hitRate()),
		"len", rep.Len,
		"elapsed", rep.Elapsed)
	return nil
}

// serve runs an HTTP server until ctx is done.
func serve(ctx context.Context, log *slog.Logger, name, addr string, h http.Handler) {
	srv := &http.Server{Addr: addr, Handler: h, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Info("serving", "endpoint", name, "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error("http server stopped", "endpoint", name, "err", err)
	}
}

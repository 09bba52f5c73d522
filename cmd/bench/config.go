package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

var (
	errUnsupportedFormat = errors.New("bench: unsupported config format (use .yaml, .yml or .json)")
	errInvalidConfig     = errors.New("bench: invalid config")
)

// Config describes one benchmark run. It can be loaded from a YAML/JSON
// file and then overridden by flags.
type Config struct {
	Impl     string `koanf:"impl"`   // lrulist | golang-lru | ristretto
	Policy   string `koanf:"policy"` // lru | lip | 2q (lrulist only)
	Capacity int    `koanf:"capacity"`
	Shards   int    `koanf:"shards"`

	Workers  int           `koanf:"workers"`
	Duration time.Duration `koanf:"duration"`
	ReadPct  int           `koanf:"read_pct"`

	Keys    int     `koanf:"keys"`
	ZipfS   float64 `koanf:"zipf_s"`
	ZipfV   float64 `koanf:"zipf_v"`
	Seed    int64   `koanf:"seed"`
	Preload int     `koanf:"preload"` // 0 = capacity/2

	MetricsAddr string `koanf:"metrics_addr"` // empty = disabled
	PprofAddr   string `koanf:"pprof_addr"`   // empty = disabled
	LogLevel    string `koanf:"log_level"`
}

func defaultConfig() Config {
	return Config{
		Impl:     implLRUList,
		Policy:   "lru",
		Capacity: 100_000,
		Workers:  2 * runtime.GOMAXPROCS(0),
		Duration: 10 * time.Second,
		ReadPct:  80,
		Keys:     1_000_000,
		ZipfS:    1.1,
		ZipfV:    1.0,
		Seed:     time.Now().UnixNano(),
		LogLevel: "info",
	}
}

// loadConfigFile overlays the file at path onto cfg. The format is chosen
// by extension.
func loadConfigFile(path string, cfg *Config) error {
	var parser koanf.Parser
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return fmt.Errorf("%w: %q", errUnsupportedFormat, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("bench: read config: %w", err)
	}
	return loadConfigBytes(data, parser, cfg)
}

func loadConfigBytes(data []byte, parser koanf.Parser, cfg *Config) error {
	k := koanf.New(".")
	if err := k.Load(rawbytes.Provider(data), parser); err != nil {
		return fmt.Errorf("bench: parse config: %w", err)
	}
	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return fmt.Errorf("bench: decode config: %w", err)
	}
	return nil
}

// validate checks ranges and fills derived defaults.
func (c *Config) validate() error {
	switch c.Impl {
	case implLRUList, implGolangLRU, implRistretto:
	default:
		return fmt.Errorf("%w: unknown impl %q", errInvalidConfig, c.Impl)
	}
	switch c.Policy {
	case "lru", "lip", "2q":
	default:
		return fmt.Errorf("%w: unknown policy %q (use lru, lip or 2q)", errInvalidConfig, c.Policy)
	}
	if c.Capacity <= 0 {
		return fmt.Errorf("%w: capacity must be > 0", errInvalidConfig)
	}
	if c.Keys <= 1 {
		return fmt.Errorf("%w: keys must be > 1", errInvalidConfig)
	}
	if c.ReadPct < 0 || c.ReadPct > 100 {
		return fmt.Errorf("%w: read_pct must be in [0..100]", errInvalidConfig)
	}
	if c.ZipfS <= 1 || c.ZipfV < 1 {
		return fmt.Errorf("%w: zipf requires s > 1 and v >= 1", errInvalidConfig)
	}
	if c.Duration <= 0 {
		return fmt.Errorf("%w: duration must be > 0", errInvalidConfig)
	}
	c.Workers = max(c.Workers, 1)
	if c.Preload <= 0 {
		c.Preload = c.Capacity / 2
	}
	return nil
}

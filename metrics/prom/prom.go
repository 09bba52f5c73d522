// Package prom exports cache metrics to Prometheus.
package prom

import (
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/IvanBrykalov/lrulist/cache"
)

// Adapter implements cache.Metrics with Prometheus counters and gauges.
// All Prometheus metric types are goroutine-safe.
type Adapter struct {
	hits     prometheus.Counter
	misses   prometheus.Counter
	evicts   *prometheus.CounterVec
	sizeEnt  prometheus.Gauge
	sizeCost prometheus.Gauge
}

// New builds an adapter and registers its collectors.
//   - reg:          registry to register with (nil => prometheus.DefaultRegisterer)
//   - ns, sub:      Prometheus namespace and subsystem
//   - constLabels:  static labels applied to all metrics (may be nil)
//
// If the same metrics are already registered (e.g. a second cache with the
// same names), the existing collectors are reused.
func New(reg prometheus.Registerer, ns, sub string, constLabels prometheus.Labels) (*Adapter, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	opts := func(name, help string) prometheus.Opts {
		return prometheus.Opts{
			Namespace:   ns,
			Subsystem:   sub,
			Name:        name,
			Help:        help,
			ConstLabels: constLabels,
		}
	}

	a := &Adapter{
		hits:   prometheus.NewCounter(prometheus.CounterOpts(opts("hits_total", "Cache hits"))),
		misses: prometheus.NewCounter(prometheus.CounterOpts(opts("misses_total", "Cache misses"))),
		evicts: prometheus.NewCounterVec(
			prometheus.CounterOpts(opts("evictions_total", "Cache evictions by reason")),
			[]string{"reason"},
		),
		sizeEnt:  prometheus.NewGauge(prometheus.GaugeOpts(opts("size_entries", "Resident entries"))),
		sizeCost: prometheus.NewGauge(prometheus.GaugeOpts(opts("size_cost", "Total resident cost"))),
	}

	var err error
	a.hits = register(reg, a.hits, &err)
	a.misses = register(reg, a.misses, &err)
	a.evicts = register(reg, a.evicts, &err)
	a.sizeEnt = register(reg, a.sizeEnt, &err)
	a.sizeCost = register(reg, a.sizeCost, &err)
	if err != nil {
		return nil, fmt.Errorf("prom: register cache metrics: %w", err)
	}
	return a, nil
}

// MustNew is like New but panics on registration errors.
func MustNew(reg prometheus.Registerer, ns, sub string, constLabels prometheus.Labels) *Adapter {
	a, err := New(reg, ns, sub, constLabels)
	if err != nil {
		panic(err)
	}
	return a
}

// register registers c, returning the already-registered collector on a
// duplicate. The first other error is kept in *errp.
func register[C prometheus.Collector](reg prometheus.Registerer, c C, errp *error) C {
	err := reg.Register(c)
	if err == nil {
		return c
	}
	var are prometheus.AlreadyRegisteredError
	if errors.As(err, &are) {
		if existing, ok := are.ExistingCollector.(C); ok {
			return existing
		}
	}
	if *errp == nil {
		*errp = err
	}
	return c
}

// Hit increments the hit counter.
func (a *Adapter) Hit() { a.hits.Inc() }

// Miss increments the miss counter.
func (a *Adapter) Miss() { a.misses.Inc() }

// Evict increments the eviction counter with a reason label.
func (a *Adapter) Evict(r cache.EvictReason) {
	a.evicts.WithLabelValues(r.String()).Inc()
}

// Resize applies a shard's size change to the gauges.
func (a *Adapter) Resize(entries int, cost int64) {
	a.sizeEnt.Add(float64(entries))
	a.sizeCost.Add(float64(cost))
}

var _ cache.Metrics = (*Adapter)(nil)

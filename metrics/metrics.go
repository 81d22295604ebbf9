// Package metrics exports simulation counters as Prometheus metrics.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/sarchlab/csim/cache"
	"github.com/sarchlab/csim/sim"
)

// Metric names.
const (
	MetricHits      = "csim_hits_total"
	MetricMisses    = "csim_misses_total"
	MetricEvictions = "csim_evictions_total"
	MetricAccesses  = "csim_accesses_total"
)

// Collector counts access outcomes as Prometheus counters.
type Collector struct {
	hits      prometheus.Counter
	misses    prometheus.Counter
	evictions prometheus.Counter
	accesses  *prometheus.CounterVec
}

// Compile-time check that Collector implements sim.Observer.
var _ sim.Observer = (*Collector)(nil)

// New creates a Collector and registers its metrics.
// If registry is nil, prometheus.DefaultRegisterer is used.
func New(registry prometheus.Registerer) (*Collector, error) {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}

	c := &Collector{
		hits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricHits,
			Help: "Accesses that found their block in the cache.",
		}),
		misses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricMisses,
			Help: "Accesses that did not find their block in the cache.",
		}),
		evictions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricEvictions,
			Help: "Misses that replaced a valid line.",
		}),
		accesses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: MetricAccesses,
			Help: "Trace records processed, by operation.",
		}, []string{"op"}),
	}

	for _, m := range []prometheus.Collector{c.hits, c.misses, c.evictions, c.accesses} {
		if err := registry.Register(m); err != nil {
			return nil, fmt.Errorf("registering metric: %w", err)
		}
	}

	return c, nil
}

// Observe counts the classifications of one processed record.
func (c *Collector) Observe(event sim.Event) {
	c.accesses.WithLabelValues(event.Record.Op.String()).Inc()

	for _, class := range event.Results {
		switch class {
		case cache.Hit:
			c.hits.Inc()
		case cache.Miss:
			c.misses.Inc()
		case cache.MissWithEviction:
			c.misses.Inc()
			c.evictions.Inc()
		}
	}
}

// WriteTextfile writes everything the gatherer holds to path in the text
// exposition format, for pickup by a node exporter textfile collector.
func WriteTextfile(path string, g prometheus.Gatherer) error {
	if err := prometheus.WriteToTextfile(path, g); err != nil {
		return fmt.Errorf("writing metrics: %w", err)
	}
	return nil
}

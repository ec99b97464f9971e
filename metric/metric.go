// Package metric provides counters for graph execution, exposed through
// the standard expvar registry.
package metric

import (
	"expvar"
	"sync/atomic"
)

// Metric collects counters of a running graph.
type Metric struct {
	ticks   int64
	waves   int64
	nodes   int64
	samples int64
}

// New returns a new empty metric.
func New() *Metric {
	return &Metric{}
}

// AddTick increments the number of performed ticks.
func (m *Metric) AddTick() {
	atomic.AddInt64(&m.ticks, 1)
}

// AddWaves adds the number of executed waves.
func (m *Metric) AddWaves(waves int64) {
	atomic.AddInt64(&m.waves, waves)
}

// AddNodes adds the number of processed nodes.
func (m *Metric) AddNodes(nodes int64) {
	atomic.AddInt64(&m.nodes, nodes)
}

// AddSamples adds the number of produced samples.
func (m *Metric) AddSamples(samples int64) {
	atomic.AddInt64(&m.samples, samples)
}

// Ticks returns the number of performed ticks.
func (m *Metric) Ticks() int64 { return atomic.LoadInt64(&m.ticks) }

// Waves returns the number of executed waves.
func (m *Metric) Waves() int64 { return atomic.LoadInt64(&m.waves) }

// Nodes returns the number of processed nodes.
func (m *Metric) Nodes() int64 { return atomic.LoadInt64(&m.nodes) }

// Samples returns the number of produced samples.
func (m *Metric) Samples() int64 { return atomic.LoadInt64(&m.samples) }

// Publish exposes the metric under provided name in the expvar registry.
// Publishing under a name that is already taken is a no-op.
func (m *Metric) Publish(name string) {
	if expvar.Get(name) != nil {
		return
	}
	expvar.Publish(name, expvar.Func(func() interface{} {
		return map[string]int64{
			"Ticks":   m.Ticks(),
			"Waves":   m.Waves(),
			"Nodes":   m.Nodes(),
			"Samples": m.Samples(),
		}
	}))
}

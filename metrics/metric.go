// Copyright (C) 2020-2026, InterCooperative Network Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

// Package metrics is the counter/gauge/averager surface coordination
// telemetry records through. A Registry hands out named instruments and
// can mirror every one of them into a prometheus.Registerer, so the same
// samples the coordinator uses for adaptive peer selection are scrapeable
// without a second bookkeeping path.
package metrics

import (
	"fmt"
	"math"
	"sync"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
)

// Counter is a monotonically increasing count.
type Counter interface {
	Inc()
	Add(delta int64)
	Read() int64
}

// Gauge is a value that moves in both directions.
type Gauge interface {
	Set(value float64)
	Add(delta float64)
	Read() float64
}

// Averager accumulates observations and reports their running mean.
type Averager interface {
	Observe(value float64)
	Read() float64
}

type counter struct {
	value int64
	prom  prometheus.Counter
}

func (c *counter) Inc() { c.Add(1) }

func (c *counter) Add(delta int64) {
	atomic.AddInt64(&c.value, delta)
	if c.prom != nil && delta > 0 {
		c.prom.Add(float64(delta))
	}
}

func (c *counter) Read() int64 { return atomic.LoadInt64(&c.value) }

type gauge struct {
	bits uint64
	prom prometheus.Gauge
}

func (g *gauge) Set(value float64) {
	atomic.StoreUint64(&g.bits, math.Float64bits(value))
	if g.prom != nil {
		g.prom.Set(value)
	}
}

func (g *gauge) Add(delta float64) {
	for {
		old := atomic.LoadUint64(&g.bits)
		next := math.Float64bits(math.Float64frombits(old) + delta)
		if atomic.CompareAndSwapUint64(&g.bits, old, next) {
			break
		}
	}
	if g.prom != nil {
		g.prom.Add(delta)
	}
}

func (g *gauge) Read() float64 { return math.Float64frombits(atomic.LoadUint64(&g.bits)) }

type averager struct {
	mu    sync.Mutex
	sum   float64
	count float64

	promCount prometheus.Counter
	promSum   prometheus.Gauge
}

func (a *averager) Observe(value float64) {
	a.mu.Lock()
	a.sum += value
	a.count++
	a.mu.Unlock()

	if a.promCount != nil {
		a.promCount.Inc()
	}
	if a.promSum != nil {
		a.promSum.Add(value)
	}
}

func (a *averager) Read() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.count == 0 {
		return 0
	}
	return a.sum / a.count
}

// Registry creates and looks up named instruments. Creating the same name
// twice returns the instrument already registered under it.
type Registry interface {
	NewCounter(name string) Counter
	NewGauge(name string) Gauge
	NewAverager(name string) Averager
	GetCounter(name string) (Counter, error)
	GetGauge(name string) (Gauge, error)
	GetAverager(name string) (Averager, error)
}

type registry struct {
	mu        sync.Mutex
	prom      prometheus.Registerer
	counters  map[string]*counter
	gauges    map[string]*gauge
	averagers map[string]*averager
}

// NewRegistry returns a Registry with no scrape backend; instruments are
// readable in-process only.
func NewRegistry() Registry {
	return NewPrometheusRegistry(nil)
}

// NewPrometheusRegistry returns a Registry that additionally registers
// every instrument with prom. A name prometheus rejects (duplicate
// collector, bad characters) still yields a working in-process instrument.
func NewPrometheusRegistry(prom prometheus.Registerer) Registry {
	return &registry{
		prom:      prom,
		counters:  make(map[string]*counter),
		gauges:    make(map[string]*gauge),
		averagers: make(map[string]*averager),
	}
}

func (r *registry) NewCounter(name string) Counter {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.counters[name]; ok {
		return c
	}
	c := &counter{}
	if r.prom != nil {
		pc := prometheus.NewCounter(prometheus.CounterOpts{Name: name})
		if r.prom.Register(pc) == nil {
			c.prom = pc
		}
	}
	r.counters[name] = c
	return c
}

func (r *registry) NewGauge(name string) Gauge {
	r.mu.Lock()
	defer r.mu.Unlock()
	if g, ok := r.gauges[name]; ok {
		return g
	}
	g := &gauge{}
	if r.prom != nil {
		pg := prometheus.NewGauge(prometheus.GaugeOpts{Name: name})
		if r.prom.Register(pg) == nil {
			g.prom = pg
		}
	}
	r.gauges[name] = g
	return g
}

func (r *registry) NewAverager(name string) Averager {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a, ok := r.averagers[name]; ok {
		return a
	}
	a := &averager{}
	if r.prom != nil {
		pc := prometheus.NewCounter(prometheus.CounterOpts{Name: name + "_count"})
		ps := prometheus.NewGauge(prometheus.GaugeOpts{Name: name + "_sum"})
		if r.prom.Register(pc) == nil {
			a.promCount = pc
		}
		if r.prom.Register(ps) == nil {
			a.promSum = ps
		}
	}
	r.averagers[name] = a
	return a
}

func (r *registry) GetCounter(name string) (Counter, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.counters[name]
	if !ok {
		return nil, fmt.Errorf("metrics: no counter %q", name)
	}
	return c, nil
}

func (r *registry) GetGauge(name string) (Gauge, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.gauges[name]
	if !ok {
		return nil, fmt.Errorf("metrics: no gauge %q", name)
	}
	return g, nil
}

func (r *registry) GetAverager(name string) (Averager, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.averagers[name]
	if !ok {
		return nil, fmt.Errorf("metrics: no averager %q", name)
	}
	return a, nil
}

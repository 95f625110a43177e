// Package metrics exposes named meters, timers and gauges backed
// by a prometheus registry.
//
// Names use the slash separated form ("chain/inserts"); they are converted to
// prometheus series names ("chain_inserts") on registration.
package metrics

import (
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// DefaultRegistry holds every metric registered with a nil registry.
var DefaultRegistry = prometheus.NewRegistry()

var (
	lock       sync.Mutex
	registered = make(map[string]interface{})
)

func init() {
	DefaultRegistry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
}

// Meter counts events.
type Meter interface {
	Mark(n int64)
	Count() int64
}

// Timer records durations.
type Timer interface {
	Update(d time.Duration)
	UpdateSince(ts time.Time)
	Count() int64
}

// Gauge holds a single int64 value.
type Gauge interface {
	Update(v int64)
	Value() int64
}

func seriesName(name string) string {
	r := strings.NewReplacer("/", "_", ".", "_", "-", "_")
	return r.Replace(name)
}

func register(name string, r prometheus.Registerer, build func() (interface{}, prometheus.Collector)) interface{} {
	lock.Lock()
	defer lock.Unlock()

	if m, ok := registered[name]; ok {
		return m
	}
	if r == nil {
		r = DefaultRegistry
	}
	m, c := build()
	if err := r.Register(c); err != nil {
		if _, dup := err.(prometheus.AlreadyRegisteredError); !dup {
			panic(err)
		}
	}
	registered[name] = m
	return m
}

type meter struct {
	count int64
	c     prometheus.Counter
}

func (m *meter) Mark(n int64) {
	atomic.AddInt64(&m.count, n)
	m.c.Add(float64(n))
}

func (m *meter) Count() int64 { return atomic.LoadInt64(&m.count) }

// NewRegisteredMeter constructs and registers a new meter. A nil registry
// selects DefaultRegistry. Registering the same name twice returns the
// existing meter.
func NewRegisteredMeter(name string, r prometheus.Registerer) Meter {
	return register(name, r, func() (interface{}, prometheus.Collector) {
		c := prometheus.NewCounter(prometheus.CounterOpts{Name: seriesName(name), Help: name})
		return &meter{c: c}, c
	}).(Meter)
}

type timer struct {
	count int64
	h     prometheus.Histogram
}

func (t *timer) Update(d time.Duration) {
	atomic.AddInt64(&t.count, 1)
	t.h.Observe(d.Seconds())
}

func (t *timer) UpdateSince(ts time.Time) { t.Update(time.Since(ts)) }

func (t *timer) Count() int64 { return atomic.LoadInt64(&t.count) }

// NewRegisteredTimer constructs and registers a new timer.
func NewRegisteredTimer(name string, r prometheus.Registerer) Timer {
	return register(name, r, func() (interface{}, prometheus.Collector) {
		h := prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    seriesName(name) + "_seconds",
			Help:    name,
			Buckets: prometheus.ExponentialBuckets(0.00005, 4, 10),
		})
		return &timer{h: h}, h
	}).(Timer)
}

type gauge struct {
	value int64
	g     prometheus.Gauge
}

func (g *gauge) Update(v int64) {
	atomic.StoreInt64(&g.value, v)
	g.g.Set(float64(v))
}

func (g *gauge) Value() int64 { return atomic.LoadInt64(&g.value) }

// NewRegisteredGauge constructs and registers a new gauge.
func NewRegisteredGauge(name string, r prometheus.Registerer) Gauge {
	return register(name, r, func() (interface{}, prometheus.Collector) {
		g := prometheus.NewGauge(prometheus.GaugeOpts{Name: seriesName(name), Help: name})
		return &gauge{g: g}, g
	}).(Gauge)
}

// Handler serves DefaultRegistry in the prometheus exposition format.
func Handler() http.Handler {
	return promhttp.HandlerFor(DefaultRegistry, promhttp.HandlerOpts{})
}

package metrics

import (
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusProvider backs Provider with real prometheus.Collector instruments,
// registered against a caller-supplied registry. Instruments are created on
// demand by name and reused for the same name, mirroring BasicProvider's
// lazy-creation behavior but backing each instrument with a registered
// Collector instead of an in-memory counter.
type PrometheusProvider struct {
	reg prometheus.Registerer

	mu         sync.Mutex
	counters   map[string]*prometheusCounter
	updowns    map[string]*prometheusGauge
	histograms map[string]*prometheusHistogram
}

// NewPrometheusProvider constructs a PrometheusProvider that registers its
// instruments against reg. Passing prometheus.DefaultRegisterer wires duet's
// metrics into the process-wide /metrics endpoint.
func NewPrometheusProvider(reg prometheus.Registerer) *PrometheusProvider {
	return &PrometheusProvider{
		reg:        reg,
		counters:   make(map[string]*prometheusCounter),
		updowns:    make(map[string]*prometheusGauge),
		histograms: make(map[string]*prometheusHistogram),
	}
}

// fqName turns a dotted instrument name such as "duet.tasks.spawned" into a
// Prometheus-friendly identifier, since "." is not a legal metric name rune.
func fqName(name string) string {
	return strings.ReplaceAll(name, ".", "_")
}

func (p *PrometheusProvider) Counter(name string, opts ...InstrumentOption) Counter {
	p.mu.Lock()
	defer p.mu.Unlock()
	if c, ok := p.counters[name]; ok {
		return c
	}
	cfg := applyOptions(opts)
	raw := prometheus.NewCounter(prometheus.CounterOpts{
		Name:        fqName(name),
		Help:        helpOrDefault(cfg.Description, name),
		ConstLabels: cfg.Attributes,
	})
	p.reg.MustRegister(raw)
	c := &prometheusCounter{raw}
	p.counters[name] = c
	return c
}

func (p *PrometheusProvider) UpDownCounter(name string, opts ...InstrumentOption) UpDownCounter {
	p.mu.Lock()
	defer p.mu.Unlock()
	if g, ok := p.updowns[name]; ok {
		return g
	}
	cfg := applyOptions(opts)
	raw := prometheus.NewGauge(prometheus.GaugeOpts{
		Name:        fqName(name),
		Help:        helpOrDefault(cfg.Description, name),
		ConstLabels: cfg.Attributes,
	})
	p.reg.MustRegister(raw)
	g := &prometheusGauge{raw}
	p.updowns[name] = g
	return g
}

func (p *PrometheusProvider) Histogram(name string, opts ...InstrumentOption) Histogram {
	p.mu.Lock()
	defer p.mu.Unlock()
	if h, ok := p.histograms[name]; ok {
		return h
	}
	cfg := applyOptions(opts)
	raw := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:        fqName(name),
		Help:        helpOrDefault(cfg.Description, name),
		ConstLabels: cfg.Attributes,
	})
	p.reg.MustRegister(raw)
	h := &prometheusHistogram{raw}
	p.histograms[name] = h
	return h
}

func helpOrDefault(desc, name string) string {
	if desc != "" {
		return desc
	}
	return name
}

// prometheusCounter adapts prometheus.Counter's Inc/Add(float64) surface to
// the single Add(n int64) method Counter requires.
type prometheusCounter struct {
	c prometheus.Counter
}

func (p *prometheusCounter) Add(n int64) { p.c.Add(float64(n)) }

// prometheusGauge adapts prometheus.Gauge's Inc/Dec/Add(float64) surface to
// the single Add(n int64) method UpDownCounter requires.
type prometheusGauge struct {
	g prometheus.Gauge
}

func (p *prometheusGauge) Add(n int64) { p.g.Add(float64(n)) }

// prometheusHistogram adapts prometheus.Histogram's Observe(float64) to the
// Record(v float64) method Histogram requires.
type prometheusHistogram struct {
	h prometheus.Histogram
}

func (p *prometheusHistogram) Record(v float64) { p.h.Observe(v) }

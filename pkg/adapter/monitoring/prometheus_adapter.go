package monitoring

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/turtacn/eventflow/pkg/common/errors"
)

// prometheusCounter 包装一个零标签Counter或一个带标签的CounterVec
// prometheusCounter wraps either a zero-label Counter or a labeled
// CounterVec — calling Inc/Add directly only makes sense for the former.
type prometheusCounter struct {
	counter prometheus.Counter
	vec     *prometheus.CounterVec
}

func (pc *prometheusCounter) Inc() {
	if pc.counter != nil {
		pc.counter.Inc()
	}
}

func (pc *prometheusCounter) Add(val float64) {
	if pc.counter != nil {
		pc.counter.Add(val)
	}
}

func (pc *prometheusCounter) With(labelValues ...string) Counter {
	if pc.vec == nil {
		return pc
	}
	return &prometheusCounter{counter: pc.vec.WithLabelValues(labelValues...)}
}

// prometheusGauge 包装一个零标签Gauge或一个带标签的GaugeVec
// prometheusGauge wraps either a zero-label Gauge or a labeled GaugeVec.
type prometheusGauge struct {
	gauge prometheus.Gauge
	vec   *prometheus.GaugeVec
}

func (pg *prometheusGauge) Set(val float64) {
	if pg.gauge != nil {
		pg.gauge.Set(val)
	}
}
func (pg *prometheusGauge) Inc() {
	if pg.gauge != nil {
		pg.gauge.Inc()
	}
}
func (pg *prometheusGauge) Dec() {
	if pg.gauge != nil {
		pg.gauge.Dec()
	}
}
func (pg *prometheusGauge) Add(val float64) {
	if pg.gauge != nil {
		pg.gauge.Add(val)
	}
}
func (pg *prometheusGauge) Sub(val float64) {
	if pg.gauge != nil {
		pg.gauge.Sub(val)
	}
}
func (pg *prometheusGauge) With(labelValues ...string) Gauge {
	if pg.vec == nil {
		return pg
	}
	return &prometheusGauge{gauge: pg.vec.WithLabelValues(labelValues...)}
}

// prometheusHistogram 包装一个零标签Histogram或一个带标签的HistogramVec
// prometheusHistogram wraps either a zero-label Histogram or a labeled
// HistogramVec.
type prometheusHistogram struct {
	histogram prometheus.Observer
	vec       *prometheus.HistogramVec
}

func (ph *prometheusHistogram) Observe(val float64) {
	if ph.histogram != nil {
		ph.histogram.Observe(val)
	}
}
func (ph *prometheusHistogram) With(labelValues ...string) Histogram {
	if ph.vec == nil {
		return ph
	}
	return &prometheusHistogram{histogram: ph.vec.WithLabelValues(labelValues...)}
}

// prometheusSummary 包装一个零标签Summary或一个带标签的SummaryVec
// prometheusSummary wraps either a zero-label Summary or a labeled
// SummaryVec.
type prometheusSummary struct {
	summary prometheus.Observer
	vec     *prometheus.SummaryVec
}

func (ps *prometheusSummary) Observe(val float64) {
	if ps.summary != nil {
		ps.summary.Observe(val)
	}
}
func (ps *prometheusSummary) With(labelValues ...string) Summary {
	if ps.vec == nil {
		return ps
	}
	return &prometheusSummary{summary: ps.vec.WithLabelValues(labelValues...)}
}

// prometheusExporter implements MetricsExporter using Prometheus.
// prometheusExporter 使用Prometheus实现MetricsExporter。
type prometheusExporter struct {
	registry *prometheus.Registry
	mu       sync.Mutex
}

// NewPrometheusExporter creates a new Prometheus metrics exporter.
// NewPrometheusExporter 创建一个新的Prometheus度量指标导出器。
func NewPrometheusExporter() (MetricsExporter, error) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(prometheus.NewGoCollector())
	reg.MustRegister(prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))

	return &prometheusExporter{registry: reg}, nil
}

func (pe *prometheusExporter) RegisterCounter(name, help string, labels ...string) (Counter, error) {
	pe.mu.Lock()
	defer pe.mu.Unlock()

	if len(labels) == 0 {
		c := prometheus.NewCounter(prometheus.CounterOpts{Name: name, Help: help})
		if err := pe.registry.Register(c); err != nil {
			return nil, errors.Wrapf(err, errors.InternalError, "failed to register Prometheus counter '%s'", name)
		}
		return &prometheusCounter{counter: c}, nil
	}

	vec := prometheus.NewCounterVec(prometheus.CounterOpts{Name: name, Help: help}, labels)
	if err := pe.registry.Register(vec); err != nil {
		return nil, errors.Wrapf(err, errors.InternalError, "failed to register Prometheus counter '%s'", name)
	}
	return &prometheusCounter{vec: vec}, nil
}

func (pe *prometheusExporter) RegisterGauge(name, help string, labels ...string) (Gauge, error) {
	pe.mu.Lock()
	defer pe.mu.Unlock()

	if len(labels) == 0 {
		g := prometheus.NewGauge(prometheus.GaugeOpts{Name: name, Help: help})
		if err := pe.registry.Register(g); err != nil {
			return nil, errors.Wrapf(err, errors.InternalError, "failed to register Prometheus gauge '%s'", name)
		}
		return &prometheusGauge{gauge: g}, nil
	}

	vec := prometheus.NewGaugeVec(prometheus.GaugeOpts{Name: name, Help: help}, labels)
	if err := pe.registry.Register(vec); err != nil {
		return nil, errors.Wrapf(err, errors.InternalError, "failed to register Prometheus gauge '%s'", name)
	}
	return &prometheusGauge{vec: vec}, nil
}

func (pe *prometheusExporter) RegisterHistogram(name, help string, buckets []float64, labels ...string) (Histogram, error) {
	pe.mu.Lock()
	defer pe.mu.Unlock()

	if buckets == nil {
		buckets = prometheus.DefBuckets
	}

	if len(labels) == 0 {
		h := prometheus.NewHistogram(prometheus.HistogramOpts{Name: name, Help: help, Buckets: buckets})
		if err := pe.registry.Register(h); err != nil {
			return nil, errors.Wrapf(err, errors.InternalError, "failed to register Prometheus histogram '%s'", name)
		}
		return &prometheusHistogram{histogram: h}, nil
	}

	vec := prometheus.NewHistogramVec(prometheus.HistogramOpts{Name: name, Help: help, Buckets: buckets}, labels)
	if err := pe.registry.Register(vec); err != nil {
		return nil, errors.Wrapf(err, errors.InternalError, "failed to register Prometheus histogram '%s'", name)
	}
	return &prometheusHistogram{vec: vec}, nil
}

func (pe *prometheusExporter) RegisterSummary(name, help string, objectives map[float64]float64, labels ...string) (Summary, error) {
	pe.mu.Lock()
	defer pe.mu.Unlock()

	if objectives == nil {
		objectives = map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001}
	}

	if len(labels) == 0 {
		s := prometheus.NewSummary(prometheus.SummaryOpts{Name: name, Help: help, Objectives: objectives})
		if err := pe.registry.Register(s); err != nil {
			return nil, errors.Wrapf(err, errors.InternalError, "failed to register Prometheus summary '%s'", name)
		}
		return &prometheusSummary{summary: s}, nil
	}

	vec := prometheus.NewSummaryVec(prometheus.SummaryOpts{Name: name, Help: help, Objectives: objectives}, labels)
	if err := pe.registry.Register(vec); err != nil {
		return nil, errors.Wrapf(err, errors.InternalError, "failed to register Prometheus summary '%s'", name)
	}
	return &prometheusSummary{vec: vec}, nil
}

func (pe *prometheusExporter) ExposeHandler() http.Handler {
	return promhttp.HandlerFor(pe.registry, promhttp.HandlerOpts{})
}

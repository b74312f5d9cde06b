package store

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds the store's optional Prometheus instrumentation. A
// Store built without WithMetrics still records into a Metrics value
// that isn't registered anywhere, so call sites never need a nil
// check.
type Metrics struct {
	writes     *prometheus.CounterVec
	reads      *prometheus.CounterVec
	errors     *prometheus.CounterVec
	loadTime   prometheus.Histogram
	saveTime   prometheus.Histogram
}

// NewMetrics builds a Metrics instance and, if reg is non-nil,
// registers its collectors against reg. Passing nil is valid and
// yields a Metrics that records but is never scraped — useful for
// tests and for callers who don't run an HTTP exporter.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		writes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "confer",
			Subsystem: "store",
			Name:      "writes_total",
			Help:      "Number of SetRaw/typed-set/ReconcileSection calls, by section.",
		}, []string{"section"}),
		reads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "confer",
			Subsystem: "store",
			Name:      "reads_total",
			Help:      "Number of typed-get calls, by section.",
		}, []string{"section"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "confer",
			Subsystem: "store",
			Name:      "errors_total",
			Help:      "Number of failed operations, by error code.",
		}, []string{"code"}),
		loadTime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "confer",
			Subsystem: "store",
			Name:      "load_seconds",
			Help:      "Time spent in ReadFile/LoadString.",
		}),
		saveTime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "confer",
			Subsystem: "store",
			Name:      "write_seconds",
			Help:      "Time spent in WriteFile/Serialize.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.writes, m.reads, m.errors, m.loadTime, m.saveTime)
	}
	return m
}

func (m *Metrics) recordWrite(section string) {
	if m == nil {
		return
	}
	m.writes.WithLabelValues(section).Inc()
}

func (m *Metrics) recordRead(section string) {
	if m == nil {
		return
	}
	m.reads.WithLabelValues(section).Inc()
}

func (m *Metrics) recordError(code ErrCode) {
	if m == nil {
		return
	}
	m.errors.WithLabelValues(code.String()).Inc()
}

package recordstream

import (
	"github.com/brimdata/wave"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts what sources deliver.  A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	records     *prometheus.CounterVec
	bytes       *prometheus.CounterVec
	failures    *prometheus.CounterVec
	queueDepth  prometheus.Gauge
	transitions *prometheus.CounterVec
}

func NewMetrics(registerer prometheus.Registerer) *Metrics {
	if registerer == nil {
		registerer = prometheus.NewRegistry()
	}
	factory := promauto.With(registerer)
	return &Metrics{
		records: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "recordstream_records_total",
				Help: "Number of records delivered by a source.",
			},
			[]string{"source"},
		),
		bytes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "recordstream_bytes_total",
				Help: "Number of record bytes delivered by a source.",
			},
			[]string{"source"},
		),
		failures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "recordstream_backend_failures_total",
				Help: "Number of backends that ended their acquisition with an error.",
			},
			[]string{"source"},
		),
		queueDepth: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "recordstream_queue_depth",
				Help: "Number of records waiting in balanced source queues.",
			},
		),
		transitions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "recordstream_phase_transitions_total",
				Help: "Number of phases entered by combined sources.",
			},
			[]string{"phase"},
		),
	}
}

// Record counts rec as delivered by a source of type source.
func (m *Metrics) Record(source string, rec *wave.Record) {
	if m == nil || rec == nil {
		return
	}
	m.records.WithLabelValues(source).Inc()
	m.bytes.WithLabelValues(source).Add(float64(len(rec.Data)))
}

func (m *Metrics) BackendFailure(source string) {
	if m == nil {
		return
	}
	m.failures.WithLabelValues(source).Inc()
}

func (m *Metrics) QueueDepth(n int) {
	if m == nil {
		return
	}
	m.queueDepth.Set(float64(n))
}

func (m *Metrics) Phase(phase string) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(phase).Inc()
}

package stream

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics instruments the pipeline. All methods are safe on a nil
// receiver so instrumentation stays optional.
type Metrics struct {
	fragmentsEnqueued prometheus.Counter
	fragmentsDropped  prometheus.Counter
	sinkUpdates       prometheus.Counter
	outcomes          *prometheus.CounterVec
}

// NewMetrics registers the pipeline metrics with the given registerer.
// Pass prometheus.DefaultRegisterer for the process-wide registry.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		fragmentsEnqueued: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stream_fragments_enqueued_total",
			Help:      "Total number of fragments accepted onto the bounded queue",
		}),
		fragmentsDropped: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stream_fragments_dropped_total",
			Help:      "Total number of fragments dropped under backpressure",
		}),
		sinkUpdates: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stream_sink_updates_total",
			Help:      "Total number of display sink invocations",
		}),
		outcomes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stream_outcomes_total",
			Help:      "Terminal pipeline outcomes by status",
		}, []string{"status"}),
	}
}

func (m *Metrics) fragmentEnqueued() {
	if m != nil {
		m.fragmentsEnqueued.Inc()
	}
}

func (m *Metrics) fragmentDropped() {
	if m != nil {
		m.fragmentsDropped.Inc()
	}
}

func (m *Metrics) sinkUpdate() {
	if m != nil {
		m.sinkUpdates.Inc()
	}
}

func (m *Metrics) outcome(status string) {
	if m != nil {
		m.outcomes.WithLabelValues(status).Inc()
	}
}

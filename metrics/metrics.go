// Package metrics exposes pipeline counters as Prometheus collectors.
//
// A nil *Metrics is valid and records nothing, so components can call its
// methods unconditionally.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/philipp01105/batchlog/core"
)

const namespace = "batchlog"

// Metrics holds the collectors of one pipeline
type Metrics struct {
	enqueued         prometheus.Counter
	flushes          *prometheus.CounterVec
	batchSize        prometheus.Histogram
	appenderFailures *prometheus.CounterVec
	dropped          *prometheus.CounterVec
}

// New creates the collectors and registers them on reg. With a nil reg the
// collectors work but are not exported. Registering twice on the same
// registerer panics.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		enqueued: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_enqueued_total",
			Help:      "Events accepted into the dispatch buffer.",
		}),
		flushes: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "flushes_total",
			Help:      "Non-empty buffer flushes by trigger.",
		}, []string{"trigger"}),
		batchSize: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "flush_batch_size",
			Help:      "Number of events handed to appenders per flush.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
		}),
		appenderFailures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "appender_failures_total",
			Help:      "Batches an appender failed to write, including panics.",
		}, []string{"appender"}),
		dropped: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "submissions_dropped_total",
			Help:      "Log calls dropped by the worker pool overflow policy.",
		}, []string{"level"}),
	}
}

// EventEnqueued counts one event entering the buffer
func (m *Metrics) EventEnqueued() {
	if m == nil {
		return
	}
	m.enqueued.Inc()
}

// Flushed records a non-empty flush of size events
func (m *Metrics) Flushed(trigger string, size int) {
	if m == nil {
		return
	}
	m.flushes.WithLabelValues(trigger).Inc()
	m.batchSize.Observe(float64(size))
}

// AppenderFailed counts one failed batch for the named appender
func (m *Metrics) AppenderFailed(name string) {
	if m == nil {
		return
	}
	m.appenderFailures.WithLabelValues(name).Inc()
}

// SubmissionDropped counts one log call dropped at the given level
func (m *Metrics) SubmissionDropped(level core.Level) {
	if m == nil {
		return
	}
	m.dropped.WithLabelValues(level.String()).Inc()
}

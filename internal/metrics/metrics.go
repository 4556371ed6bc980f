// Package metrics collects and exposes Prometheus metrics for the
// coordinator: event classification counts, debounce drops, backend
// call outcomes, and runner queue depth.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/radio-control/rfkilld/internal/radio"
)

// Collector owns the coordinator metrics. All methods are safe on a nil
// receiver so the coordinator can run unmetered in tests.
type Collector struct {
	registry *prometheus.Registry

	eventsSeen     prometheus.Counter
	eventsIgnored  prometheus.Counter
	debounceDrops  *prometheus.CounterVec
	epoSuppressed  prometheus.Counter
	backendCalls   *prometheus.CounterVec
	backendErrors  *prometheus.CounterVec
	epoTotal       prometheus.Counter
	backendLatency prometheus.Histogram
	queueDepth     prometheus.Gauge
}

// NewCollector creates and registers the coordinator metrics on a fresh
// registry.
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		eventsSeen: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rfkill_input_events_total",
			Help: "Total number of input events delivered to the dispatcher",
		}),
		eventsIgnored: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rfkill_input_events_ignored_total",
			Help: "Total number of input events dropped as unrecognized",
		}),
		debounceDrops: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rfkill_debounce_dropped_total",
			Help: "Total number of schedules dropped inside the debounce window",
		}, []string{"radio"}),
		epoSuppressed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rfkill_epo_suppressed_total",
			Help: "Total number of schedules dropped by the EPO pending gate",
		}),
		backendCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rfkill_backend_calls_total",
			Help: "Total number of backend set calls",
		}, []string{"radio", "state"}),
		backendErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rfkill_backend_errors_total",
			Help: "Total number of backend calls that reported an error",
		}, []string{"radio"}),
		epoTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rfkill_epo_total",
			Help: "Total number of emergency power off executions",
		}),
		backendLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "rfkill_backend_latency_seconds",
			Help:    "Backend call latency distribution",
			Buckets: prometheus.DefBuckets,
		}),
		queueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "rfkill_work_queue_depth",
			Help: "Number of work items queued and not yet started",
		}),
	}

	c.registry.MustRegister(
		c.eventsSeen, c.eventsIgnored, c.debounceDrops, c.epoSuppressed,
		c.backendCalls, c.backendErrors, c.epoTotal, c.backendLatency,
		c.queueDepth,
	)
	return c
}

// Handler returns the /metrics HTTP handler.
func (c *Collector) Handler() http.Handler {
	if c == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// EventSeen counts a delivered input event.
func (c *Collector) EventSeen() {
	if c == nil {
		return
	}
	c.eventsSeen.Inc()
}

// EventIgnored counts an unrecognized input event.
func (c *Collector) EventIgnored() {
	if c == nil {
		return
	}
	c.eventsIgnored.Inc()
}

// DebounceDropped counts a schedule suppressed by the debounce window.
func (c *Collector) DebounceDropped(t radio.Type) {
	if c == nil {
		return
	}
	c.debounceDrops.WithLabelValues(t.String()).Inc()
}

// EPOSuppressed counts a schedule dropped by the EPO pending gate.
func (c *Collector) EPOSuppressed() {
	if c == nil {
		return
	}
	c.epoSuppressed.Inc()
}

// BackendCall counts a completed backend set call and its latency.
func (c *Collector) BackendCall(t radio.Type, s radio.State, seconds float64, err error) {
	if c == nil {
		return
	}
	c.backendCalls.WithLabelValues(t.String(), s.String()).Inc()
	c.backendLatency.Observe(seconds)
	if err != nil {
		c.backendErrors.WithLabelValues(t.String()).Inc()
	}
}

// EPOExecuted counts a completed emergency power off.
func (c *Collector) EPOExecuted(seconds float64) {
	if c == nil {
		return
	}
	c.epoTotal.Inc()
	c.backendLatency.Observe(seconds)
}

// SetQueueDepth records the runner queue depth.
func (c *Collector) SetQueueDepth(n int) {
	if c == nil {
		return
	}
	c.queueDepth.Set(float64(n))
}

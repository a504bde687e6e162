package metrics

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"go-doc-lifecycle/internal/event"
)

const namespace = "doclifecycle"

// Collector turns lifecycle events into Prometheus series.
type Collector struct {
	registry *prometheus.Registry

	transitions    *prometheus.CounterVec
	overwritePass  *prometheus.CounterVec
	bytesErased    prometheus.Counter
	sweepDuration  prometheus.Histogram
	sweepErased    prometheus.Counter
	sweepFailures  prometheus.Counter
	eventsConsumed prometheus.Counter
}

// NewCollector registers the lifecycle metrics on registry, or on a fresh
// registry when nil.
func NewCollector(registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	c := &Collector{
		registry: registry,
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lifecycle_transitions_total",
			Help:      "Document lifecycle transitions by event type.",
		}, []string{"type"}),
		overwritePass: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "overwrite_passes_total",
			Help:      "Secure overwrite passes executed, by method.",
		}, []string{"method"}),
		bytesErased: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "erased_bytes_total",
			Help:      "Bytes of document content securely erased.",
		}),
		sweepDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "retention_sweep_duration_seconds",
			Help:      "Duration of retention sweeps.",
			Buckets:   []float64{0.1, 0.5, 1, 5, 15, 60, 300, 900},
		}),
		sweepErased: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "retention_sweep_erased_total",
			Help:      "Documents erased by retention sweeps.",
		}),
		sweepFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "retention_sweep_failures_total",
			Help:      "Retention sweeps that failed before completing.",
		}),
		eventsConsumed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_consumed_total",
			Help:      "Lifecycle events processed by the metrics collector.",
		}),
	}

	registry.MustRegister(
		c.transitions,
		c.overwritePass,
		c.bytesErased,
		c.sweepDuration,
		c.sweepErased,
		c.sweepFailures,
		c.eventsConsumed,
	)

	return c
}

func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Observe records a single event.
func (c *Collector) Observe(e event.Event) {
	c.eventsConsumed.Inc()

	switch payload := e.Payload.(type) {
	case event.Lifecycle:
		c.transitions.WithLabelValues(string(e.Type)).Inc()
		if e.Type == event.TypeDocumentErased {
			if payload.OverwritePasses > 0 {
				c.overwritePass.WithLabelValues(payload.OverwriteMethod).Add(float64(payload.OverwritePasses))
			}
			c.bytesErased.Add(float64(payload.Bytes))
		}
	case event.Sweep:
		c.sweepDuration.Observe(payload.Duration.Seconds())
		if payload.Error != "" {
			c.sweepFailures.Inc()
			return
		}
		c.sweepErased.Add(float64(payload.Erased))
	}
}

// Consume drains events until ctx is done or the channel closes.
func (c *Collector) Consume(ctx context.Context, events <-chan event.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-events:
			if !ok {
				return
			}
			c.Observe(e)
		}
	}
}

func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
		ErrorHandling:     promhttp.ContinueOnError,
	})
}
